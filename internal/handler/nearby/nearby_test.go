package nearby_test

import (
	"context"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/bdsalocin/comhodl-api/internal/catalog"
	"github.com/bdsalocin/comhodl-api/internal/handler/nearby"
)

func dial(t *testing.T) (context.Context, *websocket.Conn) {
	t.Helper()
	h := nearby.NewHandler(slog.Default(), catalog.Default())
	srv := httptest.NewServer(h.Routes())
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	wsURL := "ws" + srv.URL[len("http"):] + "/nearby"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.CloseNow() })
	return ctx, conn
}

func roundTrip(t *testing.T, ctx context.Context, conn *websocket.Conn, frame any) nearby.Reply {
	t.Helper()
	if err := wsjson.Write(ctx, conn, frame); err != nil {
		t.Fatalf("write: %v", err)
	}
	var reply nearby.Reply
	if err := wsjson.Read(ctx, conn, &reply); err != nil {
		t.Fatalf("read: %v", err)
	}
	return reply
}

func TestNearbyStream(t *testing.T) {
	ctx, conn := dial(t)
	all := catalog.Default().All()

	// Place Royale du Peyrou, then the Comédie: every frame re-annotates the
	// whole catalog in catalog order.
	positions := []nearby.Position{
		{Latitude: 43.6111, Longitude: 3.8700},
		{Latitude: 43.6089, Longitude: 3.8797},
	}
	for _, pos := range positions {
		reply := roundTrip(t, ctx, conn, pos)
		if reply.Error != "" {
			t.Fatalf("unexpected error %q", reply.Error)
		}
		if len(reply.Places) != len(all) {
			t.Fatalf("got %d places, want %d", len(reply.Places), len(all))
		}
		for i, p := range reply.Places {
			if p.ID != all[i].ID {
				t.Fatalf("order changed at %d", i)
			}
			if p.DistanceKm == nil {
				t.Fatalf("place %d has no distance", p.ID)
			}
		}
	}

	conn.Close(websocket.StatusNormalClosure, "done")
}

func TestNearbyStreamRadius(t *testing.T) {
	ctx, conn := dial(t)

	reply := roundTrip(t, ctx, conn, nearby.Position{Latitude: 43.6089, Longitude: 3.8797, RadiusKm: 0.5})
	if len(reply.Places) == 0 || len(reply.Places) >= catalog.Default().Len() {
		t.Fatalf("radius filter returned %d places", len(reply.Places))
	}
	for _, p := range reply.Places {
		if *p.DistanceKm > 0.5 {
			t.Errorf("place %d at %.1f km is outside the radius", p.ID, *p.DistanceKm)
		}
	}
}

func TestNearbyStreamRejectsBadFrames(t *testing.T) {
	ctx, conn := dial(t)

	tests := []struct {
		name      string
		frame     []byte
		wantError string
	}{
		{"not json", []byte("hello"), "invalid position frame"},
		{"latitude out of range", []byte(`{"latitude": 91, "longitude": 3.8}`), "coordinate out of range"},
		{"longitude out of range", []byte(`{"latitude": 43.6, "longitude": -180.5}`), "coordinate out of range"},
		{"negative radius", []byte(`{"latitude": 43.6, "longitude": 3.8, "radiusKm": -1}`), "radiusKm must not be negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := conn.Write(ctx, websocket.MessageText, tt.frame); err != nil {
				t.Fatalf("write: %v", err)
			}
			var reply nearby.Reply
			if err := wsjson.Read(ctx, conn, &reply); err != nil {
				t.Fatalf("read: %v", err)
			}
			if reply.Error != tt.wantError || reply.Places != nil {
				t.Errorf("reply = %+v, want error %q", reply, tt.wantError)
			}
		})
	}

	// The connection survives bad frames.
	reply := roundTrip(t, ctx, conn, nearby.Position{Latitude: 43.6, Longitude: 3.88})
	if reply.Error != "" {
		t.Fatalf("unexpected error %q", reply.Error)
	}
}
