package apiclient_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bdsalocin/comhodl-api/internal/apiclient"
	"github.com/bdsalocin/comhodl-api/internal/comhodl"
	"github.com/bdsalocin/comhodl-api/internal/database"
	"github.com/bdsalocin/comhodl-api/internal/gamification"
	"github.com/bdsalocin/comhodl-api/internal/geo"
	"github.com/bdsalocin/comhodl-api/internal/migrations"
	"github.com/bdsalocin/comhodl-api/internal/server"
	"github.com/bdsalocin/comhodl-api/internal/session"
)

func newClient(t *testing.T, h http.HandlerFunc, opts ...apiclient.Option) *apiclient.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := apiclient.New(srv.URL, opts...)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestNewRejectsBadBaseURL(t *testing.T) {
	for _, raw := range []string{"ftp://example.com", "::not a url", ""} {
		if _, err := apiclient.New(raw); err == nil {
			t.Errorf("New(%q) succeeded", raw)
		}
	}
}

func TestRequestHeaders(t *testing.T) {
	var got http.Header
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Write([]byte(`[]`))
	}, apiclient.WithToken("tok-123"))

	if _, err := c.Merchants(context.Background()); err != nil {
		t.Fatalf("merchants: %v", err)
	}
	if v := got.Get("Authorization"); v != "Bearer tok-123" {
		t.Errorf("authorization = %q", v)
	}
	if v := got.Get("Content-Type"); v != "application/json" {
		t.Errorf("content-type = %q", v)
	}
	if v := got.Get("Accept"); v != "application/json" {
		t.Errorf("accept = %q", v)
	}
}

func TestNoAuthorizationWithoutToken(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if v := r.Header.Get("Authorization"); v != "" {
			t.Errorf("unexpected authorization %q", v)
		}
		w.Write([]byte(`[]`))
	})
	if _, err := c.Merchants(context.Background()); err != nil {
		t.Fatalf("merchants: %v", err)
	}
}

func TestNetworkErrorMessage(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
	}{
		{"message field", http.StatusBadRequest, `{"message":"Email invalide"}`, "Email invalide"},
		{"error field", http.StatusNotFound, `{"error":"merchant not found"}`, "merchant not found"},
		{"no body", http.StatusInternalServerError, ``, "HTTP error! status: 500"},
		{"html body", http.StatusBadGateway, `<html>bad gateway</html>`, "HTTP error! status: 502"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			})

			_, err := c.Merchant(context.Background(), 1)
			var ne *apiclient.NetworkError
			if !errors.As(err, &ne) {
				t.Fatalf("err = %v, want *NetworkError", err)
			}
			if ne.Status != tt.status {
				t.Errorf("status = %d, want %d", ne.Status, tt.status)
			}
			if ne.Message != tt.wantMessage {
				t.Errorf("message = %q, want %q", ne.Message, tt.wantMessage)
			}
		})
	}
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := apiclient.New(url, apiclient.WithTimeout(time.Second))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	_, err = c.Merchants(context.Background())
	var ne *apiclient.NetworkError
	if !errors.As(err, &ne) {
		t.Fatalf("err = %v, want *NetworkError", err)
	}
	if ne.Status != 0 || ne.Err == nil {
		t.Errorf("network error = %+v, want status 0 with a cause", ne)
	}
}

func TestAuthenticatorMapsErrors(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, session.ErrInvalidCredentials},
		{http.StatusConflict, session.ErrEmailInUse},
		{http.StatusUnprocessableEntity, session.ErrWeakPassword},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, `{"error":"nope"}`)
			})
			auth := apiclient.Authenticator{Client: c}

			_, err := auth.Authenticate(context.Background(), "a@b.c", "secret123")
			if !errors.Is(err, tt.want) {
				t.Errorf("authenticate err = %v, want %v", err, tt.want)
			}
			_, err = auth.Register(context.Background(), "a@b.c", "secret123")
			if !errors.Is(err, tt.want) {
				t.Errorf("register err = %v, want %v", err, tt.want)
			}
			if apiclient.StatusOf(err) != tt.status {
				t.Errorf("status lost from chain: %v", err)
			}
		})
	}
}

func TestLoginSendsFormAndKeepsToken(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/login":
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			if body["email"] != "marie@example.com" || body["mot_de_passe"] != "secret123" {
				t.Errorf("login body = %v", body)
			}
			io.WriteString(w, `{"success":true,"token":"jwt-1","user":{"id":3,"email":"marie@example.com"}}`)
		case "/api/users/me":
			if r.Header.Get("Authorization") != "Bearer jwt-1" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			io.WriteString(w, `{"id":3,"email":"marie@example.com","points_disponibles":250,"level":3,"nextLevel":300}`)
		case "/api/auth/logout":
			io.WriteString(w, `{"success":true}`)
		}
	})

	s, err := c.Login(context.Background(), "marie@example.com", "secret123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if s.Token != "jwt-1" || s.User.ID != 3 {
		t.Errorf("session = %+v", s)
	}

	me, err := c.Me(context.Background())
	if err != nil {
		t.Fatalf("me: %v", err)
	}
	if me.Points != 250 || me.Level != 3 {
		t.Errorf("me = %+v", me)
	}

	if err := c.Logout(context.Background()); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if c.Token() != "" {
		t.Errorf("token kept after logout")
	}
}

func TestQueryParameters(t *testing.T) {
	var query map[string]string
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		query = map[string]string{}
		for k := range r.URL.Query() {
			query[k] = r.URL.Query().Get(k)
		}
		w.Write([]byte(`[]`))
	})
	ctx := context.Background()

	if _, err := c.NearbyMerchants(ctx, geo.Coordinate{Latitude: 43.6085, Longitude: 3.88}, 2.5); err != nil {
		t.Fatal(err)
	}
	if query["lat"] != "43.6085" || query["lng"] != "3.88" || query["radius"] != "2.5" {
		t.Errorf("nearby query = %v", query)
	}

	if _, err := c.Places(ctx, nil); err != nil {
		t.Fatal(err)
	}
	if len(query) != 0 {
		t.Errorf("places without a position sent %v", query)
	}

	if _, err := c.SearchMerchants(ctx, "café & co"); err != nil {
		t.Fatal(err)
	}
	if query["q"] != "café & co" {
		t.Errorf("search query = %v", query)
	}
}

// TestAgainstServer drives the real router through the client.
func TestAgainstServer(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	db, err := database.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if _, err := migrations.Run(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if err := server.SeedDemo(ctx, logger, db, now); err != nil {
		t.Fatalf("seed: %v", err)
	}

	h := server.NewHandler(logger, server.Deps{
		Store:  server.NewSQLiteStore(db, gamification.DefaultRules()),
		Tokens: server.NewTokens("test-secret", time.Hour, clock),
		Now:    clock,
	}, nil)
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := apiclient.New(srv.URL)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	gate := session.NewGate(session.NewMemoryKV(), apiclient.Authenticator{Client: c})
	if res := gate.SignUp(ctx, "marie@example.com", "secret123"); !res.Success {
		t.Fatalf("sign up: %+v", res.Error)
	}
	if res := gate.SignUp(ctx, "marie@example.com", "secret123"); res.Success || res.Error.Code != session.CodeEmailInUse {
		t.Fatalf("duplicate sign up = %+v", res)
	}
	if res := gate.SignIn(ctx, "marie@example.com", "wrong-password"); res.Success || res.Error.Code != session.CodeInvalidCredentials {
		t.Fatalf("bad sign in = %+v", res)
	}
	if res := gate.SignIn(ctx, "marie@example.com", "secret123"); !res.Success {
		t.Fatalf("sign in: %+v", res.Error)
	}

	reward, err := c.ScanQRCode(ctx, "COMHODL-CAFE-ARTS-01")
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if reward.Points != 50 || reward.Total != 50 {
		t.Errorf("reward = %+v", reward)
	}
	_, err = c.ScanQRCode(ctx, "COMHODL-CAFE-ARTS-01")
	if apiclient.StatusOf(err) != http.StatusConflict {
		t.Errorf("repeat scan err = %v, want 409", err)
	}

	from := geo.Coordinate{Latitude: 43.6089, Longitude: 3.8797}
	if _, err := c.VisitPlace(ctx, 1, &from); err != nil {
		t.Fatalf("visit: %v", err)
	}

	me, err := c.Me(ctx)
	if err != nil {
		t.Fatalf("me: %v", err)
	}
	if me.Points != 200 || me.Level != 3 {
		t.Errorf("me = points %d level %d, want 200 and 3", me.Points, me.Level)
	}

	p, err := c.StartParcours(ctx, []int64{1, 2, 3})
	if err != nil {
		t.Fatalf("start parcours: %v", err)
	}
	if reward, err := c.CompleteParcours(ctx, p.ID); err != nil || reward.Points != 150 {
		t.Errorf("complete parcours = %+v, %v", reward, err)
	}

	nearby, err := c.NearbyMerchants(ctx, geo.Coordinate{Latitude: 48.8566, Longitude: 2.3522}, 3)
	if err != nil {
		t.Fatalf("nearby: %v", err)
	}
	if len(nearby) == 0 || nearby[0].ID != 1 {
		t.Errorf("nearby = %+v", nearby)
	}

	top, err := c.Leaderboard(ctx, 5)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(top) != 1 || top[0].Points != 350 {
		t.Errorf("leaderboard = %+v", top)
	}

	a, err := c.Achievements(ctx)
	if err != nil {
		t.Fatalf("achievements: %v", err)
	}
	if a.Summary.Total != len(gamification.DefaultAchievements()) {
		t.Errorf("summary = %+v", a.Summary)
	}

	if _, err := c.UpdatePreferences(ctx, []comhodl.Activity{comhodl.ActivityCulture}); err != nil {
		t.Fatalf("preferences: %v", err)
	}
	if err := gate.SignOut(ctx); err != nil {
		t.Fatalf("sign out: %v", err)
	}
}
