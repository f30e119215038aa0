// Package nearby streams the distance-annotated place catalog over a
// websocket as the client's position changes.
package nearby

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/bdsalocin/comhodl-api/internal/catalog"
	"github.com/bdsalocin/comhodl-api/internal/geo"
	"github.com/bdsalocin/comhodl-api/internal/proximity"
)

// MaxSession bounds how long a single connection stays open.
const MaxSession = 10 * time.Minute

// Position is a frame sent by the client. RadiusKm, when positive, limits the
// reply to places within that distance.
type Position struct {
	Latitude  float64 `json:"latitude" validate:"latitude"`
	Longitude float64 `json:"longitude" validate:"longitude"`
	RadiusKm  float64 `json:"radiusKm,omitempty" validate:"gte=0"`
}

// Reply is sent for every position frame.
type Reply struct {
	Places []proximity.Annotated `json:"places,omitempty"`
	Error  string                `json:"error,omitempty"`
}

type Handler struct {
	logger   *slog.Logger
	places   *catalog.Registry
	validate *validator.Validate
}

func NewHandler(logger *slog.Logger, places *catalog.Registry) *Handler {
	return &Handler{logger: logger, places: places, validate: validator.New()}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/nearby", h.stream)
	return r
}

func (h *Handler) stream(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.logger.Error("websocket accept failed", "error", err)
		return
	}
	defer conn.CloseNow()

	ctx, cancel := context.WithTimeout(r.Context(), MaxSession)
	defer cancel()

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			h.logger.Debug("websocket read ended", "error", err)
			return
		}

		reply := Reply{Error: "invalid position frame"}
		var pos Position
		if err := json.Unmarshal(data, &pos); err == nil {
			reply = h.reply(pos)
		}

		if err := wsjson.Write(ctx, conn, reply); err != nil {
			h.logger.Debug("websocket write failed", "error", err)
			return
		}
	}
}

func (h *Handler) reply(pos Position) Reply {
	if err := h.validate.Struct(pos); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) && ve[0].Field() == "RadiusKm" {
			return Reply{Error: "radiusKm must not be negative"}
		}
		return Reply{Error: "coordinate out of range"}
	}
	c := geo.Coordinate{Latitude: pos.Latitude, Longitude: pos.Longitude}
	if pos.RadiusKm > 0 {
		return Reply{Places: proximity.Nearby(c, h.places.All(), pos.RadiusKm)}
	}
	return Reply{Places: proximity.Annotate(&c, h.places.All())}
}
