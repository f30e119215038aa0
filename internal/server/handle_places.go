package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/bdsalocin/comhodl-api/internal/catalog"
	"github.com/bdsalocin/comhodl-api/internal/geo"
	"github.com/bdsalocin/comhodl-api/internal/proximity"
)

// VisitRadiusKm is how close the caller must be to a place to claim a visit,
// when the request carries a position.
const VisitRadiusKm = 0.3

// VisitRequest optionally carries the caller's position.
type VisitRequest struct {
	Latitude  *float64 `json:"latitude,omitempty" validate:"required_with=Longitude,omitempty,latitude"`
	Longitude *float64 `json:"longitude,omitempty" validate:"required_with=Latitude,omitempty,longitude"`
}

// coordinateParams holds the raw lat/lng query parameters.
type coordinateParams struct {
	Lat string `json:"lat" validate:"required_with=Lng,omitempty,latitude"`
	Lng string `json:"lng" validate:"required_with=Lat,omitempty,longitude"`
}

// queryCoordinate reads lat/lng query parameters. It returns nil when both are
// absent and an error when only one is present or either is malformed.
func queryCoordinate(r *http.Request) (*geo.Coordinate, error) {
	q := coordinateParams{Lat: r.URL.Query().Get("lat"), Lng: r.URL.Query().Get("lng")}
	if q.Lat == "" && q.Lng == "" {
		return nil, nil
	}
	if err := validate.Struct(q); err != nil {
		return nil, errors.New(validationMessage(err))
	}

	lat, err := strconv.ParseFloat(q.Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid lat %q", q.Lat)
	}
	lng, err := strconv.ParseFloat(q.Lng, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid lng %q", q.Lng)
	}
	return &geo.Coordinate{Latitude: lat, Longitude: lng}, nil
}

func handleListPlaces(places *catalog.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := queryCoordinate(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		list := places.All()
		if c := r.URL.Query().Get("type"); c != "" {
			list = places.ByCategory(c)
		}
		writeJSON(w, http.StatusOK, proximity.Annotate(user, list))
	}
}

func handleGetPlace(places *catalog.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid place id")
			return
		}
		user, err := queryCoordinate(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		p, err := places.Get(int(id))
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, "place not found")
			return
		}
		writeJSON(w, http.StatusOK, proximity.Annotate(user, []catalog.Place{p})[0])
	}
}

func handleVisitPlace(places *catalog.Registry, store Store, rw rewarder, now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid place id")
			return
		}
		p, err := places.Get(int(id))
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, "place not found")
			return
		}

		var req VisitRequest
		if r.ContentLength != 0 {
			if err := readJSON(r, &req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
		}

		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, validationMessage(err))
			return
		}

		where := p.Coordinate
		if req.Latitude != nil {
			where = geo.Coordinate{Latitude: *req.Latitude, Longitude: *req.Longitude}
			if !geo.Within(where, p.Coordinate, VisitRadiusKm) {
				writeError(w, http.StatusUnprocessableEntity, "too far from place")
				return
			}
		}

		userID := userFrom(r)
		out, err := store.RecordVisit(r.Context(), userID, Visit{
			Target: "place:" + strconv.Itoa(p.ID),
			Points: p.Points,
			Where:  where,
			At:     now(),
		})
		if errors.Is(err, ErrConflict) {
			writeError(w, http.StatusConflict, "place already visited recently")
			return
		}
		if err != nil {
			rw.logger.Error("recording visit", "user_id", userID, "place_id", p.ID, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		msg := fmt.Sprintf("Visite de %s : +%d points !", p.Name, out.Points)
		writeJSON(w, http.StatusOK, rw.announce(r.Context(), userID, out, msg))
	}
}
