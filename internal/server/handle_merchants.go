package server

import (
	"cmp"
	"context"
	"errors"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/bdsalocin/comhodl-api/internal/comhodl"
	"github.com/bdsalocin/comhodl-api/internal/geo"
)

const (
	DefaultNearbyRadiusKm = 5.0
	MaxNearbyRadiusKm     = 50.0
)

func handleListMerchants(merchants *merchantCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := merchants.All(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func handleSearchMerchants(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := strings.TrimSpace(r.URL.Query().Get("q"))
		if q == "" {
			writeError(w, http.StatusBadRequest, "q is required")
			return
		}
		list, err := store.SearchMerchants(r.Context(), q)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// handleNearbyMerchants returns the merchants within radius km of lat/lng,
// nearest first.
func handleNearbyMerchants(merchants *merchantCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := queryCoordinate(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if user == nil {
			writeError(w, http.StatusBadRequest, "lat and lng are required")
			return
		}

		radius := DefaultNearbyRadiusKm
		if s := r.URL.Query().Get("radius"); s != "" {
			radius, err = strconv.ParseFloat(s, 64)
			if err == nil {
				err = validate.Var(radius, "gt=0,lte="+strconv.FormatFloat(MaxNearbyRadiusKm, 'f', -1, 64))
			}
			if err != nil {
				writeError(w, http.StatusBadRequest, "radius must be in (0, 50] km")
				return
			}
		}

		list, err := merchants.All(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, nearbyMerchants(*user, list, radius))
	}
}

func nearbyMerchants(user geo.Coordinate, list []comhodl.Merchant, radiusKm float64) []comhodl.NearbyMerchant {
	out := make([]comhodl.NearbyMerchant, 0, len(list))
	for _, m := range list {
		if geo.Within(user, m.Coordinate, radiusKm) {
			out = append(out, comhodl.NearbyMerchant{Merchant: m, DistanceKm: geo.Distance(user, m.Coordinate)})
		}
	}
	slices.SortStableFunc(out, func(a, b comhodl.NearbyMerchant) int {
		return cmp.Compare(a.DistanceKm, b.DistanceKm)
	})
	return out
}

func handleMerchantsByActivity(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a := comhodl.Activity(chi.URLParam(r, "activity"))
		list, err := store.MerchantsByActivity(r.Context(), string(a))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func handleGetMerchant(store Store) http.HandlerFunc {
	return merchantResource(func(ctx context.Context, id int64) (any, error) {
		return store.Merchant(ctx, id)
	})
}

func handleMerchantQRCodes(store Store) http.HandlerFunc {
	return merchantResource(func(ctx context.Context, id int64) (any, error) {
		return store.MerchantQRCodes(ctx, id)
	})
}

func handleMerchantDefis(store Store) http.HandlerFunc {
	return merchantResource(func(ctx context.Context, id int64) (any, error) {
		return store.MerchantDefis(ctx, id)
	})
}

func handleMerchantLots(store Store) http.HandlerFunc {
	return merchantResource(func(ctx context.Context, id int64) (any, error) {
		return store.MerchantLots(ctx, id)
	})
}

// merchantResource serves a read keyed by the {id} merchant parameter.
func merchantResource(load func(ctx context.Context, id int64) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid merchant id")
			return
		}
		v, err := load(r.Context(), id)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "merchant not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}
