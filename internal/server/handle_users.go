package server

import (
	"errors"
	"net/http"

	"github.com/bdsalocin/comhodl-api/internal/comhodl"
	"github.com/bdsalocin/comhodl-api/internal/gamification"
)

// MeResponse is the user profile plus the level derived from points.
type MeResponse struct {
	comhodl.User
	Level         int     `json:"level"`
	NextLevel     int     `json:"nextLevel"`
	LevelProgress float64 `json:"levelProgress"`
}

func meResponse(u comhodl.User) MeResponse {
	gs := gamification.GameState{Points: u.Points}
	return MeResponse{User: u, Level: gs.Level(), NextLevel: gs.NextLevel(), LevelProgress: gs.LevelProgress()}
}

type PreferencesRequest struct {
	Preferences []comhodl.Activity `json:"preferences_activites" validate:"dive,activity"`
}

// QuestionnaireRequest carries the onboarding answers. Every field is
// optional.
type QuestionnaireRequest struct {
	Preferences     []comhodl.Activity       `json:"preferences_activites,omitempty" validate:"dive,activity"`
	FamilySituation *comhodl.FamilySituation `json:"situation_familiale,omitempty" validate:"omitempty,family"`
	WithChildren    *bool                    `json:"avec_enfants,omitempty"`
	ChildrenAges    *string                  `json:"age_enfants,omitempty"`
}

func handleMe(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := store.User(r.Context(), userFrom(r))
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, meResponse(u))
	}
}

func handleUpdateProfile(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var upd comhodl.ProfileUpdate
		if err := readJSON(r, &upd); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := validate.Struct(upd); err != nil {
			writeError(w, http.StatusBadRequest, validationMessage(err))
			return
		}

		u, err := store.UpdateProfile(r.Context(), userFrom(r), upd)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, meResponse(u))
	}
}

func handleUpdatePreferences(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PreferencesRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, validationMessage(err))
			return
		}

		u, err := store.SetPreferences(r.Context(), userFrom(r), req.Preferences)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, meResponse(u))
	}
}

func handleQuestionnaire(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req QuestionnaireRequest
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
		upd := comhodl.ProfileUpdate{
			FamilySituation: req.FamilySituation,
			WithChildren:    req.WithChildren,
			ChildrenAges:    req.ChildrenAges,
		}

		ctx, userID := r.Context(), userFrom(r)
		if _, err := store.UpdateProfile(ctx, userID, upd); err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if req.Preferences != nil {
			if _, err := store.SetPreferences(ctx, userID, req.Preferences); err != nil {
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}
		}
		u, err := store.CompleteQuestionnaire(ctx, userID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, meResponse(u))
	}
}

func handleUserDefis(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := store.UserDefis(r.Context(), userFrom(r))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func handleUserScans(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := store.UserScans(r.Context(), userFrom(r))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func handleUserParcours(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := store.UserParcours(r.Context(), userFrom(r))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}
