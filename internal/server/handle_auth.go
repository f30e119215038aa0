package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/bdsalocin/comhodl-api/internal/comhodl"
	"github.com/bdsalocin/comhodl-api/internal/leaderboard"
)

// LoginRequest is the request body for POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"mot_de_passe" validate:"required"`
}

// RegisterRequest is the request body for POST /api/auth/register.
type RegisterRequest struct {
	Email           string                  `json:"email" validate:"required,email"`
	Password        string                  `json:"mot_de_passe" validate:"min=6"`
	LastName        string                  `json:"nom"`
	FirstName       string                  `json:"prenom"`
	Nickname        string                  `json:"pseudo"`
	Sex             comhodl.Sex             `json:"sexe" validate:"omitempty,sexe"`
	Age             *int                    `json:"age,omitempty" validate:"omitempty,gte=0"`
	BirthDate       *string                 `json:"date_naissance,omitempty"`
	Address         string                  `json:"adresse,omitempty"`
	Commune         string                  `json:"commune,omitempty"`
	Departement     string                  `json:"departement,omitempty"`
	Country         string                  `json:"pays,omitempty"`
	Phone           string                  `json:"numero_telephone,omitempty"`
	FamilySituation comhodl.FamilySituation `json:"situation_familiale,omitempty" validate:"omitempty,family"`
	WithChildren    bool                    `json:"avec_enfants,omitempty"`
	ChildrenAges    string                  `json:"age_enfants,omitempty"`
	Preferences     []comhodl.Activity      `json:"preferences_activites,omitempty" validate:"dive,activity"`
}

// AuthResponse is returned by login and register.
type AuthResponse struct {
	Success   bool         `json:"success"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      comhodl.User `json:"user"`
}

type LogoutResponse struct {
	Success bool `json:"success"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func handleLogin(logger *slog.Logger, store Store, tokens *Tokens, now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		req.Email = normalizeEmail(req.Email)
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, validationMessage(err))
			return
		}

		user, hash, err := store.Credentials(r.Context(), req.Email)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		if err != nil {
			logger.Error("loading credentials", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)); err != nil {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}

		at := now()
		if err := store.TouchLogin(r.Context(), user.ID, at); err != nil {
			logger.Warn("recording last login", "user_id", user.ID, "error", err)
		} else {
			at = at.UTC().Truncate(time.Millisecond)
			user.LastLogin = &at
		}

		token, exp, err := tokens.Issue(user.ID, user.Email)
		if err != nil {
			logger.Error("issuing token", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusOK, AuthResponse{Success: true, Token: token, ExpiresAt: exp, User: user})
	}
}

func handleRegister(logger *slog.Logger, store Store, tokens *Tokens, board leaderboard.Board) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		req.Email = normalizeEmail(req.Email)
		if err := validate.Struct(req); err != nil {
			if failedOn(err, "mot_de_passe", "min") {
				writeError(w, http.StatusUnprocessableEntity, "password too weak")
				return
			}
			writeError(w, http.StatusBadRequest, validationMessage(err))
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			logger.Error("hashing password", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		user, err := store.CreateUser(r.Context(), comhodl.User{
			Email:           req.Email,
			LastName:        strings.TrimSpace(req.LastName),
			FirstName:       strings.TrimSpace(req.FirstName),
			Nickname:        strings.TrimSpace(req.Nickname),
			Sex:             req.Sex,
			Age:             req.Age,
			BirthDate:       req.BirthDate,
			Address:         req.Address,
			Commune:         req.Commune,
			Departement:     req.Departement,
			Country:         req.Country,
			Phone:           req.Phone,
			FamilySituation: req.FamilySituation,
			WithChildren:    req.WithChildren,
			ChildrenAges:    req.ChildrenAges,
			Preferences:     req.Preferences,
		}, string(hash))
		if errors.Is(err, ErrConflict) {
			writeError(w, http.StatusConflict, "email already in use")
			return
		}
		if err != nil {
			logger.Error("creating user", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		if err := board.Record(r.Context(), user.ID, user.Nickname, user.Points); err != nil {
			logger.Warn("adding user to leaderboard", "user_id", user.ID, "error", err)
		}

		token, exp, err := tokens.Issue(user.ID, user.Email)
		if err != nil {
			logger.Error("issuing token", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusCreated, AuthResponse{Success: true, Token: token, ExpiresAt: exp, User: user})
	}
}

// handleLogout revokes the presented token, if any. It always succeeds.
func handleLogout(tokens *Tokens) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if token := bearerToken(r); token != "" {
			tokens.Revoke(token)
		}
		writeJSON(w, http.StatusOK, LogoutResponse{Success: true})
	}
}
