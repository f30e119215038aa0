package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"
)

func addRoutes(r chi.Router, logger *slog.Logger, d Deps) {
	merchants := newMerchantCache(d.Store, d.MerchantTTL)
	requireUser := authMiddleware(d.Tokens)
	rw := rewarder{logger: logger, broker: d.Broker, board: d.Board, now: d.Now}

	r.Get("/", handleRoot())
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("comHodl API", "/openapi.json", "/docs"))
	r.Get("/api/events", handleEvents(logger, d.Tokens, d.Broker, d.Store, d.Now))

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/login", handleLogin(logger, d.Store, d.Tokens, d.Now))
		r.Post("/register", handleRegister(logger, d.Store, d.Tokens, d.Board))
		r.Post("/logout", handleLogout(d.Tokens))
	})

	r.Route("/api/users", func(r chi.Router) {
		r.Use(requireUser)
		r.Get("/me", handleMe(d.Store))
		r.Post("/profile", handleUpdateProfile(d.Store))
		r.Post("/preferences", handleUpdatePreferences(d.Store))
		r.Post("/questionnaire", handleQuestionnaire(d.Store))
		r.Get("/defis", handleUserDefis(d.Store))
		r.Get("/qr-scans", handleUserScans(d.Store))
		r.Get("/parcours", handleUserParcours(d.Store))
	})

	r.Route("/api/places", func(r chi.Router) {
		r.Get("/", handleListPlaces(d.Places))
		r.Get("/{id}", handleGetPlace(d.Places))
		r.With(requireUser).Post("/{id}/visit", handleVisitPlace(d.Places, d.Store, rw, d.Now))
	})

	r.Route("/api/merchants", func(r chi.Router) {
		r.Get("/", handleListMerchants(merchants))
		r.Get("/search", handleSearchMerchants(d.Store))
		r.Get("/nearby", handleNearbyMerchants(merchants))
		r.Get("/activity/{activity}", handleMerchantsByActivity(d.Store))
		r.Get("/{id}", handleGetMerchant(d.Store))
		r.Get("/{id}/qr-codes", handleMerchantQRCodes(d.Store))
		r.Get("/{id}/defis", handleMerchantDefis(d.Store))
		r.Get("/{id}/lots", handleMerchantLots(d.Store))
	})

	r.Route("/api/challenges", func(r chi.Router) {
		r.Use(requireUser)
		r.Post("/scan", handleScan(d.Store, rw, d.Now))
		r.Get("/defis/active", handleActiveDefis(d.Store, d.Now))
		r.Get("/defis/{id}", handleGetDefi(d.Store))
		r.Post("/defis/{id}/complete", handleCompleteDefi(d.Store, rw, d.Now))
		r.Post("/parcours/start", handleStartParcours(d.Store, d.Now))
		r.Post("/parcours/{id}/complete", handleCompleteParcours(d.Store, rw, d.Now))
		r.Get("/parcours/active", handleActiveParcours(d.Store))
	})

	r.With(requireUser).Get("/api/achievements", handleAchievements(d.Store))
	r.Get("/api/leaderboard", handleLeaderboard(logger, d.Board))
}

type RootResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

func handleRoot() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, RootResponse{Message: "API ComHodl", Status: "online"})
	}
}
