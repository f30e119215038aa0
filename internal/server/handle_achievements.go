package server

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/bdsalocin/comhodl-api/internal/gamification"
	"github.com/bdsalocin/comhodl-api/internal/leaderboard"
)

const (
	DefaultLeaderboardSize = 10
	MaxLeaderboardSize     = 100
)

type AchievementsResponse struct {
	Achievements []gamification.Achievement `json:"achievements"`
	Summary      gamification.Summary       `json:"summary"`
}

func handleAchievements(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := store.Achievements(r.Context(), userFrom(r))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, AchievementsResponse{Achievements: list, Summary: gamification.Summarize(list)})
	}
}

func handleLeaderboard(logger *slog.Logger, board leaderboard.Board) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n := DefaultLeaderboardSize
		if s := r.URL.Query().Get("limit"); s != "" {
			v, err := strconv.Atoi(s)
			if err != nil || v < 1 || v > MaxLeaderboardSize {
				writeError(w, http.StatusBadRequest, "limit must be between 1 and 100")
				return
			}
			n = v
		}

		top, err := board.Top(r.Context(), n)
		if err != nil {
			logger.Error("reading leaderboard", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, top)
	}
}
