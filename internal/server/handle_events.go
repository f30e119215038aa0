package server

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/bdsalocin/comhodl-api/internal/gamification"
)

const (
	eventsPing  = 30 * time.Second
	eventsRetry = 5 * time.Second
)

// writeEvent writes e as one SSE frame named after its kind.
func writeEvent(w io.Writer, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", e.ID, e.Type, data)
	return err
}

// handleEvents streams the user's reward events, starting with a snapshot of
// their points. EventSource cannot set headers, so the token comes in the
// query string.
func handleEvents(logger *slog.Logger, tokens *Tokens, broker *Broker, store Store, now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" {
			writeError(w, http.StatusUnauthorized, "token query parameter required")
			return
		}

		userID, err := tokens.Verify(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		u, err := store.User(r.Context(), userID)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unknown user")
			return
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			writeError(w, http.StatusInternalServerError, "streaming not supported")
			return
		}

		// Subscribe before the snapshot so nothing published in between is lost.
		ch := broker.Subscribe(userID)
		defer broker.Unsubscribe(userID, ch)

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")

		gs := gamification.GameState{Points: u.Points}
		fmt.Fprintf(w, "retry: %d\n\n", eventsRetry.Milliseconds())
		snapshot := broker.stamp(Event{Type: EventState, At: now(), Total: gs.Points, Level: gs.Level()})
		if err := writeEvent(w, snapshot); err != nil {
			return
		}
		flusher.Flush()

		ping := time.NewTicker(eventsPing)
		defer ping.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case e := <-ch:
				if err := writeEvent(w, e); err != nil {
					logger.Debug("event stream write failed", "user_id", userID, "error", err)
					return
				}
				flusher.Flush()
			case <-ping.C:
				fmt.Fprintf(w, ": ping\n\n")
				flusher.Flush()
			}
		}
	}
}
