package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/bdsalocin/comhodl-api/internal/comhodl"
	"github.com/bdsalocin/comhodl-api/internal/gamification"
	"github.com/bdsalocin/comhodl-api/internal/leaderboard"
)

var achievementTitles = func() map[string]string {
	m := make(map[string]string)
	for _, a := range gamification.DefaultAchievements() {
		m[a.ID] = a.Title
	}
	return m
}()

// rewarder fans a reward outcome out to the user's event stream and the
// leaderboard.
type rewarder struct {
	logger *slog.Logger
	broker *Broker
	board  leaderboard.Board
	now    func() time.Time
}

// events lists what a user sees for out, in order: the points, a level-up
// when a threshold was crossed, then each unlocked achievement.
func (rw rewarder) events(out Outcome, msg string) []Event {
	at := rw.now()
	level := out.State.Level()
	before := gamification.GameState{Points: out.State.Points - out.Points}.Level()

	events := []Event{{
		Type: EventPoints, At: at, Points: out.Points, Total: out.State.Points, Level: level, Message: msg,
	}}
	if level > before {
		events = append(events, Event{Type: EventLevelUp, At: at, Total: out.State.Points, Level: level})
	}
	for _, id := range out.Unlocked {
		events = append(events, Event{
			Type: EventAchievement, At: at, Total: out.State.Points, Level: level,
			Achievement: id, Title: achievementTitles[id],
		})
	}
	return events
}

func (rw rewarder) announce(ctx context.Context, userID int64, out Outcome, msg string) comhodl.Reward {
	for _, e := range rw.events(out, msg) {
		rw.broker.Publish(userID, e)
	}

	if err := rw.board.Record(ctx, userID, out.Nickname, out.State.Points); err != nil {
		rw.logger.Warn("updating leaderboard", "user_id", userID, "error", err)
	}

	return comhodl.Reward{
		Points:   out.Points,
		Message:  msg,
		Total:    out.State.Points,
		Level:    out.State.Level(),
		Unlocked: out.Unlocked,
	}
}
