// Package gamification derives levels from points and tracks achievement
// progress. Everything here is a pure function over values; persistence is
// the caller's concern.
package gamification

import "errors"

// PointsPerLevel is the number of points between two levels.
const PointsPerLevel = 100

var ErrInvalidDelta = errors.New("point delta must not be negative")

// GameState is a user's point balance. Level and threshold are always derived
// from Points and never stored.
type GameState struct {
	Points int `json:"points"`
}

// Level returns floor(points/100) + 1.
func (s GameState) Level() int {
	return s.Points/PointsPerLevel + 1
}

// NextLevel returns the point threshold of the next level.
func (s GameState) NextLevel() int {
	return s.Level() * PointsPerLevel
}

// LevelProgress returns how far the user is through the current level, in [0,1).
func (s GameState) LevelProgress() float64 {
	return float64(s.Points%PointsPerLevel) / PointsPerLevel
}

// AwardPoints returns current with delta points added.
func AwardPoints(current GameState, delta int) (GameState, error) {
	if delta < 0 {
		return current, ErrInvalidDelta
	}
	return GameState{Points: current.Points + delta}, nil
}

// Snapshot is the wire view of a game state.
type Snapshot struct {
	Points    int `json:"points"`
	Level     int `json:"level"`
	NextLevel int `json:"nextLevel"`
}

func (s GameState) Snapshot() Snapshot {
	return Snapshot{Points: s.Points, Level: s.Level(), NextLevel: s.NextLevel()}
}
