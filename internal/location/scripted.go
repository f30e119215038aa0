package location

import (
	"context"
	"sync"
	"time"

	"github.com/bdsalocin/comhodl-api/internal/geo"
)

// Scripted replays a fixed list of positions, one per CurrentPosition call,
// and keeps returning the last one afterwards. It stands in for a device GPS
// in the terminal client and in tests.
type Scripted struct {
	Granted bool
	// Interval is the polling period used by Watch.
	Interval time.Duration

	mu        sync.Mutex
	positions []geo.Coordinate
	next      int
}

func NewScripted(granted bool, positions ...geo.Coordinate) *Scripted {
	return &Scripted{Granted: granted, Interval: time.Second, positions: positions}
}

func (s *Scripted) RequestPermission(context.Context) (bool, error) {
	return s.Granted, nil
}

func (s *Scripted) CurrentPosition(ctx context.Context) (geo.Coordinate, error) {
	if err := ctx.Err(); err != nil {
		return geo.Coordinate{}, err
	}
	if !s.Granted {
		return geo.Coordinate{}, ErrPermissionDenied
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.positions) == 0 {
		return geo.Coordinate{}, ErrLocationUnavailable
	}
	c := s.positions[min(s.next, len(s.positions)-1)]
	s.next++
	return c, nil
}

func (s *Scripted) Watch(ctx context.Context, opts Options) (*Subscription, error) {
	if !s.Granted {
		return nil, ErrPermissionDenied
	}
	return Poll(ctx, s, opts, s.Interval), nil
}
