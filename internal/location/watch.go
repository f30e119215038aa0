package location

import (
	"context"
	"sync"
	"time"

	"github.com/bdsalocin/comhodl-api/internal/geo"
)

// Subscription delivers position updates in arrival order until Stop is
// called or its context is cancelled. After Stop returns no further update
// is delivered.
type Subscription struct {
	updates chan geo.Coordinate
	errs    chan error
	cancel  context.CancelFunc
	done    chan struct{}
	once    sync.Once
}

func (s *Subscription) Updates() <-chan geo.Coordinate { return s.updates }

// Errors carries provider failures. A failure does not end the subscription.
func (s *Subscription) Errors() <-chan error { return s.errs }

// Stop cancels the subscription and waits for the poller to exit.
func (s *Subscription) Stop() {
	s.once.Do(s.cancel)
	<-s.done
}

// Poll builds a subscription by sampling src. A sample is delivered when it
// differs from the last delivered position and either the device moved at
// least opts.DistanceMeters or opts.TimeInterval elapsed since the last
// delivery. Identical positions are never delivered twice in a row.
func Poll(ctx context.Context, src Source, opts Options, every time.Duration) *Subscription {
	ctx, cancel := context.WithCancel(ctx)
	s := &Subscription{
		updates: make(chan geo.Coordinate),
		errs:    make(chan error, 1),
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	go func() {
		defer close(s.done)
		defer close(s.updates)

		ticker := time.NewTicker(every)
		defer ticker.Stop()

		var (
			last      *geo.Coordinate
			deliverAt time.Time
		)
		for {
			c, err := src.CurrentPosition(ctx)
			if ctx.Err() != nil {
				return
			}
			if err != nil {
				select {
				case s.errs <- err:
				default:
				}
			} else if shouldDeliver(last, c, deliverAt, opts) {
				select {
				case s.updates <- c:
					last = &c
					deliverAt = time.Now()
				case <-ctx.Done():
					return
				}
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	return s
}

func shouldDeliver(last *geo.Coordinate, c geo.Coordinate, lastAt time.Time, opts Options) bool {
	if last == nil {
		return true
	}
	if *last == c {
		return false
	}
	movedKm := opts.DistanceMeters / 1000
	if !geo.Within(*last, c, movedKm) {
		return true
	}
	return opts.TimeInterval > 0 && time.Since(lastAt) >= opts.TimeInterval
}
