// Package location defines the device location contract consumed by the
// client and a cancellable watch subscription over it.
package location

import (
	"context"
	"errors"
	"time"

	"github.com/bdsalocin/comhodl-api/internal/geo"
)

var (
	ErrPermissionDenied    = errors.New("location permission denied")
	ErrLocationUnavailable = errors.New("location unavailable")
)

// DefaultCoordinate is used when no position can be resolved (Paris).
var DefaultCoordinate = geo.Coordinate{Latitude: 48.856614, Longitude: 2.3522219}

const (
	DefaultDistanceInterval = 10.0 // meters
	DefaultTimeInterval     = 5 * time.Second
)

// Options controls how often a watch delivers updates: whenever the device
// has moved DistanceMeters or TimeInterval has elapsed, whichever comes first.
type Options struct {
	DistanceMeters float64
	TimeInterval   time.Duration
}

func DefaultOptions() Options {
	return Options{DistanceMeters: DefaultDistanceInterval, TimeInterval: DefaultTimeInterval}
}

// Source is the raw device positioning API.
type Source interface {
	RequestPermission(ctx context.Context) (bool, error)
	CurrentPosition(ctx context.Context) (geo.Coordinate, error)
}

// Provider adds watching on top of a Source.
type Provider interface {
	Source
	Watch(ctx context.Context, opts Options) (*Subscription, error)
}

// CurrentOrDefault resolves the current position, falling back to
// DefaultCoordinate when permission is refused or the source fails. The
// returned error explains why the fallback was used.
func CurrentOrDefault(ctx context.Context, src Source) (geo.Coordinate, error) {
	ok, err := src.RequestPermission(ctx)
	if err != nil {
		return DefaultCoordinate, errors.Join(ErrLocationUnavailable, err)
	}
	if !ok {
		return DefaultCoordinate, ErrPermissionDenied
	}
	c, err := src.CurrentPosition(ctx)
	if err != nil {
		return DefaultCoordinate, err
	}
	return c, nil
}
