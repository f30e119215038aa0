// Package catalog holds the static registry of points of interest shown on
// the map. The registry is built once at start-up and never mutated.
package catalog

import (
	"errors"
	"fmt"

	"github.com/bdsalocin/comhodl-api/internal/geo"
)

var ErrNotFound = errors.New("place not found")

// Place is a point of interest that rewards points when visited.
type Place struct {
	ID          int            `json:"id"`
	Name        string         `json:"name"`
	Category    string         `json:"type"`
	Coordinate  geo.Coordinate `json:"coordinate"`
	Description string         `json:"description"`
	Icon        string         `json:"icon"`
	Hours       string         `json:"horaires"`
	Open        bool           `json:"isOpen"`
	Points      int            `json:"points"`
	ImageURL    string         `json:"imageUrl"`
}

// Registry is an immutable, ordered set of places.
type Registry struct {
	places []Place
	byID   map[int]int
}

// New validates places and builds a registry preserving their order.
func New(places []Place) (*Registry, error) {
	r := &Registry{
		places: make([]Place, len(places)),
		byID:   make(map[int]int, len(places)),
	}
	for i, p := range places {
		if _, dup := r.byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate place id %d", p.ID)
		}
		if !p.Coordinate.Valid() {
			return nil, fmt.Errorf("place %d: coordinate %v out of range", p.ID, p.Coordinate)
		}
		if p.Points < 0 {
			return nil, fmt.Errorf("place %d: negative point value", p.ID)
		}
		r.places[i] = p
		r.byID[p.ID] = i
	}
	return r, nil
}

// Default returns the registry of Montpellier places.
func Default() *Registry {
	r, err := New(montpellierPlaces)
	if err != nil {
		panic(err)
	}
	return r
}

// All returns a copy of the places in catalog order.
func (r *Registry) All() []Place {
	out := make([]Place, len(r.places))
	copy(out, r.places)
	return out
}

func (r *Registry) Len() int { return len(r.places) }

func (r *Registry) Get(id int) (Place, error) {
	i, ok := r.byID[id]
	if !ok {
		return Place{}, ErrNotFound
	}
	return r.places[i], nil
}

// ByCategory returns the places tagged with category, in catalog order.
func (r *Registry) ByCategory(category string) []Place {
	var out []Place
	for _, p := range r.places {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out
}
