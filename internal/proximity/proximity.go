// Package proximity annotates catalog places with their distance from the user.
package proximity

import (
	"sort"

	"github.com/bdsalocin/comhodl-api/internal/catalog"
	"github.com/bdsalocin/comhodl-api/internal/geo"
)

// Annotated is a place plus its distance from the user in kilometers, rounded
// to one decimal. DistanceKm is nil when the user location is unknown.
type Annotated struct {
	catalog.Place
	DistanceKm *float64 `json:"distanceKm"`
}

// Annotate computes the distance of every place from user. The output keeps
// the order of places; it is never re-sorted.
func Annotate(user *geo.Coordinate, places []catalog.Place) []Annotated {
	out := make([]Annotated, len(places))
	for i, p := range places {
		out[i] = Annotated{Place: p}
		if user != nil {
			d := geo.Distance(*user, p.Coordinate)
			out[i].DistanceKm = &d
		}
	}
	return out
}

// Nearby annotates places and keeps those within radiusKm of user, in their
// original order.
func Nearby(user geo.Coordinate, places []catalog.Place, radiusKm float64) []Annotated {
	out := make([]Annotated, 0, len(places))
	for _, a := range Annotate(&user, places) {
		if geo.Within(user, a.Coordinate, radiusKm) {
			out = append(out, a)
		}
	}
	return out
}

// SortByDistance orders annotated places nearest first. Entries without a
// distance go last. Ties keep their relative order.
func SortByDistance(places []Annotated) {
	sort.SliceStable(places, func(i, j int) bool {
		a, b := places[i].DistanceKm, places[j].DistanceKm
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		}
		return *a < *b
	})
}
