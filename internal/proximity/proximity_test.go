package proximity

import (
	"testing"

	"github.com/bdsalocin/comhodl-api/internal/catalog"
	"github.com/bdsalocin/comhodl-api/internal/geo"
)

var comedie = geo.Coordinate{Latitude: 43.6089, Longitude: 3.8797}

func TestAnnotatePreservesOrder(t *testing.T) {
	places := catalog.Default().All()
	got := Annotate(&comedie, places)

	if len(got) != len(places) {
		t.Fatalf("len = %d, want %d", len(got), len(places))
	}
	for i := range places {
		if got[i].ID != places[i].ID {
			t.Errorf("index %d: id %d, want %d", i, got[i].ID, places[i].ID)
		}
		if got[i].DistanceKm == nil {
			t.Fatalf("index %d: missing distance", i)
		}
	}
	if *got[0].DistanceKm != 0 {
		t.Errorf("distance to Comédie = %v, want 0", *got[0].DistanceKm)
	}
}

func TestAnnotateWithoutLocation(t *testing.T) {
	got := Annotate(nil, catalog.Default().All())
	for _, a := range got {
		if a.DistanceKm != nil {
			t.Errorf("place %d: distance = %v, want nil", a.ID, *a.DistanceKm)
		}
	}
}

func TestAnnotateEmpty(t *testing.T) {
	got := Annotate(&comedie, nil)
	if got == nil || len(got) != 0 {
		t.Fatalf("Annotate(nil places) = %#v, want empty slice", got)
	}
}

func TestAnnotateDuplicateCoordinates(t *testing.T) {
	places := []catalog.Place{
		{ID: 1, Coordinate: comedie},
		{ID: 2, Coordinate: comedie},
	}
	got := Annotate(&comedie, places)
	for _, a := range got {
		if a.DistanceKm == nil || *a.DistanceKm != 0 {
			t.Errorf("place %d: distance = %v, want 0", a.ID, a.DistanceKm)
		}
	}
}

func TestNearby(t *testing.T) {
	got := Nearby(comedie, catalog.Default().All(), 1)
	if len(got) == 0 {
		t.Fatal("expected places within 1 km of Comédie")
	}
	prev := 0
	for _, a := range got {
		if *a.DistanceKm > 1.05 {
			t.Errorf("place %d at %v km outside radius", a.ID, *a.DistanceKm)
		}
		if a.ID <= prev {
			t.Errorf("order not preserved: %d after %d", a.ID, prev)
		}
		prev = a.ID
	}
	for _, a := range got {
		if a.ID == 6 {
			t.Error("Stade de la Mosson should be outside 1 km")
		}
	}
}

func TestSortByDistance(t *testing.T) {
	d := func(v float64) *float64 { return &v }
	places := []Annotated{
		{Place: catalog.Place{ID: 1}, DistanceKm: d(3)},
		{Place: catalog.Place{ID: 2}},
		{Place: catalog.Place{ID: 3}, DistanceKm: d(1)},
		{Place: catalog.Place{ID: 4}, DistanceKm: d(1)},
	}
	SortByDistance(places)

	want := []int{3, 4, 1, 2}
	for i, id := range want {
		if places[i].ID != id {
			t.Errorf("index %d: id %d, want %d", i, places[i].ID, id)
		}
	}
}
