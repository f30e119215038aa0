package catalog

import (
	"errors"
	"testing"

	"github.com/bdsalocin/comhodl-api/internal/geo"
)

func TestDefault(t *testing.T) {
	r := Default()
	if r.Len() != 10 {
		t.Fatalf("Len() = %d, want 10", r.Len())
	}

	all := r.All()
	for i, p := range all {
		if p.ID != i+1 {
			t.Errorf("place %d has id %d, want catalog order", i, p.ID)
		}
		if !p.Coordinate.Valid() {
			t.Errorf("place %d has invalid coordinate %v", p.ID, p.Coordinate)
		}
	}

	all[0].Name = "mutated"
	if got, _ := r.Get(1); got.Name != "Place de la Comédie" {
		t.Errorf("All() leaked internal slice: Get(1).Name = %q", got.Name)
	}
}

func TestGet(t *testing.T) {
	r := Default()

	p, err := r.Get(4)
	if err != nil {
		t.Fatalf("Get(4): %v", err)
	}
	if p.Name != "Musée Fabre" {
		t.Errorf("Get(4).Name = %q", p.Name)
	}

	if _, err := r.Get(99); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(99) err = %v, want ErrNotFound", err)
	}
}

func TestByCategory(t *testing.T) {
	parks := Default().ByCategory("park")
	if len(parks) != 2 {
		t.Fatalf("got %d parks, want 2", len(parks))
	}
	if parks[0].ID != 2 || parks[1].ID != 9 {
		t.Errorf("parks = %d, %d; want 2, 9", parks[0].ID, parks[1].ID)
	}
}

func TestNewRejectsBadEntries(t *testing.T) {
	tests := []struct {
		name   string
		places []Place
	}{
		{"duplicate id", []Place{{ID: 1}, {ID: 1}}},
		{"latitude out of range", []Place{{ID: 1, Coordinate: geo.Coordinate{Latitude: 91}}}},
		{"longitude out of range", []Place{{ID: 1, Coordinate: geo.Coordinate{Longitude: -181}}}},
		{"negative points", []Place{{ID: 1, Points: -1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.places); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestNewEmpty(t *testing.T) {
	r, err := New(nil)
	if err != nil {
		t.Fatalf("New(nil): %v", err)
	}
	if r.Len() != 0 || len(r.All()) != 0 {
		t.Fatal("expected empty registry")
	}
}
