package geo

import (
	"math"
	"testing"
)

var (
	paris   = Coordinate{Latitude: 48.856614, Longitude: 2.3522219}
	comedie = Coordinate{Latitude: 43.6089, Longitude: 3.8797}
)

func TestDistanceParisMontpellier(t *testing.T) {
	got := Distance(paris, comedie)
	if got < 595 || got > 605 {
		t.Fatalf("Distance(paris, comedie) = %v, want within [595, 605]", got)
	}
}

func TestDistanceSymmetric(t *testing.T) {
	pairs := [][2]Coordinate{
		{paris, comedie},
		{{Latitude: 0, Longitude: 0}, {Latitude: 0, Longitude: 179.9}},
		{{Latitude: -33.8688, Longitude: 151.2093}, {Latitude: 51.5074, Longitude: -0.1278}},
		{{Latitude: 43.6147, Longitude: 3.8647}, {Latitude: 43.6122, Longitude: 3.8722}},
	}
	for _, p := range pairs {
		ab, ba := Distance(p[0], p[1]), Distance(p[1], p[0])
		if math.Abs(ab-ba) > 0.1 {
			t.Errorf("Distance(%v, %v) = %v, reverse = %v", p[0], p[1], ab, ba)
		}
	}
}

func TestDistanceSamePoint(t *testing.T) {
	for _, c := range []Coordinate{paris, comedie, {}, {Latitude: 90, Longitude: 180}} {
		if got := Distance(c, c); got != 0 {
			t.Errorf("Distance(%v, %v) = %v, want 0", c, c, got)
		}
	}
}

func TestDistanceRoundsToOneDecimal(t *testing.T) {
	got := Distance(comedie, Coordinate{Latitude: 43.6147, Longitude: 3.8647})
	if got != math.Round(got*10)/10 {
		t.Fatalf("Distance = %v, not rounded to one decimal", got)
	}
	if got != 1.4 {
		t.Fatalf("Distance(comedie, jardin) = %v, want 1.4", got)
	}
}

func TestValid(t *testing.T) {
	tests := []struct {
		name string
		c    Coordinate
		want bool
	}{
		{"paris", paris, true},
		{"origin", Coordinate{}, true},
		{"poles", Coordinate{Latitude: -90, Longitude: 180}, true},
		{"lat too high", Coordinate{Latitude: 90.1}, false},
		{"lon too low", Coordinate{Longitude: -180.5}, false},
		{"nan", Coordinate{Latitude: math.NaN()}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.c.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWithin(t *testing.T) {
	if !Within(paris, paris, 0) {
		t.Error("same point should be within a zero radius")
	}
	if Within(paris, comedie, 500) {
		t.Error("montpellier should not be within 500 km of paris")
	}
	if !Within(paris, comedie, 700) {
		t.Error("montpellier should be within 700 km of paris")
	}
}
