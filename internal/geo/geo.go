// Package geo holds coordinate types and great-circle distance helpers.
package geo

import "math"

// EarthRadiusKm is the mean Earth radius used by the haversine formula.
const EarthRadiusKm = 6371.0

// Coordinate is a position in decimal degrees.
type Coordinate struct {
	Latitude  float64 `json:"latitude" validate:"latitude"`
	Longitude float64 `json:"longitude" validate:"longitude"`
}

// Valid reports whether c lies within [-90,90] latitude and [-180,180] longitude.
func (c Coordinate) Valid() bool {
	return c.Latitude >= -90 && c.Latitude <= 90 &&
		c.Longitude >= -180 && c.Longitude <= 180 &&
		!math.IsNaN(c.Latitude) && !math.IsNaN(c.Longitude)
}

// Distance returns the great-circle distance between a and b in kilometers,
// rounded to one decimal place. Inputs are not validated.
func Distance(a, b Coordinate) float64 {
	return math.Round(haversine(a, b)*10) / 10
}

// Within reports whether b is at most radiusKm from a. It compares the
// unrounded distance so results near the boundary are not skewed by rounding.
func Within(a, b Coordinate, radiusKm float64) bool {
	return haversine(a, b) <= radiusKm
}

func haversine(a, b Coordinate) float64 {
	dLat := toRad(b.Latitude - a.Latitude)
	dLon := toRad(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Latitude))*math.Cos(toRad(b.Latitude))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	return EarthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
