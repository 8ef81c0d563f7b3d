// README: Pure geographic computation helpers shared by providers and the plan module.
package geo

import (
	"github.com/golang/geo/s2"

	"wayfinder/internal/types"
)

// EarthRadiusMeters is the mean Earth radius used for all great-circle math.
const EarthRadiusMeters = 6371000.0

// Distance returns the great-circle distance in meters between two points
// specified in decimal degrees.
func Distance(a, b types.Point) float64 {
	p1 := s2.LatLngFromDegrees(a.Lat, a.Lng)
	p2 := s2.LatLngFromDegrees(b.Lat, b.Lng)
	return p1.Distance(p2).Radians() * EarthRadiusMeters
}

// Midpoint returns the arithmetic mean of the two coordinates. This is a
// preview-fidelity midpoint, not a geodesic one.
func Midpoint(a, b types.Point) types.Point {
	return types.Point{
		Lat: (a.Lat + b.Lat) / 2,
		Lng: (a.Lng + b.Lng) / 2,
	}
}
