package geospatial

import (
	"github.com/golang/geo/s2"

	"github.com/samirrijal/topomap/internal/core/domain"
)

// EarthRadiusMeters is the mean earth radius used for distances.
const EarthRadiusMeters = 6371000.0

// Distance calculates the great-circle distance in meters between two points.
func Distance(a, b domain.GeoPoint) float64 {
	la := s2.LatLngFromDegrees(a.Lat, a.Lng)
	lb := s2.LatLngFromDegrees(b.Lat, b.Lng)
	return la.Distance(lb).Radians() * EarthRadiusMeters
}

// CornerDrift returns the larger of the south-west and north-east corner
// distances between two boxes, in meters.
func CornerDrift(a, b domain.GeoBounds) float64 {
	sw := Distance(a.SouthWest, b.SouthWest)
	ne := Distance(a.NorthEast, b.NorthEast)
	if sw > ne {
		return sw
	}
	return ne
}
