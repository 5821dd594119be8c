package domain

import (
	"math"

	"github.com/paulmach/orb"
)

// MaxValidLatitude is the largest latitude magnitude the spherical Web
// Mercator projection maps to a finite y.
const MaxValidLatitude = 85.0511287798

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// ClampLatitude limits lat to the projection domain.
func ClampLatitude(lat float64) float64 {
	return math.Max(-MaxValidLatitude, math.Min(MaxValidLatitude, lat))
}

// Clamped returns p with its latitude limited to ±MaxValidLatitude.
func (p GeoPoint) Clamped() GeoPoint {
	return GeoPoint{Lat: ClampLatitude(p.Lat), Lng: p.Lng}
}

// Valid reports whether p is finite and inside the projection domain.
func (p GeoPoint) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lng, 0) {
		return false
	}
	return math.Abs(p.Lat) <= MaxValidLatitude
}

// Orb returns p as an orb point ([lng, lat]).
func (p GeoPoint) Orb() orb.Point {
	return orb.Point{p.Lng, p.Lat}
}

// GeoPointFromOrb converts an orb point ([lng, lat]) back to a GeoPoint.
func GeoPointFromOrb(p orb.Point) GeoPoint {
	return GeoPoint{Lat: p.Lat(), Lng: p.Lon()}
}

// GraphPoint is a position in the graph renderer's coordinate space.
// Graph y grows upward, opposite to pixel y.
type GraphPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PixelPoint is a map pixel position (world or container), y grows downward.
type PixelPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ViewportPoint is a position on the graph renderer's drawing surface, y grows downward.
type ViewportPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Dimensions is a pixel size.
type Dimensions struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// IsDegenerate reports whether the surface has not been laid out yet.
func (d Dimensions) IsDegenerate() bool {
	return !(d.Width > 0) || !(d.Height > 0)
}

// CameraState is the graph camera. Ratio is an inverse zoom: larger is further out.
type CameraState struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Ratio float64 `json:"ratio"`
	Angle float64 `json:"angle"`
}

// GeoBounds represents a geographic bounding box.
type GeoBounds struct {
	SouthWest GeoPoint `json:"south_west"`
	NorthEast GeoPoint `json:"north_east"`
}

// BoundsFromCorners builds the box spanned by two opposite corners, in any order.
func BoundsFromCorners(a, b GeoPoint) GeoBounds {
	return BoundsFromOrb(orb.MultiPoint{a.Orb(), b.Orb()}.Bound())
}

// BoundsFromOrb converts an orb bound to GeoBounds.
func BoundsFromOrb(b orb.Bound) GeoBounds {
	return GeoBounds{
		SouthWest: GeoPointFromOrb(b.Min),
		NorthEast: GeoPointFromOrb(b.Max),
	}
}

// Orb returns the box as an orb bound.
func (b GeoBounds) Orb() orb.Bound {
	return orb.Bound{Min: b.SouthWest.Orb(), Max: b.NorthEast.Orb()}
}

// Center returns the arithmetic center of the box.
func (b GeoBounds) Center() GeoPoint {
	return GeoPointFromOrb(b.Orb().Center())
}

// NorthWest returns the top-left corner.
func (b GeoBounds) NorthWest() GeoPoint {
	return GeoPoint{Lat: b.NorthEast.Lat, Lng: b.SouthWest.Lng}
}

// SouthEast returns the bottom-right corner.
func (b GeoBounds) SouthEast() GeoPoint {
	return GeoPoint{Lat: b.SouthWest.Lat, Lng: b.NorthEast.Lng}
}

// IsEmpty reports whether the box has no area.
func (b GeoBounds) IsEmpty() bool {
	return b.NorthEast.Lat <= b.SouthWest.Lat || b.NorthEast.Lng <= b.SouthWest.Lng
}
