package geospatial

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"

	"github.com/samirrijal/topomap/internal/core/domain"
)

// DefaultTileSize is the pixel size of one slippy-map tile.
const DefaultTileSize = 256.0

const mercatorSpan = 2 * math.Pi * orb.EarthRadius

// WorldSize returns the pixel width of the whole world at zoom.
func WorldSize(tileSize, zoom float64) float64 {
	return tileSize * math.Exp2(zoom)
}

// Project converts a geographic point to world pixels at the given zoom
// using spherical Web Mercator. Latitude must already be clamped.
func Project(p domain.GeoPoint, tileSize, zoom float64) domain.PixelPoint {
	m := project.WGS84.ToMercator(p.Orb())
	world := WorldSize(tileSize, zoom)
	return domain.PixelPoint{
		X: (m[0]/mercatorSpan + 0.5) * world,
		Y: (0.5 - m[1]/mercatorSpan) * world,
	}
}

// Unproject is the inverse of Project.
func Unproject(px domain.PixelPoint, tileSize, zoom float64) domain.GeoPoint {
	world := WorldSize(tileSize, zoom)
	m := orb.Point{
		(px.X/world - 0.5) * mercatorSpan,
		(0.5 - px.Y/world) * mercatorSpan,
	}
	return domain.GeoPointFromOrb(project.Mercator.ToWGS84(m))
}

// ZoomForSpan returns the zoom at which a span of worldPixels0 (measured at
// zoom 0) covers exactly screenPixels.
func ZoomForSpan(worldPixels0, screenPixels float64) float64 {
	return math.Log2(screenPixels / worldPixels0)
}
