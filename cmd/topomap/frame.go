package main

import (
	"github.com/samirrijal/topomap/internal/core/domain"
	"github.com/samirrijal/topomap/internal/pkg/geospatial"
)

// staticFrame is a map frame with a fixed container size and no camera.
type staticFrame struct {
	tileSize float64
	size     domain.Dimensions
}

func (f staticFrame) Project(p domain.GeoPoint, zoom float64) domain.PixelPoint {
	return geospatial.Project(p, f.tileSize, zoom)
}

func (f staticFrame) Unproject(p domain.PixelPoint, zoom float64) domain.GeoPoint {
	return geospatial.Unproject(p, f.tileSize, zoom)
}

func (f staticFrame) Size() domain.Dimensions { return f.size }

func currentFrame() staticFrame {
	return staticFrame{tileSize: tileSize, size: domain.Dimensions{Width: width, Height: height}}
}
