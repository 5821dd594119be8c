// Package viewsync keeps a geographic map camera and a graph renderer camera
// showing the same region.
//
// Graph space is the map's world-pixel space at zoom 0 with the y axis flipped
// against the map container height, so nodes placed with GeoToGraph line up
// with the basemap as long as both cameras frame the same bounds.
package viewsync

import (
	"github.com/samirrijal/topomap/internal/core/domain"
	"github.com/samirrijal/topomap/internal/core/ports"
)

// GeoToGraph projects p into graph space for the current map frame.
// |p.Lat| must not exceed domain.MaxValidLatitude.
func GeoToGraph(frame ports.MapFrame, p domain.GeoPoint) domain.GraphPoint {
	px := frame.Project(p, 0)
	return domain.GraphPoint{X: px.X, Y: frame.Size().Height - px.Y}
}

// GraphToGeo is the inverse of GeoToGraph for the same frame.
func GraphToGeo(frame ports.MapFrame, g domain.GraphPoint) domain.GeoPoint {
	return frame.Unproject(domain.PixelPoint{X: g.X, Y: frame.Size().Height - g.Y}, 0)
}
