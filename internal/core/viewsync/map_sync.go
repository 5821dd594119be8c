package viewsync

import (
	"github.com/samirrijal/topomap/internal/core/domain"
	"github.com/samirrijal/topomap/internal/core/ports"
)

// ImpliedBounds returns the geographic box the graph viewport currently shows.
// Corners are converted without stage padding so both systems agree on the box.
func ImpliedBounds(m ports.MapFrame, r ports.GraphViewport) domain.GeoBounds {
	dims := r.Dimensions()
	topLeft := r.ViewportToGraph(domain.ViewportPoint{X: 0, Y: 0}, ports.ZeroPadding())
	bottomRight := r.ViewportToGraph(domain.ViewportPoint{X: dims.Width, Y: dims.Height}, ports.ZeroPadding())
	return domain.BoundsFromCorners(GraphToGeo(m, topLeft), GraphToGeo(m, bottomRight))
}

// SyncMapToGraphCamera fits the map to the region the graph viewport shows.
// Nothing happens while the camera animates or the map is mid-gesture, since
// the two would fight over the view.
func SyncMapToGraphCamera(m ports.MapViewPort, r ports.GraphViewport) bool {
	if r.Camera().IsAnimated() || m.IsMoving() {
		return false
	}
	if r.Dimensions().IsDegenerate() || m.Size().IsDegenerate() {
		return false
	}

	bounds := ImpliedBounds(m, r)
	if bounds.IsEmpty() {
		return false
	}
	m.FitBounds(bounds, 0)
	return true
}
