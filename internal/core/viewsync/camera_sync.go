package viewsync

import (
	"math"

	"github.com/samirrijal/topomap/internal/core/domain"
	"github.com/samirrijal/topomap/internal/core/ports"
)

// SyncGraphCameraToMap moves the graph camera so it frames exactly the map's
// visible bounds. It reports false, leaving the camera untouched, when either
// surface has not been laid out.
func SyncGraphCameraToMap(r ports.GraphViewport, m ports.MapViewPort) bool {
	dims := r.Dimensions()
	if dims.IsDegenerate() || m.Size().IsDegenerate() {
		return false
	}

	bounds := m.Bounds()
	ne := r.GraphToViewport(GeoToGraph(m, bounds.NorthEast))
	sw := r.GraphToViewport(GeoToGraph(m, bounds.SouthWest))

	center := r.ViewportToFramedGraph(domain.ViewportPoint{
		X: (ne.X + sw.X) / 2,
		Y: (ne.Y + sw.Y) / 2,
	})

	camera := r.Camera()
	current := camera.State()
	ratio := math.Min(
		math.Abs(ne.X-sw.X)/dims.Width,
		math.Abs(sw.Y-ne.Y)/dims.Height,
	) * current.Ratio
	if !(ratio > 0) || math.IsInf(ratio, 0) {
		return false
	}

	camera.SetState(domain.CameraState{
		X:     center.X,
		Y:     center.Y,
		Ratio: ratio,
		Angle: current.Angle,
	})
	return true
}
