package viewsync

import (
	"github.com/samirrijal/topomap/internal/core/ports"
)

// DefaultDriftThreshold is the corner distance, in meters, below which the
// map and graph views are treated as equal.
const DefaultDriftThreshold = 1.0

// DriftGuard gates map-driven resyncs. Without it a map move updates the
// camera, the render fits the map, rounding nudges the map and the cycle
// never settles.
type DriftGuard struct {
	Threshold float64
	Sync      func()
}

// Drift measures how far apart the displayed map bounds and the bounds the
// graph viewport implies are, as the larger corner distance in meters.
func Drift(m ports.MapViewPort, r ports.GraphViewport) float64 {
	shown := m.Bounds()
	implied := ImpliedBounds(m, r)
	sw := m.Distance(shown.SouthWest, implied.SouthWest)
	ne := m.Distance(shown.NorthEast, implied.NorthEast)
	if sw > ne {
		return sw
	}
	return ne
}

// Check calls Sync once when the drift exceeds the threshold.
func (g DriftGuard) Check(m ports.MapViewPort, r ports.GraphViewport) (drift float64, synced bool) {
	if r.Dimensions().IsDegenerate() || m.Size().IsDegenerate() {
		return 0, false
	}
	drift = Drift(m, r)
	threshold := g.Threshold
	if threshold <= 0 {
		threshold = DefaultDriftThreshold
	}
	if drift > threshold && g.Sync != nil {
		g.Sync()
		return drift, true
	}
	return drift, false
}
