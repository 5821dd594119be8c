package metrics

import (
	"github.com/samirrijal/topomap/internal/core/viewsync"
)

// SyncObserver feeds binding events into the sync metrics.
type SyncObserver struct{}

var _ viewsync.Observer = SyncObserver{}

func (SyncObserver) CameraSynced(applied bool) {
	SyncsTotal.WithLabelValues("map_to_graph", outcome(applied)).Inc()
}

func (SyncObserver) MapSynced(applied bool) {
	SyncsTotal.WithLabelValues("graph_to_map", outcome(applied)).Inc()
}

func (SyncObserver) DriftChecked(meters float64, resynced bool) {
	DriftMeters.Observe(meters)
	if resynced {
		DriftChecks.WithLabelValues("resynced").Inc()
		return
	}
	DriftChecks.WithLabelValues("within_threshold").Inc()
}

func (SyncObserver) Resized() { Resizes.Inc() }

func (SyncObserver) StateChanged(from, to viewsync.State) {
	switch {
	case to == viewsync.Bound:
		ActiveBindings.Inc()
	case from == viewsync.Bound:
		ActiveBindings.Dec()
	}
}

func outcome(applied bool) string {
	if applied {
		return "applied"
	}
	return "skipped"
}
