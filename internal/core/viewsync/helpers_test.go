package viewsync_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/samirrijal/topomap/internal/adapters/eventloop"
	"github.com/samirrijal/topomap/internal/adapters/graphview"
	"github.com/samirrijal/topomap/internal/adapters/mapview"
	"github.com/samirrijal/topomap/internal/core/domain"
	"github.com/samirrijal/topomap/internal/core/ports"
	"github.com/samirrijal/topomap/internal/core/viewsync"
)

var jakarta = domain.GeoPoint{Lat: -6.2, Lng: 106.8}

type testEnv struct {
	q *eventloop.Queue
	r *graphview.Renderer
	b *viewsync.Binding
}

func (e *testEnv) mapView(t *testing.T) *mapview.Map {
	t.Helper()
	m, ok := e.b.Map().(*mapview.Map)
	require.True(t, ok, "binding map is not a *mapview.Map")
	return m
}

func (e *testEnv) flush(t *testing.T) {
	t.Helper()
	require.True(t, e.q.Flush(eventloop.DefaultSettleTicks), "event queue did not drain")
}

// sampleNodes spreads a few sites over Java.
func sampleNodes() *graphview.Graph {
	g := graphview.NewGraph()
	g.AddNode("jkt", map[string]any{"lat": -6.2, "lng": 106.8})
	g.AddNode("bdg", map[string]any{"lat": -6.9, "lng": 107.6})
	g.AddNode("sby", map[string]any{"lat": -7.25, "lng": 112.75})
	g.AddNode("nolocation", map[string]any{"label": "floating"})
	return g
}

func newBoundEnv(t *testing.T, g *graphview.Graph, w, h float64, opts ...viewsync.Option) *testEnv {
	t.Helper()
	q := eventloop.NewQueue()
	r := graphview.New(g, w, h, q)
	center := jakarta
	all := append([]viewsync.Option{
		viewsync.WithScheduler(q),
		viewsync.WithMapOptions(ports.MapOptions{Center: &center, Zoom: 8}),
	}, opts...)
	b := viewsync.Bind(r, mapview.Factory, all...)
	e := &testEnv{q: q, r: r, b: b}
	e.flush(t)
	return e
}

// newPair returns an unbound renderer and a loaded map of the same size.
func newPair(w, h float64) (*graphview.Renderer, *mapview.Map) {
	r := graphview.New(sampleNodes(), w, h, nil)
	r.SetSetting(ports.SettingStagePadding, 0.0)
	center := jakarta
	m := mapview.New(r.CreateLayer("frame", ports.EdgesLayer), ports.MapOptions{Center: &center, Zoom: 9})
	for _, id := range r.Nodes().Nodes() {
		attrs, _ := r.Nodes().NodeAttributes(id)
		if p, ok := viewsync.DefaultLocation(attrs); ok {
			gp := viewsync.GeoToGraph(m, p)
			attrs["x"], attrs["y"] = gp.X, gp.Y
			r.Nodes().AddNode(id, attrs)
		}
	}
	return r, m
}

type countingObserver struct {
	cameraSyncs int
	mapSyncs    int
	driftChecks int
	resyncs     int
	resizes     int
	transitions []string
}

func (o *countingObserver) CameraSynced(applied bool) {
	if applied {
		o.cameraSyncs++
	}
}

func (o *countingObserver) MapSynced(applied bool) {
	if applied {
		o.mapSyncs++
	}
}

func (o *countingObserver) DriftChecked(_ float64, resynced bool) {
	o.driftChecks++
	if resynced {
		o.resyncs++
	}
}

func (o *countingObserver) Resized() { o.resizes++ }

func (o *countingObserver) StateChanged(from, to viewsync.State) {
	o.transitions = append(o.transitions, from.String()+"->"+to.String())
}
