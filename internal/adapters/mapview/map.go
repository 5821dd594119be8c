// Package mapview is an in-process slippy map: a Web Mercator camera over
// 256px tiles with fractional zoom. It renders nothing; it keeps the view
// state and fires the same events a browser map would.
package mapview

import (
	"math"
	"time"

	"github.com/samirrijal/topomap/internal/core/domain"
	"github.com/samirrijal/topomap/internal/core/ports"
	"github.com/samirrijal/topomap/internal/pkg/geospatial"
)

const (
	defaultMaxZoom = 22.0
	snapEpsilon    = 1e-9
)

type listener struct {
	id int
	fn func()
}

// Map implements ports.MapEngine.
type Map struct {
	container ports.Layer
	opts      ports.MapOptions

	size    domain.Dimensions
	center  domain.GeoPoint
	zoom    float64
	loaded  bool
	removed bool
	moving  bool
	gesture bool

	listeners map[string][]listener
	nextID    int
	ready     []func()
}

var _ ports.MapEngine = (*Map)(nil)

// New creates a map filling container. With opts.Center set the map is
// loaded immediately, otherwise on the first SetView or FitBounds.
func New(container ports.Layer, opts ports.MapOptions) *Map {
	if opts.TileSize <= 0 {
		opts.TileSize = geospatial.DefaultTileSize
	}
	if opts.MaxZoom <= 0 {
		opts.MaxZoom = defaultMaxZoom
	}
	if opts.MinZoom < 0 || opts.MinZoom > opts.MaxZoom {
		opts.MinZoom = 0
	}
	m := &Map{
		container: container,
		opts:      opts,
		size:      container.Size(),
		listeners: make(map[string][]listener),
	}
	if opts.Center != nil {
		m.center = opts.Center.Clamped()
		m.zoom = m.limitZoom(opts.Zoom)
		m.loaded = true
	}
	return m
}

// Factory adapts New to ports.MapFactory.
func Factory(layer ports.Layer, opts ports.MapOptions) ports.MapEngine {
	return New(layer, opts)
}

// Project converts p to world pixels at zoom.
func (m *Map) Project(p domain.GeoPoint, zoom float64) domain.PixelPoint {
	return geospatial.Project(p, m.opts.TileSize, zoom)
}

// Unproject converts world pixels at zoom back to a geographic point.
func (m *Map) Unproject(p domain.PixelPoint, zoom float64) domain.GeoPoint {
	return geospatial.Unproject(p, m.opts.TileSize, zoom)
}

// Size returns the container size measured at construction or at the last
// InvalidateSize.
func (m *Map) Size() domain.Dimensions { return m.size }

func (m *Map) Center() domain.GeoPoint { return m.center }

func (m *Map) Zoom() float64 { return m.zoom }

// Loaded reports whether a view has been set.
func (m *Map) Loaded() bool { return m.loaded }

// IsMoving reports whether a gesture or a view change is in progress.
func (m *Map) IsMoving() bool { return m.gesture || m.moving }

// Bounds returns the geographic box covered by the container.
func (m *Map) Bounds() domain.GeoBounds {
	c := m.Project(m.center, m.zoom)
	halfW, halfH := m.size.Width/2, m.size.Height/2
	sw := m.Unproject(domain.PixelPoint{X: c.X - halfW, Y: c.Y + halfH}, m.zoom)
	ne := m.Unproject(domain.PixelPoint{X: c.X + halfW, Y: c.Y - halfH}, m.zoom)
	return domain.GeoBounds{SouthWest: sw, NorthEast: ne}
}

// Distance returns the great-circle distance in meters.
func (m *Map) Distance(a, b domain.GeoPoint) float64 {
	return geospatial.Distance(a, b)
}

// SetView moves the map instantly and fires movestart, move, load (first
// time only) and moveend.
func (m *Map) SetView(center domain.GeoPoint, zoom float64) {
	if m.removed {
		return
	}
	m.moving = true
	m.center = center.Clamped()
	m.zoom = m.limitZoom(zoom)
	m.fire(ports.MapEventMoveStart)
	m.fire(ports.MapEventMove)
	m.moving = false

	if !m.loaded {
		m.loaded = true
		m.fire(ports.MapEventLoad)
		ready := m.ready
		m.ready = nil
		for _, fn := range ready {
			fn()
		}
	}
	m.fire(ports.MapEventMoveEnd)
}

// FitBounds shows b as large as the container allows. There is no animation
// in a headless map, so duration is ignored.
func (m *Map) FitBounds(b domain.GeoBounds, _ time.Duration) {
	if m.removed || m.size.IsDegenerate() {
		return
	}
	sw := m.Project(b.SouthWest, 0)
	ne := m.Project(b.NorthEast, 0)
	dx := math.Abs(ne.X - sw.X)
	dy := math.Abs(sw.Y - ne.Y)

	zoom := m.opts.MaxZoom
	if dx > 0 || dy > 0 {
		zx, zy := math.Inf(1), math.Inf(1)
		if dx > 0 {
			zx = geospatial.ZoomForSpan(dx, m.size.Width)
		}
		if dy > 0 {
			zy = geospatial.ZoomForSpan(dy, m.size.Height)
		}
		zoom = math.Min(zx, zy)
	}
	if m.opts.ZoomSnap > 0 {
		zoom = math.Floor(zoom/m.opts.ZoomSnap+snapEpsilon) * m.opts.ZoomSnap
	}

	center := m.Unproject(domain.PixelPoint{X: (sw.X + ne.X) / 2, Y: (sw.Y + ne.Y) / 2}, 0)
	m.SetView(center, zoom)
}

// Pan shifts the view by container pixels. Outside a gesture it ends with
// moveend; inside one only move fires.
func (m *Map) Pan(dx, dy float64) {
	if m.removed {
		return
	}
	c := m.Project(m.center, m.zoom)
	m.center = m.Unproject(domain.PixelPoint{X: c.X + dx, Y: c.Y + dy}, m.zoom).Clamped()
	m.fire(ports.MapEventMove)
	if !m.gesture {
		m.fire(ports.MapEventMoveEnd)
	}
}

// BeginGesture marks the start of user-driven navigation.
func (m *Map) BeginGesture() {
	if m.removed || m.gesture {
		return
	}
	m.gesture = true
	m.fire(ports.MapEventMoveStart)
}

// EndGesture finishes user-driven navigation and fires moveend.
func (m *Map) EndGesture() {
	if !m.gesture {
		return
	}
	m.gesture = false
	m.fire(ports.MapEventMoveEnd)
}

// InvalidateSize re-reads the container size. The top-left corner stays
// fixed, so the geographic center moves by half the size change.
func (m *Map) InvalidateSize() {
	if m.removed {
		return
	}
	old := m.size
	m.size = m.container.Size()
	if old == m.size {
		return
	}
	if m.loaded {
		c := m.Project(m.center, m.zoom)
		topLeft := domain.PixelPoint{X: c.X - old.Width/2, Y: c.Y - old.Height/2}
		m.center = m.Unproject(domain.PixelPoint{
			X: topLeft.X + m.size.Width/2,
			Y: topLeft.Y + m.size.Height/2,
		}, m.zoom).Clamped()
	}
	m.fire(ports.MapEventResize)
	m.fire(ports.MapEventMove)
	m.fire(ports.MapEventMoveEnd)
}

// WhenReady runs fn once the map is loaded, immediately if it already is.
func (m *Map) WhenReady(fn func()) {
	if m.removed {
		return
	}
	if m.loaded {
		fn()
		return
	}
	m.ready = append(m.ready, fn)
}

// On registers fn for event and returns a function removing it.
func (m *Map) On(event string, fn func()) (off func()) {
	if m.removed {
		return func() {}
	}
	m.nextID++
	id := m.nextID
	m.listeners[event] = append(m.listeners[event], listener{id: id, fn: fn})
	return func() { m.off(event, id) }
}

// ListenerCount returns how many listeners are registered for event.
func (m *Map) ListenerCount(event string) int {
	return len(m.listeners[event])
}

// Removed reports whether Remove has been called.
func (m *Map) Removed() bool { return m.removed }

// Remove detaches all listeners; the map ignores further view changes.
func (m *Map) Remove() {
	m.removed = true
	m.listeners = make(map[string][]listener)
	m.ready = nil
}

func (m *Map) off(event string, id int) {
	ls := m.listeners[event]
	for i, l := range ls {
		if l.id == id {
			m.listeners[event] = append(ls[:i:i], ls[i+1:]...)
			return
		}
	}
}

func (m *Map) fire(event string) {
	ls := append([]listener(nil), m.listeners[event]...)
	for _, l := range ls {
		if m.removed {
			return
		}
		if m.registered(event, l.id) {
			l.fn()
		}
	}
}

func (m *Map) registered(event string, id int) bool {
	for _, l := range m.listeners[event] {
		if l.id == id {
			return true
		}
	}
	return false
}

func (m *Map) limitZoom(z float64) float64 {
	if math.IsNaN(z) {
		return m.opts.MinZoom
	}
	return math.Max(m.opts.MinZoom, math.Min(m.opts.MaxZoom, z))
}
