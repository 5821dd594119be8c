package viewsync

import (
	"log/slog"

	"github.com/samirrijal/topomap/internal/core/ports"
)

// State is the lifecycle state of a Binding.
type State int

const (
	Unbound State = iota
	Bound
	Killed
)

func (s State) String() string {
	switch s {
	case Unbound:
		return "unbound"
	case Bound:
		return "bound"
	case Killed:
		return "killed"
	default:
		return "unknown"
	}
}

// Binding ties a map overlay to a graph renderer and keeps both cameras in
// sync. All methods must be called from the renderer's event loop.
type Binding struct {
	renderer ports.GraphRenderer
	newMap   ports.MapFactory
	opts     options
	log      *slog.Logger

	state State
	layer ports.Layer
	m     ports.MapEngine
	guard DriftGuard

	prevPadding  any
	prevRotation any

	offMoveEnd     func()
	offAfterRender func()
	offResize      func()
}

// NewBinding prepares an unbound binding.
func NewBinding(r ports.GraphRenderer, newMap ports.MapFactory, opts ...Option) *Binding {
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	b := &Binding{
		renderer: r,
		newMap:   newMap,
		opts:     o,
		log:      o.logger.With("component", "viewsync"),
	}
	b.guard = DriftGuard{Threshold: o.driftThreshold, Sync: b.syncCamera}
	return b
}

// Bind creates the map overlay under the renderer's edge layer and starts
// synchronizing. It is a shortcut for NewBinding followed by Bind.
func Bind(r ports.GraphRenderer, newMap ports.MapFactory, opts ...Option) *Binding {
	b := NewBinding(r, newMap, opts...)
	b.Bind()
	return b
}

// Bind attaches the binding. Calling it on a bound or killed binding does nothing.
func (b *Binding) Bind() bool {
	if b.state != Unbound {
		b.log.Warn("bind ignored", "state", b.state.String())
		return false
	}

	b.layer = b.renderer.CreateLayer(b.opts.layerID, ports.EdgesLayer)

	b.prevPadding = b.renderer.Setting(ports.SettingStagePadding)
	b.prevRotation = b.renderer.Setting(ports.SettingEnableCameraRotation)
	b.renderer.SetSetting(ports.SettingStagePadding, 0.0)
	b.renderer.SetSetting(ports.SettingEnableCameraRotation, false)

	b.m = b.newMap(b.layer, b.opts.mapOptions)
	b.setState(Bound)

	n := b.UpdateGraphCoordinates(b.renderer.Graph())
	b.log.Debug("bound", "layer", b.layer.ID(), "nodes", n)

	b.m.WhenReady(b.handshake)
	return true
}

// handshake runs once the map has loaded. The first paint is synchronized
// before any steady-state listener exists.
func (b *Binding) handshake() {
	if b.state != Bound {
		return
	}
	b.syncMap()

	b.offMoveEnd = b.m.On(ports.MapEventMoveEnd, b.onMoveEnd)
	b.offAfterRender = b.renderer.On(ports.RendererEventAfterRender, b.syncMap)
	b.offResize = b.renderer.On(ports.RendererEventResize, b.Resize)
	b.log.Debug("handshake complete", "center", b.m.Center(), "zoom", b.m.Zoom())
}

func (b *Binding) onMoveEnd() {
	drift, synced := b.guard.Check(b.m, b.renderer)
	b.opts.observer.DriftChecked(drift, synced)
}

func (b *Binding) syncCamera() {
	b.opts.observer.CameraSynced(SyncGraphCameraToMap(b.renderer, b.m))
}

func (b *Binding) syncMap() {
	b.opts.observer.MapSynced(SyncMapToGraphCamera(b.m, b.renderer))
}

// Resize re-coordinates both cameras after the drawing surface changed size.
// The map moveend and renderer afterRender listeners are off until the next
// tick, so the camera is synced exactly once and nothing feeds back.
func (b *Binding) Resize() {
	if b.state != Bound {
		return
	}

	for _, off := range []func(){b.offMoveEnd, b.offAfterRender} {
		if off != nil {
			off()
		}
	}
	b.offMoveEnd, b.offAfterRender = nil, nil

	center := b.m.Center()
	zoom := b.m.Zoom()
	b.m.InvalidateSize()
	b.m.SetView(center, zoom)

	b.UpdateGraphCoordinates(b.renderer.Graph())
	b.syncCamera()
	b.opts.observer.Resized()

	b.opts.scheduler.Defer(func() {
		if b.state != Bound {
			return
		}
		if b.offMoveEnd == nil {
			b.offMoveEnd = b.m.On(ports.MapEventMoveEnd, b.onMoveEnd)
		}
		if b.offAfterRender == nil {
			b.offAfterRender = b.renderer.On(ports.RendererEventAfterRender, b.syncMap)
		}
	})
}

// UpdateGraphCoordinates writes the projected x/y of every node that has a
// readable location. It returns how many nodes were projected.
func (b *Binding) UpdateGraphCoordinates(g ports.GraphStore) int {
	if b.m == nil || g == nil {
		return 0
	}
	count := 0
	g.UpdateEachNodeAttributes(func(id string, attrs map[string]any) map[string]any {
		p, ok := b.opts.location(attrs)
		if !ok {
			return attrs
		}
		gp := GeoToGraph(b.m, p)
		attrs["x"] = gp.X
		attrs["y"] = gp.Y
		count++
		return attrs
	})
	return count
}

// Clean detaches every listener, removes the map and its layer and restores
// the renderer settings changed by Bind. Only the first call has an effect.
func (b *Binding) Clean() {
	if b.state == Killed {
		return
	}
	wasBound := b.state == Bound

	for _, off := range []func(){b.offMoveEnd, b.offAfterRender, b.offResize} {
		if off != nil {
			off()
		}
	}
	b.offMoveEnd, b.offAfterRender, b.offResize = nil, nil, nil

	if wasBound {
		b.m.Remove()
		b.layer.Remove()
		b.renderer.SetSetting(ports.SettingStagePadding, b.prevPadding)
		b.renderer.SetSetting(ports.SettingEnableCameraRotation, b.prevRotation)
	}
	b.setState(Killed)
	b.log.Debug("cleaned")
}

// Map returns the map created by Bind, nil before.
func (b *Binding) Map() ports.MapEngine {
	return b.m
}

// State returns the lifecycle state.
func (b *Binding) State() State {
	return b.state
}

// Drift returns the current corner drift in meters, 0 unless bound.
func (b *Binding) Drift() float64 {
	if b.state != Bound || b.renderer.Dimensions().IsDegenerate() || b.m.Size().IsDegenerate() {
		return 0
	}
	return Drift(b.m, b.renderer)
}

func (b *Binding) setState(s State) {
	from := b.state
	b.state = s
	b.opts.observer.StateChanged(from, s)
}
