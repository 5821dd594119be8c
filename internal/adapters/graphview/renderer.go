// Package graphview is an in-process graph renderer: a camera over a node
// store, a settings store, ordered layers and render events. It keeps the
// numbers a WebGL renderer would keep and draws nothing.
package graphview

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/samirrijal/topomap/internal/core/domain"
	"github.com/samirrijal/topomap/internal/core/ports"
)

// DefaultStagePadding is the margin kept around the graph when framing it.
const DefaultStagePadding = 30.0

// Default layer stack, bottom to top.
var defaultLayers = []string{ports.EdgesLayer, "nodes", "labels"}

type listener struct {
	id int
	fn func()
}

// Renderer implements ports.GraphRenderer.
type Renderer struct {
	dims      domain.Dimensions
	graph     *Graph
	camera    *Camera
	scheduler ports.Scheduler
	settings  map[string]any
	layers    []*Layer

	listeners map[string][]listener
	nextID    int

	renderPending bool
	renders       int
	killed        bool

	// graph-space extent used to frame the graph
	cx, cy, side float64
}

var _ ports.SessionRenderer = (*Renderer)(nil)

// New creates a renderer for g on a width×height surface. Renders are
// scheduled on s.
func New(g *Graph, width, height float64, s ports.Scheduler) *Renderer {
	if g == nil {
		g = NewGraph()
	}
	r := &Renderer{
		dims:      domain.Dimensions{Width: width, Height: height},
		graph:     g,
		scheduler: s,
		settings: map[string]any{
			ports.SettingStagePadding:         DefaultStagePadding,
			ports.SettingEnableCameraRotation: true,
		},
		listeners: make(map[string][]listener),
	}
	r.camera = &Camera{state: DefaultCameraState(), renderer: r}
	for _, id := range defaultLayers {
		r.layers = append(r.layers, &Layer{id: id, renderer: r})
	}
	g.onChange = r.refresh
	r.cx, r.cy, r.side = g.extent()
	return r
}

// Graph returns the node store.
func (r *Renderer) Graph() ports.GraphStore { return r.graph }

// Nodes returns the concrete node store.
func (r *Renderer) Nodes() *Graph { return r.graph }

// Camera returns the camera.
func (r *Renderer) Camera() ports.GraphCamera { return r.camera }

// NodeView returns the node store for reading positions.
func (r *Renderer) NodeView() ports.NodeView { return r.graph }

// Cam returns the concrete camera, for animation control.
func (r *Renderer) Cam() *Camera { return r.camera }

// AnimateCamera moves the camera to target over steps ticks.
func (r *Renderer) AnimateCamera(target domain.CameraState, steps int) {
	r.camera.Animate(target, steps)
}

func (r *Renderer) Dimensions() domain.Dimensions { return r.dims }

// Renders returns how many frames have been rendered.
func (r *Renderer) Renders() int { return r.renders }

// Setting returns a setting value, nil when unset.
func (r *Renderer) Setting(key string) any { return r.settings[key] }

// SetSetting stores a setting and schedules a render.
func (r *Renderer) SetSetting(key string, value any) {
	r.settings[key] = value
	r.scheduleRender()
}

// On registers fn for event and returns a function removing it.
func (r *Renderer) On(event string, fn func()) (off func()) {
	if r.killed {
		return func() {}
	}
	r.nextID++
	id := r.nextID
	r.listeners[event] = append(r.listeners[event], listener{id: id, fn: fn})
	return func() { r.off(event, id) }
}

// ListenerCount returns how many listeners are registered for event.
func (r *Renderer) ListenerCount(event string) int {
	return len(r.listeners[event])
}

// CreateLayer inserts a layer right below before, or on top when before is
// unknown.
func (r *Renderer) CreateLayer(id, before string) ports.Layer {
	l := &Layer{id: id, renderer: r}
	idx := len(r.layers)
	for i, existing := range r.layers {
		if existing.id == before {
			idx = i
			break
		}
	}
	r.layers = append(r.layers, nil)
	copy(r.layers[idx+1:], r.layers[idx:])
	r.layers[idx] = l
	return l
}

// LayerOrder returns layer ids bottom to top.
func (r *Renderer) LayerOrder() []string {
	out := make([]string, 0, len(r.layers))
	for _, l := range r.layers {
		out = append(out, l.id)
	}
	return out
}

// Resize changes the drawing surface and fires resize.
func (r *Renderer) Resize(width, height float64) {
	if r.killed {
		return
	}
	r.dims = domain.Dimensions{Width: width, Height: height}
	r.scheduleRender()
	r.fire(ports.RendererEventResize)
}

// Render draws a frame now and fires afterRender.
func (r *Renderer) Render() {
	if r.killed {
		return
	}
	r.renderPending = false
	r.renders++
	r.fire(ports.RendererEventAfterRender)
}

// Kill stops rendering and drops every listener.
func (r *Renderer) Kill() {
	r.killed = true
	r.listeners = make(map[string][]listener)
}

// GraphToViewport converts a graph position to surface pixels.
func (r *Renderer) GraphToViewport(p domain.GraphPoint) domain.ViewportPoint {
	return r.framedToViewport(r.graphToFramed(p), r.padding(nil))
}

// ViewportToGraph converts surface pixels to a graph position.
func (r *Renderer) ViewportToGraph(p domain.ViewportPoint, opts ports.ViewportOptions) domain.GraphPoint {
	return r.framedToGraph(r.viewportToFramed(p, r.padding(opts.Padding)))
}

// ViewportToFramedGraph converts surface pixels to camera coordinates.
func (r *Renderer) ViewportToFramedGraph(p domain.ViewportPoint) domain.GraphPoint {
	return r.viewportToFramed(p, r.padding(nil))
}

func (r *Renderer) graphToFramed(p domain.GraphPoint) domain.GraphPoint {
	return domain.GraphPoint{
		X: 0.5 + (p.X-r.cx)/r.side,
		Y: 0.5 + (p.Y-r.cy)/r.side,
	}
}

func (r *Renderer) framedToGraph(f domain.GraphPoint) domain.GraphPoint {
	return domain.GraphPoint{
		X: r.cx + (f.X-0.5)*r.side,
		Y: r.cy + (f.Y-0.5)*r.side,
	}
}

// scale is the number of pixels one framed unit spans at ratio 1.
func (r *Renderer) scale(padding float64) float64 {
	s := math.Min(r.dims.Width, r.dims.Height)
	if inner := s - 2*padding; inner > 0 {
		return inner
	}
	return s
}

func (r *Renderer) framedToViewport(f domain.GraphPoint, padding float64) domain.ViewportPoint {
	c := r.camera.state
	k := r.scale(padding) / c.Ratio
	dx, dy := f.X-c.X, f.Y-c.Y
	sin, cos := math.Sincos(c.Angle)
	rx := dx*cos + dy*sin
	ry := -dx*sin + dy*cos
	return domain.ViewportPoint{
		X: r.dims.Width/2 + rx*k,
		Y: r.dims.Height/2 - ry*k,
	}
}

func (r *Renderer) viewportToFramed(v domain.ViewportPoint, padding float64) domain.GraphPoint {
	c := r.camera.state
	k := c.Ratio / r.scale(padding)
	rx := (v.X - r.dims.Width/2) * k
	ry := (r.dims.Height/2 - v.Y) * k
	sin, cos := math.Sincos(c.Angle)
	return domain.GraphPoint{
		X: c.X + rx*cos - ry*sin,
		Y: c.Y + rx*sin + ry*cos,
	}
}

func (r *Renderer) padding(override *float64) float64 {
	if override != nil {
		return *override
	}
	switch v := r.settings[ports.SettingStagePadding].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case json.Number:
		f, _ := v.Float64()
		return f
	case string:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	}
	return 0
}

func (r *Renderer) rotationEnabled() bool {
	v, ok := r.settings[ports.SettingEnableCameraRotation].(bool)
	return !ok || v
}

// refresh re-frames the graph after a node mutation.
func (r *Renderer) refresh() {
	r.cx, r.cy, r.side = r.graph.extent()
	r.scheduleRender()
}

func (r *Renderer) scheduleRender() {
	if r.renderPending || r.killed || r.scheduler == nil {
		return
	}
	r.renderPending = true
	r.scheduler.Defer(r.Render)
}

func (r *Renderer) off(event string, id int) {
	ls := r.listeners[event]
	for i, l := range ls {
		if l.id == id {
			r.listeners[event] = append(ls[:i:i], ls[i+1:]...)
			return
		}
	}
}

func (r *Renderer) fire(event string) {
	ls := append([]listener(nil), r.listeners[event]...)
	for _, l := range ls {
		if r.registered(event, l.id) {
			l.fn()
		}
	}
}

func (r *Renderer) registered(event string, id int) bool {
	for _, l := range r.listeners[event] {
		if l.id == id {
			return true
		}
	}
	return false
}

// Layer is a renderer layer sized like the drawing surface.
type Layer struct {
	id       string
	renderer *Renderer
	removed  bool
}

var _ ports.Layer = (*Layer)(nil)

func (l *Layer) ID() string { return l.id }

// Size returns the current surface size, zero once removed.
func (l *Layer) Size() domain.Dimensions {
	if l.removed {
		return domain.Dimensions{}
	}
	return l.renderer.dims
}

// Remove takes the layer out of the stack.
func (l *Layer) Remove() {
	if l.removed {
		return
	}
	l.removed = true
	r := l.renderer
	for i, existing := range r.layers {
		if existing == l {
			r.layers = append(r.layers[:i], r.layers[i+1:]...)
			return
		}
	}
}
