package ports

import (
	"time"

	"github.com/samirrijal/topomap/internal/core/domain"
)

// Map engine events.
const (
	MapEventLoad      = "load"
	MapEventMoveStart = "movestart"
	MapEventMove      = "move"
	MapEventMoveEnd   = "moveend"
	MapEventResize    = "resize"
)

// Graph renderer events.
const (
	RendererEventAfterRender = "afterRender"
	RendererEventResize      = "resize"
)

// Graph renderer setting keys.
const (
	SettingStagePadding         = "stagePadding"
	SettingEnableCameraRotation = "enableCameraRotation"
)

// EdgesLayer is the renderer layer the map overlay is inserted beneath.
const EdgesLayer = "edges"

// MapFrame is the map's current projection context.
type MapFrame interface {
	Project(p domain.GeoPoint, zoom float64) domain.PixelPoint
	Unproject(p domain.PixelPoint, zoom float64) domain.GeoPoint
	Size() domain.Dimensions
}

// MapViewPort is the part of a map engine the sync functions drive.
type MapViewPort interface {
	MapFrame
	Center() domain.GeoPoint
	Zoom() float64
	Bounds() domain.GeoBounds
	SetView(center domain.GeoPoint, zoom float64)
	FitBounds(b domain.GeoBounds, duration time.Duration)
	IsMoving() bool
	InvalidateSize()
	// Distance returns the great-circle distance in meters.
	Distance(a, b domain.GeoPoint) float64
}

// MapEngine is a full map instance owned by a binding.
type MapEngine interface {
	MapViewPort
	// WhenReady runs fn once the map has loaded, immediately if it already has.
	WhenReady(fn func())
	On(event string, fn func()) (off func())
	Remove()
}

// MapOptions are the map construction parameters.
type MapOptions struct {
	Center   *domain.GeoPoint
	Zoom     float64
	MinZoom  float64
	MaxZoom  float64
	ZoomSnap float64
	TileSize float64
}

// MapFactory creates a map inside the given layer.
type MapFactory func(layer Layer, opts MapOptions) MapEngine

// GraphCamera is the graph renderer's camera.
type GraphCamera interface {
	State() domain.CameraState
	// SetState replaces center and ratio in one update.
	SetState(s domain.CameraState)
	IsAnimated() bool
}

// ViewportOptions tune viewport/graph conversions. A nil Padding uses the
// renderer's stagePadding setting.
type ViewportOptions struct {
	Padding *float64
}

// ZeroPadding converts without stage padding.
func ZeroPadding() ViewportOptions {
	p := 0.0
	return ViewportOptions{Padding: &p}
}

// GraphViewport converts between the drawing surface and graph space.
type GraphViewport interface {
	Dimensions() domain.Dimensions
	Camera() GraphCamera
	ViewportToGraph(p domain.ViewportPoint, opts ViewportOptions) domain.GraphPoint
	GraphToViewport(p domain.GraphPoint) domain.ViewportPoint
	ViewportToFramedGraph(p domain.ViewportPoint) domain.GraphPoint
}

// GraphStore is the renderer's node attribute store.
type GraphStore interface {
	UpdateEachNodeAttributes(fn func(id string, attrs map[string]any) map[string]any)
}

// Layer is a drawing layer owned by the renderer.
type Layer interface {
	ID() string
	Size() domain.Dimensions
	Remove()
}

// GraphRenderer is the graph engine a binding attaches to.
type GraphRenderer interface {
	GraphViewport
	Setting(key string) any
	SetSetting(key string, value any)
	On(event string, fn func()) (off func())
	CreateLayer(id, before string) Layer
	Graph() GraphStore
}

// Scheduler runs work on the next tick of the owning event loop.
type Scheduler interface {
	Defer(fn func())
}
