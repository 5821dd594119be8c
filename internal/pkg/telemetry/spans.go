package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Span names for session operations.
const (
	SpanSessionCreate   = "session.create"
	SpanSessionMoveMap  = "session.move_map"
	SpanSessionFit      = "session.fit_bounds"
	SpanSessionCamera   = "session.set_camera"
	SpanSessionResize   = "session.resize"
	SpanSessionClose    = "session.close"
	SpanSessionSnapshot = "session.snapshot"
)

// Span attribute keys.
const (
	AttrSessionID = attribute.Key("topomap.session.id")
	AttrNodes     = attribute.Key("topomap.session.nodes")
	AttrZoom      = attribute.Key("topomap.map.zoom")
	AttrDrift     = attribute.Key("topomap.sync.drift_meters")
	AttrSettled   = attribute.Key("topomap.loop.settled")
)
