package ports

import "github.com/samirrijal/topomap/internal/core/domain"

// EventLoop serializes all work touching one session.
type EventLoop interface {
	Scheduler
	// Do runs fn on the loop and waits for it.
	Do(fn func()) error
	// Settle waits until the queue is empty, at most maxTicks ticks.
	Settle(maxTicks int) bool
	Close()
}

// NodeView reads the renderer's node store.
type NodeView interface {
	Nodes() []string
	NodeAttributes(id string) (map[string]any, bool)
	Position(id string) (x, y float64, ok bool)
}

// SessionRenderer is a graph renderer a viewport session drives directly.
type SessionRenderer interface {
	GraphRenderer
	NodeView() NodeView
	AnimateCamera(target domain.CameraState, steps int)
	Resize(width, height float64)
	Kill()
}

// RendererNode is one node handed to a new renderer.
type RendererNode struct {
	ID         string
	Attributes map[string]any
}

// SessionEngines builds the runtime of one viewport session.
type SessionEngines struct {
	NewLoop     func() EventLoop
	NewRenderer func(nodes []RendererNode, width, height float64, s Scheduler) SessionRenderer
	NewMap      MapFactory
}
