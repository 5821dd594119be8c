// Package headless wires the in-process map, graph renderer and event loop
// into the engines a viewport session runs on.
package headless

import (
	"github.com/samirrijal/topomap/internal/adapters/eventloop"
	"github.com/samirrijal/topomap/internal/adapters/graphview"
	"github.com/samirrijal/topomap/internal/adapters/mapview"
	"github.com/samirrijal/topomap/internal/core/ports"
)

// Engines returns session engines backed by eventloop, graphview and mapview.
func Engines() ports.SessionEngines {
	return ports.SessionEngines{
		NewLoop:     newLoop,
		NewRenderer: newRenderer,
		NewMap:      mapview.Factory,
	}
}

func newLoop() ports.EventLoop {
	return eventloop.New()
}

func newRenderer(nodes []ports.RendererNode, width, height float64, s ports.Scheduler) ports.SessionRenderer {
	g := graphview.NewGraph()
	for _, n := range nodes {
		g.AddNode(n.ID, n.Attributes)
	}
	return graphview.New(g, width, height, s)
}
