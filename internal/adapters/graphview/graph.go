package graphview

import (
	"math"
)

// Graph is an ordered node attribute store.
type Graph struct {
	order    []string
	attrs    map[string]map[string]any
	onChange func()
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{attrs: make(map[string]map[string]any)}
}

// AddNode inserts or replaces a node. The attribute map is copied.
func (g *Graph) AddNode(id string, attrs map[string]any) {
	if _, ok := g.attrs[id]; !ok {
		g.order = append(g.order, id)
	}
	g.attrs[id] = copyAttrs(attrs)
	g.changed()
}

// DropNode removes a node.
func (g *Graph) DropNode(id string) {
	if _, ok := g.attrs[id]; !ok {
		return
	}
	delete(g.attrs, id)
	for i, n := range g.order {
		if n == id {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
	g.changed()
}

// Order returns the number of nodes.
func (g *Graph) Order() int { return len(g.order) }

// Nodes returns node ids in insertion order.
func (g *Graph) Nodes() []string {
	return append([]string(nil), g.order...)
}

// NodeAttributes returns a copy of a node's attributes.
func (g *Graph) NodeAttributes(id string) (map[string]any, bool) {
	a, ok := g.attrs[id]
	if !ok {
		return nil, false
	}
	return copyAttrs(a), true
}

// Position returns a node's x/y attributes.
func (g *Graph) Position(id string) (x, y float64, ok bool) {
	a, found := g.attrs[id]
	if !found {
		return 0, 0, false
	}
	x, okX := a["x"].(float64)
	y, okY := a["y"].(float64)
	return x, y, okX && okY
}

// UpdateEachNodeAttributes replaces every node's attributes with fn's result.
func (g *Graph) UpdateEachNodeAttributes(fn func(id string, attrs map[string]any) map[string]any) {
	for _, id := range g.order {
		next := fn(id, g.attrs[id])
		if next == nil {
			next = make(map[string]any)
		}
		g.attrs[id] = next
	}
	g.changed()
}

// extent returns the center and largest side of the box holding every
// positioned node. An empty or flat graph has side 1.
func (g *Graph) extent() (cx, cy, side float64) {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, id := range g.order {
		x, y, ok := g.Position(id)
		if !ok || math.IsNaN(x) || math.IsNaN(y) {
			continue
		}
		minX, maxX = math.Min(minX, x), math.Max(maxX, x)
		minY, maxY = math.Min(minY, y), math.Max(maxY, y)
	}
	if math.IsInf(minX, 1) {
		return 0, 0, 1
	}
	side = math.Max(maxX-minX, maxY-minY)
	if side == 0 {
		side = 1
	}
	return (minX + maxX) / 2, (minY + maxY) / 2, side
}

func (g *Graph) changed() {
	if g.onChange != nil {
		g.onChange()
	}
}

func copyAttrs(a map[string]any) map[string]any {
	out := make(map[string]any, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}
