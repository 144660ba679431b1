// Package arrange computes a tidy layout for a patch by relaxing a
// small physics simulation: one rigid body per node, a damped spring
// per connection, and circle shapes so overlapping nodes shove each
// other apart. Positions are written back into the graph; the caller
// emits move events and dirty marks the same way a drag would.
package arrange

import (
	"math"

	"github.com/jakecoffman/cp"

	"github.com/milk9111/patchbay/graph"
)

// Options tunes the relaxation. Zero values take the defaults.
type Options struct {
	Iterations int     // simulation steps, default 180
	RestLength float64 // preferred wire length, default 260
	Stiffness  float64 // spring stiffness, default 25
	Damping    float64 // spring damping, default 12
}

func (o Options) withDefaults() Options {
	if o.Iterations <= 0 {
		o.Iterations = 180
	}
	if o.RestLength <= 0 {
		o.RestLength = 260
	}
	if o.Stiffness <= 0 {
		o.Stiffness = 25
	}
	if o.Damping <= 0 {
		o.Damping = 12
	}
	return o
}

// SizeFunc reports a node's current width and height. Nodes the caller
// cannot size (missing spec) are skipped.
type SizeFunc func(id string) (w, h float64, ok bool)

// Tidy relaxes the layout and writes the settled positions back.
// Returns the ids of nodes that actually moved.
func Tidy(g *graph.Graph, size SizeFunc, opts Options) []string {
	opts = opts.withDefaults()

	space := cp.NewSpace()
	space.SetGravity(cp.Vector{})
	space.SetDamping(0.3)

	type slot struct {
		body *cp.Body
		w, h float64
	}
	bodies := make(map[string]slot, len(g.Nodes))

	for _, n := range g.Nodes {
		w, h, ok := size(n.ID)
		if !ok || w <= 0 || h <= 0 {
			continue
		}
		body := cp.NewBody(1, cp.INFINITY)
		body.SetPosition(cp.Vector{X: n.X + w/2, Y: n.Y + h/2})
		// circle around the body keeps unconnected nodes from stacking
		radius := math.Hypot(w, h) / 2
		shape := cp.NewCircle(body, radius, cp.Vector{})
		shape.SetElasticity(0)
		shape.SetFriction(0)
		space.AddBody(body)
		space.AddShape(shape)
		bodies[n.ID] = slot{body: body, w: w, h: h}
	}

	for _, c := range g.Connections {
		src, okSrc := bodies[c.SourceNode]
		dst, okDst := bodies[c.TargetNode]
		if !okSrc || !okDst || src.body == dst.body {
			continue
		}
		spring := cp.NewDampedSpring(src.body, dst.body, cp.Vector{}, cp.Vector{},
			opts.RestLength, opts.Stiffness, opts.Damping)
		space.AddConstraint(spring)
	}

	for i := 0; i < opts.Iterations; i++ {
		space.Step(1.0 / 60.0)
	}

	var moved []string
	for id, s := range bodies {
		pos := s.body.Position()
		x := pos.X - s.w/2
		y := pos.Y - s.h/2
		n := g.NodeByID(id)
		if n == nil {
			continue
		}
		if math.Abs(n.X-x) < 0.5 && math.Abs(n.Y-y) < 0.5 {
			continue
		}
		g.MoveNode(id, x, y)
		moved = append(moved, id)
	}
	return moved
}
