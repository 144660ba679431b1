package canvas

import (
	"math"

	"github.com/milk9111/patchbay/catalog"
	"github.com/milk9111/patchbay/graph"
)

// HitKind tags what a pointer landed on.
type HitKind int

const (
	HitNone HitKind = iota
	HitDelete
	HitTypeBadge
	HitModeButton
	HitRangeHandle
	HitRangeBox
	HitControl
	HitPort
	HitLabel
	HitHeader
	HitBody
	HitConnection
	HitCurvePoint
)

// Hit is the result of a pointer test. At most one element wins,
// resolved in fixed priority order per node, nodes topmost first.
type Hit struct {
	Kind   HitKind
	NodeID string

	// control hits
	Param   string
	Control *ControlMetrics
	Handle  int // 0 = min/first point, 1 = max/second point

	// port hits
	Port     PortKey
	PortType catalog.PortType

	ConnectionID string

	Canvas Point
}

func (h Hit) None() bool { return h.Kind == HitNone }

// HitTester resolves pointer tests against the laid-out graph.
type HitTester struct {
	style   StyleResolver
	metrics *Metrics
}

func NewHitTester(style StyleResolver, metrics *Metrics) *HitTester {
	if style == nil {
		style = DefaultStyle()
	}
	return &HitTester{style: style, metrics: metrics}
}

// Test resolves the screen point against the graph. Nodes are checked in
// reverse draw order so the topmost node wins; a point inside any part
// of a node occludes everything beneath it. Connections are checked last
// with a zoom-normalized tolerance. A miss returns HitNone, never an
// error.
func (h *HitTester) Test(screen Point, g *graph.Graph, cat *catalog.Catalog, tr *Transform) Hit {
	pt := tr.ScreenToCanvas(screen)
	zoom := tr.Zoom
	if zoom <= 0 {
		zoom = 1
	}

	for i := len(g.Nodes) - 1; i >= 0; i-- {
		n := g.Nodes[i]
		spec, ok := cat.Spec(n.Type)
		if !ok {
			continue // missing spec: node neither draws nor interacts
		}
		m, ok := h.metrics.For(n, spec, cat.Revision())
		if !ok {
			continue
		}
		if hit := h.testNode(pt, n, spec, m, g); !hit.None() {
			hit.Canvas = pt
			return hit
		}
	}

	if hit := h.testConnections(pt, g, cat, zoom); !hit.None() {
		hit.Canvas = pt
		return hit
	}
	return Hit{Kind: HitNone, Canvas: pt}
}

func (h *HitTester) testNode(pt Point, n *graph.Node, spec *catalog.NodeSpec, m *NodeMetrics, g *graph.Graph) Hit {
	// 1. delete button, selected nodes only
	if g.IsSelected(n.ID) && pt.Dist(m.DeleteButton) <= m.DeleteR {
		return Hit{Kind: HitDelete, NodeID: n.ID}
	}

	// 2. port type badges
	for key, r := range m.Badges {
		if r.Contains(pt) {
			return Hit{Kind: HitTypeBadge, NodeID: n.ID, Port: key, PortType: portType(spec, key)}
		}
	}

	// 3. mode-toggle buttons, only where a connection drives the param
	for ci := range m.Controls {
		cm := &m.Controls[ci]
		if !cm.HasPort {
			continue
		}
		for _, name := range cm.Control.Params {
			if g.ConnectionAt(n.ID, "", name) == nil {
				continue
			}
			if pt.Dist(cm.ModeButton) <= cm.ModeR {
				return Hit{Kind: HitModeButton, NodeID: n.ID, Param: name, Control: cm}
			}
		}
	}

	// 4. specialized control regions: range handles and their text boxes
	for ci := range m.Controls {
		cm := &m.Controls[ci]
		switch cm.Control.Archetype {
		case ArchRangePair, ArchFreqBand:
			lo, hi := rangeValues(n, spec, cm.Control)
			if cm.HandleRect(hi).Contains(pt) {
				return Hit{Kind: HitRangeHandle, NodeID: n.ID, Param: cm.Control.Params[1], Control: cm, Handle: 1}
			}
			if cm.HandleRect(lo).Contains(pt) {
				return Hit{Kind: HitRangeHandle, NodeID: n.ID, Param: cm.Control.Params[0], Control: cm, Handle: 0}
			}
			if cm.BoxMin.Contains(pt) {
				return Hit{Kind: HitRangeBox, NodeID: n.ID, Param: cm.Control.Params[0], Control: cm, Handle: 0}
			}
			if cm.BoxMax.Contains(pt) {
				return Hit{Kind: HitRangeBox, NodeID: n.ID, Param: cm.Control.Params[1], Control: cm, Handle: 1}
			}
		case ArchCurve:
			// control point discs win over the editor surface
			if cm.Editor.Contains(pt) {
				x1, y1 := curveParam(n, spec, cm.Control.Params[0]), curveParam(n, spec, cm.Control.Params[1])
				x2, y2 := curveParam(n, spec, cm.Control.Params[2]), curveParam(n, spec, cm.Control.Params[3])
				const grabR = 9
				if pt.Dist(cm.CurvePoint(x2, y2)) <= grabR {
					return Hit{Kind: HitCurvePoint, NodeID: n.ID, Param: cm.Control.Params[2], Control: cm, Handle: 1}
				}
				if pt.Dist(cm.CurvePoint(x1, y1)) <= grabR {
					return Hit{Kind: HitCurvePoint, NodeID: n.ID, Param: cm.Control.Params[0], Control: cm, Handle: 0}
				}
				return Hit{Kind: HitControl, NodeID: n.ID, Param: cm.Control.Params[0], Control: cm}
			}
		}
	}

	// 5. generic parameter controls
	for ci := range m.Controls {
		cm := &m.Controls[ci]
		switch cm.Control.Archetype {
		case ArchKnob:
			// disc over-scaled 1.2x so the visible rim is grabbable
			if pt.Dist(cm.Knob) <= cm.KnobR*1.2 {
				return Hit{Kind: HitControl, NodeID: n.ID, Param: cm.Control.Params[0], Control: cm}
			}
			if cm.Value.Contains(pt) {
				return Hit{Kind: HitControl, NodeID: n.ID, Param: cm.Control.Params[0], Control: cm}
			}
		case ArchToggle, ArchEnum, ArchVec2, ArchVec3, ArchColor:
			if cm.Value.Contains(pt) {
				return Hit{Kind: HitControl, NodeID: n.ID, Param: cm.Control.Params[0], Control: cm}
			}
		case ArchText, ArchList:
			// whole cell for string/array parameters
			if cm.Box.Contains(pt) {
				return Hit{Kind: HitControl, NodeID: n.ID, Param: cm.Control.Params[0], Control: cm}
			}
		}
	}

	// 6. ports, radius plus a fixed grab margin
	margin := h.style.Metric("port.hit_margin", 4)
	for key, center := range m.Ports {
		if pt.Dist(center) <= m.PortR+margin {
			return Hit{Kind: HitPort, NodeID: n.ID, Port: key, PortType: portType(spec, key)}
		}
	}
	for ci := range m.Controls {
		cm := &m.Controls[ci]
		if cm.HasPort && g.ConnectionAt(n.ID, "", cm.Control.Params[0]) != nil &&
			pt.Dist(cm.ParamPort) <= m.PortR+margin {
			return Hit{Kind: HitPort, NodeID: n.ID, Port: PortKey{Name: cm.Control.Params[0]}, Param: cm.Control.Params[0]}
		}
	}

	// 7. header label, 8. header strip / body
	if m.LabelBounds.Contains(pt) {
		return Hit{Kind: HitLabel, NodeID: n.ID}
	}
	if m.Header.Contains(pt) {
		return Hit{Kind: HitHeader, NodeID: n.ID}
	}
	if m.Body.Contains(pt) {
		return Hit{Kind: HitBody, NodeID: n.ID}
	}
	return Hit{Kind: HitNone}
}

func (h *HitTester) testConnections(pt Point, g *graph.Graph, cat *catalog.Catalog, zoom float64) Hit {
	tol := h.style.Metric("wire.hit_px", 6) / zoom
	for i := len(g.Connections) - 1; i >= 0; i-- {
		c := g.Connections[i]
		from, to, ok := h.wireEndpoints(c, g, cat)
		if !ok {
			continue // dangling: skip, never prune
		}
		if WireCubic(from, to).DistTo(pt) <= tol {
			return Hit{Kind: HitConnection, ConnectionID: c.ID}
		}
	}
	return Hit{Kind: HitNone}
}

// wireEndpoints resolves the canvas anchors of a connection, reporting
// false when either end dangles.
func (h *HitTester) wireEndpoints(c *graph.Connection, g *graph.Graph, cat *catalog.Catalog) (from, to Point, ok bool) {
	src := g.NodeByID(c.SourceNode)
	dst := g.NodeByID(c.TargetNode)
	if src == nil || dst == nil {
		return Point{}, Point{}, false
	}
	srcSpec, okSrc := cat.Spec(src.Type)
	dstSpec, okDst := cat.Spec(dst.Type)
	if !okSrc || !okDst {
		return Point{}, Point{}, false
	}
	sm, okS := h.metrics.For(src, srcSpec, cat.Revision())
	dm, okD := h.metrics.For(dst, dstSpec, cat.Revision())
	if !okS || !okD {
		return Point{}, Point{}, false
	}
	from, ok = sm.Port(c.SourcePort, true)
	if !ok {
		return Point{}, Point{}, false
	}
	if c.IsParam() {
		cm := dm.ControlFor(c.TargetParam)
		if cm == nil || !cm.HasPort {
			return Point{}, Point{}, false
		}
		return from, cm.ParamPort, true
	}
	to, ok = dm.Port(c.TargetPort, false)
	return from, to, ok
}

func portType(spec *catalog.NodeSpec, key PortKey) catalog.PortType {
	if key.Output {
		if ps, ok := spec.Output(key.Name); ok {
			return ps.Type
		}
		return ""
	}
	if ps, ok := spec.Input(key.Name); ok {
		return ps.Type
	}
	return ""
}

// rangeValues returns the two member values of a range control,
// normalized to [0,1] against their declared bounds. Frequency bands
// normalize on a log scale so octaves occupy equal track width.
func rangeValues(n *graph.Node, spec *catalog.NodeSpec, ctrl Control) (lo, hi float64) {
	lo = normalizedParam(n, spec, ctrl.Archetype, ctrl.Params[0])
	hi = normalizedParam(n, spec, ctrl.Archetype, ctrl.Params[1])
	return lo, hi
}

func normalizedParam(n *graph.Node, spec *catalog.NodeSpec, arch Archetype, name string) float64 {
	ps := spec.Params[name]
	if ps == nil || ps.Max <= ps.Min {
		return 0
	}
	return normValue(ps, arch, paramValue(n, ps, name))
}

// logScaled reports whether the archetype maps values logarithmically.
// Bounds that cross or touch zero fall back to the linear scale.
func logScaled(ps *catalog.ParamSpec, arch Archetype) bool {
	return arch == ArchFreqBand && ps.Min > 0 && ps.Max > ps.Min
}

// normValue maps a parameter value into [0,1] on the archetype's scale.
func normValue(ps *catalog.ParamSpec, arch Archetype, v float64) float64 {
	if ps.Max <= ps.Min {
		return 0
	}
	if logScaled(ps, arch) {
		if v < ps.Min {
			v = ps.Min
		}
		return clamp(math.Log(v/ps.Min)/math.Log(ps.Max/ps.Min), 0, 1)
	}
	return clamp((v-ps.Min)/(ps.Max-ps.Min), 0, 1)
}

// denormValue is the inverse of normValue.
func denormValue(ps *catalog.ParamSpec, arch Archetype, t float64) float64 {
	t = clamp(t, 0, 1)
	if logScaled(ps, arch) {
		return ps.Min * math.Pow(ps.Max/ps.Min, t)
	}
	return ps.Min + t*(ps.Max-ps.Min)
}

func curveParam(n *graph.Node, spec *catalog.NodeSpec, name string) float64 {
	ps := spec.Params[name]
	if ps == nil {
		return 0
	}
	return clamp(paramValue(n, ps, name), 0, 1)
}

// paramValue is the effective numeric value of a parameter: the stored
// override when present, else the spec default.
func paramValue(n *graph.Node, ps *catalog.ParamSpec, name string) float64 {
	if v, ok := n.Params[name]; ok && v.Kind == graph.ValueNumber {
		return v.Number
	}
	return ps.Default
}
