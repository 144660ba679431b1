package canvas

import (
	"testing"

	"github.com/milk9111/patchbay/catalog"
	"github.com/milk9111/patchbay/graph"
)

type paramEvent struct {
	node, param string
	value       graph.Value
}

type recorder struct {
	moved      map[string]int
	selections [][]string
	created    []*graph.Connection
	removed    []string
	params     []paramEvent
	modes      []graph.InputMode
}

func newRecorder() (*recorder, *Events) {
	r := &recorder{moved: make(map[string]int)}
	ev := &Events{
		NodeMoved:        func(id string, x, y float64) { r.moved[id]++ },
		SelectionChanged: func(ids []string, multi bool) { r.selections = append(r.selections, ids) },
		ConnectionCreated: func(c *graph.Connection) {
			r.created = append(r.created, c)
		},
		ConnectionRemoved: func(id string) { r.removed = append(r.removed, id) },
		ParameterChanged: func(nodeID, param string, v graph.Value) <-chan struct{} {
			r.params = append(r.params, paramEvent{node: nodeID, param: param, value: v})
			return nil
		},
		ParameterInputModeChanged: func(nodeID, param string, mode graph.InputMode) {
			r.modes = append(r.modes, mode)
		},
	}
	return r, ev
}

func dotSpec() *catalog.NodeSpec {
	return &catalog.NodeSpec{
		Key:     "dot",
		Inputs:  []catalog.PortSpec{{Name: "in", Type: catalog.PortVec3}},
		Outputs: []catalog.PortSpec{{Name: "out", Type: catalog.PortVec3}},
	}
}

func moverSpec() *catalog.NodeSpec {
	return &catalog.NodeSpec{
		Key:     "mover",
		Outputs: []catalog.PortSpec{{Name: "out", Type: catalog.PortFloat}},
		Params: map[string]*catalog.ParamSpec{
			"speed": {Type: catalog.ParamFloat, Min: 0, Max: 10, Step: 0.5, Default: 1},
			"mute":  {Type: catalog.ParamInt, Min: 0, Max: 1},
		},
		ParamOrder: []string{"speed", "mute"},
	}
}

func newInteraction(t *testing.T) (*Interaction, *graph.Graph, *catalog.Catalog, *Metrics, *recorder) {
	t.Helper()
	cat := catalog.NewCatalog(map[string]*catalog.NodeSpec{
		"dot":   dotSpec(),
		"mover": moverSpec(),
	})
	mc := NewMetrics(DefaultStyle(), testMeasure)
	tester := NewHitTester(DefaultStyle(), mc)
	r, ev := newRecorder()
	in := NewInteraction(DefaultStyle(), mc, tester, ev, NewRenderState())
	g := graph.New()
	in.Bind(g, cat, NewTransform())
	return in, g, cat, mc, r
}

// bodyPoint picks a point inside a dot node's body, clear of ports, badges
// and the header.
func bodyPoint(t *testing.T, mc *Metrics, cat *catalog.Catalog, n *graph.Node) Point {
	t.Helper()
	m, ok := mc.For(n, mustSpec(t, cat, n.Type), cat.Revision())
	if !ok {
		t.Fatalf("no metrics for %s", n.ID)
	}
	return Point{X: m.Body.X + m.Width/2, Y: m.Body.Y + m.HeaderH + 11}
}

func TestClickSelectsNode(t *testing.T) {
	in, g, cat, mc, r := newInteraction(t)
	n := g.AddNode(graph.NewNode("dot", 100, 100))
	p := bodyPoint(t, mc, cat, n)

	in.PointerDown(p, ButtonPrimary, Modifiers{})
	in.PointerUp(p, Modifiers{})

	if !g.IsSelected(n.ID) {
		t.Fatalf("expected node selected after click")
	}
	if len(r.selections) == 0 {
		t.Fatalf("expected selection event")
	}
	if r.moved[n.ID] != 0 {
		t.Fatalf("expected no move events on a plain click")
	}
}

func TestDragBelowThresholdIsClick(t *testing.T) {
	in, g, cat, mc, r := newInteraction(t)
	n := g.AddNode(graph.NewNode("dot", 100, 100))
	p := bodyPoint(t, mc, cat, n)

	in.PointerDown(p, ButtonPrimary, Modifiers{})
	in.PointerMove(Point{X: p.X + 3, Y: p.Y}, Modifiers{})
	in.PointerUp(Point{X: p.X + 3, Y: p.Y}, Modifiers{})

	if n.X != 100 || n.Y != 100 {
		t.Fatalf("expected node unmoved below threshold, got (%v, %v)", n.X, n.Y)
	}
	if !g.IsSelected(n.ID) {
		t.Fatalf("expected sub-threshold release to select")
	}
	_ = r
}

func TestMultiSelectRigidDrag(t *testing.T) {
	in, g, cat, mc, r := newInteraction(t)
	a := g.AddNode(graph.NewNode("dot", 0, 0))
	b := g.AddNode(graph.NewNode("dot", 400, 300))
	g.SetSelection([]string{a.ID, b.ID})

	p := bodyPoint(t, mc, cat, a)
	in.PointerDown(p, ButtonPrimary, Modifiers{})
	in.PointerMove(Point{X: p.X + 30, Y: p.Y + 40}, Modifiers{})
	in.PointerUp(Point{X: p.X + 30, Y: p.Y + 40}, Modifiers{})

	if a.X != 30 || a.Y != 40 {
		t.Fatalf("expected a at (30, 40), got (%v, %v)", a.X, a.Y)
	}
	if b.X != 430 || b.Y != 340 {
		t.Fatalf("expected b moved rigidly to (430, 340), got (%v, %v)", b.X, b.Y)
	}
	if r.moved[a.ID] == 0 || r.moved[b.ID] == 0 {
		t.Fatalf("expected move events for both nodes")
	}
}

func TestParamDragClampsAndSnaps(t *testing.T) {
	in, g, cat, mc, r := newInteraction(t)
	n := g.AddNode(graph.NewNode("mover", 0, 0))
	m, _ := mc.For(n, mustSpec(t, cat, "mover"), cat.Revision())
	cm := m.ControlFor("speed")
	if cm == nil {
		t.Fatalf("expected speed control")
	}

	// +300px upward drag saturates at max, on the step grid
	in.PointerDown(cm.Knob, ButtonPrimary, Modifiers{})
	in.PointerMove(Point{X: cm.Knob.X, Y: cm.Knob.Y - 300}, Modifiers{})
	in.PointerUp(Point{X: cm.Knob.X, Y: cm.Knob.Y - 300}, Modifiers{})

	v, ok := n.Param("speed")
	if !ok {
		t.Fatalf("expected speed committed")
	}
	if v.Number != 10 {
		t.Fatalf("expected clamp to 10, got %v", v.Number)
	}
	if len(r.params) == 0 {
		t.Fatalf("expected live parameter events during drag")
	}
}

func TestParamDragSnapsToStep(t *testing.T) {
	in, g, cat, mc, _ := newInteraction(t)
	n := g.AddNode(graph.NewNode("mover", 0, 0))
	m, _ := mc.For(n, mustSpec(t, cat, "mover"), cat.Revision())
	cm := m.ControlFor("speed")

	// 10px at sensitivity 200 over range 10 = +0.5 from the default 1
	in.PointerDown(cm.Knob, ButtonPrimary, Modifiers{})
	in.PointerMove(Point{X: cm.Knob.X, Y: cm.Knob.Y - 10}, Modifiers{})
	in.PointerUp(Point{X: cm.Knob.X, Y: cm.Knob.Y - 10}, Modifiers{})

	v, _ := n.Param("speed")
	if v.Number != 1.5 {
		t.Fatalf("expected 1.5 on the step grid, got %v", v.Number)
	}
}

func TestParamDragFineModifier(t *testing.T) {
	in, g, cat, mc, _ := newInteraction(t)
	n := g.AddNode(graph.NewNode("mover", 0, 0))
	m, _ := mc.For(n, mustSpec(t, cat, "mover"), cat.Revision())
	cm := m.ControlFor("speed")

	// fine scales the same 100px delta down 10x: 5 -> 0.5
	in.PointerDown(cm.Knob, ButtonPrimary, Modifiers{})
	in.PointerMove(Point{X: cm.Knob.X, Y: cm.Knob.Y - 100}, Modifiers{Fine: true})
	in.PointerUp(Point{X: cm.Knob.X, Y: cm.Knob.Y - 100}, Modifiers{Fine: true})

	v, _ := n.Param("speed")
	if v.Number != 1.5 {
		t.Fatalf("expected 1.5 with fine modifier, got %v", v.Number)
	}
}

func TestToggleClickFlips(t *testing.T) {
	in, g, cat, mc, r := newInteraction(t)
	n := g.AddNode(graph.NewNode("mover", 0, 0))
	m, _ := mc.For(n, mustSpec(t, cat, "mover"), cat.Revision())
	cm := m.ControlFor("mute")
	if cm == nil || cm.Control.Archetype != ArchToggle {
		t.Fatalf("expected toggle control for mute")
	}

	p := cm.Value.Center()
	in.PointerDown(p, ButtonPrimary, Modifiers{})
	in.PointerUp(p, Modifiers{})

	v, _ := n.Param("mute")
	if v.Number != 1 {
		t.Fatalf("expected toggle on, got %v", v.Number)
	}

	in.PointerDown(p, ButtonPrimary, Modifiers{})
	in.PointerUp(p, Modifiers{})
	v, _ = n.Param("mute")
	if v.Number != 0 {
		t.Fatalf("expected toggle off, got %v", v.Number)
	}
	if len(r.params) != 2 {
		t.Fatalf("expected two parameter events, got %d", len(r.params))
	}
}

func TestConnectGesture(t *testing.T) {
	in, g, cat, mc, r := newInteraction(t)
	a := g.AddNode(graph.NewNode("dot", 0, 0))
	b := g.AddNode(graph.NewNode("dot", 400, 0))

	ma, _ := mc.For(a, mustSpec(t, cat, "dot"), cat.Revision())
	mb, _ := mc.For(b, mustSpec(t, cat, "dot"), cat.Revision())
	out, _ := ma.Port("out", true)
	inPort, _ := mb.Port("in", false)

	tester := NewHitTester(DefaultStyle(), mc)
	hit := tester.Test(out, g, cat, NewTransform())
	if hit.Kind != HitPort || !hit.Port.Output || hit.Port.Name != "out" || hit.NodeID != a.ID {
		t.Fatalf("expected output port hit on a, got %+v", hit)
	}

	in.PointerDown(out, ButtonPrimary, Modifiers{})
	in.PointerMove(inPort, Modifiers{})

	if _, to, snapped, ok := in.LiveWire(); !ok || !snapped || to != inPort {
		t.Fatalf("expected live wire snapped to target port")
	}

	in.PointerUp(inPort, Modifiers{})

	if len(g.Connections) != 1 {
		t.Fatalf("expected one connection, got %d", len(g.Connections))
	}
	c := g.Connections[0]
	if c.SourceNode != a.ID || c.SourcePort != "out" || c.TargetNode != b.ID || c.TargetPort != "in" {
		t.Fatalf("unexpected connection %+v", c)
	}
	if len(r.created) != 1 {
		t.Fatalf("expected one created event, got %d", len(r.created))
	}
}

func TestConnectReplacesOnDrop(t *testing.T) {
	in, g, cat, mc, r := newInteraction(t)
	a := g.AddNode(graph.NewNode("dot", 0, 0))
	b := g.AddNode(graph.NewNode("dot", 400, 0))
	c := g.AddNode(graph.NewNode("dot", 0, 300))

	old := graph.NewPortConnection(c.ID, "out", b.ID, "in")
	g.Connect(old)

	ma, _ := mc.For(a, mustSpec(t, cat, "dot"), cat.Revision())
	mb, _ := mc.For(b, mustSpec(t, cat, "dot"), cat.Revision())
	out, _ := ma.Port("out", true)
	inPort, _ := mb.Port("in", false)

	in.PointerDown(out, ButtonPrimary, Modifiers{})
	in.PointerMove(inPort, Modifiers{})
	in.PointerUp(inPort, Modifiers{})

	count := 0
	for _, conn := range g.Connections {
		if conn.TargetNode == b.ID && conn.TargetPort == "in" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one connection at the endpoint, got %d", count)
	}
	if len(r.removed) != 1 || r.removed[0] != old.ID {
		t.Fatalf("expected removal event for displaced connection, got %v", r.removed)
	}
}

func TestConnectionClickRemoves(t *testing.T) {
	in, g, cat, mc, r := newInteraction(t)
	a := g.AddNode(graph.NewNode("dot", 0, 0))
	b := g.AddNode(graph.NewNode("dot", 400, 0))
	c := graph.NewPortConnection(a.ID, "out", b.ID, "in")
	g.Connect(c)

	ma, _ := mc.For(a, mustSpec(t, cat, "dot"), cat.Revision())
	mb, _ := mc.For(b, mustSpec(t, cat, "dot"), cat.Revision())
	from, _ := ma.Port("out", true)
	to, _ := mb.Port("in", false)
	mid := WireCubic(from, to).At(0.5)

	in.PointerDown(mid, ButtonPrimary, Modifiers{})
	in.PointerUp(mid, Modifiers{})

	if len(g.Connections) != 0 {
		t.Fatalf("expected wire removed on click, got %d", len(g.Connections))
	}
	if len(r.removed) != 1 || r.removed[0] != c.ID {
		t.Fatalf("expected removal event, got %v", r.removed)
	}
}

func TestRubberBandSelects(t *testing.T) {
	in, g, cat, _, r := newInteraction(t)
	a := g.AddNode(graph.NewNode("dot", 0, 0))
	b := g.AddNode(graph.NewNode("dot", 400, 0))
	_ = cat

	in.PointerDown(Point{X: -200, Y: -200}, ButtonPrimary, Modifiers{})
	in.PointerMove(Point{X: 600, Y: 400}, Modifiers{})

	if band, ok := in.RubberBand(); !ok || band.W <= 0 {
		t.Fatalf("expected live rubber band, got %v %v", band, ok)
	}

	in.PointerUp(Point{X: 600, Y: 400}, Modifiers{})

	if !g.IsSelected(a.ID) || !g.IsSelected(b.ID) {
		t.Fatalf("expected both nodes selected by rubber band")
	}
	if len(r.selections) == 0 {
		t.Fatalf("expected selection event")
	}
}

func TestBackgroundClickClearsSelection(t *testing.T) {
	in, g, cat, mc, _ := newInteraction(t)
	n := g.AddNode(graph.NewNode("dot", 0, 0))
	g.Select(n.ID, false)
	_, _ = cat, mc

	in.PointerDown(Point{X: 900, Y: 900}, ButtonPrimary, Modifiers{})
	in.PointerUp(Point{X: 900, Y: 900}, Modifiers{})

	if g.IsSelected(n.ID) {
		t.Fatalf("expected background click to clear selection")
	}
}

func TestModeButtonCycles(t *testing.T) {
	in, g, cat, mc, r := newInteraction(t)
	src := g.AddNode(graph.NewNode("dot", -400, 0))
	n := g.AddNode(graph.NewNode("mover", 0, 0))
	g.Connect(graph.NewParamConnection(src.ID, "out", n.ID, "speed"))

	m, _ := mc.For(n, mustSpec(t, cat, "mover"), cat.Revision())
	cm := m.ControlFor("speed")
	if cm == nil || !cm.HasPort {
		t.Fatalf("expected speed control with param port")
	}

	in.PointerDown(cm.ModeButton, ButtonPrimary, Modifiers{})
	in.PointerUp(cm.ModeButton, Modifiers{})

	if n.Mode("speed") != graph.ModeAdd {
		t.Fatalf("expected mode cycled to add, got %v", n.Mode("speed"))
	}
	if len(r.modes) != 1 || r.modes[0] != graph.ModeAdd {
		t.Fatalf("expected mode event, got %v", r.modes)
	}
}

func TestDeleteButtonRemovesNode(t *testing.T) {
	in, g, cat, mc, r := newInteraction(t)
	a := g.AddNode(graph.NewNode("dot", 0, 0))
	b := g.AddNode(graph.NewNode("dot", 400, 0))
	g.Connect(graph.NewPortConnection(a.ID, "out", b.ID, "in"))
	g.Select(a.ID, false)

	m, _ := mc.For(a, mustSpec(t, cat, "dot"), cat.Revision())
	in.PointerDown(m.DeleteButton, ButtonPrimary, Modifiers{})
	in.PointerUp(m.DeleteButton, Modifiers{})

	if g.NodeByID(a.ID) != nil {
		t.Fatalf("expected node removed")
	}
	if len(g.Connections) != 0 {
		t.Fatalf("expected attached connection dropped")
	}
	if len(r.removed) != 1 {
		t.Fatalf("expected removal event for dropped connection, got %v", r.removed)
	}
}

func TestPanGesture(t *testing.T) {
	in, g, cat, _, _ := newInteraction(t)
	_, _ = g, cat
	tr := NewTransform()
	in.Bind(g, cat, tr)

	in.PointerDown(Point{X: 100, Y: 100}, ButtonMiddle, Modifiers{})
	in.PointerMove(Point{X: 140, Y: 130}, Modifiers{})
	in.PointerUp(Point{X: 140, Y: 130}, Modifiers{})

	if tr.PanX != 40 || tr.PanY != 30 {
		t.Fatalf("expected pan (40, 30), got (%v, %v)", tr.PanX, tr.PanY)
	}
}

func TestConnectOntoParamPortReplaces(t *testing.T) {
	in, g, cat, mc, r := newInteraction(t)
	src := g.AddNode(graph.NewNode("dot", -400, 0))
	alt := g.AddNode(graph.NewNode("dot", -400, 300))
	n := g.AddNode(graph.NewNode("mover", 0, 0))

	old := graph.NewParamConnection(src.ID, "out", n.ID, "speed")
	g.Connect(old)

	m, _ := mc.For(n, mustSpec(t, cat, "mover"), cat.Revision())
	cm := m.ControlFor("speed")
	if cm == nil || !cm.HasPort {
		t.Fatalf("expected speed control with param port")
	}
	ma, _ := mc.For(alt, mustSpec(t, cat, "dot"), cat.Revision())
	out, _ := ma.Port("out", true)

	in.PointerDown(out, ButtonPrimary, Modifiers{})
	in.PointerMove(cm.ParamPort, Modifiers{})
	in.PointerUp(cm.ParamPort, Modifiers{})

	var driving []*graph.Connection
	for _, c := range g.Connections {
		if c.TargetNode == n.ID && c.TargetParam == "speed" {
			driving = append(driving, c)
		}
	}
	if len(driving) != 1 {
		t.Fatalf("expected exactly one connection driving the param, got %d", len(driving))
	}
	c := driving[0]
	if c.SourceNode != alt.ID || c.SourcePort != "out" || c.TargetPort != "" {
		t.Fatalf("expected param connection from alt.out, got %+v", c)
	}
	if len(r.removed) != 1 || r.removed[0] != old.ID {
		t.Fatalf("expected displaced connection removed, got %v", r.removed)
	}
}

func TestParamPortDragReattachesToOutput(t *testing.T) {
	in, g, cat, mc, r := newInteraction(t)
	src := g.AddNode(graph.NewNode("dot", -400, 0))
	alt := g.AddNode(graph.NewNode("dot", -400, 300))
	n := g.AddNode(graph.NewNode("mover", 0, 0))

	old := graph.NewParamConnection(src.ID, "out", n.ID, "speed")
	g.Connect(old)

	m, _ := mc.For(n, mustSpec(t, cat, "mover"), cat.Revision())
	cm := m.ControlFor("speed")
	if cm == nil || !cm.HasPort {
		t.Fatalf("expected speed control with param port")
	}
	ma, _ := mc.For(alt, mustSpec(t, cat, "dot"), cat.Revision())
	out, _ := ma.Port("out", true)

	// grab the wire at its param endpoint and drop it on another output
	in.PointerDown(cm.ParamPort, ButtonPrimary, Modifiers{})
	in.PointerMove(out, Modifiers{})
	in.PointerUp(out, Modifiers{})

	var driving []*graph.Connection
	for _, c := range g.Connections {
		if c.TargetNode == n.ID && c.TargetParam == "speed" {
			driving = append(driving, c)
		}
	}
	if len(driving) != 1 {
		t.Fatalf("expected exactly one connection driving the param, got %d", len(driving))
	}
	if c := driving[0]; c.SourceNode != alt.ID || c.SourcePort != "out" {
		t.Fatalf("expected param wire rehomed to alt.out, got %+v", c)
	}
	if len(r.removed) != 1 || r.removed[0] != old.ID {
		t.Fatalf("expected old connection displaced, got %v", r.removed)
	}
}

func TestModeButtonCyclesFromSpecDefault(t *testing.T) {
	spec := &catalog.NodeSpec{
		Key:     "gainer",
		Outputs: []catalog.PortSpec{{Name: "out", Type: catalog.PortFloat}},
		Params: map[string]*catalog.ParamSpec{
			"gain": {Type: catalog.ParamFloat, Min: 0, Max: 1, InputMode: "add"},
		},
		ParamOrder: []string{"gain"},
	}
	cat := catalog.NewCatalog(map[string]*catalog.NodeSpec{"gainer": spec, "dot": dotSpec()})
	mc := NewMetrics(DefaultStyle(), testMeasure)
	tester := NewHitTester(DefaultStyle(), mc)
	r, ev := newRecorder()
	in := NewInteraction(DefaultStyle(), mc, tester, ev, NewRenderState())
	g := graph.New()
	in.Bind(g, cat, NewTransform())

	src := g.AddNode(graph.NewNode("dot", -400, 0))
	n := g.AddNode(graph.NewNode("gainer", 0, 0))
	g.Connect(graph.NewParamConnection(src.ID, "out", n.ID, "gain"))

	m, _ := mc.For(n, spec, cat.Revision())
	cm := m.ControlFor("gain")
	if cm == nil || !cm.HasPort {
		t.Fatalf("expected gain control with param port")
	}
	if got := inputMode(n, spec, "gain"); got != graph.ModeAdd {
		t.Fatalf("expected declared default add, got %v", got)
	}

	in.PointerDown(cm.ModeButton, ButtonPrimary, Modifiers{})
	in.PointerUp(cm.ModeButton, Modifiers{})

	if got := n.Mode("gain"); got != graph.ModeSubtract {
		t.Fatalf("expected cycle from add to subtract, got %v", got)
	}
	if len(r.modes) != 1 || r.modes[0] != graph.ModeSubtract {
		t.Fatalf("expected mode event, got %v", r.modes)
	}
}
