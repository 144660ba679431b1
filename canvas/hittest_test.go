package canvas

import (
	"math"
	"testing"

	"github.com/milk9111/patchbay/catalog"
	"github.com/milk9111/patchbay/graph"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	return catalog.NewCatalog(map[string]*catalog.NodeSpec{"osc": oscSpec()})
}

func mustSpec(t *testing.T, cat *catalog.Catalog, key string) *catalog.NodeSpec {
	t.Helper()
	spec, ok := cat.Spec(key)
	if !ok {
		t.Fatalf("missing spec %s", key)
	}
	return spec
}

func newTester() (*HitTester, *Metrics) {
	mc := NewMetrics(DefaultStyle(), testMeasure)
	return NewHitTester(DefaultStyle(), mc), mc
}

func TestHitDeleteBeatsEverything(t *testing.T) {
	cat := testCatalog(t)
	h, mc := newTester()
	g := graph.New()

	top := g.AddNode(graph.NewNode("osc", 100, 100))
	g.Select(top.ID, false)
	m, _ := mc.For(top, mustSpec(t, cat, "osc"), cat.Revision())

	// bury another node's port directly under the delete button
	under := graph.NewNode("osc", m.DeleteButton.X, m.DeleteButton.Y)
	g.Nodes = append([]*graph.Node{under}, g.Nodes...)

	hit := h.Test(m.DeleteButton, g, cat, NewTransform())
	if hit.Kind != HitDelete {
		t.Fatalf("expected delete hit, got %v", hit.Kind)
	}
	if hit.NodeID != top.ID {
		t.Fatalf("expected hit on topmost node, got %s", hit.NodeID)
	}
}

func TestHitDeleteRequiresSelection(t *testing.T) {
	cat := testCatalog(t)
	h, mc := newTester()
	g := graph.New()

	n := g.AddNode(graph.NewNode("osc", 100, 100))
	m, _ := mc.For(n, mustSpec(t, cat, "osc"), cat.Revision())

	hit := h.Test(m.DeleteButton, g, cat, NewTransform())
	if hit.Kind == HitDelete {
		t.Fatalf("expected no delete hit on unselected node")
	}
}

func TestHitPortWithMargin(t *testing.T) {
	cat := testCatalog(t)
	h, mc := newTester()
	g := graph.New()

	n := g.AddNode(graph.NewNode("osc", 0, 0))
	m, _ := mc.For(n, mustSpec(t, cat, "osc"), cat.Revision())
	out, _ := m.Port("out", true)

	// just inside radius + margin
	pt := Point{X: out.X + m.PortR + 3, Y: out.Y}
	hit := h.Test(pt, g, cat, NewTransform())
	if hit.Kind != HitPort {
		t.Fatalf("expected port hit, got %v", hit.Kind)
	}
	if !hit.Port.Output || hit.Port.Name != "out" {
		t.Fatalf("expected output port out, got %+v", hit.Port)
	}
	if hit.PortType != catalog.PortFloat {
		t.Fatalf("expected float port type, got %q", hit.PortType)
	}

	// well outside the margin
	pt = Point{X: out.X + m.PortR + 20, Y: out.Y}
	if hit := h.Test(pt, g, cat, NewTransform()); hit.Kind == HitPort {
		t.Fatalf("expected miss outside port margin")
	}
}

func TestHitKnobOverScaled(t *testing.T) {
	cat := testCatalog(t)
	h, mc := newTester()
	g := graph.New()

	n := g.AddNode(graph.NewNode("osc", 0, 0))
	m, _ := mc.For(n, mustSpec(t, cat, "osc"), cat.Revision())
	cm := m.ControlFor("freq")
	if cm == nil {
		t.Fatalf("expected freq control")
	}

	pt := Point{X: cm.Knob.X + cm.KnobR*1.1, Y: cm.Knob.Y}
	hit := h.Test(pt, g, cat, NewTransform())
	if hit.Kind != HitControl || hit.Param != "freq" {
		t.Fatalf("expected freq control hit just outside visible rim, got %v %q", hit.Kind, hit.Param)
	}
}

func TestHitHeaderAndLabel(t *testing.T) {
	cat := testCatalog(t)
	h, mc := newTester()
	g := graph.New()

	n := g.AddNode(graph.NewNode("osc", 0, 0))
	m, _ := mc.For(n, mustSpec(t, cat, "osc"), cat.Revision())

	hit := h.Test(m.LabelBounds.Center(), g, cat, NewTransform())
	if hit.Kind != HitLabel {
		t.Fatalf("expected label hit, got %v", hit.Kind)
	}

	// header strip right of the label
	pt := Point{X: m.Body.X + m.Width - 30, Y: m.Body.Y + m.HeaderH/2}
	hit = h.Test(pt, g, cat, NewTransform())
	if hit.Kind != HitHeader && hit.Kind != HitDelete {
		t.Fatalf("expected header hit, got %v", hit.Kind)
	}
}

func TestHitTopmostOccludes(t *testing.T) {
	cat := testCatalog(t)
	h, _ := newTester()
	g := graph.New()

	bottom := g.AddNode(graph.NewNode("osc", 0, 0))
	top := g.AddNode(graph.NewNode("osc", 20, 20))

	// inside both bodies
	hit := h.Test(Point{X: 60, Y: 60}, g, cat, NewTransform())
	if hit.NodeID != top.ID {
		t.Fatalf("expected topmost node %s, got %s", top.ID, hit.NodeID)
	}
	_ = bottom
}

func TestHitConnectionWire(t *testing.T) {
	cat := testCatalog(t)
	h, mc := newTester()
	g := graph.New()

	a := g.AddNode(graph.NewNode("osc", 0, 0))
	b := g.AddNode(graph.NewNode("osc", 400, 0))
	g.Connect(graph.NewPortConnection(a.ID, "out", b.ID, "sync"))

	ma, _ := mc.For(a, mustSpec(t, cat, "osc"), cat.Revision())
	mb, _ := mc.For(b, mustSpec(t, cat, "osc"), cat.Revision())
	from, _ := ma.Port("out", true)
	to, _ := mb.Port("sync", false)
	mid := WireCubic(from, to).At(0.5)

	hit := h.Test(mid, g, cat, NewTransform())
	if hit.Kind != HitConnection {
		t.Fatalf("expected connection hit at wire midpoint, got %v", hit.Kind)
	}

	// far from the wire
	if hit := h.Test(Point{X: mid.X, Y: mid.Y + 300}, g, cat, NewTransform()); hit.Kind == HitConnection {
		t.Fatalf("expected miss far from wire")
	}
}

func TestHitDanglingConnectionSkipped(t *testing.T) {
	cat := testCatalog(t)
	h, mc := newTester()
	g := graph.New()

	a := g.AddNode(graph.NewNode("osc", 0, 0))
	b := g.AddNode(graph.NewNode("osc", 400, 0))
	g.Connect(graph.NewPortConnection(a.ID, "out", b.ID, "sync"))

	ma, _ := mc.For(a, mustSpec(t, cat, "osc"), cat.Revision())
	mb, _ := mc.For(b, mustSpec(t, cat, "osc"), cat.Revision())
	from, _ := ma.Port("out", true)
	to, _ := mb.Port("sync", false)
	mid := WireCubic(from, to).At(0.5)

	// removing the target leaves the connection dangling
	g.RemoveNode(b.ID)
	g.Connections = append(g.Connections, graph.NewPortConnection(a.ID, "out", "gone", "sync"))

	hit := h.Test(mid, g, cat, NewTransform())
	if hit.Kind == HitConnection {
		t.Fatalf("expected dangling connection to be skipped")
	}
}

func TestHitModeButtonNeedsConnection(t *testing.T) {
	cat := testCatalog(t)
	h, mc := newTester()
	g := graph.New()

	src := g.AddNode(graph.NewNode("osc", -400, 0))
	n := g.AddNode(graph.NewNode("osc", 0, 0))
	m, _ := mc.For(n, mustSpec(t, cat, "osc"), cat.Revision())
	cm := m.ControlFor("freq")
	if cm == nil || !cm.HasPort {
		t.Fatalf("expected freq control with param port")
	}

	hit := h.Test(cm.ModeButton, g, cat, NewTransform())
	if hit.Kind == HitModeButton {
		t.Fatalf("expected no mode button without a param connection")
	}

	g.Connect(graph.NewParamConnection(src.ID, "out", n.ID, "freq"))
	hit = h.Test(cm.ModeButton, g, cat, NewTransform())
	if hit.Kind != HitModeButton || hit.Param != "freq" {
		t.Fatalf("expected mode button hit for freq, got %v %q", hit.Kind, hit.Param)
	}
}

func TestHitMissingSpecSkipsNode(t *testing.T) {
	cat := testCatalog(t)
	h, _ := newTester()
	g := graph.New()

	g.AddNode(graph.NewNode("mystery", 0, 0))
	hit := h.Test(Point{X: 10, Y: 10}, g, cat, NewTransform())
	if !hit.None() {
		t.Fatalf("expected no hit on node with unknown type, got %v", hit.Kind)
	}
}

func TestHitZoomNormalizedWireTolerance(t *testing.T) {
	cat := testCatalog(t)
	h, mc := newTester()
	g := graph.New()

	a := g.AddNode(graph.NewNode("osc", 0, 0))
	b := g.AddNode(graph.NewNode("osc", 400, 300))
	g.Connect(graph.NewPortConnection(a.ID, "out", b.ID, "sync"))

	ma, _ := mc.For(a, mustSpec(t, cat, "osc"), cat.Revision())
	mb, _ := mc.For(b, mustSpec(t, cat, "osc"), cat.Revision())
	from, _ := ma.Port("out", true)
	to, _ := mb.Port("sync", false)
	mid := WireCubic(from, to).At(0.5)

	// 4 canvas units off the wire: inside tolerance at zoom 1 (6/1),
	// outside at zoom 2 (6/2 = 3)
	pt := Point{X: mid.X, Y: mid.Y + 4}

	tr := NewTransform()
	if hit := h.Test(pt, g, cat, tr); hit.Kind != HitConnection {
		t.Fatalf("expected wire hit at zoom 1")
	}

	tr2 := NewTransform()
	tr2.SetZoom(2)
	screen := tr2.CanvasToScreen(pt)
	if hit := h.Test(screen, g, cat, tr2); hit.Kind == HitConnection {
		t.Fatalf("expected wire miss at zoom 2 with tighter canvas tolerance")
	}
}

func bandSpec() *catalog.NodeSpec {
	return &catalog.NodeSpec{
		Key: "filter",
		Params: map[string]*catalog.ParamSpec{
			"freq_lo": {Type: catalog.ParamFloat, Min: 20, Max: 20000, Default: 20},
			"freq_hi": {Type: catalog.ParamFloat, Min: 20, Max: 20000, Default: 20000},
		},
		ParamOrder: []string{"freq_lo", "freq_hi"},
	}
}

func TestFreqBandNormalizesLogScale(t *testing.T) {
	spec := bandSpec()
	controls := ClassifySpec(spec)
	if len(controls) != 1 || controls[0].Archetype != ArchFreqBand {
		t.Fatalf("expected a freq band control, got %+v", controls)
	}

	// the geometric midpoint of the bounds sits at half the track
	n := graph.NewNode("filter", 0, 0)
	n.SetParam("freq_lo", graph.Num(math.Sqrt(20*20000)))

	lo, hi := rangeValues(n, spec, controls[0])
	if math.Abs(lo-0.5) > 1e-9 {
		t.Fatalf("expected geometric midpoint at 0.5, got %v", lo)
	}
	if hi != 1 {
		t.Fatalf("expected default max handle at track end, got %v", hi)
	}
}

func TestFreqBandLinearFallbackAtZeroBound(t *testing.T) {
	ps := &catalog.ParamSpec{Type: catalog.ParamFloat, Min: 0, Max: 100}
	if got := normValue(ps, ArchFreqBand, 50); got != 0.5 {
		t.Fatalf("expected linear fallback for bounds touching zero, got %v", got)
	}
}

func TestNormValueRoundTrip(t *testing.T) {
	ps := &catalog.ParamSpec{Type: catalog.ParamFloat, Min: 20, Max: 20000}
	for _, v := range []float64{20, 440, 632.455532, 20000} {
		got := denormValue(ps, ArchFreqBand, normValue(ps, ArchFreqBand, v))
		if math.Abs(got-v) > 1e-6 {
			t.Fatalf("expected round trip of %v, got %v", v, got)
		}
	}

	// non-band archetypes stay linear over the same bounds
	if got := normValue(ps, ArchRangePair, 10010); got != 0.5 {
		t.Fatalf("expected linear midpoint at 0.5, got %v", got)
	}
}
