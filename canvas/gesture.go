package canvas

import (
	"math"

	"github.com/milk9111/patchbay/catalog"
	"github.com/milk9111/patchbay/graph"
)

// Button identifies the pointer button that started a gesture.
type Button int

const (
	ButtonPrimary Button = iota
	ButtonSecondary
	ButtonMiddle
)

// Modifiers carries the keyboard state relevant to a pointer event.
type Modifiers struct {
	Multi  bool // extend selection
	Fine   bool // scale parameter deltas down 10x
	Coarse bool // scale parameter deltas up 10x
}

type gestureKind int

const (
	gestureIdle gestureKind = iota
	gesturePan
	gestureNodeDrag
	gestureParamDrag
	gestureRangeDrag
	gestureCurveDrag
	gestureConnect
	gestureRubberBand
)

type dragOrigin struct {
	id   string
	x, y float64
}

// gesture is the single active pointer interaction. Exactly one exists
// at a time; a new pointer-down replaces any stale one.
type gesture struct {
	kind        gestureKind
	startScreen Point
	startCanvas Point
	active      bool // moved past the click threshold
	hit         Hit

	// node drag
	origins []dragOrigin
	guides  []Guide

	// parameter drag
	paramSpec  *catalog.ParamSpec
	startValue float64
	sens       float64

	// connect
	fromNode   string
	fromPort   string
	fromParam  string // set when the grab point is a parameter port
	fromOutput bool
	candidate  Hit
	wireFrom   Point
	wireTo     Point
	snapped    bool

	band Rect
}

// Interaction is the single-gesture state machine. All mutation happens
// synchronously inside the pointer handlers, so by the time a frame
// paints every pending edit has already landed in the graph.
type Interaction struct {
	style   StyleResolver
	metrics *Metrics
	tester  *HitTester
	events  *Events
	dirty   *RenderState

	graph *graph.Graph
	cat   *catalog.Catalog
	tr    *Transform

	cur gesture

	// completion signals from live parameter commits, drained by the
	// orchestrator before painting
	pending []<-chan struct{}
}

func NewInteraction(style StyleResolver, metrics *Metrics, tester *HitTester, events *Events, dirty *RenderState) *Interaction {
	if style == nil {
		style = DefaultStyle()
	}
	return &Interaction{
		style:   style,
		metrics: metrics,
		tester:  tester,
		events:  events,
		dirty:   dirty,
	}
}

// Bind points the machine at a document, catalog, and camera. Replacing
// any of them cancels the active gesture.
func (in *Interaction) Bind(g *graph.Graph, cat *catalog.Catalog, tr *Transform) {
	in.graph = g
	in.cat = cat
	in.tr = tr
	in.cur = gesture{}
}

// Guides returns the active alignment guides for the overlay layer.
func (in *Interaction) Guides() []Guide {
	if in.cur.kind != gestureNodeDrag || !in.cur.active {
		return nil
	}
	return in.cur.guides
}

// RubberBand returns the live selection rectangle, if one is active.
func (in *Interaction) RubberBand() (Rect, bool) {
	if in.cur.kind != gestureRubberBand || !in.cur.active {
		return Rect{}, false
	}
	return in.cur.band, true
}

// LiveWire returns the in-flight connection curve endpoints. snapped is
// true when hovering a compatible target.
func (in *Interaction) LiveWire() (from, to Point, snapped, ok bool) {
	if in.cur.kind != gestureConnect {
		return Point{}, Point{}, false, false
	}
	return in.cur.wireFrom, in.cur.wireTo, in.cur.snapped, true
}

// Dragging reports whether a gesture is past the click threshold.
func (in *Interaction) Dragging() bool { return in.cur.active }

// TakePending hands the accumulated parameter completion channels to
// the orchestrator and clears them.
func (in *Interaction) TakePending() []<-chan struct{} {
	p := in.pending
	in.pending = nil
	return p
}

func (in *Interaction) threshold() float64 {
	return in.style.Metric("drag.threshold_px", 5)
}

// PointerDown starts a gesture from a hit test at the screen point.
func (in *Interaction) PointerDown(screen Point, btn Button, mods Modifiers) {
	if in.graph == nil || in.tr == nil {
		return
	}
	canvas := in.tr.ScreenToCanvas(screen)
	in.cur = gesture{startScreen: screen, startCanvas: canvas}

	if btn == ButtonMiddle || btn == ButtonSecondary {
		in.cur.kind = gesturePan
		return
	}

	hit := in.tester.Test(screen, in.graph, in.cat, in.tr)
	in.cur.hit = hit

	switch hit.Kind {
	case HitNone:
		in.cur.kind = gestureRubberBand
		in.cur.band = Rect{X: canvas.X, Y: canvas.Y}

	case HitDelete:
		in.deleteNode(hit.NodeID)
		in.cur = gesture{}

	case HitTypeBadge:
		in.badgeClicked(hit)
		in.cur = gesture{}

	case HitModeButton:
		in.cycleInputMode(hit.NodeID, hit.Param)
		in.cur = gesture{}

	case HitControl:
		in.beginControl(hit, canvas)

	case HitRangeHandle:
		in.beginRangeDrag(hit)

	case HitRangeBox:
		in.beginParamDrag(hit, 0)

	case HitCurvePoint:
		in.cur.kind = gestureCurveDrag

	case HitPort:
		in.beginConnect(hit, canvas)

	case HitLabel, HitHeader, HitBody:
		in.beginNodeDrag(hit, mods)

	case HitConnection:
		// click removes the wire; resolved on pointer-up
		in.cur.kind = gestureIdle
	}
}

// PointerMove advances the active gesture.
func (in *Interaction) PointerMove(screen Point, mods Modifiers) {
	if in.graph == nil || in.tr == nil {
		return
	}
	if !in.cur.active && screen.Dist(in.cur.startScreen) > in.threshold() {
		in.cur.active = true
	}
	if !in.cur.active {
		return
	}
	canvas := in.tr.ScreenToCanvas(screen)

	switch in.cur.kind {
	case gesturePan:
		delta := screen.Sub(in.cur.startScreen)
		in.tr.PanBy(delta.X, delta.Y)
		in.cur.startScreen = screen
		in.dirty.MarkAll()

	case gestureNodeDrag:
		in.moveNodes(canvas)

	case gestureParamDrag, gestureRangeDrag:
		in.dragParam(screen, mods)

	case gestureCurveDrag:
		in.dragCurvePoint(canvas)

	case gestureConnect:
		in.trackConnect(screen, canvas)

	case gestureRubberBand:
		in.cur.band = RectFromPoints(in.cur.startCanvas, canvas)
		in.dirty.MarkLayer(LayerOverlays)
	}
}

// PointerUp finishes the gesture: a move past the threshold commits
// whatever is already live-applied; below it, the press resolves as a
// plain click.
func (in *Interaction) PointerUp(screen Point, mods Modifiers) {
	cur := in.cur
	in.cur = gesture{}
	if in.graph == nil {
		return
	}

	if !cur.active {
		in.click(cur, mods)
		return
	}

	switch cur.kind {
	case gestureConnect:
		in.dropConnect(cur)
	case gestureRubberBand:
		in.selectInBand(cur.band, mods)
		in.dirty.MarkLayer(LayerOverlays)
	case gestureNodeDrag:
		in.dirty.MarkLayer(LayerOverlays) // guides disappear
	}
}

// click resolves a press that never crossed the drag threshold.
func (in *Interaction) click(cur gesture, mods Modifiers) {
	hit := cur.hit
	switch hit.Kind {
	case HitConnection:
		if c, ok := in.graph.Disconnect(hit.ConnectionID); ok {
			in.events.connectionRemoved(c.ID)
			in.dirty.MarkConnection(c.ID)
		}

	case HitLabel:
		bounds := Rect{}
		if m, ok := in.metrics.Cached(hit.NodeID); ok {
			bounds = in.tr.CanvasRectToScreen(m.LabelBounds)
		}
		in.events.labelEditRequested(hit.NodeID, bounds)

	case HitControl:
		in.clickControl(hit)

	case HitHeader, HitBody:
		in.clickSelect(hit.NodeID, mods)

	case HitNone:
		if cur.kind == gestureRubberBand && !mods.Multi {
			in.graph.ClearSelection()
			in.events.selectionChanged(nil, false)
			in.dirty.MarkLayer(LayerNodes)
		}
	}
}

func (in *Interaction) clickSelect(id string, mods Modifiers) {
	if mods.Multi {
		if in.graph.IsSelected(id) {
			in.graph.Deselect(id)
		} else {
			in.graph.Select(id, true)
		}
	} else {
		in.graph.SetSelection([]string{id})
	}
	in.events.selectionChanged(in.graph.View.Selection, mods.Multi)
	in.dirty.MarkNode(id, false)
	in.dirty.MarkLayer(LayerNodes)
}

// clickControl handles the discrete controls: toggles flip, enums cycle.
func (in *Interaction) clickControl(hit Hit) {
	if hit.Control == nil {
		return
	}
	n := in.graph.NodeByID(hit.NodeID)
	spec, ok := in.specFor(n)
	if !ok {
		return
	}
	ps := spec.Params[hit.Param]
	if ps == nil {
		return
	}

	switch hit.Control.Control.Archetype {
	case ArchToggle:
		v := paramValue(n, ps, hit.Param)
		next := 1.0
		if v != 0 {
			next = 0
		}
		in.commitParam(n, hit.Param, graph.Num(next))

	case ArchEnum:
		if len(ps.Options) == 0 {
			return
		}
		i := int(paramValue(n, ps, hit.Param))
		i = (i + 1) % len(ps.Options)
		in.commitParam(n, hit.Param, graph.Num(float64(i)))
	}
}

func (in *Interaction) deleteNode(id string) {
	removed, ok := in.graph.RemoveNode(id)
	if !ok {
		return
	}
	for _, c := range removed {
		in.events.connectionRemoved(c.ID)
		in.dirty.MarkConnection(c.ID)
	}
	in.metrics.Invalidate(id)
	in.events.selectionChanged(in.graph.View.Selection, false)
	in.dirty.MarkAll()
}

func (in *Interaction) badgeClicked(hit Hit) {
	var bounds Rect
	if m, ok := in.metrics.Cached(hit.NodeID); ok {
		if r, ok := m.Badges[hit.Port]; ok {
			bounds = in.tr.CanvasRectToScreen(r)
		}
	}
	screen := in.tr.CanvasToScreen(hit.Canvas)
	in.events.typeBadgeClicked(hit.PortType, screen.X, screen.Y, bounds)
}

func (in *Interaction) cycleInputMode(nodeID, param string) {
	n := in.graph.NodeByID(nodeID)
	if n == nil {
		return
	}
	spec, _ := in.specFor(n)
	next := inputMode(n, spec, param).Next()
	n.SetMode(param, next)
	in.events.inputModeChanged(nodeID, param, next)
	in.dirty.MarkNode(nodeID, true)
}

// inputMode resolves a parameter's effective input mode: the node's
// stored choice, falling back to the default declared in the spec.
func inputMode(n *graph.Node, spec *catalog.NodeSpec, param string) graph.InputMode {
	def := graph.ModeOverride
	if spec != nil {
		if ps := spec.Params[param]; ps != nil {
			if m, ok := graph.ParseInputMode(ps.InputMode); ok {
				def = m
			}
		}
	}
	return n.ModeOr(param, def)
}

func (in *Interaction) beginNodeDrag(hit Hit, mods Modifiers) {
	in.cur.kind = gestureNodeDrag
	if !in.graph.IsSelected(hit.NodeID) && !mods.Multi {
		in.graph.SetSelection([]string{hit.NodeID})
		in.events.selectionChanged(in.graph.View.Selection, false)
		in.dirty.MarkLayer(LayerNodes)
	} else if !in.graph.IsSelected(hit.NodeID) {
		in.graph.Select(hit.NodeID, true)
		in.events.selectionChanged(in.graph.View.Selection, true)
		in.dirty.MarkLayer(LayerNodes)
	}
	for _, n := range in.graph.SelectedNodes() {
		in.cur.origins = append(in.cur.origins, dragOrigin{id: n.ID, x: n.X, y: n.Y})
	}
}

// moveNodes applies the drag delta rigidly to every selected node, with
// smart-guide snapping computed on the grabbed node.
func (in *Interaction) moveNodes(canvas Point) {
	delta := canvas.Sub(in.cur.startCanvas)
	grabbed := in.cur.hit.NodeID

	var grabbedRect Rect
	var others []Rect
	for _, n := range in.graph.Nodes {
		spec, ok := in.specFor(n)
		if !ok {
			continue
		}
		m, ok := in.metrics.For(n, spec, in.cat.Revision())
		if !ok {
			continue
		}
		if n.ID == grabbed {
			for _, o := range in.cur.origins {
				if o.id == grabbed {
					grabbedRect = Rect{X: o.x + delta.X, Y: o.y + delta.Y, W: m.Width, H: m.Height}
				}
			}
		} else if !in.graph.IsSelected(n.ID) {
			others = append(others, m.Body)
		}
	}

	snap := SnapResult{}
	if grabbedRect.W > 0 {
		snap = ComputeSmartGuides(grabbedRect, others, in.style.Metric("guide.threshold_px", 6)/in.tr.Zoom)
	}
	in.cur.guides = snap.Guides

	for _, o := range in.cur.origins {
		x := o.x + delta.X + snap.DX
		y := o.y + delta.Y + snap.DY
		if in.graph.MoveNode(o.id, x, y) {
			in.events.nodeMoved(o.id, x, y)
			in.dirty.MarkNode(o.id, false)
			for _, c := range in.graph.Connections {
				if c.Touches(o.id) {
					in.dirty.MarkConnection(c.ID)
				}
			}
		}
	}
	in.dirty.MarkLayer(LayerOverlays)
}

func (in *Interaction) beginControl(hit Hit, canvas Point) {
	if hit.Control == nil {
		in.cur = gesture{}
		return
	}
	switch hit.Control.Control.Archetype {
	case ArchKnob:
		in.beginParamDrag(hit, 0)
	case ArchToggle, ArchEnum:
		// click-only controls, resolved on pointer-up
		in.cur.kind = gestureIdle
		in.cur.hit = hit
	default:
		in.cur.kind = gestureIdle
		in.cur.hit = hit
	}
}

func (in *Interaction) beginParamDrag(hit Hit, sens float64) {
	n := in.graph.NodeByID(hit.NodeID)
	spec, ok := in.specFor(n)
	if !ok {
		in.cur = gesture{}
		return
	}
	ps := spec.Params[hit.Param]
	if ps == nil || ps.Max <= ps.Min {
		in.cur = gesture{}
		return
	}
	in.cur.kind = gestureParamDrag
	in.cur.hit = hit
	in.cur.paramSpec = ps
	in.cur.startValue = paramValue(n, ps, hit.Param)
	if sens <= 0 {
		sens = in.style.Metric("drag.sensitivity_px", 200)
	}
	in.cur.sens = sens
}

// beginRangeDrag is a parameter drag whose sensitivity comes from the
// widget's on-screen height, so feel is independent of configured size.
func (in *Interaction) beginRangeDrag(hit Hit) {
	sens := 0.0
	if hit.Control != nil {
		sens = hit.Control.Box.H * in.tr.Zoom
	}
	if sens < 1 {
		sens = 1
	}
	in.beginParamDrag(hit, sens)
	if in.cur.kind == gestureParamDrag {
		in.cur.kind = gestureRangeDrag
	}
}

// dragParam converts inverted vertical motion into a value delta on the
// control's scale, clamps, snaps, and commits live on every move.
func (in *Interaction) dragParam(screen Point, mods Modifiers) {
	ps := in.cur.paramSpec
	if ps == nil {
		return
	}
	arch := ArchKnob
	if in.cur.hit.Control != nil {
		arch = in.cur.hit.Control.Control.Archetype
	}
	deltaY := in.cur.startScreen.Y - screen.Y
	scale := 1.0
	if mods.Fine {
		scale = 0.1
	} else if mods.Coarse {
		scale = 10
	}
	t := normValue(ps, arch, in.cur.startValue) + (deltaY/in.cur.sens)*scale
	v := denormValue(ps, arch, t)
	v = snapStep(v, ps.Min, ps.Step)
	v = clamp(v, ps.Min, ps.Max)

	n := in.graph.NodeByID(in.cur.hit.NodeID)
	if n == nil {
		return
	}
	in.commitParam(n, in.cur.hit.Param, graph.Num(v))
}

// dragCurvePoint maps the pointer into the editor's unit square with Y
// flipped and writes both members of the point's parameter pair.
func (in *Interaction) dragCurvePoint(canvas Point) {
	hit := in.cur.hit
	if hit.Control == nil {
		return
	}
	params := hit.Control.Control.Params
	if len(params) != 4 {
		return
	}
	n := in.graph.NodeByID(hit.NodeID)
	if n == nil {
		return
	}
	x01, y01 := hit.Control.CurveValue(canvas)
	px, py := params[0], params[1]
	if hit.Handle == 1 {
		px, py = params[2], params[3]
	}
	in.commitParam(n, px, graph.Num(x01))
	in.commitParam(n, py, graph.Num(y01))
}

// commitParam stores the value and notifies the host, keeping any
// completion signal for the orchestrator.
func (in *Interaction) commitParam(n *graph.Node, param string, v graph.Value) {
	n.SetParam(param, v)
	if done := in.events.parameterChanged(n.ID, param, v); done != nil {
		in.pending = append(in.pending, done)
	}
	in.dirty.MarkNode(n.ID, true)
}

func (in *Interaction) beginConnect(hit Hit, canvas Point) {
	in.cur.kind = gestureConnect
	in.cur.fromNode = hit.NodeID
	in.cur.fromPort = hit.Port.Name
	in.cur.fromParam = hit.Param
	in.cur.fromOutput = hit.Port.Output
	in.cur.wireFrom = canvas
	if m, ok := in.metrics.Cached(hit.NodeID); ok {
		if p, ok := m.Port(hit.Port.Name, hit.Port.Output); ok {
			in.cur.wireFrom = p
		}
	}
	in.cur.wireTo = canvas
}

// trackConnect follows the pointer with the live wire, snapping to a
// compatible target when hovering one.
func (in *Interaction) trackConnect(screen, canvas Point) {
	in.cur.wireTo = canvas
	in.cur.snapped = false
	in.cur.candidate = Hit{}

	hit := in.tester.Test(screen, in.graph, in.cat, in.tr)
	if in.compatibleTarget(hit) {
		in.cur.candidate = hit
		in.cur.snapped = true
		if m, ok := in.metrics.Cached(hit.NodeID); ok {
			if hit.Kind == HitControl || hit.Param != "" {
				if cm := m.ControlFor(paramOf(hit)); cm != nil && cm.HasPort {
					in.cur.wireTo = cm.ParamPort
				}
			} else if p, ok := m.Port(hit.Port.Name, hit.Port.Output); ok {
				in.cur.wireTo = p
			}
		}
	}
	in.dirty.MarkLayer(LayerOverlays)
}

func paramOf(hit Hit) string {
	if hit.Param != "" {
		return hit.Param
	}
	return hit.Port.Name
}

// compatibleTarget accepts ports of the opposite direction on another
// node, and numeric parameter controls when dragging from an output.
func (in *Interaction) compatibleTarget(hit Hit) bool {
	if hit.NodeID == "" || hit.NodeID == in.cur.fromNode {
		return false
	}
	switch hit.Kind {
	case HitPort:
		if hit.Param != "" {
			// param ports only accept wires from outputs
			return in.cur.fromOutput
		}
		if in.cur.fromParam != "" {
			// a wire grabbed at a param port reattaches to an output
			return hit.Port.Output
		}
		return hit.Port.Output != in.cur.fromOutput
	case HitControl:
		return in.cur.fromOutput && hit.Control != nil && hit.Control.HasPort
	}
	return false
}

// dropConnect creates the connection, displacing whatever previously
// occupied the target endpoint.
func (in *Interaction) dropConnect(cur gesture) {
	in.dirty.MarkLayer(LayerOverlays)
	hit := cur.candidate
	if hit.Kind == HitNone {
		return
	}

	var c *graph.Connection
	switch hit.Kind {
	case HitPort:
		switch {
		case hit.Param != "":
			c = graph.NewParamConnection(cur.fromNode, cur.fromPort, hit.NodeID, hit.Param)
		case cur.fromParam != "":
			c = graph.NewParamConnection(hit.NodeID, hit.Port.Name, cur.fromNode, cur.fromParam)
		case cur.fromOutput:
			c = graph.NewPortConnection(cur.fromNode, cur.fromPort, hit.NodeID, hit.Port.Name)
		default:
			c = graph.NewPortConnection(hit.NodeID, hit.Port.Name, cur.fromNode, cur.fromPort)
		}
	case HitControl:
		c = graph.NewParamConnection(cur.fromNode, cur.fromPort, hit.NodeID, paramOf(hit))
	}
	if c == nil {
		return
	}

	if displaced := in.graph.Connect(c); displaced != nil {
		in.events.connectionRemoved(displaced.ID)
		in.dirty.MarkConnection(displaced.ID)
	}
	in.events.connectionCreated(c)
	in.dirty.MarkConnection(c.ID)
	in.dirty.MarkNode(hit.NodeID, true)
}

// selectInBand selects every node whose body intersects the rectangle.
func (in *Interaction) selectInBand(band Rect, mods Modifiers) {
	var ids []string
	if mods.Multi {
		ids = append(ids, in.graph.View.Selection...)
	}
	for _, n := range in.graph.Nodes {
		spec, ok := in.specFor(n)
		if !ok {
			continue
		}
		m, ok := in.metrics.For(n, spec, in.cat.Revision())
		if !ok {
			continue
		}
		if m.Body.Intersects(band) && !containsID(ids, n.ID) {
			ids = append(ids, n.ID)
		}
	}
	in.graph.SetSelection(ids)
	in.events.selectionChanged(ids, mods.Multi)
	in.dirty.MarkLayer(LayerNodes)
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func (in *Interaction) specFor(n *graph.Node) (*catalog.NodeSpec, bool) {
	if n == nil || in.cat == nil {
		return nil, false
	}
	return in.cat.Spec(n.Type)
}

// Wheel zooms about the cursor, stepping the zoom geometrically so each
// notch feels equal at any level.
func (in *Interaction) Wheel(screen Point, dy float64) {
	if in.tr == nil {
		return
	}
	factor := math.Pow(1.1, dy)
	in.tr.ZoomAround(screen, in.tr.Zoom*factor)
	in.dirty.MarkAll()
}
