package canvas

import (
	"fmt"
	"image/color"
	"math"

	"github.com/charmbracelet/log"
	"github.com/hajimehoshi/ebiten/v2"
	"golang.org/x/image/colornames"

	"github.com/milk9111/patchbay/catalog"
	"github.com/milk9111/patchbay/graph"
)

// Renderer composes a frame in fixed layer order: background, grid,
// connections, nodes, ports, overlays. The canvas is cleared and fully
// redrawn every frame; dirty state steers cache reuse and culling, not
// partial blits.
type Renderer struct {
	style   StyleResolver
	metrics *Metrics
	cache   *ContentCache
	painter *Painter
	logger  *log.Logger

	lastPanX, lastPanY, lastZoom float64
	havePrev                     bool

	missingTypes map[string]bool
}

func NewRenderer(style StyleResolver, metrics *Metrics, cache *ContentCache, painter *Painter, logger *log.Logger) *Renderer {
	if style == nil {
		style = DefaultStyle()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Renderer{
		style:        style,
		metrics:      metrics,
		cache:        cache,
		painter:      painter,
		logger:       logger,
		missingTypes: make(map[string]bool),
	}
}

// Frame paints the whole document. Returns true when the dirty region
// was implausibly large and the incremental hints were discarded.
func (r *Renderer) Frame(dst *ebiten.Image, g *graph.Graph, cat *catalog.Catalog, tr *Transform, dirty *RenderState, inter *Interaction) bool {
	if !r.havePrev || r.lastPanX != tr.PanX || r.lastPanY != tr.PanY || r.lastZoom != tr.Zoom {
		dirty.MarkAll()
	}
	r.lastPanX, r.lastPanY, r.lastZoom = tr.PanX, tr.PanY, tr.Zoom
	r.havePrev = true

	w, h := dst.Bounds().Dx(), dst.Bounds().Dy()
	viewport := Rect{W: float64(w), H: float64(h)}
	full := dirty.Full()
	if !full {
		region := r.dirtyRegion(g, cat, tr, dirty)
		if region.Area() > viewport.Area()*1.5 {
			full = true
		}
	}

	// canvas-space cull window
	margin := r.style.Metric("cull.margin", 128)
	tl := tr.ScreenToCanvas(Point{X: -margin, Y: -margin})
	br := tr.ScreenToCanvas(Point{X: viewport.W + margin, Y: viewport.H + margin})
	window := RectFromPoints(tl, br)

	dst.Fill(r.style.Color("canvas.background", color.RGBA{R: 24, G: 26, B: 30, A: 255}))
	r.drawGrid(dst, tr, viewport)
	r.drawConnections(dst, g, cat, tr, window)
	r.drawNodes(dst, g, cat, tr, window)
	r.drawPorts(dst, g, cat, tr, window)
	r.drawOverlays(dst, g, tr, inter)

	dirty.Clear()
	return full
}

// dirtyRegion unions the screen rectangles implied by the dirty marks:
// node bounds plus padding, widened when parameter affordances hang off
// the body, and connection control-polygon boxes plus line width.
func (r *Renderer) dirtyRegion(g *graph.Graph, cat *catalog.Catalog, tr *Transform, dirty *RenderState) Rect {
	var region Rect
	pad := r.style.Metric("dirty.pad", 12)
	padParams := r.style.Metric("dirty.pad_params", 20)

	for id, structural := range dirty.DirtyNodes() {
		m, ok := r.metrics.Cached(id)
		if !ok {
			n := g.NodeByID(id)
			if n == nil {
				continue
			}
			spec, okSpec := cat.Spec(n.Type)
			if !okSpec {
				continue
			}
			if m, ok = r.metrics.For(n, spec, cat.Revision()); !ok {
				continue
			}
		}
		p := pad
		if structural || len(g.ParamConnections(id)) > 0 {
			p = padParams
		}
		box := tr.CanvasRectToScreen(m.Body.Inset(-p))
		region = region.Union(box)
	}

	for id := range dirty.DirtyConnections() {
		for _, c := range g.Connections {
			if c.ID != id {
				continue
			}
			if from, to, ok := r.endpoints(c, g, cat); ok {
				box := tr.CanvasRectToScreen(WireCubic(from, to).Bounds().Inset(-4))
				region = region.Union(box)
			}
		}
	}

	for _, rc := range dirty.Regions() {
		region = region.Union(tr.CanvasRectToScreen(rc))
	}
	return region
}

func (r *Renderer) drawGrid(dst *ebiten.Image, tr *Transform, viewport Rect) {
	spacing := r.style.Metric("grid.spacing", 32) * tr.Zoom
	if spacing < 6 {
		return // too dense to read, skip the layer
	}
	clr := r.style.Color("canvas.grid", color.RGBA{R: 40, G: 43, B: 48, A: 255})
	x := math.Mod(tr.PanX, spacing)
	for ; x < viewport.W; x += spacing {
		r.painter.Line(dst, Point{X: x, Y: 0}, Point{X: x, Y: viewport.H}, 1, clr)
	}
	y := math.Mod(tr.PanY, spacing)
	for ; y < viewport.H; y += spacing {
		r.painter.Line(dst, Point{X: 0, Y: y}, Point{X: viewport.W, Y: y}, 1, clr)
	}
}

func (r *Renderer) drawConnections(dst *ebiten.Image, g *graph.Graph, cat *catalog.Catalog, tr *Transform, window Rect) {
	for _, c := range g.Connections {
		from, to, ok := r.endpoints(c, g, cat)
		if !ok {
			continue // dangling: skipped, never pruned here
		}
		cubic := WireCubic(from, to)
		if !cubic.Bounds().Intersects(window) {
			continue
		}
		screen := Cubic{
			P0: tr.CanvasToScreen(cubic.P0),
			P1: tr.CanvasToScreen(cubic.P1),
			P2: tr.CanvasToScreen(cubic.P2),
			P3: tr.CanvasToScreen(cubic.P3),
		}
		clr := r.style.Color("connection", colornames.Lightsteelblue)
		if c.IsParam() {
			clr = r.style.Color("connection.param", colornames.Plum)
		}
		r.painter.Curve(dst, screen, 2, clr)
	}
}

func (r *Renderer) endpoints(c *graph.Connection, g *graph.Graph, cat *catalog.Catalog) (Point, Point, bool) {
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
	sm, ok := r.metrics.For(src, srcSpec, cat.Revision())
	if !ok {
		return Point{}, Point{}, false
	}
	dm, ok := r.metrics.For(dst, dstSpec, cat.Revision())
	if !ok {
		return Point{}, Point{}, false
	}
	from, ok := sm.Port(c.SourcePort, true)
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
	to, ok := dm.Port(c.TargetPort, false)
	return from, to, ok
}

func (r *Renderer) drawNodes(dst *ebiten.Image, g *graph.Graph, cat *catalog.Catalog, tr *Transform, window Rect) {
	for _, n := range g.Nodes {
		spec, ok := cat.Spec(n.Type)
		if !ok {
			r.warnMissingSpec(n.Type)
			continue
		}
		m, ok := r.metrics.For(n, spec, cat.Revision())
		if !ok {
			r.logger.Warn("zero-size layout, skipping node", "node", n.ID, "type", n.Type)
			continue
		}
		if !m.Body.Intersects(window) {
			continue
		}
		r.drawNodeStatic(dst, n, spec, m, cat, tr)
		r.drawNodeDynamic(dst, n, spec, m, g, tr)
	}
}

// warnMissingSpec logs an unknown node type once instead of every
// frame. The node stays in the graph, it just isn't drawn.
func (r *Renderer) warnMissingSpec(typ string) {
	if r.missingTypes[typ] {
		return
	}
	r.missingTypes[typ] = true
	r.logger.Warn("no spec for node type, node not drawn", "type", typ)
}

// contentKey identifies a baked body bitmap. The node's position and
// the camera are deliberately absent: the bake happens at the node's
// local origin and is placed at blit time, so drags, pans, and zooms
// all reuse it.
func contentKey(n *graph.Node, spec *catalog.NodeSpec, m *NodeMetrics, rev uint64) ContentKey {
	return ContentKey{
		NodeID:  n.ID,
		Label:   DisplayLabel(n, spec),
		Shape:   shapeSignature(n, spec),
		SpecRev: rev,
		W:       m.Width,
		H:       m.Height,
	}
}

// drawNodeStatic blits the cached body bitmap, baking it on a miss. A
// bake failure falls back to drawing directly this frame.
func (r *Renderer) drawNodeStatic(dst *ebiten.Image, n *graph.Node, spec *catalog.NodeSpec, m *NodeMetrics, cat *catalog.Catalog, tr *Transform) {
	key := contentKey(n, spec, m, cat.Revision())
	img, ok := r.cache.Get(key)
	if !ok {
		img = r.bakeNodeContent(n, spec, m)
		if img == nil {
			r.drawNodeBody(dst, m, tr, true)
			return
		}
		r.cache.Put(key, img)
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(tr.Zoom, tr.Zoom)
	screen := tr.CanvasToScreen(Point{X: m.X, Y: m.Y})
	op.GeoM.Translate(screen.X, screen.Y)
	dst.DrawImage(img, op)
}

// bakeNodeContent renders the static visual at unit zoom into an
// offscreen image. Any panic from image allocation is contained here.
func (r *Renderer) bakeNodeContent(n *graph.Node, spec *catalog.NodeSpec, m *NodeMetrics) (img *ebiten.Image) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("node content bake failed", "node", n.ID, "err", rec)
			img = nil
		}
	}()
	w := int(math.Ceil(m.Width))
	h := int(math.Ceil(m.Height))
	if w <= 0 || h <= 0 {
		return nil
	}
	img = ebiten.NewImage(w, h)

	local := *m
	local.Body = Rect{W: m.Width, H: m.Height}
	local.Header = Rect{W: m.Width, H: m.HeaderH}
	r.paintStatic(img, &local, DisplayLabel(n, spec))
	return img
}

func (r *Renderer) paintStatic(dst *ebiten.Image, m *NodeMetrics, label string) {
	fill := r.style.Color("node.fill", color.RGBA{R: 44, G: 48, B: 56, A: 255})
	headerFill := r.style.Color("node.header", color.RGBA{R: 56, G: 61, B: 71, A: 255})
	border := r.style.Color("node.border", color.RGBA{R: 80, G: 86, B: 97, A: 255})
	labelClr := r.style.Color("node.label", colornames.Gainsboro)

	r.painter.FillRect(dst, m.Body, fill)
	r.painter.FillRect(dst, m.Header, headerFill)
	r.painter.StrokeRect(dst, m.Body, 1, border)
	r.painter.Line(dst,
		Point{X: m.Body.X, Y: m.Body.Y + m.HeaderH},
		Point{X: m.Body.X + m.Body.W, Y: m.Body.Y + m.HeaderH}, 1, border)
	r.painter.Text(dst, label, m.Body.X+10, m.Body.Y+(m.HeaderH-16)/2, labelClr)
}

// drawNodeBody is the direct-draw fallback when a bitmap can't be used.
func (r *Renderer) drawNodeBody(dst *ebiten.Image, m *NodeMetrics, tr *Transform, withLabel bool) {
	body := tr.CanvasRectToScreen(m.Body)
	header := tr.CanvasRectToScreen(m.Header)
	r.painter.FillRect(dst, body, r.style.Color("node.fill", color.RGBA{R: 44, G: 48, B: 56, A: 255}))
	r.painter.FillRect(dst, header, r.style.Color("node.header", color.RGBA{R: 56, G: 61, B: 71, A: 255}))
	r.painter.StrokeRect(dst, body, 1, r.style.Color("node.border", color.RGBA{R: 80, G: 86, B: 97, A: 255}))
	_ = withLabel
}

// drawNodeDynamic paints everything that changes without invalidating
// the content bitmap: selection, live control values, affordances.
func (r *Renderer) drawNodeDynamic(dst *ebiten.Image, n *graph.Node, spec *catalog.NodeSpec, m *NodeMetrics, g *graph.Graph, tr *Transform) {
	zoom := tr.Zoom

	if g.IsSelected(n.ID) {
		sel := r.style.Color("node.border.selected", colornames.Orange)
		r.painter.StrokeRect(dst, tr.CanvasRectToScreen(m.Body), 2, sel)

		del := tr.CanvasToScreen(m.DeleteButton)
		r.painter.FillCircle(dst, del, m.DeleteR*zoom, r.style.Color("delete.fill", colornames.Indianred))
	}

	valueClr := r.style.Color("control.value", colornames.Whitesmoke)
	labelClr := r.style.Color("control.label", colornames.Darkgray)
	accent := r.style.Color("control.accent", colornames.Skyblue)
	wellClr := r.style.Color("control.well", color.RGBA{R: 34, G: 37, B: 43, A: 255})

	for i := range m.Controls {
		cm := &m.Controls[i]
		name := cm.Control.Params[0]
		ps := spec.Params[name]
		if ps == nil {
			continue
		}
		lp := tr.CanvasToScreen(Point{X: cm.Label.X, Y: cm.Label.Y})
		r.painter.SmallTextScaled(dst, paramLabel(ps, name), lp.X, lp.Y, zoom, labelClr)

		switch cm.Control.Archetype {
		case ArchKnob:
			center := tr.CanvasToScreen(cm.Knob)
			rad := cm.KnobR * zoom
			r.painter.FillCircle(dst, center, rad, wellClr)
			r.painter.StrokeCircle(dst, center, rad, 1.5, accent)
			v := paramValue(n, ps, name)
			t := 0.0
			if ps.Max > ps.Min {
				t = (v - ps.Min) / (ps.Max - ps.Min)
			}
			// 270 degree sweep from 7 o'clock
			ang := (0.75 + 1.5*t) * math.Pi
			tip := Point{X: center.X + math.Cos(ang)*rad*0.8, Y: center.Y + math.Sin(ang)*rad*0.8}
			r.painter.Line(dst, center, tip, 2, valueClr)
			vb := tr.CanvasRectToScreen(cm.Value)
			r.painter.SmallTextScaled(dst, formatValue(v), vb.X, vb.Y, zoom, valueClr)

		case ArchToggle:
			box := tr.CanvasRectToScreen(cm.Value)
			on := paramValue(n, ps, name) != 0
			r.painter.FillRect(dst, box, wellClr)
			if on {
				r.painter.FillRect(dst, box.Inset(3), accent)
			} else {
				r.painter.StrokeRect(dst, box, 1, labelClr)
			}

		case ArchEnum:
			box := tr.CanvasRectToScreen(cm.Value)
			r.painter.FillRect(dst, box, wellClr)
			idx := int(paramValue(n, ps, name))
			if idx >= 0 && idx < len(ps.Options) {
				r.painter.SmallTextScaled(dst, ps.Options[idx], box.X+4*zoom, box.Y+3*zoom, zoom, valueClr)
			}

		case ArchRangePair, ArchFreqBand:
			track := tr.CanvasRectToScreen(cm.Track)
			r.painter.FillRect(dst, track, wellClr)
			lo, hi := rangeValues(n, spec, cm.Control)
			span := Rect{X: track.X + lo*track.W, Y: track.Y, W: (hi - lo) * track.W, H: track.H}
			if span.W > 0 {
				r.painter.FillRect(dst, span, accent)
			}
			r.painter.FillRect(dst, tr.CanvasRectToScreen(cm.HandleRect(lo)), valueClr)
			r.painter.FillRect(dst, tr.CanvasRectToScreen(cm.HandleRect(hi)), valueClr)
			bm := tr.CanvasRectToScreen(cm.BoxMin)
			bx := tr.CanvasRectToScreen(cm.BoxMax)
			r.painter.SmallTextScaled(dst, formatValue(paramValue(n, spec.Params[cm.Control.Params[0]], cm.Control.Params[0])), bm.X, bm.Y, zoom, valueClr)
			r.painter.SmallTextScaled(dst, formatValue(paramValue(n, spec.Params[cm.Control.Params[1]], cm.Control.Params[1])), bx.X, bx.Y, zoom, valueClr)

		case ArchCurve:
			editor := tr.CanvasRectToScreen(cm.Editor)
			r.painter.FillRect(dst, editor, wellClr)
			r.painter.StrokeRect(dst, editor, 1, labelClr)
			r.drawCurveControl(dst, n, spec, cm, tr, accent, valueClr)

		case ArchVec2, ArchVec3, ArchColor:
			box := tr.CanvasRectToScreen(cm.Value)
			r.painter.FillRect(dst, box, wellClr)
			if v, ok := n.Param(name); ok && v.Kind == graph.ValueArray {
				r.painter.SmallTextScaled(dst, v.String(), box.X+4*zoom, box.Y+3*zoom, zoom, valueClr)
			}

		case ArchText:
			box := tr.CanvasRectToScreen(cm.Value)
			r.painter.FillRect(dst, box, wellClr)
			if v, ok := n.Param(name); ok && v.Kind == graph.ValueString {
				r.painter.SmallTextScaled(dst, v.Str, box.X+4*zoom, box.Y+3*zoom, zoom, valueClr)
			}

		case ArchList:
			box := tr.CanvasRectToScreen(cm.Value)
			r.painter.FillRect(dst, box, wellClr)
			if v, ok := n.Param(name); ok && v.Kind == graph.ValueArray {
				r.painter.SmallTextScaled(dst, v.String(), box.X+4*zoom, box.Y+3*zoom, zoom, valueClr)
			}
		}

		// param port + mode button only while a connection drives it
		if cm.HasPort && g.ConnectionAt(n.ID, "", name) != nil {
			port := tr.CanvasToScreen(cm.ParamPort)
			r.painter.FillCircle(dst, port, m.PortR*zoom, accent)
			mode := tr.CanvasToScreen(cm.ModeButton)
			r.painter.FillCircle(dst, mode, cm.ModeR*zoom, r.style.Color("mode.button", colornames.Slategray))
			r.painter.SmallTextScaled(dst, modeGlyph(inputMode(n, spec, name)), mode.X-3*zoom, mode.Y-6*zoom, zoom, valueClr)
		}
	}
}

func (r *Renderer) drawCurveControl(dst *ebiten.Image, n *graph.Node, spec *catalog.NodeSpec, cm *ControlMetrics, tr *Transform, accent, valueClr color.Color) {
	params := cm.Control.Params
	if len(params) != 4 {
		return
	}
	x1 := curveParam(n, spec, params[0])
	y1 := curveParam(n, spec, params[1])
	x2 := curveParam(n, spec, params[2])
	y2 := curveParam(n, spec, params[3])

	cubic := Cubic{
		P0: tr.CanvasToScreen(cm.CurvePoint(0, 0)),
		P1: tr.CanvasToScreen(cm.CurvePoint(x1, y1)),
		P2: tr.CanvasToScreen(cm.CurvePoint(x2, y2)),
		P3: tr.CanvasToScreen(cm.CurvePoint(1, 1)),
	}
	r.painter.Curve(dst, cubic, 1.5, accent)
	r.painter.FillCircle(dst, cubic.P1, 4*tr.Zoom, valueClr)
	r.painter.FillCircle(dst, cubic.P2, 4*tr.Zoom, valueClr)
	r.painter.Line(dst, cubic.P0, cubic.P1, 1, valueClr)
	r.painter.Line(dst, cubic.P3, cubic.P2, 1, valueClr)
}

func (r *Renderer) drawPorts(dst *ebiten.Image, g *graph.Graph, cat *catalog.Catalog, tr *Transform, window Rect) {
	badgeFill := r.style.Color("badge.fill", color.RGBA{R: 50, G: 54, B: 62, A: 255})
	badgeText := r.style.Color("badge.text", colornames.Lightgray)

	for _, n := range g.Nodes {
		spec, ok := cat.Spec(n.Type)
		if !ok {
			continue
		}
		m, ok := r.metrics.For(n, spec, cat.Revision())
		if !ok || !m.Body.Intersects(window) {
			continue
		}
		for key, center := range m.Ports {
			screen := tr.CanvasToScreen(center)
			clr := r.portColor(portType(spec, key))
			r.painter.FillCircle(dst, screen, m.PortR*tr.Zoom, clr)

			if badge, ok := m.Badges[key]; ok {
				b := tr.CanvasRectToScreen(badge)
				r.painter.FillRect(dst, b, badgeFill)
				r.painter.SmallTextScaled(dst, string(portType(spec, key)), b.X+4*tr.Zoom, b.Y+2*tr.Zoom, tr.Zoom, badgeText)
			}
		}
	}
}

func (r *Renderer) portColor(t catalog.PortType) color.Color {
	switch t {
	case catalog.PortFloat:
		return r.style.Color("port.float", colornames.Skyblue)
	case catalog.PortVec2:
		return r.style.Color("port.vec2", colornames.Mediumseagreen)
	case catalog.PortVec3:
		return r.style.Color("port.vec3", colornames.Seagreen)
	case catalog.PortVec4:
		return r.style.Color("port.vec4", colornames.Darkseagreen)
	case catalog.PortColor:
		return r.style.Color("port.color", colornames.Gold)
	case catalog.PortImage:
		return r.style.Color("port.image", colornames.Orchid)
	}
	return colornames.Gray
}

func (r *Renderer) drawOverlays(dst *ebiten.Image, g *graph.Graph, tr *Transform, inter *Interaction) {
	if inter == nil {
		return
	}
	guideClr := r.style.Color("guide", colornames.Hotpink)
	for _, gd := range inter.Guides() {
		if gd.Vertical {
			a := tr.CanvasToScreen(Point{X: gd.Pos, Y: gd.From})
			b := tr.CanvasToScreen(Point{X: gd.Pos, Y: gd.To})
			r.painter.Line(dst, a, b, 1, guideClr)
		} else {
			a := tr.CanvasToScreen(Point{X: gd.From, Y: gd.Pos})
			b := tr.CanvasToScreen(Point{X: gd.To, Y: gd.Pos})
			r.painter.Line(dst, a, b, 1, guideClr)
		}
	}

	if band, ok := inter.RubberBand(); ok {
		box := tr.CanvasRectToScreen(band)
		fill := r.style.Color("rubberband.fill", color.RGBA{R: 90, G: 140, B: 220, A: 40})
		edge := r.style.Color("rubberband", colornames.Cornflowerblue)
		r.painter.FillRect(dst, box, fill)
		r.painter.StrokeRect(dst, box, 1, edge)
	}

	if from, to, snapped, ok := inter.LiveWire(); ok {
		wire := WireCubic(from, to)
		cubic := Cubic{
			P0: tr.CanvasToScreen(wire.P0),
			P1: tr.CanvasToScreen(wire.P1),
			P2: tr.CanvasToScreen(wire.P2),
			P3: tr.CanvasToScreen(wire.P3),
		}
		clr := r.style.Color("connection.live", colornames.Lightgreen)
		if snapped {
			r.painter.Curve(dst, cubic, 2, clr)
		} else {
			r.painter.DashedCurve(dst, cubic, 2, clr)
		}
	}
}

func paramLabel(ps *catalog.ParamSpec, name string) string {
	if ps.Label != "" {
		return ps.Label
	}
	return name
}

func formatValue(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e6 {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}

func modeGlyph(m graph.InputMode) string {
	switch m {
	case graph.ModeAdd:
		return "+"
	case graph.ModeSubtract:
		return "-"
	case graph.ModeMultiply:
		return "x"
	}
	return "="
}
