package canvas

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/milk9111/patchbay/catalog"
	"github.com/milk9111/patchbay/graph"
)

// PortKey identifies one port on a node.
type PortKey struct {
	Name   string
	Output bool
}

// ControlMetrics is the derived geometry for one classified control.
// All rectangles are absolute canvas coordinates. Geometry that depends
// on the current parameter value (range handles, curve control points)
// is intentionally absent: it is derived at draw/hit time from the
// anchors stored here, so value drags never invalidate the cache.
type ControlMetrics struct {
	Control Control
	Box     Rect
	Label   Rect
	Value   Rect

	Knob  Point
	KnobR float64

	HasPort    bool
	ParamPort  Point
	ModeButton Point
	ModeR      float64

	Track  Rect
	BoxMin Rect
	BoxMax Rect

	Editor Rect
}

// NodeMetrics is the full derived pixel geometry for one node.
type NodeMetrics struct {
	X, Y          float64
	Width, Height float64
	HeaderH       float64

	Body         Rect
	Header       Rect
	LabelBounds  Rect
	DeleteButton Point
	DeleteR      float64

	Ports  map[PortKey]Point
	PortR  float64
	Badges map[PortKey]Rect

	Controls []ControlMetrics
	byParam  map[string]int
}

// ControlFor returns the control metrics editing the named parameter.
func (m *NodeMetrics) ControlFor(param string) *ControlMetrics {
	if m == nil {
		return nil
	}
	i, ok := m.byParam[param]
	if !ok {
		return nil
	}
	return &m.Controls[i]
}

// Port returns the absolute center of a port.
func (m *NodeMetrics) Port(name string, output bool) (Point, bool) {
	p, ok := m.Ports[PortKey{Name: name, Output: output}]
	return p, ok
}

// Measurer reports the rendered width of a label string in pixels at
// unit zoom. Injectable so layout is testable without a font face.
type Measurer func(s string) float64

type metricsKey struct {
	label   string
	x, y    float64
	specRev uint64
	shape   string
}

type metricsEntry struct {
	key metricsKey
	m   *NodeMetrics
}

type controlsKey struct {
	specKey string
	specRev uint64
}

// Metrics computes and caches per-node layout. A cache entry is keyed
// by the layout-affecting projection of the node: id, label, position,
// catalog revision, and structural parameter shape. Continuous value
// changes never touch the key, so a knob drag reuses the cached layout.
type Metrics struct {
	style    StyleResolver
	measure  Measurer
	entries  map[string]*metricsEntry
	controls map[controlsKey][]Control
}

// NewMetrics creates an empty calculator. A nil measurer falls back to
// a fixed 7px-per-rune estimate.
func NewMetrics(style StyleResolver, measure Measurer) *Metrics {
	if style == nil {
		style = DefaultStyle()
	}
	if measure == nil {
		measure = func(s string) float64 { return float64(len([]rune(s))) * 7 }
	}
	return &Metrics{
		style:    style,
		measure:  measure,
		entries:  make(map[string]*metricsEntry),
		controls: make(map[controlsKey][]Control),
	}
}

// ControlsFor returns the cached archetype classification for a spec,
// classifying on first use per catalog revision.
func (c *Metrics) ControlsFor(spec *catalog.NodeSpec, rev uint64) []Control {
	key := controlsKey{specKey: spec.Key, specRev: rev}
	if cs, ok := c.controls[key]; ok {
		return cs
	}
	cs := ClassifySpec(spec)
	c.controls[key] = cs
	return cs
}

// For returns the metrics for a node, computing them on a cache miss or
// a key mismatch. The second result is false when the node cannot be
// laid out (degenerate geometry).
func (c *Metrics) For(n *graph.Node, spec *catalog.NodeSpec, rev uint64) (*NodeMetrics, bool) {
	key := metricsKey{
		label:   DisplayLabel(n, spec),
		x:       n.X,
		y:       n.Y,
		specRev: rev,
		shape:   shapeSignature(n, spec),
	}
	if e, ok := c.entries[n.ID]; ok && e.key == key {
		return e.m, true
	}
	m := c.compute(n, spec, rev)
	if m == nil {
		return nil, false
	}
	c.entries[n.ID] = &metricsEntry{key: key, m: m}
	return m, true
}

// Cached returns the metrics currently cached for a node id without
// recomputing.
func (c *Metrics) Cached(id string) (*NodeMetrics, bool) {
	e, ok := c.entries[id]
	if !ok {
		return nil, false
	}
	return e.m, true
}

// Invalidate drops one node's cached layout.
func (c *Metrics) Invalidate(id string) {
	delete(c.entries, id)
}

// Reset drops everything, including cached spec classifications.
func (c *Metrics) Reset() {
	c.entries = make(map[string]*metricsEntry)
	c.controls = make(map[controlsKey][]Control)
}

// DisplayLabel is the header text for a node: explicit label, then spec
// label, then the raw type key.
func DisplayLabel(n *graph.Node, spec *catalog.NodeSpec) string {
	if n.Label != "" {
		return n.Label
	}
	if spec != nil && spec.Label != "" {
		return spec.Label
	}
	return n.Type
}

// shapeSignature projects a node+spec pair onto the structural features
// that affect layout: parameter names, declared types, stored array
// lengths, enum option counts, and the collapsed flag. Scalar values
// collapse to an existence marker so drags never change the signature.
func shapeSignature(n *graph.Node, spec *catalog.NodeSpec) string {
	var b strings.Builder
	if n.Collapsed {
		b.WriteString("c;")
	}
	names := spec.OrderedParams()
	for _, name := range names {
		p := spec.Params[name]
		if p == nil {
			continue
		}
		fmt.Fprintf(&b, "%s:%s", name, p.Type)
		if len(p.Options) > 0 {
			fmt.Fprintf(&b, ":o%d", len(p.Options))
		}
		if v, ok := n.Params[name]; ok {
			if v.Kind == graph.ValueArray {
				fmt.Fprintf(&b, ":n%d", len(v.Array))
			} else {
				b.WriteString(":v")
			}
		} else if p.Type == catalog.ParamFloats {
			fmt.Fprintf(&b, ":n%d", p.Length)
		}
		b.WriteByte(';')
	}
	// extra stored params missing from the spec still affect nothing
	// visual, but array ones do when a list control renders them
	var extras []string
	for name, v := range n.Params {
		if _, ok := spec.Params[name]; !ok && v.Kind == graph.ValueArray {
			extras = append(extras, fmt.Sprintf("x%s:n%d", name, len(v.Array)))
		}
	}
	sort.Strings(extras)
	for _, e := range extras {
		b.WriteString(e)
		b.WriteByte(';')
	}
	return b.String()
}

// bestColumns picks the grid column count that minimizes empty trailing
// cells. Counts of four or fewer use a closed form; larger counts
// search columns two through four, breaking ties toward the wider
// grid so nodes stay short.
func bestColumns(n int) int {
	switch {
	case n <= 1:
		return 1
	case n == 2:
		return 2
	case n == 3:
		return 3
	case n == 4:
		return 2
	}
	best, bestEmpty := 2, math.MaxInt
	for cols := 2; cols <= 4; cols++ {
		rows := (n + cols - 1) / cols
		empty := rows*cols - n
		if empty <= bestEmpty {
			best, bestEmpty = cols, empty
		}
	}
	return best
}

func (c *Metrics) compute(n *graph.Node, spec *catalog.NodeSpec, rev uint64) *NodeMetrics {
	style := c.style
	headerH := style.Metric("node.header_height", 28)
	pad := style.Metric("node.corner_pad", 8)
	cellW := style.Metric("cell.width", 110)
	cellH := style.Metric("cell.height", 64)
	wideMinW := style.Metric("cell.wide_min_width", 180)
	rangeMinW := style.Metric("range.min_width", 160)
	portR := style.Metric("port.radius", 6)
	portGap := style.Metric("port.gap", 22)
	minW := style.Metric("node.min_width", 120)
	modeR := style.Metric("mode.radius", 7)
	badgeH := style.Metric("badge.height", 14)
	knobR := style.Metric("knob.radius", 16)
	trackH := style.Metric("range.track_height", 10)

	label := DisplayLabel(n, spec)
	labelW := c.measure(label)

	controls := c.ControlsFor(spec, rev)
	if n.Collapsed {
		controls = nil
	}

	// column count over the non-wide controls of the largest section
	sections := sectionize(controls)
	cols := 1
	for _, sec := range sections {
		sc := sec.columns(spec)
		if sc > cols {
			cols = sc
		}
	}

	width := math.Max(minW, labelW+48+2*pad)
	if len(controls) > 0 {
		width = math.Max(width, float64(cols)*cellW+2*pad)
	}
	for _, ctrl := range controls {
		switch ctrl.Archetype {
		case ArchCurve, ArchList:
			width = math.Max(width, wideMinW+2*pad)
		case ArchRangePair, ArchFreqBand:
			width = math.Max(width, rangeMinW+2*pad)
		}
	}
	if spec.Layout != nil && spec.Layout.MinWidth > 0 {
		width = math.Max(width, spec.Layout.MinWidth)
	}

	portRows := len(spec.Inputs)
	if len(spec.Outputs) > portRows {
		portRows = len(spec.Outputs)
	}
	portsH := float64(portRows) * portGap

	m := &NodeMetrics{
		X:       n.X,
		Y:       n.Y,
		HeaderH: headerH,
		Ports:   make(map[PortKey]Point),
		PortR:   portR,
		Badges:  make(map[PortKey]Rect),
		byParam: make(map[string]int),
	}

	// param grid
	y := n.Y + headerH + portsH
	if len(controls) > 0 {
		y += pad
	}
	dividerGap := 10.0
	for si, sec := range sections {
		if si > 0 {
			y += dividerGap
		}
		secCols := sec.columns(spec)
		gridW := width - 2*pad
		colW := gridW / float64(secCols)

		for i, ctrl := range sec.regular {
			col := i % secCols
			row := i / secCols
			box := Rect{
				X: n.X + pad + float64(col)*colW,
				Y: y + float64(row)*cellH,
				W: colW,
				H: cellH,
			}
			cm := c.layoutCell(ctrl, box, n, knobR, modeR)
			m.Controls = append(m.Controls, cm)
		}
		if rn := len(sec.regular); rn > 0 {
			rows := (rn + secCols - 1) / secCols
			y += float64(rows) * cellH
		}
		for _, ctrl := range sec.wide {
			h := wideHeight(ctrl.Archetype)
			box := Rect{X: n.X + pad, Y: y, W: width - 2*pad, H: h}
			cm := c.layoutWide(ctrl, box, n, trackH, modeR)
			m.Controls = append(m.Controls, cm)
			y += h
		}
	}
	if len(controls) > 0 {
		y += pad
	}

	height := y - n.Y
	if height < headerH+portsH {
		height = headerH + portsH
	}
	if height < headerH+portGap {
		height = headerH + portGap
	}
	if width <= 0 || height <= 0 {
		return nil
	}

	m.Width = width
	m.Height = height
	m.Body = Rect{X: n.X, Y: n.Y, W: width, H: height}
	m.Header = Rect{X: n.X, Y: n.Y, W: width, H: headerH}
	m.LabelBounds = Rect{X: n.X + pad + 18, Y: n.Y + (headerH-14)/2, W: labelW, H: 14}
	m.DeleteButton = Point{X: n.X + width - 4, Y: n.Y + 4}
	m.DeleteR = style.Metric("delete.radius", 8)

	// ports run down the edges below the header
	for i, p := range spec.Inputs {
		pt := Point{X: n.X, Y: n.Y + headerH + portGap*(float64(i)+0.5)}
		key := PortKey{Name: p.Name, Output: false}
		m.Ports[key] = pt
		bw := c.measure(string(p.Type)) + 8
		m.Badges[key] = Rect{X: pt.X + portR + 4, Y: pt.Y - badgeH/2, W: bw, H: badgeH}
	}
	for i, p := range spec.Outputs {
		pt := Point{X: n.X + width, Y: n.Y + headerH + portGap*(float64(i)+0.5)}
		key := PortKey{Name: p.Name, Output: true}
		m.Ports[key] = pt
		bw := c.measure(string(p.Type)) + 8
		m.Badges[key] = Rect{X: pt.X - portR - 4 - bw, Y: pt.Y - badgeH/2, W: bw, H: badgeH}
	}

	for i := range m.Controls {
		for _, name := range m.Controls[i].Control.Params {
			m.byParam[name] = i
		}
	}
	return m
}

// layoutCell places the sub-geometry of a single-cell control.
func (c *Metrics) layoutCell(ctrl Control, box Rect, n *graph.Node, knobR, modeR float64) ControlMetrics {
	cm := ControlMetrics{Control: ctrl, Box: box, ModeR: modeR}
	cm.Label = Rect{X: box.X + 4, Y: box.Y + 2, W: box.W - 8, H: 12}

	switch ctrl.Archetype {
	case ArchKnob:
		cm.KnobR = math.Min(knobR, (box.H-34)/2)
		cm.Knob = Point{X: box.X + box.W/2, Y: box.Y + 16 + cm.KnobR}
		cm.Value = Rect{X: box.X + 8, Y: box.Y + box.H - 18, W: box.W - 16, H: 14}
	case ArchToggle:
		cm.Value = Rect{X: box.X + box.W/2 - 18, Y: box.Y + box.H/2 - 6, W: 36, H: 18}
	case ArchEnum:
		cm.Value = Rect{X: box.X + 6, Y: box.Y + box.H/2 - 4, W: box.W - 12, H: 20}
	case ArchVec2, ArchVec3, ArchColor:
		cm.Value = Rect{X: box.X + 6, Y: box.Y + 16, W: box.W - 12, H: box.H - 22}
	case ArchText:
		cm.Value = box.Inset(6)
	default:
		cm.Value = box.Inset(6)
	}

	if paramHasPort(ctrl.Archetype) {
		cm.HasPort = true
		cm.ParamPort = Point{X: n.X, Y: box.Center().Y}
		cm.ModeButton = Point{X: n.X + modeR + 6, Y: box.Center().Y}
	}
	return cm
}

// layoutWide places the sub-geometry of a full-width control.
func (c *Metrics) layoutWide(ctrl Control, box Rect, n *graph.Node, trackH, modeR float64) ControlMetrics {
	cm := ControlMetrics{Control: ctrl, Box: box, ModeR: modeR}
	cm.Label = Rect{X: box.X + 4, Y: box.Y + 2, W: box.W - 8, H: 12}

	switch ctrl.Archetype {
	case ArchRangePair, ArchFreqBand:
		cm.Track = Rect{X: box.X + 12, Y: box.Y + 22, W: box.W - 24, H: trackH}
		half := (box.W - 28) / 2
		cm.BoxMin = Rect{X: box.X + 12, Y: box.Y + box.H - 18, W: half, H: 14}
		cm.BoxMax = Rect{X: box.X + 16 + half, Y: box.Y + box.H - 18, W: half, H: 14}
	case ArchCurve:
		cm.Editor = Rect{X: box.X + 8, Y: box.Y + 16, W: box.W - 16, H: box.H - 24}
	case ArchList:
		cm.Value = Rect{X: box.X + 8, Y: box.Y + 16, W: box.W - 16, H: box.H - 22}
	}
	return cm
}

func paramHasPort(a Archetype) bool {
	switch a {
	case ArchKnob, ArchVec2, ArchVec3, ArchColor:
		return true
	}
	return false
}

func wideHeight(a Archetype) float64 {
	switch a {
	case ArchCurve:
		return 120
	case ArchList:
		return 48
	default:
		return 56
	}
}

// HandleRect is the grab rectangle for a range-pair handle at the
// normalized track position t. Derived on demand so value drags leave
// the cached metrics untouched.
func (cm *ControlMetrics) HandleRect(t float64) Rect {
	t = clamp(t, 0, 1)
	x := cm.Track.X + t*cm.Track.W
	return Rect{X: x - 6, Y: cm.Track.Y - 5, W: 12, H: cm.Track.H + 10}
}

// CurvePoint maps a normalized curve control point (y up) into the
// editor rectangle (y down).
func (cm *ControlMetrics) CurvePoint(x01, y01 float64) Point {
	return Point{
		X: cm.Editor.X + clamp(x01, 0, 1)*cm.Editor.W,
		Y: cm.Editor.Y + (1-clamp(y01, 0, 1))*cm.Editor.H,
	}
}

// CurveValue is the inverse of CurvePoint, clamping into [0,1] squared.
func (cm *ControlMetrics) CurveValue(p Point) (x01, y01 float64) {
	if cm.Editor.W <= 0 || cm.Editor.H <= 0 {
		return 0, 0
	}
	x01 = clamp((p.X-cm.Editor.X)/cm.Editor.W, 0, 1)
	y01 = clamp(1-(p.Y-cm.Editor.Y)/cm.Editor.H, 0, 1)
	return x01, y01
}

// section is a run of controls sharing a group, laid out as one grid of
// regular cells followed by full-width rows.
type section struct {
	group   string
	regular []Control
	wide    []Control
}

func (s *section) columns(spec *catalog.NodeSpec) int {
	if spec.Layout != nil && spec.Layout.Columns > 0 {
		return spec.Layout.Columns
	}
	if len(s.regular) == 0 {
		return 1
	}
	return bestColumns(len(s.regular))
}

func sectionize(controls []Control) []*section {
	var out []*section
	var cur *section
	for _, ctrl := range controls {
		if cur == nil || cur.group != ctrl.Group {
			cur = &section{group: ctrl.Group}
			out = append(out, cur)
		}
		if ctrl.Archetype.Wide() {
			cur.wide = append(cur.wide, ctrl)
		} else {
			cur.regular = append(cur.regular, ctrl)
		}
	}
	return out
}
