package canvas

import (
	"fmt"
	"image/color"

	"github.com/charmbracelet/log"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/milk9111/patchbay/catalog"
	"github.com/milk9111/patchbay/graph"
)

// Engine owns one editing session: the document handle, the camera,
// every cache, and the gesture machine. All methods run on the game
// loop thread; nothing here is safe for concurrent use.
type Engine struct {
	style    StyleResolver
	metrics  *Metrics
	tester   *HitTester
	inter    *Interaction
	dirty    *RenderState
	cache    *ContentCache
	painter  *Painter
	renderer *Renderer
	events   *Events
	logger   *log.Logger

	g   *graph.Graph
	cat *catalog.Catalog
	tr  *Transform

	lastCursor Point
	pending    []<-chan struct{}
}

// NewEngine builds a session around the host's event sinks. A nil style
// resolver falls back to the default theme.
func NewEngine(style StyleResolver, events *Events, logger *log.Logger) (*Engine, error) {
	if style == nil {
		style = DefaultStyle()
	}
	if logger == nil {
		logger = log.Default()
	}
	painter, err := NewPainter()
	if err != nil {
		return nil, fmt.Errorf("canvas engine: %w", err)
	}

	metrics := NewMetrics(style, painter.Measure)
	tester := NewHitTester(style, metrics)
	dirty := NewRenderState()
	cache := NewContentCache()

	e := &Engine{
		style:    style,
		metrics:  metrics,
		tester:   tester,
		inter:    NewInteraction(style, metrics, tester, events, dirty),
		dirty:    dirty,
		cache:    cache,
		painter:  painter,
		renderer: NewRenderer(style, metrics, cache, painter, logger),
		events:   events,
		logger:   logger,
		tr:       NewTransform(),
	}
	e.g = graph.New()
	e.inter.Bind(e.g, e.cat, e.tr)
	return e, nil
}

// SetGraph replaces the document wholesale: every cache is rebuilt and
// per-node state dropped. The persisted view state becomes the camera.
func (e *Engine) SetGraph(g *graph.Graph) {
	if g == nil {
		g = graph.New()
	}
	e.g = g
	e.tr = NewTransform()
	e.tr.PanX = g.View.PanX
	e.tr.PanY = g.View.PanY
	e.tr.SetZoom(g.View.Zoom)
	e.metrics.Reset()
	e.cache.Purge()
	e.inter.Bind(e.g, e.cat, e.tr)
	e.dirty.MarkAll()
	e.logger.Info("graph replaced", "nodes", len(g.Nodes), "connections", len(g.Connections))
}

// SetCatalog swaps the node type catalog. The revision bump invalidates
// every metrics and content cache entry implicitly; gesture state is
// dropped because its hit may reference removed specs.
func (e *Engine) SetCatalog(cat *catalog.Catalog) {
	e.cat = cat
	e.metrics.Reset()
	e.cache.Purge()
	e.inter.Bind(e.g, e.cat, e.tr)
	e.dirty.MarkAll()
	if cat != nil {
		e.logger.Info("catalog replaced", "types", len(cat.Keys()), "revision", cat.Revision())
	}
}

// Graph returns the live document handle.
func (e *Engine) Graph() *graph.Graph { return e.g }

// Catalog returns the active catalog, possibly nil.
func (e *Engine) Catalog() *catalog.Catalog { return e.cat }

// Transform returns the camera.
func (e *Engine) Transform() *Transform { return e.tr }

// Interaction exposes the gesture machine for host key bindings.
func (e *Engine) Interaction() *Interaction { return e.inter }

// Invalidate marks one node dirty from the outside, for host-driven
// edits such as a committed rename.
func (e *Engine) Invalidate(nodeID string, structural bool) {
	if structural {
		e.metrics.Invalidate(nodeID)
		e.cache.Invalidate(nodeID)
	}
	e.dirty.MarkNode(nodeID, structural)
}

// SetLabel renames a node on behalf of the host rename UI.
func (e *Engine) SetLabel(nodeID, label string) {
	n := e.g.NodeByID(nodeID)
	if n == nil {
		return
	}
	n.Label = label
	if e.events != nil && e.events.LabelChanged != nil {
		e.events.LabelChanged(nodeID, label)
	}
	e.Invalidate(nodeID, true)
}

// NodeSize reports the laid-out extent of a node, for hosts that place
// or arrange nodes outside the gesture machine.
func (e *Engine) NodeSize(id string) (w, h float64, ok bool) {
	n := e.g.NodeByID(id)
	if n == nil || e.cat == nil {
		return 0, 0, false
	}
	spec, found := e.cat.Spec(n.Type)
	if !found {
		return 0, 0, false
	}
	nm, ok := e.metrics.For(n, spec, e.cat.Revision())
	if !ok {
		return 0, 0, false
	}
	return nm.Width, nm.Height, true
}

// HitTest resolves a screen point against the current document.
func (e *Engine) HitTest(screen Point) Hit {
	if e.cat == nil {
		return Hit{Kind: HitNone}
	}
	return e.tester.Test(screen, e.g, e.cat, e.tr)
}

// Update pumps pointer and wheel input into the gesture machine. Call
// once per tick from the host's update callback.
func (e *Engine) Update() {
	cx, cy := ebiten.CursorPosition()
	cursor := Point{X: float64(cx), Y: float64(cy)}
	mods := Modifiers{
		Multi:  ebiten.IsKeyPressed(ebiten.KeyShift),
		Fine:   ebiten.IsKeyPressed(ebiten.KeyAlt),
		Coarse: ebiten.IsKeyPressed(ebiten.KeyControl),
	}

	if _, dy := ebiten.Wheel(); dy != 0 {
		e.inter.Wheel(cursor, dy)
	}

	switch {
	case inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft):
		e.inter.PointerDown(cursor, ButtonPrimary, mods)
	case inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonMiddle):
		e.inter.PointerDown(cursor, ButtonMiddle, mods)
	case inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonRight):
		e.inter.PointerDown(cursor, ButtonSecondary, mods)
	case inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft),
		inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonMiddle),
		inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonRight):
		e.inter.PointerUp(cursor, mods)
	case cursor != e.lastCursor &&
		(ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) ||
			ebiten.IsMouseButtonPressed(ebiten.MouseButtonMiddle) ||
			ebiten.IsMouseButtonPressed(ebiten.MouseButtonRight)):
		e.inter.PointerMove(cursor, mods)
	}
	e.lastCursor = cursor

	e.pending = append(e.pending, e.inter.TakePending()...)
	e.syncViewState()
}

// syncViewState mirrors the camera back into the document so saves
// carry it.
func (e *Engine) syncViewState() {
	if e.g == nil {
		return
	}
	e.g.View.PanX = e.tr.PanX
	e.g.View.PanY = e.tr.PanY
	e.g.View.Zoom = e.tr.Zoom
}

// Draw paints the frame. Parameter completion signals are polled first,
// without blocking, so consumers that finished are observed before this
// paint; the rest are checked again next frame.
func (e *Engine) Draw(screen *ebiten.Image) {
	e.pollPending()
	if e.cat == nil {
		screen.Fill(e.style.Color("canvas.background", color.RGBA{R: 24, G: 26, B: 30, A: 255}))
		return
	}
	e.renderer.Frame(screen, e.g, e.cat, e.tr, e.dirty, e.inter)
}

func (e *Engine) pollPending() {
	if len(e.pending) == 0 {
		return
	}
	remained := e.pending[:0]
	for _, ch := range e.pending {
		select {
		case <-ch:
		default:
			remained = append(remained, ch)
		}
	}
	e.pending = remained
}
