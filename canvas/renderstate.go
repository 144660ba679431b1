package canvas

// Layer names the z-ordered passes of a frame.
type Layer int

const (
	LayerBackground Layer = iota
	LayerGrid
	LayerConnections
	LayerNodes
	LayerPorts
	LayerOverlays
	layerCount
)

// RenderState accumulates what changed since the last paint. Marking is
// idempotent: any number of marks before a frame coalesce into one
// paint. It is a scheduling hint, not a partial-blit ledger; the
// orchestrator still clears and redraws every layer.
type RenderState struct {
	frameWanted bool
	full        bool

	nodes       map[string]bool // true = structural/param change, false = move only
	connections map[string]bool
	layers      [layerCount]bool
	regions     []Rect
}

func NewRenderState() *RenderState {
	return &RenderState{
		nodes:       make(map[string]bool),
		connections: make(map[string]bool),
	}
}

// MarkAll forces a full redraw, swallowing finer marks.
func (s *RenderState) MarkAll() {
	s.full = true
	s.frameWanted = true
}

// MarkNode records a node needing redraw. structural marks widen the
// dirty padding because parameter affordances may extend past the body.
func (s *RenderState) MarkNode(id string, structural bool) {
	if structural {
		s.nodes[id] = true
	} else if !s.nodes[id] {
		s.nodes[id] = false
	}
	s.layers[LayerNodes] = true
	s.layers[LayerPorts] = true
	s.frameWanted = true
}

// MarkConnection records a connection needing redraw.
func (s *RenderState) MarkConnection(id string) {
	s.connections[id] = true
	s.layers[LayerConnections] = true
	s.frameWanted = true
}

// MarkLayer records a whole layer as dirty (overlays, grid).
func (s *RenderState) MarkLayer(l Layer) {
	if l >= 0 && l < layerCount {
		s.layers[l] = true
	}
	s.frameWanted = true
}

// MarkRegion adds an explicit dirty rectangle in canvas coordinates.
func (s *RenderState) MarkRegion(r Rect) {
	if r.W <= 0 || r.H <= 0 {
		return
	}
	s.regions = append(s.regions, r)
	s.frameWanted = true
}

// FrameWanted reports whether anything requested a paint.
func (s *RenderState) FrameWanted() bool { return s.frameWanted }

// Full reports whether fine-grained tracking was abandoned this frame.
func (s *RenderState) Full() bool { return s.full }

// DirtyNodes returns the marked node ids and whether each mark was
// structural.
func (s *RenderState) DirtyNodes() map[string]bool { return s.nodes }

// DirtyConnections returns the marked connection ids.
func (s *RenderState) DirtyConnections() map[string]bool { return s.connections }

// LayerDirty reports whether a layer was marked.
func (s *RenderState) LayerDirty(l Layer) bool {
	if l < 0 || l >= layerCount {
		return false
	}
	return s.layers[l]
}

// Regions returns the explicit dirty rectangles.
func (s *RenderState) Regions() []Rect { return s.regions }

// Clear resets all marks after a paint.
func (s *RenderState) Clear() {
	s.frameWanted = false
	s.full = false
	for k := range s.nodes {
		delete(s.nodes, k)
	}
	for k := range s.connections {
		delete(s.connections, k)
	}
	s.layers = [layerCount]bool{}
	s.regions = s.regions[:0]
}
