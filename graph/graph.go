package graph

// ViewState is the persisted camera and selection for a document.
type ViewState struct {
	PanX      float64  `yaml:"pan_x"`
	PanY      float64  `yaml:"pan_y"`
	Zoom      float64  `yaml:"zoom"`
	Selection []string `yaml:"selection,omitempty"`
}

// Graph is the patch document: nodes in draw order (topmost last),
// connections, and the persisted view state.
type Graph struct {
	Nodes       []*Node       `yaml:"nodes"`
	Connections []*Connection `yaml:"connections,omitempty"`
	View        ViewState     `yaml:"view"`

	byID map[string]*Node
}

// New creates an empty document with a unit zoom view.
func New() *Graph {
	return &Graph{
		View: ViewState{Zoom: 1},
		byID: make(map[string]*Node),
	}
}

func (g *Graph) index() map[string]*Node {
	if g.byID == nil {
		g.byID = make(map[string]*Node, len(g.Nodes))
		for _, n := range g.Nodes {
			g.byID[n.ID] = n
		}
	}
	return g.byID
}

// NodeByID returns the node with the given id, or nil.
func (g *Graph) NodeByID(id string) *Node {
	return g.index()[id]
}

// AddNode appends a node on top of the draw order.
func (g *Graph) AddNode(n *Node) *Node {
	g.Nodes = append(g.Nodes, n)
	g.index()[n.ID] = n
	return n
}

// RemoveNode deletes a node and every connection touching it. It
// returns the removed connections so the caller can emit events, and
// false if the id is unknown.
func (g *Graph) RemoveNode(id string) ([]*Connection, bool) {
	idx := -1
	for i, n := range g.Nodes {
		if n.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, false
	}
	g.Nodes = append(g.Nodes[:idx], g.Nodes[idx+1:]...)
	delete(g.index(), id)

	var removed []*Connection
	kept := g.Connections[:0]
	for _, c := range g.Connections {
		if c.Touches(id) {
			removed = append(removed, c)
		} else {
			kept = append(kept, c)
		}
	}
	g.Connections = kept
	g.Deselect(id)
	return removed, true
}

// MoveNode sets a node's canvas position.
func (g *Graph) MoveNode(id string, x, y float64) bool {
	n := g.NodeByID(id)
	if n == nil {
		return false
	}
	n.X, n.Y = x, y
	return true
}

// Connect installs a connection, first removing any connection that
// already occupies the same target endpoint. The displaced connection
// is returned so the caller can emit a removal event. The two removals
// and the insert happen atomically from the caller's point of view.
func (g *Graph) Connect(c *Connection) (displaced *Connection) {
	for i, old := range g.Connections {
		if old.SameTarget(c) {
			displaced = old
			g.Connections = append(g.Connections[:i], g.Connections[i+1:]...)
			break
		}
	}
	g.Connections = append(g.Connections, c)
	return displaced
}

// Disconnect removes a connection by id.
func (g *Graph) Disconnect(id string) (*Connection, bool) {
	for i, c := range g.Connections {
		if c.ID == id {
			g.Connections = append(g.Connections[:i], g.Connections[i+1:]...)
			return c, true
		}
	}
	return nil, false
}

// ConnectionAt returns the connection occupying the target endpoint
// (port name or parameter name on a node), or nil.
func (g *Graph) ConnectionAt(nodeID, port, param string) *Connection {
	for _, c := range g.Connections {
		if c.TargetNode == nodeID && c.TargetPort == port && c.TargetParam == param {
			return c
		}
	}
	return nil
}

// ParamConnections returns the connections driving parameters of a node.
func (g *Graph) ParamConnections(nodeID string) []*Connection {
	var out []*Connection
	for _, c := range g.Connections {
		if c.TargetNode == nodeID && c.IsParam() {
			out = append(out, c)
		}
	}
	return out
}

// IsSelected reports whether a node id is in the selection.
func (g *Graph) IsSelected(id string) bool {
	for _, s := range g.View.Selection {
		if s == id {
			return true
		}
	}
	return false
}

// Select replaces or extends the selection.
func (g *Graph) Select(id string, add bool) {
	if !add {
		g.View.Selection = g.View.Selection[:0]
	}
	if !g.IsSelected(id) {
		g.View.Selection = append(g.View.Selection, id)
	}
}

// Deselect removes one id from the selection.
func (g *Graph) Deselect(id string) {
	for i, s := range g.View.Selection {
		if s == id {
			g.View.Selection = append(g.View.Selection[:i], g.View.Selection[i+1:]...)
			return
		}
	}
}

// ClearSelection empties the selection.
func (g *Graph) ClearSelection() {
	g.View.Selection = g.View.Selection[:0]
}

// SetSelection replaces the selection wholesale.
func (g *Graph) SetSelection(ids []string) {
	g.View.Selection = append(g.View.Selection[:0], ids...)
}

// SelectedNodes returns the selected nodes in draw order.
func (g *Graph) SelectedNodes() []*Node {
	var out []*Node
	for _, n := range g.Nodes {
		if g.IsSelected(n.ID) {
			out = append(out, n)
		}
	}
	return out
}
