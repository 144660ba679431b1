package canvas

import (
	"github.com/milk9111/patchbay/catalog"
	"github.com/milk9111/patchbay/graph"
)

// Events carries the host callbacks the engine notifies as the user
// edits the document. Any field may be nil. ParameterChanged may return
// a completion channel; the orchestrator checks it before the next
// paint so downstream consumers observe a consistent view.
type Events struct {
	NodeMoved                 func(id string, x, y float64)
	SelectionChanged          func(ids []string, multi bool)
	ConnectionCreated         func(c *graph.Connection)
	ConnectionRemoved         func(id string)
	ParameterChanged          func(nodeID, param string, value graph.Value) <-chan struct{}
	ParameterInputModeChanged func(nodeID, param string, mode graph.InputMode)
	LabelChanged              func(nodeID, label string)
	LabelEditRequested        func(nodeID string, screenBounds Rect)
	TypeBadgeClicked          func(portType catalog.PortType, screenX, screenY float64, labelBounds Rect)
}

func (e *Events) nodeMoved(id string, x, y float64) {
	if e != nil && e.NodeMoved != nil {
		e.NodeMoved(id, x, y)
	}
}

func (e *Events) selectionChanged(ids []string, multi bool) {
	if e != nil && e.SelectionChanged != nil {
		e.SelectionChanged(ids, multi)
	}
}

func (e *Events) connectionCreated(c *graph.Connection) {
	if e != nil && e.ConnectionCreated != nil {
		e.ConnectionCreated(c)
	}
}

func (e *Events) connectionRemoved(id string) {
	if e != nil && e.ConnectionRemoved != nil {
		e.ConnectionRemoved(id)
	}
}

func (e *Events) parameterChanged(nodeID, param string, v graph.Value) <-chan struct{} {
	if e != nil && e.ParameterChanged != nil {
		return e.ParameterChanged(nodeID, param, v)
	}
	return nil
}

func (e *Events) inputModeChanged(nodeID, param string, mode graph.InputMode) {
	if e != nil && e.ParameterInputModeChanged != nil {
		e.ParameterInputModeChanged(nodeID, param, mode)
	}
}

func (e *Events) labelChanged(nodeID, label string) {
	if e != nil && e.LabelChanged != nil {
		e.LabelChanged(nodeID, label)
	}
}

func (e *Events) labelEditRequested(nodeID string, bounds Rect) {
	if e != nil && e.LabelEditRequested != nil {
		e.LabelEditRequested(nodeID, bounds)
	}
}

func (e *Events) typeBadgeClicked(pt catalog.PortType, x, y float64, bounds Rect) {
	if e != nil && e.TypeBadgeClicked != nil {
		e.TypeBadgeClicked(pt, x, y, bounds)
	}
}
