package graph

import "github.com/google/uuid"

// Connection is a directed wire from an output port to either an input
// port or a numeric parameter on another node. Exactly one of TargetPort
// and TargetParam is set.
type Connection struct {
	ID          string `yaml:"id"`
	SourceNode  string `yaml:"source_node"`
	SourcePort  string `yaml:"source_port"`
	TargetNode  string `yaml:"target_node"`
	TargetPort  string `yaml:"target_port,omitempty"`
	TargetParam string `yaml:"target_param,omitempty"`
}

// NewPortConnection wires an output port to an input port.
func NewPortConnection(srcNode, srcPort, dstNode, dstPort string) *Connection {
	return &Connection{
		ID:         uuid.NewString(),
		SourceNode: srcNode,
		SourcePort: srcPort,
		TargetNode: dstNode,
		TargetPort: dstPort,
	}
}

// NewParamConnection wires an output port to a numeric parameter.
func NewParamConnection(srcNode, srcPort, dstNode, param string) *Connection {
	return &Connection{
		ID:          uuid.NewString(),
		SourceNode:  srcNode,
		SourcePort:  srcPort,
		TargetNode:  dstNode,
		TargetParam: param,
	}
}

// IsParam reports whether the connection targets a parameter rather
// than an input port.
func (c *Connection) IsParam() bool {
	return c.TargetParam != ""
}

// SameTarget reports whether two connections occupy the same target
// endpoint. At most one connection may occupy an endpoint at a time.
func (c *Connection) SameTarget(other *Connection) bool {
	return c.TargetNode == other.TargetNode &&
		c.TargetPort == other.TargetPort &&
		c.TargetParam == other.TargetParam
}

// Touches reports whether the connection references the node id on
// either end.
func (c *Connection) Touches(nodeID string) bool {
	return c.SourceNode == nodeID || c.TargetNode == nodeID
}
