package main

import (
	"fmt"

	"github.com/google/uuid"
	"golang.design/x/clipboard"
	"gopkg.in/yaml.v3"

	"github.com/milk9111/patchbay/graph"
)

// pasteOffset shifts pasted nodes so they never land exactly on top of
// the originals.
const pasteOffset = 24

// clipboardPayload is the YAML document written to the system clipboard
// on copy. Connections are included only when both ends are selected.
type clipboardPayload struct {
	Nodes       []*graph.Node       `yaml:"nodes"`
	Connections []*graph.Connection `yaml:"connections,omitempty"`
}

// copySelection serializes the selected nodes to the clipboard. It
// returns the node count so the caller can log or skip empty copies.
func copySelection(g *graph.Graph) (int, error) {
	sel := g.SelectedNodes()
	if len(sel) == 0 {
		return 0, nil
	}
	selected := make(map[string]bool, len(sel))
	payload := clipboardPayload{Nodes: make([]*graph.Node, 0, len(sel))}
	for _, n := range sel {
		selected[n.ID] = true
		payload.Nodes = append(payload.Nodes, cloneNode(n))
	}
	for _, c := range g.Connections {
		if selected[c.SourceNode] && selected[c.TargetNode] {
			cc := *c
			payload.Connections = append(payload.Connections, &cc)
		}
	}
	b, err := yaml.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("encode clipboard: %w", err)
	}
	clipboard.Write(clipboard.FmtText, b)
	return len(sel), nil
}

// pasteClipboard decodes a copied payload into the document. Every node
// and connection gets a freshly minted id so pasting twice yields two
// independent copies, and the pasted nodes become the selection.
func pasteClipboard(g *graph.Graph) ([]string, error) {
	b := clipboard.Read(clipboard.FmtText)
	if len(b) == 0 {
		return nil, nil
	}
	var payload clipboardPayload
	if err := yaml.Unmarshal(b, &payload); err != nil {
		return nil, fmt.Errorf("decode clipboard: %w", err)
	}

	remap := make(map[string]string, len(payload.Nodes))
	ids := make([]string, 0, len(payload.Nodes))
	for _, n := range payload.Nodes {
		nn := cloneNode(n)
		nn.ID = uuid.NewString()
		nn.X += pasteOffset
		nn.Y += pasteOffset
		remap[n.ID] = nn.ID
		g.AddNode(nn)
		ids = append(ids, nn.ID)
	}
	for _, c := range payload.Connections {
		src, okSrc := remap[c.SourceNode]
		dst, okDst := remap[c.TargetNode]
		if !okSrc || !okDst {
			continue
		}
		nc := *c
		nc.ID = uuid.NewString()
		nc.SourceNode = src
		nc.TargetNode = dst
		g.Connect(&nc)
	}
	if len(ids) > 0 {
		g.SetSelection(ids)
	}
	return ids, nil
}

// cloneNode deep-copies a node so the payload never aliases live maps.
func cloneNode(n *graph.Node) *graph.Node {
	c := *n
	if n.Params != nil {
		c.Params = make(map[string]graph.Value, len(n.Params))
		for k, v := range n.Params {
			c.Params[k] = v.Clone()
		}
	}
	if n.Modes != nil {
		c.Modes = make(map[string]graph.InputMode, len(n.Modes))
		for k, v := range n.Modes {
			c.Modes[k] = v
		}
	}
	return &c
}
