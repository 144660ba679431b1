package graph

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Marshal encodes a document as YAML.
func Marshal(g *Graph) ([]byte, error) {
	b, err := yaml.Marshal(g)
	if err != nil {
		return nil, fmt.Errorf("marshal patch: %w", err)
	}
	return b, nil
}

// Unmarshal decodes a YAML document. A zero or negative stored zoom is
// normalized to 1 so a hand-edited file cannot wedge the view.
func Unmarshal(data []byte) (*Graph, error) {
	var g Graph
	if err := yaml.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("unmarshal patch: %w", err)
	}
	if g.View.Zoom <= 0 {
		g.View.Zoom = 1
	}
	g.byID = nil
	return &g, nil
}

// Save writes a document to disk.
func Save(g *Graph, path string) error {
	b, err := Marshal(g)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write patch %s: %w", path, err)
	}
	return nil
}

// Load reads a document from disk.
func Load(path string) (*Graph, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read patch %s: %w", path, err)
	}
	return Unmarshal(b)
}
