// Package assets embeds the default node catalog and the starter patch
// so the editor runs without any files on disk.
package assets

import (
	"embed"
	"fmt"

	"github.com/milk9111/patchbay/catalog"
	"github.com/milk9111/patchbay/graph"
)

//go:embed *.yaml
var assetsFS embed.FS

// DefaultCatalogBytes returns the raw embedded catalog YAML.
func DefaultCatalogBytes() []byte {
	b, err := assetsFS.ReadFile("catalog.yaml")
	if err != nil {
		panic(fmt.Sprintf("embed: read catalog.yaml: %v", err))
	}
	return b
}

// DefaultCatalog parses the embedded catalog.
func DefaultCatalog() (*catalog.Catalog, error) {
	return catalog.Parse(DefaultCatalogBytes())
}

// DemoPatch parses the embedded starter patch.
func DemoPatch() (*graph.Graph, error) {
	b, err := assetsFS.ReadFile("demo.yaml")
	if err != nil {
		return nil, fmt.Errorf("embed: read demo.yaml: %w", err)
	}
	return graph.Unmarshal(b)
}
