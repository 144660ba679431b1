package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type catalogFile struct {
	Types []*NodeSpec `yaml:"types"`
}

// Parse builds a catalog from YAML bytes, validating every spec.
func Parse(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	specs := make(map[string]*NodeSpec, len(file.Types))
	for _, s := range file.Types {
		if err := Validate(s); err != nil {
			return nil, err
		}
		if _, dup := specs[s.Key]; dup {
			return nil, fmt.Errorf("duplicate spec key %q", s.Key)
		}
		specs[s.Key] = s
	}
	return NewCatalog(specs), nil
}

// Load reads and parses a catalog file.
func Load(path string) (*Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return Parse(b)
}
