// Package catalog loads and validates the declarative node-type catalog
// consumed by the canvas engine. The catalog is read-only at runtime and
// replaceable wholesale; swapping it invalidates every derived cache.
package catalog

import (
	"fmt"
	"sort"
)

// PortType is the closed set of wire kinds.
type PortType string

const (
	PortFloat PortType = "float"
	PortVec2  PortType = "vec2"
	PortVec3  PortType = "vec3"
	PortVec4  PortType = "vec4"
	PortColor PortType = "color"
	PortImage PortType = "image"
)

var validPortTypes = map[PortType]bool{
	PortFloat: true,
	PortVec2:  true,
	PortVec3:  true,
	PortVec4:  true,
	PortColor: true,
	PortImage: true,
}

// ParamType is the declared shape of a parameter.
type ParamType string

const (
	ParamFloat  ParamType = "float"
	ParamInt    ParamType = "int"
	ParamVec2   ParamType = "vec2"
	ParamVec3   ParamType = "vec3"
	ParamString ParamType = "string"
	ParamFloats ParamType = "floats"
)

// PortSpec declares one named, typed connection point.
type PortSpec struct {
	Name string   `yaml:"name"`
	Type PortType `yaml:"type"`
}

// ParamSpec declares a parameter: its type, bounds, step grid, default
// value, display label, and optional enum labels for int selectors.
type ParamSpec struct {
	Type      ParamType `yaml:"type"`
	Min       float64   `yaml:"min"`
	Max       float64   `yaml:"max"`
	Step      float64   `yaml:"step"`
	Default   float64   `yaml:"default"`
	Label     string    `yaml:"label,omitempty"`
	InputMode string    `yaml:"input_mode,omitempty"`
	Options   []string  `yaml:"options,omitempty"`
	Length    int       `yaml:"length,omitempty"` // element count for floats params
}

// ParamGroup names a set of parameters laid out together with a divider
// above and below.
type ParamGroup struct {
	Name   string   `yaml:"name"`
	Params []string `yaml:"params"`
}

// LayoutHint optionally pins grid columns for a node type instead of
// letting the metrics calculator search for the best fit.
type LayoutHint struct {
	Columns  int     `yaml:"columns,omitempty"`
	MinWidth float64 `yaml:"min_width,omitempty"`
}

// NodeSpec declares one node type: ports, parameters, display metadata,
// and an optional preview expression for downstream consumers.
type NodeSpec struct {
	Key        string                `yaml:"key"`
	Label      string                `yaml:"label,omitempty"`
	Icon       string                `yaml:"icon,omitempty"`
	Inputs     []PortSpec            `yaml:"inputs,omitempty"`
	Outputs    []PortSpec            `yaml:"outputs,omitempty"`
	Params     map[string]*ParamSpec `yaml:"params,omitempty"`
	ParamOrder []string              `yaml:"param_order,omitempty"`
	Groups     []ParamGroup          `yaml:"groups,omitempty"`
	Layout     *LayoutHint           `yaml:"layout,omitempty"`
	Preview    string                `yaml:"preview,omitempty"`
}

// OrderedParams returns parameter names in declared order, falling back
// to a sorted order so layout is deterministic without a ParamOrder.
func (s *NodeSpec) OrderedParams() []string {
	if len(s.ParamOrder) > 0 {
		out := make([]string, 0, len(s.ParamOrder))
		for _, name := range s.ParamOrder {
			if _, ok := s.Params[name]; ok {
				out = append(out, name)
			}
		}
		return out
	}
	out := make([]string, 0, len(s.Params))
	for name := range s.Params {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Input returns the input port spec by name.
func (s *NodeSpec) Input(name string) (PortSpec, bool) {
	for _, p := range s.Inputs {
		if p.Name == name {
			return p, true
		}
	}
	return PortSpec{}, false
}

// Output returns the output port spec by name.
func (s *NodeSpec) Output(name string) (PortSpec, bool) {
	for _, p := range s.Outputs {
		if p.Name == name {
			return p, true
		}
	}
	return PortSpec{}, false
}

// Catalog is an immutable set of node specs plus a revision id that
// participates in every derived cache key.
type Catalog struct {
	specs    map[string]*NodeSpec
	revision uint64
}

var nextRevision uint64

// NewCatalog builds a catalog from validated specs.
func NewCatalog(specs map[string]*NodeSpec) *Catalog {
	nextRevision++
	return &Catalog{specs: specs, revision: nextRevision}
}

// Spec returns the node spec for a type key.
func (c *Catalog) Spec(key string) (*NodeSpec, bool) {
	if c == nil {
		return nil, false
	}
	s, ok := c.specs[key]
	return s, ok
}

// Keys returns every type key in sorted order.
func (c *Catalog) Keys() []string {
	keys := make([]string, 0, len(c.specs))
	for k := range c.specs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Revision identifies this catalog instance in cache keys.
func (c *Catalog) Revision() uint64 {
	if c == nil {
		return 0
	}
	return c.revision
}

// Validate checks a spec for contradictions that would otherwise only
// surface as broken layout at runtime.
func Validate(s *NodeSpec) error {
	if s.Key == "" {
		return fmt.Errorf("spec has no key")
	}
	for _, p := range append(append([]PortSpec{}, s.Inputs...), s.Outputs...) {
		if p.Name == "" {
			return fmt.Errorf("spec %s: unnamed port", s.Key)
		}
		if !validPortTypes[p.Type] {
			return fmt.Errorf("spec %s: port %s has unknown type %q", s.Key, p.Name, p.Type)
		}
	}
	for name, p := range s.Params {
		if p == nil {
			return fmt.Errorf("spec %s: param %s has no body", s.Key, name)
		}
		if p.Min > p.Max {
			return fmt.Errorf("spec %s: param %s: min %g > max %g", s.Key, name, p.Min, p.Max)
		}
		if p.Step < 0 {
			return fmt.Errorf("spec %s: param %s: negative step", s.Key, name)
		}
		if p.Type == ParamFloats && p.Length <= 0 {
			return fmt.Errorf("spec %s: param %s: floats param needs a length", s.Key, name)
		}
		switch p.InputMode {
		case "", "override", "add", "subtract", "multiply":
		default:
			return fmt.Errorf("spec %s: param %s has unknown input mode %q", s.Key, name, p.InputMode)
		}
		switch p.Type {
		case ParamFloat, ParamInt, ParamVec2, ParamVec3, ParamString, ParamFloats:
		default:
			return fmt.Errorf("spec %s: param %s has unknown type %q", s.Key, name, p.Type)
		}
	}
	for _, g := range s.Groups {
		for _, name := range g.Params {
			if _, ok := s.Params[name]; !ok {
				return fmt.Errorf("spec %s: group %s references unknown param %s", s.Key, g.Name, name)
			}
		}
	}
	if s.Layout != nil && (s.Layout.Columns < 0 || s.Layout.Columns > 4) {
		return fmt.Errorf("spec %s: layout columns out of range", s.Key)
	}
	return nil
}
