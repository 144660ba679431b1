package canvas

import (
	"strings"

	"github.com/milk9111/patchbay/catalog"
)

// Archetype is the UI control shape chosen for a parameter or group of
// parameters. Classification is structural — names, types, and bounds —
// never current values, and runs once per catalog revision.
type Archetype int

const (
	ArchToggle Archetype = iota
	ArchKnob
	ArchVec2
	ArchVec3
	ArchEnum
	ArchRangePair
	ArchFreqBand
	ArchCurve
	ArchColor
	ArchText
	ArchList
)

func (a Archetype) String() string {
	switch a {
	case ArchToggle:
		return "toggle"
	case ArchKnob:
		return "knob"
	case ArchVec2:
		return "vec2"
	case ArchVec3:
		return "vec3"
	case ArchEnum:
		return "enum"
	case ArchRangePair:
		return "range-pair"
	case ArchFreqBand:
		return "freq-band"
	case ArchCurve:
		return "curve"
	case ArchColor:
		return "color"
	case ArchText:
		return "text"
	case ArchList:
		return "list"
	default:
		return "unknown"
	}
}

// Wide reports whether the archetype needs a full-width row instead of
// one grid cell.
func (a Archetype) Wide() bool {
	switch a {
	case ArchRangePair, ArchFreqBand, ArchCurve, ArchList:
		return true
	}
	return false
}

// Control is one classified UI control. Params lists the parameter
// names it edits: one for simple controls, two for range pairs, four
// for curve editors (x1, y1, x2, y2 in that order).
type Control struct {
	Archetype Archetype
	Params    []string
	Group     string
}

// curveQuad is the parameter-name pattern identifying an embedded curve
// editor: two control points as x1,y1,x2,y2.
var curveQuad = [4]string{"x1", "y1", "x2", "y2"}

// ClassifySpec derives the control list for a node spec. Group members
// are classified within their group; ungrouped parameters follow in
// declared order. The result is deterministic for a given spec.
func ClassifySpec(spec *catalog.NodeSpec) []Control {
	var controls []Control

	grouped := make(map[string]bool)
	for _, g := range spec.Groups {
		for _, p := range g.Params {
			grouped[p] = true
		}
	}

	for _, g := range spec.Groups {
		controls = append(controls, classifyNames(spec, g.Params, g.Name)...)
	}

	var loose []string
	for _, name := range spec.OrderedParams() {
		if !grouped[name] {
			loose = append(loose, name)
		}
	}
	controls = append(controls, classifyNames(spec, loose, "")...)
	return controls
}

// classifyNames pattern-matches a parameter name list into controls,
// consuming multi-parameter shapes (curve quads, range pairs) before
// falling back to single-parameter archetypes.
func classifyNames(spec *catalog.NodeSpec, names []string, group string) []Control {
	var out []Control
	used := make(map[string]bool, len(names))

	if quad, ok := matchCurveQuad(spec, names); ok {
		out = append(out, Control{Archetype: ArchCurve, Params: quad[:], Group: group})
		for _, n := range quad {
			used[n] = true
		}
	}

	for _, name := range names {
		if used[name] {
			continue
		}
		if partner, freq, ok := matchRangePartner(spec, names, name, used); ok {
			arch := ArchRangePair
			if freq {
				arch = ArchFreqBand
			}
			out = append(out, Control{Archetype: arch, Params: []string{name, partner}, Group: group})
			used[name] = true
			used[partner] = true
			continue
		}
		out = append(out, Control{Archetype: classifySingle(spec.Params[name]), Params: []string{name}, Group: group})
		used[name] = true
	}
	return out
}

// matchCurveQuad finds the x1,y1,x2,y2 float quad if all four are
// present in the name list with unit bounds.
func matchCurveQuad(spec *catalog.NodeSpec, names []string) ([4]string, bool) {
	present := make(map[string]bool, len(names))
	for _, n := range names {
		present[n] = true
	}
	for _, want := range curveQuad {
		if !present[want] {
			return [4]string{}, false
		}
		p, ok := spec.Params[want]
		if !ok || p == nil || p.Type != catalog.ParamFloat {
			return [4]string{}, false
		}
	}
	return curveQuad, true
}

// matchRangePartner detects min/max and lo/hi float pairs sharing a
// base name. Pairs whose base mentions frequency map to the log-scale
// band editor.
func matchRangePartner(spec *catalog.NodeSpec, names []string, name string, used map[string]bool) (partner string, freq bool, ok bool) {
	suffixes := [][2]string{{"_min", "_max"}, {"min", "max"}, {"_lo", "_hi"}, {"lo", "hi"}}
	p, exists := spec.Params[name]
	if !exists || p == nil || (p.Type != catalog.ParamFloat && p.Type != catalog.ParamInt) {
		return "", false, false
	}
	for _, sfx := range suffixes {
		if !strings.HasSuffix(name, sfx[0]) {
			continue
		}
		base := strings.TrimSuffix(name, sfx[0])
		want := base + sfx[1]
		if used[want] {
			continue
		}
		for _, other := range names {
			if other != want {
				continue
			}
			op, ok := spec.Params[other]
			if !ok || op == nil || op.Type != p.Type {
				continue
			}
			isFreq := strings.Contains(strings.ToLower(base), "freq") ||
				strings.Contains(strings.ToLower(base), "band")
			return other, isFreq, true
		}
	}
	return "", false, false
}

func classifySingle(p *catalog.ParamSpec) Archetype {
	if p == nil {
		return ArchKnob
	}
	switch p.Type {
	case catalog.ParamString:
		if len(p.Options) > 0 {
			return ArchEnum
		}
		return ArchText
	case catalog.ParamFloats:
		return ArchList
	case catalog.ParamVec2:
		return ArchVec2
	case catalog.ParamVec3:
		if isColorBounds(p) {
			return ArchColor
		}
		return ArchVec3
	case catalog.ParamInt:
		if len(p.Options) > 0 {
			return ArchEnum
		}
		if p.Min == 0 && p.Max == 1 {
			return ArchToggle
		}
		return ArchKnob
	default:
		return ArchKnob
	}
}

// isColorBounds treats a [0,1]-bounded vec3 whose label mentions color
// as a color picker rather than a generic vector editor.
func isColorBounds(p *catalog.ParamSpec) bool {
	if p.Min != 0 || p.Max != 1 {
		return false
	}
	l := strings.ToLower(p.Label)
	return strings.Contains(l, "color") || strings.Contains(l, "colour") || strings.Contains(l, "tint")
}
