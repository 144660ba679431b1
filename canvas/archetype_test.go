package canvas

import (
	"testing"

	"github.com/milk9111/patchbay/catalog"
)

func specWithParams(params map[string]*catalog.ParamSpec, order []string) *catalog.NodeSpec {
	return &catalog.NodeSpec{Key: "t", Params: params, ParamOrder: order}
}

func TestClassifySingleArchetypes(t *testing.T) {
	cases := []struct {
		name  string
		param *catalog.ParamSpec
		want  Archetype
	}{
		{"bounded_float_is_knob", &catalog.ParamSpec{Type: catalog.ParamFloat, Min: 0, Max: 10}, ArchKnob},
		{"zero_one_int_is_toggle", &catalog.ParamSpec{Type: catalog.ParamInt, Min: 0, Max: 1, Step: 1}, ArchToggle},
		{"int_with_options_is_enum", &catalog.ParamSpec{Type: catalog.ParamInt, Min: 0, Max: 3, Options: []string{"a", "b", "c", "d"}}, ArchEnum},
		{"string_is_text", &catalog.ParamSpec{Type: catalog.ParamString}, ArchText},
		{"floats_is_list", &catalog.ParamSpec{Type: catalog.ParamFloats, Length: 8}, ArchList},
		{"vec2", &catalog.ParamSpec{Type: catalog.ParamVec2}, ArchVec2},
		{"vec3", &catalog.ParamSpec{Type: catalog.ParamVec3, Min: -1, Max: 1}, ArchVec3},
		{"unit_vec3_labeled_color", &catalog.ParamSpec{Type: catalog.ParamVec3, Min: 0, Max: 1, Label: "Tint Color"}, ArchColor},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			spec := specWithParams(map[string]*catalog.ParamSpec{"p": c.param}, []string{"p"})
			controls := ClassifySpec(spec)
			if len(controls) != 1 {
				t.Fatalf("expected one control, got %d", len(controls))
			}
			if controls[0].Archetype != c.want {
				t.Fatalf("expected %v, got %v", c.want, controls[0].Archetype)
			}
		})
	}
}

func TestClassifyCurveQuad(t *testing.T) {
	f := &catalog.ParamSpec{Type: catalog.ParamFloat, Min: 0, Max: 1, Step: 0.01}
	spec := specWithParams(map[string]*catalog.ParamSpec{
		"x1": f, "y1": f, "x2": f, "y2": f, "amount": {Type: catalog.ParamFloat, Min: 0, Max: 2},
	}, []string{"x1", "y1", "x2", "y2", "amount"})

	controls := ClassifySpec(spec)
	if len(controls) != 2 {
		t.Fatalf("expected curve + knob, got %d controls", len(controls))
	}
	if controls[0].Archetype != ArchCurve {
		t.Fatalf("expected curve first, got %v", controls[0].Archetype)
	}
	if got := controls[0].Params; len(got) != 4 || got[0] != "x1" || got[3] != "y2" {
		t.Fatalf("expected curve params [x1 y1 x2 y2], got %v", got)
	}
	if controls[1].Archetype != ArchKnob {
		t.Fatalf("expected trailing knob, got %v", controls[1].Archetype)
	}
}

func TestClassifyRangePairs(t *testing.T) {
	f := &catalog.ParamSpec{Type: catalog.ParamFloat, Min: 0, Max: 100}
	cases := []struct {
		name   string
		params []string
		want   Archetype
	}{
		{"min_max_suffix", []string{"size_min", "size_max"}, ArchRangePair},
		{"lo_hi_suffix", []string{"gain_lo", "gain_hi"}, ArchRangePair},
		{"freq_pair_is_band", []string{"freq_lo", "freq_hi"}, ArchFreqBand},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			params := make(map[string]*catalog.ParamSpec)
			for _, p := range c.params {
				params[p] = f
			}
			spec := specWithParams(params, c.params)
			controls := ClassifySpec(spec)
			if len(controls) != 1 {
				t.Fatalf("expected one pair control, got %d: %+v", len(controls), controls)
			}
			if controls[0].Archetype != c.want {
				t.Fatalf("expected %v, got %v", c.want, controls[0].Archetype)
			}
			if len(controls[0].Params) != 2 {
				t.Fatalf("expected two params, got %v", controls[0].Params)
			}
		})
	}
}

func TestClassifyUnpairedMinStaysKnob(t *testing.T) {
	spec := specWithParams(map[string]*catalog.ParamSpec{
		"size_min": {Type: catalog.ParamFloat, Min: 0, Max: 10},
	}, []string{"size_min"})
	controls := ClassifySpec(spec)
	if len(controls) != 1 || controls[0].Archetype != ArchKnob {
		t.Fatalf("expected lone knob, got %+v", controls)
	}
}

func TestClassifyGroupsKeepMembership(t *testing.T) {
	f := &catalog.ParamSpec{Type: catalog.ParamFloat, Min: 0, Max: 1}
	spec := &catalog.NodeSpec{
		Key: "t",
		Params: map[string]*catalog.ParamSpec{
			"x1": f, "y1": f, "x2": f, "y2": f, "mix": f,
		},
		ParamOrder: []string{"x1", "y1", "x2", "y2", "mix"},
		Groups:     []catalog.ParamGroup{{Name: "shape", Params: []string{"x1", "y1", "x2", "y2"}}},
	}
	controls := ClassifySpec(spec)
	if len(controls) != 2 {
		t.Fatalf("expected 2 controls, got %d", len(controls))
	}
	if controls[0].Group != "shape" || controls[0].Archetype != ArchCurve {
		t.Fatalf("expected grouped curve, got %+v", controls[0])
	}
	if controls[1].Group != "" {
		t.Fatalf("expected loose mix param, got %+v", controls[1])
	}
}
