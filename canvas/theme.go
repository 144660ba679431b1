package canvas

import "image/color"

// StyleResolver resolves symbolic style tokens to concrete colors and
// numbers. Every visual constant the engine draws with routes through
// one of these; the fallback is required and used when the token is
// unknown.
type StyleResolver interface {
	Color(token string, fallback color.RGBA) color.RGBA
	Metric(token string, fallback float64) float64
}

// StyleMap is a map-backed StyleResolver.
type StyleMap struct {
	Colors  map[string]color.RGBA
	Metrics map[string]float64
}

// Color resolves a color token.
func (s *StyleMap) Color(token string, fallback color.RGBA) color.RGBA {
	if s != nil {
		if c, ok := s.Colors[token]; ok {
			return c
		}
	}
	return fallback
}

// Metric resolves a numeric token.
func (s *StyleMap) Metric(token string, fallback float64) float64 {
	if s != nil {
		if v, ok := s.Metrics[token]; ok {
			return v
		}
	}
	return fallback
}

// DefaultStyle returns the stock dark theme.
func DefaultStyle() *StyleMap {
	return &StyleMap{
		Colors: map[string]color.RGBA{
			"canvas.background":    {0x1e, 0x1e, 0x24, 0xff},
			"canvas.grid":          {0x2c, 0x2c, 0x34, 0xff},
			"node.fill":            {0x34, 0x34, 0x40, 0xff},
			"node.fill.bottom":     {0x2a, 0x2a, 0x33, 0xff},
			"node.border":          {0x55, 0x55, 0x66, 0xff},
			"node.border.selected": {0xff, 0xa0, 0x30, 0xff},
			"node.header":          {0x40, 0x40, 0x52, 0xff},
			"node.label":           {0xe8, 0xe8, 0xf0, 0xff},
			"node.delete":          {0xd0, 0x40, 0x40, 0xff},
			"param.label":          {0xa8, 0xa8, 0xb8, 0xff},
			"param.value":          {0xe0, 0xe0, 0xe8, 0xff},
			"param.knob":           {0x60, 0x60, 0x78, 0xff},
			"param.knob.indicator": {0xff, 0xff, 0xff, 0xff},
			"param.track":          {0x48, 0x48, 0x58, 0xff},
			"param.handle":         {0xc8, 0xc8, 0xd8, 0xff},
			"port.float":           {0x7f, 0xc8, 0x7f, 0xff},
			"port.vec2":            {0x7f, 0xa8, 0xe8, 0xff},
			"port.vec3":            {0x5f, 0x8f, 0xe8, 0xff},
			"port.vec4":            {0x4f, 0x7f, 0xd8, 0xff},
			"port.color":           {0xe8, 0x8f, 0xd8, 0xff},
			"port.image":           {0xe8, 0xc8, 0x5f, 0xff},
			"connection":           {0x9f, 0x9f, 0xb8, 0xff},
			"connection.selected":  {0xff, 0xa0, 0x30, 0xff},
			"connection.live":      {0xcf, 0xcf, 0xe0, 0xff},
			"guide":                {0x30, 0xc0, 0xff, 0xc0},
			"rubberband":           {0x60, 0xa0, 0xff, 0x40},
			"rubberband.border":    {0x60, 0xa0, 0xff, 0xc0},
			"badge.fill":           {0x50, 0x50, 0x68, 0xff},
			"mode.button":          {0x80, 0x68, 0xd0, 0xff},
		},
		Metrics: map[string]float64{
			"node.min_width":      120,
			"node.header_height":  28,
			"node.corner_pad":     8,
			"cell.width":          110,
			"cell.height":         64,
			"cell.wide_min_width": 180,
			"range.min_width":     160,
			"range.track_height":  10,
			"knob.radius":         16,
			"port.radius":         6,
			"port.gap":            22,
			"port.hit_margin":     4,
			"mode.radius":         7,
			"delete.radius":       8,
			"wire.hit_px":         6,
			"drag.threshold_px":   5,
			"drag.sensitivity_px": 200,
			"guide.threshold_px":  6,
			"grid.spacing":        32,
			"cull.margin":         128,
			"badge.height":        14,
			"dirty.pad":           12,
			"dirty.pad_params":    20,
		},
	}
}
