package canvas

import (
	"bytes"
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/gofont/goregular"
)

// Painter wraps the primitive drawing calls and the shared text faces.
type Painter struct {
	face  text.Face
	small text.Face
}

func NewPainter() (*Painter, error) {
	s, err := text.NewGoTextFaceSource(bytes.NewReader(goregular.TTF))
	if err != nil {
		return nil, fmt.Errorf("load font: %w", err)
	}
	return &Painter{
		face:  &text.GoTextFace{Source: s, Size: 13},
		small: &text.GoTextFace{Source: s, Size: 10},
	}, nil
}

// Measure reports label width at unit zoom, for the metrics calculator.
func (p *Painter) Measure(s string) float64 {
	return text.Advance(s, p.face)
}

func (p *Painter) Text(dst *ebiten.Image, s string, x, y float64, clr color.Color) {
	op := &text.DrawOptions{}
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleWithColor(clr)
	text.Draw(dst, s, p.face, op)
}

func (p *Painter) SmallText(dst *ebiten.Image, s string, x, y float64, clr color.Color) {
	op := &text.DrawOptions{}
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleWithColor(clr)
	text.Draw(dst, s, p.small, op)
}

// TextScaled draws with the glyphs scaled, for zoom-dependent overlays.
func (p *Painter) TextScaled(dst *ebiten.Image, s string, x, y, scale float64, clr color.Color) {
	op := &text.DrawOptions{}
	op.GeoM.Scale(scale, scale)
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleWithColor(clr)
	text.Draw(dst, s, p.face, op)
}

// SmallTextScaled is TextScaled in the small face.
func (p *Painter) SmallTextScaled(dst *ebiten.Image, s string, x, y, scale float64, clr color.Color) {
	op := &text.DrawOptions{}
	op.GeoM.Scale(scale, scale)
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleWithColor(clr)
	text.Draw(dst, s, p.small, op)
}

// SmallAdvance reports width in the small face, used for badge sizing.
func (p *Painter) SmallAdvance(s string) float64 {
	return text.Advance(s, p.small)
}

func (p *Painter) FillRect(dst *ebiten.Image, r Rect, clr color.Color) {
	vector.FillRect(dst, float32(r.X), float32(r.Y), float32(r.W), float32(r.H), clr, false)
}

func (p *Painter) StrokeRect(dst *ebiten.Image, r Rect, width float64, clr color.Color) {
	vector.StrokeRect(dst, float32(r.X), float32(r.Y), float32(r.W), float32(r.H), float32(width), clr, false)
}

func (p *Painter) Line(dst *ebiten.Image, a, b Point, width float64, clr color.Color) {
	vector.StrokeLine(dst, float32(a.X), float32(a.Y), float32(b.X), float32(b.Y), float32(width), clr, true)
}

func (p *Painter) FillCircle(dst *ebiten.Image, c Point, r float64, clr color.Color) {
	vector.FillCircle(dst, float32(c.X), float32(c.Y), float32(r), clr, true)
}

func (p *Painter) StrokeCircle(dst *ebiten.Image, c Point, r, width float64, clr color.Color) {
	vector.StrokeCircle(dst, float32(c.X), float32(c.Y), float32(r), float32(width), clr, true)
}

// Curve strokes a flattened cubic as a polyline.
func (p *Painter) Curve(dst *ebiten.Image, c Cubic, width float64, clr color.Color) {
	pts := c.Samples(c.DefaultSamples())
	for i := 0; i+1 < len(pts); i++ {
		p.Line(dst, pts[i], pts[i+1], width, clr)
	}
}

// DashedCurve strokes every other flattened segment, for the free end
// of an in-flight connection.
func (p *Painter) DashedCurve(dst *ebiten.Image, c Cubic, width float64, clr color.Color) {
	pts := c.Samples(c.DefaultSamples())
	for i := 0; i+1 < len(pts); i += 2 {
		p.Line(dst, pts[i], pts[i+1], width, clr)
	}
}
