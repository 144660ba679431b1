package canvas

// Transform maps between screen pixels and the infinite canvas. Pan is
// a screen-pixel offset applied after zoom; origin is the top-left of
// the canvas area within the window.
type Transform struct {
	PanX, PanY float64
	Zoom       float64

	OriginX, OriginY float64
	MinZoom, MaxZoom float64
}

// NewTransform returns an identity transform with the default zoom
// clamp range.
func NewTransform() *Transform {
	return &Transform{Zoom: 1, MinZoom: 0.1, MaxZoom: 10}
}

// ScreenToCanvas maps a screen point into canvas coordinates.
func (t *Transform) ScreenToCanvas(p Point) Point {
	z := t.zoom()
	return Point{
		X: (p.X - t.OriginX - t.PanX) / z,
		Y: (p.Y - t.OriginY - t.PanY) / z,
	}
}

// CanvasToScreen maps a canvas point into screen coordinates.
func (t *Transform) CanvasToScreen(p Point) Point {
	z := t.zoom()
	return Point{
		X: p.X*z + t.PanX + t.OriginX,
		Y: p.Y*z + t.PanY + t.OriginY,
	}
}

// CanvasRectToScreen maps a canvas rectangle into screen coordinates.
func (t *Transform) CanvasRectToScreen(r Rect) Rect {
	z := t.zoom()
	tl := t.CanvasToScreen(Point{r.X, r.Y})
	return Rect{X: tl.X, Y: tl.Y, W: r.W * z, H: r.H * z}
}

// SetZoom clamps and stores a zoom factor. Non-positive values clamp to
// the minimum instead of propagating.
func (t *Transform) SetZoom(z float64) {
	t.Zoom = clamp(z, t.minZoom(), t.maxZoom())
}

// ZoomAround changes zoom while keeping the canvas point under the
// screen point p fixed: pan' = p - (p - pan) * (zoom'/zoom).
func (t *Transform) ZoomAround(p Point, newZoom float64) {
	old := t.zoom()
	t.SetZoom(newZoom)
	ratio := t.Zoom / old
	lx := p.X - t.OriginX
	ly := p.Y - t.OriginY
	t.PanX = lx - (lx-t.PanX)*ratio
	t.PanY = ly - (ly-t.PanY)*ratio
}

// PanBy shifts the view by a screen-pixel delta.
func (t *Transform) PanBy(dx, dy float64) {
	t.PanX += dx
	t.PanY += dy
}

func (t *Transform) zoom() float64 {
	if t.Zoom <= 0 {
		t.Zoom = t.minZoom()
	}
	return t.Zoom
}

func (t *Transform) minZoom() float64 {
	if t.MinZoom <= 0 {
		return 0.1
	}
	return t.MinZoom
}

func (t *Transform) maxZoom() float64 {
	if t.MaxZoom <= 0 {
		return 10
	}
	return t.MaxZoom
}
