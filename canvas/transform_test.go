package canvas

import (
	"math"
	"testing"
)

func TestScreenCanvasRoundTrip(t *testing.T) {
	cases := []struct {
		name       string
		zoom       float64
		panX, panY float64
	}{
		{"identity", 1, 0, 0},
		{"zoomed_in", 2.5, -40, 12},
		{"zoomed_out", 0.1, 300, -75},
		{"max_zoom", 10, 9999, -9999},
	}

	points := []Point{{0, 0}, {100, 50}, {-321.5, 77.25}, {1e4, -1e4}}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			tr := NewTransform()
			tr.SetZoom(c.zoom)
			tr.PanX, tr.PanY = c.panX, c.panY
			for _, p := range points {
				got := tr.CanvasToScreen(tr.ScreenToCanvas(p))
				if math.Abs(got.X-p.X) > 1e-9 || math.Abs(got.Y-p.Y) > 1e-9 {
					t.Fatalf("round trip of %v gave %v", p, got)
				}
			}
		})
	}
}

func TestZoomAroundKeepsPointFixed(t *testing.T) {
	cases := []struct {
		name     string
		from, to float64
	}{
		{"zoom_in", 1, 2},
		{"zoom_out", 1, 0.5},
		{"deep", 0.25, 8},
	}

	anchor := Point{100, 50}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			tr := NewTransform()
			tr.SetZoom(c.from)
			tr.PanX, tr.PanY = 33, -7
			before := tr.ScreenToCanvas(anchor)
			tr.ZoomAround(anchor, c.to)
			after := tr.ScreenToCanvas(anchor)
			if math.Abs(before.X-after.X) > 1e-9 || math.Abs(before.Y-after.Y) > 1e-9 {
				t.Fatalf("anchor moved from %v to %v", before, after)
			}
			if tr.Zoom != c.to {
				t.Fatalf("expected zoom %v, got %v", c.to, tr.Zoom)
			}
		})
	}
}

func TestIdentityTransformScenario(t *testing.T) {
	tr := NewTransform()
	got := tr.ScreenToCanvas(Point{100, 50})
	if got.X != 100 || got.Y != 50 {
		t.Fatalf("expected (100,50), got %v", got)
	}
	tr.ZoomAround(Point{100, 50}, 2)
	after := tr.ScreenToCanvas(Point{100, 50})
	if math.Abs(after.X-100) > 1e-9 || math.Abs(after.Y-50) > 1e-9 {
		t.Fatalf("expected fixed point (100,50), got %v", after)
	}
}

func TestZoomClampNeverPropagatesInvalid(t *testing.T) {
	tr := NewTransform()
	tr.SetZoom(-3)
	if tr.Zoom != 0.1 {
		t.Fatalf("expected clamp to 0.1, got %v", tr.Zoom)
	}
	tr.SetZoom(0)
	if tr.Zoom != 0.1 {
		t.Fatalf("expected clamp to 0.1, got %v", tr.Zoom)
	}
	tr.SetZoom(1000)
	if tr.Zoom != 10 {
		t.Fatalf("expected clamp to 10, got %v", tr.Zoom)
	}
}
