package canvas

import "math"

// Cubic is a cubic Bezier segment in canvas coordinates.
type Cubic struct {
	P0, P1, P2, P3 Point
}

// WireCubic routes a connection wire between two port centers. Control
// points extend horizontally from each endpoint so wires leave ports
// flat, with the reach growing with distance but capped so short wires
// stay tight.
func WireCubic(from, to Point) Cubic {
	dx := math.Abs(to.X - from.X)
	reach := clamp(dx*0.5, 24, 160)
	return Cubic{
		P0: from,
		P1: Point{X: from.X + reach, Y: from.Y},
		P2: Point{X: to.X - reach, Y: to.Y},
		P3: to,
	}
}

// At evaluates the curve at t in [0,1].
func (c Cubic) At(t float64) Point {
	u := 1 - t
	b0 := u * u * u
	b1 := 3 * u * u * t
	b2 := 3 * u * t * t
	b3 := t * t * t
	return Point{
		X: b0*c.P0.X + b1*c.P1.X + b2*c.P2.X + b3*c.P3.X,
		Y: b0*c.P0.Y + b1*c.P1.Y + b2*c.P2.Y + b3*c.P3.Y,
	}
}

// Bounds is the control-polygon bounding box. It always contains the
// curve, which is all dirty-region accounting needs.
func (c Cubic) Bounds() Rect {
	minX := math.Min(math.Min(c.P0.X, c.P1.X), math.Min(c.P2.X, c.P3.X))
	maxX := math.Max(math.Max(c.P0.X, c.P1.X), math.Max(c.P2.X, c.P3.X))
	minY := math.Min(math.Min(c.P0.Y, c.P1.Y), math.Min(c.P2.Y, c.P3.Y))
	maxY := math.Max(math.Max(c.P0.Y, c.P1.Y), math.Max(c.P2.Y, c.P3.Y))
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// Samples flattens the curve into n+1 points. Callers pick n from the
// on-screen length; DefaultSamples is the floor used for hit testing.
func (c Cubic) Samples(n int) []Point {
	if n < 1 {
		n = 1
	}
	pts := make([]Point, n+1)
	for i := 0; i <= n; i++ {
		pts[i] = c.At(float64(i) / float64(n))
	}
	return pts
}

// DefaultSamples picks a sample count from the curve's rough length so
// long wires gain resolution. The floor keeps hit testing accurate on
// short wires too.
func (c Cubic) DefaultSamples() int {
	length := c.P0.Dist(c.P1) + c.P1.Dist(c.P2) + c.P2.Dist(c.P3)
	n := int(length / 8)
	if n < 50 {
		n = 50
	}
	if n > 128 {
		n = 128
	}
	return n
}

// DistTo returns the shortest distance from p to the flattened curve.
func (c Cubic) DistTo(p Point) float64 {
	pts := c.Samples(c.DefaultSamples())
	best := math.Inf(1)
	for i := 0; i+1 < len(pts); i++ {
		d := distToSegment(p, pts[i], pts[i+1])
		if d < best {
			best = d
		}
	}
	return best
}

func distToSegment(p, a, b Point) float64 {
	abx, aby := b.X-a.X, b.Y-a.Y
	l2 := abx*abx + aby*aby
	if l2 == 0 {
		return p.Dist(a)
	}
	t := clamp(((p.X-a.X)*abx+(p.Y-a.Y)*aby)/l2, 0, 1)
	return p.Dist(Point{X: a.X + t*abx, Y: a.Y + t*aby})
}
