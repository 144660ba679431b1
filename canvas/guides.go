package canvas

import "math"

// Guide describes one alignment line for the overlay layer.
type Guide struct {
	Vertical bool
	Pos      float64 // canvas x for vertical guides, canvas y for horizontal
	From, To float64 // extent along the other axis
}

// SnapResult is the adjustment produced by guide snapping: add DX/DY to
// the dragged position, draw Guides in the overlay.
type SnapResult struct {
	DX, DY float64
	Guides []Guide
}

// ComputeSmartGuides compares the moving rectangle's edges and center
// against every candidate rectangle and snaps each axis to the closest
// alignment within threshold. Axes snap independently; a miss on one
// axis never blocks the other.
func ComputeSmartGuides(moving Rect, others []Rect, threshold float64) SnapResult {
	var res SnapResult
	bestX := threshold + 1
	bestY := threshold + 1
	var guideX, guideY Guide

	for _, o := range others {
		xs := [3]float64{o.X, o.X + o.W/2, o.X + o.W}
		mx := [3]float64{moving.X, moving.X + moving.W/2, moving.X + moving.W}
		for _, target := range xs {
			for _, edge := range mx {
				d := target - edge
				if math.Abs(d) <= threshold && math.Abs(d) < math.Abs(bestX) {
					bestX = d
					guideX = Guide{
						Vertical: true,
						Pos:      target,
						From:     math.Min(moving.Y, o.Y),
						To:       math.Max(moving.Y+moving.H, o.Y+o.H),
					}
				}
			}
		}

		ys := [3]float64{o.Y, o.Y + o.H/2, o.Y + o.H}
		my := [3]float64{moving.Y, moving.Y + moving.H/2, moving.Y + moving.H}
		for _, target := range ys {
			for _, edge := range my {
				d := target - edge
				if math.Abs(d) <= threshold && math.Abs(d) < math.Abs(bestY) {
					bestY = d
					guideY = Guide{
						Pos:  target,
						From: math.Min(moving.X, o.X),
						To:   math.Max(moving.X+moving.W, o.X+o.W),
					}
				}
			}
		}
	}

	if math.Abs(bestX) <= threshold {
		res.DX = bestX
		res.Guides = append(res.Guides, guideX)
	}
	if math.Abs(bestY) <= threshold {
		res.DY = bestY
		res.Guides = append(res.Guides, guideY)
	}
	return res
}
