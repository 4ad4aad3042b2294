package engine

import "math"

// Transform maps canvas space to screen space: a uniform zoom followed by a
// translation. X and Y are the screen position of the canvas origin, so
//
//	screen = canvas*Scale + (X, Y)
//	canvas = (screen - (X, Y)) / Scale
//
// Exactly one transform exists per canvas instance; Camera arbitrates who may
// write it.
type Transform struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Scale float64 `json:"scale"`
}

// Zoom bounds enforced by ZoomAt.
const (
	MinScale = 0.1
	MaxScale = 4.0
)

// IdentityTransform returns the neutral transform (no pan, 1:1 zoom).
func IdentityTransform() Transform {
	return Transform{X: 0, Y: 0, Scale: 1}
}

// Point is a 2D coordinate. Whether it lives in screen or canvas space is
// determined by context.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ToCanvas converts a screen-space point to canvas space.
func (t Transform) ToCanvas(p Point) Point {
	return Point{
		X: (p.X - t.X) / t.Scale,
		Y: (p.Y - t.Y) / t.Scale,
	}
}

// ToScreen converts a canvas-space point to screen space.
func (t Transform) ToScreen(p Point) Point {
	return Point{
		X: p.X*t.Scale + t.X,
		Y: p.Y*t.Scale + t.Y,
	}
}

// Pan returns the transform translated by the given screen-space deltas.
func (t Transform) Pan(dx, dy float64) Transform {
	t.X += dx
	t.Y += dy
	return t
}

// ZoomAt returns the transform scaled by factor with the canvas point under
// the focal pixel pinned in place. The resulting scale is clamped to
// [MinScale, MaxScale]; a zoom that would leave the scale unchanged returns
// the transform as-is.
func (t Transform) ZoomAt(focal Point, factor float64) Transform {
	if !isFinite(factor) || factor <= 0 {
		return t
	}
	newScale := clampFloat(t.Scale*factor, MinScale, MaxScale)
	if newScale == t.Scale {
		return t
	}
	c := t.ToCanvas(focal)
	return Transform{
		X:     focal.X - c.X*newScale,
		Y:     focal.Y - c.Y*newScale,
		Scale: newScale,
	}
}

// Valid reports whether all components are finite and the scale is positive.
func (t Transform) Valid() bool {
	return isFinite(t.X) && isFinite(t.Y) && isFinite(t.Scale) && t.Scale > 0
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
