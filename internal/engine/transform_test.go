package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransform_RoundTrip(t *testing.T) {
	tr := Transform{X: 120, Y: -40, Scale: 1.5}
	p := Point{X: 333, Y: -8}

	back := tr.ToScreen(tr.ToCanvas(p))
	assert.InDelta(t, p.X, back.X, 1e-9)
	assert.InDelta(t, p.Y, back.Y, 1e-9)
}

func TestTransform_PanAccumulates(t *testing.T) {
	tr := IdentityTransform()

	split := tr.Pan(3, -2).Pan(7, 12)
	joined := tr.Pan(10, 10)
	assert.Equal(t, joined, split)
}

func TestTransform_ZoomAtKeepsFocalPointFixed(t *testing.T) {
	tr := Transform{X: 50, Y: -30, Scale: 0.8}
	focal := Point{X: 400, Y: 300}
	before := tr.ToCanvas(focal)

	zoomed := tr.ZoomAt(focal, 1.7)
	after := zoomed.ToCanvas(focal)

	require.InDelta(t, 0.8*1.7, zoomed.Scale, 1e-9)
	assert.InDelta(t, before.X, after.X, 1e-9)
	assert.InDelta(t, before.Y, after.Y, 1e-9)
}

func TestTransform_ZoomAtTranslation(t *testing.T) {
	// Doubling from identity around (100,100) must move the origin to -100.
	tr := IdentityTransform()
	zoomed := tr.ZoomAt(Point{X: 100, Y: 100}, 2)

	assert.InDelta(t, 2.0, zoomed.Scale, 1e-9)
	assert.InDelta(t, -100.0, zoomed.X, 1e-9)
	assert.InDelta(t, -100.0, zoomed.Y, 1e-9)
}

func TestTransform_ZoomClampsScale(t *testing.T) {
	tr := Transform{X: 0, Y: 0, Scale: 3.5}
	zoomed := tr.ZoomAt(Point{}, 10)
	assert.Equal(t, MaxScale, zoomed.Scale)

	tr = Transform{X: 0, Y: 0, Scale: 0.2}
	zoomed = tr.ZoomAt(Point{}, 0.01)
	assert.Equal(t, MinScale, zoomed.Scale)
}

func TestTransform_ZoomAtClampedNoDrift(t *testing.T) {
	// Once pinned at the bound, further zooming must not translate.
	tr := Transform{X: 17, Y: -5, Scale: MaxScale}
	zoomed := tr.ZoomAt(Point{X: 200, Y: 200}, 2)
	assert.Equal(t, tr, zoomed)
}

func TestTransform_ZoomAtRejectsBadFactor(t *testing.T) {
	tr := Transform{X: 1, Y: 2, Scale: 1}
	assert.Equal(t, tr, tr.ZoomAt(Point{}, 0))
	assert.Equal(t, tr, tr.ZoomAt(Point{}, -3))
	assert.Equal(t, tr, tr.ZoomAt(Point{}, math.NaN()))
	assert.Equal(t, tr, tr.ZoomAt(Point{}, math.Inf(1)))
}

func TestTransform_Valid(t *testing.T) {
	assert.True(t, Transform{X: 0, Y: 0, Scale: 1}.Valid())
	assert.False(t, Transform{X: math.NaN(), Y: 0, Scale: 1}.Valid())
	assert.False(t, Transform{X: 0, Y: math.Inf(-1), Scale: 1}.Valid())
	assert.False(t, Transform{X: 0, Y: 0, Scale: 0}.Valid())
	assert.False(t, Transform{X: 0, Y: 0, Scale: -1}.Valid())
}
