package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAutoScroller_ZeroOutsideMargins(t *testing.T) {
	a := NewAutoScroller(DefaultOptions())
	cam := NewCamera(testSettle, nil)

	dx, dy := a.Update(cam, 800, 600, Point{X: 400, Y: 300}, time.Now())
	assert.Zero(t, dx)
	assert.Zero(t, dy)
	assert.False(t, a.Active())
	assert.False(t, cam.Controlling())
}

func TestAutoScroller_SpeedProportionalToProximity(t *testing.T) {
	a := NewAutoScroller(DefaultOptions())
	cam := NewCamera(testSettle, nil)
	now := time.Now()

	// On the left edge: full speed, panning right so content further left
	// scrolls into view.
	dx, _ := a.Update(cam, 800, 600, Point{X: 0, Y: 300}, now)
	assert.InDelta(t, 14.0, dx, 1e-9)

	// Halfway into the 48px margin: half speed.
	dx, _ = a.Update(cam, 800, 600, Point{X: 24, Y: 300}, now)
	assert.InDelta(t, 7.0, dx, 1e-9)

	// Near the right edge: negative pan, scaled by depth into the margin.
	dx, _ = a.Update(cam, 800, 600, Point{X: 776, Y: 300}, now)
	assert.InDelta(t, -7.0, dx, 1e-9)

	// Vertical margin is narrower (36px).
	_, dy := a.Update(cam, 800, 600, Point{X: 400, Y: 0}, now)
	assert.InDelta(t, 14.0, dy, 1e-9)
	_, dy = a.Update(cam, 800, 600, Point{X: 400, Y: 582}, now)
	assert.InDelta(t, -7.0, dy, 1e-9)
}

func TestAutoScroller_TakesAndReleasesCameraAuthority(t *testing.T) {
	a := NewAutoScroller(DefaultOptions())
	cam := NewCamera(testSettle, nil)
	now := time.Now()

	dx, _ := a.Update(cam, 800, 600, Point{X: 4, Y: 300}, now)
	require.NotZero(t, dx)
	assert.True(t, a.Active())
	assert.True(t, cam.Controlling())
	assert.Equal(t, dx, cam.Transform().X, "pan applies to the logical transform")
	assert.Equal(t, IdentityTransform(), cam.Published(), "published waits for the frame tick")

	cam.Tick(now)
	assert.Equal(t, dx, cam.Published().X)

	// Pointer back to the middle: the gesture ends and settles out.
	a.Update(cam, 800, 600, Point{X: 400, Y: 300}, now)
	assert.False(t, a.Active())
	assert.True(t, cam.Controlling(), "authority held through the settle window")

	cam.Tick(now.Add(testSettle + time.Millisecond))
	assert.False(t, cam.Controlling())
}

func TestAutoScroller_NoScrollOutsideViewportOrWithoutSize(t *testing.T) {
	a := NewAutoScroller(DefaultOptions())
	cam := NewCamera(testSettle, nil)
	now := time.Now()

	dx, dy := a.Update(cam, 800, 600, Point{X: -5, Y: 300}, now)
	assert.Zero(t, dx)
	assert.Zero(t, dy)

	dx, dy = a.Update(cam, 0, 0, Point{X: 0, Y: 0}, now)
	assert.Zero(t, dx)
	assert.Zero(t, dy)
	assert.False(t, cam.Controlling())
}

func TestAutoScroller_CornerScrollsBothAxes(t *testing.T) {
	a := NewAutoScroller(DefaultOptions())
	cam := NewCamera(testSettle, nil)

	dx, dy := a.Update(cam, 800, 600, Point{X: 800, Y: 600}, time.Now())
	assert.InDelta(t, -14.0, dx, 1e-9)
	assert.InDelta(t, -14.0, dy, 1e-9)
}
