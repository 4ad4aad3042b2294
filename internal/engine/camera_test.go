package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSettle = 150 * time.Millisecond

func TestCamera_SetPublishesImmediately(t *testing.T) {
	c := NewCamera(testSettle, nil)

	ok := c.Set(Transform{X: 10, Y: 20, Scale: 2})
	require.True(t, ok)
	assert.Equal(t, Transform{X: 10, Y: 20, Scale: 2}, c.Published())
	assert.Equal(t, c.Transform(), c.Published())
}

func TestCamera_SetClampsScale(t *testing.T) {
	c := NewCamera(testSettle, nil)

	require.True(t, c.Set(Transform{X: 0, Y: 0, Scale: 99}))
	assert.Equal(t, MaxScale, c.Published().Scale)
}

func TestCamera_SetIgnoredWhileControlling(t *testing.T) {
	c := NewCamera(testSettle, nil)
	c.StartGesture()
	c.ApplyPan(5, 5)

	ok := c.Set(Transform{X: 100, Y: 100, Scale: 1})
	assert.False(t, ok)
	assert.Equal(t, Transform{X: 5, Y: 5, Scale: 1}, c.Transform())
}

func TestCamera_OnePublishPerTick(t *testing.T) {
	published := 0
	c := NewCamera(testSettle, func(Transform) { published++ })
	now := time.Now()

	c.StartGesture()
	c.ApplyPan(1, 0)
	c.ApplyPan(1, 0)
	c.ApplyPan(1, 0)
	assert.Equal(t, 0, published, "no publish before the frame tick")
	assert.Equal(t, IdentityTransform(), c.Published())

	c.Tick(now)
	assert.Equal(t, 1, published)
	assert.Equal(t, Transform{X: 3, Y: 0, Scale: 1}, c.Published())

	// Nothing new to flush: the next frame publishes nothing.
	c.Tick(now.Add(16 * time.Millisecond))
	assert.Equal(t, 1, published)
}

func TestCamera_LogicalTransformAlwaysCurrent(t *testing.T) {
	c := NewCamera(testSettle, nil)
	c.StartGesture()
	c.ApplyPan(7, -3)

	assert.Equal(t, Transform{X: 7, Y: -3, Scale: 1}, c.Transform())
	assert.Equal(t, IdentityTransform(), c.Published(), "published lags until tick")
}

func TestCamera_SettleReleasesAuthority(t *testing.T) {
	published := 0
	c := NewCamera(testSettle, func(Transform) { published++ })
	now := time.Now()

	c.StartGesture()
	c.ApplyPan(10, 0)
	c.Tick(now)
	require.Equal(t, 1, published)

	c.EndGesture(now)
	assert.True(t, c.Controlling(), "authority held through the settle window")

	c.Tick(now.Add(testSettle / 2))
	assert.True(t, c.Controlling())

	c.Tick(now.Add(testSettle + time.Millisecond))
	assert.False(t, c.Controlling())
	assert.Equal(t, 2, published, "settle publishes the final value exactly once")
	assert.Equal(t, Transform{X: 10, Y: 0, Scale: 1}, c.Published())

	// Authority released: external writes apply again.
	assert.True(t, c.Set(Transform{X: 1, Y: 1, Scale: 1}))
}

func TestCamera_WheelBurstPushesSettleDeadline(t *testing.T) {
	c := NewCamera(testSettle, nil)
	now := time.Now()

	// Wheel input has no end event: every tick of the burst re-arms the
	// deadline, so authority holds for the whole burst.
	c.StartGesture()
	for i := 0; i < 5; i++ {
		c.ApplyPan(0, -2)
		c.EndGesture(now.Add(time.Duration(i) * 100 * time.Millisecond))
		c.Tick(now.Add(time.Duration(i)*100*time.Millisecond + time.Millisecond))
		require.True(t, c.Controlling(), "burst event %d must keep authority", i)
	}

	last := now.Add(400 * time.Millisecond)
	c.Tick(last.Add(testSettle + time.Millisecond))
	assert.False(t, c.Controlling())
}

func TestCamera_NewGestureCancelsPendingSettle(t *testing.T) {
	c := NewCamera(testSettle, nil)
	now := time.Now()

	c.StartGesture()
	c.ApplyPan(5, 0)
	c.EndGesture(now)

	c.StartGesture()
	c.Tick(now.Add(testSettle * 2))
	assert.True(t, c.Controlling(), "new gesture must survive the old deadline")
}

func TestCamera_AbortReleasesAndPublishes(t *testing.T) {
	published := 0
	c := NewCamera(testSettle, func(Transform) { published++ })

	c.StartGesture()
	c.ApplyPan(4, 4)
	c.Abort()

	assert.False(t, c.Controlling())
	assert.Equal(t, 1, published)
	assert.Equal(t, Transform{X: 4, Y: 4, Scale: 1}, c.Published())
}

func TestCamera_GestureApplyRequiresAuthority(t *testing.T) {
	c := NewCamera(testSettle, nil)

	c.ApplyPan(100, 100)
	c.ApplyZoom(Point{X: 10, Y: 10}, 2)
	assert.Equal(t, IdentityTransform(), c.Transform())
}
