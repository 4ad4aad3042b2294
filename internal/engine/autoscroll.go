package engine

import "time"

// AutoScroller pans the canvas while a drag holds the pointer near an edge of
// the visible viewport. Panning goes through the camera's gesture authority,
// so auto-scroll throttles its published writes like any other gesture, and
// the drag controller re-resolves its target against the live transform on
// every tick the pan moves.
type AutoScroller struct {
	opts   Options
	active bool
}

func NewAutoScroller(opts Options) *AutoScroller {
	return &AutoScroller{opts: opts}
}

// Active reports whether an auto-scroll gesture currently holds the camera.
func (a *AutoScroller) Active() bool { return a.active }

// Update applies one tick of edge panning for a pointer at screen position pt
// inside a viewport of the given size. It returns the pan deltas applied,
// zero when the pointer sits outside both margins.
func (a *AutoScroller) Update(camera *Camera, width, height float64, pt Point, now time.Time) (float64, float64) {
	dx := a.axisSpeed(pt.X, width, a.opts.EdgeMarginX)
	dy := a.axisSpeed(pt.Y, height, a.opts.EdgeMarginY)
	if dx == 0 && dy == 0 {
		a.Stop(camera, now)
		return 0, 0
	}
	if !a.active {
		camera.StartGesture()
		a.active = true
	}
	camera.ApplyPan(dx, dy)
	return dx, dy
}

// Stop ends the auto-scroll gesture, arming the camera's settle timer.
func (a *AutoScroller) Stop(camera *Camera, now time.Time) {
	if !a.active {
		return
	}
	a.active = false
	camera.EndGesture(now)
}

// axisSpeed returns the pan delta for one axis, proportional to how deep the
// pointer sits inside the edge margin and capped at AutoScrollMaxSpeed. The
// pan runs opposite the edge so new content scrolls into view.
func (a *AutoScroller) axisSpeed(coord, extent, margin float64) float64 {
	if margin <= 0 || extent <= 0 || !isFinite(coord) {
		return 0
	}
	if coord < 0 || coord > extent {
		return 0
	}
	if coord < margin {
		return a.opts.AutoScrollMaxSpeed * (1 - coord/margin)
	}
	if coord > extent-margin {
		return -a.opts.AutoScrollMaxSpeed * (1 - (extent-coord)/margin)
	}
	return 0
}
