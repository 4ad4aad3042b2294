package engine

import "time"

// Camera owns the shared viewport transform and arbitrates between its two
// writers: the gesture controller while a pan/zoom gesture is active, and
// the rest of the application otherwise. While a gesture holds authority,
// externally visible writes are throttled to one per rendered frame (Tick);
// the logical transform is always current. After the last gesture input a
// settle delay runs, then the committed value is published once and
// authority is released.
type Camera struct {
	current   Transform // logical state, always up to date
	published Transform // last externally visible value

	controlling  bool
	pendingFlush bool

	settleAt    time.Time // zero when no settle is scheduled
	settleDelay time.Duration

	onPublish func(Transform)
}

// NewCamera creates a camera at the identity transform. onPublish is invoked
// on every externally visible write; it may be nil.
func NewCamera(settleDelay time.Duration, onPublish func(Transform)) *Camera {
	t := IdentityTransform()
	return &Camera{
		current:     t,
		published:   t,
		settleDelay: settleDelay,
		onPublish:   onPublish,
	}
}

// Transform returns the logical transform. It is up to date even between
// flushes.
func (c *Camera) Transform() Transform {
	return c.current
}

// Published returns the last externally visible transform.
func (c *Camera) Published() Transform {
	return c.published
}

// Controlling reports whether a gesture currently holds write authority.
func (c *Camera) Controlling() bool {
	return c.controlling
}

// Set applies an external write. While a gesture holds authority the write
// is ignored; the return value reports whether it was applied.
func (c *Camera) Set(t Transform) bool {
	if c.controlling || !t.Valid() {
		return false
	}
	t.Scale = clampFloat(t.Scale, MinScale, MaxScale)
	c.current = t
	c.publish()
	return true
}

// StartGesture takes write authority. Starting a new gesture cancels a
// pending settle from the previous one.
func (c *Camera) StartGesture() {
	c.controlling = true
	c.settleAt = time.Time{}
	c.pendingFlush = false
}

// ApplyPan translates the logical transform during a gesture.
func (c *Camera) ApplyPan(dx, dy float64) {
	if !c.controlling || !isFinite(dx) || !isFinite(dy) {
		return
	}
	c.current = c.current.Pan(dx, dy)
	c.pendingFlush = true
}

// ApplyZoom zooms the logical transform around the focal screen point during
// a gesture.
func (c *Camera) ApplyZoom(focal Point, factor float64) {
	if !c.controlling || !isFinite(focal.X) || !isFinite(focal.Y) {
		return
	}
	c.current = c.current.ZoomAt(focal, factor)
	c.pendingFlush = true
}

// EndGesture arms the settle timer. Authority is held until the deadline
// passes so other writers cannot clobber a transform that is still settling;
// wheel input has no end event and calls this after every tick, pushing the
// deadline forward.
func (c *Camera) EndGesture(now time.Time) {
	if !c.controlling {
		return
	}
	c.settleAt = now.Add(c.settleDelay)
}

// Abort releases authority immediately, publishing the committed value once.
// Used when the session unwinds (pointer capture loss, escape).
func (c *Camera) Abort() {
	if !c.controlling {
		return
	}
	c.controlling = false
	c.settleAt = time.Time{}
	c.pendingFlush = false
	c.publish()
}

// Tick runs once per rendered frame. During a gesture it performs at most
// one externally visible write; once the settle deadline has passed it
// publishes the final value and releases authority.
func (c *Camera) Tick(now time.Time) {
	if !c.controlling {
		return
	}
	if !c.settleAt.IsZero() && !now.Before(c.settleAt) {
		c.controlling = false
		c.settleAt = time.Time{}
		c.pendingFlush = false
		c.publish()
		return
	}
	if c.pendingFlush {
		c.pendingFlush = false
		c.publish()
	}
}

func (c *Camera) publish() {
	c.published = c.current
	if c.onPublish != nil {
		c.onPublish(c.current)
	}
}
