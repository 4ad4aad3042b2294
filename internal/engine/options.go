package engine

import "time"

// Options holds the interaction tunables. The engine also runs compiled to
// wasm where no environment is available, so these are injected by the host
// rather than read from env.
type Options struct {
	// MoveThresholdPx is the cumulative screen-space pointer movement that
	// turns a press into a drag.
	MoveThresholdPx float64

	// DirectionalBiasPx is how far the pointer must travel in one direction
	// before that direction overrides the midpoint rule when resolving
	// before/after on a hovered sibling.
	DirectionalBiasPx float64

	// EdgeMarginX/EdgeMarginY are the screen-space distances from the
	// viewport edges inside which auto-scroll engages during a drag.
	EdgeMarginX float64
	EdgeMarginY float64

	// AutoScrollMaxSpeed is the pan applied per tick when the pointer sits
	// directly on a viewport edge; the applied speed scales linearly with
	// proximity.
	AutoScrollMaxSpeed float64

	// SettleDelay is how long after the last pan/zoom input the committed
	// transform is published to shared state.
	SettleDelay time.Duration
}

// DefaultOptions returns the tunables used by the editor frontend.
func DefaultOptions() Options {
	return Options{
		MoveThresholdPx:    3,
		DirectionalBiasPx:  4,
		EdgeMarginX:        48,
		EdgeMarginY:        36,
		AutoScrollMaxSpeed: 14,
		SettleDelay:        150 * time.Millisecond,
	}
}
