package engine

import (
	"sort"

	"github.com/laminahq/lamina/backend-go/internal/document"
)

// Position describes where a dragged node would land relative to a drop
// target.
type Position string

const (
	PositionBefore Position = "before"
	PositionAfter  Position = "after"
	PositionInside Position = "inside"
)

// MoveDir is the dominant direction of recent pointer movement along one
// axis.
type MoveDir int

const (
	DirNone     MoveDir = iota
	DirBackward         // left or up
	DirForward          // right or down
)

// HitTest returns the ids of visible nodes whose bounds contain the
// canvas-space point, topmost first: children before parents, later siblings
// before earlier ones. Ids in exclude are skipped with their whole subtrees;
// placeholders and degenerate boxes are skipped but their subtrees are still
// visited.
func HitTest(g *Graph, pt Point, exclude map[string]bool) []string {
	if g == nil || g.Root == nil || !isFinite(pt.X) || !isFinite(pt.Y) {
		return nil
	}
	var hits []string
	for i := len(g.Root.Children) - 1; i >= 0; i-- {
		hitTestNode(g.Root.Children[i], pt, exclude, &hits)
	}
	return hits
}

func hitTestNode(n *Node, pt Point, exclude map[string]bool, hits *[]string) {
	if n == nil || !n.Visible || (exclude != nil && exclude[n.ID]) {
		return
	}

	// Children first: front-to-back is reverse child order.
	for i := len(n.Children) - 1; i >= 0; i-- {
		hitTestNode(n.Children[i], pt, exclude, hits)
	}

	if n.Type == document.NodeTypePlaceholder {
		return
	}
	if n.Bounds.Degenerate() {
		return
	}
	if n.Bounds.Contains(pt.X, pt.Y) {
		*hits = append(*hits, n.ID)
	}
}

// SiblingOrder returns containerID's flow-participating children sorted by
// leading edge along the container's axis. Absolutely positioned children
// never take part in sibling ordering; placeholders and invisible nodes are
// skipped too.
func SiblingOrder(g *Graph, containerID string) []string {
	n := g.Node(containerID)
	if n == nil {
		return nil
	}
	axis := n.Axis()

	type entry struct {
		id   string
		edge float64
	}
	entries := make([]entry, 0, len(n.Children))
	for _, c := range n.Children {
		if c.AbsoluteInFrame || !c.Visible || c.Type == document.NodeTypePlaceholder {
			continue
		}
		edge := c.Bounds.X
		if axis == AxisColumn {
			edge = c.Bounds.Y
		}
		entries = append(entries, entry{id: c.ID, edge: edge})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].edge < entries[j].edge
	})

	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.id
	}
	return ids
}

// FlowChildCount returns the number of flow-participating children of n,
// not counting placeholders.
func FlowChildCount(n *Node) int {
	count := 0
	for _, c := range n.Children {
		if c.AbsoluteInFrame || !c.Visible || c.Type == document.NodeTypePlaceholder {
			continue
		}
		count++
	}
	return count
}

// DropPosition resolves before/after/inside for a pointer over a target.
// Container targets with no flow children always take the drop inside.
// Otherwise the midpoint rule decides along the given axis, unless recent
// pointer movement supplies a directional bias: backward (left/up) forces
// before, forward (right/down) forces after.
func DropPosition(pt Point, target *Node, axis Axis, bias MoveDir) Position {
	if target.IsContainer() && FlowChildCount(target) == 0 {
		return PositionInside
	}

	switch bias {
	case DirBackward:
		return PositionBefore
	case DirForward:
		return PositionAfter
	}

	coord, start, extent := pt.X, target.Bounds.X, target.Bounds.Width
	if axis == AxisColumn {
		coord, start, extent = pt.Y, target.Bounds.Y, target.Bounds.Height
	}
	if extent <= 0 || !isFinite(coord) {
		return PositionAfter
	}
	if coord < start+extent/2 {
		return PositionBefore
	}
	return PositionAfter
}

// DirectionTracker accumulates pointer movement and reports a directional
// bias once travel in one direction exceeds the threshold. A reversal resets
// the accumulator, so the bias has a hysteresis band and the resolved
// position cannot flap while the pointer rests near a boundary.
type DirectionTracker struct {
	threshold float64
	accX      float64
	accY      float64
}

func NewDirectionTracker(threshold float64) *DirectionTracker {
	return &DirectionTracker{threshold: threshold}
}

// Update feeds one pointer movement delta into the tracker.
func (d *DirectionTracker) Update(dx, dy float64) {
	d.accX = accumulateTravel(d.accX, dx)
	d.accY = accumulateTravel(d.accY, dy)
}

// Bias returns the dominant movement direction along the axis, or DirNone
// while accumulated travel stays inside the threshold.
func (d *DirectionTracker) Bias(axis Axis) MoveDir {
	acc := d.accX
	if axis == AxisColumn {
		acc = d.accY
	}
	if acc <= -d.threshold {
		return DirBackward
	}
	if acc >= d.threshold {
		return DirForward
	}
	return DirNone
}

// Reset clears accumulated travel.
func (d *DirectionTracker) Reset() {
	d.accX = 0
	d.accY = 0
}

func accumulateTravel(acc, delta float64) float64 {
	if delta == 0 || !isFinite(delta) {
		return acc
	}
	if acc != 0 && (delta > 0) != (acc > 0) {
		return delta
	}
	return acc + delta
}

// Indicator is the insertion line the renderer draws at the pending drop
// position, in canvas space.
type Indicator struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// IndicatorFor computes the insertion line for a resolved drop: the leading
// or trailing edge of the target along the axis, or an inset top line for
// inside drops.
func IndicatorFor(target *Node, axis Axis, pos Position) Indicator {
	b := target.Bounds
	const inset = 4

	switch pos {
	case PositionInside:
		return Indicator{X1: b.X + inset, Y1: b.Y + inset, X2: b.X + b.Width - inset, Y2: b.Y + inset}
	case PositionBefore:
		if axis == AxisRow {
			return Indicator{X1: b.X, Y1: b.Y, X2: b.X, Y2: b.Y + b.Height}
		}
		return Indicator{X1: b.X, Y1: b.Y, X2: b.X + b.Width, Y2: b.Y}
	default:
		if axis == AxisRow {
			return Indicator{X1: b.X + b.Width, Y1: b.Y, X2: b.X + b.Width, Y2: b.Y + b.Height}
		}
		return Indicator{X1: b.X, Y1: b.Y + b.Height, X2: b.X + b.Width, Y2: b.Y + b.Height}
	}
}
