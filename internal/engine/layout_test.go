package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/laminahq/lamina/backend-go/internal/document"
)

func TestComputeLayout_RowFlow(t *testing.T) {
	g := NewGraph("root")
	f := newTestFrame("f", 100, 50, 400, 120, document.DirectionRow)
	f.Layout.Gap = 10
	f.Layout.Padding = 8
	g.Add(f, "root")
	g.Add(newTestLeaf("a", 60, 40), "f")
	g.Add(newTestLeaf("b", 80, 40), "f")

	ComputeLayout(g)

	assert.Equal(t, Rect{X: 100, Y: 50, Width: 400, Height: 120}, g.Node("f").Bounds)
	assert.Equal(t, Rect{X: 108, Y: 58, Width: 60, Height: 40}, g.Node("a").Bounds)
	assert.Equal(t, Rect{X: 178, Y: 58, Width: 80, Height: 40}, g.Node("b").Bounds)
	assert.False(t, g.Dirty())
}

func TestComputeLayout_ColumnFlow(t *testing.T) {
	g := NewGraph("root")
	f := newTestFrame("f", 0, 0, 200, 300, document.DirectionColumn)
	f.Layout.Gap = 12
	g.Add(f, "root")
	g.Add(newTestLeaf("a", 100, 50), "f")
	g.Add(newTestLeaf("b", 100, 70), "f")

	ComputeLayout(g)

	assert.Equal(t, Rect{X: 0, Y: 0, Width: 100, Height: 50}, g.Node("a").Bounds)
	assert.Equal(t, Rect{X: 0, Y: 62, Width: 100, Height: 70}, g.Node("b").Bounds)
}

func TestComputeLayout_AbsoluteChildAtFrameOffset(t *testing.T) {
	g := NewGraph("root")
	f := newTestFrame("f", 40, 40, 300, 200, document.DirectionRow)
	g.Add(f, "root")
	g.Add(newTestLeaf("flow", 50, 50), "f")
	badge := newTestLeaf("badge", 20, 20)
	badge.AbsoluteInFrame = true
	badge.Layout.X = 270
	badge.Layout.Y = 10
	g.Add(badge, "f")

	ComputeLayout(g)

	assert.Equal(t, Rect{X: 310, Y: 50, Width: 20, Height: 20}, g.Node("badge").Bounds)
	// The absolute child takes no flow slot: the flow child starts at the
	// frame origin regardless.
	assert.Equal(t, Rect{X: 40, Y: 40, Width: 50, Height: 50}, g.Node("flow").Bounds)
}

func TestComputeLayout_InvisibleSubtreeGetsZeroBounds(t *testing.T) {
	g := NewGraph("root")
	f := newTestFrame("f", 0, 0, 200, 200, document.DirectionColumn)
	g.Add(f, "root")
	hidden := newTestFrame("hidden", 0, 0, 100, 100, document.DirectionRow)
	hidden.Visible = false
	g.Add(hidden, "f")
	g.Add(newTestLeaf("inner", 30, 30), "hidden")
	g.Add(newTestLeaf("after", 50, 50), "f")

	ComputeLayout(g)

	assert.Equal(t, Rect{}, g.Node("hidden").Bounds)
	assert.Equal(t, Rect{}, g.Node("inner").Bounds)
	// Invisible children take no flow slot.
	assert.Equal(t, Rect{X: 0, Y: 0, Width: 50, Height: 50}, g.Node("after").Bounds)

	// And zero bounds keep them out of hit-testing.
	hits := HitTest(g, Point{X: 10, Y: 10}, nil)
	require.NotEmpty(t, hits)
	for _, id := range hits {
		assert.NotEqual(t, "hidden", id)
		assert.NotEqual(t, "inner", id)
	}
}

func TestComputeLayout_RootChildrenSitAtOwnPosition(t *testing.T) {
	g := NewGraph("root")
	g.Add(newTestFrame("f1", -50, 700, 100, 100, document.DirectionRow), "root")
	note := newTestLeaf("note", 120, 30)
	note.Layout.X = 900
	note.Layout.Y = -20
	g.Add(note, "root")

	ComputeLayout(g)

	assert.Equal(t, Rect{X: -50, Y: 700, Width: 100, Height: 100}, g.Node("f1").Bounds)
	assert.Equal(t, Rect{X: 900, Y: -20, Width: 120, Height: 30}, g.Node("note").Bounds)
}

func TestComputeLayout_PlaceholderOccupiesFlowSlot(t *testing.T) {
	g := NewGraph("root")
	f := newTestFrame("f", 0, 0, 300, 100, document.DirectionRow)
	g.Add(f, "root")
	g.Add(newTestLeaf("a", 50, 50), "f")
	ph := &Node{
		ID:      "ph_test",
		Type:    document.NodeTypePlaceholder,
		Visible: true,
		Layout:  document.Layout{Width: 60, Height: 50},
	}
	g.InsertAt(ph, "f", 1)
	g.Add(newTestLeaf("b", 50, 50), "f")

	ComputeLayout(g)

	// The placeholder marks a gap of its own width; the next sibling flows
	// after it.
	assert.Equal(t, Rect{X: 110, Y: 0, Width: 50, Height: 50}, g.Node("b").Bounds)
}
