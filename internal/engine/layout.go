package engine

import "github.com/laminahq/lamina/backend-go/internal/document"

// Axis is the layout direction of a flow container.
type Axis int

const (
	AxisRow Axis = iota
	AxisColumn
)

func axisOf(d document.Direction) Axis {
	if d == document.DirectionRow {
		return AxisRow
	}
	return AxisColumn
}

// Axis returns the flow axis of the node's children. Containers without an
// explicit direction stack vertically.
func (n *Node) Axis() Axis {
	return axisOf(n.Layout.Direction)
}

// ComputeLayout assigns canvas-space Bounds to every attached node.
// Canvas-root children sit at their own Layout.X/Y; flow children stack
// along the container's axis separated by Gap, inset by Padding;
// absolute-in-frame children sit at the frame origin plus their offsets.
// Sizes come straight from Layout.Width/Height; measuring and painting are
// the renderer's job. Invisible subtrees get zero bounds, which excludes
// them from hit-testing.
func ComputeLayout(g *Graph) {
	if g == nil || g.Root == nil {
		return
	}
	g.Root.Bounds = Rect{}
	for _, child := range g.Root.Children {
		layoutNode(child, Point{X: child.Layout.X, Y: child.Layout.Y})
	}
	g.ClearDirty()
}

func layoutNode(n *Node, origin Point) {
	if !n.Visible {
		zeroBounds(n)
		return
	}

	n.Bounds = Rect{
		X:      origin.X,
		Y:      origin.Y,
		Width:  n.Layout.Width,
		Height: n.Layout.Height,
	}

	if len(n.Children) == 0 {
		return
	}

	axis := n.Axis()
	cursor := Point{X: origin.X + n.Layout.Padding, Y: origin.Y + n.Layout.Padding}

	for _, c := range n.Children {
		if c.AbsoluteInFrame {
			layoutNode(c, Point{X: origin.X + c.Layout.X, Y: origin.Y + c.Layout.Y})
			continue
		}
		if !c.Visible {
			zeroBounds(c)
			continue
		}
		layoutNode(c, cursor)
		if axis == AxisRow {
			cursor.X += c.Layout.Width + n.Layout.Gap
		} else {
			cursor.Y += c.Layout.Height + n.Layout.Gap
		}
	}
}

func zeroBounds(n *Node) {
	n.Bounds = Rect{}
	for _, c := range n.Children {
		zeroBounds(c)
	}
}
