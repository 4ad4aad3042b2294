package engine

import (
	"encoding/json"

	"github.com/laminahq/lamina/backend-go/internal/document"
)

// RenderBox is one visible node in paint order with its resolved canvas rect.
type RenderBox struct {
	ID          string            `json:"id"`
	Type        document.NodeType `json:"type"`
	Rect        Rect              `json:"rect"`
	Style       document.Style    `json:"style"`
	Data        json.RawMessage   `json:"data,omitempty"`
	Placeholder bool              `json:"placeholder,omitempty"`
}

// RenderOutput is the one-way projection the rendering collaborator draws:
// boxes back-to-front plus the pending insertion indicator. Dragged nodes are
// detached and therefore absent; the frontend draws the drag overlay from the
// drag surface instead.
type RenderOutput struct {
	Boxes     []RenderBox `json:"boxes"`
	Indicator *Indicator  `json:"indicator,omitempty"`
}

// RenderTree flattens the attached graph in painter's order: parents before
// children, siblings in child order, invisible subtrees skipped.
func RenderTree(g *Graph, indicator *Indicator) RenderOutput {
	out := RenderOutput{Boxes: []RenderBox{}, Indicator: indicator}
	if g == nil || g.Root == nil {
		return out
	}
	ensureLayout(g)
	for _, c := range g.Root.Children {
		renderNode(c, &out.Boxes)
	}
	return out
}

func renderNode(n *Node, boxes *[]RenderBox) {
	if !n.Visible {
		return
	}
	*boxes = append(*boxes, RenderBox{
		ID:          n.ID,
		Type:        n.Type,
		Rect:        n.Bounds,
		Style:       n.Style,
		Data:        n.Data,
		Placeholder: n.Type == document.NodeTypePlaceholder,
	})
	for _, c := range n.Children {
		renderNode(c, boxes)
	}
}
