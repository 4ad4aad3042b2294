package engine

import (
	"github.com/laminahq/lamina/backend-go/internal/document"
)

// FromDocument builds a scene graph store for one page of a document. Child
// references that point at missing nodes are skipped, ids reachable twice
// are kept only at their first position, and placeholder records are
// dropped; placeholders are never valid in a persisted document.
func FromDocument(doc *document.Document, pageID string) *Graph {
	page, ok := doc.Pages[pageID]
	if !ok {
		return NewGraph("root")
	}

	g := NewGraph(page.Root)
	rootRec, ok := doc.Nodes[page.Root]
	if !ok {
		return g
	}
	applyRecord(g.Root, rootRec)
	g.Root.Type = document.NodeTypeRoot

	seen := map[string]bool{page.Root: true}
	buildChildren(g, doc, rootRec, g.Root, seen)

	// A freshly built graph has no edit history.
	g.generation = 0
	g.dirty = true
	return g
}

func buildChildren(g *Graph, doc *document.Document, rec document.Node, parent *Node, seen map[string]bool) {
	for _, childID := range rec.Children {
		if seen[childID] {
			continue
		}
		childRec, ok := doc.Nodes[childID]
		if !ok || childRec.Type == document.NodeTypePlaceholder {
			continue
		}
		seen[childID] = true

		child := &Node{ID: childID}
		applyRecord(child, childRec)
		g.Add(child, parent.ID)
		buildChildren(g, doc, childRec, child, seen)
	}
}

// applyRecord copies a document node record onto a store node. Hierarchy
// fields (parent, children) are managed by the store, not copied.
func applyRecord(n *Node, rec document.Node) {
	n.Type = rec.Type
	n.Layout = rec.Layout
	n.Style = rec.Style
	n.Visible = rec.Visible
	n.Locked = rec.Locked
	n.AbsoluteInFrame = rec.AbsoluteInFrame
	n.IsViewport = rec.IsViewport
	n.IsDynamic = rec.IsDynamic
	n.DynamicViewportID = rec.DynamicViewportID
	n.DynamicParentID = rec.DynamicParentID
	n.SharedID = rec.SharedID
	n.Data = rec.Data
}

// NodeFromRecord creates a detached store node from a document record.
func NodeFromRecord(rec document.Node) *Node {
	n := &Node{ID: rec.ID}
	applyRecord(n, rec)
	return n
}

// RecordFromNode serializes a store node back to its document record form.
func RecordFromNode(n *Node) document.Node {
	rec := document.Node{
		ID:                n.ID,
		Type:              n.Type,
		Layout:            n.Layout,
		Style:             n.Style,
		Visible:           n.Visible,
		Locked:            n.Locked,
		AbsoluteInFrame:   n.AbsoluteInFrame,
		IsViewport:        n.IsViewport,
		IsDynamic:         n.IsDynamic,
		DynamicViewportID: n.DynamicViewportID,
		DynamicParentID:   n.DynamicParentID,
		SharedID:          n.SharedID,
		Data:              n.Data,
	}
	if n.Parent != nil {
		parentID := n.Parent.ID
		rec.Parent = &parentID
	}
	for _, c := range n.Children {
		if c.Type == document.NodeTypePlaceholder {
			continue
		}
		rec.Children = append(rec.Children, c.ID)
	}
	return rec
}

// ExportNodes serializes the attached hierarchy back into a document node
// map. Placeholder nodes are transient drag state and are never written out.
func ExportNodes(g *Graph) map[string]document.Node {
	out := make(map[string]document.Node, len(g.byID))
	exportNode(g.Root, out)
	return out
}

func exportNode(n *Node, out map[string]document.Node) {
	out[n.ID] = RecordFromNode(n)
	for _, c := range n.Children {
		if c.Type == document.NodeTypePlaceholder {
			continue
		}
		exportNode(c, out)
	}
}
