package engine

import (
	"encoding/json"

	"github.com/laminahq/lamina/backend-go/internal/document"
)

// Rect is an axis-aligned box in canvas space.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Contains checks if a point is inside the rect.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width && y >= r.Y && y <= r.Y+r.Height
}

// IsEmpty checks if the rect has zero or negative area.
func (r Rect) IsEmpty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Degenerate reports whether the rect is unusable for hit-testing: empty or
// containing non-finite components.
func (r Rect) Degenerate() bool {
	return r.IsEmpty() ||
		!isFinite(r.X) || !isFinite(r.Y) ||
		!isFinite(r.Width) || !isFinite(r.Height)
}

// Union returns the smallest rect containing both rects.
func (r Rect) Union(other Rect) Rect {
	if r.IsEmpty() {
		return other
	}
	if other.IsEmpty() {
		return r
	}

	minX := min(r.X, other.X)
	minY := min(r.Y, other.Y)
	maxX := max(r.X+r.Width, other.X+other.Width)
	maxY := max(r.Y+r.Height, other.Y+other.Height)

	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// Center returns the center point of the rect.
func (r Rect) Center() (float64, float64) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// Node is an element in the scene graph store. Position among siblings is
// defined by the parent's Children order, never stored on the node.
type Node struct {
	ID   string
	Type document.NodeType

	Parent   *Node
	Children []*Node

	Layout  document.Layout
	Style   document.Style
	Visible bool
	Locked  bool

	AbsoluteInFrame   bool
	IsViewport        bool
	IsDynamic         bool
	DynamicViewportID string
	DynamicParentID   string
	SharedID          string

	Data json.RawMessage

	// Bounds is the canvas-space box computed by the layout pass.
	Bounds Rect
}

// IsContainer reports whether the node can hold flow children.
func (n *Node) IsContainer() bool {
	return n.Type == document.NodeTypeFrame || n.Type == document.NodeTypeRoot
}

// NodeFlags is the read model of a node's placement flags. InViewport is
// derived from the store's ancestor-viewport index.
type NodeFlags struct {
	Locked          bool `json:"locked"`
	InViewport      bool `json:"inViewport"`
	AbsoluteInFrame bool `json:"absoluteInFrame"`
	IsViewport      bool `json:"isViewport"`
	IsDynamic       bool `json:"isDynamic"`
}

// Graph is the scene graph store: the single source of truth for the element
// hierarchy of the page being edited. Mutators are silent no-ops for unknown
// ids (stale ids are routine during rapid drag updates) and report whether
// they applied; they keep child arrays duplicate-free and parent pointers
// consistent within the call.
type Graph struct {
	Root *Node

	byID map[string]*Node

	// viewportOf maps a node id to the id of its nearest isViewport
	// ancestor ("" when none). Maintained incrementally on every mutation
	// so viewport resolution never walks parent chains.
	viewportOf map[string]string

	// family groups registered nodes by SharedID, the identity linking
	// variant copies of one element across breakpoint viewports.
	family map[string][]*Node

	// generation counts applied mutations. No-ops do not advance it.
	generation uint64

	dirty bool // layout needs recomputing
}

// NewGraph creates a store anchored at a fresh root node with the given id.
func NewGraph(rootID string) *Graph {
	root := &Node{
		ID:      rootID,
		Type:    document.NodeTypeRoot,
		Visible: true,
		Style:   document.Style{Opacity: 1},
	}
	g := &Graph{
		Root:       root,
		byID:       map[string]*Node{rootID: root},
		viewportOf: map[string]string{rootID: ""},
		family:     map[string][]*Node{},
	}
	return g
}

// Node returns the node for id, or nil when unknown.
func (g *Graph) Node(id string) *Node {
	return g.byID[id]
}

// Has reports whether id is registered in the store (attached or detached).
func (g *Graph) Has(id string) bool {
	_, ok := g.byID[id]
	return ok
}

// Generation returns the number of mutations applied so far.
func (g *Graph) Generation() uint64 {
	return g.generation
}

// Dirty reports whether the layout pass needs to run.
func (g *Graph) Dirty() bool { return g.dirty }

// MarkDirty forces a layout recompute on the next pass.
func (g *Graph) MarkDirty() { g.dirty = true }

// ClearDirty is called by the layout pass after recomputing bounds.
func (g *Graph) ClearDirty() { g.dirty = false }

// Add registers n and appends it as the last child of parentID. No-op when
// the parent is unknown or the id is already registered.
func (g *Graph) Add(n *Node, parentID string) bool {
	return g.InsertAt(n, parentID, len(g.ChildrenOf(parentID)))
}

// InsertAt registers n and inserts it under parentID at index, clamped to
// [0, len(children)]. No-op when the parent is unknown or the id is already
// registered.
func (g *Graph) InsertAt(n *Node, parentID string, index int) bool {
	if n == nil || n.ID == "" {
		return false
	}
	parent := g.byID[parentID]
	if parent == nil {
		return false
	}
	if _, exists := g.byID[n.ID]; exists {
		return false
	}
	g.registerSubtree(n)
	g.spliceIn(parent, n, index)
	g.assignViewport(n, g.effectiveViewport(parent))
	g.mutated()
	return true
}

// Move detaches id from its current parent and inserts it under newParentID
// at newIndex (append when negative). The index is interpreted after removal,
// so moving a node forward within the same parent lands exactly at newIndex.
// Refuses unknown ids, unknown parents, and moves that would create a cycle.
func (g *Graph) Move(id, newParentID string, newIndex int) bool {
	n := g.byID[id]
	if n == nil || n == g.Root {
		return false
	}
	parent := g.byID[newParentID]
	if parent == nil {
		return false
	}
	if parent == n || g.IsAncestor(id, newParentID) {
		return false
	}
	if n.Parent != nil {
		g.spliceOut(n.Parent, n)
	}
	if newIndex < 0 {
		newIndex = len(parent.Children)
	}
	g.spliceIn(parent, n, newIndex)
	g.assignViewport(n, g.effectiveViewport(parent))
	g.mutated()
	return true
}

// Remove detaches id and discards its whole subtree from the store.
func (g *Graph) Remove(id string) bool {
	n := g.byID[id]
	if n == nil || n == g.Root {
		return false
	}
	if n.Parent != nil {
		g.spliceOut(n.Parent, n)
	}
	g.unregisterSubtree(n)
	g.mutated()
	return true
}

// Detach unlinks id from its parent but keeps the subtree registered. The
// drag session uses this to hold dragged nodes outside the tree while
// placeholders stand in for them.
func (g *Graph) Detach(id string) bool {
	n := g.byID[id]
	if n == nil || n == g.Root || n.Parent == nil {
		return false
	}
	g.spliceOut(n.Parent, n)
	n.Parent = nil
	g.assignViewport(n, "")
	g.mutated()
	return true
}

// ParentOf returns the parent id of id. ok is false when id is unknown; a
// detached or root node reports ok with an empty parent id.
func (g *Graph) ParentOf(id string) (string, bool) {
	n := g.byID[id]
	if n == nil {
		return "", false
	}
	if n.Parent == nil {
		return "", true
	}
	return n.Parent.ID, true
}

// ChildrenOf returns the ordered child ids of id, nil when unknown.
func (g *Graph) ChildrenOf(id string) []string {
	n := g.byID[id]
	if n == nil {
		return nil
	}
	ids := make([]string, len(n.Children))
	for i, c := range n.Children {
		ids[i] = c.ID
	}
	return ids
}

// FlagsOf returns the placement flags of id.
func (g *Graph) FlagsOf(id string) (NodeFlags, bool) {
	n := g.byID[id]
	if n == nil {
		return NodeFlags{}, false
	}
	return NodeFlags{
		Locked:          n.Locked,
		InViewport:      g.viewportOf[id] != "",
		AbsoluteInFrame: n.AbsoluteInFrame,
		IsViewport:      n.IsViewport,
		IsDynamic:       n.IsDynamic,
	}, true
}

// StyleOf returns the style attributes of id.
func (g *Graph) StyleOf(id string) (document.Style, bool) {
	n := g.byID[id]
	if n == nil {
		return document.Style{}, false
	}
	return n.Style, true
}

// LayoutOf returns the layout attributes of id.
func (g *Graph) LayoutOf(id string) (document.Layout, bool) {
	n := g.byID[id]
	if n == nil {
		return document.Layout{}, false
	}
	return n.Layout, true
}

// ViewportOf returns the id of the nearest isViewport ancestor of id, or ""
// when the node is outside any breakpoint viewport.
func (g *Graph) ViewportOf(id string) string {
	return g.viewportOf[id]
}

// DynamicFamilyOf returns the ids of the registered nodes sharing id's
// cross-breakpoint identity, id itself included, in registration order.
// Nodes without a SharedID have no family beyond themselves.
func (g *Graph) DynamicFamilyOf(id string) []string {
	n := g.byID[id]
	if n == nil {
		return nil
	}
	if n.SharedID == "" {
		return []string{id}
	}
	members := g.family[n.SharedID]
	ids := make([]string, len(members))
	for i, m := range members {
		ids[i] = m.ID
	}
	return ids
}

// IndexIn returns the position of id within parentID's children, -1 when
// absent.
func (g *Graph) IndexIn(parentID, id string) int {
	parent := g.byID[parentID]
	if parent == nil {
		return -1
	}
	for i, c := range parent.Children {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// IsAncestor reports whether ancestorID is an ancestor of id (or the node
// itself).
func (g *Graph) IsAncestor(ancestorID, id string) bool {
	n := g.byID[id]
	for n != nil {
		if n.ID == ancestorID {
			return true
		}
		n = n.Parent
	}
	return false
}

// RootContainerOf returns the topmost ancestor of id sitting directly below
// the canvas root (the node itself when it is root-level), or "" for the root
// and detached nodes. The drag session computes this once at drag start for
// the re-entry rule.
func (g *Graph) RootContainerOf(id string) string {
	n := g.byID[id]
	if n == nil {
		return ""
	}
	for n.Parent != nil && n.Parent != g.Root {
		n = n.Parent
	}
	if n.Parent == nil {
		return ""
	}
	return n.ID
}

// --- internals ---

// spliceIn inserts n into parent.Children at index (clamped) and sets the
// parent pointer. Duplicate insertion is prevented by the byID registration
// checks in the public mutators.
func (g *Graph) spliceIn(parent *Node, n *Node, index int) {
	if index < 0 {
		index = 0
	}
	if index > len(parent.Children) {
		index = len(parent.Children)
	}
	children := make([]*Node, 0, len(parent.Children)+1)
	children = append(children, parent.Children[:index]...)
	children = append(children, n)
	children = append(children, parent.Children[index:]...)
	parent.Children = children
	n.Parent = parent
}

// spliceOut removes n from parent.Children.
func (g *Graph) spliceOut(parent *Node, n *Node) {
	children := make([]*Node, 0, len(parent.Children))
	for _, c := range parent.Children {
		if c != n {
			children = append(children, c)
		}
	}
	parent.Children = children
}

func (g *Graph) registerSubtree(n *Node) {
	g.byID[n.ID] = n
	if n.SharedID != "" {
		g.family[n.SharedID] = append(g.family[n.SharedID], n)
	}
	for _, c := range n.Children {
		g.registerSubtree(c)
	}
}

func (g *Graph) unregisterSubtree(n *Node) {
	delete(g.byID, n.ID)
	delete(g.viewportOf, n.ID)
	if n.SharedID != "" {
		members := g.family[n.SharedID]
		kept := members[:0]
		for _, m := range members {
			if m != n {
				kept = append(kept, m)
			}
		}
		if len(kept) == 0 {
			delete(g.family, n.SharedID)
		} else {
			g.family[n.SharedID] = kept
		}
	}
	for _, c := range n.Children {
		g.unregisterSubtree(c)
	}
}

// effectiveViewport returns the viewport scope that children of n inherit.
func (g *Graph) effectiveViewport(n *Node) string {
	if n.IsViewport {
		return n.ID
	}
	return g.viewportOf[n.ID]
}

// assignViewport recomputes the ancestor-viewport index for n's subtree with
// the given inherited scope. A viewport node itself belongs to the outer
// scope; its descendants belong to it.
func (g *Graph) assignViewport(n *Node, base string) {
	g.viewportOf[n.ID] = base
	childBase := base
	if n.IsViewport {
		childBase = n.ID
	}
	for _, c := range n.Children {
		g.assignViewport(c, childBase)
	}
}

func (g *Graph) mutated() {
	g.generation++
	g.dirty = true
}
