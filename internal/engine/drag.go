package engine

import (
	"math"
	"sort"

	"github.com/laminahq/lamina/backend-go/internal/document"
	"github.com/laminahq/lamina/backend-go/internal/typeid"
)

// DragSource classifies where a drag started. The source decides the
// placement rules the session applies while dragging.
type DragSource string

const (
	// SourceCanvas is a node picked up at canvas-root level.
	SourceCanvas DragSource = "canvas"
	// SourceViewport is a node inside a breakpoint viewport; the drag stays
	// confined to that viewport's scope.
	SourceViewport DragSource = "viewport"
	// SourceToolbar is a fresh node spawned from a toolbar template.
	SourceToolbar DragSource = "toolbar"
	// SourceParent is a node nested in an ordinary flow container.
	SourceParent DragSource = "parent"
	// SourceAbsolute is a node absolutely positioned inside a frame.
	SourceAbsolute DragSource = "absolute-in-frame"
)

// Phase is the state of the drag session machine. Committing and Cancelling
// run synchronously inside the pointer-up (or cancel) call and land back on
// Idle before it returns.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseArmed
	PhaseDragging
	PhaseCommitting
	PhaseCancelling
)

// DropInfo describes where the dragged nodes land if released now, in the
// shape rendering and persistence collaborators consume.
type DropInfo struct {
	TargetID string   `json:"targetId"`
	Position Position `json:"position"`
	CanvasX  float64  `json:"canvasX"`
	CanvasY  float64  `json:"canvasY"`
}

// DraggedNodeInfo is the drag overlay surface: enough for the frontend to
// draw the nodes moving under the pointer.
type DraggedNodeInfo struct {
	ID      string            `json:"id"`
	Type    document.NodeType `json:"type"`
	Width   float64           `json:"width"`
	Height  float64           `json:"height"`
	OffsetX float64           `json:"offsetX"`
	OffsetY float64           `json:"offsetY"`
}

// draggedNode is one member of the drag bloc with its rollback snapshot and
// the placeholder standing in for it.
type draggedNode struct {
	node   *Node
	offset Point // pointer minus node origin, canvas space, at drag start

	origParent string
	origIndex  int

	ph      *Node
	spawned bool // toolbar template: no original position to roll back to
}

// placement is a resolved (target, position) pair. The session memoizes the
// last applied one so an unchanged resolution never re-issues a mutation.
type placement struct {
	targetID string
	position Position
}

// session holds everything owned by one drag. It is created on pointer-down
// and destroyed on commit or cancel; nothing in it outlives the drag.
type session struct {
	source DragSource

	originScreen Point
	lastScreen   Point
	travel       float64

	primaryID    string
	armSelection []string
	template     *document.Node

	nodes   []draggedNode
	exclude map[string]bool

	dir *DirectionTracker

	// applied is the last placement written to the graph; containerID is
	// the container currently holding the placeholders.
	applied     *placement
	containerID string

	// confinement scope for viewport/dynamic drags.
	confined     bool
	homeViewport string

	// re-entry memory: the root container computed once at drag start and
	// the last placement applied inside it.
	homeRoot   string
	homeMemory *placement

	drop      *DropInfo
	indicator *Indicator
}

// DragController runs the drag session state machine:
//
//	Idle → Armed → Dragging → {Committing | Cancelling} → Idle
//
// It owns placeholder lifecycle and the reorder algorithm, mutates the graph
// only through the store's mutators, and converts screen coordinates with the
// camera's live transform on every resolution so auto-scroll never fights the
// pointer math.
type DragController struct {
	graph  *Graph
	camera *Camera
	opts   Options

	phase Phase
	s     *session
}

// NewDragController creates an idle controller bound to the given graph and
// camera.
func NewDragController(graph *Graph, camera *Camera, opts Options) *DragController {
	return &DragController{graph: graph, camera: camera, opts: opts}
}

// SetGraph rebinds the controller after a document or page switch. Any active
// session is cancelled against the old graph first.
func (d *DragController) SetGraph(g *Graph) {
	d.Cancel()
	d.graph = g
}

// Phase returns the current state machine phase.
func (d *DragController) Phase() Phase { return d.phase }

// IsDragging reports whether a session is past the move threshold.
func (d *DragController) IsDragging() bool { return d.phase == PhaseDragging }

// Source returns the active session's drag source, "" when idle or armed.
func (d *DragController) Source() DragSource {
	if d.s == nil || d.phase != PhaseDragging {
		return ""
	}
	return d.s.source
}

// DropInfo returns a copy of the pending drop target, nil when none resolved.
func (d *DragController) DropInfo() *DropInfo {
	if d.s == nil || d.s.drop == nil {
		return nil
	}
	drop := *d.s.drop
	return &drop
}

// Indicator returns the insertion line for the pending drop, nil when the
// drop is a free placement or no session is active.
func (d *DragController) Indicator() *Indicator {
	if d.s == nil || d.s.indicator == nil {
		return nil
	}
	ind := *d.s.indicator
	return &ind
}

// DraggedNodes returns the overlay info for every node in the drag bloc,
// primary-order first.
func (d *DragController) DraggedNodes() []DraggedNodeInfo {
	if d.s == nil || d.phase != PhaseDragging {
		return nil
	}
	infos := make([]DraggedNodeInfo, len(d.s.nodes))
	for i, dn := range d.s.nodes {
		infos[i] = DraggedNodeInfo{
			ID:      dn.node.ID,
			Type:    dn.node.Type,
			Width:   dn.node.Layout.Width,
			Height:  dn.node.Layout.Height,
			OffsetX: dn.offset.X,
			OffsetY: dn.offset.Y,
		}
	}
	return infos
}

// DraggedNodeIDs returns the ids of the dragged bloc in original order.
func (d *DragController) DraggedNodeIDs() []string {
	if d.s == nil || d.phase != PhaseDragging {
		return nil
	}
	ids := make([]string, len(d.s.nodes))
	for i, dn := range d.s.nodes {
		ids[i] = dn.node.ID
	}
	return ids
}

// PointerScreen returns the last pointer position while a session is active.
func (d *DragController) PointerScreen() (Point, bool) {
	if d.s == nil {
		return Point{}, false
	}
	return d.s.lastScreen, true
}

// exclude returns the dragged subtree ids hit-testing must skip.
func (d *DragController) excludeSet() map[string]bool {
	if d.s == nil {
		return nil
	}
	return d.s.exclude
}

// Arm records a pointer-down on a draggable node. No mutation happens until
// the pointer travels past the move threshold. Locked nodes and the root
// refuse to arm.
func (d *DragController) Arm(nodeID string, screen Point, selection []string) bool {
	if d.phase != PhaseIdle {
		return false
	}
	n := d.graph.Node(nodeID)
	if n == nil || n == d.graph.Root || n.Locked {
		return false
	}
	d.s = &session{
		primaryID:    nodeID,
		armSelection: append([]string(nil), selection...),
		originScreen: screen,
		lastScreen:   screen,
		dir:          NewDirectionTracker(d.opts.DirectionalBiasPx),
	}
	d.phase = PhaseArmed
	return true
}

// ArmTemplate records a pointer-down on a toolbar template. The node spawns
// only when the press actually becomes a drag, so a sub-threshold click never
// creates anything.
func (d *DragController) ArmTemplate(rec document.Node, screen Point) bool {
	if d.phase != PhaseIdle {
		return false
	}
	if rec.Type == document.NodeTypePlaceholder || rec.Type == document.NodeTypeRoot {
		return false
	}
	tmpl := rec
	d.s = &session{
		template:     &tmpl,
		originScreen: screen,
		lastScreen:   screen,
		dir:          NewDirectionTracker(d.opts.DirectionalBiasPx),
	}
	d.phase = PhaseArmed
	return true
}

// PointerMove feeds one pointer movement into the session: it accumulates
// travel while armed, promotes to Dragging past the threshold, and resolves
// the drop target while dragging.
func (d *DragController) PointerMove(screen Point) {
	if !isFinite(screen.X) || !isFinite(screen.Y) {
		return
	}
	switch d.phase {
	case PhaseArmed:
		d.s.travel += dist(d.s.lastScreen, screen)
		d.s.lastScreen = screen
		if d.s.travel >= d.opts.MoveThresholdPx {
			if !d.startDragging() {
				d.reset()
				return
			}
			d.resolve()
		}
	case PhaseDragging:
		d.s.dir.Update(screen.X-d.s.lastScreen.X, screen.Y-d.s.lastScreen.Y)
		d.s.lastScreen = screen
		d.resolve()
	}
}

// Refresh re-resolves the drop target at the last pointer position against
// the camera's current transform. The auto-scroll controller calls this on
// every tick it pans.
func (d *DragController) Refresh() {
	if d.phase == PhaseDragging {
		d.resolve()
	}
}

// PointerUp ends the session: a sub-threshold press is a click and unwinds
// silently; a drag commits when a valid drop target is pending and the
// release happened inside the canvas viewport, and cancels otherwise. The
// returned operations describe the committed structural changes.
func (d *DragController) PointerUp(screen Point, insideViewport bool) []Op {
	switch d.phase {
	case PhaseArmed:
		d.reset()
		return nil
	case PhaseDragging:
		d.s.lastScreen = screen
		if !insideViewport || d.s.drop == nil {
			d.cancel()
			return nil
		}
		return d.commit()
	}
	return nil
}

// Cancel unwinds any session regardless of phase: escape, pointer-capture
// loss, and page switches all route here.
func (d *DragController) Cancel() {
	switch d.phase {
	case PhaseArmed:
		d.reset()
	case PhaseDragging:
		d.cancel()
	}
}

// startDragging promotes Armed to Dragging: it classifies the source,
// snapshots rollback state, detaches the dragged bloc, and stands
// placeholders in at the original positions.
func (d *DragController) startDragging() bool {
	s := d.s
	ensureLayout(d.graph)

	if s.template != nil {
		return d.startTemplateDrag()
	}

	primary := d.graph.Node(s.primaryID)
	if primary == nil || primary.Locked || primary.Parent == nil {
		return false
	}

	s.source = classifySource(d.graph, primary)
	s.homeViewport = d.graph.ViewportOf(primary.ID)
	s.confined = s.homeViewport != "" && s.source != SourceCanvas
	s.homeRoot = d.graph.RootContainerOf(primary.ID)

	pt := d.canvasPoint()
	bloc := d.blocMembers(primary)
	s.nodes = make([]draggedNode, 0, len(bloc))
	s.exclude = make(map[string]bool, len(bloc))
	for _, n := range bloc {
		parentID, _ := d.graph.ParentOf(n.ID)
		dn := draggedNode{
			node:       n,
			offset:     Point{X: pt.X - n.Bounds.X, Y: pt.Y - n.Bounds.Y},
			origParent: parentID,
			origIndex:  d.graph.IndexIn(parentID, n.ID),
		}
		dn.ph = newPlaceholder(n)
		s.nodes = append(s.nodes, dn)
		markSubtree(n, s.exclude)
	}

	// Seed the memo with the pre-drag placement so the first resolution
	// over the original spot does not re-splice the tree.
	seed := d.originalPlacement()
	s.applied = &seed
	s.containerID = s.nodes[0].origParent
	if s.homeRoot != "" && d.graph.RootContainerOf(s.containerID) == s.homeRoot {
		mem := seed
		s.homeMemory = &mem
	}

	// Swap each dragged node for its placeholder, one at a time, so sibling
	// indices stay stable for the rest of the bloc.
	for i := range s.nodes {
		dn := &s.nodes[i]
		d.graph.Detach(dn.node.ID)
		d.graph.InsertAt(dn.ph, dn.origParent, dn.origIndex)
	}

	s.drop = &DropInfo{TargetID: seed.targetID, Position: seed.position, CanvasX: pt.X, CanvasY: pt.Y}
	d.phase = PhaseDragging
	return true
}

// startTemplateDrag spawns the toolbar template as a detached node. Its
// placeholder attaches on the first resolved target; until then there is no
// valid drop and releasing cancels.
func (d *DragController) startTemplateDrag() bool {
	s := d.s
	rec := *s.template
	if rec.ID == "" {
		rec.ID = typeid.NewNodeID()
	}
	rec.Visible = true
	node := NodeFromRecord(rec)

	s.source = SourceToolbar
	s.primaryID = node.ID
	dn := draggedNode{
		node:       node,
		offset:     Point{X: rec.Layout.Width / 2, Y: rec.Layout.Height / 2},
		origParent: "",
		origIndex:  -1,
		spawned:    true,
	}
	dn.ph = newPlaceholder(node)
	s.nodes = []draggedNode{dn}
	s.exclude = map[string]bool{node.ID: true}
	d.phase = PhaseDragging
	return true
}

// commit relocates every dragged node to its placeholder's exact parent and
// index, removes the placeholders, and reports the resulting operations.
// Structural changes become final here and only here.
func (d *DragController) commit() []Op {
	d.phase = PhaseCommitting
	s := d.s
	ops := make([]Op, 0, len(s.nodes)*2)

	for i := range s.nodes {
		dn := &s.nodes[i]
		ph := dn.ph
		if !d.graph.Has(ph.ID) || ph.Parent == nil {
			// Placeholder never landed anywhere (a toolbar drag that
			// stayed off-canvas): nothing to commit for this node.
			d.restoreOriginal(dn)
			continue
		}
		parentID := ph.Parent.ID
		index := d.graph.IndexIn(parentID, ph.ID)
		abs := ph.AbsoluteInFrame
		x, y := ph.Layout.X, ph.Layout.Y
		d.graph.Remove(ph.ID)

		n := dn.node
		wasAbs := n.AbsoluteInFrame
		n.AbsoluteInFrame = abs
		free := parentID == d.graph.Root.ID
		if abs || free {
			n.Layout.X = x
			n.Layout.Y = y
		}

		if dn.spawned {
			if !d.graph.InsertAt(n, parentID, index) {
				continue
			}
			rec := RecordFromNode(n)
			ops = append(ops, Op{Type: OpNodeCreate, NodeID: n.ID, ParentID: parentID, Index: index, Node: &rec})
			continue
		}

		if !d.graph.Move(n.ID, parentID, index) {
			d.restoreOriginal(dn)
			continue
		}
		op := Op{
			Type:         OpNodeReparent,
			NodeID:       n.ID,
			ParentID:     parentID,
			Index:        index,
			PrevParentID: dn.origParent,
			PrevIndex:    dn.origIndex,
		}
		if wasAbs != abs {
			flag := abs
			op.Absolute = &flag
		}
		ops = append(ops, op)
		if abs || free {
			layout := n.Layout
			ops = append(ops, Op{Type: OpNodeLayout, NodeID: n.ID, Layout: &layout})
		}
	}

	d.reset()
	return ops
}

// cancel unwinds the session: placeholders removed, dragged nodes restored to
// their drag-start parent and index, nothing else left behind.
func (d *DragController) cancel() {
	d.phase = PhaseCancelling
	s := d.s
	for i := range s.nodes {
		if d.graph.Has(s.nodes[i].ph.ID) {
			d.graph.Remove(s.nodes[i].ph.ID)
		}
	}
	// Ascending original-index order reproduces the exact pre-drag tree.
	for i := range s.nodes {
		d.restoreOriginal(&s.nodes[i])
	}
	d.reset()
}

// restoreOriginal reattaches a dragged node at its snapshot position. A
// spawned node has none and is simply discarded.
func (d *DragController) restoreOriginal(dn *draggedNode) {
	if dn.spawned {
		return
	}
	if !d.graph.Move(dn.node.ID, dn.origParent, dn.origIndex) {
		// Snapshot parent gone; parking at root level beats losing the node.
		d.graph.Move(dn.node.ID, d.graph.Root.ID, -1)
	}
}

func (d *DragController) reset() {
	d.phase = PhaseIdle
	d.s = nil
}

// blocMembers returns the nodes dragged together: the pressed node alone, or
// the whole multi-selection when the pressed node belongs to one and every
// member shares its parent. Locked members drop out; an incompatible context
// collapses the bloc to the pressed node. The result is ordered by original
// sibling index.
func (d *DragController) blocMembers(primary *Node) []*Node {
	sel := d.s.armSelection
	if len(sel) < 2 || !containsID(sel, primary.ID) {
		return []*Node{primary}
	}
	parentID, _ := d.graph.ParentOf(primary.ID)
	members := make([]*Node, 0, len(sel))
	for _, id := range sel {
		n := d.graph.Node(id)
		if n == nil || n == d.graph.Root {
			continue
		}
		if p, _ := d.graph.ParentOf(id); p != parentID {
			return []*Node{primary}
		}
		if n.Locked {
			continue
		}
		members = append(members, n)
	}
	if len(members) <= 1 {
		return []*Node{primary}
	}
	sort.SliceStable(members, func(i, j int) bool {
		return d.graph.IndexIn(parentID, members[i].ID) < d.graph.IndexIn(parentID, members[j].ID)
	})
	return members
}

// originalPlacement expresses the dragged bloc's pre-drag location as a
// (target, position) pair, so the reorder memo starts seeded and resolving
// over the original spot never re-issues a mutation.
func (d *DragController) originalPlacement() placement {
	s := d.s
	parentID := s.nodes[0].origParent
	if parentID == d.graph.Root.ID {
		return placement{targetID: parentID, position: PositionInside}
	}
	if s.source == SourceAbsolute {
		return placement{targetID: parentID, position: PositionInside}
	}

	dragged := make(map[string]bool, len(s.nodes))
	firstIdx, lastIdx := s.nodes[0].origIndex, s.nodes[0].origIndex
	for i := range s.nodes {
		dragged[s.nodes[i].node.ID] = true
		if s.nodes[i].origIndex < firstIdx {
			firstIdx = s.nodes[i].origIndex
		}
		if s.nodes[i].origIndex > lastIdx {
			lastIdx = s.nodes[i].origIndex
		}
	}

	order := SiblingOrder(d.graph, parentID)
	// Nearest flow sibling after the bloc anchors "before"; otherwise the
	// nearest one before it anchors "after"; a bloc alone sits "inside".
	for _, id := range order {
		if dragged[id] {
			continue
		}
		if d.graph.IndexIn(parentID, id) > lastIdx {
			return placement{targetID: id, position: PositionBefore}
		}
	}
	for i := len(order) - 1; i >= 0; i-- {
		id := order[i]
		if dragged[id] {
			continue
		}
		if d.graph.IndexIn(parentID, id) < firstIdx {
			return placement{targetID: id, position: PositionAfter}
		}
	}
	return placement{targetID: parentID, position: PositionInside}
}

// canvasPoint converts the last pointer position using the camera's live
// transform. Never cache this: auto-scroll changes the transform mid-drag.
func (d *DragController) canvasPoint() Point {
	return d.camera.Transform().ToCanvas(d.s.lastScreen)
}

// classifySource picks the placement rules for a node about to be dragged.
func classifySource(g *Graph, n *Node) DragSource {
	if n.AbsoluteInFrame {
		return SourceAbsolute
	}
	if n.Parent == nil || n.Parent == g.Root {
		return SourceCanvas
	}
	if g.ViewportOf(n.ID) != "" {
		return SourceViewport
	}
	return SourceParent
}

// newPlaceholder builds the transient stand-in for a dragged node. It copies
// the node's box so the gap it marks has the right size.
func newPlaceholder(n *Node) *Node {
	return &Node{
		ID:              typeid.NewPlaceholderID(),
		Type:            document.NodeTypePlaceholder,
		Visible:         true,
		Layout:          n.Layout,
		AbsoluteInFrame: n.AbsoluteInFrame,
	}
}

func markSubtree(n *Node, set map[string]bool) {
	set[n.ID] = true
	for _, c := range n.Children {
		markSubtree(c, set)
	}
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func dist(a, b Point) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// ensureLayout recomputes bounds when the graph is dirty so hit-testing and
// anchor resolution always run against current geometry.
func ensureLayout(g *Graph) {
	if g.Dirty() {
		ComputeLayout(g)
	}
}
