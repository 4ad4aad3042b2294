package engine

import (
	"encoding/json"
	"math"
	"sort"
	"time"

	"github.com/laminahq/lamina/backend-go/internal/document"
	"github.com/laminahq/lamina/backend-go/internal/typeid"
)

// Pointer button codes, matching the browser PointerEvent convention.
const (
	LeftButton   = 0
	MiddleButton = 1
)

// wheelZoomRate converts wheel delta into an exponential zoom factor, so
// equal scroll distances zoom by equal ratios.
const wheelZoomRate = 0.0015

// Engine owns the editing state of one open canvas: the document, the scene
// graph of the current page, the camera, the drag session, and the
// selection. It is driven synchronously from a single goroutine (the UI
// event loop or the wasm bridge); nothing in it is safe for concurrent use.
type Engine struct {
	opts Options

	doc    *document.Document
	pageID string

	graph    *Graph
	camera   *Camera
	drag     *DragController
	scroller *AutoScroller

	selection []string

	// viewportW/H are the screen dimensions of the canvas element, used for
	// auto-scroll margins and the release-outside check. Zero means the
	// host never reported a size and the checks are skipped.
	viewportW float64
	viewportH float64

	panning bool
	panLast Point

	ops []Op

	// pendingDoc holds a remote document update that arrived during an
	// active drag; pending holds local mutation calls made during one.
	// Both apply when the session returns to Idle.
	pendingDoc *document.Document
	pending    []func()
}

// New creates an engine with an empty single-root page.
func New(opts Options) *Engine {
	e := &Engine{opts: opts}
	e.camera = NewCamera(opts.SettleDelay, nil)
	e.scroller = NewAutoScroller(opts)
	e.graph = NewGraph(typeid.NewNodeID())
	e.drag = NewDragController(e.graph, e.camera, opts)
	return e
}

// --- document lifecycle ---

// LoadDocument replaces the whole editing state from a serialized document.
// Any active drag is cancelled against the old graph first.
func (e *Engine) LoadDocument(data string) error {
	var doc document.Document
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return err
	}
	e.drag.Cancel()
	e.pendingDoc = nil
	e.pending = nil
	e.doc = &doc
	e.pageID = firstPage(&doc)
	e.selection = nil
	e.rebuildGraph()
	return nil
}

// UpdateDocument applies a remote document update. During an active drag the
// update is queued and applied when the session returns to Idle, so the
// session never sees the tree change under it.
func (e *Engine) UpdateDocument(data string) error {
	var doc document.Document
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return err
	}
	if e.drag.Phase() != PhaseIdle {
		e.pendingDoc = &doc
		return nil
	}
	e.applyDocument(&doc)
	return nil
}

// LoadSampleDocument loads the built-in demo page.
func (e *Engine) LoadSampleDocument(projectID string) {
	e.drag.Cancel()
	e.pendingDoc = nil
	e.pending = nil
	e.doc = document.NewSampleDocument(projectID)
	e.pageID = firstPage(e.doc)
	e.selection = nil
	e.rebuildGraph()
}

// Document serializes the current document, with the open page's node map
// synced from the graph. Placeholders never appear in the output.
func (e *Engine) Document() string {
	if e.doc == nil {
		return "{}"
	}
	e.syncDocument()
	data, err := json.Marshal(e.doc)
	if err != nil {
		return "{}"
	}
	return string(data)
}

// SetPage switches the open page. The active drag, if any, cancels first.
func (e *Engine) SetPage(pageID string) bool {
	if e.doc == nil {
		return false
	}
	if _, ok := e.doc.Pages[pageID]; !ok {
		return false
	}
	if pageID == e.pageID {
		return true
	}
	e.drag.Cancel()
	e.drainPending()
	e.syncDocument()
	e.pageID = pageID
	e.selection = nil
	e.rebuildGraph()
	return true
}

// PageID returns the id of the open page.
func (e *Engine) PageID() string { return e.pageID }

// Pages returns the document's page ids in project order.
func (e *Engine) Pages() []string {
	if e.doc == nil {
		return nil
	}
	return append([]string(nil), e.doc.Project.Pages...)
}

// SetViewportSize reports the screen dimensions of the canvas element.
func (e *Engine) SetViewportSize(w, h float64) {
	if !isFinite(w) || !isFinite(h) || w < 0 || h < 0 {
		return
	}
	e.viewportW, e.viewportH = w, h
}

func (e *Engine) applyDocument(doc *document.Document) {
	e.doc = doc
	if _, ok := doc.Pages[e.pageID]; !ok {
		e.pageID = firstPage(doc)
	}
	e.rebuildGraph()
	e.selection = e.knownSelection(e.selection)
}

func (e *Engine) rebuildGraph() {
	if e.doc == nil {
		e.graph = NewGraph(typeid.NewNodeID())
	} else {
		e.graph = FromDocument(e.doc, e.pageID)
	}
	ComputeLayout(e.graph)
	e.drag.SetGraph(e.graph)
}

// syncDocument writes the open page's node hierarchy back into the document
// map, dropping records that belonged to the page but no longer exist. While
// a drag session is active the graph holds detached nodes and placeholders,
// so the last synced state stays in place until the session unwinds.
func (e *Engine) syncDocument() {
	if e.doc == nil || e.drag.Phase() != PhaseIdle {
		return
	}
	page, ok := e.doc.Pages[e.pageID]
	if !ok {
		return
	}
	for _, id := range docSubtreeIDs(e.doc, page.Root) {
		delete(e.doc.Nodes, id)
	}
	for id, rec := range ExportNodes(e.graph) {
		e.doc.Nodes[id] = rec
	}
}

// docSubtreeIDs collects the ids reachable from rootID in the document's
// node map. A seen set guards against malformed cyclic records.
func docSubtreeIDs(doc *document.Document, rootID string) []string {
	var out []string
	seen := map[string]bool{}
	stack := []string{rootID}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[id] {
			continue
		}
		seen[id] = true
		rec, ok := doc.Nodes[id]
		if !ok {
			continue
		}
		out = append(out, id)
		stack = append(stack, rec.Children...)
	}
	return out
}

// firstPage picks the page to open: the project's declared first page when
// it exists, otherwise the lexically smallest page id for determinism.
func firstPage(doc *document.Document) string {
	for _, id := range doc.Project.Pages {
		if _, ok := doc.Pages[id]; ok {
			return id
		}
	}
	ids := make([]string, 0, len(doc.Pages))
	for id := range doc.Pages {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	if len(ids) > 0 {
		return ids[0]
	}
	return ""
}

// --- camera ---

// Transform returns the published camera transform, the value collaborators
// may read mid-gesture.
func (e *Engine) Transform() Transform { return e.camera.Published() }

// SetTransform applies an external transform write. It is ignored while a
// local gesture holds write authority.
func (e *Engine) SetTransform(t Transform) bool { return e.camera.Set(t) }

// PanGestureStart begins an explicit pan (middle button or space-drag).
func (e *Engine) PanGestureStart(x, y float64) {
	e.panning = true
	e.panLast = Point{X: x, Y: y}
	e.camera.StartGesture()
}

// PanGestureMove continues an explicit pan.
func (e *Engine) PanGestureMove(x, y float64) {
	if !e.panning {
		return
	}
	e.camera.ApplyPan(x-e.panLast.X, y-e.panLast.Y)
	e.panLast = Point{X: x, Y: y}
}

// PanGestureEnd releases an explicit pan and arms the settle timer.
func (e *Engine) PanGestureEnd() {
	if !e.panning {
		return
	}
	e.panning = false
	e.camera.EndGesture(time.Now())
}

// Wheel handles a scroll event: plain wheel pans, ctrl-wheel zooms around
// the cursor. Each event re-arms the settle timer, so a scroll burst holds
// write authority until it goes quiet.
func (e *Engine) Wheel(x, y, dx, dy float64, ctrl bool) {
	now := time.Now()
	if !e.camera.Controlling() {
		e.camera.StartGesture()
	}
	if ctrl {
		factor := math.Exp(-dy * wheelZoomRate)
		e.camera.ApplyZoom(Point{X: x, Y: y}, factor)
	} else {
		e.camera.ApplyPan(-dx, -dy)
	}
	// A concurrent pan or auto-scroll gesture owns the release instead.
	if !e.panning && !e.scroller.Active() {
		e.camera.EndGesture(now)
	}
	if e.drag.IsDragging() {
		e.drag.Refresh()
	}
}

// --- pointer routing ---

// PointerDown begins a pan (middle button) or arms a drag (left button over
// a draggable node). Left button over empty canvas clears the selection.
func (e *Engine) PointerDown(x, y float64, button int) {
	pt := Point{X: x, Y: y}
	switch button {
	case MiddleButton:
		e.PanGestureStart(x, y)
	case LeftButton:
		hits := e.HitTest(x, y)
		if len(hits) == 0 {
			e.selection = nil
			return
		}
		id := hits[0]
		if !e.isSelected(id) {
			e.selection = []string{id}
		}
		e.drag.Arm(id, pt, e.selection)
	}
}

// PointerMove routes pointer movement to the pan gesture or drag session.
func (e *Engine) PointerMove(x, y float64) {
	if e.panning {
		e.PanGestureMove(x, y)
		return
	}
	e.drag.PointerMove(Point{X: x, Y: y})
}

// PointerUp ends the pan or drag. A drag released outside the canvas
// viewport cancels; inside, it commits at the pending drop target.
func (e *Engine) PointerUp(x, y float64) {
	if e.panning {
		e.PanGestureEnd()
		return
	}
	pt := Point{X: x, Y: y}
	e.scroller.Stop(e.camera, time.Now())
	ops := e.drag.PointerUp(pt, e.insideViewport(pt))
	e.ops = append(e.ops, ops...)
	e.drainPending()
}

// Escape cancels the active drag, or clears the selection when idle.
func (e *Engine) Escape() {
	if e.drag.Phase() != PhaseIdle {
		e.scroller.Stop(e.camera, time.Now())
		e.drag.Cancel()
		e.drainPending()
		return
	}
	e.selection = nil
}

// PointerCaptureLost unwinds everything tied to the pointer: the drag
// session, the pan gesture, and any camera authority.
func (e *Engine) PointerCaptureLost() {
	e.scroller.Stop(e.camera, time.Now())
	e.drag.Cancel()
	e.drainPending()
	e.panning = false
	e.camera.Abort()
}

// StartToolbarDrag arms a drag that will spawn the given template node when
// the pointer crosses the move threshold. A sub-threshold release creates
// nothing.
func (e *Engine) StartToolbarDrag(rec document.Node, x, y float64) bool {
	return e.drag.ArmTemplate(rec, Point{X: x, Y: y})
}

func (e *Engine) insideViewport(pt Point) bool {
	if e.viewportW <= 0 || e.viewportH <= 0 {
		return true
	}
	return pt.X >= 0 && pt.X <= e.viewportW && pt.Y >= 0 && pt.Y <= e.viewportH
}

// --- frame loop ---

// Tick runs once per rendered frame: it advances auto-scroll, re-resolves
// the drop target against the live transform when the canvas moved under a
// stationary pointer, flushes the camera, and returns the render projection.
func (e *Engine) Tick(now time.Time) string {
	if e.drag.IsDragging() {
		if pt, ok := e.drag.PointerScreen(); ok {
			dx, dy := e.scroller.Update(e.camera, e.viewportW, e.viewportH, pt, now)
			if dx != 0 || dy != 0 {
				e.drag.Refresh()
			}
		}
	}
	e.camera.Tick(now)
	return e.Render()
}

// Render returns the current render projection as JSON.
func (e *Engine) Render() string {
	out := RenderTree(e.graph, e.drag.Indicator())
	data, err := json.Marshal(out)
	if err != nil {
		return `{"boxes":[]}`
	}
	return string(data)
}

// HitTest returns the node ids under a screen point, topmost first, with the
// dragged subtree excluded while a session is active.
func (e *Engine) HitTest(x, y float64) []string {
	ensureLayout(e.graph)
	pt := e.camera.Transform().ToCanvas(Point{X: x, Y: y})
	return HitTest(e.graph, pt, e.drag.excludeSet())
}

// --- drag surface ---

// IsDragging reports whether a drag session is past the move threshold.
func (e *Engine) IsDragging() bool { return e.drag.IsDragging() }

// DragPhase returns the session state machine phase.
func (e *Engine) DragPhase() Phase { return e.drag.Phase() }

// DragSourceKind returns the active session's source classification.
func (e *Engine) DragSourceKind() DragSource { return e.drag.Source() }

// DraggedNodes returns overlay info for the nodes under the pointer.
func (e *Engine) DraggedNodes() []DraggedNodeInfo { return e.drag.DraggedNodes() }

// DraggedNodeIDs returns the ids of the dragged bloc.
func (e *Engine) DraggedNodeIDs() []string { return e.drag.DraggedNodeIDs() }

// DropInfo returns the pending drop target, nil when none.
func (e *Engine) DropInfo() *DropInfo { return e.drag.DropInfo() }

// DrainOperations returns the committed operations accumulated since the
// last drain and clears the buffer. The host forwards them to persistence
// and collaboration.
func (e *Engine) DrainOperations() []Op {
	ops := e.ops
	e.ops = nil
	return ops
}

// --- selection ---

// SetSelection replaces the selection with the known, selectable ids in ids.
func (e *Engine) SetSelection(ids []string) {
	e.selection = e.knownSelection(ids)
}

// Selection returns the selected node ids.
func (e *Engine) Selection() []string {
	return append([]string(nil), e.selection...)
}

// SelectionBounds returns the union of the selected nodes' bounds.
func (e *Engine) SelectionBounds() (Rect, bool) {
	ensureLayout(e.graph)
	var out Rect
	found := false
	for _, id := range e.selection {
		n := e.graph.Node(id)
		if n == nil {
			continue
		}
		if !found {
			out = n.Bounds
			found = true
			continue
		}
		out = out.Union(n.Bounds)
	}
	return out, found
}

func (e *Engine) isSelected(id string) bool {
	return containsID(e.selection, id)
}

func (e *Engine) knownSelection(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		n := e.graph.Node(id)
		if n == nil || n == e.graph.Root || containsID(out, id) {
			continue
		}
		out = append(out, id)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// --- tree mutation API ---
//
// Mutations made while a drag session is active queue and apply on return to
// Idle; the session's view of the tree never changes under it.

// AddNode appends a node record under parentID.
func (e *Engine) AddNode(rec document.Node, parentID string) bool {
	return e.InsertAtIndex(rec, parentID, -1)
}

// InsertAtIndex inserts a node record under parentID at index (appends when
// negative; clamps when past the end).
func (e *Engine) InsertAtIndex(rec document.Node, parentID string, index int) bool {
	if rec.Type == document.NodeTypePlaceholder || rec.Type == document.NodeTypeRoot {
		return false
	}
	if e.deferMutation(func() { e.applyInsert(rec, parentID, index) }) {
		return true
	}
	return e.applyInsert(rec, parentID, index)
}

func (e *Engine) applyInsert(rec document.Node, parentID string, index int) bool {
	if rec.ID == "" {
		rec.ID = typeid.NewNodeID()
	}
	node := NodeFromRecord(rec)
	if index < 0 {
		index = len(e.graph.ChildrenOf(parentID))
	}
	if !e.graph.InsertAt(node, parentID, index) {
		return false
	}
	out := RecordFromNode(node)
	e.ops = append(e.ops, Op{
		Type:     OpNodeCreate,
		NodeID:   node.ID,
		ParentID: parentID,
		Index:    e.graph.IndexIn(parentID, node.ID),
		Node:     &out,
	})
	return true
}

// MoveNode reparents or reorders a node. The index is interpreted after the
// node is removed from its old position.
func (e *Engine) MoveNode(id, newParentID string, index int) bool {
	if e.deferMutation(func() { e.applyMove(id, newParentID, index) }) {
		return true
	}
	return e.applyMove(id, newParentID, index)
}

func (e *Engine) applyMove(id, newParentID string, index int) bool {
	prevParent, ok := e.graph.ParentOf(id)
	if !ok {
		return false
	}
	prevIndex := e.graph.IndexIn(prevParent, id)
	if !e.graph.Move(id, newParentID, index) {
		return false
	}
	e.ops = append(e.ops, Op{
		Type:         OpNodeReparent,
		NodeID:       id,
		ParentID:     newParentID,
		Index:        e.graph.IndexIn(newParentID, id),
		PrevParentID: prevParent,
		PrevIndex:    prevIndex,
	})
	return true
}

// RemoveNode deletes a node and its subtree.
func (e *Engine) RemoveNode(id string) bool {
	if e.deferMutation(func() { e.applyRemove(id) }) {
		return true
	}
	return e.applyRemove(id)
}

func (e *Engine) applyRemove(id string) bool {
	n := e.graph.Node(id)
	if n == nil {
		return false
	}
	rec := RecordFromNode(n)
	prevParent, _ := e.graph.ParentOf(id)
	prevIndex := e.graph.IndexIn(prevParent, id)
	if !e.graph.Remove(id) {
		return false
	}
	e.selection = e.knownSelection(e.selection)
	e.ops = append(e.ops, Op{
		Type:         OpNodeDelete,
		NodeID:       id,
		Node:         &rec,
		PrevParentID: prevParent,
		PrevIndex:    prevIndex,
	})
	return true
}

// SetNodeStyle replaces a node's style attributes.
func (e *Engine) SetNodeStyle(id string, style document.Style) bool {
	if e.deferMutation(func() { e.applySetStyle(id, style) }) {
		return true
	}
	return e.applySetStyle(id, style)
}

func (e *Engine) applySetStyle(id string, style document.Style) bool {
	n := e.graph.Node(id)
	if n == nil {
		return false
	}
	n.Style = style
	e.graph.MarkDirty()
	s := style
	e.ops = append(e.ops, Op{Type: OpNodeStyle, NodeID: id, Style: &s})
	return true
}

// SetNodeLayout replaces a node's layout attributes.
func (e *Engine) SetNodeLayout(id string, layout document.Layout) bool {
	if e.deferMutation(func() { e.applySetLayout(id, layout) }) {
		return true
	}
	return e.applySetLayout(id, layout)
}

func (e *Engine) applySetLayout(id string, layout document.Layout) bool {
	n := e.graph.Node(id)
	if n == nil {
		return false
	}
	n.Layout = layout
	e.graph.MarkDirty()
	l := layout
	e.ops = append(e.ops, Op{Type: OpNodeLayout, NodeID: id, Layout: &l})
	return true
}

// SetNodeVisible toggles a node's visibility.
func (e *Engine) SetNodeVisible(id string, visible bool) bool {
	if e.deferMutation(func() { e.applySetVisible(id, visible) }) {
		return true
	}
	return e.applySetVisible(id, visible)
}

func (e *Engine) applySetVisible(id string, visible bool) bool {
	n := e.graph.Node(id)
	if n == nil {
		return false
	}
	n.Visible = visible
	e.graph.MarkDirty()
	v := visible
	e.ops = append(e.ops, Op{Type: OpNodeVisibility, NodeID: id, Visible: &v})
	return true
}

// SetNodeLocked toggles a node's locked flag.
func (e *Engine) SetNodeLocked(id string, locked bool) bool {
	if e.deferMutation(func() { e.applySetLocked(id, locked) }) {
		return true
	}
	return e.applySetLocked(id, locked)
}

func (e *Engine) applySetLocked(id string, locked bool) bool {
	n := e.graph.Node(id)
	if n == nil {
		return false
	}
	n.Locked = locked
	l := locked
	e.ops = append(e.ops, Op{Type: OpNodeLocked, NodeID: id, Locked: &l})
	return true
}

// deferMutation queues fn when a drag session is active. Queued mutations
// report accepted; their effect lands after the session unwinds.
func (e *Engine) deferMutation(fn func()) bool {
	if e.drag.Phase() == PhaseIdle {
		return false
	}
	e.pending = append(e.pending, fn)
	return true
}

func (e *Engine) drainPending() {
	if e.drag.Phase() != PhaseIdle {
		return
	}
	if e.pendingDoc != nil {
		doc := e.pendingDoc
		e.pendingDoc = nil
		e.applyDocument(doc)
	}
	pend := e.pending
	e.pending = nil
	for _, fn := range pend {
		fn()
	}
}

// --- read accessors ---

// NodeParent returns the parent id of id.
func (e *Engine) NodeParent(id string) (string, bool) { return e.graph.ParentOf(id) }

// NodeChildren returns the ordered child ids of id.
func (e *Engine) NodeChildren(id string) []string { return e.graph.ChildrenOf(id) }

// NodeFlags returns the placement flags of id.
func (e *Engine) NodeFlags(id string) (NodeFlags, bool) { return e.graph.FlagsOf(id) }

// NodeStyle returns the style attributes of id.
func (e *Engine) NodeStyle(id string) (document.Style, bool) { return e.graph.StyleOf(id) }

// NodeLayout returns the layout attributes of id.
func (e *Engine) NodeLayout(id string) (document.Layout, bool) { return e.graph.LayoutOf(id) }

// NodeViewport returns the id of the breakpoint viewport containing id.
func (e *Engine) NodeViewport(id string) string { return e.graph.ViewportOf(id) }

// DynamicFamily returns the ids sharing id's cross-breakpoint identity.
func (e *Engine) DynamicFamily(id string) []string { return e.graph.DynamicFamilyOf(id) }
