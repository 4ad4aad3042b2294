package collab

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/laminahq/lamina/backend-go/internal/document"
)

// DocumentState holds the authoritative document for a room. Operations are
// validated against the same containment rules the editor enforces locally;
// a rejected operation leaves the document untouched and the submitter is
// nacked so it can roll back.
type DocumentState struct {
	mu        sync.RWMutex
	doc       *document.Document
	serverSeq int64
	opLog     []Operation // operation history for persistence
}

// NewDocumentState creates room state around an initial document.
func NewDocumentState(doc *document.Document) *DocumentState {
	return &DocumentState{
		doc:   doc,
		opLog: make([]Operation, 0),
	}
}

// Document returns the live document. Callers must not mutate it.
func (ds *DocumentState) Document() *document.Document {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	return ds.doc
}

// ServerSeq returns the sequence of the last applied operation.
func (ds *DocumentState) ServerSeq() int64 {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	return ds.serverSeq
}

// Snapshot serializes the document and returns the sequence it reflects.
func (ds *DocumentState) Snapshot() ([]byte, int64, error) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	data, err := json.Marshal(ds.doc)
	if err != nil {
		return nil, 0, fmt.Errorf("marshal document: %w", err)
	}
	return data, ds.serverSeq, nil
}

// ApplyOperation applies one operation and returns the server sequence it
// was assigned. On error nothing changed.
func (ds *DocumentState) ApplyOperation(op Operation) (int64, error) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	if err := ds.applyOperationLocked(op); err != nil {
		return 0, err
	}

	ds.serverSeq++
	ds.opLog = append(ds.opLog, op)
	return ds.serverSeq, nil
}

func (ds *DocumentState) applyOperationLocked(op Operation) error {
	switch op.Type {
	case "node.create":
		return ds.applyCreate(op)
	case "node.reparent":
		return ds.applyReparent(op)
	case "node.delete":
		return ds.applyDelete(op)
	case "node.layout":
		return ds.applyLayout(op)
	case "node.style":
		return ds.applyStyle(op)
	case "node.visibility":
		return ds.applyVisibility(op)
	case "node.locked":
		return ds.applyLockFlag(op)
	case "page.update":
		return ds.applyPageUpdate(op)
	case "project.rename":
		return ds.applyProjectRename(op)
	default:
		return fmt.Errorf("unknown operation type: %s", op.Type)
	}
}

func (ds *DocumentState) applyCreate(op Operation) error {
	var rec document.Node
	if err := json.Unmarshal(op.Node, &rec); err != nil {
		return fmt.Errorf("invalid node: %w", err)
	}
	if rec.ID == "" {
		return fmt.Errorf("node has no id")
	}
	if rec.Type == document.NodeTypePlaceholder || rec.Type == document.NodeTypeRoot {
		return fmt.Errorf("cannot create node of type %s", rec.Type)
	}
	if _, exists := ds.doc.Nodes[rec.ID]; exists {
		return fmt.Errorf("node already exists: %s", rec.ID)
	}

	parent, ok := ds.doc.Nodes[op.ParentID]
	if !ok {
		return fmt.Errorf("parent not found: %s", op.ParentID)
	}
	if parent.Locked {
		return fmt.Errorf("parent is locked: %s", op.ParentID)
	}
	parent.Children = insertChild(parent.Children, rec.ID, op.Index)
	ds.doc.Nodes[op.ParentID] = parent

	parentID := op.ParentID
	rec.Parent = &parentID
	ds.doc.Nodes[rec.ID] = rec
	return nil
}

func (ds *DocumentState) applyReparent(op Operation) error {
	rec, ok := ds.doc.Nodes[op.NodeID]
	if !ok {
		return fmt.Errorf("node not found: %s", op.NodeID)
	}
	newParent, ok := ds.doc.Nodes[op.ParentID]
	if !ok {
		return fmt.Errorf("parent not found: %s", op.ParentID)
	}
	if op.ParentID == op.NodeID || ds.isDescendant(op.ParentID, op.NodeID) {
		return fmt.Errorf("reparent would create a cycle: %s under %s", op.NodeID, op.ParentID)
	}
	if newParent.Locked {
		return fmt.Errorf("parent is locked: %s", op.ParentID)
	}

	if rec.Parent != nil {
		if oldParent, ok := ds.doc.Nodes[*rec.Parent]; ok {
			oldParent.Children = removeChild(oldParent.Children, op.NodeID)
			ds.doc.Nodes[*rec.Parent] = oldParent
		}
	}

	// Re-read: a move within the same parent just changed its children.
	newParent = ds.doc.Nodes[op.ParentID]
	newParent.Children = insertChild(newParent.Children, op.NodeID, op.Index)
	ds.doc.Nodes[op.ParentID] = newParent

	parentID := op.ParentID
	rec.Parent = &parentID
	if op.Absolute != nil {
		rec.AbsoluteInFrame = *op.Absolute
	}
	ds.doc.Nodes[op.NodeID] = rec
	return nil
}

func (ds *DocumentState) applyDelete(op Operation) error {
	rec, ok := ds.doc.Nodes[op.NodeID]
	if !ok {
		return fmt.Errorf("node not found: %s", op.NodeID)
	}

	if rec.Parent != nil {
		if parent, ok := ds.doc.Nodes[*rec.Parent]; ok {
			parent.Children = removeChild(parent.Children, op.NodeID)
			ds.doc.Nodes[*rec.Parent] = parent
		}
	}

	// The whole subtree goes with it. A seen set guards against malformed
	// cyclic records.
	stack := []string{op.NodeID}
	seen := map[string]bool{}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[id] {
			continue
		}
		seen[id] = true
		if n, ok := ds.doc.Nodes[id]; ok {
			stack = append(stack, n.Children...)
		}
		delete(ds.doc.Nodes, id)
	}
	return nil
}

func (ds *DocumentState) applyLayout(op Operation) error {
	rec, ok := ds.doc.Nodes[op.NodeID]
	if !ok {
		return fmt.Errorf("node not found: %s", op.NodeID)
	}

	var layout document.Layout
	if err := json.Unmarshal(op.Layout, &layout); err != nil {
		return fmt.Errorf("invalid layout: %w", err)
	}
	rec.Layout = layout
	if op.Absolute != nil {
		rec.AbsoluteInFrame = *op.Absolute
	}
	ds.doc.Nodes[op.NodeID] = rec
	return nil
}

func (ds *DocumentState) applyStyle(op Operation) error {
	rec, ok := ds.doc.Nodes[op.NodeID]
	if !ok {
		return fmt.Errorf("node not found: %s", op.NodeID)
	}

	var style document.Style
	if err := json.Unmarshal(op.Style, &style); err != nil {
		return fmt.Errorf("invalid style: %w", err)
	}
	rec.Style = style
	ds.doc.Nodes[op.NodeID] = rec
	return nil
}

func (ds *DocumentState) applyVisibility(op Operation) error {
	rec, ok := ds.doc.Nodes[op.NodeID]
	if !ok {
		return fmt.Errorf("node not found: %s", op.NodeID)
	}
	if op.Visible != nil {
		rec.Visible = *op.Visible
	}
	ds.doc.Nodes[op.NodeID] = rec
	return nil
}

func (ds *DocumentState) applyLockFlag(op Operation) error {
	rec, ok := ds.doc.Nodes[op.NodeID]
	if !ok {
		return fmt.Errorf("node not found: %s", op.NodeID)
	}
	if op.Locked != nil {
		rec.Locked = *op.Locked
	}
	ds.doc.Nodes[op.NodeID] = rec
	return nil
}

func (ds *DocumentState) applyPageUpdate(op Operation) error {
	page, ok := ds.doc.Pages[op.PageID]
	if !ok {
		return fmt.Errorf("page not found: %s", op.PageID)
	}

	var changes map[string]interface{}
	if err := json.Unmarshal(op.Changes, &changes); err != nil {
		return fmt.Errorf("invalid page changes: %w", err)
	}

	if v, ok := changes["name"].(string); ok {
		page.Name = v
	}
	if v, ok := changes["background"].(string); ok {
		page.Background = v
	}

	ds.doc.Pages[op.PageID] = page
	return nil
}

func (ds *DocumentState) applyProjectRename(op Operation) error {
	ds.doc.Project.Name = op.Name
	return nil
}

// isDescendant reports whether id sits inside ancestorID's subtree, walking
// parent refs with a step limit against malformed cyclic records.
func (ds *DocumentState) isDescendant(id, ancestorID string) bool {
	cur := id
	for i := 0; i <= len(ds.doc.Nodes); i++ {
		rec, ok := ds.doc.Nodes[cur]
		if !ok || rec.Parent == nil {
			return false
		}
		if *rec.Parent == ancestorID {
			return true
		}
		cur = *rec.Parent
	}
	return false
}

func insertChild(children []string, id string, index *int) []string {
	idx := len(children)
	if index != nil && *index >= 0 && *index <= len(children) {
		idx = *index
	}
	out := make([]string, 0, len(children)+1)
	out = append(out, children[:idx]...)
	out = append(out, id)
	out = append(out, children[idx:]...)
	return out
}

func removeChild(children []string, id string) []string {
	out := make([]string, 0, len(children))
	for _, c := range children {
		if c != id {
			out = append(out, c)
		}
	}
	return out
}

// GetServerTimestamp returns the current server timestamp in milliseconds.
func GetServerTimestamp() int64 {
	return time.Now().UnixMilli()
}
