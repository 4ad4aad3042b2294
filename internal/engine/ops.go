package engine

import "github.com/laminahq/lamina/backend-go/internal/document"

// OpType enumerates the committed mutations the engine reports outward.
type OpType string

const (
	OpNodeCreate     OpType = "node.create"
	OpNodeReparent   OpType = "node.reparent"
	OpNodeDelete     OpType = "node.delete"
	OpNodeLayout     OpType = "node.layout"
	OpNodeStyle      OpType = "node.style"
	OpNodeVisibility OpType = "node.visibility"
	OpNodeLocked     OpType = "node.locked"
)

// Op is one committed document mutation. Structural changes surface here
// exactly once, when a drag commits or a mutation call applies, never for
// intermediate placeholder moves.
type Op struct {
	Type     OpType           `json:"type"`
	NodeID   string           `json:"nodeId"`
	ParentID string           `json:"parentId,omitempty"`
	Index    int              `json:"index"`
	Node     *document.Node   `json:"node,omitempty"`
	Layout   *document.Layout `json:"layout,omitempty"`
	Style    *document.Style  `json:"style,omitempty"`
	Absolute *bool            `json:"absoluteInFrame,omitempty"`
	Visible  *bool            `json:"visible,omitempty"`
	Locked   *bool            `json:"locked,omitempty"`

	// Rollback snapshot for reparent and delete.
	PrevParentID string `json:"prevParentId,omitempty"`
	PrevIndex    int    `json:"prevIndex"`
}
