package collab

import "encoding/json"

// Message is the envelope for every websocket frame in both directions.
type Message struct {
	Type      string          `json:"type"`
	ProjectID string          `json:"projectId,omitempty"`
	ClientID  string          `json:"clientId,omitempty"`
	UserID    string          `json:"userId,omitempty"`
	Seq       int64           `json:"seq,omitempty"`
	Payload   json.RawMessage `json:"payload"`
}

const (
	// Connection lifecycle
	TypeWelcome = "welcome"
	TypeDocSync = "doc.sync"
	TypeError   = "error"

	// Presence
	TypePresenceUpdate = "presence.update"
	TypePresenceState  = "presence.state"
	TypePresenceJoin   = "presence.join"
	TypePresenceLeave  = "presence.leave"

	// Document operations
	TypeOpSubmit    = "op.submit"
	TypeOpAck       = "op.ack"
	TypeOpNack      = "op.nack"
	TypeOpBroadcast = "op.broadcast"
)

type WelcomePayload struct {
	ClientID  string `json:"clientId"`
	UserID    string `json:"userId"`
	ServerSeq int64  `json:"serverSeq"`
}

type DocSyncPayload struct {
	Document  json.RawMessage `json:"document"`
	ServerSeq int64           `json:"serverSeq"`
}

// PresencePayload is a collaborator's live editing state. Drag carries the
// active drag session so remote clients can draw insertion indicators.
type PresencePayload struct {
	Cursor      *CursorPos    `json:"cursor,omitempty"`
	Selection   []string      `json:"selection,omitempty"`
	Drag        *DragPresence `json:"drag,omitempty"`
	DisplayName string        `json:"displayName,omitempty"`
}

type CursorPos struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DragPresence mirrors the local drag surface: the dragged node ids and the
// pending drop target. Position is before, after, or inside.
type DragPresence struct {
	NodeIDs  []string `json:"nodeIds"`
	TargetID string   `json:"targetId,omitempty"`
	Position string   `json:"position,omitempty"`
}

type PresenceStatePayload struct {
	Presences map[string]*PresencePayload `json:"presences"`
}

type PresenceJoinPayload struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

type PresenceLeavePayload struct {
	UserID string `json:"userId"`
}

// Operation is one committed document mutation on the wire. The node.* types
// and their fields mirror the operations the editor engine emits, so a client
// can forward drained operations unchanged.
type Operation struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp,omitempty"`
	ClientSeq int64  `json:"clientSeq,omitempty"`
	NodeID    string `json:"nodeId,omitempty"`

	// node.create carries the full record; node.delete carries the removed
	// record for undo.
	Node json.RawMessage `json:"node,omitempty"`

	// node.create / node.reparent placement. A nil index appends.
	ParentID     string `json:"parentId,omitempty"`
	Index        *int   `json:"index,omitempty"`
	PrevParentID string `json:"prevParentId,omitempty"`
	PrevIndex    *int   `json:"prevIndex,omitempty"`

	// node.layout / node.style replacements.
	Layout   json.RawMessage `json:"layout,omitempty"`
	Style    json.RawMessage `json:"style,omitempty"`
	Absolute *bool           `json:"absoluteInFrame,omitempty"`

	// node.visibility / node.locked.
	Visible *bool `json:"visible,omitempty"`
	Locked  *bool `json:"locked,omitempty"`

	// page.update
	PageID  string          `json:"pageId,omitempty"`
	Changes json.RawMessage `json:"changes,omitempty"`

	// project.rename
	Name         string `json:"name,omitempty"`
	PreviousName string `json:"previousName,omitempty"`
}

// OperationSubmitPayload is the payload for op.submit messages.
type OperationSubmitPayload struct {
	Operation Operation `json:"operation"`
}

// OperationAckPayload is the payload for op.ack messages.
type OperationAckPayload struct {
	OperationID     string `json:"operationId"`
	ServerSeq       int64  `json:"serverSeq"`
	ServerTimestamp int64  `json:"serverTimestamp"`
}

// OperationNackPayload is the payload for op.nack messages. The submitting
// client rolls the rejected operation back locally.
type OperationNackPayload struct {
	OperationID string `json:"operationId"`
	Reason      string `json:"reason"`
}

// OperationBroadcastPayload is the payload for op.broadcast messages.
type OperationBroadcastPayload struct {
	Operation Operation `json:"operation"`
	UserID    string    `json:"userId"`
	ServerSeq int64     `json:"serverSeq"`
}
