package collab

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/laminahq/lamina/backend-go/internal/document"
)

// opsDoc builds a small document: a root with a two-child frame, an empty
// frame, and a locked frame.
func opsDoc() *document.Document {
	ref := func(s string) *string { return &s }
	return &document.Document{
		Project: document.Project{ID: "proj_ops", Name: "Ops", Version: 1, Pages: []string{"pg_main"}},
		Pages: map[string]document.Page{
			"pg_main": {ID: "pg_main", Name: "Main", Root: "root", Background: "#f5f5f4"},
		},
		Nodes: map[string]document.Node{
			"root": {
				ID: "root", Type: document.NodeTypeRoot,
				Children: []string{"frame", "other", "vault"}, Visible: true,
			},
			"frame": {
				ID: "frame", Type: document.NodeTypeFrame, Parent: ref("root"),
				Children: []string{"t1", "t2"},
				Layout:   document.Layout{Width: 200, Height: 100},
				Visible:  true,
			},
			"t1": {
				ID: "t1", Type: document.NodeTypeText, Parent: ref("frame"),
				Layout: document.Layout{Width: 80, Height: 40}, Visible: true,
			},
			"t2": {
				ID: "t2", Type: document.NodeTypeText, Parent: ref("frame"),
				Layout: document.Layout{Width: 80, Height: 40}, Visible: true,
			},
			"other": {
				ID: "other", Type: document.NodeTypeFrame, Parent: ref("root"),
				Layout:  document.Layout{X: 300, Width: 120, Height: 120},
				Visible: true,
			},
			"vault": {
				ID: "vault", Type: document.NodeTypeFrame, Parent: ref("root"),
				Layout:  document.Layout{X: 500, Width: 100, Height: 100},
				Visible: true, Locked: true,
			},
		},
		Assets: map[string]document.Asset{},
	}
}

func intPtr(i int) *int { return &i }

func boolPtr(b bool) *bool { return &b }

func rawJSON(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func TestDocumentState_CreateValidatesAndInserts(t *testing.T) {
	ds := NewDocumentState(opsDoc())

	node := rawJSON(t, document.Node{ID: "t3", Type: document.NodeTypeText, Visible: true})
	seq, err := ds.ApplyOperation(Operation{ID: "op1", Type: "node.create", NodeID: "t3", Node: node, ParentID: "frame", Index: intPtr(1)})
	require.NoError(t, err)
	assert.Equal(t, int64(1), seq)

	doc := ds.Document()
	assert.Equal(t, []string{"t1", "t3", "t2"}, doc.Nodes["frame"].Children)
	require.NotNil(t, doc.Nodes["t3"].Parent)
	assert.Equal(t, "frame", *doc.Nodes["t3"].Parent)

	// An out-of-range index appends.
	node4 := rawJSON(t, document.Node{ID: "t4", Type: document.NodeTypeText, Visible: true})
	_, err = ds.ApplyOperation(Operation{Type: "node.create", NodeID: "t4", Node: node4, ParentID: "frame", Index: intPtr(99)})
	require.NoError(t, err)
	assert.Equal(t, []string{"t1", "t3", "t2", "t4"}, ds.Document().Nodes["frame"].Children)

	rejected := []Operation{
		{Type: "node.create", Node: node, ParentID: "frame"},
		{Type: "node.create", Node: rawJSON(t, document.Node{Type: document.NodeTypeText}), ParentID: "frame"},
		{Type: "node.create", Node: rawJSON(t, document.Node{ID: "ph", Type: document.NodeTypePlaceholder}), ParentID: "frame"},
		{Type: "node.create", Node: rawJSON(t, document.Node{ID: "r2", Type: document.NodeTypeRoot}), ParentID: "frame"},
		{Type: "node.create", Node: rawJSON(t, document.Node{ID: "t5", Type: document.NodeTypeText}), ParentID: "ghost"},
		{Type: "node.create", Node: rawJSON(t, document.Node{ID: "t5", Type: document.NodeTypeText}), ParentID: "vault"},
	}
	for _, op := range rejected {
		_, err := ds.ApplyOperation(op)
		assert.Error(t, err)
	}
	assert.Equal(t, int64(2), ds.ServerSeq(), "rejected operations do not advance the sequence")
}

func TestDocumentState_ReparentMovesAndReorders(t *testing.T) {
	ds := NewDocumentState(opsDoc())

	// Reorder within the same parent.
	_, err := ds.ApplyOperation(Operation{Type: "node.reparent", NodeID: "t2", ParentID: "frame", Index: intPtr(0)})
	require.NoError(t, err)
	assert.Equal(t, []string{"t2", "t1"}, ds.Document().Nodes["frame"].Children)

	// Move across parents.
	_, err = ds.ApplyOperation(Operation{Type: "node.reparent", NodeID: "t1", ParentID: "other", Absolute: boolPtr(true)})
	require.NoError(t, err)
	doc := ds.Document()
	assert.Equal(t, []string{"t2"}, doc.Nodes["frame"].Children)
	assert.Equal(t, []string{"t1"}, doc.Nodes["other"].Children)
	require.NotNil(t, doc.Nodes["t1"].Parent)
	assert.Equal(t, "other", *doc.Nodes["t1"].Parent)
	assert.True(t, doc.Nodes["t1"].AbsoluteInFrame)

	seqBefore := ds.ServerSeq()
	rejected := []Operation{
		{Type: "node.reparent", NodeID: "frame", ParentID: "t2"},
		{Type: "node.reparent", NodeID: "frame", ParentID: "frame"},
		{Type: "node.reparent", NodeID: "t1", ParentID: "vault"},
		{Type: "node.reparent", NodeID: "ghost", ParentID: "frame"},
		{Type: "node.reparent", NodeID: "t1", ParentID: "ghost"},
	}
	for _, op := range rejected {
		_, err := ds.ApplyOperation(op)
		assert.Error(t, err)
	}
	assert.Equal(t, seqBefore, ds.ServerSeq())
}

func TestDocumentState_DeleteRemovesSubtree(t *testing.T) {
	ds := NewDocumentState(opsDoc())

	_, err := ds.ApplyOperation(Operation{Type: "node.delete", NodeID: "frame"})
	require.NoError(t, err)

	doc := ds.Document()
	assert.Equal(t, []string{"other", "vault"}, doc.Nodes["root"].Children)
	for _, id := range []string{"frame", "t1", "t2"} {
		_, ok := doc.Nodes[id]
		assert.False(t, ok, id)
	}

	_, err = ds.ApplyOperation(Operation{Type: "node.delete", NodeID: "frame"})
	assert.Error(t, err)
}

func TestDocumentState_LayoutAndStyleReplace(t *testing.T) {
	ds := NewDocumentState(opsDoc())

	layout := rawJSON(t, document.Layout{X: 10, Y: 20, Width: 64, Height: 32})
	_, err := ds.ApplyOperation(Operation{Type: "node.layout", NodeID: "t1", Layout: layout, Absolute: boolPtr(true)})
	require.NoError(t, err)
	got := ds.Document().Nodes["t1"]
	assert.Equal(t, 64.0, got.Layout.Width)
	assert.True(t, got.AbsoluteInFrame)

	style := rawJSON(t, document.Style{Fill: "#ef4444", Opacity: 0.5})
	_, err = ds.ApplyOperation(Operation{Type: "node.style", NodeID: "t1", Style: style})
	require.NoError(t, err)
	assert.Equal(t, "#ef4444", ds.Document().Nodes["t1"].Style.Fill)

	_, err = ds.ApplyOperation(Operation{Type: "node.layout", NodeID: "t1", Layout: json.RawMessage("{bad")})
	assert.Error(t, err)
	_, err = ds.ApplyOperation(Operation{Type: "node.style", NodeID: "ghost", Style: style})
	assert.Error(t, err)
}

func TestDocumentState_VisibilityAndLockFlags(t *testing.T) {
	ds := NewDocumentState(opsDoc())

	_, err := ds.ApplyOperation(Operation{Type: "node.visibility", NodeID: "t1", Visible: boolPtr(false)})
	require.NoError(t, err)
	assert.False(t, ds.Document().Nodes["t1"].Visible)

	_, err = ds.ApplyOperation(Operation{Type: "node.locked", NodeID: "other", Locked: boolPtr(true)})
	require.NoError(t, err)
	assert.True(t, ds.Document().Nodes["other"].Locked)

	// The new lock holds for later structural edits.
	node := rawJSON(t, document.Node{ID: "t9", Type: document.NodeTypeText})
	_, err = ds.ApplyOperation(Operation{Type: "node.create", Node: node, ParentID: "other"})
	assert.Error(t, err)
}

func TestDocumentState_PageUpdateAndProjectRename(t *testing.T) {
	ds := NewDocumentState(opsDoc())

	changes := json.RawMessage(`{"name":"Hero","background":"#0b0b0b"}`)
	_, err := ds.ApplyOperation(Operation{Type: "page.update", PageID: "pg_main", Changes: changes})
	require.NoError(t, err)
	pg := ds.Document().Pages["pg_main"]
	assert.Equal(t, "Hero", pg.Name)
	assert.Equal(t, "#0b0b0b", pg.Background)

	_, err = ds.ApplyOperation(Operation{Type: "page.update", PageID: "pg_ghost", Changes: changes})
	assert.Error(t, err)

	_, err = ds.ApplyOperation(Operation{Type: "project.rename", Name: "Relaunch"})
	require.NoError(t, err)
	assert.Equal(t, "Relaunch", ds.Document().Project.Name)
}

func TestDocumentState_UnknownTypeRejected(t *testing.T) {
	ds := NewDocumentState(opsDoc())

	_, err := ds.ApplyOperation(Operation{Type: "node.teleport"})
	require.Error(t, err)
	assert.Equal(t, int64(0), ds.ServerSeq())
}

func TestDocumentState_SnapshotCarriesSequence(t *testing.T) {
	ds := NewDocumentState(opsDoc())

	_, err := ds.ApplyOperation(Operation{Type: "project.rename", Name: "After"})
	require.NoError(t, err)

	data, seq, err := ds.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, int64(1), seq)

	var doc document.Document
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "After", doc.Project.Name)
}
