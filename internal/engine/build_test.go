package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/laminahq/lamina/backend-go/internal/document"
)

func TestFromDocument_SkipsMalformedRefs(t *testing.T) {
	doc := facadeDoc()
	p := doc.Nodes["P"]
	p.Children = []string{"a", "ghost", "b", "a", "c", "ph1"}
	doc.Nodes["P"] = p
	doc.Nodes["ph1"] = document.Node{ID: "ph1", Type: document.NodeTypePlaceholder, Visible: true}

	g := FromDocument(doc, "pg_one")
	assert.Equal(t, []string{"a", "b", "c"}, g.ChildrenOf("P"))
	assert.False(t, g.Has("ghost"))
	assert.False(t, g.Has("ph1"), "persisted placeholders are dropped")
	assert.Equal(t, uint64(0), g.Generation(), "building is not an edit")
}

func TestFromDocument_IgnoresCyclicRefs(t *testing.T) {
	doc := facadeDoc()
	q := doc.Nodes["Q"]
	q.Children = []string{"P", "rootA"}
	doc.Nodes["Q"] = q

	g := FromDocument(doc, "pg_one")
	assert.Empty(t, g.ChildrenOf("Q"), "ids reachable twice keep their first position")
	parent, ok := g.ParentOf("P")
	require.True(t, ok)
	assert.Equal(t, "rootA", parent)
}

func TestFromDocument_UnknownPage(t *testing.T) {
	g := FromDocument(facadeDoc(), "pg_nope")
	require.NotNil(t, g)
	assert.Empty(t, g.ChildrenOf(g.Root.ID))
}

func TestFromDocument_TracksViewportsAndFamilies(t *testing.T) {
	doc := facadeDoc()
	p := doc.Nodes["P"]
	p.IsViewport = true
	doc.Nodes["P"] = p
	a := doc.Nodes["a"]
	a.IsDynamic = true
	a.SharedID = "shared_hero"
	doc.Nodes["a"] = a
	c := doc.Nodes["c"]
	c.IsDynamic = true
	c.SharedID = "shared_hero"
	doc.Nodes["c"] = c

	g := FromDocument(doc, "pg_one")
	assert.Equal(t, "P", g.ViewportOf("b"))
	assert.Equal(t, "", g.ViewportOf("Q"))
	assert.ElementsMatch(t, []string{"a", "c"}, g.DynamicFamilyOf("a"))
}

func TestExportNodes_RoundTrip(t *testing.T) {
	g := FromDocument(facadeDoc(), "pg_one")
	out := ExportNodes(g)

	require.Len(t, out, 6)
	assert.Equal(t, []string{"a", "b", "c"}, out["P"].Children)
	require.NotNil(t, out["P"].Parent)
	assert.Equal(t, "rootA", *out["P"].Parent)
	assert.Nil(t, out["rootA"].Parent)
	assert.Equal(t, document.NodeTypeFrame, out["Q"].Type)
	assert.Equal(t, 200.0, out["Q"].Layout.X)
}

func TestExportNodes_ExcludesTransientDragState(t *testing.T) {
	g := FromDocument(facadeDoc(), "pg_one")
	ph := &Node{ID: "ph_x", Type: document.NodeTypePlaceholder, Visible: true}
	require.True(t, g.InsertAt(ph, "P", 1))
	require.True(t, g.Detach("b"))

	out := ExportNodes(g)
	assert.NotContains(t, out, "ph_x")
	assert.NotContains(t, out, "b", "a detached node is not part of the hierarchy")
	assert.Equal(t, []string{"a", "c"}, out["P"].Children)
}

func TestNodeFromRecord_RoundTrip(t *testing.T) {
	parent := "fr_parent"
	rec := document.Node{
		ID: "txt_1", Type: document.NodeTypeText, Parent: &parent,
		Children:        []string{"ignored"},
		Layout:          document.Layout{X: 3, Y: 4, Width: 50, Height: 20},
		Style:           document.Style{Fill: "#111827", Opacity: 0.5},
		Visible:         true,
		AbsoluteInFrame: true,
		IsDynamic:       true,
		SharedID:        "shared_t",
	}

	n := NodeFromRecord(rec)
	assert.Nil(t, n.Parent, "hierarchy fields are managed by the store")
	assert.Empty(t, n.Children)
	assert.True(t, n.AbsoluteInFrame)

	back := RecordFromNode(n)
	assert.Nil(t, back.Parent)
	assert.Empty(t, back.Children)
	assert.Equal(t, rec.Layout, back.Layout)
	assert.Equal(t, rec.Style, back.Style)
	assert.Equal(t, rec.SharedID, back.SharedID)
}
