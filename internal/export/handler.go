package export

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/laminahq/lamina/backend-go/internal/document"
	"github.com/laminahq/lamina/backend-go/internal/engine"
)

const maxDocumentSize = 10 << 20 // 10MB

// Handler computes resolved page layouts server side, so exporters and
// thumbnail workers get the same geometry the editor shows without running a
// client.
type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

type layoutRequest struct {
	Document json.RawMessage `json:"document"`
	PageID   string          `json:"pageId"`
}

// LayoutBox is one flattened node with its canvas-space rectangle.
type LayoutBox struct {
	ID   string            `json:"id"`
	Type document.NodeType `json:"type"`
	Rect engine.Rect       `json:"rect"`
}

type layoutResponse struct {
	PageID string      `json:"pageId"`
	Boxes  []LayoutBox `json:"boxes"`
}

// ExportLayout handles POST /export/layout. The body carries a document and
// an optional page id; the response is the page's layout flattened to boxes
// in paint order. An empty page id resolves to the project's first page.
func (h *Handler) ExportLayout(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxDocumentSize)

	var req layoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if len(req.Document) == 0 {
		http.Error(w, "document is required", http.StatusBadRequest)
		return
	}

	var doc document.Document
	if err := json.Unmarshal(req.Document, &doc); err != nil {
		http.Error(w, "invalid document: "+err.Error(), http.StatusBadRequest)
		return
	}

	pageID := req.PageID
	if pageID == "" && len(doc.Project.Pages) > 0 {
		pageID = doc.Project.Pages[0]
	}
	if _, ok := doc.Pages[pageID]; !ok {
		http.Error(w, "unknown page: "+pageID, http.StatusBadRequest)
		return
	}

	g := engine.FromDocument(&doc, pageID)
	engine.ComputeLayout(g)

	boxes := make([]LayoutBox, 0, 16)
	flattenBoxes(g.Root, &boxes)

	slog.Info("layout export", "page", pageID, "boxes", len(boxes))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(layoutResponse{PageID: pageID, Boxes: boxes})
}

// flattenBoxes walks the attached hierarchy in paint order. Invisible
// subtrees carry zero bounds and are omitted.
func flattenBoxes(n *engine.Node, out *[]LayoutBox) {
	for _, c := range n.Children {
		if !c.Visible {
			continue
		}
		*out = append(*out, LayoutBox{ID: c.ID, Type: c.Type, Rect: c.Bounds})
		flattenBoxes(c, out)
	}
}
