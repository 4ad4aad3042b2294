package document

import (
	"encoding/json"
	"time"

	"github.com/laminahq/lamina/backend-go/internal/typeid"
)

// NewSampleDocument builds the demo page used by the playground: a desktop
// breakpoint viewport with flowed sections, a frame with an absolutely
// positioned badge, and a free text label on the open canvas.
func NewSampleDocument(projectID string) *Document {
	now := time.Now().UTC().Format(time.RFC3339)

	pageID := typeid.NewPageID()
	rootID := typeid.NewNodeID()

	desktopID := typeid.NewNodeID()
	heroID := typeid.NewNodeID()
	heroTitleID := typeid.NewNodeID()
	heroImageID := typeid.NewNodeID()
	sectionID := typeid.NewNodeID()
	cardAID := typeid.NewNodeID()
	cardBID := typeid.NewNodeID()
	badgeID := typeid.NewNodeID()
	noteID := typeid.NewNodeID()

	rootPtr := &rootID
	desktopPtr := &desktopID
	heroPtr := &heroID
	sectionPtr := &sectionID

	return &Document{
		Project: Project{
			ID:        projectID,
			Name:      "Untitled",
			Version:   1,
			CreatedAt: now,
			UpdatedAt: now,
			Pages:     []string{pageID},
			Assets:    []string{},
		},
		Pages: map[string]Page{
			pageID: {
				ID:         pageID,
				Name:       "Page 1",
				Root:       rootID,
				Background: "#f5f5f4",
			},
		},
		Nodes: map[string]Node{
			rootID: {
				ID:       rootID,
				Type:     NodeTypeRoot,
				Parent:   nil,
				Children: []string{desktopID, noteID},
				Style:    Style{Opacity: 1},
				Visible:  true,
			},
			desktopID: {
				ID:       desktopID,
				Type:     NodeTypeFrame,
				Parent:   rootPtr,
				Children: []string{heroID, sectionID},
				Layout: Layout{
					X: 120, Y: 80, Width: 1200, Height: 820,
					Direction: DirectionColumn, Gap: 24, Padding: 32,
				},
				Style:      Style{Fill: "#ffffff", Opacity: 1, CornerRadius: 8},
				Visible:    true,
				IsViewport: true,
			},
			heroID: {
				ID:       heroID,
				Type:     NodeTypeFrame,
				Parent:   desktopPtr,
				Children: []string{heroTitleID, heroImageID, badgeID},
				Layout: Layout{
					Width: 1136, Height: 320,
					Direction: DirectionRow, Gap: 16, Padding: 24,
				},
				Style:   Style{Fill: "#eef2ff", Opacity: 1, CornerRadius: 12},
				Visible: true,
			},
			heroTitleID: {
				ID:      heroTitleID,
				Type:    NodeTypeText,
				Parent:  heroPtr,
				Layout:  Layout{Width: 480, Height: 96},
				Style:   Style{Fill: "#1e1b4b", Opacity: 1},
				Visible: true,
				Data:    json.RawMessage(`{"text":"Build pages by dragging"}`),
			},
			heroImageID: {
				ID:      heroImageID,
				Type:    NodeTypeImage,
				Parent:  heroPtr,
				Layout:  Layout{Width: 420, Height: 272},
				Style:   Style{Opacity: 1, CornerRadius: 8},
				Visible: true,
				Data:    json.RawMessage(`{"assetId":"","alt":"hero"}`),
			},
			badgeID: {
				ID:              badgeID,
				Type:            NodeTypeText,
				Parent:          heroPtr,
				Layout:          Layout{X: 1020, Y: 16, Width: 88, Height: 28},
				Style:           Style{Fill: "#4338ca", Opacity: 1, CornerRadius: 14},
				Visible:         true,
				AbsoluteInFrame: true,
				Data:            json.RawMessage(`{"text":"New"}`),
			},
			sectionID: {
				ID:       sectionID,
				Type:     NodeTypeFrame,
				Parent:   desktopPtr,
				Children: []string{cardAID, cardBID},
				Layout: Layout{
					Width: 1136, Height: 380,
					Direction: DirectionRow, Gap: 24, Padding: 24,
				},
				Style:   Style{Fill: "#fafaf9", Opacity: 1, CornerRadius: 12},
				Visible: true,
			},
			cardAID: {
				ID:       cardAID,
				Type:     NodeTypeFrame,
				Parent:   sectionPtr,
				Children: []string{},
				Layout: Layout{
					Width: 540, Height: 332,
					Direction: DirectionColumn, Gap: 12, Padding: 16,
				},
				Style:   Style{Fill: "#ffffff", Stroke: "#e7e5e4", StrokeWidth: 1, Opacity: 1, CornerRadius: 8},
				Visible: true,
			},
			cardBID: {
				ID:      cardBID,
				Type:    NodeTypeVideo,
				Parent:  sectionPtr,
				Layout:  Layout{Width: 540, Height: 332},
				Style:   Style{Opacity: 1, CornerRadius: 8},
				Visible: true,
				Data:    json.RawMessage(`{"assetId":"","poster":""}`),
			},
			noteID: {
				ID:      noteID,
				Type:    NodeTypeText,
				Parent:  rootPtr,
				Layout:  Layout{X: 1400, Y: 120, Width: 240, Height: 64},
				Style:   Style{Fill: "#78716c", Opacity: 1},
				Visible: true,
				Data:    json.RawMessage(`{"text":"Drop elements into the frame"}`),
			},
		},
		Assets: map[string]Asset{},
	}
}
