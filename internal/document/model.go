package document

import "encoding/json"

type Document struct {
	Project Project          `json:"project"`
	Pages   map[string]Page  `json:"pages"`
	Nodes   map[string]Node  `json:"nodes"`
	Assets  map[string]Asset `json:"assets"`
}

type Project struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Version   int      `json:"version"`
	CreatedAt string   `json:"createdAt"`
	UpdatedAt string   `json:"updatedAt"`
	Pages     []string `json:"pages"`
	Assets    []string `json:"assets"`
}

type Page struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Root       string `json:"root"`
	Background string `json:"background"`
}

type NodeType string

const (
	NodeTypeRoot        NodeType = "root"
	NodeTypeFrame       NodeType = "frame"
	NodeTypeText        NodeType = "text"
	NodeTypeImage       NodeType = "image"
	NodeTypeVideo       NodeType = "video"
	NodeTypePlaceholder NodeType = "placeholder"
)

type Direction string

const (
	DirectionRow    Direction = "row"
	DirectionColumn Direction = "column"
)

// Layout holds the box geometry and flow attributes of a node. X/Y are the
// canvas position for canvas-root nodes and the in-frame offset for
// absolute-in-frame nodes; flow children ignore them and are positioned by
// their parent's stacking.
type Layout struct {
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	Width     float64   `json:"width"`
	Height    float64   `json:"height"`
	Direction Direction `json:"direction,omitempty"`
	Gap       float64   `json:"gap,omitempty"`
	Padding   float64   `json:"padding,omitempty"`
}

type Style struct {
	Fill         string  `json:"fill"`
	Stroke       string  `json:"stroke"`
	StrokeWidth  float64 `json:"strokeWidth"`
	Opacity      float64 `json:"opacity"`
	CornerRadius float64 `json:"cornerRadius"`
}

type Node struct {
	ID       string   `json:"id"`
	Type     NodeType `json:"type"`
	Parent   *string  `json:"parent"`
	Children []string `json:"children"`
	Layout   Layout   `json:"layout"`
	Style    Style    `json:"style"`
	Visible  bool     `json:"visible"`
	Locked   bool     `json:"locked"`

	// Placement flags. AbsoluteInFrame children are positioned by offset and
	// excluded from sibling flow ordering. IsViewport marks a breakpoint
	// root scope.
	AbsoluteInFrame bool `json:"absoluteInFrame,omitempty"`
	IsViewport      bool `json:"isViewport,omitempty"`

	// Variant/dynamic identity links across breakpoints.
	IsDynamic         bool   `json:"isDynamic,omitempty"`
	DynamicViewportID string `json:"dynamicViewportId,omitempty"`
	DynamicParentID   string `json:"dynamicParentId,omitempty"`
	SharedID          string `json:"sharedId,omitempty"`

	// Type-specific payload: text content, asset references.
	Data json.RawMessage `json:"data,omitempty"`
}

type Asset struct {
	ID   string          `json:"id"`
	Type string          `json:"type"`
	Name string          `json:"name"`
	URL  string          `json:"url"`
	Meta json.RawMessage `json:"meta"`
}

// NewEmptyDocument creates an empty single-page document for a new project.
func NewEmptyDocument(projectID, projectName, pageID, rootID string) *Document {
	return &Document{
		Project: Project{
			ID:      projectID,
			Name:    projectName,
			Version: 1,
			Pages:   []string{pageID},
			Assets:  []string{},
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
				Children: []string{},
				Style:    Style{Opacity: 1},
				Visible:  true,
			},
		},
		Assets: map[string]Asset{},
	}
}
