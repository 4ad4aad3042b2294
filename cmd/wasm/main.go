//go:build js && wasm

package main

import (
	"encoding/json"
	"syscall/js"
	"time"

	"github.com/laminahq/lamina/backend-go/internal/document"
	"github.com/laminahq/lamina/backend-go/internal/engine"
)

var eng *engine.Engine

func main() {
	eng = engine.New(engine.DefaultOptions())

	// Create the engine API object
	laminaEngine := js.Global().Get("Object").New()

	// --- Commands (frontend → backend) ---
	laminaEngine.Set("loadDocument", js.FuncOf(loadDocument))
	laminaEngine.Set("updateDocument", js.FuncOf(updateDocument))
	laminaEngine.Set("loadSampleDocument", js.FuncOf(loadSampleDocument))
	laminaEngine.Set("setPage", js.FuncOf(setPage))
	laminaEngine.Set("setViewportSize", js.FuncOf(setViewportSize))
	laminaEngine.Set("setSelection", js.FuncOf(setSelection))
	laminaEngine.Set("setTransform", js.FuncOf(setTransform))
	laminaEngine.Set("panStart", js.FuncOf(panStart))
	laminaEngine.Set("panMove", js.FuncOf(panMove))
	laminaEngine.Set("panEnd", js.FuncOf(panEnd))
	laminaEngine.Set("pointerDown", js.FuncOf(pointerDown))
	laminaEngine.Set("pointerMove", js.FuncOf(pointerMove))
	laminaEngine.Set("pointerUp", js.FuncOf(pointerUp))
	laminaEngine.Set("pointerCaptureLost", js.FuncOf(pointerCaptureLost))
	laminaEngine.Set("wheel", js.FuncOf(wheel))
	laminaEngine.Set("escape", js.FuncOf(escape))
	laminaEngine.Set("startToolbarDrag", js.FuncOf(startToolbarDrag))
	laminaEngine.Set("setNodeStyle", js.FuncOf(setNodeStyle))
	laminaEngine.Set("setNodeLayout", js.FuncOf(setNodeLayout))
	laminaEngine.Set("setNodeVisible", js.FuncOf(setNodeVisible))
	laminaEngine.Set("setNodeLocked", js.FuncOf(setNodeLocked))
	laminaEngine.Set("tick", js.FuncOf(tick))

	// --- Queries (frontend ← backend) ---
	laminaEngine.Set("render", js.FuncOf(render))
	laminaEngine.Set("hitTest", js.FuncOf(hitTest))
	laminaEngine.Set("getTransform", js.FuncOf(getTransform))
	laminaEngine.Set("isDragging", js.FuncOf(isDragging))
	laminaEngine.Set("getDraggedNodes", js.FuncOf(getDraggedNodes))
	laminaEngine.Set("getDropInfo", js.FuncOf(getDropInfo))
	laminaEngine.Set("getNodeParent", js.FuncOf(getNodeParent))
	laminaEngine.Set("getNodeChildren", js.FuncOf(getNodeChildren))
	laminaEngine.Set("getNodeFlags", js.FuncOf(getNodeFlags))
	laminaEngine.Set("getNodeStyle", js.FuncOf(getNodeStyle))
	laminaEngine.Set("getNodeLayout", js.FuncOf(getNodeLayout))
	laminaEngine.Set("getSelection", js.FuncOf(getSelection))
	laminaEngine.Set("getSelectionBounds", js.FuncOf(getSelectionBounds))
	laminaEngine.Set("getDocument", js.FuncOf(getDocument))
	laminaEngine.Set("getPageId", js.FuncOf(getPageID))
	laminaEngine.Set("getPages", js.FuncOf(getPages))
	laminaEngine.Set("drainOperations", js.FuncOf(drainOperations))

	// Register on global scope
	js.Global().Set("laminaEngine", laminaEngine)

	// Signal that WASM is ready
	js.Global().Set("laminaWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

// jsonValue marshals v to a JSON string for the JS side to parse.
func jsonValue(v interface{}) interface{} {
	data, err := json.Marshal(v)
	if err != nil {
		return js.Null()
	}
	return js.ValueOf(string(data))
}

// jsonStrings is jsonValue for id lists, with nil normalized to [] so the
// frontend can iterate without guarding.
func jsonStrings(ids []string) interface{} {
	if ids == nil {
		ids = []string{}
	}
	return jsonValue(ids)
}

// --- Command Handlers ---

func loadDocument(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing document JSON"})
	}

	jsonData := args[0].String()
	if err := eng.LoadDocument(jsonData); err != nil {
		return js.ValueOf(map[string]interface{}{"error": err.Error()})
	}

	return js.ValueOf(map[string]interface{}{"ok": true})
}

func updateDocument(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing document JSON"})
	}

	jsonData := args[0].String()
	if err := eng.UpdateDocument(jsonData); err != nil {
		return js.ValueOf(map[string]interface{}{"error": err.Error()})
	}

	return js.ValueOf(map[string]interface{}{"ok": true})
}

func loadSampleDocument(this js.Value, args []js.Value) interface{} {
	projectID := "proj_sample"
	if len(args) > 0 && args[0].Type() == js.TypeString {
		projectID = args[0].String()
	}

	eng.LoadSampleDocument(projectID)
	return js.ValueOf(map[string]interface{}{"ok": true})
}

func setPage(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(false)
	}
	return js.ValueOf(eng.SetPage(args[0].String()))
}

func setViewportSize(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return nil
	}
	eng.SetViewportSize(args[0].Float(), args[1].Float())
	return nil
}

func setSelection(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		eng.SetSelection(nil)
		return nil
	}

	arr := args[0]
	if arr.Type() != js.TypeObject {
		eng.SetSelection(nil)
		return nil
	}

	length := arr.Length()
	ids := make([]string, length)
	for i := 0; i < length; i++ {
		ids[i] = arr.Index(i).String()
	}
	eng.SetSelection(ids)
	return nil
}

func setTransform(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return js.ValueOf(false)
	}
	t := engine.Transform{
		X:     args[0].Float(),
		Y:     args[1].Float(),
		Scale: args[2].Float(),
	}
	return js.ValueOf(eng.SetTransform(t))
}

func panStart(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return nil
	}
	eng.PanGestureStart(args[0].Float(), args[1].Float())
	return nil
}

func panMove(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return nil
	}
	eng.PanGestureMove(args[0].Float(), args[1].Float())
	return nil
}

func panEnd(this js.Value, args []js.Value) interface{} {
	eng.PanGestureEnd()
	return nil
}

func pointerDown(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return nil
	}
	button := 0
	if len(args) > 2 {
		button = args[2].Int()
	}
	eng.PointerDown(args[0].Float(), args[1].Float(), button)
	return nil
}

func pointerMove(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return nil
	}
	eng.PointerMove(args[0].Float(), args[1].Float())
	return nil
}

func pointerUp(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return nil
	}
	eng.PointerUp(args[0].Float(), args[1].Float())
	return nil
}

func pointerCaptureLost(this js.Value, args []js.Value) interface{} {
	eng.PointerCaptureLost()
	return nil
}

func wheel(this js.Value, args []js.Value) interface{} {
	if len(args) < 4 {
		return nil
	}
	ctrl := false
	if len(args) > 4 {
		ctrl = args[4].Bool()
	}
	eng.Wheel(args[0].Float(), args[1].Float(), args[2].Float(), args[3].Float(), ctrl)
	return nil
}

func escape(this js.Value, args []js.Value) interface{} {
	eng.Escape()
	return nil
}

func startToolbarDrag(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return js.ValueOf(false)
	}
	var rec document.Node
	if err := json.Unmarshal([]byte(args[0].String()), &rec); err != nil {
		return js.ValueOf(false)
	}
	return js.ValueOf(eng.StartToolbarDrag(rec, args[1].Float(), args[2].Float()))
}

func setNodeStyle(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf(false)
	}
	var style document.Style
	if err := json.Unmarshal([]byte(args[1].String()), &style); err != nil {
		return js.ValueOf(false)
	}
	return js.ValueOf(eng.SetNodeStyle(args[0].String(), style))
}

func setNodeLayout(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf(false)
	}
	var layout document.Layout
	if err := json.Unmarshal([]byte(args[1].String()), &layout); err != nil {
		return js.ValueOf(false)
	}
	return js.ValueOf(eng.SetNodeLayout(args[0].String(), layout))
}

func setNodeVisible(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf(false)
	}
	return js.ValueOf(eng.SetNodeVisible(args[0].String(), args[1].Bool()))
}

func setNodeLocked(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf(false)
	}
	return js.ValueOf(eng.SetNodeLocked(args[0].String(), args[1].Bool()))
}

func tick(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.Tick(time.Now()))
}

// --- Query Handlers ---

func render(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.Render())
}

func hitTest(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf("[]")
	}
	return jsonStrings(eng.HitTest(args[0].Float(), args[1].Float()))
}

func getTransform(this js.Value, args []js.Value) interface{} {
	return jsonValue(eng.Transform())
}

func isDragging(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.IsDragging())
}

func getDraggedNodes(this js.Value, args []js.Value) interface{} {
	nodes := eng.DraggedNodes()
	if nodes == nil {
		nodes = []engine.DraggedNodeInfo{}
	}
	return jsonValue(nodes)
}

func getDropInfo(this js.Value, args []js.Value) interface{} {
	info := eng.DropInfo()
	if info == nil {
		return js.Null()
	}
	return jsonValue(info)
}

func getNodeParent(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.Null()
	}
	parent, ok := eng.NodeParent(args[0].String())
	if !ok {
		return js.Null()
	}
	return js.ValueOf(parent)
}

func getNodeChildren(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf("[]")
	}
	return jsonStrings(eng.NodeChildren(args[0].String()))
}

func getNodeFlags(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.Null()
	}
	flags, ok := eng.NodeFlags(args[0].String())
	if !ok {
		return js.Null()
	}
	return jsonValue(flags)
}

func getNodeStyle(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.Null()
	}
	style, ok := eng.NodeStyle(args[0].String())
	if !ok {
		return js.Null()
	}
	return jsonValue(style)
}

func getNodeLayout(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.Null()
	}
	layout, ok := eng.NodeLayout(args[0].String())
	if !ok {
		return js.Null()
	}
	return jsonValue(layout)
}

func getSelection(this js.Value, args []js.Value) interface{} {
	return jsonStrings(eng.Selection())
}

func getSelectionBounds(this js.Value, args []js.Value) interface{} {
	bounds, ok := eng.SelectionBounds()
	if !ok {
		return js.Null()
	}
	return jsonValue(bounds)
}

func getDocument(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.Document())
}

func getPageID(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.PageID())
}

func getPages(this js.Value, args []js.Value) interface{} {
	return jsonStrings(eng.Pages())
}

func drainOperations(this js.Value, args []js.Value) interface{} {
	ops := eng.DrainOperations()
	if ops == nil {
		ops = []engine.Op{}
	}
	return jsonValue(ops)
}
