//go:build js && wasm

package main

import (
	"bytes"
	"encoding/json"
	"image/png"
	"syscall/js"
	"time"

	"github.com/abaj8494/draw/internal/board"
	"github.com/abaj8494/draw/internal/engine"
	"github.com/abaj8494/draw/internal/geom"
	"github.com/abaj8494/draw/internal/render"
)

var (
	sess *engine.Session

	// No fetch func in the browser build: the frontend uploads bitmaps
	// into the cache itself via putImage before asking for a render.
	images   = render.NewImageCache(nil, nil)
	renderer = render.New(images)
)

func main() {
	sess = engine.NewSession()

	// Create the engine API object
	drawEngine := js.Global().Get("Object").New()

	// --- Commands (frontend → backend) ---
	drawEngine.Set("loadDocument", js.FuncOf(loadDocument))
	drawEngine.Set("setTool", js.FuncOf(setTool))
	drawEngine.Set("setBackground", js.FuncOf(setBackground))
	drawEngine.Set("beginStroke", js.FuncOf(beginStroke))
	drawEngine.Set("extendStroke", js.FuncOf(extendStroke))
	drawEngine.Set("commitStroke", js.FuncOf(commitStroke))
	drawEngine.Set("abortStroke", js.FuncOf(abortStroke))
	drawEngine.Set("addShape", js.FuncOf(addShape))
	drawEngine.Set("addImage", js.FuncOf(addImage))
	drawEngine.Set("putImage", js.FuncOf(putImage))
	drawEngine.Set("eraseAt", js.FuncOf(eraseAt))
	drawEngine.Set("selectInRect", js.FuncOf(selectInRect))
	drawEngine.Set("selectInPolygon", js.FuncOf(selectInPolygon))
	drawEngine.Set("clearSelection", js.FuncOf(clearSelection))
	drawEngine.Set("translateSelection", js.FuncOf(translateSelection))
	drawEngine.Set("deleteSelection", js.FuncOf(deleteSelection))
	drawEngine.Set("undo", js.FuncOf(undo))
	drawEngine.Set("redo", js.FuncOf(redo))
	drawEngine.Set("clearBoard", js.FuncOf(clearBoard))
	drawEngine.Set("pan", js.FuncOf(pan))
	drawEngine.Set("setScale", js.FuncOf(setScale))
	drawEngine.Set("setView", js.FuncOf(setView))
	drawEngine.Set("laserAdd", js.FuncOf(laserAdd))
	drawEngine.Set("laserDecay", js.FuncOf(laserDecay))
	drawEngine.Set("markClean", js.FuncOf(markClean))

	// --- Queries (frontend ← backend) ---
	drawEngine.Set("getDocument", js.FuncOf(getDocument))
	drawEngine.Set("getTool", js.FuncOf(getTool))
	drawEngine.Set("getTransform", js.FuncOf(getTransform))
	drawEngine.Set("getActivePoints", js.FuncOf(getActivePoints))
	drawEngine.Set("getSelection", js.FuncOf(getSelection))
	drawEngine.Set("hitTest", js.FuncOf(hitTest))
	drawEngine.Set("canUndo", js.FuncOf(canUndo))
	drawEngine.Set("canRedo", js.FuncOf(canRedo))
	drawEngine.Set("isDirty", js.FuncOf(isDirty))
	drawEngine.Set("laserPoints", js.FuncOf(laserPoints))
	drawEngine.Set("renderPNG", js.FuncOf(renderPNG))

	// Register on global scope
	js.Global().Set("drawEngine", drawEngine)

	// Signal that WASM is ready
	js.Global().Set("drawWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

// --- Command Handlers ---

func loadDocument(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing document JSON"})
	}

	doc := board.NewDocument()
	if err := json.Unmarshal([]byte(args[0].String()), doc); err != nil {
		return js.ValueOf(map[string]interface{}{"error": err.Error()})
	}
	sess.LoadDocument(doc)

	return js.ValueOf(map[string]interface{}{"ok": true})
}

func setTool(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	sess.SetTool(engine.Tool(args[0].String()))
	return nil
}

func setBackground(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	sess.SetBackground(board.Background(args[0].String()))
	return nil
}

func beginStroke(this js.Value, args []js.Value) interface{} {
	if len(args) < 5 {
		return js.ValueOf(false)
	}
	first := geom.Point{X: args[0].Float(), Y: args[1].Float()}
	color := args[2].String()
	size := args[3].Float()
	opacity := args[4].Float()
	return js.ValueOf(sess.BeginStroke(first, color, size, opacity))
}

func extendStroke(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return nil
	}
	sess.ExtendStroke(geom.Point{X: args[0].Float(), Y: args[1].Float()})
	return nil
}

func commitStroke(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(sess.CommitStroke())
}

func abortStroke(this js.Value, args []js.Value) interface{} {
	sess.AbortStroke()
	return nil
}

func addShape(this js.Value, args []js.Value) interface{} {
	if len(args) < 4 {
		return js.ValueOf(false)
	}
	var pts []geom.Point
	if err := json.Unmarshal([]byte(args[0].String()), &pts); err != nil {
		return js.ValueOf(false)
	}
	return js.ValueOf(sess.AddShape(pts, args[1].String(), args[2].Float(), args[3].Float()))
}

func addImage(this js.Value, args []js.Value) interface{} {
	if len(args) < 6 {
		return js.ValueOf(false)
	}
	source := args[0].String()
	x, y := args[1].Float(), args[2].Float()
	w, h := args[3].Float(), args[4].Float()
	opacity := args[5].Float()
	return js.ValueOf(sess.AddImage(source, x, y, w, h, opacity))
}

// putImage decodes PNG bytes from a Uint8Array into the render cache
// under the given source key, so renderPNG can draw image strokes
// without a network fetch.
func putImage(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf(false)
	}
	source := args[0].String()
	data := make([]byte, args[1].Length())
	js.CopyBytesToGo(data, args[1])

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return js.ValueOf(false)
	}
	images.Put(source, img)
	return js.ValueOf(true)
}

func eraseAt(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return js.ValueOf(false)
	}
	p := geom.Point{X: args[0].Float(), Y: args[1].Float()}
	return js.ValueOf(sess.EraseAt(p, args[2].Float()))
}

func selectInRect(this js.Value, args []js.Value) interface{} {
	if len(args) < 4 {
		return indicesValue(nil)
	}
	r := geom.RectFromCorners(
		geom.Point{X: args[0].Float(), Y: args[1].Float()},
		geom.Point{X: args[2].Float(), Y: args[3].Float()},
	)
	return indicesValue(sess.SelectInRect(r))
}

func selectInPolygon(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return indicesValue(nil)
	}
	var poly []geom.Point
	if err := json.Unmarshal([]byte(args[0].String()), &poly); err != nil {
		return indicesValue(nil)
	}
	return indicesValue(sess.SelectInPolygon(poly))
}

func clearSelection(this js.Value, args []js.Value) interface{} {
	sess.ClearSelection()
	return nil
}

func translateSelection(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return nil
	}
	sess.TranslateSelection(args[0].Float(), args[1].Float())
	return nil
}

func deleteSelection(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(sess.DeleteSelection())
}

func undo(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(sess.Undo())
}

func redo(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(sess.Redo())
}

func clearBoard(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(sess.Clear())
}

func pan(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return nil
	}
	sess.Pan(args[0].Float(), args[1].Float())
	return nil
}

func setScale(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return nil
	}
	sess.SetScale(args[0].Float(), args[1].Float(), args[2].Float())
	return nil
}

func setView(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return nil
	}
	sess.SetView(args[0].Float(), args[1].Float(), args[2].Float())
	return nil
}

func laserAdd(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return nil
	}
	sess.Laser().Add(geom.Point{X: args[0].Float(), Y: args[1].Float()}, time.Now())
	return nil
}

func laserDecay(this js.Value, args []js.Value) interface{} {
	sess.Laser().Decay(time.Now())
	return nil
}

func markClean(this js.Value, args []js.Value) interface{} {
	sess.MarkClean()
	return nil
}

// --- Query Handlers ---

func getDocument(this js.Value, args []js.Value) interface{} {
	data, err := json.Marshal(sess.Document())
	if err != nil {
		return js.ValueOf("")
	}
	return js.ValueOf(string(data))
}

func getTool(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(string(sess.Tool()))
}

func getTransform(this js.Value, args []js.Value) interface{} {
	t := sess.Transform()
	return js.ValueOf(map[string]interface{}{
		"offsetX": t.OffsetX,
		"offsetY": t.OffsetY,
		"scale":   t.Scale,
	})
}

func getActivePoints(this js.Value, args []js.Value) interface{} {
	pts := sess.ActivePoints()
	if pts == nil {
		return js.ValueOf("[]")
	}
	data, err := json.Marshal(pts)
	if err != nil {
		return js.ValueOf("[]")
	}
	return js.ValueOf(string(data))
}

func getSelection(this js.Value, args []js.Value) interface{} {
	return indicesValue(sess.Selection())
}

func hitTest(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return js.ValueOf(-1)
	}
	p := geom.Point{X: args[0].Float(), Y: args[1].Float()}
	idx, ok := sess.HitTest(p, args[2].Float())
	if !ok {
		return js.ValueOf(-1)
	}
	return js.ValueOf(idx)
}

func canUndo(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(sess.CanUndo())
}

func canRedo(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(sess.CanRedo())
}

func isDirty(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(sess.Dirty())
}

func laserPoints(this js.Value, args []js.Value) interface{} {
	pts, ages := sess.Laser().Points(time.Now())
	out := make([]interface{}, len(pts))
	for i, p := range pts {
		out[i] = map[string]interface{}{"x": p.X, "y": p.Y, "age": ages[i]}
	}
	return js.ValueOf(out)
}

// renderPNG rasterizes the document server-side-identical and returns
// the PNG bytes as a Uint8Array, for thumbnail capture in the client.
func renderPNG(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.Null()
	}
	width, height := args[0].Int(), args[1].Int()
	if width <= 0 || height <= 0 {
		return js.Null()
	}

	img := renderer.Render(sess.Document(), width, height)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return js.Null()
	}

	dst := js.Global().Get("Uint8Array").New(buf.Len())
	js.CopyBytesToJS(dst, buf.Bytes())
	return dst
}

// indicesValue converts selection indices for the JS boundary.
func indicesValue(indices []int) js.Value {
	out := make([]interface{}, len(indices))
	for i, idx := range indices {
		out[i] = idx
	}
	return js.ValueOf(out)
}
