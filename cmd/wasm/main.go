//go:build js && wasm

package main

import (
	"encoding/json"
	"log/slog"
	"syscall/js"

	"github.com/inamate/sketchboard/internal/document"
	"github.com/inamate/sketchboard/internal/engine"
	"github.com/inamate/sketchboard/internal/imaging"
)

var (
	eng      *engine.Engine
	onRender js.Value
)

// localStorage is the browser-side persister.
type localStorage struct {
	key string
}

func (l localStorage) Save(objs []*document.Object) error {
	data, err := document.Marshal(objs)
	if err != nil {
		return err
	}
	js.Global().Get("localStorage").Call("setItem", l.key, string(data))
	return nil
}

func (l localStorage) load() []*document.Object {
	item := js.Global().Get("localStorage").Call("getItem", l.key)
	if item.IsNull() || item.IsUndefined() {
		return nil
	}
	objs, err := document.Unmarshal([]byte(item.String()))
	if err != nil {
		slog.Warn("saved scene is malformed, starting empty", "key", l.key, "error", err)
		return nil
	}
	return objs
}

func main() {
	persister := localStorage{key: document.StorageKey}

	eng = engine.New(
		engine.WithPersister(persister),
		engine.WithRenderHook(pushFrame),
		// js/wasm runs every goroutine on the one JS thread, so completions
		// can run where they land.
		engine.WithDecoder(&imaging.Decoder{Post: func(fn func()) { fn() }}),
	)

	sketchEngine := js.Global().Get("Object").New()

	// --- Commands (frontend → engine) ---
	sketchEngine.Set("loadScene", js.FuncOf(loadScene))
	sketchEngine.Set("loadSampleScene", js.FuncOf(loadSampleScene))
	sketchEngine.Set("setTool", js.FuncOf(setTool))
	sketchEngine.Set("setStrokeColor", js.FuncOf(setStrokeColor))
	sketchEngine.Set("pointerDown", js.FuncOf(pointerDown))
	sketchEngine.Set("pointerMove", js.FuncOf(pointerMove))
	sketchEngine.Set("pointerUp", js.FuncOf(pointerUp))
	sketchEngine.Set("keyDown", js.FuncOf(keyDown))
	sketchEngine.Set("updateProperty", js.FuncOf(updateProperty))
	sketchEngine.Set("addImage", js.FuncOf(addImage))
	sketchEngine.Set("commitText", js.FuncOf(commitText))
	sketchEngine.Set("setTextEntry", js.FuncOf(setTextEntry))
	sketchEngine.Set("selectLayer", js.FuncOf(selectLayer))
	sketchEngine.Set("undo", js.FuncOf(undo))
	sketchEngine.Set("onRender", js.FuncOf(setRenderCallback))

	// --- Queries (frontend ← engine) ---
	sketchEngine.Set("render", js.FuncOf(render))
	sketchEngine.Set("getScene", js.FuncOf(getScene))
	sketchEngine.Set("getLayers", js.FuncOf(getLayers))
	sketchEngine.Set("getSelection", js.FuncOf(getSelection))

	js.Global().Set("sketchEngine", sketchEngine)

	eng.Load(persister.load())

	js.Global().Set("sketchWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

func ok() interface{} {
	return js.ValueOf(map[string]interface{}{"ok": true})
}

func fail(msg string) interface{} {
	return js.ValueOf(map[string]interface{}{"error": msg})
}

func pushFrame(cmds []engine.DrawCommand) {
	if onRender.Type() != js.TypeFunction {
		return
	}
	frame, err := engine.DrawCommandsToJSON(cmds)
	if err != nil {
		slog.Error("encode frame", "error", err)
		return
	}
	onRender.Invoke(frame)
}

// --- Command Handlers ---

func setRenderCallback(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || args[0].Type() != js.TypeFunction {
		return fail("onRender expects a function")
	}
	onRender = args[0]
	return ok()
}

func loadScene(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return fail("missing scene JSON")
	}
	objs, err := document.Unmarshal([]byte(args[0].String()))
	if err != nil {
		return fail(err.Error())
	}
	eng.Load(objs)
	return ok()
}

func loadSampleScene(this js.Value, args []js.Value) interface{} {
	eng.LoadSampleScene()
	return ok()
}

func setTool(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return fail("missing tool")
	}
	if err := eng.SetTool(document.Kind(args[0].String())); err != nil {
		return fail(err.Error())
	}
	return ok()
}

func setStrokeColor(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return fail("missing colour")
	}
	if err := eng.SetStrokeColor(args[0].String()); err != nil {
		return fail(err.Error())
	}
	return ok()
}

func pointerDown(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return nil
	}
	additive := len(args) > 2 && args[2].Truthy()
	eng.PointerDown(args[0].Float(), args[1].Float(), additive)
	return nil
}

// pointerMove returns the handle under the pointer, for cursor feedback.
func pointerMove(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return nil
	}
	return js.ValueOf(string(eng.PointerMove(args[0].Float(), args[1].Float())))
}

func pointerUp(this js.Value, args []js.Value) interface{} {
	eng.PointerUp()
	return nil
}

// keyDown(key, ctrl, fromInput)
func keyDown(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	eng.KeyDown(engine.KeyEvent{
		Key:       args[0].String(),
		Ctrl:      len(args) > 1 && args[1].Truthy(),
		FromInput: len(args) > 2 && args[2].Truthy(),
	})
	return nil
}

func updateProperty(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return fail("updateProperty expects a key and a value")
	}
	var value any
	switch v := args[1]; v.Type() {
	case js.TypeNumber:
		value = v.Float()
	default:
		value = v.String()
	}
	if err := eng.UpdateProperty(engine.Property(args[0].String()), value); err != nil {
		return fail(err.Error())
	}
	return ok()
}

func addImage(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return fail("missing image data URL")
	}
	id, err := eng.AddImage(args[0].String())
	if err != nil {
		return fail(err.Error())
	}
	return js.ValueOf(map[string]interface{}{"ok": true, "id": id})
}

func commitText(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return fail("missing text")
	}
	if err := eng.CommitText(args[0].String()); err != nil {
		return fail(err.Error())
	}
	return ok()
}

func setTextEntry(this js.Value, args []js.Value) interface{} {
	eng.SetTextEntry(len(args) > 0 && args[0].Truthy())
	return nil
}

func selectLayer(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return fail("missing layer row")
	}
	if err := eng.SelectLayer(args[0].Int()); err != nil {
		return fail(err.Error())
	}
	return ok()
}

func undo(this js.Value, args []js.Value) interface{} {
	eng.Undo()
	return nil
}

// --- Query Handlers ---

func render(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.RenderJSON())
}

func getScene(this js.Value, args []js.Value) interface{} {
	scene, err := eng.SceneJSON()
	if err != nil {
		return fail(err.Error())
	}
	return js.ValueOf(scene)
}

func getLayers(this js.Value, args []js.Value) interface{} {
	return toJSON(eng.Layers())
}

func getSelection(this js.Value, args []js.Value) interface{} {
	sel := eng.Selection()
	ids := make([]string, len(sel))
	for i, o := range sel {
		ids[i] = o.ID
	}
	return toJSON(ids)
}

func toJSON(v any) interface{} {
	data, err := json.Marshal(v)
	if err != nil {
		return fail(err.Error())
	}
	return js.ValueOf(string(data))
}
