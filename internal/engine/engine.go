package engine

import (
	"errors"
	"fmt"
	"image"
	"log/slog"

	"github.com/inamate/sketchboard/internal/document"
	"github.com/inamate/sketchboard/internal/imaging"
	"github.com/inamate/sketchboard/internal/typeid"
)

var (
	ErrTextAlreadySet  = errors.New("text content already set")
	ErrNoTextSelected  = errors.New("no text object selected")
	ErrLayerOutOfRange = errors.New("layer row out of range")
)

// Image placement for dropped assets.
const (
	ImageX    = 100
	ImageY    = 100
	ImageSize = 300
)

// Persister stores the scene after each committed edit.
type Persister interface {
	Save(objs []*document.Object) error
}

// PersisterFunc adapts a function to Persister.
type PersisterFunc func(objs []*document.Object) error

func (f PersisterFunc) Save(objs []*document.Object) error { return f(objs) }

type Option func(*Engine)

func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) { e.newID = fn }
}

func WithHistoryLimit(n int) Option {
	return func(e *Engine) { e.historyLimit = n }
}

func WithPersister(p Persister) Option {
	return func(e *Engine) { e.persister = p }
}

// WithRenderHook is called with a fresh frame whenever the scene needs to be
// redrawn.
func WithRenderHook(fn func([]DrawCommand)) Option {
	return func(e *Engine) { e.onRender = fn }
}

// WithDecoder sets the image decoder. Its Post function must run callbacks on
// the goroutine that owns the engine.
func WithDecoder(d *imaging.Decoder) Option {
	return func(e *Engine) { e.decoder = d }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// Engine is the editor core. It owns the scene, the undo history and the
// interaction machine, and runs the render and persist effects that input
// produces. An Engine is not safe for concurrent use: every call, including
// decode callbacks, must come from one goroutine.
type Engine struct {
	scene   *Scene
	history *History
	machine *Machine

	newID        func() string
	historyLimit int
	persister    Persister
	onRender     func([]DrawCommand)
	decoder      *imaging.Decoder
	log          *slog.Logger
}

// New creates an engine with an empty scene.
func New(opts ...Option) *Engine {
	e := &Engine{
		newID:        typeid.NewObjectID,
		historyLimit: DefaultHistoryLimit,
		log:          slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.decoder == nil {
		e.decoder = &imaging.Decoder{Logger: e.log}
	}
	e.scene = NewScene(nil)
	e.history = NewHistory(e.historyLimit)
	e.machine = NewMachine(e.scene, e.history, e.newID)
	return e
}

// --- Commands ---

// Load replaces the scene, drops the undo history and starts decoding every
// image.
func (e *Engine) Load(objs []*document.Object) {
	e.scene.Replace(objs)
	e.history.Clear()
	for _, o := range objs {
		if img, ok := o.Body.(*document.Image); ok && img.Handle() == nil {
			e.decode(img)
		}
	}
	e.render()
}

// LoadSampleScene loads the built-in sample scene.
func (e *Engine) LoadSampleScene() {
	e.Load(document.NewSampleScene())
}

func (e *Engine) SetTool(kind document.Kind) error {
	return e.machine.SetTool(kind)
}

// SetStrokeColor sets the colour new objects are drawn with and restrokes the
// selection.
func (e *Engine) SetStrokeColor(color string) error {
	if len(e.scene.Selection()) > 0 {
		if err := e.UpdateProperty(PropStroke, color); err != nil {
			return err
		}
	}
	e.machine.SetStroke(color)
	return nil
}

func (e *Engine) PointerDown(x, y float64, additive bool) {
	e.apply(e.machine.PointerDown(document.Point{X: x, Y: y}, additive))
}

// PointerMove advances the current gesture and returns the resize handle
// under the pointer, if any.
func (e *Engine) PointerMove(x, y float64) Handle {
	out := e.machine.PointerMove(document.Point{X: x, Y: y})
	e.apply(out)
	return out.Hover
}

func (e *Engine) PointerUp() {
	e.apply(e.machine.PointerUp())
}

func (e *Engine) KeyDown(k KeyEvent) {
	e.apply(e.machine.KeyDown(k))
}

func (e *Engine) Undo() {
	e.apply(e.machine.Undo())
}

// UpdateProperty sets key on every selected object.
func (e *Engine) UpdateProperty(key Property, value any) error {
	if err := e.scene.UpdateProperty(e.scene.Selection(), key, value); err != nil {
		return fmt.Errorf("update property: %w", err)
	}
	e.apply(committed)
	return nil
}

// AddImage drops an image asset onto the canvas and returns its object id.
// The image paints once its decode completes.
func (e *Engine) AddImage(src string) (string, error) {
	if _, _, err := imaging.ParseDataURL(src); err != nil {
		return "", fmt.Errorf("add image: %w", err)
	}
	img := &document.Image{Source: src}
	o := &document.Object{
		ID:     e.newID(),
		X:      ImageX,
		Y:      ImageY,
		W:      ImageSize,
		H:      ImageSize,
		Fill:   document.Transparent,
		Stroke: document.Transparent,
		Body:   img,
	}
	e.decode(img)
	e.apply(e.machine.Insert(o))
	return o.ID, nil
}

// CommitText sets the content of the selected text object and leaves text
// entry mode. Content can only be set once.
func (e *Engine) CommitText(s string) error {
	sel := e.scene.Selection()
	if len(sel) != 1 {
		return ErrNoTextSelected
	}
	t, ok := sel[0].Body.(*document.Text)
	if !ok {
		return ErrNoTextSelected
	}
	if t.Content != "" {
		return ErrTextAlreadySet
	}
	t.Content = s
	e.machine.SetTextEntry(false)
	e.apply(committed)
	return nil
}

// SetTextEntry suspends keyboard shortcuts while a text overlay has focus.
func (e *Engine) SetTextEntry(on bool) {
	e.machine.SetTextEntry(on)
}

// SelectLayer selects the object at a layer panel row, 0 being the topmost.
func (e *Engine) SelectLayer(row int) error {
	if !e.scene.SelectLayer(row) {
		return fmt.Errorf("select layer %d: %w", row, ErrLayerOutOfRange)
	}
	e.apply(committed)
	return nil
}

func (e *Engine) decode(img *document.Image) {
	img.SetHandle(e.decoder.Decode(img.Source, e.render))
}

func (e *Engine) apply(out Outcome) {
	if out.Has(EffectPersist) {
		e.persist()
	}
	if out.Has(EffectRender) {
		e.render()
	}
}

func (e *Engine) persist() {
	if e.persister == nil {
		return
	}
	if err := e.persister.Save(e.scene.Objects()); err != nil {
		e.log.Error("failed to persist scene", "error", err)
	}
}

func (e *Engine) render() {
	if e.onRender != nil {
		e.onRender(e.Render())
	}
}

// --- Queries ---

func (e *Engine) Objects() []*document.Object   { return e.scene.Objects() }
func (e *Engine) Selection() []*document.Object { return e.scene.Selection() }
func (e *Engine) Layers() []Layer               { return e.scene.Layers() }
func (e *Engine) Mode() Mode                    { return e.machine.Mode() }
func (e *Engine) Tool() document.Kind           { return e.machine.Tool() }
func (e *Engine) Stroke() string                { return e.machine.Stroke() }
func (e *Engine) HistoryLen() int               { return e.history.Len() }

// Render compiles the current frame.
func (e *Engine) Render() []DrawCommand {
	return CompileDrawCommands(e.scene.Objects(), e.scene.Selection())
}

// RenderJSON returns the current frame as JSON.
func (e *Engine) RenderJSON() string {
	result, _ := DrawCommandsToJSON(e.Render())
	return result
}

// SceneJSON returns the scene in its saved form.
func (e *Engine) SceneJSON() (string, error) {
	data, err := document.Marshal(e.scene.Objects())
	if err != nil {
		return "", fmt.Errorf("marshal scene: %w", err)
	}
	return string(data), nil
}

// Images returns the decoded bitmaps keyed by object id.
func (e *Engine) Images() map[string]image.Image {
	out := make(map[string]image.Image)
	for _, o := range e.scene.Objects() {
		if img, ok := o.Body.(*document.Image); ok {
			if bmp, ok := img.Bitmap(); ok {
				out[o.ID] = bmp
			}
		}
	}
	return out
}
