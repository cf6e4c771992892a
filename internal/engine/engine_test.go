package engine

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/inamate/sketchboard/internal/document"
	"github.com/inamate/sketchboard/internal/imaging"
)

type recorder struct {
	saves  int
	frames int
	last   []*document.Object
}

func (r *recorder) Save(objs []*document.Object) error {
	r.saves++
	r.last = objs
	return nil
}

func newTestEngine(t *testing.T, opts ...Option) (*Engine, *recorder) {
	t.Helper()
	rec := &recorder{}
	base := []Option{
		WithIDGenerator(sequentialIDs()),
		WithPersister(rec),
		WithRenderHook(func([]DrawCommand) { rec.frames++ }),
	}
	return New(append(base, opts...)...), rec
}

func pngDataURL(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return imaging.EncodeDataURL("image/png", buf.Bytes())
}

func TestEnginePersistsOnPointerUp(t *testing.T) {
	e, rec := newTestEngine(t)

	e.PointerDown(10, 10, false)
	e.PointerMove(110, 60)
	if rec.saves != 0 {
		t.Errorf("saved %d times mid-gesture", rec.saves)
	}
	if rec.frames != 2 {
		t.Errorf("frames = %d, want 2", rec.frames)
	}
	e.PointerUp()

	if rec.saves != 1 || len(rec.last) != 1 {
		t.Fatalf("saves = %d, last = %v", rec.saves, rec.last)
	}
	if e.Mode() != ModeIdle {
		t.Errorf("Mode() = %v", e.Mode())
	}
}

func TestEngineSetStrokeColor(t *testing.T) {
	e, _ := newTestEngine(t)
	e.PointerDown(0, 0, false)
	e.PointerMove(40, 40)
	e.PointerUp()

	if err := e.SetStrokeColor("#ff00ff"); err != nil {
		t.Fatal(err)
	}
	o := e.Objects()[0]
	if l, _ := o.Label(); o.Stroke != "#ff00ff" || l.LabelColor != "#ff00ff" {
		t.Errorf("stroke = %q label colour = %q", o.Stroke, l.LabelColor)
	}

	e.KeyDown(KeyEvent{Key: "Delete"})
	e.PointerDown(100, 100, false)
	e.PointerUp()
	if got := e.Objects()[0].Stroke; got != "#ff00ff" {
		t.Errorf("new object stroke = %q, want current colour", got)
	}
}

func TestEngineUpdatePropertyOnSelection(t *testing.T) {
	e, rec := newTestEngine(t)
	e.PointerDown(0, 0, false)
	e.PointerUp()
	saves := rec.saves

	if err := e.UpdateProperty(PropWidth, "64"); err != nil {
		t.Fatal(err)
	}
	if e.Objects()[0].W != 64 || rec.saves != saves+1 {
		t.Errorf("W = %v saves = %d", e.Objects()[0].W, rec.saves)
	}
	if err := e.UpdateProperty("zIndex", 1); !errors.Is(err, ErrUnknownProperty) {
		t.Errorf("UpdateProperty(zIndex) error = %v", err)
	}
}

func TestEngineCommitText(t *testing.T) {
	e, _ := newTestEngine(t)
	if err := e.SetTool(document.KindText); err != nil {
		t.Fatal(err)
	}
	e.PointerDown(20, 40, false)
	e.PointerUp()
	e.SetTextEntry(true)

	if err := e.CommitText("hello"); err != nil {
		t.Fatalf("CommitText() error = %v", err)
	}
	if txt := e.Objects()[0].Body.(*document.Text); txt.Content != "hello" {
		t.Errorf("content = %q", txt.Content)
	}
	if err := e.CommitText("again"); !errors.Is(err, ErrTextAlreadySet) {
		t.Errorf("second CommitText() error = %v, want ErrTextAlreadySet", err)
	}

	e.KeyDown(KeyEvent{Key: "Delete"})
	if len(e.Objects()) != 0 {
		t.Error("text entry still suspended shortcuts after commit")
	}
	if err := e.CommitText("x"); !errors.Is(err, ErrNoTextSelected) {
		t.Errorf("CommitText() without selection error = %v", err)
	}
}

func TestEngineAddImage(t *testing.T) {
	posted := make(chan func(), 1)
	dec := &imaging.Decoder{Post: func(fn func()) { posted <- fn }}
	e, rec := newTestEngine(t, WithDecoder(dec))

	id, err := e.AddImage(pngDataURL(t))
	if err != nil {
		t.Fatalf("AddImage() error = %v", err)
	}
	o := e.Objects()[0]
	if o.ID != id || o.X != ImageX || o.Y != ImageY || o.W != ImageSize || o.H != ImageSize {
		t.Errorf("image object = %+v", o)
	}
	if o.Fill != document.Transparent || o.Stroke != document.Transparent {
		t.Errorf("image paint = %q/%q", o.Fill, o.Stroke)
	}
	if rec.saves != 1 || e.HistoryLen() != 1 {
		t.Errorf("saves = %d history = %d, want 1 and 1", rec.saves, e.HistoryLen())
	}

	select {
	case fn := <-posted:
		frames := rec.frames
		fn()
		if rec.frames != frames+1 {
			t.Error("decode completion did not render")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("decode never completed")
	}
	if _, ok := e.Images()[id]; !ok {
		t.Error("Images() missing decoded bitmap")
	}

	if _, err := e.AddImage("not a data url"); !errors.Is(err, imaging.ErrInvalidDataURL) {
		t.Errorf("AddImage(bad) error = %v", err)
	}
}

func TestEngineUndoKeepsDecodedImages(t *testing.T) {
	posted := make(chan func(), 1)
	dec := &imaging.Decoder{Post: func(fn func()) { posted <- fn }}
	e, _ := newTestEngine(t, WithDecoder(dec))

	id, _ := e.AddImage(pngDataURL(t))
	(<-posted)()

	// Move the image, then undo the move.
	e.PointerDown(200, 200, false)
	e.PointerMove(250, 250)
	e.PointerUp()
	e.Undo()

	if _, ok := e.Images()[id]; !ok {
		t.Error("undo dropped the decoded bitmap")
	}
}

func TestEngineLoadAndLayers(t *testing.T) {
	e, rec := newTestEngine(t)
	e.LoadSampleScene()

	if rec.frames != 1 {
		t.Errorf("Load rendered %d frames, want 1", rec.frames)
	}
	layers := e.Layers()
	if len(layers) != len(e.Objects()) {
		t.Fatalf("len(layers) = %d", len(layers))
	}
	if err := e.SelectLayer(0); err != nil {
		t.Fatal(err)
	}
	objs := e.Objects()
	if sel := e.Selection(); len(sel) != 1 || sel[0] != objs[len(objs)-1] {
		t.Errorf("SelectLayer(0) selected %v, want topmost", sel)
	}
	if err := e.SelectLayer(99); !errors.Is(err, ErrLayerOutOfRange) {
		t.Errorf("SelectLayer(99) error = %v", err)
	}

	s, err := e.SceneJSON()
	if err != nil {
		t.Fatal(err)
	}
	back, err := document.Unmarshal([]byte(s))
	if err != nil || len(back) != len(objs) {
		t.Errorf("SceneJSON round trip = %d objects, %v", len(back), err)
	}
	if e.RenderJSON() == "[]" {
		t.Error("RenderJSON() returned no commands")
	}
}
