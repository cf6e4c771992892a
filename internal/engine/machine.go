package engine

import (
	"errors"
	"fmt"
	"slices"
	"unicode"
	"unicode/utf8"

	"github.com/inamate/sketchboard/internal/document"
)

var ErrUnknownTool = errors.New("unknown tool")

// Mode is the gesture the machine is in. Exactly one is active at a time.
type Mode int

const (
	ModeIdle Mode = iota
	ModeDrawing
	ModeDragging
	ModeResizing
)

func (m Mode) String() string {
	switch m {
	case ModeDrawing:
		return "drawing"
	case ModeDragging:
		return "dragging"
	case ModeResizing:
		return "resizing"
	}
	return "idle"
}

// Effect is a side effect an input asks the owner to perform.
type Effect uint8

const (
	EffectRender Effect = 1 << iota
	EffectPersist
)

// Outcome is what the owner has to do after an input, plus the handle under
// the pointer for cursor feedback.
type Outcome struct {
	Effects Effect
	Hover   Handle
}

func (o Outcome) Has(e Effect) bool { return o.Effects&e != 0 }

var (
	rendered  = Outcome{Effects: EffectRender}
	committed = Outcome{Effects: EffectRender | EffectPersist}
)

// KeyEvent is a key press. Key uses DOM KeyboardEvent.key names
// ("a", "Backspace", "Delete"). FromInput is set when the key went to a form
// control rather than the canvas.
type KeyEvent struct {
	Key       string `json:"key"`
	Ctrl      bool   `json:"ctrl"`
	FromInput bool   `json:"fromInput"`
}

type dragOffset struct {
	obj    *document.Object
	dx, dy float64
}

// Machine turns pointer and key input into scene mutations. It never renders
// or persists by itself; every input returns the effects the owner must run.
type Machine struct {
	scene   *Scene
	history *History
	newID   func() string

	tool      document.Kind
	stroke    string
	textEntry bool

	mode    Mode
	start   document.Point
	handle  Handle
	target  *document.Object
	offsets []dragOffset
}

func NewMachine(scene *Scene, history *History, newID func() string) *Machine {
	return &Machine{
		scene:   scene,
		history: history,
		newID:   newID,
		tool:    document.KindRectangle,
		stroke:  document.DefaultStroke,
	}
}

func (m *Machine) Mode() Mode             { return m.mode }
func (m *Machine) Tool() document.Kind    { return m.tool }
func (m *Machine) Stroke() string         { return m.stroke }
func (m *Machine) TextEntry() bool        { return m.textEntry }
func (m *Machine) SetTextEntry(on bool)   { m.textEntry = on }
func (m *Machine) SetStroke(color string) { m.stroke = color }

func (m *Machine) SetTool(kind document.Kind) error {
	if !slices.Contains(document.Kinds, kind) {
		return fmt.Errorf("set tool %q: %w", kind, ErrUnknownTool)
	}
	m.tool = kind
	return nil
}

// PointerDown starts a resize, a drag or a draw, in that order of precedence.
func (m *Machine) PointerDown(p document.Point, additive bool) Outcome {
	m.endGesture()

	if sel := m.scene.Selection(); len(sel) == 1 {
		if h, ok := HandleAt(p, sel[0]); ok {
			m.history.Snapshot(m.scene.Objects())
			m.mode = ModeResizing
			m.handle = h
			m.target = sel[0]
			return rendered
		}
	}

	if m.tool != document.KindSketch {
		if hit, ok := m.scene.HitTest(p); ok {
			m.scene.Select([]*document.Object{hit}, additive)
			m.history.Snapshot(m.scene.Objects())
			m.mode = ModeDragging
			for _, o := range m.scene.Selection() {
				m.offsets = append(m.offsets, dragOffset{obj: o, dx: p.X - o.X, dy: p.Y - o.Y})
			}
			return rendered
		}
	}

	if m.tool == document.KindImage {
		m.scene.ClearSelection()
		return rendered
	}

	m.history.Snapshot(m.scene.Objects())
	m.scene.ClearSelection()

	body, _ := document.NewBody(m.tool, document.DefaultFont())
	if s, ok := body.(*document.Sketch); ok {
		s.Points = []document.Point{p}
	}
	o := &document.Object{
		ID:     m.newID(),
		X:      p.X,
		Y:      p.Y,
		W:      1,
		H:      1,
		Fill:   document.Transparent,
		Stroke: m.stroke,
		Body:   body,
	}
	m.scene.Add(o)
	m.scene.Select([]*document.Object{o}, false)

	m.mode = ModeDrawing
	m.start = p
	m.target = o
	return rendered
}

// PointerMove advances the active gesture. Objects that left the selection
// mid-gesture are not touched.
func (m *Machine) PointerMove(p document.Point) Outcome {
	var out Outcome

	switch m.mode {
	case ModeDragging:
		for _, d := range m.offsets {
			if !m.scene.IsSelected(d.obj) {
				continue
			}
			d.obj.X = p.X - d.dx
			d.obj.Y = p.Y - d.dy
		}
		out = rendered

	case ModeDrawing:
		if o := m.target; m.scene.IsSelected(o) {
			if s, ok := o.Body.(*document.Sketch); ok {
				s.Points = append(s.Points, p)
			} else {
				o.W = p.X - m.start.X
				o.H = p.Y - m.start.Y
			}
		}
		out = rendered

	case ModeResizing:
		if m.scene.IsSelected(m.target) {
			resize(m.target, m.handle, p)
		}
		out = rendered
	}

	if sel := m.scene.Selection(); len(sel) == 1 {
		out.Hover, _ = HandleAt(p, sel[0])
	}
	return out
}

func resize(o *document.Object, h Handle, p document.Point) {
	right, bottom := o.X+o.W, o.Y+o.H
	switch h {
	case HandleBottomRight:
		o.W = p.X - o.X
		o.H = p.Y - o.Y
	case HandleBottomLeft:
		o.X = p.X
		o.W = right - p.X
		o.H = p.Y - o.Y
	case HandleTopRight:
		o.Y = p.Y
		o.H = bottom - p.Y
		o.W = p.X - o.X
	case HandleTopLeft:
		o.X = p.X
		o.Y = p.Y
		o.W = right - p.X
		o.H = bottom - p.Y
	case HandleTopCenter:
		o.Y = p.Y
		o.H = bottom - p.Y
	}
}

// PointerUp ends any gesture. It always persists, even for a plain click.
func (m *Machine) PointerUp() Outcome {
	m.endGesture()
	return committed
}

func (m *Machine) endGesture() {
	m.mode = ModeIdle
	m.handle = HandleNone
	m.target = nil
	m.offsets = nil
}

// KeyDown handles undo, delete and in-shape label typing.
func (m *Machine) KeyDown(k KeyEvent) Outcome {
	if k.FromInput || m.textEntry {
		return Outcome{}
	}

	if k.Ctrl && k.Key == "z" {
		return m.Undo()
	}

	sel := m.scene.Selection()
	if k.Key == "Delete" || (k.Key == "Backspace" && len(sel) == 1 && !hasLabelText(sel[0])) {
		return m.DeleteSelection()
	}

	if len(sel) != 1 {
		return Outcome{}
	}
	l, ok := sel[0].Label()
	if !ok {
		return Outcome{}
	}
	switch {
	case k.Key == "Backspace":
		_, size := utf8.DecodeLastRuneInString(l.Label)
		l.Label = l.Label[:len(l.Label)-size]
		return committed
	case !k.Ctrl && isPrintable(k.Key):
		l.Label += k.Key
		return committed
	}
	return Outcome{}
}

func hasLabelText(o *document.Object) bool {
	l, ok := o.Label()
	return ok && l.Label != ""
}

func isPrintable(key string) bool {
	r, size := utf8.DecodeRuneInString(key)
	return size > 0 && size == len(key) && r != utf8.RuneError && unicode.IsPrint(r)
}

// Undo restores the newest snapshot and clears the selection. With no
// history it does nothing.
func (m *Machine) Undo() Outcome {
	objs, ok := m.history.Undo()
	if !ok {
		return Outcome{}
	}
	m.scene.Replace(objs)
	return committed
}

// DeleteSelection removes every selected object after taking a snapshot.
func (m *Machine) DeleteSelection() Outcome {
	if len(m.scene.Selection()) == 0 {
		return Outcome{}
	}
	m.history.Snapshot(m.scene.Objects())
	m.scene.Remove(m.scene.IsSelected)
	m.scene.ClearSelection()
	return committed
}

// Insert adds an object as one undoable step.
func (m *Machine) Insert(o *document.Object) Outcome {
	m.history.Snapshot(m.scene.Objects())
	m.scene.Add(o)
	return committed
}
