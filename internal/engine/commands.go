package engine

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/inamate/sketchboard/internal/document"
)

const (
	StrokeWidth    = 2
	SelectionColor = "#3b82f6"
	HandleSize     = 8
)

// SelectionDash is the dash pattern of a selected object's outline.
var SelectionDash = []float64{5, 5}

// DrawCommand represents a single drawing operation for the frontend to execute.
// The frontend receives a list of these and executes them on a Canvas2D context.
type DrawCommand struct {
	Op          string        `json:"op"`                    // "clear", "save", "restore", "path", "text", "image", "handle"
	ObjectID    string        `json:"objectId,omitempty"`    // For hit correlation
	Path        []PathCommand `json:"path,omitempty"`        // Path data for "path" ops
	Fill        string        `json:"fill,omitempty"`        // Fill color, omitted for no fill
	Stroke      string        `json:"stroke,omitempty"`      // Stroke color
	StrokeWidth float64       `json:"strokeWidth,omitempty"` // Stroke width
	Dash        []float64     `json:"dash,omitempty"`        // Line dash pattern

	// Box for "image" and "handle" ops, anchor point for "text" ops.
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`

	Text     string        `json:"text,omitempty"`
	Font     string        `json:"font,omitempty"`     // CSS font shorthand
	FontSpec document.Font `json:"-"`                  // Structured font for non-browser backends
	Align    string        `json:"align,omitempty"`    // "left" or "center"
	Baseline string        `json:"baseline,omitempty"` // "alphabetic" or "middle"
}

// PathCommand represents a single path segment for rendering.
// Format matches Canvas2D: ["M", x, y], ["L", x, y], ["C", x1, y1, x2, y2, x, y], ["Z"].
type PathCommand []interface{}

// CompileDrawCommands generates a full redraw of the scene in painter's order
// (back to front). Selected objects are outlined, and a single selected shape
// gets its resize handles.
func CompileDrawCommands(objs []*document.Object, selection []*document.Object) []DrawCommand {
	c := compiler{
		commands: []DrawCommand{{Op: "clear"}},
		selected: make(map[*document.Object]bool, len(selection)),
	}
	for _, o := range selection {
		c.selected[o] = true
	}
	for _, o := range objs {
		c.commands = append(c.commands, DrawCommand{Op: "save"})
		o.Visit(&c)
		if len(selection) == 1 && selection[0] == o {
			c.handles(o)
		}
		c.commands = append(c.commands, DrawCommand{Op: "restore"})
	}
	return c.commands
}

type compiler struct {
	commands []DrawCommand
	selected map[*document.Object]bool
}

func (c *compiler) emit(cmd DrawCommand) {
	c.commands = append(c.commands, cmd)
}

// outline returns the stroke paint for o: its own colour, or the dashed
// selection colour.
func (c *compiler) outline(o *document.Object) (string, []float64) {
	if c.selected[o] {
		return SelectionColor, SelectionDash
	}
	if o.Stroke == "" {
		return document.DefaultStroke, nil
	}
	return o.Stroke, nil
}

func (c *compiler) shape(o *document.Object, path []PathCommand, l *document.ShapeLabel, labelY float64) {
	stroke, dash := c.outline(o)
	cmd := DrawCommand{
		Op:          "path",
		ObjectID:    o.ID,
		Path:        path,
		Stroke:      stroke,
		StrokeWidth: StrokeWidth,
		Dash:        dash,
	}
	if o.HasFill() {
		cmd.Fill = o.Fill
	}
	c.emit(cmd)

	if l.Label == "" {
		return
	}
	color := l.LabelColor
	if color == "" {
		color = o.Stroke
	}
	if color == "" {
		color = document.DefaultStroke
	}
	c.emit(DrawCommand{
		Op:       "text",
		ObjectID: o.ID,
		X:        o.X + o.W/2,
		Y:        labelY,
		Text:     l.Label,
		Fill:     color,
		Font:     CSSFont(l.Font),
		FontSpec: l.Font,
		Align:    "center",
		Baseline: "middle",
	})
}

func (c *compiler) Rectangle(o *document.Object, b *document.Rectangle) {
	c.shape(o, rectPath(o.X, o.Y, o.W, o.H), &b.ShapeLabel, o.Y+o.H/2)
}

func (c *compiler) Ellipse(o *document.Object, b *document.Ellipse) {
	c.shape(o, ellipsePath(o.X+o.W/2, o.Y+o.H/2, math.Abs(o.W/2), math.Abs(o.H/2)), &b.ShapeLabel, o.Y+o.H/2)
}

func (c *compiler) Triangle(o *document.Object, b *document.Triangle) {
	path := []PathCommand{
		{"M", o.X + o.W/2, o.Y},
		{"L", o.X, o.Y + o.H},
		{"L", o.X + o.W, o.Y + o.H},
		{"Z"},
	}
	c.shape(o, path, &b.ShapeLabel, o.Y+o.H/2+o.H/6)
}

func (c *compiler) Text(o *document.Object, b *document.Text) {
	color := o.Fill
	if !o.HasFill() {
		color = o.Stroke
	}
	c.emit(DrawCommand{
		Op:       "text",
		ObjectID: o.ID,
		X:        o.X,
		Y:        o.Y,
		Text:     b.Content,
		Fill:     color,
		Font:     CSSFont(b.Font),
		FontSpec: b.Font,
		Align:    "left",
		Baseline: "alphabetic",
	})
	c.selectionBox(o)
}

func (c *compiler) Image(o *document.Object, b *document.Image) {
	if _, ok := b.Bitmap(); ok {
		box := Normalize(o)
		c.emit(DrawCommand{
			Op:       "image",
			ObjectID: o.ID,
			X:        box.Left,
			Y:        box.Top,
			Width:    box.Width,
			Height:   box.Height,
		})
	}
	c.selectionBox(o)
}

func (c *compiler) Sketch(o *document.Object, b *document.Sketch) {
	pts := b.Placed(o)
	if len(pts) == 0 {
		return
	}
	path := make([]PathCommand, 0, len(pts))
	path = append(path, PathCommand{"M", pts[0].X, pts[0].Y})
	for _, p := range pts[1:] {
		path = append(path, PathCommand{"L", p.X, p.Y})
	}
	stroke, dash := c.outline(o)
	c.emit(DrawCommand{
		Op:          "path",
		ObjectID:    o.ID,
		Path:        path,
		Stroke:      stroke,
		StrokeWidth: StrokeWidth,
		Dash:        dash,
	})
}

// selectionBox outlines a selected object that has no stroked outline of its
// own.
func (c *compiler) selectionBox(o *document.Object) {
	if !c.selected[o] {
		return
	}
	box := Normalize(o)
	c.emit(DrawCommand{
		Op:          "path",
		ObjectID:    o.ID,
		Path:        rectPath(box.Left, box.Top, box.Width, box.Height),
		Stroke:      SelectionColor,
		StrokeWidth: StrokeWidth,
		Dash:        SelectionDash,
	})
}

func (c *compiler) handles(o *document.Object) {
	for _, h := range Handles(o) {
		c.emit(DrawCommand{
			Op:          "handle",
			ObjectID:    o.ID,
			X:           h.X - HandleSize/2,
			Y:           h.Y - HandleSize/2,
			Width:       HandleSize,
			Height:      HandleSize,
			Fill:        SelectionColor,
			Stroke:      SelectionColor,
			StrokeWidth: StrokeWidth,
		})
	}
}

func rectPath(x, y, w, h float64) []PathCommand {
	return []PathCommand{
		{"M", x, y},
		{"L", x + w, y},
		{"L", x + w, y + h},
		{"L", x, y + h},
		{"Z"},
	}
}

// ellipsePath approximates an ellipse centred on (cx, cy) with four bezier
// curves.
func ellipsePath(cx, cy, rx, ry float64) []PathCommand {
	// k = 4 * (sqrt(2) - 1) / 3 ≈ 0.5522847498
	k := 0.5522847498
	kx, ky := rx*k, ry*k

	return []PathCommand{
		{"M", cx + rx, cy},
		{"C", cx + rx, cy + ky, cx + kx, cy + ry, cx, cy + ry},
		{"C", cx - kx, cy + ry, cx - rx, cy + ky, cx - rx, cy},
		{"C", cx - rx, cy - ky, cx - kx, cy - ry, cx, cy - ry},
		{"C", cx + kx, cy - ry, cx + rx, cy - ky, cx + rx, cy},
		{"Z"},
	}
}

// CSSFont formats f as a CSS font shorthand, e.g. "italic 18px serif".
func CSSFont(f document.Font) string {
	var prefix string
	switch f.Style {
	case document.FontItalic:
		prefix = "italic "
	case document.FontBold:
		prefix = "bold "
	}
	return prefix + strconv.Itoa(f.Size) + "px " + f.Family
}

// DrawCommandsToJSON serializes draw commands to JSON.
func DrawCommandsToJSON(commands []DrawCommand) (string, error) {
	data, err := json.Marshal(commands)
	if err != nil {
		return "[]", err
	}
	return string(data), nil
}
