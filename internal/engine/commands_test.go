package engine

import (
	"encoding/json"
	"image"
	"slices"
	"testing"

	"github.com/inamate/sketchboard/internal/document"
	"github.com/inamate/sketchboard/internal/imaging"
)

func ops(cmds []DrawCommand) []string {
	out := make([]string, len(cmds))
	for i, c := range cmds {
		out[i] = c.Op
	}
	return out
}

func TestCompileDrawCommandsOrder(t *testing.T) {
	r := rect(0, 0, 10, 10)
	r.Fill = "#111111"
	e := ellipse(20, 0, 10, 10)

	cmds := CompileDrawCommands([]*document.Object{r, e}, nil)
	want := []string{"clear", "save", "path", "restore", "save", "path", "restore"}
	if got := ops(cmds); !slices.Equal(got, want) {
		t.Fatalf("ops = %v, want %v", got, want)
	}

	if cmds[2].ObjectID != r.ID || cmds[5].ObjectID != e.ID {
		t.Errorf("commands out of painter's order: %v, %v", cmds[2].ObjectID, cmds[5].ObjectID)
	}
	if cmds[2].Fill != "#111111" || cmds[5].Fill != "" {
		t.Errorf("fills = %q, %q; transparent fill must be omitted", cmds[2].Fill, cmds[5].Fill)
	}
	if cmds[2].StrokeWidth != StrokeWidth || cmds[2].Dash != nil {
		t.Errorf("unselected stroke = %v dash %v", cmds[2].StrokeWidth, cmds[2].Dash)
	}
	if len(cmds[5].Path) != 6 || cmds[5].Path[1][0] != "C" {
		t.Errorf("ellipse path = %v, want four beziers", cmds[5].Path)
	}
}

func TestCompileSelectionHighlight(t *testing.T) {
	a, b := rect(0, 0, 10, 10), triangle(20, 0, 30, 30)
	b.Stroke = "#ff0000"

	multi := CompileDrawCommands([]*document.Object{a, b}, []*document.Object{a, b})
	for _, c := range multi {
		if c.Op == "handle" {
			t.Fatal("handles drawn for a multi-selection")
		}
		if c.Op == "path" && (c.Stroke != SelectionColor || !slices.Equal(c.Dash, SelectionDash)) {
			t.Errorf("selected path stroke = %q dash %v", c.Stroke, c.Dash)
		}
	}

	single := CompileDrawCommands([]*document.Object{a, b}, []*document.Object{b})
	var handles int
	for _, c := range single {
		if c.Op == "handle" {
			handles++
			if c.ObjectID != b.ID || c.Width != HandleSize {
				t.Errorf("handle = %+v", c)
			}
		}
	}
	if handles != 3 {
		t.Errorf("triangle handles = %d, want 3", handles)
	}
}

func TestCompileLabels(t *testing.T) {
	tri := triangle(0, 0, 60, 60)
	tri.Stroke = "#00ff00"
	l, _ := tri.Label()
	l.Label = "Go"
	l.Font = document.Font{Family: "serif", Size: 20, Style: document.FontItalic}

	cmds := CompileDrawCommands([]*document.Object{tri}, []*document.Object{tri})
	var label *DrawCommand
	for i := range cmds {
		if cmds[i].Op == "text" {
			label = &cmds[i]
		}
	}
	if label == nil {
		t.Fatal("no label command")
	}
	if label.X != 30 || label.Y != 40 {
		t.Errorf("label anchor = (%v, %v), want (30, 40)", label.X, label.Y)
	}
	if label.Fill != "#00ff00" || label.Dash != nil {
		t.Errorf("label paint = %q dash %v, want stroke colour and no dash", label.Fill, label.Dash)
	}
	if label.Font != "italic 20px serif" || label.Align != "center" || label.Baseline != "middle" {
		t.Errorf("label font = %q %q %q", label.Font, label.Align, label.Baseline)
	}
}

func TestCompileText(t *testing.T) {
	txt := &document.Object{
		ID: "t", X: 5, Y: 30, W: 40, H: 20, Stroke: "#abcdef", Fill: document.Transparent,
		Body: &document.Text{Content: "hi", Font: document.Font{Family: "sans-serif", Size: 18, Style: document.FontBold}},
	}
	cmds := CompileDrawCommands([]*document.Object{txt}, nil)
	c := cmds[2]
	if c.Op != "text" || c.Text != "hi" || c.Fill != "#abcdef" || c.Font != "bold 18px sans-serif" {
		t.Errorf("text command = %+v", c)
	}
	if c.X != 5 || c.Y != 30 {
		t.Errorf("text anchor = (%v, %v)", c.X, c.Y)
	}
}

func TestCompileImageWaitsForDecode(t *testing.T) {
	body := &document.Image{Source: "data:image/png;base64,"}
	img := &document.Object{ID: "i", X: 100, Y: 100, W: -50, H: 40, Body: body}

	if got := ops(CompileDrawCommands([]*document.Object{img}, nil)); slices.Contains(got, "image") {
		t.Errorf("undecoded image emitted: %v", got)
	}

	body.SetHandle(imaging.Resolved(image.NewRGBA(image.Rect(0, 0, 2, 2))))
	cmds := CompileDrawCommands([]*document.Object{img}, nil)
	c := cmds[2]
	if c.Op != "image" || c.X != 50 || c.Y != 100 || c.Width != 50 || c.Height != 40 {
		t.Errorf("image command = %+v, want normalized box", c)
	}
}

func TestCompileSketchFollowsAnchor(t *testing.T) {
	s := &document.Object{
		ID: "s", X: 10, Y: 10, Stroke: "#fff",
		Body: &document.Sketch{Points: []document.Point{{X: 0, Y: 0}, {X: 5, Y: 5}}},
	}
	cmds := CompileDrawCommands([]*document.Object{s}, nil)
	path := cmds[2].Path
	if len(path) != 2 || path[0][1] != 10.0 || path[1][2] != 15.0 {
		t.Errorf("sketch path = %v", path)
	}
}

func TestDrawCommandsToJSON(t *testing.T) {
	cmds := CompileDrawCommands([]*document.Object{rect(0, 0, 10, 10)}, nil)
	s, err := DrawCommandsToJSON(cmds)
	if err != nil {
		t.Fatal(err)
	}
	var decoded []map[string]any
	if err := json.Unmarshal([]byte(s), &decoded); err != nil {
		t.Fatalf("invalid JSON %s: %v", s, err)
	}
	if decoded[0]["op"] != "clear" || decoded[2]["path"] == nil {
		t.Errorf("decoded = %v", decoded)
	}
	if _, ok := decoded[2]["FontSpec"]; ok {
		t.Error("structured font leaked into JSON")
	}
}
