package document

import (
	"reflect"
	"strings"
	"testing"
)

func TestUnmarshalLegacyRecords(t *testing.T) {
	data := []byte(`[
		{"id": 1718000000000, "type": "rect", "x": 10, "y": 20, "w": 100, "h": -50,
		 "fill": "transparent", "stroke": "#ff0000", "label": "Hi"},
		{"id": "t1", "type": "text", "x": 5, "y": 40, "w": 80, "h": 20,
		 "text": "hello", "fontFamily": "monospace", "fontSize": 200, "fontStyle": "italic"},
		{"id": "x", "type": "hexagon", "x": 0, "y": 0, "w": 1, "h": 1},
		{"id": "s1", "type": "sketch", "x": 1, "y": 2, "w": 0, "h": 0,
		 "points": [{"x": 1, "y": 2}, {"x": 3, "y": 4}]}
	]`)

	objs, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if len(objs) != 3 {
		t.Fatalf("len(objs) = %d, want 3 (unknown kind skipped)", len(objs))
	}

	rect := objs[0]
	if rect.ID != "1718000000000" {
		t.Errorf("numeric id = %q, want 1718000000000", rect.ID)
	}
	if rect.Kind() != KindRectangle || rect.H != -50 {
		t.Errorf("rect = %+v", rect)
	}
	if l, ok := rect.Label(); !ok || l.Label != "Hi" {
		t.Errorf("rect label = %v, %v", l, ok)
	}

	text, ok := objs[1].Body.(*Text)
	if !ok {
		t.Fatalf("objs[1] body = %T, want *Text", objs[1].Body)
	}
	if text.Content != "hello" || text.Font.Size != MaxFontSize || text.Font.Style != FontItalic {
		t.Errorf("text = %+v", text)
	}
	if objs[1].Fill != Transparent {
		t.Errorf("missing fill decoded as %q, want transparent", objs[1].Fill)
	}

	sketch := objs[2].Body.(*Sketch)
	if len(sketch.Points) != 2 {
		t.Errorf("sketch points = %v", sketch.Points)
	}
}

func TestUnmarshalRejectsNonArray(t *testing.T) {
	for _, in := range []string{`{"id": 1}`, `not json`, ``} {
		if _, err := Unmarshal([]byte(in)); err == nil {
			t.Errorf("Unmarshal(%q) error = nil, want error", in)
		}
	}
}

func TestMarshalRoundTripKeepsScene(t *testing.T) {
	scene := NewSampleScene()
	scene = append(scene, &Object{
		ID: "img", X: 100, Y: 100, W: 300, H: 300,
		Fill: Transparent, Stroke: Transparent,
		Body: &Image{Source: "data:image/png;base64,AAAA"},
	})

	data, err := Marshal(scene)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if strings.Contains(string(data), "handle") {
		t.Errorf("decoded handle leaked into JSON: %s", data)
	}

	got, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if !reflect.DeepEqual(got, scene) {
		t.Errorf("round trip mismatch\n got: %+v\nwant: %+v", got, scene)
	}
}

func TestCloneIsDeep(t *testing.T) {
	orig := &Object{ID: "s", Body: &Sketch{Points: []Point{{X: 1, Y: 1}}}}
	c := orig.Clone()
	c.Body.(*Sketch).Points[0].X = 99
	c.X = 5

	if orig.Body.(*Sketch).Points[0].X != 1 || orig.X != 0 {
		t.Errorf("clone shares state with original: %+v", orig)
	}

	rect := &Object{ID: "r", Body: &Rectangle{ShapeLabel{Label: "a"}}}
	rc := rect.Clone()
	l, _ := rc.Label()
	l.Label = "b"
	if ol, _ := rect.Label(); ol.Label != "a" {
		t.Errorf("label edit on clone changed original to %q", ol.Label)
	}
}

func TestFontNormalized(t *testing.T) {
	tests := []struct {
		name string
		in   Font
		want Font
	}{
		{"zero value gets defaults", Font{}, DefaultFont()},
		{"size clamped high", Font{Family: "serif", Size: 500, Style: FontBold}, Font{Family: "serif", Size: 120, Style: FontBold}},
		{"size clamped low", Font{Family: "serif", Size: -4, Style: FontItalic}, Font{Family: "serif", Size: 1, Style: FontItalic}},
		{"numeric bold weight", Font{Family: "serif", Size: 12, Style: "600"}, Font{Family: "serif", Size: 12, Style: FontBold}},
		{"unknown style", Font{Family: "serif", Size: 12, Style: "oblique"}, Font{Family: "serif", Size: 12, Style: FontNormal}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.Normalized(); got != tt.want {
				t.Errorf("Normalized() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
