package raster

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/inamate/sketchboard/internal/document"
	"github.com/inamate/sketchboard/internal/engine"
)

func rgbaAt(img image.Image, x, y int) color.RGBA {
	return color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
}

func near(got, want uint8) bool {
	d := int(got) - int(want)
	return d > -8 && d < 8
}

func TestRasterizeFilledRectangle(t *testing.T) {
	r := &document.Object{
		ID: "r", X: 20, Y: 20, W: 60, H: 60,
		Fill: "#ff0000", Stroke: "blue",
		Body: &document.Rectangle{},
	}
	cmds := engine.CompileDrawCommands([]*document.Object{r}, nil)

	img, err := Rasterize(cmds, Options{Width: 100, Height: 100, Background: "#ffffff"})
	if err != nil {
		t.Fatalf("Rasterize() error = %v", err)
	}
	if b := img.Bounds(); b.Dx() != 100 || b.Dy() != 100 {
		t.Fatalf("bounds = %v", b)
	}

	if c := rgbaAt(img, 50, 50); !near(c.R, 255) || !near(c.G, 0) || !near(c.B, 0) {
		t.Errorf("inside pixel = %v, want red fill", c)
	}
	if c := rgbaAt(img, 5, 5); !near(c.R, 255) || !near(c.G, 255) || !near(c.B, 255) {
		t.Errorf("background pixel = %v, want white", c)
	}
	if c := rgbaAt(img, 20, 50); !near(c.B, 255) || c.R > 128 {
		t.Errorf("edge pixel = %v, want blue stroke", c)
	}
}

func TestRasterizeImage(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 2))
	draw.Draw(src, src.Bounds(), &image.Uniform{C: color.RGBA{B: 255, A: 255}}, image.Point{}, draw.Src)

	cmds := []engine.DrawCommand{
		{Op: "clear"},
		{Op: "image", ObjectID: "i", X: 10, Y: 10, Width: 40, Height: 40},
		{Op: "image", ObjectID: "missing", X: 60, Y: 60, Width: 10, Height: 10},
	}
	img, err := Rasterize(cmds, Options{Width: 80, Height: 80, Images: map[string]image.Image{"i": src}})
	if err != nil {
		t.Fatal(err)
	}
	if c := rgbaAt(img, 30, 30); !near(c.B, 255) || c.A < 250 {
		t.Errorf("stretched image pixel = %v, want blue", c)
	}
	if c := rgbaAt(img, 65, 65); c.A != 0 {
		t.Errorf("missing bitmap painted %v", c)
	}
}

func TestRasterizeSkipsBadCommands(t *testing.T) {
	cmds := []engine.DrawCommand{
		{Op: "clear"},
		{Op: "sparkle"},
		{Op: "path", Path: []engine.PathCommand{{"Q", 1.0}}, Stroke: "#000"},
		{Op: "text", Text: "hello", Fill: "#000000", FontSpec: document.DefaultFont(), X: 10, Y: 20},
		{Op: "handle", X: 1, Y: 1, Width: 8, Height: 8, Fill: engine.SelectionColor, Stroke: engine.SelectionColor, StrokeWidth: 2},
	}
	if _, err := Rasterize(cmds, Options{Width: 40, Height: 40}); err != nil {
		t.Errorf("Rasterize() error = %v, want bad commands skipped", err)
	}
}

func TestRasterizeInvalidSize(t *testing.T) {
	if _, err := Rasterize(nil, Options{Width: 0, Height: 10}); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("Rasterize() error = %v, want ErrInvalidSize", err)
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in     string
		wantOK bool
	}{
		{"#fff", true},
		{"#3b82f6", true},
		{"#3B82F6CC", true},
		{"Red", true},
		{"rebeccapurple", true},
		{"transparent", false},
		{"", false},
		{"#12", false},
		{"#zzzzzz", false},
		{"rgba(0,0,0,0)", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if _, ok := parseColor(tt.in); ok != tt.wantOK {
				t.Errorf("parseColor(%q) ok = %v, want %v", tt.in, ok, tt.wantOK)
			}
		})
	}
}

func TestParseColorCSS4Names(t *testing.T) {
	got, ok := parseColor("RebeccaPurple")
	if !ok {
		t.Fatal("parseColor(RebeccaPurple) not recognised")
	}
	if want, _ := parseColor("#663399"); got != want {
		t.Errorf("rebeccapurple = %+v, want %+v", got, want)
	}
}

func TestCSSColor(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"#FFF", "#ffffffff", true},
		{"#3b82f6", "#3b82f6ff", true},
		{"#3b82f680", "#3b82f680", true},
		{"red", "#ff0000ff", true},
		{"rebeccapurple", "#663399ff", true},
		{"transparent", "", false},
		{"rgb(1, 2, 3)", "", false},
		{"red; background:url(x)", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := CSSColor(tt.in)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("CSSColor(%q) = %q, %v, want %q, %v", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestFaceResolvesFamilies(t *testing.T) {
	fs, err := loadFonts()
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		font document.Font
		want interface{}
	}{
		{document.Font{Family: "sans-serif", Size: 12, Style: document.FontNormal}, fs.regular},
		{document.Font{Family: "serif", Size: 12, Style: document.FontBold}, fs.bold},
		{document.Font{Family: "Georgia", Size: 12, Style: document.FontItalic}, fs.italic},
		{document.Font{Family: "Courier New", Size: 12, Style: document.FontBold}, fs.mono},
	}
	for _, tt := range tests {
		if got := fs.source(tt.font); got != tt.want {
			t.Errorf("source(%+v) picked the wrong font", tt.font)
		}
	}
	if face, err := Face(document.Font{}); err != nil || face == nil {
		t.Errorf("Face(zero) = %v, %v", face, err)
	}
}
