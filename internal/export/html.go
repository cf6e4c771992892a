package export

import (
	"fmt"
	"html/template"
	"io"

	"github.com/inamate/sketchboard/internal/document"
	"github.com/inamate/sketchboard/internal/engine"
	"github.com/inamate/sketchboard/internal/raster"
)

var previewTmpl = template.Must(template.New("preview").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<title>Sketchboard Export</title>
<style>
body { margin: 0; background: #f4f4f9; display: flex; justify-content: center; align-items: center; min-height: 100vh; font-family: sans-serif; }
.canvas-preview { position: relative; width: {{.Width}}px; height: {{.Height}}px; background: white; box-shadow: 0 10px 30px rgba(0,0,0,0.1); overflow: hidden; }
.obj { position: absolute; box-sizing: border-box; }
.shape { display: flex; align-items: center; justify-content: center; font-weight: bold; }
.ellipse { border-radius: 50%; }
.text { white-space: nowrap; }
</style>
</head>
<body>
<div class="canvas-preview">
{{- range .Elements}}
{{- if .Shape}}
<div class="obj shape{{if .Ellipse}} ellipse{{end}}" style="left:{{.Left}}px; top:{{.Top}}px; width:{{.Width}}px; height:{{.Height}}px; background:{{.Fill}}; border:2px solid {{.Stroke}}; color:{{.Stroke}};">{{.Text}}</div>
{{- else}}
<div class="obj text" style="left:{{.Left}}px; top:{{.Top}}px; color:{{.Stroke}}; font-size:{{.FontSize}}px; font-family:{{.FontFamily}};">{{.Text}}</div>
{{- end}}
{{- end}}
</div>
</body>
</html>
`))

type previewElement struct {
	Shape, Ellipse           bool
	Left, Top, Width, Height float64
	Fill, Stroke             template.CSS
	Text                     string
	FontSize                 int
	FontFamily               string
}

type preview struct {
	Width, Height int
	Elements      []previewElement
}

// HTML writes a standalone preview page. Rectangles, ellipses and text are
// laid out as positioned elements; other kinds have no HTML form and are
// left out.
func HTML(w io.Writer, objs []*document.Object, width, height int) error {
	p := preview{Width: width, Height: height}
	for _, o := range objs {
		if el, ok := previewOf(o); ok {
			p.Elements = append(p.Elements, el)
		}
	}
	if err := previewTmpl.Execute(w, p); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	return nil
}

func previewOf(o *document.Object) (previewElement, bool) {
	switch b := o.Body.(type) {
	case *document.Rectangle, *document.Ellipse:
		box := engine.Normalize(o)
		el := previewElement{
			Shape:   true,
			Ellipse: o.Kind() == document.KindEllipse,
			Left:    box.Left,
			Top:     box.Top,
			Width:   box.Width,
			Height:  box.Height,
			Fill:    cssColor(o.Fill),
			Stroke:  cssColor(o.Stroke),
		}
		if l, ok := o.Label(); ok {
			el.Text = l.Label
		}
		return el, true
	case *document.Text:
		f := b.Font.Normalized()
		return previewElement{
			Left:       o.X,
			Top:        o.Y,
			Stroke:     cssColor(o.Stroke),
			Text:       b.Content,
			FontSize:   f.Size,
			FontFamily: f.Family,
		}, true
	}
	return previewElement{}, false
}

// cssColor passes colours the rasterizer understands into the style
// attribute as-is and renders anything else transparent, the same as the
// PNG export.
func cssColor(s string) template.CSS {
	if c, ok := raster.CSSColor(s); ok {
		return template.CSS(c)
	}
	return template.CSS(document.Transparent)
}
