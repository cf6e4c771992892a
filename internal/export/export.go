// Package export writes a scene out as JSON, an HTML preview, a PNG frame or
// a single-page PDF.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"

	"github.com/jung-kurt/gofpdf"

	"github.com/inamate/sketchboard/internal/document"
	"github.com/inamate/sketchboard/internal/engine"
	"github.com/inamate/sketchboard/internal/imaging"
	"github.com/inamate/sketchboard/internal/raster"
)

var ErrUnknownFormat = errors.New("unknown export format")

type Format string

const (
	FormatJSON Format = "json"
	FormatHTML Format = "html"
	FormatPNG  Format = "png"
	FormatPDF  Format = "pdf"
)

// FileName is the download name used for each format.
func (f Format) FileName() string {
	switch f {
	case FormatJSON:
		return "figma_pro_design.json"
	case FormatHTML:
		return "design_preview.html"
	case FormatPNG:
		return "figma_pro_design.png"
	case FormatPDF:
		return "figma_pro_export.pdf"
	}
	return ""
}

func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatHTML:
		return "text/html; charset=utf-8"
	case FormatPNG:
		return "image/png"
	case FormatPDF:
		return "application/pdf"
	}
	return "application/octet-stream"
}

func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatJSON, FormatHTML, FormatPNG, FormatPDF:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Scene is everything an exporter needs from an editor: the objects, a
// compiled frame and the bitmaps decoded so far.
type Scene struct {
	Objects  []*document.Object
	Commands []engine.DrawCommand
	Images   map[string]image.Image
}

// Canvas describes the output surface.
type Canvas struct {
	Width      int
	Height     int
	Background string
	Logger     *slog.Logger
}

// Write encodes s in the given format.
func Write(w io.Writer, f Format, s *Scene, c Canvas) error {
	switch f {
	case FormatJSON:
		return JSON(w, s.Objects)
	case FormatHTML:
		return HTML(w, s.Objects, c.Width, c.Height)
	case FormatPNG:
		return PNG(w, s.Commands, c.options(s.Images))
	case FormatPDF:
		return PDF(w, s.Commands, c.options(s.Images))
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
}

func (c Canvas) options(images map[string]image.Image) raster.Options {
	return raster.Options{
		Width:      c.Width,
		Height:     c.Height,
		Background: c.Background,
		Images:     images,
		Logger:     c.Logger,
	}
}

// JSON writes the indented scene.
func JSON(w io.Writer, objs []*document.Object) error {
	data, err := document.MarshalIndent(objs)
	if err != nil {
		return fmt.Errorf("marshal scene: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}

// PNG rasterizes cmds and encodes the frame.
func PNG(w io.Writer, cmds []engine.DrawCommand, opts raster.Options) error {
	img, err := raster.Rasterize(cmds, opts)
	if err != nil {
		return err
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// PDF writes a landscape page, in points, the size of the canvas with the
// rasterized frame stretched over it.
func PDF(w io.Writer, cmds []engine.DrawCommand, opts raster.Options) error {
	var frame bytes.Buffer
	if err := PNG(&frame, cmds, opts); err != nil {
		return err
	}

	short, long := float64(opts.Width), float64(opts.Height)
	if short > long {
		short, long = long, short
	}
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "L",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: short, Ht: long},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	imgOpts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("frame", imgOpts, &frame)
	pageW, pageH := pdf.GetPageSize()
	pdf.ImageOptions("frame", 0, 0, pageW, pageH, false, imgOpts, 0, "")

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// ResolveImages decodes every image body synchronously, for callers with no
// event loop to wait on. Sources that fail to decode are left out.
func ResolveImages(objs []*document.Object, log *slog.Logger) map[string]image.Image {
	if log == nil {
		log = slog.Default()
	}
	out := make(map[string]image.Image)
	for _, o := range objs {
		img, ok := o.Body.(*document.Image)
		if !ok {
			continue
		}
		if bmp, ok := img.Bitmap(); ok {
			out[o.ID] = bmp
			continue
		}
		bmp, err := imaging.DecodeSource(img.Source)
		if err != nil {
			log.Warn("skipping undecodable image", "object", o.ID, "error", err)
			continue
		}
		img.SetHandle(imaging.Resolved(bmp))
		out[o.ID] = bmp
	}
	return out
}
