// Package raster executes engine draw commands on a CPU canvas so frames can
// be exported without a browser.
package raster

import (
	"errors"
	"fmt"
	"image"
	"log/slog"

	"github.com/gogpu/gg"

	"github.com/inamate/sketchboard/internal/engine"
)

var ErrInvalidSize = errors.New("invalid canvas size")

type Options struct {
	Width      int
	Height     int
	Background string                 // Canvas colour; empty or "transparent" leaves it clear
	Images     map[string]image.Image // Decoded bitmaps by object id
	Logger     *slog.Logger
}

// Rasterize paints cmds onto a new canvas. A command that fails to draw is
// logged and skipped.
func Rasterize(cmds []engine.DrawCommand, opts Options) (image.Image, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("rasterize %dx%d: %w", opts.Width, opts.Height, ErrInvalidSize)
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	dc := gg.NewContext(opts.Width, opts.Height)
	defer dc.Close()

	p := painter{dc: dc, opts: opts, background: clearColor(opts.Background)}
	for i, cmd := range cmds {
		if err := p.exec(cmd); err != nil {
			log.Warn("skipping draw command", "index", i, "op", cmd.Op, "object", cmd.ObjectID, "error", err)
		}
	}
	return dc.Image(), nil
}

// SetLogger routes the canvas library's diagnostics to l.
func SetLogger(l *slog.Logger) {
	gg.SetLogger(l)
}

func clearColor(background string) gg.RGBA {
	if c, ok := parseColor(background); ok {
		return c
	}
	return gg.RGBA{}
}

type painter struct {
	dc         *gg.Context
	opts       Options
	background gg.RGBA
}

func (p *painter) exec(cmd engine.DrawCommand) error {
	switch cmd.Op {
	case "clear":
		p.dc.ClearWithColor(p.background)
	case "save":
		p.dc.Push()
	case "restore":
		p.dc.Pop()
	case "path":
		return p.path(cmd)
	case "text":
		return p.text(cmd)
	case "image":
		return p.image(cmd)
	case "handle":
		return p.handle(cmd)
	default:
		return fmt.Errorf("unknown op %q", cmd.Op)
	}
	return nil
}

func (p *painter) path(cmd engine.DrawCommand) error {
	if err := tracePath(p.dc, cmd.Path); err != nil {
		return err
	}
	return p.paint(cmd)
}

// paint fills then strokes the current path.
func (p *painter) paint(cmd engine.DrawCommand) error {
	if fill, ok := parseColor(cmd.Fill); ok {
		p.dc.SetFillBrush(gg.Solid(fill))
		if err := p.dc.FillPreserve(); err != nil {
			p.dc.ClearPath()
			return fmt.Errorf("fill: %w", err)
		}
	}
	stroke, ok := parseColor(cmd.Stroke)
	if !ok {
		p.dc.ClearPath()
		return nil
	}
	p.dc.SetFillBrush(gg.Solid(stroke))
	p.dc.SetLineWidth(cmd.StrokeWidth)
	p.dc.SetDash(cmd.Dash...)
	if err := p.dc.Stroke(); err != nil {
		return fmt.Errorf("stroke: %w", err)
	}
	return nil
}

func tracePath(dc *gg.Context, path []engine.PathCommand) error {
	dc.ClearPath()
	for _, seg := range path {
		if len(seg) == 0 {
			continue
		}
		verb, _ := seg[0].(string)
		args, err := floats(seg[1:])
		if err != nil {
			return err
		}
		switch {
		case verb == "M" && len(args) == 2:
			dc.MoveTo(args[0], args[1])
		case verb == "L" && len(args) == 2:
			dc.LineTo(args[0], args[1])
		case verb == "C" && len(args) == 6:
			dc.CubicTo(args[0], args[1], args[2], args[3], args[4], args[5])
		case verb == "Z":
			dc.ClosePath()
		default:
			return fmt.Errorf("bad path segment %v", seg)
		}
	}
	return nil
}

func floats(vals []interface{}) ([]float64, error) {
	out := make([]float64, len(vals))
	for i, v := range vals {
		switch n := v.(type) {
		case float64:
			out[i] = n
		case int:
			out[i] = float64(n)
		default:
			return nil, fmt.Errorf("path coordinate %v is %T", v, v)
		}
	}
	return out, nil
}

func (p *painter) text(cmd engine.DrawCommand) error {
	if cmd.Text == "" {
		return nil
	}
	col, ok := parseColor(cmd.Fill)
	if !ok {
		return nil
	}
	face, err := Face(cmd.FontSpec)
	if err != nil {
		return err
	}
	p.dc.SetFont(face)
	p.dc.SetFillBrush(gg.Solid(col))

	ax, ay := 0.0, 0.0
	if cmd.Align == "center" {
		ax = 0.5
	}
	if cmd.Baseline == "middle" {
		ay = 0.5
	}
	p.dc.DrawStringAnchored(cmd.Text, cmd.X, cmd.Y, ax, ay)
	return nil
}

func (p *painter) image(cmd engine.DrawCommand) error {
	img, ok := p.opts.Images[cmd.ObjectID]
	if !ok {
		return nil
	}
	p.dc.DrawImageEx(gg.ImageBufFromImage(img), gg.DrawImageOptions{
		X:         cmd.X,
		Y:         cmd.Y,
		DstWidth:  cmd.Width,
		DstHeight: cmd.Height,
	})
	return nil
}

func (p *painter) handle(cmd engine.DrawCommand) error {
	p.dc.ClearPath()
	p.dc.DrawRectangle(cmd.X, cmd.Y, cmd.Width, cmd.Height)
	cmd.Dash = nil
	return p.paint(cmd)
}
