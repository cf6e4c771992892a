package engine

import (
	"math"

	"github.com/inamate/sketchboard/internal/document"
)

// HandleRadius is the pick distance around a resize handle anchor.
const HandleRadius = 8

// Box is an axis-aligned box with non-negative extent.
type Box struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Contains checks if a point is inside the box, edges included.
func (b Box) Contains(x, y float64) bool {
	return x >= b.Left && x <= b.Left+b.Width && y >= b.Top && y <= b.Top+b.Height
}

// IsEmpty checks if the box has zero area.
func (b Box) IsEmpty() bool {
	return b.Width <= 0 || b.Height <= 0
}

// Center returns the center point of the box.
func (b Box) Center() (float64, float64) {
	return b.Left + b.Width/2, b.Top + b.Height/2
}

// Normalize resolves an object's signed extent into a canonical box.
func Normalize(o *document.Object) Box {
	return normalizeRect(o.X, o.Y, o.W, o.H)
}

func normalizeRect(x, y, w, h float64) Box {
	left, top := x, y
	if w < 0 {
		left = x + w
	}
	if h < 0 {
		top = y + h
	}
	return Box{Left: left, Top: top, Width: math.Abs(w), Height: math.Abs(h)}
}

// Contains reports whether p hits o. Degenerate objects never hit.
func Contains(p document.Point, o *document.Object) bool {
	c := containsTest{p: p}
	o.Visit(&c)
	return c.hit
}

type containsTest struct {
	p   document.Point
	hit bool
}

func (c *containsTest) box(o *document.Object) {
	b := Normalize(o)
	c.hit = !b.IsEmpty() && b.Contains(c.p.X, c.p.Y)
}

func (c *containsTest) Rectangle(o *document.Object, _ *document.Rectangle) { c.box(o) }
func (c *containsTest) Text(o *document.Object, _ *document.Text)           { c.box(o) }
func (c *containsTest) Image(o *document.Object, _ *document.Image)         { c.box(o) }

// Triangles hit-test against their bounding box, not the silhouette.
func (c *containsTest) Triangle(o *document.Object, _ *document.Triangle) { c.box(o) }

func (c *containsTest) Ellipse(o *document.Object, _ *document.Ellipse) {
	if o.W == 0 || o.H == 0 {
		return
	}
	rx, ry := math.Abs(o.W)/2, math.Abs(o.H)/2
	dx := c.p.X - (o.X + o.W/2)
	dy := c.p.Y - (o.Y + o.H/2)
	c.hit = (dx*dx)/(rx*rx)+(dy*dy)/(ry*ry) <= 1
}

func (c *containsTest) Sketch(o *document.Object, b *document.Sketch) {
	bounds, ok := pointBounds(b.Placed(o))
	c.hit = ok && !bounds.IsEmpty() && bounds.Contains(c.p.X, c.p.Y)
}

func pointBounds(pts []document.Point) (Box, bool) {
	if len(pts) == 0 {
		return Box{}, false
	}
	minX, minY := pts[0].X, pts[0].Y
	maxX, maxY := minX, minY
	for _, p := range pts[1:] {
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}
	return Box{Left: minX, Top: minY, Width: maxX - minX, Height: maxY - minY}, true
}

// Handle identifies a resize handle.
type Handle string

const (
	HandleNone        Handle = ""
	HandleTopLeft     Handle = "tl"
	HandleTopRight    Handle = "tr"
	HandleBottomLeft  Handle = "bl"
	HandleBottomRight Handle = "br"
	HandleTopCenter   Handle = "tc"
)

// HandlePoint is a handle and its anchor in canvas coordinates.
type HandlePoint struct {
	Handle Handle
	X, Y   float64
}

// Handles lists the resize handles of o in pick priority order. Anchors use
// the raw signed corners, so an inverted box keeps its handles under the
// corners the user dragged.
func Handles(o *document.Object) []HandlePoint {
	var h handleSet
	o.Visit(&h)
	return h.points
}

type handleSet struct {
	points []HandlePoint
}

func (h *handleSet) corners(o *document.Object) {
	left, right := o.X, o.X+o.W
	top, bottom := o.Y, o.Y+o.H
	h.points = []HandlePoint{
		{HandleTopLeft, left, top},
		{HandleTopRight, right, top},
		{HandleBottomLeft, left, bottom},
		{HandleBottomRight, right, bottom},
	}
}

func (h *handleSet) Rectangle(o *document.Object, _ *document.Rectangle) { h.corners(o) }
func (h *handleSet) Ellipse(o *document.Object, _ *document.Ellipse)     { h.corners(o) }

func (h *handleSet) Triangle(o *document.Object, _ *document.Triangle) {
	bottom := o.Y + o.H
	h.points = []HandlePoint{
		{HandleTopCenter, o.X + o.W/2, o.Y},
		{HandleBottomLeft, o.X, bottom},
		{HandleBottomRight, o.X + o.W, bottom},
	}
}

func (h *handleSet) Text(*document.Object, *document.Text)     {}
func (h *handleSet) Image(*document.Object, *document.Image)   {}
func (h *handleSet) Sketch(*document.Object, *document.Sketch) {}

// HandleAt returns the first handle of o within HandleRadius of p.
func HandleAt(p document.Point, o *document.Object) (Handle, bool) {
	for _, hp := range Handles(o) {
		if math.Hypot(p.X-hp.X, p.Y-hp.Y) < HandleRadius {
			return hp.Handle, true
		}
	}
	return HandleNone, false
}
