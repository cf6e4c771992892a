package document

import (
	"image"

	"github.com/inamate/sketchboard/internal/imaging"
)

// Kind names the variant of an Object. The values are the wire names used in
// saved scenes.
type Kind string

const (
	KindRectangle Kind = "rect"
	KindEllipse   Kind = "circle"
	KindTriangle  Kind = "triangle"
	KindText      Kind = "text"
	KindImage     Kind = "image"
	KindSketch    Kind = "sketch"
)

// Kinds lists every kind in toolbar order.
var Kinds = []Kind{KindRectangle, KindEllipse, KindTriangle, KindText, KindImage, KindSketch}

// Transparent is the fill sentinel meaning "no fill paint".
const Transparent = "transparent"

const DefaultStroke = "#ffffff"

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type FontStyle string

const (
	FontNormal FontStyle = "normal"
	FontItalic FontStyle = "italic"
	FontBold   FontStyle = "bold"
)

const (
	MinFontSize     = 1
	MaxFontSize     = 120
	DefaultFontSize = 18
	DefaultFamily   = "sans-serif"
)

// ParseFontStyle maps a style name to a FontStyle. The numeric weight "600"
// is bold; anything unrecognised is normal.
func ParseFontStyle(s string) FontStyle {
	switch FontStyle(s) {
	case FontItalic:
		return FontItalic
	case FontBold, "600":
		return FontBold
	}
	return FontNormal
}

type Font struct {
	Family string
	Size   int
	Style  FontStyle
}

// DefaultFont is the font new text and labels start with.
func DefaultFont() Font {
	return Font{Family: DefaultFamily, Size: DefaultFontSize, Style: FontNormal}
}

// Normalized fills empty fields with defaults and clamps the size to 1..120.
func (f Font) Normalized() Font {
	if f.Family == "" {
		f.Family = DefaultFamily
	}
	f.Style = ParseFontStyle(string(f.Style))
	if f.Size == 0 {
		f.Size = DefaultFontSize
	}
	f.Size = min(max(f.Size, MinFontSize), MaxFontSize)
	return f
}

// Object is one drawable record of a scene. W and H are signed: a negative
// extent means the box grows left or up from (X, Y).
type Object struct {
	ID     string
	X, Y   float64
	W, H   float64
	Stroke string
	Fill   string
	Body   Body
}

// Body is the kind-specific part of an Object. The set of implementations is
// closed: Rectangle, Ellipse, Triangle, Text, Image and Sketch.
type Body interface {
	Kind() Kind
	accept(o *Object, v Visitor)
	clone() Body
}

// Visitor handles every kind of Object. Operations that depend on the kind
// implement Visitor so that a new kind fails to compile until each of them
// handles it.
type Visitor interface {
	Rectangle(o *Object, b *Rectangle)
	Ellipse(o *Object, b *Ellipse)
	Triangle(o *Object, b *Triangle)
	Text(o *Object, b *Text)
	Image(o *Object, b *Image)
	Sketch(o *Object, b *Sketch)
}

// Visit dispatches o to the Visitor method for its kind.
func (o *Object) Visit(v Visitor) {
	if o.Body != nil {
		o.Body.accept(o, v)
	}
}

func (o *Object) Kind() Kind {
	if o.Body == nil {
		return ""
	}
	return o.Body.Kind()
}

// HasFill reports whether the fill is a paintable colour.
func (o *Object) HasFill() bool {
	return o.Fill != "" && o.Fill != Transparent
}

// Label returns the label of a rectangle, ellipse or triangle.
func (o *Object) Label() (*ShapeLabel, bool) {
	if l, ok := o.Body.(labeled); ok {
		return l.shapeLabel(), true
	}
	return nil, false
}

// Font returns the font of text objects and labelled shapes.
func (o *Object) Font() (*Font, bool) {
	switch b := o.Body.(type) {
	case *Text:
		return &b.Font, true
	case labeled:
		return &b.shapeLabel().Font, true
	}
	return nil, false
}

// Clone returns a deep copy. Image decode handles are shared: a ready bitmap
// never changes.
func (o *Object) Clone() *Object {
	c := *o
	if o.Body != nil {
		c.Body = o.Body.clone()
	}
	return &c
}

// CloneAll deep-copies a scene.
func CloneAll(objs []*Object) []*Object {
	out := make([]*Object, len(objs))
	for i, o := range objs {
		out[i] = o.Clone()
	}
	return out
}

// ShapeLabel is the in-shape caption carried by rectangles, ellipses and
// triangles. An empty LabelColor follows the stroke colour.
type ShapeLabel struct {
	Label      string
	LabelColor string
	Font       Font
}

type labeled interface {
	Body
	shapeLabel() *ShapeLabel
}

func (s *ShapeLabel) shapeLabel() *ShapeLabel { return s }

type Rectangle struct{ ShapeLabel }

func (*Rectangle) Kind() Kind                    { return KindRectangle }
func (b *Rectangle) accept(o *Object, v Visitor) { v.Rectangle(o, b) }
func (b *Rectangle) clone() Body                 { c := *b; return &c }

type Ellipse struct{ ShapeLabel }

func (*Ellipse) Kind() Kind                    { return KindEllipse }
func (b *Ellipse) accept(o *Object, v Visitor) { v.Ellipse(o, b) }
func (b *Ellipse) clone() Body                 { c := *b; return &c }

type Triangle struct{ ShapeLabel }

func (*Triangle) Kind() Kind                    { return KindTriangle }
func (b *Triangle) accept(o *Object, v Visitor) { v.Triangle(o, b) }
func (b *Triangle) clone() Body                 { c := *b; return &c }

// Text is free text anchored at its baseline. Content is set once.
type Text struct {
	Content string
	Font    Font
}

func (*Text) Kind() Kind                    { return KindText }
func (b *Text) accept(o *Object, v Visitor) { v.Text(o, b) }
func (b *Text) clone() Body                 { c := *b; return &c }

// Image is a raster image embedded as a data URI. The decoded bitmap is
// resolved lazily and is never serialized.
type Image struct {
	Source string
	handle *imaging.Handle
}

func (*Image) Kind() Kind                    { return KindImage }
func (b *Image) accept(o *Object, v Visitor) { v.Image(o, b) }
func (b *Image) clone() Body                 { c := *b; return &c }

func (b *Image) Handle() *imaging.Handle     { return b.handle }
func (b *Image) SetHandle(h *imaging.Handle) { b.handle = h }

// Bitmap returns the decoded image once it is ready.
func (b *Image) Bitmap() (image.Image, bool) {
	return b.handle.Image()
}

// Sketch is a freehand polyline. Points are recorded in canvas coordinates
// during the draw gesture; moving the object shifts the anchor (X, Y) and
// the points follow by the anchor's offset from the first point.
type Sketch struct {
	Points []Point
}

func (*Sketch) Kind() Kind                    { return KindSketch }
func (b *Sketch) accept(o *Object, v Visitor) { v.Sketch(o, b) }
func (b *Sketch) clone() Body {
	return &Sketch{Points: append([]Point(nil), b.Points...)}
}

// Placed returns the points translated to the object's current anchor.
func (b *Sketch) Placed(o *Object) []Point {
	if len(b.Points) == 0 {
		return nil
	}
	dx, dy := o.X-b.Points[0].X, o.Y-b.Points[0].Y
	out := make([]Point, len(b.Points))
	for i, p := range b.Points {
		out[i] = Point{X: p.X + dx, Y: p.Y + dy}
	}
	return out
}

// NewBody returns an empty body of the given kind.
func NewBody(kind Kind, font Font) (Body, bool) {
	switch kind {
	case KindRectangle:
		return &Rectangle{ShapeLabel{Font: font}}, true
	case KindEllipse:
		return &Ellipse{ShapeLabel{Font: font}}, true
	case KindTriangle:
		return &Triangle{ShapeLabel{Font: font}}, true
	case KindText:
		return &Text{Font: font}, true
	case KindImage:
		return &Image{}, true
	case KindSketch:
		return &Sketch{}, true
	}
	return nil, false
}
