package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
)

// record is the wire form of an Object: one flat JSON object per entry, the
// same shape the browser editor keeps in local storage.
type record struct {
	ID         flexID    `json:"id"`
	Type       Kind      `json:"type"`
	X          float64   `json:"x"`
	Y          float64   `json:"y"`
	W          float64   `json:"w"`
	H          float64   `json:"h"`
	Fill       string    `json:"fill,omitempty"`
	Stroke     string    `json:"stroke,omitempty"`
	Label      *string   `json:"label,omitempty"`
	LabelColor string    `json:"labelColor,omitempty"`
	Text       string    `json:"text,omitempty"`
	FontFamily string    `json:"fontFamily,omitempty"`
	FontSize   int       `json:"fontSize,omitempty"`
	FontStyle  FontStyle `json:"fontStyle,omitempty"`
	Src        string    `json:"src,omitempty"`
	Points     []Point   `json:"points,omitempty"`
}

// flexID accepts both string ids and the numeric timestamps older saves used.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*f = flexID(n.String())
	return nil
}

// StorageKey is the key saved scenes have always lived under.
const StorageKey = "figma_data"

// Marshal encodes a scene as a JSON array in z-order.
func Marshal(objs []*Object) ([]byte, error) {
	recs := make([]record, 0, len(objs))
	for _, o := range objs {
		recs = append(recs, toRecord(o))
	}
	return json.Marshal(recs)
}

// MarshalIndent is Marshal with two-space indentation.
func MarshalIndent(objs []*Object) ([]byte, error) {
	data, err := Marshal(objs)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes a scene. Records with an unknown type are skipped.
func Unmarshal(data []byte) ([]*Object, error) {
	var recs []record
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("decode scene: %w", err)
	}

	objs := make([]*Object, 0, len(recs))
	for i, r := range recs {
		o, ok := fromRecord(r)
		if !ok {
			slog.Warn("skipping scene record", "index", i, "type", r.Type)
			continue
		}
		if o.ID == "" {
			o.ID = "obj_" + strconv.Itoa(i)
		}
		objs = append(objs, o)
	}
	return objs, nil
}

func toRecord(o *Object) record {
	enc := recordEncoder{rec: record{
		ID:     flexID(o.ID),
		Type:   o.Kind(),
		X:      o.X,
		Y:      o.Y,
		W:      o.W,
		H:      o.H,
		Fill:   o.Fill,
		Stroke: o.Stroke,
	}}
	o.Visit(&enc)
	return enc.rec
}

type recordEncoder struct {
	rec record
}

func (e *recordEncoder) label(l *ShapeLabel) {
	label := l.Label
	e.rec.Label = &label
	e.rec.LabelColor = l.LabelColor
	e.font(l.Font)
}

func (e *recordEncoder) font(f Font) {
	e.rec.FontFamily = f.Family
	e.rec.FontSize = f.Size
	e.rec.FontStyle = f.Style
}

func (e *recordEncoder) Rectangle(_ *Object, b *Rectangle) { e.label(&b.ShapeLabel) }
func (e *recordEncoder) Ellipse(_ *Object, b *Ellipse)     { e.label(&b.ShapeLabel) }
func (e *recordEncoder) Triangle(_ *Object, b *Triangle)   { e.label(&b.ShapeLabel) }

func (e *recordEncoder) Text(_ *Object, b *Text) {
	e.rec.Text = b.Content
	e.font(b.Font)
}

func (e *recordEncoder) Image(_ *Object, b *Image) {
	e.rec.Src = b.Source
}

func (e *recordEncoder) Sketch(_ *Object, b *Sketch) {
	e.rec.Points = append([]Point(nil), b.Points...)
}

func fromRecord(r record) (*Object, bool) {
	font := Font{Family: r.FontFamily, Size: r.FontSize, Style: r.FontStyle}.Normalized()
	body, ok := NewBody(r.Type, font)
	if !ok {
		return nil, false
	}

	switch b := body.(type) {
	case labeled:
		l := b.shapeLabel()
		if r.Label != nil {
			l.Label = *r.Label
		}
		l.LabelColor = r.LabelColor
	case *Text:
		b.Content = r.Text
	case *Image:
		b.Source = r.Src
	case *Sketch:
		b.Points = r.Points
	}

	fill := r.Fill
	if fill == "" {
		fill = Transparent
	}
	return &Object{
		ID:     string(r.ID),
		X:      r.X,
		Y:      r.Y,
		W:      r.W,
		H:      r.H,
		Stroke: r.Stroke,
		Fill:   fill,
		Body:   body,
	}, true
}
