package engine

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/inamate/sketchboard/internal/document"
)

var (
	ErrUnknownProperty = errors.New("unknown property")
	ErrInvalidValue    = errors.New("invalid property value")
)

// Property names an editable object attribute. The values match the keys of
// the saved scene records.
type Property string

const (
	PropWidth      Property = "w"
	PropHeight     Property = "h"
	PropFill       Property = "fill"
	PropStroke     Property = "stroke"
	PropLabelColor Property = "labelColor"
	PropFontFamily Property = "fontFamily"
	PropFontSize   Property = "fontSize"
	PropFontStyle  Property = "fontStyle"
)

// Scene is the ordered object list plus the current selection. Index order is
// z-order: later objects paint on top and win hit tests.
type Scene struct {
	objects   []*document.Object
	selection []*document.Object
}

func NewScene(objs []*document.Object) *Scene {
	return &Scene{objects: objs}
}

// Objects returns the live object list in z-order.
func (s *Scene) Objects() []*document.Object { return s.objects }

// Selection returns the selected objects in selection order.
func (s *Scene) Selection() []*document.Object { return s.selection }

func (s *Scene) Add(o *document.Object) {
	s.objects = append(s.objects, o)
}

// Replace swaps in a new object list and clears the selection.
func (s *Scene) Replace(objs []*document.Object) {
	s.objects = objs
	s.selection = nil
}

// Remove deletes every object matching pred, drops them from the selection,
// and returns what was removed.
func (s *Scene) Remove(pred func(*document.Object) bool) []*document.Object {
	var removed []*document.Object
	kept := s.objects[:0:0]
	for _, o := range s.objects {
		if pred(o) {
			removed = append(removed, o)
			continue
		}
		kept = append(kept, o)
	}
	s.objects = kept
	if len(removed) > 0 {
		s.selection = slices.DeleteFunc(slices.Clone(s.selection), func(o *document.Object) bool {
			return slices.Contains(removed, o)
		})
	}
	return removed
}

// Find returns the object with the given id.
func (s *Scene) Find(id string) (*document.Object, bool) {
	for _, o := range s.objects {
		if o.ID == id {
			return o, true
		}
	}
	return nil, false
}

// HitTest returns the topmost object containing p.
func (s *Scene) HitTest(p document.Point) (*document.Object, bool) {
	for i := len(s.objects) - 1; i >= 0; i-- {
		if Contains(p, s.objects[i]) {
			return s.objects[i], true
		}
	}
	return nil, false
}

// Select replaces the selection with refs, or unions refs into it when
// additive is set. Objects not in the scene are ignored.
func (s *Scene) Select(refs []*document.Object, additive bool) {
	var next []*document.Object
	if additive {
		next = slices.Clone(s.selection)
	}
	for _, o := range refs {
		if o == nil || !slices.Contains(s.objects, o) || slices.Contains(next, o) {
			continue
		}
		next = append(next, o)
	}
	s.selection = next
}

func (s *Scene) ClearSelection() {
	s.selection = nil
}

func (s *Scene) IsSelected(o *document.Object) bool {
	return slices.Contains(s.selection, o)
}

// Layer is one row of the layer panel.
type Layer struct {
	Row      int           `json:"row"`
	ID       string        `json:"id"`
	Kind     document.Kind `json:"kind"`
	Label    string        `json:"label"`
	Selected bool          `json:"selected"`
}

// Layers lists objects topmost first, labelled by their position in z-order.
func (s *Scene) Layers() []Layer {
	n := len(s.objects)
	out := make([]Layer, 0, n)
	for row := 0; row < n; row++ {
		i := n - 1 - row
		o := s.objects[i]
		out = append(out, Layer{
			Row:      row,
			ID:       o.ID,
			Kind:     o.Kind(),
			Label:    fmt.Sprintf("LAYER %d (%s)", i+1, strings.ToUpper(string(o.Kind()))),
			Selected: s.IsSelected(o),
		})
	}
	return out
}

// SelectLayer selects only the object shown at a layer panel row.
func (s *Scene) SelectLayer(row int) bool {
	i := len(s.objects) - 1 - row
	if row < 0 || i < 0 {
		return false
	}
	s.selection = []*document.Object{s.objects[i]}
	return true
}

// UpdateProperty applies key=value to each target. Keys that do not apply to a
// kind are skipped for that object. Setting the stroke also sets the label
// colour of labelled shapes that have none yet.
func (s *Scene) UpdateProperty(targets []*document.Object, key Property, value any) error {
	apply, err := propertySetter(key, value)
	if err != nil {
		return err
	}
	for _, o := range targets {
		apply(o)
	}
	return nil
}

func propertySetter(key Property, value any) (func(*document.Object), error) {
	switch key {
	case PropWidth, PropHeight:
		n, err := toNumber(value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		if key == PropWidth {
			return func(o *document.Object) { o.W = n }, nil
		}
		return func(o *document.Object) { o.H = n }, nil

	case PropFill:
		c, err := toColor(value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		return func(o *document.Object) { o.Fill = c }, nil

	case PropStroke:
		c, err := toColor(value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		return func(o *document.Object) {
			o.Stroke = c
			if l, ok := o.Label(); ok && l.LabelColor == "" {
				l.LabelColor = c
			}
		}, nil

	case PropLabelColor:
		c, err := toColor(value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		return func(o *document.Object) {
			if l, ok := o.Label(); ok {
				l.LabelColor = c
			}
		}, nil

	case PropFontFamily:
		family, ok := value.(string)
		if !ok || strings.TrimSpace(family) == "" {
			return nil, fmt.Errorf("%s: %w", key, ErrInvalidValue)
		}
		return func(o *document.Object) {
			if f, ok := o.Font(); ok {
				f.Family = family
			}
		}, nil

	case PropFontSize:
		n, err := toNumber(value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		size := min(max(int(n), document.MinFontSize), document.MaxFontSize)
		return func(o *document.Object) {
			if f, ok := o.Font(); ok {
				f.Size = size
			}
		}, nil

	case PropFontStyle:
		str, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("%s: %w", key, ErrInvalidValue)
		}
		style := document.ParseFontStyle(str)
		return func(o *document.Object) {
			if f, ok := o.Font(); ok {
				f.Style = style
			}
		}, nil
	}
	return nil, fmt.Errorf("%q: %w", key, ErrUnknownProperty)
}

func toNumber(v any) (float64, error) {
	n, err := rawNumber(v)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, ErrInvalidValue
	}
	return n, nil
}

func rawNumber(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, ErrInvalidValue
		}
		return f, nil
	}
	return 0, ErrInvalidValue
}

func toColor(v any) (string, error) {
	c, ok := v.(string)
	if !ok || strings.TrimSpace(c) == "" {
		return "", ErrInvalidValue
	}
	return c, nil
}
