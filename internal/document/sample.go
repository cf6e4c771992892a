package document

import (
	"github.com/inamate/sketchboard/internal/typeid"
)

// NewSampleScene returns a small scene with one object of each drawn kind.
func NewSampleScene() []*Object {
	font := DefaultFont()

	return []*Object{
		{
			ID:     typeid.NewObjectID(),
			X:      80,
			Y:      80,
			W:      220,
			H:      120,
			Stroke: "#38bdf8",
			Fill:   "#0f172a",
			Body:   &Rectangle{ShapeLabel{Label: "Start", Font: font}},
		},
		{
			ID:     typeid.NewObjectID(),
			X:      380,
			Y:      90,
			W:      160,
			H:      100,
			Stroke: "#f472b6",
			Fill:   Transparent,
			Body:   &Ellipse{ShapeLabel{Label: "Idea", LabelColor: "#fde68a", Font: font}},
		},
		{
			ID:     typeid.NewObjectID(),
			X:      620,
			Y:      70,
			W:      160,
			H:      140,
			Stroke: "#a3e635",
			Fill:   Transparent,
			Body:   &Triangle{ShapeLabel{Label: "Go", Font: font}},
		},
		{
			ID:     typeid.NewObjectID(),
			X:      80,
			Y:      300,
			W:      260,
			H:      30,
			Stroke: DefaultStroke,
			Fill:   Transparent,
			Body:   &Text{Content: "Untitled board", Font: Font{Family: DefaultFamily, Size: 28, Style: FontBold}},
		},
		{
			ID:     typeid.NewObjectID(),
			X:      420,
			Y:      320,
			Stroke: "#facc15",
			Fill:   Transparent,
			Body: &Sketch{Points: []Point{
				{X: 420, Y: 320}, {X: 450, Y: 300}, {X: 480, Y: 330}, {X: 510, Y: 305}, {X: 540, Y: 335},
			}},
		},
	}
}
