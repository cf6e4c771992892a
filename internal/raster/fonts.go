package raster

import (
	"fmt"
	"strings"
	"sync"

	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/inamate/sketchboard/internal/document"
)

// The Go fonts stand in for every CSS family: monospace families map to Go
// Mono, everything else to Go Regular/Bold/Italic.
type fontSet struct {
	regular, bold, italic, mono *text.FontSource
}

var loadFonts = sync.OnceValues(func() (*fontSet, error) {
	var fs fontSet
	for _, f := range []struct {
		dst  **text.FontSource
		name string
		ttf  []byte
	}{
		{&fs.regular, "goregular", goregular.TTF},
		{&fs.bold, "gobold", gobold.TTF},
		{&fs.italic, "goitalic", goitalic.TTF},
		{&fs.mono, "gomono", gomono.TTF},
	} {
		src, err := text.NewFontSource(f.ttf)
		if err != nil {
			return nil, fmt.Errorf("load font %s: %w", f.name, err)
		}
		*f.dst = src
	}
	return &fs, nil
})

// Face resolves a document font to a Go font face of the same size.
func Face(f document.Font) (text.Face, error) {
	fs, err := loadFonts()
	if err != nil {
		return nil, err
	}
	f = f.Normalized()
	return fs.source(f).Face(float64(f.Size)), nil
}

func (fs *fontSet) source(f document.Font) *text.FontSource {
	if isMonospace(f.Family) {
		return fs.mono
	}
	switch f.Style {
	case document.FontBold:
		return fs.bold
	case document.FontItalic:
		return fs.italic
	}
	return fs.regular
}

func isMonospace(family string) bool {
	family = strings.ToLower(family)
	for _, hint := range []string{"mono", "courier", "consol"} {
		if strings.Contains(family, hint) {
			return true
		}
	}
	return false
}
