package raster

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/gogpu/gg"
	"golang.org/x/image/colornames"

	"github.com/inamate/sketchboard/internal/document"
)

// cssNames holds CSS Color 4 keywords that colornames (SVG 1.1) lacks.
var cssNames = map[string]gg.RGBA{
	"rebeccapurple": gg.Hex("663399"),
}

// parseColor reads a CSS hex colour or named colour. Empty, transparent and
// unsupported values report false and paint nothing.
func parseColor(s string) (gg.RGBA, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == document.Transparent {
		return gg.RGBA{}, false
	}
	if hex, ok := strings.CutPrefix(s, "#"); ok {
		if !isHex(hex) {
			return gg.RGBA{}, false
		}
		switch len(hex) {
		case 3, 4, 6, 8:
			return gg.Hex(hex), true
		}
		return gg.RGBA{}, false
	}
	if c, ok := cssNames[s]; ok {
		return c, true
	}
	if c, ok := colornames.Map[s]; ok {
		return gg.FromColor(c), true
	}
	return gg.RGBA{}, false
}

// CSSColor normalizes s to #rrggbbaa under the same rules the rasterizer
// paints by. Empty, transparent and unsupported values report false.
func CSSColor(s string) (string, bool) {
	c, ok := parseColor(s)
	if !ok {
		return "", false
	}
	n := c.Color().(color.NRGBA)
	return fmt.Sprintf("#%02x%02x%02x%02x", n.R, n.G, n.B, n.A), true
}

func isHex(s string) bool {
	for _, r := range s {
		if !strings.ContainsRune("0123456789abcdef", r) {
			return false
		}
	}
	return s != ""
}
