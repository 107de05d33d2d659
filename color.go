package brush

import (
	"image/color"
	"strings"

	"github.com/gogpu/gg"
	"golang.org/x/image/colornames"
)

// parseColor converts a property value into a gg color. Accepted forms are
// color.Color values, gg.RGBA, "#rgb", "#rgba", "#rrggbb", "#rrggbbaa", SVG
// color names ("tomato") and "transparent".
func parseColor(v any) (gg.RGBA, bool) {
	switch c := v.(type) {
	case nil:
		return gg.RGBA{}, false
	case gg.RGBA:
		return c, true
	case color.Color:
		return gg.FromColor(c), true
	case string:
		s := strings.ToLower(strings.TrimSpace(c))
		if s == "" {
			return gg.RGBA{}, false
		}
		if s == "transparent" {
			return gg.Transparent, true
		}
		if s[0] == '#' {
			if !validHex(s[1:]) {
				return gg.RGBA{}, false
			}
			return gg.Hex(s), true
		}
		if named, ok := colornames.Map[s]; ok {
			return gg.FromColor(named), true
		}
	}
	return gg.RGBA{}, false
}

func validHex(s string) bool {
	switch len(s) {
	case 3, 4, 6, 8:
	default:
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !isDigit(c) && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// ValidColor reports whether v is a color the drawing helpers accept.
func ValidColor(v any) bool {
	_, ok := parseColor(v)
	return ok
}
