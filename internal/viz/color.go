// Package viz builds comparative genome figures: feature tracks, links
// between matched intervals, and identity colorbars.
package viz

import (
	"fmt"
	"image/color"
	"strings"

	"golang.org/x/image/colornames"
)

// ParseColor resolves a CSS color name (e.g. "grey", "orange") or a
// "#rrggbb" hex code to a color.
func ParseColor(name string) (color.RGBA, error) {
	name = strings.TrimSpace(strings.ToLower(name))
	if strings.HasPrefix(name, "#") && len(name) == 7 {
		var r, g, b uint8
		if _, err := fmt.Sscanf(name, "#%02x%02x%02x", &r, &g, &b); err != nil {
			return color.RGBA{}, fmt.Errorf("%q is not color like", name)
		}
		return color.RGBA{R: r, G: g, B: b, A: 255}, nil
	}
	c, ok := colornames.Map[name]
	if !ok {
		return color.RGBA{}, fmt.Errorf("%q is not color like", name)
	}
	return c, nil
}

// interpolateColor blends from white (t=0) to the base color (t=1).
func interpolateColor(base color.RGBA, t float64) color.RGBA {
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	lerp := func(from, to uint8) uint8 {
		return uint8(float64(from) + (float64(to)-float64(from))*t)
	}
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	return color.RGBA{
		R: lerp(white.R, base.R),
		G: lerp(white.G, base.G),
		B: lerp(white.B, base.B),
		A: 255,
	}
}
