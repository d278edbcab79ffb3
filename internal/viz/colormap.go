package viz

import (
	"image/color"

	"gonum.org/v1/plot/palette"
)

// gradientMap is a palette.ColorMap blending white into a base color,
// used for link fills and the identity colorbar.
type gradientMap struct {
	base color.RGBA
	min  float64
	max  float64
}

var _ palette.ColorMap = (*gradientMap)(nil)

func newGradientMap(base color.RGBA, min, max float64) *gradientMap {
	return &gradientMap{base: base, min: min, max: max}
}

// At returns the gradient color for v, clamped to [min, max].
func (m *gradientMap) At(v float64) (color.Color, error) {
	span := m.max - m.min
	if span <= 0 {
		return m.base, nil
	}
	return interpolateColor(m.base, (v-m.min)/span), nil
}

func (m *gradientMap) Max() float64 { return m.max }

func (m *gradientMap) SetMax(v float64) { m.max = v }

func (m *gradientMap) Min() float64 { return m.min }

func (m *gradientMap) SetMin(v float64) { m.min = v }

// The gradient is always fully opaque.
func (m *gradientMap) Alpha() float64 { return 1 }

func (m *gradientMap) SetAlpha(float64) {}

// Palette returns a discretized palette with the given number of colors.
func (m *gradientMap) Palette(colors int) palette.Palette {
	if colors < 2 {
		colors = 2
	}
	cs := make([]color.Color, colors)
	for i := 0; i < colors; i++ {
		cs[i] = interpolateColor(m.base, float64(i)/float64(colors-1))
	}
	return gradientPalette(cs)
}

type gradientPalette []color.Color

func (p gradientPalette) Colors() []color.Color { return p }
