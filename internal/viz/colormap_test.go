package viz

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/plot/palette"
)

func TestGradientMap_ImplementsColorMap(t *testing.T) {
	var m palette.ColorMap = newGradientMap(color.RGBA{R: 255, A: 255}, 80, 100)

	assert.Equal(t, 80.0, m.Min())
	assert.Equal(t, 100.0, m.Max())
	assert.Equal(t, 1.0, m.Alpha())
	m.SetAlpha(0.5) // no-op, the gradient stays opaque
	assert.Equal(t, 1.0, m.Alpha())
}

func TestGradientMap_At(t *testing.T) {
	base := color.RGBA{R: 255, G: 0, B: 0, A: 255}
	m := newGradientMap(base, 80, 100)

	c, err := m.At(80)
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, c)

	c, err = m.At(100)
	require.NoError(t, err)
	assert.Equal(t, base, c)
}

func TestGradientMap_Palette(t *testing.T) {
	m := newGradientMap(color.RGBA{B: 255, A: 255}, 0, 100)
	colors := m.Palette(5).Colors()
	require.Len(t, colors, 5)
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, colors[0])
	assert.Equal(t, color.RGBA{B: 255, A: 255}, colors[4])
}
