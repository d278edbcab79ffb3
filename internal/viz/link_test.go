package viz

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseColor(t *testing.T) {
	grey, err := ParseColor("grey")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 128, G: 128, B: 128, A: 255}, grey)

	hex, err := ParseColor("#ff8000")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 255, G: 128, B: 0, A: 255}, hex)

	_, err = ParseColor("not-a-color")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not color like")
}

func TestNewLink_InvalidColor(t *testing.T) {
	_, err := NewLink("a", 0, 10, "b", 0, 10, "grey", "nonsense")
	require.Error(t, err)

	_, err = NewLink("a", 0, 10, "b", 0, 10, "nonsense", "red")
	require.Error(t, err)
}

func TestLink_Inverted(t *testing.T) {
	forward, err := NewLink("a", 0, 100, "b", 50, 150, "grey", "red")
	require.NoError(t, err)
	assert.False(t, forward.Inverted())

	inverted, err := NewLink("a", 0, 100, "b", 150, 50, "grey", "red")
	require.NoError(t, err)
	assert.True(t, inverted.Inverted())
}

func TestLink_SetIdentity(t *testing.T) {
	link, err := NewLink("a", 0, 100, "b", 0, 100, "grey", "red")
	require.NoError(t, err)

	require.NoError(t, link.SetIdentity(95, 80, 100))

	err = link.SetIdentity(79.9, 80, 100)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "80 <= value <= 100")
}

func TestLink_Color(t *testing.T) {
	link, err := NewLink("a", 0, 100, "b", 0, 100, "grey", "red")
	require.NoError(t, err)

	// Without identity the base color is used as-is.
	assert.Equal(t, link.NormalColor, link.Color())

	// Identity at the maximum gives the full base color; at the minimum, white.
	require.NoError(t, link.SetIdentity(100, 0, 100))
	assert.Equal(t, link.NormalColor, link.Color())

	require.NoError(t, link.SetIdentity(0, 0, 100))
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, link.Color())

	inverted, err := NewLink("a", 0, 100, "b", 100, 0, "grey", "red")
	require.NoError(t, err)
	assert.Equal(t, inverted.InvertedColor, inverted.Color())
}

func TestLink_WithOffsets(t *testing.T) {
	link, err := NewLink("a", 10, 20, "b", 30, 40, "grey", "red")
	require.NoError(t, err)

	shifted := link.withOffsets(map[string]int{"a": 5, "b": 100})
	assert.Equal(t, 15, shifted.TrackStart1)
	assert.Equal(t, 25, shifted.TrackEnd1)
	assert.Equal(t, 130, shifted.TrackStart2)
	assert.Equal(t, 140, shifted.TrackEnd2)

	// Original link is unchanged.
	assert.Equal(t, 10, link.TrackStart1)
}
