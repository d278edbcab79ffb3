package viz

import (
	"fmt"
	"image/color"
)

// Link connects a span on one track to a span on another.
// A span whose directions disagree between the two tracks is inverted.
type Link struct {
	TrackName1  string
	TrackStart1 int
	TrackEnd1   int
	TrackName2  string
	TrackStart2 int
	TrackEnd2   int

	NormalColor   color.RGBA
	InvertedColor color.RGBA

	// Identity is the optional continuous value the link color is scaled
	// by. hasIdentity distinguishes "no value" from 0.
	identity    float64
	hasIdentity bool
	vmin        float64
	vmax        float64

	Curve bool
}

// NewLink creates a link between two (name, start, end) spans. The color
// names must be CSS color names or hex codes.
func NewLink(name1 string, start1, end1 int, name2 string, start2, end2 int, normalColor, invertedColor string) (*Link, error) {
	normal, err := ParseColor(normalColor)
	if err != nil {
		return nil, fmt.Errorf("normal link color: %w", err)
	}
	inverted, err := ParseColor(invertedColor)
	if err != nil {
		return nil, fmt.Errorf("inverted link color: %w", err)
	}
	return &Link{
		TrackName1:    name1,
		TrackStart1:   start1,
		TrackEnd1:     end1,
		TrackName2:    name2,
		TrackStart2:   start2,
		TrackEnd2:     end2,
		NormalColor:   normal,
		InvertedColor: inverted,
		vmin:          0,
		vmax:          100,
	}, nil
}

// SetIdentity scales the link color by value within [vmin, vmax].
func (l *Link) SetIdentity(value, vmin, vmax float64) error {
	if !(vmin <= value && value <= vmax) {
		return fmt.Errorf("interpolation value must be '%g <= value <= %g' (value=%g)", vmin, vmax, value)
	}
	l.identity = value
	l.hasIdentity = true
	l.vmin = vmin
	l.vmax = vmax
	return nil
}

// Inverted reports whether the two spans run in opposite directions.
func (l *Link) Inverted() bool {
	length1 := l.TrackEnd1 - l.TrackStart1
	length2 := l.TrackEnd2 - l.TrackStart2
	return length1*length2 < 0
}

// Color returns the link fill color: the normal or inverted base color,
// blended from white by the identity value when one is set.
func (l *Link) Color() color.RGBA {
	base := l.NormalColor
	if l.Inverted() {
		base = l.InvertedColor
	}
	if !l.hasIdentity {
		return base
	}
	span := l.vmax - l.vmin
	if span <= 0 {
		return base
	}
	return interpolateColor(base, (l.identity-l.vmin)/span)
}

// withOffsets returns a copy of the link with per-track offsets applied.
func (l *Link) withOffsets(offsets map[string]int) *Link {
	shifted := *l
	shifted.TrackStart1 += offsets[l.TrackName1]
	shifted.TrackEnd1 += offsets[l.TrackName1]
	shifted.TrackStart2 += offsets[l.TrackName2]
	shifted.TrackEnd2 += offsets[l.TrackName2]
	return &shifted
}
