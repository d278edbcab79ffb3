package viz

import (
	"fmt"
	"image/color"
	"math"

	"github.com/genomeviz/genomeviz/internal/genbank"
)

// PlotStyle selects how a feature is drawn on its track.
type PlotStyle string

// Feature plot styles.
const (
	PlotStyleBigArrow PlotStyle = "bigarrow"
	PlotStyleArrow    PlotStyle = "arrow"
	PlotStyleBigBox   PlotStyle = "bigbox"
	PlotStyleBox      PlotStyle = "box"
)

// ValidPlotStyle reports whether s names a known feature plot style.
func ValidPlotStyle(s string) bool {
	switch PlotStyle(s) {
	case PlotStyleBigArrow, PlotStyleArrow, PlotStyleBigBox, PlotStyleBox:
		return true
	}
	return false
}

// TrackFeature is a drawable feature placed on a feature track.
type TrackFeature struct {
	Start  int
	End    int
	Strand int

	Style           PlotStyle
	FaceColor       color.RGBA
	LineWidth       float64
	ArrowShaftRatio float64
}

// FeatureStyle bundles drawing options for added features.
type FeatureStyle struct {
	Style           PlotStyle
	FaceColor       string
	LineWidth       float64
	ArrowShaftRatio float64
}

// DefaultFeatureStyle returns the default drawing options.
func DefaultFeatureStyle() FeatureStyle {
	return FeatureStyle{
		Style:           PlotStyleBigArrow,
		FaceColor:       "orange",
		LineWidth:       0,
		ArrowShaftRatio: 0.5,
	}
}

// FeatureTrack is one horizontal lane representing a genome.
type FeatureTrack struct {
	Name      string
	Size      int
	LabelSize int
	Features  []TrackFeature
}

// AddFeature places a single feature on the track.
func (t *FeatureTrack) AddFeature(start, end, strand int, style FeatureStyle) error {
	face, err := ParseColor(style.FaceColor)
	if err != nil {
		return fmt.Errorf("feature color: %w", err)
	}
	if !ValidPlotStyle(string(style.Style)) {
		return fmt.Errorf("unknown feature plot style %q", style.Style)
	}
	t.Features = append(t.Features, TrackFeature{
		Start:           start,
		End:             end,
		Strand:          strand,
		Style:           style.Style,
		FaceColor:       face,
		LineWidth:       style.LineWidth,
		ArrowShaftRatio: style.ArrowShaftRatio,
	})
	return nil
}

// AddGenbankFeatures extracts features of the given type from a Genbank
// wrapper and places them on the track.
func (t *FeatureTrack) AddGenbankFeatures(gbk *genbank.Genbank, featureType string, style FeatureStyle) error {
	for _, f := range gbk.ExtractFeatures(featureType, 0, true, true) {
		if err := t.AddFeature(f.Location.Start(), f.Location.End(), f.Strand(), style); err != nil {
			return err
		}
	}
	return nil
}

// scalebarSize returns the scale bar length for a track of the given
// size: at least 10% of the track, rounded up to a 1/2/5 x 10^n value.
func scalebarSize(size int) float64 {
	minSize := float64(size) * 0.1
	if minSize < 1 {
		return 1
	}
	unit := math.Pow(10, float64(len(fmt.Sprintf("%d", int(minSize)))-1))
	value := math.Ceil(minSize / unit)
	steps := []float64{1, 2, 5, 10}
	for i := 0; i < len(steps)-1; i++ {
		if steps[i] < value && value < steps[i+1] {
			return steps[i+1] * unit
		}
	}
	return value * unit
}

// baseUnit returns the display unit and its base value for a size in bp.
func baseUnit(size int) (string, float64) {
	switch {
	case size >= 1e9:
		return "Gb", 1e9
	case size >= 1e6:
		return "Mb", 1e6
	case size >= 1e3:
		return "Kb", 1e3
	default:
		return "bp", 1
	}
}

// formatBases formats a base count with its auto-selected unit
// (e.g. "50 Kb", "1.5 Mb").
func formatBases(value float64, size int) string {
	unit, base := baseUnit(size)
	scaled := value / base
	if float64(size)/base >= 10 {
		return fmt.Sprintf("%.0f %s", scaled, unit)
	}
	return fmt.Sprintf("%.1f %s", scaled, unit)
}
