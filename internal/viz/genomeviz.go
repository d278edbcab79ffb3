package viz

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// AlignType positions tracks of unequal length within the figure.
type AlignType string

// TickStyle selects genome position tick rendering.
type TickStyle string

// Track alignment and tick style values.
const (
	AlignLeft   AlignType = "left"
	AlignCenter AlignType = "center"
	AlignRight  AlignType = "right"

	TickStyleNone TickStyle = ""
	TickStyleBar  TickStyle = "bar"
	TickStyleAxis TickStyle = "axis"
)

// headLengthRatio bounds arrow head length to a fraction of the longest track.
const headLengthRatio = 0.02

// GenomeViz assembles feature tracks and links into a figure.
type GenomeViz struct {
	FigWidth          float64 // inches
	FigTrackHeight    float64 // inches per track unit
	FeatureTrackRatio float64
	LinkTrackRatio    float64
	TickTrackRatio    float64
	AlignType         AlignType
	TickStyle         TickStyle
	TickLabelSize     int

	tracks []*FeatureTrack
	links  []*Link
}

// New creates a figure builder with the default appearance.
func New() *GenomeViz {
	return &GenomeViz{
		FigWidth:          15,
		FigTrackHeight:    1.0,
		FeatureTrackRatio: 1.0,
		LinkTrackRatio:    5.0,
		TickTrackRatio:    1.0,
		AlignType:         AlignCenter,
		TickStyle:         TickStyleNone,
		TickLabelSize:     15,
	}
}

// AddFeatureTrack appends a labeled track of the given size (bp).
func (gv *GenomeViz) AddFeatureTrack(name string, size, labelSize int) (*FeatureTrack, error) {
	if size <= 0 {
		return nil, fmt.Errorf("track %q size must be positive (size=%d)", name, size)
	}
	if _, err := gv.trackIndex(name); err == nil {
		return nil, fmt.Errorf("track %q already exists", name)
	}
	track := &FeatureTrack{Name: name, Size: size, LabelSize: labelSize}
	gv.tracks = append(gv.tracks, track)
	return track, nil
}

// Tracks returns the added feature tracks in order.
func (gv *GenomeViz) Tracks() []*FeatureTrack {
	return gv.tracks
}

// Links returns the added links.
func (gv *GenomeViz) Links() []*Link {
	return gv.links
}

// AddLink connects spans on two adjacent tracks.
func (gv *GenomeViz) AddLink(link *Link) error {
	idx1, err := gv.trackIndex(link.TrackName1)
	if err != nil {
		return err
	}
	idx2, err := gv.trackIndex(link.TrackName2)
	if err != nil {
		return err
	}
	if abs(idx1-idx2) != 1 {
		return fmt.Errorf("links must connect adjacent tracks (%q and %q are not adjacent)",
			link.TrackName1, link.TrackName2)
	}
	gv.links = append(gv.links, link)
	return nil
}

func (gv *GenomeViz) trackIndex(name string) (int, error) {
	for i, t := range gv.tracks {
		if t.Name == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("track %q not found", name)
}

// maxSize returns the longest track size.
func (gv *GenomeViz) maxSize() int {
	max := 0
	for _, t := range gv.tracks {
		if t.Size > max {
			max = t.Size
		}
	}
	return max
}

// offsets returns the per-track x offset implied by the align type.
func (gv *GenomeViz) offsets() map[string]int {
	offsets := make(map[string]int, len(gv.tracks))
	maxSize := gv.maxSize()
	for _, t := range gv.tracks {
		switch gv.AlignType {
		case AlignCenter:
			offsets[t.Name] = (maxSize - t.Size) / 2
		case AlignRight:
			offsets[t.Name] = maxSize - t.Size
		default:
			offsets[t.Name] = 0
		}
	}
	return offsets
}

// trackCenters returns the y center of each feature track, stacking
// feature and link bands top-down, plus the total stacked height in
// ratio units.
func (gv *GenomeViz) trackCenters() ([]float64, float64) {
	fb, lb, tb := gv.FeatureTrackRatio, gv.LinkTrackRatio, gv.TickTrackRatio
	centers := make([]float64, len(gv.tracks))
	cursor := 0.0
	for i := range gv.tracks {
		centers[i] = cursor - fb/2
		cursor -= fb
		if i < len(gv.tracks)-1 {
			cursor -= lb
		}
	}
	if gv.TickStyle != TickStyleNone {
		cursor -= tb
	}
	return centers, -cursor
}

// Plot renders the figure and saves it to path. The image format is
// taken from the file extension (png, jpg, svg or pdf).
func (gv *GenomeViz) Plot(path string) error {
	if len(gv.tracks) == 0 {
		return fmt.Errorf("no tracks to plot")
	}
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	switch format {
	case "png", "jpg", "svg", "pdf":
	default:
		return fmt.Errorf("unsupported image format %q (png|jpg|svg|pdf)", format)
	}

	p := plot.New()
	maxSize := gv.maxSize()
	offsets := gv.offsets()
	centers, totalUnits := gv.trackCenters()

	if err := gv.drawTracks(p, offsets, centers); err != nil {
		return err
	}
	if err := gv.drawLinks(p, offsets, centers); err != nil {
		return err
	}

	p.X.Min = -0.15 * float64(maxSize)
	p.X.Max = float64(maxSize)
	p.Y.Min = -totalUnits
	p.Y.Max = 0

	switch gv.TickStyle {
	case TickStyleAxis:
		p.HideY()
		p.X.Tick.Marker = bpTicker{size: maxSize}
		p.X.Tick.Label.Font.Size = vg.Points(float64(gv.TickLabelSize))
	case TickStyleBar:
		p.HideAxes()
		if err := gv.drawScalebar(p, centers, totalUnits); err != nil {
			return err
		}
	default:
		p.HideAxes()
	}

	return gv.save(p, path, format, totalUnits)
}

// drawTracks draws track base lines, labels and feature polygons.
func (gv *GenomeViz) drawTracks(p *plot.Plot, offsets map[string]int, centers []float64) error {
	maxSize := gv.maxSize()
	half := gv.FeatureTrackRatio / 2 * 0.8

	labelXYs := make(plotter.XYs, 0, len(gv.tracks))
	labelTexts := make([]string, 0, len(gv.tracks))
	labelSizes := make([]int, 0, len(gv.tracks))

	for i, track := range gv.tracks {
		offset := float64(offsets[track.Name])
		center := centers[i]

		line, err := plotter.NewLine(plotter.XYs{
			{X: offset, Y: center},
			{X: offset + float64(track.Size), Y: center},
		})
		if err != nil {
			return fmt.Errorf("track line: %w", err)
		}
		line.LineStyle.Width = vg.Points(2)
		line.LineStyle.Color = color.Black
		p.Add(line)

		if track.LabelSize > 0 {
			labelXYs = append(labelXYs, plotter.XY{X: offset - float64(maxSize)*0.01, Y: center})
			labelTexts = append(labelTexts, track.Name)
			labelSizes = append(labelSizes, track.LabelSize)
		}

		for _, f := range track.Features {
			poly, err := featurePolygon(f, offset, center, half, float64(maxSize)*headLengthRatio)
			if err != nil {
				return err
			}
			p.Add(poly)
		}
	}

	if len(labelTexts) > 0 {
		labels, err := plotter.NewLabels(plotter.XYLabels{XYs: labelXYs, Labels: labelTexts})
		if err != nil {
			return fmt.Errorf("track labels: %w", err)
		}
		for i := range labels.TextStyle {
			labels.TextStyle[i].XAlign = text.XRight
			labels.TextStyle[i].YAlign = text.YCenter
			labels.TextStyle[i].Font.Size = vg.Points(float64(labelSizes[i]))
		}
		p.Add(labels)
	}
	return nil
}

// featurePolygon builds the polygon for one feature. Arrow styles point
// along the strand; the "arrow"/"box" styles occupy the strand-side half
// of the lane while "bigarrow"/"bigbox" span the full lane.
func featurePolygon(f TrackFeature, offset, center, half, maxHead float64) (*plotter.Polygon, error) {
	start := offset + float64(f.Start)
	end := offset + float64(f.End)

	c, h := center, half
	if f.Style == PlotStyleArrow || f.Style == PlotStyleBox {
		h = half / 2
		if f.Strand == -1 {
			c = center - half/2
		} else {
			c = center + half/2
		}
	}

	var xys plotter.XYs
	switch f.Style {
	case PlotStyleBigBox, PlotStyleBox:
		xys = plotter.XYs{
			{X: start, Y: c - h},
			{X: end, Y: c - h},
			{X: end, Y: c + h},
			{X: start, Y: c + h},
		}
	default:
		head := maxHead
		if end-start < head {
			head = end - start
		}
		shaft := h * f.ArrowShaftRatio
		if f.Strand == -1 {
			// Arrow tip at feature start.
			xys = plotter.XYs{
				{X: end, Y: c - shaft},
				{X: start + head, Y: c - shaft},
				{X: start + head, Y: c - h},
				{X: start, Y: c},
				{X: start + head, Y: c + h},
				{X: start + head, Y: c + shaft},
				{X: end, Y: c + shaft},
			}
		} else {
			xys = plotter.XYs{
				{X: start, Y: c - shaft},
				{X: end - head, Y: c - shaft},
				{X: end - head, Y: c - h},
				{X: end, Y: c},
				{X: end - head, Y: c + h},
				{X: end - head, Y: c + shaft},
				{X: start, Y: c + shaft},
			}
		}
	}

	poly, err := plotter.NewPolygon(xys)
	if err != nil {
		return nil, fmt.Errorf("feature polygon: %w", err)
	}
	poly.Color = f.FaceColor
	poly.LineStyle.Width = vg.Points(f.LineWidth)
	if f.LineWidth > 0 {
		poly.LineStyle.Color = color.Black
	} else {
		poly.LineStyle.Color = f.FaceColor
	}
	return poly, nil
}

// drawLinks draws the filled polygons connecting matched spans on
// adjacent tracks.
func (gv *GenomeViz) drawLinks(p *plot.Plot, offsets map[string]int, centers []float64) error {
	halfBand := gv.FeatureTrackRatio / 2
	for _, link := range gv.links {
		shifted := link.withOffsets(offsets)

		idx1, _ := gv.trackIndex(link.TrackName1)
		idx2, _ := gv.trackIndex(link.TrackName2)
		upper, lower := idx1, idx2
		s1, e1 := shifted.TrackStart1, shifted.TrackEnd1
		s2, e2 := shifted.TrackStart2, shifted.TrackEnd2
		if idx2 < idx1 {
			upper, lower = idx2, idx1
			s1, e1, s2, e2 = s2, e2, s1, e1
		}
		yTop := centers[upper] - halfBand
		yBottom := centers[lower] + halfBand

		xys := linkPolygon(float64(s1), float64(e1), float64(s2), float64(e2), yTop, yBottom, link.Curve)
		poly, err := plotter.NewPolygon(xys)
		if err != nil {
			return fmt.Errorf("link polygon: %w", err)
		}
		fill := link.Color()
		poly.Color = fill
		poly.LineStyle.Color = fill
		poly.LineStyle.Width = vg.Points(0.1)
		p.Add(poly)
	}
	return nil
}

// linkPolygon builds the outline of a link between a span on the upper
// track edge and a span on the lower track edge. When curve is set, the
// two sides are smoothstep-interpolated.
func linkPolygon(s1, e1, s2, e2, yTop, yBottom float64, curve bool) plotter.XYs {
	if !curve {
		return plotter.XYs{
			{X: s1, Y: yTop},
			{X: e1, Y: yTop},
			{X: e2, Y: yBottom},
			{X: s2, Y: yBottom},
		}
	}
	const segments = 24
	smooth := func(t float64) float64 { return t * t * (3 - 2*t) }

	xys := make(plotter.XYs, 0, 2*segments+2)
	xys = append(xys, plotter.XY{X: s1, Y: yTop})
	// Right side: top end to bottom end.
	for i := 0; i <= segments; i++ {
		t := float64(i) / segments
		xys = append(xys, plotter.XY{
			X: e1 + (e2-e1)*smooth(t),
			Y: yTop + (yBottom-yTop)*t,
		})
	}
	// Left side: bottom start back up to top start.
	for i := segments; i >= 0; i-- {
		t := float64(i) / segments
		xys = append(xys, plotter.XY{
			X: s1 + (s2-s1)*smooth(t),
			Y: yTop + (yBottom-yTop)*t,
		})
	}
	return xys
}

// drawScalebar draws the bottom-right scale bar with its size label.
func (gv *GenomeViz) drawScalebar(p *plot.Plot, centers []float64, totalUnits float64) error {
	maxSize := gv.maxSize()
	barSize := scalebarSize(maxSize)
	pad := float64(maxSize) * 0.01
	xMax := float64(maxSize) - pad
	xMin := xMax - barSize
	y := -totalUnits + gv.TickTrackRatio*0.6

	line, err := plotter.NewLine(plotter.XYs{{X: xMin, Y: y}, {X: xMax, Y: y}})
	if err != nil {
		return fmt.Errorf("scalebar line: %w", err)
	}
	line.LineStyle.Width = vg.Points(2)
	line.LineStyle.Color = color.Black
	p.Add(line)

	labels, err := plotter.NewLabels(plotter.XYLabels{
		XYs:    plotter.XYs{{X: (xMin + xMax) / 2, Y: y - gv.TickTrackRatio*0.2}},
		Labels: []string{formatBases(barSize, maxSize)},
	})
	if err != nil {
		return fmt.Errorf("scalebar label: %w", err)
	}
	labels.TextStyle[0].XAlign = text.XCenter
	labels.TextStyle[0].YAlign = text.YTop
	labels.TextStyle[0].Font.Size = vg.Points(float64(gv.TickLabelSize))
	p.Add(labels)
	return nil
}

// bpTicker places axis ticks at nice 1/2/5x10^n intervals with
// unit-formatted labels.
type bpTicker struct {
	size int
}

func (t bpTicker) Ticks(min, max float64) []plot.Tick {
	spacing := scalebarSize(t.size)
	var ticks []plot.Tick
	for v := 0.0; v <= max; v += spacing {
		if v < min {
			continue
		}
		ticks = append(ticks, plot.Tick{Value: v, Label: formatBases(v, t.size)})
	}
	return ticks
}

// colorbarHeight is the canvas strip reserved for identity colorbars.
const colorbarHeight = 0.6 * vg.Inch

// save renders the plot (and colorbars, when links carry identity
// values) into a formatted canvas and writes it to path.
func (gv *GenomeViz) save(p *plot.Plot, path, format string, totalUnits float64) error {
	width := vg.Length(gv.FigWidth) * vg.Inch
	unitScale := 2 * gv.FigTrackHeight / (gv.FeatureTrackRatio + gv.LinkTrackRatio)
	height := vg.Length(unitScale*totalUnits) * vg.Inch

	bars := gv.colorbars()
	if len(bars) > 0 {
		height += colorbarHeight
	}

	canvas, err := draw.NewFormattedCanvas(width, height, format)
	if err != nil {
		return fmt.Errorf("create %s canvas: %w", format, err)
	}
	dc := draw.New(canvas)

	mainCanvas := dc
	if len(bars) > 0 {
		mainCanvas = draw.Crop(dc, 0, 0, colorbarHeight, 0)
	}
	p.Draw(mainCanvas)

	barWidth := width * 3 / 10
	for i, bar := range bars {
		x0 := width/2 - vg.Length(len(bars))*barWidth/2 + vg.Length(i)*barWidth
		barCanvas := draw.Canvas{
			Canvas: dc.Canvas,
			Rectangle: vg.Rectangle{
				Min: vg.Point{X: x0 + barWidth/10, Y: 0},
				Max: vg.Point{X: x0 + barWidth - barWidth/10, Y: colorbarHeight},
			},
		}
		bar.Draw(barCanvas)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create figure file: %w", err)
	}
	defer f.Close()
	if _, err := canvas.WriteTo(f); err != nil {
		return fmt.Errorf("write figure: %w", err)
	}
	return nil
}

// colorbars builds the identity colorbar plots: one for the normal link
// gradient and, when any inverted link is present, one for the inverted
// gradient.
func (gv *GenomeViz) colorbars() []*plot.Plot {
	var normal, inverted *Link
	for _, l := range gv.links {
		if !l.hasIdentity {
			continue
		}
		if l.Inverted() {
			if inverted == nil {
				inverted = l
			}
		} else if normal == nil {
			normal = l
		}
	}

	var bars []*plot.Plot
	if normal != nil {
		bars = append(bars, gv.colorbarPlot(normal.NormalColor, normal.vmin, normal.vmax))
	} else if inverted != nil {
		// All links inverted: still show the normal gradient for reference.
		bars = append(bars, gv.colorbarPlot(inverted.NormalColor, inverted.vmin, inverted.vmax))
	}
	if inverted != nil {
		bars = append(bars, gv.colorbarPlot(inverted.InvertedColor, inverted.vmin, inverted.vmax))
	}
	return bars
}

func (gv *GenomeViz) colorbarPlot(base color.RGBA, vmin, vmax float64) *plot.Plot {
	if vmin >= vmax {
		vmin = vmax - 1
	}
	p := plot.New()
	p.Add(&plotter.ColorBar{ColorMap: newGradientMap(base, vmin, vmax)})
	p.HideY()
	p.X.Padding = 0
	p.X.Tick.Marker = plot.ConstantTicks([]plot.Tick{
		{Value: vmin, Label: fmt.Sprintf("%.0f%%", vmin)},
		{Value: vmax, Label: fmt.Sprintf("%.0f%%", vmax)},
	})
	p.X.Tick.Label.Font.Size = vg.Points(float64(gv.TickLabelSize))
	return p
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
