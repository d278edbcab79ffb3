package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/genomeviz/genomeviz/internal/align"
	"github.com/genomeviz/genomeviz/internal/genbank"
	"github.com/genomeviz/genomeviz/internal/viz"
)

// coordsFileName is the persisted alignment coordinate table, reused
// across runs under --reuse.
const coordsFileName = "align_coords.tsv"

// mummerOptions holds all flags of the mummer workflow command.
type mummerOptions struct {
	// General
	gbkFiles []string
	outdir   string
	format   string
	reuse    bool

	// MUMmer alignment
	seqType     string
	mapType     string
	minLength   int
	minIdentity float64

	// Figure appearance
	figWidth          float64
	figTrackHeight    float64
	featureTrackRatio float64
	linkTrackRatio    float64
	tickTrackRatio    float64
	trackLabelSize    int
	tickLabelSize     int
	normalLinkColor   string
	invertedLinkColor string
	alignType         string
	tickStyle         string
	featurePlotStyle  string
	arrowShaftRatio   float64
	featureColor      string
	featureLineWidth  float64
	curve             bool
}

// figureKeys maps config file keys (figure.*) to flag names so styling
// defaults can be persisted with `genomeviz config set`.
var figureKeys = map[string]string{
	"figure.fig_width":           "fig-width",
	"figure.fig_track_height":    "fig-track-height",
	"figure.feature_track_ratio": "feature-track-ratio",
	"figure.link_track_ratio":    "link-track-ratio",
	"figure.tick_track_ratio":    "tick-track-ratio",
	"figure.track_labelsize":     "track-labelsize",
	"figure.tick_labelsize":      "tick-labelsize",
	"figure.normal_link_color":   "normal-link-color",
	"figure.inverted_link_color": "inverted-link-color",
	"figure.align_type":          "align-type",
	"figure.tick_style":          "tick-style",
	"figure.feature_plotstyle":   "feature-plotstyle",
	"figure.arrow_shaft_ratio":   "arrow-shaft-ratio",
	"figure.feature_color":       "feature-color",
	"figure.feature_linewidth":   "feature-linewidth",
}

func newMummerCmd() *cobra.Command {
	opts := &mummerOptions{}

	cmd := &cobra.Command{
		Use:   "mummer",
		Short: "Render a genome comparison figure using MUMmer alignment",
		Example: `  genomeviz mummer --gbk-files genome1.gbk genome2.gbk genome3.gbk -o result
  genomeviz mummer --gbk-files a.gbk.gz b.gbk -o out --seqtype nucleotide --curve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.applyConfig()
			if err := opts.validate(); err != nil {
				return err
			}
			logger, err := zap.NewDevelopment()
			if err != nil {
				return fmt.Errorf("create logger: %w", err)
			}
			defer logger.Sync()
			return runMummer(cmd.Context(), opts, logger)
		},
	}

	flags := cmd.Flags()
	flags.StringSliceVar(&opts.gbkFiles, "gbk-files", nil, "Input genome genbank files (at least two)")
	flags.StringVarP(&opts.outdir, "outdir", "o", "", "Output directory")
	flags.StringVar(&opts.format, "format", "png", "Output image format (png|jpg|svg|pdf)")
	flags.BoolVar(&opts.reuse, "reuse", false, "Reuse previous alignment result if available")

	flags.StringVar(&opts.seqType, "seqtype", "protein", "MUMmer alignment sequence type (protein|nucleotide)")
	flags.StringVar(&opts.mapType, "maptype", "many-to-many", "MUMmer alignment map type (many-to-many|one-to-one)")
	flags.IntVar(&opts.minLength, "min-length", 0, "Min-length threshold to be plotted")
	flags.Float64Var(&opts.minIdentity, "min-identity", 0, "Min-identity threshold to be plotted")

	flags.Float64Var(&opts.figWidth, "fig-width", 15, "Figure width")
	flags.Float64Var(&opts.figTrackHeight, "fig-track-height", 1.0, "Figure track height")
	flags.Float64Var(&opts.featureTrackRatio, "feature-track-ratio", 1.0, "Feature track ratio")
	flags.Float64Var(&opts.linkTrackRatio, "link-track-ratio", 5.0, "Link track ratio")
	flags.Float64Var(&opts.tickTrackRatio, "tick-track-ratio", 1.0, "Tick track ratio")
	flags.IntVar(&opts.trackLabelSize, "track-labelsize", 20, "Track label size")
	flags.IntVar(&opts.tickLabelSize, "tick-labelsize", 15, "Tick label size")
	flags.StringVar(&opts.normalLinkColor, "normal-link-color", "grey", "Normal link color")
	flags.StringVar(&opts.invertedLinkColor, "inverted-link-color", "red", "Inverted link color")
	flags.StringVar(&opts.alignType, "align-type", "center", "Figure tracks align type (left|center|right)")
	flags.StringVar(&opts.tickStyle, "tick-style", "", "Tick style (bar|axis|'')")
	flags.StringVar(&opts.featurePlotStyle, "feature-plotstyle", "bigarrow", "Feature plot style (bigarrow|arrow)")
	flags.Float64Var(&opts.arrowShaftRatio, "arrow-shaft-ratio", 0.5, "Feature arrow shaft ratio")
	flags.StringVar(&opts.featureColor, "feature-color", "orange", "Feature color")
	flags.Float64Var(&opts.featureLineWidth, "feature-linewidth", 0, "Feature edge line width")
	flags.BoolVar(&opts.curve, "curve", false, "Plot curved style links")

	cmd.MarkFlagRequired("gbk-files")
	cmd.MarkFlagRequired("outdir")

	for key, flagName := range figureKeys {
		viper.BindPFlag(key, flags.Lookup(flagName))
	}

	return cmd
}

// applyConfig resolves figure styling through viper so values persisted
// with `genomeviz config set` act as defaults below explicit flags.
func (o *mummerOptions) applyConfig() {
	o.figWidth = viper.GetFloat64("figure.fig_width")
	o.figTrackHeight = viper.GetFloat64("figure.fig_track_height")
	o.featureTrackRatio = viper.GetFloat64("figure.feature_track_ratio")
	o.linkTrackRatio = viper.GetFloat64("figure.link_track_ratio")
	o.tickTrackRatio = viper.GetFloat64("figure.tick_track_ratio")
	o.trackLabelSize = viper.GetInt("figure.track_labelsize")
	o.tickLabelSize = viper.GetInt("figure.tick_labelsize")
	o.normalLinkColor = viper.GetString("figure.normal_link_color")
	o.invertedLinkColor = viper.GetString("figure.inverted_link_color")
	o.alignType = viper.GetString("figure.align_type")
	o.tickStyle = viper.GetString("figure.tick_style")
	o.featurePlotStyle = viper.GetString("figure.feature_plotstyle")
	o.arrowShaftRatio = viper.GetFloat64("figure.arrow_shaft_ratio")
	o.featureColor = viper.GetString("figure.feature_color")
	o.featureLineWidth = viper.GetFloat64("figure.feature_linewidth")
}

// validate checks arguments before any work starts.
func (o *mummerOptions) validate() error {
	if len(o.gbkFiles) < 2 {
		return fmt.Errorf("--gbk-files must be set at least two files")
	}
	for _, file := range o.gbkFiles {
		if _, err := os.Stat(file); err != nil {
			return fmt.Errorf("file not found %q", file)
		}
	}
	switch o.format {
	case "png", "jpg", "svg", "pdf":
	default:
		return fmt.Errorf("invalid --format %q (png|jpg|svg|pdf)", o.format)
	}
	switch align.SeqType(o.seqType) {
	case align.SeqTypeProtein, align.SeqTypeNucleotide:
	default:
		return fmt.Errorf("invalid --seqtype %q (protein|nucleotide)", o.seqType)
	}
	switch align.MapType(o.mapType) {
	case align.MapTypeManyToMany, align.MapTypeOneToOne:
	default:
		return fmt.Errorf("invalid --maptype %q (many-to-many|one-to-one)", o.mapType)
	}
	switch viz.AlignType(o.alignType) {
	case viz.AlignLeft, viz.AlignCenter, viz.AlignRight:
	default:
		return fmt.Errorf("invalid --align-type %q (left|center|right)", o.alignType)
	}
	switch viz.TickStyle(o.tickStyle) {
	case viz.TickStyleNone, viz.TickStyleBar, viz.TickStyleAxis:
	default:
		return fmt.Errorf("invalid --tick-style %q (bar|axis|'')", o.tickStyle)
	}
	switch viz.PlotStyle(o.featurePlotStyle) {
	case viz.PlotStyleBigArrow, viz.PlotStyleArrow:
	default:
		return fmt.Errorf("invalid --feature-plotstyle %q (bigarrow|arrow)", o.featurePlotStyle)
	}
	return nil
}

// runMummer executes the full visualization workflow.
func runMummer(ctx context.Context, opts *mummerOptions, logger *zap.Logger) error {
	// Parse input genomes.
	genomes := make([]*genbank.Genbank, 0, len(opts.gbkFiles))
	for _, file := range opts.gbkFiles {
		gbk, err := genbank.New(file)
		if err != nil {
			return err
		}
		genomes = append(genomes, gbk)
	}

	aligner := align.NewAligner(genomes, "", align.SeqType(opts.seqType), align.MapType(opts.mapType))
	aligner.SetLogger(logger)
	if err := aligner.CheckInstallation(); err != nil {
		return err
	}

	if err := os.MkdirAll(opts.outdir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	coordsFile := filepath.Join(opts.outdir, coordsFileName)
	resultFile := filepath.Join(opts.outdir, "result."+opts.format)

	// Build tracks.
	gv := viz.New()
	gv.FigWidth = opts.figWidth
	gv.FigTrackHeight = opts.figTrackHeight
	gv.FeatureTrackRatio = opts.featureTrackRatio
	gv.LinkTrackRatio = opts.linkTrackRatio
	gv.TickTrackRatio = opts.tickTrackRatio
	gv.AlignType = viz.AlignType(opts.alignType)
	gv.TickStyle = viz.TickStyle(opts.tickStyle)
	gv.TickLabelSize = opts.tickLabelSize

	style := viz.FeatureStyle{
		Style:           viz.PlotStyle(opts.featurePlotStyle),
		FaceColor:       opts.featureColor,
		LineWidth:       opts.featureLineWidth,
		ArrowShaftRatio: opts.arrowShaftRatio,
	}
	for _, gbk := range genomes {
		track, err := gv.AddFeatureTrack(gbk.Name(), gbk.GenomeLength(), opts.trackLabelSize)
		if err != nil {
			return err
		}
		if err := track.AddGenbankFeatures(gbk, "CDS", style); err != nil {
			return err
		}
	}

	// Align genomes, or reuse a previous coordinate table.
	coords, err := alignCoords(ctx, aligner, coordsFile, opts.reuse, logger)
	if err != nil {
		return err
	}
	coords = align.Filter(coords, opts.minLength, opts.minIdentity)

	// Build links.
	if len(coords) == 0 {
		logger.Warn("no alignments to plot; figure will contain no links")
	} else {
		vmin := minIdentity(coords)
		for _, c := range coords {
			link, err := viz.NewLink(
				c.RefName, c.RefStart, c.RefEnd,
				c.QueryName, c.QueryStart, c.QueryEnd,
				opts.normalLinkColor, opts.invertedLinkColor)
			if err != nil {
				return err
			}
			link.Curve = opts.curve
			if err := link.SetIdentity(c.Identity, vmin, 100); err != nil {
				return err
			}
			if err := gv.AddLink(link); err != nil {
				return err
			}
		}
	}

	// Render and save.
	if err := gv.Plot(resultFile); err != nil {
		return err
	}
	logger.Info("saved result figure", zap.String("file", resultFile))
	return nil
}

// alignCoords returns the alignment coordinates, either reloaded from a
// previous run (--reuse) or computed by running MUMmer in a temporary
// working directory and persisted for later reuse.
func alignCoords(ctx context.Context, aligner *align.Aligner, coordsFile string, reuse bool, logger *zap.Logger) ([]align.Coord, error) {
	if reuse {
		if _, err := os.Stat(coordsFile); err == nil {
			logger.Info("reusing previous MUMmer result", zap.String("file", coordsFile))
			return align.ReadCoords(coordsFile)
		}
	}

	workdir, err := os.MkdirTemp("", "genomeviz-mummer-")
	if err != nil {
		return nil, fmt.Errorf("create temp directory: %w", err)
	}
	defer os.RemoveAll(workdir)

	aligner.SetWorkdir(workdir)
	coords, err := aligner.Run(ctx)
	if err != nil {
		return nil, err
	}
	if err := align.WriteCoords(coords, coordsFile); err != nil {
		return nil, err
	}
	return coords, nil
}

// minIdentity returns the floor of the minimum identity, used as the
// lower bound of the colorbar gradient.
func minIdentity(coords []align.Coord) float64 {
	min := coords[0].Identity
	for _, c := range coords[1:] {
		if c.Identity < min {
			min = c.Identity
		}
	}
	return math.Floor(min)
}
