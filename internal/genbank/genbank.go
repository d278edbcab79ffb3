package genbank

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Genbank wraps parsed GenBank records and exposes range-restricted
// sequence access and feature extraction.
type Genbank struct {
	name     string
	records  []*Record
	reverse  bool
	minRange int
	maxRange int

	gcContent     float64
	gcContentDone bool
}

// Option configures a Genbank wrapper.
type Option func(*options)

type options struct {
	name     string
	reverse  bool
	minRange int
	maxRange int // -1 means full genome length
}

// WithName sets the display name. Defaults to the file base name
// (or the first record name for reader sources).
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithReverse plots the reverse-complemented genome: every record is
// reverse-complemented and the record order is reversed.
func WithReverse(reverse bool) Option {
	return func(o *options) { o.reverse = reverse }
}

// WithRange restricts sequence and feature extraction to
// [minRange, maxRange) of the concatenated genome sequence.
func WithRange(minRange, maxRange int) Option {
	return func(o *options) {
		o.minRange = minRange
		o.maxRange = maxRange
	}
}

// New parses a GenBank file (plain, .gz, .bz2 or single-entry .zip)
// and wraps it.
func New(path string, opts ...Option) (*Genbank, error) {
	records, err := ParseFile(path)
	if err != nil {
		return nil, err
	}
	o := applyOptions(opts)
	if o.name == "" {
		o.name = nameFromPath(path)
	}
	return build(records, o)
}

// NewFromReader parses GenBank records from an uncompressed reader and
// wraps them. The name defaults to the first record name.
func NewFromReader(r io.Reader, opts ...Option) (*Genbank, error) {
	records, err := Parse(r)
	if err != nil {
		return nil, err
	}
	o := applyOptions(opts)
	if o.name == "" {
		o.name = records[0].Name
	}
	return build(records, o)
}

func applyOptions(opts []Option) *options {
	o := &options{maxRange: -1}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func build(records []*Record, o *options) (*Genbank, error) {
	gbk := &Genbank{
		name:     o.name,
		records:  records,
		reverse:  o.reverse,
		minRange: o.minRange,
	}
	full := gbk.FullGenomeLength()
	gbk.maxRange = o.maxRange
	if gbk.maxRange < 0 {
		gbk.maxRange = full
	}
	if !(0 <= gbk.minRange && gbk.minRange <= gbk.maxRange && gbk.maxRange <= full) {
		return nil, fmt.Errorf(
			"min_range=%d, max_range=%d is invalid: range must be '0 <= min_range <= max_range <= %d'",
			o.minRange, o.maxRange, full)
	}
	return gbk, nil
}

// nameFromPath derives a display name from a file path, stripping the
// extra extension of compressed files (e.g. genome.gbk.gz -> genome).
func nameFromPath(path string) string {
	base := filepath.Base(path)
	switch strings.ToLower(filepath.Ext(base)) {
	case ".gz", ".bz2", ".zip":
		base = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Name returns the display name.
func (g *Genbank) Name() string {
	return g.name
}

// MinRange returns the configured range minimum.
func (g *Genbank) MinRange() int {
	return g.minRange
}

// MaxRange returns the configured range maximum.
func (g *Genbank) MaxRange() int {
	return g.maxRange
}

// Records returns the records, reverse-complemented and reordered when
// the reverse option is set.
func (g *Genbank) Records() []*Record {
	if !g.reverse {
		return g.records
	}
	reversed := make([]*Record, 0, len(g.records))
	for i := len(g.records) - 1; i >= 0; i-- {
		reversed = append(reversed, g.records[i].ReverseComplement())
	}
	return reversed
}

// FullGenomeSeq returns the concatenation of all record sequences.
func (g *Genbank) FullGenomeSeq() string {
	var sb strings.Builder
	for _, r := range g.Records() {
		sb.WriteString(r.Sequence)
	}
	return sb.String()
}

// FullGenomeLength returns the full genome sequence length.
func (g *Genbank) FullGenomeLength() int {
	length := 0
	for _, r := range g.records {
		length += len(r.Sequence)
	}
	return length
}

// GenomeSeq returns the genome sequence restricted to the configured range.
func (g *Genbank) GenomeSeq() string {
	return g.FullGenomeSeq()[g.minRange:g.maxRange]
}

// GenomeLength returns the range-restricted genome sequence length.
func (g *Genbank) GenomeLength() int {
	return g.maxRange - g.minRange
}

// GCContent returns the GC content (%) of the range genome sequence.
// The value is computed once and cached.
func (g *Genbank) GCContent() float64 {
	if !g.gcContentDone {
		g.gcContent = gcPercent(g.GenomeSeq())
		g.gcContentDone = true
	}
	return g.gcContent
}

// GCContentWindows calculates GC content (%) in sliding windows.
// windowSize defaults to len/500 and stepSize to len/1000 when <= 0.
// Returns the window center positions and the matching values.
func (g *Genbank) GCContentWindows(windowSize, stepSize int) ([]int, []float64) {
	seq := g.GenomeSeq()
	return slidingWindows(seq, windowSize, stepSize, gcPercent)
}

// GCSkewWindows calculates GC skew (G-C)/(G+C) in sliding windows.
// Windows with no G or C yield 0.0.
func (g *Genbank) GCSkewWindows(windowSize, stepSize int) ([]int, []float64) {
	seq := g.GenomeSeq()
	return slidingWindows(seq, windowSize, stepSize, func(sub string) float64 {
		gCount, cCount := countGC(sub)
		if gCount+cCount == 0 {
			return 0.0
		}
		return float64(gCount-cCount) / float64(gCount+cCount)
	})
}

func slidingWindows(seq string, windowSize, stepSize int, calc func(string) float64) ([]int, []float64) {
	if windowSize <= 0 {
		windowSize = len(seq) / 500
	}
	if stepSize <= 0 {
		stepSize = len(seq) / 1000
	}
	if windowSize < 1 {
		windowSize = 1
	}
	if stepSize < 1 {
		stepSize = 1
	}

	var positions []int
	for pos := 0; pos < len(seq); pos += stepSize {
		positions = append(positions, pos)
	}
	positions = append(positions, len(seq))

	values := make([]float64, 0, len(positions))
	for _, pos := range positions {
		start := pos - windowSize/2
		end := pos + windowSize/2
		if start < 0 {
			start = 0
		}
		if end > len(seq) {
			end = len(seq)
		}
		values = append(values, calc(seq[start:end]))
	}
	return positions, values
}

func countGC(seq string) (g, c int) {
	for i := 0; i < len(seq); i++ {
		switch seq[i] {
		case 'G', 'g':
			g++
		case 'C', 'c':
			c++
		}
	}
	return g, c
}

func gcPercent(seq string) float64 {
	if len(seq) == 0 {
		return 0.0
	}
	g, c := countGC(seq)
	return float64(g+c) / float64(len(seq)) * 100
}

// ExtractFeatures filters the records' features by type and optional
// strand (0 means both strands), restricted to the configured range.
//
// CDS features without a /translation qualifier are excluded as
// pseudogenes. When allowPartial is true, features partially inside the
// range are clipped to the range bounds; otherwise any feature not fully
// inside the range is dropped. When fixPosition is true, coordinates are
// rebased relative to the range minimum.
func (g *Genbank) ExtractFeatures(featureType string, targetStrand int, fixPosition, allowPartial bool) []*Feature {
	var extracted []*Feature
	minRange, maxRange := g.minRange, g.maxRange
	baseLen := 0
	for _, record := range g.Records() {
		for _, f := range record.Features {
			if f.Type != featureType {
				continue
			}
			if featureType == "CDS" && f.Qualifier("translation") == "" {
				// Pseudogene without translated product.
				continue
			}
			parts := f.Location.Parts
			if len(parts) == 0 {
				continue
			}
			var start, end int
			if f.Location.Strand == StrandReverse {
				// Parts of complement(join(...)) locations are stored in
				// strand order, so the genomic minimum is the last part.
				start = parts[len(parts)-1].Start + baseLen
				end = parts[0].End + baseLen
			} else {
				start = parts[0].Start + baseLen
				end = parts[len(parts)-1].End + baseLen
			}

			if allowPartial {
				startIn := minRange <= start && start <= maxRange
				endIn := minRange <= end && end <= maxRange
				if !startIn && !endIn {
					// Completely out of range.
					continue
				}
				if start <= minRange && minRange <= end && end <= maxRange {
					start = minRange
				}
				if minRange <= start && start <= maxRange && maxRange <= end {
					end = maxRange
				}
			} else {
				if !(minRange <= start && start <= end && end <= maxRange) {
					continue
				}
			}

			if targetStrand != 0 && f.Location.Strand != targetStrand {
				continue
			}
			if fixPosition {
				start -= minRange
				end -= minRange
			}

			extracted = append(extracted, &Feature{
				Type:       f.Type,
				Location:   Location{Parts: []Part{{Start: start, End: end}}, Strand: f.Location.Strand},
				Qualifiers: f.Qualifiers,
			})
		}
		baseLen += len(record.Sequence)
	}
	return extracted
}
