package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/genomeviz/genomeviz/internal/align"
)

const genomeASrc = `LOCUS       genomeA                  120 bp    DNA     linear   BCT 01-JAN-2024
FEATURES             Location/Qualifiers
     CDS             10..69
                     /protein_id="AAA00001.1"
                     /product="protein alpha"
                     /translation="MKLVISDTWQPFEHNRAYST"
ORIGIN
        1 acgtacgtag acgtacgtag acgtacgtag acgtacgtag acgtacgtag acgtacgtag
       61 acgtacgtag acgtacgtag acgtacgtag acgtacgtag acgtacgtag acgtacgtag
//
`

const genomeBSrc = `LOCUS       genomeB                  120 bp    DNA     linear   BCT 01-JAN-2024
FEATURES             Location/Qualifiers
     CDS             20..79
                     /protein_id="BBB00001.1"
                     /product="protein beta"
                     /translation="MKLVISDTWQPFEHNRAYST"
ORIGIN
        1 acgtacgtag acgtacgtag acgtacgtag acgtacgtag acgtacgtag acgtacgtag
       61 acgtacgtag acgtacgtag acgtacgtag acgtacgtag acgtacgtag acgtacgtag
//
`

// fakeMUMmer places stub MUMmer binaries on PATH so the installation
// check passes without a real MUMmer install.
func fakeMUMmer(t *testing.T) {
	t.Helper()
	binDir := t.TempDir()
	for _, name := range []string{"nucmer", "promer", "delta-filter", "show-coords"} {
		require.NoError(t, os.WriteFile(filepath.Join(binDir, name), []byte("#!/bin/sh\nexit 0\n"), 0o755))
	}
	t.Setenv("PATH", binDir)
}

func writeGenomes(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	a := filepath.Join(dir, "genomeA.gbk")
	b := filepath.Join(dir, "genomeB.gbk")
	require.NoError(t, os.WriteFile(a, []byte(genomeASrc), 0o644))
	require.NoError(t, os.WriteFile(b, []byte(genomeBSrc), 0o644))
	return a, b
}

func defaultTestOptions(a, b, outdir string) *mummerOptions {
	return &mummerOptions{
		gbkFiles:          []string{a, b},
		outdir:            outdir,
		format:            "png",
		reuse:             true,
		seqType:           "protein",
		mapType:           "many-to-many",
		figWidth:          10,
		figTrackHeight:    1.0,
		featureTrackRatio: 1.0,
		linkTrackRatio:    5.0,
		tickTrackRatio:    1.0,
		trackLabelSize:    20,
		tickLabelSize:     15,
		normalLinkColor:   "grey",
		invertedLinkColor: "red",
		alignType:         "center",
		tickStyle:         "bar",
		featurePlotStyle:  "bigarrow",
		arrowShaftRatio:   0.5,
		featureColor:      "orange",
	}
}

func TestRunMummer_ReuseEndToEnd(t *testing.T) {
	fakeMUMmer(t)
	a, b := writeGenomes(t)
	outdir := t.TempDir()

	// One forward-oriented full-identity match, reused instead of
	// invoking the aligner.
	seeded := []align.Coord{{
		RefName: "genomeA", RefStart: 10, RefEnd: 69,
		QueryName: "genomeB", QueryStart: 20, QueryEnd: 79,
		Identity: 100,
	}}
	coordsFile := filepath.Join(outdir, coordsFileName)
	require.NoError(t, align.WriteCoords(seeded, coordsFile))

	opts := defaultTestOptions(a, b, outdir)
	require.NoError(t, runMummer(context.Background(), opts, zap.NewNop()))

	// Exactly one link survives zero thresholds and is not inverted.
	coords, err := align.ReadCoords(coordsFile)
	require.NoError(t, err)
	filtered := align.Filter(coords, 0, 0)
	require.Len(t, filtered, 1)
	assert.False(t, filtered[0].Inverted())

	info, err := os.Stat(filepath.Join(outdir, "result.png"))
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestRunMummer_EmptyCoords(t *testing.T) {
	fakeMUMmer(t)
	a, b := writeGenomes(t)
	outdir := t.TempDir()

	// An empty coordinate table is a warning, not an error: the figure
	// is still rendered without links.
	require.NoError(t, align.WriteCoords(nil, filepath.Join(outdir, coordsFileName)))

	opts := defaultTestOptions(a, b, outdir)
	require.NoError(t, runMummer(context.Background(), opts, zap.NewNop()))

	_, err := os.Stat(filepath.Join(outdir, "result.png"))
	require.NoError(t, err)
}

func TestMummerOptions_Validate(t *testing.T) {
	a, b := writeGenomes(t)

	valid := defaultTestOptions(a, b, t.TempDir())
	require.NoError(t, valid.validate())

	tests := []struct {
		name   string
		mutate func(*mummerOptions)
		errMsg string
	}{
		{"one file", func(o *mummerOptions) { o.gbkFiles = []string{a} }, "at least two"},
		{"missing file", func(o *mummerOptions) { o.gbkFiles = []string{a, "nope.gbk"} }, "not found"},
		{"bad format", func(o *mummerOptions) { o.format = "gif" }, "--format"},
		{"bad seqtype", func(o *mummerOptions) { o.seqType = "rna" }, "--seqtype"},
		{"bad maptype", func(o *mummerOptions) { o.mapType = "all" }, "--maptype"},
		{"bad align type", func(o *mummerOptions) { o.alignType = "top" }, "--align-type"},
		{"bad tick style", func(o *mummerOptions) { o.tickStyle = "dots" }, "--tick-style"},
		{"bad plot style", func(o *mummerOptions) { o.featurePlotStyle = "bigbox" }, "--feature-plotstyle"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := defaultTestOptions(a, b, t.TempDir())
			tt.mutate(opts)
			err := opts.validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
