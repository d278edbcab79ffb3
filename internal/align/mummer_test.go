package align

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseShowCoords_Nucmer(t *testing.T) {
	out := []byte(
		"1\t5000\t99\t5098\t5000\t5000\t99.98\tgenome1\tgenome2\n" +
			"7000\t8000\t9500\t8500\t1001\t1001\t87.50\tgenome1\tgenome2\n")

	coords, err := parseShowCoords(out, "genome1", "genome2")
	require.NoError(t, err)
	require.Len(t, coords, 2)

	assert.Equal(t, Coord{
		RefName: "genome1", RefStart: 1, RefEnd: 5000,
		QueryName: "genome2", QueryStart: 99, QueryEnd: 5098,
		Identity: 99.98,
	}, coords[0])
	assert.True(t, coords[1].Inverted())
}

func TestParseShowCoords_Promer(t *testing.T) {
	// promer output carries the extra %SIM and %STP columns.
	out := []byte("10\t300\t20\t310\t291\t291\t92.41\t95.10\t0.00\tgenome1\tgenome2\n")

	coords, err := parseShowCoords(out, "genome1", "genome2")
	require.NoError(t, err)
	require.Len(t, coords, 1)
	assert.Equal(t, 92.41, coords[0].Identity)
}

func TestParseShowCoords_Malformed(t *testing.T) {
	_, err := parseShowCoords([]byte("1\t2\t3\n"), "a", "b")
	require.Error(t, err)

	_, err = parseShowCoords([]byte("x\t2\t3\t4\t5\t6\t7\t8\t9\n"), "a", "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid coordinate")
}

func TestParseShowCoords_Empty(t *testing.T) {
	coords, err := parseShowCoords(nil, "a", "b")
	require.NoError(t, err)
	assert.Empty(t, coords)
}

func TestCheckInstallation(t *testing.T) {
	binDir := t.TempDir()
	for _, name := range []string{"nucmer", "promer", "delta-filter", "show-coords"} {
		path := filepath.Join(binDir, name)
		require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0o755))
	}

	t.Run("binaries found", func(t *testing.T) {
		t.Setenv("PATH", binDir)
		a := NewAligner(nil, t.TempDir(), SeqTypeNucleotide, MapTypeManyToMany)
		assert.NoError(t, a.CheckInstallation())
	})

	t.Run("binaries missing", func(t *testing.T) {
		t.Setenv("PATH", t.TempDir())
		a := NewAligner(nil, t.TempDir(), SeqTypeProtein, MapTypeOneToOne)
		err := a.CheckInstallation()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "promer")
	})
}

func TestAlignBinary(t *testing.T) {
	assert.Equal(t, "promer", NewAligner(nil, "", SeqTypeProtein, MapTypeManyToMany).alignBinary())
	assert.Equal(t, "nucmer", NewAligner(nil, "", SeqTypeNucleotide, MapTypeManyToMany).alignBinary())
}
