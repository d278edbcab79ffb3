package align

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoord_Inverted(t *testing.T) {
	tests := []struct {
		name     string
		coord    Coord
		inverted bool
	}{
		{
			"forward forward",
			Coord{RefStart: 1, RefEnd: 100, QueryStart: 10, QueryEnd: 110},
			false,
		},
		{
			"query reversed",
			Coord{RefStart: 1, RefEnd: 100, QueryStart: 110, QueryEnd: 10},
			true,
		},
		{
			"both reversed",
			Coord{RefStart: 100, RefEnd: 1, QueryStart: 110, QueryEnd: 10},
			false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.inverted, tt.coord.Inverted())
		})
	}
}

func TestFilter_Thresholds(t *testing.T) {
	coords := []Coord{
		{RefName: "a", RefStart: 1, RefEnd: 101, QueryName: "b", QueryStart: 1, QueryEnd: 101, Identity: 90},
		{RefName: "a", RefStart: 1, RefEnd: 51, QueryName: "b", QueryStart: 1, QueryEnd: 51, Identity: 95},
		{RefName: "a", RefStart: 1, RefEnd: 201, QueryName: "b", QueryStart: 1, QueryEnd: 201, Identity: 60},
		// Short query span bounds the length even with a long ref span.
		{RefName: "a", RefStart: 1, RefEnd: 201, QueryName: "b", QueryStart: 1, QueryEnd: 31, Identity: 99},
	}

	assert.Len(t, Filter(coords, 0, 0), 4)

	filtered := Filter(coords, 100, 80)
	require.Len(t, filtered, 1)
	assert.Equal(t, 90.0, filtered[0].Identity)

	// Thresholds are inclusive on both length and identity.
	inclusive := Filter(coords, 50, 95)
	require.Len(t, inclusive, 1)
	assert.Equal(t, 95.0, inclusive[0].Identity)
}

func TestWriteReadCoords(t *testing.T) {
	coords := []Coord{
		{RefName: "genome1", RefStart: 1, RefEnd: 5000, QueryName: "genome2", QueryStart: 100, QueryEnd: 5100, Identity: 98.76},
		{RefName: "genome1", RefStart: 6000, RefEnd: 7000, QueryName: "genome2", QueryStart: 8000, QueryEnd: 7000, Identity: 85.5},
	}

	path := filepath.Join(t.TempDir(), "align_coords.tsv")
	require.NoError(t, WriteCoords(coords, path))

	loaded, err := ReadCoords(path)
	require.NoError(t, err)
	assert.Equal(t, coords, loaded)
	assert.True(t, loaded[1].Inverted())
}

func TestReadCoords_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.tsv")
	require.NoError(t, writeFile(path, []byte("genome1\tx\t2\tgenome2\t1\t2\t99.9\n")))

	_, err := ReadCoords(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1")
}
