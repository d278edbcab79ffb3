package align

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/genomeviz/genomeviz/internal/genbank"
)

// SeqType selects the MUMmer alignment sequence type.
type SeqType string

// MapType selects the MUMmer alignment mapping mode.
type MapType string

// MUMmer alignment modes.
const (
	SeqTypeProtein    SeqType = "protein"    // promer
	SeqTypeNucleotide SeqType = "nucleotide" // nucmer

	MapTypeManyToMany MapType = "many-to-many"
	MapTypeOneToOne   MapType = "one-to-one"
)

// Aligner aligns consecutive genome pairs with MUMmer and parses the
// resulting coordinates.
type Aligner struct {
	genomes []*genbank.Genbank
	workdir string
	seqType SeqType
	mapType MapType
	logger  *zap.Logger
}

// NewAligner creates an aligner over the given genomes. Alignment runs
// pairwise over consecutive genomes; intermediate files are written
// under workdir.
func NewAligner(genomes []*genbank.Genbank, workdir string, seqType SeqType, mapType MapType) *Aligner {
	return &Aligner{
		genomes: genomes,
		workdir: workdir,
		seqType: seqType,
		mapType: mapType,
		logger:  zap.NewNop(),
	}
}

// SetLogger sets the logger for progress and warning messages.
func (a *Aligner) SetLogger(l *zap.Logger) {
	a.logger = l
}

// SetWorkdir sets the directory for intermediate alignment files.
func (a *Aligner) SetWorkdir(dir string) {
	a.workdir = dir
}

// alignBinary returns the MUMmer alignment binary for the sequence type.
func (a *Aligner) alignBinary() string {
	if a.seqType == SeqTypeProtein {
		return "promer"
	}
	return "nucmer"
}

// CheckInstallation verifies that the required MUMmer binaries are on
// PATH before any work begins.
func (a *Aligner) CheckInstallation() error {
	required := []string{a.alignBinary(), "delta-filter", "show-coords"}
	for _, binary := range required {
		if _, err := exec.LookPath(binary); err != nil {
			return fmt.Errorf("MUMmer binary %q not found: install MUMmer and ensure it is on PATH", binary)
		}
	}
	return nil
}

// Run aligns each consecutive genome pair and returns the combined
// alignment coordinates. An empty result is not an error; a warning is
// logged and an empty slice returned.
func (a *Aligner) Run(ctx context.Context) ([]Coord, error) {
	var coords []Coord
	for i := 0; i < len(a.genomes)-1; i++ {
		ref, query := a.genomes[i], a.genomes[i+1]
		pairCoords, err := a.alignPair(ctx, i, ref, query)
		if err != nil {
			return nil, err
		}
		if len(pairCoords) == 0 {
			a.logger.Warn("no alignment found between genome pair",
				zap.String("ref", ref.Name()),
				zap.String("query", query.Name()))
		}
		coords = append(coords, pairCoords...)
	}
	return coords, nil
}

// alignPair runs nucmer/promer, delta-filter and show-coords for one
// genome pair and parses the coordinate output.
func (a *Aligner) alignPair(ctx context.Context, index int, ref, query *genbank.Genbank) ([]Coord, error) {
	refFasta := filepath.Join(a.workdir, fmt.Sprintf("ref%02d.fna", index))
	queryFasta := filepath.Join(a.workdir, fmt.Sprintf("query%02d.fna", index))
	if err := ref.WriteGenomeFasta(refFasta); err != nil {
		return nil, err
	}
	if err := query.WriteGenomeFasta(queryFasta); err != nil {
		return nil, err
	}

	prefix := filepath.Join(a.workdir, fmt.Sprintf("out%02d", index))
	deltaFile := prefix + ".delta"
	filteredDeltaFile := prefix + ".filtered.delta"

	a.logger.Info("running MUMmer alignment",
		zap.String("binary", a.alignBinary()),
		zap.String("ref", ref.Name()),
		zap.String("query", query.Name()))

	if _, err := a.runCommand(ctx, a.alignBinary(), "--prefix", prefix, refFasta, queryFasta); err != nil {
		return nil, err
	}

	filterFlag := "-m" // many-to-many
	if a.mapType == MapTypeOneToOne {
		filterFlag = "-1"
	}
	filtered, err := a.runCommand(ctx, "delta-filter", filterFlag, deltaFile)
	if err != nil {
		return nil, err
	}
	if err := writeFile(filteredDeltaFile, filtered); err != nil {
		return nil, err
	}

	out, err := a.runCommand(ctx, "show-coords", "-H", "-T", filteredDeltaFile)
	if err != nil {
		return nil, err
	}
	return parseShowCoords(out, ref.Name(), query.Name())
}

// runCommand executes one external binary and returns its stdout.
func (a *Aligner) runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s failed: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

// parseShowCoords parses `show-coords -H -T` tab output.
//
// nucmer columns: S1 E1 S2 E2 LEN1 LEN2 %IDY REF QUERY
// promer adds %SIM and %STP before the sequence names.
func parseShowCoords(out []byte, refName, queryName string) ([]Coord, error) {
	var coords []Coord
	for lineNumber, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 9 {
			return nil, fmt.Errorf("show-coords line %d: expected at least 9 columns, found %d", lineNumber+1, len(fields))
		}
		ints := make([]int, 4)
		for i := 0; i < 4; i++ {
			v, err := strconv.Atoi(fields[i])
			if err != nil {
				return nil, fmt.Errorf("show-coords line %d: invalid coordinate %q", lineNumber+1, fields[i])
			}
			ints[i] = v
		}
		identity, err := strconv.ParseFloat(fields[6], 64)
		if err != nil {
			return nil, fmt.Errorf("show-coords line %d: invalid identity %q", lineNumber+1, fields[6])
		}
		coords = append(coords, Coord{
			RefName:    refName,
			RefStart:   ints[0],
			RefEnd:     ints[1],
			QueryName:  queryName,
			QueryStart: ints[2],
			QueryEnd:   ints[3],
			Identity:   identity,
		})
	}
	return coords, nil
}
