// Package align invokes MUMmer genome alignment and manages the resulting
// alignment coordinate records.
package align

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// coordsHeader is the column header of the persisted coordinate table.
var coordsHeader = []string{
	"REF_NAME", "REF_START", "REF_END",
	"QUERY_NAME", "QUERY_START", "QUERY_END",
	"IDENTITY",
}

// Coord is one aligned interval pair between a reference and a query genome.
type Coord struct {
	RefName    string
	RefStart   int
	RefEnd     int
	QueryName  string
	QueryStart int
	QueryEnd   int
	Identity   float64
}

// RefLength returns the reference span length.
func (c Coord) RefLength() int {
	return abs(c.RefEnd - c.RefStart)
}

// QueryLength returns the query span length.
func (c Coord) QueryLength() int {
	return abs(c.QueryEnd - c.QueryStart)
}

// Inverted reports whether the alignment is inverted, i.e. the reference
// and query spans run in opposite directions.
func (c Coord) Inverted() bool {
	return (c.RefEnd-c.RefStart)*(c.QueryEnd-c.QueryStart) < 0
}

func (c Coord) String() string {
	return fmt.Sprintf("%s:%d-%d %s:%d-%d %.2f%%",
		c.RefName, c.RefStart, c.RefEnd,
		c.QueryName, c.QueryStart, c.QueryEnd, c.Identity)
}

// Filter retains only coordinates whose shorter span length is at least
// minLength and whose identity is at least minIdentity (both inclusive).
func Filter(coords []Coord, minLength int, minIdentity float64) []Coord {
	filtered := make([]Coord, 0, len(coords))
	for _, c := range coords {
		length := c.RefLength()
		if c.QueryLength() < length {
			length = c.QueryLength()
		}
		if length >= minLength && c.Identity >= minIdentity {
			filtered = append(filtered, c)
		}
	}
	return filtered
}

// WriteCoords persists alignment coordinates as a tab-separated table.
func WriteCoords(coords []Coord, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create coords file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintln(w, strings.Join(coordsHeader, "\t"))
	for _, c := range coords {
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%d\t%d\t%g\n",
			c.RefName, c.RefStart, c.RefEnd,
			c.QueryName, c.QueryStart, c.QueryEnd, c.Identity)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write coords file: %w", err)
	}
	return nil
}

// ReadCoords loads alignment coordinates written by WriteCoords.
func ReadCoords(path string) ([]Coord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open coords file: %w", err)
	}
	defer f.Close()

	var coords []Coord
	scanner := bufio.NewScanner(f)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if line == "" || strings.HasPrefix(line, coordsHeader[0]) {
			continue
		}
		c, err := parseCoordLine(line)
		if err != nil {
			return nil, fmt.Errorf("coords file line %d: %w", lineNumber, err)
		}
		coords = append(coords, c)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read coords file: %w", err)
	}
	return coords, nil
}

func parseCoordLine(line string) (Coord, error) {
	fields := strings.Split(line, "\t")
	if len(fields) != len(coordsHeader) {
		return Coord{}, fmt.Errorf("expected %d columns, found %d", len(coordsHeader), len(fields))
	}
	ints := make([]int, 4)
	for i, idx := range []int{1, 2, 4, 5} {
		v, err := strconv.Atoi(fields[idx])
		if err != nil {
			return Coord{}, fmt.Errorf("invalid coordinate %q", fields[idx])
		}
		ints[i] = v
	}
	identity, err := strconv.ParseFloat(fields[6], 64)
	if err != nil {
		return Coord{}, fmt.Errorf("invalid identity %q", fields[6])
	}
	return Coord{
		RefName:    fields[0],
		RefStart:   ints[0],
		RefEnd:     ints[1],
		QueryName:  fields[3],
		QueryStart: ints[2],
		QueryEnd:   ints[3],
		Identity:   identity,
	}, nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
