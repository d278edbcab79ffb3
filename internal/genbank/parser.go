package genbank

import (
	"archive/zip"
	"bufio"
	"compress/bzip2"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrUnsupportedSource is returned for source types the parser cannot read.
var ErrUnsupportedSource = errors.New("genbank: unsupported source type")

// ParseError represents a GenBank parsing error with line information.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("genbank parse error at line %d: %s", e.Line, e.Message)
}

// featureIndent is the column at which qualifier lines start in the
// FEATURES table. Feature keys start at column 5.
const featureIndent = 21

// ParseFile parses one or more GenBank records from a file.
// Files with a .gz, .bz2 or .zip extension are uncompressed automatically
// (a .zip archive is expected to hold a single entry).
func ParseFile(path string) ([]*Record, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open genbank file: %w", err)
		}
		defer f.Close()
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		defer gz.Close()
		return Parse(gz)
	case ".bz2":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open genbank file: %w", err)
		}
		defer f.Close()
		return Parse(bzip2.NewReader(f))
	case ".zip":
		zr, err := zip.OpenReader(path)
		if err != nil {
			return nil, fmt.Errorf("open zip archive: %w", err)
		}
		defer zr.Close()
		if len(zr.File) == 0 {
			return nil, fmt.Errorf("zip archive %s is empty", path)
		}
		entry, err := zr.File[0].Open()
		if err != nil {
			return nil, fmt.Errorf("open zip entry: %w", err)
		}
		defer entry.Close()
		return Parse(entry)
	default:
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open genbank file: %w", err)
		}
		defer f.Close()
		br := bufio.NewReader(f)
		if magic, _ := br.Peek(6); isCompressed(magic) {
			return nil, fmt.Errorf("%s: %w (rename with a .gz, .bz2 or .zip extension)", path, ErrUnsupportedSource)
		}
		return Parse(br)
	}
}

// isCompressed reports whether the leading bytes carry a known
// compression container magic (gzip, bzip2, zip, xz or zstd).
func isCompressed(magic []byte) bool {
	prefixes := [][]byte{
		{0x1f, 0x8b},                     // gzip
		{'B', 'Z', 'h'},                  // bzip2
		{'P', 'K', 0x03, 0x04},           // zip
		{0xfd, '7', 'z', 'X', 'Z', 0x00}, // xz
		{0x28, 0xb5, 0x2f, 0xfd},         // zstd
	}
	for _, p := range prefixes {
		if len(magic) >= len(p) && string(magic[:len(p)]) == string(p) {
			return true
		}
	}
	return false
}

// Parse parses one or more GenBank records from a reader.
func Parse(r io.Reader) ([]*Record, error) {
	p := &parser{scanner: bufio.NewScanner(r)}
	p.scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return p.parse()
}

type parser struct {
	scanner    *bufio.Scanner
	lineNumber int
}

func (p *parser) errorf(format string, args ...interface{}) error {
	return &ParseError{Line: p.lineNumber, Message: fmt.Sprintf(format, args...)}
}

func (p *parser) parse() ([]*Record, error) {
	var records []*Record
	var rec *Record

	var (
		inFeatures bool
		inOrigin   bool
		feat       *Feature
		locBuf     string // pending (possibly wrapped) location text
		qualKey    string // qualifier receiving continuation lines
		seq        strings.Builder
	)

	flushFeature := func() error {
		if feat == nil {
			return nil
		}
		loc, err := parseLocation(locBuf)
		if err != nil {
			return p.errorf("invalid location %q: %v", locBuf, err)
		}
		feat.Location = loc
		rec.Features = append(rec.Features, feat)
		feat, locBuf, qualKey = nil, "", ""
		return nil
	}

	for p.scanner.Scan() {
		p.lineNumber++
		line := strings.TrimRight(p.scanner.Text(), "\r\n")

		switch {
		case strings.HasPrefix(line, "LOCUS"):
			rec = &Record{}
			fields := strings.Fields(line)
			if len(fields) < 2 {
				return nil, p.errorf("malformed LOCUS line")
			}
			rec.Name = fields[1]
			inFeatures, inOrigin = false, false
			seq.Reset()

		case rec == nil:
			// Skip anything before the first LOCUS line.
			continue

		case strings.HasPrefix(line, "DEFINITION"):
			rec.Definition = strings.TrimSpace(strings.TrimPrefix(line, "DEFINITION"))

		case strings.HasPrefix(line, "FEATURES"):
			inFeatures = true

		case strings.HasPrefix(line, "ORIGIN"):
			if err := flushFeature(); err != nil {
				return nil, err
			}
			inFeatures, inOrigin = false, true

		case strings.HasPrefix(line, "//"):
			if err := flushFeature(); err != nil {
				return nil, err
			}
			rec.Sequence = seq.String()
			records = append(records, rec)
			rec = nil
			inFeatures, inOrigin = false, false

		case inOrigin:
			// "       61 acgtacgtac acgtacgtac ..." - strip offset and spaces
			fields := strings.Fields(line)
			for _, f := range fields {
				if _, err := strconv.Atoi(f); err == nil {
					continue
				}
				seq.WriteString(f)
			}

		case inFeatures:
			if err := p.parseFeatureLine(line, rec, &feat, &locBuf, &qualKey, flushFeature); err != nil {
				return nil, err
			}

		default:
			// Header sections we do not model (SOURCE, REFERENCE, ...).
		}
	}
	if err := p.scanner.Err(); err != nil {
		return nil, fmt.Errorf("read genbank source: %w", err)
	}
	if rec != nil {
		// Record without trailing "//" terminator.
		if err := flushFeature(); err != nil {
			return nil, err
		}
		rec.Sequence = seq.String()
		records = append(records, rec)
	}
	if len(records) == 0 {
		return nil, &ParseError{Line: p.lineNumber, Message: "no LOCUS record found"}
	}
	return records, nil
}

// parseFeatureLine handles a single line of the FEATURES table.
func (p *parser) parseFeatureLine(line string, rec *Record, feat **Feature, locBuf, qualKey *string, flush func() error) error {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return nil
	}

	indent := len(line) - len(strings.TrimLeft(line, " "))

	// New feature key line, e.g. "     CDS             complement(join(..."
	if indent < featureIndent {
		if err := flush(); err != nil {
			return err
		}
		fields := strings.Fields(trimmed)
		if len(fields) < 2 {
			return p.errorf("malformed feature line %q", trimmed)
		}
		*feat = &Feature{
			Type:       fields[0],
			Qualifiers: make(map[string][]string),
		}
		*locBuf = strings.Join(fields[1:], "")
		*qualKey = ""
		return nil
	}

	if *feat == nil {
		return p.errorf("qualifier line outside feature: %q", trimmed)
	}

	if strings.HasPrefix(trimmed, "/") {
		// New qualifier: /key="value", /key=value or bare /key flag.
		key, value, hasValue := strings.Cut(trimmed[1:], "=")
		if !hasValue {
			(*feat).Qualifiers[key] = append((*feat).Qualifiers[key], "")
			*qualKey = ""
			return nil
		}
		value = strings.TrimPrefix(value, `"`)
		if closed := strings.HasSuffix(value, `"`); closed {
			value = strings.TrimSuffix(value, `"`)
			*qualKey = ""
		} else {
			*qualKey = key
		}
		(*feat).Qualifiers[key] = append((*feat).Qualifiers[key], value)
		return nil
	}

	// Continuation line: either a wrapped location or a wrapped qualifier value.
	if *qualKey == "" {
		if len((*feat).Qualifiers) == 0 {
			*locBuf += trimmed
		}
		return nil
	}

	vals := (*feat).Qualifiers[*qualKey]
	value := trimmed
	if closed := strings.HasSuffix(value, `"`); closed {
		value = strings.TrimSuffix(value, `"`)
		defer func() { *qualKey = "" }()
	}
	// Translations wrap without spaces; free text qualifiers wrap on word
	// boundaries.
	sep := " "
	if *qualKey == "translation" {
		sep = ""
	}
	vals[len(vals)-1] += sep + value
	(*feat).Qualifiers[*qualKey] = vals
	return nil
}

// parseLocation parses a GenBank location string into a Location.
// Supported grammar: "start..end", "pos", "complement(...)", "join(...)",
// "order(...)" and nesting thereof. Partial markers '<' and '>' are
// stripped before integer conversion.
func parseLocation(s string) (Location, error) {
	s = strings.TrimSpace(s)
	strand := StrandForward

	complemented := false
	for {
		switch {
		case strings.HasPrefix(s, "complement(") && strings.HasSuffix(s, ")"):
			s = s[len("complement(") : len(s)-1]
			strand = -strand
			complemented = !complemented
		case strings.HasPrefix(s, "join(") && strings.HasSuffix(s, ")"):
			s = s[len("join(") : len(s)-1]
		case strings.HasPrefix(s, "order(") && strings.HasSuffix(s, ")"):
			s = s[len("order(") : len(s)-1]
		default:
			parts, err := parseParts(s)
			if err != nil {
				return Location{}, err
			}
			if complemented && len(parts) > 1 {
				// complement(join(...)): store parts in strand order.
				for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
					parts[i], parts[j] = parts[j], parts[i]
				}
			}
			return Location{Parts: parts, Strand: strand}, nil
		}
	}
}

func parseParts(s string) ([]Part, error) {
	var parts []Part
	for _, token := range strings.Split(s, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		// Nested complement on a single part, e.g. join(complement(10..20),...)
		token = strings.TrimSuffix(strings.TrimPrefix(token, "complement("), ")")
		start, end, isSpan := strings.Cut(token, "..")
		a, err := positionToInt(start)
		if err != nil {
			return nil, err
		}
		if !isSpan {
			// Single base position.
			parts = append(parts, Part{Start: a - 1, End: a})
			continue
		}
		b, err := positionToInt(end)
		if err != nil {
			return nil, err
		}
		// 1-based inclusive to 0-based half-open.
		parts = append(parts, Part{Start: a - 1, End: b})
	}
	if len(parts) == 0 {
		return nil, errors.New("empty location")
	}
	return parts, nil
}

// positionToInt converts a position token to an int, stripping the
// partial-position markers '<' and '>' and the rare site marker '^'.
func positionToInt(s string) (int, error) {
	s = strings.NewReplacer("<", "", ">", "").Replace(s)
	if i := strings.IndexByte(s, '^'); i >= 0 {
		s = s[:i]
	}
	return strconv.Atoi(s)
}
