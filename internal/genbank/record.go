// Package genbank provides GenBank flat file parsing and a genome wrapper
// for range-restricted sequence and feature extraction.
package genbank

// Strand constants for features.
const (
	StrandForward = 1
	StrandReverse = -1
)

// Part is a single start..end span of a feature location.
// Coordinates are 0-based half-open.
type Part struct {
	Start int
	End   int
}

// Location is a (possibly multi-part) feature location.
// Parts of a complement(join(...)) location are stored in strand order,
// i.e. reversed relative to file order.
type Location struct {
	Parts  []Part
	Strand int
}

// Start returns the location start of the first part.
func (l Location) Start() int {
	if len(l.Parts) == 0 {
		return 0
	}
	return l.Parts[0].Start
}

// End returns the location end of the last part.
func (l Location) End() int {
	if len(l.Parts) == 0 {
		return 0
	}
	return l.Parts[len(l.Parts)-1].End
}

// Feature represents a single annotated feature from a GenBank record.
type Feature struct {
	Type       string              // Feature key (e.g., "CDS", "gene", "rRNA")
	Location   Location            // Parsed location
	Qualifiers map[string][]string // Qualifier key-value pairs (e.g., /product="...")
}

// Strand returns the feature strand (+1 or -1).
func (f *Feature) Strand() int {
	return f.Location.Strand
}

// Qualifier returns the first value of the named qualifier, or "" if unset.
func (f *Feature) Qualifier(name string) string {
	vals, ok := f.Qualifiers[name]
	if !ok || len(vals) == 0 {
		return ""
	}
	return vals[0]
}

// HasQualifier returns true if the named qualifier is present.
func (f *Feature) HasQualifier(name string) bool {
	_, ok := f.Qualifiers[name]
	return ok
}

// Record represents a single GenBank record.
type Record struct {
	Name       string // LOCUS name
	Definition string // DEFINITION line
	Sequence   string // ORIGIN sequence
	Features   []*Feature
}

// Length returns the record sequence length.
func (r *Record) Length() int {
	return len(r.Sequence)
}

// ReverseComplement returns a new record with the reverse-complemented
// sequence and all feature coordinates remapped onto it.
func (r *Record) ReverseComplement() *Record {
	length := len(r.Sequence)

	features := make([]*Feature, 0, len(r.Features))
	for _, f := range r.Features {
		parts := make([]Part, 0, len(f.Location.Parts))
		// Reverse part order so parts stay in strand order on the new strand.
		for i := len(f.Location.Parts) - 1; i >= 0; i-- {
			p := f.Location.Parts[i]
			parts = append(parts, Part{Start: length - p.End, End: length - p.Start})
		}
		features = append(features, &Feature{
			Type:       f.Type,
			Location:   Location{Parts: parts, Strand: -f.Location.Strand},
			Qualifiers: f.Qualifiers,
		})
	}

	return &Record{
		Name:       r.Name,
		Definition: r.Definition,
		Sequence:   ReverseComplementSeq(r.Sequence),
		Features:   features,
	}
}

// ReverseComplementSeq returns the reverse complement of a nucleotide
// sequence. Case is preserved; unknown letters map to N/n.
func ReverseComplementSeq(seq string) string {
	rc := make([]byte, len(seq))
	for i := 0; i < len(seq); i++ {
		rc[len(seq)-1-i] = complementBase(seq[i])
	}
	return string(rc)
}

func complementBase(b byte) byte {
	switch b {
	case 'A':
		return 'T'
	case 'T', 'U':
		return 'A'
	case 'G':
		return 'C'
	case 'C':
		return 'G'
	case 'a':
		return 't'
	case 't', 'u':
		return 'a'
	case 'g':
		return 'c'
	case 'c':
		return 'g'
	case 'N':
		return 'N'
	default:
		return 'n'
	}
}
