package genbank

import (
	"fmt"
	"os"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"
)

// fastaWidth is the sequence line width for written FASTA files.
const fastaWidth = 70

// WriteCDSFasta writes the translated protein sequences of the extracted
// CDS features to a FASTA file. Sequence identifiers are synthesized as
// GENE000001[_proteinID]|start_end_strand| with the product as description.
func (g *Genbank) WriteCDSFasta(path string, allowPartial bool) error {
	features := g.ExtractFeatures("CDS", 0, false, allowPartial)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create cds fasta file: %w", err)
	}
	defer f.Close()

	w := fasta.NewWriter(f, fastaWidth)
	for idx, feature := range features {
		start := feature.Location.Start()
		end := feature.Location.End()
		strand := "+"
		if feature.Strand() == StrandReverse {
			strand = "-"
		}

		seqID := fmt.Sprintf("GENE%06d", idx+1)
		if proteinID := feature.Qualifier("protein_id"); proteinID != "" {
			seqID += "_" + proteinID
		}
		seqID += fmt.Sprintf("|%d_%d_%s|", start, end, strand)

		translation := feature.Qualifier("translation")
		s := linear.NewSeq(seqID, alphabet.BytesToLetters([]byte(translation)), alphabet.Protein)
		s.Desc = feature.Qualifier("product")
		if _, err := w.Write(s); err != nil {
			return fmt.Errorf("write cds fasta record: %w", err)
		}
	}
	return nil
}

// WriteGenomeFasta writes the range-restricted genome nucleotide sequence
// to a FASTA file under the wrapper's display name.
func (g *Genbank) WriteGenomeFasta(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create genome fasta file: %w", err)
	}
	defer f.Close()

	w := fasta.NewWriter(f, fastaWidth)
	s := linear.NewSeq(g.Name(), alphabet.BytesToLetters([]byte(g.GenomeSeq())), alphabet.DNA)
	if _, err := w.Write(s); err != nil {
		return fmt.Errorf("write genome fasta record: %w", err)
	}
	return nil
}
