// Package bim reads and writes PLINK BIM variant files.
package bim

import (
	"github.com/snptk/snptk/internal/chrom"
)

// Column positions in a BIM line.
const (
	ColChromosome = iota
	ColVariantID
	ColMorgans
	ColPosition
	ColAllele1
	ColAllele2

	NumColumns
)

// Record is one variant of a BIM dataset. Records are treated as immutable;
// edits produce new records.
type Record struct {
	Chromosome string // as written in the dataset, e.g. "6" or "X"
	ID         string // variant id, e.g. "rs123" or an assay-internal name
	Morgans    string // genetic distance, carried through verbatim
	Position   int64  // base-pair coordinate
	Allele1    string
	Allele2    string
}

// Coordinate returns the canonical coordinate of r after adding offset to its
// position. Chromosomes unknown to the table are kept verbatim.
func (r Record) Coordinate(t chrom.Table, offset int64) chrom.CoordinateKey {
	return chrom.Key(t.CanonicalOrRaw(r.Chromosome), r.Position+offset)
}
