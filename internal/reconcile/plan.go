// Package reconcile decides how each record of a dataset must be edited so
// that its ids and coordinates agree with the authoritative database.
//
// Both strategies are sequential and deterministic: given the same inputs they
// produce the same Plan, with every list in input order.
package reconcile

import (
	"github.com/snptk/snptk/internal/chrom"
)

// Rename replaces id From with To.
type Rename struct {
	From string
	To   string
}

// PositionUpdate sets the position of ID, keyed by the id after renames.
type PositionUpdate struct {
	ID       string
	Position int64
}

// ChromosomeUpdate sets the chromosome of ID, keyed by the id after renames.
type ChromosomeUpdate struct {
	ID         string
	Chromosome string
}

// MultiMapped records a coordinate the database assigns to several ids.
// Candidates are in database scan order.
type MultiMapped struct {
	Coordinate chrom.CoordinateKey
	Candidates []string
}

// Plan is the ordered set of edits produced by a reconciliation. Edits must
// be applied as deletes, then renames, then position and chromosome updates.
type Plan struct {
	Deletes           []string
	Renames           []Rename
	PositionUpdates   []PositionUpdate
	ChromosomeUpdates []ChromosomeUpdate
	MultiMapped       []MultiMapped
}

// Empty reports whether p contains no edits and no multi-mapped coordinates.
func (p *Plan) Empty() bool {
	return len(p.Deletes) == 0 &&
		len(p.Renames) == 0 &&
		len(p.PositionUpdates) == 0 &&
		len(p.ChromosomeUpdates) == 0 &&
		len(p.MultiMapped) == 0
}

func (p *Plan) delete(id string) {
	p.Deletes = append(p.Deletes, id)
}

func (p *Plan) rename(from, to string) {
	p.Renames = append(p.Renames, Rename{From: from, To: to})
}
