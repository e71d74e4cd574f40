package reconcile

import (
	"github.com/snptk/snptk/internal/bim"
	"github.com/snptk/snptk/internal/rsid"
)

// Apply returns a copy of records with plan applied: deletes first, then
// renames, then position and chromosome updates keyed by the renamed ids.
// Multi-mapped entries are informational and change nothing.
func Apply(records []bim.Record, plan *Plan) []bim.Record {
	deleted := rsid.NewIDSet(plan.Deletes...)

	renames := make(map[string]string, len(plan.Renames))
	for _, rn := range plan.Renames {
		renames[rn.From] = rn.To
	}
	positions := make(map[string]int64, len(plan.PositionUpdates))
	for _, u := range plan.PositionUpdates {
		positions[u.ID] = u.Position
	}
	chromosomes := make(map[string]string, len(plan.ChromosomeUpdates))
	for _, u := range plan.ChromosomeUpdates {
		chromosomes[u.ID] = u.Chromosome
	}

	out := make([]bim.Record, 0, len(records))
	for _, r := range records {
		if deleted.Has(r.ID) {
			continue
		}
		if to, ok := renames[r.ID]; ok {
			r.ID = to
		}
		if pos, ok := positions[r.ID]; ok {
			r.Position = pos
		}
		if c, ok := chromosomes[r.ID]; ok {
			r.Chromosome = c
		}
		out = append(out, r)
	}
	return out
}
