package reconcile

import (
	"go.uber.org/zap"

	"github.com/snptk/snptk/internal/posindex"
	"github.com/snptk/snptk/internal/rsid"
)

// Reconciler turns dataset records and a position index into a Plan.
type Reconciler struct {
	logger *zap.Logger
}

// New creates a reconciler that logs nothing.
func New() *Reconciler {
	return &Reconciler{logger: zap.NewNop()}
}

// SetLogger sets the logger for per-record decisions (debug level).
func (r *Reconciler) SetLogger(l *zap.Logger) {
	r.logger = l
}

// ByID reconciles records whose ids have already been resolved through the
// merge history.
//
// A merged id is renamed to its target when the target is placed in the
// database or listed in unmappable, and deleted otherwise. A merge target
// that is already the original id of another record, or that an earlier
// record was renamed to, causes the later record to be deleted: the first
// record in input order keeps the rename. Records whose id is unchanged are
// kept if placed or unmappable, and deleted otherwise. Placed ids get position
// and chromosome updates wherever their dataset coordinate disagrees with the
// database; alt-only placements are never compared.
func (r *Reconciler) ByID(mappings []Mapping, positions posindex.ByID, unmappable rsid.IDSet) *Plan {
	plan := &Plan{}

	originals := make(rsid.IDSet, len(mappings))
	for _, m := range mappings {
		originals.Add(m.ID)
	}
	renamedTo := make(rsid.IDSet)

	renameOnce := func(m Mapping, target string) bool {
		if renamedTo.Has(target) {
			r.logger.Debug("delete: merge target already claimed",
				zap.String("id", m.ID), zap.String("target", target))
			plan.delete(m.ID)
			return false
		}
		renamedTo.Add(target)
		plan.rename(m.ID, target)
		return true
	}

	for _, m := range mappings {
		switch m.Resolved.Outcome {
		case rsid.Deleted:
			r.logger.Debug("delete: withdrawn", zap.String("id", m.ID))
			plan.delete(m.ID)

		case rsid.Redirected:
			target := m.Resolved.ID
			if target == m.ID {
				r.keepOrDelete(plan, m, positions, unmappable)
				continue
			}
			if originals.Has(target) {
				r.logger.Debug("delete: merge target present in dataset",
					zap.String("id", m.ID), zap.String("target", target))
				plan.delete(m.ID)
				continue
			}
			if p, ok := positions[target]; ok {
				if renameOnce(m, target) {
					r.compare(plan, target, m, p)
				}
				continue
			}
			if unmappable.Has(target) {
				r.logger.Debug("rename without coordinate check: target unmappable",
					zap.String("id", m.ID), zap.String("target", target))
				renameOnce(m, target)
				continue
			}
			r.logger.Debug("delete: merge target not in database",
				zap.String("id", m.ID), zap.String("target", target))
			plan.delete(m.ID)

		default:
			r.keepOrDelete(plan, m, positions, unmappable)
		}
	}

	return plan
}

func (r *Reconciler) keepOrDelete(plan *Plan, m Mapping, positions posindex.ByID, unmappable rsid.IDSet) {
	id := m.ID
	if p, ok := positions[id]; ok {
		r.compare(plan, id, m, p)
		return
	}
	if unmappable.Has(id) {
		r.logger.Debug("keep: unmappable", zap.String("id", id))
		return
	}
	r.logger.Debug("delete: not in database", zap.String("id", id))
	plan.delete(m.ID)
}

// compare emits the coordinate updates needed to move id from the dataset
// coordinate of m to placement p.
func (r *Reconciler) compare(plan *Plan, id string, m Mapping, p posindex.Placement) {
	if p.AltOnly {
		r.logger.Debug("skip coordinate check: alt-only placement", zap.String("id", id))
		return
	}

	if m.Position != p.Position {
		r.logger.Debug("position update",
			zap.String("id", id),
			zap.Stringer("from", m.Coordinate()),
			zap.Int64("to", p.Position))
		plan.PositionUpdates = append(plan.PositionUpdates, PositionUpdate{ID: id, Position: p.Position})
	}
	if m.Chromosome != p.Chromosome {
		r.logger.Debug("chromosome update",
			zap.String("id", id),
			zap.Stringer("from", m.Coordinate()),
			zap.String("to", p.Chromosome))
		plan.ChromosomeUpdates = append(plan.ChromosomeUpdates, ChromosomeUpdate{ID: id, Chromosome: p.Chromosome})
	}
}

// ByCoordOptions controls by-coordinate reconciliation.
type ByCoordOptions struct {
	// KeepMulti records ambiguous coordinates and renames to the first
	// candidate instead of deleting.
	KeepMulti bool
	// KeepUnmappedNamed keeps rs-prefixed ids that cannot be mapped.
	KeepUnmappedNamed bool
	// SkipNamed leaves rs-prefixed ids untouched.
	SkipNamed bool
}

// ByCoord reconciles records by looking up the ids the database places at
// each record's coordinate. batchIDs holds every id of the dataset; a
// multi-mapped record is not renamed to a candidate already in it.
func (r *Reconciler) ByCoord(sites []Site, batchIDs rsid.IDSet, positions posindex.ByCoord, opts ByCoordOptions) *Plan {
	plan := &Plan{}

	for _, s := range sites {
		named := isNamed(s.ID)
		if opts.SkipNamed && named {
			continue
		}

		candidates, ok := positions[s.Coordinate]
		switch {
		case !ok || len(candidates) == 0:
			if opts.KeepUnmappedNamed && named {
				r.logger.Debug("keep: unmapped named id", zap.String("id", s.ID))
				continue
			}
			r.logger.Debug("delete: no database entry at coordinate",
				zap.String("id", s.ID), zap.Stringer("coordinate", s.Coordinate))
			plan.delete(s.ID)

		case len(candidates) == 1:
			if candidates[0] != s.ID {
				r.logger.Debug("rename: id at coordinate",
					zap.String("id", s.ID), zap.String("target", candidates[0]))
				plan.rename(s.ID, candidates[0])
			}

		case !opts.KeepMulti:
			if opts.KeepUnmappedNamed && named {
				continue
			}
			r.logger.Debug("delete: multi-mapped coordinate",
				zap.String("id", s.ID),
				zap.Stringer("coordinate", s.Coordinate),
				zap.Strings("candidates", candidates))
			plan.delete(s.ID)

		default:
			plan.MultiMapped = append(plan.MultiMapped, MultiMapped{
				Coordinate: s.Coordinate,
				Candidates: append([]string(nil), candidates...),
			})
			first := candidates[0]
			if first != s.ID && !batchIDs.Has(first) {
				plan.rename(s.ID, first)
			}
		}
	}

	return plan
}
