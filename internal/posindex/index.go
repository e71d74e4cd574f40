// Package posindex builds the in-memory position indices that reconciliation
// compares datasets against: placements by id and ids by coordinate.
//
// Only entries in a caller-supplied interest set are retained, so memory is
// bounded by the dataset rather than by the full database.
package posindex

import (
	"context"

	"go.uber.org/zap"

	"github.com/snptk/snptk/internal/chrom"
	"github.com/snptk/snptk/internal/dbsnp"
	"github.com/snptk/snptk/internal/rsid"
)

// Placement is the authoritative location of an id.
type Placement struct {
	Chromosome string
	Position   int64
	AltOnly    bool // placed only on an alternate contig; not comparable
}

// At returns a primary-assembly placement.
func At(chromosome string, position int64) Placement {
	return Placement{Chromosome: chromosome, Position: position}
}

// AltOnlyPlacement returns the alt-only marker placement.
func AltOnlyPlacement() Placement {
	return Placement{AltOnly: true}
}

// Key returns the coordinate of p. It must not be used for AltOnly placements.
func (p Placement) Key() chrom.CoordinateKey {
	return chrom.Key(p.Chromosome, p.Position)
}

// ByID maps an rs id to its placement.
type ByID map[string]Placement

// ByCoord maps a coordinate to the ids placed there, in database scan order.
// More than one id means the coordinate is multi-mapped.
type ByCoord map[chrom.CoordinateKey][]string

// KeySet is a set of coordinates.
type KeySet map[chrom.CoordinateKey]struct{}

// NewKeySet returns a set holding keys.
func NewKeySet(keys ...chrom.CoordinateKey) KeySet {
	s := make(KeySet, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

// Add inserts k.
func (s KeySet) Add(k chrom.CoordinateKey) {
	s[k] = struct{}{}
}

// Has reports whether k is in the set.
func (s KeySet) Has(k chrom.CoordinateKey) bool {
	_, ok := s[k]
	return ok
}

// Source builds position indices restricted to an interest set.
type Source interface {
	ByID(ctx context.Context, ids rsid.IDSet) (ByID, error)
	ByCoord(ctx context.Context, keys KeySet) (ByCoord, error)
}

// Builder scans dbSNP dump shards in parallel to build indices.
type Builder struct {
	shards  []dbsnp.Shard
	opts    dbsnp.Options
	workers int
	logger  *zap.Logger
}

var _ Source = (*Builder)(nil)

// NewBuilder creates a builder over shards. Shard order fixes the merge order.
// If workers is 0, runtime.NumCPU() is used.
func NewBuilder(shards []dbsnp.Shard, opts dbsnp.Options, workers int) *Builder {
	return &Builder{
		shards:  shards,
		opts:    opts,
		workers: workers,
		logger:  zap.NewNop(),
	}
}

// SetLogger sets the logger for progress messages.
func (b *Builder) SetLogger(l *zap.Logger) {
	b.logger = l
	b.opts.Logger = l
}

// ByID returns the placement of every id in ids found in the database.
// When an id occurs more than once, the last row in shard order wins.
// Rows of other ids are dropped before their chromosome is checked.
func (b *Builder) ByID(ctx context.Context, ids rsid.IDSet) (ByID, error) {
	idx := make(ByID)

	opts := b.opts
	opts.Filter = ids.Has

	scan := func(ctx context.Context, s dbsnp.Shard) (ByID, error) {
		partial := make(ByID)
		err := dbsnp.Scan(ctx, s, opts, func(r dbsnp.Row) error {
			if r.AltOnly {
				partial[r.ID] = AltOnlyPlacement()
			} else {
				partial[r.ID] = At(r.Chromosome, r.Position)
			}
			return nil
		})
		return partial, err
	}

	merge := func(partial ByID) {
		for id, p := range partial {
			idx[id] = p
		}
	}

	if err := scanShards(ctx, b.shards, b.workers, scan, merge); err != nil {
		return nil, err
	}

	b.logger.Info("built position index by id",
		zap.Int("shards", len(b.shards)),
		zap.Int("interest", len(ids)),
		zap.Int("found", len(idx)))
	return idx, nil
}

// ByCoord returns the ids placed at every coordinate in keys. Ids are listed
// in row order within a shard, and shards are concatenated in shard order.
// Alt-only rows have no coordinate and are not indexed. Every row's
// chromosome must be known, since the coordinate is needed to filter it.
func (b *Builder) ByCoord(ctx context.Context, keys KeySet) (ByCoord, error) {
	idx := make(ByCoord)

	scan := func(ctx context.Context, s dbsnp.Shard) (ByCoord, error) {
		partial := make(ByCoord)
		err := dbsnp.Scan(ctx, s, b.opts, func(r dbsnp.Row) error {
			if r.AltOnly {
				return nil
			}
			k := r.Key()
			if keys.Has(k) {
				partial[k] = append(partial[k], r.ID)
			}
			return nil
		})
		return partial, err
	}

	merge := func(partial ByCoord) {
		for k, ids := range partial {
			idx[k] = append(idx[k], ids...)
		}
	}

	if err := scanShards(ctx, b.shards, b.workers, scan, merge); err != nil {
		return nil, err
	}

	b.logger.Info("built position index by coordinate",
		zap.Int("shards", len(b.shards)),
		zap.Int("interest", len(keys)),
		zap.Int("found", len(idx)))
	return idx, nil
}
