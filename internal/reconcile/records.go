package reconcile

import (
	"fmt"
	"strings"

	"github.com/snptk/snptk/internal/bim"
	"github.com/snptk/snptk/internal/chrom"
	"github.com/snptk/snptk/internal/posindex"
	"github.com/snptk/snptk/internal/rsid"
)

// Mapping is one dataset record prepared for by-id reconciliation.
type Mapping struct {
	ID         string // original id
	Chromosome string // canonical
	Position   int64  // offset applied
	Resolved   rsid.Resolution
}

// Coordinate returns the original coordinate of m.
func (m Mapping) Coordinate() chrom.CoordinateKey {
	return chrom.Key(m.Chromosome, m.Position)
}

// Site is one dataset record prepared for by-coordinate reconciliation.
type Site struct {
	ID         string
	Coordinate chrom.CoordinateKey
}

// ResolveRecords resolves the id of every record through merges. Coordinates
// are canonicalized with t after adding offset to the dataset positions.
// A merge cycle aborts with an error wrapping *rsid.CycleError.
func ResolveRecords(records []bim.Record, t chrom.Table, offset int64, merges rsid.MergeIndex, withdrawn rsid.IDSet) ([]Mapping, error) {
	mappings := make([]Mapping, len(records))
	for i, r := range records {
		res, err := rsid.Resolve(r.ID, merges, withdrawn)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", r.ID, err)
		}
		mappings[i] = Mapping{
			ID:         r.ID,
			Chromosome: t.CanonicalOrRaw(r.Chromosome),
			Position:   r.Position + offset,
			Resolved:   res,
		}
	}
	return mappings, nil
}

// InterestIDs returns every original and resolved id in mappings, the ids a
// by-id position index must retain.
func InterestIDs(mappings []Mapping) rsid.IDSet {
	ids := make(rsid.IDSet, len(mappings))
	for _, m := range mappings {
		ids.Add(m.ID)
		if m.Resolved.Outcome == rsid.Redirected {
			ids.Add(m.Resolved.ID)
		}
	}
	return ids
}

// Sites computes the canonical coordinate of every record.
func Sites(records []bim.Record, t chrom.Table, offset int64) []Site {
	sites := make([]Site, len(records))
	for i, r := range records {
		sites[i] = Site{ID: r.ID, Coordinate: r.Coordinate(t, offset)}
	}
	return sites
}

// InterestKeys returns the coordinates of sites.
func InterestKeys(sites []Site) posindex.KeySet {
	keys := make(posindex.KeySet, len(sites))
	for _, s := range sites {
		keys.Add(s.Coordinate)
	}
	return keys
}

// BatchIDs returns the ids of every site.
func BatchIDs(sites []Site) rsid.IDSet {
	ids := make(rsid.IDSet, len(sites))
	for _, s := range sites {
		ids.Add(s.ID)
	}
	return ids
}

func isNamed(id string) bool {
	return strings.HasPrefix(id, rsid.Prefix)
}
