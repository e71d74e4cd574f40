// Package rsid resolves reference SNP (rs) ids through NCBI merge history.
//
// Merge tables, withdrawal history and allow-lists are loaded once into plain
// maps and passed explicitly to Resolve; nothing here holds global state.
package rsid

import (
	"errors"
	"fmt"
)

// Prefix marks a reference SNP id, e.g. "rs123".
const Prefix = "rs"

// ErrCycleDetected is matched by every CycleError.
var ErrCycleDetected = errors.New("merge cycle detected")

// CycleError reports a merge chain that did not terminate within the hop bound.
type CycleError struct {
	ID   string
	Hops int
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("merge chain for %s exceeded %d hops", e.ID, e.Hops)
}

// Is implements errors.Is support.
func (e *CycleError) Is(target error) bool {
	return target == ErrCycleDetected
}

// MergeIndex maps a historical numeric id to the numeric id it was merged into.
type MergeIndex map[string]string

// Outcome classifies the result of following a merge chain.
type Outcome int

const (
	// Unchanged means the id has no merge history or is not a reference id.
	Unchanged Outcome = iota
	// Redirected means the id was merged; Resolution.ID is the terminal id.
	Redirected
	// Deleted means the chain reached an id withdrawn from the database.
	Deleted
)

func (o Outcome) String() string {
	switch o {
	case Redirected:
		return "redirected"
	case Deleted:
		return "deleted"
	}
	return "unchanged"
}

// Resolution is the result of Resolve.
type Resolution struct {
	Outcome Outcome
	ID      string // terminal id with prefix; set only when Outcome is Redirected
}

// Same returns an Unchanged resolution.
func Same() Resolution { return Resolution{Outcome: Unchanged} }

// Redirect returns a Redirected resolution to id.
func Redirect(id string) Resolution { return Resolution{Outcome: Redirected, ID: id} }

// Withdrawn returns a Deleted resolution.
func Withdrawn() Resolution { return Resolution{Outcome: Deleted} }

// Target returns the id original resolves to, or "" when it was deleted.
func (r Resolution) Target(original string) string {
	switch r.Outcome {
	case Redirected:
		return r.ID
	case Deleted:
		return ""
	}
	return original
}

// Numeric strips the rs prefix from id and reports whether the remainder is
// a non-empty run of digits.
func Numeric(id string) (string, bool) {
	if len(id) <= len(Prefix) || id[:len(Prefix)] != Prefix {
		return "", false
	}
	n := id[len(Prefix):]
	for i := 0; i < len(n); i++ {
		if n[i] < '0' || n[i] > '9' {
			return "", false
		}
	}
	return n, true
}

// Resolve follows merges from id to its current id.
//
// Ids that are not rs-prefixed numbers, and ids absent from merges, resolve
// to Unchanged. Otherwise each merge edge is one hop; reaching an id in
// withdrawn yields Deleted. The walk is bounded by len(merges)+1 hops and
// fails with a *CycleError past that.
func Resolve(id string, merges MergeIndex, withdrawn IDSet) (Resolution, error) {
	cur, ok := Numeric(id)
	if !ok {
		return Same(), nil
	}
	if _, ok := merges[cur]; !ok {
		return Same(), nil
	}

	bound := len(merges) + 1
	for hops := 0; ; hops++ {
		if withdrawn.Has(cur) {
			return Withdrawn(), nil
		}
		next, ok := merges[cur]
		if !ok {
			break
		}
		if hops >= bound {
			return Resolution{}, &CycleError{ID: id, Hops: bound}
		}
		cur = next
	}

	return Redirect(Prefix + cur), nil
}
