// Package chrom canonicalizes chromosome names to PLINK numeric codes and
// builds the chromosome:position keys used to compare coordinates.
package chrom

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// AltOnly is the dbSNP chromosome sentinel for variants placed only on
// alternate or non-primary assembly contigs.
const AltOnly = "AltOnly"

// ErrUnknownChromosome is matched by every UnknownError.
var ErrUnknownChromosome = errors.New("unknown chromosome code")

// UnknownError reports a chromosome code missing from the canonicalization table.
type UnknownError struct {
	Code string
}

func (e *UnknownError) Error() string {
	return fmt.Sprintf("unknown chromosome code %q", e.Code)
}

// Is implements errors.Is support.
func (e *UnknownError) Is(target error) bool {
	return target == ErrUnknownChromosome
}

// Table maps chromosome names to canonical codes. It is built once and
// shared read-only.
type Table map[string]string

// PlinkTable returns the PLINK chromosome coding:
// 1-22 unchanged, X=23, Y=24, PAR=25, M and MT=26.
func PlinkTable() Table {
	t := make(Table, 27)
	for n := 1; n <= 22; n++ {
		s := strconv.Itoa(n)
		t[s] = s
	}
	t["X"] = "23"
	t["Y"] = "24"
	t["PAR"] = "25"
	t["M"] = "26"
	t["MT"] = "26"
	return t
}

// Canonical returns the code for name. A leading "chr" is ignored.
func (t Table) Canonical(name string) (string, error) {
	if c, ok := t[trimPrefix(name)]; ok {
		return c, nil
	}
	return "", &UnknownError{Code: name}
}

// CanonicalOrRaw returns the code for name, or name unchanged when the
// table has no entry for it. Dataset chromosomes such as PLINK's "0" or
// already-numeric "23" pass through this way.
func (t Table) CanonicalOrRaw(name string) string {
	if c, ok := t[trimPrefix(name)]; ok {
		return c
	}
	return name
}

func trimPrefix(name string) string {
	if len(name) > 3 && strings.EqualFold(name[:3], "chr") {
		return name[3:]
	}
	return name
}

// CoordinateKey is a canonical "chromosome:position" string.
type CoordinateKey string

// Key builds the CoordinateKey for an already canonical chromosome.
func Key(chromosome string, position int64) CoordinateKey {
	return CoordinateKey(chromosome + ":" + strconv.FormatInt(position, 10))
}

// Split returns the chromosome and position of k.
func (k CoordinateKey) Split() (chromosome string, position int64, ok bool) {
	i := strings.LastIndexByte(string(k), ':')
	if i < 0 {
		return "", 0, false
	}
	pos, err := strconv.ParseInt(string(k[i+1:]), 10, 64)
	if err != nil {
		return "", 0, false
	}
	return string(k[:i]), pos, true
}

func (k CoordinateKey) String() string { return string(k) }
