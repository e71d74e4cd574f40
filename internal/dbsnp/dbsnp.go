// Package dbsnp reads NCBI dbSNP position dumps (SNPChrPosOnRef layout):
// tab-separated rows of numeric rs id, chromosome, 0-based position and
// optional extra fields, split across one or more gzip/BGZF files.
package dbsnp

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/snptk/snptk/internal/chrom"
	"github.com/snptk/snptk/internal/fileio"
	"github.com/snptk/snptk/internal/rsid"
)

// DefaultOffset converts dbSNP 0-based coordinates to 1-based.
const DefaultOffset = 1

// Column positions in a dump row.
const (
	colID = iota
	colChromosome
	colPosition
)

// Row is one placement read from a dump.
type Row struct {
	ID         string // with rs prefix
	Chromosome string // canonical code; raw code when Unknown; empty when AltOnly
	Position   int64  // offset applied; zero when AltOnly
	AltOnly    bool
	Unknown    bool // chromosome missing from the table; only with KeepUnknown
	Extra      []string
}

// Key returns the canonical coordinate of r. It must not be used for AltOnly rows.
func (r Row) Key() chrom.CoordinateKey {
	return chrom.Key(r.Chromosome, r.Position)
}

// Shard is one independently scanned dump file.
type Shard struct {
	Index int
	Path  string
}

// Shards lists the dump files under path (a file, or a directory whose files
// are taken in name order). Index gives the fixed merge order.
func Shards(path string) ([]Shard, error) {
	files, err := fileio.ListFiles(path)
	if err != nil {
		return nil, fmt.Errorf("dbsnp: %w", err)
	}
	shards := make([]Shard, len(files))
	for i, f := range files {
		shards[i] = Shard{Index: i, Path: f}
	}
	return shards, nil
}

// Options controls how rows are interpreted.
type Options struct {
	Offset      int64       // added to every position
	Chromosomes chrom.Table // canonicalization table
	Logger      *zap.Logger

	// Filter, when set, drops rows whose id it rejects before the
	// chromosome is looked up, so unknown codes on those rows are not fatal.
	Filter func(id string) bool

	// KeepUnknown returns rows with an unknown chromosome code marked
	// Unknown instead of failing the scan.
	KeepUnknown bool
}

// DefaultOptions returns PLINK chromosome coding with DefaultOffset.
func DefaultOptions() Options {
	return Options{
		Offset:      DefaultOffset,
		Chromosomes: chrom.PlinkTable(),
		Logger:      zap.NewNop(),
	}
}

// checkEvery is how many lines pass between context checks.
const checkEvery = 1 << 16

// Scan calls fn for every usable row of shard in file order.
//
// Rows with fewer than three fields or an empty or non-integer position are
// skipped and logged, as are rows rejected by opts.Filter. A chromosome missing
// from the table on any other row is fatal and returned as an error wrapping
// *chrom.UnknownError, unless opts.KeepUnknown is set.
func Scan(ctx context.Context, shard Shard, opts Options, fn func(Row) error) error {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	f, err := fileio.Open(shard.Path)
	if err != nil {
		return fmt.Errorf("open dbsnp file: %w", err)
	}
	defer f.Close()

	logger.Debug("scanning dbsnp shard",
		zap.Int("shard", shard.Index),
		zap.String("path", shard.Path),
		zap.Stringer("compression", f.Compression))

	s := fileio.NewScanner(f, shard.Path)
	var skipped int
	for s.Scan() {
		if s.Line()%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		row, status, err := parseRow(s.Text(), opts)
		if err != nil {
			return fmt.Errorf("%s:%d: %w", shard.Path, s.Line(), err)
		}
		if status == rowFiltered {
			continue
		}
		if status == rowNoPosition {
			skipped++
			logger.Debug("skipping dbsnp row without position",
				zap.String("path", shard.Path),
				zap.Int("line", s.Line()))
			continue
		}
		if err := fn(row); err != nil {
			return err
		}
	}
	if err := s.Err(); err != nil {
		return err
	}

	logger.Debug("finished dbsnp shard",
		zap.Int("shard", shard.Index),
		zap.Int("lines", s.Line()),
		zap.Int("skipped", skipped))
	return nil
}

type rowStatus int

const (
	rowOK rowStatus = iota
	rowNoPosition
	rowFiltered
)

// parseRow reports rowNoPosition for rows that carry no usable placement.
func parseRow(line string, opts Options) (Row, rowStatus, error) {
	fields := strings.Split(line, "\t")
	if len(fields) <= colPosition || fields[colPosition] == "" {
		return Row{}, rowNoPosition, nil
	}

	pos, err := strconv.ParseInt(fields[colPosition], 10, 64)
	if err != nil {
		return Row{}, rowNoPosition, nil
	}

	row := Row{ID: rsid.Prefix + fields[colID]}
	if opts.Filter != nil && !opts.Filter(row.ID) {
		return Row{}, rowFiltered, nil
	}
	if len(fields) > colPosition+1 {
		row.Extra = fields[colPosition+1:]
	}

	if fields[colChromosome] == chrom.AltOnly {
		row.AltOnly = true
		return row, rowOK, nil
	}

	c, err := opts.Chromosomes.Canonical(fields[colChromosome])
	if err != nil {
		if !opts.KeepUnknown {
			return Row{}, rowOK, err
		}
		c, row.Unknown = fields[colChromosome], true
	}
	row.Chromosome = c
	row.Position = pos + opts.Offset
	return row, rowOK, nil
}
