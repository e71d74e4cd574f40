package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/snptk/snptk/internal/chrom"
	"github.com/snptk/snptk/internal/dbsnp"
	"github.com/snptk/snptk/internal/duckdb"
	"github.com/snptk/snptk/internal/posindex"
)

// addDbsnpFlags registers the flags that select the authoritative database.
func addDbsnpFlags(cmd *cobra.Command, withStore bool) {
	cmd.Flags().StringP("dbsnp", "d", "", "NCBI dbSNP SNPChrPosOnRef file or directory with split files")
	cmd.Flags().Int64("dbsnp-offset", dbsnp.DefaultOffset, "Add DBSNP_OFFSET to each dbSNP coordinate")
	if withStore {
		cmd.Flags().String("dbsnp-db", "", "DuckDB database created by import-dbsnp (used instead of --dbsnp)")
	}
}

func (c *cli) dbsnpOptions() dbsnp.Options {
	return dbsnp.Options{
		Offset:      c.v.GetInt64("dbsnp-offset"),
		Chromosomes: chrom.PlinkTable(),
		Logger:      c.logger,
	}
}

// positionSource returns the position index source selected by the flags:
// the DuckDB store when dbsnp-db is set, otherwise a parallel scan of dbsnp.
// The returned close function releases the source.
func (c *cli) positionSource(ctx context.Context) (posindex.Source, func() error, error) {
	opts := c.dbsnpOptions()

	if path := c.v.GetString("dbsnp-db"); path != "" {
		store, err := duckdb.Open(path)
		if err != nil {
			return nil, nil, err
		}
		store.SetLogger(c.logger)
		if err := c.checkStore(store, opts); err != nil {
			store.Close()
			return nil, nil, err
		}
		n, err := store.Count(ctx)
		if err != nil {
			store.Close()
			return nil, nil, err
		}
		c.logger.Info("using dbsnp database", zap.String("path", path), zap.Int64("placements", n))
		return store, store.Close, nil
	}

	path := c.v.GetString("dbsnp")
	if path == "" {
		return nil, nil, usagef("--dbsnp or --dbsnp-db is required")
	}
	shards, err := dbsnp.Shards(path)
	if err != nil {
		return nil, nil, err
	}
	c.logger.Info("scanning dbsnp",
		zap.String("path", path),
		zap.Int("shards", len(shards)),
		zap.Int64("offset", opts.Offset))

	b := posindex.NewBuilder(shards, opts, c.v.GetInt("workers"))
	b.SetLogger(c.logger)
	return b, func() error { return nil }, nil
}

// checkStore verifies that store was imported with the offset in use and,
// when dbsnp is also given, from the same unchanged files.
func (c *cli) checkStore(store *duckdb.Store, opts dbsnp.Options) error {
	sources, err := store.Sources()
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		return fmt.Errorf("dbsnp database is empty; run import-dbsnp first")
	}
	if sources[0].Offset != opts.Offset {
		return usagef("dbsnp database was imported with offset %d, but --dbsnp-offset is %d",
			sources[0].Offset, opts.Offset)
	}

	path := c.v.GetString("dbsnp")
	if path == "" {
		return nil
	}
	shards, err := dbsnp.Shards(path)
	if err != nil {
		return err
	}
	paths := make([]string, len(shards))
	for i, s := range shards {
		paths[i] = s.Path
	}
	fresh, err := store.Fresh(paths)
	if err != nil {
		return err
	}
	if !fresh {
		c.logger.Warn("dbsnp database does not match --dbsnp files; re-run import-dbsnp",
			zap.String("dbsnp", path))
	}
	return nil
}
