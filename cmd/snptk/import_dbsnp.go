package main

import (
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/snptk/snptk/internal/dbsnp"
	"github.com/snptk/snptk/internal/duckdb"
)

func (c *cli) newImportDbsnpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import-dbsnp --db FILE --dbsnp PATH",
		Short: "Load a dbSNP dump into a DuckDB database",
		Long: `Scan the dbSNP dump once and store every placement in a DuckDB database.
The map commands accept --dbsnp-db to query it instead of rescanning the dump.`,
		Example: `  snptk import-dbsnp --db dbsnp.duckdb --dbsnp dbsnp/`,
		Args:    exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runImportDbsnp(cmd)
		},
	}

	cmd.Flags().String("db", "", "DuckDB database file to create or replace")
	addDbsnpFlags(cmd, false)

	return cmd
}

func (c *cli) runImportDbsnp(cmd *cobra.Command) error {
	dbPath := c.v.GetString("db")
	if dbPath == "" {
		return usagef("--db is required")
	}
	dumpPath := c.v.GetString("dbsnp")
	if dumpPath == "" {
		return usagef("--dbsnp is required")
	}

	shards, err := dbsnp.Shards(dumpPath)
	if err != nil {
		return err
	}

	store, err := duckdb.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()
	store.SetLogger(c.logger)

	start := time.Now()
	n, err := store.Import(cmd.Context(), shards, c.dbsnpOptions())
	if err != nil {
		return err
	}

	c.logger.Info("imported dbsnp",
		zap.String("db", dbPath),
		zap.Int("shards", len(shards)),
		zap.Int64("rows", n),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}
