// Package duckdb persists dbSNP placements in DuckDB so that position indices
// can be answered by a join instead of a full rescan of the text dump.
package duckdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
	"go.uber.org/zap"
)

// Store manages a DuckDB connection holding imported dbSNP placements.
type Store struct {
	db     *sql.DB
	path   string
	logger *zap.Logger
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path, logger: zap.NewNop()}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// SetLogger sets the logger for import and query progress.
func (s *Store) SetLogger(l *zap.Logger) {
	s.logger = l
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ensureSchema creates tables if they don't exist.
//
// seq is the global scan order of the dump (shard order, then row order) and
// fixes the candidate order at multi-mapped coordinates. known is false for
// rows whose chromosome code is missing from the table; chrom then holds the
// raw code.
func (s *Store) ensureSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS snp_positions (
			seq BIGINT,
			id VARCHAR,
			chrom VARCHAR,
			pos BIGINT,
			alt_only BOOLEAN,
			known BOOLEAN
		)`,
		`ALTER TABLE snp_positions ADD COLUMN IF NOT EXISTS known BOOLEAN DEFAULT true`,
		`CREATE TABLE IF NOT EXISTS import_sources (
			shard BIGINT,
			path VARCHAR,
			size BIGINT,
			mod_time BIGINT,
			pos_offset BIGINT,
			row_count BIGINT
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
