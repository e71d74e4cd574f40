package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	goduckdb "github.com/marcboeker/go-duckdb"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/snptk/snptk/internal/chrom"
	"github.com/snptk/snptk/internal/dbsnp"
	"github.com/snptk/snptk/internal/posindex"
	"github.com/snptk/snptk/internal/rsid"
)

var _ posindex.Source = (*Store)(nil)

// newAppender creates an appender for table on conn.
func newAppender(conn *sql.Conn, table string) (*goduckdb.Appender, error) {
	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", table)
		return err
	}); err != nil {
		return nil, fmt.Errorf("create appender: %w", err)
	}
	return appender, nil
}

// Import replaces the stored placements with the rows of shards, scanned in
// shard order. It returns the number of rows stored. Rows with an unknown
// chromosome code are stored with known = false and only fail the queries
// that would use them. On error the store is left empty.
func (s *Store) Import(ctx context.Context, shards []dbsnp.Shard, opts dbsnp.Options) (total int64, err error) {
	if err := s.clear(ctx); err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			err = multierr.Append(err, s.clear(context.WithoutCancel(ctx)))
		}
	}()

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return 0, fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	appender, err := newAppender(conn, "snp_positions")
	if err != nil {
		return 0, err
	}
	defer func() {
		err = multierr.Append(err, appender.Close())
	}()

	opts.Filter = nil
	opts.KeepUnknown = true

	type imported struct {
		shard dbsnp.Shard
		fp    FileFingerprint
		rows  int64
	}
	var done []imported

	var seq int64
	for _, shard := range shards {
		fp, err := StatFile(shard.Path)
		if err != nil {
			return 0, fmt.Errorf("stat %s: %w", shard.Path, err)
		}

		var rows int64
		err = dbsnp.Scan(ctx, shard, opts, func(r dbsnp.Row) error {
			seq++
			rows++
			return appender.AppendRow(seq, r.ID, r.Chromosome, r.Position, r.AltOnly, !r.Unknown)
		})
		if err != nil {
			return 0, fmt.Errorf("import %s: %w", shard.Path, err)
		}

		s.logger.Info("imported dbsnp shard",
			zap.String("path", shard.Path),
			zap.Int64("rows", rows))
		done = append(done, imported{shard: shard, fp: fp, rows: rows})
	}

	if err := appender.Flush(); err != nil {
		return 0, fmt.Errorf("flush positions: %w", err)
	}

	for _, d := range done {
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO import_sources VALUES (?, ?, ?, ?, ?, ?)`,
			int64(d.shard.Index), d.shard.Path, d.fp.Size, d.fp.ModTime.UnixNano(), opts.Offset, d.rows,
		); err != nil {
			return 0, fmt.Errorf("record source: %w", err)
		}
	}

	return seq, nil
}

// clear removes all placements and import records.
func (s *Store) clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM snp_positions"); err != nil {
		return fmt.Errorf("clear positions: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM import_sources"); err != nil {
		return fmt.Errorf("clear sources: %w", err)
	}
	return nil
}

// Count returns the number of stored placements.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT count(*) FROM snp_positions").Scan(&n); err != nil {
		return 0, fmt.Errorf("count positions: %w", err)
	}
	return n, nil
}

// withInterest loads rows into a scratch table, calls fn with its name and
// drops the table afterwards. All statements run on conn.
func withInterest(ctx context.Context, conn *sql.Conn, columns string, fill func(*goduckdb.Appender) error, fn func(table string) error) (err error) {
	table := "interest_" + strings.ReplaceAll(uuid.NewString(), "-", "")

	if _, err := conn.ExecContext(ctx, fmt.Sprintf("CREATE TABLE %s (%s)", table, columns)); err != nil {
		return fmt.Errorf("create interest table: %w", err)
	}
	defer func() {
		_, dropErr := conn.ExecContext(context.WithoutCancel(ctx), "DROP TABLE IF EXISTS "+table)
		err = multierr.Append(err, dropErr)
	}()

	appender, err := newAppender(conn, table)
	if err != nil {
		return err
	}
	if err := fill(appender); err != nil {
		appender.Close()
		return fmt.Errorf("fill interest table: %w", err)
	}
	if err := appender.Close(); err != nil {
		return fmt.Errorf("flush interest table: %w", err)
	}

	return fn(table)
}

// ByID returns the placement of every id in ids. Rows are read in import
// order, so the last placement of a repeated id wins, as with a text scan.
func (s *Store) ByID(ctx context.Context, ids rsid.IDSet) (posindex.ByID, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	idx := make(posindex.ByID)
	fill := func(a *goduckdb.Appender) error {
		for id := range ids {
			if err := a.AppendRow(id); err != nil {
				return err
			}
		}
		return nil
	}
	query := func(table string) error {
		rows, err := conn.QueryContext(ctx, fmt.Sprintf(`SELECT p.id, p.chrom, p.pos, p.alt_only, p.known
			FROM snp_positions p JOIN %s i ON p.id = i.id
			ORDER BY p.seq`, table))
		if err != nil {
			return fmt.Errorf("query positions by id: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var id, c string
			var pos int64
			var altOnly, known bool
			if err := rows.Scan(&id, &c, &pos, &altOnly, &known); err != nil {
				return fmt.Errorf("scan position: %w", err)
			}
			if !altOnly && !known {
				return fmt.Errorf("%s: %w", id, &chrom.UnknownError{Code: c})
			}
			if altOnly {
				idx[id] = posindex.AltOnlyPlacement()
			} else {
				idx[id] = posindex.At(c, pos)
			}
		}
		return rows.Err()
	}

	if err := withInterest(ctx, conn, "id VARCHAR", fill, query); err != nil {
		return nil, err
	}

	s.logger.Info("queried positions by id",
		zap.Int("interest", len(ids)),
		zap.Int("found", len(idx)))
	return idx, nil
}

// ByCoord returns the ids placed at every coordinate in keys, in import
// order. Alt-only rows are excluded. Any stored row with an unknown
// chromosome code fails the query, as it fails a text scan by coordinate.
func (s *Store) ByCoord(ctx context.Context, keys posindex.KeySet) (posindex.ByCoord, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	if err := firstUnknown(ctx, conn); err != nil {
		return nil, err
	}

	idx := make(posindex.ByCoord)
	fill := func(a *goduckdb.Appender) error {
		for k := range keys {
			c, pos, ok := k.Split()
			if !ok {
				continue
			}
			if err := a.AppendRow(c, pos); err != nil {
				return err
			}
		}
		return nil
	}
	query := func(table string) error {
		rows, err := conn.QueryContext(ctx, fmt.Sprintf(`SELECT p.id, p.chrom, p.pos
			FROM snp_positions p JOIN %s i ON p.chrom = i.chrom AND p.pos = i.pos
			WHERE NOT p.alt_only
			ORDER BY p.seq`, table))
		if err != nil {
			return fmt.Errorf("query positions by coordinate: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var id, c string
			var pos int64
			if err := rows.Scan(&id, &c, &pos); err != nil {
				return fmt.Errorf("scan position: %w", err)
			}
			k := chrom.Key(c, pos)
			idx[k] = append(idx[k], id)
		}
		return rows.Err()
	}

	if err := withInterest(ctx, conn, "chrom VARCHAR, pos BIGINT", fill, query); err != nil {
		return nil, err
	}

	s.logger.Info("queried positions by coordinate",
		zap.Int("interest", len(keys)),
		zap.Int("found", len(idx)))
	return idx, nil
}

// firstUnknown returns an error for the first stored row, in import order,
// whose chromosome code is unknown.
func firstUnknown(ctx context.Context, conn *sql.Conn) error {
	var id, c string
	err := conn.QueryRowContext(ctx, `SELECT id, chrom FROM snp_positions
		WHERE NOT known AND NOT alt_only ORDER BY seq LIMIT 1`).Scan(&id, &c)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil
	case err != nil:
		return fmt.Errorf("check chromosome codes: %w", err)
	}
	return fmt.Errorf("%s: %w", id, &chrom.UnknownError{Code: c})
}
