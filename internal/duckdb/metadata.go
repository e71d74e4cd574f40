package duckdb

import (
	"fmt"
	"os"
	"time"
)

// FileFingerprint holds stat-based identity for a file.
type FileFingerprint struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// StatFile creates a FileFingerprint from an on-disk file.
func StatFile(path string) (FileFingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileFingerprint{}, err
	}
	return FileFingerprint{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// Matches reports whether f and o describe the same file contents.
func (f FileFingerprint) Matches(o FileFingerprint) bool {
	return f.Size == o.Size && f.ModTime.Equal(o.ModTime)
}

// Source is one imported dump shard.
type Source struct {
	FileFingerprint
	Shard  int
	Offset int64
	Rows   int64
}

// Sources returns the imported shards in shard order.
func (s *Store) Sources() ([]Source, error) {
	rows, err := s.db.Query(`SELECT shard, path, size, mod_time, pos_offset, row_count
		FROM import_sources ORDER BY shard`)
	if err != nil {
		return nil, fmt.Errorf("query sources: %w", err)
	}
	defer rows.Close()

	var sources []Source
	for rows.Next() {
		var src Source
		var modTime int64
		if err := rows.Scan(&src.Shard, &src.Path, &src.Size, &modTime, &src.Offset, &src.Rows); err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		src.ModTime = time.Unix(0, modTime)
		sources = append(sources, src)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sources: %w", err)
	}
	return sources, nil
}

// Fresh reports whether the store holds an import of exactly the files at
// paths, in order, with unchanged size and modification time.
func (s *Store) Fresh(paths []string) (bool, error) {
	sources, err := s.Sources()
	if err != nil {
		return false, err
	}
	if len(sources) == 0 || len(sources) != len(paths) {
		return false, nil
	}
	for i, p := range paths {
		fp, err := StatFile(p)
		if err != nil {
			return false, err
		}
		if sources[i].Path != p || !sources[i].Matches(fp) {
			return false, nil
		}
	}
	return true, nil
}
