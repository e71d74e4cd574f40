package rsid

import (
	"fmt"
	"io"
	"strings"

	"github.com/snptk/snptk/internal/fileio"
)

// MergeFormat selects the layout of a merge table.
type MergeFormat int

const (
	// MergePairs rows are "historical_id redirect_id".
	MergePairs MergeFormat = iota
	// MergeLegacy rows are tab-separated "high_id low_id current_id" triples
	// (NCBI RsMergeArch). The edge is high -> current, or high -> low when
	// current is empty.
	MergeLegacy
)

// ParseMergeFormat parses "pairs" or "legacy".
func ParseMergeFormat(s string) (MergeFormat, error) {
	switch strings.ToLower(s) {
	case "", "pairs":
		return MergePairs, nil
	case "legacy":
		return MergeLegacy, nil
	}
	return 0, fmt.Errorf("unknown merge table format %q", s)
}

func (f MergeFormat) String() string {
	if f == MergeLegacy {
		return "legacy"
	}
	return "pairs"
}

// normalize accepts "123" or "rs123" and returns "123".
func normalize(id string) (string, bool) {
	if n, ok := Numeric(id); ok {
		return n, true
	}
	return Numeric(Prefix + id)
}

// LoadMergeTable reads a merge table file, or every file of a directory in
// name order. Later rows overwrite earlier ones for the same historical id.
func LoadMergeTable(path string, format MergeFormat) (MergeIndex, error) {
	files, err := fileio.ListFiles(path)
	if err != nil {
		return nil, fmt.Errorf("merge table: %w", err)
	}

	idx := make(MergeIndex)
	for _, name := range files {
		if err := loadFile(name, func(r io.Reader) error {
			return ReadMergeTable(r, name, format, idx)
		}); err != nil {
			return nil, err
		}
	}
	return idx, nil
}

// ReadMergeTable adds the edges read from r to idx.
func ReadMergeTable(r io.Reader, name string, format MergeFormat, idx MergeIndex) error {
	s := fileio.NewScanner(r, name)
	for s.Scan() {
		line := s.Text()
		if isBlank(line) {
			continue
		}

		var from, to string
		switch format {
		case MergeLegacy:
			fields := strings.Split(line, "\t")
			if len(fields) < 3 {
				return s.Errorf("expected at least 3 fields, found %d", len(fields))
			}
			from, to = fields[0], fields[2]
			if to == "" {
				to = fields[1]
			}
		default:
			fields := strings.Fields(line)
			if len(fields) < 2 {
				return s.Errorf("expected at least 2 fields, found %d", len(fields))
			}
			from, to = fields[0], fields[1]
		}

		hist, ok := normalize(from)
		if !ok {
			return s.Errorf("invalid snp id: %s", from)
		}
		redirect, ok := normalize(to)
		if !ok {
			return s.Errorf("invalid snp id: %s", to)
		}
		idx[hist] = redirect
	}
	return s.Err()
}

// LoadHistory reads the numeric ids of withdrawn SNPs from a SNPHistory file.
// Rows mentioning a re-activation are not withdrawals and are skipped.
func LoadHistory(path string) (IDSet, error) {
	withdrawn := make(IDSet)
	if err := loadFile(path, func(r io.Reader) error {
		return ReadHistory(r, path, withdrawn)
	}); err != nil {
		return nil, err
	}
	return withdrawn, nil
}

// ReadHistory adds withdrawn ids read from r to set.
func ReadHistory(r io.Reader, name string, set IDSet) error {
	s := fileio.NewScanner(r, name)
	for s.Scan() {
		line := s.Text()
		if isBlank(line) {
			continue
		}
		if strings.Contains(strings.ToLower(line), "re-activ") {
			continue
		}
		first := strings.Fields(line)[0]
		id, ok := normalize(first)
		if !ok {
			return s.Errorf("invalid snp id: %s", first)
		}
		set.Add(id)
	}
	return s.Err()
}

// LoadIDList reads the first column of every row, e.g. an include file of
// ids that must never be deleted.
func LoadIDList(path string) (IDSet, error) {
	ids := make(IDSet)
	if err := loadFile(path, func(r io.Reader) error {
		s := fileio.NewScanner(r, path)
		for s.Scan() {
			if isBlank(s.Text()) {
				continue
			}
			ids.Add(strings.Fields(s.Text())[0])
		}
		return s.Err()
	}); err != nil {
		return nil, err
	}
	return ids, nil
}

func loadFile(path string, fn func(io.Reader) error) error {
	f, err := fileio.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return fn(f)
}

func isBlank(line string) bool {
	t := strings.TrimSpace(line)
	return t == "" || strings.HasPrefix(t, "#")
}
