package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/multierr"

	"github.com/snptk/snptk/internal/chrom"
	"github.com/snptk/snptk/internal/fileio"
	"github.com/snptk/snptk/internal/reconcile"
)

// Plan file names inside an output directory.
const (
	DeletedFile     = "deleted_snps.txt"
	RenamedFile     = "updated_snps.txt"
	PositionFile    = "coord_update.txt"
	ChromosomeFile  = "chr_update.txt"
	MultiMappedFile = "multi_snps.txt"
)

// planFile is one list of a plan serialized to its own file.
type planFile struct {
	name  string
	write func(tw *TabWriter) error
}

func planFiles(plan *reconcile.Plan, withMulti bool) []planFile {
	files := []planFile{
		{DeletedFile, func(tw *TabWriter) error {
			for _, id := range plan.Deletes {
				if err := tw.WriteRow(id); err != nil {
					return err
				}
			}
			return nil
		}},
		{RenamedFile, func(tw *TabWriter) error {
			for _, r := range plan.Renames {
				if err := tw.WriteRow(r.From, r.To); err != nil {
					return err
				}
			}
			return nil
		}},
		{PositionFile, func(tw *TabWriter) error {
			for _, u := range plan.PositionUpdates {
				if err := tw.WriteRow(u.ID, strconv.FormatInt(u.Position, 10)); err != nil {
					return err
				}
			}
			return nil
		}},
		{ChromosomeFile, func(tw *TabWriter) error {
			for _, u := range plan.ChromosomeUpdates {
				if err := tw.WriteRow(u.ID, u.Chromosome); err != nil {
					return err
				}
			}
			return nil
		}},
	}
	if withMulti {
		files = append(files, planFile{MultiMappedFile, func(tw *TabWriter) error {
			for _, m := range plan.MultiMapped {
				if err := tw.WriteRow(m.Coordinate.String(), strings.Join(m.Candidates, ",")); err != nil {
					return err
				}
			}
			return nil
		}})
	}
	return files
}

// WritePlan writes plan into dir, creating dir if needed. The four edit lists
// are always written, empty lists as empty files; the multi-mapped list only
// when withMulti is set, and a multi-mapped list left by an earlier run is
// removed otherwise.
//
// All files are first written to temporary names and renamed into place only
// after every one was written successfully. On failure no plan files are
// left behind.
func WritePlan(dir string, plan *reconcile.Plan, withMulti bool) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	files := planFiles(plan, withMulti)
	tmps := make([]string, 0, len(files))
	cleanup := func() {
		for _, tmp := range tmps {
			os.Remove(tmp)
		}
	}

	for _, pf := range files {
		tmp, err := writeTemp(dir, pf)
		if tmp != "" {
			tmps = append(tmps, tmp)
		}
		if err != nil {
			cleanup()
			return fmt.Errorf("write %s: %w", pf.name, err)
		}
	}

	var renamed []string
	for i, pf := range files {
		dest := filepath.Join(dir, pf.name)
		if err := os.Rename(tmps[i], dest); err != nil {
			cleanup()
			for _, r := range renamed {
				os.Remove(r)
			}
			return fmt.Errorf("rename %s: %w", pf.name, err)
		}
		renamed = append(renamed, dest)
	}

	if !withMulti {
		if err := os.Remove(filepath.Join(dir, MultiMappedFile)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove stale %s: %w", MultiMappedFile, err)
		}
	}
	return nil
}

func writeTemp(dir string, pf planFile) (path string, err error) {
	f, err := os.CreateTemp(dir, "."+pf.name+".*.tmp")
	if err != nil {
		return "", err
	}
	defer func() {
		err = multierr.Append(err, f.Close())
	}()

	tw := NewTabWriter(f)
	if err := pf.write(tw); err != nil {
		return f.Name(), err
	}
	return f.Name(), tw.Flush()
}

// ReadPlan reads a plan written by WritePlan. The multi-mapped file is
// optional; the four edit lists are required.
func ReadPlan(dir string) (*reconcile.Plan, error) {
	plan := &reconcile.Plan{}

	readers := []struct {
		name     string
		fields   int
		optional bool
		parse    func(s *fileio.Scanner, f []string) error
	}{
		{DeletedFile, 1, false, func(_ *fileio.Scanner, f []string) error {
			plan.Deletes = append(plan.Deletes, f[0])
			return nil
		}},
		{RenamedFile, 2, false, func(_ *fileio.Scanner, f []string) error {
			plan.Renames = append(plan.Renames, reconcile.Rename{From: f[0], To: f[1]})
			return nil
		}},
		{PositionFile, 2, false, func(s *fileio.Scanner, f []string) error {
			pos, err := strconv.ParseInt(f[1], 10, 64)
			if err != nil {
				return s.Errorf("invalid position: %s", f[1])
			}
			plan.PositionUpdates = append(plan.PositionUpdates, reconcile.PositionUpdate{ID: f[0], Position: pos})
			return nil
		}},
		{ChromosomeFile, 2, false, func(_ *fileio.Scanner, f []string) error {
			plan.ChromosomeUpdates = append(plan.ChromosomeUpdates, reconcile.ChromosomeUpdate{ID: f[0], Chromosome: f[1]})
			return nil
		}},
		{MultiMappedFile, 2, true, func(_ *fileio.Scanner, f []string) error {
			plan.MultiMapped = append(plan.MultiMapped, reconcile.MultiMapped{
				Coordinate: chrom.CoordinateKey(f[0]),
				Candidates: strings.Split(f[1], ","),
			})
			return nil
		}},
	}

	for _, r := range readers {
		path := filepath.Join(dir, r.name)
		if r.optional {
			if _, err := os.Stat(path); os.IsNotExist(err) {
				continue
			}
		}
		if err := readRows(path, r.fields, r.parse); err != nil {
			return nil, err
		}
	}
	return plan, nil
}

func readRows(path string, fields int, parse func(*fileio.Scanner, []string) error) error {
	f, err := fileio.Open(path)
	if err != nil {
		return fmt.Errorf("open plan file: %w", err)
	}
	defer f.Close()

	s := fileio.NewScanner(f, path)
	for s.Scan() {
		line := s.Text()
		if line == "" {
			continue
		}
		row := strings.Split(line, "\t")
		if len(row) != fields {
			return s.Errorf("expected %d fields, found %d", fields, len(row))
		}
		if err := parse(s, row); err != nil {
			return err
		}
	}
	return s.Err()
}

// Exists reports whether dir holds every required plan file.
func Exists(dir string) bool {
	for _, name := range []string{DeletedFile, RenamedFile, PositionFile, ChromosomeFile} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			return false
		}
	}
	return true
}
