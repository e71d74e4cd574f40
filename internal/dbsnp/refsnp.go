package dbsnp

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/goccy/go-json"
)

// refsnp is the subset of an NCBI refsnp JSON line we read.
type refsnp struct {
	RefsnpID  string `json:"refsnp_id"`
	Movements []struct {
		Allele struct {
			SeqID    string `json:"seq_id"`
			Position int64  `json:"position"`
		} `json:"allele_in_cur_release"`
	} `json:"present_obs_movements"`
}

var chromosomeName = regexp.MustCompile(`chr([^.]+)\.json`)

// ChromosomeFromName returns the chromosome of a per-chromosome refsnp file
// such as refsnp-chr7.json.bz2.
func ChromosomeFromName(path string) (string, bool) {
	m := chromosomeName.FindStringSubmatch(filepath.Base(path))
	if m == nil {
		return "", false
	}
	return m[1], true
}

// ParseStats counts the outcome of ParseRefSNP.
type ParseStats struct {
	Rows    int
	Skipped int // entries without a current placement
}

// ParseRefSNP converts NCBI refsnp JSON lines for one chromosome into dump
// rows "id<TAB>chromosome<TAB>position<TAB>seq_id" readable by Scan. The
// position is the 0-based placement of the first present observation.
func ParseRefSNP(r io.Reader, chromosome string, w io.Writer) (ParseStats, error) {
	var stats ParseStats
	bw := bufio.NewWriter(w)
	dec := json.NewDecoder(r)
	for entry := 1; ; entry++ {
		var rec refsnp
		if err := dec.Decode(&rec); err != nil {
			if err == io.EOF {
				break
			}
			return stats, fmt.Errorf("decode refsnp entry %d: %w", entry, err)
		}
		if rec.RefsnpID == "" || len(rec.Movements) == 0 {
			stats.Skipped++
			continue
		}

		a := rec.Movements[0].Allele
		line := rec.RefsnpID + "\t" + chromosome + "\t" + strconv.FormatInt(a.Position, 10) + "\t" + a.SeqID + "\n"
		if _, err := bw.WriteString(line); err != nil {
			return stats, err
		}
		stats.Rows++
	}
	return stats, bw.Flush()
}
