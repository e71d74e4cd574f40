package rsid

import (
	"bufio"
	"fmt"
	"io"

	"github.com/goccy/go-json"
)

// refsnpMerged is the subset of an NCBI refsnp-merged JSON line we read.
type refsnpMerged struct {
	RefsnpID string `json:"refsnp_id"`
	Snapshot struct {
		MergedInto []string `json:"merged_into"`
	} `json:"merged_snapshot_data"`
}

// ExtractMerged converts NCBI refsnp-merged JSON lines from r into
// "refsnp_id<TAB>merged_into" rows. Rows are distributed round-robin across
// outs. Entries without a merge target are skipped. It returns the number of
// rows written.
func ExtractMerged(r io.Reader, outs []io.Writer) (int, error) {
	if len(outs) == 0 {
		return 0, fmt.Errorf("extract merged: no outputs")
	}

	writers := make([]*bufio.Writer, len(outs))
	for i, o := range outs {
		writers[i] = bufio.NewWriter(o)
	}

	dec := json.NewDecoder(r)
	n, entry := 0, 0
	for {
		var rec refsnpMerged
		entry++
		if err := dec.Decode(&rec); err != nil {
			if err == io.EOF {
				break
			}
			return n, fmt.Errorf("decode refsnp-merged entry %d: %w", entry, err)
		}
		if rec.RefsnpID == "" || len(rec.Snapshot.MergedInto) == 0 {
			continue
		}

		w := writers[n%len(writers)]
		if _, err := w.WriteString(rec.RefsnpID + "\t" + rec.Snapshot.MergedInto[0] + "\n"); err != nil {
			return n, err
		}
		n++
	}

	for _, w := range writers {
		if err := w.Flush(); err != nil {
			return n, err
		}
	}
	return n, nil
}
