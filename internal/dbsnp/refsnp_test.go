package dbsnp

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const refsnpJSON = `{"refsnp_id":"123","present_obs_movements":[{"allele_in_cur_release":{"seq_id":"NC_000006.12","position":122}},{"allele_in_cur_release":{"seq_id":"NC_000006.12","position":999}}]}
{"refsnp_id":"456","present_obs_movements":[]}
{"refsnp_id":"789","present_obs_movements":[{"allele_in_cur_release":{"seq_id":"NC_000006.12","position":5}}]}
`

func TestParseRefSNP(t *testing.T) {
	var out bytes.Buffer
	stats, err := ParseRefSNP(strings.NewReader(refsnpJSON), "6", &out)
	require.NoError(t, err)
	assert.Equal(t, ParseStats{Rows: 2, Skipped: 1}, stats)
	assert.Equal(t, "123\t6\t122\tNC_000006.12\n789\t6\t5\tNC_000006.12\n", out.String())

	path := filepath.Join(t.TempDir(), "chr6.txt")
	require.NoError(t, os.WriteFile(path, out.Bytes(), 0644))
	var rows []Row
	err = Scan(context.Background(), Shard{Path: path}, DefaultOptions(), func(r Row) error {
		rows = append(rows, r)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "6:123", rows[0].Key().String())
}

func TestParseRefSNP_BadJSON(t *testing.T) {
	var out bytes.Buffer
	_, err := ParseRefSNP(strings.NewReader(`{"refsnp_id":`), "1", &out)
	assert.Error(t, err)
}

func TestChromosomeFromName(t *testing.T) {
	tests := []struct {
		path string
		want string
		ok   bool
	}{
		{"/data/refsnp-chr7.json.bz2", "7", true},
		{"refsnp-chrX.json", "X", true},
		{"refsnp-chrMT.json.gz", "MT", true},
		{"refsnp-merged.json.bz2", "", false},
	}
	for _, tt := range tests {
		got, ok := ChromosomeFromName(tt.path)
		assert.Equal(t, tt.ok, ok, tt.path)
		assert.Equal(t, tt.want, got, tt.path)
	}
}
