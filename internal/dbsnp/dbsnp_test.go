package dbsnp

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/snptk/snptk/internal/chrom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeGzip(t *testing.T, path, content string) {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
}

func scanAll(t *testing.T, path string, opts Options) ([]Row, error) {
	t.Helper()
	var rows []Row
	err := Scan(context.Background(), Shard{Path: path}, opts, func(r Row) error {
		rows = append(rows, r)
		return nil
	})
	return rows, err
}

func TestScan(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chr.gz")
	writeGzip(t, path,
		"123\t6\t122\t0\n"+
			"456\tX\t999\n"+
			"789\tAltOnly\t5\n"+
			"111\tUn\t\n"+
			"222\t1\n"+
			"333\t1\tabc\n")

	rows, err := scanAll(t, path, DefaultOptions())
	require.NoError(t, err)

	expected := []Row{
		{ID: "rs123", Chromosome: "6", Position: 123, Extra: []string{"0"}},
		{ID: "rs456", Chromosome: "23", Position: 1000},
		{ID: "rs789", AltOnly: true},
	}
	assert.Equal(t, expected, rows)
	assert.Equal(t, chrom.CoordinateKey("6:123"), rows[0].Key())
}

func TestScan_Offset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.txt")
	require.NoError(t, os.WriteFile(path, []byte("1\t2\t100\n"), 0644))

	opts := DefaultOptions()
	opts.Offset = 0
	rows, err := scanAll(t, path, opts)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(100), rows[0].Position)
}

func TestScan_UnknownChromosome(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.txt")
	require.NoError(t, os.WriteFile(path, []byte("1\t2\t100\n2\tNotOn\t5\n"), 0644))

	_, err := scanAll(t, path, DefaultOptions())
	require.Error(t, err)
	assert.True(t, errors.Is(err, chrom.ErrUnknownChromosome))
	assert.Contains(t, err.Error(), "bad.txt:2")
}

func TestScan_FilterBeforeChromosome(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rows.txt")
	require.NoError(t, os.WriteFile(path, []byte("1\t2\t100\n2\tUn\t5\n"), 0644))

	opts := DefaultOptions()
	opts.Filter = func(id string) bool { return id == "rs1" }
	rows, err := scanAll(t, path, opts)
	require.NoError(t, err)
	assert.Equal(t, []Row{{ID: "rs1", Chromosome: "2", Position: 101}}, rows)
}

func TestScan_KeepUnknown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rows.txt")
	require.NoError(t, os.WriteFile(path, []byte("2\tUn\t5\n"), 0644))

	opts := DefaultOptions()
	opts.KeepUnknown = true
	rows, err := scanAll(t, path, opts)
	require.NoError(t, err)
	assert.Equal(t, []Row{{ID: "rs2", Chromosome: "Un", Position: 6, Unknown: true}}, rows)
}

func TestScan_CallbackError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rows.txt")
	require.NoError(t, os.WriteFile(path, []byte("1\t2\t100\n2\t3\t5\n"), 0644))

	stop := errors.New("stop")
	calls := 0
	err := Scan(context.Background(), Shard{Path: path}, DefaultOptions(), func(Row) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestScan_NotFound(t *testing.T) {
	_, err := scanAll(t, "/nonexistent/dbsnp.gz", DefaultOptions())
	assert.Error(t, err)
}

func TestShards(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"chr2.gz", "chr1.gz"} {
		writeGzip(t, filepath.Join(dir, name), "")
	}

	shards, err := Shards(dir)
	require.NoError(t, err)
	assert.Equal(t, []Shard{
		{Index: 0, Path: filepath.Join(dir, "chr1.gz")},
		{Index: 1, Path: filepath.Join(dir, "chr2.gz")},
	}, shards)
}
