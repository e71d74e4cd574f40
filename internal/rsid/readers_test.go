package rsid

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/snptk/snptk/internal/fileio"
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

func TestReadMergeTable_Pairs(t *testing.T) {
	idx := make(MergeIndex)
	input := "# header\n123\t456\nrs456 rs789\n\n"
	require.NoError(t, ReadMergeTable(strings.NewReader(input), "merged.tsv", MergePairs, idx))
	assert.Equal(t, MergeIndex{"123": "456", "456": "789"}, idx)
}

func TestReadMergeTable_Legacy(t *testing.T) {
	idx := make(MergeIndex)
	input := "100\t50\t10\n200\t60\t\n"
	require.NoError(t, ReadMergeTable(strings.NewReader(input), "RsMergeArch", MergeLegacy, idx))
	assert.Equal(t, MergeIndex{"100": "10", "200": "60"}, idx)

	r, err := Resolve("rs100", idx, nil)
	require.NoError(t, err)
	assert.Equal(t, Redirect("rs10"), r)
}

func TestReadMergeTable_Malformed(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		format MergeFormat
	}{
		{"single field", "123\n", MergePairs},
		{"non numeric", "123\tabc\n", MergePairs},
		{"legacy short", "1\t2\n", MergeLegacy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ReadMergeTable(strings.NewReader(tt.input), "m", tt.format, make(MergeIndex))
			require.Error(t, err)
			assert.True(t, errors.Is(err, fileio.ErrFormat))
		})
	}
}

func TestLoadMergeTable_Directory(t *testing.T) {
	dir := t.TempDir()
	writeGzip(t, filepath.Join(dir, "01.gz"), "1\t2\n3\t4\n")
	writeGzip(t, filepath.Join(dir, "02.gz"), "3\t5\n")

	idx, err := LoadMergeTable(dir, MergePairs)
	require.NoError(t, err)
	assert.Equal(t, MergeIndex{"1": "2", "3": "5"}, idx)
}

func TestReadHistory(t *testing.T) {
	set := make(IDSet)
	input := "123\t2005\tWithdrawn\n456\t2008\tRe-activated by submitter\nrs789\n"
	require.NoError(t, ReadHistory(strings.NewReader(input), "SNPHistory", set))

	assert.True(t, set.Has("123"))
	assert.False(t, set.Has("456"))
	assert.True(t, set.Has("789"))
}

func TestLoadIDList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "include.gz")
	writeGzip(t, path, "rs456\nrs789\textra\n\n")

	ids, err := LoadIDList(path)
	require.NoError(t, err)
	assert.Equal(t, NewIDSet("rs456", "rs789"), ids)
}

func TestLoadIDList_NotFound(t *testing.T) {
	_, err := LoadIDList("/nonexistent/include.gz")
	assert.Error(t, err)
}

func TestParseMergeFormat(t *testing.T) {
	f, err := ParseMergeFormat("legacy")
	require.NoError(t, err)
	assert.Equal(t, MergeLegacy, f)

	f, err = ParseMergeFormat("")
	require.NoError(t, err)
	assert.Equal(t, MergePairs, f)

	_, err = ParseMergeFormat("json")
	assert.Error(t, err)
}
