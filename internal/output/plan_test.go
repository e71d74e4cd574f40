package output

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snptk/snptk/internal/fileio"
	"github.com/snptk/snptk/internal/reconcile"
)

func testPlan() *reconcile.Plan {
	return &reconcile.Plan{
		Deletes: []string{"rs1", "rs2"},
		Renames: []reconcile.Rename{{From: "rs123", To: "rs456"}},
		PositionUpdates: []reconcile.PositionUpdate{
			{ID: "rs456", Position: 1000},
		},
		ChromosomeUpdates: []reconcile.ChromosomeUpdate{
			{ID: "rs456", Chromosome: "7"},
		},
		MultiMapped: []reconcile.MultiMapped{
			{Coordinate: "6:123", Candidates: []string{"rs456", "rs789"}},
		},
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func TestWritePlan(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	require.NoError(t, WritePlan(dir, testPlan(), true))

	assert.Equal(t, "rs1\nrs2\n", readFile(t, filepath.Join(dir, DeletedFile)))
	assert.Equal(t, "rs123\trs456\n", readFile(t, filepath.Join(dir, RenamedFile)))
	assert.Equal(t, "rs456\t1000\n", readFile(t, filepath.Join(dir, PositionFile)))
	assert.Equal(t, "rs456\t7\n", readFile(t, filepath.Join(dir, ChromosomeFile)))
	assert.Equal(t, "6:123\trs456,rs789\n", readFile(t, filepath.Join(dir, MultiMappedFile)))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 5, "no temporary files left")
}

func TestWritePlan_WithoutMulti(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WritePlan(dir, testPlan(), false))

	_, err := os.Stat(filepath.Join(dir, MultiMappedFile))
	assert.True(t, os.IsNotExist(err))
	assert.True(t, Exists(dir))
}

func TestWritePlan_RemovesStaleMulti(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WritePlan(dir, testPlan(), true))
	require.NoError(t, WritePlan(dir, &reconcile.Plan{}, false))

	_, err := os.Stat(filepath.Join(dir, MultiMappedFile))
	assert.True(t, os.IsNotExist(err))

	plan, err := ReadPlan(dir)
	require.NoError(t, err)
	assert.Empty(t, plan.MultiMapped)
	assert.True(t, plan.Empty())
}

func TestWritePlan_EmptyPlan(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WritePlan(dir, &reconcile.Plan{}, false))

	for _, name := range []string{DeletedFile, RenamedFile, PositionFile, ChromosomeFile} {
		assert.Empty(t, readFile(t, filepath.Join(dir, name)), name)
	}
}

func TestWritePlan_FailureLeavesNoFiles(t *testing.T) {
	dir := t.TempDir()
	// A directory in place of the chromosome file makes the final rename fail.
	require.NoError(t, os.Mkdir(filepath.Join(dir, ChromosomeFile), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ChromosomeFile, "keep"), nil, 0644))

	err := WritePlan(dir, testPlan(), true)
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ChromosomeFile, entries[0].Name())
}

func TestReadPlan_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	want := testPlan()
	require.NoError(t, WritePlan(dir, want, true))

	got, err := ReadPlan(dir)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestReadPlan_Missing(t *testing.T) {
	_, err := ReadPlan(t.TempDir())
	require.Error(t, err)
	assert.False(t, Exists(t.TempDir()))
}

func TestReadPlan_Malformed(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WritePlan(dir, &reconcile.Plan{}, false))
	require.NoError(t, os.WriteFile(filepath.Join(dir, PositionFile), []byte("rs1\t10\nrs2\tabc\n"), 0644))

	_, err := ReadPlan(dir)
	require.Error(t, err)

	var pe *fileio.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 2, pe.Line)
}

func TestReadPlan_WrongFieldCount(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WritePlan(dir, &reconcile.Plan{}, false))
	require.NoError(t, os.WriteFile(filepath.Join(dir, RenamedFile), []byte("rs1\n"), 0644))

	_, err := ReadPlan(dir)
	assert.ErrorIs(t, err, fileio.ErrFormat)
}
