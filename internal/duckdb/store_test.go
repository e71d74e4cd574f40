package duckdb

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snptk/snptk/internal/chrom"
	"github.com/snptk/snptk/internal/dbsnp"
	"github.com/snptk/snptk/internal/posindex"
	"github.com/snptk/snptk/internal/rsid"
)

func openInMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func writeDump(t *testing.T, contents ...string) (string, []dbsnp.Shard) {
	t.Helper()
	dir := t.TempDir()
	for i, c := range contents {
		name := filepath.Join(dir, fmt.Sprintf("%02d.txt", i+1))
		require.NoError(t, os.WriteFile(name, []byte(c), 0644))
	}
	shards, err := dbsnp.Shards(dir)
	require.NoError(t, err)
	return dir, shards
}

func TestOpenClose(t *testing.T) {
	s := openInMemory(t)

	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestOpen_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "dbsnp.duckdb")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestImport(t *testing.T) {
	ctx := context.Background()
	s := openInMemory(t)
	_, shards := writeDump(t,
		"123\t6\t122\n456\t6\t122\n\n789\tAltOnly\t\n",
		"111\tX\t9\n999\t1\t\n",
	)

	n, err := s.Import(ctx, shards, dbsnp.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, n, count)

	sources, err := s.Sources()
	require.NoError(t, err)
	require.Len(t, sources, 2)
	assert.Equal(t, 0, sources[0].Shard)
	assert.Equal(t, shards[1].Path, sources[1].Path)
	assert.Equal(t, int64(1), sources[1].Rows)
	assert.Equal(t, int64(dbsnp.DefaultOffset), sources[0].Offset)
}

func TestImport_ReplacesPrevious(t *testing.T) {
	ctx := context.Background()
	s := openInMemory(t)

	_, first := writeDump(t, "1\t1\t1\n2\t1\t2\n")
	_, err := s.Import(ctx, first, dbsnp.DefaultOptions())
	require.NoError(t, err)

	_, second := writeDump(t, "3\t1\t3\n")
	_, err = s.Import(ctx, second, dbsnp.DefaultOptions())
	require.NoError(t, err)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestImport_UnknownChromosome(t *testing.T) {
	ctx := context.Background()
	s := openInMemory(t)
	_, shards := writeDump(t, "123\t6\t122\tx\n999\tUn\t5\tx\n")

	n, err := s.Import(ctx, shards, dbsnp.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	byID, err := s.ByID(ctx, rsid.NewIDSet("rs123"))
	require.NoError(t, err, "unknown code on an id outside the interest set")
	assert.Equal(t, posindex.ByID{"rs123": posindex.At("6", 123)}, byID)

	_, err = s.ByID(ctx, rsid.NewIDSet("rs123", "rs999"))
	require.Error(t, err)
	assert.ErrorIs(t, err, chrom.ErrUnknownChromosome)

	_, err = s.ByCoord(ctx, posindex.NewKeySet("6:123"))
	require.Error(t, err)
	assert.ErrorIs(t, err, chrom.ErrUnknownChromosome)
	assert.Contains(t, err.Error(), "rs999")
}

func TestImport_FailureLeavesStoreEmpty(t *testing.T) {
	ctx := context.Background()
	s := openInMemory(t)

	_, good := writeDump(t, "1\t1\t1\n2\t1\t2\n")
	_, err := s.Import(ctx, good, dbsnp.DefaultOptions())
	require.NoError(t, err)

	_, shards := writeDump(t, "3\t1\t3\n4\t1\t4\n")
	shards = append(shards, dbsnp.Shard{Index: 1, Path: filepath.Join(t.TempDir(), "missing.gz")})

	_, err = s.Import(ctx, shards, dbsnp.DefaultOptions())
	require.Error(t, err)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n, "rows of the failed import must not remain")

	sources, err := s.Sources()
	require.NoError(t, err)
	assert.Empty(t, sources)
}

func TestStore_MatchesTextScan(t *testing.T) {
	ctx := context.Background()
	s := openInMemory(t)
	_, shards := writeDump(t,
		"123\t6\t122\n456\t6\t122\n789\tAltOnly\t5\n1\t1\t10\n",
		"1\t2\t20\n222\t6\t122\n333\t7\t7\n",
	)
	opts := dbsnp.DefaultOptions()

	_, err := s.Import(ctx, shards, opts)
	require.NoError(t, err)

	ids := rsid.NewIDSet("rs123", "rs456", "rs789", "rs1", "rs404")
	keys := posindex.NewKeySet("6:123", "7:8", "9:9")

	b := posindex.NewBuilder(shards, opts, 2)
	wantByID, err := b.ByID(ctx, ids)
	require.NoError(t, err)
	wantByCoord, err := b.ByCoord(ctx, keys)
	require.NoError(t, err)

	gotByID, err := s.ByID(ctx, ids)
	require.NoError(t, err)
	gotByCoord, err := s.ByCoord(ctx, keys)
	require.NoError(t, err)

	assert.Equal(t, wantByID, gotByID)
	assert.Equal(t, wantByCoord, gotByCoord)

	assert.Equal(t, posindex.At("2", 21), gotByID["rs1"])
	assert.Equal(t, posindex.AltOnlyPlacement(), gotByID["rs789"])
	assert.Equal(t, []string{"rs123", "rs456", "rs222"}, gotByCoord["6:123"])
}

func TestStore_EmptyInterest(t *testing.T) {
	ctx := context.Background()
	s := openInMemory(t)
	_, shards := writeDump(t, "1\t1\t1\n")
	_, err := s.Import(ctx, shards, dbsnp.DefaultOptions())
	require.NoError(t, err)

	byID, err := s.ByID(ctx, rsid.NewIDSet())
	require.NoError(t, err)
	assert.Empty(t, byID)

	byCoord, err := s.ByCoord(ctx, posindex.NewKeySet())
	require.NoError(t, err)
	assert.Empty(t, byCoord)
}

func TestFresh(t *testing.T) {
	ctx := context.Background()
	s := openInMemory(t)
	_, shards := writeDump(t, "1\t1\t1\n", "2\t1\t2\n")
	paths := []string{shards[0].Path, shards[1].Path}

	fresh, err := s.Fresh(paths)
	require.NoError(t, err)
	assert.False(t, fresh, "nothing imported")

	_, err = s.Import(ctx, shards, dbsnp.DefaultOptions())
	require.NoError(t, err)

	fresh, err = s.Fresh(paths)
	require.NoError(t, err)
	assert.True(t, fresh)

	fresh, err = s.Fresh(paths[:1])
	require.NoError(t, err)
	assert.False(t, fresh, "different shard list")

	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(paths[1], later, later))
	fresh, err = s.Fresh(paths)
	require.NoError(t, err)
	assert.False(t, fresh, "modified shard")
}

func TestFileFingerprint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.txt")
	require.NoError(t, os.WriteFile(path, []byte("abc"), 0644))

	fp, err := StatFile(path)
	require.NoError(t, err)
	assert.Equal(t, int64(3), fp.Size)
	assert.True(t, fp.Matches(fp))

	_, err = StatFile(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
