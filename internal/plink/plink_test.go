package plink

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snptk/snptk/internal/output"
	"github.com/snptk/snptk/internal/reconcile"
)

func writeMap(t *testing.T, plan *reconcile.Plan) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, output.WritePlan(dir, plan, false))
	return dir
}

func TestCommands_AllSteps(t *testing.T) {
	dir := writeMap(t, &reconcile.Plan{
		Deletes:           []string{"rs1"},
		Renames:           []reconcile.Rename{{From: "rs2", To: "rs3"}},
		PositionUpdates:   []reconcile.PositionUpdate{{ID: "rs3", Position: 10}},
		ChromosomeUpdates: []reconcile.ChromosomeUpdate{{ID: "rs3", Chromosome: "7"}},
	})

	cmds, err := Commands("", dir, "in", "out")
	require.NoError(t, err)
	require.Len(t, cmds, 4)

	assert.Equal(t, Command{Path: "plink", Args: []string{
		"--bfile", "in", "--exclude", filepath.Join(dir, output.DeletedFile), "--make-bed", "--out", "out.step1",
	}}, cmds[0])
	assert.Equal(t, "--update-name", cmds[1].Args[2])
	assert.Equal(t, "out.step1", cmds[1].Args[1])
	assert.Equal(t, "--update-map", cmds[2].Args[2])
	assert.Equal(t, "--update-chr", cmds[3].Args[2])
	assert.Equal(t, "out.step3", cmds[3].Args[1])
	assert.Equal(t, "out", cmds[3].Args[len(cmds[3].Args)-1])
}

func TestCommands_SkipsEmptyFiles(t *testing.T) {
	dir := writeMap(t, &reconcile.Plan{
		Renames: []reconcile.Rename{{From: "rs2", To: "rs3"}},
	})

	cmds, err := Commands("/opt/plink", dir, "in", "out")
	require.NoError(t, err)
	require.Len(t, cmds, 1)
	assert.Equal(t, "/opt/plink --bfile in --update-name "+filepath.Join(dir, output.RenamedFile)+" --make-bed --out out", cmds[0].String())
}

func TestCommands_EmptyPlan(t *testing.T) {
	dir := writeMap(t, &reconcile.Plan{})

	cmds, err := Commands("", dir, "in", "out")
	require.NoError(t, err)
	require.Len(t, cmds, 1)
	assert.Equal(t, "plink --bfile in --make-bed --out out", cmds[0].String())
}

func TestCommands_MissingPlan(t *testing.T) {
	_, err := Commands("", t.TempDir(), "in", "out")
	assert.Error(t, err)
}

func TestDuplicateCommands(t *testing.T) {
	cmds := DuplicateCommands("", "data", "data.dedup")
	require.Len(t, cmds, 2)
	assert.Equal(t, "plink --bfile data --list-duplicate-vars ids-only suppress-first --out data.dedup.dups", cmds[0].String())
	assert.Equal(t, "plink --bfile data --exclude data.dedup.dups.dupvar --make-bed --out data.dedup", cmds[1].String())

	cmds = DuplicateCommands("/opt/plink", "in", "out")
	assert.Equal(t, "/opt/plink", cmds[1].Path)
}

func TestRunner_DryRun(t *testing.T) {
	var stdout bytes.Buffer
	r := NewRunner(&stdout, &stdout)
	r.DryRun = true

	cmds := []Command{
		{Path: "plink", Args: []string{"--bfile", "a"}},
		{Path: "plink", Args: []string{"--bfile", "b"}},
	}
	require.NoError(t, r.Run(context.Background(), cmds))
	assert.Equal(t, "plink --bfile a\nplink --bfile b\n", stdout.String())
}

func TestRunner_Run(t *testing.T) {
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}
	marker := filepath.Join(t.TempDir(), "ran")

	var stdout, stderr bytes.Buffer
	r := NewRunner(&stdout, &stderr)
	err = r.Run(context.Background(), []Command{
		{Path: sh, Args: []string{"-c", "echo hello && touch " + marker}},
	})
	require.NoError(t, err)
	assert.Equal(t, "hello\n", stdout.String())
	_, err = os.Stat(marker)
	assert.NoError(t, err)
}

func TestRunner_StopsOnFailure(t *testing.T) {
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}
	marker := filepath.Join(t.TempDir(), "ran")

	r := NewRunner(&bytes.Buffer{}, &bytes.Buffer{})
	err = r.Run(context.Background(), []Command{
		{Path: sh, Args: []string{"-c", "exit 3"}},
		{Path: sh, Args: []string{"-c", "touch " + marker}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step 1")

	_, statErr := os.Stat(marker)
	assert.True(t, os.IsNotExist(statErr))
}
