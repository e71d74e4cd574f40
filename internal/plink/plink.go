// Package plink turns a written edit plan, or a duplicate-removal request,
// into the sequence of PLINK invocations that apply it to a BED/BIM/FAM
// fileset.
package plink

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/snptk/snptk/internal/output"
)

// DefaultBinary is the plink executable looked up on PATH.
const DefaultBinary = "plink"

// Command is one plink invocation.
type Command struct {
	Path string
	Args []string
}

func (c Command) String() string {
	return strings.Join(append([]string{c.Path}, c.Args...), " ")
}

// step is one plan file and the plink flag that applies it.
type step struct {
	file string
	flag string
}

// steps lists plan files in the order edits must be applied.
var steps = []step{
	{output.DeletedFile, "--exclude"},
	{output.RenamedFile, "--update-name"},
	{output.PositionFile, "--update-map"},
	{output.ChromosomeFile, "--update-chr"},
}

// Commands builds the invocations that apply the plan in mapDir to the
// fileset at inPrefix, writing outPrefix. Steps whose plan file is empty are
// left out; intermediate filesets are written next to outPrefix. When every
// plan file is empty a single copy of the fileset is made.
func Commands(binary, mapDir, inPrefix, outPrefix string) ([]Command, error) {
	if binary == "" {
		binary = DefaultBinary
	}

	var active []step
	for _, s := range steps {
		info, err := os.Stat(filepath.Join(mapDir, s.file))
		if err != nil {
			return nil, fmt.Errorf("plan file: %w", err)
		}
		if info.Size() > 0 {
			active = append(active, s)
		}
	}

	if len(active) == 0 {
		return []Command{{
			Path: binary,
			Args: []string{"--bfile", inPrefix, "--make-bed", "--out", outPrefix},
		}}, nil
	}

	cmds := make([]Command, 0, len(active))
	prev := inPrefix
	for i, s := range active {
		out := outPrefix
		if i < len(active)-1 {
			out = fmt.Sprintf("%s.step%d", outPrefix, i+1)
		}
		cmds = append(cmds, Command{
			Path: binary,
			Args: []string{
				"--bfile", prev,
				s.flag, filepath.Join(mapDir, s.file),
				"--make-bed",
				"--out", out,
			},
		})
		prev = out
	}
	return cmds, nil
}

// DuplicateListSuffix is appended to the output prefix of the step that lists
// duplicate variants; plink then adds ".dupvar".
const DuplicateListSuffix = ".dups"

// DuplicateCommands builds the invocations that drop duplicate variants from
// the fileset at inPrefix, writing outPrefix. Variants sharing position and
// alleles are listed first; every copy but the first is then excluded.
func DuplicateCommands(binary, inPrefix, outPrefix string) []Command {
	if binary == "" {
		binary = DefaultBinary
	}
	list := outPrefix + DuplicateListSuffix
	return []Command{
		{
			Path: binary,
			Args: []string{"--bfile", inPrefix, "--list-duplicate-vars", "ids-only", "suppress-first", "--out", list},
		},
		{
			Path: binary,
			Args: []string{"--bfile", inPrefix, "--exclude", list + ".dupvar", "--make-bed", "--out", outPrefix},
		},
	}
}

// Runner executes plink commands in sequence.
type Runner struct {
	DryRun bool
	Stdout io.Writer
	Stderr io.Writer
	logger *zap.Logger
}

// NewRunner creates a runner writing command output to stdout and stderr.
func NewRunner(stdout, stderr io.Writer) *Runner {
	return &Runner{Stdout: stdout, Stderr: stderr, logger: zap.NewNop()}
}

// SetLogger sets the logger for executed commands.
func (r *Runner) SetLogger(l *zap.Logger) {
	r.logger = l
}

// Run executes cmds in order and stops at the first failure. In dry-run mode
// each command line is printed to Stdout instead.
func (r *Runner) Run(ctx context.Context, cmds []Command) error {
	for i, c := range cmds {
		if r.DryRun {
			if _, err := fmt.Fprintln(r.Stdout, c.String()); err != nil {
				return err
			}
			continue
		}

		r.logger.Info("running plink",
			zap.Int("step", i+1),
			zap.Int("steps", len(cmds)),
			zap.String("command", c.String()))

		cmd := exec.CommandContext(ctx, c.Path, c.Args...)
		cmd.Stdout = r.Stdout
		cmd.Stderr = r.Stderr
		if err := cmd.Run(); err != nil {
			return fmt.Errorf("step %d (%s): %w", i+1, c.String(), err)
		}
	}
	return nil
}
