package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/snptk/snptk/internal/bim"
	"github.com/snptk/snptk/internal/output"
	"github.com/snptk/snptk/internal/plink"
	"github.com/snptk/snptk/internal/reconcile"
)

func (c *cli) newApplyBimCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "apply-bim MAP_DIR INPUT_BIM OUTPUT_BIM",
		Short: "Apply an edit plan to a BIM file",
		Long: `Apply the files written by map-using-rs-id or map-using-coord to a BIM file
without PLINK: deletes, then renames, then position and chromosome updates.`,
		Args: exactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runApplyBim(args[0], args[1], args[2])
		},
	}
}

func (c *cli) runApplyBim(mapDir, inPath, outPath string) error {
	if !output.Exists(mapDir) {
		return usagef("%s does not hold an edit plan", mapDir)
	}
	plan, err := output.ReadPlan(mapDir)
	if err != nil {
		return err
	}
	records, err := bim.Load(inPath)
	if err != nil {
		return err
	}

	updated := reconcile.Apply(records, plan)
	if err := writeBim(outPath, updated); err != nil {
		return err
	}

	c.logger.Info("applied edit plan",
		zap.String("map_dir", mapDir),
		zap.String("output", outPath),
		zap.Int("records_in", len(records)),
		zap.Int("records_out", len(updated)))
	return nil
}

// writeBim writes records to path through a temporary file in the same
// directory.
func writeBim(path string, records []bim.Record) (err error) {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			os.Remove(tmp)
		}
	}()

	w := bim.NewWriter(f)
	for _, r := range records {
		if err := w.Write(r); err != nil {
			f.Close()
			return fmt.Errorf("write bim: %w", err)
		}
	}
	if err := multierr.Combine(w.Flush(), f.Close()); err != nil {
		return fmt.Errorf("write bim: %w", err)
	}
	return os.Rename(tmp, path)
}

func (c *cli) newUpdateFromMapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update-from-map [flags] MAP_DIR INPUT_PREFIX OUTPUT_PREFIX",
		Short: "Update a PLINK BED/BIM/FAM fileset using an edit plan",
		Long: `Run PLINK with --exclude, --update-name, --update-map and --update-chr, in
that order, for every non-empty file of MAP_DIR.`,
		Example: `  snptk update-from-map -n out/ data data.updated
  snptk update-from-map --plink /opt/plink1.9/plink out/ data data.updated`,
		Args: exactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runUpdateFromMap(cmd, args[0], args[1], args[2])
		},
	}

	cmd.Flags().BoolP("dry-run", "n", false, "Print the commands that would be executed, but do not execute them")
	cmd.Flags().String("plink", plink.DefaultBinary, "Path to plink command")

	return cmd
}

func (c *cli) runUpdateFromMap(cmd *cobra.Command, mapDir, inPrefix, outPrefix string) error {
	if !output.Exists(mapDir) {
		return usagef("%s does not hold an edit plan", mapDir)
	}
	cmds, err := plink.Commands(c.v.GetString("plink"), mapDir, inPrefix, outPrefix)
	if err != nil {
		return err
	}

	r := plink.NewRunner(c.stdout, c.stderr)
	r.DryRun = c.v.GetBool("dry-run")
	r.SetLogger(c.logger)
	return r.Run(cmd.Context(), cmds)
}

func (c *cli) newRemoveDuplicatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove-duplicates [flags] INPUT_PREFIX OUTPUT_PREFIX",
		Short: "Remove duplicate variants from a PLINK BED/BIM/FAM fileset",
		Long: `List variants that share position and alleles with PLINK
--list-duplicate-vars, then exclude every copy but the first.`,
		Example: `  snptk remove-duplicates -n data data.dedup`,
		Args:    exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRemoveDuplicates(cmd, args[0], args[1])
		},
	}

	cmd.Flags().BoolP("dry-run", "n", false, "Print the commands that would be executed, but do not execute them")
	cmd.Flags().String("plink", plink.DefaultBinary, "Path to plink command")

	return cmd
}

func (c *cli) runRemoveDuplicates(cmd *cobra.Command, inPrefix, outPrefix string) error {
	r := plink.NewRunner(c.stdout, c.stderr)
	r.DryRun = c.v.GetBool("dry-run")
	r.SetLogger(c.logger)
	return r.Run(cmd.Context(), plink.DuplicateCommands(c.v.GetString("plink"), inPrefix, outPrefix))
}
