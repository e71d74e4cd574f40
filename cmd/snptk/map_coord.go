package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/snptk/snptk/internal/bim"
	"github.com/snptk/snptk/internal/chrom"
	"github.com/snptk/snptk/internal/output"
	"github.com/snptk/snptk/internal/reconcile"
)

func (c *cli) newMapUsingCoordCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "map-using-coord [flags] INPUT_BIM OUTPUT_MAP_DIR",
		Short: "Generate PLINK update files by chromosome/coordinate of BIM entries",
		Long: `Look up the dbSNP ids placed at each BIM coordinate and rename or delete
entries accordingly. Writes deleted_snps.txt and updated_snps.txt (plus empty
coord_update.txt and chr_update.txt) to OUTPUT_MAP_DIR, and multi_snps.txt
with --keep-multi.`,
		Example: `  snptk map-using-coord -d SNPChrPosOnRef.bcp.gz data.bim out/
  snptk map-using-coord -d dbsnp/ --keep-multi --skip-rs-ids data.bim out/`,
		Args: exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runMapUsingCoord(cmd, args[0], args[1])
		},
	}

	addDbsnpFlags(cmd, true)
	cmd.Flags().Int64("bim-offset", 0, "Add BIM_OFFSET to each BIM entry coordinate")
	cmd.Flags().Bool("keep-multi", false, "If a coordinate maps to multiple rs ids, write them to multi_snps.txt and rename to the first")
	cmd.Flags().Bool("keep-unmapped-rs-ids", false, "If an entry starts with rs and is not in dbSNP, keep it anyway")
	cmd.Flags().Bool("skip-rs-ids", false, "Do not update or delete any entry which starts with rs")

	return cmd
}

func (c *cli) runMapUsingCoord(cmd *cobra.Command, bimPath, outDir string) error {
	ctx := cmd.Context()

	records, err := bim.Load(bimPath)
	if err != nil {
		return err
	}
	c.logger.Info("loaded bim", zap.String("path", bimPath), zap.Int("records", len(records)))

	sites := reconcile.Sites(records, chrom.PlinkTable(), c.v.GetInt64("bim-offset"))

	source, closeSource, err := c.positionSource(ctx)
	if err != nil {
		return err
	}
	defer closeSource()

	positions, err := source.ByCoord(ctx, reconcile.InterestKeys(sites))
	if err != nil {
		return fmt.Errorf("build position index: %w", err)
	}

	opts := reconcile.ByCoordOptions{
		KeepMulti:         c.v.GetBool("keep-multi"),
		KeepUnmappedNamed: c.v.GetBool("keep-unmapped-rs-ids"),
		SkipNamed:         c.v.GetBool("skip-rs-ids"),
	}

	r := reconcile.New()
	r.SetLogger(c.logger)
	plan := r.ByCoord(sites, reconcile.BatchIDs(sites), positions, opts)

	if err := output.WritePlan(outDir, plan, opts.KeepMulti); err != nil {
		return err
	}
	c.logPlan(outDir, plan)
	return nil
}
