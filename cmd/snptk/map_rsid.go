package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/snptk/snptk/internal/bim"
	"github.com/snptk/snptk/internal/chrom"
	"github.com/snptk/snptk/internal/output"
	"github.com/snptk/snptk/internal/reconcile"
	"github.com/snptk/snptk/internal/rsid"
)

func (c *cli) newMapUsingRsIDCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "map-using-rs-id [flags] INPUT_BIM OUTPUT_MAP_DIR",
		Short: "Generate PLINK update files by Reference SNP (rs) id of BIM entries",
		Long: `Resolve every BIM id through the dbSNP merge history and compare the
result with its dbSNP placement. Writes deleted_snps.txt, updated_snps.txt,
coord_update.txt and chr_update.txt to OUTPUT_MAP_DIR.`,
		Example: `  snptk map-using-rs-id -d SNPChrPosOnRef.bcp.gz -r refsnp-merged data.bim out/
  snptk map-using-rs-id --dbsnp-db dbsnp.duckdb -r merged/ --include-file keep.txt data.bim out/`,
		Args: exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runMapUsingRsID(cmd, args[0], args[1])
		},
	}

	addDbsnpFlags(cmd, true)
	cmd.Flags().Int64("bim-offset", 0, "Add BIM_OFFSET to each BIM entry coordinate")
	cmd.Flags().StringP("refsnp-merged", "r", "", "Merge table file, or directory with split files")
	cmd.Flags().String("merge-format", rsid.MergePairs.String(), "Merge table layout: pairs or legacy")
	cmd.Flags().String("snp-history", "", "dbSNP SNPHistory file listing withdrawn ids")
	cmd.Flags().String("include-file", "", "Do not remove variant ids listed in this file")

	return cmd
}

func (c *cli) runMapUsingRsID(cmd *cobra.Command, bimPath, outDir string) error {
	ctx := cmd.Context()

	mergedPath := c.v.GetString("refsnp-merged")
	if mergedPath == "" {
		return usagef("--refsnp-merged is required")
	}
	format, err := rsid.ParseMergeFormat(c.v.GetString("merge-format"))
	if err != nil {
		return &usageError{err: err}
	}

	records, err := bim.Load(bimPath)
	if err != nil {
		return err
	}
	c.logger.Info("loaded bim", zap.String("path", bimPath), zap.Int("records", len(records)))

	merges, err := rsid.LoadMergeTable(mergedPath, format)
	if err != nil {
		return err
	}
	c.logger.Info("loaded merge table",
		zap.String("path", mergedPath),
		zap.Stringer("format", format),
		zap.Int("edges", len(merges)))

	var withdrawn rsid.IDSet
	if path := c.v.GetString("snp-history"); path != "" {
		if withdrawn, err = rsid.LoadHistory(path); err != nil {
			return err
		}
		c.logger.Info("loaded snp history", zap.String("path", path), zap.Int("withdrawn", len(withdrawn)))
	}

	var unmappable rsid.IDSet
	if path := c.v.GetString("include-file"); path != "" {
		if unmappable, err = rsid.LoadIDList(path); err != nil {
			return err
		}
		c.logger.Info("loaded include file", zap.String("path", path), zap.Int("ids", len(unmappable)))
	}

	mappings, err := reconcile.ResolveRecords(records, chrom.PlinkTable(), c.v.GetInt64("bim-offset"), merges, withdrawn)
	if err != nil {
		return err
	}

	source, closeSource, err := c.positionSource(ctx)
	if err != nil {
		return err
	}
	defer closeSource()

	positions, err := source.ByID(ctx, reconcile.InterestIDs(mappings))
	if err != nil {
		return fmt.Errorf("build position index: %w", err)
	}

	r := reconcile.New()
	r.SetLogger(c.logger)
	plan := r.ByID(mappings, positions, unmappable)

	if err := output.WritePlan(outDir, plan, false); err != nil {
		return err
	}
	c.logPlan(outDir, plan)
	return nil
}

func (c *cli) logPlan(dir string, plan *reconcile.Plan) {
	c.logger.Info("wrote edit plan",
		zap.String("dir", dir),
		zap.Int("deleted", len(plan.Deletes)),
		zap.Int("renamed", len(plan.Renames)),
		zap.Int("position_updates", len(plan.PositionUpdates)),
		zap.Int("chromosome_updates", len(plan.ChromosomeUpdates)),
		zap.Int("multi_mapped", len(plan.MultiMapped)))
}
