package main

import (
	"bufio"
	"compress/bzip2"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/klauspost/compress/gzip"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/snptk/snptk/internal/dbsnp"
	"github.com/snptk/snptk/internal/fileio"
	"github.com/snptk/snptk/internal/rsid"
)

func (c *cli) newExtractMergedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract-merged [--split N] REFSNP_MERGED_JSON OUTPUT",
		Short: "Convert NCBI refsnp-merged JSON into a gzipped merge table",
		Long: `Read NCBI refsnp-merged JSON lines (bzip2, gzip or plain) and write
"historical_id<TAB>merged_into" rows. With --split N > 1, OUTPUT is a directory
receiving 01.gz ... NN.gz, filled round-robin; otherwise OUTPUT is a gzip file.`,
		Example: `  snptk extract-merged refsnp-merged.json.bz2 refsnp-merged.gz
  snptk extract-merged --split 8 refsnp-merged.json.bz2 merged/`,
		Args: exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExtractMerged(args[0], args[1])
		},
	}

	cmd.Flags().Int("split", 1, "Number of output files")

	return cmd
}

// bzip2Magic starts every bzip2 stream.
var bzip2Magic = []byte("BZh")

// openJSON opens path, decompressing bzip2 or gzip/BGZF transparently.
func openJSON(path string) (io.Reader, func() error, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	br := bufio.NewReader(f)
	if magic, err := br.Peek(len(bzip2Magic)); err == nil && string(magic) == string(bzip2Magic) {
		return bzip2.NewReader(br), f.Close, nil
	}
	f.Close()

	ff, err := fileio.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return ff, ff.Close, nil
}

func (c *cli) runExtractMerged(inPath, outPath string) (err error) {
	split := c.v.GetInt("split")
	if split < 1 {
		return usagef("--split must be at least 1, got %d", split)
	}

	in, closeIn, err := openJSON(inPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", inPath, err)
	}
	defer closeIn()

	paths := []string{outPath}
	if split > 1 {
		if err := os.MkdirAll(outPath, 0755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
		paths = make([]string, split)
		for i := range paths {
			paths[i] = filepath.Join(outPath, fmt.Sprintf("%02d.gz", i+1))
		}
	}

	files := make([]*os.File, 0, len(paths))
	zws := make([]*gzip.Writer, 0, len(paths))
	defer func() {
		for i := range files {
			err = multierr.Append(err, zws[i].Close())
			err = multierr.Append(err, files[i].Close())
		}
	}()

	outs := make([]io.Writer, len(paths))
	for i, p := range paths {
		f, err := os.Create(p)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		zw := gzip.NewWriter(f)
		files = append(files, f)
		zws = append(zws, zw)
		outs[i] = zw
	}

	n, err := rsid.ExtractMerged(in, outs)
	if err != nil {
		return err
	}

	c.logger.Info("extracted merge table",
		zap.String("input", inPath),
		zap.String("output", outPath),
		zap.Int("files", len(paths)),
		zap.Int("rows", n))
	return nil
}

func (c *cli) newParseDbsnpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse-dbsnp OUTPUT_DIR REFSNP_CHR_JSON...",
		Short: "Convert NCBI per-chromosome refsnp JSON into a dbSNP position dump",
		Long: `Read NCBI refsnp-chrN.json files (bzip2, gzip or plain) and write one gzipped
dump per chromosome, OUTPUT_DIR/chrN.gz, with rows
"id<TAB>chromosome<TAB>position<TAB>seq_id". The directory is accepted by
--dbsnp. Files are converted in parallel (--workers).`,
		Example: `  snptk parse-dbsnp dbsnp/ refsnp-chr1.json.bz2 refsnp-chr2.json.bz2`,
		Args:    minimumArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runParseDbsnp(cmd.Context(), args[0], args[1:])
		},
	}
}

type parseJob struct {
	input      string
	chromosome string
	output     string
}

func (c *cli) runParseDbsnp(ctx context.Context, outDir string, inputs []string) error {
	jobs := make([]parseJob, 0, len(inputs))
	seen := make(map[string]string)
	for _, in := range inputs {
		ch, ok := dbsnp.ChromosomeFromName(in)
		if !ok {
			return usagef("cannot tell the chromosome of %s; expected a name like refsnp-chr7.json.bz2", in)
		}
		if prev, dup := seen[ch]; dup {
			return usagef("%s and %s both hold chromosome %s", prev, in, ch)
		}
		seen[ch] = in
		jobs = append(jobs, parseJob{input: in, chromosome: ch, output: filepath.Join(outDir, "chr"+ch+".gz")})
	}

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	workers := c.v.GetInt("workers")
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, j := range jobs {
		j := j
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			stats, err := parseDbsnpFile(j)
			if err != nil {
				return fmt.Errorf("%s: %w", j.input, err)
			}
			c.logger.Info("parsed refsnp file",
				zap.String("input", j.input),
				zap.String("output", j.output),
				zap.String("chromosome", j.chromosome),
				zap.Int("rows", stats.Rows),
				zap.Int("skipped", stats.Skipped))
			return nil
		})
	}
	return g.Wait()
}

func parseDbsnpFile(j parseJob) (stats dbsnp.ParseStats, err error) {
	in, closeIn, err := openJSON(j.input)
	if err != nil {
		return stats, err
	}
	defer closeIn()

	f, err := os.Create(j.output)
	if err != nil {
		return stats, fmt.Errorf("create output: %w", err)
	}
	defer func() {
		if err != nil {
			os.Remove(j.output)
		}
	}()

	zw := gzip.NewWriter(f)
	stats, err = dbsnp.ParseRefSNP(in, j.chromosome, zw)
	err = multierr.Combine(err, zw.Close(), f.Close())
	return stats, err
}
