// Package main provides the snptk command-line tool.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitError   = 1
	ExitUsage   = 2
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// usageError marks errors caused by invalid invocation.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func usagef(format string, args ...any) error {
	return &usageError{err: fmt.Errorf(format, args...)}
}

// cli carries per-invocation state shared by all subcommands.
type cli struct {
	v      *viper.Viper
	logger *zap.Logger
	stdout io.Writer
	stderr io.Writer
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	c := &cli{
		v:      viper.New(),
		logger: zap.NewNop(),
		stdout: stdout,
		stderr: stderr,
	}

	root := c.newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	_ = c.logger.Sync()
	if err == nil {
		return ExitSuccess
	}

	fmt.Fprintf(stderr, "Error: %v\n", err)
	var ue *usageError
	if errors.As(err, &ue) {
		return ExitUsage
	}
	return ExitError
}

func (c *cli) newRootCmd() *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:   "snptk",
		Short: "SNP id and coordinate reconciliation against dbSNP",
		Long: `snptk reconciles the variant ids and coordinates of a PLINK dataset with a
dbSNP release. It resolves merged rs ids, compares coordinates, and writes an
edit plan of deleted, renamed and re-positioned variants.`,
		Version:       fmt.Sprintf("%s (%s) built %s", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := c.initConfig(cfgFile, cmd); err != nil {
				return err
			}
			logger, err := newLogger(c.stderr, c.v.GetBool("verbose"))
			if err != nil {
				return err
			}
			c.logger = logger
			return nil
		},
	}

	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default ~/.snptk.yaml)")
	root.PersistentFlags().BoolP("verbose", "V", false, "Log debug messages")
	root.PersistentFlags().Int("workers", 0, "Parallel dbSNP shard scanners (0 = number of CPUs)")

	root.AddCommand(c.newMapUsingRsIDCmd())
	root.AddCommand(c.newMapUsingCoordCmd())
	root.AddCommand(c.newImportDbsnpCmd())
	root.AddCommand(c.newExtractMergedCmd())
	root.AddCommand(c.newParseDbsnpCmd())
	root.AddCommand(c.newApplyBimCmd())
	root.AddCommand(c.newUpdateFromMapCmd())
	root.AddCommand(c.newRemoveDuplicatesCmd())
	root.AddCommand(c.newConfigCmd())

	return root
}

// exactArgs is cobra.ExactArgs reporting a usage error.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return &usageError{err: err}
		}
		return nil
	}
}

// minimumArgs is cobra.MinimumNArgs reporting a usage error.
func minimumArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.MinimumNArgs(n)(cmd, args); err != nil {
			return &usageError{err: err}
		}
		return nil
	}
}
