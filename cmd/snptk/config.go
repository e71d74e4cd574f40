package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// configFileName is the default config file in the home directory.
const configFileName = ".snptk.yaml"

// noFlagBinding marks commands whose flags must not be merged into the
// config, so that config show/set only see file values.
const noFlagBinding = "snptk/no-flag-binding"

// initConfig reads the config file and environment, then binds the flags of
// the executing command so that flags override env, which overrides the file.
// Keys are the flag names; SNPTK_DBSNP_OFFSET sets dbsnp-offset.
func (c *cli) initConfig(cfgFile string, cmd *cobra.Command) error {
	v := c.v
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
		v.SetConfigName(strings.TrimSuffix(configFileName, ".yaml"))
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("SNPTK")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("read config: %w", err)
		}
	}

	if cmd.Annotations[noFlagBinding] != "" {
		return nil
	}
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("bind flags: %w", err)
	}
	return nil
}

func (c *cli) newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage snptk configuration",
		Long: `Show, get, or set configuration values. Config is stored in ~/.snptk.yaml.
Keys are flag names, e.g. dbsnp, dbsnp-offset, refsnp-merged, workers.`,
		Example: `  snptk config                                   # show all config
  snptk config set dbsnp /data/dbsnp/b151          # default dbSNP dump
  snptk config get dbsnp                           # get a value`,
		Args:        exactArgs(0),
		Annotations: map[string]string{noFlagBinding: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runConfigShow()
		},
	}

	cmd.AddCommand(c.newConfigSetCmd())
	cmd.AddCommand(c.newConfigGetCmd())

	return cmd
}

func (c *cli) newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "set <key> <value>",
		Short:       "Set a configuration value",
		Args:        exactArgs(2),
		Annotations: map[string]string{noFlagBinding: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runConfigSet(args[0], args[1])
		},
	}
}

func (c *cli) newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "get <key>",
		Short:       "Get a configuration value",
		Args:        exactArgs(1),
		Annotations: map[string]string{noFlagBinding: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runConfigGet(args[0])
		},
	}
}

func (c *cli) runConfigShow() error {
	settings := c.v.AllSettings()
	if len(settings) == 0 {
		fmt.Fprintf(c.stdout, "# No configuration set. Config file: ~/%s\n", configFileName)
		return nil
	}

	out, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	fmt.Fprint(c.stdout, string(out))
	return nil
}

func (c *cli) runConfigSet(key, value string) error {
	// Parse boolean-like values
	switch value {
	case "true", "yes", "on":
		c.v.Set(key, true)
	case "false", "no", "off":
		c.v.Set(key, false)
	default:
		c.v.Set(key, value)
	}

	// Ensure config file exists
	cfgFile := c.v.ConfigFileUsed()
	if cfgFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("cannot determine home directory: %w", err)
		}
		cfgFile = filepath.Join(home, configFileName)
	}

	if err := c.v.WriteConfigAs(cfgFile); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Fprintf(c.stdout, "Set %s = %s in %s\n", key, value, cfgFile)
	return nil
}

func (c *cli) runConfigGet(key string) error {
	val := c.v.Get(key)
	if val == nil {
		return fmt.Errorf("key %q is not set", key)
	}
	fmt.Fprintln(c.stdout, val)
	return nil
}
