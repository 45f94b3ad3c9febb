// Package main is the entry point for the docfold CLI.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/docfold/internal/app"
	"github.com/dshills/docfold/internal/config"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	envFile    string
	logLevel   string
	plugins    []string
}

func rootCmd() *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:   "docfold",
		Short: "Fold JSDoc comment blocks in JavaScript and TypeScript files",
		Long: `docfold folds free-standing JSDoc blocks and remembers the ones you open.

Configuration is loaded in the following order (later sources override earlier):
  1. Default values
  2. Configuration file (--config, TOML or YAML)
  3. .env file (--env-file, default .env) and DOCFOLD_* environment variables
  4. Command line flags

Environment variables:
  DOCFOLD_FOLD_START_MATCH          exact or prefix (default: exact)
  DOCFOLD_FOLD_DELAY_MS             Delay before a fold pass (default: 100)
  DOCFOLD_FOLD_ATTACH_PREFIXES      Comma-separated attachment prefixes
  DOCFOLD_LOGGING_LEVEL             debug, info, warn, error (default: info)
  DOCFOLD_LOGGING_FILE              Log file used by the viewer
  DOCFOLD_PLUGINS_SCRIPTS           Comma-separated Lua plugin scripts
  DOCFOLD_VIEW_THEME                Chroma style for the viewer`,
		SilenceUsage: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "Path to configuration file")
	pf.StringVar(&flags.envFile, "env-file", "", "Path to .env file (default: .env in current directory)")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringArrayVar(&flags.plugins, "plugin", nil, "Lua plugin script (repeatable)")

	cmd.AddCommand(scanCmd(flags))
	cmd.AddCommand(viewCmd(flags))
	cmd.AddCommand(versionCmd())

	return cmd
}

func (f *globalFlags) loadOptions() config.LoadOptions {
	return config.LoadOptions{File: f.configPath, EnvFile: f.envFile}
}

// overrides applies the flags on top of a loaded configuration.
func (f *globalFlags) overrides(cfg *config.Config) {
	if f.logLevel != "" {
		cfg.Logging.Level = f.logLevel
	}
	cfg.Plugins.Scripts = append(cfg.Plugins.Scripts, f.plugins...)
}

// load reads the configuration sources and applies the flags.
func (f *globalFlags) load() (*config.Config, error) {
	cfg, err := config.Load(f.loadOptions())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	f.overrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config, out io.Writer) *app.Logger {
	return app.NewLogger(app.LoggerConfig{
		Level:  app.ParseLogLevel(cfg.Logging.Level),
		Output: out,
		JSON:   cfg.Logging.JSON,
	})
}
