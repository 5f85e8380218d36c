// Package cmd implements the CLI commands for sitetrans using Cobra.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/gaurav-prasanna/sitetrans/config"
	"github.com/gaurav-prasanna/sitetrans/logging"
)

// Persistent flag variables.
var (
	flagConfig   string
	flagEnvFile  string
	flagLogLevel string
	flagLogFile  string
)

// State shared by the subcommands, prepared in PersistentPreRunE.
var (
	cfg     *config.Config
	logger  = zerolog.Nop()
	logFile io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "sitetrans",
	Short: "Translate a website into a parallel language tree",
	Long: `sitetrans fetches pages of a website in one language, translates their
visible text through a machine translation backend, and writes a copy of
each page in the target language with internal links pointing at the
translated tree.

Usage:
  sitetrans translate <url> [flags]
  sitetrans batch --sitemap sitemap.xml [flags]
  sitetrans cache stats|clear
  sitetrans serve [--port 8000]
  sitetrans site --site-dir public`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(*cobra.Command, []string) {
		if logFile != nil {
			_ = logFile.Close()
		}
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "YAML configuration file")
	pf.StringVar(&flagEnvFile, "env", config.DefaultEnvFile, "Path to the .env file")
	pf.StringVar(&flagLogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.StringVar(&flagLogFile, "log-file", "", "Also write JSON log lines to this file")
}

// Execute runs the root command. An interrupt cancels the run; pages in
// flight finish their current batch first.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads the .env file and configuration, applies flags the user
// set explicitly, and builds the logger.
func setup(cmd *cobra.Command, _ []string) error {
	envPath, err := config.LoadEnvFile(flagEnvFile)
	if err != nil {
		return err
	}

	cfg, err = config.Load(flagConfig)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = flagLogLevel
	}
	applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	var extra io.Writer
	if flagLogFile != "" {
		f, err := logging.OpenFile(flagLogFile)
		if err != nil {
			return err
		}
		logFile = f
		extra = f
	}
	logger, err = logging.NewWithWriter(cfg.Environment, cfg.LogLevel, extra)
	if err != nil {
		return err
	}
	if envPath != "" {
		logger.Debug().Str("path", envPath).Msg("loaded environment file")
	}
	return nil
}
