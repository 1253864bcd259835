// Command litigation-mapper turns the Sabin Center climate litigation
// records published through WordPress into import-ready collections,
// families, documents and events.
//
// Usage:
//
//	litigation-mapper run [--full] [--snapshot file] [--upload] [--archive]
//	litigation-mapper case <case|non_us_case>/<id>
//	litigation-mapper archive
//	litigation-mapper migrate
//	litigation-mapper failures <run-id>
//	litigation-mapper version
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/heartmarshall/litigation-mapper/internal/app"
	"github.com/heartmarshall/litigation-mapper/internal/config"
)

var (
	configPath string
	debug      bool
)

var rootCmd = &cobra.Command{
	Use:   "litigation-mapper",
	Short: "Map climate litigation cases into import-ready litigation data",
	Long: `litigation-mapper fetches the Sabin Center climate case chart from WordPress
and maps it into collections, families, documents and events.

Examples:
  litigation-mapper run                        # incremental run, writes output.json
  litigation-mapper run --full --upload        # map every case and submit it for import
  litigation-mapper case non_us_case/87        # map one case and print the result`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config (default: $CONFIG_PATH or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "log at debug level and keep debug details in the run")

	rootCmd.AddCommand(runCmd, caseCmd, archiveCmd, migrateCmd, failuresCmd, versionCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error("command failed", slog.String("error", err.Error()))
		stop()
		os.Exit(1)
	}
}

// setup loads the configuration and installs the default logger.
func setup() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, app.NewLogger(cfg.Log, debug), nil
}

// buildRunner sets everything up and hands a connected Runner to fn.
func buildRunner(cmd *cobra.Command, fn func(context.Context, *config.Config, *app.Runner) error) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	runner, cleanup, err := app.Build(ctx, cfg, logger)
	defer cleanup()
	if err != nil {
		return err
	}
	return fn(ctx, cfg, runner)
}
