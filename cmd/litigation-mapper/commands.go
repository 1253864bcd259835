package main

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/heartmarshall/litigation-mapper/internal/adapter/postgres"
	"github.com/heartmarshall/litigation-mapper/internal/adapter/postgres/runlog"
	"github.com/heartmarshall/litigation-mapper/internal/app"
	"github.com/heartmarshall/litigation-mapper/internal/config"
	"github.com/heartmarshall/litigation-mapper/internal/domain"
)

var runFlags struct {
	output      string
	auditLog    string
	incremental bool
	full        bool
	snapshot    string
	upload      bool
	archive     bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch, map and publish the litigation dataset",
	Long: `Fetch every endpoint, map the records and write the output and audit log.

Incremental runs (--incremental or mapper.incremental) map only cases modified
since the last successful run, or within mapper.lookback. --full always wins.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return buildRunner(cmd, func(ctx context.Context, cfg *config.Config, r *app.Runner) error {
			opts := app.RunOptions{
				Incremental:  (cfg.Mapper.Incremental || runFlags.incremental) && !runFlags.full,
				Debug:        debug,
				OutputPath:   cfg.Mapper.OutputPath,
				AuditLogPath: cfg.Mapper.AuditLogPath,
				SnapshotPath: runFlags.snapshot,
				Upload:       runFlags.upload,
				Archive:      runFlags.archive,
			}
			if cmd.Flags().Changed("output") {
				opts.OutputPath = runFlags.output
			}
			if cmd.Flags().Changed("audit-log") {
				opts.AuditLogPath = runFlags.auditLog
			}

			res, err := r.Run(ctx, opts)
			if err != nil {
				return err
			}
			counts := res.Output.Counts()
			for _, entity := range []string{"collections", "families", "documents", "events"} {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d\n", entity, counts[entity])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "failures: %d\n", len(res.Failures))
			return nil
		})
	},
}

var caseSnapshot string

var caseCmd = &cobra.Command{
	Use:   "case <case|non_us_case>/<id>",
	Short: "Map a single case and print the result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, id, err := app.ParseCaseRef(args[0])
		if err != nil {
			return err
		}
		return buildRunner(cmd, func(ctx context.Context, _ *config.Config, r *app.Runner) error {
			rc, err := r.Case(ctx, kind, id, caseSnapshot, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			for _, f := range rc.Failures {
				slog.Warn("case failure", slog.String("kind", string(f.Kind)), slog.String("reason", f.Reason))
			}
			return nil
		})
	},
}

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Fetch a snapshot and store it in S3 without mapping",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return buildRunner(cmd, func(ctx context.Context, _ *config.Config, r *app.Runner) error {
			return r.Archive(ctx)
		})
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply run log migrations to the configured database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		if !cfg.Database.Enabled() {
			return fmt.Errorf("migrate: database.dsn is not set")
		}
		return postgres.Migrate(cmd.Context(), cfg.Database.DSN, logger)
	},
}

var failuresCmd = &cobra.Command{
	Use:   "failures <run-id>",
	Short: "Print the recorded failure counts of a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		runID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("run id %q: %w", args[0], err)
		}
		cfg, _, err := setup()
		if err != nil {
			return err
		}
		if !cfg.Database.Enabled() {
			return fmt.Errorf("failures: database.dsn is not set")
		}

		pool, err := postgres.NewPool(cmd.Context(), cfg.Database)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer pool.Close()

		counts, err := runlog.New(pool).FailureCounts(cmd.Context(), runID)
		if err != nil {
			return err
		}
		kinds := make([]string, 0, len(counts))
		for k := range counts {
			kinds = append(kinds, k.String())
		}
		sort.Strings(kinds)
		for _, k := range kinds {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d\n", k, counts[domain.FailureKind(k)])
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the build version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), app.BuildVersion())
	},
}

func init() {
	runCmd.Flags().StringVar(&runFlags.output, "output", "", "output file (default: mapper.output_path)")
	runCmd.Flags().StringVar(&runFlags.auditLog, "audit-log", "", "audit log file (default: mapper.audit_log_path)")
	runCmd.Flags().BoolVar(&runFlags.incremental, "incremental", false, "map only cases modified since the last run")
	runCmd.Flags().BoolVar(&runFlags.full, "full", false, "map every case regardless of modification time")
	runCmd.Flags().StringVar(&runFlags.snapshot, "snapshot", "", "read a raw snapshot file instead of fetching")
	runCmd.Flags().BoolVar(&runFlags.upload, "upload", false, "submit the output to the bulk import API")
	runCmd.Flags().BoolVar(&runFlags.archive, "archive", false, "store the raw snapshot and concepts in S3")

	caseCmd.Flags().StringVar(&caseSnapshot, "snapshot", "", "read a raw snapshot file instead of fetching")
}
