package app

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/heartmarshall/litigation-mapper/internal/adapter/importapi"
	"github.com/heartmarshall/litigation-mapper/internal/adapter/postgres"
	"github.com/heartmarshall/litigation-mapper/internal/adapter/postgres/runlog"
	"github.com/heartmarshall/litigation-mapper/internal/adapter/s3archive"
	"github.com/heartmarshall/litigation-mapper/internal/adapter/slack"
	"github.com/heartmarshall/litigation-mapper/internal/adapter/wordpress"
	"github.com/heartmarshall/litigation-mapper/internal/config"
	"github.com/heartmarshall/litigation-mapper/internal/domain"
	"github.com/heartmarshall/litigation-mapper/internal/jurisdiction"
	"github.com/heartmarshall/litigation-mapper/internal/metrics"
	"github.com/heartmarshall/litigation-mapper/internal/source"
)

// Build connects every configured collaborator and returns a Runner over
// them. Unconfigured integrations stay nil so the Runner skips their step.
// The returned cleanup releases held connections.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Runner, func(), error) {
	cleanup := func() {}

	deps := Deps{
		Fetcher:  wordpress.NewClient(cfg.WordPress, logger),
		Registry: jurisdiction.DefaultRegistry(),
		Notifier: slack.NewNotifier(cfg.Slack, cfg.App, logger),
		Metrics:  metrics.New(),
	}

	if cfg.AWS.Bucket != "" {
		store, err := s3archive.New(ctx, cfg.AWS, logger)
		if err != nil {
			return nil, cleanup, err
		}
		deps.Archiver = store
	}

	if cfg.ImportAPI.Enabled() {
		deps.Uploader = importapi.NewClient(cfg.ImportAPI, logger)
	}

	if cfg.Database.Enabled() {
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, cleanup, fmt.Errorf("connect to database: %w", err)
		}
		cleanup = pool.Close
		deps.Store = runlog.New(pool)
	}

	logger.Info("runner configured",
		slog.String("environment", cfg.App.Environment),
		slog.Bool("archive", deps.Archiver != nil),
		slog.Bool("upload", deps.Uploader != nil),
		slog.Bool("run_log", deps.Store != nil),
	)

	return NewRunner(logger, cfg, deps), cleanup, nil
}

// ParseCaseRef parses a "<type>/<id>" reference such as "case/1234" or
// "non_us_case/87".
func ParseCaseRef(ref string) (source.CaseKind, int, error) {
	kind, rawID, ok := strings.Cut(strings.TrimSpace(ref), "/")
	if !ok {
		return "", 0, fmt.Errorf("case reference %q: want <type>/<id>: %w", ref, domain.ErrValidation)
	}
	k := source.CaseKind(kind)
	if !k.IsValid() {
		return "", 0, fmt.Errorf("case reference %q: type must be %s or %s: %w",
			ref, source.CaseKindUS, source.CaseKindGlobal, domain.ErrValidation)
	}
	id, err := strconv.Atoi(rawID)
	if err != nil || id <= 0 {
		return "", 0, fmt.Errorf("case reference %q: id must be a positive integer: %w", ref, domain.ErrValidation)
	}
	return k, id, nil
}
