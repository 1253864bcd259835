package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/heartmarshall/litigation-mapper/internal/adapter/slack"
	"github.com/heartmarshall/litigation-mapper/internal/concept"
	"github.com/heartmarshall/litigation-mapper/internal/config"
	"github.com/heartmarshall/litigation-mapper/internal/domain"
	"github.com/heartmarshall/litigation-mapper/internal/jurisdiction"
	"github.com/heartmarshall/litigation-mapper/internal/mapper"
	"github.com/heartmarshall/litigation-mapper/internal/metrics"
	"github.com/heartmarshall/litigation-mapper/internal/source"
	"github.com/heartmarshall/litigation-mapper/pkg/ctxutil"
)

// Fetcher reads raw records from WordPress.
type Fetcher interface {
	concept.Fetcher
	FetchSnapshot(ctx context.Context) (source.RawSnapshot, error)
	FetchCase(ctx context.Context, kind source.CaseKind, id int) (source.Case, error)
}

// Archiver keeps raw snapshots and synced concepts.
type Archiver interface {
	ArchiveSnapshot(ctx context.Context, raw source.RawSnapshot) error
	SyncConcepts(ctx context.Context, concepts []domain.Concept) error
}

// Uploader submits mapped output for import.
type Uploader interface {
	Upload(ctx context.Context, output []byte) error
}

// RunStore persists run summaries.
type RunStore interface {
	Record(ctx context.Context, run domain.RunRecord, failures []domain.Failure) error
	LastSuccessfulStart(ctx context.Context) (time.Time, error)
}

// Notifier announces finished runs.
type Notifier interface {
	Notify(ctx context.Context, n slack.Notification) error
}

// Deps are the collaborators of a Runner. Everything but Registry is
// optional; a nil dependency disables its step.
type Deps struct {
	Fetcher  Fetcher
	Registry *jurisdiction.Registry
	Archiver Archiver
	Uploader Uploader
	Store    RunStore
	Notifier Notifier
	Metrics  *metrics.Metrics
}

// RunOptions controls a single invocation of Run.
type RunOptions struct {
	Incremental  bool
	Debug        bool
	OutputPath   string
	AuditLogPath string
	// SnapshotPath reads a cached raw snapshot instead of fetching one.
	SnapshotPath string
	Upload       bool
	Archive      bool
}

// Result is the outcome of Run.
type Result struct {
	Run      domain.RunRecord
	Output   domain.Output
	Failures []domain.Failure
}

// Runner wires fetching, mapping and publishing into one run.
type Runner struct {
	log  *slog.Logger
	cfg  *config.Config
	deps Deps
	now  func() time.Time
}

// NewRunner creates a Runner.
func NewRunner(log *slog.Logger, cfg *config.Config, deps Deps) *Runner {
	return &Runner{
		log:  log.With(slog.String("component", "runner")),
		cfg:  cfg,
		deps: deps,
		now:  time.Now,
	}
}

// Run performs a full mapping run. The run is recorded, measured and, when
// it fails, announced regardless of where it failed.
func (r *Runner) Run(ctx context.Context, opts RunOptions) (res Result, err error) {
	run := domain.RunRecord{
		ID:          uuid.New(),
		StartedAt:   r.now().UTC(),
		Incremental: opts.Incremental,
	}
	ctx = ctxutil.WithRunID(ctx, run.ID)
	r.log.InfoContext(ctx, "run started",
		slog.String("version", BuildVersion()),
		slog.Bool("incremental", opts.Incremental),
	)

	defer func() {
		run.FinishedAt = r.now().UTC()
		run.Status = domain.RunStatusSucceeded
		if err != nil {
			run.Status = domain.RunStatusFailed
			run.Message = err.Error()
		}
		res.Run = run
		r.finish(context.WithoutCancel(ctx), run, res.Failures)
	}()

	raw, err := r.loadSnapshot(ctx, opts.SnapshotPath)
	if err != nil {
		return res, err
	}
	snap, err := source.Decode(raw)
	if err != nil {
		return res, fmt.Errorf("decode snapshot: %w", err)
	}

	rc := mapper.NewRunContext(mapper.Options{
		Incremental: opts.Incremental,
		Debug:       opts.Debug,
		Cutoff:      r.cutoff(ctx, run.StartedAt, opts.Incremental),
		Now:         run.StartedAt,
	})
	index := r.newIndex(snap, r.log)
	mapLog := r.log.With(slog.String("run_id", run.ID.String()))
	out := mapper.New(mapLog, index, r.deps.Registry).Wrangle(ctx, &snap, rc)

	res.Output = out
	res.Failures = rc.Failures
	run.Counts = domain.RunCounts{
		Collections:      len(out.Collections),
		Families:         len(out.Families),
		Documents:        len(out.Documents),
		Events:           len(out.Events),
		Failures:         len(rc.Failures),
		SkippedFamilies:  len(rc.SkippedFamilies),
		SkippedDocuments: len(rc.SkippedDocuments),
	}

	data, err := EncodeOutput(out)
	if err != nil {
		return res, err
	}
	if err := writeFile(opts.OutputPath, data); err != nil {
		return res, err
	}
	if err := writeAuditLog(opts.AuditLogPath, rc); err != nil {
		return res, err
	}
	r.log.InfoContext(ctx, "output written",
		slog.String("output", opts.OutputPath),
		slog.String("audit_log", opts.AuditLogPath),
		slog.Int("bytes", len(data)),
	)

	if err := r.publish(ctx, opts, raw, index, data); err != nil {
		return res, err
	}
	return res, nil
}

// Case maps a single case against the current snapshot and writes the JSON
// output to w. Nothing is recorded or published.
func (r *Runner) Case(ctx context.Context, kind source.CaseKind, id int, snapshotPath string, w io.Writer) (*mapper.RunContext, error) {
	if r.deps.Fetcher == nil {
		return nil, fmt.Errorf("case %s/%d: no wordpress client configured", kind, id)
	}
	c, err := r.deps.Fetcher.FetchCase(ctx, kind, id)
	if err != nil {
		return nil, err
	}

	raw, err := r.loadSnapshot(ctx, snapshotPath)
	if err != nil {
		return nil, err
	}
	snap, err := source.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}

	rc := mapper.NewRunContext(mapper.Options{Debug: true, Now: r.now().UTC()})
	out := mapper.New(r.log, r.newIndex(snap, r.log), r.deps.Registry).TransformCase(ctx, &snap, c, rc)

	data, err := EncodeOutput(out)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("write case output: %w", err)
	}
	return rc, nil
}

// Archive fetches a fresh snapshot and stores it without mapping.
func (r *Runner) Archive(ctx context.Context) error {
	if r.deps.Archiver == nil {
		return fmt.Errorf("archive: no s3 bucket configured")
	}
	raw, err := r.loadSnapshot(ctx, "")
	if err != nil {
		return err
	}
	return r.deps.Archiver.ArchiveSnapshot(ctx, raw)
}

func (r *Runner) newIndex(snap source.Snapshot, log *slog.Logger) *concept.Index {
	var fetcher concept.Fetcher
	if r.deps.Fetcher != nil {
		fetcher = r.deps.Fetcher
	}
	return concept.NewIndex(snap.Terms, fetcher, log)
}

func (r *Runner) loadSnapshot(ctx context.Context, path string) (source.RawSnapshot, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read snapshot: %w", err)
		}
		var raw source.RawSnapshot
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("read snapshot %s: %w", path, err)
		}
		return raw, nil
	}
	if r.deps.Fetcher == nil {
		return nil, fmt.Errorf("no snapshot file given and no wordpress client configured")
	}
	return r.deps.Fetcher.FetchSnapshot(ctx)
}

// cutoff picks the incremental cutoff: the start of the last successful run
// when the store knows one, else the configured lookback.
func (r *Runner) cutoff(ctx context.Context, startedAt time.Time, incremental bool) time.Time {
	fallback := startedAt.Add(-r.cfg.Mapper.Lookback)
	if !incremental || r.deps.Store == nil {
		return fallback
	}

	last, err := r.deps.Store.LastSuccessfulStart(ctx)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		r.log.InfoContext(ctx, "no previous successful run, using lookback", slog.Duration("lookback", r.cfg.Mapper.Lookback))
		return fallback
	case err != nil:
		r.log.WarnContext(ctx, "last successful run unavailable, using lookback", slog.String("error", err.Error()))
		return fallback
	}
	r.log.InfoContext(ctx, "incremental cutoff from last successful run", slog.Time("cutoff", last))
	return last
}

// publish fans out the post-mapping side effects. The first error cancels
// the others and fails the run.
func (r *Runner) publish(ctx context.Context, opts RunOptions, raw source.RawSnapshot, index *concept.Index, output []byte) error {
	g, gctx := errgroup.WithContext(ctx)

	if opts.Archive && r.deps.Archiver != nil {
		g.Go(func() error { return r.deps.Archiver.ArchiveSnapshot(gctx, raw) })
		g.Go(func() error { return r.deps.Archiver.SyncConcepts(gctx, index.All()) })
	} else if opts.Archive {
		r.log.WarnContext(ctx, "archive requested but no bucket configured")
	}

	if opts.Upload && r.deps.Uploader != nil {
		g.Go(func() error { return r.deps.Uploader.Upload(gctx, output) })
	} else if opts.Upload {
		r.log.WarnContext(ctx, "upload requested but import api is not configured")
	}

	return g.Wait()
}

// finish records, measures and announces a run. Its own errors are logged
// and never change the run outcome.
func (r *Runner) finish(ctx context.Context, run domain.RunRecord, failures []domain.Failure) {
	if r.deps.Store != nil {
		if err := r.deps.Store.Record(ctx, run, failures); err != nil {
			r.log.WarnContext(ctx, "run not recorded", slog.String("error", err.Error()))
		}
	}

	if r.deps.Metrics != nil {
		r.deps.Metrics.ObserveRun(run, failures)
		if url := r.cfg.Metrics.PushgatewayURL; url != "" {
			if err := r.deps.Metrics.Push(ctx, url, r.cfg.Metrics.Job); err != nil {
				r.log.WarnContext(ctx, "metrics not pushed", slog.String("error", err.Error()))
			}
		}
	}

	if run.Status == domain.RunStatusFailed && r.deps.Notifier != nil {
		err := r.deps.Notifier.Notify(ctx, slack.Notification{
			RunID:   run.ID.String(),
			State:   run.Status,
			At:      run.FinishedAt,
			Message: run.Message,
		})
		if err != nil {
			r.log.WarnContext(ctx, "notification not sent", slog.String("error", err.Error()))
		}
	}

	attrs := []any{
		slog.String("status", run.Status.String()),
		slog.Duration("duration", run.FinishedAt.Sub(run.StartedAt)),
		slog.Int("families", run.Counts.Families),
		slog.Int("failures", run.Counts.Failures),
	}
	if run.Status == domain.RunStatusFailed {
		r.log.ErrorContext(ctx, "run failed", append(attrs, slog.String("error", run.Message))...)
		return
	}
	r.log.InfoContext(ctx, "run finished", attrs...)
}

// EncodeOutput renders out as indented JSON without HTML escaping, so titles
// keep their ampersands and angle brackets.
func EncodeOutput(out domain.Output) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return nil, fmt.Errorf("encode output: %w", err)
	}
	return buf.Bytes(), nil
}

func writeFile(path string, data []byte) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func writeAuditLog(path string, rc *mapper.RunContext) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	if err := mapper.WriteAuditLog(f, rc); err != nil {
		f.Close()
		return fmt.Errorf("write audit log: %w", err)
	}
	return f.Close()
}
