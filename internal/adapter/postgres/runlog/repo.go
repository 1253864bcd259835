// Package runlog persists a summary of every mapper run and the failures it
// recorded.
package runlog

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	postgres "github.com/heartmarshall/litigation-mapper/internal/adapter/postgres"
	"github.com/heartmarshall/litigation-mapper/internal/domain"
)

// failureChunk bounds the rows of one multi-row failure insert.
const failureChunk = 500

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

var runColumns = []string{
	"id", "started_at", "finished_at", "incremental", "status", "message",
	"collections", "families", "documents", "events",
	"failures", "skipped_families", "skipped_documents",
}

// Repo stores run records backed by PostgreSQL.
type Repo struct {
	db postgres.DB
	tx *postgres.TxManager
}

// New creates a new runlog repository.
func New(db postgres.DB) *Repo {
	return &Repo{db: db, tx: postgres.NewTxManager(db)}
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// Record inserts run and its failures in one transaction.
func (r *Repo) Record(ctx context.Context, run domain.RunRecord, failures []domain.Failure) error {
	return r.tx.RunInTx(ctx, func(ctx context.Context) error {
		q := postgres.QuerierFromCtx(ctx, r.db)

		c := run.Counts
		query, args, err := psql.Insert("mapper_runs").
			Columns(runColumns...).
			Values(run.ID, run.StartedAt, run.FinishedAt, run.Incremental, run.Status.String(), run.Message,
				c.Collections, c.Families, c.Documents, c.Events,
				c.Failures, c.SkippedFamilies, c.SkippedDocuments).
			ToSql()
		if err != nil {
			return fmt.Errorf("build mapper_run insert: %w", err)
		}
		if _, err := q.Exec(ctx, query, args...); err != nil {
			return postgres.MapError(err, "mapper_run", run.ID)
		}

		for start := 0; start < len(failures); start += failureChunk {
			chunk := failures[start:min(start+failureChunk, len(failures))]

			insert := psql.Insert("mapper_failures").
				Columns("run_id", "position", "record_id", "kind", "reason")
			for i, f := range chunk {
				insert = insert.Values(run.ID, start+i, f.ID, f.Kind.String(), f.Reason)
			}

			query, args, err := insert.ToSql()
			if err != nil {
				return fmt.Errorf("build mapper_failures insert: %w", err)
			}
			if _, err := q.Exec(ctx, query, args...); err != nil {
				return postgres.MapError(err, "mapper_failures of run", run.ID)
			}
		}
		return nil
	})
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// LastSuccessfulStart returns the start time of the most recent succeeded run.
// Returns domain.ErrNotFound when no run has succeeded yet.
func (r *Repo) LastSuccessfulStart(ctx context.Context) (time.Time, error) {
	query, args, err := psql.Select("started_at").
		From("mapper_runs").
		Where(squirrel.Eq{"status": domain.RunStatusSucceeded.String()}).
		OrderBy("started_at DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return time.Time{}, fmt.Errorf("build mapper_run select: %w", err)
	}

	var startedAt time.Time
	if err := postgres.QuerierFromCtx(ctx, r.db).QueryRow(ctx, query, args...).Scan(&startedAt); err != nil {
		return time.Time{}, postgres.MapError(err, "mapper_run", "latest succeeded")
	}
	return startedAt.UTC(), nil
}

// FailureCounts returns the number of recorded failures per kind for a run.
func (r *Repo) FailureCounts(ctx context.Context, runID uuid.UUID) (map[domain.FailureKind]int, error) {
	query, args, err := psql.Select("kind", "count(*)").
		From("mapper_failures").
		Where(squirrel.Eq{"run_id": runID}).
		GroupBy("kind").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build mapper_failures select: %w", err)
	}

	rows, err := postgres.QuerierFromCtx(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, postgres.MapError(err, "mapper_failures of run", runID)
	}
	defer rows.Close()

	counts := make(map[domain.FailureKind]int)
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("scan mapper_failures count: %w", err)
		}
		counts[domain.FailureKind(kind)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.MapError(err, "mapper_failures of run", runID)
	}
	return counts, nil
}
