package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/starford/mosaic/internal/apperr"
	"github.com/starford/mosaic/internal/models"
)

// Journal defines the publish audit operations.
// Consumers should depend on this interface rather than the concrete *DB type.
type Journal interface {
	RecordStart(ctx context.Context, run models.PublishRun) error
	RecordFinish(ctx context.Context, run models.PublishRun) error
	List(ctx context.Context, limit int) ([]models.PublishRun, error)
	Get(ctx context.Context, id string) (*models.PublishRun, error)
	LastPublished(ctx context.Context) (*models.PublishRun, error)
	MarkInterrupted(ctx context.Context) (int64, error)
	Close() error
}

// Verify *DB satisfies Journal at compile time.
var _ Journal = (*DB)(nil)

// DefaultLimit caps List when no positive limit is given.
const DefaultLimit = 20

const selectRuns = `
	SELECT id, started_at, finished_at, status, staging, checksum, entries, step, error
	FROM publish_runs`

// RecordStart inserts a run in the running state.
func (db *DB) RecordStart(ctx context.Context, run models.PublishRun) error {
	if run.Status == "" {
		run.Status = models.PublishRunning
	}
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO publish_runs (id, started_at, status, staging)
		VALUES (?, ?, ?, ?)
	`, run.ID, run.StartedAt.UTC(), string(run.Status), run.Staging)
	if err != nil {
		return fmt.Errorf("journal: record start: %w", err)
	}
	return nil
}

// RecordFinish stores the outcome of a run, inserting it if the start was lost.
func (db *DB) RecordFinish(ctx context.Context, run models.PublishRun) error {
	finished := time.Now().UTC()
	if run.FinishedAt != nil {
		finished = run.FinishedAt.UTC()
	}
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO publish_runs (id, started_at, finished_at, status, staging, checksum, entries, step, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			finished_at = excluded.finished_at,
			status      = excluded.status,
			staging     = excluded.staging,
			checksum    = excluded.checksum,
			entries     = excluded.entries,
			step        = excluded.step,
			error       = excluded.error
	`, run.ID, run.StartedAt.UTC(), finished, string(run.Status), run.Staging,
		run.Checksum, run.Entries, run.Step, run.Error)
	if err != nil {
		return fmt.Errorf("journal: record finish: %w", err)
	}
	return nil
}

// List returns the most recent runs, newest first.
func (db *DB) List(ctx context.Context, limit int) ([]models.PublishRun, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	rows, err := db.conn.QueryContext(ctx, selectRuns+`
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("journal: list: %w", err)
	}
	defer rows.Close()

	out := []models.PublishRun{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

// Get returns one run by id.
func (db *DB) Get(ctx context.Context, id string) (*models.PublishRun, error) {
	row := db.conn.QueryRowContext(ctx, selectRuns+` WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("journal: run %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// LastPublished returns the newest run that left a live dataset in place,
// or nil when there is none.
func (db *DB) LastPublished(ctx context.Context) (*models.PublishRun, error) {
	row := db.conn.QueryRowContext(ctx, selectRuns+`
		WHERE status = ?
		ORDER BY started_at DESC, rowid DESC
		LIMIT 1`, string(models.PublishPublished))
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// MarkInterrupted closes runs left in the running state by a previous process.
// Call it once at startup, before the scheduler runs.
func (db *DB) MarkInterrupted(ctx context.Context) (int64, error) {
	res, err := db.conn.ExecContext(ctx, `
		UPDATE publish_runs
		SET status = ?, finished_at = ?, error = 'process exited before the run finished'
		WHERE status = ?
	`, string(models.PublishInterrupted), time.Now().UTC(), string(models.PublishRunning))
	if err != nil {
		return 0, fmt.Errorf("journal: mark interrupted: %w", err)
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (models.PublishRun, error) {
	var (
		run      models.PublishRun
		status   string
		finished sql.NullTime
	)
	err := s.Scan(&run.ID, &run.StartedAt, &finished, &status, &run.Staging,
		&run.Checksum, &run.Entries, &run.Step, &run.Error)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return run, err
		}
		return run, fmt.Errorf("journal: scan run: %w", err)
	}
	run.Status = models.PublishStatus(status)
	if finished.Valid {
		t := finished.Time
		run.FinishedAt = &t
	}
	return run, nil
}
