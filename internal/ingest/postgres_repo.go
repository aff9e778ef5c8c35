package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresRepo struct {
	db *pgxpool.Pool
}

func NewPostgresRepo(db *pgxpool.Pool) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) CreateRun(ctx context.Context, run *Run) (string, error) {
	const sql = `
		INSERT INTO sync_runs (started_at, status, triggered_by, updated_after, debug_limit)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	var id string
	err := r.db.QueryRow(ctx, sql, run.StartedAt, run.Status, run.Trigger, run.UpdatedAfter, run.DebugLimit).Scan(&id)
	return id, err
}

func (r *PostgresRepo) UpdateRun(ctx context.Context, run *Run) error {
	const sql = `
		UPDATE sync_runs SET
			finished_at = $1,
			status = $2,
			user_id = $3,
			books_total = $4,
			books_fetched = $5,
			created = $6,
			updated = $7,
			unchanged = $8,
			moved = $9,
			merged = $10,
			failed = $11,
			reorganized = $12,
			checkpoint = $13,
			error = $14
		WHERE id = $15`

	_, err := r.db.Exec(ctx, sql,
		run.FinishedAt, run.Status, run.UserID, run.BooksTotal, run.BooksFetched,
		run.Created, run.Updated, run.Unchanged, run.Moved, run.Merged, run.Failed,
		run.Reorganized, run.Checkpoint, run.Error, run.ID)
	return err
}

func (r *PostgresRepo) AddFailure(ctx context.Context, runID string, f Failure) error {
	const sql = `
		INSERT INTO sync_failures (run_id, book_id, title, error)
		VALUES ($1, $2, $3, $4)`
	_, err := r.db.Exec(ctx, sql, runID, f.BookID, f.Title, f.Error)
	return err
}

func (r *PostgresRepo) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	const sql = `
		SELECT id, started_at, finished_at, status, triggered_by, user_id, updated_after, debug_limit,
			books_total, books_fetched, created, updated, unchanged, moved, merged, failed,
			reorganized, checkpoint, error
		FROM sync_runs
		ORDER BY started_at DESC
		LIMIT $1`

	if limit <= 0 {
		limit = maxStoredRuns
	}
	rows, err := r.db.Query(ctx, sql, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(
			&run.ID, &run.StartedAt, &run.FinishedAt, &run.Status, &run.Trigger, &run.UserID,
			&run.UpdatedAfter, &run.DebugLimit, &run.BooksTotal, &run.BooksFetched,
			&run.Created, &run.Updated, &run.Unchanged, &run.Moved, &run.Merged, &run.Failed,
			&run.Reorganized, &run.Checkpoint, &run.Error,
		); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (r *PostgresRepo) ListFailures(ctx context.Context, runID string) ([]Failure, error) {
	const sql = `
		SELECT book_id, title, error
		FROM sync_failures
		WHERE run_id = $1
		ORDER BY id`

	rows, err := r.db.Query(ctx, sql, runID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[Failure])
}

func (r *PostgresRepo) loadState(ctx context.Context, key string) (string, error) {
	const sql = `SELECT value FROM sync_state WHERE key = $1`

	var value string
	err := r.db.QueryRow(ctx, sql, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return value, err
}

func (r *PostgresRepo) saveState(ctx context.Context, key, value string) error {
	const sql = `
		INSERT INTO sync_state (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`
	_, err := r.db.Exec(ctx, sql, key, value)
	return err
}

func (r *PostgresRepo) LoadCheckpoint(ctx context.Context) (string, error) {
	return r.loadState(ctx, "checkpoint")
}

func (r *PostgresRepo) SaveCheckpoint(ctx context.Context, ts string) error {
	return r.saveState(ctx, "checkpoint", ts)
}

func (r *PostgresRepo) LoadIdentity(ctx context.Context) (*Identity, error) {
	const sql = `SELECT user_id, books_count, updated_at FROM sync_identity WHERE id = 1`

	var id Identity
	err := r.db.QueryRow(ctx, sql).Scan(&id.UserID, &id.BooksCount, &id.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load identity: %w", err)
	}
	return &id, nil
}

func (r *PostgresRepo) SaveIdentity(ctx context.Context, id Identity) error {
	const sql = `
		INSERT INTO sync_identity (id, user_id, books_count, updated_at)
		VALUES (1, $1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			books_count = EXCLUDED.books_count,
			updated_at = EXCLUDED.updated_at`
	_, err := r.db.Exec(ctx, sql, id.UserID, id.BooksCount, id.UpdatedAt)
	return err
}
