package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kirillkom/document-qa/internal/core/domain"
)

// RunRepository persists the audit trail of completed runs.
type RunRepository struct {
	db *sql.DB
}

func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *RunRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across concurrent worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083101)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	document_url TEXT NOT NULL,
	question_count INTEGER NOT NULL,
	passage_count INTEGER NOT NULL,
	sentinel_count INTEGER NOT NULL DEFAULT 0,
	cache_hit BOOLEAN NOT NULL DEFAULT FALSE,
	status TEXT NOT NULL,
	error_message TEXT,
	duration_ms BIGINT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *RunRepository) CreateRun(ctx context.Context, record domain.RunRecord) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO runs (
	id, document_url, question_count, passage_count, sentinel_count, cache_hit, status, error_message, duration_ms, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
ON CONFLICT (id) DO NOTHING
`,
		record.ID, record.DocumentURL, record.QuestionCount, record.PassageCount,
		record.SentinelCount, record.CacheHit,
		string(record.Status), record.Error, record.DurationMS, record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

func (r *RunRepository) GetRunByID(ctx context.Context, id string) (*domain.RunRecord, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, document_url, question_count, passage_count, sentinel_count, cache_hit, status, error_message, duration_ms, created_at
FROM runs
WHERE id = $1
`, id)

	var record domain.RunRecord
	var status string

	err := row.Scan(
		&record.ID, &record.DocumentURL, &record.QuestionCount, &record.PassageCount,
		&record.SentinelCount, &record.CacheHit,
		&status, &record.Error, &record.DurationMS, &record.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrInvalidInput, "get run", fmt.Errorf("run not found: %s", id))
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}

	record.Status = domain.RunStatus(status)
	return &record, nil
}
