package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/kirillkom/document-qa/internal/core/domain"
)

func newRepoWithMock(t *testing.T) (*RunRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &RunRepository{db: db}, mock, func() { _ = db.Close() }
}

func TestCreateRunInsertsAllColumns(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	createdAt := time.Date(2026, 2, 1, 9, 30, 0, 0, time.UTC)
	record := domain.RunRecord{
		ID:            "run-1",
		DocumentURL:   "https://example.com/policy.pdf",
		QuestionCount: 3,
		PassageCount:  42,
		SentinelCount: 1,
		CacheHit:      true,
		Status:        domain.StatusResponded,
		DurationMS:    1234,
		CreatedAt:     createdAt,
	}

	mock.ExpectExec("INSERT INTO runs").
		WithArgs("run-1", "https://example.com/policy.pdf", 3, 42, 1, true, "responded", "", int64(1234), createdAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.CreateRun(context.Background(), record); err != nil {
		t.Fatalf("CreateRun() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCreateRunIsIdempotentOnConflict(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("INSERT INTO runs").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.CreateRun(context.Background(), domain.RunRecord{ID: "run-dup", Status: domain.StatusResponded})
	if err != nil {
		t.Fatalf("duplicate insert must not error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetRunByIDScansRecord(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	createdAt := time.Date(2026, 2, 1, 9, 30, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"id", "document_url", "question_count", "passage_count", "sentinel_count",
		"cache_hit", "status", "error_message", "duration_ms", "created_at",
	}).AddRow("run-1", "https://example.com/policy.pdf", 3, 42, 0, false, "responded", "", int64(1500), createdAt)

	mock.ExpectQuery("SELECT id, document_url, question_count").
		WithArgs("run-1").
		WillReturnRows(rows)

	record, err := repo.GetRunByID(context.Background(), "run-1")
	if err != nil {
		t.Fatalf("GetRunByID() error = %v", err)
	}
	if record.Status != domain.StatusResponded {
		t.Fatalf("status = %q", record.Status)
	}
	if record.PassageCount != 42 || record.QuestionCount != 3 {
		t.Fatalf("unexpected counts: %+v", record)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetRunByIDReturnsInvalidInputWhenMissing(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT id, document_url, question_count").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetRunByID(context.Background(), "missing")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
