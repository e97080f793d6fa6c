package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/kirillkom/document-qa/internal/core/domain"
)

type runRepoFake struct {
	created []domain.RunRecord
	err     error
}

func (f *runRepoFake) CreateRun(_ context.Context, record domain.RunRecord) error {
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, record)
	return nil
}

func (f *runRepoFake) GetRunByID(context.Context, string) (*domain.RunRecord, error) {
	return nil, errors.New("not implemented")
}

func TestRecordRunPersistsRecord(t *testing.T) {
	repo := &runRepoFake{}
	uc := NewRecordRunUseCase(repo)

	record := domain.RunRecord{ID: "run-1", Status: domain.StatusResponded}
	if err := uc.RecordRun(context.Background(), record); err != nil {
		t.Fatalf("record run: %v", err)
	}
	if len(repo.created) != 1 || repo.created[0].ID != "run-1" {
		t.Fatalf("expected persisted record, got %+v", repo.created)
	}
}

func TestRecordRunRejectsEmptyID(t *testing.T) {
	uc := NewRecordRunUseCase(&runRepoFake{})
	err := uc.RecordRun(context.Background(), domain.RunRecord{})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestRecordRunWrapsRepositoryError(t *testing.T) {
	uc := NewRecordRunUseCase(&runRepoFake{err: errors.New("db down")})
	err := uc.RecordRun(context.Background(), domain.RunRecord{ID: "run-1"})
	if err == nil {
		t.Fatalf("expected error")
	}
}
