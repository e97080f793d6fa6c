package usecase

import (
	"context"
	"fmt"

	"github.com/kirillkom/document-qa/internal/core/domain"
	"github.com/kirillkom/document-qa/internal/core/ports"
)

// RecordRunUseCase persists run-completed events consumed by the audit
// worker.
type RecordRunUseCase struct {
	repo ports.RunRepository
}

func NewRecordRunUseCase(repo ports.RunRepository) *RecordRunUseCase {
	return &RecordRunUseCase{repo: repo}
}

func (uc *RecordRunUseCase) RecordRun(ctx context.Context, record domain.RunRecord) error {
	if record.ID == "" {
		return domain.WrapError(domain.ErrInvalidInput, "record run", fmt.Errorf("run record without id"))
	}
	if err := uc.repo.CreateRun(ctx, record); err != nil {
		return fmt.Errorf("persist run record: %w", err)
	}
	return nil
}
