package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/document-qa/internal/core/domain"
	"github.com/kirillkom/document-qa/internal/core/ports"
)

// RunUseCase orchestrates one request end to end: build phase, then
// answer phase, then response assembly. Ingestion failure is fatal for
// the whole run; per-question failures have already been folded into
// sentinel slots by the answer phase.
type RunUseCase struct {
	builder  *BuildIndexUseCase
	answerer *AnswerQuestionsUseCase
	queue    ports.EventQueue
	logger   *slog.Logger
}

func NewRunUseCase(
	builder *BuildIndexUseCase,
	answerer *AnswerQuestionsUseCase,
	queue ports.EventQueue,
	logger *slog.Logger,
) *RunUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &RunUseCase{
		builder:  builder,
		answerer: answerer,
		queue:    queue,
		logger:   logger,
	}
}

func (uc *RunUseCase) Run(ctx context.Context, documentURL string, questions []string) (*ports.RunResult, error) {
	record := domain.RunRecord{
		ID:            uuid.NewString(),
		DocumentURL:   documentURL,
		QuestionCount: len(questions),
		Status:        domain.StatusReceived,
		CreatedAt:     time.Now().UTC(),
	}
	started := time.Now()

	if strings.TrimSpace(documentURL) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "run", errors.New("document url is required"))
	}
	if len(questions) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "run", errors.New("at least one question is required"))
	}
	for _, q := range questions {
		if strings.TrimSpace(q) == "" {
			return nil, domain.WrapError(domain.ErrInvalidInput, "run", errors.New("questions must be non-empty"))
		}
	}

	record.Status = domain.StatusIngesting
	indexed, cacheHit, err := uc.builder.Build(ctx, documentURL)
	if err != nil {
		record.Status = domain.StatusFailed
		record.Error = err.Error()
		record.DurationMS = time.Since(started).Milliseconds()
		uc.publish(ctx, record)
		return nil, err
	}
	record.Status = domain.StatusIndexed
	record.PassageCount = len(indexed.Passages)
	record.CacheHit = cacheHit
	uc.logger.Debug("document_indexed",
		"run_id", record.ID,
		"document_id", indexed.Document.ID,
		"passages", record.PassageCount,
		"cache_hit", cacheHit,
	)

	record.Status = domain.StatusAnswering
	results := uc.answerer.AnswerAll(ctx, indexed, questions)

	answers := make([]string, len(results))
	retrievalHits := 0
	for i, r := range results {
		answers[i] = r.Answer.Text
		if r.Sentinel {
			record.SentinelCount++
		}
		if r.Retrieved > 0 {
			retrievalHits++
		}
	}

	record.Status = domain.StatusResponded
	record.DurationMS = time.Since(started).Milliseconds()
	uc.publish(ctx, record)

	uc.logger.Info("run_completed",
		"run_id", record.ID,
		"document_id", indexed.Document.ID,
		"questions", len(questions),
		"passages", len(indexed.Passages),
		"cache_hit", cacheHit,
		"sentinel_answers", record.SentinelCount,
		"duration_ms", record.DurationMS,
	)

	return &ports.RunResult{
		Answers:       answers,
		RetrievalHits: retrievalHits,
		Record:        record,
	}, nil
}

// publish is best effort: losing an audit event must not fail a run
// that already has its answers.
func (uc *RunUseCase) publish(ctx context.Context, record domain.RunRecord) {
	if uc.queue == nil {
		return
	}
	if err := uc.queue.PublishRunCompleted(ctx, record); err != nil {
		uc.logger.Warn("publish_run_event_failed", "run_id", record.ID, "error", err)
	}
}
