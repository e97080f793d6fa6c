package ports

import (
	"context"

	"github.com/kirillkom/document-qa/internal/core/domain"
)

// RunResult is the outcome of one document QA run, one answer slot per
// input question, in input order.
type RunResult struct {
	Answers       []string
	RetrievalHits int
	Record        domain.RunRecord
}

// RunService is the inbound contract for the document QA pipeline.
type RunService interface {
	Run(ctx context.Context, documentURL string, questions []string) (*RunResult, error)
}

// RunAuditor is the inbound contract for asynchronous run-audit
// persistence, driven by the worker.
type RunAuditor interface {
	RecordRun(ctx context.Context, record domain.RunRecord) error
}
