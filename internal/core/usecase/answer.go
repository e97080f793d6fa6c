package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/kirillkom/document-qa/internal/core/domain"
	"github.com/kirillkom/document-qa/internal/core/ports"
)

const (
	RetrievalModeSemantic = "semantic"
	RetrievalModeRerank   = "rerank"
)

// AnswerQuestionsUseCase runs the query phase: per question, embed,
// retrieve, generate. Questions are answered concurrently by a bounded
// pool; each result lands in its question's slot, so the output always
// has one answer per question in input order. A failed question gets
// the sentinel answer instead of aborting its siblings.
type AnswerQuestionsUseCase struct {
	parser    ports.QueryParser
	embedder  ports.Embedder
	generator ports.AnswerGenerator

	topK          int
	workers       int
	retrievalMode string
	sentinel      string
}

func NewAnswerQuestionsUseCase(
	parser ports.QueryParser,
	embedder ports.Embedder,
	generator ports.AnswerGenerator,
	topK, workers int,
	retrievalMode string,
) *AnswerQuestionsUseCase {
	if topK <= 0 {
		topK = 5
	}
	if workers <= 0 {
		workers = 4
	}
	if retrievalMode != RetrievalModeRerank {
		retrievalMode = RetrievalModeSemantic
	}
	return &AnswerQuestionsUseCase{
		parser:        parser,
		embedder:      embedder,
		generator:     generator,
		topK:          topK,
		workers:       workers,
		retrievalMode: retrievalMode,
		sentinel:      domain.SentinelAnswer,
	}
}

// QuestionResult reports one answered slot plus whether the sentinel
// was substituted.
type QuestionResult struct {
	Answer    domain.Answer
	Sentinel  bool
	Retrieved int
}

func (uc *AnswerQuestionsUseCase) AnswerAll(ctx context.Context, indexed *ports.IndexedDocument, questions []string) []QuestionResult {
	results := make([]QuestionResult, len(questions))
	sem := make(chan struct{}, uc.workers)
	var wg sync.WaitGroup

	for i, question := range questions {
		wg.Add(1)
		go func(slot int, question string) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				results[slot] = uc.sentinelResult()
				return
			}

			answer, retrieved, err := uc.answerOne(ctx, indexed, question)
			if err != nil {
				slog.Warn("question_failed",
					"document_id", indexed.Document.ID,
					"slot", slot,
					"error", err,
				)
				results[slot] = uc.sentinelResult()
				return
			}
			results[slot] = QuestionResult{Answer: answer, Retrieved: retrieved}
		}(i, question)
	}
	wg.Wait()

	return results
}

func (uc *AnswerQuestionsUseCase) answerOne(ctx context.Context, indexed *ports.IndexedDocument, question string) (domain.Answer, int, error) {
	query, err := uc.parser.Parse(ctx, question)
	if err != nil {
		// The parser degrades to pattern matching on its own; a hard
		// error still leaves the raw question usable.
		query = domain.ParsedQuery{OriginalQuery: question}
	}

	retrieved, err := uc.retrieve(ctx, indexed, query)
	if err != nil {
		return domain.Answer{}, 0, err
	}

	answer, err := uc.generator.GenerateAnswer(ctx, query, retrieved)
	if err != nil {
		return domain.Answer{}, len(retrieved), domain.WrapError(domain.ErrAnswer, "generate answer", err)
	}
	return answer, len(retrieved), nil
}

func (uc *AnswerQuestionsUseCase) retrieve(ctx context.Context, indexed *ports.IndexedDocument, query domain.ParsedQuery) ([]domain.RetrievedPassage, error) {
	vector, err := uc.embedder.EmbedQuery(ctx, query.SearchText())
	if err != nil {
		return nil, domain.WrapError(domain.ErrRetrieval, "embed query", err)
	}
	if dim := indexed.Index.Dimension(); len(vector) != dim {
		return nil, domain.WrapError(domain.ErrRetrieval, "embed query",
			fmt.Errorf("query dimension %d, index dimension %d", len(vector), dim))
	}

	retrieved, err := indexed.Index.Query(ctx, vector, uc.topK)
	if err != nil {
		return nil, domain.WrapError(domain.ErrRetrieval, "query index", err)
	}

	if uc.retrievalMode == RetrievalModeRerank {
		retrieved = rerankRetrieved(query.OriginalQuery, retrieved)
	}
	return retrieved, nil
}

func (uc *AnswerQuestionsUseCase) sentinelResult() QuestionResult {
	return QuestionResult{
		Answer: domain.Answer{
			Text:     uc.sentinel,
			Decision: domain.DecisionNeedsInfo,
			Justification: domain.Justification{
				Reason: uc.sentinel,
			},
		},
		Sentinel: true,
	}
}
