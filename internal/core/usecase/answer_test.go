package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kirillkom/document-qa/internal/core/domain"
	"github.com/kirillkom/document-qa/internal/core/ports"
	"github.com/kirillkom/document-qa/internal/infrastructure/index/memory"
)

type parserFake struct {
	err error
}

func (f *parserFake) Parse(_ context.Context, question string) (domain.ParsedQuery, error) {
	if f.err != nil {
		return domain.ParsedQuery{}, f.err
	}
	return domain.ParsedQuery{OriginalQuery: question}, nil
}

// queryEmbedderFake embeds queries into a fixed dimension, optionally
// failing on questions containing a marker substring.
type queryEmbedderFake struct {
	dimension  int
	failMarker string
}

func (f *queryEmbedderFake) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, f.dimension)
		out[i][0] = 1
	}
	return out, nil
}

func (f *queryEmbedderFake) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	if f.failMarker != "" && strings.Contains(text, f.failMarker) {
		return nil, errors.New("embed backend down")
	}
	vec := make([]float32, f.dimension)
	vec[0] = 1
	return vec, nil
}

type generatorFake struct {
	err        error
	failMarker string
}

func (f *generatorFake) GenerateAnswer(_ context.Context, query domain.ParsedQuery, passages []domain.RetrievedPassage) (domain.Answer, error) {
	if f.err != nil {
		return domain.Answer{}, f.err
	}
	if f.failMarker != "" && strings.Contains(query.OriginalQuery, f.failMarker) {
		return domain.Answer{}, errors.New("generation failed")
	}
	return domain.Answer{
		Text:     "answer to: " + query.OriginalQuery,
		Decision: domain.DecisionApproved,
		Justification: domain.Justification{
			Reason:            "grounded",
			PassageReferences: []int{passages[0].Passage.SeqIndex},
		},
	}, nil
}

func indexedFixture(t *testing.T, dimension, passageCount int) *ports.IndexedDocument {
	t.Helper()
	idx := memory.NewIndex(memory.MetricCosine)
	passages := make([]domain.Passage, passageCount)
	for i := 0; i < passageCount; i++ {
		passages[i] = domain.Passage{DocumentID: "doc", SeqIndex: i, Text: "passage text"}
		vec := make([]float32, dimension)
		vec[i%dimension] = 1
		if err := idx.Add(context.Background(), passages[i], vec); err != nil {
			t.Fatalf("seed index: %v", err)
		}
	}
	return &ports.IndexedDocument{
		Document: &domain.Document{ID: "doc"},
		Passages: passages,
		Index:    idx,
	}
}

func TestAnswerAllPreservesQuestionOrder(t *testing.T) {
	uc := NewAnswerQuestionsUseCase(
		&parserFake{},
		&queryEmbedderFake{dimension: 3},
		&generatorFake{},
		2, 2, RetrievalModeSemantic,
	)
	indexed := indexedFixture(t, 3, 4)

	questions := []string{"first?", "second?", "third?", "fourth?", "fifth?"}
	results := uc.AnswerAll(context.Background(), indexed, questions)

	if len(results) != len(questions) {
		t.Fatalf("expected %d results, got %d", len(questions), len(results))
	}
	for i, r := range results {
		if r.Sentinel {
			t.Fatalf("question %d unexpectedly got the sentinel", i)
		}
		want := "answer to: " + questions[i]
		if r.Answer.Text != want {
			t.Fatalf("slot %d holds %q, want %q", i, r.Answer.Text, want)
		}
		if r.Retrieved != 2 {
			t.Fatalf("slot %d retrieved %d passages, want 2", i, r.Retrieved)
		}
	}
}

func TestAnswerAllSubstitutesSentinelForFailedQuestion(t *testing.T) {
	uc := NewAnswerQuestionsUseCase(
		&parserFake{},
		&queryEmbedderFake{dimension: 3},
		&generatorFake{failMarker: "second"},
		3, 2, RetrievalModeSemantic,
	)
	indexed := indexedFixture(t, 3, 3)

	results := uc.AnswerAll(context.Background(), indexed, []string{"first?", "second?", "third?"})

	if results[0].Sentinel || results[2].Sentinel {
		t.Fatalf("healthy questions must not get the sentinel")
	}
	if !results[1].Sentinel {
		t.Fatalf("failed question must get the sentinel")
	}
	if results[1].Answer.Text != domain.SentinelAnswer {
		t.Fatalf("sentinel slot holds %q", results[1].Answer.Text)
	}
	if results[1].Answer.Decision != domain.DecisionNeedsInfo {
		t.Fatalf("sentinel decision is %q", results[1].Answer.Decision)
	}
}

func TestAnswerAllSentinelOnEmbedFailure(t *testing.T) {
	uc := NewAnswerQuestionsUseCase(
		&parserFake{},
		&queryEmbedderFake{dimension: 3, failMarker: "broken"},
		&generatorFake{},
		3, 2, RetrievalModeSemantic,
	)
	indexed := indexedFixture(t, 3, 3)

	results := uc.AnswerAll(context.Background(), indexed, []string{"fine?", "broken question?"})
	if results[0].Sentinel {
		t.Fatalf("first question should succeed")
	}
	if !results[1].Sentinel {
		t.Fatalf("embed failure must land the sentinel in its slot")
	}
}

func TestAnswerAllSentinelOnDimensionMismatch(t *testing.T) {
	uc := NewAnswerQuestionsUseCase(
		&parserFake{},
		&queryEmbedderFake{dimension: 5},
		&generatorFake{},
		3, 2, RetrievalModeSemantic,
	)
	indexed := indexedFixture(t, 3, 3)

	results := uc.AnswerAll(context.Background(), indexed, []string{"any question?"})
	if !results[0].Sentinel {
		t.Fatalf("dimension mismatch must produce the sentinel, got %q", results[0].Answer.Text)
	}
}

func TestAnswerAllToleratesParserFailure(t *testing.T) {
	uc := NewAnswerQuestionsUseCase(
		&parserFake{err: errors.New("parser offline")},
		&queryEmbedderFake{dimension: 3},
		&generatorFake{},
		3, 2, RetrievalModeSemantic,
	)
	indexed := indexedFixture(t, 3, 3)

	results := uc.AnswerAll(context.Background(), indexed, []string{"what is covered?"})
	if results[0].Sentinel {
		t.Fatalf("parser failure alone must not sink the question")
	}
	if results[0].Answer.Text != "answer to: what is covered?" {
		t.Fatalf("expected raw question fallback, got %q", results[0].Answer.Text)
	}
}

func TestAnswerAllCanceledContextYieldsSentinels(t *testing.T) {
	uc := NewAnswerQuestionsUseCase(
		&parserFake{},
		&queryEmbedderFake{dimension: 3},
		&generatorFake{},
		3, 1, RetrievalModeSemantic,
	)
	indexed := indexedFixture(t, 3, 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := uc.AnswerAll(ctx, indexed, []string{"a?", "b?", "c?"})
	if len(results) != 3 {
		t.Fatalf("expected a slot per question even when canceled, got %d", len(results))
	}
}
