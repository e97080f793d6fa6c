package ports

import (
	"context"

	"github.com/kirillkom/document-qa/internal/core/domain"
)

// FetchedDocument is the raw payload of a fetched document plus the
// transport-level metadata needed to pick an extractor.
type FetchedDocument struct {
	SourceURL string
	MimeType  string
	Body      []byte
}

// DocumentFetcher retrieves a document by URL. One attempt, no retries.
type DocumentFetcher interface {
	Fetch(ctx context.Context, url string) (*FetchedDocument, error)
}

// TextExtractor turns raw document bytes into plain text with
// structural section offsets.
type TextExtractor interface {
	Extract(ctx context.Context, fetched *FetchedDocument) (string, []domain.Section, error)
}

// Chunker splits extracted text into overlapping passages. The output
// is deterministic for identical input and covers the text with no
// gaps.
type Chunker interface {
	Split(doc *domain.Document) ([]domain.Passage, error)
}

// Embedder builds vectors for passages and query text. Vectors have a
// fixed dimensionality per model.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// VectorIndex answers nearest-neighbor queries over passage embeddings.
// Add is only called during the build phase; Query is safe for
// concurrent use once the build phase has completed.
type VectorIndex interface {
	Add(ctx context.Context, passage domain.Passage, vector []float32) error
	Query(ctx context.Context, vector []float32, k int) ([]domain.RetrievedPassage, error)
	Size() int
	Dimension() int
}

// IndexFactory creates one fresh index per document build.
type IndexFactory interface {
	New(documentID string) VectorIndex
}

// IndexDropper is implemented by index backends whose storage outlives
// the process. Drop releases that storage once the document leaves the
// cache; in-memory indexes need no such hook.
type IndexDropper interface {
	Drop(ctx context.Context) error
}

// QueryParser extracts structured fields from a natural-language
// question.
type QueryParser interface {
	Parse(ctx context.Context, question string) (domain.ParsedQuery, error)
}

// AnswerGenerator produces the final answer for a question given the
// retrieved passages.
type AnswerGenerator interface {
	GenerateAnswer(ctx context.Context, query domain.ParsedQuery, passages []domain.RetrievedPassage) (domain.Answer, error)
}

// IndexedDocument is a fully built, read-only retrieval unit.
type IndexedDocument struct {
	Document *domain.Document
	Passages []domain.Passage
	Index    VectorIndex
}

// DocumentCache avoids re-ingesting the same URL within a short TTL.
type DocumentCache interface {
	Get(url string) (*IndexedDocument, bool)
	Put(url string, doc *IndexedDocument)
}

// RunRepository persists run audit records.
type RunRepository interface {
	CreateRun(ctx context.Context, record domain.RunRecord) error
	GetRunByID(ctx context.Context, id string) (*domain.RunRecord, error)
}

// EventQueue publishes/consumes run-completed events.
type EventQueue interface {
	PublishRunCompleted(ctx context.Context, record domain.RunRecord) error
	SubscribeRunCompleted(ctx context.Context, handler func(context.Context, domain.RunRecord) error) error
}
