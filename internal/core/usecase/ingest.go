package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/document-qa/internal/core/domain"
	"github.com/kirillkom/document-qa/internal/core/ports"
)

// BuildIndexUseCase runs the build phase of a request: fetch the
// document, extract text, chunk it and index passage embeddings. The
// returned IndexedDocument is read-only and may be cached by URL.
type BuildIndexUseCase struct {
	fetcher   ports.DocumentFetcher
	extractor ports.TextExtractor
	chunker   ports.Chunker
	embedder  ports.Embedder
	indexes   ports.IndexFactory
	cache     ports.DocumentCache

	embedBatchSize int
	embedWorkers   int
}

func NewBuildIndexUseCase(
	fetcher ports.DocumentFetcher,
	extractor ports.TextExtractor,
	chunker ports.Chunker,
	embedder ports.Embedder,
	indexes ports.IndexFactory,
	docCache ports.DocumentCache,
	embedBatchSize, embedWorkers int,
) *BuildIndexUseCase {
	if embedBatchSize <= 0 {
		embedBatchSize = 16
	}
	if embedWorkers <= 0 {
		embedWorkers = 4
	}
	return &BuildIndexUseCase{
		fetcher:        fetcher,
		extractor:      extractor,
		chunker:        chunker,
		embedder:       embedder,
		indexes:        indexes,
		cache:          docCache,
		embedBatchSize: embedBatchSize,
		embedWorkers:   embedWorkers,
	}
}

// Build returns the indexed document and whether it came from the
// cache.
func (uc *BuildIndexUseCase) Build(ctx context.Context, documentURL string) (*ports.IndexedDocument, bool, error) {
	if uc.cache != nil {
		if indexed, ok := uc.cache.Get(documentURL); ok {
			return indexed, true, nil
		}
	}

	fetched, err := uc.fetcher.Fetch(ctx, documentURL)
	if err != nil {
		return nil, false, err
	}

	text, sections, err := uc.extractor.Extract(ctx, fetched)
	if err != nil {
		return nil, false, err
	}

	doc := &domain.Document{
		ID:        uuid.NewString(),
		SourceURL: documentURL,
		MimeType:  fetched.MimeType,
		Text:      text,
		Sections:  sections,
		CreatedAt: time.Now().UTC(),
	}

	passages, err := uc.chunker.Split(doc)
	if err != nil {
		return nil, false, domain.WrapError(domain.ErrIngestion, "chunk document", err)
	}

	vectors, err := uc.embedPassages(ctx, passages)
	if err != nil {
		return nil, false, err
	}

	index := uc.indexes.New(doc.ID)
	for i, passage := range passages {
		if err := index.Add(ctx, passage, vectors[i]); err != nil {
			return nil, false, domain.WrapError(domain.ErrIngestion, "index passage", err)
		}
	}

	indexed := &ports.IndexedDocument{
		Document: doc,
		Passages: passages,
		Index:    index,
	}
	if uc.cache != nil {
		uc.cache.Put(documentURL, indexed)
	}
	return indexed, false, nil
}

// embedPassages embeds passage batches with a bounded worker pool.
// Vectors land in a pre-sized slice indexed by passage position, so the
// result order never depends on batch completion order.
func (uc *BuildIndexUseCase) embedPassages(ctx context.Context, passages []domain.Passage) ([][]float32, error) {
	vectors := make([][]float32, len(passages))
	sem := make(chan struct{}, uc.embedWorkers)
	errOnce := sync.Once{}

	var firstErr error
	var wg sync.WaitGroup

	for start := 0; start < len(passages); start += uc.embedBatchSize {
		end := start + uc.embedBatchSize
		if end > len(passages) {
			end = len(passages)
		}

		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				errOnce.Do(func() { firstErr = ctx.Err() })
				return
			}

			texts := make([]string, 0, end-start)
			for _, p := range passages[start:end] {
				texts = append(texts, p.Text)
			}

			batch, err := uc.embedder.Embed(ctx, texts)
			if err != nil {
				errOnce.Do(func() { firstErr = fmt.Errorf("embed passages [%d:%d]: %w", start, end, err) })
				return
			}
			if len(batch) != end-start {
				errOnce.Do(func() {
					firstErr = fmt.Errorf("embed passages [%d:%d]: got %d vectors", start, end, len(batch))
				})
				return
			}
			copy(vectors[start:end], batch)
		}(start, end)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, domain.WrapError(domain.ErrIngestion, "embed passages", firstErr)
	}

	dimension := len(vectors[0])
	for i, v := range vectors {
		if len(v) != dimension {
			return nil, domain.WrapError(domain.ErrIngestion, "embed passages",
				fmt.Errorf("passage %d has dimension %d, expected %d", i, len(v), dimension))
		}
	}
	if dimension == 0 {
		return nil, domain.WrapError(domain.ErrIngestion, "embed passages", errors.New("embedder returned empty vectors"))
	}
	return vectors, nil
}
