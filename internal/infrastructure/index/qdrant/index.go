package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/document-qa/internal/core/domain"
	"github.com/kirillkom/document-qa/internal/core/ports"
)

// Index stores passage vectors in a per-document Qdrant collection.
// Results follow the same contract as the in-memory baseline: smaller
// distance first, ties broken by ascending passage sequence index.
type Index struct {
	baseURL    string
	collection string
	httpClient *http.Client

	mu        sync.Mutex
	ensured   bool
	dimension int
	size      int
}

type Factory struct {
	BaseURL          string
	CollectionPrefix string
}

func (f Factory) New(documentID string) ports.VectorIndex {
	prefix := f.CollectionPrefix
	if prefix == "" {
		prefix = "docqa"
	}
	return &Index{
		baseURL:    strings.TrimRight(f.BaseURL, "/"),
		collection: fmt.Sprintf("%s_%s", prefix, documentID),
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

func (idx *Index) Add(ctx context.Context, passage domain.Passage, vector []float32) error {
	if len(vector) == 0 {
		return domain.WrapError(domain.ErrInvalidInput, "qdrant add", fmt.Errorf("empty vector"))
	}
	if err := idx.ensureCollection(ctx, len(vector)); err != nil {
		return err
	}

	idx.mu.Lock()
	if len(vector) != idx.dimension {
		dim := idx.dimension
		idx.mu.Unlock()
		return domain.WrapError(domain.ErrInvalidInput, "qdrant add",
			fmt.Errorf("vector dimension %d, index dimension %d", len(vector), dim))
	}
	idx.mu.Unlock()

	body := map[string]any{
		"points": []map[string]any{
			{
				"id":     uuid.NewString(),
				"vector": vector,
				"payload": map[string]any{
					"document_id": passage.DocumentID,
					"seq_index":   passage.SeqIndex,
					"start":       passage.Start,
					"end":         passage.End,
					"text":        passage.Text,
				},
			},
		},
	}

	url := fmt.Sprintf("%s/collections/%s/points?wait=true", idx.baseURL, idx.collection)
	if err := idx.do(ctx, http.MethodPut, url, body, nil, "upsert"); err != nil {
		return err
	}

	idx.mu.Lock()
	idx.size++
	idx.mu.Unlock()
	return nil
}

func (idx *Index) Query(ctx context.Context, vector []float32, k int) ([]domain.RetrievedPassage, error) {
	idx.mu.Lock()
	size, dimension := idx.size, idx.dimension
	idx.mu.Unlock()

	if size == 0 {
		return nil, domain.WrapError(domain.ErrEmptyIndex, "qdrant query", fmt.Errorf("no vectors inserted"))
	}
	if len(vector) != dimension {
		return nil, domain.WrapError(domain.ErrRetrieval, "qdrant query",
			fmt.Errorf("query dimension %d, index dimension %d", len(vector), dimension))
	}
	if k <= 0 {
		k = 5
	}

	reqBody := map[string]any{
		"query":        vector,
		"limit":        k,
		"with_payload": true,
	}

	var response struct {
		Result struct {
			Points []struct {
				Score   float64        `json:"score"`
				Payload map[string]any `json:"payload"`
			} `json:"points"`
		} `json:"result"`
	}

	url := fmt.Sprintf("%s/collections/%s/points/query", idx.baseURL, idx.collection)
	if err := idx.do(ctx, http.MethodPost, url, reqBody, &response, "query"); err != nil {
		return nil, domain.WrapError(domain.ErrRetrieval, "qdrant query", err)
	}

	out := make([]domain.RetrievedPassage, 0, len(response.Result.Points))
	for _, p := range response.Result.Points {
		out = append(out, domain.RetrievedPassage{
			Passage: domain.Passage{
				DocumentID: payloadString(p.Payload, "document_id"),
				SeqIndex:   payloadInt(p.Payload, "seq_index"),
				Start:      payloadInt(p.Payload, "start"),
				End:        payloadInt(p.Payload, "end"),
				Text:       payloadString(p.Payload, "text"),
			},
			// Qdrant cosine scores are similarities; convert to the
			// distance convention of the baseline index.
			Distance: 1 - p.Score,
		})
	}

	// Backend order is by score only; enforce the same ordering
	// contract as the in-memory index.
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		return out[i].Passage.SeqIndex < out[j].Passage.SeqIndex
	})
	return out, nil
}

// Drop deletes the backing collection. Called when the document falls
// out of the cache; the index must not be used afterwards.
func (idx *Index) Drop(ctx context.Context) error {
	idx.mu.Lock()
	ensured := idx.ensured
	idx.mu.Unlock()
	if !ensured {
		return nil
	}

	url := fmt.Sprintf("%s/collections/%s", idx.baseURL, idx.collection)
	if err := idx.do(ctx, http.MethodDelete, url, nil, nil, "drop collection"); err != nil {
		return err
	}

	idx.mu.Lock()
	idx.ensured = false
	idx.size = 0
	idx.dimension = 0
	idx.mu.Unlock()
	return nil
}

func (idx *Index) Size() int {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.size
}

func (idx *Index) Dimension() int {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.dimension
}

func (idx *Index) ensureCollection(ctx context.Context, vectorSize int) error {
	idx.mu.Lock()
	if idx.ensured {
		idx.mu.Unlock()
		return nil
	}
	idx.mu.Unlock()

	body := map[string]any{
		"vectors": map[string]any{
			"size":     vectorSize,
			"distance": "Cosine",
		},
	}
	url := fmt.Sprintf("%s/collections/%s", idx.baseURL, idx.collection)
	if err := idx.do(ctx, http.MethodPut, url, body, nil, "ensure collection"); err != nil {
		return err
	}

	idx.mu.Lock()
	idx.ensured = true
	idx.dimension = vectorSize
	idx.mu.Unlock()
	return nil
}

func (idx *Index) do(ctx context.Context, method, url string, reqBody any, out any, operation string) error {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal qdrant %s body: %w", operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create qdrant %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := idx.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 && !(operation == "ensure collection" && resp.StatusCode == http.StatusConflict) {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("qdrant %s status: %s: %s", operation, resp.Status, strings.TrimSpace(string(raw)))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode qdrant %s response: %w", operation, err)
		}
	}
	return nil
}

func payloadString(payload map[string]any, key string) string {
	v, _ := payload[key].(string)
	return v
}

func payloadInt(payload map[string]any, key string) int {
	if v, ok := payload[key].(float64); ok {
		return int(v)
	}
	return 0
}
