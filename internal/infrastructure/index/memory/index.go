package memory

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/kirillkom/document-qa/internal/core/domain"
	"github.com/kirillkom/document-qa/internal/core/ports"
)

type Metric string

const (
	MetricCosine Metric = "cosine"
	MetricL2     Metric = "l2"
)

// Index is the exact nearest-neighbor baseline: a brute-force linear
// scan over all stored vectors. Writes happen during the build phase
// only; concurrent reads afterwards are safe.
type Index struct {
	metric Metric

	mu        sync.RWMutex
	dimension int
	passages  []domain.Passage
	vectors   [][]float32
}

func NewIndex(metric Metric) *Index {
	if metric != MetricL2 {
		metric = MetricCosine
	}
	return &Index{metric: metric}
}

// Factory builds one fresh Index per document.
type Factory struct {
	Metric Metric
}

func (f Factory) New(string) ports.VectorIndex {
	return NewIndex(f.Metric)
}

func (idx *Index) Add(_ context.Context, passage domain.Passage, vector []float32) error {
	if len(vector) == 0 {
		return domain.WrapError(domain.ErrInvalidInput, "index add", errors.New("empty vector"))
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.dimension == 0 {
		idx.dimension = len(vector)
	}
	if len(vector) != idx.dimension {
		return domain.WrapError(domain.ErrInvalidInput, "index add",
			fmt.Errorf("vector dimension %d, index dimension %d", len(vector), idx.dimension))
	}

	idx.passages = append(idx.passages, passage)
	idx.vectors = append(idx.vectors, vector)
	return nil
}

func (idx *Index) Query(_ context.Context, vector []float32, k int) ([]domain.RetrievedPassage, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if len(idx.vectors) == 0 {
		return nil, domain.WrapError(domain.ErrEmptyIndex, "index query", errors.New("no vectors inserted"))
	}
	if len(vector) != idx.dimension {
		return nil, domain.WrapError(domain.ErrRetrieval, "index query",
			fmt.Errorf("query dimension %d, index dimension %d", len(vector), idx.dimension))
	}
	if k <= 0 {
		k = 5
	}

	out := make([]domain.RetrievedPassage, 0, len(idx.vectors))
	for i, v := range idx.vectors {
		out = append(out, domain.RetrievedPassage{
			Passage:  idx.passages[i],
			Distance: idx.distance(v, vector),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		return out[i].Passage.SeqIndex < out[j].Passage.SeqIndex
	})

	if k > len(out) {
		k = len(out)
	}
	return out[:k], nil
}

func (idx *Index) Size() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.vectors)
}

func (idx *Index) Dimension() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.dimension
}

func (idx *Index) distance(stored, query []float32) float64 {
	switch idx.metric {
	case MetricL2:
		return l2Distance(stored, query)
	default:
		return cosineDistance(stored, query)
	}
}

func cosineDistance(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}

func l2Distance(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
