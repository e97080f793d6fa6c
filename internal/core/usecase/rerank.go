package usecase

import (
	"sort"
	"strings"
	"unicode"

	"github.com/kirillkom/document-qa/internal/core/domain"
)

// rerankRetrieved reorders retrieved passages by a blend of vector
// distance and lexical token overlap with the question. Distances are
// rewritten so the combined ordering survives in the output.
func rerankRetrieved(question string, retrieved []domain.RetrievedPassage) []domain.RetrievedPassage {
	if len(retrieved) < 2 {
		return retrieved
	}

	queryTokens := toTokenSet(question)

	minDist := retrieved[0].Distance
	maxDist := retrieved[0].Distance
	for _, r := range retrieved[1:] {
		if r.Distance < minDist {
			minDist = r.Distance
		}
		if r.Distance > maxDist {
			maxDist = r.Distance
		}
	}

	distRange := maxDist - minDist
	similarity := func(d float64) float64 {
		if distRange <= 0 {
			return 1
		}
		return 1 - (d-minDist)/distRange
	}

	out := make([]domain.RetrievedPassage, len(retrieved))
	copy(out, retrieved)
	for i := range out {
		score := 0.70*similarity(out[i].Distance) + 0.30*tokenOverlap(queryTokens, toTokenSet(out[i].Passage.Text))
		out[i].Distance = 1 - score
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		return out[i].Passage.SeqIndex < out[j].Passage.SeqIndex
	})
	return out
}

func tokenOverlap(query, passage map[string]struct{}) float64 {
	if len(query) == 0 || len(passage) == 0 {
		return 0
	}
	matches := 0
	for token := range query {
		if _, ok := passage[token]; ok {
			matches++
		}
	}
	return float64(matches) / float64(len(query))
}

func toTokenSet(s string) map[string]struct{} {
	out := make(map[string]struct{}, 16)
	var b strings.Builder
	flush := func() {
		if b.Len() > 0 {
			out[b.String()] = struct{}{}
			b.Reset()
		}
	}
	for _, r := range s {
		r = unicode.ToLower(r)
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			continue
		}
		flush()
	}
	flush()
	return out
}
