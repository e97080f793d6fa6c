package usecase

import (
	"testing"

	"github.com/kirillkom/document-qa/internal/core/domain"
)

func retrievedFixture(seq int, distance float64, text string) domain.RetrievedPassage {
	return domain.RetrievedPassage{
		Passage:  domain.Passage{DocumentID: "doc", SeqIndex: seq, Text: text},
		Distance: distance,
	}
}

func TestRerankPromotesLexicalOverlap(t *testing.T) {
	retrieved := []domain.RetrievedPassage{
		retrievedFixture(0, 0.30, "unrelated clause about premises and liability"),
		retrievedFixture(1, 0.32, "the grace period for premium payment is thirty days"),
		retrievedFixture(2, 0.90, "another unrelated exclusion clause"),
	}

	got := rerankRetrieved("what is the grace period for premium payment", retrieved)

	if len(got) != 3 {
		t.Fatalf("expected 3 passages, got %d", len(got))
	}
	if got[0].Passage.SeqIndex != 1 {
		t.Fatalf("expected strong lexical match to move first, got seq %d", got[0].Passage.SeqIndex)
	}
	for i := 1; i < len(got); i++ {
		if got[i].Distance < got[i-1].Distance {
			t.Fatalf("rewritten distances not non-decreasing at %d", i)
		}
	}
}

func TestRerankKeepsVectorOrderWithoutOverlap(t *testing.T) {
	retrieved := []domain.RetrievedPassage{
		retrievedFixture(0, 0.10, "alpha beta gamma"),
		retrievedFixture(1, 0.50, "delta epsilon zeta"),
	}

	got := rerankRetrieved("completely different words", retrieved)
	if got[0].Passage.SeqIndex != 0 {
		t.Fatalf("without lexical signal the vector ordering must hold, got seq %d first", got[0].Passage.SeqIndex)
	}
}

func TestRerankTieBreaksBySeqIndex(t *testing.T) {
	retrieved := []domain.RetrievedPassage{
		retrievedFixture(3, 0.20, "identical text"),
		retrievedFixture(1, 0.20, "identical text"),
	}

	got := rerankRetrieved("identical text", retrieved)
	if got[0].Passage.SeqIndex != 1 {
		t.Fatalf("equal scores must order by ascending seq index, got %d first", got[0].Passage.SeqIndex)
	}
}

func TestRerankShortSlicesPassThrough(t *testing.T) {
	if got := rerankRetrieved("q", nil); len(got) != 0 {
		t.Fatalf("nil input must stay empty")
	}
	single := []domain.RetrievedPassage{retrievedFixture(0, 0.5, "only one")}
	got := rerankRetrieved("q", single)
	if len(got) != 1 || got[0].Distance != 0.5 {
		t.Fatalf("single passage must pass through unchanged")
	}
}

func TestRerankDoesNotMutateInput(t *testing.T) {
	retrieved := []domain.RetrievedPassage{
		retrievedFixture(0, 0.10, "alpha"),
		retrievedFixture(1, 0.90, "grace period clause"),
	}
	rerankRetrieved("grace period", retrieved)

	if retrieved[0].Distance != 0.10 || retrieved[1].Distance != 0.90 {
		t.Fatalf("input slice distances were mutated")
	}
}
