package chunking

import (
	"strings"
	"testing"

	"github.com/kirillkom/document-qa/internal/core/domain"
)

func TestNewSplitterRejectsInvalidConfig(t *testing.T) {
	cases := []struct {
		name    string
		window  int
		overlap int
	}{
		{"zero window", 0, 0},
		{"negative window", -5, 0},
		{"negative overlap", 100, -1},
		{"overlap equals window", 100, 100},
		{"overlap exceeds window", 100, 150},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewSplitter(tc.window, tc.overlap)
			if err == nil {
				t.Fatalf("expected error for window=%d overlap=%d", tc.window, tc.overlap)
			}
			if !domain.IsKind(err, domain.ErrInvalidConfig) {
				t.Fatalf("expected invalid config error, got %v", err)
			}
		})
	}
}

func TestSplitCoversEntireTextWithExactOverlap(t *testing.T) {
	splitter, err := NewSplitter(10, 3)
	if err != nil {
		t.Fatalf("new splitter: %v", err)
	}

	text := strings.Repeat("abcdefg", 7)
	doc := &domain.Document{ID: "doc-1", Text: text}

	passages, err := splitter.Split(doc)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if len(passages) == 0 {
		t.Fatalf("expected passages, got none")
	}

	runes := []rune(text)
	if passages[0].Start != 0 {
		t.Fatalf("first passage must start at 0, got %d", passages[0].Start)
	}
	if passages[len(passages)-1].End != len(runes) {
		t.Fatalf("last passage must end at %d, got %d", len(runes), passages[len(passages)-1].End)
	}

	for i, p := range passages {
		if p.SeqIndex != i {
			t.Fatalf("passage %d has seq index %d", i, p.SeqIndex)
		}
		if p.DocumentID != "doc-1" {
			t.Fatalf("passage %d has document id %q", i, p.DocumentID)
		}
		if p.Text != string(runes[p.Start:p.End]) {
			t.Fatalf("passage %d text does not match offsets", i)
		}
		if i == 0 {
			continue
		}
		prev := passages[i-1]
		if prev.End-p.Start != 3 {
			t.Fatalf("passages %d and %d overlap by %d runes, want 3", i-1, i, prev.End-p.Start)
		}
	}
}

func TestSplitShortTextYieldsSinglePassage(t *testing.T) {
	splitter, err := NewSplitter(100, 20)
	if err != nil {
		t.Fatalf("new splitter: %v", err)
	}

	doc := &domain.Document{ID: "doc-2", Text: "short text"}
	passages, err := splitter.Split(doc)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if len(passages) != 1 {
		t.Fatalf("expected a single passage, got %d", len(passages))
	}
	if passages[0].Text != "short text" {
		t.Fatalf("unexpected passage text %q", passages[0].Text)
	}
}

func TestSplitHandlesMultibyteRunes(t *testing.T) {
	splitter, err := NewSplitter(4, 1)
	if err != nil {
		t.Fatalf("new splitter: %v", err)
	}

	doc := &domain.Document{ID: "doc-3", Text: "привет мир"}
	passages, err := splitter.Split(doc)
	if err != nil {
		t.Fatalf("split: %v", err)
	}

	runes := []rune(doc.Text)
	for i, p := range passages {
		if p.Text != string(runes[p.Start:p.End]) {
			t.Fatalf("passage %d text mismatch for rune offsets [%d,%d)", i, p.Start, p.End)
		}
	}
	if passages[len(passages)-1].End != len(runes) {
		t.Fatalf("expected full rune coverage, last end %d want %d", passages[len(passages)-1].End, len(runes))
	}
}

func TestSplitIsDeterministic(t *testing.T) {
	splitter, err := NewSplitter(12, 4)
	if err != nil {
		t.Fatalf("new splitter: %v", err)
	}

	doc := &domain.Document{ID: "doc-4", Text: strings.Repeat("policy terms ", 20)}
	first, err := splitter.Split(doc)
	if err != nil {
		t.Fatalf("first split: %v", err)
	}
	second, err := splitter.Split(doc)
	if err != nil {
		t.Fatalf("second split: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("splits differ in length: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("passage %d differs between identical splits", i)
		}
	}
}

func TestSplitRejectsEmptyDocument(t *testing.T) {
	splitter, err := NewSplitter(10, 2)
	if err != nil {
		t.Fatalf("new splitter: %v", err)
	}

	if _, err := splitter.Split(nil); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input for nil document, got %v", err)
	}
	if _, err := splitter.Split(&domain.Document{ID: "doc-5"}); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input for empty text, got %v", err)
	}
}
