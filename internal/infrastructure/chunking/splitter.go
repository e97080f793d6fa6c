package chunking

import (
	"errors"
	"fmt"

	"github.com/kirillkom/document-qa/internal/core/domain"
)

// Splitter cuts document text into fixed-size overlapping passages.
// Offsets are rune offsets; consecutive passages overlap by exactly
// Overlap runes and together cover the whole text. The final passage
// may be shorter than Window.
type Splitter struct {
	Window  int
	Overlap int
}

func NewSplitter(window, overlap int) (*Splitter, error) {
	if window <= 0 {
		return nil, domain.WrapError(domain.ErrInvalidConfig, "chunker",
			fmt.Errorf("window must be positive, got %d", window))
	}
	if overlap < 0 {
		return nil, domain.WrapError(domain.ErrInvalidConfig, "chunker",
			fmt.Errorf("overlap must be non-negative, got %d", overlap))
	}
	if overlap >= window {
		return nil, domain.WrapError(domain.ErrInvalidConfig, "chunker",
			fmt.Errorf("overlap %d must be smaller than window %d", overlap, window))
	}
	return &Splitter{Window: window, Overlap: overlap}, nil
}

func (s *Splitter) Split(doc *domain.Document) ([]domain.Passage, error) {
	if doc == nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "chunk document", errors.New("nil document"))
	}

	runes := []rune(doc.Text)
	if len(runes) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "chunk document", errors.New("empty document text"))
	}

	step := s.Window - s.Overlap
	out := make([]domain.Passage, 0, len(runes)/step+1)
	for start := 0; ; start += step {
		end := start + s.Window
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, domain.Passage{
			DocumentID: doc.ID,
			SeqIndex:   len(out),
			Start:      start,
			End:        end,
			Text:       string(runes[start:end]),
		})
		if end == len(runes) {
			break
		}
	}
	return out, nil
}
