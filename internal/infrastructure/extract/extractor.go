package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/kirillkom/document-qa/internal/core/domain"
	"github.com/kirillkom/document-qa/internal/core/ports"
)

// Extractor dispatches raw document bytes to a format-specific text
// extraction routine based on mime type.
type Extractor struct{}

func New() *Extractor {
	return &Extractor{}
}

func (e *Extractor) Extract(_ context.Context, fetched *ports.FetchedDocument) (string, []domain.Section, error) {
	if fetched == nil || len(fetched.Body) == 0 {
		return "", nil, domain.WrapError(domain.ErrIngestion, "extract text", fmt.Errorf("empty document payload"))
	}

	var (
		text     string
		sections []domain.Section
		err      error
	)

	switch {
	case strings.Contains(fetched.MimeType, "pdf"):
		text, sections, err = extractPDF(fetched.Body)
	case strings.Contains(fetched.MimeType, "spreadsheetml"):
		text, sections, err = extractXLSX(fetched.Body)
	case strings.Contains(fetched.MimeType, "html"):
		text, sections, err = extractHTML(fetched.Body)
	case strings.HasPrefix(fetched.MimeType, "text/"),
		strings.Contains(fetched.MimeType, "json"),
		strings.Contains(fetched.MimeType, "csv"):
		text, sections, err = extractPlain(fetched.Body)
	case strings.Contains(fetched.MimeType, "wordprocessingml"):
		text, sections, err = extractDOCX(fetched.Body)
	case strings.Contains(fetched.MimeType, "msword"):
		// Legacy binary .doc is not supported, only OOXML .docx.
		return "", nil, domain.WrapError(domain.ErrUnsupported, "extract text",
			fmt.Errorf("legacy .doc extraction is not supported"))
	default:
		// Unlabeled payloads are often plain text; reject only when
		// they fail UTF-8 validation.
		text, sections, err = extractPlain(fetched.Body)
	}
	if err != nil {
		return "", nil, err
	}

	if strings.TrimSpace(text) == "" {
		return "", nil, domain.WrapError(domain.ErrUnsupported, "extract text",
			fmt.Errorf("document %s produced no text", fetched.SourceURL))
	}
	return text, sections, nil
}

func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
