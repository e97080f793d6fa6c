package extract

import (
	"fmt"
	"unicode/utf8"

	"github.com/kirillkom/document-qa/internal/core/domain"
)

func extractPlain(raw []byte) (string, []domain.Section, error) {
	if !utf8.Valid(raw) {
		return "", nil, domain.WrapError(domain.ErrUnsupported, "extract text",
			fmt.Errorf("binary payload is not valid UTF-8"))
	}

	text := string(raw)
	sections := []domain.Section{{
		Label: "document",
		Start: 0,
		End:   utf8.RuneCountInString(text),
	}}
	return text, sections, nil
}
