package extract

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"code.sajari.com/docconv"

	"github.com/kirillkom/document-qa/internal/core/domain"
)

func extractDOCX(raw []byte) (string, []domain.Section, error) {
	text, _, err := docconv.ConvertDocx(bytes.NewReader(raw))
	if err != nil {
		return "", nil, domain.WrapError(domain.ErrIngestion, "parse docx", err)
	}

	text = strings.TrimSpace(text)
	sections := []domain.Section{{
		Label: "document",
		Start: 0,
		End:   utf8.RuneCountInString(text),
	}}
	return text, sections, nil
}
