package extract

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/kirillkom/document-qa/internal/core/domain"
)

func extractPDF(raw []byte) (string, []domain.Section, error) {
	reader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", nil, domain.WrapError(domain.ErrIngestion, "parse pdf", err)
	}

	var b strings.Builder
	sections := make([]domain.Section, 0, reader.NumPage())
	runeCount := 0

	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", nil, domain.WrapError(domain.ErrIngestion, "extract pdf page",
				fmt.Errorf("page %d: %w", pageNum, err))
		}

		chunk := normalizeWhitespace(pageText) + "\n"
		start := runeCount
		runeCount += utf8.RuneCountInString(chunk)
		b.WriteString(chunk)
		sections = append(sections, domain.Section{
			Label: fmt.Sprintf("page %d", pageNum),
			Start: start,
			End:   runeCount,
		})
	}

	return b.String(), sections, nil
}
