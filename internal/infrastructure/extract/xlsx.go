package extract

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/document-qa/internal/core/domain"
)

func extractXLSX(raw []byte) (string, []domain.Section, error) {
	file, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		return "", nil, domain.WrapError(domain.ErrIngestion, "parse xlsx", err)
	}
	defer file.Close()

	var b strings.Builder
	var sections []domain.Section
	runeCount := 0

	for _, sheet := range file.GetSheetList() {
		rows, err := file.GetRows(sheet)
		if err != nil {
			return "", nil, domain.WrapError(domain.ErrIngestion, "read xlsx sheet",
				fmt.Errorf("sheet %s: %w", sheet, err))
		}

		var lines []string
		for _, row := range rows {
			if line := normalizeWhitespace(strings.Join(row, " ")); line != "" {
				lines = append(lines, line)
			}
		}
		if len(lines) == 0 {
			continue
		}

		chunk := strings.Join(lines, "\n") + "\n"
		start := runeCount
		runeCount += utf8.RuneCountInString(chunk)
		b.WriteString(chunk)
		sections = append(sections, domain.Section{
			Label: fmt.Sprintf("sheet %s", sheet),
			Start: start,
			End:   runeCount,
		})
	}

	return b.String(), sections, nil
}
