package extract

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"

	"github.com/kirillkom/document-qa/internal/core/domain"
)

func extractHTML(raw []byte) (string, []domain.Section, error) {
	root, err := html.Parse(bytes.NewReader(raw))
	if err != nil {
		return "", nil, domain.WrapError(domain.ErrIngestion, "parse html", err)
	}

	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "head":
				return
			}
		}
		if n.Type == html.TextNode {
			if trimmed := strings.TrimSpace(n.Data); trimmed != "" {
				parts = append(parts, normalizeWhitespace(trimmed))
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(root)

	text := strings.Join(parts, "\n")
	sections := []domain.Section{{
		Label: "body",
		Start: 0,
		End:   utf8.RuneCountInString(text),
	}}
	return text, sections, nil
}
