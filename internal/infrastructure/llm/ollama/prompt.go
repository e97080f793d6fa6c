package ollama

import (
	"fmt"
	"strings"

	"github.com/kirillkom/document-qa/internal/core/domain"
)

func buildParsePrompt(question string) string {
	var b strings.Builder
	b.WriteString(`You extract structured information from natural-language questions about insurance policy documents.

Extract the following fields when present: age, gender, procedure, location, policy_duration, policy_type, query_type (one of: coverage, conditions, waiting period, exclusions).

Respond with a single JSON object holding only those fields. Omit fields that are not present in the question.

Question:
`)
	b.WriteString(question)
	return b.String()
}

func buildAnswerPrompt(query domain.ParsedQuery, passages []domain.RetrievedPassage) string {
	var b strings.Builder
	b.WriteString(`You evaluate questions against policy document excerpts. Base your answer strictly on the excerpts provided.

Respond with a single JSON object:
{
  "decision": "APPROVED" | "REJECTED" | "PARTIAL" | "INFORMATION_NEEDED",
  "amount": number or null,
  "justification": {
    "reason": "clear explanation answering the question",
    "clause_references": [list of excerpt numbers used]
  }
}

QUESTION:
`)
	b.WriteString(formatQuery(query))
	b.WriteString("\n\nEXCERPTS:\n")
	b.WriteString(formatPassages(passages))
	return b.String()
}

func formatQuery(query domain.ParsedQuery) string {
	var b strings.Builder
	b.WriteString(query.OriginalQuery)

	fields := []struct {
		label string
		value string
	}{
		{"Age", query.Age},
		{"Gender", query.Gender},
		{"Procedure", query.Procedure},
		{"Location", query.Location},
		{"Policy duration", query.PolicyDuration},
		{"Policy type", query.PolicyType},
		{"Query type", query.QueryType},
	}
	for _, f := range fields {
		if f.value != "" {
			b.WriteString(fmt.Sprintf("\n- %s: %s", f.label, f.value))
		}
	}
	return b.String()
}

func formatPassages(passages []domain.RetrievedPassage) string {
	var b strings.Builder
	for i, p := range passages {
		b.WriteString(fmt.Sprintf("Excerpt %d [passage %d, distance %.3f]:\n%s\n\n",
			i+1, p.Passage.SeqIndex, p.Distance, p.Passage.Text))
	}
	return b.String()
}
