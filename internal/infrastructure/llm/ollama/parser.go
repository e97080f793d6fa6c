package ollama

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/kirillkom/document-qa/internal/core/domain"
)

// Parser extracts structured query fields with the generation model,
// falling back to pattern matching when the model is unavailable or
// returns malformed JSON.
type Parser struct {
	client *Client
}

func NewParser(client *Client) *Parser {
	return &Parser{client: client}
}

func (p *Parser) Parse(ctx context.Context, question string) (domain.ParsedQuery, error) {
	raw, err := p.client.generateJSON(ctx, buildParsePrompt(question))
	if err != nil {
		return fallbackParse(question), nil
	}

	var parsed domain.ParsedQuery
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &parsed); err != nil {
		return fallbackParse(question), nil
	}
	parsed.OriginalQuery = question
	return parsed, nil
}

var (
	agePattern      = regexp.MustCompile(`(?i)(\d+)[-\s]*(?:year|yr|y)[s\s-]*(?:old)?`)
	ageShortPattern = regexp.MustCompile(`(\d+)[MF]\b`)
	maleShort       = regexp.MustCompile(`\d+M\b`)
	femaleShort     = regexp.MustCompile(`\d+F\b`)
	durationPattern = regexp.MustCompile(`(?i)(\d+)[-\s]*(month|year|day)[s\s-]*(?:old)?\s*(?:policy|insurance)`)
)

var knownProcedures = []string{
	"knee surgery", "cataract", "bypass", "transplant", "delivery", "cesarean", "appendectomy",
}

func fallbackParse(question string) domain.ParsedQuery {
	out := domain.ParsedQuery{OriginalQuery: question}
	lower := strings.ToLower(question)

	if m := agePattern.FindStringSubmatch(question); m != nil {
		out.Age = m[1]
	} else if m := ageShortPattern.FindStringSubmatch(question); m != nil {
		out.Age = m[1]
	}

	switch {
	case strings.Contains(lower, "female"):
		out.Gender = "female"
	case strings.Contains(lower, "male"):
		out.Gender = "male"
	case femaleShort.MatchString(question):
		out.Gender = "female"
	case maleShort.MatchString(question):
		out.Gender = "male"
	}

	for _, proc := range knownProcedures {
		if strings.Contains(lower, proc) {
			out.Procedure = proc
			break
		}
	}

	if m := durationPattern.FindStringSubmatch(question); m != nil {
		unit := strings.ToLower(m[2])
		if m[1] != "1" {
			unit += "s"
		}
		out.PolicyDuration = m[1] + " " + unit
	}

	switch {
	case strings.Contains(lower, "waiting period"):
		out.QueryType = "waiting period"
	case strings.Contains(lower, "cover"):
		out.QueryType = "coverage"
	case strings.Contains(lower, "condition"):
		out.QueryType = "conditions"
	case strings.Contains(lower, "exclusion"):
		out.QueryType = "exclusions"
	}

	return out
}
