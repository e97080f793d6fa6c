package ollama

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/kirillkom/document-qa/internal/core/domain"
)

// Generator evaluates a question against retrieved passages and
// returns a structured decision. Malformed model output degrades to a
// keyword-based evaluation instead of failing the question.
type Generator struct {
	client *Client
}

func NewGenerator(client *Client) *Generator {
	return &Generator{client: client}
}

func (g *Generator) GenerateAnswer(ctx context.Context, query domain.ParsedQuery, passages []domain.RetrievedPassage) (domain.Answer, error) {
	raw, err := g.client.generateJSON(ctx, buildAnswerPrompt(query, passages))
	if err != nil {
		return domain.Answer{}, domain.WrapError(domain.ErrAnswer, "generate answer", err)
	}

	var decoded struct {
		Decision      string   `json:"decision"`
		Amount        *float64 `json:"amount"`
		Justification struct {
			Reason           string `json:"reason"`
			ClauseReferences []int  `json:"clause_references"`
		} `json:"justification"`
	}
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &decoded); err != nil || decoded.Justification.Reason == "" {
		return fallbackEvaluate(passages), nil
	}

	return domain.Answer{
		Text:     decoded.Justification.Reason,
		Decision: normalizeDecision(decoded.Decision),
		Amount:   decoded.Amount,
		Justification: domain.Justification{
			Reason:            decoded.Justification.Reason,
			PassageReferences: excerptToPassageRefs(decoded.Justification.ClauseReferences, passages),
		},
	}, nil
}

// excerptToPassageRefs maps 1-based excerpt numbers from the prompt to
// passage sequence indexes, dropping out-of-range references.
func excerptToPassageRefs(excerpts []int, passages []domain.RetrievedPassage) []int {
	refs := make([]int, 0, len(excerpts))
	for _, n := range excerpts {
		if n >= 1 && n <= len(passages) {
			refs = append(refs, passages[n-1].Passage.SeqIndex)
		}
	}
	return refs
}

func normalizeDecision(decision string) string {
	switch strings.ToUpper(strings.TrimSpace(decision)) {
	case domain.DecisionApproved:
		return domain.DecisionApproved
	case domain.DecisionRejected:
		return domain.DecisionRejected
	case domain.DecisionPartial:
		return domain.DecisionPartial
	default:
		return domain.DecisionNeedsInfo
	}
}

var waitingPeriodPattern = regexp.MustCompile(`(?i)waiting period of (\d+)`)

func fallbackEvaluate(passages []domain.RetrievedPassage) domain.Answer {
	answer := domain.Answer{
		Text:     "Unable to make a definitive decision based on the provided information.",
		Decision: domain.DecisionNeedsInfo,
	}
	if len(passages) == 0 {
		answer.Justification.Reason = answer.Text
		return answer
	}

	refs := make([]int, 0, 3)
	var combined strings.Builder
	for i, p := range passages {
		if i < 3 {
			refs = append(refs, p.Passage.SeqIndex)
		}
		combined.WriteString(strings.ToLower(p.Passage.Text))
		combined.WriteString(" ")
	}
	text := combined.String()

	switch {
	case strings.Contains(text, "not covered") || strings.Contains(text, "excluded"):
		answer.Decision = domain.DecisionRejected
		answer.Text = "The procedure appears to be excluded based on the policy clauses."
	case strings.Contains(text, "covered"):
		answer.Decision = domain.DecisionApproved
		answer.Text = "The procedure appears to be covered based on the policy clauses."
	}

	if m := waitingPeriodPattern.FindStringSubmatch(text); m != nil {
		answer.Text += " There is a waiting period of " + m[1] + " mentioned in the policy."
	}

	answer.Justification = domain.Justification{
		Reason:            answer.Text,
		PassageReferences: refs,
	}
	return answer
}
