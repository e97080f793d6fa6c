package domain

import "strings"

// SentinelAnswer fills an answer slot when the generation or retrieval
// step for that question failed. The slot is never dropped.
const SentinelAnswer = "Unable to determine an answer from the provided document."

const (
	DecisionApproved  = "APPROVED"
	DecisionRejected  = "REJECTED"
	DecisionPartial   = "PARTIAL"
	DecisionNeedsInfo = "INFORMATION_NEEDED"
)

// ParsedQuery is the structured form of a natural-language question.
// Empty fields were not present in the question.
type ParsedQuery struct {
	OriginalQuery  string `json:"original_query"`
	Age            string `json:"age,omitempty"`
	Gender         string `json:"gender,omitempty"`
	Procedure      string `json:"procedure,omitempty"`
	Location       string `json:"location,omitempty"`
	PolicyDuration string `json:"policy_duration,omitempty"`
	PolicyType     string `json:"policy_type,omitempty"`
	QueryType      string `json:"query_type,omitempty"`
}

// SearchText builds the retrieval query string from the structured
// fields, falling back to the raw question when nothing was extracted.
func (q ParsedQuery) SearchText() string {
	parts := make([]string, 0, 7)
	add := func(label, value string) {
		if value != "" {
			parts = append(parts, label+": "+value)
		}
	}
	add("Procedure", q.Procedure)
	add("Query type", q.QueryType)
	add("Age", q.Age)
	add("Gender", q.Gender)
	add("Location", q.Location)
	add("Policy duration", q.PolicyDuration)
	add("Policy type", q.PolicyType)

	if len(parts) == 0 {
		return q.OriginalQuery
	}
	return strings.Join(parts, ". ")
}

// Justification cites the passages an answer was grounded on.
type Justification struct {
	Reason            string `json:"reason"`
	PassageReferences []int  `json:"clause_references"`
}

// Answer is the evaluated result for one question. References in the
// justification point at passage sequence indexes of the queried
// document's index.
type Answer struct {
	Text          string        `json:"text"`
	Decision      string        `json:"decision,omitempty"`
	Amount        *float64      `json:"amount,omitempty"`
	Justification Justification `json:"justification"`
}
