package domain

// Passage is a contiguous span of document text, the unit of retrieval.
// Offsets are rune offsets into the extracted document text. Created
// during chunking and never mutated afterwards.
type Passage struct {
	DocumentID string `json:"document_id"`
	SeqIndex   int    `json:"seq_index"`
	Start      int    `json:"start"`
	End        int    `json:"end"`
	Text       string `json:"text"`
}

// RetrievedPassage pairs a passage with its distance to the query
// embedding. Smaller distance means more relevant.
type RetrievedPassage struct {
	Passage  Passage `json:"passage"`
	Distance float64 `json:"distance"`
}
