package domain

import "time"

type RunStatus string

const (
	StatusReceived  RunStatus = "received"
	StatusIngesting RunStatus = "ingesting"
	StatusIndexed   RunStatus = "indexed"
	StatusAnswering RunStatus = "answering"
	StatusResponded RunStatus = "responded"
	StatusFailed    RunStatus = "failed"
)

// Document is an ingested source document. Immutable once extraction
// has completed.
type Document struct {
	ID        string    `json:"id"`
	SourceURL string    `json:"source_url"`
	MimeType  string    `json:"mime_type"`
	Text      string    `json:"-"`
	Sections  []Section `json:"sections,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Section marks a structural boundary (page, sheet, paragraph block)
// inside the extracted text, as rune offsets.
type Section struct {
	Label string `json:"label"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// RunRecord is the audit trail of one /hackrx/run request.
type RunRecord struct {
	ID            string    `json:"id"`
	DocumentURL   string    `json:"document_url"`
	QuestionCount int       `json:"question_count"`
	PassageCount  int       `json:"passage_count"`
	SentinelCount int       `json:"sentinel_count"`
	CacheHit      bool      `json:"cache_hit"`
	Status        RunStatus `json:"status"`
	Error         string    `json:"error,omitempty"`
	DurationMS    int64     `json:"duration_ms"`
	CreatedAt     time.Time `json:"created_at"`
}
