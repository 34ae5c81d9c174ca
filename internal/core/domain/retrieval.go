package domain

type ExtractionStatus string

const (
	ExtractionOK          ExtractionStatus = "extracted"
	ExtractionPlaceholder ExtractionStatus = "placeholder"
	ExtractionMissing     ExtractionStatus = "missing"
)

// Extraction is the tagged result of reading a document's bytes. Placeholder
// text still enters the ranking pipeline; Missing candidates are skipped.
type Extraction struct {
	Status       ExtractionStatus
	Text         string
	ResolvedPath string
}

// Candidate lives only for the duration of one query.
type Candidate struct {
	Document Document
	Text     string
	Vector   []float32
	Score    float64
}

// Source names a document the generated answer drew upon.
type Source struct {
	DocumentID string  `json:"document_id"`
	Name       string  `json:"name"`
	Score      float64 `json:"score"`
	Note       string  `json:"note,omitempty"`
}

// ChatTurn is one prior message supplied by the caller. Consumed, never persisted.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	UserID      string     `json:"user_id"`
	Departments []string   `json:"departments,omitempty"`
	Message     string     `json:"message"`
	History     []ChatTurn `json:"history,omitempty"`
}

type ChatResult struct {
	Message        string   `json:"message"`
	Sources        []Source `json:"sources"`
	DocumentsFound int      `json:"documents_found"`
	DocumentsUsed  int      `json:"documents_used"`
}

type StreamEventType string

const (
	EventToken    StreamEventType = "token"
	EventMetadata StreamEventType = "metadata"
	EventError    StreamEventType = "error"
)

// StreamEvent is one element of a streaming run: token deltas in arrival
// order, then exactly one metadata event, or a terminal error event.
type StreamEvent struct {
	Type           StreamEventType `json:"type"`
	Content        string          `json:"content,omitempty"`
	Sources        []Source        `json:"sources,omitempty"`
	DocumentsFound int             `json:"documents_found,omitempty"`
	DocumentsUsed  int             `json:"documents_used,omitempty"`
	Message        string          `json:"message,omitempty"`
}

type ModelStatus struct {
	Status         string `json:"status"`
	Model          string `json:"model,omitempty"`
	ModelAvailable bool   `json:"model_available"`
}
