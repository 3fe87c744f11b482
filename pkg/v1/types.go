package v1

import "time"

// Record is a stored exchange: what the user asked (or what was detected)
// and what the assistant answered.
type Record struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Kind      string    `json:"kind"`
	Input     string    `json:"input"`
	Output    string    `json:"output"`
}

// Answer is the result of one Ask call.
type Answer struct {
	Text     string   `json:"text"`
	Tokens   int      `json:"tokens"`
	Fallback bool     `json:"fallback"`
	Context  []string `json:"context,omitempty"`
}

// SearchResult is a memory record scored against a query.
type SearchResult struct {
	Record Record  `json:"record"`
	Score  float64 `json:"score"`
}
