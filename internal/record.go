package internal

import (
	"errors"
	"time"
)

// Error taxonomy for request handling. Retrieval and persistence failures are
// absorbed where they occur and only downgrade functionality; the rest abort
// the current request but never the process.
var (
	ErrTranscriptionFailed    = errors.New("transcription failed")
	ErrRetrievalDegraded      = errors.New("retrieval degraded")
	ErrGenerationFailed       = errors.New("generation failed")
	ErrDetectionUnavailable   = errors.New("detection unavailable")
	ErrPresentation           = errors.New("presentation error")
	ErrPersistenceUnavailable = errors.New("persistence unavailable")
)

// RecordKind separates conversation memory from detection memory so retrieval
// can scan a single context class.
type RecordKind string

const (
	KindConversation RecordKind = "conversation"
	KindDetection    RecordKind = "detection"
)

// MemoryRecord is one completed request/response pair. Records are immutable
// after creation and removed only by capacity eviction.
type MemoryRecord struct {
	ID        int64      `json:"id"`
	Timestamp time.Time  `json:"timestamp"`
	Kind      RecordKind `json:"kind"`
	Input     string     `json:"input"`
	Output    string     `json:"output"`
	Embedding []float32  `json:"embedding,omitempty"`
	Mode      string     `json:"mode"`
}

// ScoredRecord pairs a record with its similarity to a query.
type ScoredRecord struct {
	Record MemoryRecord
	Score  float64
}

// RetrievalResult is sorted by descending similarity and holds at most K
// entries. An empty result is valid and means "no context available".
type RetrievalResult []ScoredRecord

// ContextBlocks renders the retrieved pairs in the prompt format the
// generation pipeline expects.
func (r RetrievalResult) ContextBlocks() []string {
	blocks := make([]string, 0, len(r))
	for _, sr := range r {
		blocks = append(blocks, "Q: "+sr.Record.Input+"\nA: "+sr.Record.Output)
	}
	return blocks
}
