package internal

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Use case input/output DTOs

type AskInput struct {
	Query    string
	NoMemory bool
}

type AskOutput struct {
	Answer   string
	Prompt   string
	Tokens   int
	Fallback bool
	Context  []string
}

type DetectInput struct {
	Labels []string
}

type DetectOutput struct {
	Detections []Detection
	Answer     string
}

type SearchMemoryInput struct {
	Query string
	Limit int
	Kind  string
}

type SearchMemoryOutput struct {
	Results []SearchMemoryResult
}

type SearchMemoryResult struct {
	ID     int64
	Input  string
	Output string
	Kind   string
	Score  float64
}

type ListRecordsInput struct {
	Kind string
}

type ListRecordsOutput struct {
	Records []RecordOutput
}

type RecordOutput struct {
	ID        int64
	Timestamp time.Time
	Kind      string
	Input     string
	Output    string
	Mode      string
}

type PruneInput struct {
	Capacity int
}

type PruneOutput struct {
	Evicted   int
	Remaining int
}

type HistoryInput struct {
	Limit int
}

type HistoryOutput struct {
	Entries []HistoryEntry
}

type HistoryEntry struct {
	Hash      string
	Message   string
	Timestamp time.Time
}

type DiffInput struct {
	Ref string
}

type DiffOutput struct {
	Diff string
}

// Use cases

// AskUseCase answers a one-shot question through the full retrieve/generate
// path, without the event loop or the speech stages. Powers the CLI `ask`
// command and the library client.
type AskUseCase struct {
	retriever *Retriever
	pipeline  *Pipeline
	store     *MemoryStore
	embedder  Embedder
	topK      int
}

func NewAskUseCase(retriever *Retriever, pipeline *Pipeline, store *MemoryStore, embedder Embedder, topK int) *AskUseCase {
	if topK <= 0 {
		topK = 3
	}
	return &AskUseCase{
		retriever: retriever,
		pipeline:  pipeline,
		store:     store,
		embedder:  embedder,
		topK:      topK,
	}
}

func (uc *AskUseCase) Execute(ctx context.Context, input AskInput, onToken func(string)) (*AskOutput, error) {
	query := strings.TrimSpace(input.Query)
	if query == "" {
		return nil, fmt.Errorf("empty query")
	}

	var memory RetrievalResult
	var knowledge []KnowledgeHit
	if !input.NoMemory {
		memory = uc.retriever.Retrieve(ctx, query, KindConversation)
		knowledge = uc.retriever.RetrieveKnowledge(ctx, query, uc.topK)
	}

	prompt := BuildPrompt(query, memory, knowledge)

	session, err := uc.pipeline.Run(ctx, prompt, onToken)
	out := &AskOutput{
		Answer:   session.Output,
		Prompt:   session.Prompt,
		Tokens:   session.Tokens,
		Fallback: session.Fallback,
		Context:  memory.ContextBlocks(),
	}
	if err != nil && session.Tokens == 0 {
		return out, err
	}

	if !session.Fallback && !session.Partial && uc.store != nil {
		uc.rememberExchange(ctx, query, session.Output)
	}

	return out, nil
}

func (uc *AskUseCase) rememberExchange(ctx context.Context, input, output string) {
	var embedding []float32
	if uc.embedder != nil {
		if vec, err := uc.embedder.Embed(ctx, input+" "+output); err == nil {
			embedding = vec
		}
	}
	uc.store.Insert(ctx, MemoryRecord{
		Kind:      KindConversation,
		Input:     input,
		Output:    output,
		Embedding: embedding,
		Mode:      "chat",
	})
}

// DetectUseCase explains a set of detected labels. The CLI feeds it labels
// directly; on device the detector supplies them.
type DetectUseCase struct {
	detector     Detector
	pipeline     *Pipeline
	store        *MemoryStore
	embedder     Embedder
	noObjectText string
}

func NewDetectUseCase(detector Detector, pipeline *Pipeline, store *MemoryStore, embedder Embedder, noObjectText string) *DetectUseCase {
	return &DetectUseCase{
		detector:     detector,
		pipeline:     pipeline,
		store:        store,
		embedder:     embedder,
		noObjectText: noObjectText,
	}
}

func (uc *DetectUseCase) Execute(ctx context.Context, input DetectInput, onToken func(string)) (*DetectOutput, error) {
	detector := uc.detector
	if len(input.Labels) > 0 {
		detector = StaticDetector{Labels: input.Labels}
	}
	if detector == nil {
		return nil, ErrDetectionUnavailable
	}

	detections, err := detector.Detect(ctx)
	if err != nil {
		return nil, fmt.Errorf("detect: %w", err)
	}

	if len(detections) == 0 {
		return &DetectOutput{Answer: uc.noObjectText}, nil
	}

	labels := make([]string, len(detections))
	for i, d := range detections {
		labels[i] = d.Label
	}
	joined := strings.Join(labels, ", ")

	session, err := uc.pipeline.Run(ctx, "Explain these detected objects in a natural, conversational way: "+joined, onToken)
	out := &DetectOutput{Detections: detections, Answer: session.Output}
	if err != nil && session.Tokens == 0 {
		return out, err
	}

	if !session.Fallback && !session.Partial && uc.store != nil {
		var embedding []float32
		if uc.embedder != nil {
			if vec, embErr := uc.embedder.Embed(ctx, joined+" "+session.Output); embErr == nil {
				embedding = vec
			}
		}
		uc.store.Insert(ctx, MemoryRecord{
			Kind:      KindDetection,
			Input:     joined,
			Output:    session.Output,
			Embedding: embedding,
			Mode:      "detect",
		})
	}

	return out, nil
}

// SearchMemoryUseCase ranks stored records by similarity to a query.
type SearchMemoryUseCase struct {
	retriever *Retriever
}

func NewSearchMemoryUseCase(retriever *Retriever) *SearchMemoryUseCase {
	return &SearchMemoryUseCase{retriever: retriever}
}

func (uc *SearchMemoryUseCase) Execute(ctx context.Context, input SearchMemoryInput) (*SearchMemoryOutput, error) {
	kind := RecordKind(input.Kind)
	if input.Kind == "" {
		kind = KindConversation
	}

	result := uc.retriever.Retrieve(ctx, input.Query, kind)
	if input.Limit > 0 && len(result) > input.Limit {
		result = result[:input.Limit]
	}

	output := &SearchMemoryOutput{
		Results: make([]SearchMemoryResult, len(result)),
	}
	for i, sr := range result {
		output.Results[i] = SearchMemoryResult{
			ID:     sr.Record.ID,
			Input:  sr.Record.Input,
			Output: sr.Record.Output,
			Kind:   string(sr.Record.Kind),
			Score:  sr.Score,
		}
	}
	return output, nil
}

type ListRecordsUseCase struct {
	store *MemoryStore
}

func NewListRecordsUseCase(store *MemoryStore) *ListRecordsUseCase {
	return &ListRecordsUseCase{store: store}
}

func (uc *ListRecordsUseCase) Execute(ctx context.Context, input ListRecordsInput) (*ListRecordsOutput, error) {
	var records []MemoryRecord
	if input.Kind == "" {
		records = uc.store.All()
	} else {
		records = uc.store.Scan(RecordKind(input.Kind))
	}

	output := &ListRecordsOutput{
		Records: make([]RecordOutput, len(records)),
	}
	for i, rec := range records {
		output.Records[i] = RecordOutput{
			ID:        rec.ID,
			Timestamp: rec.Timestamp,
			Kind:      string(rec.Kind),
			Input:     rec.Input,
			Output:    rec.Output,
			Mode:      rec.Mode,
		}
	}
	return output, nil
}

// PruneUseCase shrinks the store down to a capacity, oldest first.
type PruneUseCase struct {
	store *MemoryStore
}

func NewPruneUseCase(store *MemoryStore) *PruneUseCase {
	return &PruneUseCase{store: store}
}

func (uc *PruneUseCase) Execute(ctx context.Context, input PruneInput) (*PruneOutput, error) {
	if input.Capacity < 0 {
		return nil, fmt.Errorf("capacity must be non-negative")
	}

	evicted := uc.store.PruneToCapacity(ctx, input.Capacity)
	return &PruneOutput{
		Evicted:   evicted,
		Remaining: uc.store.Len(),
	}, nil
}

type HistoryUseCase struct {
	journal *Journal
}

func NewHistoryUseCase(journal *Journal) *HistoryUseCase {
	return &HistoryUseCase{journal: journal}
}

func (uc *HistoryUseCase) Execute(ctx context.Context, input HistoryInput) (*HistoryOutput, error) {
	entries, err := uc.journal.Log(ctx, input.Limit)
	if err != nil {
		return nil, err
	}

	output := &HistoryOutput{
		Entries: make([]HistoryEntry, len(entries)),
	}
	for i, e := range entries {
		output.Entries[i] = HistoryEntry{
			Hash:      e.Hash,
			Message:   e.Message,
			Timestamp: e.Timestamp,
		}
	}
	return output, nil
}

type DiffUseCase struct {
	journal *Journal
}

func NewDiffUseCase(journal *Journal) *DiffUseCase {
	return &DiffUseCase{journal: journal}
}

func (uc *DiffUseCase) Execute(ctx context.Context, input DiffInput) (*DiffOutput, error) {
	ref := input.Ref
	if ref == "" {
		ref = "HEAD~1"
	}

	diff, err := uc.journal.Diff(ctx, ref)
	if err != nil {
		return nil, err
	}

	return &DiffOutput{Diff: diff}, nil
}
