package v1

import (
	"context"
	"fmt"

	"github.com/aura-assistant/aura/internal"
)

// Client provides programmatic access to the assistant's memory and
// question-answering path, without the event loop or any hardware.
type Client struct {
	store     *internal.MemoryStore
	retriever *internal.Retriever
	ask       *internal.AskUseCase
	embedder  internal.Embedder
}

// New opens (or initializes) the journal under the data directory and loads
// the persisted memory.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		capacity:  100,
		retrieval: 3,
		fallback:  "Sorry, I could not come up with an answer.",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	data := internal.ResolveDataDir(cfg.dataDir)
	if err := data.Ensure(); err != nil {
		return nil, fmt.Errorf("prepare data dir: %w", err)
	}

	journal, err := internal.OpenJournal(data.JournalPath())
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	store := internal.NewMemoryStore(ctx, cfg.capacity, journal, nil)
	retriever := internal.NewRetriever(cfg.embedder, store, nil, cfg.retrieval, nil)
	pipeline := internal.NewPipeline(cfg.generator, cfg.fallback, nil)

	return &Client{
		store:     store,
		retriever: retriever,
		ask:       internal.NewAskUseCase(retriever, pipeline, store, cfg.embedder, cfg.retrieval),
		embedder:  cfg.embedder,
	}, nil
}

// Ask answers a question using retrieved memory as context and stores the
// exchange. onToken receives each streamed token; it may be nil.
func (c *Client) Ask(ctx context.Context, query string, onToken func(string)) (*Answer, error) {
	out, err := c.ask.Execute(ctx, internal.AskInput{Query: query}, onToken)
	if err != nil && out == nil {
		return nil, fmt.Errorf("ask: %w", err)
	}

	return &Answer{
		Text:     out.Answer,
		Tokens:   out.Tokens,
		Fallback: out.Fallback,
		Context:  out.Context,
	}, nil
}

// Remember stores an exchange directly, bypassing generation.
func (c *Client) Remember(ctx context.Context, input, output string) (Record, error) {
	var embedding []float32
	if c.embedder != nil {
		if vec, err := c.embedder.Embed(ctx, input+" "+output); err == nil {
			embedding = vec
		}
	}

	rec := c.store.Insert(ctx, internal.MemoryRecord{
		Kind:      internal.KindConversation,
		Input:     input,
		Output:    output,
		Embedding: embedding,
		Mode:      "chat",
	})

	return toRecord(rec), nil
}

// Search ranks stored records against the query. Without an embedder it
// returns no results.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	result := c.retriever.Retrieve(ctx, query, internal.KindConversation)
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}

	out := make([]SearchResult, 0, len(result))
	for _, sr := range result {
		out = append(out, SearchResult{
			Record: toRecord(sr.Record),
			Score:  sr.Score,
		})
	}
	return out, nil
}

// Records returns every stored record in insertion order.
func (c *Client) Records(ctx context.Context) ([]Record, error) {
	all := c.store.All()
	out := make([]Record, 0, len(all))
	for _, rec := range all {
		out = append(out, toRecord(rec))
	}
	return out, nil
}

// Close releases any resources held by the client.
func (c *Client) Close() error {
	return nil
}

func toRecord(rec internal.MemoryRecord) Record {
	return Record{
		ID:        rec.ID,
		Timestamp: rec.Timestamp,
		Kind:      string(rec.Kind),
		Input:     rec.Input,
		Output:    rec.Output,
	}
}
