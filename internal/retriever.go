package internal

import (
	"context"
	"log/slog"
	"sort"
	"strings"
)

// Retriever ranks stored memory against a query by cosine similarity. Every
// failure mode (no embedder, embedding error, empty store) resolves to an
// empty result: retrieval degrades the prompt, it never blocks the request.
type Retriever struct {
	embedder  Embedder
	store     *MemoryStore
	knowledge *KnowledgeIndex
	k         int
	log       *slog.Logger
}

func NewRetriever(embedder Embedder, store *MemoryStore, knowledge *KnowledgeIndex, k int, log *slog.Logger) *Retriever {
	if log == nil {
		log = slog.Default()
	}
	if k <= 0 {
		k = 3
	}
	return &Retriever{
		embedder:  embedder,
		store:     store,
		knowledge: knowledge,
		k:         k,
		log:       log.With("component", "retriever"),
	}
}

// Retrieve returns up to K records of the given kind, best match first.
func (r *Retriever) Retrieve(ctx context.Context, query string, kind RecordKind) RetrievalResult {
	if strings.TrimSpace(query) == "" {
		return nil
	}

	if r.embedder == nil {
		r.log.Debug("no embedder, retrieval degraded")
		return nil
	}

	queryVec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		r.log.Debug("query embedding failed, retrieval degraded", "err", err)
		return nil
	}

	records := r.store.Scan(kind)
	if len(records) == 0 {
		return nil
	}

	scored := make(RetrievalResult, 0, len(records))
	for _, rec := range records {
		if len(rec.Embedding) == 0 {
			continue
		}
		scored = append(scored, ScoredRecord{
			Record: rec,
			Score:  CosineSimilarity(queryVec, rec.Embedding),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })

	if len(scored) > r.k {
		scored = scored[:r.k]
	}
	return scored
}

// RetrieveKnowledge looks the query up in the knowledge-base index. Same
// degradation contract: failures yield no hits, never an error.
func (r *Retriever) RetrieveKnowledge(ctx context.Context, query string, k int) []KnowledgeHit {
	if r.knowledge == nil || r.embedder == nil {
		return nil
	}
	if strings.TrimSpace(query) == "" {
		return nil
	}

	queryVec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		r.log.Debug("query embedding failed, knowledge lookup skipped", "err", err)
		return nil
	}

	hits, err := r.knowledge.Search(ctx, NewEmbedding(queryVec, "local"), k)
	if err != nil {
		r.log.Debug("knowledge lookup failed", "err", err)
		return nil
	}
	return hits
}
