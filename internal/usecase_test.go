package internal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAskUseCase(t *testing.T, gen Generator) (*AskUseCase, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore(context.Background(), 100, nil, nil)
	embedder := &fakeEmbedder{}
	retriever := NewRetriever(embedder, store, nil, 3, nil)
	pipeline := NewPipeline(gen, "Sorry, I could not come up with an answer.", nil)
	return NewAskUseCase(retriever, pipeline, store, embedder, 3), store
}

func TestAskUseCaseAnswersAndRemembers(t *testing.T) {
	gen := &fakeGenerator{tokens: []string{"42"}, failAfter: -1}
	uc, store := newAskUseCase(t, gen)

	out, err := uc.Execute(context.Background(), AskInput{Query: "meaning of life"}, nil)

	require.NoError(t, err)
	assert.Equal(t, "42", out.Answer)
	assert.False(t, out.Fallback)
	assert.Equal(t, 1, store.Len())
}

func TestAskUseCaseEmptyQuery(t *testing.T) {
	uc, _ := newAskUseCase(t, &fakeGenerator{failAfter: -1})

	_, err := uc.Execute(context.Background(), AskInput{Query: "   "}, nil)
	assert.Error(t, err)
}

func TestAskUseCaseNoMemoryFlag(t *testing.T) {
	gen := &fakeGenerator{tokens: []string{"fresh"}, failAfter: -1}
	uc, store := newAskUseCase(t, gen)

	// Seed a record that would otherwise be retrieved.
	store.Insert(context.Background(), MemoryRecord{
		Kind: KindConversation, Input: "old", Output: "context", Embedding: []float32{0, 0, 1},
	})

	out, err := uc.Execute(context.Background(), AskInput{Query: "anything", NoMemory: true}, nil)

	require.NoError(t, err)
	assert.Equal(t, "anything", out.Prompt, "prompt must be unaugmented with memory disabled")
	assert.Empty(t, out.Context)
}

func TestDetectUseCaseWithLabels(t *testing.T) {
	gen := &fakeGenerator{tokens: []string{"Those are tools."}, failAfter: -1}
	store := NewMemoryStore(context.Background(), 100, nil, nil)
	pipeline := NewPipeline(gen, "fallback", nil)
	uc := NewDetectUseCase(nil, pipeline, store, &fakeEmbedder{}, "No objects detected")

	out, err := uc.Execute(context.Background(), DetectInput{Labels: []string{"hammer", "wrench"}}, nil)

	require.NoError(t, err)
	assert.Equal(t, "Those are tools.", out.Answer)
	assert.Len(t, out.Detections, 2)
	assert.Len(t, store.Scan(KindDetection), 1)
}

func TestDetectUseCaseNothingDetected(t *testing.T) {
	store := NewMemoryStore(context.Background(), 100, nil, nil)
	pipeline := NewPipeline(&fakeGenerator{failAfter: -1}, "fallback", nil)
	uc := NewDetectUseCase(&fakeDetector{}, pipeline, store, &fakeEmbedder{}, "No objects detected")

	out, err := uc.Execute(context.Background(), DetectInput{}, nil)

	require.NoError(t, err)
	assert.Equal(t, "No objects detected", out.Answer)
	assert.Zero(t, store.Len())
}

func TestSearchMemoryUseCase(t *testing.T) {
	store := NewMemoryStore(context.Background(), 100, nil, nil)
	store.Insert(context.Background(), MemoryRecord{
		Kind: KindConversation, Input: "about cats", Output: "meow", Embedding: []float32{1, 0, 0},
	})

	embedder := &fakeEmbedder{vectors: map[string][]float32{"cats": {1, 0, 0}}}
	uc := NewSearchMemoryUseCase(NewRetriever(embedder, store, nil, 3, nil))

	out, err := uc.Execute(context.Background(), SearchMemoryInput{Query: "cats"})

	require.NoError(t, err)
	require.Len(t, out.Results, 1)
	assert.Equal(t, "about cats", out.Results[0].Input)
	assert.InDelta(t, 1.0, out.Results[0].Score, 1e-6)
}

func TestPruneUseCase(t *testing.T) {
	store := NewMemoryStore(context.Background(), 100, nil, nil)
	for i := 0; i < 5; i++ {
		store.Insert(context.Background(), MemoryRecord{Kind: KindConversation})
	}

	uc := NewPruneUseCase(store)
	out, err := uc.Execute(context.Background(), PruneInput{Capacity: 2})

	require.NoError(t, err)
	assert.Equal(t, 3, out.Evicted)
	assert.Equal(t, 2, out.Remaining)

	_, err = uc.Execute(context.Background(), PruneInput{Capacity: -1})
	assert.Error(t, err)
}

func TestHistoryUseCase(t *testing.T) {
	j, _ := setupJournal(t)
	require.NoError(t, j.Append(context.Background(), MemoryRecord{ID: 0, Kind: KindConversation}))

	uc := NewHistoryUseCase(j)
	out, err := uc.Execute(context.Background(), HistoryInput{Limit: 1})

	require.NoError(t, err)
	require.Len(t, out.Entries, 1)
	assert.Contains(t, out.Entries[0].Message, "conversation record 0")
}
