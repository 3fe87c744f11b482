package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/mariotoffia/goannoy/builder"
	"github.com/mariotoffia/goannoy/interfaces"
)

const (
	IndexFilename   = "knowledge.ann"
	MappingFilename = "chunks.json"
)

var ErrIndexNotBuilt = errors.New("knowledge index not built")

// KnowledgeChunk is one embedded slice of a knowledge-base document.
type KnowledgeChunk struct {
	Source string `json:"source"`
	Index  int    `json:"index"`
	Text   string `json:"text"`
}

// KnowledgeHit is a search result from the knowledge index.
type KnowledgeHit struct {
	Chunk KnowledgeChunk
	Score float32
}

// KnowledgeIndex is an Annoy (angular distance) index over knowledge chunks,
// persisted alongside a JSON mapping of id to chunk.
type KnowledgeIndex struct {
	mu        sync.RWMutex
	idx       interfaces.AnnoyIndex[float32, uint32]
	dimension int
	chunks    map[uint32]KnowledgeChunk
	nextID    uint32
	basePath  string
	built     bool
}

type chunkMapping struct {
	Chunks map[uint32]KnowledgeChunk `json:"chunks"`
	NextID uint32                    `json:"next_id"`
}

func NewKnowledgeIndex(basePath string, dimension int) (*KnowledgeIndex, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("create vectors directory: %w", err)
	}

	idx := builder.Index[float32, uint32]().
		AngularDistance(dimension).
		UseMultiWorkerPolicy().
		MmapIndexAllocator().
		Build()

	return &KnowledgeIndex{
		idx:       idx,
		dimension: dimension,
		chunks:    make(map[uint32]KnowledgeChunk),
		basePath:  basePath,
	}, nil
}

func (k *KnowledgeIndex) Add(ctx context.Context, chunk KnowledgeChunk, emb Embedding) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if len(emb.Vector) != k.dimension {
		return fmt.Errorf("dimension mismatch: expected %d, got %d", k.dimension, len(emb.Vector))
	}

	id := k.nextID
	k.nextID++
	k.chunks[id] = chunk

	k.idx.AddItem(id, emb.Vector)
	k.built = false

	return nil
}

func (k *KnowledgeIndex) Search(ctx context.Context, query Embedding, n int) ([]KnowledgeHit, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()

	if !k.built {
		return nil, ErrIndexNotBuilt
	}

	if len(query.Vector) != k.dimension {
		return nil, fmt.Errorf("dimension mismatch: expected %d, got %d", k.dimension, len(query.Vector))
	}

	if n > len(k.chunks) {
		n = len(k.chunks)
	}
	if n == 0 {
		return nil, nil
	}

	searchCtx := k.idx.CreateContext()
	ids, distances := k.idx.GetNnsByVector(query.Vector, n, -1, searchCtx)

	hits := make([]KnowledgeHit, 0, len(ids))
	for i, id := range ids {
		chunk, ok := k.chunks[id]
		if !ok {
			continue
		}

		// Angular distance lands in [0, 2]; map to a 0-1 score.
		var score float32
		if i < len(distances) {
			score = 1.0 - distances[i]/2.0
		}

		hits = append(hits, KnowledgeHit{Chunk: chunk, Score: score})
	}

	return hits, nil
}

func (k *KnowledgeIndex) Build(ctx context.Context, numTrees int) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	k.idx.Build(numTrees, -1)
	k.built = true
	return nil
}

func (k *KnowledgeIndex) Save(ctx context.Context) error {
	k.mu.RLock()
	defer k.mu.RUnlock()

	indexPath := filepath.Join(k.basePath, IndexFilename)
	if err := k.idx.Save(indexPath); err != nil {
		return fmt.Errorf("save index: %w", err)
	}

	mapping := chunkMapping{
		Chunks: k.chunks,
		NextID: k.nextID,
	}

	data, err := json.Marshal(mapping)
	if err != nil {
		return fmt.Errorf("marshal chunk mapping: %w", err)
	}

	mappingPath := filepath.Join(k.basePath, MappingFilename)
	if err := os.WriteFile(mappingPath, data, 0644); err != nil {
		return fmt.Errorf("write chunk mapping: %w", err)
	}

	return nil
}

func (k *KnowledgeIndex) Load(ctx context.Context) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	mappingPath := filepath.Join(k.basePath, MappingFilename)
	data, err := os.ReadFile(mappingPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read chunk mapping: %w", err)
	}

	var mapping chunkMapping
	if err := json.Unmarshal(data, &mapping); err != nil {
		return fmt.Errorf("unmarshal chunk mapping: %w", err)
	}

	k.chunks = mapping.Chunks
	k.nextID = mapping.NextID

	indexPath := filepath.Join(k.basePath, IndexFilename)
	if _, err := os.Stat(indexPath); os.IsNotExist(err) {
		return nil
	}

	if err := k.idx.Load(indexPath); err != nil {
		return fmt.Errorf("load index: %w", err)
	}

	k.built = true
	return nil
}

func (k *KnowledgeIndex) Count() int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.chunks)
}
