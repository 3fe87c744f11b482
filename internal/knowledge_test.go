package internal

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestChunkTextNoOverlap(t *testing.T) {
	chunks := ChunkText("abcdefghij", 4, 0)
	want := []string{"abcd", "efgh", "ij"}

	if len(chunks) != len(want) {
		t.Fatalf("got %d chunks, want %d", len(chunks), len(want))
	}
	for i := range want {
		if chunks[i] != want[i] {
			t.Errorf("chunk %d = %q, want %q", i, chunks[i], want[i])
		}
	}
}

func TestChunkTextOverlap(t *testing.T) {
	chunks := ChunkText("abcdefgh", 4, 2)

	if chunks[0] != "abcd" || chunks[1] != "cdef" {
		t.Errorf("chunks = %v, want overlapping windows", chunks)
	}
	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1]
		if !strings.HasPrefix(chunks[i], prev[len(prev)-2:]) {
			t.Errorf("chunk %d %q does not overlap previous %q", i, chunks[i], prev)
		}
	}
}

func TestChunkTextShorterThanSize(t *testing.T) {
	chunks := ChunkText("tiny", 100, 10)
	if len(chunks) != 1 || chunks[0] != "tiny" {
		t.Errorf("chunks = %v, want [tiny]", chunks)
	}
}

func TestChunkTextDegenerateSize(t *testing.T) {
	chunks := ChunkText("whole", 0, 0)
	if len(chunks) != 1 || chunks[0] != "whole" {
		t.Errorf("chunks = %v, want the whole text", chunks)
	}
}

func TestKnowledgeIndexSearch(t *testing.T) {
	idx, err := NewKnowledgeIndex(t.TempDir(), 3)
	if err != nil {
		t.Fatalf("new index: %v", err)
	}

	ctx := context.Background()
	chunks := []struct {
		chunk KnowledgeChunk
		vec   []float32
	}{
		{KnowledgeChunk{Source: "a.txt", Index: 0, Text: "red things"}, []float32{1, 0, 0}},
		{KnowledgeChunk{Source: "b.txt", Index: 0, Text: "green things"}, []float32{0, 1, 0}},
	}
	for _, c := range chunks {
		if err := idx.Add(ctx, c.chunk, NewEmbedding(c.vec, "local")); err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	if err := idx.Build(ctx, 2); err != nil {
		t.Fatalf("build: %v", err)
	}

	hits, err := idx.Search(ctx, NewEmbedding([]float32{1, 0.1, 0}, "local"), 1)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("got %d hits, want 1", len(hits))
	}
	if hits[0].Chunk.Text != "red things" {
		t.Errorf("best hit = %q, want 'red things'", hits[0].Chunk.Text)
	}
}

func TestKnowledgeIndexSearchBeforeBuild(t *testing.T) {
	idx, err := NewKnowledgeIndex(t.TempDir(), 3)
	if err != nil {
		t.Fatalf("new index: %v", err)
	}

	_, err = idx.Search(context.Background(), NewEmbedding([]float32{1, 0, 0}, "local"), 1)
	if err != ErrIndexNotBuilt {
		t.Errorf("err = %v, want ErrIndexNotBuilt", err)
	}
}

func TestKnowledgeIndexSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	idx1, err := NewKnowledgeIndex(dir, 3)
	if err != nil {
		t.Fatalf("new index: %v", err)
	}
	if err := idx1.Add(ctx, KnowledgeChunk{Source: "doc.txt", Text: "persist me"}, NewEmbedding([]float32{0.5, 0.5, 0}, "local")); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := idx1.Build(ctx, 2); err != nil {
		t.Fatalf("build: %v", err)
	}
	if err := idx1.Save(ctx); err != nil {
		t.Fatalf("save: %v", err)
	}

	idx2, err := NewKnowledgeIndex(dir, 3)
	if err != nil {
		t.Fatalf("new index 2: %v", err)
	}
	if err := idx2.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}

	if idx2.Count() != 1 {
		t.Fatalf("count = %d, want 1", idx2.Count())
	}

	hits, err := idx2.Search(ctx, NewEmbedding([]float32{0.5, 0.5, 0}, "local"), 1)
	if err != nil {
		t.Fatalf("search after load: %v", err)
	}
	if len(hits) != 1 || hits[0].Chunk.Text != "persist me" {
		t.Errorf("hits = %v, want the persisted chunk", hits)
	}
}

func TestKnowledgeBaseReindex(t *testing.T) {
	docsDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(docsDir, "notes.txt"), []byte("the red button starts the pump"), 0644); err != nil {
		t.Fatalf("write doc: %v", err)
	}
	if err := os.WriteFile(filepath.Join(docsDir, "ignored.md"), []byte("not indexed"), 0644); err != nil {
		t.Fatalf("write doc: %v", err)
	}

	idx, err := NewKnowledgeIndex(t.TempDir(), 3)
	if err != nil {
		t.Fatalf("new index: %v", err)
	}

	cfg := KnowledgeConfig{ChunkSize: 100, ChunkOverlap: 0, Trees: 2, TopK: 3}
	kb := NewKnowledgeBase(docsDir, &fakeEmbedder{}, idx, cfg, nil)

	if err := kb.Reindex(context.Background()); err != nil {
		t.Fatalf("reindex: %v", err)
	}

	if idx.Count() != 1 {
		t.Errorf("indexed %d chunks, want 1 (.md files excluded)", idx.Count())
	}
}

func TestKnowledgeBaseReindexMissingDir(t *testing.T) {
	idx, err := NewKnowledgeIndex(t.TempDir(), 3)
	if err != nil {
		t.Fatalf("new index: %v", err)
	}

	kb := NewKnowledgeBase(filepath.Join(t.TempDir(), "nope"), &fakeEmbedder{}, idx, KnowledgeConfig{ChunkSize: 100}, nil)
	if err := kb.Reindex(context.Background()); err != nil {
		t.Errorf("reindex of missing dir: %v", err)
	}
}
