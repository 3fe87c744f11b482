package internal

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ChunkText splits text into fixed-size character chunks with overlap. Small
// and predictable on purpose: the index runs on constrained devices.
func ChunkText(text string, size, overlap int) []string {
	if size <= 0 {
		return []string{text}
	}

	step := size - overlap
	if step < 1 {
		step = 1
	}

	var chunks []string
	for start := 0; start < len(text); start += step {
		end := start + size
		if end > len(text) {
			end = len(text)
		}
		chunks = append(chunks, text[start:end])
	}
	return chunks
}

// KnowledgeBase indexes .txt documents from a directory into the Annoy index.
type KnowledgeBase struct {
	dir      string
	embedder Embedder
	index    *KnowledgeIndex
	cfg      KnowledgeConfig
	log      *slog.Logger
}

func NewKnowledgeBase(dir string, embedder Embedder, index *KnowledgeIndex, cfg KnowledgeConfig, log *slog.Logger) *KnowledgeBase {
	if log == nil {
		log = slog.Default()
	}
	return &KnowledgeBase{
		dir:      dir,
		embedder: embedder,
		index:    index,
		cfg:      cfg,
		log:      log.With("component", "knowledge"),
	}
}

// Reindex loads every .txt file, chunks, embeds, and rebuilds the index.
func (kb *KnowledgeBase) Reindex(ctx context.Context) error {
	if kb.embedder == nil {
		return fmt.Errorf("embedder not available")
	}

	entries, err := os.ReadDir(kb.dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read knowledge directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	total := 0
	for _, name := range names {
		content, err := os.ReadFile(filepath.Join(kb.dir, name))
		if err != nil {
			kb.log.Warn("knowledge file unreadable, skipping", "file", name, "err", err)
			continue
		}

		text := strings.TrimSpace(string(content))
		if text == "" {
			continue
		}

		chunks := ChunkText(text, kb.cfg.ChunkSize, kb.cfg.ChunkOverlap)
		vecs, err := kb.embedder.EmbedBatch(ctx, chunks)
		if err != nil {
			kb.log.Warn("knowledge file embedding failed, skipping", "file", name, "err", err)
			continue
		}

		for i, chunk := range chunks {
			err := kb.index.Add(ctx, KnowledgeChunk{Source: name, Index: i, Text: chunk}, NewEmbedding(vecs[i], "local"))
			if err != nil {
				return fmt.Errorf("index chunk: %w", err)
			}
			total++
		}
	}

	if total == 0 {
		kb.log.Info("no knowledge documents found", "dir", kb.dir)
		return nil
	}

	if err := kb.index.Build(ctx, kb.cfg.Trees); err != nil {
		return fmt.Errorf("build index: %w", err)
	}
	if err := kb.index.Save(ctx); err != nil {
		return fmt.Errorf("save index: %w", err)
	}

	kb.log.Info("knowledge base indexed", "chunks", total, "files", len(names))
	return nil
}

// Watch re-indexes when the knowledge directory changes, batching bursts of
// filesystem events behind a debounce window. Blocks until ctx is done.
func (kb *KnowledgeBase) Watch(ctx context.Context, debounce time.Duration) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(kb.dir); err != nil {
		return fmt.Errorf("watch knowledge directory: %w", err)
	}

	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !strings.HasSuffix(event.Name, ".txt") {
				continue
			}
			if !pending {
				timer.Reset(debounce)
				pending = true
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			kb.log.Warn("watch error", "err", err)
		case <-timer.C:
			pending = false
			if err := kb.Reindex(ctx); err != nil {
				kb.log.Warn("reindex failed", "err", err)
			}
		}
	}
}
