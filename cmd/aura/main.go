package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aura-assistant/aura/internal"
	"github.com/charmbracelet/fang"
)

// version is set via ldflags at build time
var version = "dev"

func main() {
	ctx := context.Background()

	log := newLogger()

	app, err := newApp(log)
	if err != nil {
		log.Error("startup failed", "err", err)
		os.Exit(1)
	}

	rootCmd := NewRootCmd(version, app)
	if err := fang.Execute(ctx, rootCmd); err != nil {
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("AURA_DEBUG") != "" {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// app carries the config and data directory; heavier collaborators (journal,
// embedding model, provider) are built per command so that `aura provider
// list` never pays for loading a GGUF model.
type app struct {
	data internal.DataDir
	cfg  *internal.Config
	log  *slog.Logger
}

func newApp(log *slog.Logger) (*app, error) {
	data := internal.ResolveDataDir("")
	if err := data.Ensure(); err != nil {
		return nil, err
	}

	cfg, err := internal.LoadConfig(data)
	if err != nil {
		return nil, err
	}

	return &app{data: data, cfg: cfg, log: log}, nil
}

func (a *app) modelPath() string {
	return filepath.Join(a.data.ModelsPath(), a.cfg.Embeddings.Model)
}

// openStore loads the persisted memory, degrading to an in-memory store when
// the journal cannot be opened.
func (a *app) openStore(ctx context.Context) *internal.MemoryStore {
	journal, err := internal.OpenJournal(a.data.JournalPath())
	if err != nil {
		a.log.Warn("journal unavailable, memory will not persist", "err", err)
		journal = nil
	}
	return internal.NewMemoryStore(ctx, a.cfg.Memory.Capacity, journal, a.log)
}

// embedder loads the shared embedding model. A missing or broken model is not
// fatal: retrieval degrades, generation still works.
func (a *app) embedder() internal.Embedder {
	emb, err := internal.SharedEmbedder(a.modelPath(), a.cfg.Embeddings.Dimension)
	if err != nil {
		a.log.Warn("embedding model unavailable, retrieval disabled", "err", err)
		return nil
	}
	return emb
}

func (a *app) knowledgeIndex(ctx context.Context) *internal.KnowledgeIndex {
	idx, err := internal.NewKnowledgeIndex(a.data.VectorsPath(), a.cfg.Embeddings.Dimension)
	if err != nil {
		a.log.Warn("knowledge index unavailable", "err", err)
		return nil
	}
	if err := idx.Load(ctx); err != nil {
		a.log.Warn("knowledge index unreadable, starting empty", "err", err)
	}
	return idx
}

func (a *app) pipeline(ctx context.Context) *internal.Pipeline {
	gen, err := internal.GeneratorFromConfig(ctx, a.cfg)
	if err != nil {
		a.log.Warn("provider unavailable, answers fall back to canned phrases", "err", err)
		gen = nil
	}
	return internal.NewPipeline(gen, a.cfg.Speech.GenerationFallback, a.log)
}

func (a *app) retriever(store *internal.MemoryStore, knowledge *internal.KnowledgeIndex) *internal.Retriever {
	return internal.NewRetriever(a.embedder(), store, knowledge, a.cfg.Memory.Retrieval, a.log)
}
