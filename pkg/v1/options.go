package v1

import "github.com/aura-assistant/aura/internal"

// Option configures a Client.
type Option func(*clientConfig)

type clientConfig struct {
	dataDir   string
	capacity  int
	retrieval int
	embedder  internal.Embedder
	generator internal.Generator
	fallback  string
}

// WithDataDir sets the data directory (default: $AURA_DATA_DIR or ~/.aura).
func WithDataDir(dir string) Option {
	return func(c *clientConfig) {
		c.dataDir = dir
	}
}

// WithCapacity caps how many records the store keeps before evicting the
// oldest.
func WithCapacity(n int) Option {
	return func(c *clientConfig) {
		c.capacity = n
	}
}

// WithRetrieval sets how many records retrieval returns per query.
func WithRetrieval(k int) Option {
	return func(c *clientConfig) {
		c.retrieval = k
	}
}

// WithEmbedder supplies the embedding backend. Without one, retrieval is
// disabled and records are stored without vectors.
func WithEmbedder(e internal.Embedder) Option {
	return func(c *clientConfig) {
		c.embedder = e
	}
}

// WithGenerator supplies the language-model backend used by Ask.
func WithGenerator(g internal.Generator) Option {
	return func(c *clientConfig) {
		c.generator = g
	}
}

// WithFallback sets the phrase Ask returns when generation produces nothing.
func WithFallback(text string) Option {
	return func(c *clientConfig) {
		c.fallback = text
	}
}
