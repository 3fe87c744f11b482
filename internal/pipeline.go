package internal

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// GenerationSession is the outcome of one pass through the pipeline: the
// prompt that was sent, the full output, and how many tokens streamed out.
type GenerationSession struct {
	Prompt string
	Output string
	Tokens int
	// Fallback marks output that was substituted because the model
	// produced nothing usable.
	Fallback bool
	// Partial marks output truncated by a mid-stream failure. Partial text
	// is presented and spoken but never stored as memory.
	Partial bool
}

// Pipeline turns a prompt into spoken-ready text. Tokens are delivered to
// onToken in order, synchronously, before Run returns; a run that streamed
// some tokens and then failed still yields the partial output.
type Pipeline struct {
	generator Generator
	fallback  string
	log       *slog.Logger
}

func NewPipeline(generator Generator, fallback string, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{
		generator: generator,
		fallback:  fallback,
		log:       log.With("component", "pipeline"),
	}
}

func (p *Pipeline) Run(ctx context.Context, prompt string, onToken func(string)) (GenerationSession, error) {
	session := GenerationSession{Prompt: prompt}

	if p.generator == nil {
		session.Output = p.fallback
		session.Fallback = true
		return session, fmt.Errorf("no generator configured: %w", ErrGenerationFailed)
	}

	output, err := p.generator.Generate(ctx, prompt, func(token string) {
		session.Tokens++
		if onToken != nil {
			onToken(token)
		}
	})
	session.Output = output

	if err != nil {
		if session.Tokens > 0 {
			// Partial answers are kept: a truncated sentence beats silence.
			session.Partial = true
			p.log.Warn("generation failed mid-stream, keeping partial output", "tokens", session.Tokens, "err", err)
			return session, fmt.Errorf("generation interrupted: %w", ErrGenerationFailed)
		}
		p.log.Warn("generation failed", "err", err)
		session.Output = p.fallback
		session.Fallback = true
		return session, fmt.Errorf("generation failed: %w", ErrGenerationFailed)
	}

	if session.Tokens == 0 || strings.TrimSpace(session.Output) == "" {
		p.log.Warn("generation produced no tokens")
		session.Output = p.fallback
		session.Fallback = true
		return session, fmt.Errorf("empty generation: %w", ErrGenerationFailed)
	}

	return session, nil
}

// Static produces a session for canned text that never touches the model,
// used for status phrases and degraded paths.
func (p *Pipeline) Static(text string) GenerationSession {
	return GenerationSession{Prompt: text, Output: text, Tokens: 0}
}

// BuildPrompt augments the query with retrieved conversation memory and
// knowledge-base passages. With nothing retrieved, the query passes through
// untouched.
func BuildPrompt(query string, memory RetrievalResult, knowledge []KnowledgeHit) string {
	blocks := memory.ContextBlocks()
	if len(blocks) == 0 && len(knowledge) == 0 {
		return query
	}

	var b strings.Builder
	if len(blocks) > 0 {
		b.WriteString("Relevant context from previous conversations:\n")
		for _, block := range blocks {
			b.WriteString(block)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if len(knowledge) > 0 {
		b.WriteString("Relevant reference material:\n")
		for _, hit := range knowledge {
			b.WriteString(hit.Chunk.Text)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("Current question: ")
	b.WriteString(query)
	return b.String()
}
