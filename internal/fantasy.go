package internal

import (
	"context"
	"fmt"
	"strings"

	"charm.land/fantasy"
	"charm.land/fantasy/providers/anthropic"
	"charm.land/fantasy/providers/openai"
	"charm.land/fantasy/providers/openrouter"
)

type FantasyConfig struct {
	Provider string
	APIKey   string
	BaseURL  string
	Model    string
}

var _ Generator = (*FantasyGenerator)(nil)

// FantasyGenerator answers prompts through a fantasy language model,
// streaming tokens to the caller as they arrive.
type FantasyGenerator struct {
	model fantasy.LanguageModel
	name  string
}

func NewFantasyGenerator(ctx context.Context, cfg FantasyConfig) (*FantasyGenerator, error) {
	var provider fantasy.Provider
	var err error

	switch cfg.Provider {
	case "openai":
		opts := []openai.Option{openai.WithAPIKey(cfg.APIKey)}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		provider, err = openai.New(opts...)

	case "anthropic":
		opts := []anthropic.Option{anthropic.WithAPIKey(cfg.APIKey)}
		if cfg.BaseURL != "" {
			opts = append(opts, anthropic.WithBaseURL(cfg.BaseURL))
		}
		provider, err = anthropic.New(opts...)

	case "openrouter":
		opts := []openrouter.Option{openrouter.WithAPIKey(cfg.APIKey)}
		provider, err = openrouter.New(opts...)

	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}

	if err != nil {
		return nil, fmt.Errorf("create provider: %w", err)
	}

	model, err := provider.LanguageModel(ctx, cfg.Model)
	if err != nil {
		return nil, fmt.Errorf("get language model: %w", err)
	}

	return &FantasyGenerator{
		model: model,
		name:  cfg.Provider,
	}, nil
}

func (g *FantasyGenerator) Name() string {
	return g.name
}

// Generate streams the model's answer, invoking onToken for each text delta
// before the call returns. The accumulated text so far survives a mid-stream
// error, so the caller can still present a partial answer.
func (g *FantasyGenerator) Generate(ctx context.Context, prompt string, onToken func(string)) (string, error) {
	agent := fantasy.NewAgent(g.model)

	var out strings.Builder
	_, err := agent.Stream(ctx, fantasy.AgentStreamCall{
		Prompt: prompt,
		OnTextDelta: func(_, text string) error {
			if text == "" {
				return nil
			}
			out.WriteString(text)
			if onToken != nil {
				onToken(text)
			}
			return nil
		},
	})
	if err != nil {
		return out.String(), fmt.Errorf("stream: %w", err)
	}

	return out.String(), nil
}
