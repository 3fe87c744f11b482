package internal

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

var ErrProviderNotFound = errors.New("provider not found")

type ProviderInput struct {
	Name   string
	Config ProviderConfig
}

// Provider use cases mutate the providers section of the config file. Each
// Execute reloads from disk so concurrent CLI invocations see fresh state.

type ProviderListUseCase struct {
	data DataDir
}

func NewProviderListUseCase(data DataDir) *ProviderListUseCase {
	return &ProviderListUseCase{data: data}
}

func (uc *ProviderListUseCase) Execute() ([]string, string, error) {
	cfg, err := LoadConfig(uc.data)
	if err != nil {
		return nil, "", err
	}

	names := make([]string, 0, len(cfg.Providers))
	for name := range cfg.Providers {
		names = append(names, name)
	}
	sort.Strings(names)

	return names, cfg.DefaultProvider, nil
}

type ProviderAddUseCase struct {
	data DataDir
}

func NewProviderAddUseCase(data DataDir) *ProviderAddUseCase {
	return &ProviderAddUseCase{data: data}
}

func (uc *ProviderAddUseCase) Execute(input ProviderInput) error {
	if input.Name == "" {
		return fmt.Errorf("provider name required")
	}

	cfg, err := LoadConfig(uc.data)
	if err != nil {
		return err
	}

	cfg.Providers[input.Name] = input.Config
	if cfg.DefaultProvider == "" {
		cfg.DefaultProvider = input.Name
	}

	return SaveConfig(uc.data, cfg)
}

type ProviderRemoveUseCase struct {
	data DataDir
}

func NewProviderRemoveUseCase(data DataDir) *ProviderRemoveUseCase {
	return &ProviderRemoveUseCase{data: data}
}

func (uc *ProviderRemoveUseCase) Execute(input ProviderInput) error {
	cfg, err := LoadConfig(uc.data)
	if err != nil {
		return err
	}

	if _, ok := cfg.Providers[input.Name]; !ok {
		return fmt.Errorf("%w: %s", ErrProviderNotFound, input.Name)
	}

	delete(cfg.Providers, input.Name)
	if cfg.DefaultProvider == input.Name {
		cfg.DefaultProvider = ""
	}

	return SaveConfig(uc.data, cfg)
}

type ProviderSetDefaultUseCase struct {
	data DataDir
}

func NewProviderSetDefaultUseCase(data DataDir) *ProviderSetDefaultUseCase {
	return &ProviderSetDefaultUseCase{data: data}
}

func (uc *ProviderSetDefaultUseCase) Execute(input ProviderInput) error {
	cfg, err := LoadConfig(uc.data)
	if err != nil {
		return err
	}

	if _, ok := cfg.Providers[input.Name]; !ok {
		return fmt.Errorf("%w: %s", ErrProviderNotFound, input.Name)
	}

	cfg.DefaultProvider = input.Name
	return SaveConfig(uc.data, cfg)
}

type ProviderTestUseCase struct {
	data DataDir
}

func NewProviderTestUseCase(data DataDir) *ProviderTestUseCase {
	return &ProviderTestUseCase{data: data}
}

func (uc *ProviderTestUseCase) Execute(ctx context.Context, input ProviderInput) error {
	cfg, err := LoadConfig(uc.data)
	if err != nil {
		return err
	}

	pc, ok := cfg.Providers[input.Name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrProviderNotFound, input.Name)
	}

	gen, err := NewFantasyGenerator(ctx, FantasyConfig{
		Provider: input.Name,
		APIKey:   pc.APIKey,
		BaseURL:  pc.BaseURL,
		Model:    pc.Model,
	})
	if err != nil {
		return fmt.Errorf("create generator: %w", err)
	}

	if _, err := gen.Generate(ctx, "Say OK.", nil); err != nil {
		return fmt.Errorf("test generation: %w", err)
	}

	return nil
}

// GeneratorFromConfig builds the default provider's generator, or nil when no
// provider is configured (the caller falls back to canned phrases).
func GeneratorFromConfig(ctx context.Context, cfg *Config) (Generator, error) {
	if cfg.DefaultProvider == "" {
		return nil, nil
	}

	pc, ok := cfg.Providers[cfg.DefaultProvider]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotFound, cfg.DefaultProvider)
	}

	gen, err := NewFantasyGenerator(ctx, FantasyConfig{
		Provider: cfg.DefaultProvider,
		APIKey:   pc.APIKey,
		BaseURL:  pc.BaseURL,
		Model:    pc.Model,
	})
	if err != nil {
		return nil, err
	}
	return gen, nil
}
