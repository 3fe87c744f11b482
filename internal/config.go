package internal

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type EmbeddingsConfig struct {
	Backend   string `yaml:"backend"`
	Model     string `yaml:"model"`
	Dimension int    `yaml:"dimension"`
}

type ProviderConfig struct {
	APIKey  string `yaml:"api_key,omitempty"`
	BaseURL string `yaml:"base_url,omitempty"`
	Model   string `yaml:"model"`
}

type MemoryConfig struct {
	// Capacity is the rolling-window cap; insertion past it evicts the
	// oldest record first.
	Capacity  int `yaml:"capacity"`
	Retrieval int `yaml:"retrieval"`
}

type KnowledgeConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
	Trees        int `yaml:"trees"`
	TopK         int `yaml:"top_k"`
}

type SpeechConfig struct {
	// Phrases in a voice command that route to the detection path instead
	// of chat.
	DetectPhrases []string `yaml:"detect_phrases"`
	// ChatModePhrases switch the persistent interaction mode to chat.
	ChatModePhrases []string `yaml:"chat_mode_phrases"`
	// DetectModePhrases switch the persistent interaction mode to detection.
	DetectModePhrases []string `yaml:"detect_mode_phrases"`
	// NoObjectText is spoken and displayed when detection finds nothing.
	NoObjectText string `yaml:"no_object_text"`
	// GenerationFallback is used when generation produces zero tokens.
	GenerationFallback string `yaml:"generation_fallback"`
	// TranscriptionFallback is shown when transcription fails or is empty.
	TranscriptionFallback string `yaml:"transcription_fallback"`
}

type DisplayConfig struct {
	RetryLimit     int `yaml:"retry_limit"`
	RetryBackoffMs int `yaml:"retry_backoff_ms"`
	IdleFPS        int `yaml:"idle_fps"`
}

type Config struct {
	Embeddings      EmbeddingsConfig          `yaml:"embeddings"`
	Providers       map[string]ProviderConfig `yaml:"providers,omitempty"`
	DefaultProvider string                    `yaml:"default_provider,omitempty"`
	Memory          MemoryConfig              `yaml:"memory"`
	Knowledge       KnowledgeConfig           `yaml:"knowledge"`
	Speech          SpeechConfig              `yaml:"speech"`
	Display         DisplayConfig             `yaml:"display"`
}

func DefaultConfig() *Config {
	return &Config{
		Embeddings: EmbeddingsConfig{
			Backend:   "gollama",
			Model:     DefaultModelFilename,
			Dimension: 384,
		},
		Providers: make(map[string]ProviderConfig),
		Memory: MemoryConfig{
			Capacity:  100,
			Retrieval: 3,
		},
		Knowledge: KnowledgeConfig{
			ChunkSize:    500,
			ChunkOverlap: 100,
			Trees:        10,
			TopK:         3,
		},
		Speech: SpeechConfig{
			DetectPhrases: []string{
				"what is this",
				"what are these",
				"detect objects",
				"identify objects",
			},
			ChatModePhrases: []string{
				"switch to chat mode",
				"chat mode",
				"enable chat",
				"talk mode",
			},
			DetectModePhrases: []string{
				"switch to object detection mode",
				"object detection mode",
				"detection mode",
				"vision mode",
				"camera mode",
			},
			NoObjectText:          "No objects detected",
			GenerationFallback:    "Sorry, I could not come up with an answer.",
			TranscriptionFallback: "Sorry, I didn't catch that.",
		},
		Display: DisplayConfig{
			RetryLimit:     3,
			RetryBackoffMs: 50,
			IdleFPS:        20,
		},
	}
}

func LoadConfig(data DataDir) (*Config, error) {
	path := data.ConfigPath()

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if cfg.Providers == nil {
		cfg.Providers = make(map[string]ProviderConfig)
	}
	if cfg.Memory.Capacity <= 0 {
		cfg.Memory.Capacity = 100
	}
	if cfg.Memory.Retrieval <= 0 {
		cfg.Memory.Retrieval = 3
	}

	return cfg, nil
}

func SaveConfig(data DataDir, cfg *Config) error {
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(data.ConfigPath(), raw, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}
