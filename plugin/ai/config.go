package ai

import (
	"errors"
	"fmt"
	"time"

	"github.com/hrygo/closetmind/internal/profile"
)

// Config represents AI configuration.
type Config struct {
	Enabled bool

	Embedding EmbeddingConfig
	Reranker  RerankerConfig
	LLM       LLMConfig

	// TopK is the shortlist size retrieved per category before reranking.
	TopK int
	// DialoguePolicy names the readiness policy: lenient or strict.
	DialoguePolicy string
}

// EmbeddingConfig represents multimodal embedding configuration.
type EmbeddingConfig struct {
	Model      string // jina-clip-v2
	Dimensions int    // 512
	APIKey     string
	BaseURL    string
	ImageSize  int  // longest side sent to the model, in pixels
	Serialized bool // serialize calls when the inference handle is not thread-safe
	CacheSize  int
	CacheTTL   time.Duration
}

// RerankerConfig represents the LLM candidate selection configuration.
type RerankerConfig struct {
	MaxTokens   int     // default: 32
	Temperature float32 // default: 0
}

// LLMConfig represents LLM configuration.
type LLMConfig struct {
	Provider    string // openai, deepseek, ollama
	Model       string // gpt-4o-mini
	APIKey      string
	BaseURL     string
	MaxTokens   int     // default: 1024
	Temperature float32 // default: 0.7
}

// NewConfigFromProfile creates AI config from profile.
func NewConfigFromProfile(p *profile.Profile) *Config {
	cfg := &Config{
		Enabled: p.AIEnabled,
	}

	if !cfg.Enabled {
		return cfg
	}

	cfg.Embedding = EmbeddingConfig{
		Model:      p.AIEmbeddingModel,
		Dimensions: p.AIEmbeddingDimensions,
		APIKey:     p.AIEmbeddingAPIKey,
		BaseURL:    p.AIEmbeddingBaseURL,
		ImageSize:  p.AIEmbeddingImageSize,
		Serialized: p.AIEmbeddingSerialized,
		CacheSize:  1000,
		CacheTTL:   30 * time.Minute,
	}

	cfg.Reranker = RerankerConfig{
		MaxTokens:   32,
		Temperature: 0,
	}

	cfg.LLM = LLMConfig{
		Provider:    p.AILLMProvider,
		Model:       p.AILLMModel,
		APIKey:      p.AILLMAPIKey,
		BaseURL:     p.AILLMBaseURL,
		MaxTokens:   1024,
		Temperature: 0.7,
	}

	switch p.AILLMProvider {
	case "deepseek":
		if cfg.LLM.BaseURL == "" {
			cfg.LLM.BaseURL = "https://api.deepseek.com"
		}
	case "ollama":
		if cfg.LLM.BaseURL == "" {
			cfg.LLM.BaseURL = "http://localhost:11434/v1"
		}
	}

	cfg.TopK = p.AITopK
	if cfg.TopK <= 0 {
		cfg.TopK = 3
	}
	cfg.DialoguePolicy = p.AIDialoguePolicy
	if cfg.DialoguePolicy == "" {
		cfg.DialoguePolicy = "lenient"
	}

	return cfg
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}

	if c.Embedding.BaseURL == "" {
		return errors.New("embedding base URL is required")
	}

	if c.Embedding.Model == "" {
		return errors.New("embedding model is required")
	}

	if c.Embedding.Dimensions <= 0 {
		return errors.New("embedding dimensions must be positive")
	}

	switch c.LLM.Provider {
	case "openai", "deepseek":
		if c.LLM.APIKey == "" {
			return errors.New("LLM API key is required")
		}
	case "ollama":
	case "":
		return errors.New("LLM provider is required")
	default:
		return fmt.Errorf("unsupported LLM provider: %s", c.LLM.Provider)
	}

	if c.Reranker.Temperature > 0.2 {
		return errors.New("reranker temperature must stay at or near zero")
	}

	if c.DialoguePolicy != "lenient" && c.DialoguePolicy != "strict" {
		return fmt.Errorf("unknown dialogue policy: %s", c.DialoguePolicy)
	}

	return nil
}
