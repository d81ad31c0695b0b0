package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Profile is the configuration to start main server.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Addr is the binding address for server
	Addr string
	// Port is the binding port for server
	Port int
	// Data is the data directory
	Data string
	// DSN points to where closetmind stores its wardrobe vectors
	DSN string
	// Driver is the vector index backend (postgres, sqlite or memory)
	Driver string
	// Version is the current version of server
	Version string

	// JWTSecret verifies bearer tokens; the token subject is the wardrobe owner.
	JWTSecret string
	// RateLimit is the sustained requests per second allowed per owner.
	RateLimit float64
	// RateBurst is the burst size allowed per owner.
	RateBurst int

	// AI Configuration
	AIEnabled             bool   // CLOSETMIND_AI_ENABLED
	AIEmbeddingBaseURL    string // CLOSETMIND_AI_EMBEDDING_BASE_URL (default: https://api.jina.ai/v1)
	AIEmbeddingAPIKey     string // CLOSETMIND_AI_EMBEDDING_API_KEY (legacy: JINA_API_KEY)
	AIEmbeddingModel      string // CLOSETMIND_AI_EMBEDDING_MODEL (default: jina-clip-v2)
	AIEmbeddingDimensions int    // CLOSETMIND_AI_EMBEDDING_DIMENSIONS (default: 512)
	AIEmbeddingImageSize  int    // CLOSETMIND_AI_EMBEDDING_IMAGE_SIZE (default: 224)
	AIEmbeddingSerialized bool   // CLOSETMIND_AI_EMBEDDING_SERIALIZED
	AILLMProvider         string // CLOSETMIND_AI_LLM_PROVIDER (default: openai)
	AILLMBaseURL          string // CLOSETMIND_AI_LLM_BASE_URL
	AILLMAPIKey           string // CLOSETMIND_AI_LLM_API_KEY (legacy: OPENAI_API_KEY)
	AILLMModel            string // CLOSETMIND_AI_LLM_MODEL (default: gpt-4o-mini)
	AITopK                int    // CLOSETMIND_AI_TOP_K (default: 3)
	AIDialoguePolicy      string // CLOSETMIND_AI_DIALOGUE_POLICY (default: lenient)
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsAIEnabled returns true if AI is enabled and both model endpoints are reachable with credentials.
func (p *Profile) IsAIEnabled() bool {
	if !p.AIEnabled {
		return false
	}
	llmReady := p.AILLMAPIKey != "" || p.AILLMProvider == "ollama"
	return llmReady && p.AIEmbeddingBaseURL != ""
}

// getEnvOrDefault returns the environment variable value or the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnvOrDefault(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		slog.Warn("ignoring malformed integer env value", slog.String("key", key), slog.String("value", raw))
		return defaultValue
	}
	return v
}

// FromEnv loads AI configuration from environment variables.
// Supports CLOSETMIND_* keys with the provider-native keys as fallback.
func (p *Profile) FromEnv() {
	getEnvWithFallback := func(newKey, legacyKey string) string {
		if val := os.Getenv(newKey); val != "" {
			return val
		}
		return os.Getenv(legacyKey)
	}

	p.AIEnabled = os.Getenv("CLOSETMIND_AI_ENABLED") == "true"
	p.AIEmbeddingBaseURL = getEnvOrDefault("CLOSETMIND_AI_EMBEDDING_BASE_URL", "https://api.jina.ai/v1")
	p.AIEmbeddingAPIKey = getEnvWithFallback("CLOSETMIND_AI_EMBEDDING_API_KEY", "JINA_API_KEY")
	p.AIEmbeddingModel = getEnvOrDefault("CLOSETMIND_AI_EMBEDDING_MODEL", "jina-clip-v2")
	p.AIEmbeddingDimensions = getIntEnvOrDefault("CLOSETMIND_AI_EMBEDDING_DIMENSIONS", 512)
	p.AIEmbeddingImageSize = getIntEnvOrDefault("CLOSETMIND_AI_EMBEDDING_IMAGE_SIZE", 224)
	p.AIEmbeddingSerialized = os.Getenv("CLOSETMIND_AI_EMBEDDING_SERIALIZED") == "true"
	p.AILLMProvider = getEnvOrDefault("CLOSETMIND_AI_LLM_PROVIDER", "openai")
	p.AILLMBaseURL = os.Getenv("CLOSETMIND_AI_LLM_BASE_URL")
	p.AILLMAPIKey = getEnvWithFallback("CLOSETMIND_AI_LLM_API_KEY", "OPENAI_API_KEY")
	p.AILLMModel = getEnvOrDefault("CLOSETMIND_AI_LLM_MODEL", "gpt-4o-mini")
	p.AITopK = getIntEnvOrDefault("CLOSETMIND_AI_TOP_K", 3)
	p.AIDialoguePolicy = getEnvOrDefault("CLOSETMIND_AI_DIALOGUE_POLICY", "lenient")
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Mode == "prod" && p.Data == "" {
		if runtime.GOOS == "windows" {
			p.Data = filepath.Join(os.Getenv("ProgramData"), "closetmind")
			if _, err := os.Stat(p.Data); os.IsNotExist(err) {
				if err := os.MkdirAll(p.Data, 0770); err != nil {
					slog.Error("failed to create data directory", slog.String("data", p.Data), slog.String("error", err.Error()))
					return err
				}
			}
		} else {
			p.Data = "/var/opt/closetmind"
		}
	}

	if p.Mode == "prod" && p.JWTSecret == "" {
		return errors.New("jwt secret is required in prod mode")
	}

	switch p.Driver {
	case "postgres":
		if p.DSN == "" {
			return errors.New("dsn is required for the postgres driver")
		}
	case "memory":
	case "", "sqlite":
		p.Driver = "sqlite"
		if p.DSN == "" {
			dataDir, err := checkDataDir(p.Data)
			if err != nil {
				slog.Error("failed to check data dir", slog.String("data", p.Data), slog.String("error", err.Error()))
				return err
			}
			p.Data = dataDir
			p.DSN = filepath.Join(dataDir, fmt.Sprintf("closetmind_%s.db", p.Mode))
		}
	default:
		return errors.Errorf("unknown driver %q: expected postgres, sqlite or memory", p.Driver)
	}

	if p.RateLimit <= 0 {
		p.RateLimit = 10
	}
	if p.RateBurst <= 0 {
		p.RateBurst = 20
	}

	return nil
}
