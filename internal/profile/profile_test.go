package profile

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var aiEnvVars = []string{
	"CLOSETMIND_AI_ENABLED",
	"CLOSETMIND_AI_EMBEDDING_BASE_URL",
	"CLOSETMIND_AI_EMBEDDING_API_KEY",
	"JINA_API_KEY",
	"CLOSETMIND_AI_EMBEDDING_MODEL",
	"CLOSETMIND_AI_EMBEDDING_DIMENSIONS",
	"CLOSETMIND_AI_EMBEDDING_IMAGE_SIZE",
	"CLOSETMIND_AI_EMBEDDING_SERIALIZED",
	"CLOSETMIND_AI_LLM_PROVIDER",
	"CLOSETMIND_AI_LLM_BASE_URL",
	"CLOSETMIND_AI_LLM_API_KEY",
	"OPENAI_API_KEY",
	"CLOSETMIND_AI_LLM_MODEL",
	"CLOSETMIND_AI_TOP_K",
	"CLOSETMIND_AI_DIALOGUE_POLICY",
}

func clearAIEnv(t *testing.T) {
	t.Helper()
	for _, key := range aiEnvVars {
		t.Setenv(key, "")
	}
}

// TestAIProfileDefaults checks the defaults applied when nothing is set.
func TestAIProfileDefaults(t *testing.T) {
	clearAIEnv(t)

	p := &Profile{}
	p.FromEnv()

	assert.False(t, p.AIEnabled)
	assert.Equal(t, "https://api.jina.ai/v1", p.AIEmbeddingBaseURL)
	assert.Equal(t, "jina-clip-v2", p.AIEmbeddingModel)
	assert.Equal(t, 512, p.AIEmbeddingDimensions)
	assert.Equal(t, 224, p.AIEmbeddingImageSize)
	assert.False(t, p.AIEmbeddingSerialized)
	assert.Equal(t, "openai", p.AILLMProvider)
	assert.Equal(t, "gpt-4o-mini", p.AILLMModel)
	assert.Equal(t, 3, p.AITopK)
	assert.Equal(t, "lenient", p.AIDialoguePolicy)
}

func TestAIProfileFromEnv(t *testing.T) {
	tests := []struct {
		name     string
		env      map[string]string
		field    func(*Profile) any
		expected any
	}{
		{
			name:     "enabled",
			env:      map[string]string{"CLOSETMIND_AI_ENABLED": "true"},
			field:    func(p *Profile) any { return p.AIEnabled },
			expected: true,
		},
		{
			name:     "llm key from legacy OPENAI_API_KEY",
			env:      map[string]string{"OPENAI_API_KEY": "sk-legacy"},
			field:    func(p *Profile) any { return p.AILLMAPIKey },
			expected: "sk-legacy",
		},
		{
			name: "new key wins over legacy",
			env: map[string]string{
				"OPENAI_API_KEY":            "sk-legacy",
				"CLOSETMIND_AI_LLM_API_KEY": "sk-new",
			},
			field:    func(p *Profile) any { return p.AILLMAPIKey },
			expected: "sk-new",
		},
		{
			name:     "embedding key from JINA_API_KEY",
			env:      map[string]string{"JINA_API_KEY": "jina-key"},
			field:    func(p *Profile) any { return p.AIEmbeddingAPIKey },
			expected: "jina-key",
		},
		{
			name:     "dimensions parsed",
			env:      map[string]string{"CLOSETMIND_AI_EMBEDDING_DIMENSIONS": "1024"},
			field:    func(p *Profile) any { return p.AIEmbeddingDimensions },
			expected: 1024,
		},
		{
			name:     "malformed integer keeps default",
			env:      map[string]string{"CLOSETMIND_AI_TOP_K": "many"},
			field:    func(p *Profile) any { return p.AITopK },
			expected: 3,
		},
		{
			name:     "strict dialogue policy",
			env:      map[string]string{"CLOSETMIND_AI_DIALOGUE_POLICY": "strict"},
			field:    func(p *Profile) any { return p.AIDialoguePolicy },
			expected: "strict",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearAIEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			p := &Profile{}
			p.FromEnv()
			assert.Equal(t, tt.expected, tt.field(p))
		})
	}
}

func TestIsAIEnabled(t *testing.T) {
	p := &Profile{AIEnabled: true, AILLMProvider: "openai", AIEmbeddingBaseURL: "https://api.jina.ai/v1"}
	assert.False(t, p.IsAIEnabled(), "missing llm key")

	p.AILLMAPIKey = "sk-test"
	assert.True(t, p.IsAIEnabled())

	ollama := &Profile{AIEnabled: true, AILLMProvider: "ollama", AIEmbeddingBaseURL: "http://localhost:8080/v1"}
	assert.True(t, ollama.IsAIEnabled())

	p.AIEnabled = false
	assert.False(t, p.IsAIEnabled())
}

func TestValidate(t *testing.T) {
	t.Run("sqlite DSN derived from data dir", func(t *testing.T) {
		dir := t.TempDir()
		p := &Profile{Mode: "dev", Data: dir}
		require.NoError(t, p.Validate())
		assert.Equal(t, "sqlite", p.Driver)
		assert.Equal(t, filepath.Join(dir, "closetmind_dev.db"), p.DSN)
		assert.Equal(t, float64(10), p.RateLimit)
		assert.Equal(t, 20, p.RateBurst)
	})

	t.Run("unknown mode falls back to demo", func(t *testing.T) {
		p := &Profile{Mode: "weird", Driver: "memory"}
		require.NoError(t, p.Validate())
		assert.Equal(t, "demo", p.Mode)
	})

	t.Run("postgres requires dsn", func(t *testing.T) {
		p := &Profile{Mode: "dev", Driver: "postgres"}
		assert.Error(t, p.Validate())
	})

	t.Run("prod requires jwt secret", func(t *testing.T) {
		p := &Profile{Mode: "prod", Driver: "memory", Data: t.TempDir()}
		assert.Error(t, p.Validate())
	})

	t.Run("unknown driver", func(t *testing.T) {
		p := &Profile{Mode: "dev", Driver: "mysql"}
		assert.Error(t, p.Validate())
	})

	t.Run("missing data dir", func(t *testing.T) {
		p := &Profile{Mode: "dev", Data: filepath.Join(t.TempDir(), "missing")}
		assert.Error(t, p.Validate())
	})
}
