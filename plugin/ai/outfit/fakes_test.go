package outfit

import (
	"context"
	"regexp"
	"strings"
	"sync"

	"github.com/hrygo/closetmind/plugin/ai"
)

// stylistLLM answers query generation with a fixed JSON body and reranking by
// picking the first listed candidate whose description contains prefer.
type stylistLLM struct {
	queries   string
	prefer    string
	rerankRaw string
	err       error

	mu          sync.Mutex
	calls       int
	rerankCalls int
	prompts     []string
}

var candidateLine = regexp.MustCompile(`(?m)^(C\d+): (.*)$`)

func (s *stylistLLM) Chat(ctx context.Context, messages []ai.Message, opts ...ai.ChatOption) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.prompts = append(s.prompts, messages[len(messages)-1].Content)
	if s.err != nil {
		return "", s.err
	}

	if messages[0].Content == queryGeneratorSystemPrompt {
		return s.queries, nil
	}

	s.rerankCalls++
	if s.rerankRaw != "" {
		return s.rerankRaw, nil
	}
	lines := candidateLine.FindAllStringSubmatch(messages[len(messages)-1].Content, -1)
	for _, line := range lines {
		if s.prefer != "" && strings.Contains(line[2], s.prefer) {
			return `{"id": "` + line[1] + `"}`, nil
		}
	}
	return `{"id": "C1"}`, nil
}

// keywordEmbedder maps known words onto fixed axes so similarity is predictable.
type keywordEmbedder struct{}

var keywordAxes = []string{"shirt", "slacks", "jeans", "loafers", "sneakers", "hoodie", "coat", "black", "white"}

func (keywordEmbedder) embed(s string) []float32 {
	v := make([]float32, len(keywordAxes)+1)
	v[len(keywordAxes)] = 0.01
	for i, word := range keywordAxes {
		if strings.Contains(strings.ToLower(s), word) {
			v[i] = 1
		}
	}
	return v
}

func (k keywordEmbedder) EmbedImage(ctx context.Context, image []byte) ([]float32, error) {
	return k.embed(string(image)), nil
}

func (k keywordEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	return k.embed(text), nil
}

func (keywordEmbedder) Dimensions() int { return len(keywordAxes) + 1 }
