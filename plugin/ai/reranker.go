package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	aierrors "github.com/hrygo/closetmind/internal/errors"
	"github.com/hrygo/closetmind/plugin/ai/timeout"
	"github.com/hrygo/closetmind/plugin/ai/vector"
)

const rerankSystemPrompt = `You are a personal stylist choosing one wardrobe item for a request.
You are given the request and a list of candidates, each with an ID and a description.
Choose the single candidate that best fits the request.
Reply with a JSON object of the form {"id": "<candidate ID>"} and nothing else.
The ID must be copied exactly from the list.`

// Selection is the reranker's pick among retrieval candidates.
type Selection struct {
	Candidate vector.Candidate
	// Index is the position of Candidate in the input list.
	Index int
	// Degraded is set when the model's answer was unusable and the
	// top-scored candidate was taken instead.
	Degraded bool
}

// Reranker asks the LLM to pick the best candidate from a retrieval shortlist.
type Reranker struct {
	llm         LLMService
	maxTokens   int
	temperature float32
}

// NewReranker creates a Reranker.
func NewReranker(llm LLMService, cfg *RerankerConfig) *Reranker {
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 32
	}
	return &Reranker{
		llm:         llm,
		maxTokens:   maxTokens,
		temperature: cfg.Temperature,
	}
}

// SelectBest returns the candidate the model picks for query. It never fails
// on a bad model answer: unknown IDs, unparseable output and transport errors
// all fall back to candidates[0] with Degraded set.
func (r *Reranker) SelectBest(ctx context.Context, query string, candidates []vector.Candidate) (*Selection, error) {
	if len(candidates) == 0 {
		return nil, aierrors.InvalidArgument("no candidates to rerank")
	}

	ids := make(map[string]int, len(candidates))
	var list strings.Builder
	for i, c := range candidates {
		id := fmt.Sprintf("C%d", i+1)
		ids[id] = i
		fmt.Fprintf(&list, "%s: %s\n", id, describeCandidate(c))
	}

	messages := []Message{
		SystemPrompt(rerankSystemPrompt),
		UserMessage(fmt.Sprintf("Request: %s\n\nCandidates:\n%s", query, list.String())),
	}

	ctx, cancel := context.WithTimeout(ctx, timeout.RerankTimeout)
	defer cancel()

	start := time.Now()
	response, err := r.llm.Chat(ctx, messages,
		WithJSONResponse(),
		WithTemperature(r.temperature),
		WithMaxTokens(r.maxTokens),
	)
	if err != nil {
		return r.fallback(candidates, "llm call failed", err.Error()), nil
	}

	var answer struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal([]byte(StripCodeFence(response)), &answer); err != nil {
		return r.fallback(candidates, "unparseable answer", timeout.Truncate(response)), nil
	}

	index, ok := ids[answer.ID]
	if !ok {
		return r.fallback(candidates, "unknown candidate id", answer.ID), nil
	}

	slog.Debug("rerank selected candidate",
		"id", answer.ID,
		"item_id", candidates[index].ItemID,
		"latency_ms", time.Since(start).Milliseconds())

	return &Selection{Candidate: candidates[index], Index: index}, nil
}

func (r *Reranker) fallback(candidates []vector.Candidate, reason, detail string) *Selection {
	slog.Warn("rerank degraded to top retrieval candidate",
		"reason", reason,
		"detail", detail,
		"item_id", candidates[0].ItemID,
		"degraded", true)
	return &Selection{Candidate: candidates[0], Index: 0, Degraded: true}
}

// describeCandidate returns the text shown to the model; scores and item IDs stay hidden.
func describeCandidate(c vector.Candidate) string {
	if d := strings.TrimSpace(c.Metadata.Description); d != "" {
		return d
	}
	parts := []string{}
	for _, p := range []string{c.Metadata.Color, c.Metadata.Material, string(c.Metadata.Category)} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}
