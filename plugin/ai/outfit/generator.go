package outfit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	aierrors "github.com/hrygo/closetmind/internal/errors"
	"github.com/hrygo/closetmind/plugin/ai"
	"github.com/hrygo/closetmind/plugin/ai/timeout"
)

var queryKeys = []string{"tops", "bottoms", "outerwear", "shoes", "reason"}

// QueryGenerator asks the LLM for one retrieval query per outfit category.
type QueryGenerator struct {
	llm ai.LLMService
}

// NewQueryGenerator creates a QueryGenerator.
func NewQueryGenerator(llm ai.LLMService) *QueryGenerator {
	return &QueryGenerator{llm: llm}
}

// Generate returns the per-category queries for c. Any answer that does not
// fit the schema is a GENERATION_FAILED error; there is no default outfit.
func (g *QueryGenerator) Generate(ctx context.Context, c Context) (*Queries, error) {
	if c.IsEmpty() {
		return nil, aierrors.InvalidArgument("outfit context is empty")
	}

	situation, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return nil, aierrors.GenerationFailed("encode context", err)
	}

	response, err := g.llm.Chat(ctx, []ai.Message{
		ai.SystemPrompt(queryGeneratorSystemPrompt),
		ai.UserMessage(fmt.Sprintf(queryGeneratorUserPrompt, situation)),
	}, ai.WithJSONResponse())
	if err != nil {
		return nil, aierrors.GenerationFailed("query generation call failed", err)
	}

	queries, err := parseQueries(response)
	if err != nil {
		slog.Warn("unusable query generator response",
			"error", err,
			"response", timeout.Truncate(response))
		return nil, aierrors.GenerationFailed("query generator returned an invalid outfit", err)
	}
	return queries, nil
}

// parseQueries makes one parse attempt after stripping code fences. Every key
// must be present; item values may be null, reason may not, and extra keys
// are ignored.
func parseQueries(response string) (*Queries, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(ai.StripCodeFence(response)), &raw); err != nil {
		return nil, err
	}
	for _, key := range queryKeys {
		if _, ok := raw[key]; !ok {
			return nil, fmt.Errorf("missing key %q", key)
		}
	}

	q := &Queries{}
	targets := map[string]**string{
		"tops":      &q.Tops,
		"bottoms":   &q.Bottoms,
		"outerwear": &q.Outerwear,
		"shoes":     &q.Shoes,
	}
	for key, target := range targets {
		var value *string
		if err := json.Unmarshal(raw[key], &value); err != nil {
			return nil, fmt.Errorf("key %q: %w", key, err)
		}
		if value != nil && strings.TrimSpace(*value) != "" {
			trimmed := strings.TrimSpace(*value)
			*target = &trimmed
		}
	}
	var reason *string
	if err := json.Unmarshal(raw["reason"], &reason); err != nil {
		return nil, fmt.Errorf("key %q: %w", "reason", err)
	}
	if reason == nil || strings.TrimSpace(*reason) == "" {
		return nil, fmt.Errorf("key %q must be a non-empty string", "reason")
	}
	q.Reason = strings.TrimSpace(*reason)

	if q.Tops == nil && q.Bottoms == nil && q.Outerwear == nil && q.Shoes == nil {
		return nil, fmt.Errorf("no category has a query")
	}
	return q, nil
}
