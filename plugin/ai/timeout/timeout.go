// Package timeout defines centralized timeout constants for AI operations.
package timeout

import "time"

// AI operation timeout constants.
// Each bounds exactly one external round trip.
const (
	// EmbeddingTimeout is the timeout for a single image or text embedding call.
	EmbeddingTimeout = 30 * time.Second

	// VectorQueryTimeout is the timeout for a single vector index upsert or query.
	VectorQueryTimeout = 10 * time.Second

	// CompletionTimeout is the timeout for a single LLM chat completion.
	CompletionTimeout = 60 * time.Second

	// RerankTimeout bounds the reranker's completion; it is short because a
	// timeout only degrades the selection to the top similarity match.
	RerankTimeout = 20 * time.Second

	// MaxTruncateLength is the maximum length for truncating strings in logs.
	MaxTruncateLength = 200
)

// Truncate shortens s to MaxTruncateLength runes for logging.
func Truncate(s string) string {
	runes := []rune(s)
	if len(runes) <= MaxTruncateLength {
		return s
	}
	return string(runes[:MaxTruncateLength]) + "..."
}
