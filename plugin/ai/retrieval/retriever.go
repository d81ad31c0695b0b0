// Package retrieval turns free-text queries into ranked wardrobe candidates
// and registers wardrobe images into the vector index.
package retrieval

import (
	"context"
	"log/slog"
	"strings"
	"time"

	aierrors "github.com/hrygo/closetmind/internal/errors"
	"github.com/hrygo/closetmind/plugin/ai"
	"github.com/hrygo/closetmind/plugin/ai/vector"
)

// Retriever embeds a query and searches one owner's wardrobe.
type Retriever struct {
	embedder ai.Embedder
	index    vector.Index
}

// NewRetriever creates a Retriever.
func NewRetriever(embedder ai.Embedder, index vector.Index) *Retriever {
	return &Retriever{embedder: embedder, index: index}
}

// Retrieve returns up to topK candidates for query within ownerID's wardrobe,
// restricted to category when it is non-empty. Embedding and index failures
// come back as RETRIEVAL_FAILED; argument errors keep their own code.
func (r *Retriever) Retrieve(ctx context.Context, query, ownerID string, category vector.Category, topK int) ([]vector.Candidate, error) {
	if topK < 1 {
		return nil, aierrors.InvalidArgument("topK must be at least 1")
	}
	if err := vector.CheckNamespace(ownerID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(query) == "" {
		return nil, aierrors.InvalidArgument("query is required")
	}

	start := time.Now()
	vec, err := r.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, aierrors.RetrievalFailed("embed query", err)
	}

	candidates, err := r.index.Query(ctx, ownerID, vec, topK, vector.CategoryFilter(category))
	if err != nil {
		if aierrors.IsCode(err, aierrors.ErrCodeInvalidArgument) {
			return nil, err
		}
		return nil, aierrors.RetrievalFailed("query vector index", err).
			WithContext("owner_id", ownerID).
			WithContext("category", string(category))
	}

	slog.Debug("retrieval completed",
		"owner_id", ownerID,
		"category", category,
		"results", len(candidates),
		"latency_ms", time.Since(start).Milliseconds())

	return candidates, nil
}

// HasItems reports whether the owner has registered anything at all.
func (r *Retriever) HasItems(ctx context.Context, ownerID string) (bool, error) {
	count, err := r.index.Count(ctx, ownerID)
	if err != nil {
		if aierrors.IsCode(err, aierrors.ErrCodeInvalidArgument) {
			return false, err
		}
		return false, aierrors.RetrievalFailed("count wardrobe items", err)
	}
	return count > 0, nil
}
