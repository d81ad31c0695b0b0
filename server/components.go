package server

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/hrygo/closetmind/internal/profile"
	"github.com/hrygo/closetmind/plugin/ai"
	"github.com/hrygo/closetmind/plugin/ai/dialogue"
	"github.com/hrygo/closetmind/plugin/ai/outfit"
	"github.com/hrygo/closetmind/plugin/ai/retrieval"
	"github.com/hrygo/closetmind/plugin/ai/vector"
	"github.com/hrygo/closetmind/store"
	"github.com/hrygo/closetmind/store/db"
)

// Components holds the wired recommendation pipeline.
// The AI fields stay nil when AI is disabled; the index is always available.
type Components struct {
	Store *store.Store // nil for the memory driver
	Index vector.Index

	Indexer     *retrieval.Indexer
	Retriever   *retrieval.Retriever
	Recommender *outfit.Recommender
	Dialogue    *dialogue.Manager
}

// NewComponents opens the vector index for profile.Driver and builds the
// model-backed components on top of it.
func NewComponents(ctx context.Context, profile *profile.Profile) (*Components, error) {
	c := &Components{}

	dimensions := profile.AIEmbeddingDimensions
	if dimensions <= 0 {
		dimensions = 512
	}

	if profile.Driver == "memory" {
		c.Index = vector.NewMemoryIndex(dimensions)
	} else {
		driver, err := db.NewDBDriver(profile)
		if err != nil {
			return nil, err
		}
		c.Store = store.New(driver, profile)
		if err := c.Store.Migrate(ctx); err != nil {
			_ = c.Store.Close()
			return nil, errors.Wrap(err, "failed to migrate")
		}
		c.Index = vector.NewStoreIndex(c.Store, dimensions)
	}

	if !profile.IsAIEnabled() {
		slog.Warn("AI is disabled; wardrobe and outfit endpoints will report SERVICE_UNAVAILABLE")
		return c, nil
	}

	cfg := ai.NewConfigFromProfile(profile)
	if err := cfg.Validate(); err != nil {
		c.Close()
		return nil, errors.Wrap(err, "invalid AI configuration")
	}

	embedder, err := ai.NewEmbedder(&cfg.Embedding)
	if err != nil {
		c.Close()
		return nil, errors.Wrap(err, "failed to create embedder")
	}
	llm, err := ai.NewLLMService(&cfg.LLM)
	if err != nil {
		c.Close()
		return nil, errors.Wrap(err, "failed to create LLM service")
	}
	policy, err := dialogue.ParsePolicy(cfg.DialoguePolicy)
	if err != nil {
		c.Close()
		return nil, err
	}

	c.Indexer = retrieval.NewIndexer(embedder, c.Index)
	c.Retriever = retrieval.NewRetriever(embedder, c.Index)
	c.Recommender = outfit.NewRecommender(
		outfit.NewQueryGenerator(llm),
		c.Retriever,
		ai.NewReranker(llm, &cfg.Reranker),
		cfg.TopK,
	)
	c.Dialogue = dialogue.NewManager(llm, policy)

	slog.Info("AI components ready",
		"embedding_model", cfg.Embedding.Model,
		"llm_provider", cfg.LLM.Provider,
		"llm_model", cfg.LLM.Model,
		"top_k", cfg.TopK,
		"dialogue_policy", policy.Name)
	return c, nil
}

// Close releases the store, if any.
func (c *Components) Close() error {
	if c.Store == nil {
		return nil
	}
	return c.Store.Close()
}
