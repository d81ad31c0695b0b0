package outfit

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	aierrors "github.com/hrygo/closetmind/internal/errors"
	"github.com/hrygo/closetmind/plugin/ai"
	"github.com/hrygo/closetmind/plugin/ai/vector"
)

// CandidateRetriever finds shortlist candidates in one owner's wardrobe.
type CandidateRetriever interface {
	Retrieve(ctx context.Context, query, ownerID string, category vector.Category, topK int) ([]vector.Candidate, error)
	HasItems(ctx context.Context, ownerID string) (bool, error)
}

// CandidateSelector picks one candidate from a shortlist.
type CandidateSelector interface {
	SelectBest(ctx context.Context, query string, candidates []vector.Candidate) (*ai.Selection, error)
}

// Recommender runs query generation, retrieval and reranking for one outfit.
type Recommender struct {
	generator *QueryGenerator
	retriever CandidateRetriever
	selector  CandidateSelector
	topK      int
}

// NewRecommender creates a Recommender retrieving topK candidates per category.
func NewRecommender(generator *QueryGenerator, retriever CandidateRetriever, selector CandidateSelector, topK int) *Recommender {
	if topK <= 0 {
		topK = 3
	}
	return &Recommender{
		generator: generator,
		retriever: retriever,
		selector:  selector,
		topK:      topK,
	}
}

// Recommend builds an outfit for ownerID. An owner without any registered
// items gets NO_WARDROBE_ITEMS before the LLM is consulted.
func (r *Recommender) Recommend(ctx context.Context, ownerID string, c Context) (*Suggestion, error) {
	hasItems, err := r.retriever.HasItems(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if !hasItems {
		return nil, aierrors.NoWardrobeItems(ownerID)
	}

	start := time.Now()
	queries, err := r.generator.Generate(ctx, c)
	if err != nil {
		return nil, err
	}

	picks := make([]*Pick, len(OutfitCategories))
	g, gctx := errgroup.WithContext(ctx)
	for i, category := range OutfitCategories {
		query := queries.For(category)
		if query == nil {
			continue
		}
		i, category := i, category
		g.Go(func() error {
			pick, err := r.pick(gctx, ownerID, category, *query)
			if err != nil {
				return err
			}
			picks[i] = pick
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	suggestion := &Suggestion{
		Reason: queries.Reason,
		Items:  make(map[vector.Category]*Pick, len(OutfitCategories)),
	}
	degraded := 0
	for i, category := range OutfitCategories {
		suggestion.Items[category] = picks[i]
		if picks[i] != nil && picks[i].SelectionDegraded {
			degraded++
		}
	}

	slog.Info("outfit recommended",
		"owner_id", ownerID,
		"degraded", degraded,
		"latency_ms", time.Since(start).Milliseconds())

	return suggestion, nil
}

func (r *Recommender) pick(ctx context.Context, ownerID string, category vector.Category, query string) (*Pick, error) {
	shortlist, err := r.retriever.Retrieve(ctx, query, ownerID, category, r.topK)
	if err != nil {
		return nil, err
	}

	pick := &Pick{Query: query, Shortlist: shortlist}
	if len(shortlist) == 0 {
		return pick, nil
	}

	selection, err := r.selector.SelectBest(ctx, query, shortlist)
	if err != nil {
		return nil, err
	}
	selected := selection.Candidate
	pick.Selected = &selected
	pick.SelectionDegraded = selection.Degraded
	return pick, nil
}
