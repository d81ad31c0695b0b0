package v1

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/hrygo/closetmind/internal/profile"
	"github.com/hrygo/closetmind/plugin/ai"
	"github.com/hrygo/closetmind/plugin/ai/dialogue"
	"github.com/hrygo/closetmind/plugin/ai/outfit"
	"github.com/hrygo/closetmind/plugin/ai/vector"
	"github.com/hrygo/closetmind/server/internal/observability"
	servermw "github.com/hrygo/closetmind/server/middleware"
)

const (
	// maxUploadSize bounds the multipart body of an item upload.
	maxUploadSize = "10M"
	// maxSearchTopK caps the free-text search result size.
	maxSearchTopK = 50
)

// WardrobeIndexer adds and removes wardrobe items.
type WardrobeIndexer interface {
	Register(ctx context.Context, ownerID string, image []byte, metadata vector.Metadata) (string, error)
	Remove(ctx context.Context, ownerID, itemID string) error
}

// WardrobeSearcher runs free-text similarity search over an owner's wardrobe.
type WardrobeSearcher interface {
	Retrieve(ctx context.Context, query, ownerID string, category vector.Category, topK int) ([]vector.Candidate, error)
}

// OutfitRecommender assembles an outfit for a user context.
type OutfitRecommender interface {
	Recommend(ctx context.Context, ownerID string, c outfit.Context) (*outfit.Suggestion, error)
}

// DialogueAdvancer runs one turn of the proposal conversation.
type DialogueAdvancer interface {
	Advance(ctx context.Context, history []ai.Message, slots dialogue.SlotSet, message string, opts ...dialogue.AdvanceOption) (*dialogue.Turn, error)
}

// APIV1Service serves the wardrobe, outfit and chat endpoints.
// AI-backed handlers answer SERVICE_UNAVAILABLE while their component is nil.
type APIV1Service struct {
	Profile     *profile.Profile
	Indexer     WardrobeIndexer
	Searcher    WardrobeSearcher
	Recommender OutfitRecommender
	Dialogue    DialogueAdvancer
	Metrics     *observability.Metrics

	// DefaultTopK is the search size when a request omits top_k.
	DefaultTopK int
}

func NewAPIV1Service(profile *profile.Profile, metrics *observability.Metrics) *APIV1Service {
	topK := profile.AITopK
	if topK <= 0 {
		topK = 3
	}
	return &APIV1Service{
		Profile:     profile,
		Metrics:     metrics,
		DefaultTopK: topK,
	}
}

// RegisterRoutes mounts the API under /api/v1. Every route requires an owner;
// the rate limiter runs after authentication so buckets are per owner.
func (s *APIV1Service) RegisterRoutes(e *echo.Echo, auth *servermw.Authenticator, limiter *servermw.RateLimiter) {
	e.GET("/healthz", s.Healthz)

	g := e.Group("/api/v1", auth.Middleware(), limiter.Middleware())

	g.POST("/wardrobe/items", s.CreateWardrobeItem, middleware.BodyLimit(maxUploadSize))
	g.DELETE("/wardrobe/items/:id", s.DeleteWardrobeItem)
	g.POST("/wardrobe/search", s.SearchWardrobe)
	g.POST("/outfits/suggest", s.SuggestOutfit)
	g.POST("/chat/propose", s.ProposeChat)
	g.GET("/system/metrics", s.GetMetricsOverview)
}
