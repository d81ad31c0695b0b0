package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	aierrors "github.com/hrygo/closetmind/internal/errors"
	"github.com/hrygo/closetmind/plugin/ai/outfit"
	"github.com/hrygo/closetmind/server/internal/observability"
)

// SuggestOutfitRequest carries the user situation.
type SuggestOutfitRequest struct {
	Context outfit.Context `json:"context"`
}

// SuggestOutfit recommends one item per outfit category.
// POST /api/v1/outfits/suggest
func (s *APIV1Service) SuggestOutfit(c echo.Context) error {
	if s.Recommender == nil {
		return aierrors.ServiceUnavailable("outfit recommendation is disabled")
	}
	ownerID, err := owner(c)
	if err != nil {
		return err
	}

	var req SuggestOutfitRequest
	if err := c.Bind(&req); err != nil {
		return aierrors.InvalidArgument("malformed request body")
	}

	suggestion, err := s.Recommender.Recommend(c.Request().Context(), ownerID, req.Context)
	if err != nil {
		return err
	}

	degraded := 0
	for _, pick := range suggestion.Items {
		if pick != nil && pick.SelectionDegraded {
			degraded++
		}
	}
	if s.Metrics != nil {
		s.Metrics.RecordDegradedSelections(degraded)
	}
	if degraded > 0 {
		observability.LoggerFromContext(c.Request().Context()).Warn("outfit served with degraded selections",
			"degraded", degraded)
	}
	return c.JSON(http.StatusOK, suggestion)
}
