package v1

import (
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	aierrors "github.com/hrygo/closetmind/internal/errors"
	"github.com/hrygo/closetmind/plugin/ai/vector"
	servermw "github.com/hrygo/closetmind/server/middleware"
)

// CreateWardrobeItemResponse is returned after an item image was indexed.
type CreateWardrobeItemResponse struct {
	ItemID string `json:"item_id"`
}

// SearchWardrobeRequest is a free-text search over the caller's wardrobe.
type SearchWardrobeRequest struct {
	Query    string `json:"query"`
	Category string `json:"category,omitempty"`
	TopK     int    `json:"top_k,omitempty"`
}

// SearchWardrobeResponse lists hits by descending similarity.
type SearchWardrobeResponse struct {
	Candidates []vector.Candidate `json:"candidates"`
}

// CreateWardrobeItem registers an uploaded image with its metadata.
// POST /api/v1/wardrobe/items (multipart: image, category, color, material, description, image_url)
func (s *APIV1Service) CreateWardrobeItem(c echo.Context) error {
	if s.Indexer == nil {
		return aierrors.ServiceUnavailable("wardrobe indexing is disabled")
	}
	ownerID, err := owner(c)
	if err != nil {
		return err
	}

	file, err := c.FormFile("image")
	if err != nil {
		return aierrors.InvalidArgument("image file is required")
	}
	src, err := file.Open()
	if err != nil {
		return aierrors.InvalidArgument("unreadable image upload")
	}
	defer src.Close()
	image, err := io.ReadAll(src)
	if err != nil {
		return aierrors.InvalidArgument("unreadable image upload")
	}

	category, err := vector.ParseCategory(c.FormValue("category"))
	if err != nil {
		return aierrors.InvalidArgument(err.Error())
	}
	metadata := vector.Metadata{
		Category:    category,
		Color:       strings.TrimSpace(c.FormValue("color")),
		Material:    strings.TrimSpace(c.FormValue("material")),
		Description: strings.TrimSpace(c.FormValue("description")),
		ImageURL:    strings.TrimSpace(c.FormValue("image_url")),
	}

	itemID, err := s.Indexer.Register(c.Request().Context(), ownerID, image, metadata)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, CreateWardrobeItemResponse{ItemID: itemID})
}

// DeleteWardrobeItem removes an item vector.
// DELETE /api/v1/wardrobe/items/:id
func (s *APIV1Service) DeleteWardrobeItem(c echo.Context) error {
	if s.Indexer == nil {
		return aierrors.ServiceUnavailable("wardrobe indexing is disabled")
	}
	ownerID, err := owner(c)
	if err != nil {
		return err
	}
	if err := s.Indexer.Remove(c.Request().Context(), ownerID, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// SearchWardrobe returns the items most similar to a text query.
// POST /api/v1/wardrobe/search
func (s *APIV1Service) SearchWardrobe(c echo.Context) error {
	if s.Searcher == nil {
		return aierrors.ServiceUnavailable("wardrobe search is disabled")
	}
	ownerID, err := owner(c)
	if err != nil {
		return err
	}

	var req SearchWardrobeRequest
	if err := c.Bind(&req); err != nil {
		return aierrors.InvalidArgument("malformed request body")
	}

	var category vector.Category
	if req.Category != "" {
		if category, err = vector.ParseCategory(req.Category); err != nil {
			return aierrors.InvalidArgument(err.Error())
		}
	}
	topK := req.TopK
	switch {
	case topK == 0:
		topK = s.DefaultTopK
	case topK < 0 || topK > maxSearchTopK:
		return aierrors.InvalidArgument("top_k must be between 1 and 50")
	}

	candidates, err := s.Searcher.Retrieve(c.Request().Context(), req.Query, ownerID, category, topK)
	if err != nil {
		return err
	}
	if candidates == nil {
		candidates = []vector.Candidate{}
	}
	return c.JSON(http.StatusOK, SearchWardrobeResponse{Candidates: candidates})
}

func owner(c echo.Context) (string, error) {
	ownerID, ok := servermw.OwnerFromEcho(c)
	if !ok {
		return "", aierrors.Unauthorized("owner is not authenticated")
	}
	return ownerID, nil
}
