package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	aierrors "github.com/hrygo/closetmind/internal/errors"
	"github.com/hrygo/closetmind/internal/profile"
	"github.com/hrygo/closetmind/plugin/ai"
	"github.com/hrygo/closetmind/plugin/ai/dialogue"
	"github.com/hrygo/closetmind/plugin/ai/outfit"
	"github.com/hrygo/closetmind/plugin/ai/retrieval"
	"github.com/hrygo/closetmind/plugin/ai/vector"
	"github.com/hrygo/closetmind/server/internal/observability"
	servermw "github.com/hrygo/closetmind/server/middleware"
)

// keywordEmbedder maps words onto fixed axes; image bytes are read as text.
type keywordEmbedder struct{}

var axes = []string{"shirt", "jeans", "coat", "sneakers"}

func (keywordEmbedder) embed(s string) []float32 {
	v := make([]float32, len(axes)+1)
	v[len(axes)] = 0.01
	for i, word := range axes {
		if strings.Contains(strings.ToLower(s), word) {
			v[i] = 1
		}
	}
	return v
}

func (k keywordEmbedder) EmbedImage(_ context.Context, image []byte) ([]float32, error) {
	if len(image) == 0 {
		return nil, aierrors.EmbeddingFailed("decode image", aierrors.InvalidArgument("empty image"))
	}
	return k.embed(string(image)), nil
}

func (k keywordEmbedder) EmbedText(_ context.Context, text string) ([]float32, error) {
	return k.embed(text), nil
}

func (keywordEmbedder) Dimensions() int { return len(axes) + 1 }

// fixedLLM answers every chat with the same text.
type fixedLLM struct {
	answer string
	err    error
}

func (f *fixedLLM) Chat(context.Context, []ai.Message, ...ai.ChatOption) (string, error) {
	return f.answer, f.err
}

type fakeRecommender struct {
	suggestion *outfit.Suggestion
	err        error
	gotOwner   string
	gotContext outfit.Context
}

func (f *fakeRecommender) Recommend(_ context.Context, ownerID string, c outfit.Context) (*outfit.Suggestion, error) {
	f.gotOwner = ownerID
	f.gotContext = c
	return f.suggestion, f.err
}

func newTestService(t *testing.T) (*APIV1Service, *echo.Echo) {
	t.Helper()
	embedder := keywordEmbedder{}
	index := vector.NewMemoryIndex(embedder.Dimensions())

	svc := NewAPIV1Service(&profile.Profile{Mode: "dev", Driver: "memory", Version: "0.3.1"}, observability.NewMetrics(100))
	svc.Indexer = retrieval.NewIndexer(embedder, index)
	svc.Searcher = retrieval.NewRetriever(embedder, index)

	e := echo.New()
	e.HTTPErrorHandler = HTTPErrorHandler
	e.Use(servermw.RequestLogger(nil, svc.Metrics))
	svc.RegisterRoutes(e, servermw.NewAuthenticator(""), servermw.NewRateLimiter(1000, 1000))
	return svc, e
}

func doJSON(t *testing.T, e *echo.Echo, method, path, owner string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if owner != "" {
		req.Header.Set(servermw.OwnerHeader, owner)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func upload(t *testing.T, e *echo.Echo, owner, image string, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if image != "" {
		part, err := w.CreateFormFile("image", "item.jpg")
		require.NoError(t, err)
		_, err = part.Write([]byte(image))
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/wardrobe/items", &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	req.Header.Set(servermw.OwnerHeader, owner)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestWardrobe_CreateSearchDelete(t *testing.T) {
	_, e := newTestService(t)

	rec := upload(t, e, "alice", "white shirt", map[string]string{"category": "top", "color": "white"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created CreateWardrobeItemResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.ItemID)

	rec = upload(t, e, "alice", "blue jeans", map[string]string{"category": "bottoms"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, e, http.MethodPost, "/api/v1/wardrobe/search", "alice", SearchWardrobeRequest{Query: "a crisp shirt", TopK: 2})
	require.Equal(t, http.StatusOK, rec.Code)
	var found SearchWardrobeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &found))
	require.Len(t, found.Candidates, 2)
	assert.Equal(t, created.ItemID, found.Candidates[0].ItemID)
	assert.Equal(t, vector.CategoryTops, found.Candidates[0].Metadata.Category)
	assert.Equal(t, "white", found.Candidates[0].Metadata.Color)

	// Other owners see nothing.
	rec = doJSON(t, e, http.MethodPost, "/api/v1/wardrobe/search", "bob", SearchWardrobeRequest{Query: "shirt"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"candidates":[]}`, rec.Body.String())

	rec = doJSON(t, e, http.MethodDelete, "/api/v1/wardrobe/items/"+created.ItemID, "bob", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, e, http.MethodDelete, "/api/v1/wardrobe/items/"+created.ItemID, "alice", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, e, http.MethodPost, "/api/v1/wardrobe/search", "alice", SearchWardrobeRequest{Query: "shirt", Category: "tops"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"candidates":[]}`, rec.Body.String())
}

func TestWardrobe_BadRequests(t *testing.T) {
	_, e := newTestService(t)

	tests := []struct {
		name string
		rec  func() *httptest.ResponseRecorder
	}{
		{"missing image", func() *httptest.ResponseRecorder {
			return upload(t, e, "alice", "", map[string]string{"category": "tops"})
		}},
		{"unknown category", func() *httptest.ResponseRecorder {
			return upload(t, e, "alice", "white shirt", map[string]string{"category": "hats"})
		}},
		{"empty query", func() *httptest.ResponseRecorder {
			return doJSON(t, e, http.MethodPost, "/api/v1/wardrobe/search", "alice", SearchWardrobeRequest{Query: "  "})
		}},
		{"top_k too large", func() *httptest.ResponseRecorder {
			return doJSON(t, e, http.MethodPost, "/api/v1/wardrobe/search", "alice", SearchWardrobeRequest{Query: "shirt", TopK: 500})
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := tt.rec()
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, string(aierrors.ErrCodeInvalidArgument), decodeError(t, rec).Code)
		})
	}
}

func TestRoutes_RequireOwner(t *testing.T) {
	_, e := newTestService(t)

	rec := doJSON(t, e, http.MethodPost, "/api/v1/wardrobe/search", "", SearchWardrobeRequest{Query: "shirt"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, e, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var health HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "0.3.1", health.Version)
	assert.Equal(t, "memory", health.Driver)
	assert.False(t, health.AIEnabled)
}

func TestSuggestOutfit(t *testing.T) {
	svc, e := newTestService(t)
	selected := &vector.Candidate{ItemID: "top-1", Score: 0.9, Metadata: vector.Metadata{Category: vector.CategoryTops}}
	rec := &fakeRecommender{suggestion: &outfit.Suggestion{
		Reason: "smart casual dinner",
		Items: map[vector.Category]*outfit.Pick{
			vector.CategoryTops:      {Query: "white shirt", Selected: selected, SelectionDegraded: true, Shortlist: []vector.Candidate{*selected}},
			vector.CategoryOuterwear: nil,
		},
	}}
	svc.Recommender = rec

	resp := doJSON(t, e, http.MethodPost, "/api/v1/outfits/suggest", "alice", map[string]any{
		"context": map[string]any{"occasion": "dinner", "weather": map[string]any{"temperature": 18.5}},
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, "alice", rec.gotOwner)
	assert.Equal(t, "dinner", rec.gotContext.Occasion)
	require.NotNil(t, rec.gotContext.Weather)
	assert.InDelta(t, 18.5, *rec.gotContext.Weather.Temperature, 1e-9)

	var got outfit.Suggestion
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &got))
	assert.Equal(t, "smart casual dinner", got.Reason)
	assert.Nil(t, got.Items[vector.CategoryOuterwear])
	assert.Equal(t, "top-1", got.Items[vector.CategoryTops].Selected.ItemID)
	assert.Equal(t, int64(1), svc.Metrics.Snapshot().DegradedSelections)
}

func TestSuggestOutfit_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   aierrors.ErrorCode
	}{
		{"no items", aierrors.NoWardrobeItems("alice"), http.StatusUnprocessableEntity, aierrors.ErrCodeNoWardrobeItems},
		{"bad generation", aierrors.GenerationFailed("parse queries", errors.New("not json")), http.StatusBadGateway, aierrors.ErrCodeGenerationFailed},
		{"retrieval down", aierrors.RetrievalFailed("query index", errors.New("db down")), http.StatusBadGateway, aierrors.ErrCodeRetrievalFailed},
		{"deadline", aierrors.GenerationFailed("chat", context.DeadlineExceeded), http.StatusGatewayTimeout, aierrors.ErrCodeTimeout},
		{"empty context", aierrors.InvalidArgument("context is empty"), http.StatusBadRequest, aierrors.ErrCodeInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, e := newTestService(t)
			svc.Recommender = &fakeRecommender{err: tt.err}

			rec := doJSON(t, e, http.MethodPost, "/api/v1/outfits/suggest", "alice", SuggestOutfitRequest{})
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, string(tt.wantCode), decodeError(t, rec).Code)
		})
	}
}

func TestDisabledComponents(t *testing.T) {
	svc, e := newTestService(t)
	svc.Recommender = nil
	svc.Dialogue = nil

	rec := doJSON(t, e, http.MethodPost, "/api/v1/outfits/suggest", "alice", SuggestOutfitRequest{})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	rec = doJSON(t, e, http.MethodPost, "/api/v1/chat/propose", "alice", ProposeChatRequest{Message: "hi"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestProposeChat(t *testing.T) {
	svc, e := newTestService(t)
	svc.Dialogue = dialogue.NewManager(&fixedLLM{answer: `{
		"text": "How about a navy blazer over a white shirt?",
		"suggestion_items": ["navy blazer", "white shirt"],
		"updated_slots": {"date": "Friday", "location_type": "restaurant"}
	}`}, dialogue.LenientPolicy)

	rec := doJSON(t, e, http.MethodPost, "/api/v1/chat/propose", "alice", map[string]any{
		"history": []map[string]string{{"role": "user", "content": "I have a dinner"}},
		"slots":   map[string]any{"date": nil},
		"message": "Friday at a restaurant",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var turn map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &turn))
	assert.Equal(t, "suggestion", turn["type"])
	assert.Equal(t, "proposing", turn["state"])
	assert.Equal(t, []any{"navy blazer", "white shirt"}, turn["suggestion_items"])
	slots := turn["updated_slots"].(map[string]any)
	assert.Equal(t, "Friday", slots["date"])
	assert.Nil(t, slots["companion_age"])
}

func TestProposeChat_EchoedFinalState(t *testing.T) {
	svc, e := newTestService(t)
	svc.Dialogue = dialogue.NewManager(&fixedLLM{answer: `{
		"type": "suggestion",
		"text": "Maybe add a scarf.",
		"suggestion_items": ["grey scarf"],
		"updated_slots": {}
	}`}, dialogue.LenientPolicy)

	tests := []struct {
		name      string
		state     string
		wantCode  int
		wantState string
	}{
		{name: "no state", wantCode: http.StatusOK, wantState: "proposing"},
		{name: "final", state: "final", wantCode: http.StatusOK, wantState: "final"},
		{name: "unknown", state: "done", wantCode: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, e, http.MethodPost, "/api/v1/chat/propose", "alice", ProposeChatRequest{
				History: []ai.Message{ai.UserMessage("Looks good"), ai.AssistantMessage("Great, enjoy!")},
				Slots:   dialogue.SlotSet{dialogue.SlotDate: "Friday", dialogue.SlotLocationType: "restaurant"},
				Message: "What about accessories?",
				State:   tt.state,
			})
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			if tt.wantState == "" {
				return
			}
			var turn map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &turn))
			assert.Equal(t, tt.wantState, turn["state"])
		})
	}
}

func TestProposeChat_Errors(t *testing.T) {
	svc, e := newTestService(t)
	svc.Dialogue = dialogue.NewManager(&fixedLLM{answer: "sorry, I cannot help"}, dialogue.LenientPolicy)

	rec := doJSON(t, e, http.MethodPost, "/api/v1/chat/propose", "alice", ProposeChatRequest{Message: "dinner on Friday"})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, string(aierrors.ErrCodeDialogueFailed), resp.Code)
	assert.Contains(t, resp.Message, "please try again")

	rec = doJSON(t, e, http.MethodPost, "/api/v1/chat/propose", "alice", ProposeChatRequest{Message: " "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, e, http.MethodPost, "/api/v1/chat/propose", "alice", map[string]any{
		"history": []map[string]string{{"role": "tool", "content": "x"}},
		"message": "hi",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetMetricsOverview(t *testing.T) {
	_, e := newTestService(t)

	doJSON(t, e, http.MethodPost, "/api/v1/wardrobe/search", "alice", SearchWardrobeRequest{Query: "shirt"})
	rec := doJSON(t, e, http.MethodGet, "/api/v1/system/metrics", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var overview MetricsOverviewResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &overview))
	assert.Equal(t, int64(1), overview.TotalRequests)
	assert.Contains(t, overview.Operations, "POST /api/v1/wardrobe/search")
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
	}{
		{aierrors.EmbeddingFailed("decode image", aierrors.InvalidArgument("undecodable")), http.StatusBadRequest},
		{aierrors.EmbeddingFailed("embed", errors.New("503")), http.StatusBadGateway},
		{aierrors.NotFound("item"), http.StatusNotFound},
		{aierrors.RateLimitExceeded("alice"), http.StatusTooManyRequests},
		{aierrors.Timeout("slow", nil), http.StatusGatewayTimeout},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		status, _ := ErrorStatus(tt.err)
		assert.Equal(t, tt.wantStatus, status, tt.err.Error())
	}
}
