package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/sync/semaphore"

	aierrors "github.com/hrygo/closetmind/internal/errors"
	"github.com/hrygo/closetmind/plugin/ai/cache"
	"github.com/hrygo/closetmind/plugin/ai/timeout"
)

// Embedder converts wardrobe images and free-text queries into vectors of
// one shared dimensionality so both can live in one index.
type Embedder interface {
	// EmbedImage decodes an image and returns its vector.
	EmbedImage(ctx context.Context, image []byte) ([]float32, error)

	// EmbedText returns the vector of a text query.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the vector dimension.
	Dimensions() int
}

// embeddingClient is the subset of the OpenAI-compatible client used for embeddings.
type embeddingClient interface {
	CreateEmbeddings(ctx context.Context, conv openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error)
}

// maxImagePixels bounds the decoded size of an uploaded photo. The header is
// checked before any pixel buffer is allocated.
const maxImagePixels = 40_000_000

type multimodalEmbedder struct {
	client     embeddingClient
	model      string
	dimensions int
	imageSize  int

	// sem serializes calls when the inference handle is not thread-safe; nil otherwise.
	sem   *semaphore.Weighted
	cache *cache.VectorCache
}

// NewEmbedder creates an Embedder backed by an OpenAI-compatible multimodal
// embedding endpoint (CLIP-style models accept {"image": ...} and {"text": ...} inputs).
func NewEmbedder(cfg *EmbeddingConfig) (Embedder, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("embedding base URL is required")
	}
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("invalid embedding dimensions: %d", cfg.Dimensions)
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = cfg.BaseURL

	return newMultimodalEmbedder(openai.NewClientWithConfig(clientConfig), cfg), nil
}

func newMultimodalEmbedder(client embeddingClient, cfg *EmbeddingConfig) *multimodalEmbedder {
	imageSize := cfg.ImageSize
	if imageSize <= 0 {
		imageSize = 224
	}

	e := &multimodalEmbedder{
		client:     client,
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		imageSize:  imageSize,
	}
	if cfg.Serialized {
		e.sem = semaphore.NewWeighted(1)
	}
	if cfg.CacheSize > 0 {
		e.cache = cache.NewVectorCache(cfg.CacheSize, cfg.CacheTTL)
	}
	return e
}

func (e *multimodalEmbedder) EmbedImage(ctx context.Context, image []byte) ([]float32, error) {
	encoded, err := e.prepareImage(image)
	if err != nil {
		return nil, aierrors.EmbeddingFailed("decode image", aierrors.Wrap(err, aierrors.ErrCodeInvalidArgument, "undecodable image"))
	}

	vector, err := e.embed(ctx, []map[string]string{{"image": encoded}})
	if err != nil {
		return nil, aierrors.EmbeddingFailed("embed image", err)
	}
	return vector, nil
}

func (e *multimodalEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, aierrors.EmbeddingFailed("embed text", errors.New("empty text"))
	}

	key := cache.Key(e.model, text)
	if e.cache != nil {
		if vector, ok := e.cache.Get(key); ok {
			return vector, nil
		}
	}

	vector, err := e.embed(ctx, []map[string]string{{"text": text}})
	if err != nil {
		return nil, aierrors.EmbeddingFailed("embed text", err)
	}

	if e.cache != nil {
		e.cache.Set(key, vector, 0)
		stats := e.cache.Stats()
		slog.Debug("embedding cache miss",
			"model", e.model,
			"size", stats.Size,
			"hits", stats.Hits,
			"misses", stats.Misses)
	}
	return vector, nil
}

func (e *multimodalEmbedder) Dimensions() int {
	return e.dimensions
}

// prepareImage decodes, orients and shrinks the image, then re-encodes it as base64 JPEG.
func (e *multimodalEmbedder) prepareImage(data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty image")
	}

	config, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	if config.Width <= 0 || config.Height <= 0 || int64(config.Width)*int64(config.Height) > maxImagePixels {
		return "", fmt.Errorf("image is %dx%d, limit is %d pixels", config.Width, config.Height, maxImagePixels)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return "", err
	}
	if img.Bounds().Dx() > e.imageSize || img.Bounds().Dy() > e.imageSize {
		img = imaging.Fit(img, e.imageSize, e.imageSize, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(90)); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func (e *multimodalEmbedder) embed(ctx context.Context, input []map[string]string) ([]float32, error) {
	if e.sem != nil {
		if err := e.sem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		defer e.sem.Release(1)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout.EmbeddingTimeout)
	defer cancel()

	start := time.Now()
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:      input,
		Model:      openai.EmbeddingModel(e.model),
		Dimensions: e.dimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("create embeddings failed: %w", err)
	}

	if len(resp.Data) == 0 {
		return nil, errors.New("empty embedding response")
	}

	vector := resp.Data[0].Embedding
	if len(vector) != e.dimensions {
		return nil, fmt.Errorf("embedding dimension mismatch: got %d, want %d", len(vector), e.dimensions)
	}

	slog.Debug("embedding completed",
		"model", e.model,
		"latency_ms", time.Since(start).Milliseconds(),
		"tokens", resp.Usage.TotalTokens)

	return vector, nil
}
