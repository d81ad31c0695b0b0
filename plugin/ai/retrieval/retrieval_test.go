package retrieval

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	aierrors "github.com/hrygo/closetmind/internal/errors"
	"github.com/hrygo/closetmind/plugin/ai/vector"
)

// keywordEmbedder maps words onto fixed axes so similarity is predictable.
type keywordEmbedder struct {
	err error
}

var axes = []string{"shirt", "jeans", "coat", "sneakers"}

func (k *keywordEmbedder) embed(s string) []float32 {
	v := make([]float32, len(axes)+1)
	v[len(axes)] = 0.01
	for i, word := range axes {
		if strings.Contains(strings.ToLower(s), word) {
			v[i] = 1
		}
	}
	return v
}

func (k *keywordEmbedder) EmbedImage(ctx context.Context, image []byte) ([]float32, error) {
	if k.err != nil {
		return nil, k.err
	}
	if len(image) == 0 {
		return nil, aierrors.EmbeddingFailed("decode image", errors.New("empty image"))
	}
	return k.embed(string(image)), nil
}

func (k *keywordEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if k.err != nil {
		return nil, k.err
	}
	return k.embed(text), nil
}

func (k *keywordEmbedder) Dimensions() int { return len(axes) + 1 }

// brokenIndex fails every call.
type brokenIndex struct{}

func (brokenIndex) Upsert(context.Context, string, vector.Item) error { return errors.New("db down") }
func (brokenIndex) Query(context.Context, string, []float32, int, vector.Filter) ([]vector.Candidate, error) {
	return nil, errors.New("db down")
}
func (brokenIndex) Delete(context.Context, string, string) error { return errors.New("db down") }
func (brokenIndex) Count(context.Context, string) (int, error)   { return 0, errors.New("db down") }

func register(t *testing.T, idx *Indexer, owner, image string, category vector.Category) string {
	t.Helper()
	id, err := idx.Register(context.Background(), owner, []byte(image), vector.Metadata{Category: category, Description: image})
	require.NoError(t, err)
	return id
}

func TestRetriever_Retrieve(t *testing.T) {
	embedder := &keywordEmbedder{}
	index := vector.NewMemoryIndex(embedder.Dimensions())
	indexer := NewIndexer(embedder, index)

	shirt := register(t, indexer, "alice", "white shirt", vector.CategoryTops)
	register(t, indexer, "alice", "grey coat", vector.CategoryOuterwear)
	register(t, indexer, "alice", "plain tee", vector.CategoryTops)
	register(t, indexer, "bob", "blue shirt", vector.CategoryTops)

	r := NewRetriever(embedder, index)
	results, err := r.Retrieve(context.Background(), "a crisp shirt", "alice", vector.CategoryTops, 5)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, shirt, results[0].ItemID)
	for _, c := range results {
		assert.Equal(t, vector.CategoryTops, c.Metadata.Category)
	}

	all, err := r.Retrieve(context.Background(), "a crisp shirt", "alice", "", 10)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestRetriever_Errors(t *testing.T) {
	embedder := &keywordEmbedder{}
	r := NewRetriever(embedder, vector.NewMemoryIndex(embedder.Dimensions()))

	_, err := r.Retrieve(context.Background(), "shirt", "alice", vector.CategoryTops, 0)
	assert.True(t, aierrors.IsCode(err, aierrors.ErrCodeInvalidArgument))

	_, err = r.Retrieve(context.Background(), "shirt", "", vector.CategoryTops, 3)
	assert.True(t, aierrors.IsCode(err, aierrors.ErrCodeInvalidArgument))

	results, err := r.Retrieve(context.Background(), "shirt", "nobody", vector.CategoryTops, 3)
	require.NoError(t, err)
	assert.Empty(t, results)

	failing := NewRetriever(&keywordEmbedder{err: aierrors.EmbeddingFailed("embed text", errors.New("503"))}, vector.NewMemoryIndex(5))
	_, err = failing.Retrieve(context.Background(), "shirt", "alice", vector.CategoryTops, 3)
	assert.True(t, aierrors.IsCode(err, aierrors.ErrCodeRetrievalFailed))

	broken := NewRetriever(embedder, brokenIndex{})
	_, err = broken.Retrieve(context.Background(), "shirt", "alice", vector.CategoryTops, 3)
	assert.True(t, aierrors.IsCode(err, aierrors.ErrCodeRetrievalFailed))
	assert.ErrorContains(t, err, "db down")
}

func TestRetriever_HasItems(t *testing.T) {
	embedder := &keywordEmbedder{}
	index := vector.NewMemoryIndex(embedder.Dimensions())
	register(t, NewIndexer(embedder, index), "alice", "white shirt", vector.CategoryTops)
	r := NewRetriever(embedder, index)

	ok, err := r.HasItems(context.Background(), "alice")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.HasItems(context.Background(), "bob")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = NewRetriever(embedder, brokenIndex{}).HasItems(context.Background(), "alice")
	assert.True(t, aierrors.IsCode(err, aierrors.ErrCodeRetrievalFailed))
}

func TestIndexer_Register(t *testing.T) {
	embedder := &keywordEmbedder{}
	index := vector.NewMemoryIndex(embedder.Dimensions())
	indexer := NewIndexer(embedder, index)

	first := register(t, indexer, "alice", "white shirt", "top")
	second := register(t, indexer, "alice", "white shirt", vector.CategoryTops)
	assert.NotEqual(t, first, second, "re-registration creates a new item")

	count, err := index.Count(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	_, err = indexer.Register(context.Background(), "alice", []byte("hat"), vector.Metadata{Category: "hats"})
	assert.True(t, aierrors.IsCode(err, aierrors.ErrCodeInvalidArgument))

	_, err = indexer.Register(context.Background(), "alice", nil, vector.Metadata{Category: vector.CategoryTops})
	assert.True(t, aierrors.IsCode(err, aierrors.ErrCodeEmbeddingFailed))

	_, err = NewIndexer(embedder, brokenIndex{}).Register(context.Background(), "alice", []byte("shirt"), vector.Metadata{Category: vector.CategoryTops})
	assert.True(t, aierrors.IsCode(err, aierrors.ErrCodeRetrievalFailed))
}

func TestIndexer_Remove(t *testing.T) {
	embedder := &keywordEmbedder{}
	index := vector.NewMemoryIndex(embedder.Dimensions())
	indexer := NewIndexer(embedder, index)
	id := register(t, indexer, "alice", "white shirt", vector.CategoryTops)

	assert.True(t, aierrors.IsCode(indexer.Remove(context.Background(), "bob", id), aierrors.ErrCodeNotFound))
	require.NoError(t, indexer.Remove(context.Background(), "alice", id))
	assert.True(t, aierrors.IsCode(indexer.Remove(context.Background(), "alice", id), aierrors.ErrCodeNotFound))
	assert.True(t, aierrors.IsCode(indexer.Remove(context.Background(), "alice", ""), aierrors.ErrCodeInvalidArgument))
}
