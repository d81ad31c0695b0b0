package retrieval

import (
	"context"
	"log/slog"

	"github.com/lithammer/shortuuid/v4"

	aierrors "github.com/hrygo/closetmind/internal/errors"
	"github.com/hrygo/closetmind/plugin/ai"
	"github.com/hrygo/closetmind/plugin/ai/vector"
)

// Indexer registers wardrobe item images into the vector index.
type Indexer struct {
	embedder ai.Embedder
	index    vector.Index
	newID    func() string
}

// NewIndexer creates an Indexer that assigns short UUIDs to new items.
func NewIndexer(embedder ai.Embedder, index vector.Index) *Indexer {
	return &Indexer{embedder: embedder, index: index, newID: shortuuid.New}
}

// Register embeds image and stores it under ownerID with a fresh item ID.
// Items are immutable; registering the same image again yields another ID.
func (i *Indexer) Register(ctx context.Context, ownerID string, image []byte, metadata vector.Metadata) (string, error) {
	if err := vector.CheckNamespace(ownerID); err != nil {
		return "", err
	}
	category, err := vector.ParseCategory(string(metadata.Category))
	if err != nil {
		return "", aierrors.InvalidArgument(err.Error())
	}
	metadata.Category = category

	vec, err := i.embedder.EmbedImage(ctx, image)
	if err != nil {
		return "", err
	}

	id := i.newID()
	if err := i.index.Upsert(ctx, ownerID, vector.Item{ID: id, Vector: vec, Metadata: metadata}); err != nil {
		if aierrors.IsCode(err, aierrors.ErrCodeInvalidArgument) {
			return "", err
		}
		return "", aierrors.RetrievalFailed("store item vector", err)
	}

	slog.Info("wardrobe item registered",
		"owner_id", ownerID,
		"item_id", id,
		"category", category)
	return id, nil
}

// Remove deletes an item vector together with its wardrobe item.
func (i *Indexer) Remove(ctx context.Context, ownerID, itemID string) error {
	if itemID == "" {
		return aierrors.InvalidArgument("item ID is required")
	}
	err := i.index.Delete(ctx, ownerID, itemID)
	if err == nil {
		return nil
	}
	if aierrors.IsCode(err, aierrors.ErrCodeNotFound) || aierrors.IsCode(err, aierrors.ErrCodeInvalidArgument) {
		return err
	}
	return aierrors.RetrievalFailed("delete item vector", err)
}
