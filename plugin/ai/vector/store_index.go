package vector

import (
	"context"
	"errors"

	aierrors "github.com/hrygo/closetmind/internal/errors"
	"github.com/hrygo/closetmind/plugin/ai/timeout"
	"github.com/hrygo/closetmind/store"
)

// StoreIndex is an Index backed by the SQL store (pgvector or SQLite).
// The namespace maps to the owner_id column.
type StoreIndex struct {
	store      *store.Store
	dimensions int
}

// NewStoreIndex creates an Index over the given store.
func NewStoreIndex(s *store.Store, dimensions int) *StoreIndex {
	return &StoreIndex{store: s, dimensions: dimensions}
}

func (s *StoreIndex) Upsert(ctx context.Context, namespace string, item Item) error {
	if err := CheckNamespace(namespace); err != nil {
		return err
	}
	if err := CheckItem(item, s.dimensions); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout.VectorQueryTimeout)
	defer cancel()

	_, err := s.store.UpsertWardrobeVector(ctx, &store.WardrobeVector{
		ItemID:      item.ID,
		OwnerID:     namespace,
		Embedding:   item.Vector,
		Category:    string(item.Metadata.Category),
		Color:       item.Metadata.Color,
		Material:    item.Metadata.Material,
		Description: item.Metadata.Description,
		ImageURL:    item.Metadata.ImageURL,
	})
	return err
}

func (s *StoreIndex) Query(ctx context.Context, namespace string, vector []float32, topK int, filter Filter) ([]Candidate, error) {
	if err := CheckNamespace(namespace); err != nil {
		return nil, err
	}
	if topK < 1 {
		return nil, aierrors.InvalidArgument("topK must be at least 1")
	}
	if err := filter.Validate(); err != nil {
		return nil, aierrors.InvalidArgument(err.Error())
	}

	search := &store.WardrobeVectorSearch{
		OwnerID: namespace,
		Vector:  vector,
		Limit:   topK,
	}
	if v, ok := filter[FilterKeyCategory]; ok {
		search.Category = &v
	}
	if v, ok := filter[FilterKeyColor]; ok {
		search.Color = &v
	}
	if v, ok := filter[FilterKeyMaterial]; ok {
		search.Material = &v
	}

	ctx, cancel := context.WithTimeout(ctx, timeout.VectorQueryTimeout)
	defer cancel()

	rows, err := s.store.SearchWardrobeVectors(ctx, search)
	if err != nil {
		return nil, err
	}

	results := make([]Candidate, 0, len(rows))
	for _, row := range rows {
		results = append(results, Candidate{
			ItemID: row.Vector.ItemID,
			Score:  row.Score,
			Metadata: Metadata{
				Category:    Category(row.Vector.Category),
				Color:       row.Vector.Color,
				Material:    row.Vector.Material,
				Description: row.Vector.Description,
				ImageURL:    row.Vector.ImageURL,
			},
		})
	}
	// Backends already order by distance; re-sorting pins the tie order.
	SortCandidates(results)
	return results, nil
}

func (s *StoreIndex) Delete(ctx context.Context, namespace, itemID string) error {
	if err := CheckNamespace(namespace); err != nil {
		return err
	}

	err := s.store.DeleteWardrobeVector(ctx, &store.DeleteWardrobeVector{OwnerID: namespace, ItemID: itemID})
	if errors.Is(err, store.ErrNotFound) {
		return aierrors.NotFound("wardrobe item " + itemID + " not found")
	}
	return err
}

func (s *StoreIndex) Count(ctx context.Context, namespace string) (int, error) {
	if err := CheckNamespace(namespace); err != nil {
		return 0, err
	}
	return s.store.CountWardrobeVectors(ctx, namespace)
}

var _ Index = (*StoreIndex)(nil)
