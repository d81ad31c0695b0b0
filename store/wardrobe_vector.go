package store

import "context"

// WardrobeVector is the stored embedding of one wardrobe item.
// Rows are immutable: re-registering an item produces a new ItemID.
type WardrobeVector struct {
	ItemID      string
	OwnerID     string
	Embedding   []float32
	Category    string
	Color       string
	Material    string
	Description string
	ImageURL    string
	CreatedTs   int64
}

// FindWardrobeVector is the find condition for wardrobe vectors.
type FindWardrobeVector struct {
	OwnerID string // Required
	ItemID  *string
}

// DeleteWardrobeVector is the delete condition for wardrobe vectors.
type DeleteWardrobeVector struct {
	OwnerID string
	ItemID  string
}

// WardrobeVectorSearch represents the options for vector search.
type WardrobeVectorSearch struct {
	OwnerID  string    // Required, only search items of this owner
	Vector   []float32 // Query vector
	Limit    int       // Number of results to return, default 10
	Category *string
	Color    *string
	Material *string
}

// WardrobeVectorWithScore represents a vector search result with similarity score.
type WardrobeVectorWithScore struct {
	Vector *WardrobeVector
	Score  float32 // Cosine similarity, higher is more similar
}

// Migrate creates the wardrobe vector schema if it does not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	return s.driver.Migrate(ctx)
}

// UpsertWardrobeVector inserts or replaces a wardrobe vector.
func (s *Store) UpsertWardrobeVector(ctx context.Context, v *WardrobeVector) (*WardrobeVector, error) {
	return s.driver.UpsertWardrobeVector(ctx, v)
}

// GetWardrobeVector gets one wardrobe vector, or nil when it does not exist.
func (s *Store) GetWardrobeVector(ctx context.Context, ownerID, itemID string) (*WardrobeVector, error) {
	list, err := s.driver.ListWardrobeVectors(ctx, &FindWardrobeVector{
		OwnerID: ownerID,
		ItemID:  &itemID,
	})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// ListWardrobeVectors lists wardrobe vectors of one owner.
func (s *Store) ListWardrobeVectors(ctx context.Context, find *FindWardrobeVector) ([]*WardrobeVector, error) {
	return s.driver.ListWardrobeVectors(ctx, find)
}

// DeleteWardrobeVector deletes a wardrobe vector.
func (s *Store) DeleteWardrobeVector(ctx context.Context, delete *DeleteWardrobeVector) error {
	return s.driver.DeleteWardrobeVector(ctx, delete)
}

// CountWardrobeVectors counts the vectors of one owner.
func (s *Store) CountWardrobeVectors(ctx context.Context, ownerID string) (int, error) {
	return s.driver.CountWardrobeVectors(ctx, ownerID)
}

// SearchWardrobeVectors performs vector similarity search within one owner's wardrobe.
func (s *Store) SearchWardrobeVectors(ctx context.Context, opts *WardrobeVectorSearch) ([]*WardrobeVectorWithScore, error) {
	return s.driver.SearchWardrobeVectors(ctx, opts)
}
