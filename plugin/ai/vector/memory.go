package vector

import (
	"context"
	"strings"
	"sync"

	aierrors "github.com/hrygo/closetmind/internal/errors"
)

// MemoryIndex is an in-process Index with brute-force cosine search.
// It backs tests and the "memory" driver.
type MemoryIndex struct {
	dimensions int

	mu         sync.RWMutex
	namespaces map[string]map[string]storedItem
}

type storedItem struct {
	vector   []float32
	metadata Metadata
}

// NewMemoryIndex creates an empty MemoryIndex. A dimensions value of 0 disables the
// dimension check.
func NewMemoryIndex(dimensions int) *MemoryIndex {
	return &MemoryIndex{
		dimensions: dimensions,
		namespaces: make(map[string]map[string]storedItem),
	}
}

// CheckNamespace rejects an empty namespace; it is a configuration error, never a global search.
func CheckNamespace(namespace string) error {
	if strings.TrimSpace(namespace) == "" {
		return aierrors.InvalidArgument("vector index namespace is required")
	}
	return nil
}

// CheckItem validates an item before it is written to any backend.
func CheckItem(item Item, dimensions int) error {
	if item.ID == "" {
		return aierrors.InvalidArgument("item ID is required")
	}
	if len(item.Vector) == 0 {
		return aierrors.InvalidArgument("item vector is empty")
	}
	if dimensions > 0 && len(item.Vector) != dimensions {
		return aierrors.InvalidArgument("item vector dimension does not match the index").
			WithContext("got", len(item.Vector)).
			WithContext("want", dimensions)
	}
	if _, err := ParseCategory(string(item.Metadata.Category)); err != nil {
		return aierrors.InvalidArgument(err.Error())
	}
	return nil
}

func (m *MemoryIndex) Upsert(ctx context.Context, namespace string, item Item) error {
	if err := CheckNamespace(namespace); err != nil {
		return err
	}
	if err := CheckItem(item, m.dimensions); err != nil {
		return err
	}

	vec := make([]float32, len(item.Vector))
	copy(vec, item.Vector)

	m.mu.Lock()
	defer m.mu.Unlock()

	items, ok := m.namespaces[namespace]
	if !ok {
		items = make(map[string]storedItem)
		m.namespaces[namespace] = items
	}
	items[item.ID] = storedItem{vector: vec, metadata: item.Metadata}
	return nil
}

func (m *MemoryIndex) Query(ctx context.Context, namespace string, vector []float32, topK int, filter Filter) ([]Candidate, error) {
	if err := CheckNamespace(namespace); err != nil {
		return nil, err
	}
	if topK < 1 {
		return nil, aierrors.InvalidArgument("topK must be at least 1")
	}
	if err := filter.Validate(); err != nil {
		return nil, aierrors.InvalidArgument(err.Error())
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	results := []Candidate{}
	for id, stored := range m.namespaces[namespace] {
		if !filter.Matches(stored.metadata) {
			continue
		}
		results = append(results, Candidate{
			ItemID:   id,
			Score:    Cosine(vector, stored.vector),
			Metadata: stored.metadata,
		})
	}

	SortCandidates(results)
	if topK < len(results) {
		results = results[:topK]
	}
	return results, nil
}

func (m *MemoryIndex) Delete(ctx context.Context, namespace, itemID string) error {
	if err := CheckNamespace(namespace); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	items := m.namespaces[namespace]
	if _, ok := items[itemID]; !ok {
		return aierrors.NotFound("wardrobe item " + itemID + " not found")
	}
	delete(items, itemID)
	return nil
}

func (m *MemoryIndex) Count(ctx context.Context, namespace string) (int, error) {
	if err := CheckNamespace(namespace); err != nil {
		return 0, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.namespaces[namespace]), nil
}

var _ Index = (*MemoryIndex)(nil)
