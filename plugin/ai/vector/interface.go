// Package vector provides the namespaced nearest-neighbor index holding wardrobe item vectors.
package vector

import (
	"context"
	"fmt"
	"strings"
)

// Index is a namespaced nearest-neighbor store keyed by (namespace, item ID).
// The namespace is the wardrobe owner; every call is scoped to exactly one namespace
// and an empty namespace is rejected rather than treated as a global search.
type Index interface {
	// Upsert stores an item vector with its metadata under the namespace.
	Upsert(ctx context.Context, namespace string, item Item) error

	// Query returns up to topK candidates ordered by descending similarity.
	// filter restricts results by exact metadata match; a nil filter matches everything.
	// A namespace without items yields an empty slice, not an error.
	Query(ctx context.Context, namespace string, vector []float32, topK int, filter Filter) ([]Candidate, error)

	// Delete removes an item vector; used when the owning wardrobe item is deleted.
	Delete(ctx context.Context, namespace, itemID string) error

	// Count returns the number of items in the namespace.
	Count(ctx context.Context, namespace string) (int, error)
}

// Category is the wardrobe category of an item.
type Category string

const (
	CategoryTops      Category = "tops"
	CategoryBottoms   Category = "bottoms"
	CategoryOuterwear Category = "outerwear"
	CategoryShoes     Category = "shoes"
	CategoryAccessory Category = "accessory"
)

// Categories lists every valid category.
var Categories = []Category{CategoryTops, CategoryBottoms, CategoryOuterwear, CategoryShoes, CategoryAccessory}

// ParseCategory normalizes a category name, accepting common singular spellings.
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tops", "top":
		return CategoryTops, nil
	case "bottoms", "bottom":
		return CategoryBottoms, nil
	case "outerwear", "outer":
		return CategoryOuterwear, nil
	case "shoes", "shoe":
		return CategoryShoes, nil
	case "accessory", "accessories":
		return CategoryAccessory, nil
	default:
		return "", fmt.Errorf("unknown category %q", s)
	}
}

// Metadata describes a wardrobe item; it is stored alongside the vector.
type Metadata struct {
	Category    Category `json:"category"`
	Color       string   `json:"color,omitempty"`
	Material    string   `json:"material,omitempty"`
	Description string   `json:"description,omitempty"`
	ImageURL    string   `json:"image_url,omitempty"`
}

// Item is a wardrobe item vector to be stored.
type Item struct {
	ID       string
	Vector   []float32
	Metadata Metadata
}

// Candidate is a single similarity search hit.
type Candidate struct {
	ItemID   string   `json:"item_id"`
	Score    float32  `json:"score"` // cosine similarity in [-1, 1]
	Metadata Metadata `json:"metadata"`
}

// Filter restricts a query by exact metadata match. Supported keys: category, color, material.
type Filter map[string]string

// CategoryFilter returns a filter restricted to one category, or nil for an empty category.
func CategoryFilter(c Category) Filter {
	if c == "" {
		return nil
	}
	return Filter{FilterKeyCategory: string(c)}
}

const (
	FilterKeyCategory = "category"
	FilterKeyColor    = "color"
	FilterKeyMaterial = "material"
)

// Validate rejects filter keys the backends cannot match on.
func (f Filter) Validate() error {
	for key := range f {
		switch key {
		case FilterKeyCategory, FilterKeyColor, FilterKeyMaterial:
		default:
			return fmt.Errorf("unsupported filter key %q", key)
		}
	}
	return nil
}

// Matches reports whether metadata satisfies every filter condition.
func (f Filter) Matches(m Metadata) bool {
	for key, value := range f {
		var actual string
		switch key {
		case FilterKeyCategory:
			actual = string(m.Category)
		case FilterKeyColor:
			actual = m.Color
		case FilterKeyMaterial:
			actual = m.Material
		default:
			return false
		}
		if actual != value {
			return false
		}
	}
	return true
}
