package store

import (
	"context"
	"database/sql"
	"errors"
)

// ErrNotFound is returned by drivers when a row to delete does not exist.
var ErrNotFound = errors.New("not found")

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	// Migrate idempotently creates the schema.
	Migrate(ctx context.Context) error

	// WardrobeVector model related methods.
	UpsertWardrobeVector(ctx context.Context, v *WardrobeVector) (*WardrobeVector, error)
	ListWardrobeVectors(ctx context.Context, find *FindWardrobeVector) ([]*WardrobeVector, error)
	DeleteWardrobeVector(ctx context.Context, delete *DeleteWardrobeVector) error
	CountWardrobeVectors(ctx context.Context, ownerID string) (int, error)
	SearchWardrobeVectors(ctx context.Context, opts *WardrobeVectorSearch) ([]*WardrobeVectorWithScore, error)
}
