package db

import (
	"github.com/pkg/errors"

	"github.com/hrygo/closetmind/internal/profile"
	"github.com/hrygo/closetmind/store"
	"github.com/hrygo/closetmind/store/db/postgres"
	"github.com/hrygo/closetmind/store/db/sqlite"
)

// PostgreSQL (pgvector) is the production backend. SQLite stores vectors as
// BLOBs and ranks in Go; it is meant for development and small wardrobes.
// The "memory" driver has no SQL store and is served by vector.MemoryIndex.

// NewDBDriver creates new db driver based on profile.
func NewDBDriver(profile *profile.Profile) (store.Driver, error) {
	var driver store.Driver
	var err error

	switch profile.Driver {
	case "sqlite":
		driver, err = sqlite.NewDB(profile)
	case "postgres":
		driver, err = postgres.NewDB(profile)
	default:
		return nil, errors.Errorf("unknown db driver %q: only 'postgres' and 'sqlite' are backed by a database", profile.Driver)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to create db driver")
	}
	return driver, nil
}
