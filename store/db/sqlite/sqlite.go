package sqlite

import (
	"database/sql"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	// Import the pure Go SQLite driver.
	_ "modernc.org/sqlite"

	"github.com/hrygo/closetmind/internal/profile"
	"github.com/hrygo/closetmind/store"
)

// SQLite has no vector extension here. Embeddings are stored as little-endian
// float32 BLOBs and ranked in Go, which is fine for a personal wardrobe.

type DB struct {
	db         *sql.DB
	profile    *profile.Profile
	dimensions int
}

// NewDB opens a database specified by its database driver name and a
// driver-specific data source name, usually consisting of at least a
// database name and connection information.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile == nil {
		return nil, errors.New("profile is nil")
	}
	if profile.DSN == "" {
		return nil, errors.New("dsn required")
	}

	if dir := filepath.Dir(profile.DSN); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrapf(err, "failed to create data directory %s", dir)
		}
	}

	// busy_timeout keeps concurrent writers from failing with SQLITE_BUSY;
	// WAL lets readers proceed while one writer is active.
	sqliteDB, err := sql.Open("sqlite", profile.DSN+"?_pragma=foreign_keys(0)&_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open db with dsn: %s", profile.DSN)
	}
	sqliteDB.SetMaxOpenConns(1)

	dimensions := profile.AIEmbeddingDimensions
	if dimensions <= 0 {
		dimensions = 512
	}

	var driver store.Driver = &DB{
		db:         sqliteDB,
		profile:    profile,
		dimensions: dimensions,
	}
	return driver, nil
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}
