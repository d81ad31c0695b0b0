package test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/hrygo/closetmind/internal/profile"
	"github.com/hrygo/closetmind/store"
	"github.com/hrygo/closetmind/store/db"
)

// testDimensions keeps fixtures short; the schema width follows the profile.
const testDimensions = 4

// NewTestingStore opens a migrated store for the driver named by DRIVER.
// SQLite (default) gets a fresh file per test; PostgreSQL needs POSTGRES_TEST_DSN.
func NewTestingStore(ctx context.Context, t *testing.T) *store.Store {
	t.Helper()

	p := getTestingProfile(t)
	driver, err := db.NewDBDriver(p)
	if err != nil {
		t.Fatalf("failed to create db driver: %v", err)
	}

	s := store.New(driver, p)
	if p.Driver == "postgres" {
		resetPostgres(ctx, t, s)
	}
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate db: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Logf("failed to close store: %v", err)
		}
	})
	return s
}

func getTestingProfile(t *testing.T) *profile.Profile {
	driver := getDriverFromEnv()
	p := &profile.Profile{
		Mode:                  "test",
		Driver:                driver,
		AIEmbeddingDimensions: testDimensions,
	}

	switch driver {
	case "postgres":
		dsn := os.Getenv("POSTGRES_TEST_DSN")
		if dsn == "" {
			t.Skip("POSTGRES_TEST_DSN is not set")
		}
		p.DSN = dsn
	default:
		p.Driver = "sqlite"
		p.DSN = filepath.Join(t.TempDir(), fmt.Sprintf("closetmind_%s.db", p.Mode))
	}
	return p
}

func getDriverFromEnv() string {
	driver := os.Getenv("DRIVER")
	if driver == "" {
		driver = "sqlite"
	}
	return driver
}

// resetPostgres drops the table so its vector width matches testDimensions.
func resetPostgres(ctx context.Context, t *testing.T, s *store.Store) {
	if _, err := s.GetDriver().GetDB().ExecContext(ctx, `DROP TABLE IF EXISTS wardrobe_vector`); err != nil {
		t.Fatalf("failed to reset postgres: %v", err)
	}
}
