package sqlite

import (
	"context"

	"github.com/pkg/errors"
)

// Migrate creates the wardrobe_vector table and its indexes.
func (d *DB) Migrate(ctx context.Context) error {
	statements := []string{
		`
		CREATE TABLE IF NOT EXISTS wardrobe_vector (
			item_id     TEXT NOT NULL,
			owner_id    TEXT NOT NULL,
			embedding   BLOB NOT NULL,
			category    TEXT NOT NULL,
			color       TEXT NOT NULL DEFAULT '',
			material    TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			image_url   TEXT NOT NULL DEFAULT '',
			created_ts  BIGINT NOT NULL,
			PRIMARY KEY (owner_id, item_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_wardrobe_vector_owner_category ON wardrobe_vector (owner_id, category)`,
	}

	for _, stmt := range statements {
		if _, err := d.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "failed to migrate wardrobe_vector schema")
		}
	}
	return nil
}
