package postgres

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
)

// Migrate creates the pgvector extension, the wardrobe_vector table and its indexes.
// Every statement is idempotent so Migrate can run on each start.
func (d *DB) Migrate(ctx context.Context) error {
	for _, stmt := range migrationStatements(d.dimensions) {
		if _, err := d.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "failed to migrate wardrobe_vector schema")
		}
	}
	return nil
}

// migrationStatements builds the schema. Searches always filter on owner_id,
// so they scan the (owner_id, category) index exactly. An approximate hnsw
// index would filter after its candidate list and return fewer rows than
// asked for once other owners dominate the neighbourhood; older schemas that
// created one get it dropped.
func migrationStatements(dimensions int) []string {
	return []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS wardrobe_vector (
			item_id     TEXT NOT NULL,
			owner_id    TEXT NOT NULL,
			embedding   vector(%d) NOT NULL,
			category    TEXT NOT NULL,
			color       TEXT NOT NULL DEFAULT '',
			material    TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			image_url   TEXT NOT NULL DEFAULT '',
			created_ts  BIGINT NOT NULL,
			PRIMARY KEY (owner_id, item_id)
		)`, dimensions),
		`CREATE INDEX IF NOT EXISTS idx_wardrobe_vector_owner_category ON wardrobe_vector (owner_id, category)`,
		`DROP INDEX IF EXISTS idx_wardrobe_vector_embedding`,
	}
}
