package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/pkg/errors"

	"github.com/hrygo/closetmind/store"
)

// UpsertWardrobeVector inserts or replaces a wardrobe vector.
func (d *DB) UpsertWardrobeVector(ctx context.Context, v *store.WardrobeVector) (*store.WardrobeVector, error) {
	if v.CreatedTs == 0 {
		v.CreatedTs = time.Now().Unix()
	}

	stmt := `
		INSERT INTO wardrobe_vector (item_id, owner_id, embedding, category, color, material, description, image_url, created_ts)
		VALUES (` + placeholders(9) + `)
		ON CONFLICT (owner_id, item_id)
		DO UPDATE SET
			embedding = EXCLUDED.embedding,
			category = EXCLUDED.category,
			color = EXCLUDED.color,
			material = EXCLUDED.material,
			description = EXCLUDED.description,
			image_url = EXCLUDED.image_url
		RETURNING created_ts
	`

	err := d.db.QueryRowContext(ctx, stmt,
		v.ItemID,
		v.OwnerID,
		pgvector.NewVector(v.Embedding),
		v.Category,
		v.Color,
		v.Material,
		v.Description,
		v.ImageURL,
		v.CreatedTs,
	).Scan(&v.CreatedTs)
	if err != nil {
		return nil, errors.Wrap(err, "failed to upsert wardrobe vector")
	}

	return v, nil
}

// ListWardrobeVectors lists wardrobe vectors of one owner.
func (d *DB) ListWardrobeVectors(ctx context.Context, find *store.FindWardrobeVector) ([]*store.WardrobeVector, error) {
	where, args := []string{"owner_id = " + placeholder(1)}, []any{find.OwnerID}

	if find.ItemID != nil {
		where, args = append(where, "item_id = "+placeholder(len(args)+1)), append(args, *find.ItemID)
	}

	query := `
		SELECT item_id, owner_id, embedding, category, color, material, description, image_url, created_ts
		FROM wardrobe_vector
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts DESC, item_id
	`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list wardrobe vectors")
	}
	defer rows.Close()

	list := []*store.WardrobeVector{}
	for rows.Next() {
		var v store.WardrobeVector
		var vector pgvector.Vector
		if err := rows.Scan(
			&v.ItemID,
			&v.OwnerID,
			&vector,
			&v.Category,
			&v.Color,
			&v.Material,
			&v.Description,
			&v.ImageURL,
			&v.CreatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan wardrobe vector")
		}
		v.Embedding = vector.Slice()
		list = append(list, &v)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return list, nil
}

// DeleteWardrobeVector deletes a wardrobe vector.
func (d *DB) DeleteWardrobeVector(ctx context.Context, delete *store.DeleteWardrobeVector) error {
	stmt := `DELETE FROM wardrobe_vector WHERE owner_id = ` + placeholder(1) + ` AND item_id = ` + placeholder(2)
	result, err := d.db.ExecContext(ctx, stmt, delete.OwnerID, delete.ItemID)
	if err != nil {
		return errors.Wrap(err, "failed to delete wardrobe vector")
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return errors.Wrapf(store.ErrNotFound, "wardrobe vector %s", delete.ItemID)
	}
	return nil
}

// CountWardrobeVectors counts the vectors of one owner.
func (d *DB) CountWardrobeVectors(ctx context.Context, ownerID string) (int, error) {
	var count int
	err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM wardrobe_vector WHERE owner_id = `+placeholder(1), ownerID).Scan(&count)
	if err != nil {
		return 0, errors.Wrap(err, "failed to count wardrobe vectors")
	}
	return count, nil
}

// SearchWardrobeVectors performs vector similarity search using pgvector.
func (d *DB) SearchWardrobeVectors(ctx context.Context, opts *store.WardrobeVectorSearch) ([]*store.WardrobeVectorWithScore, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}

	// <=> is cosine distance (1 - cosine similarity); ordering by it ASC puts
	// the most similar first.
	where, args := []string{"owner_id = " + placeholder(2)}, []any{pgvector.NewVector(opts.Vector), opts.OwnerID}
	if opts.Category != nil {
		where, args = append(where, "category = "+placeholder(len(args)+1)), append(args, *opts.Category)
	}
	if opts.Color != nil {
		where, args = append(where, "color = "+placeholder(len(args)+1)), append(args, *opts.Color)
	}
	if opts.Material != nil {
		where, args = append(where, "material = "+placeholder(len(args)+1)), append(args, *opts.Material)
	}
	args = append(args, limit)

	query := `
		SELECT item_id, owner_id, category, color, material, description, image_url, created_ts,
			1 - (embedding <=> ` + placeholder(1) + `) AS score
		FROM wardrobe_vector
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY embedding <=> ` + placeholder(1) + `, item_id
		LIMIT ` + placeholder(len(args))

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to search wardrobe vectors")
	}
	defer rows.Close()

	results := []*store.WardrobeVectorWithScore{}
	for rows.Next() {
		var v store.WardrobeVector
		var result store.WardrobeVectorWithScore
		if err := rows.Scan(
			&v.ItemID,
			&v.OwnerID,
			&v.Category,
			&v.Color,
			&v.Material,
			&v.Description,
			&v.ImageURL,
			&v.CreatedTs,
			&result.Score,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan wardrobe vector search result")
		}
		result.Vector = &v
		results = append(results, &result)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return results, nil
}
