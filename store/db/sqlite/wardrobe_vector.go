package sqlite

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/closetmind/store"
)

func (d *DB) UpsertWardrobeVector(ctx context.Context, v *store.WardrobeVector) (*store.WardrobeVector, error) {
	if v.CreatedTs == 0 {
		v.CreatedTs = time.Now().Unix()
	}

	stmt := `
		INSERT INTO wardrobe_vector (item_id, owner_id, embedding, category, color, material, description, image_url, created_ts)
		VALUES (` + placeholders(9) + `)
		ON CONFLICT (owner_id, item_id)
		DO UPDATE SET
			embedding = excluded.embedding,
			category = excluded.category,
			color = excluded.color,
			material = excluded.material,
			description = excluded.description,
			image_url = excluded.image_url
	`

	if _, err := d.db.ExecContext(ctx, stmt,
		v.ItemID,
		v.OwnerID,
		encodeVector(v.Embedding),
		v.Category,
		v.Color,
		v.Material,
		v.Description,
		v.ImageURL,
		v.CreatedTs,
	); err != nil {
		return nil, errors.Wrap(err, "failed to upsert wardrobe vector")
	}

	return v, nil
}

func (d *DB) ListWardrobeVectors(ctx context.Context, find *store.FindWardrobeVector) ([]*store.WardrobeVector, error) {
	where, args := []string{"owner_id = ?"}, []any{find.OwnerID}
	if find.ItemID != nil {
		where, args = append(where, "item_id = ?"), append(args, *find.ItemID)
	}
	return d.queryWardrobeVectors(ctx, where, args, "ORDER BY created_ts DESC, item_id")
}

func (d *DB) DeleteWardrobeVector(ctx context.Context, delete *store.DeleteWardrobeVector) error {
	result, err := d.db.ExecContext(ctx, `DELETE FROM wardrobe_vector WHERE owner_id = ? AND item_id = ?`, delete.OwnerID, delete.ItemID)
	if err != nil {
		return errors.Wrap(err, "failed to delete wardrobe vector")
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return errors.Wrapf(store.ErrNotFound, "wardrobe vector %s", delete.ItemID)
	}
	return nil
}

func (d *DB) CountWardrobeVectors(ctx context.Context, ownerID string) (int, error) {
	var count int
	if err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM wardrobe_vector WHERE owner_id = ?`, ownerID).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "failed to count wardrobe vectors")
	}
	return count, nil
}

// SearchWardrobeVectors filters in SQL and ranks by cosine similarity in Go.
func (d *DB) SearchWardrobeVectors(ctx context.Context, opts *store.WardrobeVectorSearch) ([]*store.WardrobeVectorWithScore, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}

	where, args := []string{"owner_id = ?"}, []any{opts.OwnerID}
	if opts.Category != nil {
		where, args = append(where, "category = ?"), append(args, *opts.Category)
	}
	if opts.Color != nil {
		where, args = append(where, "color = ?"), append(args, *opts.Color)
	}
	if opts.Material != nil {
		where, args = append(where, "material = ?"), append(args, *opts.Material)
	}

	list, err := d.queryWardrobeVectors(ctx, where, args, "")
	if err != nil {
		return nil, err
	}

	results := make([]*store.WardrobeVectorWithScore, 0, len(list))
	for _, v := range list {
		results = append(results, &store.WardrobeVectorWithScore{
			Vector: v,
			Score:  cosine(opts.Vector, v.Embedding),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Vector.ItemID < results[j].Vector.ItemID
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (d *DB) queryWardrobeVectors(ctx context.Context, where []string, args []any, orderBy string) ([]*store.WardrobeVector, error) {
	query := `
		SELECT item_id, owner_id, embedding, category, color, material, description, image_url, created_ts
		FROM wardrobe_vector
		WHERE ` + strings.Join(where, " AND ") + ` ` + orderBy

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list wardrobe vectors")
	}
	defer rows.Close()

	list := []*store.WardrobeVector{}
	for rows.Next() {
		var v store.WardrobeVector
		var blob []byte
		if err := rows.Scan(
			&v.ItemID,
			&v.OwnerID,
			&blob,
			&v.Category,
			&v.Color,
			&v.Material,
			&v.Description,
			&v.ImageURL,
			&v.CreatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan wardrobe vector")
		}
		if v.Embedding, err = decodeVector(blob); err != nil {
			return nil, err
		}
		list = append(list, &v)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}
