// Package repo implements the data-access capability interfaces declared by
// the engine packages, backed by Postgres via pgx.
package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oskarm-dev/backend-parts/internal/catalog"
	"github.com/oskarm-dev/backend-parts/internal/quote"
)

// PartsRepo loads catalog parts.
type PartsRepo struct {
	Pool *pgxpool.Pool
}

// GetPart returns a part by id, or quote.ErrPartNotFound.
func (r PartsRepo) GetPart(ctx context.Context, id int64) (catalog.Part, error) {
	const q = `
		SELECT id, brand_id, category_id, subcategory_id, part_number,
		       normalized_part_number, name, COALESCE(description, ''), weight_kg
		FROM parts
		WHERE id = $1`
	var p catalog.Part
	err := r.Pool.QueryRow(ctx, q, id).Scan(
		&p.ID, &p.BrandID, &p.CategoryID, &p.SubcategoryID, &p.PartNumber,
		&p.NormalizedPartNumber, &p.Name, &p.Description, &p.WeightKg,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return catalog.Part{}, quote.ErrPartNotFound
		}
		return catalog.Part{}, fmt.Errorf("get part %d: %w", id, err)
	}
	return p, nil
}
