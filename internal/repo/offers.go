package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oskarm-dev/backend-parts/internal/catalog"
)

// OffersRepo loads supplier offers and their warehouses. It implements
// offer.Source.
type OffersRepo struct {
	Pool *pgxpool.Pool
}

// ListOffersByPart returns every supplier offer for a part.
func (r OffersRepo) ListOffersByPart(ctx context.Context, partID int64) ([]catalog.SupplierOffer, error) {
	const q = `
		SELECT id, part_id, supplier_id, warehouse_id, COALESCE(supplier_sku, ''),
		       base_price, currency, available_qty, COALESCE(stock_status, ''),
		       lead_time_days, min_order_qty, pack_size, updated_at
		FROM supplier_offers
		WHERE part_id = $1
		ORDER BY id`
	rows, err := r.Pool.Query(ctx, q, partID)
	if err != nil {
		return nil, fmt.Errorf("list offers for part %d: %w", partID, err)
	}
	defer rows.Close()

	var offers []catalog.SupplierOffer
	for rows.Next() {
		var o catalog.SupplierOffer
		if err := rows.Scan(
			&o.ID, &o.PartID, &o.SupplierID, &o.WarehouseID, &o.SupplierSKU,
			&o.BasePrice, &o.Currency, &o.AvailableQty, &o.StockStatus,
			&o.LeadTimeDays, &o.MinOrderQty, &o.PackSize, &o.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan offer: %w", err)
		}
		offers = append(offers, o)
	}
	return offers, rows.Err()
}

// GetWarehouse returns a warehouse by id.
func (r OffersRepo) GetWarehouse(ctx context.Context, id int64) (catalog.Warehouse, error) {
	const q = `
		SELECT id, supplier_id, name, country, region, shipping_zone_id, default_lead_time_days
		FROM warehouses
		WHERE id = $1`
	var w catalog.Warehouse
	err := r.Pool.QueryRow(ctx, q, id).Scan(
		&w.ID, &w.SupplierID, &w.Name, &w.Country, &w.Region,
		&w.ShippingZoneID, &w.DefaultLeadTimeDays,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return catalog.Warehouse{}, fmt.Errorf("warehouse %d: not found", id)
		}
		return catalog.Warehouse{}, fmt.Errorf("get warehouse %d: %w", id, err)
	}
	return w, nil
}
