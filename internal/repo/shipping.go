package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oskarm-dev/backend-parts/internal/catalog"
	"github.com/oskarm-dev/backend-parts/internal/shipping"
)

// ShippingRepo loads zones and rate bands. It implements shipping.ZoneSource
// and shipping.RateSource.
type ShippingRepo struct {
	Pool *pgxpool.Pool
}

// FindZoneByName returns the first zone whose name contains the given
// canonical name, case-insensitively, or shipping.ErrZoneNotFound. Substring
// matching lets rows like "EU Central" answer lookups for "EU".
func (r ShippingRepo) FindZoneByName(ctx context.Context, name string) (catalog.ShippingZone, error) {
	const q = `
		SELECT id, name, COALESCE(transit_days, 0)
		FROM shipping_zones
		WHERE name ILIKE '%' || $1 || '%'
		ORDER BY id
		LIMIT 1`
	var z catalog.ShippingZone
	err := r.Pool.QueryRow(ctx, q, name).Scan(&z.ID, &z.Name, &z.TransitDays)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return catalog.ShippingZone{}, shipping.ErrZoneNotFound
		}
		return catalog.ShippingZone{}, fmt.Errorf("find zone %q: %w", name, err)
	}
	return z, nil
}

// FindRate returns the cheapest rate covering the weight for the zone and
// origin region, or shipping.ErrRateBandNotFound when no band covers it.
func (r ShippingRepo) FindRate(ctx context.Context, zoneID int64, originRegion string, weightKg float64) (catalog.ShippingRate, error) {
	const q = `
		SELECT id, shipping_zone_id, warehouse_region, weight_min_kg, weight_max_kg,
		       price, COALESCE(carrier, ''), COALESCE(service_level, '')
		FROM shipping_rates
		WHERE shipping_zone_id = $1
		  AND warehouse_region = $2
		  AND weight_min_kg <= $3
		  AND weight_max_kg >= $3
		ORDER BY price
		LIMIT 1`
	var rate catalog.ShippingRate
	err := r.Pool.QueryRow(ctx, q, zoneID, originRegion, weightKg).Scan(
		&rate.ID, &rate.ShippingZoneID, &rate.WarehouseRegion,
		&rate.WeightMinKg, &rate.WeightMaxKg, &rate.Price,
		&rate.Carrier, &rate.ServiceLevel,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return catalog.ShippingRate{}, shipping.ErrRateBandNotFound
		}
		return catalog.ShippingRate{}, fmt.Errorf("find rate zone=%d region=%q weight=%.2f: %w", zoneID, originRegion, weightKg, err)
	}
	return rate, nil
}
