package shipping

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/oskarm-dev/backend-parts/internal/catalog"
	"github.com/oskarm-dev/backend-parts/internal/obs"
	"github.com/oskarm-dev/backend-parts/internal/offer"
)

// ErrRateBandNotFound is returned by RateSource implementations when no
// rate row covers the requested zone, origin region and weight band.
var ErrRateBandNotFound = errors.New("shipping rate band not found")

// ErrNoLines is returned when an estimate is requested for an empty cart.
var ErrNoLines = errors.New("no lines to estimate")

// Handling buffer applied on top of the slowest supplier lead time.
const (
	dispatchMinDays = 2
	dispatchMaxDays = 5
)

// ZoneSource resolves a canonical zone name to its configured row.
// Implementations report ErrZoneNotFound when no row matches.
type ZoneSource interface {
	FindZoneByName(ctx context.Context, name string) (catalog.ShippingZone, error)
}

// RateSource looks up the cheapest rate covering a weight for a zone and
// origin region. Implementations report ErrRateBandNotFound when no band
// covers the weight.
type RateSource interface {
	FindRate(ctx context.Context, zoneID int64, originRegion string, weightKg float64) (catalog.ShippingRate, error)
}

// Line is one cart position handed to the estimator, carrying the part
// for its weight and the selected candidate for warehouse and lead time.
type Line struct {
	Part catalog.Part
	Cand *offer.Candidate
	Qty  int
}

// Estimate is the aggregate shipping result for a cart.
type Estimate struct {
	Zone   string
	Cost   decimal.Decimal
	Window Window
}

// LeadWindow is the delivery window implied by a supplier lead time
// before any zone transit adjustment.
func LeadWindow(leadDays int) Window {
	return Window{MinDays: leadDays + dispatchMinDays, MaxDays: leadDays + dispatchMaxDays}
}

// Estimator prices shipping for a set of selected offers. Lines are
// grouped by fulfilling warehouse, each group is rated against its
// weight band, and the delivery window follows the slowest group.
type Estimator struct {
	Zones        ZoneSource
	Rates        RateSource
	FallbackFee  decimal.Decimal
	UnitWeightKg decimal.Decimal
}

type warehouseGroup struct {
	region   string
	weightKg decimal.Decimal
	maxLead  int
}

// EstimateCart returns the total shipping cost and delivery window for
// the given lines shipped to destinationCountry. A group whose weight
// falls outside every configured band is charged the fallback fee
// instead of failing the whole quote.
func (e *Estimator) EstimateCart(ctx context.Context, lines []Line, destinationCountry string) (Estimate, error) {
	if e == nil || e.Zones == nil || e.Rates == nil {
		return Estimate{}, errors.New("shipping estimator not configured")
	}
	if len(lines) == 0 {
		return Estimate{}, ErrNoLines
	}

	zoneName := ResolveZoneName(destinationCountry)
	zone, err := e.Zones.FindZoneByName(ctx, zoneName)
	if err != nil {
		if errors.Is(err, ErrZoneNotFound) {
			return Estimate{}, fmt.Errorf("zone %q for country %q: %w", zoneName, destinationCountry, ErrZoneNotFound)
		}
		return Estimate{}, fmt.Errorf("find zone %q: %w", zoneName, err)
	}

	groups := map[int64]*warehouseGroup{}
	order := make([]int64, 0, len(lines))
	for _, ln := range lines {
		if ln.Cand == nil || ln.Qty <= 0 {
			continue
		}
		wid := ln.Cand.Warehouse.ID
		g, ok := groups[wid]
		if !ok {
			g = &warehouseGroup{region: ln.Cand.Warehouse.Region}
			groups[wid] = g
			order = append(order, wid)
		}
		g.weightKg = g.weightKg.Add(e.lineWeight(ln))
		if ln.Cand.LeadTimeDays > g.maxLead {
			g.maxLead = ln.Cand.LeadTimeDays
		}
	}
	if len(groups) == 0 {
		return Estimate{}, ErrNoLines
	}

	total := decimal.Zero
	var window Window
	for i, wid := range order {
		g := groups[wid]
		if i == 0 {
			window = LeadWindow(g.maxLead)
		} else {
			window = window.Later(LeadWindow(g.maxLead))
		}
		weight, _ := g.weightKg.Float64()
		rate, err := e.Rates.FindRate(ctx, zone.ID, g.region, weight)
		switch {
		case err == nil:
			total = total.Add(rate.Price)
		case errors.Is(err, ErrRateBandNotFound):
			total = total.Add(e.FallbackFee)
			if obs.ShippingFallbackTotal != nil {
				obs.ShippingFallbackTotal.Inc()
			}
		default:
			return Estimate{}, fmt.Errorf("find rate for warehouse %d: %w", wid, err)
		}
	}

	window = window.Shift(zone.TransitDays)

	return Estimate{Zone: zone.Name, Cost: total.Round(2), Window: window}, nil
}

func (e *Estimator) lineWeight(ln Line) decimal.Decimal {
	unit := e.UnitWeightKg
	if ln.Part.WeightKg != nil {
		unit = *ln.Part.WeightKg
	}
	return unit.Mul(decimal.NewFromInt(int64(ln.Qty)))
}
