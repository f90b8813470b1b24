// Package offer picks the best supplier offer for a part.
package offer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/oskarm-dev/backend-parts/internal/catalog"
	"github.com/oskarm-dev/backend-parts/internal/fx"
	"github.com/oskarm-dev/backend-parts/internal/obs"
)

// Availability is the buyer-facing stock classification of an offer.
type Availability string

// Availability labels surfaced on quotes.
const (
	Available   Availability = "Available"
	OnOrder     Availability = "On order"
	Unavailable Availability = "Unavailable"
)

var (
	availableStatuses = map[string]struct{}{
		"IN_STOCK":  {},
		"IN-STOCK":  {},
		"AVAILABLE": {},
		"LOW_STOCK": {},
		"LOW-STOCK": {},
	}
	onOrderStatuses = map[string]struct{}{
		"BACKORDER": {},
		"PREORDER":  {},
	}
)

// Classify maps an offer's quantity and raw stock-status label to an Availability.
func Classify(availableQty int, stockStatus string) Availability {
	status := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(stockStatus), " ", "_"))
	if availableQty > 0 {
		if _, ok := availableStatuses[status]; ok {
			return Available
		}
	}
	if _, ok := onOrderStatuses[status]; ok {
		return OnOrder
	}
	return Unavailable
}

// Source provides the reads offer selection needs.
type Source interface {
	ListOffersByPart(ctx context.Context, partID int64) ([]catalog.SupplierOffer, error)
	GetWarehouse(ctx context.Context, id int64) (catalog.Warehouse, error)
}

// Candidate is a supplier offer enriched with everything quoting needs:
// its warehouse, the cost normalized to base currency, the availability
// classification and the effective lead time.
type Candidate struct {
	Offer        catalog.SupplierOffer
	Warehouse    catalog.Warehouse
	Cost         decimal.Decimal
	Availability Availability
	LeadTimeDays int
}

// Selector ranks a part's supplier offers and returns the best one.
type Selector struct {
	Source Source
	FX     *fx.Normalizer
}

// Best returns the winning offer for the part, or nil when the part has no
// offers or every offer lacks a usable FX rate. A nil candidate is "no price
// available", not an error.
//
// Ranking is a composite ascending key: EU-region warehouses first, then
// normalized cost, then effective lead time. The EU preference models lower
// customs friction for intra-EU fulfilment.
func (s *Selector) Best(ctx context.Context, part catalog.Part) (*Candidate, error) {
	if s == nil || s.Source == nil || s.FX == nil {
		return nil, errors.New("offer selector not configured")
	}
	offers, err := s.Source.ListOffersByPart(ctx, part.ID)
	if err != nil {
		return nil, fmt.Errorf("list offers for part %d: %w", part.ID, err)
	}
	if len(offers) == 0 {
		return nil, nil
	}

	candidates := make([]Candidate, 0, len(offers))
	for _, o := range offers {
		warehouse, err := s.Source.GetWarehouse(ctx, o.WarehouseID)
		if err != nil {
			return nil, fmt.Errorf("load warehouse %d: %w", o.WarehouseID, err)
		}
		cost, err := s.FX.ToBase(ctx, o.BasePrice, o.Currency)
		if err != nil {
			if errors.Is(err, fx.ErrRateNotFound) {
				if obs.OffersSkippedFx != nil {
					obs.OffersSkippedFx.Inc()
				}
				continue
			}
			return nil, err
		}
		lead := warehouse.DefaultLeadTimeDays
		if o.LeadTimeDays != nil {
			lead = *o.LeadTimeDays
		}
		candidates = append(candidates, Candidate{
			Offer:        o,
			Warehouse:    warehouse,
			Cost:         cost,
			Availability: Classify(o.AvailableQty, o.StockStatus),
			LeadTimeDays: lead,
		})
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if ta, tb := regionTier(a.Warehouse.Region), regionTier(b.Warehouse.Region); ta != tb {
			return ta < tb
		}
		if cmp := a.Cost.Cmp(b.Cost); cmp != 0 {
			return cmp < 0
		}
		return a.LeadTimeDays < b.LeadTimeDays
	})
	best := candidates[0]
	return &best, nil
}

func regionTier(region string) int {
	if strings.EqualFold(strings.TrimSpace(region), "EU") {
		return 0
	}
	return 1
}
