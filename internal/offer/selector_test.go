package offer

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/oskarm-dev/backend-parts/internal/catalog"
	"github.com/oskarm-dev/backend-parts/internal/fx"
)

type fakeSource struct {
	offers     map[int64][]catalog.SupplierOffer
	warehouses map[int64]catalog.Warehouse
}

func (f *fakeSource) ListOffersByPart(_ context.Context, partID int64) ([]catalog.SupplierOffer, error) {
	return f.offers[partID], nil
}

func (f *fakeSource) GetWarehouse(_ context.Context, id int64) (catalog.Warehouse, error) {
	return f.warehouses[id], nil
}

type staticRates map[string]decimal.Decimal

func (r staticRates) LatestRate(_ context.Context, from, to string) (catalog.FxRate, error) {
	rate, ok := r[from]
	if !ok {
		return catalog.FxRate{}, fx.ErrRateNotFound
	}
	return catalog.FxRate{FromCurrency: from, ToCurrency: to, Rate: rate}, nil
}

func newSelector(src *fakeSource, rates staticRates) *Selector {
	return &Selector{
		Source: src,
		FX:     &fx.Normalizer{Base: "PLN", Source: rates},
	}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestBestPrefersEURegionOverCheaperNonEU(t *testing.T) {
	src := &fakeSource{
		offers: map[int64][]catalog.SupplierOffer{
			1: {
				{ID: 10, PartID: 1, WarehouseID: 100, BasePrice: dec("200.00"), Currency: "PLN", AvailableQty: 5, StockStatus: "in_stock"},
				{ID: 11, PartID: 1, WarehouseID: 200, BasePrice: dec("90.00"), Currency: "PLN", AvailableQty: 5, StockStatus: "in_stock"},
			},
		},
		warehouses: map[int64]catalog.Warehouse{
			100: {ID: 100, Region: "EU", DefaultLeadTimeDays: 3},
			200: {ID: 200, Region: "Non-EU", DefaultLeadTimeDays: 3},
		},
	}
	best, err := newSelector(src, staticRates{}).Best(context.Background(), catalog.Part{ID: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if best == nil || best.Offer.ID != 10 {
		t.Fatalf("expected EU offer 10 to win despite higher cost, got %+v", best)
	}
}

func TestBestRanksByCostThenLeadTime(t *testing.T) {
	lead2, lead7 := 2, 7
	src := &fakeSource{
		offers: map[int64][]catalog.SupplierOffer{
			1: {
				{ID: 10, WarehouseID: 100, BasePrice: dec("120.00"), Currency: "PLN", AvailableQty: 1, StockStatus: "available", LeadTimeDays: &lead7},
				{ID: 11, WarehouseID: 100, BasePrice: dec("100.00"), Currency: "PLN", AvailableQty: 1, StockStatus: "available", LeadTimeDays: &lead7},
				{ID: 12, WarehouseID: 100, BasePrice: dec("100.00"), Currency: "PLN", AvailableQty: 1, StockStatus: "available", LeadTimeDays: &lead2},
			},
		},
		warehouses: map[int64]catalog.Warehouse{
			100: {ID: 100, Region: "EU", DefaultLeadTimeDays: 5},
		},
	}
	best, err := newSelector(src, staticRates{}).Best(context.Background(), catalog.Part{ID: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if best.Offer.ID != 12 {
		t.Fatalf("expected cheapest-fastest offer 12, got %d", best.Offer.ID)
	}
	if best.LeadTimeDays != 2 {
		t.Fatalf("expected effective lead time 2, got %d", best.LeadTimeDays)
	}
}

func TestBestNormalizesCurrencyAndSkipsMissingRates(t *testing.T) {
	src := &fakeSource{
		offers: map[int64][]catalog.SupplierOffer{
			1: {
				{ID: 10, WarehouseID: 100, BasePrice: dec("100.00"), Currency: "EUR", AvailableQty: 1, StockStatus: "in_stock"},
				{ID: 11, WarehouseID: 100, BasePrice: dec("10.00"), Currency: "GBP", AvailableQty: 1, StockStatus: "in_stock"},
			},
		},
		warehouses: map[int64]catalog.Warehouse{
			100: {ID: 100, Region: "EU", DefaultLeadTimeDays: 4},
		},
	}
	// GBP has no rate: the offer is excluded, not fatal.
	best, err := newSelector(src, staticRates{"EUR": dec("4.30")}).Best(context.Background(), catalog.Part{ID: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if best.Offer.ID != 10 {
		t.Fatalf("expected EUR offer to survive, got %d", best.Offer.ID)
	}
	if want := dec("430.00"); !best.Cost.Equal(want) {
		t.Fatalf("expected normalized cost %s, got %s", want, best.Cost)
	}
}

func TestBestReturnsNilWhenUnpriceable(t *testing.T) {
	src := &fakeSource{
		offers: map[int64][]catalog.SupplierOffer{
			1: {{ID: 10, WarehouseID: 100, BasePrice: dec("10.00"), Currency: "GBP", AvailableQty: 1, StockStatus: "in_stock"}},
		},
		warehouses: map[int64]catalog.Warehouse{100: {ID: 100, Region: "EU"}},
	}
	sel := newSelector(src, staticRates{})

	best, err := sel.Best(context.Background(), catalog.Part{ID: 1})
	if err != nil || best != nil {
		t.Fatalf("expected nil candidate for all-excluded offers, got %+v err=%v", best, err)
	}

	best, err = sel.Best(context.Background(), catalog.Part{ID: 2})
	if err != nil || best != nil {
		t.Fatalf("expected nil candidate for part with no offers, got %+v err=%v", best, err)
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		qty    int
		status string
		want   Availability
	}{
		{5, "in_stock", Available},
		{1, "Low Stock", Available},
		{3, "AVAILABLE", Available},
		{0, "in_stock", Unavailable},
		{0, "backorder", OnOrder},
		{10, "preorder", OnOrder},
		{10, "discontinued", Unavailable},
	}
	for _, tc := range cases {
		if got := Classify(tc.qty, tc.status); got != tc.want {
			t.Fatalf("Classify(%d, %q) = %q, want %q", tc.qty, tc.status, got, tc.want)
		}
	}
}
