package shipping

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/oskarm-dev/backend-parts/internal/catalog"
	"github.com/oskarm-dev/backend-parts/internal/offer"
)

type fakeZones struct {
	zones map[string]catalog.ShippingZone
}

func (f *fakeZones) FindZoneByName(_ context.Context, name string) (catalog.ShippingZone, error) {
	z, ok := f.zones[name]
	if !ok {
		return catalog.ShippingZone{}, ErrZoneNotFound
	}
	return z, nil
}

type fakeRates struct {
	rates   []catalog.ShippingRate
	lookups []float64
}

func (f *fakeRates) FindRate(_ context.Context, zoneID int64, region string, weightKg float64) (catalog.ShippingRate, error) {
	f.lookups = append(f.lookups, weightKg)
	for _, r := range f.rates {
		if r.ShippingZoneID != zoneID || r.WarehouseRegion != region {
			continue
		}
		if weightKg >= r.WeightMinKg && weightKg <= r.WeightMaxKg {
			return r, nil
		}
	}
	return catalog.ShippingRate{}, ErrRateBandNotFound
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func line(warehouseID int64, region string, lead, qty int, weightKg string) Line {
	ln := Line{
		Cand: &offer.Candidate{
			Warehouse:    catalog.Warehouse{ID: warehouseID, Region: region},
			LeadTimeDays: lead,
		},
		Qty: qty,
	}
	if weightKg != "" {
		w := dec(weightKg)
		ln.Part.WeightKg = &w
	}
	return ln
}

func newEstimator(zones *fakeZones, rates *fakeRates) *Estimator {
	return &Estimator{
		Zones:        zones,
		Rates:        rates,
		FallbackFee:  dec("50.00"),
		UnitWeightKg: dec("1.0"),
	}
}

func TestResolveZoneName(t *testing.T) {
	cases := []struct {
		country string
		want    string
	}{
		{"PL", "Poland"},
		{"poland", "Poland"},
		{" Polska ", "Poland"},
		{"DE", "EU"},
		{"france", "EU"},
		{"Czech Republic", "EU"},
		{"US", "North America"},
		{"canada", "North America"},
		{"BR", "Rest of World"},
		{"Narnia", "Rest of World"},
		{"", "Rest of World"},
	}
	for _, tc := range cases {
		if got := ResolveZoneName(tc.country); got != tc.want {
			t.Errorf("ResolveZoneName(%q) = %q, want %q", tc.country, got, tc.want)
		}
	}
}

func TestEstimateCartSingleWarehouse(t *testing.T) {
	zones := &fakeZones{zones: map[string]catalog.ShippingZone{
		"EU": {ID: 2, Name: "EU", TransitDays: 0},
	}}
	rates := &fakeRates{rates: []catalog.ShippingRate{
		{ShippingZoneID: 2, WarehouseRegion: "EU", WeightMinKg: 0, WeightMaxKg: 5, Price: dec("12.50")},
	}}
	e := newEstimator(zones, rates)

	est, err := e.EstimateCart(context.Background(), []Line{
		line(10, "EU", 3, 2, "1.5"),
	}, "DE")
	if err != nil {
		t.Fatalf("EstimateCart: %v", err)
	}
	if est.Cost.String() != "12.5" {
		t.Fatalf("cost = %s, want 12.5", est.Cost)
	}
	if est.Window != (Window{MinDays: 5, MaxDays: 8}) {
		t.Fatalf("window = %+v, want 5-8", est.Window)
	}
	if len(rates.lookups) != 1 || rates.lookups[0] != 3.0 {
		t.Fatalf("rate lookups = %v, want one lookup at 3kg", rates.lookups)
	}
}

func TestEstimateCartSumsWarehouseGroups(t *testing.T) {
	zones := &fakeZones{zones: map[string]catalog.ShippingZone{
		"Poland": {ID: 1, Name: "Poland"},
	}}
	rates := &fakeRates{rates: []catalog.ShippingRate{
		{ShippingZoneID: 1, WarehouseRegion: "EU", WeightMinKg: 0, WeightMaxKg: 10, Price: dec("9.99")},
		{ShippingZoneID: 1, WarehouseRegion: "NA", WeightMinKg: 0, WeightMaxKg: 10, Price: dec("30.00")},
	}}
	e := newEstimator(zones, rates)

	est, err := e.EstimateCart(context.Background(), []Line{
		line(10, "EU", 2, 1, "1.0"),
		line(10, "EU", 4, 1, "1.0"),
		line(20, "NA", 9, 1, "1.0"),
	}, "PL")
	if err != nil {
		t.Fatalf("EstimateCart: %v", err)
	}
	if est.Cost.String() != "39.99" {
		t.Fatalf("cost = %s, want 39.99", est.Cost)
	}
	// Window tracks the slowest line across all groups.
	if est.Window != (Window{MinDays: 11, MaxDays: 14}) {
		t.Fatalf("window = %+v, want 11-14", est.Window)
	}
	if len(rates.lookups) != 2 {
		t.Fatalf("lookups = %v, want one per warehouse group", rates.lookups)
	}
}

func TestEstimateCartFallbackFee(t *testing.T) {
	zones := &fakeZones{zones: map[string]catalog.ShippingZone{
		"Rest of World": {ID: 4, Name: "Rest of World", TransitDays: 7},
	}}
	rates := &fakeRates{rates: []catalog.ShippingRate{
		{ShippingZoneID: 4, WarehouseRegion: "EU", WeightMinKg: 0, WeightMaxKg: 2, Price: dec("20.00")},
	}}
	e := newEstimator(zones, rates)

	// 40kg exceeds every configured band.
	est, err := e.EstimateCart(context.Background(), []Line{
		line(10, "EU", 1, 40, ""),
	}, "AU")
	if err != nil {
		t.Fatalf("EstimateCart: %v", err)
	}
	if est.Cost.String() != "50" {
		t.Fatalf("cost = %s, want fallback 50", est.Cost)
	}
	if est.Window != (Window{MinDays: 10, MaxDays: 13}) {
		t.Fatalf("window = %+v, want transit-shifted 10-13", est.Window)
	}
}

func TestEstimateCartZoneNotFound(t *testing.T) {
	e := newEstimator(&fakeZones{zones: map[string]catalog.ShippingZone{}}, &fakeRates{})

	_, err := e.EstimateCart(context.Background(), []Line{line(10, "EU", 1, 1, "")}, "DE")
	if !errors.Is(err, ErrZoneNotFound) {
		t.Fatalf("err = %v, want ErrZoneNotFound", err)
	}
}

func TestEstimateCartDefaultUnitWeight(t *testing.T) {
	zones := &fakeZones{zones: map[string]catalog.ShippingZone{
		"EU": {ID: 2, Name: "EU"},
	}}
	rates := &fakeRates{rates: []catalog.ShippingRate{
		{ShippingZoneID: 2, WarehouseRegion: "EU", WeightMinKg: 0, WeightMaxKg: 100, Price: dec("5.00")},
	}}
	e := newEstimator(zones, rates)

	if _, err := e.EstimateCart(context.Background(), []Line{
		line(10, "EU", 1, 3, ""), // no catalog weight, 3 * 1.0kg default
	}, "FR"); err != nil {
		t.Fatalf("EstimateCart: %v", err)
	}
	if len(rates.lookups) != 1 || rates.lookups[0] != 3.0 {
		t.Fatalf("lookups = %v, want 3kg from configured default", rates.lookups)
	}
}

func TestEstimateCartEmpty(t *testing.T) {
	e := newEstimator(&fakeZones{}, &fakeRates{})
	if _, err := e.EstimateCart(context.Background(), nil, "PL"); !errors.Is(err, ErrNoLines) {
		t.Fatalf("err = %v, want ErrNoLines", err)
	}
}

func TestWindow(t *testing.T) {
	w := Window{MinDays: 3, MaxDays: 6}
	if got := w.String(); got != "3-6 days" {
		t.Fatalf("String() = %q", got)
	}
	if got := w.Midpoint(); got != 4 {
		t.Fatalf("Midpoint() = %d, want 4", got)
	}
	if got := w.Later(Window{MinDays: 1, MaxDays: 9}); got != (Window{MinDays: 1, MaxDays: 9}) {
		t.Fatalf("Later picked %+v", got)
	}
	if got := w.Shift(2); got != (Window{MinDays: 5, MaxDays: 8}) {
		t.Fatalf("Shift(2) = %+v", got)
	}
}
