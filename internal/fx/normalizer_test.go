package fx

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/oskarm-dev/backend-parts/internal/catalog"
)

type fakeRateSource struct {
	rates map[string]catalog.FxRate
	calls int
}

func (f *fakeRateSource) LatestRate(_ context.Context, from, to string) (catalog.FxRate, error) {
	f.calls++
	rate, ok := f.rates[from+"/"+to]
	if !ok {
		return catalog.FxRate{}, ErrRateNotFound
	}
	return rate, nil
}

func TestToBaseIdentity(t *testing.T) {
	source := &fakeRateSource{}
	n := &Normalizer{Base: "PLN", Source: source}
	amount := decimal.RequireFromString("123.456")
	got, err := n.ToBase(context.Background(), amount, "pln")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(amount) {
		t.Fatalf("identity conversion changed amount: %s", got)
	}
	if source.calls != 0 {
		t.Fatalf("identity conversion performed a lookup")
	}
}

func TestToBaseConvertsAndRoundsHalfUp(t *testing.T) {
	source := &fakeRateSource{rates: map[string]catalog.FxRate{
		"EUR/PLN": {Rate: decimal.RequireFromString("4.30"), UpdatedAt: time.Now()},
	}}
	n := &Normalizer{Base: "PLN", Source: source}

	got, err := n.ToBase(context.Background(), decimal.RequireFromString("100.00"), "EUR")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := decimal.RequireFromString("430.00"); !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}

	// 1.175 * 4.30 = 5.0525 rounds half-up to 5.05; 1.1750 -> exercise the tie.
	source.rates["USD/PLN"] = catalog.FxRate{Rate: decimal.RequireFromString("2.00")}
	got, err = n.ToBase(context.Background(), decimal.RequireFromString("1.1775"), "USD")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := decimal.RequireFromString("2.36"); !got.Equal(want) {
		t.Fatalf("expected half-up rounding to %s, got %s", want, got)
	}
}

func TestToBaseMissingPair(t *testing.T) {
	n := &Normalizer{Base: "PLN", Source: &fakeRateSource{}}
	_, err := n.ToBase(context.Background(), decimal.New(10, 0), "GBP")
	if !errors.Is(err, ErrRateNotFound) {
		t.Fatalf("expected ErrRateNotFound, got %v", err)
	}
}

func TestToBaseCaseInsensitiveCurrency(t *testing.T) {
	source := &fakeRateSource{rates: map[string]catalog.FxRate{
		"EUR/PLN": {Rate: decimal.RequireFromString("4.30")},
	}}
	n := &Normalizer{Base: "pln", Source: source}
	got, err := n.ToBase(context.Background(), decimal.New(1, 0), "eur")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := decimal.RequireFromString("4.30"); !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}
}
