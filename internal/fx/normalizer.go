// Package fx normalizes supplier prices into the base currency.
package fx

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/oskarm-dev/backend-parts/internal/catalog"
)

// ErrRateNotFound is returned when no exchange rate exists for a currency pair.
// Callers must treat the affected offer as unusable rather than abort the quote.
var ErrRateNotFound = errors.New("fx rate not found")

// RateSource resolves the most recently updated rate for a currency pair.
type RateSource interface {
	LatestRate(ctx context.Context, from, to string) (catalog.FxRate, error)
}

// Normalizer converts monetary amounts into the base currency.
type Normalizer struct {
	Base   string
	Source RateSource
}

// ToBase converts amount from the given currency into the base currency.
// Identity conversions skip the lookup entirely. The result is rounded
// half-up to minor units exactly once, at the point of conversion.
func (n *Normalizer) ToBase(ctx context.Context, amount decimal.Decimal, currency string) (decimal.Decimal, error) {
	if n == nil || n.Source == nil {
		return decimal.Zero, errors.New("fx normalizer not configured")
	}
	from := strings.ToUpper(strings.TrimSpace(currency))
	base := strings.ToUpper(strings.TrimSpace(n.Base))
	if from == "" || from == base {
		return amount, nil
	}
	rate, err := n.Source.LatestRate(ctx, from, base)
	if err != nil {
		if errors.Is(err, ErrRateNotFound) {
			return decimal.Zero, fmt.Errorf("%s->%s: %w", from, base, ErrRateNotFound)
		}
		return decimal.Zero, fmt.Errorf("lookup fx rate %s->%s: %w", from, base, err)
	}
	// decimal rounds half away from zero, which is half-up for prices.
	return amount.Mul(rate.Rate).Round(2), nil
}
