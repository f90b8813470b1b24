// Package pricing resolves the applicable markup rule for a supplier offer
// and computes the selling price.
package pricing

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/oskarm-dev/backend-parts/internal/catalog"
	"github.com/oskarm-dev/backend-parts/internal/offer"
)

// defaultMarginPercent is the canonical fallback markup: cost * 1.25 with
// ceiling rounding, matching the policy behind the public endpoints.
var defaultMarginPercent = decimal.NewFromInt(25)

// RuleSource returns the active rules whose price band contains cost and
// whose warehouse region matches exactly.
type RuleSource interface {
	ActiveRules(ctx context.Context, region string, cost decimal.Decimal) ([]catalog.PricingRule, error)
}

// Resolver computes a selling price from a selected offer.
type Resolver struct {
	Rules RuleSource
	// DefaultMarginPercent overrides the built-in 25% fallback when positive.
	DefaultMarginPercent decimal.Decimal
}

// Resolve returns the selling price for the candidate offer. It never fails
// for lack of a matching rule: the default markup policy guarantees every
// offer is priceable.
func (r *Resolver) Resolve(ctx context.Context, part catalog.Part, cand *offer.Candidate) (decimal.Decimal, error) {
	if r == nil || r.Rules == nil {
		return decimal.Zero, errors.New("pricing resolver not configured")
	}
	if cand == nil {
		return decimal.Zero, errors.New("pricing: nil offer candidate")
	}
	rules, err := r.Rules.ActiveRules(ctx, cand.Warehouse.Region, cand.Cost)
	if err != nil {
		return decimal.Zero, fmt.Errorf("load pricing rules: %w", err)
	}

	matched := rules[:0:0]
	for _, rule := range rules {
		if !rule.IsActive {
			continue
		}
		if !bandContains(rule, cand.Cost) {
			continue
		}
		if !matchOrWildcard(rule.SupplierID, cand.Offer.SupplierID) {
			continue
		}
		if !matchOrWildcard(rule.BrandID, part.BrandID) {
			continue
		}
		if !matchOrWildcard(rule.CategoryID, part.CategoryID) {
			continue
		}
		matched = append(matched, rule)
	}
	if len(matched) == 0 {
		return r.defaultPrice(cand.Cost), nil
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Priority < matched[j].Priority
	})
	chosen := matched[0]

	margin := chosen.MarginPercent.Div(decimal.NewFromInt(100))
	price := cand.Cost.Mul(decimal.NewFromInt(1).Add(margin)).Add(chosen.FixedMarkup)
	return ParsePolicy(chosen.RoundingRule).Apply(price), nil
}

// defaultPrice applies the fallback markup when no rule matches.
func (r *Resolver) defaultPrice(cost decimal.Decimal) decimal.Decimal {
	margin := r.DefaultMarginPercent
	if margin.Sign() <= 0 {
		margin = defaultMarginPercent
	}
	factor := decimal.NewFromInt(1).Add(margin.Div(decimal.NewFromInt(100)))
	return Ceiling.Apply(cost.Mul(factor))
}

// bandContains reports whether price_min <= cost < price_max.
func bandContains(rule catalog.PricingRule, cost decimal.Decimal) bool {
	return rule.PriceMin.LessThanOrEqual(cost) && cost.LessThan(rule.PriceMax)
}

// matchOrWildcard treats a nil filter as matching anything.
func matchOrWildcard(filter *int64, value int64) bool {
	return filter == nil || *filter == value
}
