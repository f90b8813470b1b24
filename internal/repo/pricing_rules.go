package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/oskarm-dev/backend-parts/internal/catalog"
)

// PricingRulesRepo loads markup rules. It implements pricing.RuleSource.
type PricingRulesRepo struct {
	Pool *pgxpool.Pool
}

// ActiveRules returns active rules whose region and price band cover the
// given cost, ordered by priority. The resolver re-checks the predicates so
// this query only has to narrow the set.
func (r PricingRulesRepo) ActiveRules(ctx context.Context, region string, cost decimal.Decimal) ([]catalog.PricingRule, error) {
	const q = `
		SELECT id, rule_name, supplier_id, brand_id, category_id,
		       price_min, price_max, warehouse_region, margin_percent,
		       COALESCE(fixed_markup, 0), COALESCE(rounding_rule, ''), priority, is_active
		FROM pricing_rules
		WHERE is_active
		  AND warehouse_region = $1
		  AND price_min <= $2
		  AND price_max > $2
		ORDER BY priority, id`
	rows, err := r.Pool.Query(ctx, q, region, cost)
	if err != nil {
		return nil, fmt.Errorf("list pricing rules for region %q: %w", region, err)
	}
	defer rows.Close()

	var rules []catalog.PricingRule
	for rows.Next() {
		var rule catalog.PricingRule
		if err := rows.Scan(
			&rule.ID, &rule.RuleName, &rule.SupplierID, &rule.BrandID, &rule.CategoryID,
			&rule.PriceMin, &rule.PriceMax, &rule.WarehouseRegion, &rule.MarginPercent,
			&rule.FixedMarkup, &rule.RoundingRule, &rule.Priority, &rule.IsActive,
		); err != nil {
			return nil, fmt.Errorf("scan pricing rule: %w", err)
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}
