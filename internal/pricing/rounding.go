package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Policy names how a computed selling price is rounded.
type Policy string

// Rounding policies. Ceiling is the only one the catalog stores today;
// Nearest and Floor exist so rules can adopt them without code changes.
const (
	Ceiling Policy = "ceiling"
	Nearest Policy = "nearest"
	Floor   Policy = "floor"
)

// ParsePolicy maps a stored rounding-rule label to a Policy. Unknown or
// empty labels fall back to Ceiling, the catalog's observed behavior.
func ParsePolicy(label string) Policy {
	switch Policy(strings.ToLower(strings.TrimSpace(label))) {
	case Nearest:
		return Nearest
	case Floor:
		return Floor
	default:
		return Ceiling
	}
}

// Apply rounds price to a whole currency unit according to the policy.
func (p Policy) Apply(price decimal.Decimal) decimal.Decimal {
	switch p {
	case Nearest:
		return price.Round(0)
	case Floor:
		return price.Floor()
	default:
		return price.Ceil()
	}
}
