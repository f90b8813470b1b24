// Package catalog defines the read-only reference records the quotation
// engine consumes. The engine never mutates these; they are snapshots of
// whatever the administrative CRUD layer manages.
package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// Part is a sellable automotive part.
type Part struct {
	ID                   int64
	BrandID              int64
	CategoryID           int64
	SubcategoryID        int64
	PartNumber           string
	NormalizedPartNumber string
	Name                 string
	Description          string
	// WeightKg is the physical unit weight. Nil means the catalog has not
	// been backfilled yet and the configured default applies.
	WeightKg *decimal.Decimal
}

// SupplierOffer is one supplier's priced, located availability of a part.
type SupplierOffer struct {
	ID           int64
	PartID       int64
	SupplierID   int64
	WarehouseID  int64
	SupplierSKU  string
	BasePrice    decimal.Decimal
	Currency     string
	AvailableQty int
	StockStatus  string
	// LeadTimeDays overrides the warehouse default when set.
	LeadTimeDays *int
	MinOrderQty  *int
	PackSize     *int
	UpdatedAt    time.Time
}

// Warehouse is a supplier fulfilment location.
type Warehouse struct {
	ID                  int64
	SupplierID          int64
	Name                string
	Country             string
	Region              string
	ShippingZoneID      int64
	DefaultLeadTimeDays int
}

// FxRate is one observation of a currency pair. The store keeps history;
// consumers must select the most recently updated row per pair.
type FxRate struct {
	ID           int64
	FromCurrency string
	ToCurrency   string
	Rate         decimal.Decimal
	UpdatedAt    time.Time
}

// PricingRule is a conditional markup policy. Nil supplier/brand/category
// filters are wildcards that match anything.
type PricingRule struct {
	ID              int64
	RuleName        string
	SupplierID      *int64
	BrandID         *int64
	CategoryID      *int64
	PriceMin        decimal.Decimal
	PriceMax        decimal.Decimal
	WarehouseRegion string
	MarginPercent   decimal.Decimal
	FixedMarkup     decimal.Decimal
	RoundingRule    string
	Priority        int
	IsActive        bool
}

// ShippingZone is a named destination grouping. TransitDays is an additive
// carrier in-transit allowance for the zone; zero until populated.
type ShippingZone struct {
	ID          int64
	Name        string
	TransitDays int
}

// ShippingRate prices a weight band for a zone and origin region.
type ShippingRate struct {
	ID              int64
	ShippingZoneID  int64
	WarehouseRegion string
	WeightMinKg     float64
	WeightMaxKg     float64
	Price           decimal.Decimal
	Carrier         string
	ServiceLevel    string
}

// Brand is a part manufacturer.
type Brand struct {
	ID   int64
	Name string
}

// Category groups parts.
type Category struct {
	ID   int64
	Name string
}

// Subcategory refines a category.
type Subcategory struct {
	ID       int64
	ParentID int64
	Name     string
}

// Supplier is a sourcing partner.
type Supplier struct {
	ID   int64
	Name string
}
