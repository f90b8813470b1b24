package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping DB: %v", err)
	}

	seedReference(db)
	seedZonesAndRates(db)
	seedCatalog(db)
	seedOffers(db)
	seedFxRates(db)
	seedPricingRules(db)

	log.Println("Seeding completed successfully!")
}

func seedReference(db *sql.DB) {
	fmt.Println("Seeding Brands, Categories, Suppliers...")

	brands := []string{"Bosch", "Brembo", "Mann-Filter", "Sachs", "NGK"}
	for _, name := range brands {
		mustExec(db, `INSERT INTO brands (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, name)
	}

	categories := []string{"Brakes", "Filters", "Ignition", "Suspension"}
	for _, name := range categories {
		mustExec(db, `INSERT INTO categories (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, name)
	}

	subcategories := []struct {
		Category string
		Name     string
	}{
		{"Brakes", "Brake Pads"},
		{"Brakes", "Brake Discs"},
		{"Filters", "Oil Filters"},
		{"Filters", "Air Filters"},
		{"Ignition", "Spark Plugs"},
		{"Suspension", "Shock Absorbers"},
	}
	for _, sc := range subcategories {
		mustExec(db, `
			INSERT INTO subcategories (parent_id, name)
			SELECT c.id, $2 FROM categories c WHERE c.name = $1
			ON CONFLICT DO NOTHING`, sc.Category, sc.Name)
	}

	suppliers := []string{"AutoParts Polska", "EuroTeile GmbH", "US Motor Supply"}
	for _, name := range suppliers {
		mustExec(db, `INSERT INTO suppliers (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, name)
	}
}

func seedZonesAndRates(db *sql.DB) {
	fmt.Println("Seeding Shipping Zones, Warehouses and Rates...")

	zones := []struct {
		Name        string
		TransitDays int
	}{
		{"Poland", 0},
		{"EU", 1},
		{"North America", 4},
		{"Rest of World", 7},
	}
	for _, z := range zones {
		mustExec(db, `
			INSERT INTO shipping_zones (name, transit_days) VALUES ($1, $2)
			ON CONFLICT (name) DO UPDATE SET transit_days = EXCLUDED.transit_days`, z.Name, z.TransitDays)
	}

	warehouses := []struct {
		Supplier string
		Name     string
		Country  string
		Region   string
		Zone     string
		LeadDays int
	}{
		{"AutoParts Polska", "Warsaw Central", "PL", "EU", "Poland", 1},
		{"EuroTeile GmbH", "Berlin Hub", "DE", "EU", "EU", 2},
		{"US Motor Supply", "Newark DC", "US", "NA", "North America", 7},
	}
	for _, w := range warehouses {
		mustExec(db, `
			INSERT INTO warehouses (supplier_id, name, country, region, shipping_zone_id, default_lead_time_days)
			SELECT s.id, $2, $3, $4, z.id, $6
			FROM suppliers s, shipping_zones z
			WHERE s.name = $1 AND z.name = $5`,
			w.Supplier, w.Name, w.Country, w.Region, w.Zone, w.LeadDays)
	}

	rates := []struct {
		Zone   string
		Region string
		MinKg  float64
		MaxKg  float64
		Price  string
	}{
		{"Poland", "EU", 0, 5, "12.99"},
		{"Poland", "EU", 5, 30, "24.99"},
		{"EU", "EU", 0, 5, "19.99"},
		{"EU", "EU", 5, 30, "39.99"},
		{"North America", "EU", 0, 5, "59.99"},
		{"North America", "NA", 0, 30, "29.99"},
		{"Rest of World", "EU", 0, 5, "89.99"},
	}
	for _, rt := range rates {
		mustExec(db, `
			INSERT INTO shipping_rates (shipping_zone_id, warehouse_region, weight_min_kg, weight_max_kg, price, carrier, service_level)
			SELECT z.id, $2, $3, $4, $5, 'DPD', 'standard'
			FROM shipping_zones z WHERE z.name = $1`,
			rt.Zone, rt.Region, rt.MinKg, rt.MaxKg, rt.Price)
	}
}

func seedCatalog(db *sql.DB) {
	fmt.Println("Seeding Parts...")

	parts := []struct {
		Brand       string
		Category    string
		Subcategory string
		PartNumber  string
		Name        string
		WeightKg    string
	}{
		{"Brembo", "Brakes", "Brake Pads", "P85020", "Front brake pad set", "2.100"},
		{"Brembo", "Brakes", "Brake Discs", "09.9772.11", "Ventilated brake disc", "7.800"},
		{"Mann-Filter", "Filters", "Oil Filters", "W712/75", "Spin-on oil filter", "0.450"},
		{"Mann-Filter", "Filters", "Air Filters", "C27192/1", "Panel air filter", "0.350"},
		{"NGK", "Ignition", "Spark Plugs", "BKR6EK", "Nickel spark plug", "0.060"},
		{"Sachs", "Suspension", "Shock Absorbers", "312529", "Gas shock absorber", "3.200"},
		{"Bosch", "Brakes", "Brake Pads", "0986494104", "Rear brake pad set", "1.700"},
	}
	for _, p := range parts {
		mustExec(db, `
			INSERT INTO parts (brand_id, category_id, subcategory_id, part_number, normalized_part_number, name, weight_kg)
			SELECT b.id, c.id, sc.id, $4, regexp_replace(upper($4), '[^A-Z0-9]', '', 'g'), $5, $6
			FROM brands b, categories c
			JOIN subcategories sc ON sc.parent_id = c.id AND sc.name = $3
			WHERE b.name = $1 AND c.name = $2
			ON CONFLICT (brand_id, part_number) DO NOTHING`,
			p.Brand, p.Category, p.Subcategory, p.PartNumber, p.Name, p.WeightKg)
	}
}

func seedOffers(db *sql.DB) {
	fmt.Println("Seeding Supplier Offers...")

	offers := []struct {
		Brand      string
		PartNumber string
		Supplier   string
		Warehouse  string
		Price      string
		Currency   string
		Qty        int
		Status     string
		LeadDays   *int
	}{
		{"Brembo", "P85020", "AutoParts Polska", "Warsaw Central", "189.00", "PLN", 24, "IN_STOCK", nil},
		{"Brembo", "P85020", "EuroTeile GmbH", "Berlin Hub", "41.50", "EUR", 10, "IN_STOCK", intPtr(3)},
		{"Brembo", "09.9772.11", "EuroTeile GmbH", "Berlin Hub", "74.90", "EUR", 6, "LOW_STOCK", nil},
		{"Mann-Filter", "W712/75", "AutoParts Polska", "Warsaw Central", "32.00", "PLN", 120, "IN_STOCK", nil},
		{"Mann-Filter", "C27192/1", "US Motor Supply", "Newark DC", "9.80", "USD", 40, "AVAILABLE", nil},
		{"NGK", "BKR6EK", "AutoParts Polska", "Warsaw Central", "18.50", "PLN", 0, "BACKORDER", intPtr(10)},
		{"Sachs", "312529", "EuroTeile GmbH", "Berlin Hub", "88.00", "EUR", 4, "IN_STOCK", nil},
		{"Bosch", "0986494104", "US Motor Supply", "Newark DC", "35.20", "USD", 15, "IN_STOCK", nil},
	}
	for _, o := range offers {
		mustExec(db, `
			INSERT INTO supplier_offers (part_id, supplier_id, warehouse_id, base_price, currency, available_qty, stock_status, lead_time_days)
			SELECT p.id, s.id, w.id, $5, $6, $7, $8, $9
			FROM parts p
			JOIN brands b ON b.id = p.brand_id AND b.name = $1
			JOIN suppliers s ON s.name = $3
			JOIN warehouses w ON w.supplier_id = s.id AND w.name = $4
			WHERE p.part_number = $2`,
			o.Brand, o.PartNumber, o.Supplier, o.Warehouse, o.Price, o.Currency, o.Qty, o.Status, o.LeadDays)
	}
}

func seedFxRates(db *sql.DB) {
	fmt.Println("Seeding FX Rates...")

	rates := []struct {
		From string
		To   string
		Rate string
	}{
		{"EUR", "PLN", "4.3000"},
		{"USD", "PLN", "3.9500"},
		{"GBP", "PLN", "5.0500"},
	}
	for _, r := range rates {
		mustExec(db, `
			INSERT INTO fx_rates (from_currency, to_currency, rate, updated_at)
			VALUES ($1, $2, $3, now())`, r.From, r.To, r.Rate)
	}
}

func seedPricingRules(db *sql.DB) {
	fmt.Println("Seeding Pricing Rules...")

	mustExec(db, `
		INSERT INTO pricing_rules (rule_name, brand_id, price_min, price_max, warehouse_region, margin_percent, fixed_markup, rounding_rule, priority)
		SELECT 'Premium brake brands EU', b.id, 100, 1000, 'EU', 10, 10, 'ceiling', 10
		FROM brands b WHERE b.name = 'Brembo'`)
	mustExec(db, `
		INSERT INTO pricing_rules (rule_name, price_min, price_max, warehouse_region, margin_percent, fixed_markup, rounding_rule, priority)
		VALUES ('Cheap parts EU', 0, 100, 'EU', 35, 0, 'nearest', 50)`)
	mustExec(db, `
		INSERT INTO pricing_rules (rule_name, price_min, price_max, warehouse_region, margin_percent, fixed_markup, rounding_rule, priority)
		VALUES ('NA imports', 0, 10000, 'NA', 30, 5, 'ceiling', 50)`)
}

func intPtr(v int) *int { return &v }

func mustExec(db *sql.DB, query string, args ...any) {
	if _, err := db.Exec(query, args...); err != nil {
		log.Fatalf("Seed query failed: %v\nquery: %s", err, query)
	}
}
