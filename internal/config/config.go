package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"github.com/shopspring/decimal"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	CORSAllowedOrigins []string

	// BaseCurrency is the currency every quote is expressed in.
	BaseCurrency string
	// DefaultMarginPercent is the markup applied when no pricing rule matches.
	DefaultMarginPercent decimal.Decimal
	// ShippingFallbackFee is charged when no rate covers a shipment's weight band.
	ShippingFallbackFee decimal.Decimal
	// UnitWeightKg is assumed for parts with no catalogued weight.
	UnitWeightKg decimal.Decimal

	LookupTimeout   time.Duration
	QuoteCacheTTL   time.Duration
	RateLimitWindow time.Duration
	RateLimitMax    int

	FxRefreshInterval time.Duration
	FxProviderURL     string

	MigrationsPath string
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:               valueOrDefault(k.String("APP_ENV"), "development"),
		Port:                 valueOrDefault(k.String("PORT"), "8080"),
		DatabaseURL:          k.String("DATABASE_URL"),
		RedisURL:             k.String("REDIS_URL"),
		CORSAllowedOrigins:   splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		BaseCurrency:         strings.ToUpper(valueOrDefault(k.String("BASE_CURRENCY"), "PLN")),
		DefaultMarginPercent: parseDecimal(k.String("PRICING_DEFAULT_MARGIN_PERCENT"), "25"),
		ShippingFallbackFee:  parseDecimal(k.String("SHIPPING_FALLBACK_FEE"), "50.00"),
		UnitWeightKg:         parseDecimal(k.String("SHIPPING_UNIT_WEIGHT_KG"), "1.0"),
		LookupTimeout:        parseDuration(k.String("LOOKUP_TIMEOUT"), "2s"),
		QuoteCacheTTL:        parseDuration(k.String("QUOTE_CACHE_TTL"), "30s"),
		RateLimitWindow:      parseDuration(k.String("RATE_LIMIT_WINDOW"), "1m"),
		RateLimitMax:         parseInt(k.String("RATE_LIMIT_MAX"), 120),
		FxRefreshInterval:    parseDuration(k.String("FX_REFRESH_INTERVAL"), "1h"),
		FxProviderURL:        k.String("FX_PROVIDER_URL"),
		MigrationsPath:       valueOrDefault(k.String("MIGRATIONS_PATH"), "db/migrations"),
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if len(cfg.BaseCurrency) != 3 {
		return nil, fmt.Errorf("BASE_CURRENCY must be a 3-letter code, got %q", cfg.BaseCurrency)
	}
	if cfg.DefaultMarginPercent.IsNegative() {
		return nil, errors.New("PRICING_DEFAULT_MARGIN_PERCENT must not be negative")
	}
	if cfg.ShippingFallbackFee.IsNegative() {
		return nil, errors.New("SHIPPING_FALLBACK_FEE must not be negative")
	}
	if cfg.UnitWeightKg.Sign() <= 0 {
		return nil, errors.New("SHIPPING_UNIT_WEIGHT_KG must be positive")
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseInt(value string, fallback int) int {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(trimmed)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseDecimal(value, fallback string) decimal.Decimal {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := decimal.NewFromString(base)
	if err != nil {
		d, _ = decimal.NewFromString(fallback)
	}
	return d
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
