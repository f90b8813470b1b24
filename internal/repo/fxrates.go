package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oskarm-dev/backend-parts/internal/catalog"
	"github.com/oskarm-dev/backend-parts/internal/fx"
)

// FxRatesRepo reads and writes exchange rate observations. It implements
// fx.RateSource and fx.RateStore.
type FxRatesRepo struct {
	Pool *pgxpool.Pool
}

// LatestRate returns the most recently updated rate for the pair, or
// fx.ErrRateNotFound when the pair has never been observed.
func (r FxRatesRepo) LatestRate(ctx context.Context, from, to string) (catalog.FxRate, error) {
	const q = `
		SELECT id, from_currency, to_currency, rate, updated_at
		FROM fx_rates
		WHERE from_currency = $1 AND to_currency = $2
		ORDER BY updated_at DESC
		LIMIT 1`
	var rate catalog.FxRate
	err := r.Pool.QueryRow(ctx, q, from, to).Scan(
		&rate.ID, &rate.FromCurrency, &rate.ToCurrency, &rate.Rate, &rate.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return catalog.FxRate{}, fx.ErrRateNotFound
		}
		return catalog.FxRate{}, fmt.Errorf("latest rate %s->%s: %w", from, to, err)
	}
	return rate, nil
}

// NewestRateAge returns how old the most recent observation is across all
// pairs. Used by the readiness probe to report staleness.
func (r FxRatesRepo) NewestRateAge(ctx context.Context) (time.Duration, error) {
	const q = `SELECT MAX(updated_at) FROM fx_rates`
	var newest *time.Time
	if err := r.Pool.QueryRow(ctx, q).Scan(&newest); err != nil {
		return 0, fmt.Errorf("newest rate age: %w", err)
	}
	if newest == nil {
		return 0, errors.New("no rates stored")
	}
	return time.Since(*newest), nil
}

// UpsertRate appends a new observation for the pair. History is kept so
// LatestRate stays a point-in-time read.
func (r FxRatesRepo) UpsertRate(ctx context.Context, rate catalog.FxRate) error {
	const q = `
		INSERT INTO fx_rates (from_currency, to_currency, rate, updated_at)
		VALUES ($1, $2, $3, $4)`
	_, err := r.Pool.Exec(ctx, q, rate.FromCurrency, rate.ToCurrency, rate.Rate, rate.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			return fmt.Errorf("insert rate %s->%s: %s (%s)", rate.FromCurrency, rate.ToCurrency, pgErr.Message, pgErr.Code)
		}
		return fmt.Errorf("insert rate %s->%s: %w", rate.FromCurrency, rate.ToCurrency, err)
	}
	return nil
}
