package fx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/oskarm-dev/backend-parts/internal/catalog"
	"github.com/oskarm-dev/backend-parts/internal/obs"
)

// TaskRefreshRates is the asynq task type for the periodic FX rate refresh.
const TaskRefreshRates = "fx:refresh_rates"

// RateProvider fetches current exchange rates against the base currency.
type RateProvider interface {
	FetchRates(ctx context.Context, base string) ([]catalog.FxRate, error)
}

// RateStore persists refreshed rates.
type RateStore interface {
	UpsertRate(ctx context.Context, rate catalog.FxRate) error
}

// NewRefreshTask builds the asynq task enqueued on the refresh schedule.
func NewRefreshTask() *asynq.Task {
	return asynq.NewTask(TaskRefreshRates, nil)
}

// Refresher pulls rates from a provider and upserts them into the store.
type Refresher struct {
	Provider RateProvider
	Store    RateStore
	Base     string
	Logger   zerolog.Logger
}

// HandleRefresh implements the asynq handler for TaskRefreshRates.
func (r *Refresher) HandleRefresh(ctx context.Context, _ *asynq.Task) error {
	if r.Provider == nil || r.Store == nil {
		return errors.New("fx refresher not configured")
	}
	rates, err := r.Provider.FetchRates(ctx, r.Base)
	if err != nil {
		if obs.FxRefreshTotal != nil {
			obs.FxRefreshTotal.WithLabelValues("fetch_error").Inc()
		}
		return fmt.Errorf("fetch fx rates: %w", err)
	}
	var stored int
	for _, rate := range rates {
		if rate.Rate.Sign() <= 0 {
			continue
		}
		if err := r.Store.UpsertRate(ctx, rate); err != nil {
			if obs.FxRefreshTotal != nil {
				obs.FxRefreshTotal.WithLabelValues("store_error").Inc()
			}
			return fmt.Errorf("upsert fx rate %s->%s: %w", rate.FromCurrency, rate.ToCurrency, err)
		}
		stored++
	}
	if obs.FxRefreshTotal != nil {
		obs.FxRefreshTotal.WithLabelValues("ok").Inc()
	}
	r.Logger.Info().Int("rates", stored).Msg("fx rates refreshed")
	return nil
}

// Doer abstracts the HTTP client used for outbound provider calls so callers
// can wrap it with retry and circuit-breaker behaviour.
type Doer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

type plainDoer struct{ c *http.Client }

func (d plainDoer) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	return d.c.Do(req.WithContext(ctx))
}

// HTTPProvider fetches rates from a JSON endpoint shaped like
// {"base":"PLN","rates":{"EUR":"4.30","USD":"3.95"}} where each value is the
// amount of base currency one unit of the keyed currency buys.
type HTTPProvider struct {
	URL  string
	HTTP Doer
	Now  func() time.Time
}

type providerPayload struct {
	Base  string            `json:"base"`
	Rates map[string]string `json:"rates"`
}

// FetchRates implements RateProvider.
func (p HTTPProvider) FetchRates(ctx context.Context, base string) ([]catalog.FxRate, error) {
	if p.URL == "" {
		return nil, errors.New("fx provider url not configured")
	}
	client := p.HTTP
	if client == nil {
		client = plainDoer{c: http.DefaultClient}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fx provider returned status %d", resp.StatusCode)
	}
	var payload providerPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode fx payload: %w", err)
	}
	now := time.Now()
	if p.Now != nil {
		now = p.Now()
	}
	rates := make([]catalog.FxRate, 0, len(payload.Rates))
	for currency, raw := range payload.Rates {
		rate, err := decimal.NewFromString(raw)
		if err != nil {
			continue
		}
		rates = append(rates, catalog.FxRate{
			FromCurrency: currency,
			ToCurrency:   base,
			Rate:         rate,
			UpdatedAt:    now,
		})
	}
	return rates, nil
}
