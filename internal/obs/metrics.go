package obs

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics groups Prometheus collectors for HTTP observability.
type HTTPMetrics struct {
	ReqTotal *prometheus.CounterVec
	ReqDur   *prometheus.HistogramVec
	InFlight prometheus.Gauge
}

// NewHTTPMetrics registers and returns HTTP metrics collectors.
func NewHTTPMetrics(namespace string, buckets []float64, reg prometheus.Registerer) *HTTPMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if len(buckets) == 0 {
		buckets = []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500}
	} else {
		sort.Float64s(buckets)
	}
	m := &HTTPMetrics{
		ReqTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests handled by the server.",
		}, []string{"method", "route", "status"}),
		ReqDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_ms",
			Help:      "HTTP request latency distribution in milliseconds.",
			Buckets:   buckets,
		}, []string{"method", "route"}),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_in_flight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),
	}
	registerOrReuse(reg, m.ReqTotal, func(c prometheus.Collector) {
		if v, ok := c.(*prometheus.CounterVec); ok {
			m.ReqTotal = v
		}
	})
	registerOrReuse(reg, m.ReqDur, func(c prometheus.Collector) {
		if v, ok := c.(*prometheus.HistogramVec); ok {
			m.ReqDur = v
		}
	})
	registerOrReuse(reg, m.InFlight, func(c prometheus.Collector) {
		if v, ok := c.(prometheus.Gauge); ok {
			m.InFlight = v
		}
	})
	return m
}

// DurationMillis converts a duration to milliseconds for metric observation.
func DurationMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

var (
	quoteOnce sync.Once

	// QuotesTotal counts cart quote outcomes.
	QuotesTotal *prometheus.CounterVec
	// QuoteDuration records end-to-end quote latency in milliseconds.
	QuoteDuration prometheus.Histogram
	// OffersSkippedFx counts supplier offers dropped because no FX rate existed.
	OffersSkippedFx prometheus.Counter
	// ShippingFallbackTotal counts shipments priced with the flat fallback fee.
	ShippingFallbackTotal prometheus.Counter
	// FxRefreshTotal counts FX refresh task outcomes.
	FxRefreshTotal *prometheus.CounterVec
	// BreakerState exposes the current circuit breaker state per target.
	BreakerState *prometheus.GaugeVec
	// BreakerOpenedTotal counts transitions of a breaker into the open state.
	BreakerOpenedTotal *prometheus.CounterVec
)

// MustRegisterQuoteMetrics initialises and registers quotation domain collectors.
func MustRegisterQuoteMetrics(namespace string, reg prometheus.Registerer) {
	quoteOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		QuotesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quotes_total",
			Help:      "Count of cart quote requests by outcome.",
		}, []string{"result"})
		QuoteDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "quote_duration_ms",
			Help:      "Latency of cart quote computation in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000},
		})
		OffersSkippedFx = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "offers_skipped_fx_total",
			Help:      "Supplier offers excluded from selection due to a missing FX rate.",
		})
		ShippingFallbackTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shipping_fallback_total",
			Help:      "Warehouse groups priced with the fallback shipping fee.",
		})
		FxRefreshTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fx_refresh_total",
			Help:      "Count of FX rate refresh task outcomes.",
		}, []string{"result"})
		BreakerState = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "breaker_state",
			Help:      "Circuit breaker state per target: 0=closed, 1=open, 2=half-open.",
		}, []string{"target"})
		BreakerOpenedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "breaker_opened_total",
			Help:      "Number of times a circuit breaker opened.",
		}, []string{"target"})

		registerOrReuse(reg, QuotesTotal, func(c prometheus.Collector) {
			if v, ok := c.(*prometheus.CounterVec); ok {
				QuotesTotal = v
			}
		})
		registerOrReuse(reg, QuoteDuration, func(c prometheus.Collector) {
			if v, ok := c.(prometheus.Histogram); ok {
				QuoteDuration = v
			}
		})
		registerOrReuse(reg, OffersSkippedFx, func(c prometheus.Collector) {
			if v, ok := c.(prometheus.Counter); ok {
				OffersSkippedFx = v
			}
		})
		registerOrReuse(reg, ShippingFallbackTotal, func(c prometheus.Collector) {
			if v, ok := c.(prometheus.Counter); ok {
				ShippingFallbackTotal = v
			}
		})
		registerOrReuse(reg, FxRefreshTotal, func(c prometheus.Collector) {
			if v, ok := c.(*prometheus.CounterVec); ok {
				FxRefreshTotal = v
			}
		})
		registerOrReuse(reg, BreakerState, func(c prometheus.Collector) {
			if v, ok := c.(*prometheus.GaugeVec); ok {
				BreakerState = v
			}
		})
		registerOrReuse(reg, BreakerOpenedTotal, func(c prometheus.Collector) {
			if v, ok := c.(*prometheus.CounterVec); ok {
				BreakerOpenedTotal = v
			}
		})
	})
}

func registerOrReuse(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register metric: %w", err))
	}
}
