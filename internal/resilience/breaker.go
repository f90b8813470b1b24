// Package resilience guards outbound calls to flaky dependencies with a
// failure-ratio circuit breaker and retrying HTTP client.
package resilience

import (
	"errors"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/oskarm-dev/backend-parts/internal/obs"
)

// ErrOpenCircuit is returned when the breaker refuses a request.
var ErrOpenCircuit = errors.New("resilience: circuit breaker open")

// State represents the current breaker state.
type State int

const (
	// Closed accepts all requests and tracks failures.
	Closed State = iota
	// Open rejects requests until the cool-off period expires.
	Open
	// HalfOpen permits a single probe to test recovery.
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// Breaker is a failure-ratio circuit breaker for a single downstream target.
type Breaker struct {
	mu           sync.Mutex
	target       string
	state        State
	failures     int
	successes    int
	minRequests  int
	failureRatio float64
	openedAt     time.Time
	openFor      time.Duration
	logger       zerolog.Logger
}

// NewBreaker constructs a breaker that opens once the rolling failure ratio
// reaches the threshold after at least minRequests observations.
func NewBreaker(target string, minRequests int, failureRatio float64, openFor time.Duration, logger zerolog.Logger) *Breaker {
	if minRequests <= 0 {
		minRequests = 1
	}
	if failureRatio <= 0 || failureRatio > 1 {
		failureRatio = 0.5
	}
	if openFor <= 0 {
		openFor = 30 * time.Second
	}
	return &Breaker{
		target:       target,
		state:        Closed,
		minRequests:  minRequests,
		failureRatio: failureRatio,
		openFor:      openFor,
		logger:       logger,
	}
}

// Allow reports whether a request may proceed. An open breaker permits one
// probe after the cool-off period and moves to half-open.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == Open {
		if time.Since(b.openedAt) < b.openFor {
			return false
		}
		b.transitionLocked(HalfOpen)
	}
	return true
}

// Report records the outcome of a permitted request.
func (b *Breaker) Report(ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Open:
		return
	case HalfOpen:
		if ok {
			b.transitionLocked(Closed)
		} else {
			b.transitionLocked(Open)
		}
		return
	}

	if ok {
		b.successes++
	} else {
		b.failures++
	}
	total := b.failures + b.successes
	if total < b.minRequests {
		return
	}
	if float64(b.failures)/float64(total) >= b.failureRatio {
		b.transitionLocked(Open)
		return
	}
	if total > b.minRequests*2 {
		// Halve the window so old outcomes age out.
		b.successes = int(math.Ceil(float64(b.successes) / 2))
		b.failures = int(math.Ceil(float64(b.failures) / 2))
	}
}

func (b *Breaker) transitionLocked(next State) {
	prev := b.state
	if prev == next {
		return
	}
	b.state = next
	b.failures = 0
	b.successes = 0
	if next == Open {
		b.openedAt = time.Now()
	} else {
		b.openedAt = time.Time{}
	}
	if obs.BreakerState != nil {
		obs.BreakerState.WithLabelValues(b.target).Set(float64(next))
	}
	if next == Open && obs.BreakerOpenedTotal != nil {
		obs.BreakerOpenedTotal.WithLabelValues(b.target).Inc()
	}
	b.logger.Info().
		Str("target", b.target).
		Str("from_state", prev.String()).
		Str("to_state", next.String()).
		Msg("breaker transition")
}

// Backoff returns an exponential backoff duration for the given attempt.
// Jitter is a fraction of the computed delay, e.g. 0.2 for +/-20%.
func Backoff(base time.Duration, attempt int, jitter float64) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if base <= 0 {
		base = 100 * time.Millisecond
	}
	d := base * time.Duration(1<<uint(attempt-1))
	if jitter <= 0 {
		return d
	}
	delta := (rand.Float64()*2 - 1) * jitter * float64(d)
	return d + time.Duration(delta)
}
