package resilience_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/oskarm-dev/backend-parts/internal/resilience"
)

func TestBreakerTransitions(t *testing.T) {
	breaker := resilience.NewBreaker("test", 2, 0.5, 50*time.Millisecond, zerolog.Nop())

	require.True(t, breaker.Allow())
	breaker.Report(false)
	require.True(t, breaker.Allow())
	breaker.Report(false)

	require.False(t, breaker.Allow(), "breaker should open after threshold exceeded")

	time.Sleep(60 * time.Millisecond)
	require.True(t, breaker.Allow(), "breaker should move to half-open after cool off")
	breaker.Report(true)
	require.True(t, breaker.Allow(), "breaker should close after successful probe")
}

func TestBreakerReopensOnFailedProbe(t *testing.T) {
	breaker := resilience.NewBreaker("test", 1, 0.5, 30*time.Millisecond, zerolog.Nop())

	breaker.Report(false)
	require.False(t, breaker.Allow())

	time.Sleep(40 * time.Millisecond)
	require.True(t, breaker.Allow())
	breaker.Report(false)
	require.False(t, breaker.Allow(), "failed probe should reopen the breaker")
}

func TestBackoffWithJitter(t *testing.T) {
	base := 100 * time.Millisecond
	require.Equal(t, base, resilience.Backoff(base, 1, 0))
	require.Equal(t, base*4, resilience.Backoff(base, 3, 0))

	d := resilience.Backoff(base, 2, 0.2)
	require.GreaterOrEqual(t, d, base*2-base*2/5)
	require.LessOrEqual(t, d, base*2+base*2/5)
}

func TestHTTPClientRetriesUntilSuccess(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cl := resilience.HTTPClient{
		Client:      srv.Client(),
		MaxAttempts: 3,
		BaseBackoff: time.Millisecond,
	}
	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)

	resp, err := cl.Do(context.Background(), req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.EqualValues(t, 3, calls.Load())
}

func TestHTTPClientStreamsDelayedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.(http.Flusher).Flush()
		time.Sleep(100 * time.Millisecond)
		w.Write([]byte(`{"base":"PLN"}`))
	}))
	defer srv.Close()

	cl := resilience.HTTPClient{
		Client:  srv.Client(),
		Timeout: 5 * time.Second,
	}
	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)

	resp, err := cl.Do(context.Background(), req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "body must stay readable after Do returns")
	require.Equal(t, `{"base":"PLN"}`, string(body))
}

func TestHTTPClientStopsWhenBreakerOpen(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cl := resilience.HTTPClient{
		Client:      srv.Client(),
		Breaker:     resilience.NewBreaker("test", 1, 0.5, time.Minute, zerolog.Nop()),
		MaxAttempts: 5,
		BaseBackoff: time.Millisecond,
	}
	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)

	_, err = cl.Do(context.Background(), req)
	require.Error(t, err)
}
