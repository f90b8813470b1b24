package resilience

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"
)

// HTTPClient executes HTTP requests with retries, per-attempt timeouts and an
// optional circuit breaker. The zero value is not usable; Client must be set.
type HTTPClient struct {
	Client      *http.Client
	Breaker     *Breaker
	MaxAttempts int
	BaseBackoff time.Duration
	Jitter      float64
	Timeout     time.Duration
}

// Do sends the request, retrying on transport errors and 5xx responses.
// Requests with a body must set GetBody so attempts can be replayed; GET
// requests need no special handling.
func (cl HTTPClient) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if cl.Client == nil {
		return nil, errors.New("resilience: http client not configured")
	}
	maxAttempts := cl.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if cl.Breaker != nil && !cl.Breaker.Allow() {
			if lastErr == nil {
				lastErr = ErrOpenCircuit
			}
			break
		}
		attemptReq, err := replayableClone(ctx, req)
		if err != nil {
			return nil, err
		}
		resp, err := cl.doOnce(ctx, attemptReq)
		if err == nil && resp.StatusCode < http.StatusInternalServerError {
			cl.report(true)
			return resp, nil
		}
		if err == nil {
			lastErr = errors.New(resp.Status)
			resp.Body.Close()
		} else {
			lastErr = err
		}
		cl.report(false)
		if attempt == maxAttempts {
			break
		}
		timer := time.NewTimer(Backoff(cl.BaseBackoff, attempt, cl.Jitter))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return nil, lastErr
}

func (cl HTTPClient) report(ok bool) {
	if cl.Breaker != nil {
		cl.Breaker.Report(ok)
	}
}

func (cl HTTPClient) doOnce(ctx context.Context, req *http.Request) (*http.Response, error) {
	if cl.Timeout <= 0 {
		// Client.Timeout already covers the full exchange including the body.
		return cl.Client.Do(req)
	}
	callCtx, cancel := context.WithTimeout(ctx, cl.Timeout)
	resp, err := cl.Client.Do(req.WithContext(callCtx))
	if err != nil {
		cancel()
		return nil, err
	}
	// The attempt context must stay live until the caller finishes reading
	// the body, so cancellation is tied to Close.
	resp.Body = cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}

func replayableClone(ctx context.Context, req *http.Request) (*http.Request, error) {
	clone := req.Clone(ctx)
	if req.Body == nil || req.Body == http.NoBody {
		return clone, nil
	}
	if req.GetBody == nil {
		return nil, errors.New("resilience: request body is not replayable")
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, err
	}
	clone.Body = body
	return clone, nil
}
