package client

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/keboola/go-request-sender/pkg/client/trace"
)

// Defaults of the DefaultRetry config.
const (
	RetriesCount       = 5
	RequestTimeout     = 30 * time.Second
	RetryWaitTimeStart = 100 * time.Millisecond
	RetryWaitTimeMax   = 3 * time.Second
)

type retryAttemptCtxKey struct{}

// RetryConfig of the Client.
// Delays grow exponentially from WaitTimeStart to WaitTimeMax,
// a Retry-After response header can extend the delay.
type RetryConfig struct {
	// Condition decides whether the attempt is repeated, nil disables retries.
	Condition RetryCondition
	// Count is the maximum number of repeated attempts.
	Count int
	// TotalRequestTimeout limits all attempts together, including delays.
	TotalRequestTimeout time.Duration
	WaitTimeStart       time.Duration
	WaitTimeMax         time.Duration
}

// RetryCondition returns true if the attempt should be repeated, the response may be nil on a network error.
type RetryCondition func(*http.Response, error) bool

// TestingRetry is the DefaultRetry with 1ms delays, so tests don't sleep.
func TestingRetry() RetryConfig {
	v := DefaultRetry()
	v.WaitTimeStart = 1 * time.Millisecond
	v.WaitTimeMax = 1 * time.Millisecond
	return v
}

// DefaultRetry is used by New.
func DefaultRetry() RetryConfig {
	return RetryConfig{
		TotalRequestTimeout: RequestTimeout,
		Count:               RetriesCount,
		WaitTimeStart:       RetryWaitTimeStart,
		WaitTimeMax:         RetryWaitTimeMax,
		Condition:           DefaultRetryCondition(),
	}
}

// DefaultRetryCondition repeats network errors, except an unknown host,
// and temporary HTTP statuses: 408, 409, 423, 429, 500, 502, 503 and 504.
func DefaultRetryCondition() RetryCondition {
	return func(response *http.Response, err error) bool {
		// No response
		if response == nil || response.StatusCode == 0 {
			switch {
			case err == nil:
				return false
			case strings.Contains(err.Error(), "No address associated with hostname"):
				return false
			case strings.Contains(err.Error(), "no such host"):
				return false
			default:
				return true
			}
		}

		// Status code
		switch response.StatusCode {
		case
			http.StatusRequestTimeout,
			http.StatusConflict,
			http.StatusLocked,
			http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		default:
			return false
		}
	}
}

// NewBackoff creates delays of the config, without jitter.
func (c RetryConfig) NewBackoff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.WaitTimeStart
	b.MaxInterval = c.WaitTimeMax
	b.MaxElapsedTime = c.TotalRequestTimeout
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.Reset()
	return b
}

// ContextRetryAttempt returns the retry attempt number from the HTTP request context, 0 for the first attempt.
func ContextRetryAttempt(ctx context.Context) (int, bool) {
	attempt, ok := ctx.Value(retryAttemptCtxKey{}).(int)
	return attempt, ok
}

// retryAfter returns the delay from the Retry-After header, in seconds, if any.
func retryAfter(res *http.Response) (time.Duration, bool) {
	if res == nil {
		return 0, false
	}
	seconds, err := strconv.Atoi(strings.TrimSpace(res.Header.Get("Retry-After")))
	if err != nil || seconds < 0 {
		return 0, false
	}
	return time.Duration(seconds) * time.Second, true
}

// roundTripper repeats attempts of the wrapped transport and reports them to the trace.
type roundTripper struct {
	trace   *trace.ClientTrace
	retry   RetryConfig
	wrapped http.RoundTripper
}

func (rt roundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	delays := rt.retry.NewBackoff()
	original := req
	for attempt := 1; ; attempt++ {
		res, err := rt.send(req)

		delay, retry := rt.nextDelay(delays, attempt, res, err)
		if !retry {
			return res, err
		}

		// The response is dropped
		if res != nil && res.Body != nil {
			_ = res.Body.Close()
		}

		if rt.trace != nil && rt.trace.HTTPRequestRetry != nil {
			rt.trace.HTTPRequestRetry(attempt, delay)
		}

		if req, err = retryRequest(original, attempt); err != nil {
			return nil, err
		}

		select {
		case <-req.Context().Done():
			return nil, req.Context().Err()
		case <-time.After(delay):
		}
	}
}

func (rt roundTripper) send(req *http.Request) (*http.Response, error) {
	if rt.trace != nil && rt.trace.HTTPRequestStart != nil {
		rt.trace.HTTPRequestStart(req)
	}
	res, err := rt.wrapped.RoundTrip(req)
	if rt.trace != nil && rt.trace.HTTPRequestDone != nil {
		rt.trace.HTTPRequestDone(res, err)
	}
	return res, err
}

// nextDelay returns false if the attempt should not be repeated.
func (rt roundTripper) nextDelay(delays backoff.BackOff, attempt int, res *http.Response, err error) (time.Duration, bool) {
	if rt.retry.Condition == nil || attempt > rt.retry.Count || !rt.retry.Condition(res, err) {
		return 0, false
	}
	delay := delays.NextBackOff()
	if delay == backoff.Stop {
		return 0, false
	}
	// Retry-After can extend the delay up to WaitTimeMax, or the current delay if it is already longer
	if v, ok := retryAfter(res); ok && v > delay {
		delay = min(v, max(rt.retry.WaitTimeMax, delay))
	}
	return delay, true
}

// retryRequest clones the original request with the attempt number in the context and a fresh body.
func retryRequest(original *http.Request, attempt int) (*http.Request, error) {
	req := original.WithContext(context.WithValue(original.Context(), retryAttemptCtxKey{}, attempt))
	if original.GetBody != nil {
		body, err := original.GetBody()
		if err != nil {
			return nil, fmt.Errorf("cannot rewind body: %w", err)
		}
		req.Body = body
	}
	return req, nil
}
