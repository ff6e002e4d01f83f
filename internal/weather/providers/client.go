// Package providers implements the per-source fetch adapters. Each adapter
// translates one upstream API's payload shape into strict weather.Records at
// the boundary, so the core never sees loosely-typed provider data, and
// wraps every request in retry-with-backoff plus a circuit breaker.
package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

var (
	errRateLimited = errors.New("rate limited")
	errServerError = errors.New("server error")
	errUnexpected  = errors.New("unexpected status code")
	errCircuitOpen = errors.New("circuit breaker open")
)

// apiClient is the shared request machinery for one upstream source: an
// HTTP client, a per-source circuit breaker, and exponential-backoff retry.
type apiClient struct {
	client  *http.Client
	circuit *gobreaker.CircuitBreaker

	maxRetries      int
	initialInterval time.Duration
	maxInterval     time.Duration
}

func newAPIClient(client *http.Client, sourceName string) *apiClient {
	return &apiClient{
		client: client,
		circuit: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        sourceName,
			MaxRequests: 5,
			Interval:    1 * time.Minute,
			Timeout:     2 * time.Minute,
		}),
		maxRetries:      3,
		initialInterval: 500 * time.Millisecond,
		maxInterval:     5 * time.Second,
	}
}

// getJSON fetches url and decodes the response body into out, retrying
// transient failures with exponential backoff. Circuit-open errors
// propagate immediately so the adapter stops hammering a dead upstream.
func (c *apiClient) getJSON(ctx context.Context, url string, out any) error {
	if c.client == nil {
		return errors.New("http client not configured")
	}

	var attempt int
	var lastErr error

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}

		result, err := c.circuit.Execute(func() (interface{}, error) {
			resp, execErr := c.client.Do(req)
			if execErr != nil {
				return nil, execErr
			}

			if resp.StatusCode == http.StatusTooManyRequests {
				resp.Body.Close()
				return nil, errRateLimited
			}
			if resp.StatusCode >= 500 {
				resp.Body.Close()
				return nil, errServerError
			}
			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				resp.Body.Close()
				return nil, fmt.Errorf("%w: %d", errUnexpected, resp.StatusCode)
			}
			return resp, nil
		})

		if err == nil {
			resp := result.(*http.Response)
			decodeErr := json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			return decodeErr
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("%w: %v", errCircuitOpen, err)
		}

		lastErr = err
		if attempt >= c.maxRetries {
			return lastErr
		}

		delay := c.initialInterval * time.Duration(math.Pow(2, float64(attempt)))
		if c.maxInterval > 0 && delay > c.maxInterval {
			delay = c.maxInterval
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		attempt++
	}
}

// kphToMS converts km/h wind speeds to m/s; all records use m/s.
func kphToMS(kph float64) float64 {
	return kph / 3.6
}
