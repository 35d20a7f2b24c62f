package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-diary/internal/weather"
)

// maxBodyBytes caps how much of a provider response we are willing to read.
const maxBodyBytes = 1 << 20

var errNoHTTPClient = errors.New("http client not configured")

// StatusError is returned (wrapped in weather.ErrUnavailable) when the provider
// answers with anything other than 200. Body holds the provider's error payload.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d: %s", e.StatusCode, e.Body)
}

func newCircuitBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	})
}

// doRequest performs exactly one attempt of req through the circuit breaker and
// returns the response body. Every failure is reported as weather.ErrUnavailable.
func doRequest(
	ctx context.Context,
	client *http.Client,
	cb *gobreaker.CircuitBreaker,
	req *http.Request,
) ([]byte, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: %w", weather.ErrUnavailable, errNoHTTPClient)
	}

	// Ensure the request obeys context cancellation.
	req = req.WithContext(ctx)

	result, err := cb.Execute(func() (interface{}, error) {
		resp, execErr := client.Do(req)
		if execErr != nil {
			return nil, execErr
		}
		defer resp.Body.Close()

		body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if readErr != nil {
			return nil, fmt.Errorf("read response body: %w", readErr)
		}

		// A non-200 body is still read: it is the provider's error payload.
		if resp.StatusCode != http.StatusOK {
			return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
		}
		return body, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: circuit breaker open: %v", weather.ErrUnavailable, err)
		}
		return nil, fmt.Errorf("%w: %w", weather.ErrUnavailable, err)
	}

	body, ok := result.([]byte)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected result type from circuit breaker", weather.ErrUnavailable)
	}
	return body, nil
}
