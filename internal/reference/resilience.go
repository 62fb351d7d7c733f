package reference

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

const (
	// acceptLegend asks for the met.no JSON legend, or the CSV export.
	acceptLegend = "application/json, text/csv;q=0.9"

	// maxLegendBytes bounds a downloaded legend. The met.no legend is a few
	// tens of kilobytes.
	maxLegendBytes = 4 << 20
)

// BackoffConfig controls how failed downloads are retried.
type BackoffConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// delay is the wait before retry number attempt (0-based): InitialInterval
// doubled per attempt, capped at MaxInterval when that is set.
func (b BackoffConfig) delay(attempt int) time.Duration {
	d := b.InitialInterval
	for i := 0; i < attempt; i++ {
		d *= 2
		if b.MaxInterval > 0 && d >= b.MaxInterval {
			return b.MaxInterval
		}
	}
	if b.MaxInterval > 0 && d > b.MaxInterval {
		return b.MaxInterval
	}
	return d
}

var defaultBackoff = BackoffConfig{
	MaxRetries:      3,
	InitialInterval: 500 * time.Millisecond,
	MaxInterval:     5 * time.Second,
}

var (
	errRateLimited    = errors.New("rate limited")
	errServerError    = errors.New("server error")
	errUnexpected     = errors.New("unexpected status code")
	errCircuitOpen    = errors.New("circuit breaker open")
	errNoHTTPClient   = errors.New("http client not configured")
	errInvalidBackoff = errors.New("invalid backoff configuration")
	errLegendTooLarge = errors.New("reference legend too large")
)

// download is one fetched legend document.
type download struct {
	body        []byte
	contentType string
}

// downloader fetches legend documents, retrying rate limiting, server errors
// and transport failures with exponential backoff behind a circuit breaker.
type downloader struct {
	client  *http.Client
	backoff BackoffConfig
	circuit *gobreaker.CircuitBreaker
}

func newDownloader(client *http.Client) *downloader {
	return &downloader{
		client:  client,
		backoff: defaultBackoff,
		circuit: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "reference-legend",
			MaxRequests: 1,
			Interval:    1 * time.Minute,
			Timeout:     2 * time.Minute,
		}),
	}
}

// get downloads the legend at rawURL.
func (d *downloader) get(ctx context.Context, rawURL string) (download, error) {
	if d.client == nil {
		return download{}, errNoHTTPClient
	}
	if d.backoff.MaxRetries < 0 || d.backoff.InitialInterval <= 0 {
		return download{}, errInvalidBackoff
	}

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return download{}, err
		}

		result, err := d.circuit.Execute(func() (interface{}, error) {
			return d.attempt(ctx, rawURL)
		})
		if err == nil {
			dl, ok := result.(download)
			if !ok {
				return download{}, fmt.Errorf("unexpected result type from circuit breaker")
			}
			return dl, nil
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return download{}, fmt.Errorf("%w: %v", errCircuitOpen, err)
		}
		if !retryable(err) || attempt >= d.backoff.MaxRetries {
			return download{}, err
		}

		timer := time.NewTimer(d.backoff.delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return download{}, ctx.Err()
		case <-timer.C:
		}
	}
}

// attempt performs a single request and reads the whole body.
func (d *downloader) attempt(ctx context.Context, rawURL string) (download, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return download{}, err
	}
	req.Header.Set("Accept", acceptLegend)

	resp, err := d.client.Do(req)
	if err != nil {
		return download{}, err
	}
	defer resp.Body.Close()

	if err := statusError(resp.StatusCode); err != nil {
		return download{}, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxLegendBytes+1))
	if err != nil {
		return download{}, err
	}
	if len(body) > maxLegendBytes {
		return download{}, fmt.Errorf("%w: over %d bytes", errLegendTooLarge, maxLegendBytes)
	}
	return download{body: body, contentType: resp.Header.Get("Content-Type")}, nil
}

func statusError(code int) error {
	switch {
	case code == http.StatusTooManyRequests:
		return errRateLimited
	case code >= 500:
		return fmt.Errorf("%w: %d", errServerError, code)
	case code < 200 || code >= 300:
		return fmt.Errorf("%w: %d", errUnexpected, code)
	}
	return nil
}

// retryable reports whether another attempt could succeed. Client errors
// other than 429 and oversized legends will not change on retry.
func retryable(err error) bool {
	return !errors.Is(err, errUnexpected) && !errors.Is(err, errLegendTooLarge)
}
