package reference

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/i474232898/weather-legend/internal/common"
	"github.com/i474232898/weather-legend/internal/dataset"
	"github.com/i474232898/weather-legend/internal/legend"
	"github.com/i474232898/weather-legend/internal/metrics"
)

const cacheSize = 8

// Fetcher downloads reference legends, such as the upstream met.no
// legends.json, and keeps recent results in a TTL cache.
type Fetcher struct {
	dl    *downloader
	cache *expirable.LRU[string, []legend.Row]
}

// NewFetcher creates a fetcher using client. Fetched legends are cached for
// cacheTTL; a non-positive TTL disables expiry.
func NewFetcher(client *http.Client, cacheTTL time.Duration) *Fetcher {
	if cacheTTL < 0 {
		cacheTTL = 0
	}
	return &Fetcher{
		dl:    newDownloader(client),
		cache: expirable.NewLRU[string, []legend.Row](cacheSize, nil, cacheTTL),
	}
}

// WithBackoff replaces the retry policy.
func (f *Fetcher) WithBackoff(b BackoffConfig) *Fetcher {
	f.dl.backoff = b
	return f
}

// Fetch returns the rows of the legend at rawURL. JSON (met.no map or rows)
// and CSV bodies are accepted.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]legend.Row, error) {
	if rows, ok := f.cache.Get(rawURL); ok {
		metrics.ReferenceFetches.WithLabelValues(metrics.ResultCacheHit).Inc()
		return rows, nil
	}

	dl, err := f.dl.get(ctx, rawURL)
	if err != nil {
		metrics.ReferenceFetches.WithLabelValues(metrics.ResultError).Inc()
		return nil, fmt.Errorf("fetch reference legend %s: %w", rawURL, err)
	}

	var rows []legend.Row
	if isCSV(rawURL, dl.contentType) {
		rows, err = dataset.DecodeBaseCSV(bytes.NewReader(dl.body))
	} else {
		rows, err = dataset.DecodeBaseJSON(dl.body)
	}
	if err != nil {
		metrics.ReferenceFetches.WithLabelValues(metrics.ResultError).Inc()
		return nil, fmt.Errorf("decode reference legend %s: %w", rawURL, err)
	}

	slog.Debug("fetched reference legend", "url", rawURL, "rows", len(rows))
	metrics.ReferenceFetches.WithLabelValues(metrics.ResultOK).Inc()
	f.cache.Add(rawURL, rows)
	return rows, nil
}

// Load reads a reference legend from an http(s) URL or a local path.
func (f *Fetcher) Load(ctx context.Context, location string) ([]legend.Row, error) {
	if IsURL(location) {
		return f.Fetch(ctx, location)
	}
	return dataset.LoadBase(location)
}

// IsURL reports whether location is an http or https URL.
func IsURL(location string) bool {
	u, err := url.Parse(location)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func isCSV(rawURL, contentType string) bool {
	if common.HasAny(strings.ToLower(contentType), "text/csv", "application/csv") {
		return true
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.EqualFold(path.Ext(u.Path), ".csv")
}
