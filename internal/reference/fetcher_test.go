package reference

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const metnoLegend = `{
  "clearsky": {"desc_en": "Clear sky", "old_id": "1", "variants": ["day", "night", "polartwilight"]},
  "cloudy": {"desc_en": "Cloudy", "old_id": "4", "variants": null}
}`

const csvLegend = "symbol,english,bokmal,nynorsk,old_id,variants\nclearsky,Clear sky,Klarvær,Klårvêr,1,3\n"

var fastBackoff = BackoffConfig{MaxRetries: 2, InitialInterval: time.Millisecond, MaxInterval: 5 * time.Millisecond}

func TestFetchCachesResult(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(metnoLegend))
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client(), time.Minute)
	rows, err := f.Fetch(context.Background(), srv.URL+"/legends.json")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "clearsky_day", rows[0].LegendCode)

	_, err = f.Fetch(context.Background(), srv.URL+"/legends.json")
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestFetchRetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(metnoLegend))
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client(), time.Minute).WithBackoff(fastBackoff)
	rows, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.Equal(t, int32(3), hits.Load())
}

func TestFetchGivesUp(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client(), time.Minute).WithBackoff(fastBackoff)
	_, err := f.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errServerError))
	assert.Equal(t, int32(3), hits.Load(), "first attempt plus two retries")
}

func TestFetchDoesNotRetryClientErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client(), time.Minute).WithBackoff(fastBackoff)
	_, err := f.Fetch(context.Background(), srv.URL)
	assert.ErrorIs(t, err, errUnexpected)
	assert.Equal(t, int32(1), hits.Load())
}

func TestFetchRetriesRateLimit(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(metnoLegend))
	}))
	defer srv.Close()

	_, err := NewFetcher(srv.Client(), time.Minute).WithBackoff(fastBackoff).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())
}

func TestFetchAsksForLegendFormats(t *testing.T) {
	var accept atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accept.Store(r.Header.Get("Accept"))
		_, _ = w.Write([]byte(metnoLegend))
	}))
	defer srv.Close()

	_, err := NewFetcher(srv.Client(), time.Minute).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Contains(t, accept.Load(), "application/json")
	assert.Contains(t, accept.Load(), "text/csv")
}

func TestFetchRejectsOversizedLegend(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(strings.Repeat(" ", maxLegendBytes+1)))
	}))
	defer srv.Close()

	_, err := NewFetcher(srv.Client(), time.Minute).WithBackoff(fastBackoff).Fetch(context.Background(), srv.URL)
	assert.ErrorIs(t, err, errLegendTooLarge)
	assert.Equal(t, int32(1), hits.Load(), "size errors are not retried")
}

func TestBackoffDelay(t *testing.T) {
	b := BackoffConfig{InitialInterval: 100 * time.Millisecond, MaxInterval: time.Second}
	assert.Equal(t, 100*time.Millisecond, b.delay(0))
	assert.Equal(t, 200*time.Millisecond, b.delay(1))
	assert.Equal(t, 800*time.Millisecond, b.delay(3))
	assert.Equal(t, time.Second, b.delay(4))
	assert.Equal(t, time.Second, b.delay(60))

	unbounded := BackoffConfig{InitialInterval: time.Millisecond}
	assert.Equal(t, 8*time.Millisecond, unbounded.delay(3))
}

func TestFetchInvalidBackoff(t *testing.T) {
	_, err := NewFetcher(http.DefaultClient, time.Minute).
		WithBackoff(BackoffConfig{MaxRetries: 1}).
		Fetch(context.Background(), "http://127.0.0.1:1/legends.json")
	assert.ErrorIs(t, err, errInvalidBackoff)

	_, err = NewFetcher(nil, time.Minute).Fetch(context.Background(), "http://127.0.0.1:1/legends.json")
	assert.ErrorIs(t, err, errNoHTTPClient)
}

func TestFetchCSV(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		_, _ = w.Write([]byte(csvLegend))
	}))
	defer srv.Close()

	rows, err := NewFetcher(srv.Client(), 0).Fetch(context.Background(), srv.URL+"/legend")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"day", "night", "polartwilight"}, rows[0].Variants)
}

func TestFetchMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"clearsky": {"old_id": "one"}}`))
	}))
	defer srv.Close()

	_, err := NewFetcher(srv.Client(), time.Minute).Fetch(context.Background(), srv.URL)
	assert.ErrorContains(t, err, "decode reference legend")
}

func TestFetchHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewFetcher(srv.Client(), time.Minute).Fetch(ctx, srv.URL)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadLocalPath(t *testing.T) {
	rows, err := NewFetcher(http.DefaultClient, time.Minute).Load(context.Background(), "../dataset/testdata/legend.csv")
	require.NoError(t, err)
	assert.Len(t, rows, 5)
}

func TestIsURL(t *testing.T) {
	assert.True(t, IsURL("https://api.met.no/weatherapi/weathericon/2.0/legends"))
	assert.True(t, IsURL("http://localhost:8080/legends.json"))
	assert.False(t, IsURL("data/legends/legends.json"))
	assert.False(t, IsURL("file:///tmp/legends.json"))
}
