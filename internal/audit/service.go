package audit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/i474232898/weather-legend/internal/legend"
	"github.com/i474232898/weather-legend/internal/metrics"
)

// Service verifies every registered provider store and persists the reports.
type Service struct {
	store    Store
	registry *legend.Registry
	manifest legend.AssetManifest

	reference    ReferenceSource
	referenceURL string

	now func() time.Time
}

// NewService creates a new Service. manifest may be nil to skip the asset check.
func NewService(store Store, registry *legend.Registry, manifest legend.AssetManifest) *Service {
	return &Service{
		store:    store,
		registry: registry,
		manifest: manifest,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithReference enables the drift check of the base legend against the
// legend at location.
func (s *Service) WithReference(src ReferenceSource, location string) *Service {
	s.reference = src
	s.referenceURL = strings.TrimSpace(location)
	return s
}

// Run checks the base legend and every registered provider concurrently and
// saves one report each. Reports are returned sorted by provider. A failed
// reference fetch is logged and the base report is saved without drift
// findings.
func (s *Service) Run(ctx context.Context) ([]Report, error) {
	start := time.Now()
	providers := s.registry.Providers()
	slog.Debug("verification run started", "providers", len(providers))

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		reports []Report
		errs    []error
	)

	record := func(r Report) {
		r.ID = uuid.NewString()
		r.CheckedAt = s.now()
		if err := s.store.SaveReport(ctx, r); err != nil {
			mu.Lock()
			errs = append(errs, fmt.Errorf("save report for %s: %w", r.Provider, err))
			mu.Unlock()
			return
		}
		publish(r)
		mu.Lock()
		reports = append(reports, r)
		mu.Unlock()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		record(s.checkBase(ctx))
	}()

	for _, p := range providers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			st := s.registry.Store(p)
			record(Report{
				Provider: p,
				Records:  st.Len(),
				Findings: legend.Verify(st, s.manifest),
			})
		}()
	}

	wg.Wait()
	metrics.VerificationDuration.Observe(time.Since(start).Seconds())

	slices.SortFunc(reports, func(a, b Report) int { return strings.Compare(a.Provider, b.Provider) })
	if err := errors.Join(errs...); err != nil {
		metrics.VerificationRuns.WithLabelValues(metrics.ResultError).Inc()
		slog.Error("verification run failed", "error", err)
		return reports, err
	}
	metrics.VerificationRuns.WithLabelValues(metrics.ResultOK).Inc()

	var total int
	for _, r := range reports {
		total += len(r.Findings)
	}
	slog.Info("verification run completed", "reports", len(reports), "findings", total, "duration", time.Since(start))
	return reports, nil
}

func (s *Service) checkBase(ctx context.Context) Report {
	base := s.registry.Base()
	r := Report{
		Provider: BaseProvider,
		Records:  base.Len(),
		Findings: legend.Verify(base, s.manifest),
	}
	if s.reference == nil || s.referenceURL == "" {
		return r
	}

	rows, err := s.reference.Load(ctx, s.referenceURL)
	if err != nil {
		slog.Warn("skipping drift check", "reference", s.referenceURL, "error", err)
		return r
	}
	r.Reference = s.referenceURL
	r.Findings = append(r.Findings, legend.Drift(base, rows)...)
	return r
}

func publish(r Report) {
	metrics.Findings.DeletePartialMatch(prometheus.Labels{metrics.LabelProvider: r.Provider})
	for kind, n := range r.Counts() {
		metrics.Findings.WithLabelValues(r.Provider, string(kind)).Set(float64(n))
	}
}

// Latest delegates to the underlying store.
func (s *Service) Latest(ctx context.Context, provider string) (Report, error) {
	return s.store.Latest(ctx, provider)
}

// History delegates to the underlying store.
func (s *Service) History(ctx context.Context, provider string, from, to time.Time) ([]Report, error) {
	return s.store.Range(ctx, provider, from, to)
}
