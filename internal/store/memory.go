package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/i474232898/weather-legend/internal/audit"
)

var (
	// ErrNotFound is returned when no report is available for a given provider.
	ErrNotFound = errors.New("no verification report for provider")
)

// ReportHistory holds a time-ordered list of reports for a provider.
type ReportHistory struct {
	Reports []audit.Report
}

// MemoryStore is a concurrency-safe in-memory implementation of a report store.
type MemoryStore struct {
	mu sync.RWMutex

	// key: provider id, value: history
	data map[string]*ReportHistory

	// retention configuration
	maxHistory int           // max number of reports per provider
	maxAge     time.Duration // optional max age for reports

	now func() time.Time
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxHistory is <= 0, it is treated as unlimited.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:       make(map[string]*ReportHistory),
		maxHistory: maxHistory,
		maxAge:     maxAge,
		now:        time.Now,
	}
}

// SaveReport appends a new report for its provider and enforces retention.
func (s *MemoryStore) SaveReport(_ context.Context, report audit.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	history, ok := s.data[report.Provider]
	if !ok {
		history = &ReportHistory{}
		s.data[report.Provider] = history
	}

	history.Reports = append(history.Reports, report)

	// Enforce retention by count.
	if s.maxHistory > 0 && len(history.Reports) > s.maxHistory {
		over := len(history.Reports) - s.maxHistory
		history.Reports = history.Reports[over:]
	}

	// Enforce retention by age.
	if s.maxAge > 0 {
		cutoff := s.now().Add(-s.maxAge)
		i := 0
		for ; i < len(history.Reports); i++ {
			if !history.Reports[i].CheckedAt.Before(cutoff) {
				break
			}
		}
		history.Reports = history.Reports[i:]
	}
	return nil
}

// Latest returns the most recent report for a provider.
func (s *MemoryStore) Latest(_ context.Context, provider string) (audit.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[provider]
	if !ok || len(history.Reports) == 0 {
		return audit.Report{}, ErrNotFound
	}
	return history.Reports[len(history.Reports)-1], nil
}

// Range returns all reports for a provider between from and to (inclusive).
func (s *MemoryStore) Range(_ context.Context, provider string, from, to time.Time) ([]audit.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[provider]
	if !ok || len(history.Reports) == 0 {
		return nil, ErrNotFound
	}

	var result []audit.Report
	for _, r := range history.Reports {
		if !r.CheckedAt.Before(from) && !r.CheckedAt.After(to) {
			result = append(result, r)
		}
	}

	if len(result) == 0 {
		return nil, ErrNotFound
	}

	return result, nil
}
