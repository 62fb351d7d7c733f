package audit

import (
	"context"
	"time"

	"github.com/i474232898/weather-legend/internal/legend"
)

// Store is the contract the in-memory and SQLite report stores satisfy.
type Store interface {
	SaveReport(ctx context.Context, report Report) error
	Latest(ctx context.Context, provider string) (Report, error)
	Range(ctx context.Context, provider string, from, to time.Time) ([]Report, error)
}

// ReferenceSource loads a reference legend by URL or path.
type ReferenceSource interface {
	Load(ctx context.Context, location string) ([]legend.Row, error)
}
