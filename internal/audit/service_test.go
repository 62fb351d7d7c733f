package audit_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-legend/internal/audit"
	"github.com/i474232898/weather-legend/internal/legend"
	"github.com/i474232898/weather-legend/internal/store"
)

type manifest map[string]bool

func (m manifest) Has(name string) bool { return m[name] }

type staticReference struct {
	rows []legend.Row
	err  error
}

func (s staticReference) Load(context.Context, string) ([]legend.Row, error) {
	return s.rows, s.err
}

type failingStore struct{ audit.Store }

func (failingStore) SaveReport(context.Context, audit.Report) error { return errors.New("disk full") }

func baseRows() []legend.Row {
	return []legend.Row{
		{LegendCode: "clearsky_day", OldID: 1, SymbolID: "clearsky", Variants: []string{"day", "night"}},
		{LegendCode: "cloudy", OldID: 4, SymbolID: "cloudy"},
	}
}

func registry(t *testing.T) *legend.Registry {
	t.Helper()
	base, err := legend.Load(baseRows())
	require.NoError(t, err)
	reg := legend.NewRegistry(base)
	require.NoError(t, reg.RegisterBase("met_norway"))
	require.NoError(t, reg.Register(legend.Patch{
		Provider: "met_eireann",
		Operations: []legend.Operation{
			legend.Alias{SymbolID: "Sun", Target: legend.Target{OldID: 1}},
			legend.NightVariant{SymbolID: "Dark_Sun", Day: legend.Target{OldID: 1}},
		},
	}))
	return reg
}

func TestRunSavesOneReportPerProvider(t *testing.T) {
	ctx := context.Background()
	reports := store.NewMemoryStore(10, 0)
	assets := manifest{"clearsky_day": true, "cloudy": true}

	svc := audit.NewService(reports, registry(t), assets)
	got, err := svc.Run(ctx)
	require.NoError(t, err)

	var providers []string
	for _, r := range got {
		providers = append(providers, r.Provider)
		assert.NotEmpty(t, r.ID)
		assert.False(t, r.CheckedAt.IsZero())
	}
	assert.Equal(t, []string{audit.BaseProvider, "met_eireann", "met_norway"}, providers)

	// The night icon is not in the manifest. Met Eireann reports it on the
	// derived night record, the unpatched base on the day record's variant.
	me, err := svc.Latest(ctx, "met_eireann")
	require.NoError(t, err)
	assert.Equal(t, 3, me.Records)
	require.Len(t, me.Findings, 1)
	assert.Equal(t, legend.FindingMissingAsset, me.Findings[0].Kind)
	assert.Equal(t, "clearsky_night#101", me.Findings[0].RecordRef)
	assert.Equal(t, map[legend.FindingKind]int{legend.FindingMissingAsset: 1}, me.Counts())

	no, err := svc.Latest(ctx, "met_norway")
	require.NoError(t, err)
	assert.False(t, no.OK())
	require.Len(t, no.Findings, 1)
	assert.Equal(t, "clearsky_day#1", no.Findings[0].RecordRef)
	assert.Contains(t, no.Findings[0].Detail, "clearsky_night")

	clean := audit.NewService(store.NewMemoryStore(10, 0), registry(t),
		manifest{"clearsky_day": true, "clearsky_night": true, "cloudy": true})
	got, err = clean.Run(ctx)
	require.NoError(t, err)
	for _, r := range got {
		assert.True(t, r.OK(), r.Provider)
	}

	history, err := svc.History(ctx, "met_norway", time.Time{}, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Len(t, history, 1)

	_, err = svc.Latest(ctx, "unknown")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRunWithReferenceAddsDrift(t *testing.T) {
	ctx := context.Background()
	ref := staticReference{rows: []legend.Row{
		{SymbolID: "clearsky", OldID: 1, Variants: []string{"day", "night"}},
		{SymbolID: "fog", OldID: 15},
	}}

	svc := audit.NewService(store.NewMemoryStore(0, 0), registry(t), nil).
		WithReference(ref, "https://example.invalid/legends.json")
	_, err := svc.Run(ctx)
	require.NoError(t, err)

	base, err := svc.Latest(ctx, audit.BaseProvider)
	require.NoError(t, err)
	assert.Equal(t, "https://example.invalid/legends.json", base.Reference)
	assert.Equal(t,
		[]legend.FindingKind{legend.FindingDriftExtra, legend.FindingDriftMissing},
		legend.FindingKinds(base.Findings))
}

func TestRunSurvivesReferenceFailure(t *testing.T) {
	ctx := context.Background()
	svc := audit.NewService(store.NewMemoryStore(0, 0), registry(t), nil).
		WithReference(staticReference{err: errors.New("timeout")}, "https://example.invalid")

	_, err := svc.Run(ctx)
	require.NoError(t, err)

	base, err := svc.Latest(ctx, audit.BaseProvider)
	require.NoError(t, err)
	assert.Empty(t, base.Reference)
	assert.True(t, base.OK())
}

func TestRunReportsSaveErrors(t *testing.T) {
	svc := audit.NewService(failingStore{}, registry(t), nil)
	reports, err := svc.Run(context.Background())
	assert.ErrorContains(t, err, "disk full")
	assert.Empty(t, reports)
}
