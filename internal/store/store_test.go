package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-legend/internal/audit"
	"github.com/i474232898/weather-legend/internal/legend"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func report(id, provider string, at time.Time, findings ...legend.Finding) audit.Report {
	return audit.Report{ID: id, Provider: provider, CheckedAt: at, Records: 41, Findings: findings}
}

// stores returns a fresh instance of each implementation, both pinned to a
// clock at t0 + 1h.
func stores(t *testing.T, maxHistory int, maxAge time.Duration) map[string]audit.Store {
	t.Helper()
	clock := func() time.Time { return t0.Add(time.Hour) }

	mem := NewMemoryStore(maxHistory, maxAge)
	mem.now = clock

	db, err := OpenSQLite(filepath.Join(t.TempDir(), "reports.db"), maxHistory, maxAge)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	db.now = clock

	return map[string]audit.Store{"memory": mem, "sqlite": db}
}

func TestStoreLatestAndRange(t *testing.T) {
	ctx := context.Background()
	finding := legend.Finding{Kind: legend.FindingMissingAsset, RecordRef: "fog#15", Detail: `no icon asset named "fog"`}

	for name, s := range stores(t, 0, 0) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Latest(ctx, "met_eireann")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.SaveReport(ctx, report("a", "met_eireann", t0)))
			require.NoError(t, s.SaveReport(ctx, report("b", "met_eireann", t0.Add(10*time.Minute), finding)))
			require.NoError(t, s.SaveReport(ctx, report("c", "met_norway", t0.Add(20*time.Minute))))

			latest, err := s.Latest(ctx, "met_eireann")
			require.NoError(t, err)
			assert.Equal(t, report("b", "met_eireann", t0.Add(10*time.Minute), finding), latest)

			got, err := s.Range(ctx, "met_eireann", t0, t0.Add(10*time.Minute))
			require.NoError(t, err)
			require.Len(t, got, 2)
			assert.Equal(t, "a", got[0].ID)
			assert.Equal(t, "b", got[1].ID)

			_, err = s.Range(ctx, "met_eireann", t0.Add(time.Minute), t0.Add(2*time.Minute))
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStoreRetentionByCount(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t, 2, 0) {
		t.Run(name, func(t *testing.T) {
			for i, id := range []string{"a", "b", "c"} {
				require.NoError(t, s.SaveReport(ctx, report(id, "p", t0.Add(time.Duration(i)*time.Minute))))
			}
			require.NoError(t, s.SaveReport(ctx, report("other", "q", t0)))

			got, err := s.Range(ctx, "p", t0.Add(-time.Hour), t0.Add(time.Hour))
			require.NoError(t, err)
			require.Len(t, got, 2)
			assert.Equal(t, "b", got[0].ID)
			assert.Equal(t, "c", got[1].ID)

			_, err = s.Latest(ctx, "q")
			assert.NoError(t, err, "retention is per provider")
		})
	}
}

func TestStoreRetentionByAge(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t, 0, 30*time.Minute) {
		t.Run(name, func(t *testing.T) {
			// The clock reads t0+1h, so only reports from t0+30m on are kept.
			require.NoError(t, s.SaveReport(ctx, report("old", "p", t0)))
			require.NoError(t, s.SaveReport(ctx, report("new", "p", t0.Add(45*time.Minute))))

			got, err := s.Range(ctx, "p", t0.Add(-time.Hour), t0.Add(time.Hour))
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, "new", got[0].ID)
		})
	}
}

func TestSQLiteStorePersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "reports.db")

	db, err := OpenSQLite(path, 0, 0)
	require.NoError(t, err)
	require.NoError(t, db.SaveReport(ctx, report("a", "p", t0)))
	require.NoError(t, db.Close())

	db, err = OpenSQLite(path, 0, 0)
	require.NoError(t, err)
	defer db.Close()

	latest, err := db.Latest(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, "a", latest.ID)
	assert.True(t, latest.CheckedAt.Equal(t0))
}
