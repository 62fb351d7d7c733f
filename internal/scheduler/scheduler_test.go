package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-legend/internal/audit"
)

type runnerFunc func(ctx context.Context) ([]audit.Report, error)

func (f runnerFunc) Run(ctx context.Context) ([]audit.Report, error) { return f(ctx) }

func TestStartRunsImmediately(t *testing.T) {
	ran := make(chan bool, 1)
	s := New(time.Hour, time.Second, runnerFunc(func(ctx context.Context) ([]audit.Report, error) {
		_, hasDeadline := ctx.Deadline()
		select {
		case ran <- hasDeadline:
		default:
		}
		return nil, nil
	}))
	require.NoError(t, s.Start())
	defer s.Stop()

	select {
	case hasDeadline := <-ran:
		assert.True(t, hasDeadline, "each run is bounded by the timeout")
	case <-time.After(5 * time.Second):
		t.Fatal("verification job did not run")
	}
}

func TestRunLogsFailures(t *testing.T) {
	calls := 0
	s := New(time.Hour, time.Second, runnerFunc(func(context.Context) ([]audit.Report, error) {
		calls++
		return nil, errors.New("boom")
	}))
	s.run()
	assert.Equal(t, 1, calls)
}

func TestNewDefaults(t *testing.T) {
	s := New(0, 0, runnerFunc(func(context.Context) ([]audit.Report, error) { return nil, nil }))
	assert.Equal(t, DefaultInterval, s.interval)
	assert.Equal(t, 30*time.Second, s.timeout)
}
