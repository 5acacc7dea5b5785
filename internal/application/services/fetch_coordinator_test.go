package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storekeephq/storekeep-go/internal/domain/analytics"
	"github.com/storekeephq/storekeep-go/internal/infrastructure/observability/performance"
)

func newTestCoordinator(t *testing.T, timeout time.Duration) *FetchCoordinator {
	t.Helper()
	logger := newTestLogger(t)
	return NewFetchCoordinator(timeout, logger, performance.NewTracker(logger, time.Second))
}

func TestFetchOnceCoalescesConcurrentCallers(t *testing.T) {
	coordinator := newTestCoordinator(t, time.Second)
	rng := testRange("2026-01-01", "2026-01-31")

	var calls int64
	fetch := func(ctx context.Context) (*analytics.TrafficData, error) {
		atomic.AddInt64(&calls, 1)
		time.Sleep(50 * time.Millisecond)
		return &analytics.TrafficData{Metrics: analytics.TrafficMetrics{Sessions: 42}}, nil
	}

	const workers = 10
	results := make([]*analytics.TrafficData, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			data, err := coordinator.FetchOnce("tenant-a", rng, fetch)
			assert.NoError(t, err)
			results[n] = data
		}(i)
	}
	wg.Wait()

	assert.EqualValues(t, 1, atomic.LoadInt64(&calls))
	for _, data := range results {
		require.NotNil(t, data)
		assert.EqualValues(t, 42, data.Metrics.Sessions)
	}
}

func TestFetchOnceSeparatesKeys(t *testing.T) {
	coordinator := newTestCoordinator(t, time.Second)

	var calls int64
	fetch := func(ctx context.Context) (*analytics.TrafficData, error) {
		atomic.AddInt64(&calls, 1)
		return &analytics.TrafficData{}, nil
	}

	_, err := coordinator.FetchOnce("tenant-a", testRange("2026-01-01", "2026-01-31"), fetch)
	require.NoError(t, err)
	_, err = coordinator.FetchOnce("tenant-a", testRange("2026-02-01", "2026-02-28"), fetch)
	require.NoError(t, err)
	_, err = coordinator.FetchOnce("tenant-b", testRange("2026-01-01", "2026-01-31"), fetch)
	require.NoError(t, err)

	assert.EqualValues(t, 3, atomic.LoadInt64(&calls))
}

func TestFetchOnceAllowsRefetchAfterCompletion(t *testing.T) {
	coordinator := newTestCoordinator(t, time.Second)
	rng := testRange("2026-01-01", "2026-01-31")

	var calls int64
	fetch := func(ctx context.Context) (*analytics.TrafficData, error) {
		atomic.AddInt64(&calls, 1)
		return &analytics.TrafficData{}, nil
	}

	_, err := coordinator.FetchOnce("tenant-a", rng, fetch)
	require.NoError(t, err)
	_, err = coordinator.FetchOnce("tenant-a", rng, fetch)
	require.NoError(t, err)

	assert.EqualValues(t, 2, atomic.LoadInt64(&calls))
}

func TestFetchOnceTimeout(t *testing.T) {
	coordinator := newTestCoordinator(t, 30*time.Millisecond)
	rng := testRange("2026-01-01", "2026-01-31")

	fetch := func(ctx context.Context) (*analytics.TrafficData, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	_, err := coordinator.FetchOnce("tenant-a", rng, fetch)
	require.Error(t, err)
	assert.ErrorIs(t, err, analytics.ErrProviderUnavailable)
}

func TestFetchOncePropagatesDomainErrors(t *testing.T) {
	coordinator := newTestCoordinator(t, time.Second)
	rng := testRange("2026-01-01", "2026-01-31")

	wantErr := errors.New("boom")
	fetch := func(ctx context.Context) (*analytics.TrafficData, error) {
		return nil, wantErr
	}

	_, err := coordinator.FetchOnce("tenant-a", rng, fetch)
	assert.ErrorIs(t, err, wantErr)
}
