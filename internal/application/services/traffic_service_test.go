package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storekeephq/storekeep-go/internal/domain/analytics"
	"github.com/storekeephq/storekeep-go/internal/domain/tenant"
	"github.com/storekeephq/storekeep-go/internal/infrastructure/caching/manager"
	"github.com/storekeephq/storekeep-go/internal/infrastructure/caching/stores"
	"github.com/storekeephq/storekeep-go/internal/infrastructure/observability/performance"
	"github.com/storekeephq/storekeep-go/internal/infrastructure/persistence/tenants"
)

const canonicalID = "a1b2c3d4e5f6a1b2c3d4e5f6"

type stubConfigStore struct {
	records map[string]*tenant.Record
}

func (s *stubConfigStore) FindByCanonicalID(ctx context.Context, id string) (*tenant.Record, error) {
	if rec, ok := s.records[id]; ok {
		return rec, nil
	}
	return nil, tenants.ErrNotFound
}

func (s *stubConfigStore) FindByLegacyID(ctx context.Context, legacyID int64) (*tenant.Record, error) {
	for _, rec := range s.records {
		if rec.LegacyID != nil && *rec.LegacyID == legacyID {
			return rec, nil
		}
	}
	return nil, tenants.ErrNotFound
}

func (s *stubConfigStore) Upsert(ctx context.Context, rec *tenant.Record) error {
	s.records[rec.ID] = rec
	return nil
}

type stubFetcher struct {
	mu        sync.Mutex
	calls     int64
	sessions  int64
	err       error
	testErr   error
	delay     time.Duration
	lastRange analytics.DateRange
}

func (f *stubFetcher) Fetch(ctx context.Context, cfg tenant.ProviderConfig, rng analytics.DateRange) (*analytics.TrafficData, error) {
	atomic.AddInt64(&f.calls, 1)
	f.mu.Lock()
	f.lastRange = rng
	sessions := f.sessions
	err := f.err
	delay := f.delay
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return &analytics.TrafficData{
		Source:      "ga4",
		Range:       rng,
		Metrics:     analytics.TrafficMetrics{PageViews: sessions * 2, Sessions: sessions, Visitors: sessions / 2},
		LastUpdated: time.Now().UTC(),
		Provenance:  analytics.ProvenanceFresh,
	}, nil
}

func (f *stubFetcher) TestConnection(ctx context.Context, cfg tenant.ProviderConfig) error {
	return f.testErr
}

func (f *stubFetcher) callCount() int64 { return atomic.LoadInt64(&f.calls) }

func enabledTenant() *tenant.Record {
	legacy := int64(7)
	return &tenant.Record{
		ID:       canonicalID,
		LegacyID: &legacy,
		Name:     "Acme Outfitters",
		Provider: tenant.ProviderConfig{
			Enabled:     true,
			AccountID:   "accounts/54321",
			PropertyID:  "123456789",
			Credentials: []byte(`{"type":"service_account"}`),
		},
	}
}

func newTestTrafficService(t *testing.T, store tenant.ConfigStore, fetcher Fetcher, ttl, coordinatorTimeout time.Duration) *TrafficService {
	t.Helper()
	logger := newTestLogger(t)
	tracker := performance.NewTracker(logger, time.Second)
	cacheManager := manager.NewManager(stores.NewTrafficStore(ttl), nil, logger)

	return NewTrafficService(
		NewIdentityResolver(store, logger),
		cacheManager,
		fetcher,
		NewFetchCoordinator(coordinatorTimeout, logger, tracker),
		NewFallbackService(logger),
		logger,
		tracker,
	)
}

func mustIdentity(t *testing.T, ref string) tenant.Identity {
	t.Helper()
	id, err := tenant.ParseReference(ref)
	require.NoError(t, err)
	return id
}

func timePtr(s string) *time.Time {
	v, _ := time.ParseInLocation("2006-01-02", s, time.UTC)
	return &v
}

func TestGetTrafficDataFetchesThenServesSubRangeFromCache(t *testing.T) {
	fetcher := &stubFetcher{sessions: 500}
	store := &stubConfigStore{records: map[string]*tenant.Record{canonicalID: enabledTenant()}}
	svc := newTestTrafficService(t, store, fetcher, time.Hour, time.Second)

	req := TrafficRequest{
		Tenant: mustIdentity(t, canonicalID),
		From:   timePtr("2026-01-01"),
		To:     timePtr("2026-01-31"),
	}
	first, err := svc.GetTrafficData(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, analytics.ProvenanceFresh, first.Provenance)
	assert.EqualValues(t, 1, fetcher.callCount())

	sub := TrafficRequest{
		Tenant: mustIdentity(t, canonicalID),
		From:   timePtr("2026-01-10"),
		To:     timePtr("2026-01-20"),
	}
	second, err := svc.GetTrafficData(context.Background(), sub)
	require.NoError(t, err)
	assert.Equal(t, analytics.ProvenanceCache, second.Provenance)
	assert.EqualValues(t, 500, second.Metrics.Sessions)
	assert.EqualValues(t, 1, fetcher.callCount(), "sub-range must be served without a new fetch")
}

func TestGetTrafficDataUnknownTenantServesSynthetic(t *testing.T) {
	fetcher := &stubFetcher{sessions: 500}
	store := &stubConfigStore{records: map[string]*tenant.Record{}}
	svc := newTestTrafficService(t, store, fetcher, time.Hour, time.Second)

	data, err := svc.GetTrafficData(context.Background(), TrafficRequest{
		Tenant: mustIdentity(t, canonicalID),
	})
	require.NoError(t, err)
	assert.Equal(t, analytics.ProvenanceSynthetic, data.Provenance)
	assert.EqualValues(t, 0, fetcher.callCount())
}

func TestGetTrafficDataDisabledProviderServesSyntheticWithoutFetching(t *testing.T) {
	rec := enabledTenant()
	rec.Provider.Enabled = false
	fetcher := &stubFetcher{sessions: 500}
	store := &stubConfigStore{records: map[string]*tenant.Record{canonicalID: rec}}
	svc := newTestTrafficService(t, store, fetcher, time.Hour, time.Second)

	data, err := svc.GetTrafficData(context.Background(), TrafficRequest{
		Tenant: mustIdentity(t, canonicalID),
	})
	require.NoError(t, err)
	assert.Equal(t, analytics.ProvenanceSynthetic, data.Provenance)
	assert.EqualValues(t, 0, fetcher.callCount())
}

func TestGetTrafficDataFetchFailureServesSyntheticWithoutError(t *testing.T) {
	fetcher := &stubFetcher{err: analytics.ErrProviderUnavailable}
	store := &stubConfigStore{records: map[string]*tenant.Record{canonicalID: enabledTenant()}}
	svc := newTestTrafficService(t, store, fetcher, time.Hour, time.Second)

	req := TrafficRequest{
		Tenant: mustIdentity(t, canonicalID),
		From:   timePtr("2026-01-01"),
		To:     timePtr("2026-01-31"),
	}
	data, err := svc.GetTrafficData(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, analytics.ProvenanceSynthetic, data.Provenance)

	// The failure must not be cached: a later call hits the provider again.
	fetcher.mu.Lock()
	fetcher.err = nil
	fetcher.sessions = 90
	fetcher.mu.Unlock()

	data, err = svc.GetTrafficData(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, analytics.ProvenanceFresh, data.Provenance)
	assert.EqualValues(t, 90, data.Metrics.Sessions)
	assert.EqualValues(t, 2, fetcher.callCount())
}

func TestGetTrafficDataTimeoutServesSynthetic(t *testing.T) {
	fetcher := &stubFetcher{sessions: 500, delay: 200 * time.Millisecond}
	store := &stubConfigStore{records: map[string]*tenant.Record{canonicalID: enabledTenant()}}
	svc := newTestTrafficService(t, store, fetcher, time.Hour, 30*time.Millisecond)

	data, err := svc.GetTrafficData(context.Background(), TrafficRequest{
		Tenant: mustIdentity(t, canonicalID),
	})
	require.NoError(t, err)
	assert.Equal(t, analytics.ProvenanceSynthetic, data.Provenance)
}

func TestGetTrafficDataForceRefreshBypassesCacheAndOverwrites(t *testing.T) {
	fetcher := &stubFetcher{sessions: 100}
	store := &stubConfigStore{records: map[string]*tenant.Record{canonicalID: enabledTenant()}}
	svc := newTestTrafficService(t, store, fetcher, time.Hour, time.Second)

	req := TrafficRequest{
		Tenant: mustIdentity(t, canonicalID),
		From:   timePtr("2026-01-01"),
		To:     timePtr("2026-01-31"),
	}
	_, err := svc.GetTrafficData(context.Background(), req)
	require.NoError(t, err)

	fetcher.mu.Lock()
	fetcher.sessions = 999
	fetcher.mu.Unlock()

	forced := req
	forced.ForceRefresh = true
	data, err := svc.GetTrafficData(context.Background(), forced)
	require.NoError(t, err)
	assert.Equal(t, analytics.ProvenanceFresh, data.Provenance)
	assert.EqualValues(t, 999, data.Metrics.Sessions)
	assert.EqualValues(t, 2, fetcher.callCount())

	// The refreshed payload replaced the cached one.
	cached, err := svc.GetTrafficData(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, analytics.ProvenanceCache, cached.Provenance)
	assert.EqualValues(t, 999, cached.Metrics.Sessions)
	assert.EqualValues(t, 2, fetcher.callCount())
}

func TestGetTrafficDataLegacyAndCanonicalShareOneCache(t *testing.T) {
	fetcher := &stubFetcher{sessions: 500}
	store := &stubConfigStore{records: map[string]*tenant.Record{canonicalID: enabledTenant()}}
	svc := newTestTrafficService(t, store, fetcher, time.Hour, time.Second)

	req := TrafficRequest{
		Tenant: mustIdentity(t, "7"),
		From:   timePtr("2026-01-01"),
		To:     timePtr("2026-01-31"),
	}
	first, err := svc.GetTrafficData(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, analytics.ProvenanceFresh, first.Provenance)

	// Same tenant addressed canonically must hit the same cache entry.
	req.Tenant = mustIdentity(t, canonicalID)
	second, err := svc.GetTrafficData(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, analytics.ProvenanceCache, second.Provenance)
	assert.EqualValues(t, 1, fetcher.callCount())
}

func TestGetTrafficDataConcurrentColdStartFetchesOnce(t *testing.T) {
	fetcher := &stubFetcher{sessions: 500, delay: 50 * time.Millisecond}
	store := &stubConfigStore{records: map[string]*tenant.Record{canonicalID: enabledTenant()}}
	svc := newTestTrafficService(t, store, fetcher, time.Hour, time.Second)

	req := TrafficRequest{
		Tenant: mustIdentity(t, canonicalID),
		From:   timePtr("2026-01-01"),
		To:     timePtr("2026-01-31"),
	}

	const workers = 8
	results := make([]*analytics.TrafficData, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			data, err := svc.GetTrafficData(context.Background(), req)
			assert.NoError(t, err)
			results[n] = data
		}(i)
	}
	wg.Wait()

	assert.EqualValues(t, 1, fetcher.callCount())
	for _, data := range results {
		require.NotNil(t, data)
		assert.EqualValues(t, 500, data.Metrics.Sessions)
	}
}

func TestGetTrafficDataEmptyResultIsCached(t *testing.T) {
	fetcher := &stubFetcher{sessions: 0}
	store := &stubConfigStore{records: map[string]*tenant.Record{canonicalID: enabledTenant()}}
	svc := newTestTrafficService(t, store, fetcher, time.Hour, time.Second)

	req := TrafficRequest{
		Tenant: mustIdentity(t, canonicalID),
		From:   timePtr("2026-01-01"),
		To:     timePtr("2026-01-31"),
	}
	first, err := svc.GetTrafficData(context.Background(), req)
	require.NoError(t, err)
	assert.EqualValues(t, 0, first.Metrics.Sessions)
	assert.Equal(t, analytics.ProvenanceFresh, first.Provenance)

	second, err := svc.GetTrafficData(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, analytics.ProvenanceCache, second.Provenance)
	assert.EqualValues(t, 1, fetcher.callCount())
}

func TestGetTrafficDataInvalidRangeIsTheOnlyError(t *testing.T) {
	fetcher := &stubFetcher{sessions: 500}
	store := &stubConfigStore{records: map[string]*tenant.Record{canonicalID: enabledTenant()}}
	svc := newTestTrafficService(t, store, fetcher, time.Hour, time.Second)

	_, err := svc.GetTrafficData(context.Background(), TrafficRequest{
		Tenant: mustIdentity(t, canonicalID),
		From:   timePtr("2026-02-10"),
		To:     timePtr("2026-02-01"),
	})
	assert.Error(t, err)
	assert.EqualValues(t, 0, fetcher.callCount())
}

func TestGetTrafficDataDefaultsToThirtyDayRange(t *testing.T) {
	fetcher := &stubFetcher{sessions: 500}
	store := &stubConfigStore{records: map[string]*tenant.Record{canonicalID: enabledTenant()}}
	svc := newTestTrafficService(t, store, fetcher, time.Hour, time.Second)

	_, err := svc.GetTrafficData(context.Background(), TrafficRequest{
		Tenant: mustIdentity(t, canonicalID),
	})
	require.NoError(t, err)

	fetcher.mu.Lock()
	rng := fetcher.lastRange
	fetcher.mu.Unlock()
	assert.Equal(t, analytics.DefaultRangeDays+1, rng.Days())
}

func TestInvalidateForcesRefetch(t *testing.T) {
	fetcher := &stubFetcher{sessions: 500}
	store := &stubConfigStore{records: map[string]*tenant.Record{canonicalID: enabledTenant()}}
	svc := newTestTrafficService(t, store, fetcher, time.Hour, time.Second)

	req := TrafficRequest{
		Tenant: mustIdentity(t, canonicalID),
		From:   timePtr("2026-01-01"),
		To:     timePtr("2026-01-31"),
	}
	_, err := svc.GetTrafficData(context.Background(), req)
	require.NoError(t, err)

	require.NoError(t, svc.Invalidate(context.Background(), mustIdentity(t, canonicalID)))

	data, err := svc.GetTrafficData(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, analytics.ProvenanceFresh, data.Provenance)
	assert.EqualValues(t, 2, fetcher.callCount())
}

func TestInvalidateUnknownTenant(t *testing.T) {
	svc := newTestTrafficService(t, &stubConfigStore{records: map[string]*tenant.Record{}},
		&stubFetcher{}, time.Hour, time.Second)

	err := svc.Invalidate(context.Background(), mustIdentity(t, canonicalID))
	assert.ErrorIs(t, err, analytics.ErrUnknownTenant)
}

func TestTestConnection(t *testing.T) {
	rec := enabledTenant()
	store := &stubConfigStore{records: map[string]*tenant.Record{canonicalID: rec}}

	t.Run("success", func(t *testing.T) {
		svc := newTestTrafficService(t, store, &stubFetcher{}, time.Hour, time.Second)
		result := svc.TestConnection(context.Background(), mustIdentity(t, canonicalID))
		assert.True(t, result.Success)
	})

	t.Run("provider failure is reported, not thrown", func(t *testing.T) {
		svc := newTestTrafficService(t, store,
			&stubFetcher{testErr: analytics.ErrProviderUnavailable}, time.Hour, time.Second)
		result := svc.TestConnection(context.Background(), mustIdentity(t, canonicalID))
		assert.False(t, result.Success)
		assert.Contains(t, result.Message, "unavailable")
	})

	t.Run("unknown tenant", func(t *testing.T) {
		svc := newTestTrafficService(t, &stubConfigStore{records: map[string]*tenant.Record{}},
			&stubFetcher{}, time.Hour, time.Second)
		result := svc.TestConnection(context.Background(), mustIdentity(t, canonicalID))
		assert.False(t, result.Success)
	})

	t.Run("not configured", func(t *testing.T) {
		disabled := enabledTenant()
		disabled.Provider.PropertyID = ""
		svc := newTestTrafficService(t,
			&stubConfigStore{records: map[string]*tenant.Record{canonicalID: disabled}},
			&stubFetcher{}, time.Hour, time.Second)
		result := svc.TestConnection(context.Background(), mustIdentity(t, canonicalID))
		assert.False(t, result.Success)
		assert.Contains(t, result.Message, "not configured")
	})
}
