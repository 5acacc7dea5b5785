package stores

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storekeephq/storekeep-go/internal/domain/analytics"
	"github.com/storekeephq/storekeep-go/internal/infrastructure/caching/types"
)

const testTenant = "a1b2c3d4e5f6a1b2c3d4e5f6"

func dayRange(from, to string) analytics.DateRange {
	f, _ := time.ParseInLocation("2006-01-02", from, time.UTC)
	t, _ := time.ParseInLocation("2006-01-02", to, time.UTC)
	return analytics.DateRange{From: f, To: t}
}

func sampleData(rng analytics.DateRange, sessions int64) *analytics.TrafficData {
	return &analytics.TrafficData{
		Source:      "ga4",
		Range:       rng,
		Metrics:     analytics.TrafficMetrics{PageViews: sessions * 2, Sessions: sessions, Visitors: sessions - 5},
		LastUpdated: time.Now().UTC(),
		Provenance:  analytics.ProvenanceFresh,
	}
}

func TestLookupMissesOnEmptyStore(t *testing.T) {
	store := NewTrafficStore(time.Hour)
	_, hit := store.Lookup(testTenant, dayRange("2026-01-01", "2026-01-31"))
	assert.False(t, hit)
}

func TestLookupExactMatch(t *testing.T) {
	store := NewTrafficStore(time.Hour)
	rng := dayRange("2026-01-01", "2026-01-31")
	store.Upsert(testTenant, rng, sampleData(rng, 100))

	got, hit := store.Lookup(testTenant, rng)
	require.True(t, hit)
	assert.EqualValues(t, 100, got.Metrics.Sessions)
	assert.Equal(t, analytics.ProvenanceCache, got.Provenance)
}

func TestLookupServesContainedSubRange(t *testing.T) {
	store := NewTrafficStore(time.Hour)
	wide := dayRange("2026-01-01", "2026-01-31")
	store.Upsert(testTenant, wide, sampleData(wide, 100))

	got, hit := store.Lookup(testTenant, dayRange("2026-01-10", "2026-01-20"))
	require.True(t, hit)
	assert.Equal(t, analytics.ProvenanceCache, got.Provenance)
}

func TestLookupMissesOnPartialOverlap(t *testing.T) {
	store := NewTrafficStore(time.Hour)
	wide := dayRange("2026-01-01", "2026-01-31")
	store.Upsert(testTenant, wide, sampleData(wide, 100))

	_, hit := store.Lookup(testTenant, dayRange("2026-01-20", "2026-02-10"))
	assert.False(t, hit)
}

func TestLookupIsTenantIsolated(t *testing.T) {
	store := NewTrafficStore(time.Hour)
	rng := dayRange("2026-01-01", "2026-01-31")
	store.Upsert(testTenant, rng, sampleData(rng, 100))

	_, hit := store.Lookup("ffffffffffffffffffffffff", rng)
	assert.False(t, hit)
}

func TestExpiredEntryIsAMiss(t *testing.T) {
	store := NewTrafficStore(10 * time.Millisecond)
	rng := dayRange("2026-01-01", "2026-01-31")
	store.Upsert(testTenant, rng, sampleData(rng, 100))

	time.Sleep(20 * time.Millisecond)
	_, hit := store.Lookup(testTenant, rng)
	assert.False(t, hit)
}

func TestUpsertReplacesAndRestartsTTL(t *testing.T) {
	store := NewTrafficStore(time.Hour)
	rng := dayRange("2026-01-01", "2026-01-31")

	first := store.Upsert(testTenant, rng, sampleData(rng, 100))
	second := store.Upsert(testTenant, rng, sampleData(rng, 250))

	assert.NotEqual(t, first.ID, second.ID)
	assert.False(t, second.ExpiresAt.Before(first.ExpiresAt))

	got, hit := store.Lookup(testTenant, rng)
	require.True(t, hit)
	assert.EqualValues(t, 250, got.Metrics.Sessions)
}

func TestUpsertStoresACopy(t *testing.T) {
	store := NewTrafficStore(time.Hour)
	rng := dayRange("2026-01-01", "2026-01-31")
	data := sampleData(rng, 100)
	store.Upsert(testTenant, rng, data)

	data.Metrics.Sessions = 1

	got, hit := store.Lookup(testTenant, rng)
	require.True(t, hit)
	assert.EqualValues(t, 100, got.Metrics.Sessions)
}

func TestInvalidateTenant(t *testing.T) {
	store := NewTrafficStore(time.Hour)
	rng := dayRange("2026-01-01", "2026-01-31")
	store.Upsert(testTenant, rng, sampleData(rng, 100))

	removed := store.InvalidateTenant(testTenant)
	assert.Equal(t, 1, removed)

	_, hit := store.Lookup(testTenant, rng)
	assert.False(t, hit)
}

func TestPurgeExpired(t *testing.T) {
	store := NewTrafficStore(10 * time.Millisecond)
	rng := dayRange("2026-01-01", "2026-01-31")
	store.Upsert(testTenant, rng, sampleData(rng, 100))

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, store.PurgeExpired(testTenant))
	assert.Equal(t, 0, store.PurgeExpired(testTenant))
}

func TestRestoreSkipsExpiredRows(t *testing.T) {
	store := NewTrafficStore(time.Hour)
	rng := dayRange("2026-01-01", "2026-01-31")
	now := time.Now().UTC()

	store.Restore(&types.PersistedTrafficEntry{
		TenantID:  testTenant,
		EntryID:   "01ARZ3NDEKTSV4RRFFQ69G5FAV",
		Range:     rng,
		Data:      sampleData(rng, 60),
		CachedAt:  now.Add(-2 * time.Hour),
		ExpiresAt: now.Add(-time.Hour),
	})
	_, hit := store.Lookup(testTenant, rng)
	assert.False(t, hit)

	store.Restore(&types.PersistedTrafficEntry{
		TenantID:  testTenant,
		EntryID:   "01ARZ3NDEKTSV4RRFFQ69G5FAW",
		Range:     rng,
		Data:      sampleData(rng, 60),
		CachedAt:  now,
		ExpiresAt: now.Add(time.Hour),
	})
	got, hit := store.Lookup(testTenant, rng)
	require.True(t, hit)
	assert.EqualValues(t, 60, got.Metrics.Sessions)
}

func TestConcurrentAccess(t *testing.T) {
	store := NewTrafficStore(time.Hour)
	rng := dayRange("2026-01-01", "2026-01-31")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(n int64) {
			defer wg.Done()
			store.Upsert(testTenant, rng, sampleData(rng, n))
		}(int64(i + 1))
		go func() {
			defer wg.Done()
			store.Lookup(testTenant, rng)
		}()
	}
	wg.Wait()

	_, hit := store.Lookup(testTenant, rng)
	assert.True(t, hit)
}
