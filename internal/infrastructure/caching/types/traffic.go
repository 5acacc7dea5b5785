// Package types defines cache data structures for multi-tenant traffic analytics.
package types

import (
	"sync"
	"time"

	"github.com/storekeephq/storekeep-go/internal/domain/analytics"
)

// TrafficCacheEntry is one cached analytics payload for a tenant. Entries
// only ever come from successful provider fetches; synthetic fallback data
// is never stored.
type TrafficCacheEntry struct {
	ID        string                 `json:"id"`
	Range     analytics.DateRange    `json:"range"`
	Data      *analytics.TrafficData `json:"data"`
	CachedAt  time.Time              `json:"cachedAt"`
	ExpiresAt time.Time              `json:"expiresAt"`
}

// Expired reports whether the entry's TTL has elapsed. Expiry is checked
// at read time; expired entries are misses until the cleanup worker or a
// later upsert removes them.
func (e *TrafficCacheEntry) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

// Covers reports whether the entry can serve a request for rng: its
// stored range must fully contain the requested range and it must not be
// expired. Partial overlap is a miss.
func (e *TrafficCacheEntry) Covers(rng analytics.DateRange, now time.Time) bool {
	return !e.Expired(now) && e.Range.Contains(rng)
}

// TenantTrafficCache holds the cached traffic payloads for a single tenant
type TenantTrafficCache struct {
	Entries map[string]*TrafficCacheEntry // range key -> entry

	// Cache metadata
	LastUpdated time.Time
	Mu          sync.RWMutex // Exported for access
}

// NewTenantTrafficCache creates an empty per-tenant cache
func NewTenantTrafficCache() *TenantTrafficCache {
	return &TenantTrafficCache{
		Entries:     make(map[string]*TrafficCacheEntry),
		LastUpdated: time.Now().UTC(),
	}
}

// PersistedTrafficEntry is the durable-storage row shape for a cache
// entry, used for write-through and startup rehydration.
type PersistedTrafficEntry struct {
	TenantID  string
	EntryID   string
	Range     analytics.DateRange
	Data      *analytics.TrafficData
	CachedAt  time.Time
	ExpiresAt time.Time
}
