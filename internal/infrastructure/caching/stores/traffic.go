// Package stores contains the tenant-isolated cache store implementations.
package stores

import (
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/storekeephq/storekeep-go/internal/domain/analytics"
	"github.com/storekeephq/storekeep-go/internal/infrastructure/caching/types"
)

// TrafficStore manages cached traffic analytics across tenants.
//
// LOCK HIERARCHY: the store mutex guards the tenant map only; each
// TenantTrafficCache carries its own RWMutex guarding its entries. Never
// hold both at once except map-then-cache in that order.
type TrafficStore struct {
	mu           sync.RWMutex
	tenantCaches map[string]*types.TenantTrafficCache
	ttl          time.Duration
}

// NewTrafficStore creates a traffic cache store with the given entry TTL.
func NewTrafficStore(ttl time.Duration) *TrafficStore {
	return &TrafficStore{
		tenantCaches: make(map[string]*types.TenantTrafficCache),
		ttl:          ttl,
	}
}

// TTL returns the configured entry lifetime.
func (s *TrafficStore) TTL() time.Duration { return s.ttl }

// InitializeTenant creates empty cache structures for a tenant.
func (s *TrafficStore) InitializeTenant(tenantID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tenantCaches[tenantID]; !exists {
		s.tenantCaches[tenantID] = types.NewTenantTrafficCache()
	}
}

// GetTenantCache returns the cache for a tenant, if it exists.
func (s *TrafficStore) GetTenantCache(tenantID string) (*types.TenantTrafficCache, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cache, exists := s.tenantCaches[tenantID]
	return cache, exists
}

func (s *TrafficStore) ensureTenantCache(tenantID string) *types.TenantTrafficCache {
	if cache, exists := s.GetTenantCache(tenantID); exists {
		return cache
	}
	s.InitializeTenant(tenantID)
	cache, _ := s.GetTenantCache(tenantID)
	return cache
}

// Lookup returns cached data covering the requested range, or a miss. An
// entry is eligible when its stored range fully contains the requested
// range and its TTL has not elapsed; an exact range match is preferred
// over a wider containing entry. Returned data is a copy tagged with
// cache provenance.
func (s *TrafficStore) Lookup(tenantID string, rng analytics.DateRange) (*analytics.TrafficData, bool) {
	cache, exists := s.GetTenantCache(tenantID)
	if !exists {
		return nil, false
	}

	now := time.Now().UTC()
	cache.Mu.RLock()
	defer cache.Mu.RUnlock()

	if entry, ok := cache.Entries[rng.Key()]; ok && entry.Covers(rng, now) {
		return taggedCopy(entry.Data), true
	}
	for key, entry := range cache.Entries {
		if key == rng.Key() {
			continue
		}
		if entry.Covers(rng, now) {
			return taggedCopy(entry.Data), true
		}
	}
	return nil, false
}

// Upsert stores fetched data under its exact range key, replacing any
// prior entry for that key and restarting the TTL.
func (s *TrafficStore) Upsert(tenantID string, rng analytics.DateRange, data *analytics.TrafficData) *types.TrafficCacheEntry {
	cache := s.ensureTenantCache(tenantID)

	now := time.Now().UTC()
	entry := &types.TrafficCacheEntry{
		ID:        ulid.Make().String(),
		Range:     rng,
		Data:      data.Clone(),
		CachedAt:  now,
		ExpiresAt: now.Add(s.ttl),
	}

	cache.Mu.Lock()
	defer cache.Mu.Unlock()
	cache.Entries[rng.Key()] = entry
	cache.LastUpdated = now
	return entry
}

// Restore places a previously persisted entry back into memory without
// restarting its TTL. Expired rows are ignored.
func (s *TrafficStore) Restore(row *types.PersistedTrafficEntry) {
	if row == nil || row.Data == nil {
		return
	}
	now := time.Now().UTC()
	if !now.Before(row.ExpiresAt) {
		return
	}
	cache := s.ensureTenantCache(row.TenantID)

	cache.Mu.Lock()
	defer cache.Mu.Unlock()
	cache.Entries[row.Range.Key()] = &types.TrafficCacheEntry{
		ID:        row.EntryID,
		Range:     row.Range,
		Data:      row.Data.Clone(),
		CachedAt:  row.CachedAt,
		ExpiresAt: row.ExpiresAt,
	}
	cache.LastUpdated = now
}

// InvalidateTenant removes every cached entry for a tenant.
func (s *TrafficStore) InvalidateTenant(tenantID string) int {
	cache, exists := s.GetTenantCache(tenantID)
	if !exists {
		return 0
	}
	cache.Mu.Lock()
	defer cache.Mu.Unlock()
	removed := len(cache.Entries)
	cache.Entries = make(map[string]*types.TrafficCacheEntry)
	cache.LastUpdated = time.Now().UTC()
	return removed
}

// PurgeExpired removes expired entries for a tenant and returns the count.
func (s *TrafficStore) PurgeExpired(tenantID string) int {
	cache, exists := s.GetTenantCache(tenantID)
	if !exists {
		return 0
	}

	now := time.Now().UTC()
	cache.Mu.Lock()
	defer cache.Mu.Unlock()

	var purged int
	for key, entry := range cache.Entries {
		if entry.Expired(now) {
			delete(cache.Entries, key)
			purged++
		}
	}
	if purged > 0 {
		cache.LastUpdated = now
	}
	return purged
}

// TenantIDs lists tenants with initialized caches.
func (s *TrafficStore) TenantIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.tenantCaches))
	for id := range s.tenantCaches {
		ids = append(ids, id)
	}
	return ids
}

// Summary returns per-tenant entry counts for status reporting.
func (s *TrafficStore) Summary() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tenants := make(map[string]any, len(s.tenantCaches))
	var total int
	for id, cache := range s.tenantCaches {
		cache.Mu.RLock()
		tenants[id] = map[string]any{
			"entries":     len(cache.Entries),
			"lastUpdated": cache.LastUpdated,
		}
		total += len(cache.Entries)
		cache.Mu.RUnlock()
	}
	return map[string]any{
		"tenants":      tenants,
		"totalEntries": total,
		"ttl":          s.ttl.String(),
	}
}

func taggedCopy(data *analytics.TrafficData) *analytics.TrafficData {
	out := data.Clone()
	out.Provenance = analytics.ProvenanceCache
	return out
}
