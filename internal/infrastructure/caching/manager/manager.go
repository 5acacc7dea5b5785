// Package manager coordinates the in-memory traffic cache with its
// optional durable backing store.
package manager

import (
	"context"
	"fmt"
	"time"

	"github.com/storekeephq/storekeep-go/internal/domain/analytics"
	"github.com/storekeephq/storekeep-go/internal/infrastructure/caching/interfaces"
	"github.com/storekeephq/storekeep-go/internal/infrastructure/caching/stores"
	"github.com/storekeephq/storekeep-go/internal/infrastructure/caching/types"
	"github.com/storekeephq/storekeep-go/internal/infrastructure/observability/logging"
)

// Manager is the cache facade handed to services. Reads are served from
// memory only; the durable store (when configured) receives write-through
// copies and is replayed once at startup.
type Manager struct {
	store   *stores.TrafficStore
	durable interfaces.DurableTrafficStore
	logger  *logging.ChanneledLogger
}

// NewManager creates a cache manager. durable may be nil when durable
// caching is disabled.
func NewManager(store *stores.TrafficStore, durable interfaces.DurableTrafficStore, logger *logging.ChanneledLogger) *Manager {
	return &Manager{store: store, durable: durable, logger: logger}
}

// Lookup serves a request from memory, range-containment aware.
func (m *Manager) Lookup(tenantID string, rng analytics.DateRange) (*analytics.TrafficData, bool) {
	data, hit := m.store.Lookup(tenantID, rng)
	if hit {
		m.logger.Cache().Debug("Traffic cache hit", "tenantId", tenantID, "range", rng.Key())
	} else {
		m.logger.Cache().Debug("Traffic cache miss", "tenantId", tenantID, "range", rng.Key())
	}
	return data, hit
}

// Store upserts fetched data into memory and, when configured, writes the
// entry through to durable storage. Durable failures are logged, never
// surfaced; the memory cache is authoritative.
func (m *Manager) Store(ctx context.Context, tenantID string, rng analytics.DateRange, data *analytics.TrafficData) {
	entry := m.store.Upsert(tenantID, rng, data)
	m.logger.Cache().Info("Traffic cache updated",
		"tenantId", tenantID, "range", rng.Key(), "entryId", entry.ID, "expiresAt", entry.ExpiresAt)

	if m.durable == nil {
		return
	}
	row := &types.PersistedTrafficEntry{
		TenantID:  tenantID,
		EntryID:   entry.ID,
		Range:     entry.Range,
		Data:      entry.Data,
		CachedAt:  entry.CachedAt,
		ExpiresAt: entry.ExpiresAt,
	}
	if err := m.durable.SaveEntry(ctx, row); err != nil {
		m.logger.Cache().Error("Durable cache write failed", "tenantId", tenantID, "error", err)
	}
}

// InvalidateTenant drops every entry for a tenant from memory and durable
// storage. Used when provider credentials change.
func (m *Manager) InvalidateTenant(ctx context.Context, tenantID string) error {
	removed := m.store.InvalidateTenant(tenantID)
	m.logger.Cache().Info("Traffic cache invalidated", "tenantId", tenantID, "removed", removed)

	if m.durable == nil {
		return nil
	}
	if _, err := m.durable.DeleteTenant(ctx, tenantID); err != nil {
		return fmt.Errorf("failed to invalidate durable cache for tenant %s: %w", tenantID, err)
	}
	return nil
}

// PurgeExpired sweeps expired entries from every tenant cache and from
// durable storage. Called by the cleanup worker.
func (m *Manager) PurgeExpired(ctx context.Context) int {
	var purged int
	for _, tenantID := range m.store.TenantIDs() {
		purged += m.store.PurgeExpired(tenantID)
	}
	if m.durable != nil {
		if n, err := m.durable.PurgeExpired(ctx, time.Now().UTC()); err != nil {
			m.logger.Cache().Error("Durable cache purge failed", "error", err)
		} else {
			purged += int(n)
		}
	}
	return purged
}

// Rehydrate replays non-expired durable entries into memory. Runs once at
// startup so restarts do not re-fetch recently cached ranges.
func (m *Manager) Rehydrate(ctx context.Context) error {
	if m.durable == nil {
		return nil
	}
	rows, err := m.durable.LoadActive(ctx, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to load durable cache entries: %w", err)
	}
	for _, row := range rows {
		m.store.Restore(row)
	}
	if len(rows) > 0 {
		m.logger.Cache().Info("Traffic cache rehydrated", "entries", len(rows))
	}
	return nil
}

// Summary reports cache occupancy for the health endpoint.
func (m *Manager) Summary() map[string]any {
	return m.store.Summary()
}

var _ interfaces.TrafficCache = (*Manager)(nil)
