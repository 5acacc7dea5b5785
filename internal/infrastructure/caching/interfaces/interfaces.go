// Package interfaces defines the cache contracts consumed by the
// application layer, keeping services decoupled from store internals.
package interfaces

import (
	"context"
	"time"

	"github.com/storekeephq/storekeep-go/internal/domain/analytics"
	"github.com/storekeephq/storekeep-go/internal/infrastructure/caching/types"
)

// TrafficCache is the tenant-scoped analytics cache surface.
type TrafficCache interface {
	Lookup(tenantID string, rng analytics.DateRange) (*analytics.TrafficData, bool)
	Store(ctx context.Context, tenantID string, rng analytics.DateRange, data *analytics.TrafficData)
	InvalidateTenant(ctx context.Context, tenantID string) error
	PurgeExpired(ctx context.Context) int
	Summary() map[string]any
}

// DurableTrafficStore persists cache entries across restarts. Writes are
// best effort behind the in-memory cache; reads only happen at startup
// rehydration and during cleanup.
type DurableTrafficStore interface {
	SaveEntry(ctx context.Context, row *types.PersistedTrafficEntry) error
	DeleteTenant(ctx context.Context, tenantID string) (int64, error)
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
	LoadActive(ctx context.Context, now time.Time) ([]*types.PersistedTrafficEntry, error)
}
