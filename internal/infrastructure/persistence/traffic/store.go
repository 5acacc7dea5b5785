// Package traffic persists traffic cache entries so a restart does not
// re-fetch recently cached ranges.
package traffic

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/storekeephq/storekeep-go/internal/domain/analytics"
	"github.com/storekeephq/storekeep-go/internal/infrastructure/caching/interfaces"
	"github.com/storekeephq/storekeep-go/internal/infrastructure/caching/types"
	"github.com/storekeephq/storekeep-go/internal/infrastructure/observability/logging"
)

const schema = `
CREATE TABLE IF NOT EXISTS traffic_cache (
    tenant_id TEXT NOT NULL,
    range_from TEXT NOT NULL,
    range_to TEXT NOT NULL,
    entry_id TEXT NOT NULL,
    payload BLOB NOT NULL,
    cached_at TIMESTAMP NOT NULL,
    expires_at TIMESTAMP NOT NULL,
    PRIMARY KEY (tenant_id, range_from, range_to)
);
CREATE INDEX IF NOT EXISTS idx_traffic_cache_expires ON traffic_cache(expires_at);
`

const dateLayout = "2006-01-02"

// Store is the durable write-through target behind the in-memory cache.
type Store struct {
	db     *sql.DB
	logger *logging.ChanneledLogger
}

// NewStore creates a durable traffic cache store.
func NewStore(db *sql.DB, logger *logging.ChanneledLogger) *Store {
	return &Store{db: db, logger: logger}
}

// EnsureSchema creates the traffic_cache table when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create traffic_cache schema: %w", err)
	}
	return nil
}

// SaveEntry writes one cache entry, replacing any prior row for the same
// tenant and range.
func (s *Store) SaveEntry(ctx context.Context, row *types.PersistedTrafficEntry) error {
	payload, err := json.Marshal(row.Data)
	if err != nil {
		return fmt.Errorf("failed to encode traffic payload: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO traffic_cache (tenant_id, range_from, range_to, entry_id, payload, cached_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(tenant_id, range_from, range_to) DO UPDATE SET
			entry_id = excluded.entry_id,
			payload = excluded.payload,
			cached_at = excluded.cached_at,
			expires_at = excluded.expires_at`,
		row.TenantID, row.Range.From.Format(dateLayout), row.Range.To.Format(dateLayout),
		row.EntryID, payload, row.CachedAt, row.ExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to persist traffic cache entry: %w", err)
	}
	return nil
}

// DeleteTenant removes every persisted entry for a tenant.
func (s *Store) DeleteTenant(ctx context.Context, tenantID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM traffic_cache WHERE tenant_id = ?`, tenantID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete traffic cache for tenant %s: %w", tenantID, err)
	}
	return res.RowsAffected()
}

// PurgeExpired removes rows whose TTL elapsed before now.
func (s *Store) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM traffic_cache WHERE expires_at <= ?`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired traffic cache rows: %w", err)
	}
	return res.RowsAffected()
}

// LoadActive returns all non-expired rows for startup rehydration.
func (s *Store) LoadActive(ctx context.Context, now time.Time) ([]*types.PersistedTrafficEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT tenant_id, range_from, range_to, entry_id, payload, cached_at, expires_at
		FROM traffic_cache WHERE expires_at > ?`, now)
	if err != nil {
		return nil, fmt.Errorf("failed to load traffic cache rows: %w", err)
	}
	defer rows.Close()

	var out []*types.PersistedTrafficEntry
	for rows.Next() {
		var entry types.PersistedTrafficEntry
		var fromStr, toStr string
		var payload []byte

		if err := rows.Scan(&entry.TenantID, &fromStr, &toStr, &entry.EntryID,
			&payload, &entry.CachedAt, &entry.ExpiresAt); err != nil {
			return nil, fmt.Errorf("failed to scan traffic cache row: %w", err)
		}

		from, err := time.ParseInLocation(dateLayout, fromStr, time.UTC)
		if err != nil {
			s.logger.Database().Warn("Skipping traffic cache row with bad range", "from", fromStr)
			continue
		}
		to, err := time.ParseInLocation(dateLayout, toStr, time.UTC)
		if err != nil {
			s.logger.Database().Warn("Skipping traffic cache row with bad range", "to", toStr)
			continue
		}
		entry.Range = analytics.NewDateRange(from, to)

		var data analytics.TrafficData
		if err := json.Unmarshal(payload, &data); err != nil {
			s.logger.Database().Warn("Skipping undecodable traffic cache row",
				"tenantId", entry.TenantID, "error", err)
			continue
		}
		entry.Data = &data
		out = append(out, &entry)
	}
	return out, rows.Err()
}

var _ interfaces.DurableTrafficStore = (*Store)(nil)
