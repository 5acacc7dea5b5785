// Package tenants provides the SQL-backed tenant configuration store.
package tenants

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/storekeephq/storekeep-go/internal/domain/tenant"
	"github.com/storekeephq/storekeep-go/internal/infrastructure/observability/logging"
)

// ErrNotFound is returned when no tenant row matches a lookup.
var ErrNotFound = errors.New("tenant not found")

const schema = `
CREATE TABLE IF NOT EXISTS tenants (
    id TEXT PRIMARY KEY,
    legacy_id INTEGER UNIQUE,
    name TEXT NOT NULL DEFAULT '',
    ga_enabled INTEGER NOT NULL DEFAULT 0,
    ga_account_id TEXT NOT NULL DEFAULT '',
    ga_property_id TEXT NOT NULL DEFAULT '',
    ga_credentials BLOB,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_tenants_legacy_id ON tenants(legacy_id);
`

// Store reads and writes tenant rows in the platform database.
type Store struct {
	db     *sql.DB
	logger *logging.ChanneledLogger
}

// NewStore creates a tenant configuration store.
func NewStore(db *sql.DB, logger *logging.ChanneledLogger) *Store {
	return &Store{db: db, logger: logger}
}

// EnsureSchema creates the tenants table when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create tenants schema: %w", err)
	}
	return nil
}

const selectColumns = `id, legacy_id, name, ga_enabled, ga_account_id, ga_property_id, ga_credentials, created_at`

// FindByCanonicalID looks a tenant up by its canonical 24-char hex ID.
func (s *Store) FindByCanonicalID(ctx context.Context, id string) (*tenant.Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM tenants WHERE id = ?`, id)
	return s.scanRecord(row)
}

// FindByLegacyID looks a tenant up by its pre-migration numeric ID.
func (s *Store) FindByLegacyID(ctx context.Context, legacyID int64) (*tenant.Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM tenants WHERE legacy_id = ?`, legacyID)
	return s.scanRecord(row)
}

// Upsert inserts or replaces a tenant row.
func (s *Store) Upsert(ctx context.Context, rec *tenant.Record) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	var legacyID any
	if rec.LegacyID != nil {
		legacyID = *rec.LegacyID
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tenants (id, legacy_id, name, ga_enabled, ga_account_id, ga_property_id, ga_credentials, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			legacy_id = excluded.legacy_id,
			name = excluded.name,
			ga_enabled = excluded.ga_enabled,
			ga_account_id = excluded.ga_account_id,
			ga_property_id = excluded.ga_property_id,
			ga_credentials = excluded.ga_credentials`,
		rec.ID, legacyID, rec.Name, boolToInt(rec.Provider.Enabled),
		rec.Provider.AccountID, rec.Provider.PropertyID, rec.Provider.Credentials,
		rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert tenant %s: %w", rec.ID, err)
	}

	s.logger.Tenant().Info("Tenant record upserted", "tenantId", rec.ID, "gaEnabled", rec.Provider.Enabled)
	return nil
}

// Count returns the number of provisioned tenants.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tenants`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count tenants: %w", err)
	}
	return n, nil
}

func (s *Store) scanRecord(row *sql.Row) (*tenant.Record, error) {
	var rec tenant.Record
	var legacyID sql.NullInt64
	var gaEnabled int
	var credentials []byte

	err := row.Scan(&rec.ID, &legacyID, &rec.Name, &gaEnabled,
		&rec.Provider.AccountID, &rec.Provider.PropertyID, &credentials, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan tenant row: %w", err)
	}

	if legacyID.Valid {
		rec.LegacyID = &legacyID.Int64
	}
	rec.Provider.Enabled = gaEnabled != 0
	rec.Provider.Credentials = credentials
	return &rec, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

var _ tenant.ConfigStore = (*Store)(nil)
