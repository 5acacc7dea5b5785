package tenant

import (
	"context"
	"time"
)

// ProviderConfig is a tenant's analytics provider configuration as stored
// in the platform database. Credentials are the raw service-account JSON
// for the tenant's Google Analytics property.
type ProviderConfig struct {
	Enabled     bool   `json:"enabled"`
	AccountID   string `json:"accountId"`
	PropertyID  string `json:"propertyId"`
	Credentials []byte `json:"-"`
}

// Ready reports whether the configuration is complete enough to attempt
// a provider call. A tenant that is not Ready gets synthetic data and
// never triggers network traffic.
func (c ProviderConfig) Ready() bool {
	return c.Enabled && c.AccountID != "" && c.PropertyID != ""
}

// Record is one tenant row. LegacyID is nil for tenants provisioned after
// the document-store migration.
type Record struct {
	ID        string         `json:"id"`
	LegacyID  *int64         `json:"legacyId,omitempty"`
	Name      string         `json:"name"`
	Provider  ProviderConfig `json:"provider"`
	CreatedAt time.Time      `json:"createdAt"`
}

// ConfigStore is the tenant configuration lookup contract served by the
// platform database. Both lookups return ErrNotFound from the
// implementing package when no row matches; callers map that to the
// unknown-tenant failure.
type ConfigStore interface {
	FindByCanonicalID(ctx context.Context, id string) (*Record, error)
	FindByLegacyID(ctx context.Context, legacyID int64) (*Record, error)
	Upsert(ctx context.Context, rec *Record) error
}
