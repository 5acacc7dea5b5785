// Package services contains the stateless application services behind the
// HTTP handlers.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/storekeephq/storekeep-go/internal/domain/analytics"
	"github.com/storekeephq/storekeep-go/internal/domain/tenant"
	"github.com/storekeephq/storekeep-go/internal/infrastructure/observability/logging"
	"github.com/storekeephq/storekeep-go/internal/infrastructure/persistence/tenants"
)

// IdentityResolver maps tenant references (canonical or legacy numeric)
// onto tenant records. Resolution costs one store lookup per call and is
// deliberately uncached: legacy references are a shrinking minority and a
// mapping cache would only add an invalidation surface.
type IdentityResolver struct {
	store  tenant.ConfigStore
	logger *logging.ChanneledLogger
}

// NewIdentityResolver creates an identity resolver backed by the tenant
// configuration store.
func NewIdentityResolver(store tenant.ConfigStore, logger *logging.ChanneledLogger) *IdentityResolver {
	return &IdentityResolver{store: store, logger: logger}
}

// Resolve returns the tenant record for a parsed reference. A reference
// that matches no tenant yields ErrUnknownTenant regardless of form.
func (r *IdentityResolver) Resolve(ctx context.Context, identity tenant.Identity) (*tenant.Record, error) {
	var rec *tenant.Record
	var err error

	if legacyID, ok := identity.Legacy(); ok {
		rec, err = r.store.FindByLegacyID(ctx, legacyID)
	} else {
		canonical, _ := identity.Canonical()
		rec, err = r.store.FindByCanonicalID(ctx, canonical)
	}

	if errors.Is(err, tenants.ErrNotFound) {
		r.logger.Tenant().Warn("Tenant reference resolved to nothing", "reference", identity.String())
		return nil, fmt.Errorf("%w: %s", analytics.ErrUnknownTenant, identity.String())
	}
	if err != nil {
		return nil, fmt.Errorf("tenant lookup failed for %s: %w", identity.String(), err)
	}
	return rec, nil
}
