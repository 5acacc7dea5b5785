package services

import (
	"context"
	"fmt"
	"time"

	"github.com/storekeephq/storekeep-go/internal/domain/tenant"
	"github.com/storekeephq/storekeep-go/internal/infrastructure/caching/interfaces"
	"github.com/storekeephq/storekeep-go/internal/infrastructure/observability/logging"
	"github.com/storekeephq/storekeep-go/internal/infrastructure/security"
)

// ProvisionRequest describes a tenant create-or-update. ID may be empty
// on create; a canonical ID is generated.
type ProvisionRequest struct {
	ID            string `json:"id"`
	LegacyID      *int64 `json:"legacyId"`
	Name          string `json:"name"`
	GAEnabled     bool   `json:"gaEnabled"`
	GAAccountID   string `json:"gaAccountId"`
	GAPropertyID  string `json:"gaPropertyId"`
	GACredentials string `json:"gaCredentials"`
}

// TenantService provisions tenant records and keeps the analytics cache
// consistent when provider configuration changes.
type TenantService struct {
	store  tenant.ConfigStore
	cache  interfaces.TrafficCache
	logger *logging.ChanneledLogger
}

// NewTenantService creates the tenant provisioning service.
func NewTenantService(store tenant.ConfigStore, cache interfaces.TrafficCache, logger *logging.ChanneledLogger) *TenantService {
	return &TenantService{store: store, cache: cache, logger: logger}
}

// Provision creates or updates a tenant. Any change to a tenant that
// already had cached analytics invalidates that cache, since credentials
// or property bindings may have moved.
func (s *TenantService) Provision(ctx context.Context, req ProvisionRequest) (*tenant.Record, error) {
	id := req.ID
	if id == "" {
		generated, err := security.GenerateTenantID()
		if err != nil {
			return nil, fmt.Errorf("failed to generate tenant id: %w", err)
		}
		id = generated
	} else if !tenant.IsCanonicalID(id) {
		return nil, fmt.Errorf("tenant id %q is not a canonical 24-char hex id", req.ID)
	}

	if req.LegacyID != nil && *req.LegacyID <= 0 {
		return nil, fmt.Errorf("legacy id must be positive, got %d", *req.LegacyID)
	}

	rec := &tenant.Record{
		ID:       id,
		LegacyID: req.LegacyID,
		Name:     req.Name,
		Provider: tenant.ProviderConfig{
			Enabled:     req.GAEnabled,
			AccountID:   req.GAAccountID,
			PropertyID:  req.GAPropertyID,
			Credentials: []byte(req.GACredentials),
		},
		CreatedAt: time.Now().UTC(),
	}

	if err := s.store.Upsert(ctx, rec); err != nil {
		return nil, err
	}

	if err := s.cache.InvalidateTenant(ctx, rec.ID); err != nil {
		s.logger.Tenant().Error("Cache invalidation after provisioning failed",
			"tenantId", rec.ID, "error", err)
	}
	return rec, nil
}
