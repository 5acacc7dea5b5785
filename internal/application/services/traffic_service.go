package services

import (
	"context"
	"time"

	"github.com/storekeephq/storekeep-go/internal/domain/analytics"
	"github.com/storekeephq/storekeep-go/internal/domain/tenant"
	"github.com/storekeephq/storekeep-go/internal/infrastructure/caching/interfaces"
	"github.com/storekeephq/storekeep-go/internal/infrastructure/observability/logging"
	"github.com/storekeephq/storekeep-go/internal/infrastructure/observability/performance"
)

// Fetcher is the provider adapter contract consumed by the facade.
type Fetcher interface {
	Fetch(ctx context.Context, cfg tenant.ProviderConfig, rng analytics.DateRange) (*analytics.TrafficData, error)
	TestConnection(ctx context.Context, cfg tenant.ProviderConfig) error
}

// TrafficRequest describes one dashboard analytics request. From and To
// are nil for the default 30-day lookback.
type TrafficRequest struct {
	Tenant       tenant.Identity
	From         *time.Time
	To           *time.Time
	ForceRefresh bool
}

// ConnectionTestResult is the structured outcome of a provider
// connectivity check.
type ConnectionTestResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// TrafficService is the single entry point for dashboard traffic
// analytics. Every degradation (unknown tenant, disabled provider, fetch
// failure, timeout) is absorbed into synthetic fallback data; the only
// error a caller ever sees is an invalid requested range.
type TrafficService struct {
	resolver    *IdentityResolver
	cache       interfaces.TrafficCache
	fetcher     Fetcher
	coordinator *FetchCoordinator
	fallback    *FallbackService
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewTrafficService wires the traffic analytics facade.
func NewTrafficService(
	resolver *IdentityResolver,
	cache interfaces.TrafficCache,
	fetcher Fetcher,
	coordinator *FetchCoordinator,
	fallback *FallbackService,
	logger *logging.ChanneledLogger,
	perfTracker *performance.Tracker,
) *TrafficService {
	return &TrafficService{
		resolver:    resolver,
		cache:       cache,
		fetcher:     fetcher,
		coordinator: coordinator,
		fallback:    fallback,
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// GetTrafficData serves analytics for one tenant and range: cache first,
// then a coalesced provider fetch with write-through, then synthetic
// fallback. ForceRefresh skips the cache read but still writes through on
// success.
func (s *TrafficService) GetTrafficData(ctx context.Context, req TrafficRequest) (*analytics.TrafficData, error) {
	marker := s.perfTracker.StartOperation("get_traffic_data", req.Tenant.String())
	defer marker.Complete()

	rng, err := s.resolveRange(req)
	if err != nil {
		marker.SetError(err)
		return nil, err
	}

	rec, err := s.resolver.Resolve(ctx, req.Tenant)
	if err != nil {
		marker.AddMetadata("fallback", "unresolved_tenant")
		s.logger.Analytics().Warn("Serving synthetic data for unresolved tenant",
			"reference", req.Tenant.String(), "error", err)
		return s.fallback.Fallback(rng), nil
	}

	if !rec.Provider.Ready() {
		marker.AddMetadata("fallback", "provider_not_ready")
		s.logger.Analytics().Info("Analytics disabled for tenant, serving synthetic data",
			"tenantId", rec.ID)
		return s.fallback.Fallback(rng), nil
	}

	if !req.ForceRefresh {
		if data, hit := s.cache.Lookup(rec.ID, rng); hit {
			marker.AddMetadata("cacheHit", true)
			return data, nil
		}
	}

	data, err := s.coordinator.FetchOnce(rec.ID, rng, func(fctx context.Context) (*analytics.TrafficData, error) {
		fetched, ferr := s.fetcher.Fetch(fctx, rec.Provider, rng)
		if ferr != nil {
			return nil, ferr
		}
		// Cache writes use a detached context so a completed fetch is
		// stored even when the originating request has gone away.
		s.cache.Store(context.WithoutCancel(fctx), rec.ID, rng, fetched)
		return fetched, nil
	})
	if err != nil {
		marker.SetError(err)
		marker.AddMetadata("fallback", "fetch_failed")
		s.logger.Analytics().Warn("Provider fetch failed, serving synthetic data",
			"tenantId", rec.ID, "range", rng.Key(), "error", err)
		return s.fallback.Fallback(rng), nil
	}

	// Coalesced callers share one payload; hand out copies.
	return data.Clone(), nil
}

// TestConnection checks provider connectivity for a tenant without
// touching the cache. Failures come back as a structured result, not an
// error.
func (s *TrafficService) TestConnection(ctx context.Context, identity tenant.Identity) ConnectionTestResult {
	marker := s.perfTracker.StartOperation("test_connection", identity.String())
	defer marker.Complete()

	rec, err := s.resolver.Resolve(ctx, identity)
	if err != nil {
		marker.SetError(err)
		return ConnectionTestResult{Success: false, Message: err.Error()}
	}
	if !rec.Provider.Ready() {
		marker.SetSuccess(false)
		return ConnectionTestResult{
			Success: false,
			Message: "analytics provider is not configured for this tenant",
		}
	}

	if err := s.fetcher.TestConnection(ctx, rec.Provider); err != nil {
		marker.SetError(err)
		return ConnectionTestResult{Success: false, Message: err.Error()}
	}
	return ConnectionTestResult{Success: true, Message: "analytics provider connection verified"}
}

// Invalidate drops all cached analytics for a tenant. Called when
// provider credentials change so stale data from the old configuration
// cannot be served.
func (s *TrafficService) Invalidate(ctx context.Context, identity tenant.Identity) error {
	rec, err := s.resolver.Resolve(ctx, identity)
	if err != nil {
		return err
	}
	return s.cache.InvalidateTenant(ctx, rec.ID)
}

func (s *TrafficService) resolveRange(req TrafficRequest) (analytics.DateRange, error) {
	if req.From == nil && req.To == nil {
		return analytics.DefaultRange(time.Now().UTC()), nil
	}

	now := time.Now().UTC()
	from := now.AddDate(0, 0, -analytics.DefaultRangeDays)
	to := now
	if req.From != nil {
		from = *req.From
	}
	if req.To != nil {
		to = *req.To
	}

	rng := analytics.NewDateRange(from, to)
	if err := rng.Validate(); err != nil {
		return analytics.DateRange{}, err
	}
	return rng, nil
}
