// Package container wires the application's singleton services.
package container

import (
	"github.com/storekeephq/storekeep-go/internal/application/services"
	"github.com/storekeephq/storekeep-go/internal/infrastructure/caching/interfaces"
	"github.com/storekeephq/storekeep-go/internal/infrastructure/caching/manager"
	"github.com/storekeephq/storekeep-go/internal/infrastructure/observability/logging"
	"github.com/storekeephq/storekeep-go/internal/infrastructure/observability/performance"
	"github.com/storekeephq/storekeep-go/internal/infrastructure/persistence/tenants"
	"github.com/storekeephq/storekeep-go/internal/infrastructure/providers/ga4"
	"github.com/storekeephq/storekeep-go/internal/infrastructure/tenant"
	"github.com/storekeephq/storekeep-go/pkg/config"
)

// Container holds all singleton services for dependency injection
type Container struct {
	Logger      *logging.ChanneledLogger
	PerfTracker *performance.Tracker

	Detector     *tenant.Detector
	TenantStore  *tenants.Store
	CacheManager *manager.Manager

	IdentityResolver *services.IdentityResolver
	FetchCoordinator *services.FetchCoordinator
	FallbackService  *services.FallbackService
	TrafficService   *services.TrafficService
	TenantService    *services.TenantService
	AuthService      *services.AuthService
}

// NewContainer creates the fully wired service container.
func NewContainer(
	logger *logging.ChanneledLogger,
	perfTracker *performance.Tracker,
	tenantStore *tenants.Store,
	cacheManager *manager.Manager,
) *Container {
	detector := tenant.NewDetector(logger)
	resolver := services.NewIdentityResolver(tenantStore, logger)
	coordinator := services.NewFetchCoordinator(config.ProviderTimeout, logger, perfTracker)
	fallback := services.NewFallbackService(logger)
	fetcher := ga4.NewClient(logger)

	var cache interfaces.TrafficCache = cacheManager
	trafficService := services.NewTrafficService(
		resolver, cache, fetcher, coordinator, fallback, logger, perfTracker)

	return &Container{
		Logger:           logger,
		PerfTracker:      perfTracker,
		Detector:         detector,
		TenantStore:      tenantStore,
		CacheManager:     cacheManager,
		IdentityResolver: resolver,
		FetchCoordinator: coordinator,
		FallbackService:  fallback,
		TrafficService:   trafficService,
		TenantService:    services.NewTenantService(tenantStore, cache, logger),
		AuthService:      services.NewAuthService(logger),
	}
}
