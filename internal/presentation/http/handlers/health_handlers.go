package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/storekeephq/storekeep-go/internal/infrastructure/caching/manager"
	"github.com/storekeephq/storekeep-go/internal/infrastructure/observability/performance"
	"github.com/storekeephq/storekeep-go/internal/infrastructure/persistence/tenants"
)

// HealthHandlers serves the service status endpoint.
type HealthHandlers struct {
	cacheManager *manager.Manager
	perfTracker  *performance.Tracker
	tenantStore  *tenants.Store
	startedAt    time.Time
}

// NewHealthHandlers creates health handlers with injected services.
func NewHealthHandlers(cacheManager *manager.Manager, perfTracker *performance.Tracker, tenantStore *tenants.Store) *HealthHandlers {
	return &HealthHandlers{
		cacheManager: cacheManager,
		perfTracker:  perfTracker,
		tenantStore:  tenantStore,
		startedAt:    time.Now().UTC(),
	}
}

// Health handles GET /api/v1/health
func (h *HealthHandlers) Health(c *gin.Context) {
	tenantCount, err := h.tenantStore.Count(c.Request.Context())
	status := "ok"
	if err != nil {
		status = "degraded"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      status,
		"uptime":      time.Since(h.startedAt).String(),
		"tenants":     tenantCount,
		"cache":       h.cacheManager.Summary(),
		"performance": h.perfTracker.Summary(),
	})
}
