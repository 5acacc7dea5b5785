package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/storekeephq/storekeep-go/internal/application/services"
	"github.com/storekeephq/storekeep-go/internal/infrastructure/observability/logging"
)

// TenantHandlers serves tenant provisioning for the admin surface.
type TenantHandlers struct {
	tenantService *services.TenantService
	logger        *logging.ChanneledLogger
}

// NewTenantHandlers creates tenant handlers with injected services.
func NewTenantHandlers(tenantService *services.TenantService, logger *logging.ChanneledLogger) *TenantHandlers {
	return &TenantHandlers{tenantService: tenantService, logger: logger}
}

// Provision handles POST /api/v1/tenants
func (h *TenantHandlers) Provision(c *gin.Context) {
	var req services.ProvisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tenant payload"})
		return
	}

	rec, err := h.tenantService.Provision(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, rec)
}
