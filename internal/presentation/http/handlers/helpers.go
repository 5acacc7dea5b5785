package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/storekeephq/storekeep-go/internal/domain/tenant"
	"github.com/storekeephq/storekeep-go/internal/presentation/http/middleware"
)

// GetIdentity pulls the tenant identity placed by the tenant middleware,
// writing the error response itself when absent.
func GetIdentity(c *gin.Context) (tenant.Identity, bool) {
	identity, ok := middleware.GetTenantIdentity(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tenant reference not resolved"})
		return tenant.Identity{}, false
	}
	return identity, true
}
