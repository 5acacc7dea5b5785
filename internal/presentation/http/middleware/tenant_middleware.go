// Package middleware provides HTTP middleware for the presentation layer.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	domain "github.com/storekeephq/storekeep-go/internal/domain/tenant"
	"github.com/storekeephq/storekeep-go/internal/infrastructure/observability/performance"
	"github.com/storekeephq/storekeep-go/internal/infrastructure/tenant"
)

const tenantIdentityKey = "tenantIdentity"

// TenantMiddleware extracts and shape-validates the tenant reference from
// the request. Resolution against the configuration store is left to the
// analytics facade, which performs it once per request.
func TenantMiddleware(detector *tenant.Detector, perfTracker *performance.Tracker) gin.HandlerFunc {
	return func(c *gin.Context) {
		marker := perfTracker.StartOperation("middleware_tenant_detection", "unknown")
		defer marker.Complete()
		marker.AddMetadata("path", c.Request.URL.Path)

		identity, err := detector.DetectReference(c)
		if err != nil {
			marker.SetError(err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			c.Abort()
			return
		}

		marker.TenantID = identity.String()
		c.Set(tenantIdentityKey, identity)
		c.Next()
	}
}

// GetTenantIdentity retrieves the parsed tenant reference from gin context.
func GetTenantIdentity(c *gin.Context) (domain.Identity, bool) {
	v, exists := c.Get(tenantIdentityKey)
	if !exists {
		return domain.Identity{}, false
	}
	identity, ok := v.(domain.Identity)
	return identity, ok
}
