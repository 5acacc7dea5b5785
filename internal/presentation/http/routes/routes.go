// Package routes registers the HTTP API surface.
package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/storekeephq/storekeep-go/internal/application/container"
	"github.com/storekeephq/storekeep-go/internal/presentation/http/handlers"
	"github.com/storekeephq/storekeep-go/internal/presentation/http/middleware"
)

// SetupRoutes creates the router with all endpoints and middleware wired
// from the service container.
func SetupRoutes(c *container.Container) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware())

	trafficHandlers := handlers.NewTrafficHandlers(c.TrafficService, c.Logger)
	authHandlers := handlers.NewAuthHandlers(c.AuthService, c.Logger)
	tenantHandlers := handlers.NewTenantHandlers(c.TenantService, c.Logger)
	healthHandlers := handlers.NewHealthHandlers(c.CacheManager, c.PerfTracker, c.TenantStore)

	api := r.Group("/api/v1")
	{
		api.GET("/health", healthHandlers.Health)
		api.POST("/auth/login", authHandlers.Login)

		tenantScoped := api.Group("")
		tenantScoped.Use(middleware.TenantMiddleware(c.Detector, c.PerfTracker))
		{
			tenantScoped.GET("/analytics/traffic", trafficHandlers.GetTraffic)

			adminScoped := tenantScoped.Group("")
			adminScoped.Use(middleware.AdminAuthMiddleware())
			{
				adminScoped.POST("/analytics/traffic/test", trafficHandlers.TestConnection)
				adminScoped.POST("/analytics/traffic/invalidate", trafficHandlers.Invalidate)
			}
		}

		admin := api.Group("")
		admin.Use(middleware.AdminAuthMiddleware())
		{
			admin.POST("/tenants", tenantHandlers.Provision)
		}
	}

	return r
}
