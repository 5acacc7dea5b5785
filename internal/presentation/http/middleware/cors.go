package middleware

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	appconfig "github.com/storekeephq/storekeep-go/pkg/config"
)

// CORSMiddleware provides CORS configuration for dashboard clients
func CORSMiddleware() gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods: []string{
			"GET", "POST", "PUT", "DELETE", "OPTIONS",
		},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Accept", "Authorization",
			"X-Tenant-ID", "X-Requested-With", "Cache-Control",
		},
		ExposeHeaders: []string{
			"Content-Type", "Cache-Control",
		},
	}

	if len(appconfig.AllowedOrigins) == 1 && appconfig.AllowedOrigins[0] == "*" {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = appconfig.AllowedOrigins
		cfg.AllowCredentials = true
	}

	return cors.New(cfg)
}
