// Package handlers provides HTTP handlers for the traffic analytics API.
package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/storekeephq/storekeep-go/internal/application/services"
	"github.com/storekeephq/storekeep-go/internal/domain/analytics"
	"github.com/storekeephq/storekeep-go/internal/infrastructure/observability/logging"
)

const dateLayout = "2006-01-02"

// TrafficHandlers serves the tenant-scoped traffic analytics endpoints.
type TrafficHandlers struct {
	trafficService *services.TrafficService
	logger         *logging.ChanneledLogger
}

// NewTrafficHandlers creates traffic handlers with injected services.
func NewTrafficHandlers(trafficService *services.TrafficService, logger *logging.ChanneledLogger) *TrafficHandlers {
	return &TrafficHandlers{trafficService: trafficService, logger: logger}
}

// GetTraffic handles GET /api/v1/analytics/traffic
func (h *TrafficHandlers) GetTraffic(c *gin.Context) {
	identity, ok := GetIdentity(c)
	if !ok {
		return
	}

	req := services.TrafficRequest{Tenant: identity}

	if fromStr := c.Query("from"); fromStr != "" {
		from, err := time.ParseInLocation(dateLayout, fromStr, time.UTC)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from date, expected YYYY-MM-DD"})
			return
		}
		req.From = &from
	}
	if toStr := c.Query("to"); toStr != "" {
		to, err := time.ParseInLocation(dateLayout, toStr, time.UTC)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to date, expected YYYY-MM-DD"})
			return
		}
		req.To = &to
	}
	if refreshStr := c.Query("forceRefresh"); refreshStr != "" {
		req.ForceRefresh, _ = strconv.ParseBool(refreshStr)
	}

	data, err := h.trafficService.GetTrafficData(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, data)
}

// TestConnection handles POST /api/v1/analytics/traffic/test
func (h *TrafficHandlers) TestConnection(c *gin.Context) {
	identity, ok := GetIdentity(c)
	if !ok {
		return
	}

	result := h.trafficService.TestConnection(c.Request.Context(), identity)
	c.JSON(http.StatusOK, result)
}

// Invalidate handles POST /api/v1/analytics/traffic/invalidate
func (h *TrafficHandlers) Invalidate(c *gin.Context) {
	identity, ok := GetIdentity(c)
	if !ok {
		return
	}

	if err := h.trafficService.Invalidate(c.Request.Context(), identity); err != nil {
		if errors.Is(err, analytics.ErrUnknownTenant) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.logger.Analytics().Error("Cache invalidation failed",
			"reference", identity.String(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to invalidate cache"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "invalidated"})
}
