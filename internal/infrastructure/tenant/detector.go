package tenant

import (
	"fmt"

	"github.com/gin-gonic/gin"

	domain "github.com/storekeephq/storekeep-go/internal/domain/tenant"
	"github.com/storekeephq/storekeep-go/internal/infrastructure/observability/logging"
)

// Detector extracts the tenant reference from HTTP requests. It only
// validates the reference's shape; resolution against the configuration
// store happens once, inside the analytics facade.
type Detector struct {
	logger *logging.ChanneledLogger
}

// NewDetector creates a new tenant detector
func NewDetector(logger *logging.ChanneledLogger) *Detector {
	return &Detector{logger: logger}
}

// DetectReference pulls the tenant reference from the X-Tenant-ID header,
// falling back to the tenantRef query parameter for clients that cannot
// set custom headers.
func (d *Detector) DetectReference(c *gin.Context) (domain.Identity, error) {
	ref := c.GetHeader("X-Tenant-ID")
	if ref == "" {
		ref = c.Query("tenantRef")
	}
	if ref == "" {
		return domain.Identity{}, fmt.Errorf("missing tenant reference")
	}

	identity, err := domain.ParseReference(ref)
	if err != nil {
		d.logger.Tenant().Warn("Rejected tenant reference", "reference", ref, "error", err)
		return domain.Identity{}, err
	}
	return identity, nil
}
