package cleanup

import (
	"time"

	"github.com/storekeephq/storekeep-go/pkg/config"
)

// Config holds cleanup worker configuration, sourced from the central config package.
type Config struct {
	CleanupInterval time.Duration
	TrafficCacheTTL time.Duration
}

// NewConfig creates a new cleanup configuration by reading values
// from the already-initialized variables in the centralized /pkg/config package.
func NewConfig() *Config {
	return &Config{
		CleanupInterval: config.CleanupInterval,
		TrafficCacheTTL: config.TrafficCacheTTL,
	}
}
