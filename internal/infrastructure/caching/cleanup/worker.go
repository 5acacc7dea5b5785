// Package cleanup provides the background cache cleanup worker
package cleanup

import (
	"context"
	"log"
	"time"

	"github.com/storekeephq/storekeep-go/internal/infrastructure/caching/manager"
)

// Worker sweeps expired traffic cache entries on a fixed interval.
type Worker struct {
	cache  *manager.Manager
	config *Config
}

// NewWorker creates a new cleanup worker with injected configuration
func NewWorker(cache *manager.Manager, config *Config) *Worker {
	return &Worker{
		cache:  cache,
		config: config,
	}
}

// Start begins the cleanup worker routine, using the configured interval
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.config.CleanupInterval)
	defer ticker.Stop()

	log.Printf("Cache cleanup worker started (interval: %v, ttl: %v)",
		w.config.CleanupInterval, w.config.TrafficCacheTTL)

	for {
		select {
		case <-ctx.Done():
			log.Println("Cache cleanup worker stopping...")
			return
		case <-ticker.C:
			w.performCleanup(ctx)
		}
	}
}

func (w *Worker) performCleanup(ctx context.Context) {
	start := time.Now()
	purged := w.cache.PurgeExpired(ctx)
	if purged > 0 {
		log.Printf("Cache cleanup finished: %d expired entries removed in %v", purged, time.Since(start))
	}
}
