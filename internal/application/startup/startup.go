// Package startup prepares the application server
package startup

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/storekeephq/storekeep-go/internal/application/container"
	"github.com/storekeephq/storekeep-go/internal/infrastructure/caching/cleanup"
	"github.com/storekeephq/storekeep-go/internal/infrastructure/caching/manager"
	"github.com/storekeephq/storekeep-go/internal/infrastructure/caching/stores"
	"github.com/storekeephq/storekeep-go/internal/infrastructure/observability/logging"
	"github.com/storekeephq/storekeep-go/internal/infrastructure/observability/performance"
	"github.com/storekeephq/storekeep-go/internal/infrastructure/persistence/tenants"
	persistedtraffic "github.com/storekeephq/storekeep-go/internal/infrastructure/persistence/traffic"
	"github.com/storekeephq/storekeep-go/internal/infrastructure/tenant"
	"github.com/storekeephq/storekeep-go/internal/presentation/http/server"
	"github.com/storekeephq/storekeep-go/pkg/config"
)

// Initialize performs the complete startup sequence
func Initialize() error {
	setupLogging()

	start := time.Now().UTC()

	ctx, cancelBackgroundTasks := context.WithCancel(context.Background())
	defer cancelBackgroundTasks()

	log.Println("StoreKeep analytics service initializing...")

	// Step 1: Create the channeled logger
	logger, err := logging.NewChanneledLogger(logging.DefaultLoggerConfig())
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	perfTracker := performance.NewTracker(logger, 2*time.Second)

	// Step 2: Open the platform database
	log.Println("Opening platform database...")
	db, err := tenant.NewDatabase()
	if err != nil {
		return fmt.Errorf("failed to open platform database: %w", err)
	}
	defer db.Close()
	log.Printf("✓ Platform database ready: %s", db.GetConnectionInfo())

	// Step 3: Ensure schema
	log.Println("Ensuring database schema...")
	tenantStore := tenants.NewStore(db.Conn, logger)
	if err := tenantStore.EnsureSchema(ctx); err != nil {
		return err
	}
	durableStore := persistedtraffic.NewStore(db.Conn, logger)
	if err := durableStore.EnsureSchema(ctx); err != nil {
		return err
	}
	log.Println("✓ Database schema verified")

	tenantCount, err := tenantStore.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count tenants: %w", err)
	}
	log.Printf("Found %d provisioned tenants", tenantCount)

	// Step 4: Initialize the cache system
	log.Println("Initializing traffic cache...")
	trafficStore := stores.NewTrafficStore(config.TrafficCacheTTL)
	var cacheManager *manager.Manager
	if config.DurableCacheEnable {
		cacheManager = manager.NewManager(trafficStore, durableStore, logger)
		if err := cacheManager.Rehydrate(ctx); err != nil {
			logger.Startup().Warn("Durable cache rehydration failed", "error", err.Error())
		}
	} else {
		cacheManager = manager.NewManager(trafficStore, nil, logger)
	}
	log.Println("✓ Traffic cache initialized")

	// Step 5: Create dependency injection container
	log.Println("Initializing dependency injection container...")
	appContainer := container.NewContainer(logger, perfTracker, tenantStore, cacheManager)
	log.Println("✓ Dependency injection container created with singleton services.")

	logger.Startup().Info("Container initialization complete - switching to channeled logging")

	// Step 6: Start background cleanup worker
	logger.Startup().Info("Starting background cleanup worker...")
	cleanupWorker := cleanup.NewWorker(cacheManager, cleanup.NewConfig())
	go cleanupWorker.Start(ctx)

	// Step 7: Start HTTP server
	logger.Startup().Info("Starting HTTP server...")
	port := config.Port
	httpServer := server.New(port, appContainer)

	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.System().Info("Starting HTTP server", "address", ":"+port)
		if err := httpServer.Start(); err != nil {
			logger.System().Error("HTTP server failed", "error", err.Error())
		}
	}()

	logger.Startup().Info("Application startup complete",
		"totalDuration", time.Since(start),
		"tenants", tenantCount,
		"port", port)

	// Wait for shutdown signal
	<-gracefulShutdown
	logger.Shutdown().Info("Shutdown signal received, starting graceful shutdown...")

	shutdownStart := time.Now()
	cancelBackgroundTasks()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Shutdown().Error("Error during server shutdown", "error", err.Error())
	} else {
		logger.Shutdown().Info("HTTP server stopped successfully")
	}

	logger.Shutdown().Info("Application shutdown complete",
		"totalUptime", time.Since(start),
		"shutdownDuration", time.Since(shutdownStart))

	return nil
}

// setupLogging configures application logging
func setupLogging() {
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
}
