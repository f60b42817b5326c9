// Package startup prepares the application server
package startup

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/FernworksMedia/sitepulse-go/internal/application/container"
	"github.com/FernworksMedia/sitepulse-go/internal/infrastructure/database"
	"github.com/FernworksMedia/sitepulse-go/internal/infrastructure/observability/logging"
	"github.com/FernworksMedia/sitepulse-go/internal/infrastructure/observability/performance"
	persistence "github.com/FernworksMedia/sitepulse-go/internal/infrastructure/persistence/database"
	"github.com/FernworksMedia/sitepulse-go/internal/presentation/http/server"
	"github.com/FernworksMedia/sitepulse-go/pkg/config"
	"github.com/gin-gonic/gin"
)

// Initialize performs the complete startup sequence
func Initialize() error {
	setupLogging()

	start := time.Now().UTC()

	log.Println("SitePulse analytics engine starting...")

	// Step 1: Channeled logger
	logger, err := logging.NewChanneledLogger(logging.DefaultLoggerConfig())
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logger.Close()

	logger.LogStartupPhase("logging", time.Since(start), true)

	// Step 2: Performance tracking
	perfTracker := performance.NewTracker(performance.DefaultTrackerConfig())

	// Step 3: Database connection
	logger.Startup().Info("Connecting to database...")
	dbStart := time.Now()
	db, err := openDatabase(logger)
	if err != nil {
		logger.LogStartupPhase("database", time.Since(dbStart), false)
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	logger.LogStartupPhase("database", time.Since(dbStart), true)

	// Step 4: Schema creation
	logger.Startup().Info("Ensuring database schema...")
	schemaStart := time.Now()
	tableCreator := database.NewTableCreator()
	if err := tableCreator.CreateSchema(db.DB); err != nil {
		logger.LogStartupPhase("schema", time.Since(schemaStart), false)
		return fmt.Errorf("failed to create schema: %w", err)
	}
	logger.LogStartupPhase("schema", time.Since(schemaStart), true)

	// Step 5: Dependency injection container
	logger.Startup().Info("Initializing dependency injection container...")
	appContainer := container.NewContainer(db, logger, perfTracker)
	logger.Startup().Info("Dependency injection container created with singleton services")

	// Step 6: HTTP server
	port := config.Port
	httpServer := server.New(port, appContainer)
	logger.Startup().Info("HTTP server initialized", "port", port)

	// Step 7: Graceful shutdown wiring
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
		"port", port,
		"analyticsEnabled", config.AnalyticsEnabled)

	// Wait for shutdown signal
	<-gracefulShutdown
	logger.Shutdown().Info("Shutdown signal received, starting graceful shutdown...")

	shutdownStart := time.Now()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger.Shutdown().Info("Stopping HTTP server...")
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

// openDatabase connects to Turso when configured, otherwise to the
// local SQLite file, creating its directory when needed.
func openDatabase(logger *logging.ChanneledLogger) (*persistence.DB, error) {
	if config.TursoDatabaseURL != "" && config.TursoAuthToken != "" {
		dsn := fmt.Sprintf("%s?authToken=%s", config.TursoDatabaseURL, config.TursoAuthToken)
		logger.Startup().Info("Using Turso database", "url", config.TursoDatabaseURL)
		return persistence.NewConnectionWithLogger("libsql", dsn, logger)
	}

	if dir := filepath.Dir(config.SQLitePath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	logger.Startup().Info("Using SQLite database", "path", config.SQLitePath)
	return persistence.NewConnectionWithLogger("sqlite3", config.SQLitePath, logger)
}

// setupLogging configures application logging
func setupLogging() {
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}
