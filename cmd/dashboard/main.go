package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"trade-dashboard-sync/internal/analytics"
	"trade-dashboard-sync/internal/config"
	"trade-dashboard-sync/internal/dashboard"
	"trade-dashboard-sync/internal/database"
	"trade-dashboard-sync/internal/logger"
	"trade-dashboard-sync/internal/web"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load application configuration
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		// We can't use the logger here because it's not initialized yet.
		panic(fmt.Sprintf("could not load config: %v", err))
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Logger)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	log.Info("Configuration loaded")

	if cfg.Logger.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	client := analytics.NewClient(&cfg.API, log.Named("analytics"))

	var opts []dashboard.Option
	if cfg.Database.DSN != "" {
		db, err := database.NewDatabase(&cfg.Database)
		if err != nil {
			log.Fatal("Failed to open preferences database", zap.Error(err))
		}
		opts = append(opts, dashboard.WithPreferenceStore(database.NewPreferencesRepository(db, cfg.Database.Profile)))
		log.Info("Preferences database ready", zap.String("profile", cfg.Database.Profile))
	}

	orchestrator, err := dashboard.NewOrchestrator(log.Named("dashboard"), &cfg, client, opts...)
	if err != nil {
		log.Fatal("Invalid dashboard configuration", zap.Error(err))
	}

	server, err := web.NewServer(&cfg, orchestrator, client, log)
	if err != nil {
		log.Fatal("Failed to create web server", zap.Error(err))
	}

	// Setup context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	orchestrator.Start(ctx)
	server.Start()

	<-ctx.Done()
	log.Info("Shutdown signal received, gracefully shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	// Closing the orchestrator ends open event streams, which Shutdown would wait on.
	orchestrator.Close()
	if err := server.Stop(shutdownCtx); err != nil {
		log.Error("Web server shutdown failed", zap.Error(err))
	}

	log.Info("Dashboard has been shut down.")
}
