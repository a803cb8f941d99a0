package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"zonuko/internal/config"
	"zonuko/internal/database"
	"zonuko/internal/handlers"
	"zonuko/internal/logger"
	"zonuko/internal/repository"
	"zonuko/internal/security"
	"zonuko/internal/service"
)

func main() {
	// Load configuration
	cfg := config.Load()

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx := context.Background()

	// Initialize database with config (supports sqlite, postgres, mysql)
	db, err := database.Open(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize database", "error", err)
	}
	defer db.Close()

	log.Info("Database connection established", "type", cfg.DatabaseType)

	if err := db.RunMigrations(ctx); err != nil {
		log.Fatal("Failed to run migrations", "error", err)
	}

	pacing := config.LoadPacing(cfg.PacingConfigPath, log)

	rdb, err := repository.NewRedisClient(ctx, cfg.RedisAddr)
	if err != nil {
		log.Warn("Catalog cache disabled", "error", err)
	}
	if rdb != nil {
		defer rdb.Close()
	}
	catalog := repository.NewCachedCatalog(repository.NewCatalogRepository(db), rdb, cfg.CatalogCacheTTL, log)

	emailService, err := service.NewEmailService(ctx, cfg.AWSRegion, cfg.EmailFrom, cfg.EmailFromName, cfg.AppBaseURL, cfg.EmailDebug, log)
	if err != nil {
		log.Fatal("Failed to initialize email service", "error", err)
	}

	tokens, err := security.NewChildTokens(cfg.ChildTokenSecret, cfg.ChildTokenTTL)
	if err != nil {
		log.Fatal("Invalid child token configuration", "error", err)
	}
	limiter := security.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)
	defer limiter.Stop()

	// Initialize services
	dashboardService := service.NewDashboardService(db, catalog, pacing, log)
	progressService := service.NewProgressService(db, pacing, emailService, log)

	// Initialize handlers
	middleware := handlers.NewMiddleware(tokens, repository.NewChildRepository(db), limiter, log)
	childHandler := handlers.NewChildHandler(dashboardService, progressService, log)

	// Setup routes
	mux := http.NewServeMux()
	childHandler.Register(mux, middleware)

	// Start server
	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handlers.Logging(log, mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info("Server starting", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed", "error", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Graceful shutdown failed", "error", err)
	}
}
