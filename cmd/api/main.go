package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pigweb/pigweb/internal/api"
	"github.com/pigweb/pigweb/internal/api/middleware"
	"github.com/pigweb/pigweb/internal/config"
	"github.com/pigweb/pigweb/internal/logger"
	"github.com/pigweb/pigweb/internal/repository"
	"github.com/pigweb/pigweb/internal/service"
	"github.com/pigweb/pigweb/internal/storage"
)

func main() {
	// Load configuration
	// Support CONFIG_PATH environment variable for production deployments
	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	appLog := logger.New(nil)
	defer logger.Sync()
	logger.SetDefault(appLog)

	// Initialize database
	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLog.Fatalf("Failed to initialize database: %v", err)
	}

	// Initialize repositories
	pigRepo := repository.NewPigRepository(db)
	bulkRepo := repository.NewBulkImportRepository(db)

	// Initialize services
	detector := service.NewDuplicateDetector(pigRepo, cfg.API.DuplicateLimit)
	pigService := service.NewPigService(pigRepo, pigRepo, detector, appLog)
	bulkService := service.NewBulkService(pigRepo, bulkRepo, detector, appLog, &service.BulkConfig{
		ResponseLimit: cfg.API.ResponseLimit,
	})

	// Initialize archive storage (supports MinIO, R2, S3) when enabled
	var archiveService *service.ArchiveService
	if cfg.Archive.Enabled {
		objectStorage, err := storage.NewS3Storage(&storage.S3Config{
			Endpoint:  cfg.Archive.Endpoint,
			AccessKey: cfg.Archive.AccessKey,
			SecretKey: cfg.Archive.SecretKey,
			UseSSL:    cfg.Archive.UseSSL,
			Bucket:    cfg.Archive.Bucket,
			Region:    cfg.Archive.Region,
		})
		if err != nil {
			appLog.Fatalf("Failed to initialize archive storage: %v", err)
		}
		if err := objectStorage.EnsureBucket(context.Background()); err != nil {
			appLog.Fatalf("Failed to ensure archive bucket: %v", err)
		}
		archiveService = service.NewArchiveService(bulkRepo, objectStorage, cfg.Archive.Prefix, appLog)
		appLog.Infof("Archiving enabled, bucket=%s", cfg.Archive.Bucket)
	}

	// Initialize auth from the configured token grants
	auth, err := middleware.NewAuthenticator(&cfg.Auth)
	if err != nil {
		appLog.Fatalf("Failed to initialize authentication: %v", err)
	}

	router := api.SetupRouter(cfg, auth, pigService, bulkService, archiveService)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start server in a goroutine so shutdown signals can be handled
	go func() {
		appLog.Infof("Starting API server on port %d", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		appLog.Fatalf("Server forced to shutdown: %v", err)
	}

	appLog.Info("Server exited")
}
