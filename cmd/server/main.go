package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/batchbook/batchbook-backend/internal/config"
	"github.com/batchbook/batchbook-backend/internal/database"
	"github.com/batchbook/batchbook-backend/internal/handler"
	"github.com/batchbook/batchbook-backend/internal/logger"
	"github.com/batchbook/batchbook-backend/internal/repository"
	"github.com/batchbook/batchbook-backend/internal/router"
	"github.com/batchbook/batchbook-backend/internal/service"
	"github.com/batchbook/batchbook-backend/internal/storage"
	"github.com/batchbook/batchbook-backend/internal/validator"
	"github.com/batchbook/batchbook-backend/internal/worker"
	"github.com/rs/zerolog"
)

func main() {
	cfg := config.Load()

	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting BatchBook Backend")

	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	var blobStore storage.BlobStore
	if cfg.CloudinaryURL != "" {
		blobStore, err = storage.NewCloudinaryStore(cfg.CloudinaryURL, log)
	} else {
		log.Warn().Str("dir", cfg.LocalStorageDir).Msg("CLOUDINARY_URL not set, storing media on local disk")
		blobStore, err = storage.NewLocalStore(cfg.LocalStorageDir, log)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize blob store")
	}

	userRepo := repository.NewUserRepository(pool)
	instituteRepo := repository.NewInstituteRepository(pool)
	staffRepo := repository.NewStaffRepository(pool)
	memoryRepo := repository.NewMemoryRepository(pool)
	commentRepo := repository.NewCommentRepository(pool)
	blobRepo := repository.NewBlobUploadRepository(pool)
	statsRepo := repository.NewStatsRepository(pool)

	blobQueue := worker.NewBlobQueue(rdb)

	identityService := service.NewIdentityService(cfg, rdb, instituteRepo, staffRepo)
	authService := service.NewAuthService(cfg, rdb, userRepo, identityService)
	instituteService := service.NewInstituteService(instituteRepo)
	staffService := service.NewStaffService(staffRepo, instituteRepo, identityService)
	memoryService := service.NewMemoryService(cfg, memoryRepo, commentRepo, blobRepo, blobStore, blobQueue)
	statsService := service.NewStatsService(statsRepo)

	handlers := &router.Handlers{
		Auth:      handler.NewAuthHandler(authService, identityService),
		Institute: handler.NewInstituteHandler(instituteService, authService),
		Staff:     handler.NewStaffHandler(staffService, authService),
		Memory:    handler.NewMemoryHandler(memoryService, identityService),
		Admin:     handler.NewAdminHandler(instituteService, statsService),
	}

	workerCtx, workerCancel := context.WithCancel(context.Background())

	cleanupWorker := worker.NewBlobCleanupWorker(rdb, blobStore, blobRepo, cfg, log)
	go cleanupWorker.Start(workerCtx)

	r := router.SetupRouter(authService, identityService, handlers, cfg)

	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// Give the cleanup worker a moment to finish in-flight deletes.
	workerCancel()
	time.Sleep(2 * time.Second)

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
