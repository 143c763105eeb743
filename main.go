// gib/main.go
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"gib/config"
	"gib/database"
	"gib/handlers"
	"gib/models"
	"gib/utils"
)

type Application struct {
	db                *database.DatabaseService
	rateLimiter       *models.RateLimiter
	logger            *slog.Logger
	adminPasswordHash string
}

// Methods to satisfy the handlers.App interface
func (a *Application) DB() *database.DatabaseService    { return a.db }
func (a *Application) RateLimiter() *models.RateLimiter { return a.rateLimiter }
func (a *Application) Logger() *slog.Logger             { return a.logger }
func (a *Application) AdminPasswordHash() string        { return a.adminPasswordHash }

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	saltBytes := make([]byte, 32)
	if _, err := rand.Read(saltBytes); err != nil {
		logger.Error("Failed to generate identity salt", "error", err)
		os.Exit(1)
	}
	utils.IDSalt = hex.EncodeToString(saltBytes)

	// --- External Configuration ---
	port := utils.GetEnv("GIB_PORT", "8080")
	dbPath := utils.GetEnv("GIB_DB_PATH", "./gib.db?_journal_mode=WAL&_foreign_keys=on")
	adminPasswordHash := utils.GetEnv("GIB_ADMIN_PASSWORD_HASH", "")
	if adminPasswordHash == "" {
		logger.Warn("GIB_ADMIN_PASSWORD_HASH is not set, admin interface is disabled")
	}

	rateLimitEvery, err := time.ParseDuration(utils.GetEnv("GIB_RATE_EVERY", config.DefaultRateLimitEvery))
	if err != nil {
		logger.Warn("Invalid GIB_RATE_EVERY duration, using default", "value", utils.GetEnv("GIB_RATE_EVERY", ""), "default", config.DefaultRateLimitEvery)
		rateLimitEvery, _ = time.ParseDuration(config.DefaultRateLimitEvery)
	}
	rateLimitBurst, err := strconv.Atoi(utils.GetEnv("GIB_RATE_BURST", strconv.Itoa(config.DefaultRateLimitBurst)))
	if err != nil {
		logger.Warn("Invalid GIB_RATE_BURST integer, using default", "value", utils.GetEnv("GIB_RATE_BURST", ""), "default", config.DefaultRateLimitBurst)
		rateLimitBurst = config.DefaultRateLimitBurst
	}
	rateLimitPrune, err := time.ParseDuration(utils.GetEnv("GIB_RATE_PRUNE", config.DefaultRateLimitPrune))
	if err != nil {
		logger.Warn("Invalid GIB_RATE_PRUNE duration, using default", "value", utils.GetEnv("GIB_RATE_PRUNE", ""), "default", config.DefaultRateLimitPrune)
		rateLimitPrune, _ = time.ParseDuration(config.DefaultRateLimitPrune)
	}
	rateLimitExpire, err := time.ParseDuration(utils.GetEnv("GIB_RATE_EXPIRE", config.DefaultRateLimitExpire))
	if err != nil {
		logger.Warn("Invalid GIB_RATE_EXPIRE duration, using default", "value", utils.GetEnv("GIB_RATE_EXPIRE", ""), "default", config.DefaultRateLimitExpire)
		rateLimitExpire, _ = time.ParseDuration(config.DefaultRateLimitExpire)
	}

	// --- Storage Service Init ---
	// When S3 is disabled file content lives in the database.
	var storageService models.StorageService
	if utils.GetEnv("GIB_S3_ENABLED", "false") == "true" {
		endpoint := utils.GetEnv("GIB_S3_ENDPOINT", "")
		accessKey := utils.GetEnv("GIB_S3_ACCESS_KEY", "")
		secretKey := utils.GetEnv("GIB_S3_SECRET_KEY", "")
		bucket := utils.GetEnv("GIB_S3_BUCKET", "")
		region := utils.GetEnv("GIB_S3_REGION", "us-east-1")
		useSSL := utils.GetEnv("GIB_S3_USE_SSL", "true") == "true"

		storageService, err = utils.NewS3Storage(endpoint, accessKey, secretKey, bucket, region, useSSL)
		if err != nil {
			logger.Error("Failed to initialize S3 storage", "error", err)
			os.Exit(1)
		}
		logger.Info("S3 Storage initialized", "endpoint", endpoint, "bucket", bucket)
	}

	dbService, err := database.InitDB(dbPath, logger, storageService)
	if err != nil {
		logger.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbService.DB.Close(); err != nil {
			logger.Error("Failed to close database", "error", err)
		}
	}()

	if err := handlers.LoadTemplates(); err != nil {
		logger.Error("Failed to load templates", "error", err)
		os.Exit(1)
	}

	app := &Application{
		db:                dbService,
		rateLimiter:       models.NewRateLimiter(rateLimitEvery, rateLimitBurst, rateLimitPrune, rateLimitExpire),
		logger:            logger,
		adminPasswordHash: adminPasswordHash,
	}

	mux := handlers.SetupRouter(app)
	finalHandler := handlers.CookieMiddleware(handlers.CSRFMiddleware(mux))

	// --- Graceful Shutdown ---
	server := &http.Server{Addr: ":" + port, Handler: finalHandler}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed unexpectedly", "error", err)
			os.Exit(1)
		}
	}()

	logger.Info("gib server started successfully",
		"version", config.AppVersion,
		"address", "http://localhost:"+port,
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}
	logger.Info("Server exiting")
}
