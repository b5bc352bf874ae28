package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/joshua-takyi/locals/internal/cache"
	"github.com/joshua-takyi/locals/internal/config"
	"github.com/joshua-takyi/locals/internal/connect"
	"github.com/joshua-takyi/locals/internal/container"
	"github.com/joshua-takyi/locals/internal/helpers"
	"github.com/joshua-takyi/locals/internal/models"
	"github.com/joshua-takyi/locals/internal/routes"
	_ "go.uber.org/automaxprocs"
)

func main() {
	// Load environment variables
	_ = godotenv.Load(".env.local")

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg)
	logger.Info("Starting locals API server", "environment", cfg.Environment)

	cld, err := connect.CloudinaryCredentials(cfg, logger)
	if err != nil {
		logger.Error("Failed to configure Cloudinary", "error", err)
		os.Exit(1)
	}

	mongoClient, err := connect.MongoDBConnect(cfg, logger)
	if err != nil {
		logger.Error("Failed to connect to MongoDB", "error", err)
		os.Exit(1)
	}

	rdb, err := connect.RedisConnect(cfg, logger)
	if err != nil {
		logger.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}

	repo := models.MongodbNewRepo(mongoClient, cfg.MongoDBDatabase)
	indexCtx, cancelIndex := context.WithTimeout(context.Background(), 30*time.Second)
	if err := repo.EnsureIndexes(indexCtx); err != nil {
		cancelIndex()
		logger.Error("Failed to create indexes", "error", err)
		os.Exit(1)
	}
	cancelIndex()

	uploader := helpers.NewCloudinaryUploader(cld, cfg.UploadTimeout, int64(cfg.UploadConcurrency), logger)
	catalogCache := cache.New(rdb, cfg.CacheTTL, logger)
	appContainer := container.NewContainer(cfg, logger, repo, uploader, catalogCache)

	if cfg.ResetDatabase {
		if err := seed(appContainer, cfg, logger); err != nil {
			logger.Error("Seeding failed", "error", err)
			os.Exit(1)
		}
	}

	router := routes.SetupRoutes(appContainer)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	// Give outstanding requests 30 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	if rdb != nil {
		if err := rdb.Close(); err != nil {
			logger.Error("Error closing Redis", "error", err)
		}
	}
	if err := connect.MongoDBDisconnect(mongoClient); err != nil {
		logger.Error("Error disconnecting from MongoDB", "error", err)
	}

	logger.Info("Server exited")
}

// seed wipes venues and categories and reloads them from the dataset in cfg.SeedDir.
func seed(c *container.Container, cfg *config.Config, logger *slog.Logger) error {
	ds, err := models.LoadDataset(cfg.SeedDir)
	if err != nil {
		return err
	}
	logger.Info("Seeding database",
		"dir", cfg.SeedDir,
		"venues", len(ds.Venues),
		"categories", len(ds.Categories),
	)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.SeedTimeout)
	defer cancel()

	// items that fail are logged by the seeder and skipped
	_, err = c.Seeder.Run(ctx, ds)
	return err
}

func setupLogger(cfg *config.Config) *slog.Logger {
	var handler slog.Handler

	level := parseLevel(cfg.LogLevel)
	if cfg.IsProduction() {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	} else {
		// Human-readable logging for development
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}

	return slog.New(handler)
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
