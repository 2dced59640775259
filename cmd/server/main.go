package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Rrens/identity-api/internal/api"
	"github.com/Rrens/identity-api/internal/config"
	"github.com/Rrens/identity-api/internal/logger"
	"github.com/Rrens/identity-api/internal/repository"
	"github.com/Rrens/identity-api/internal/repository/redis"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	logger.Default()

	// Load .env file - try multiple locations
	envPaths := []string{".env", "../.env", "../../.env"}
	for _, p := range envPaths {
		if err := godotenv.Load(p); err == nil {
			log.Debug().Str("path", p).Msg("Loaded .env")
			break
		}
	}

	// Load configuration; invalid token settings stop the process here
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logCloser, err := logger.Setup(cfg.Logging, os.Stdout)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set up logging")
	}
	defer logCloser.Close()

	log.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Str("database", cfg.Database.Driver).
		Msg("Starting identity API server")

	ctx := context.Background()

	if cfg.Database.AutoMigrate {
		if err := repository.Migrate(cfg.Database); err != nil {
			log.Fatal().Err(err).Msg("Failed to migrate database")
		}
	}

	// Initialize database
	db, err := repository.Open(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// Initialize Redis
	redisClient, err := redis.NewClient(ctx, cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisClient.Close()

	// Initialize router
	router, err := api.NewRouter(cfg, db, redisClient)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize router")
	}

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		log.Info().Msgf("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
	case err := <-serverErr:
		log.Error().Err(err).Msg("Server failed")
	}

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
