// Package main is the entry point for the smartsewing API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"smartsewing/internal/app"
	"smartsewing/internal/domain/auth"
	v1 "smartsewing/internal/infrastructure/http/v1"
	"smartsewing/internal/infrastructure/http/v1/handlers"
	"smartsewing/internal/infrastructure/http/v1/middleware"
	"smartsewing/internal/infrastructure/storage/memory"
	"smartsewing/internal/infrastructure/storage/postgres"
	"smartsewing/pkg/config"
	"smartsewing/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.IsDevelopment(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	ctx := context.Background()
	log.Infow("starting smartsewing server", "storage", cfg.StorageDriver, "version", cfg.Version)

	// --- Storage ---
	var (
		backend app.Backend
		db      handlers.Pinger
	)
	switch cfg.StorageDriver {
	case config.DriverPostgres:
		poolCfg := postgres.DefaultPoolConfig(cfg.DatabaseURL)
		poolCfg.AppName = cfg.AppName
		poolCfg.MaxConns = cfg.DBMaxConns
		pool, err := postgres.NewPool(ctx, poolCfg)
		if err != nil {
			log.Fatalw("failed to connect to database", "error", err)
		}
		defer pool.Close()
		log.Info("database connection established")

		txm := postgres.NewTxManager(pool).WithStatementTimeout(cfg.DBStatementTimeout)
		backend = app.PostgresBackend(txm, cfg.IdempotencyTTL)
		db = pool
	default:
		backend = app.MemoryBackend(memory.New())
	}

	container := app.New(backend)
	if cfg.StorageDriver == config.DriverMemory {
		// a fresh in-process store has no default location yet
		if _, err := app.Seed(ctx, container); err != nil {
			log.Fatalw("failed to seed memory store", "error", err)
		}
	}

	// --- Auth ---
	var validator middleware.JWTValidator
	if cfg.AuthEnabled {
		jwtService, err := auth.NewJWTService(auth.DefaultJWTConfig(cfg.JWTSecret))
		if err != nil {
			log.Fatalw("failed to create jwt service", "error", err)
		}
		validator = jwtService
	} else {
		log.Warn("authentication disabled")
	}

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Container:          container,
		Logger:             log,
		JWTValidator:       validator,
		IdempotencyEnabled: cfg.IdempotencyEnabled,
		Health:             handlers.NewHealthHandler(cfg.AppName, cfg.Version, cfg.StorageDriver, db),
		Debug:              cfg.IsDevelopment(),
	})

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
	_ = log.Sync()
}
