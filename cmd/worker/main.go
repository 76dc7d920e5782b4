// Package main is the entry point for the smartsewing background worker.
// It relays outbox events into the audit trail and expires idempotency keys.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"smartsewing/internal/infrastructure/idempotency"
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

	if cfg.StorageDriver != config.DriverPostgres {
		log.Fatalw("worker requires the postgres storage driver", "storage", cfg.StorageDriver)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Info("starting smartsewing worker")

	poolCfg := postgres.DefaultPoolConfig(cfg.DatabaseURL)
	poolCfg.AppName = cfg.AppName + "-worker"
	poolCfg.MaxConns = 4
	poolCfg.MinConns = 1
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txm := postgres.NewTxManager(pool).WithStatementTimeout(cfg.DBStatementTimeout)
	auditLog, err := postgres.NewAuditLog(txm)
	if err != nil {
		log.Fatalw("failed to create audit log", "error", err)
	}

	worker := &Worker{
		pool:         pool,
		relay:        postgres.NewOutboxRelay(txm, auditLog.HandleOutbox, cfg.OutboxBatchSize),
		idempotency:  postgres.NewIdempotencyStore(txm, cfg.IdempotencyTTL),
		pollInterval: cfg.OutboxPollInterval,
		retention:    cfg.OutboxRetention,
		log:          log.WithComponent("worker"),
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Run(ctx)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()

	wg.Wait()
	log.Info("worker stopped")
	_ = log.Sync()
}

// Worker runs the outbox relay and periodic housekeeping.
type Worker struct {
	pool         *postgres.Pool
	relay        *postgres.OutboxRelay
	idempotency  idempotency.Store
	pollInterval time.Duration
	retention    time.Duration
	log          *logger.Logger
}

// Run blocks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		w.runOutboxRelay(ctx)
	}()
	go func() {
		defer wg.Done()
		w.runHousekeeping(ctx)
	}()

	wg.Wait()
}

// runOutboxRelay drains the outbox. A full batch is followed immediately by
// the next one; otherwise the relay sleeps for the poll interval.
func (w *Worker) runOutboxRelay(ctx context.Context) {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		delivered, err := w.relay.ProcessBatch(ctx)
		if err != nil && ctx.Err() == nil {
			w.log.Errorw("outbox batch failed", "error", err)
		}
		if delivered > 0 {
			w.log.Debugw("outbox batch delivered", "count", delivered)
			timer.Reset(0)
			continue
		}
		timer.Reset(w.pollInterval)
	}
}

// runHousekeeping moves exhausted messages to the DLQ, purges old published
// ones and expires idempotency keys.
func (w *Worker) runHousekeeping(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if n, err := w.relay.MoveToDLQ(ctx); err != nil {
			w.log.Errorw("outbox dlq move failed", "error", err)
		} else if n > 0 {
			w.log.Warnw("outbox messages moved to dlq", "count", n)
		}

		if n, err := w.relay.PurgePublished(ctx, w.retention); err != nil {
			w.log.Errorw("outbox purge failed", "error", err)
		} else if n > 0 {
			w.log.Infow("outbox messages purged", "count", n)
		}

		if n, err := w.idempotency.CleanupExpired(ctx); err != nil {
			w.log.Errorw("idempotency cleanup failed", "error", err)
		} else if n > 0 {
			w.log.Infow("idempotency keys expired", "count", n)
		}

		w.pool.LogStats(ctx)
	}
}
