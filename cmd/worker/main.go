// Package main is the entry point for the DSR sales background worker.
// It relays outbox events and purges expired idempotency keys.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"dsrsales/internal/config"
	appctx "dsrsales/internal/core/context"
	"dsrsales/internal/infrastructure/storage/postgres"
	"dsrsales/pkg/logger"
)

func main() {
	cfg, err := config.Load()
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Info("starting dsrsales worker")

	poolCfg := postgres.DefaultPoolConfig(cfg.DatabaseURL)
	poolCfg.MaxConns = 4
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txManager := postgres.NewTxManager(pool)
	worker := NewWorker(
		pool,
		postgres.NewOutboxRelay(txManager, cfg.OutboxBatchSize, logEvents(log)),
		postgres.NewIdempotencyStore(txManager, cfg.IdempotencyTTL),
		cfg.OutboxPollInterval,
		log,
	)

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
}

// logEvents is the default outbox consumer: it writes every event to the log.
func logEvents(log *logger.Logger) postgres.OutboxHandler {
	log = log.WithComponent("events")
	return postgres.OutboxHandlerFunc(func(ctx context.Context, msg *postgres.OutboxMessage) error {
		log.WithContext(ctx).Infow("event",
			"event_type", msg.EventType,
			"aggregate_type", msg.AggregateType,
			"aggregate_id", msg.AggregateID,
			"payload", string(msg.Payload),
		)
		return nil
	})
}

// Worker runs the periodic jobs.
type Worker struct {
	pool         *postgres.Pool
	relay        *postgres.OutboxRelay
	idempotency  *postgres.IdempotencyStore
	pollInterval time.Duration
	log          *logger.Logger
}

func NewWorker(
	pool *postgres.Pool,
	relay *postgres.OutboxRelay,
	idempotency *postgres.IdempotencyStore,
	pollInterval time.Duration,
	log *logger.Logger,
) *Worker {
	return &Worker{
		pool:         pool,
		relay:        relay,
		idempotency:  idempotency,
		pollInterval: pollInterval,
		log:          log.WithComponent("worker"),
	}
}

// Run polls until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	cleanupTicker := time.NewTicker(time.Hour)
	defer cleanupTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.processOutbox(ctx)
		case <-cleanupTicker.C:
			w.cleanup(ctx)
		}
	}
}

func (w *Worker) processOutbox(ctx context.Context) {
	ctx = appctx.WithTrace(ctx, appctx.NewTraceContext(appctx.OriginWorker))

	// Drain the backlog batch by batch before waiting for the next tick.
	for {
		n, err := w.relay.ProcessBatch(ctx)
		if err != nil {
			if ctx.Err() == nil {
				w.log.WithContext(ctx).Errorw("outbox batch failed", "error", err)
			}
			return
		}
		if n == 0 {
			return
		}
		w.log.WithContext(ctx).Debugw("processed outbox batch", "count", n)
	}
}

func (w *Worker) cleanup(ctx context.Context) {
	ctx = appctx.WithTrace(ctx, appctx.NewTraceContext(appctx.OriginWorker))
	log := w.log.WithContext(ctx)

	if moved, err := w.relay.MoveToDLQ(ctx); err != nil {
		log.Errorw("failed to move dead outbox messages", "error", err)
	} else if moved > 0 {
		log.Warnw("moved failed outbox messages to DLQ", "count", moved)
	}

	if purged, err := w.idempotency.CleanupExpired(ctx); err != nil {
		log.Errorw("failed to clean up idempotency keys", "error", err)
	} else if purged > 0 {
		log.Infow("cleaned up idempotency keys", "count", purged)
	}

	w.pool.LogStats(ctx)
}
