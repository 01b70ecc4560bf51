// Package main is the entry point for the DSR sales API server.
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

	"dsrsales/internal/config"
	corecache "dsrsales/internal/core/cache"
	"dsrsales/internal/core/security"
	"dsrsales/internal/domain/auth"
	"dsrsales/internal/domain/catalog/product"
	"dsrsales/internal/domain/dashboard"
	"dsrsales/internal/domain/inventory"
	"dsrsales/internal/domain/sales"
	"dsrsales/internal/domain/search"
	"dsrsales/internal/infrastructure/cache"
	v1 "dsrsales/internal/infrastructure/http/v1"
	"dsrsales/internal/infrastructure/storage/postgres"
	"dsrsales/internal/infrastructure/storage/postgres/auth_repo"
	"dsrsales/internal/infrastructure/storage/postgres/catalog_repo"
	"dsrsales/internal/infrastructure/storage/postgres/document_repo"
	"dsrsales/internal/infrastructure/storage/postgres/register_repo"
	"dsrsales/internal/infrastructure/storage/postgres/report_repo"
	"dsrsales/internal/metadata"
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

	log.Infow("starting dsrsales server", "env", cfg.Env)

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(cfg.DatabaseURL)
	poolCfg.MaxConns = cfg.DBMaxConns
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	// --- Auth ---
	jwtConfig := auth.DefaultJWTConfig(cfg.JWTSecret)
	jwtConfig.AccessTokenTTL = cfg.JWTTTL
	jwtService := auth.NewJWTService(jwtConfig)

	authService := auth.NewService(
		auth_repo.NewUserRepo(txManager),
		txManager,
		jwtService,
		auth.DefaultServiceConfig(),
	)

	// --- Catalog ---
	auditLog, err := postgres.NewAuditLog(txManager)
	if err != nil {
		log.Fatalw("failed to create audit log", "error", err)
	}
	productRepo := catalog_repo.NewProductRepo(txManager)
	productService := product.NewService(productRepo, txManager, auditLog)

	// --- Inventory and sales ---
	inventoryService := inventory.NewService(
		register_repo.NewStockRepo(txManager),
		productRepo,
		authService,
		inventory.NewRecorder(register_repo.NewHistoryRepo(txManager)),
		txManager,
	)

	salesService := sales.NewService(
		catalog_repo.NewCustomerRepo(txManager),
		document_repo.NewSaleRepo(txManager),
		inventoryService,
		authService,
		postgres.NewOutboxPublisher(),
		txManager,
	)

	// --- Read models ---
	dashboardCache, closeCache := newCache(ctx, cfg, log)
	defer closeCache()
	dashboardService := dashboard.NewService(report_repo.NewDashboardRepo(txManager), dashboardCache, cfg.CacheTTL)

	registry := metadata.Default()
	searchService := search.NewService(registry, report_repo.NewSearchRepo(txManager))
	log.Infow("metadata registry initialized", "entities", len(registry.List()))

	policy, err := security.NewAccessPolicy(security.DefaultRules)
	if err != nil {
		log.Fatalw("failed to compile access policy", "error", err)
	}

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Logger:             log,
		Readiness:          pool,
		JWTValidator:       jwtService,
		Policy:             policy,
		Users:              authService,
		Products:           productService,
		Audit:              auditLog,
		Stock:              inventoryService,
		Sales:              salesService,
		Dashboard:          dashboardService,
		Search:             searchService,
		Registry:           registry,
		Idempotency:        postgres.NewIdempotencyStore(txManager, cfg.IdempotencyTTL),
		IdempotencyEnabled: cfg.IdempotencyEnabled,
		Development:        cfg.IsDevelopment(),
	})

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")
	cancel()

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

// newCache picks Redis when REDIS_URL is set and the in-memory cache otherwise.
func newCache(ctx context.Context, cfg *config.Config, log *logger.Logger) (corecache.Cache, func()) {
	if cfg.RedisURL != "" {
		client, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatalw("failed to connect to redis", "error", err)
		}
		log.Info("using redis cache")
		return cache.NewRedis(client, "dsrsales:"), func() { _ = client.Close() }
	}

	mem := cache.NewMemory()
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := mem.Sweep(); n > 0 {
					log.Debugw("swept expired cache entries", "count", n)
				}
			}
		}
	}()
	log.Info("using in-memory cache")
	return mem, func() {}
}
