// Package main provides a CLI tool for seeding the database with initial data.
// It creates the first administrator when none exists and, with
// SEED_DEMO_DATA=true, a small demo catalog with stock.
package main

import (
	"context"
	"fmt"
	"os"

	"dsrsales/internal/config"
	"dsrsales/internal/core/apperror"
	appctx "dsrsales/internal/core/context"
	"dsrsales/internal/core/security"
	"dsrsales/internal/core/types"
	"dsrsales/internal/domain/auth"
	"dsrsales/internal/domain/catalog/product"
	"dsrsales/internal/domain/inventory"
	"dsrsales/internal/infrastructure/storage/postgres"
	"dsrsales/internal/infrastructure/storage/postgres/auth_repo"
	"dsrsales/internal/infrastructure/storage/postgres/catalog_repo"
	"dsrsales/internal/infrastructure/storage/postgres/register_repo"
	"dsrsales/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalw("failed to load config", "error", err)
	}

	ctx := appctx.WithTrace(context.Background(), appctx.NewTraceContext(appctx.OriginSeed))

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.DatabaseURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	txManager := postgres.NewTxManager(pool)
	authService := auth.NewService(
		auth_repo.NewUserRepo(txManager),
		txManager,
		auth.NewJWTService(auth.DefaultJWTConfig(cfg.JWTSecret)),
		auth.DefaultServiceConfig(),
	)

	admin, err := seedAdmin(ctx, authService, cfg)
	if err != nil {
		log.Fatalw("failed to seed admin user", "error", err)
	}

	if os.Getenv("SEED_DEMO_DATA") == "true" {
		if admin == nil {
			_, admin, err = authService.Login(ctx, auth.Credentials{Username: cfg.AdminUsername, Password: cfg.AdminPassword})
			if err != nil {
				log.Fatalw("demo data needs the configured admin credentials", "error", err)
			}
		}
		if err := seedDemoData(security.WithUserID(ctx, admin.ID.String()), txManager, authService); err != nil {
			log.Fatalw("failed to seed demo data", "error", err)
		}
	}

	log.Info("seeding completed")
}

func seedAdmin(ctx context.Context, svc *auth.Service, cfg *config.Config) (*auth.User, error) {
	exists, err := svc.HasAdmin(ctx)
	if err != nil {
		return nil, err
	}
	if exists {
		logger.Info(ctx, "admin user already exists, skipping")
		return nil, nil
	}

	user, err := svc.Register(ctx, auth.RegisterRequest{
		Username: cfg.AdminUsername,
		Password: cfg.AdminPassword,
		Role:     appctx.RoleAdmin,
		Profile:  auth.Profile{FullName: "Administrator"},
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "created admin user", "username", user.Username)
	return user, nil
}

var demoProducts = []struct {
	code, name, sku string
	category        product.Category
	storage, ram    string
	network         string
	price           string
	imeis           []string
}{
	{"ITM-0001", "Galaxy A15", "SM-A155F", product.CategoryPhone, "256gb", "8gb", "4g", "189.99",
		[]string{"356789100000011", "356789100000029", "356789100000037"}},
	{"ITM-0002", "Redmi Note 13", "23124RA7EO", product.CategoryPhone, "128gb", "8gb", "4g", "169.00",
		[]string{"861234500000014", "861234500000022"}},
	{"ITM-0003", "Galaxy Tab A9", "SM-X115", product.CategoryTablet, "64gb", "4gb", "4g", "149.50", nil},
}

func seedDemoData(ctx context.Context, txManager *postgres.TxManager, users inventory.Directory) error {
	productRepo := catalog_repo.NewProductRepo(txManager)
	auditLog, err := postgres.NewAuditLog(txManager)
	if err != nil {
		return err
	}
	products := product.NewService(productRepo, txManager, auditLog)
	stock := inventory.NewService(
		register_repo.NewStockRepo(txManager),
		productRepo,
		users,
		inventory.NewRecorder(register_repo.NewHistoryRepo(txManager)),
		txManager,
	)

	for _, d := range demoProducts {
		p := product.NewProduct(d.code, d.name, d.sku, d.category, types.MustMoney(d.price))
		p.Storage, p.RAM, p.Network = d.storage, d.ram, d.network

		if err := products.Create(ctx, p); err != nil {
			if apperror.IsDuplicate(err) {
				logger.Info(ctx, "demo product exists, skipping", "item_code", d.code)
				continue
			}
			return fmt.Errorf("create product %s: %w", d.code, err)
		}
		if len(d.imeis) == 0 {
			continue
		}

		res, err := stock.BulkAdd(ctx, p.ID, d.imeis)
		if err != nil {
			return fmt.Errorf("add stock for %s: %w", d.code, err)
		}
		logger.Info(ctx, "seeded demo product", "item_code", d.code, "units", len(res.Added), "duplicates", len(res.Duplicates))
	}
	return nil
}
