//go:build integration

package postgres_test

// Integration tests against a real PostgreSQL started with testcontainers.
// Run with: go test -tags integration ./internal/infrastructure/storage/postgres/...

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"dsrsales/internal/core/apperror"
	appctx "dsrsales/internal/core/context"
	"dsrsales/internal/core/security"
	"dsrsales/internal/core/types"
	"dsrsales/internal/domain"
	"dsrsales/internal/domain/auth"
	"dsrsales/internal/domain/catalog/product"
	"dsrsales/internal/domain/inventory"
	"dsrsales/internal/domain/sales"
	"dsrsales/internal/infrastructure/storage/postgres"
	"dsrsales/internal/infrastructure/storage/postgres/auth_repo"
	"dsrsales/internal/infrastructure/storage/postgres/catalog_repo"
	"dsrsales/internal/infrastructure/storage/postgres/document_repo"
	"dsrsales/internal/infrastructure/storage/postgres/register_repo"
)

type testEnv struct {
	pool      *postgres.Pool
	txManager *postgres.TxManager
	users     *auth.Service
	products  *product.Service
	stock     *inventory.Service
	sales     *sales.Service

	admin  *auth.User
	seller *auth.User
	phone  *product.Product
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		tcPostgres.WithDatabase("dsrsales_test"),
		tcPostgres.WithUsername("dsrsales"),
		tcPostgres.WithPassword("dsrsales"),
		testcontainers.WithWaitStrategy(tcPostgres.BasicWaitStrategies()...),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	dsn, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dsn))
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	applyMigrations(t, pool)

	txManager := postgres.NewTxManager(pool)
	users := auth.NewService(
		auth_repo.NewUserRepo(txManager),
		txManager,
		auth.NewJWTService(auth.DefaultJWTConfig("integration-secret")),
		auth.DefaultServiceConfig(),
	)
	auditLog, err := postgres.NewAuditLog(txManager)
	require.NoError(t, err)
	productRepo := catalog_repo.NewProductRepo(txManager)
	stock := inventory.NewService(
		register_repo.NewStockRepo(txManager),
		productRepo,
		users,
		inventory.NewRecorder(register_repo.NewHistoryRepo(txManager)),
		txManager,
	)

	env := &testEnv{
		pool:      pool,
		txManager: txManager,
		users:     users,
		products:  product.NewService(productRepo, txManager, auditLog),
		stock:     stock,
		sales: sales.NewService(
			catalog_repo.NewCustomerRepo(txManager),
			document_repo.NewSaleRepo(txManager),
			stock,
			users,
			postgres.NewOutboxPublisher(),
			txManager,
		),
	}

	env.admin, err = users.Register(ctx, auth.RegisterRequest{
		Username: "admin", Email: "admin@example.com", Password: "admin-password", Role: appctx.RoleAdmin,
	})
	require.NoError(t, err)
	env.seller, err = users.Register(ctx, auth.RegisterRequest{
		Username: "seller", Email: "seller@example.com", Password: "seller-password", Role: appctx.RoleSales,
	})
	require.NoError(t, err)

	env.phone = product.NewProduct("P-100", "Galaxy A15", "SM-A155", product.CategoryPhone, types.MustMoney("199.99"))
	require.NoError(t, env.products.Create(env.as(env.admin), env.phone))

	return env
}

// applyMigrations runs the Up section of every goose migration in order.
func applyMigrations(t *testing.T, pool *postgres.Pool) {
	t.Helper()
	files, err := filepath.Glob(filepath.Join("..", "..", "..", "..", "db", "migrations", "*.sql"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, f := range files {
		raw, err := os.ReadFile(f)
		require.NoError(t, err)
		up, _, _ := strings.Cut(string(raw), "-- +goose Down")
		up = strings.ReplaceAll(up, "-- +goose StatementBegin", "")
		up = strings.ReplaceAll(up, "-- +goose StatementEnd", "")
		_, err = pool.Exec(context.Background(), up)
		require.NoError(t, err, "apply %s", filepath.Base(f))
	}
}

func (e *testEnv) as(u *auth.User) context.Context {
	return security.WithUserID(context.Background(), u.ID.String())
}

func (e *testEnv) stockStatus(t *testing.T, imei string) inventory.Status {
	t.Helper()
	st, err := e.stock.GetByIMEI(context.Background(), imei)
	require.NoError(t, err)
	return st.Status
}

func TestStockLifecycle(t *testing.T) {
	env := setupTestEnv(t)
	adminCtx := env.as(env.admin)

	added, err := env.stock.Add(adminCtx, inventory.AddInput{ProductID: env.phone.ID, IMEI: "359000000000001"})
	require.NoError(t, err)
	assert.Equal(t, inventory.StatusInStock, added.Status)
	assert.True(t, strings.HasPrefix(added.SerialNumber, "SER-"))
	assert.Len(t, added.SerialNumber, 16)

	_, err = env.stock.Add(adminCtx, inventory.AddInput{ProductID: env.phone.ID, IMEI: "359000000000001"})
	assert.True(t, apperror.IsDuplicate(err), "second add of the same IMEI must be a duplicate, got %v", err)

	allocated, err := env.stock.Allocate(adminCtx, added.ID, env.seller.ID)
	require.NoError(t, err)
	assert.Equal(t, inventory.StatusAssigned, allocated.Status)
	assert.True(t, allocated.IsHeldBy(env.seller.ID))

	history, err := env.stock.History(adminCtx, added.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestBulkAddAndAllocate(t *testing.T) {
	env := setupTestEnv(t)
	adminCtx := env.as(env.admin)

	res, err := env.stock.BulkAdd(adminCtx, env.phone.ID, []string{"A-1", " A-2 ", "", "A-1", "A-3"})
	require.NoError(t, err)
	assert.Equal(t, []string{"A-1", "A-2", "A-3"}, res.Added)
	assert.Empty(t, res.Duplicates)

	res, err = env.stock.BulkAdd(adminCtx, env.phone.ID, []string{"A-3", "A-4"})
	require.NoError(t, err)
	assert.Equal(t, []string{"A-4"}, res.Added)
	assert.Equal(t, []string{"A-3"}, res.Duplicates)

	alloc, err := env.stock.BulkAllocate(adminCtx, []string{"A-1", "A-2", "missing"}, env.seller.ID)
	require.NoError(t, err)
	assert.Len(t, alloc.Allocated, 2)
	assert.Equal(t, []string{"missing"}, alloc.NotFound)
	assert.Equal(t, inventory.StatusAssigned, env.stockStatus(t, "A-1"))
	assert.Equal(t, inventory.StatusInStock, env.stockStatus(t, "A-3"))
}

func TestProcessSaleAllOrNothing(t *testing.T) {
	env := setupTestEnv(t)
	adminCtx := env.as(env.admin)
	sellerCtx := env.as(env.seller)

	_, err := env.stock.BulkAdd(adminCtx, env.phone.ID, []string{"S-1", "S-2", "S-3"})
	require.NoError(t, err)
	_, err = env.stock.BulkAllocate(adminCtx, []string{"S-1", "S-2"}, env.seller.ID)
	require.NoError(t, err)

	_, err = env.sales.ProcessSale(sellerCtx, []string{"S-1", "S-3", "nope"}, sales.CustomerInfo{Name: "Jane Doe"})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeSaleRejected, appErr.Code)

	// Nothing was written for the rejected checkout.
	assert.Equal(t, inventory.StatusAssigned, env.stockStatus(t, "S-1"))
	customers, err := env.sales.ListCustomers(sellerCtx, domain.ListFilter{})
	require.NoError(t, err)
	assert.Zero(t, customers.TotalCount)

	result, err := env.sales.ProcessSale(sellerCtx, []string{"S-1", "S-2"}, sales.CustomerInfo{
		Name: "Jane Doe", IDNumber: "ID-42",
	})
	require.NoError(t, err)
	assert.Len(t, result.Sales, 2)
	assert.Regexp(t, `^ORD-\d{8}-[0-9A-F]{12}$`, result.OrderID)
	assert.Equal(t, inventory.StatusSold, env.stockStatus(t, "S-1"))

	receipt, err := env.sales.SaleReceipt(sellerCtx, result.OrderID)
	require.NoError(t, err)
	assert.Len(t, receipt.Items, 2)
	assert.True(t, receipt.TotalAmount.Equal(types.MustMoney("399.98")))
	assert.Equal(t, "seller", receipt.SellerName)

	var pending int
	err = env.pool.QueryRow(context.Background(),
		`SELECT COUNT(*) FROM sys_outbox WHERE event_type = 'sale.completed' AND status = 'pending'`,
	).Scan(&pending)
	require.NoError(t, err)
	assert.Equal(t, 1, pending)
}

func TestUndoSaleAllowsResale(t *testing.T) {
	env := setupTestEnv(t)
	adminCtx := env.as(env.admin)
	sellerCtx := env.as(env.seller)

	_, err := env.stock.BulkAdd(adminCtx, env.phone.ID, []string{"U-1"})
	require.NoError(t, err)
	_, err = env.stock.BulkAllocate(adminCtx, []string{"U-1"}, env.seller.ID)
	require.NoError(t, err)

	first, err := env.sales.ProcessSale(sellerCtx, []string{"U-1"}, sales.CustomerInfo{Name: "Buyer"})
	require.NoError(t, err)

	require.NoError(t, env.sales.UndoSale(adminCtx, first.Sales[0].ID))
	assert.Equal(t, inventory.StatusInStock, env.stockStatus(t, "U-1"))

	_, err = env.sales.GetSale(adminCtx, first.Sales[0].ID)
	assert.True(t, apperror.IsNotFound(err))

	_, err = env.stock.BulkAllocate(adminCtx, []string{"U-1"}, env.seller.ID)
	require.NoError(t, err)
	second, err := env.sales.ProcessSale(sellerCtx, []string{"U-1"}, sales.CustomerInfo{Name: "Buyer"})
	require.NoError(t, err)

	returned, err := env.sales.MarkReturned(adminCtx, second.Sales[0].ID)
	require.NoError(t, err)
	assert.True(t, returned.IsReturned)
	assert.Equal(t, inventory.StatusReturned, env.stockStatus(t, "U-1"))
}

func TestUndoSaleThenFreshAddSucceeds(t *testing.T) {
	env := setupTestEnv(t)
	adminCtx := env.as(env.admin)
	sellerCtx := env.as(env.seller)

	added, err := env.stock.Add(adminCtx, inventory.AddInput{ProductID: env.phone.ID, IMEI: "R-1"})
	require.NoError(t, err)
	_, err = env.stock.Allocate(adminCtx, added.ID, env.seller.ID)
	require.NoError(t, err)
	sale, err := env.sales.ProcessSale(sellerCtx, []string{"R-1"}, sales.CustomerInfo{Name: "Buyer"})
	require.NoError(t, err)

	_, err = env.stock.ReturnToStock(adminCtx, added.ID, inventory.StatusInStock, "")
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidTransition), "stock return of a sold unit must be refused, got %v", err)
	assert.Equal(t, inventory.StatusSold, env.stockStatus(t, "R-1"))

	require.NoError(t, env.sales.UndoSale(adminCtx, sale.Sales[0].ID))

	readded, err := env.stock.Add(adminCtx, inventory.AddInput{ProductID: env.phone.ID, IMEI: "R-1"})
	require.NoError(t, err)
	assert.Equal(t, added.ID, readded.ID)
	assert.Equal(t, added.SerialNumber, readded.SerialNumber)

	stored, err := env.stock.GetByIMEI(adminCtx, "R-1")
	require.NoError(t, err)
	assert.Nil(t, stored.ReleasedAt)
	assert.Equal(t, inventory.StatusInStock, stored.Status)

	_, err = env.stock.Add(adminCtx, inventory.AddInput{ProductID: env.phone.ID, IMEI: "R-1"})
	assert.True(t, apperror.IsDuplicate(err))

	history, err := env.stock.History(adminCtx, added.ID)
	require.NoError(t, err)
	var adds int
	for _, e := range history {
		if e.Action == inventory.ActionAdded {
			adds++
		}
	}
	assert.Equal(t, 2, adds)
}

func TestIdempotencyStore(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	store := postgres.NewIdempotencyStore(env.txManager, time.Hour)

	replay, err := store.AcquireKey(ctx, "key-1", "user-1", "POST /api/v1/sales", "hash-a")
	require.NoError(t, err)
	assert.Nil(t, replay)

	_, err = store.AcquireKey(ctx, "key-1", "user-1", "POST /api/v1/sales", "hash-a")
	assert.True(t, apperror.HasCode(err, apperror.CodeIdempotency), "in-flight key must conflict, got %v", err)

	require.NoError(t, store.CompleteKey(ctx, "key-1", 201, "application/json", map[string]string{"orderId": "ORD-1"}))

	replay, err = store.AcquireKey(ctx, "key-1", "user-1", "POST /api/v1/sales", "hash-a")
	require.NoError(t, err)
	require.NotNil(t, replay)
	assert.Equal(t, 201, replay.StatusCode)
	assert.JSONEq(t, `{"orderId":"ORD-1"}`, string(replay.Body))

	_, err = store.AcquireKey(ctx, "key-1", "user-1", "POST /api/v1/sales", "hash-b")
	assert.Error(t, err)

	removed, err := store.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed)
}
