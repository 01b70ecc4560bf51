package product

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dsrsales/internal/core/apperror"
	"dsrsales/internal/core/id"
	"dsrsales/internal/core/tx"
	"dsrsales/internal/core/types"
	"dsrsales/internal/domain"
	"dsrsales/internal/domain/audit"
)

type memRepo struct {
	mu    sync.Mutex
	items map[id.ID]Product
}

func newMemRepo() *memRepo {
	return &memRepo{items: make(map[id.ID]Product)}
}

func (r *memRepo) Create(_ context.Context, p *Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.items {
		if existing.ItemCode == p.ItemCode {
			return apperror.NewDuplicate(entityName, "item_code", p.ItemCode)
		}
		if existing.ModelSKU == p.ModelSKU {
			return apperror.NewDuplicate(entityName, "model_sku", p.ModelSKU)
		}
	}
	r.items[p.ID] = *p
	return nil
}

func (r *memRepo) Update(_ context.Context, p *Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.items[p.ID]
	if !ok || existing.Version != p.Version {
		return apperror.NewConcurrentModification(entityName, p.ID)
	}
	stored := *p
	stored.Version++
	r.items[p.ID] = stored
	return nil
}

func (r *memRepo) GetByID(_ context.Context, productID id.ID) (*Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.items[productID]
	if !ok {
		return nil, apperror.NewNotFound(entityName, productID.String())
	}
	return &p, nil
}

func (r *memRepo) List(_ context.Context, filter Filter) (domain.ListResult[*Product], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := domain.ListResult[*Product]{Limit: filter.Limit, Offset: filter.Offset}
	for _, p := range r.items {
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(p.ModelName), strings.ToLower(filter.Search)) {
			continue
		}
		p := p
		res.Items = append(res.Items, &p)
	}
	res.TotalCount = int64(len(res.Items))
	return res, nil
}

type auditCall struct {
	action  audit.Action
	changes map[string]any
}

type recordingAudit struct {
	calls []auditCall
}

func (a *recordingAudit) LogChange(_ context.Context, _ string, _ id.ID, action audit.Action, changes map[string]any) error {
	a.calls = append(a.calls, auditCall{action: action, changes: changes})
	return nil
}

func passthroughTx() tx.Manager {
	return tx.Func(func(ctx context.Context, fn func(ctx context.Context) error) error {
		return fn(ctx)
	})
}

func sampleProduct() *Product {
	p := NewProduct("IC-100", "Galaxy A15", "SM-A155", CategoryPhone, types.MustMoney("189.99"))
	p.Storage = "128gb"
	p.RAM = "8gb"
	p.Network = "4g"
	return p
}

func TestService_Create(t *testing.T) {
	repo := newMemRepo()
	log := &recordingAudit{}
	svc := NewService(repo, passthroughTx(), log)
	ctx := context.Background()

	p := sampleProduct()
	require.NoError(t, svc.Create(ctx, p))

	got, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Galaxy A15 4g (8gb+128gb)", got.DisplayName())
	require.Len(t, log.calls, 1)
	assert.Equal(t, audit.ActionCreate, log.calls[0].action)

	dup := sampleProduct()
	dup.ModelSKU = "SM-OTHER"
	err = svc.Create(ctx, dup)
	assert.True(t, apperror.IsDuplicate(err))
}

func TestService_CreateValidation(t *testing.T) {
	svc := NewService(newMemRepo(), passthroughTx(), nil)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(p *Product)
		field  string
	}{
		{"missing item code", func(p *Product) { p.ItemCode = " " }, "itemCode"},
		{"unknown category", func(p *Product) { p.Category = "fridge" }, "category"},
		{"unknown storage", func(p *Product) { p.Storage = "3gb" }, "storage"},
		{"negative price", func(p *Product) { p.Price = types.MustMoney("-1") }, "price"},
		{"three decimals", func(p *Product) { p.Price = types.MustMoney("1.005") }, "price"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := sampleProduct()
			tt.mutate(p)
			err := svc.Create(ctx, p)
			appErr, ok := apperror.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, apperror.CodeValidation, appErr.Code)
			assert.Equal(t, tt.field, appErr.Details["field"])
		})
	}
}

func TestService_UpdateOptimisticLock(t *testing.T) {
	repo := newMemRepo()
	log := &recordingAudit{}
	svc := NewService(repo, passthroughTx(), log)
	ctx := context.Background()

	p := sampleProduct()
	require.NoError(t, svc.Create(ctx, p))

	edit := *p
	edit.Price = types.MustMoney("179.00")
	require.NoError(t, svc.Update(ctx, &edit))
	assert.Equal(t, 2, edit.Version)

	require.Len(t, log.calls, 2)
	assert.Equal(t, audit.ActionUpdate, log.calls[1].action)
	assert.Contains(t, log.calls[1].changes, "price")
	assert.Len(t, log.calls[1].changes, 1)

	stale := *p
	stale.ModelName = "Galaxy A16"
	err := svc.Update(ctx, &stale)
	assert.True(t, apperror.IsConcurrentModification(err))
}

func TestService_SetStatus(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, passthroughTx(), nil)
	ctx := context.Background()

	p := sampleProduct()
	require.NoError(t, svc.Create(ctx, p))

	got, err := svc.SetStatus(ctx, p.ID, StatusDiscontinued)
	require.NoError(t, err)
	assert.Equal(t, StatusDiscontinued, got.Status)
	assert.False(t, got.IsActive())

	_, err = svc.SetStatus(ctx, p.ID, "archived")
	assert.Equal(t, apperror.CodeValidation, mustCode(t, err))

	_, err = svc.SetStatus(ctx, id.New(), StatusActive)
	assert.True(t, apperror.IsNotFound(err))
}

func TestService_ListNormalizesPaging(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, passthroughTx(), nil)
	ctx := context.Background()
	require.NoError(t, svc.Create(ctx, sampleProduct()))

	res, err := svc.List(ctx, Filter{ListFilter: domain.ListFilter{Search: "galaxy", Limit: 10_000}})
	require.NoError(t, err)
	assert.Equal(t, domain.MaxLimit, res.Limit)
	assert.Len(t, res.Items, 1)
}

func mustCode(t *testing.T, err error) string {
	t.Helper()
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok, "expected AppError, got %v", err)
	return appErr.Code
}
