package inventory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"dsrsales/internal/core/apperror"
	"dsrsales/internal/core/id"
	"dsrsales/internal/core/security"
	"dsrsales/internal/core/types"
	"dsrsales/internal/domain/catalog/product"
	"dsrsales/internal/domain/inventory"
	"dsrsales/internal/domain/inventory/inventorytest"
)

type fixture struct {
	store   *inventorytest.Store
	svc     *inventory.Service
	product *product.Product

	admin id.ID
	alice id.ID
	bob   id.ID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := inventorytest.NewStore()

	p := product.NewProduct("IC-100", "Galaxy A15", "SM-A155", product.CategoryPhone, types.MustMoney("189.99"))
	store.AddProduct(p)

	f := &fixture{
		store:   store,
		product: p,
		admin:   store.AddUser("admin"),
		alice:   store.AddUser("alice"),
		bob:     store.AddUser("bob"),
	}
	f.svc = inventory.NewService(
		store.Stocks(),
		store.Products(),
		store.Directory(),
		inventory.NewRecorder(store.History()),
		store.TxManager(),
	)
	return f
}

func as(userID id.ID) context.Context {
	return security.WithUserID(context.Background(), userID.String())
}

// addUnit receives a unit as admin and returns it.
func (f *fixture) addUnit(t *testing.T, imei string) *inventory.Stock {
	t.Helper()
	st, err := f.svc.Add(as(f.admin), inventory.AddInput{ProductID: f.product.ID, IMEI: imei})
	require.NoError(t, err)
	return st
}

// assignedUnit receives a unit and allocates it to holder.
func (f *fixture) assignedUnit(t *testing.T, imei string, holder id.ID) *inventory.Stock {
	t.Helper()
	st := f.addUnit(t, imei)
	st, err := f.svc.Allocate(as(f.admin), st.ID, holder)
	require.NoError(t, err)
	return st
}

// soldUnit receives a unit, allocates it to holder and sells it as holder.
func (f *fixture) soldUnit(t *testing.T, imei string, holder id.ID) *inventory.Stock {
	t.Helper()
	st := f.assignedUnit(t, imei, holder)
	st, err := f.svc.Sell(as(holder), st.ID, "")
	require.NoError(t, err)
	return st
}

// releasedUnit is a sold unit whose sale was undone.
func (f *fixture) releasedUnit(t *testing.T, imei string) *inventory.Stock {
	t.Helper()
	st := f.soldUnit(t, imei, f.alice)
	st, err := f.svc.ReverseSale(as(f.admin), st.ID, inventory.StatusInStock, "")
	require.NoError(t, err)
	return st
}

func codeOf(t *testing.T, err error) string {
	t.Helper()
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok, "expected AppError, got %v", err)
	return appErr.Code
}
