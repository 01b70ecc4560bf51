package inventory_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dsrsales/internal/core/apperror"
	"dsrsales/internal/core/id"
	"dsrsales/internal/core/types"
	"dsrsales/internal/domain"
	"dsrsales/internal/domain/catalog/product"
	"dsrsales/internal/domain/inventory"
)

func TestAdd(t *testing.T) {
	f := newFixture(t)

	st := f.addUnit(t, " 356938035643809 ")
	assert.Equal(t, inventory.StatusInStock, st.Status)
	assert.Equal(t, "356938035643809", st.IMEI())
	assert.True(t, strings.HasPrefix(st.SerialNumber, "SER-"))
	assert.Len(t, st.SerialNumber, 16)
	assert.Nil(t, st.AssignedTo)
	require.NotNil(t, st.AddedBy)
	assert.Equal(t, f.admin, *st.AddedBy)

	history := f.store.HistoryFor(st.ID)
	require.Len(t, history, 1)
	assert.Equal(t, inventory.ActionAdded, history[0].Action)
	assert.Equal(t, f.admin, *history[0].PerformedBy)
}

func TestAdd_Duplicates(t *testing.T) {
	f := newFixture(t)
	first := f.addUnit(t, "111")

	_, err := f.svc.Add(as(f.admin), inventory.AddInput{ProductID: f.product.ID, IMEI: "111"})
	assert.True(t, apperror.IsDuplicate(err))

	_, err = f.svc.Add(as(f.admin), inventory.AddInput{ProductID: f.product.ID, IMEI: "222", SerialNumber: first.SerialNumber})
	assert.True(t, apperror.IsDuplicate(err))

	assert.Equal(t, 1, f.store.StockCount())
	assert.Equal(t, 1, f.store.HistoryCount())
}

func TestNewSerialNumber(t *testing.T) {
	seen := make(map[string]struct{}, 5000)
	for i := 0; i < 5000; i++ {
		serial := inventory.NewSerialNumber()
		require.Regexp(t, `^SER-[0-9a-f]{12}$`, serial)
		_, dup := seen[serial]
		require.False(t, dup, "serial %s generated twice", serial)
		seen[serial] = struct{}{}
	}
}

func TestAdd_ReleasedUnitIsReceivedAgain(t *testing.T) {
	f := newFixture(t)
	released := f.releasedUnit(t, "111")
	require.True(t, released.IsReleased())
	before := len(f.store.HistoryFor(released.ID))

	got, err := f.svc.Add(as(f.bob), inventory.AddInput{ProductID: f.product.ID, IMEI: "111", SerialNumber: "SER-IGNORED"})
	require.NoError(t, err)
	assert.Equal(t, released.ID, got.ID)
	assert.Equal(t, released.SerialNumber, got.SerialNumber)
	assert.Equal(t, f.bob, *got.AddedBy)
	assert.False(t, got.IsReleased())

	history := f.store.HistoryFor(released.ID)
	require.Len(t, history, before+1)
	last := history[len(history)-1]
	assert.Equal(t, inventory.ActionAdded, last.Action)
	assert.Equal(t, "Stock "+released.SerialNumber+" re-received into inventory.", last.Details)

	_, err = f.svc.Add(as(f.admin), inventory.AddInput{ProductID: f.product.ID, IMEI: "111"})
	assert.True(t, apperror.IsDuplicate(err))
	assert.Equal(t, 1, f.store.StockCount())
}

func TestAdd_ReleaseClearedByLaterTransition(t *testing.T) {
	f := newFixture(t)
	released := f.releasedUnit(t, "111")

	_, err := f.svc.Allocate(as(f.admin), released.ID, f.bob)
	require.NoError(t, err)
	_, err = f.svc.ReturnToStock(as(f.admin), released.ID, inventory.StatusInStock, "")
	require.NoError(t, err)

	stored, _ := f.store.Stock(released.ID)
	assert.Equal(t, inventory.StatusInStock, stored.Status)
	assert.Nil(t, stored.ReleasedAt)

	_, err = f.svc.Add(as(f.admin), inventory.AddInput{ProductID: f.product.ID, IMEI: "111"})
	assert.True(t, apperror.IsDuplicate(err))
}

func TestAdd_ProductChecks(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Add(as(f.admin), inventory.AddInput{ProductID: id.New(), IMEI: "1"})
	assert.True(t, apperror.IsNotFound(err))

	retired := product.NewProduct("IC-200", "Nokia 105", "TA-1203", product.CategoryPhone, types.MustMoney("20"))
	retired.Status = product.StatusDiscontinued
	f.store.AddProduct(retired)

	_, err = f.svc.Add(as(f.admin), inventory.AddInput{ProductID: retired.ID, IMEI: "1"})
	assert.Equal(t, apperror.CodeBusinessRule, codeOf(t, err))

	_, err = f.svc.Add(context.Background(), inventory.AddInput{ProductID: f.product.ID, IMEI: "1"})
	assert.Equal(t, apperror.CodeUnauthorized, codeOf(t, err))
}

func TestAllocate(t *testing.T) {
	f := newFixture(t)
	st := f.addUnit(t, "111")

	got, err := f.svc.Allocate(as(f.admin), st.ID, f.alice)
	require.NoError(t, err)
	assert.Equal(t, inventory.StatusAssigned, got.Status)
	require.NotNil(t, got.AssignedTo)
	assert.Equal(t, f.alice, *got.AssignedTo)
	assert.NotNil(t, got.LastAssignedDate)

	got, err = f.svc.Allocate(as(f.admin), st.ID, f.bob)
	require.NoError(t, err)
	assert.Equal(t, f.bob, *got.AssignedTo)

	history := f.store.HistoryFor(st.ID)
	require.Len(t, history, 3)

	assert.Equal(t, inventory.ActionAllocated, history[1].Action)
	assert.Equal(t, "Allocated to alice", history[1].Details)
	assert.Nil(t, history[1].TransferredFrom)
	assert.Equal(t, f.alice, *history[1].TransferredTo)

	assert.Equal(t, "Transferred from alice to bob", history[2].Details)
	assert.Equal(t, f.alice, *history[2].TransferredFrom)
	assert.Equal(t, f.bob, *history[2].TransferredTo)
}

func TestAllocate_Rejections(t *testing.T) {
	f := newFixture(t)
	st := f.assignedUnit(t, "111", f.alice)

	_, err := f.svc.Allocate(as(f.admin), st.ID, id.New())
	assert.True(t, apperror.IsNotFound(err))

	_, err = f.svc.Sell(as(f.alice), st.ID, "")
	require.NoError(t, err)

	_, err = f.svc.Allocate(as(f.admin), st.ID, f.bob)
	assert.Equal(t, apperror.CodeInvalidTransition, codeOf(t, err))

	_, err = f.svc.Allocate(as(f.admin), id.New(), f.bob)
	assert.True(t, apperror.IsNotFound(err))
}

func TestAllocate_FromReturned(t *testing.T) {
	f := newFixture(t)
	st := f.assignedUnit(t, "111", f.alice)

	_, err := f.svc.ReturnToStock(as(f.admin), st.ID, inventory.StatusReturned, "")
	require.NoError(t, err)

	got, err := f.svc.Allocate(as(f.admin), st.ID, f.bob)
	require.NoError(t, err)
	assert.Equal(t, inventory.StatusAssigned, got.Status)
}

func TestSell(t *testing.T) {
	f := newFixture(t)
	st := f.assignedUnit(t, "111", f.alice)

	got, err := f.svc.Sell(as(f.alice), st.ID, "Sold to Jane")
	require.NoError(t, err)
	assert.Equal(t, inventory.StatusSold, got.Status)
	assert.Nil(t, got.AssignedTo)
	assert.Nil(t, got.LastAssignedDate)

	stored, _ := f.store.Stock(st.ID)
	assert.Equal(t, inventory.StatusSold, stored.Status)

	history := f.store.HistoryFor(st.ID)
	last := history[len(history)-1]
	assert.Equal(t, inventory.ActionSold, last.Action)
	assert.Equal(t, "Sold to Jane", last.Details)
}

func TestSell_NotHolder(t *testing.T) {
	f := newFixture(t)
	st := f.assignedUnit(t, "111", f.alice)
	before := f.store.HistoryCount()

	_, err := f.svc.Sell(as(f.bob), st.ID, "")
	assert.True(t, apperror.IsNotAssignedToSeller(err))
	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, "IMEI 111 is not assigned to you", appErr.Message)

	stored, _ := f.store.Stock(st.ID)
	assert.Equal(t, inventory.StatusAssigned, stored.Status)
	assert.Equal(t, f.alice, *stored.AssignedTo)
	assert.Equal(t, before, f.store.HistoryCount())
}

func TestSellMany(t *testing.T) {
	f := newFixture(t)
	a := f.assignedUnit(t, "111", f.alice)
	b := f.assignedUnit(t, "222", f.alice)

	sold, failures, err := f.svc.SellMany(as(f.alice), []string{"222", "111"}, "Sold to Jane")
	require.NoError(t, err)
	assert.Empty(t, failures)
	require.Len(t, sold, 2)
	assert.Equal(t, b.ID, sold[0].ID)
	assert.Equal(t, a.ID, sold[1].ID)
	for _, st := range []*inventory.Stock{a, b} {
		stored, _ := f.store.Stock(st.ID)
		assert.Equal(t, inventory.StatusSold, stored.Status)
	}
}

func TestSellMany_AllOrNothing(t *testing.T) {
	f := newFixture(t)
	held := f.assignedUnit(t, "111", f.alice)
	f.addUnit(t, "222")
	f.assignedUnit(t, "333", f.bob)
	before := f.store.HistoryCount()

	sold, failures, err := f.svc.SellMany(as(f.alice), []string{"111", "222", "999", "333"}, "")
	require.NoError(t, err)
	assert.Empty(t, sold)
	require.Len(t, failures, 3)

	assert.Equal(t, "222", failures[0].IMEI)
	assert.True(t, apperror.IsNotAssignedToSeller(failures[0].Err))
	assert.Equal(t, "999", failures[1].IMEI)
	assert.True(t, apperror.IsNotFound(failures[1].Err))
	assert.Equal(t, "333", failures[2].IMEI)
	assert.True(t, apperror.IsNotAssignedToSeller(failures[2].Err))

	stored, _ := f.store.Stock(held.ID)
	assert.Equal(t, inventory.StatusAssigned, stored.Status)
	assert.Equal(t, before, f.store.HistoryCount())
}

func TestSell_ConcurrentCallsSellOnce(t *testing.T) {
	f := newFixture(t)
	st := f.assignedUnit(t, "111", f.alice)

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		rejected  int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sold, failures, err := f.svc.SellMany(as(f.alice), []string{"111"}, "")
			mu.Lock()
			defer mu.Unlock()
			if err == nil && len(sold) == 1 {
				successes++
			} else if len(failures) == 1 && apperror.IsNotAssignedToSeller(failures[0].Err) {
				rejected++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, workers-1, rejected)

	sold := 0
	for _, e := range f.store.HistoryFor(st.ID) {
		if e.Action == inventory.ActionSold {
			sold++
		}
	}
	assert.Equal(t, 1, sold)
}

func TestCompareAndSwap_StaleExpectation(t *testing.T) {
	f := newFixture(t)
	st := f.assignedUnit(t, "111", f.alice)
	bob := f.bob

	err := f.store.Stocks().CompareAndSwap(context.Background(), inventory.Transition{
		StockID:    st.ID,
		FromStatus: inventory.StatusAssigned,
		FromHolder: &bob,
		ToStatus:   inventory.StatusSold,
	})
	assert.True(t, apperror.IsConcurrentModification(err))
	assert.True(t, apperror.IsRetryable(err))
}

func TestReturnToStock(t *testing.T) {
	f := newFixture(t)
	st := f.assignedUnit(t, "111", f.alice)

	got, err := f.svc.ReturnToStock(as(f.admin), st.ID, inventory.StatusInStock, "")
	require.NoError(t, err)
	assert.Equal(t, inventory.StatusInStock, got.Status)
	assert.Nil(t, got.AssignedTo)

	history := f.store.HistoryFor(st.ID)
	last := history[len(history)-1]
	assert.Equal(t, inventory.ActionReturned, last.Action)
	assert.Equal(t, f.alice, *last.TransferredFrom)

	_, err = f.svc.ReturnToStock(as(f.admin), st.ID, inventory.StatusReturned, "")
	assert.Equal(t, apperror.CodeInvalidTransition, codeOf(t, err))

	_, err = f.svc.ReturnToStock(as(f.admin), st.ID, inventory.StatusSold, "")
	assert.Equal(t, apperror.CodeValidation, codeOf(t, err))
}

func TestReturnToStock_SoldUnitIsRefused(t *testing.T) {
	f := newFixture(t)
	st := f.soldUnit(t, "111", f.alice)
	before := f.store.HistoryCount()

	_, err := f.svc.ReturnToStock(as(f.admin), st.ID, inventory.StatusInStock, "")
	assert.Equal(t, apperror.CodeInvalidTransition, codeOf(t, err))
	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, "sold units are returned through their sale", appErr.Message)

	stored, _ := f.store.Stock(st.ID)
	assert.Equal(t, inventory.StatusSold, stored.Status)
	assert.Equal(t, before, f.store.HistoryCount())
}

func TestReverseSale(t *testing.T) {
	f := newFixture(t)
	undone := f.soldUnit(t, "111", f.alice)
	returned := f.soldUnit(t, "222", f.alice)

	got, err := f.svc.ReverseSale(as(f.admin), undone.ID, inventory.StatusInStock, "Returned from customer Jane")
	require.NoError(t, err)
	assert.Equal(t, inventory.StatusInStock, got.Status)
	assert.True(t, got.IsReleased())

	history := f.store.HistoryFor(undone.ID)
	last := history[len(history)-1]
	assert.Equal(t, inventory.ActionReturned, last.Action)
	assert.Equal(t, "Returned from customer Jane", last.Details)

	got, err = f.svc.ReverseSale(as(f.admin), returned.ID, inventory.StatusReturned, "")
	require.NoError(t, err)
	assert.Equal(t, inventory.StatusReturned, got.Status)
	assert.Nil(t, got.ReleasedAt)

	_, err = f.svc.ReverseSale(as(f.admin), returned.ID, inventory.StatusInStock, "")
	assert.Equal(t, apperror.CodeInvalidTransition, codeOf(t, err))

	held := f.assignedUnit(t, "333", f.bob)
	_, err = f.svc.ReverseSale(as(f.admin), held.ID, inventory.StatusInStock, "")
	assert.Equal(t, apperror.CodeInvalidTransition, codeOf(t, err))
}

func TestQueries(t *testing.T) {
	f := newFixture(t)
	f.assignedUnit(t, "111", f.alice)
	f.assignedUnit(t, "222", f.bob)
	own := f.addUnit(t, "333")

	mine, err := f.svc.StockByHolder(context.Background(), f.alice, domain.ListFilter{})
	require.NoError(t, err)
	require.Len(t, mine.Items, 1)
	assert.Equal(t, "111", mine.Items[0].IMEI())
	require.NotNil(t, mine.Items[0].HolderUsername)
	assert.Equal(t, "alice", *mine.Items[0].HolderUsername)

	view, err := f.svc.Get(context.Background(), own.ID)
	require.NoError(t, err)
	assert.Equal(t, "Galaxy A15", view.ProductName)

	byIMEI, err := f.svc.GetByIMEI(context.Background(), "333")
	require.NoError(t, err)
	assert.Equal(t, own.ID, byIMEI.ID)

	history, err := f.svc.History(context.Background(), own.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)

	_, err = f.svc.History(context.Background(), id.New())
	assert.True(t, apperror.IsNotFound(err))

	_, err = f.svc.List(context.Background(), inventory.Filter{Status: "lost"})
	assert.Equal(t, apperror.CodeValidation, codeOf(t, err))
}
