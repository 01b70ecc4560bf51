package document_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"dsrsales/internal/core/apperror"
	"dsrsales/internal/core/id"
	"dsrsales/internal/domain/sales"
	"dsrsales/internal/infrastructure/storage/postgres"
)

const (
	salesTable = "sales"
	saleEntity = "sale"
)

// SaleRepo implements sales.SaleRepository.
type SaleRepo struct {
	txManager *postgres.TxManager
}

var _ sales.SaleRepository = (*SaleRepo)(nil)

// NewSaleRepo creates a new sale repository.
func NewSaleRepo(txManager *postgres.TxManager) *SaleRepo {
	return &SaleRepo{txManager: txManager}
}

func (r *SaleRepo) db(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

// CreateMany copies every line of an order inside the caller's transaction.
func (r *SaleRepo) CreateMany(ctx context.Context, lines []*sales.Sale) error {
	rows := make([][]any, 0, len(lines))
	for _, s := range lines {
		rows = append(rows, postgres.StructValues(s, saleColumns))
	}
	if _, err := postgres.CopyRows(ctx, salesTable, saleColumns, rows); err != nil {
		return postgres.TranslateError(err, saleEntity)
	}
	return nil
}

func (r *SaleRepo) get(ctx context.Context, saleID id.ID, suffix string) (*sales.Sale, error) {
	q := postgres.Builder().
		Select(saleColumns...).
		From(salesTable).
		Where(squirrel.Eq{"id": saleID})
	if suffix != "" {
		q = q.Suffix(suffix)
	}

	var s sales.Sale
	if err := postgres.Get(ctx, r.db(ctx), &s, q); err != nil {
		return nil, postgres.NotFoundOr(err, saleEntity, saleID.String())
	}
	return &s, nil
}

func (r *SaleRepo) GetByID(ctx context.Context, saleID id.ID) (*sales.Sale, error) {
	return r.get(ctx, saleID, "")
}

func (r *SaleRepo) GetForUpdate(ctx context.Context, saleID id.ID) (*sales.Sale, error) {
	return r.get(ctx, saleID, "FOR UPDATE")
}

func (r *SaleRepo) MarkReturned(ctx context.Context, saleID id.ID, at time.Time) error {
	q := postgres.Builder().
		Update(salesTable).
		Set("is_returned", true).
		Set("returned_at", at).
		Where(squirrel.Eq{"id": saleID, "is_returned": false})

	result, err := postgres.Exec(ctx, r.db(ctx), q)
	if err != nil {
		return postgres.TranslateError(fmt.Errorf("mark sale returned: %w", err), saleEntity)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification(saleEntity, saleID)
	}
	return nil
}

func (r *SaleRepo) Delete(ctx context.Context, saleID id.ID) error {
	q := postgres.Builder().Delete(salesTable).Where(squirrel.Eq{"id": saleID})

	result, err := postgres.Exec(ctx, r.db(ctx), q)
	if err != nil {
		return postgres.TranslateError(fmt.Errorf("delete sale: %w", err), saleEntity)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(saleEntity, saleID.String())
	}
	return nil
}

func (r *SaleRepo) viewQ() squirrel.SelectBuilder {
	cols := append(prefixed("sl", saleColumns),
		"st.imei_number",
		"st.serial_number",
		"p.model_name AS product_name",
		"p.model_sku",
		"p.price",
		"c.name AS customer_name",
		"u.username AS seller_username",
	)
	return postgres.Builder().
		Select(cols...).
		From(salesTable + " sl").
		Join("stocks st ON st.id = sl.stock_id").
		Join("products p ON p.id = st.product_id").
		Join("customers c ON c.id = sl.customer_id").
		Join("users u ON u.id = sl.sold_by")
}

func (r *SaleRepo) listViews(ctx context.Context, q squirrel.SelectBuilder) ([]*sales.SaleView, error) {
	views := make([]*sales.SaleView, 0)
	if err := postgres.Select(ctx, r.db(ctx), &views, q); err != nil {
		return nil, postgres.TranslateError(fmt.Errorf("list sales: %w", err), saleEntity)
	}
	return views, nil
}

// ListByOrder returns the lines of an order in the order they were sold.
func (r *SaleRepo) ListByOrder(ctx context.Context, orderID string) ([]*sales.SaleView, error) {
	return r.listViews(ctx, r.viewQ().
		Where(squirrel.Eq{"sl.order_id": orderID}).
		OrderBy("sl.sold_at", "sl.id"))
}

// ListByCustomer returns a customer's purchases, newest first.
func (r *SaleRepo) ListByCustomer(ctx context.Context, customerID id.ID) ([]*sales.SaleView, error) {
	return r.listViews(ctx, r.viewQ().
		Where(squirrel.Eq{"sl.customer_id": customerID}).
		OrderBy("sl.sold_at DESC", "sl.id DESC"))
}
