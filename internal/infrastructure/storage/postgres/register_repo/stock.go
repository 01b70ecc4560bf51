// Package register_repo provides PostgreSQL implementations for the stock ledger and its history.
package register_repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"

	"dsrsales/internal/core/apperror"
	"dsrsales/internal/core/id"
	"dsrsales/internal/domain"
	"dsrsales/internal/domain/inventory"
	"dsrsales/internal/infrastructure/storage/postgres"
)

const (
	stocksTable = "stocks"
	stockEntity = "stock"
)

var stockOrder = map[string]string{
	"stockInDate":  "s.stock_in_date",
	"status":       "s.status",
	"serialNumber": "s.serial_number",
	"productName":  "p.model_name",
	"assignedDate": "s.last_assigned_date",
}

// StockRepo implements inventory.StockRepository.
type StockRepo struct {
	txManager *postgres.TxManager
	columns   []string
	viewCols  []string
}

var _ inventory.StockRepository = (*StockRepo)(nil)

// NewStockRepo creates a new stock repository.
func NewStockRepo(txManager *postgres.TxManager) *StockRepo {
	columns := postgres.ExtractDBColumns[inventory.Stock]()
	viewCols := make([]string, 0, len(columns)+6)
	for _, c := range columns {
		viewCols = append(viewCols, "s."+c)
	}
	viewCols = append(viewCols,
		"p.model_name AS product_name",
		"p.model_sku",
		"p.category",
		"p.price",
		"h.username AS holder_username",
		"a.username AS added_by_username",
	)
	return &StockRepo{txManager: txManager, columns: columns, viewCols: viewCols}
}

func (r *StockRepo) db(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

func (r *StockRepo) Create(ctx context.Context, s *inventory.Stock) error {
	q := postgres.Builder().Insert(stocksTable).SetMap(postgres.StructToMap(s))
	if _, err := postgres.Exec(ctx, r.db(ctx), q); err != nil {
		return postgres.TranslateError(fmt.Errorf("insert stock: %w", err), stockEntity)
	}
	return nil
}

// CreateMany copies every unit in one round trip inside the caller's transaction.
func (r *StockRepo) CreateMany(ctx context.Context, stocks []*inventory.Stock) error {
	rows := make([][]any, 0, len(stocks))
	for _, s := range stocks {
		rows = append(rows, postgres.StructValues(s, r.columns))
	}
	if _, err := postgres.CopyRows(ctx, stocksTable, r.columns, rows); err != nil {
		return postgres.TranslateError(err, stockEntity)
	}
	return nil
}

func (r *StockRepo) selectQ() squirrel.SelectBuilder {
	return postgres.Builder().Select(r.columns...).From(stocksTable)
}

func (r *StockRepo) getOne(ctx context.Context, q squirrel.SelectBuilder, key any) (*inventory.Stock, error) {
	var s inventory.Stock
	if err := postgres.Get(ctx, r.db(ctx), &s, q); err != nil {
		return nil, postgres.NotFoundOr(err, stockEntity, key)
	}
	return &s, nil
}

func (r *StockRepo) GetByID(ctx context.Context, stockID id.ID) (*inventory.Stock, error) {
	return r.getOne(ctx, r.selectQ().Where(squirrel.Eq{"id": stockID}), stockID.String())
}

func (r *StockRepo) GetByIMEI(ctx context.Context, imei string) (*inventory.Stock, error) {
	return r.getOne(ctx, r.selectQ().Where(squirrel.Eq{"imei_number": imei}), imei)
}

func (r *StockRepo) GetForUpdate(ctx context.Context, stockID id.ID) (*inventory.Stock, error) {
	return r.getOne(ctx, r.selectQ().Where(squirrel.Eq{"id": stockID}).Suffix("FOR UPDATE"), stockID.String())
}

// GetByIMEIsForUpdate locks rows in id order so concurrent bulk calls cannot deadlock.
func (r *StockRepo) GetByIMEIsForUpdate(ctx context.Context, imeis []string) (map[string]*inventory.Stock, error) {
	out := make(map[string]*inventory.Stock, len(imeis))
	if len(imeis) == 0 {
		return out, nil
	}

	var found []*inventory.Stock
	q := r.selectQ().
		Where(squirrel.Eq{"imei_number": imeis}).
		OrderBy("id").
		Suffix("FOR UPDATE")
	if err := postgres.Select(ctx, r.db(ctx), &found, q); err != nil {
		return nil, postgres.TranslateError(fmt.Errorf("lock stocks by imei: %w", err), stockEntity)
	}
	for _, s := range found {
		out[s.IMEI()] = s
	}
	return out, nil
}

// Readmit only touches rows still marked released.
func (r *StockRepo) Readmit(ctx context.Context, s *inventory.Stock) error {
	q := postgres.Builder().
		Update(stocksTable).
		Set("product_id", s.ProductID).
		Set("stock_in_date", s.StockInDate).
		Set("added_by", s.AddedBy).
		Set("released_at", nil).
		Where(squirrel.Eq{"id": s.ID, "status": inventory.StatusInStock}).
		Where(squirrel.NotEq{"released_at": nil})

	result, err := postgres.Exec(ctx, r.db(ctx), q)
	if err != nil {
		return postgres.TranslateError(fmt.Errorf("readmit stock: %w", err), stockEntity)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification(stockEntity, s.ID)
	}
	return nil
}

// CompareAndSwap applies the transition only if status and holder still match.
func (r *StockRepo) CompareAndSwap(ctx context.Context, t inventory.Transition) error {
	q := postgres.Builder().
		Update(stocksTable).
		Set("status", t.ToStatus).
		Set("assigned_to", t.ToHolder).
		Set("last_assigned_date", t.LastAssignedDate).
		Set("released_at", t.ReleasedAt).
		Where(squirrel.Eq{"id": t.StockID, "status": t.FromStatus}).
		Where(squirrel.Expr("assigned_to IS NOT DISTINCT FROM ?::uuid", t.FromHolder))

	result, err := postgres.Exec(ctx, r.db(ctx), q)
	if err != nil {
		return postgres.TranslateError(fmt.Errorf("update stock status: %w", err), stockEntity)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification(stockEntity, t.StockID)
	}
	return nil
}

func (r *StockRepo) viewQ() squirrel.SelectBuilder {
	return postgres.Builder().
		Select(r.viewCols...).
		From(stocksTable + " s").
		Join("products p ON p.id = s.product_id").
		LeftJoin("users h ON h.id = s.assigned_to").
		LeftJoin("users a ON a.id = s.added_by")
}

func (r *StockRepo) GetView(ctx context.Context, stockID id.ID) (*inventory.StockView, error) {
	var v inventory.StockView
	if err := postgres.Get(ctx, r.db(ctx), &v, r.viewQ().Where(squirrel.Eq{"s.id": stockID})); err != nil {
		return nil, postgres.NotFoundOr(err, stockEntity, stockID.String())
	}
	return &v, nil
}

func (r *StockRepo) List(ctx context.Context, filter inventory.Filter) (domain.ListResult[*inventory.StockView], error) {
	res := domain.ListResult[*inventory.StockView]{Limit: filter.Limit, Offset: filter.Offset}

	q := r.viewQ()
	if term := strings.TrimSpace(filter.Search); term != "" {
		q = q.Where(postgres.SearchAny(term,
			"s.imei_number", "s.serial_number", "p.model_name", "p.model_sku", "p.category", "h.username"))
	}
	if filter.Status != "" {
		q = q.Where(squirrel.Eq{"s.status": filter.Status})
	}
	if filter.ProductID != nil {
		q = q.Where(squirrel.Eq{"s.product_id": *filter.ProductID})
	}
	if filter.HolderID != nil {
		q = q.Where(squirrel.Eq{"s.assigned_to": *filter.HolderID})
	}

	total, err := postgres.Count(ctx, r.db(ctx), q)
	if err != nil {
		return res, postgres.TranslateError(fmt.Errorf("count stocks: %w", err), stockEntity)
	}
	res.TotalCount = total

	q = q.OrderBy(postgres.OrderBy(filter.OrderBy, stockOrder, "s.stock_in_date DESC"), "s.id").
		Limit(uint64(filter.Limit)).
		Offset(uint64(filter.Offset))

	items := make([]*inventory.StockView, 0)
	if err := postgres.Select(ctx, r.db(ctx), &items, q); err != nil {
		return res, postgres.TranslateError(fmt.Errorf("list stocks: %w", err), stockEntity)
	}
	res.Items = items
	return res, nil
}
