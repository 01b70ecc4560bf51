package register_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"dsrsales/internal/core/id"
	"dsrsales/internal/domain/inventory"
	"dsrsales/internal/infrastructure/storage/postgres"
)

const historyTable = "stock_history"

// HistoryRepo implements inventory.HistoryRepository. Rows are never updated or deleted.
type HistoryRepo struct {
	txManager *postgres.TxManager
	columns   []string
}

var _ inventory.HistoryRepository = (*HistoryRepo)(nil)

// NewHistoryRepo creates a new history repository.
func NewHistoryRepo(txManager *postgres.TxManager) *HistoryRepo {
	return &HistoryRepo{
		txManager: txManager,
		columns:   postgres.ExtractDBColumns[inventory.HistoryEntry](),
	}
}

func (r *HistoryRepo) Append(ctx context.Context, e *inventory.HistoryEntry) error {
	q := postgres.Builder().Insert(historyTable).SetMap(postgres.StructToMap(e))
	if _, err := postgres.Exec(ctx, r.txManager.GetQuerier(ctx), q); err != nil {
		return postgres.TranslateError(fmt.Errorf("insert history: %w", err), "stock_history")
	}
	return nil
}

// AppendMany copies entries inside the caller's transaction.
func (r *HistoryRepo) AppendMany(ctx context.Context, entries []*inventory.HistoryEntry) error {
	rows := make([][]any, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, postgres.StructValues(e, r.columns))
	}
	if _, err := postgres.CopyRows(ctx, historyTable, r.columns, rows); err != nil {
		return postgres.TranslateError(err, "stock_history")
	}
	return nil
}

// ListByStock returns rows newest first; ties keep insertion order reversed via the v7 id.
func (r *HistoryRepo) ListByStock(ctx context.Context, stockID id.ID) ([]*inventory.HistoryEntry, error) {
	entries := make([]*inventory.HistoryEntry, 0)
	q := postgres.Builder().
		Select(r.columns...).
		From(historyTable).
		Where(squirrel.Eq{"stock_id": stockID}).
		OrderBy("performed_on DESC", "id DESC")
	if err := postgres.Select(ctx, r.txManager.GetQuerier(ctx), &entries, q); err != nil {
		return nil, postgres.TranslateError(fmt.Errorf("list history: %w", err), "stock_history")
	}
	return entries, nil
}
