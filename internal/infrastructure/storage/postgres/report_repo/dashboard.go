// Package report_repo provides read-only aggregate and search queries.
package report_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"dsrsales/internal/domain/dashboard"
	"dsrsales/internal/domain/inventory"
	"dsrsales/internal/infrastructure/storage/postgres"
)

// DashboardRepo implements dashboard.Repository.
type DashboardRepo struct {
	txManager *postgres.TxManager
}

var _ dashboard.Repository = (*DashboardRepo)(nil)

// NewDashboardRepo creates a new dashboard repository.
func NewDashboardRepo(txManager *postgres.TxManager) *DashboardRepo {
	return &DashboardRepo{txManager: txManager}
}

type statusCount struct {
	Status string `db:"status"`
	N      int64  `db:"n"`
}

// Summary runs every aggregate in one read-only snapshot.
func (r *DashboardRepo) Summary(ctx context.Context, from, to time.Time) (*dashboard.Summary, error) {
	summary := &dashboard.Summary{UnitsByStatus: map[string]int64{}}

	err := r.txManager.ReadOnly(ctx, func(ctx context.Context) error {
		db := r.txManager.GetQuerier(ctx)

		if err := postgres.Get(ctx, db, &summary.ProductCount,
			postgres.Builder().Select("COUNT(*)").From("products")); err != nil {
			return fmt.Errorf("count products: %w", err)
		}

		var counts []statusCount
		if err := postgres.Select(ctx, db, &counts,
			postgres.Builder().Select("status", "COUNT(*) AS n").From("stocks").GroupBy("status")); err != nil {
			return fmt.Errorf("count units by status: %w", err)
		}
		for _, c := range counts {
			summary.UnitsByStatus[c.Status] = c.N
		}

		totals := postgres.Builder().
			Select("COUNT(*) AS count", "COALESCE(SUM(p.price), 0) AS revenue").
			From("sales sl").
			Join("stocks st ON st.id = sl.stock_id").
			Join("products p ON p.id = st.product_id").
			Where(squirrel.GtOrEq{"sl.sold_at": from}).
			Where(squirrel.Lt{"sl.sold_at": to}).
			Where(squirrel.Eq{"sl.is_returned": false})
		if err := postgres.Get(ctx, db, &summary.SalesToday, totals); err != nil {
			return fmt.Errorf("sum sales: %w", err)
		}

		holdings := postgres.Builder().
			Select("u.id AS user_id", "u.username", "COUNT(*) AS units").
			From("stocks s").
			Join("users u ON u.id = s.assigned_to").
			Where(squirrel.Eq{"s.status": inventory.StatusAssigned}).
			GroupBy("u.id", "u.username").
			OrderBy("units DESC", "u.username")
		if err := postgres.Select(ctx, db, &summary.Holdings, holdings); err != nil {
			return fmt.Errorf("units per seller: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, postgres.TranslateError(err, "dashboard")
	}
	return summary, nil
}
