// Package catalog_repo provides PostgreSQL implementations for catalog repositories.
package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"dsrsales/internal/core/apperror"
	"dsrsales/internal/core/id"
	"dsrsales/internal/domain"
	"dsrsales/internal/infrastructure/storage/postgres"
)

// baseRepo provides insert, optimistic update and paged listing for a table
// whose rows map onto T through "db" tags.
type baseRepo[T any] struct {
	txManager  *postgres.TxManager
	entity     string
	tableName  string
	selectCols []string
}

func newBaseRepo[T any](txManager *postgres.TxManager, entity, tableName string) baseRepo[T] {
	return baseRepo[T]{
		txManager:  txManager,
		entity:     entity,
		tableName:  tableName,
		selectCols: postgres.ExtractDBColumns[T](),
	}
}

func (r *baseRepo[T]) db(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

// insert writes every tagged column of entity.
func (r *baseRepo[T]) insert(ctx context.Context, entity *T) error {
	q := postgres.Builder().
		Insert(r.tableName).
		SetMap(postgres.StructToMap(entity))

	if _, err := postgres.Exec(ctx, r.db(ctx), q); err != nil {
		return postgres.TranslateError(fmt.Errorf("insert %s: %w", r.tableName, err), r.entity)
	}
	return nil
}

// update writes every column except immutable, guarded by the entity's version.
func (r *baseRepo[T]) update(ctx context.Context, entity *T, immutable ...string) error {
	data := postgres.StructToMap(entity)
	entityID := data["id"]
	version, ok := data["version"].(int)
	if !ok {
		return fmt.Errorf("%s has no int version column", r.tableName)
	}

	skip := map[string]bool{"id": true, "version": true}
	for _, col := range immutable {
		skip[col] = true
	}
	set := make(map[string]any, len(data))
	for col, val := range data {
		if !skip[col] {
			set[col] = val
		}
	}

	q := postgres.Builder().
		Update(r.tableName).
		SetMap(set).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": entityID}).
		Where(squirrel.Eq{"version": version})

	result, err := postgres.Exec(ctx, r.db(ctx), q)
	if err != nil {
		return postgres.TranslateError(fmt.Errorf("update %s: %w", r.tableName, err), r.entity)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification(r.entity, entityID)
	}
	return nil
}

func (r *baseRepo[T]) selectQ() squirrel.SelectBuilder {
	return postgres.Builder().Select(r.selectCols...).From(r.tableName)
}

// getWhere loads one row matching pred; key is reported in NotFound errors.
func (r *baseRepo[T]) getWhere(ctx context.Context, pred squirrel.Sqlizer, key any) (*T, error) {
	entity := new(T)
	if err := postgres.Get(ctx, r.db(ctx), entity, r.selectQ().Where(pred).Limit(1)); err != nil {
		return nil, postgres.NotFoundOr(err, r.entity, key)
	}
	return entity, nil
}

func (r *baseRepo[T]) getByID(ctx context.Context, entityID id.ID) (*T, error) {
	return r.getWhere(ctx, squirrel.Eq{"id": entityID}, entityID.String())
}

// list pages q and counts its full result.
func (r *baseRepo[T]) list(ctx context.Context, q squirrel.SelectBuilder, f domain.ListFilter) (domain.ListResult[*T], error) {
	res := domain.ListResult[*T]{Limit: f.Limit, Offset: f.Offset}

	total, err := postgres.Count(ctx, r.db(ctx), q)
	if err != nil {
		return res, postgres.TranslateError(fmt.Errorf("count %s: %w", r.tableName, err), r.entity)
	}
	res.TotalCount = total

	items := make([]*T, 0)
	if err := postgres.Select(ctx, r.db(ctx), &items, q.Limit(uint64(f.Limit)).Offset(uint64(f.Offset))); err != nil {
		return res, postgres.TranslateError(fmt.Errorf("list %s: %w", r.tableName, err), r.entity)
	}
	res.Items = items
	return res, nil
}
