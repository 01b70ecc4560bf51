package report_repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"dsrsales/internal/domain/search"
	"dsrsales/internal/infrastructure/storage/postgres"
	"dsrsales/internal/metadata"
)

// SearchRepo implements search.Repository over the registry's tables.
type SearchRepo struct {
	txManager *postgres.TxManager
}

var _ search.Repository = (*SearchRepo)(nil)

// NewSearchRepo creates a new search repository.
func NewSearchRepo(txManager *postgres.TxManager) *SearchRepo {
	return &SearchRepo{txManager: txManager}
}

// Search returns the list columns of rows where any searchable field contains query.
// Table and column names come from the static registry, never from the request.
func (r *SearchRepo) Search(ctx context.Context, def metadata.EntityDef, query string, limit int) ([]search.Hit, error) {
	sql, args, err := postgres.Builder().
		Select(def.ListColumns...).
		From(def.TableName).
		Where(postgres.SearchAny(query, def.SearchFields...)).
		OrderBy(def.ListColumns[0] + " DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build search: %w", err)
	}

	rows, err := r.txManager.GetQuerier(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, postgres.TranslateError(fmt.Errorf("search %s: %w", def.Name, err), def.Name)
	}
	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, postgres.TranslateError(fmt.Errorf("scan %s: %w", def.Name, err), def.Name)
	}

	hits := make([]search.Hit, 0, len(maps))
	for _, m := range maps {
		for k, v := range m {
			// uuid columns arrive as raw bytes.
			if b, ok := v.([16]byte); ok {
				m[k] = uuid.UUID(b).String()
			}
		}
		hits = append(hits, search.Hit(m))
	}
	return hits, nil
}
