package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"
)

// Builder returns a squirrel builder with PostgreSQL placeholder format.
func Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Get scans exactly one row of q into dst.
func Get(ctx context.Context, db Querier, dst any, q squirrel.Sqlizer) error {
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	return pgxscan.Get(ctx, db, dst, sql, args...)
}

// Select scans every row of q into dst.
func Select(ctx context.Context, db Querier, dst any, q squirrel.Sqlizer) error {
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	return pgxscan.Select(ctx, db, dst, sql, args...)
}

// Exec runs a statement built with squirrel.
func Exec(ctx context.Context, db Querier, q squirrel.Sqlizer) (pgconn.CommandTag, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return pgconn.CommandTag{}, fmt.Errorf("build statement: %w", err)
	}
	return db.Exec(ctx, sql, args...)
}

// Count returns the number of rows q would produce, ignoring its pagination.
func Count(ctx context.Context, db Querier, q squirrel.SelectBuilder) (int64, error) {
	countQ := Builder().Select("COUNT(*)").FromSelect(q.RemoveLimit().RemoveOffset(), "sub")
	sql, args, err := countQ.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count: %w", err)
	}
	var total int64
	if err := db.QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// SearchAny matches term case-insensitively against any of columns.
func SearchAny(term string, columns ...string) squirrel.Sqlizer {
	pattern := "%" + escapeLike(term) + "%"
	or := make(squirrel.Or, 0, len(columns))
	for _, col := range columns {
		or = append(or, squirrel.ILike{col: pattern})
	}
	return or
}

// OrderBy resolves "field" / "-field" through allowed (API name -> column).
// Unknown or empty input falls back to def.
func OrderBy(orderBy string, allowed map[string]string, def string) string {
	desc := strings.HasPrefix(orderBy, "-")
	col, ok := allowed[strings.TrimPrefix(orderBy, "-")]
	if !ok {
		return def
	}
	if desc {
		return col + " DESC"
	}
	return col + " ASC"
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
