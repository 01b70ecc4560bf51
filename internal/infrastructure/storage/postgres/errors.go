package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"

	"dsrsales/internal/core/apperror"
)

// Postgres SQLSTATE codes the store reacts to.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
	pgLockNotAvailable    = "55P03"
	pgSerialization       = "40001"
	pgDeadlock            = "40P01"
)

// uniqueFields maps unique constraint names from the migrations to API field names.
var uniqueFields = map[string]string{
	"products_item_code_key":   "item_code",
	"products_model_sku_key":   "model_sku",
	"stocks_imei_number_key":   "imei_number",
	"stocks_serial_number_key": "serial_number",
	"users_username_lower_idx": "username",
	"users_national_id_key":    "national_id",
	"customers_id_number_key":  "id_number",
	"sales_active_stock_idx":   "stock_id",
	"sys_idempotency_pkey":     "idempotency_key",
}

// TranslateError maps driver errors onto the platform error taxonomy.
// AppErrors and context errors pass through unchanged.
func TranslateError(err error, entity string) error {
	if err == nil {
		return nil
	}
	if _, ok := apperror.AsAppError(err); ok {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			field, ok := uniqueFields[pgErr.ConstraintName]
			if !ok {
				field = pgErr.ConstraintName
			}
			return apperror.NewDuplicate(entity, field, detailValue(pgErr.Detail)).WithCause(err)
		case pgForeignKeyViolation:
			return apperror.NewValidation("referenced record does not exist").
				WithDetail("entity", entity).
				WithDetail("constraint", pgErr.ConstraintName).
				WithCause(err)
		case pgCheckViolation:
			return apperror.NewValidation("value violates a constraint").
				WithDetail("entity", entity).
				WithDetail("constraint", pgErr.ConstraintName).
				WithCause(err)
		case pgSerialization, pgDeadlock, pgLockNotAvailable:
			return apperror.NewConcurrentModification(entity, "").WithCause(err)
		}
	}

	return apperror.NewInfrastructure(err)
}

// NotFoundOr returns NotFound when err means "no rows", otherwise TranslateError.
func NotFoundOr(err error, entity string, key any) error {
	if pgxscan.NotFound(err) {
		return apperror.NewNotFound(entity, key)
	}
	return TranslateError(err, entity)
}

// detailValue extracts "X" from `Key (col)=(X) already exists.`
func detailValue(detail string) string {
	start := strings.Index(detail, ")=(")
	if start < 0 {
		return ""
	}
	rest := detail[start+3:]
	end := strings.LastIndex(rest, ")")
	if end < 0 {
		return rest
	}
	return rest[:end]
}
