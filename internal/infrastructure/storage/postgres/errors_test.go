package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"dsrsales/internal/core/apperror"
)

func TestTranslateError(t *testing.T) {
	dup := &pgconn.PgError{
		Code:           pgUniqueViolation,
		ConstraintName: "stocks_imei_number_key",
		Detail:         "Key (imei_number)=(111) already exists.",
	}
	err := TranslateError(fmt.Errorf("insert: %w", dup), "stock")
	appErr, ok := apperror.AsAppError(err)
	assert.True(t, ok)
	assert.Equal(t, apperror.CodeDuplicateIdentifier, appErr.Code)
	assert.Equal(t, "imei_number", appErr.Details["field"])
	assert.Equal(t, "111", appErr.Details["value"])

	err = TranslateError(&pgconn.PgError{Code: pgDeadlock}, "stock")
	assert.True(t, apperror.IsConcurrentModification(err))

	err = TranslateError(&pgconn.PgError{Code: pgForeignKeyViolation}, "sale")
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	err = TranslateError(errors.New("connection reset"), "stock")
	assert.True(t, apperror.HasCode(err, apperror.CodeInfrastructure))
	assert.True(t, apperror.IsRetryable(err))

	notFound := apperror.NewNotFound("stock", "x")
	assert.Same(t, notFound, TranslateError(notFound, "stock"))
	assert.ErrorIs(t, TranslateError(context.Canceled, "stock"), context.Canceled)
	assert.NoError(t, TranslateError(nil, "stock"))
}

func TestNotFoundOr(t *testing.T) {
	err := NotFoundOr(pgx.ErrNoRows, "product", "abc")
	assert.True(t, apperror.IsNotFound(err))

	err = NotFoundOr(errors.New("boom"), "product", "abc")
	assert.True(t, apperror.HasCode(err, apperror.CodeInfrastructure))
}
