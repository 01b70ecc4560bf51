// Package auth_repo provides the PostgreSQL user repository.
package auth_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"dsrsales/internal/core/apperror"
	"dsrsales/internal/core/id"
	"dsrsales/internal/domain"
	"dsrsales/internal/domain/auth"
	"dsrsales/internal/infrastructure/storage/postgres"
)

const (
	usersTable = "users"
	userEntity = "user"
)

var userOrder = map[string]string{
	"username":  "username",
	"fullName":  "full_name",
	"role":      "role",
	"createdAt": "created_at",
}

// UserRepo implements auth.UserRepository.
type UserRepo struct {
	txManager *postgres.TxManager
	columns   []string
}

var _ auth.UserRepository = (*UserRepo)(nil)

// NewUserRepo creates a new user repository.
func NewUserRepo(txManager *postgres.TxManager) *UserRepo {
	return &UserRepo{
		txManager: txManager,
		columns:   postgres.ExtractDBColumns[auth.User](),
	}
}

func (r *UserRepo) db(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

func (r *UserRepo) Create(ctx context.Context, user *auth.User) error {
	q := postgres.Builder().Insert(usersTable).SetMap(postgres.StructToMap(user))
	if _, err := postgres.Exec(ctx, r.db(ctx), q); err != nil {
		return postgres.TranslateError(fmt.Errorf("insert user: %w", err), userEntity)
	}
	return nil
}

func (r *UserRepo) getOne(ctx context.Context, pred squirrel.Sqlizer, key string) (*auth.User, error) {
	var user auth.User
	q := postgres.Builder().Select(r.columns...).From(usersTable).Where(pred).Limit(1)
	if err := postgres.Get(ctx, r.db(ctx), &user, q); err != nil {
		return nil, postgres.NotFoundOr(err, userEntity, key)
	}
	return &user, nil
}

func (r *UserRepo) GetByID(ctx context.Context, userID id.ID) (*auth.User, error) {
	return r.getOne(ctx, squirrel.Eq{"id": userID}, userID.String())
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*auth.User, error) {
	return r.getOne(ctx, squirrel.Expr("lower(username) = lower(?)", username), username)
}

// Update writes email, role, status and profile when the version still matches.
func (r *UserRepo) Update(ctx context.Context, user *auth.User) error {
	set := postgres.StructToMap(&user.Profile)
	set["email"] = user.Email
	set["role"] = user.Role
	set["is_active"] = user.IsActive
	set["updated_at"] = user.UpdatedAt

	q := postgres.Builder().
		Update(usersTable).
		SetMap(set).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": user.ID, "version": user.Version})

	result, err := postgres.Exec(ctx, r.db(ctx), q)
	if err != nil {
		return postgres.TranslateError(fmt.Errorf("update user: %w", err), userEntity)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification(userEntity, user.ID)
	}
	return nil
}

func (r *UserRepo) UpdatePassword(ctx context.Context, userID id.ID, passwordHash string) error {
	q := postgres.Builder().
		Update(usersTable).
		Set("password_hash", passwordHash).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": userID})

	result, err := postgres.Exec(ctx, r.db(ctx), q)
	if err != nil {
		return postgres.TranslateError(fmt.Errorf("update password: %w", err), userEntity)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(userEntity, userID.String())
	}
	return nil
}

// UpdateLoginState does not bump the version; login bookkeeping never conflicts with edits.
func (r *UserRepo) UpdateLoginState(ctx context.Context, user *auth.User) error {
	q := postgres.Builder().
		Update(usersTable).
		Set("failed_login_attempts", user.FailedLoginAttempts).
		Set("locked_until", user.LockedUntil).
		Set("last_login_at", user.LastLoginAt).
		Where(squirrel.Eq{"id": user.ID})

	if _, err := postgres.Exec(ctx, r.db(ctx), q); err != nil {
		return postgres.TranslateError(fmt.Errorf("update login state: %w", err), userEntity)
	}
	return nil
}

func (r *UserRepo) List(ctx context.Context, filter auth.UserFilter) (domain.ListResult[*auth.User], error) {
	res := domain.ListResult[*auth.User]{Limit: filter.Limit, Offset: filter.Offset}

	q := postgres.Builder().Select(r.columns...).From(usersTable)
	if filter.Search != "" {
		q = q.Where(postgres.SearchAny(filter.Search, "full_name", "username"))
	}
	if filter.Role != "" {
		q = q.Where(squirrel.Eq{"role": filter.Role})
	}
	if filter.IsActive != nil {
		q = q.Where(squirrel.Eq{"is_active": *filter.IsActive})
	}

	total, err := postgres.Count(ctx, r.db(ctx), q)
	if err != nil {
		return res, postgres.TranslateError(fmt.Errorf("count users: %w", err), userEntity)
	}
	res.TotalCount = total

	q = q.OrderBy(postgres.OrderBy(filter.OrderBy, userOrder, "username ASC"), "id").
		Limit(uint64(filter.Limit)).
		Offset(uint64(filter.Offset))

	items := make([]*auth.User, 0)
	if err := postgres.Select(ctx, r.db(ctx), &items, q); err != nil {
		return res, postgres.TranslateError(fmt.Errorf("list users: %w", err), userEntity)
	}
	res.Items = items
	return res, nil
}

func (r *UserRepo) CountByRole(ctx context.Context, role string) (int, error) {
	var n int
	q := postgres.Builder().
		Select("COUNT(*)").
		From(usersTable).
		Where(squirrel.Eq{"role": role, "is_active": true})
	if err := postgres.Get(ctx, r.db(ctx), &n, q); err != nil {
		return 0, postgres.TranslateError(fmt.Errorf("count users by role: %w", err), userEntity)
	}
	return n, nil
}
