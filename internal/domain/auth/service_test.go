package auth

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dsrsales/internal/core/apperror"
	appctx "dsrsales/internal/core/context"
	"dsrsales/internal/core/id"
	"dsrsales/internal/core/tx"
	"dsrsales/internal/domain"
)

type memUsers struct {
	mu    sync.Mutex
	items map[id.ID]User
}

func newMemUsers() *memUsers {
	return &memUsers{items: make(map[id.ID]User)}
}

func (r *memUsers) Create(_ context.Context, u *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.items {
		if strings.EqualFold(existing.Username, u.Username) {
			return apperror.NewDuplicate("user", "username", u.Username)
		}
	}
	r.items[u.ID] = *u
	return nil
}

func (r *memUsers) GetByID(_ context.Context, userID id.ID) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.items[userID]
	if !ok {
		return nil, apperror.NewNotFound("user", userID.String())
	}
	return &u, nil
}

func (r *memUsers) GetByUsername(_ context.Context, username string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.items {
		if strings.EqualFold(u.Username, username) {
			u := u
			return &u, nil
		}
	}
	return nil, apperror.NewNotFound("user", username)
}

func (r *memUsers) Update(_ context.Context, u *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.items[u.ID]
	if !ok || existing.Version != u.Version {
		return apperror.NewConcurrentModification("user", u.ID)
	}
	stored := *u
	stored.PasswordHash = existing.PasswordHash
	stored.Version++
	r.items[u.ID] = stored
	return nil
}

func (r *memUsers) UpdatePassword(_ context.Context, userID id.ID, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.items[userID]
	if !ok {
		return apperror.NewNotFound("user", userID.String())
	}
	u.PasswordHash = hash
	r.items[userID] = u
	return nil
}

func (r *memUsers) UpdateLoginState(_ context.Context, u *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing := r.items[u.ID]
	existing.FailedLoginAttempts = u.FailedLoginAttempts
	existing.LockedUntil = u.LockedUntil
	existing.LastLoginAt = u.LastLoginAt
	r.items[u.ID] = existing
	return nil
}

func (r *memUsers) List(_ context.Context, filter UserFilter) (domain.ListResult[*User], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := domain.ListResult[*User]{Limit: filter.Limit, Offset: filter.Offset}
	q := strings.ToLower(filter.Search)
	for _, u := range r.items {
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(u.Username), q) && !strings.Contains(strings.ToLower(u.FullName), q) {
			continue
		}
		u := u
		res.Items = append(res.Items, &u)
	}
	res.TotalCount = int64(len(res.Items))
	return res, nil
}

func (r *memUsers) CountByRole(_ context.Context, role string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, u := range r.items {
		if u.Role == role && u.IsActive {
			n++
		}
	}
	return n, nil
}

var passthroughTx = tx.Func(func(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
})

func newTestService() (*Service, *memUsers) {
	repo := newMemUsers()
	jwtSvc := NewJWTService(DefaultJWTConfig("test-secret"))
	cfg := DefaultServiceConfig()
	cfg.MaxLoginAttempts = 3
	return NewService(repo, passthroughTx, jwtSvc, cfg), repo
}

func register(t *testing.T, svc *Service, username, role string) *User {
	t.Helper()
	u, err := svc.Register(context.Background(), RegisterRequest{
		Username: username,
		Email:    username + "@example.com",
		Password: "s3cret-pass",
		Role:     role,
		Profile:  Profile{FullName: strings.ToUpper(username)},
	})
	require.NoError(t, err)
	return u
}

func TestService_Register(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	u := register(t, svc, "alice", "")
	assert.Equal(t, appctx.RoleSales, u.Role)
	assert.Equal(t, GenderUnspecified, u.Gender)
	assert.True(t, u.IsActive)
	assert.NotEqual(t, "s3cret-pass", u.PasswordHash)

	_, err := svc.Register(ctx, RegisterRequest{Username: "alice", Password: "another-pass"})
	assert.True(t, apperror.IsDuplicate(err))

	_, err = svc.Register(ctx, RegisterRequest{Username: "bob", Password: "short"})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	_, err = svc.Register(ctx, RegisterRequest{Username: "carol", Password: "long-enough", Role: "owner"})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	_, err = svc.Register(ctx, RegisterRequest{Username: "dan smith", Password: "long-enough"})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestService_LoginIssuesValidToken(t *testing.T) {
	svc, _ := newTestService()
	u := register(t, svc, "alice", appctx.RoleManager)

	pair, logged, err := svc.Login(context.Background(), Credentials{Username: "ALICE", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.Equal(t, u.ID, logged.ID)
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.NotNil(t, logged.LastLoginAt)

	userCtx, err := svc.ValidateToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID.String(), userCtx.UserID)
	assert.Equal(t, "alice", userCtx.Username)
	assert.Equal(t, appctx.RoleManager, userCtx.Role)

	_, err = svc.ValidateToken(pair.AccessToken + "x")
	assert.True(t, apperror.HasCode(err, apperror.CodeUnauthorized))
}

func TestService_LoginLockout(t *testing.T) {
	svc, repo := newTestService()
	u := register(t, svc, "alice", "")
	ctx := context.Background()

	_, _, err := svc.Login(ctx, Credentials{Username: "nobody", Password: "whatever"})
	assert.True(t, apperror.HasCode(err, apperror.CodeUnauthorized))

	for i := 0; i < 3; i++ {
		_, _, err = svc.Login(ctx, Credentials{Username: "alice", Password: "wrong-pass"})
		assert.True(t, apperror.HasCode(err, apperror.CodeUnauthorized))
	}

	stored, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LockedUntil)

	_, _, err = svc.Login(ctx, Credentials{Username: "alice", Password: "s3cret-pass"})
	assert.True(t, apperror.HasCode(err, apperror.CodeForbidden))

	svc.now = func() time.Time { return time.Now().UTC().Add(time.Hour) }
	_, _, err = svc.Login(ctx, Credentials{Username: "alice", Password: "s3cret-pass"})
	assert.NoError(t, err)
}

func TestService_UpdateUser(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	admin := register(t, svc, "root", appctx.RoleAdmin)
	alice := register(t, svc, "alice", "")

	updated, err := svc.UpdateUser(ctx, alice.ID, UpdateUserRequest{
		Email:    "alice@corp.example",
		Role:     appctx.RoleManager,
		IsActive: true,
		Profile:  Profile{FullName: "Alice A", Region: "North"},
		Version:  alice.Version,
	})
	require.NoError(t, err)
	assert.Equal(t, appctx.RoleManager, updated.Role)
	assert.Equal(t, "North", updated.Region)
	assert.Equal(t, alice.Version+1, updated.Version)

	_, err = svc.UpdateUser(ctx, alice.ID, UpdateUserRequest{Role: appctx.RoleSales, IsActive: true, Version: alice.Version})
	assert.True(t, apperror.IsConcurrentModification(err))

	_, err = svc.UpdateUser(ctx, admin.ID, UpdateUserRequest{Role: appctx.RoleSales, IsActive: true})
	assert.True(t, apperror.HasCode(err, apperror.CodeBusinessRule))

	_, err = svc.UpdateUser(ctx, id.New(), UpdateUserRequest{Role: appctx.RoleSales})
	assert.True(t, apperror.IsNotFound(err))
}

func TestService_ChangePassword(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	u := register(t, svc, "alice", "")

	err := svc.ChangePassword(ctx, u.ID, "bad-current", "new-password")
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	require.NoError(t, svc.ChangePassword(ctx, u.ID, "s3cret-pass", "new-password"))

	_, _, err = svc.Login(ctx, Credentials{Username: "alice", Password: "new-password"})
	assert.NoError(t, err)
}

func TestService_DirectoryAndListing(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	u := register(t, svc, "alice", "")
	register(t, svc, "bob", "")

	name, err := svc.Username(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", name)

	_, err = svc.Username(ctx, id.New())
	assert.True(t, apperror.IsNotFound(err))

	res, err := svc.ListUsers(ctx, UserFilter{ListFilter: domain.ListFilter{Search: "BOB"}})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "bob", res.Items[0].Username)
	assert.Equal(t, domain.DefaultLimit, res.Limit)

	ok, err := svc.HasAdmin(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}
