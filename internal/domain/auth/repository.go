package auth

import (
	"context"

	"dsrsales/internal/core/id"
	"dsrsales/internal/domain"
)

// UserRepository defines user storage operations.
type UserRepository interface {
	// Create creates a new user. A taken username or national ID yields DuplicateIdentifier.
	Create(ctx context.Context, user *User) error

	// GetByID retrieves user by ID.
	GetByID(ctx context.Context, userID id.ID) (*User, error)

	// GetByUsername retrieves user by username (case-insensitive).
	GetByUsername(ctx context.Context, username string) (*User, error)

	// Update writes profile, role and status with optimistic locking.
	Update(ctx context.Context, user *User) error

	// UpdatePassword replaces the password hash.
	UpdatePassword(ctx context.Context, userID id.ID, passwordHash string) error

	// UpdateLoginState persists failed attempts, lock and last login.
	UpdateLoginState(ctx context.Context, user *User) error

	// List retrieves users with filtering.
	List(ctx context.Context, filter UserFilter) (domain.ListResult[*User], error)

	// CountByRole counts active users holding role.
	CountByRole(ctx context.Context, role string) (int, error)
}
