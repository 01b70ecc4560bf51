// Package auth provides authentication and user administration domain logic.
package auth

import (
	"context"
	"strings"
	"time"

	"dsrsales/internal/core/apperror"
	appctx "dsrsales/internal/core/context"
	"dsrsales/internal/core/id"
	"dsrsales/internal/domain"
)

// Gender values accepted on profiles.
const (
	GenderMale        = "male"
	GenderFemale      = "female"
	GenderUnspecified = "---"
)

// Profile holds employee details.
type Profile struct {
	FullName      string     `db:"full_name" json:"fullName"`
	PhoneNumber   string     `db:"phone_number" json:"phoneNumber"`
	NationalID    *string    `db:"national_id" json:"nationalId,omitempty"`
	Region        string     `db:"region" json:"region"`
	Group         string     `db:"user_group" json:"group"`
	Gender        string     `db:"gender" json:"gender"`
	DateOfBirth   *time.Time `db:"date_of_birth" json:"dateOfBirth,omitempty"`
	DateOfJoining *time.Time `db:"date_of_joining" json:"dateOfJoining,omitempty"`
}

// User represents a system user.
type User struct {
	ID                  id.ID      `db:"id" json:"id"`
	Username            string     `db:"username" json:"username"`
	Email               string     `db:"email" json:"email"`
	PasswordHash        string     `db:"password_hash" json:"-"`
	Role                string     `db:"role" json:"role"`
	IsActive            bool       `db:"is_active" json:"isActive"`
	LastLoginAt         *time.Time `db:"last_login_at" json:"lastLoginAt,omitempty"`
	FailedLoginAttempts int        `db:"failed_login_attempts" json:"-"`
	LockedUntil         *time.Time `db:"locked_until" json:"-"`
	CreatedAt           time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt           time.Time  `db:"updated_at" json:"updatedAt"`
	Version             int        `db:"version" json:"version"`

	Profile
}

// NewUser creates a new active user.
func NewUser(username, email, passwordHash, role string) *User {
	now := time.Now().UTC()
	return &User{
		ID:           id.New(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
		Version:      1,
	}
}

// Validate validates user data.
func (u *User) Validate(ctx context.Context) error {
	if strings.TrimSpace(u.Username) == "" {
		return apperror.NewValidation("username is required").WithDetail("field", "username")
	}
	if strings.ContainsAny(u.Username, " \t\n") {
		return apperror.NewValidation("username must not contain spaces").WithDetail("field", "username")
	}
	if !IsValidRole(u.Role) {
		return apperror.NewValidation("invalid role").
			WithDetail("field", "role").
			WithDetail("value", u.Role)
	}
	switch u.Gender {
	case "", GenderMale, GenderFemale, GenderUnspecified:
	default:
		return apperror.NewValidation("invalid gender").
			WithDetail("field", "gender").
			WithDetail("value", u.Gender)
	}
	return nil
}

// IsValidRole reports whether role is one of the platform roles.
func IsValidRole(role string) bool {
	switch role {
	case appctx.RoleAdmin, appctx.RoleManager, appctx.RoleSales:
		return true
	}
	return false
}

// IsLocked returns true if account is locked.
func (u *User) IsLocked(now time.Time) bool {
	if u.LockedUntil == nil {
		return false
	}
	return now.Before(*u.LockedUntil)
}

// CanLogin checks if user can login.
func (u *User) CanLogin(now time.Time) error {
	if !u.IsActive {
		return apperror.NewForbidden("account is disabled")
	}
	if u.IsLocked(now) {
		return apperror.NewForbidden("account is temporarily locked")
	}
	return nil
}

// RecordFailedLogin increments failed login counter.
func (u *User) RecordFailedLogin(now time.Time, maxAttempts int, lockDuration time.Duration) {
	u.FailedLoginAttempts++
	if u.FailedLoginAttempts >= maxAttempts {
		lockUntil := now.Add(lockDuration)
		u.LockedUntil = &lockUntil
		u.FailedLoginAttempts = 0
	}
}

// RecordSuccessfulLogin resets failed login counter.
func (u *User) RecordSuccessfulLogin(now time.Time) {
	u.FailedLoginAttempts = 0
	u.LockedUntil = nil
	u.LastLoginAt = &now
}

// DisplayName returns the full name, falling back to the username.
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}

// TokenPair contains the issued access token.
type TokenPair struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
	TokenType   string    `json:"tokenType"`
}

// Credentials for login.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterRequest for user creation by an administrator.
type RegisterRequest struct {
	Username string
	Email    string
	Password string
	Role     string
	Profile  Profile
}

// UpdateUserRequest replaces the mutable fields of a user.
type UpdateUserRequest struct {
	Email    string
	Role     string
	IsActive bool
	Profile  Profile
	Version  int
}

// UserFilter for listing users. Search matches full name and username.
type UserFilter struct {
	domain.ListFilter

	Role     string
	IsActive *bool
}
