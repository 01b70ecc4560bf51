package dto

import (
	"time"

	"dsrsales/internal/domain"
	"dsrsales/internal/domain/auth"
)

// --- Request DTOs ---

// LoginRequest for user login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ToCredentials converts to domain credentials.
func (r *LoginRequest) ToCredentials() auth.Credentials {
	return auth.Credentials{
		Username: r.Username,
		Password: r.Password,
	}
}

// ChangePasswordRequest for POST /auth/password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
}

// ProfileRequest carries the optional profile fields.
type ProfileRequest struct {
	FullName      string     `json:"fullName"`
	PhoneNumber   string     `json:"phoneNumber"`
	NationalID    *string    `json:"nationalId"`
	Region        string     `json:"region"`
	Group         string     `json:"group"`
	Gender        string     `json:"gender"`
	DateOfBirth   *time.Time `json:"dateOfBirth"`
	DateOfJoining *time.Time `json:"dateOfJoining"`
}

func (p ProfileRequest) toProfile() auth.Profile {
	return auth.Profile{
		FullName:      p.FullName,
		PhoneNumber:   p.PhoneNumber,
		NationalID:    p.NationalID,
		Region:        p.Region,
		Group:         p.Group,
		Gender:        p.Gender,
		DateOfBirth:   p.DateOfBirth,
		DateOfJoining: p.DateOfJoining,
	}
}

// CreateUserRequest for POST /users.
type CreateUserRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"omitempty,email"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role" binding:"omitempty,oneof=admin manager sales"`
	ProfileRequest
}

// ToAuthRequest converts to domain request.
func (r *CreateUserRequest) ToAuthRequest() auth.RegisterRequest {
	return auth.RegisterRequest{
		Username: r.Username,
		Email:    r.Email,
		Password: r.Password,
		Role:     r.Role,
		Profile:  r.ProfileRequest.toProfile(),
	}
}

// UpdateUserRequest for PUT /users/:id.
type UpdateUserRequest struct {
	Email    string `json:"email" binding:"omitempty,email"`
	Role     string `json:"role" binding:"required,oneof=admin manager sales"`
	IsActive bool   `json:"isActive"`
	Version  int    `json:"version" binding:"omitempty,min=1"`
	ProfileRequest
}

// ToAuthRequest converts to domain request.
func (r *UpdateUserRequest) ToAuthRequest() auth.UpdateUserRequest {
	return auth.UpdateUserRequest{
		Email:    r.Email,
		Role:     r.Role,
		IsActive: r.IsActive,
		Profile:  r.ProfileRequest.toProfile(),
		Version:  r.Version,
	}
}

// UserListQuery for GET /users.
type UserListQuery struct {
	ListQuery
	Role     string `form:"role"`
	IsActive *bool  `form:"isActive"`
}

// ToFilter converts query parameters to the domain filter.
func (q UserListQuery) ToFilter() auth.UserFilter {
	return auth.UserFilter{
		ListFilter: q.ListQuery.ToFilter(),
		Role:       q.Role,
		IsActive:   q.IsActive,
	}
}

// --- Response DTOs ---

// TokenResponse represents the issued access token.
type TokenResponse struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
	TokenType   string    `json:"tokenType"`
}

// FromTokenPair creates response from domain token pair.
func FromTokenPair(tp *auth.TokenPair) *TokenResponse {
	return &TokenResponse{
		AccessToken: tp.AccessToken,
		ExpiresAt:   tp.ExpiresAt,
		TokenType:   tp.TokenType,
	}
}

// UserResponse represents user in API response.
type UserResponse struct {
	ID          string     `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	Role        string     `json:"role"`
	IsActive    bool       `json:"isActive"`
	DisplayName string     `json:"displayName"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	Version     int        `json:"version"`
	auth.Profile
}

// FromUser creates response from domain user.
func FromUser(u *auth.User) *UserResponse {
	return &UserResponse{
		ID:          u.ID.String(),
		Username:    u.Username,
		Email:       u.Email,
		Role:        u.Role,
		IsActive:    u.IsActive,
		DisplayName: u.DisplayName(),
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
		Version:     u.Version,
		Profile:     u.Profile,
	}
}

// FromUserList maps a page of users.
func FromUserList(r domain.ListResult[*auth.User]) ListResponse[*UserResponse] {
	return FromListResult(r, FromUser)
}

// LoginResponse includes the token and user info.
type LoginResponse struct {
	Token *TokenResponse `json:"token"`
	User  *UserResponse  `json:"user"`
}
