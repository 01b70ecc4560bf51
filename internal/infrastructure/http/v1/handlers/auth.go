package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"dsrsales/internal/core/id"
	"dsrsales/internal/domain"
	"dsrsales/internal/domain/auth"
	"dsrsales/internal/infrastructure/http/v1/dto"
)

// UserService is the slice of auth.Service used by the HTTP layer.
type UserService interface {
	Register(ctx context.Context, req auth.RegisterRequest) (*auth.User, error)
	Login(ctx context.Context, creds auth.Credentials) (*auth.TokenPair, *auth.User, error)
	GetUser(ctx context.Context, userID id.ID) (*auth.User, error)
	ListUsers(ctx context.Context, filter auth.UserFilter) (domain.ListResult[*auth.User], error)
	UpdateUser(ctx context.Context, userID id.ID, req auth.UpdateUserRequest) (*auth.User, error)
	ChangePassword(ctx context.Context, userID id.ID, current, next string) error
}

var _ UserService = (*auth.Service)(nil)

// AuthHandler handles authentication and user administration endpoints.
type AuthHandler struct {
	*BaseHandler
	service UserService
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(base *BaseHandler, service UserService) *AuthHandler {
	return &AuthHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !h.BindJSON(c, &req) {
		return
	}

	tokens, user, err := h.service.Login(c.Request.Context(), req.ToCredentials())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.LoginResponse{
		Token: dto.FromTokenPair(tokens),
		User:  dto.FromUser(user),
	})
}

// Me handles GET /auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	_, userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}

	user, err := h.service.GetUser(c.Request.Context(), userID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromUser(user))
}

// ChangePassword handles POST /auth/password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	_, userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}

	var req dto.ChangePasswordRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.ChangePassword(c.Request.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// ListUsers handles GET /users
func (h *AuthHandler) ListUsers(c *gin.Context) {
	var q dto.UserListQuery
	if !h.BindQuery(c, &q) {
		return
	}

	result, err := h.service.ListUsers(c.Request.Context(), q.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromUserList(result))
}

// CreateUser handles POST /users
func (h *AuthHandler) CreateUser(c *gin.Context) {
	var req dto.CreateUserRequest
	if !h.BindJSON(c, &req) {
		return
	}

	user, err := h.service.Register(c.Request.Context(), req.ToAuthRequest())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.FromUser(user))
}

// GetUser handles GET /users/:id
func (h *AuthHandler) GetUser(c *gin.Context) {
	userID, ok := h.PathID(c, "id")
	if !ok {
		return
	}

	user, err := h.service.GetUser(c.Request.Context(), userID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromUser(user))
}

// UpdateUser handles PUT /users/:id
func (h *AuthHandler) UpdateUser(c *gin.Context) {
	userID, ok := h.PathID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateUserRequest
	if !h.BindJSON(c, &req) {
		return
	}

	user, err := h.service.UpdateUser(c.Request.Context(), userID, req.ToAuthRequest())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromUser(user))
}
