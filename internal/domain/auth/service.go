package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"dsrsales/internal/core/apperror"
	appctx "dsrsales/internal/core/context"
	"dsrsales/internal/core/id"
	"dsrsales/internal/core/tx"
	"dsrsales/internal/domain"
	"dsrsales/pkg/logger"
)

// ServiceConfig holds auth service configuration.
type ServiceConfig struct {
	MaxLoginAttempts  int
	LockDuration      time.Duration
	PasswordMinLength int
}

// DefaultServiceConfig returns default configuration.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		MaxLoginAttempts:  5,
		LockDuration:      15 * time.Minute,
		PasswordMinLength: 8,
	}
}

// Service provides authentication and user administration.
type Service struct {
	userRepo   UserRepository
	txManager  tx.Manager
	jwtService *JWTService
	config     ServiceConfig
	now        func() time.Time
}

// NewService creates a new auth service.
func NewService(
	userRepo UserRepository,
	txManager tx.Manager,
	jwtService *JWTService,
	config ServiceConfig,
) *Service {
	return &Service{
		userRepo:   userRepo,
		txManager:  txManager,
		jwtService: jwtService,
		config:     config,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Register creates a new user account.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	if err := s.checkPassword(req.Password); err != nil {
		return nil, err
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	role := req.Role
	if role == "" {
		role = appctx.RoleSales
	}

	user := NewUser(strings.TrimSpace(req.Username), strings.TrimSpace(req.Email), string(passwordHash), role)
	user.Profile = req.Profile
	if user.Gender == "" {
		user.Gender = GenderUnspecified
	}
	if err := user.Validate(ctx); err != nil {
		return nil, err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.userRepo.Create(ctx, user); err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "user registered", "user_id", user.ID, "username", user.Username, "role", user.Role)
	return user, nil
}

// Login authenticates user and returns an access token.
func (s *Service) Login(ctx context.Context, creds Credentials) (*TokenPair, *User, error) {
	user, err := s.userRepo.GetByUsername(ctx, strings.TrimSpace(creds.Username))
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, nil, apperror.NewUnauthorized("invalid credentials")
		}
		return nil, nil, fmt.Errorf("get user: %w", err)
	}

	now := s.now()
	if err := user.CanLogin(now); err != nil {
		return nil, nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)); err != nil {
		user.RecordFailedLogin(now, s.config.MaxLoginAttempts, s.config.LockDuration)
		if updateErr := s.userRepo.UpdateLoginState(ctx, user); updateErr != nil {
			logger.Warn(ctx, "failed to record failed login", "user_id", user.ID, "error", updateErr)
		}
		return nil, nil, apperror.NewUnauthorized("invalid credentials")
	}

	user.RecordSuccessfulLogin(now)
	if err := s.userRepo.UpdateLoginState(ctx, user); err != nil {
		logger.Warn(ctx, "failed to record login", "user_id", user.ID, "error", err)
	}

	token, expiresAt, err := s.jwtService.GenerateAccessToken(user)
	if err != nil {
		return nil, nil, apperror.NewInternal(err)
	}

	logger.Info(ctx, "user logged in", "user_id", user.ID, "username", user.Username)
	return &TokenPair{AccessToken: token, ExpiresAt: expiresAt, TokenType: "Bearer"}, user, nil
}

// ValidateToken validates an access token and returns the user context.
func (s *Service) ValidateToken(token string) (*appctx.UserContext, error) {
	userCtx, err := s.jwtService.ValidateToken(token)
	if err != nil {
		return nil, apperror.NewUnauthorized("invalid or expired token")
	}
	return userCtx, nil
}

// GetUser retrieves user by ID.
func (s *Service) GetUser(ctx context.Context, userID id.ID) (*User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

// ListUsers lists users.
func (s *Service) ListUsers(ctx context.Context, filter UserFilter) (domain.ListResult[*User], error) {
	filter.ListFilter = filter.Normalize()
	if filter.Role != "" && !IsValidRole(filter.Role) {
		return domain.ListResult[*User]{}, apperror.NewValidation("invalid role").WithDetail("field", "role")
	}
	return s.userRepo.List(ctx, filter)
}

// UpdateUser replaces the profile, role and status of a user.
func (s *Service) UpdateUser(ctx context.Context, userID id.ID, req UpdateUserRequest) (*User, error) {
	var user *User
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		current, err := s.userRepo.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if req.Version != 0 && current.Version != req.Version {
			return apperror.NewConcurrentModification("user", userID)
		}

		// An admin cannot demote or disable the last active admin.
		if current.Role == appctx.RoleAdmin && current.IsActive &&
			(req.Role != appctx.RoleAdmin || !req.IsActive) {
			admins, err := s.userRepo.CountByRole(ctx, appctx.RoleAdmin)
			if err != nil {
				return fmt.Errorf("count admins: %w", err)
			}
			if admins <= 1 {
				return apperror.NewBusinessRule(apperror.CodeBusinessRule, "the last active administrator cannot be demoted or disabled")
			}
		}

		current.Email = strings.TrimSpace(req.Email)
		current.Role = req.Role
		current.IsActive = req.IsActive
		current.Profile = req.Profile
		if current.Gender == "" {
			current.Gender = GenderUnspecified
		}
		if err := current.Validate(ctx); err != nil {
			return err
		}
		current.UpdatedAt = s.now()

		if err := s.userRepo.Update(ctx, current); err != nil {
			return err
		}
		current.Version++
		user = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "user updated", "user_id", user.ID, "role", user.Role, "active", user.IsActive)
	return user, nil
}

// ChangePassword verifies the current password and stores a new one.
func (s *Service) ChangePassword(ctx context.Context, userID id.ID, current, next string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
		return apperror.NewValidation("current password is incorrect").WithDetail("field", "currentPassword")
	}
	if err := s.checkPassword(next); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.userRepo.UpdatePassword(ctx, userID, string(hash)); err != nil {
		return err
	}

	logger.Info(ctx, "password changed", "user_id", userID)
	return nil
}

// Username returns the login name of an active or inactive user.
func (s *Service) Username(ctx context.Context, userID id.ID) (string, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	return user.Username, nil
}

// HasAdmin reports whether at least one active administrator exists.
func (s *Service) HasAdmin(ctx context.Context) (bool, error) {
	n, err := s.userRepo.CountByRole(ctx, appctx.RoleAdmin)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Service) checkPassword(password string) error {
	if len(password) < s.config.PasswordMinLength {
		return apperror.NewValidation(
			fmt.Sprintf("password must be at least %d characters", s.config.PasswordMinLength),
		).WithDetail("field", "password")
	}
	return nil
}
