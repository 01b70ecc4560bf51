// Package security provides actor identity helpers and the role access policy.
package security

import (
	"context"

	"dsrsales/internal/core/apperror"
	"dsrsales/internal/core/id"
)

type userIDKey struct{}

// WithUserID adds user ID to context.
// Used by middleware to propagate the authenticated user through the request chain.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// GetUserID retrieves user ID from context.
// Returns empty string if not found.
func GetUserID(ctx context.Context) string {
	if uid, ok := ctx.Value(userIDKey{}).(string); ok {
		return uid
	}
	return ""
}

// ActorID returns the acting user's ID parsed from context.
func ActorID(ctx context.Context) (id.ID, error) {
	raw := GetUserID(ctx)
	if raw == "" {
		return id.Nil(), apperror.NewUnauthorized("authentication required")
	}
	actor, err := id.Parse(raw)
	if err != nil {
		return id.Nil(), apperror.NewUnauthorized("invalid user identity")
	}
	return actor, nil
}
