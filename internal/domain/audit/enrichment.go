package audit

import (
	"context"

	"dsrsales/internal/core/id"
	"dsrsales/internal/core/security"
)

// CreatedBy returns the acting user's ID for created_by columns.
// Returns nil if no valid user ID is in context (system jobs, seeding).
func CreatedBy(ctx context.Context) *id.ID {
	actor, err := security.ActorID(ctx)
	if err != nil {
		return nil
	}
	return &actor
}
