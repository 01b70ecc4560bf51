package product

import (
	"context"

	"dsrsales/internal/core/id"
	"dsrsales/internal/domain"
)

// Filter narrows product listings.
type Filter struct {
	domain.ListFilter

	Status   Status
	Category Category
}

// Repository defines data access for products.
type Repository interface {
	// Create inserts a product. Duplicate item code or SKU yields a DuplicateIdentifier error.
	Create(ctx context.Context, p *Product) error

	// Update writes p if its version still matches and bumps the version.
	Update(ctx context.Context, p *Product) error

	GetByID(ctx context.Context, productID id.ID) (*Product, error)

	// List matches Search against model name, SKU and item code.
	List(ctx context.Context, filter Filter) (domain.ListResult[*Product], error)
}
