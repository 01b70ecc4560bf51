package sales

import (
	"context"
	"time"

	"dsrsales/internal/core/id"
	"dsrsales/internal/domain"
	"dsrsales/internal/domain/inventory"
)

// CustomerRepository defines data access for customers.
type CustomerRepository interface {
	// Create inserts a customer. A taken IDNumber yields DuplicateIdentifier.
	Create(ctx context.Context, c *Customer) error
	GetByID(ctx context.Context, customerID id.ID) (*Customer, error)
	GetByIDNumber(ctx context.Context, idNumber string) (*Customer, error)

	// List matches Search against name, phone and ID number.
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Customer], error)
}

// SaleRepository defines data access for sales.
type SaleRepository interface {
	CreateMany(ctx context.Context, sales []*Sale) error
	GetByID(ctx context.Context, saleID id.ID) (*Sale, error)

	// GetForUpdate loads and row-locks a sale until the transaction ends.
	GetForUpdate(ctx context.Context, saleID id.ID) (*Sale, error)

	MarkReturned(ctx context.Context, saleID id.ID, at time.Time) error
	Delete(ctx context.Context, saleID id.ID) error

	ListByOrder(ctx context.Context, orderID string) ([]*SaleView, error)
	ListByCustomer(ctx context.Context, customerID id.ID) ([]*SaleView, error)
}

// StockLedger is the part of the inventory state machine a sale drives.
type StockLedger interface {
	SellMany(ctx context.Context, imeis []string, details string) ([]*inventory.Stock, []inventory.SellFailure, error)
	ReverseSale(ctx context.Context, stockID id.ID, target inventory.Status, details string) (*inventory.Stock, error)
}
