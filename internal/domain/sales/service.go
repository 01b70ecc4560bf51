package sales

import (
	"time"

	"dsrsales/internal/core/tx"
	"dsrsales/internal/domain/events"
	"dsrsales/internal/domain/inventory"
)

const (
	saleEntity  = "sale"
	orderEntity = "order"
)

// Service orchestrates checkouts and reversals on top of the stock state machine.
type Service struct {
	customers CustomerRepository
	sales     SaleRepository
	stock     StockLedger
	users     inventory.Directory
	publisher events.Publisher
	txManager tx.Manager
	now       func() time.Time
}

// NewService creates a new sales service.
func NewService(
	customers CustomerRepository,
	sales SaleRepository,
	stock StockLedger,
	users inventory.Directory,
	publisher events.Publisher,
	txManager tx.Manager,
) *Service {
	if publisher == nil {
		publisher = events.Discard{}
	}
	return &Service{
		customers: customers,
		sales:     sales,
		stock:     stock,
		users:     users,
		publisher: publisher,
		txManager: txManager,
		now:       time.Now,
	}
}
