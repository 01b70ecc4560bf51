package inventory

import (
	"context"
	"time"

	"dsrsales/internal/core/id"
	"dsrsales/internal/domain"
)

// Transition describes a guarded status change. The write only applies when
// the stored row still has FromStatus and FromHolder.
type Transition struct {
	StockID    id.ID
	FromStatus Status
	FromHolder *id.ID

	ToStatus         Status
	ToHolder         *id.ID
	LastAssignedDate *time.Time

	// ReleasedAt is stored as given, so every transition except an undone
	// sale clears it.
	ReleasedAt *time.Time
}

// Filter narrows stock listings.
type Filter struct {
	domain.ListFilter

	Status    Status
	ProductID *id.ID
	HolderID  *id.ID
}

// StockRepository defines data access for stock units.
type StockRepository interface {
	// Create inserts one unit. A taken serial or IMEI yields DuplicateIdentifier.
	Create(ctx context.Context, s *Stock) error

	// CreateMany inserts units in one round trip. Requires a transaction.
	CreateMany(ctx context.Context, stocks []*Stock) error

	GetByID(ctx context.Context, stockID id.ID) (*Stock, error)
	GetByIMEI(ctx context.Context, imei string) (*Stock, error)

	// GetForUpdate loads and row-locks a unit until the transaction ends.
	GetForUpdate(ctx context.Context, stockID id.ID) (*Stock, error)

	// GetByIMEIsForUpdate loads and row-locks every unit whose IMEI is listed.
	// Missing IMEIs are absent from the map.
	GetByIMEIsForUpdate(ctx context.Context, imeis []string) (map[string]*Stock, error)

	// Readmit stores the product, stock-in date and receiver of a released
	// unit and clears its release mark. A unit that is no longer released
	// yields ConcurrentModification.
	Readmit(ctx context.Context, s *Stock) error

	// CompareAndSwap applies t. Zero affected rows yields ConcurrentModification.
	CompareAndSwap(ctx context.Context, t Transition) error

	GetView(ctx context.Context, stockID id.ID) (*StockView, error)
	List(ctx context.Context, filter Filter) (domain.ListResult[*StockView], error)
}

// HistoryRepository is append-only storage for history rows.
type HistoryRepository interface {
	Append(ctx context.Context, e *HistoryEntry) error
	AppendMany(ctx context.Context, entries []*HistoryEntry) error

	// ListByStock returns rows newest first.
	ListByStock(ctx context.Context, stockID id.ID) ([]*HistoryEntry, error)
}

// Directory resolves user display names. Missing users yield NotFound.
type Directory interface {
	Username(ctx context.Context, userID id.ID) (string, error)
}
