package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"dsrsales/internal/core/apperror"
	"dsrsales/internal/core/id"
	"dsrsales/internal/core/security"
	"dsrsales/internal/core/tx"
	"dsrsales/internal/domain"
	"dsrsales/internal/domain/catalog/product"
	"dsrsales/pkg/logger"
)

const entityName = "stock"

// ProductReader is the slice of the catalog inventory depends on.
type ProductReader interface {
	GetByID(ctx context.Context, productID id.ID) (*product.Product, error)
}

// Service is the stock state machine. It is the only writer of a unit's
// status, holder and last assignment date, and every transition it performs
// appends a history row in the same transaction.
type Service struct {
	stocks    StockRepository
	products  ProductReader
	users     Directory
	history   *Recorder
	txManager tx.Manager
	now       func() time.Time
}

// NewService creates a new inventory service.
func NewService(
	stocks StockRepository,
	products ProductReader,
	users Directory,
	history *Recorder,
	txManager tx.Manager,
) *Service {
	return &Service{
		stocks:    stocks,
		products:  products,
		users:     users,
		history:   history,
		txManager: txManager,
		now:       time.Now,
	}
}

// AddInput describes a single unit received into stock.
type AddInput struct {
	ProductID    id.ID
	IMEI         string
	SerialNumber string // generated when empty
}

// NewSerialNumber returns a generated serial of the form SER-xxxxxxxxxxxx.
func NewSerialNumber() string {
	return "SER-" + id.RandomHex(12)
}

// Add receives one unit into stock. Adding the IMEI of a unit released by an
// undone sale receives that unit again; any other known IMEI is a duplicate.
func (s *Service) Add(ctx context.Context, in AddInput) (*Stock, error) {
	actor, err := security.ActorID(ctx)
	if err != nil {
		return nil, err
	}

	serial := strings.TrimSpace(in.SerialNumber)
	if serial == "" {
		serial = NewSerialNumber()
	}
	var imei *string
	if v := strings.TrimSpace(in.IMEI); v != "" {
		imei = &v
	}

	var (
		stock      *Stock
		readmitted bool
	)
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		p, err := s.activeProduct(ctx, in.ProductID)
		if err != nil {
			return err
		}

		if imei != nil {
			locked, err := s.stocks.GetByIMEIsForUpdate(ctx, []string{*imei})
			if err != nil {
				return fmt.Errorf("lock stock: %w", err)
			}
			if st, ok := locked[*imei]; ok {
				if !st.IsReleased() {
					return apperror.NewDuplicate(entityName, "imei_number", *imei)
				}
				entry, err := s.readmitLocked(ctx, st, p.ID, actor)
				if err != nil {
					return err
				}
				stock, readmitted = st, true
				return s.history.Record(ctx, entry)
			}
		}

		stock = s.newStock(p.ID, imei, serial, actor)
		if err := s.stocks.Create(ctx, stock); err != nil {
			return err
		}

		return s.history.Record(ctx, HistoryEntry{
			StockID:     stock.ID,
			Action:      ActionAdded,
			PerformedBy: &actor,
			Details:     fmt.Sprintf("Stock %s added to inventory.", serial),
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "stock added",
		"stock_id", stock.ID,
		"serial", stock.SerialNumber,
		"imei", stock.IMEI(),
		"readmitted", readmitted,
	)
	return stock, nil
}

// Allocate hands a unit to holderID. Allocating a unit that another seller
// holds is a transfer.
func (s *Service) Allocate(ctx context.Context, stockID, holderID id.ID) (*Stock, error) {
	actor, err := security.ActorID(ctx)
	if err != nil {
		return nil, err
	}

	var stock *Stock
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		holderName, err := s.users.Username(ctx, holderID)
		if err != nil {
			return err
		}

		st, err := s.stocks.GetForUpdate(ctx, stockID)
		if err != nil {
			return err
		}

		entry, err := s.allocateLocked(ctx, st, holderID, holderName, actor)
		if err != nil {
			return err
		}
		stock = st
		return s.history.Record(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "stock allocated", "stock_id", stockID, "holder_id", holderID)
	return stock, nil
}

// Sell marks a unit the acting user holds as sold.
func (s *Service) Sell(ctx context.Context, stockID id.ID, details string) (*Stock, error) {
	actor, err := security.ActorID(ctx)
	if err != nil {
		return nil, err
	}

	var stock *Stock
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		st, err := s.stocks.GetForUpdate(ctx, stockID)
		if err != nil {
			return err
		}
		if err := s.sellLocked(ctx, st, actor, details); err != nil {
			return err
		}
		stock = st
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stock, nil
}

// SellFailure is a unit a batch sale could not take.
type SellFailure struct {
	IMEI string
	Err  error
}

// SellMany sells every unit listed by IMEI on behalf of the acting user in
// one transaction. All rows are locked up front in id order, so concurrent
// checkouts over overlapping units cannot deadlock.
//
// The batch is all or nothing: when any IMEI is unknown (NotFound) or not
// held by the actor (NotAssignedToSeller), nothing is sold and every failure
// is returned in input order.
func (s *Service) SellMany(ctx context.Context, imeis []string, details string) ([]*Stock, []SellFailure, error) {
	actor, err := security.ActorID(ctx)
	if err != nil {
		return nil, nil, err
	}

	var (
		sold     []*Stock
		failures []SellFailure
	)
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		locked, err := s.stocks.GetByIMEIsForUpdate(ctx, imeis)
		if err != nil {
			return fmt.Errorf("lock stock: %w", err)
		}

		batch := make([]*Stock, 0, len(imeis))
		for _, imei := range imeis {
			st, ok := locked[imei]
			switch {
			case !ok:
				failures = append(failures, SellFailure{IMEI: imei, Err: apperror.NewNotFound(entityName, imei)})
			case !st.IsHeldBy(actor):
				failures = append(failures, SellFailure{IMEI: imei, Err: apperror.NewNotAssignedToSeller(st.Label())})
			default:
				batch = append(batch, st)
			}
		}
		if len(failures) > 0 {
			return nil
		}

		for _, st := range batch {
			if err := s.sellLocked(ctx, st, actor, details); err != nil {
				return err
			}
		}
		sold = batch
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return sold, failures, nil
}

// ReturnToStock takes an assigned unit back from its holder. target must be
// StatusInStock or StatusReturned. Sold units are reversed through their sale
// with ReverseSale, never here.
func (s *Service) ReturnToStock(ctx context.Context, stockID id.ID, target Status, details string) (*Stock, error) {
	if details == "" {
		details = "Returned to stock."
	}
	st, err := s.putBack(ctx, stockID, StatusAssigned, target, details)
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "stock returned", "stock_id", stockID, "status", target)
	return st, nil
}

// ReverseSale moves a sold unit to target. StatusInStock releases the unit
// so its IMEI can be received again; StatusReturned keeps it as a customer
// return. Callers own the sale record and must lock it first.
func (s *Service) ReverseSale(ctx context.Context, stockID id.ID, target Status, details string) (*Stock, error) {
	if details == "" {
		details = "Sale reversed."
	}
	st, err := s.putBack(ctx, stockID, StatusSold, target, details)
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "sale reversed", "stock_id", stockID, "status", target)
	return st, nil
}

// putBack moves a unit in status from to target with a returned history row.
func (s *Service) putBack(ctx context.Context, stockID id.ID, from, target Status, details string) (*Stock, error) {
	if target != StatusInStock && target != StatusReturned {
		return nil, apperror.NewValidation("return target must be in_stock or returned").
			WithDetail("field", "target").
			WithDetail("value", string(target))
	}

	actor, err := security.ActorID(ctx)
	if err != nil {
		return nil, err
	}

	var stock *Stock
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		st, err := s.stocks.GetForUpdate(ctx, stockID)
		if err != nil {
			return err
		}
		if st.Status == StatusSold && from != StatusSold {
			return apperror.NewBusinessRule(apperror.CodeInvalidTransition, "sold units are returned through their sale").
				WithDetail("stock_id", st.ID.String()).
				WithDetail("from", string(st.Status)).
				WithDetail("to", string(target))
		}
		if st.Status != from {
			return apperror.NewInvalidTransition(string(st.Status), string(target))
		}

		var releasedAt *time.Time
		if from == StatusSold && target == StatusInStock {
			now := s.now().UTC()
			releasedAt = &now
		}

		prev := st.AssignedTo
		if err := s.stocks.CompareAndSwap(ctx, Transition{
			StockID:    st.ID,
			FromStatus: st.Status,
			FromHolder: prev,
			ToStatus:   target,
			ReleasedAt: releasedAt,
		}); err != nil {
			return err
		}
		st.Status = target
		st.AssignedTo = nil
		st.LastAssignedDate = nil
		st.ReleasedAt = releasedAt
		stock = st

		return s.history.Record(ctx, HistoryEntry{
			StockID:         st.ID,
			Action:          ActionReturned,
			PerformedBy:     &actor,
			TransferredFrom: prev,
			Details:         details,
		})
	})
	if err != nil {
		return nil, err
	}
	return stock, nil
}

// --- Queries ---

// Get returns a unit with its product and holder.
func (s *Service) Get(ctx context.Context, stockID id.ID) (*StockView, error) {
	return s.stocks.GetView(ctx, stockID)
}

// GetByIMEI returns a unit by IMEI.
func (s *Service) GetByIMEI(ctx context.Context, imei string) (*Stock, error) {
	return s.stocks.GetByIMEI(ctx, strings.TrimSpace(imei))
}

// List returns a page of units.
func (s *Service) List(ctx context.Context, filter Filter) (domain.ListResult[*StockView], error) {
	if filter.Status != "" && !IsValidStatus(filter.Status) {
		return domain.ListResult[*StockView]{}, apperror.NewValidation("invalid status").
			WithDetail("field", "status").
			WithDetail("value", string(filter.Status))
	}
	filter.ListFilter = filter.ListFilter.Normalize()
	return s.stocks.List(ctx, filter)
}

// StockByHolder lists the units currently assigned to holderID.
func (s *Service) StockByHolder(ctx context.Context, holderID id.ID, page domain.ListFilter) (domain.ListResult[*StockView], error) {
	return s.List(ctx, Filter{
		ListFilter: page,
		Status:     StatusAssigned,
		HolderID:   &holderID,
	})
}

// History lists a unit's history rows, newest first.
func (s *Service) History(ctx context.Context, stockID id.ID) ([]*HistoryEntry, error) {
	if _, err := s.stocks.GetByID(ctx, stockID); err != nil {
		return nil, err
	}
	return s.history.History(ctx, stockID)
}

// --- Transitions on locked rows ---

// allocateLocked moves a row-locked unit to holderID and returns the history
// row to append.
func (s *Service) allocateLocked(ctx context.Context, st *Stock, holderID id.ID, holderName string, actor id.ID) (HistoryEntry, error) {
	if !st.CanAllocate() {
		return HistoryEntry{}, apperror.NewInvalidTransition(string(st.Status), string(StatusAssigned))
	}

	prev := st.AssignedTo
	details := "Allocated to " + holderName
	if prev != nil && *prev != holderID {
		details = fmt.Sprintf("Transferred from %s to %s", s.displayName(ctx, *prev), holderName)
	}

	today := s.today()
	if err := s.stocks.CompareAndSwap(ctx, Transition{
		StockID:          st.ID,
		FromStatus:       st.Status,
		FromHolder:       prev,
		ToStatus:         StatusAssigned,
		ToHolder:         &holderID,
		LastAssignedDate: &today,
	}); err != nil {
		return HistoryEntry{}, err
	}

	holder := holderID
	st.Status = StatusAssigned
	st.AssignedTo = &holder
	st.LastAssignedDate = &today

	return HistoryEntry{
		StockID:         st.ID,
		Action:          ActionAllocated,
		PerformedBy:     &actor,
		TransferredFrom: prev,
		TransferredTo:   &holder,
		Details:         details,
	}, nil
}

// sellLocked sells a row-locked unit on behalf of actor, who must hold it.
func (s *Service) sellLocked(ctx context.Context, st *Stock, actor id.ID, details string) error {
	if !st.IsHeldBy(actor) {
		return apperror.NewNotAssignedToSeller(st.Label())
	}

	if err := s.stocks.CompareAndSwap(ctx, Transition{
		StockID:    st.ID,
		FromStatus: StatusAssigned,
		FromHolder: &actor,
		ToStatus:   StatusSold,
	}); err != nil {
		return err
	}
	st.Status = StatusSold
	st.AssignedTo = nil
	st.LastAssignedDate = nil

	if details == "" {
		details = "Sold."
	}
	return s.history.Record(ctx, HistoryEntry{
		StockID:         st.ID,
		Action:          ActionSold,
		PerformedBy:     &actor,
		TransferredFrom: &actor,
		Details:         details,
	})
}

// readmitLocked receives a released, row-locked unit again under productID.
// The unit keeps its serial number and ID.
func (s *Service) readmitLocked(ctx context.Context, st *Stock, productID, actor id.ID) (HistoryEntry, error) {
	now := s.now().UTC()
	addedBy := actor
	st.ProductID = productID
	st.StockInDate = truncateDay(now)
	st.AddedBy = &addedBy
	st.ReleasedAt = nil
	if err := s.stocks.Readmit(ctx, st); err != nil {
		return HistoryEntry{}, err
	}
	return HistoryEntry{
		StockID:     st.ID,
		Action:      ActionAdded,
		PerformedBy: &actor,
		Details:     fmt.Sprintf("Stock %s re-received into inventory.", st.SerialNumber),
	}, nil
}

func (s *Service) activeProduct(ctx context.Context, productID id.ID) (*product.Product, error) {
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !p.IsActive() {
		return nil, apperror.NewBusinessRule(apperror.CodeBusinessRule, "stock can only be added to active products").
			WithDetail("product_id", p.ID.String()).
			WithDetail("status", string(p.Status))
	}
	return p, nil
}

func (s *Service) newStock(productID id.ID, imei *string, serial string, actor id.ID) *Stock {
	now := s.now().UTC()
	addedBy := actor
	return &Stock{
		ID:           id.New(),
		SerialNumber: serial,
		IMEINumber:   imei,
		ProductID:    productID,
		StockInDate:  truncateDay(now),
		AddedBy:      &addedBy,
		Status:       StatusInStock,
		CreatedAt:    now,
	}
}

// displayName falls back to the raw ID when a user has since been removed.
func (s *Service) displayName(ctx context.Context, userID id.ID) string {
	name, err := s.users.Username(ctx, userID)
	if err != nil {
		return userID.String()
	}
	return name
}

func (s *Service) today() time.Time {
	return truncateDay(s.now())
}
