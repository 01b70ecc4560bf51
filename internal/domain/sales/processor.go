package sales

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"dsrsales/internal/core/apperror"
	"dsrsales/internal/core/id"
	"dsrsales/internal/core/security"
	"dsrsales/internal/domain/events"
	"dsrsales/internal/domain/inventory"
	"dsrsales/pkg/logger"
)

// errItemsRejected rolls back a checkout in which at least one unit failed.
var errItemsRejected = errors.New("sale items rejected")

// ProcessSale sells every listed unit the acting user holds to one customer
// under a single order ID.
//
// The checkout is all or nothing: if any IMEI is unknown or not held by the
// seller, nothing is written and the returned SaleRejected error lists every
// failed item.
func (s *Service) ProcessSale(ctx context.Context, imeis []string, info CustomerInfo) (*SaleResult, error) {
	actor, err := security.ActorID(ctx)
	if err != nil {
		return nil, err
	}

	normalized := inventory.NormalizeIdentifiers(imeis)
	if len(normalized) == 0 {
		return nil, apperror.NewEmptyInput("imeis")
	}
	if err := info.Validate(); err != nil {
		return nil, err
	}

	orderID := NewOrderID(s.now())

	var (
		result   *SaleResult
		itemErrs []string
	)
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		customer, err := s.resolveCustomer(ctx, info)
		if err != nil {
			return err
		}

		details := fmt.Sprintf("Sold to %s (order %s)", customer.Name, orderID)
		soldAt := s.now().UTC()
		sold, failures, err := s.stock.SellMany(ctx, normalized, details)
		if err != nil {
			return err
		}
		for _, f := range failures {
			switch {
			case apperror.IsNotFound(f.Err):
				itemErrs = append(itemErrs, fmt.Sprintf("IMEI %s not found", f.IMEI))
			case apperror.IsNotAssignedToSeller(f.Err):
				itemErrs = append(itemErrs, fmt.Sprintf("IMEI %s is not assigned to you", f.IMEI))
			default:
				return f.Err
			}
		}
		if len(itemErrs) > 0 {
			return errItemsRejected
		}

		sales := make([]*Sale, 0, len(sold))
		for _, st := range sold {
			sales = append(sales, &Sale{
				ID:         id.New(),
				OrderID:    orderID,
				CustomerID: customer.ID,
				StockID:    st.ID,
				SoldBy:     actor,
				SoldAt:     soldAt,
			})
		}

		if err := s.sales.CreateMany(ctx, sales); err != nil {
			return err
		}

		if err := s.publisher.Publish(ctx, events.Event{
			AggregateType: saleEntity,
			AggregateID:   sales[0].ID,
			EventType:     events.SaleCompleted,
			Payload: map[string]any{
				"order_id":    orderID,
				"customer_id": customer.ID,
				"seller_id":   actor,
				"imeis":       normalized,
			},
		}); err != nil {
			return fmt.Errorf("publish sale event: %w", err)
		}

		result = &SaleResult{OrderID: orderID, Customer: customer, Sales: sales}
		return nil
	})
	if errors.Is(err, errItemsRejected) {
		logger.Warn(ctx, "sale rejected", "seller_id", actor, "errors", itemErrs)
		return nil, apperror.NewSaleRejected(itemErrs)
	}
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "sale completed", "order_id", orderID, "items", len(result.Sales), "customer_id", result.Customer.ID)
	return result, nil
}

// resolveCustomer reuses the customer with the same ID number, or creates a
// new one. Without an ID number a new customer is always created.
func (s *Service) resolveCustomer(ctx context.Context, info CustomerInfo) (*Customer, error) {
	idNumber := strings.TrimSpace(info.IDNumber)
	if idNumber != "" {
		existing, err := s.customers.GetByIDNumber(ctx, idNumber)
		if err == nil {
			return existing, nil
		}
		if !apperror.IsNotFound(err) {
			return nil, err
		}
	}

	c := &Customer{
		ID:        id.New(),
		Name:      strings.TrimSpace(info.Name),
		Phone:     strings.TrimSpace(info.Phone),
		Email:     strings.TrimSpace(info.Email),
		Address:   strings.TrimSpace(info.Address),
		CreatedAt: s.now().UTC(),
	}
	if idNumber != "" {
		c.IDNumber = &idNumber
	}
	if err := s.customers.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}
