package sales

import (
	"context"
	"fmt"

	"dsrsales/internal/core/apperror"
	"dsrsales/internal/core/id"
	"dsrsales/internal/domain/events"
	"dsrsales/internal/domain/inventory"
	"dsrsales/pkg/logger"
)

// MarkReturned records a customer return. The sale row is kept for reporting
// and the unit moves to returned.
func (s *Service) MarkReturned(ctx context.Context, saleID id.ID) (*Sale, error) {
	var sale *Sale
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		sale, err = s.reverse(ctx, saleID, inventory.StatusReturned)
		if err != nil {
			return err
		}

		now := s.now().UTC()
		if err := s.sales.MarkReturned(ctx, sale.ID, now); err != nil {
			return err
		}
		sale.IsReturned = true
		sale.ReturnedAt = &now

		return s.publish(ctx, events.SaleReturned, sale)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "sale returned", "sale_id", saleID, "order_id", sale.OrderID)
	return sale, nil
}

// UndoSale reverses a sale entirely: the unit goes back in stock and the sale
// row is deleted.
func (s *Service) UndoSale(ctx context.Context, saleID id.ID) error {
	var sale *Sale
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		sale, err = s.reverse(ctx, saleID, inventory.StatusInStock)
		if err != nil {
			return err
		}
		if err := s.sales.Delete(ctx, sale.ID); err != nil {
			return err
		}
		return s.publish(ctx, events.SaleUndone, sale)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "sale undone", "sale_id", saleID, "order_id", sale.OrderID)
	return nil
}

// reverse locks the sale and moves its unit to target with a returned
// history row.
func (s *Service) reverse(ctx context.Context, saleID id.ID, target inventory.Status) (*Sale, error) {
	sale, err := s.sales.GetForUpdate(ctx, saleID)
	if err != nil {
		return nil, err
	}
	if sale.IsReturned {
		return nil, apperror.NewBusinessRule(apperror.CodeBusinessRule, "sale has already been returned").
			WithDetail("sale_id", sale.ID.String()).
			WithDetail("order_id", sale.OrderID)
	}

	customer, err := s.customers.GetByID(ctx, sale.CustomerID)
	if err != nil {
		return nil, err
	}

	details := fmt.Sprintf("Returned from customer %s (order %s)", customer.Name, sale.OrderID)
	if _, err := s.stock.ReverseSale(ctx, sale.StockID, target, details); err != nil {
		return nil, err
	}
	return sale, nil
}

func (s *Service) publish(ctx context.Context, eventType string, sale *Sale) error {
	err := s.publisher.Publish(ctx, events.Event{
		AggregateType: saleEntity,
		AggregateID:   sale.ID,
		EventType:     eventType,
		Payload: map[string]any{
			"sale_id":     sale.ID,
			"order_id":    sale.OrderID,
			"stock_id":    sale.StockID,
			"customer_id": sale.CustomerID,
		},
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", eventType, err)
	}
	return nil
}
