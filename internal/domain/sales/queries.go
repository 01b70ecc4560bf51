package sales

import (
	"context"

	"dsrsales/internal/core/apperror"
	"dsrsales/internal/core/id"
	"dsrsales/internal/core/types"
	"dsrsales/internal/domain"
)

// SalesByOrder lists the sales of an order. Unknown orders yield NotFound.
func (s *Service) SalesByOrder(ctx context.Context, orderID string) ([]*SaleView, error) {
	rows, err := s.sales.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, apperror.NewNotFound(orderEntity, orderID)
	}
	return rows, nil
}

// SaleReceipt builds the receipt of an order. The total is the sum of the
// product prices of every line.
func (s *Service) SaleReceipt(ctx context.Context, orderID string) (*Receipt, error) {
	rows, err := s.SalesByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	first := rows[0]
	customer, err := s.customers.GetByID(ctx, first.CustomerID)
	if err != nil {
		return nil, err
	}

	receipt := &Receipt{
		OrderID:    orderID,
		SoldAt:     first.SoldAt,
		Customer:   customer,
		SellerID:   first.SoldBy,
		SellerName: first.SellerUsername,
		Items:      make([]ReceiptItem, 0, len(rows)),
	}
	if receipt.SellerName == "" {
		if name, err := s.users.Username(ctx, first.SoldBy); err == nil {
			receipt.SellerName = name
		}
	}

	prices := make([]types.Money, 0, len(rows))
	for _, r := range rows {
		item := ReceiptItem{
			SaleID:       r.ID,
			SerialNumber: r.SerialNumber,
			ProductName:  r.ProductName,
			Price:        r.Price,
			IsReturned:   r.IsReturned,
		}
		if r.IMEI != nil {
			item.IMEI = *r.IMEI
		}
		receipt.Items = append(receipt.Items, item)
		prices = append(prices, r.Price)
	}
	receipt.TotalAmount = types.Sum(prices...)

	return receipt, nil
}

// CustomerByID returns a customer.
func (s *Service) CustomerByID(ctx context.Context, customerID id.ID) (*Customer, error) {
	return s.customers.GetByID(ctx, customerID)
}

// ListCustomers returns a page of customers.
func (s *Service) ListCustomers(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Customer], error) {
	return s.customers.List(ctx, filter.Normalize())
}

// CustomerSales lists every sale made to a customer, newest first.
func (s *Service) CustomerSales(ctx context.Context, customerID id.ID) ([]*SaleView, error) {
	if _, err := s.customers.GetByID(ctx, customerID); err != nil {
		return nil, err
	}
	return s.sales.ListByCustomer(ctx, customerID)
}

// GetSale returns a single sale.
func (s *Service) GetSale(ctx context.Context, saleID id.ID) (*Sale, error) {
	return s.sales.GetByID(ctx, saleID)
}
