package dto

import (
	"dsrsales/internal/domain/sales"
)

// CustomerRequest is the buyer captured at checkout.
type CustomerRequest struct {
	Name     string `json:"name" binding:"required,max=200"`
	Phone    string `json:"phone" binding:"max=32"`
	Email    string `json:"email" binding:"omitempty,email"`
	Address  string `json:"address" binding:"max=500"`
	IDNumber string `json:"idNumber" binding:"max=64"`
}

// ProcessSaleRequest for POST /sales.
type ProcessSaleRequest struct {
	IMEIBatch
	Customer CustomerRequest `json:"customer" binding:"required"`
}

// ToCustomerInfo converts to the domain checkout data.
func (r *ProcessSaleRequest) ToCustomerInfo() sales.CustomerInfo {
	return sales.CustomerInfo{
		Name:     r.Customer.Name,
		Phone:    r.Customer.Phone,
		Email:    r.Customer.Email,
		Address:  r.Customer.Address,
		IDNumber: r.Customer.IDNumber,
	}
}

// OrderResponse lists every sale of an order.
type OrderResponse struct {
	OrderID string            `json:"orderId"`
	Items   []*sales.SaleView `json:"items"`
}
