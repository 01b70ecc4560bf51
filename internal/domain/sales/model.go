// Package sales processes checkouts, reversals and the sale read models
// (orders, receipts, customers).
package sales

import (
	"strings"
	"time"

	"dsrsales/internal/core/apperror"
	"dsrsales/internal/core/id"
	"dsrsales/internal/core/types"
)

// Customer is a buyer. IDNumber is the external identity document number and
// is unique when present.
type Customer struct {
	ID        id.ID     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Phone     string    `db:"phone" json:"phone"`
	Email     string    `db:"email" json:"email"`
	Address   string    `db:"address" json:"address"`
	IDNumber  *string   `db:"id_number" json:"idNumber,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// CustomerInfo is the buyer data captured at checkout.
type CustomerInfo struct {
	Name     string
	Phone    string
	Email    string
	Address  string
	IDNumber string
}

// Validate checks the checkout customer data.
func (c CustomerInfo) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return apperror.NewValidation("customer name is required").WithDetail("field", "customer.name")
	}
	return nil
}

// Sale is one sold unit. Units sold in one checkout share OrderID.
type Sale struct {
	ID         id.ID      `db:"id" json:"id"`
	OrderID    string     `db:"order_id" json:"orderId"`
	CustomerID id.ID      `db:"customer_id" json:"customerId"`
	StockID    id.ID      `db:"stock_id" json:"stockId"`
	SoldBy     id.ID      `db:"sold_by" json:"soldBy"`
	SoldAt     time.Time  `db:"sold_at" json:"soldAt"`
	IsReturned bool       `db:"is_returned" json:"isReturned"`
	ReturnedAt *time.Time `db:"returned_at" json:"returnedAt,omitempty"`
}

// SaleView is a sale joined with the unit, product, customer and seller.
type SaleView struct {
	Sale

	IMEI           *string     `db:"imei_number" json:"imei,omitempty"`
	SerialNumber   string      `db:"serial_number" json:"serialNumber"`
	ProductName    string      `db:"product_name" json:"productName"`
	ModelSKU       string      `db:"model_sku" json:"modelSku"`
	Price          types.Money `db:"price" json:"price"`
	CustomerName   string      `db:"customer_name" json:"customerName"`
	SellerUsername string      `db:"seller_username" json:"sellerUsername"`
}

// SaleResult is the outcome of a successful checkout.
type SaleResult struct {
	OrderID  string    `json:"orderId"`
	Customer *Customer `json:"customer"`
	Sales    []*Sale   `json:"sales"`
}

// ReceiptItem is one line of a receipt.
type ReceiptItem struct {
	SaleID       id.ID       `json:"saleId"`
	IMEI         string      `json:"imei"`
	SerialNumber string      `json:"serialNumber"`
	ProductName  string      `json:"productName"`
	Price        types.Money `json:"price"`
	IsReturned   bool        `json:"isReturned"`
}

// Receipt is the read model printed for an order.
type Receipt struct {
	OrderID     string        `json:"orderId"`
	SoldAt      time.Time     `json:"soldAt"`
	Customer    *Customer     `json:"customer"`
	SellerID    id.ID         `json:"sellerId"`
	SellerName  string        `json:"sellerName"`
	Items       []ReceiptItem `json:"items"`
	TotalAmount types.Money   `json:"totalAmount"`
}
