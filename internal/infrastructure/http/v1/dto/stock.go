package dto

import (
	"time"

	"dsrsales/internal/core/apperror"
	"dsrsales/internal/core/id"
	"dsrsales/internal/domain/inventory"
)

// AddStockRequest for POST /stocks.
type AddStockRequest struct {
	ProductID    string `json:"productId" binding:"required,uuid"`
	IMEI         string `json:"imei" binding:"omitempty,imei"`
	SerialNumber string `json:"serialNumber" binding:"omitempty,max=64"`
}

// ToInput converts to the service input.
func (r *AddStockRequest) ToInput() (inventory.AddInput, error) {
	productID, err := ParseID("productId", r.ProductID)
	if err != nil {
		return inventory.AddInput{}, err
	}
	return inventory.AddInput{
		ProductID:    productID,
		IMEI:         r.IMEI,
		SerialNumber: r.SerialNumber,
	}, nil
}

// IMEIBatch accepts identifiers either as a list or as a newline separated
// blob, the way they come out of a barcode scanner.
type IMEIBatch struct {
	IMEIs     []string `json:"imeis"`
	IMEIsText string   `json:"imeisText"`
}

// Identifiers merges both inputs in submission order.
func (b IMEIBatch) Identifiers() []string {
	out := make([]string, 0, len(b.IMEIs))
	out = append(out, b.IMEIs...)
	if b.IMEIsText != "" {
		out = append(out, inventory.SplitLines(b.IMEIsText)...)
	}
	return out
}

// BulkAddRequest for POST /stocks/bulk.
type BulkAddRequest struct {
	ProductID string `json:"productId" binding:"required,uuid"`
	IMEIBatch
}

// BulkAllocateRequest for POST /stocks/bulk-allocate.
type BulkAllocateRequest struct {
	UserID string `json:"userId" binding:"required,uuid"`
	IMEIBatch
}

// AllocateRequest for POST /stocks/:id/allocate.
type AllocateRequest struct {
	UserID string `json:"userId" binding:"required,uuid"`
}

// ReturnStockRequest for POST /stocks/:id/return. Status defaults to in_stock.
type ReturnStockRequest struct {
	Status  inventory.Status `json:"status" binding:"omitempty,oneof=in_stock returned"`
	Details string           `json:"details" binding:"max=500"`
}

// Target returns the requested status or in_stock.
func (r ReturnStockRequest) Target() inventory.Status {
	if r.Status == "" {
		return inventory.StatusInStock
	}
	return r.Status
}

// StockListQuery for GET /stocks.
type StockListQuery struct {
	ListQuery
	Status    inventory.Status `form:"status" binding:"omitempty,oneof=in_stock assigned sold returned"`
	ProductID string           `form:"productId" binding:"omitempty,uuid"`
	HolderID  string           `form:"holderId" binding:"omitempty,uuid"`
}

// ToFilter converts query parameters to the domain filter.
func (q StockListQuery) ToFilter() (inventory.Filter, error) {
	f := inventory.Filter{
		ListFilter: q.ListQuery.ToFilter(),
		Status:     q.Status,
	}
	if q.ProductID != "" {
		v, err := ParseID("productId", q.ProductID)
		if err != nil {
			return f, err
		}
		f.ProductID = &v
	}
	if q.HolderID != "" {
		v, err := ParseID("holderId", q.HolderID)
		if err != nil {
			return f, err
		}
		f.HolderID = &v
	}
	return f, nil
}

// StockResponse adds the computed age of a unit to its view.
type StockResponse struct {
	*inventory.StockView
	DaysInStock int `json:"daysInStock"`
}

// FromStockView creates response from a stock view.
func FromStockView(today time.Time) func(*inventory.StockView) StockResponse {
	return func(v *inventory.StockView) StockResponse {
		return StockResponse{StockView: v, DaysInStock: v.DaysInStock(today)}
	}
}

// ParseID validates a path, query or body identifier.
func ParseID(field, raw string) (id.ID, error) {
	v, err := id.Parse(raw)
	if err != nil {
		return id.Nil(), apperror.NewValidation("invalid id").
			WithDetail("field", field).
			WithDetail("value", raw)
	}
	return v, nil
}
