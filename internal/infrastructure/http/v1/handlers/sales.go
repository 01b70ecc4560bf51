package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"dsrsales/internal/core/id"
	"dsrsales/internal/domain"
	"dsrsales/internal/domain/sales"
	"dsrsales/internal/infrastructure/http/v1/dto"
)

// SalesService is the slice of sales.Service used by the HTTP layer.
type SalesService interface {
	ProcessSale(ctx context.Context, imeis []string, info sales.CustomerInfo) (*sales.SaleResult, error)
	SalesByOrder(ctx context.Context, orderID string) ([]*sales.SaleView, error)
	SaleReceipt(ctx context.Context, orderID string) (*sales.Receipt, error)
	MarkReturned(ctx context.Context, saleID id.ID) (*sales.Sale, error)
	UndoSale(ctx context.Context, saleID id.ID) error
	CustomerByID(ctx context.Context, customerID id.ID) (*sales.Customer, error)
	ListCustomers(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*sales.Customer], error)
	CustomerSales(ctx context.Context, customerID id.ID) ([]*sales.SaleView, error)
}

var _ SalesService = (*sales.Service)(nil)

// SalesHandler serves checkouts, reversals, receipts and customers.
type SalesHandler struct {
	*BaseHandler
	service   SalesService
	dashboard Invalidator
}

// NewSalesHandler creates a new sales handler. dashboard may be nil.
func NewSalesHandler(base *BaseHandler, service SalesService, dashboard Invalidator) *SalesHandler {
	return &SalesHandler{
		BaseHandler: base,
		service:     service,
		dashboard:   dashboard,
	}
}

// Process handles POST /sales
func (h *SalesHandler) Process(c *gin.Context) {
	var req dto.ProcessSaleRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.service.ProcessSale(c.Request.Context(), req.Identifiers(), req.ToCustomerInfo())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.invalidate(c)
	h.Created(c, result)
}

// Order handles GET /sales/orders/:orderId
func (h *SalesHandler) Order(c *gin.Context) {
	orderID := c.Param("orderId")

	items, err := h.service.SalesByOrder(c.Request.Context(), orderID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.OrderResponse{OrderID: orderID, Items: items})
}

// Receipt handles GET /sales/orders/:orderId/receipt
func (h *SalesHandler) Receipt(c *gin.Context) {
	receipt, err := h.service.SaleReceipt(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, receipt)
}

// Return handles POST /sales/:id/return
func (h *SalesHandler) Return(c *gin.Context) {
	saleID, ok := h.PathID(c, "id")
	if !ok {
		return
	}

	sale, err := h.service.MarkReturned(c.Request.Context(), saleID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.invalidate(c)
	h.OK(c, sale)
}

// Undo handles DELETE /sales/:id
func (h *SalesHandler) Undo(c *gin.Context) {
	saleID, ok := h.PathID(c, "id")
	if !ok {
		return
	}

	if err := h.service.UndoSale(c.Request.Context(), saleID); err != nil {
		h.Error(c, err)
		return
	}
	h.invalidate(c)
	h.NoContent(c)
}

// ListCustomers handles GET /customers
func (h *SalesHandler) ListCustomers(c *gin.Context) {
	var q dto.ListQuery
	if !h.BindQuery(c, &q) {
		return
	}

	result, err := h.service.ListCustomers(c.Request.Context(), q.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// GetCustomer handles GET /customers/:id
func (h *SalesHandler) GetCustomer(c *gin.Context) {
	customerID, ok := h.PathID(c, "id")
	if !ok {
		return
	}

	customer, err := h.service.CustomerByID(c.Request.Context(), customerID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, customer)
}

// CustomerSales handles GET /customers/:id/sales
func (h *SalesHandler) CustomerSales(c *gin.Context) {
	customerID, ok := h.PathID(c, "id")
	if !ok {
		return
	}

	items, err := h.service.CustomerSales(c.Request.Context(), customerID)
	if err != nil {
		h.Error(c, err)
		return
	}
	if items == nil {
		items = []*sales.SaleView{}
	}
	h.OK(c, items)
}

func (h *SalesHandler) invalidate(c *gin.Context) {
	if h.dashboard != nil {
		h.dashboard.Invalidate(c.Request.Context())
	}
}
