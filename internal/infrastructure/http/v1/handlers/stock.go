package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"dsrsales/internal/core/id"
	"dsrsales/internal/domain"
	"dsrsales/internal/domain/inventory"
	"dsrsales/internal/infrastructure/http/v1/dto"
)

// StockService is the slice of inventory.Service used by the HTTP layer.
type StockService interface {
	Add(ctx context.Context, in inventory.AddInput) (*inventory.Stock, error)
	BulkAdd(ctx context.Context, productID id.ID, imeis []string) (*inventory.BulkAddResult, error)
	BulkAllocate(ctx context.Context, imeis []string, holderID id.ID) (*inventory.BulkAllocateResult, error)
	Allocate(ctx context.Context, stockID, holderID id.ID) (*inventory.Stock, error)
	ReturnToStock(ctx context.Context, stockID id.ID, target inventory.Status, details string) (*inventory.Stock, error)
	Get(ctx context.Context, stockID id.ID) (*inventory.StockView, error)
	List(ctx context.Context, filter inventory.Filter) (domain.ListResult[*inventory.StockView], error)
	StockByHolder(ctx context.Context, holderID id.ID, page domain.ListFilter) (domain.ListResult[*inventory.StockView], error)
	History(ctx context.Context, stockID id.ID) ([]*inventory.HistoryEntry, error)
}

// Invalidator drops derived read models after a write.
type Invalidator interface {
	Invalidate(ctx context.Context)
}

var _ StockService = (*inventory.Service)(nil)

// StockHandler serves stock units and their lifecycle transitions.
type StockHandler struct {
	*BaseHandler
	service   StockService
	dashboard Invalidator
	now       func() time.Time
}

// NewStockHandler creates a new stock handler. dashboard may be nil.
func NewStockHandler(base *BaseHandler, service StockService, dashboard Invalidator) *StockHandler {
	return &StockHandler{
		BaseHandler: base,
		service:     service,
		dashboard:   dashboard,
		now:         time.Now,
	}
}

// List handles GET /stocks
func (h *StockHandler) List(c *gin.Context) {
	var q dto.StockListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	filter, err := q.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromListResult(result, dto.FromStockView(h.now())))
}

// Mine handles GET /stocks/mine
func (h *StockHandler) Mine(c *gin.Context) {
	_, userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	h.listByHolder(c, userID)
}

// ByHolder handles GET /stocks/holder/:userId
func (h *StockHandler) ByHolder(c *gin.Context) {
	holderID, ok := h.PathID(c, "userId")
	if !ok {
		return
	}
	h.listByHolder(c, holderID)
}

func (h *StockHandler) listByHolder(c *gin.Context, holderID id.ID) {
	var q dto.ListQuery
	if !h.BindQuery(c, &q) {
		return
	}

	result, err := h.service.StockByHolder(c.Request.Context(), holderID, q.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromListResult(result, dto.FromStockView(h.now())))
}

// Get handles GET /stocks/:id
func (h *StockHandler) Get(c *gin.Context) {
	stockID, ok := h.PathID(c, "id")
	if !ok {
		return
	}

	view, err := h.service.Get(c.Request.Context(), stockID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromStockView(h.now())(view))
}

// History handles GET /stocks/:id/history
func (h *StockHandler) History(c *gin.Context) {
	stockID, ok := h.PathID(c, "id")
	if !ok {
		return
	}

	entries, err := h.service.History(c.Request.Context(), stockID)
	if err != nil {
		h.Error(c, err)
		return
	}
	if entries == nil {
		entries = []*inventory.HistoryEntry{}
	}
	h.OK(c, entries)
}

// Add handles POST /stocks
func (h *StockHandler) Add(c *gin.Context) {
	var req dto.AddStockRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	st, err := h.service.Add(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.invalidate(c)
	h.Created(c, st)
}

// BulkAdd handles POST /stocks/bulk
func (h *StockHandler) BulkAdd(c *gin.Context) {
	var req dto.BulkAddRequest
	if !h.BindJSON(c, &req) {
		return
	}
	productID, err := dto.ParseID("productId", req.ProductID)
	if err != nil {
		h.Error(c, err)
		return
	}

	result, err := h.service.BulkAdd(c.Request.Context(), productID, req.Identifiers())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.invalidate(c)
	h.OK(c, result)
}

// BulkAllocate handles POST /stocks/bulk-allocate
func (h *StockHandler) BulkAllocate(c *gin.Context) {
	var req dto.BulkAllocateRequest
	if !h.BindJSON(c, &req) {
		return
	}
	holderID, err := dto.ParseID("userId", req.UserID)
	if err != nil {
		h.Error(c, err)
		return
	}

	result, err := h.service.BulkAllocate(c.Request.Context(), req.Identifiers(), holderID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.invalidate(c)
	h.OK(c, result)
}

// Allocate handles POST /stocks/:id/allocate
func (h *StockHandler) Allocate(c *gin.Context) {
	stockID, ok := h.PathID(c, "id")
	if !ok {
		return
	}

	var req dto.AllocateRequest
	if !h.BindJSON(c, &req) {
		return
	}
	holderID, err := dto.ParseID("userId", req.UserID)
	if err != nil {
		h.Error(c, err)
		return
	}

	st, err := h.service.Allocate(c.Request.Context(), stockID, holderID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.invalidate(c)
	h.OK(c, st)
}

// Return handles POST /stocks/:id/return. It unassigns a held unit; sold
// units go back through POST /sales/:id/return or DELETE /sales/:id.
func (h *StockHandler) Return(c *gin.Context) {
	stockID, ok := h.PathID(c, "id")
	if !ok {
		return
	}

	var req dto.ReturnStockRequest
	if c.Request.ContentLength != 0 && !h.BindJSON(c, &req) {
		return
	}

	st, err := h.service.ReturnToStock(c.Request.Context(), stockID, req.Target(), req.Details)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.invalidate(c)
	h.OK(c, st)
}

func (h *StockHandler) invalidate(c *gin.Context) {
	if h.dashboard != nil {
		h.dashboard.Invalidate(c.Request.Context())
	}
}
