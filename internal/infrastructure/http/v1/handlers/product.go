package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"dsrsales/internal/core/id"
	"dsrsales/internal/domain"
	"dsrsales/internal/domain/catalog/product"
	"dsrsales/internal/infrastructure/http/v1/dto"
	"dsrsales/internal/infrastructure/storage/postgres"
)

// ProductService is the slice of product.Service used by the HTTP layer.
type ProductService interface {
	Create(ctx context.Context, p *product.Product) error
	Update(ctx context.Context, p *product.Product) error
	SetStatus(ctx context.Context, productID id.ID, status product.Status) (*product.Product, error)
	Get(ctx context.Context, productID id.ID) (*product.Product, error)
	List(ctx context.Context, filter product.Filter) (domain.ListResult[*product.Product], error)
}

// AuditReader loads the change log of one entity.
type AuditReader interface {
	EntityHistory(ctx context.Context, entityType string, entityID id.ID, limit int) ([]postgres.AuditEntry, error)
}

var (
	_ ProductService = (*product.Service)(nil)
	_ AuditReader    = (*postgres.AuditLog)(nil)
)

// ProductHandler serves the handset catalog.
type ProductHandler struct {
	*BaseHandler
	service ProductService
	audit   AuditReader
}

// NewProductHandler creates a new product handler. audit may be nil, in which
// case the history endpoint returns an empty list.
func NewProductHandler(base *BaseHandler, service ProductService, audit AuditReader) *ProductHandler {
	return &ProductHandler{
		BaseHandler: base,
		service:     service,
		audit:       audit,
	}
}

// List handles GET /products
func (h *ProductHandler) List(c *gin.Context) {
	var q dto.ProductListQuery
	if !h.BindQuery(c, &q) {
		return
	}

	result, err := h.service.List(c.Request.Context(), q.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromListResult(result, dto.FromProduct))
}

// Create handles POST /products
func (h *ProductHandler) Create(c *gin.Context) {
	var req dto.ProductRequest
	if !h.BindJSON(c, &req) {
		return
	}

	p := req.ToEntity()
	if err := h.service.Create(c.Request.Context(), p); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.FromProduct(p))
}

// Get handles GET /products/:id
func (h *ProductHandler) Get(c *gin.Context) {
	productID, ok := h.PathID(c, "id")
	if !ok {
		return
	}

	p, err := h.service.Get(c.Request.Context(), productID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromProduct(p))
}

// Update handles PUT /products/:id. The body's version, when given, must
// match the stored one.
func (h *ProductHandler) Update(c *gin.Context) {
	productID, ok := h.PathID(c, "id")
	if !ok {
		return
	}

	var req dto.ProductRequest
	if !h.BindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	p, err := h.service.Get(ctx, productID)
	if err != nil {
		h.Error(c, err)
		return
	}
	req.ApplyTo(p)

	if err := h.service.Update(ctx, p); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromProduct(p))
}

// SetStatus handles POST /products/:id/status
func (h *ProductHandler) SetStatus(c *gin.Context) {
	productID, ok := h.PathID(c, "id")
	if !ok {
		return
	}

	var req dto.SetProductStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}

	p, err := h.service.SetStatus(c.Request.Context(), productID, req.Status)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromProduct(p))
}

// History handles GET /products/:id/history
func (h *ProductHandler) History(c *gin.Context) {
	productID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	if h.audit == nil {
		h.OK(c, []postgres.AuditEntry{})
		return
	}

	entries, err := h.audit.EntityHistory(c.Request.Context(), "product", productID, h.ParseIntQuery(c, "limit", 50))
	if err != nil {
		h.Error(c, err)
		return
	}
	if entries == nil {
		entries = []postgres.AuditEntry{}
	}
	h.OK(c, entries)
}
