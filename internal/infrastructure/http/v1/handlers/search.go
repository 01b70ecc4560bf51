package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"dsrsales/internal/domain/search"
)

// SearchService is the slice of search.Service used by the HTTP layer.
type SearchService interface {
	Search(ctx context.Context, entity, q string, limit int) (*search.Result, error)
	SearchAll(ctx context.Context, q string, limit int) ([]search.Result, error)
}

var _ SearchService = (*search.Service)(nil)

// SearchHandler serves free-text lookup across registered entities.
type SearchHandler struct {
	*BaseHandler
	service SearchService
}

func NewSearchHandler(base *BaseHandler, service SearchService) *SearchHandler {
	return &SearchHandler{BaseHandler: base, service: service}
}

// All handles GET /search?q=
func (h *SearchHandler) All(c *gin.Context) {
	results, err := h.service.SearchAll(c.Request.Context(), c.Query("q"), h.ParseIntQuery(c, "limit", 0))
	if err != nil {
		h.Error(c, err)
		return
	}
	if results == nil {
		results = []search.Result{}
	}
	h.OK(c, results)
}

// Entity handles GET /search/:entity?q=
func (h *SearchHandler) Entity(c *gin.Context) {
	result, err := h.service.Search(c.Request.Context(), c.Param("entity"), c.Query("q"), h.ParseIntQuery(c, "limit", 0))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}
