package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"dsrsales/internal/domain/dashboard"
)

// DashboardService is the slice of dashboard.Service used by the HTTP layer.
type DashboardService interface {
	Summary(ctx context.Context) (*dashboard.Summary, error)
	Refresh(ctx context.Context) (*dashboard.Summary, error)
}

var _ DashboardService = (*dashboard.Service)(nil)

// DashboardHandler serves the aggregated overview.
type DashboardHandler struct {
	*BaseHandler
	service DashboardService
}

func NewDashboardHandler(base *BaseHandler, service DashboardService) *DashboardHandler {
	return &DashboardHandler{BaseHandler: base, service: service}
}

// Summary handles GET /dashboard/summary. ?refresh=true bypasses the cache.
func (h *DashboardHandler) Summary(c *gin.Context) {
	load := h.service.Summary
	if c.Query("refresh") == "true" {
		load = h.service.Refresh
	}

	summary, err := load(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, summary)
}
