// Package handler exposes operator exports over HTTP.
package handler

import (
	"leadmarket_backend/internal/exports/service"
	"leadmarket_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// Handler serves export endpoints.
type Handler struct {
	svc *service.Service
}

// New creates an exports handler.
func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts export routes on the given group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/assignments", h.ExportAssignments)
}

// ExportAssignments handles POST /admin/exports/assignments.
func (h *Handler) ExportAssignments(c *gin.Context) {
	result, err := h.svc.ExportAssignments(c.Request.Context())
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.Created(c, result)
}
