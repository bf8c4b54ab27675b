// Package handler exposes case intake over HTTP.
package handler

import (
	"net/http"
	"strconv"

	"leadmarket_backend/internal/cases/service"
	"leadmarket_backend/internal/cases/transport"
	"leadmarket_backend/platform/httpkit"
	"leadmarket_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler serves case endpoints.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a case handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterPublicRoutes mounts intake on an unauthenticated group.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
}

// RegisterAdminRoutes mounts operator routes. The group root lists exhausted
// cases awaiting manual follow-up.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.ListExhausted)
	rg.GET("/:id", h.Get)
}

// Create handles POST /cases.
func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request")
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed")
		return
	}

	created, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.Created(c, created)
}

// Get handles GET /cases/:id.
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid case id")
		return
	}

	result, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.OK(c, result)
}

// ListExhausted handles GET /cases.
func (h *Handler) ListExhausted(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	list, err := h.svc.ListExhausted(c.Request.Context(), limit)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.OK(c, gin.H{"cases": list, "total": len(list)})
}
