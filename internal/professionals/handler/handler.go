// Package handler exposes the professional registry over HTTP.
package handler

import (
	"net/http"

	"leadmarket_backend/internal/professionals/service"
	"leadmarket_backend/internal/professionals/transport"
	"leadmarket_backend/platform/httpkit"
	"leadmarket_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// Handler serves professional registry endpoints.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a registry handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterPublicRoutes mounts registration on an unauthenticated group.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Register)
}

// RegisterProtectedRoutes mounts self-service routes behind authentication.
func (h *Handler) RegisterProtectedRoutes(rg *gin.RouterGroup) {
	rg.GET("/me", h.GetSelf)
	rg.PUT("/me", h.UpdateSelf)
	rg.PATCH("/me/active", h.SetActive)
	rg.DELETE("/me", h.DeleteSelf)
}

// Register handles POST /professionals.
func (h *Handler) Register(c *gin.Context) {
	var req transport.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed)
		return
	}

	pro, err := h.svc.Register(c.Request.Context(), req)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.Created(c, pro)
}

// GetSelf handles GET /professionals/me.
func (h *Handler) GetSelf(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	pro, err := h.svc.Get(c.Request.Context(), id.ProfessionalID())
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.OK(c, pro)
}

// UpdateSelf handles PUT /professionals/me.
func (h *Handler) UpdateSelf(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	var req transport.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed)
		return
	}

	pro, err := h.svc.UpdateProfile(c.Request.Context(), id.ProfessionalID(), req)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.OK(c, pro)
}

// SetActive handles PATCH /professionals/me/active.
func (h *Handler) SetActive(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	var req transport.SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest)
		return
	}

	if err := h.svc.SetActive(c.Request.Context(), id.ProfessionalID(), req.Active); err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.OK(c, gin.H{"active": req.Active})
}

// DeleteSelf handles DELETE /professionals/me.
func (h *Handler) DeleteSelf(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id.ProfessionalID()); err != nil {
		httpkit.HandleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
