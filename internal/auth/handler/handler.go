// Package handler exposes authentication endpoints.
package handler

import (
	"net/http"

	"leadmarket_backend/internal/auth/service"
	"leadmarket_backend/platform/httpkit"
	"leadmarket_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

// Handler serves auth endpoints.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates an auth handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes mounts auth routes on the given group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/login", h.Login)
}

type loginRequest struct {
	LicenseID string `json:"license_id" validate:"required"`
	Password  string `json:"password" validate:"required"`
}

// Login handles POST /auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request")
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed")
		return
	}

	tokens, err := h.svc.Login(c.Request.Context(), req.LicenseID, req.Password)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.OK(c, tokens)
}
