// Package handler exposes the marketplace over HTTP.
package handler

import (
	"net/http"

	"leadmarket_backend/internal/marketplace/service"
	"leadmarket_backend/internal/marketplace/transport"
	"leadmarket_backend/platform/httpkit"
	"leadmarket_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

// Handler serves marketplace endpoints.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a marketplace handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes mounts marketplace routes behind authentication.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/leads", h.Feed)
	rg.POST("/leads/acao", h.Act)
	rg.GET("/estatisticas", h.Stats)
}

// Feed handles GET /marketplace/leads.
func (h *Handler) Feed(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	filter := service.FeedFilter{
		Area: c.Query("area"),
		Tier: c.Query("probability_tier"),
	}

	feed, err := h.svc.Feed(c.Request.Context(), id.ProfessionalID(), filter)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.OK(c, feed)
}

// Act handles POST /marketplace/leads/acao.
func (h *Handler) Act(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	var req transport.ActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request")
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed")
		return
	}

	result, err := h.svc.Act(c.Request.Context(), id.ProfessionalID(), req)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.OK(c, result)
}

// Stats handles GET /marketplace/estatisticas.
func (h *Handler) Stats(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	stats, err := h.svc.Stats(c.Request.Context(), id.ProfessionalID())
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.OK(c, stats)
}
