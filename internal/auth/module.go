// Package auth provides the authentication bounded context module.
package auth

import (
	"leadmarket_backend/internal/auth/handler"
	"leadmarket_backend/internal/auth/service"
	apphttp "leadmarket_backend/internal/http"
	"leadmarket_backend/platform/config"
	"leadmarket_backend/platform/logger"
	"leadmarket_backend/platform/validator"
)

// Module is the auth module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates the auth module. Credentials come from the professional
// registry; auth does not own its own user table.
func NewModule(creds service.CredentialReader, cfg config.AuthServiceConfig, log *logger.Logger, val *validator.Validator) *Module {
	svc := service.New(creds, cfg, log)
	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "auth"
}

// RegisterRoutes mounts auth routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.V1.Group("/auth")
	group.Use(ctx.IntakeRateLimiter.RateLimit())
	m.handler.RegisterRoutes(group)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
