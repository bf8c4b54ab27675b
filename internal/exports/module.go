// Package exports provides the operator export bounded context module.
package exports

import (
	"leadmarket_backend/internal/exports/handler"
	"leadmarket_backend/internal/exports/service"
	apphttp "leadmarket_backend/internal/http"
	"leadmarket_backend/platform/logger"
)

// Module is the exports module implementing http.Module.
type Module struct {
	handler *handler.Handler
}

// NewModule creates the exports module. uploader may be nil when object
// storage is not configured.
func NewModule(source service.AssignmentSource, uploader service.Uploader, log *logger.Logger) *Module {
	svc := service.New(source, uploader, log)
	return &Module{handler: handler.New(svc)}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "exports"
}

// RegisterRoutes mounts export routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Admin.Group("/exports"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
