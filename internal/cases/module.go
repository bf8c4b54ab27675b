// Package cases provides the case intake bounded context module.
package cases

import (
	"leadmarket_backend/internal/cases/handler"
	"leadmarket_backend/internal/cases/repository"
	"leadmarket_backend/internal/cases/service"
	"leadmarket_backend/internal/cases/valuation"
	"leadmarket_backend/internal/events"
	apphttp "leadmarket_backend/internal/http"
	"leadmarket_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the cases module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repository
}

// NewModule creates and initializes the cases module.
func NewModule(pool *pgxpool.Pool, fees *valuation.Table, bus events.Bus, val *validator.Validator) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, fees, bus)

	return &Module{
		handler: handler.New(svc, val),
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "cases"
}

// Repository returns the case repository for cross-module use.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// RegisterRoutes mounts case routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	public := ctx.V1.Group("/cases")
	public.Use(ctx.IntakeRateLimiter.RateLimit())
	m.handler.RegisterPublicRoutes(public)

	m.handler.RegisterAdminRoutes(ctx.Admin.Group("/cases"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
