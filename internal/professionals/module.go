// Package professionals provides the professional registry bounded context.
package professionals

import (
	apphttp "leadmarket_backend/internal/http"
	"leadmarket_backend/internal/professionals/handler"
	"leadmarket_backend/internal/professionals/repository"
	"leadmarket_backend/internal/professionals/service"
	"leadmarket_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the professional registry module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repository
}

// NewModule creates and initializes the professionals module.
func NewModule(pool *pgxpool.Pool, val *validator.Validator) *Module {
	repo := repository.New(pool)
	svc := service.New(repo)

	return &Module{
		handler: handler.New(svc, val),
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "professionals"
}

// Service returns the registry service for cross-module use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the registry repository for cross-module use.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// RegisterRoutes mounts registry routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	public := ctx.V1.Group("/professionals")
	public.Use(ctx.IntakeRateLimiter.RateLimit())
	m.handler.RegisterPublicRoutes(public)

	m.handler.RegisterProtectedRoutes(ctx.Protected.Group("/professionals"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
