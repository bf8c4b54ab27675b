// Package marketplace wires the lead rotation core: eligibility, selection,
// offers and decisions.
package marketplace

import (
	"context"

	"leadmarket_backend/internal/events"
	apphttp "leadmarket_backend/internal/http"
	"leadmarket_backend/internal/marketplace/handler"
	"leadmarket_backend/internal/marketplace/repository"
	"leadmarket_backend/internal/marketplace/service"
	"leadmarket_backend/platform/config"
	"leadmarket_backend/platform/logger"
	"leadmarket_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the marketplace module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repository
}

// NewModule creates and initializes the marketplace module and subscribes it
// to case intake: every new case immediately gets its first offer pass.
func NewModule(
	pool *pgxpool.Pool,
	cases service.CaseStore,
	registry service.Registry,
	scheduler service.ExpiryScheduler,
	bus events.Bus,
	cfg config.AssignmentConfig,
	log *logger.Logger,
	val *validator.Validator,
) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, cases, registry, scheduler, bus, cfg, log)

	bus.Subscribe("case.created", events.HandlerFunc(func(ctx context.Context, e events.Event) error {
		created, ok := e.(events.CaseCreated)
		if !ok {
			return nil
		}
		return svc.OfferNext(ctx, created.CaseID)
	}))

	return &Module{
		handler: handler.New(svc, val),
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "marketplace"
}

// Service returns the marketplace service for the sweeper and scheduler.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the assignment repository for cross-module use.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// RegisterRoutes mounts marketplace routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/marketplace"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
