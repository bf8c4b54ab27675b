// Package service implements case intake. A case that passes validation is
// priced by the valuation table, persisted as open and announced on the event
// bus so the marketplace can run the first offer pass.
package service

import (
	"context"
	"errors"
	"strings"

	"leadmarket_backend/internal/cases/repository"
	"leadmarket_backend/internal/cases/transport"
	"leadmarket_backend/internal/cases/valuation"
	"leadmarket_backend/internal/events"
	"leadmarket_backend/platform/apperr"

	"github.com/google/uuid"
)

// Repository is the consumer-driven persistence interface.
type Repository interface {
	Create(ctx context.Context, c repository.Case) (repository.Case, error)
	GetByID(ctx context.Context, id uuid.UUID) (repository.Case, error)
	ListByStatus(ctx context.Context, status string, limit int) ([]repository.Case, error)
}

// Service handles case intake and lookup.
type Service struct {
	repo Repository
	fees *valuation.Table
	bus  events.Bus
}

// New creates a case service.
func New(repo Repository, fees *valuation.Table, bus events.Bus) *Service {
	return &Service{repo: repo, fees: fees, bus: bus}
}

// Create validates and persists a new case, then publishes CaseCreated.
func (s *Service) Create(ctx context.Context, req transport.CreateCaseRequest) (transport.CaseResponse, error) {
	area := strings.ToLower(strings.TrimSpace(req.Area))
	city := strings.TrimSpace(req.City)
	if area == "" {
		return transport.CaseResponse{}, apperr.Validation("area is required")
	}
	if city == "" {
		return transport.CaseResponse{}, apperr.Validation("city is required")
	}

	tier := req.ProbabilityTier
	if tier == "" {
		tier = valuation.TierMedium
	}
	if !valuation.ValidTier(tier) {
		return transport.CaseResponse{}, apperr.Validation("probability_tier must be low, medium or high")
	}

	created, err := s.repo.Create(ctx, repository.Case{
		Area:            area,
		City:            city,
		Description:     strings.TrimSpace(req.Description),
		ProbabilityTier: tier,
		EstimatedValue:  s.fees.Estimate(area, tier),
	})
	if err != nil {
		return transport.CaseResponse{}, apperr.Wrap(apperr.KindInternal, "failed to create case", err)
	}

	s.bus.Publish(ctx, events.CaseCreated{
		BaseEvent: events.NewBaseEvent(),
		CaseID:    created.ID,
		Area:      created.Area,
		City:      created.City,
	})

	return toResponse(created), nil
}

// Get returns a case by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (transport.CaseResponse, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.CaseResponse{}, apperr.NotFound("case not found")
		}
		return transport.CaseResponse{}, apperr.Wrap(apperr.KindInternal, "failed to load case", err)
	}
	return toResponse(c), nil
}

// ListExhausted returns cases that ran out of eligible professionals.
// Operators review these for manual follow-up.
func (s *Service) ListExhausted(ctx context.Context, limit int) ([]transport.CaseResponse, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	list, err := s.repo.ListByStatus(ctx, repository.StatusExhausted, limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list exhausted cases", err)
	}

	responses := make([]transport.CaseResponse, 0, len(list))
	for _, c := range list {
		responses = append(responses, toResponse(c))
	}
	return responses, nil
}

func toResponse(c repository.Case) transport.CaseResponse {
	return transport.CaseResponse{
		ID:              c.ID,
		Area:            c.Area,
		City:            c.City,
		Description:     c.Description,
		ProbabilityTier: c.ProbabilityTier,
		EstimatedValue:  c.EstimatedValue,
		Status:          c.Status,
		CreatedAt:       c.CreatedAt,
	}
}
