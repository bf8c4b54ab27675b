// Package service implements the professional registry use cases.
package service

import (
	"context"
	"errors"
	"strings"

	"leadmarket_backend/internal/professionals/repository"
	"leadmarket_backend/internal/professionals/transport"
	"leadmarket_backend/platform/apperr"
	"leadmarket_backend/platform/phone"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"
)

// Repository is the consumer-driven data access interface of this service.
type Repository interface {
	Create(ctx context.Context, params repository.CreateParams) (repository.Professional, error)
	GetByID(ctx context.Context, id uuid.UUID) (repository.Professional, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, params repository.UpdateProfileParams) (repository.Professional, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	ActivityStats(ctx context.Context, id uuid.UUID) (repository.ActivityStats, error)
}

// Service manages professional records.
type Service struct {
	repo Repository
}

// New creates a professional registry service.
func New(repo Repository) *Service {
	return &Service{repo: repo}
}

// Register creates a new professional with a hashed password and normalized
// tags and phone number.
func (s *Service) Register(ctx context.Context, req transport.RegisterRequest) (transport.ProfessionalResponse, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return transport.ProfessionalResponse{}, apperr.Wrap(apperr.KindInternal, "failed to hash password", err)
	}

	created, err := s.repo.Create(ctx, repository.CreateParams{
		Name:         strings.TrimSpace(req.Name),
		LicenseID:    strings.TrimSpace(req.LicenseID),
		Email:        req.Email,
		Phone:        normalizePhone(req.Phone),
		PasswordHash: string(hash),
		Areas:        normalizeTags(req.Areas),
		Cities:       normalizeTags(req.Cities),
	})
	if err != nil {
		if isUniqueViolation(err) {
			return transport.ProfessionalResponse{}, apperr.Conflict("license already registered")
		}
		return transport.ProfessionalResponse{}, err
	}

	return toResponse(created, repository.ActivityStats{}), nil
}

// Get returns one professional with derived activity counters.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (transport.ProfessionalResponse, error) {
	pro, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.ProfessionalResponse{}, apperr.NotFound("professional not found")
		}
		return transport.ProfessionalResponse{}, err
	}

	stats, err := s.repo.ActivityStats(ctx, id)
	if err != nil {
		return transport.ProfessionalResponse{}, err
	}

	return toResponse(pro, stats), nil
}

// UpdateProfile replaces the self-service fields of a professional.
func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, req transport.UpdateProfileRequest) (transport.ProfessionalResponse, error) {
	updated, err := s.repo.UpdateProfile(ctx, id, repository.UpdateProfileParams{
		Areas:  normalizeTags(req.Areas),
		Cities: normalizeTags(req.Cities),
		Email:  req.Email,
		Phone:  normalizePhone(req.Phone),
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.ProfessionalResponse{}, apperr.NotFound("professional not found")
		}
		return transport.ProfessionalResponse{}, err
	}

	stats, err := s.repo.ActivityStats(ctx, id)
	if err != nil {
		return transport.ProfessionalResponse{}, err
	}

	return toResponse(updated, stats), nil
}

// SetActive toggles rotation participation.
func (s *Service) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	err := s.repo.SetActive(ctx, id, active)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("professional not found")
	}
	return err
}

// Delete soft-deletes the account. Assignment history stays intact.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.repo.SoftDelete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("professional not found")
	}
	return err
}

func toResponse(p repository.Professional, stats repository.ActivityStats) transport.ProfessionalResponse {
	return transport.ProfessionalResponse{
		ID:               p.ID,
		Name:             p.Name,
		LicenseID:        p.LicenseID,
		Email:            p.Email,
		Phone:            p.Phone,
		Areas:            p.Areas,
		Cities:           p.Cities,
		Active:           p.Active,
		PerformanceScore: p.PerformanceScore,
		ConcurrentLeads:  stats.ConcurrentLeads,
		CreatedAt:        p.CreatedAt,
	}
}

// normalizeTags lower-cases and de-duplicates area/city tags so eligibility
// matching is exact.
func normalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		cleaned := strings.ToLower(strings.TrimSpace(tag))
		if cleaned == "" || seen[cleaned] {
			continue
		}
		seen[cleaned] = true
		out = append(out, cleaned)
	}
	return out
}

func normalizePhone(raw *string) *string {
	if raw == nil {
		return nil
	}
	normalized := phone.NormalizeE164(*raw)
	if normalized == "" {
		return nil
	}
	return &normalized
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
