// Package repository provides data access for the professional registry.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a professional does not exist or was deleted.
var ErrNotFound = errors.New("professional not found")

// Professional is a registered lawyer who can receive leads.
type Professional struct {
	ID               uuid.UUID
	Name             string
	LicenseID        string
	Email            *string
	Phone            *string
	PasswordHash     string
	Areas            []string
	Cities           []string
	Active           bool
	PerformanceScore float64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Repository persists professionals in Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a professional repository backed by the given pool.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateParams holds the fields of a new registration.
type CreateParams struct {
	Name         string
	LicenseID    string
	Email        *string
	Phone        *string
	PasswordHash string
	Areas        []string
	Cities       []string
}

const professionalColumns = `
	id, name, license_id, email, phone, password_hash, areas, cities,
	active, performance_score, created_at, updated_at`

func scanProfessional(row pgx.Row) (Professional, error) {
	var p Professional
	err := row.Scan(
		&p.ID, &p.Name, &p.LicenseID, &p.Email, &p.Phone, &p.PasswordHash,
		&p.Areas, &p.Cities, &p.Active, &p.PerformanceScore,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Professional{}, ErrNotFound
	}
	return p, err
}

// Create inserts a new professional.
func (r *Repository) Create(ctx context.Context, params CreateParams) (Professional, error) {
	return scanProfessional(r.pool.QueryRow(ctx, `
		INSERT INTO professionals (name, license_id, email, phone, password_hash, areas, cities)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING`+professionalColumns,
		params.Name, params.LicenseID, params.Email, params.Phone,
		params.PasswordHash, params.Areas, params.Cities,
	))
}

// GetByID returns a professional by id, excluding soft-deleted records.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Professional, error) {
	return scanProfessional(r.pool.QueryRow(ctx, `
		SELECT`+professionalColumns+`
		FROM professionals
		WHERE id = $1 AND deleted_at IS NULL
	`, id))
}

// GetByLicense returns a professional by license id (bar registration number).
func (r *Repository) GetByLicense(ctx context.Context, licenseID string) (Professional, error) {
	return scanProfessional(r.pool.QueryRow(ctx, `
		SELECT`+professionalColumns+`
		FROM professionals
		WHERE license_id = $1 AND deleted_at IS NULL
	`, licenseID))
}

// UpdateProfileParams holds the self-service mutable fields.
type UpdateProfileParams struct {
	Areas  []string
	Cities []string
	Phone  *string
	Email  *string
}

// UpdateProfile replaces the professional's practice areas, cities and
// contact details.
func (r *Repository) UpdateProfile(ctx context.Context, id uuid.UUID, params UpdateProfileParams) (Professional, error) {
	return scanProfessional(r.pool.QueryRow(ctx, `
		UPDATE professionals
		SET areas = $2, cities = $3, phone = $4, email = $5, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING`+professionalColumns,
		id, params.Areas, params.Cities, params.Phone, params.Email,
	))
}

// SetActive toggles whether the professional participates in the rotation.
func (r *Repository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE professionals
		SET active = $2, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
	`, id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SoftDelete marks a professional as deleted. Historical assignments keep
// referencing the row, so the record is never physically removed.
func (r *Repository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE professionals
		SET deleted_at = now(), active = FALSE, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// RecalculateScore recomputes the performance score from assignment history:
// accepted / (accepted + rejected + expired) * 100. Professionals without
// decided assignments keep the registration default.
func (r *Repository) RecalculateScore(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE professionals p
		SET performance_score = sub.score, updated_at = now()
		FROM (
			SELECT COUNT(*) FILTER (WHERE status = 'accepted')::float / COUNT(*)::float * 100 AS score
			FROM assignments
			WHERE professional_id = $1
			  AND status IN ('accepted', 'rejected', 'expired')
		) sub
		WHERE p.id = $1 AND sub.score IS NOT NULL
	`, id)
	return err
}

// ActivityStats are the derived per-professional counters, always computed
// from assignment history rather than stored counters.
type ActivityStats struct {
	ConcurrentLeads     int
	LifetimeAssignments int
	LastOfferedAt       *time.Time
}

// ActivityStats returns the derived counters for one professional.
func (r *Repository) ActivityStats(ctx context.Context, id uuid.UUID) (ActivityStats, error) {
	var stats ActivityStats
	err := r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE status = 'accepted'),
			COUNT(*),
			MAX(offered_at)
		FROM assignments
		WHERE professional_id = $1
	`, id).Scan(&stats.ConcurrentLeads, &stats.LifetimeAssignments, &stats.LastOfferedAt)
	return stats, err
}
