// Package repository provides PostgreSQL persistence for cases.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a case does not exist.
var ErrNotFound = errors.New("case not found")

// Case statuses.
const (
	StatusOpen      = "open"
	StatusAccepted  = "accepted"
	StatusExhausted = "exhausted"
)

// Case is the persistence model of a legal case entering the marketplace.
type Case struct {
	ID              uuid.UUID
	Area            string
	City            string
	Description     string
	ProbabilityTier string
	EstimatedValue  float64
	Status          string
	CreatedAt       time.Time
}

// Repository handles case persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a case repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const caseColumns = `id, area, city, description, probability_tier, estimated_value, status, created_at`

// Create inserts a new open case.
func (r *Repository) Create(ctx context.Context, c Case) (Case, error) {
	query := fmt.Sprintf(`
		INSERT INTO cases (area, city, description, probability_tier, estimated_value)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING %s`, caseColumns)

	row := r.pool.QueryRow(ctx, query,
		c.Area, c.City, c.Description, c.ProbabilityTier, c.EstimatedValue)
	return scanCase(row)
}

// GetByID fetches a case by id.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Case, error) {
	query := fmt.Sprintf(`SELECT %s FROM cases WHERE id = $1`, caseColumns)
	return scanCase(r.pool.QueryRow(ctx, query, id))
}

// SetStatus moves a case to the given status.
func (r *Repository) SetStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE cases SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update case status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByStatus returns cases in the given status, newest first.
func (r *Repository) ListByStatus(ctx context.Context, status string, limit int) ([]Case, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM cases
		WHERE status = $1
		ORDER BY created_at DESC
		LIMIT $2`, caseColumns)

	rows, err := r.pool.Query(ctx, query, status, limit)
	if err != nil {
		return nil, fmt.Errorf("list cases: %w", err)
	}
	defer rows.Close()

	var cases []Case
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, err
		}
		cases = append(cases, c)
	}
	return cases, rows.Err()
}

func scanCase(row pgx.Row) (Case, error) {
	var c Case
	err := row.Scan(
		&c.ID, &c.Area, &c.City, &c.Description, &c.ProbabilityTier,
		&c.EstimatedValue, &c.Status, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Case{}, ErrNotFound
		}
		return Case{}, fmt.Errorf("scan case: %w", err)
	}
	return c, nil
}
