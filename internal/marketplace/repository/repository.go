// Package repository provides data access for the assignment marketplace.
//
// Two invariants live in the schema and are enforced here at write time:
// a case has at most one live offer (partial unique index on offered rows)
// and a professional is never offered the same case twice (unique index on
// case + professional). Decisions use conditional updates so concurrent
// writers resolve through row count instead of locks.
package repository

import (
	"context"
	"errors"
	"time"

	"leadmarket_backend/internal/marketplace/domain"
	"leadmarket_backend/internal/marketplace/rotation"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound is returned when an assignment does not exist.
	ErrNotFound = errors.New("assignment not found")
	// ErrOfferExists is returned when a case already has a live offer or the
	// professional was already offered this case.
	ErrOfferExists = errors.New("conflicting offer exists")
	// ErrStaleTransition is returned when a decision races a concurrent
	// transition and loses.
	ErrStaleTransition = errors.New("assignment already decided")
)

// Assignment is the persistence model of one offer attempt.
// ProfessionalID is nil only on exhausted markers.
type Assignment struct {
	ID              uuid.UUID
	CaseID          uuid.UUID
	ProfessionalID  *uuid.UUID
	Status          domain.Status
	AttemptNumber   int
	OfferedAt       *time.Time
	ExpiresAt       *time.Time
	DecidedAt       *time.Time
	RejectionReason *string
	CreatedAt       time.Time
}

// Repository persists assignments in Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a marketplace repository backed by the given pool.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const assignmentColumns = `
	id, case_id, professional_id, status, attempt_number,
	offered_at, expires_at, decided_at, rejection_reason, created_at`

// same list qualified for queries joining the cases table
const assignmentColumnsQualified = `
	a.id, a.case_id, a.professional_id, a.status, a.attempt_number,
	a.offered_at, a.expires_at, a.decided_at, a.rejection_reason, a.created_at`

func scanAssignment(row pgx.Row) (Assignment, error) {
	var a Assignment
	err := row.Scan(
		&a.ID, &a.CaseID, &a.ProfessionalID, &a.Status, &a.AttemptNumber,
		&a.OfferedAt, &a.ExpiresAt, &a.DecidedAt, &a.RejectionReason, &a.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Assignment{}, ErrNotFound
	}
	return a, err
}

// CandidateSnapshot loads active professionals matching area and city together
// with their derived activity fields. Concurrency, lifetime count and recency
// come from the assignments table at read time; no stored counters exist.
// Never-offered professionals use their registration time as recency baseline.
func (r *Repository) CandidateSnapshot(ctx context.Context, area, city string) ([]rotation.Candidate, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT
			p.id, p.name, p.email, p.phone, p.areas, p.cities, p.active,
			p.performance_score,
			COUNT(a.id) FILTER (WHERE a.status = 'accepted'),
			COUNT(a.id),
			COALESCE(MAX(a.offered_at), p.created_at)
		FROM professionals p
		LEFT JOIN assignments a ON a.professional_id = p.id
		WHERE p.deleted_at IS NULL
		  AND p.active
		  AND $1 = ANY (p.areas)
		  AND EXISTS (
			SELECT 1 FROM unnest(p.cities) AS pc WHERE lower(pc) = lower($2)
		  )
		GROUP BY p.id
	`, area, city)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var candidates []rotation.Candidate
	for rows.Next() {
		var c rotation.Candidate
		err := rows.Scan(
			&c.ID, &c.Name, &c.Email, &c.Phone, &c.Areas, &c.Cities, &c.Active,
			&c.PerformanceScore, &c.ConcurrentLeads, &c.LifetimeAssignments,
			&c.LastActivityAt,
		)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

// CaseHistory describes what already happened to a case in the rotation.
type CaseHistory struct {
	// OfferedProfessionals holds everyone who ever received an offer for the
	// case, regardless of outcome.
	OfferedProfessionals map[uuid.UUID]struct{}
	// Attempts is the highest attempt number recorded so far.
	Attempts int
	// HasLiveOffer reports whether an offered row currently exists.
	HasLiveOffer bool
}

// History returns the offer history of one case.
func (r *Repository) History(ctx context.Context, caseID uuid.UUID) (CaseHistory, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT professional_id, attempt_number, status
		FROM assignments
		WHERE case_id = $1
	`, caseID)
	if err != nil {
		return CaseHistory{}, err
	}
	defer rows.Close()

	history := CaseHistory{OfferedProfessionals: make(map[uuid.UUID]struct{})}
	for rows.Next() {
		var proID *uuid.UUID
		var attempt int
		var status domain.Status
		if err := rows.Scan(&proID, &attempt, &status); err != nil {
			return CaseHistory{}, err
		}
		if proID != nil {
			history.OfferedProfessionals[*proID] = struct{}{}
		}
		if attempt > history.Attempts {
			history.Attempts = attempt
		}
		if status == domain.StatusOffered {
			history.HasLiveOffer = true
		}
	}
	return history, rows.Err()
}

// CreateOffer inserts an offered assignment. The partial unique indexes turn
// a racing duplicate into ErrOfferExists, so two concurrent offer passes for
// the same case cannot both succeed.
func (r *Repository) CreateOffer(ctx context.Context, caseID, professionalID uuid.UUID, attempt int, expiresAt time.Time) (Assignment, error) {
	a, err := scanAssignment(r.pool.QueryRow(ctx, `
		INSERT INTO assignments (case_id, professional_id, status, attempt_number, offered_at, expires_at)
		VALUES ($1, $2, 'offered', $3, now(), $4)
		RETURNING`+assignmentColumns,
		caseID, professionalID, attempt, expiresAt,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Assignment{}, ErrOfferExists
		}
		return Assignment{}, err
	}
	return a, nil
}

// CreateExhaustedMarker records that the rotation ran out of candidates for a
// case. The marker has no professional and is terminal. Concurrent exhaust
// attempts collide on the attempt-number index and surface as ErrOfferExists.
func (r *Repository) CreateExhaustedMarker(ctx context.Context, caseID uuid.UUID, attempt int) (Assignment, error) {
	a, err := scanAssignment(r.pool.QueryRow(ctx, `
		INSERT INTO assignments (case_id, status, attempt_number, decided_at)
		VALUES ($1, 'exhausted', $2, now())
		RETURNING`+assignmentColumns,
		caseID, attempt,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Assignment{}, ErrOfferExists
		}
		return Assignment{}, err
	}
	return a, nil
}

// GetByID returns one assignment.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Assignment, error) {
	return scanAssignment(r.pool.QueryRow(ctx, `
		SELECT`+assignmentColumns+`
		FROM assignments
		WHERE id = $1
	`, id))
}

// GetLiveOffer returns the offered assignment a professional holds for a case.
func (r *Repository) GetLiveOffer(ctx context.Context, caseID, professionalID uuid.UUID) (Assignment, error) {
	return scanAssignment(r.pool.QueryRow(ctx, `
		SELECT`+assignmentColumns+`
		FROM assignments
		WHERE case_id = $1 AND professional_id = $2 AND status = 'offered'
	`, caseID, professionalID))
}

// Transition moves an offered assignment to a decision state. The WHERE
// clause makes the update conditional: when a concurrent writer already
// decided the row, zero rows match and ErrStaleTransition is returned.
func (r *Repository) Transition(ctx context.Context, id uuid.UUID, to domain.Status, reason *string) (Assignment, error) {
	if !domain.StatusOffered.CanTransition(to) {
		return Assignment{}, ErrStaleTransition
	}
	a, err := scanAssignment(r.pool.QueryRow(ctx, `
		UPDATE assignments
		SET status = $2, decided_at = now(), rejection_reason = $3
		WHERE id = $1 AND status = 'offered'
		RETURNING`+assignmentColumns,
		id, to, reason,
	))
	if errors.Is(err, ErrNotFound) {
		// The row exists but is no longer offered, or never existed. Both
		// read as a lost race to the caller.
		return Assignment{}, ErrStaleTransition
	}
	return a, err
}

// FeedItem is an offered assignment joined with its case for the lead feed.
type FeedItem struct {
	Assignment Assignment
	Area       string
	City       string
	Tier       string
	Value      float64
	Summary    string
}

// Feed returns the live offers of one professional, newest first.
func (r *Repository) Feed(ctx context.Context, professionalID uuid.UUID) ([]FeedItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT`+assignmentColumnsQualified+`,
			c.area, c.city, c.probability_tier, c.estimated_value, c.description
		FROM assignments a
		JOIN cases c ON c.id = a.case_id
		WHERE a.professional_id = $1 AND a.status = 'offered'
		ORDER BY a.offered_at DESC
	`, professionalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []FeedItem
	for rows.Next() {
		var item FeedItem
		a := &item.Assignment
		err := rows.Scan(
			&a.ID, &a.CaseID, &a.ProfessionalID, &a.Status, &a.AttemptNumber,
			&a.OfferedAt, &a.ExpiresAt, &a.DecidedAt, &a.RejectionReason, &a.CreatedAt,
			&item.Area, &item.City, &item.Tier, &item.Value, &item.Summary,
		)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// DecisionStats are the per-professional marketplace counters, derived from
// assignment history on every read.
type DecisionStats struct {
	Offered  int
	Accepted int
	Rejected int
	Expired  int
	Pending  int
}

// Stats returns the decision counters for one professional.
func (r *Repository) Stats(ctx context.Context, professionalID uuid.UUID) (DecisionStats, error) {
	var s DecisionStats
	err := r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'accepted'),
			COUNT(*) FILTER (WHERE status = 'rejected'),
			COUNT(*) FILTER (WHERE status = 'expired'),
			COUNT(*) FILTER (WHERE status = 'offered')
		FROM assignments
		WHERE professional_id = $1
	`, professionalID).Scan(&s.Offered, &s.Accepted, &s.Rejected, &s.Expired, &s.Pending)
	return s, err
}

// DueOffers returns offered assignments whose window has closed.
// The sweep processes them in expiry order.
func (r *Repository) DueOffers(ctx context.Context, now time.Time, limit int) ([]Assignment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT`+assignmentColumns+`
		FROM assignments
		WHERE status = 'offered' AND expires_at <= $1
		ORDER BY expires_at
		LIMIT $2
	`, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var due []Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		due = append(due, a)
	}
	return due, rows.Err()
}

// ListByCase returns the full assignment history of a case, oldest first.
func (r *Repository) ListByCase(ctx context.Context, caseID uuid.UUID) ([]Assignment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT`+assignmentColumns+`
		FROM assignments
		WHERE case_id = $1
		ORDER BY attempt_number, created_at
	`, caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

// ExportRow is one line of the operator assignment export.
type ExportRow struct {
	Assignment      Assignment
	Area            string
	City            string
	Tier            string
	Value           float64
	ProfessionalRef string
}

// AllForExport streams every assignment joined with its case, oldest first.
func (r *Repository) AllForExport(ctx context.Context) ([]ExportRow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT`+assignmentColumnsQualified+`,
			c.area, c.city, c.probability_tier, c.estimated_value,
			COALESCE(p.license_id, '')
		FROM assignments a
		JOIN cases c ON c.id = a.case_id
		LEFT JOIN professionals p ON p.id = a.professional_id
		ORDER BY a.created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ExportRow
	for rows.Next() {
		var row ExportRow
		a := &row.Assignment
		err := rows.Scan(
			&a.ID, &a.CaseID, &a.ProfessionalID, &a.Status, &a.AttemptNumber,
			&a.OfferedAt, &a.ExpiresAt, &a.DecidedAt, &a.RejectionReason, &a.CreatedAt,
			&row.Area, &row.City, &row.Tier, &row.Value, &row.ProfessionalRef,
		)
		if err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}
