// Package transport defines the HTTP DTOs of the marketplace module.
package transport

import (
	"time"

	"github.com/google/uuid"
)

// LeadOffer is one entry of the professional's lead feed.
type LeadOffer struct {
	AssignmentID    uuid.UUID `json:"assignment_id"`
	CaseID          uuid.UUID `json:"case_id"`
	Area            string    `json:"area"`
	City            string    `json:"city"`
	Description     string    `json:"description"`
	ProbabilityTier string    `json:"probability_tier"`
	EstimatedValue  float64   `json:"estimated_value"`
	AttemptNumber   int       `json:"attempt_number"`
	OfferedAt       time.Time `json:"offered_at"`
	ExpiresAt       time.Time `json:"expires_at"`
}

// FeedResponse is the lead feed of the authenticated professional.
type FeedResponse struct {
	Leads []LeadOffer `json:"leads"`
	Total int         `json:"total"`
}

// ActionRequest is a decision on an offered lead. The action field keeps the
// Portuguese verbs of the public API contract; English aliases are accepted.
type ActionRequest struct {
	CaseID uuid.UUID `json:"case_id" validate:"required"`
	Action string    `json:"acao" validate:"required"`
	Reason string    `json:"motivo" validate:"max=500"`
}

// ActionResponse reports the outcome of a decision.
type ActionResponse struct {
	AssignmentID uuid.UUID `json:"assignment_id"`
	CaseID       uuid.UUID `json:"case_id"`
	Status       string    `json:"status"`
}

// StatsResponse are the marketplace counters of one professional.
type StatsResponse struct {
	Received     int     `json:"received"`
	Accepted     int     `json:"accepted"`
	Rejected     int     `json:"rejected"`
	Expired      int     `json:"expired"`
	Pending      int     `json:"pending"`
	SuccessScore float64 `json:"success_score"`
}
