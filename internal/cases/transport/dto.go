// Package transport defines the HTTP DTOs of the cases module.
package transport

import (
	"time"

	"github.com/google/uuid"
)

// CreateCaseRequest is the intake payload for a new case.
type CreateCaseRequest struct {
	Area            string `json:"area" validate:"required,min=2,max=64"`
	City            string `json:"city" validate:"required,min=2,max=128"`
	Description     string `json:"description" validate:"max=4000"`
	ProbabilityTier string `json:"probability_tier" validate:"omitempty,oneof=low medium high"`
}

// CaseResponse is the public view of a case.
type CaseResponse struct {
	ID              uuid.UUID `json:"id"`
	Area            string    `json:"area"`
	City            string    `json:"city"`
	Description     string    `json:"description"`
	ProbabilityTier string    `json:"probability_tier"`
	EstimatedValue  float64   `json:"estimated_value"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
}
