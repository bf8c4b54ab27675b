// Package transport defines the request/response DTOs of the professional
// registry API.
package transport

import (
	"time"

	"github.com/google/uuid"
)

// RegisterRequest creates a new professional.
type RegisterRequest struct {
	Name      string   `json:"name" validate:"required,min=2,max=200"`
	LicenseID string   `json:"license_id" validate:"required,min=3,max=40"`
	Email     *string  `json:"email" validate:"omitempty,email"`
	Phone     *string  `json:"phone" validate:"omitempty,min=8,max=20"`
	Password  string   `json:"password" validate:"required,min=8,max=128"`
	Areas     []string `json:"areas" validate:"required,min=1,dive,min=2"`
	Cities    []string `json:"cities" validate:"required,min=1,dive,min=2"`
}

// UpdateProfileRequest mutates the self-service fields.
type UpdateProfileRequest struct {
	Areas  []string `json:"areas" validate:"required,min=1,dive,min=2"`
	Cities []string `json:"cities" validate:"required,min=1,dive,min=2"`
	Email  *string  `json:"email" validate:"omitempty,email"`
	Phone  *string  `json:"phone" validate:"omitempty,min=8,max=20"`
}

// SetActiveRequest toggles rotation participation.
type SetActiveRequest struct {
	Active bool `json:"active"`
}

// ProfessionalResponse is the public view of a professional record.
type ProfessionalResponse struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	LicenseID        string    `json:"license_id"`
	Email            *string   `json:"email,omitempty"`
	Phone            *string   `json:"phone,omitempty"`
	Areas            []string  `json:"areas"`
	Cities           []string  `json:"cities"`
	Active           bool      `json:"active"`
	PerformanceScore float64   `json:"performance_score"`
	ConcurrentLeads  int       `json:"concurrent_leads"`
	CreatedAt        time.Time `json:"created_at"`
}
