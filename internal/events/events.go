package events

import (
	"time"

	"github.com/google/uuid"
)

// CaseCreated is published when a new case passes intake validation.
// The marketplace module reacts by running the first offer pass.
type CaseCreated struct {
	BaseEvent
	CaseID uuid.UUID
	Area   string
	City   string
}

// EventName returns the unique identifier for this event type.
func (e CaseCreated) EventName() string { return "case.created" }

// OfferCreated is published when an assignment enters the offered state.
type OfferCreated struct {
	BaseEvent
	AssignmentID     uuid.UUID
	CaseID           uuid.UUID
	ProfessionalID   uuid.UUID
	Area             string
	City             string
	ProbabilityTier  string
	EstimatedValue   float64
	AttemptNumber    int
	ExpiresAt        time.Time
	ProfessionalName string
	Email            *string
	Phone            *string
}

// EventName returns the unique identifier for this event type.
func (e OfferCreated) EventName() string { return "offer.created" }

// OfferDecided is published when an offered assignment reaches accepted,
// rejected or expired.
type OfferDecided struct {
	BaseEvent
	AssignmentID   uuid.UUID
	CaseID         uuid.UUID
	ProfessionalID uuid.UUID
	Outcome        string // accepted | rejected | expired
	Reason         *string
}

// EventName returns the unique identifier for this event type.
func (e OfferDecided) EventName() string { return "offer.decided" }

// CaseExhausted is published when no eligible professional remains for a case.
// These cases need manual handling by an operator.
type CaseExhausted struct {
	BaseEvent
	CaseID   uuid.UUID
	Area     string
	City     string
	Attempts int
}

// EventName returns the unique identifier for this event type.
func (e CaseExhausted) EventName() string { return "case.exhausted" }
