// Package scheduler provides the asynq task queue glue: per-offer expiry
// tasks scheduled at the window close, plus the periodic safety sweep that
// catches anything the queue misses.
package scheduler

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Task type identifiers.
const (
	TypeOfferExpiry = "offer:expire"
	TypeExpirySweep = "offer:sweep"
)

// OfferExpiryPayload carries the assignment to expire.
type OfferExpiryPayload struct {
	AssignmentID uuid.UUID `json:"assignment_id"`
}

// NewOfferExpiryTask builds the expiry task for one assignment.
func NewOfferExpiryTask(assignmentID uuid.UUID) (*asynq.Task, error) {
	payload, err := json.Marshal(OfferExpiryPayload{AssignmentID: assignmentID})
	if err != nil {
		return nil, fmt.Errorf("marshal offer expiry payload: %w", err)
	}
	return asynq.NewTask(TypeOfferExpiry, payload), nil
}

// NewExpirySweepTask builds the parameterless sweep task.
func NewExpirySweepTask() *asynq.Task {
	return asynq.NewTask(TypeExpirySweep, nil)
}
