// Package domain holds the assignment state machine of the marketplace.
package domain

// Status is the lifecycle state of an assignment.
type Status string

// Assignment statuses. An assignment starts as offered and moves exactly once
// to accepted, rejected or expired. Exhausted marks a case-level dead end and
// is recorded without a professional.
const (
	StatusOffered   Status = "offered"
	StatusAccepted  Status = "accepted"
	StatusRejected  Status = "rejected"
	StatusExpired   Status = "expired"
	StatusExhausted Status = "exhausted"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusOffered, StatusAccepted, StatusRejected, StatusExpired, StatusExhausted:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is allowed from s.
func (s Status) IsTerminal() bool {
	return s != StatusOffered && s.Valid()
}

// CanTransition reports whether an assignment may move from s to target.
// Only offered assignments move, and only to a decision state.
func (s Status) CanTransition(target Status) bool {
	if s != StatusOffered {
		return false
	}
	switch target {
	case StatusAccepted, StatusRejected, StatusExpired:
		return true
	}
	return false
}
