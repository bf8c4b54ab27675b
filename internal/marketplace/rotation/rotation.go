// Package rotation implements eligibility filtering and the weighted-recency
// selector that decides which professional receives the next lead offer.
//
// Both functions are pure over an in-memory candidate snapshot, so the whole
// decision surface is testable without a database.
package rotation

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Candidate is a registry snapshot row enriched with derived activity fields.
// LastActivityAt is the professional's most recent offer time, or the
// registration time when no offer was ever made.
type Candidate struct {
	ID                  uuid.UUID
	Name                string
	Email               *string
	Phone               *string
	Areas               []string
	Cities              []string
	Active              bool
	PerformanceScore    float64
	ConcurrentLeads     int
	LifetimeAssignments int
	LastActivityAt      time.Time
}

// Filter holds the rules a candidate must satisfy to receive a given lead.
type Filter struct {
	Area               string
	City               string
	MaxConcurrentLeads int
	// Excluded contains professionals already offered this case.
	Excluded map[uuid.UUID]struct{}
}

// Eligible reports whether c may receive the lead described by f.
func Eligible(c Candidate, f Filter) bool {
	if !c.Active {
		return false
	}
	if _, offered := f.Excluded[c.ID]; offered {
		return false
	}
	if c.ConcurrentLeads >= f.MaxConcurrentLeads {
		return false
	}
	return containsFold(c.Areas, f.Area) && containsFold(c.Cities, f.City)
}

// EligibleSet returns the candidates from snapshot that satisfy f,
// preserving order.
func EligibleSet(snapshot []Candidate, f Filter) []Candidate {
	var eligible []Candidate
	for _, c := range snapshot {
		if Eligible(c, f) {
			eligible = append(eligible, c)
		}
	}
	return eligible
}

// Select picks the candidate with the highest rotation priority, defined as
// days since last activity multiplied by the performance weight. Ties go to
// the candidate with fewer lifetime assignments, then the smaller id, so the
// outcome is deterministic.
//
// The bool result is false when candidates is empty.
func Select(candidates []Candidate, now time.Time) (Candidate, bool) {
	if len(candidates) == 0 {
		return Candidate{}, false
	}

	best := candidates[0]
	bestPriority := Priority(best, now)
	for _, c := range candidates[1:] {
		p := Priority(c, now)
		switch {
		case p > bestPriority:
			best, bestPriority = c, p
		case p == bestPriority && beatsOnTie(c, best):
			best = c
		}
	}
	return best, true
}

// Priority computes the rotation priority of c at the given instant.
func Priority(c Candidate, now time.Time) float64 {
	days := now.Sub(c.LastActivityAt).Hours() / 24
	if days < 0 {
		days = 0
	}
	return days * Weight(c.PerformanceScore)
}

// Weight converts a performance score in [0, 100] to a priority multiplier
// in [0.5, 1.5]. A score of 50 yields the neutral weight 1.0.
func Weight(score float64) float64 {
	w := 0.5 + score/100
	if w < 0.5 {
		return 0.5
	}
	if w > 1.5 {
		return 1.5
	}
	return w
}

func beatsOnTie(a, b Candidate) bool {
	if a.LifetimeAssignments != b.LifetimeAssignments {
		return a.LifetimeAssignments < b.LifetimeAssignments
	}
	return a.ID.String() < b.ID.String()
}

func containsFold(values []string, target string) bool {
	for _, v := range values {
		if strings.EqualFold(v, target) {
			return true
		}
	}
	return false
}
