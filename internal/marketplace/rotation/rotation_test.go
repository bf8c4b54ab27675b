package rotation

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func candidate(id byte, opts ...func(*Candidate)) Candidate {
	c := Candidate{
		ID:               uuid.UUID{id},
		Name:             "pro",
		Areas:            []string{"familia"},
		Cities:           []string{"sao paulo"},
		Active:           true,
		PerformanceScore: 50,
		LastActivityAt:   baseTime.Add(-24 * time.Hour),
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func TestEligible(t *testing.T) {
	filter := Filter{
		Area:               "familia",
		City:               "sao paulo",
		MaxConcurrentLeads: 5,
		Excluded:           map[uuid.UUID]struct{}{},
	}

	tests := []struct {
		name string
		c    Candidate
		f    Filter
		want bool
	}{
		{
			name: "matching candidate passes",
			c:    candidate(1),
			f:    filter,
			want: true,
		},
		{
			name: "inactive fails",
			c:    candidate(1, func(c *Candidate) { c.Active = false }),
			f:    filter,
			want: false,
		},
		{
			name: "wrong area fails",
			c:    candidate(1, func(c *Candidate) { c.Areas = []string{"consumidor"} }),
			f:    filter,
			want: false,
		},
		{
			name: "wrong city fails",
			c:    candidate(1, func(c *Candidate) { c.Cities = []string{"campinas"} }),
			f:    filter,
			want: false,
		},
		{
			name: "area matching is case insensitive",
			c:    candidate(1, func(c *Candidate) { c.Areas = []string{"Familia"} }),
			f:    filter,
			want: true,
		},
		{
			name: "at concurrent cap fails",
			c:    candidate(1, func(c *Candidate) { c.ConcurrentLeads = 5 }),
			f:    filter,
			want: false,
		},
		{
			name: "below concurrent cap passes",
			c:    candidate(1, func(c *Candidate) { c.ConcurrentLeads = 4 }),
			f:    filter,
			want: true,
		},
		{
			name: "already offered this case fails",
			c:    candidate(7),
			f: Filter{
				Area:               "familia",
				City:               "sao paulo",
				MaxConcurrentLeads: 5,
				Excluded:           map[uuid.UUID]struct{}{{7}: {}},
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Eligible(tt.c, tt.f); got != tt.want {
				t.Errorf("Eligible() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWeight(t *testing.T) {
	tests := []struct {
		score float64
		want  float64
	}{
		{score: 0, want: 0.5},
		{score: 50, want: 1.0},
		{score: 100, want: 1.5},
		{score: 90, want: 1.4},
		{score: 40, want: 0.9},
		{score: -20, want: 0.5},
		{score: 250, want: 1.5},
	}

	for _, tt := range tests {
		if got := Weight(tt.score); got != tt.want {
			t.Errorf("Weight(%v) = %v, want %v", tt.score, got, tt.want)
		}
	}
}

// A strong performer idle for long wins over a weak performer offered
// recently: 10 days x 1.4 beats 1 day x 0.9.
func TestSelectWeightedRecency(t *testing.T) {
	strong := candidate(1, func(c *Candidate) {
		c.PerformanceScore = 90
		c.LastActivityAt = baseTime.Add(-10 * 24 * time.Hour)
	})
	weak := candidate(2, func(c *Candidate) {
		c.PerformanceScore = 40
		c.LastActivityAt = baseTime.Add(-24 * time.Hour)
	})

	got, ok := Select([]Candidate{weak, strong}, baseTime)
	if !ok {
		t.Fatal("Select() returned no candidate")
	}
	if got.ID != strong.ID {
		t.Errorf("Select() picked %v, want the idle strong performer", got.ID)
	}
}

func TestSelectRecencyDominatesWhenScoresMatch(t *testing.T) {
	older := candidate(1, func(c *Candidate) {
		c.LastActivityAt = baseTime.Add(-5 * 24 * time.Hour)
	})
	newer := candidate(2, func(c *Candidate) {
		c.LastActivityAt = baseTime.Add(-2 * 24 * time.Hour)
	})

	got, ok := Select([]Candidate{newer, older}, baseTime)
	if !ok {
		t.Fatal("Select() returned no candidate")
	}
	if got.ID != older.ID {
		t.Errorf("Select() picked %v, want the longer-idle candidate", got.ID)
	}
}

func TestSelectTieBreaks(t *testing.T) {
	// Identical priority, different lifetime counts.
	busy := candidate(1, func(c *Candidate) { c.LifetimeAssignments = 9 })
	fresh := candidate(2, func(c *Candidate) { c.LifetimeAssignments = 2 })

	got, ok := Select([]Candidate{busy, fresh}, baseTime)
	if !ok {
		t.Fatal("Select() returned no candidate")
	}
	if got.ID != fresh.ID {
		t.Errorf("tie on priority must go to fewer lifetime assignments, got %v", got.ID)
	}

	// Fully identical except id: lowest id wins, regardless of input order.
	a := candidate(1)
	b := candidate(2)
	for _, order := range [][]Candidate{{a, b}, {b, a}} {
		got, ok := Select(order, baseTime)
		if !ok {
			t.Fatal("Select() returned no candidate")
		}
		if got.ID != a.ID {
			t.Errorf("full tie must go to the smaller id, got %v", got.ID)
		}
	}
}

func TestSelectEmpty(t *testing.T) {
	if _, ok := Select(nil, baseTime); ok {
		t.Error("Select(nil) must report no candidate")
	}
}

func TestPriorityClampsFutureActivity(t *testing.T) {
	// Clock skew can leave LastActivityAt slightly in the future.
	c := candidate(1, func(c *Candidate) {
		c.LastActivityAt = baseTime.Add(time.Hour)
	})
	if got := Priority(c, baseTime); got != 0 {
		t.Errorf("Priority() = %v, want 0 for future activity", got)
	}
}

func TestEligibleSet(t *testing.T) {
	snapshot := []Candidate{
		candidate(1),
		candidate(2, func(c *Candidate) { c.Active = false }),
		candidate(3, func(c *Candidate) { c.Areas = []string{"bancario"} }),
		candidate(4),
	}

	got := EligibleSet(snapshot, Filter{
		Area:               "familia",
		City:               "sao paulo",
		MaxConcurrentLeads: 5,
	})
	if len(got) != 2 {
		t.Fatalf("EligibleSet() returned %d candidates, want 2", len(got))
	}
	if got[0].ID != (uuid.UUID{1}) || got[1].ID != (uuid.UUID{4}) {
		t.Errorf("EligibleSet() kept wrong candidates: %v, %v", got[0].ID, got[1].ID)
	}
}
