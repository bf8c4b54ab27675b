package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	caserepo "leadmarket_backend/internal/cases/repository"
	"leadmarket_backend/internal/events"
	"leadmarket_backend/internal/marketplace/domain"
	"leadmarket_backend/internal/marketplace/repository"
	"leadmarket_backend/internal/marketplace/rotation"
	"leadmarket_backend/internal/marketplace/transport"
	"leadmarket_backend/platform/apperr"
	"leadmarket_backend/platform/logger"

	"github.com/google/uuid"
)

// ----- fakes -----

type fakeRepo struct {
	mu          sync.Mutex
	assignments map[uuid.UUID]*repository.Assignment
	candidates  []rotation.Candidate
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{assignments: make(map[uuid.UUID]*repository.Assignment)}
}

func (f *fakeRepo) CandidateSnapshot(_ context.Context, _, _ string) ([]rotation.Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]rotation.Candidate, len(f.candidates))
	copy(out, f.candidates)
	return out, nil
}

func (f *fakeRepo) History(_ context.Context, caseID uuid.UUID) (repository.CaseHistory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	h := repository.CaseHistory{OfferedProfessionals: make(map[uuid.UUID]struct{})}
	for _, a := range f.assignments {
		if a.CaseID != caseID {
			continue
		}
		if a.ProfessionalID != nil {
			h.OfferedProfessionals[*a.ProfessionalID] = struct{}{}
		}
		if a.AttemptNumber > h.Attempts {
			h.Attempts = a.AttemptNumber
		}
		if a.Status == domain.StatusOffered {
			h.HasLiveOffer = true
		}
	}
	return h, nil
}

func (f *fakeRepo) CreateOffer(_ context.Context, caseID, professionalID uuid.UUID, attempt int, expiresAt time.Time) (repository.Assignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.assignments {
		if a.CaseID != caseID {
			continue
		}
		if a.Status == domain.StatusOffered {
			return repository.Assignment{}, repository.ErrOfferExists
		}
		if a.ProfessionalID != nil && *a.ProfessionalID == professionalID {
			return repository.Assignment{}, repository.ErrOfferExists
		}
	}
	now := time.Now()
	a := repository.Assignment{
		ID:             uuid.New(),
		CaseID:         caseID,
		ProfessionalID: &professionalID,
		Status:         domain.StatusOffered,
		AttemptNumber:  attempt,
		OfferedAt:      &now,
		ExpiresAt:      &expiresAt,
		CreatedAt:      now,
	}
	f.assignments[a.ID] = &a
	return a, nil
}

func (f *fakeRepo) CreateExhaustedMarker(_ context.Context, caseID uuid.UUID, attempt int) (repository.Assignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	a := repository.Assignment{
		ID:            uuid.New(),
		CaseID:        caseID,
		Status:        domain.StatusExhausted,
		AttemptNumber: attempt,
		DecidedAt:     &now,
		CreatedAt:     now,
	}
	f.assignments[a.ID] = &a
	return a, nil
}

func (f *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (repository.Assignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.assignments[id]; ok {
		return *a, nil
	}
	return repository.Assignment{}, repository.ErrNotFound
}

func (f *fakeRepo) GetLiveOffer(_ context.Context, caseID, professionalID uuid.UUID) (repository.Assignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.assignments {
		if a.CaseID == caseID && a.Status == domain.StatusOffered &&
			a.ProfessionalID != nil && *a.ProfessionalID == professionalID {
			return *a, nil
		}
	}
	return repository.Assignment{}, repository.ErrNotFound
}

func (f *fakeRepo) Transition(_ context.Context, id uuid.UUID, to domain.Status, reason *string) (repository.Assignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.assignments[id]
	if !ok || a.Status != domain.StatusOffered {
		return repository.Assignment{}, repository.ErrStaleTransition
	}
	now := time.Now()
	a.Status = to
	a.DecidedAt = &now
	a.RejectionReason = reason
	return *a, nil
}

func (f *fakeRepo) Feed(_ context.Context, professionalID uuid.UUID) ([]repository.FeedItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var items []repository.FeedItem
	for _, a := range f.assignments {
		if a.Status == domain.StatusOffered && a.ProfessionalID != nil && *a.ProfessionalID == professionalID {
			items = append(items, repository.FeedItem{Assignment: *a, Area: "familia", City: "sao paulo"})
		}
	}
	return items, nil
}

func (f *fakeRepo) Stats(_ context.Context, professionalID uuid.UUID) (repository.DecisionStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var s repository.DecisionStats
	for _, a := range f.assignments {
		if a.ProfessionalID == nil || *a.ProfessionalID != professionalID {
			continue
		}
		s.Offered++
		switch a.Status {
		case domain.StatusAccepted:
			s.Accepted++
		case domain.StatusRejected:
			s.Rejected++
		case domain.StatusExpired:
			s.Expired++
		case domain.StatusOffered:
			s.Pending++
		}
	}
	return s, nil
}

func (f *fakeRepo) DueOffers(_ context.Context, now time.Time, limit int) ([]repository.Assignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var due []repository.Assignment
	for _, a := range f.assignments {
		if a.Status == domain.StatusOffered && a.ExpiresAt != nil && !a.ExpiresAt.After(now) {
			due = append(due, *a)
			if len(due) == limit {
				break
			}
		}
	}
	return due, nil
}

func (f *fakeRepo) liveOfferFor(caseID uuid.UUID) *repository.Assignment {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.assignments {
		if a.CaseID == caseID && a.Status == domain.StatusOffered {
			live := *a
			return &live
		}
	}
	return nil
}

type fakeCases struct {
	mu    sync.Mutex
	cases map[uuid.UUID]*caserepo.Case
}

func newFakeCases(cs ...caserepo.Case) *fakeCases {
	f := &fakeCases{cases: make(map[uuid.UUID]*caserepo.Case)}
	for _, c := range cs {
		stored := c
		f.cases[c.ID] = &stored
	}
	return f
}

func (f *fakeCases) GetByID(_ context.Context, id uuid.UUID) (caserepo.Case, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.cases[id]; ok {
		return *c, nil
	}
	return caserepo.Case{}, caserepo.ErrNotFound
}

func (f *fakeCases) SetStatus(_ context.Context, id uuid.UUID, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.cases[id]
	if !ok {
		return caserepo.ErrNotFound
	}
	c.Status = status
	return nil
}

func (f *fakeCases) status(id uuid.UUID) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cases[id].Status
}

type fakeRegistry struct {
	mu     sync.Mutex
	recalc []uuid.UUID
}

func (f *fakeRegistry) RecalculateScore(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recalc = append(f.recalc, id)
	return nil
}

type fakeScheduler struct {
	mu        sync.Mutex
	scheduled []uuid.UUID
}

func (f *fakeScheduler) ScheduleOfferExpiry(_ context.Context, assignmentID uuid.UUID, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scheduled = append(f.scheduled, assignmentID)
	return nil
}

// recordingBus runs handlers synchronously so tests see effects immediately.
type recordingBus struct {
	mu        sync.Mutex
	published []events.Event
}

func (b *recordingBus) Publish(_ context.Context, e events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, e)
}

func (b *recordingBus) PublishSync(ctx context.Context, e events.Event) error {
	b.Publish(ctx, e)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

func (b *recordingBus) names() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []string
	for _, e := range b.published {
		out = append(out, e.EventName())
	}
	return out
}

type testConfig struct {
	window        time.Duration
	maxConcurrent int
	sweep         time.Duration
	maxAttempts   int
}

func (c testConfig) GetOfferWindow() time.Duration   { return c.window }
func (c testConfig) GetMaxConcurrentLeads() int      { return c.maxConcurrent }
func (c testConfig) GetSweepInterval() time.Duration { return c.sweep }
func (c testConfig) GetMaxOfferAttempts() int        { return c.maxAttempts }

// ----- helpers -----

func pro(id byte, score float64, lastActivity time.Time) rotation.Candidate {
	return rotation.Candidate{
		ID:               uuid.UUID{id},
		Name:             "pro",
		Areas:            []string{"familia"},
		Cities:           []string{"sao paulo"},
		Active:           true,
		PerformanceScore: score,
		LastActivityAt:   lastActivity,
	}
}

type fixture struct {
	svc       *Service
	repo      *fakeRepo
	cases     *fakeCases
	registry  *fakeRegistry
	scheduler *fakeScheduler
	bus       *recordingBus
	caseID    uuid.UUID
}

func newFixture(t *testing.T, candidates ...rotation.Candidate) *fixture {
	t.Helper()

	caseID := uuid.New()
	repo := newFakeRepo()
	repo.candidates = candidates
	cases := newFakeCases(caserepo.Case{
		ID:     caseID,
		Area:   "familia",
		City:   "sao paulo",
		Status: caserepo.StatusOpen,
	})
	registry := &fakeRegistry{}
	scheduler := &fakeScheduler{}
	bus := &recordingBus{}

	cfg := testConfig{window: 24 * time.Hour, maxConcurrent: 5, sweep: time.Minute}
	svc := New(repo, cases, registry, scheduler, bus, cfg, logger.New("development"))

	return &fixture{
		svc:       svc,
		repo:      repo,
		cases:     cases,
		registry:  registry,
		scheduler: scheduler,
		bus:       bus,
		caseID:    caseID,
	}
}

// ----- tests -----

func TestOfferNextPicksHighestPriority(t *testing.T) {
	now := time.Now()
	strong := pro(1, 90, now.Add(-10*24*time.Hour))
	weak := pro(2, 40, now.Add(-24*time.Hour))
	fx := newFixture(t, weak, strong)

	if err := fx.svc.OfferNext(context.Background(), fx.caseID); err != nil {
		t.Fatalf("OfferNext() error = %v", err)
	}

	offer := fx.repo.liveOfferFor(fx.caseID)
	if offer == nil {
		t.Fatal("no offer created")
	}
	if *offer.ProfessionalID != strong.ID {
		t.Errorf("offered to %v, want the idle strong performer", *offer.ProfessionalID)
	}
	if offer.AttemptNumber != 1 {
		t.Errorf("attempt = %d, want 1", offer.AttemptNumber)
	}
	if len(fx.scheduler.scheduled) != 1 {
		t.Errorf("expiry tasks scheduled = %d, want 1", len(fx.scheduler.scheduled))
	}
	if got := fx.bus.names(); len(got) != 1 || got[0] != "offer.created" {
		t.Errorf("published events = %v, want [offer.created]", got)
	}
}

func TestOfferNextSkipsWhenLiveOfferExists(t *testing.T) {
	now := time.Now()
	fx := newFixture(t, pro(1, 50, now.Add(-24*time.Hour)), pro(2, 50, now.Add(-48*time.Hour)))

	if err := fx.svc.OfferNext(context.Background(), fx.caseID); err != nil {
		t.Fatalf("first pass: %v", err)
	}
	if err := fx.svc.OfferNext(context.Background(), fx.caseID); err != nil {
		t.Fatalf("second pass: %v", err)
	}

	live := 0
	for _, a := range fx.repo.assignments {
		if a.Status == domain.StatusOffered {
			live++
		}
	}
	if live != 1 {
		t.Errorf("live offers = %d, want exactly 1", live)
	}
}

func TestOfferNextExhaustsWithoutCandidates(t *testing.T) {
	fx := newFixture(t) // nobody registered

	if err := fx.svc.OfferNext(context.Background(), fx.caseID); err != nil {
		t.Fatalf("OfferNext() error = %v", err)
	}

	if got := fx.cases.status(fx.caseID); got != caserepo.StatusExhausted {
		t.Errorf("case status = %q, want exhausted", got)
	}
	if got := fx.bus.names(); len(got) != 1 || got[0] != "case.exhausted" {
		t.Errorf("published events = %v, want [case.exhausted]", got)
	}
}

func TestRejectReoffersToNextProfessional(t *testing.T) {
	now := time.Now()
	first := pro(1, 50, now.Add(-48*time.Hour))
	second := pro(2, 50, now.Add(-24*time.Hour))
	fx := newFixture(t, first, second)

	if err := fx.svc.OfferNext(context.Background(), fx.caseID); err != nil {
		t.Fatal(err)
	}

	resp, err := fx.svc.Act(context.Background(), first.ID, transport.ActionRequest{
		CaseID: fx.caseID,
		Action: "rejeitar",
		Reason: "conflito de interesse",
	})
	if err != nil {
		t.Fatalf("Act() error = %v", err)
	}
	if resp.Status != string(domain.StatusRejected) {
		t.Errorf("status = %q, want rejected", resp.Status)
	}

	offer := fx.repo.liveOfferFor(fx.caseID)
	if offer == nil {
		t.Fatal("no re-offer after rejection")
	}
	if *offer.ProfessionalID != second.ID {
		t.Errorf("re-offered to %v, want the second professional", *offer.ProfessionalID)
	}
	if offer.AttemptNumber != 2 {
		t.Errorf("attempt = %d, want 2", offer.AttemptNumber)
	}
	if len(fx.registry.recalc) != 1 || fx.registry.recalc[0] != first.ID {
		t.Errorf("score recalculated for %v, want [%v]", fx.registry.recalc, first.ID)
	}
}

func TestRejectAllExhaustsCase(t *testing.T) {
	now := time.Now()
	only := pro(1, 50, now.Add(-24*time.Hour))
	fx := newFixture(t, only)

	if err := fx.svc.OfferNext(context.Background(), fx.caseID); err != nil {
		t.Fatal(err)
	}
	if _, err := fx.svc.Act(context.Background(), only.ID, transport.ActionRequest{
		CaseID: fx.caseID,
		Action: "rejeitar",
	}); err != nil {
		t.Fatalf("Act() error = %v", err)
	}

	if got := fx.cases.status(fx.caseID); got != caserepo.StatusExhausted {
		t.Errorf("case status = %q, want exhausted after sole professional rejected", got)
	}
}

func TestAcceptClosesCase(t *testing.T) {
	now := time.Now()
	only := pro(1, 50, now.Add(-24*time.Hour))
	fx := newFixture(t, only)

	if err := fx.svc.OfferNext(context.Background(), fx.caseID); err != nil {
		t.Fatal(err)
	}
	resp, err := fx.svc.Act(context.Background(), only.ID, transport.ActionRequest{
		CaseID: fx.caseID,
		Action: "aceitar",
	})
	if err != nil {
		t.Fatalf("Act() error = %v", err)
	}
	if resp.Status != string(domain.StatusAccepted) {
		t.Errorf("status = %q, want accepted", resp.Status)
	}
	if got := fx.cases.status(fx.caseID); got != caserepo.StatusAccepted {
		t.Errorf("case status = %q, want accepted", got)
	}
}

func TestActEnglishAliases(t *testing.T) {
	now := time.Now()
	only := pro(1, 50, now.Add(-24*time.Hour))
	fx := newFixture(t, only)

	if err := fx.svc.OfferNext(context.Background(), fx.caseID); err != nil {
		t.Fatal(err)
	}
	resp, err := fx.svc.Act(context.Background(), only.ID, transport.ActionRequest{
		CaseID: fx.caseID,
		Action: "accept",
	})
	if err != nil {
		t.Fatalf("Act(accept) error = %v", err)
	}
	if resp.Status != string(domain.StatusAccepted) {
		t.Errorf("status = %q, want accepted", resp.Status)
	}
}

func TestActUnknownVerb(t *testing.T) {
	fx := newFixture(t)
	_, err := fx.svc.Act(context.Background(), uuid.New(), transport.ActionRequest{
		CaseID: fx.caseID,
		Action: "talvez",
	})
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("err = %v, want validation error", err)
	}
}

func TestActWithoutLiveOfferIsGone(t *testing.T) {
	fx := newFixture(t)
	_, err := fx.svc.Act(context.Background(), uuid.New(), transport.ActionRequest{
		CaseID: fx.caseID,
		Action: "aceitar",
	})
	if !apperr.IsKind(err, apperr.KindGone) {
		t.Errorf("err = %v, want gone", err)
	}
}

// A decision racing the expiry sweep: whoever transitions first wins, the
// loser sees gone.
func TestActLosesRaceAgainstExpiry(t *testing.T) {
	now := time.Now()
	only := pro(1, 50, now.Add(-24*time.Hour))
	fx := newFixture(t, only)

	if err := fx.svc.OfferNext(context.Background(), fx.caseID); err != nil {
		t.Fatal(err)
	}
	offer := fx.repo.liveOfferFor(fx.caseID)

	// Sweep expires the offer first.
	if err := fx.svc.ExpireOffer(context.Background(), offer.ID); err != nil {
		t.Fatalf("ExpireOffer() error = %v", err)
	}

	_, err := fx.svc.Act(context.Background(), only.ID, transport.ActionRequest{
		CaseID: fx.caseID,
		Action: "aceitar",
	})
	if !apperr.IsKind(err, apperr.KindGone) {
		t.Errorf("late accept err = %v, want gone", err)
	}

	stored, err := fx.repo.GetByID(context.Background(), offer.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Status != domain.StatusExpired {
		t.Errorf("assignment status = %s, the expiry decision must stand", stored.Status)
	}
}

func TestExpireOfferIsIdempotent(t *testing.T) {
	now := time.Now()
	only := pro(1, 50, now.Add(-24*time.Hour))
	fx := newFixture(t, only)

	if err := fx.svc.OfferNext(context.Background(), fx.caseID); err != nil {
		t.Fatal(err)
	}
	offer := fx.repo.liveOfferFor(fx.caseID)

	if err := fx.svc.ExpireOffer(context.Background(), offer.ID); err != nil {
		t.Fatalf("first expire: %v", err)
	}
	if err := fx.svc.ExpireOffer(context.Background(), offer.ID); err != nil {
		t.Fatalf("second expire must be a no-op, got %v", err)
	}
}

func TestExpiryReoffersSkippingPreviousHolder(t *testing.T) {
	now := time.Now()
	first := pro(1, 50, now.Add(-48*time.Hour))
	second := pro(2, 50, now.Add(-24*time.Hour))
	fx := newFixture(t, first, second)

	if err := fx.svc.OfferNext(context.Background(), fx.caseID); err != nil {
		t.Fatal(err)
	}
	offer := fx.repo.liveOfferFor(fx.caseID)
	if *offer.ProfessionalID != first.ID {
		t.Fatalf("first offer went to %v, want %v", *offer.ProfessionalID, first.ID)
	}

	if err := fx.svc.ExpireOffer(context.Background(), offer.ID); err != nil {
		t.Fatal(err)
	}

	next := fx.repo.liveOfferFor(fx.caseID)
	if next == nil {
		t.Fatal("no re-offer after expiry")
	}
	if *next.ProfessionalID != second.ID {
		t.Errorf("re-offered to %v, the previous holder must be skipped", *next.ProfessionalID)
	}
}

func TestExpireDueSweep(t *testing.T) {
	now := time.Now()
	fx := newFixture(t, pro(1, 50, now.Add(-24*time.Hour)))

	if err := fx.svc.OfferNext(context.Background(), fx.caseID); err != nil {
		t.Fatal(err)
	}

	// Nothing due yet.
	n, err := fx.svc.ExpireDue(context.Background())
	if err != nil {
		t.Fatalf("ExpireDue() error = %v", err)
	}
	if n != 0 {
		t.Errorf("expired %d offers, want 0 before the window closes", n)
	}

	// Force the window closed.
	offer := fx.repo.liveOfferFor(fx.caseID)
	past := now.Add(-time.Minute)
	fx.repo.mu.Lock()
	fx.repo.assignments[offer.ID].ExpiresAt = &past
	fx.repo.mu.Unlock()

	n, err = fx.svc.ExpireDue(context.Background())
	if err != nil {
		t.Fatalf("ExpireDue() error = %v", err)
	}
	if n != 1 {
		t.Errorf("expired %d offers, want 1", n)
	}

	stored, _ := fx.repo.GetByID(context.Background(), offer.ID)
	if stored.Status != domain.StatusExpired {
		t.Errorf("assignment status = %s, want expired", stored.Status)
	}
}

func TestMaxOfferAttemptsBoundsRotation(t *testing.T) {
	now := time.Now()
	candidates := []rotation.Candidate{
		pro(1, 50, now.Add(-72*time.Hour)),
		pro(2, 50, now.Add(-48*time.Hour)),
		pro(3, 50, now.Add(-24*time.Hour)),
	}
	fx := newFixture(t, candidates...)
	fx.svc.cfg = testConfig{window: 24 * time.Hour, maxConcurrent: 5, sweep: time.Minute, maxAttempts: 2}

	for i, c := range candidates[:2] {
		if err := fx.svc.OfferNext(context.Background(), fx.caseID); err != nil {
			t.Fatalf("pass %d: %v", i+1, err)
		}
		if _, err := fx.svc.Act(context.Background(), c.ID, transport.ActionRequest{
			CaseID: fx.caseID,
			Action: "rejeitar",
		}); err != nil {
			t.Fatalf("reject %d: %v", i+1, err)
		}
	}

	if got := fx.cases.status(fx.caseID); got != caserepo.StatusExhausted {
		t.Errorf("case status = %q, want exhausted after the attempt cap", got)
	}
}

func TestStatsSuccessScore(t *testing.T) {
	fx := newFixture(t)
	proID := uuid.New()
	caseA, caseB, caseC := uuid.New(), uuid.New(), uuid.New()

	for _, c := range []struct {
		caseID uuid.UUID
		status domain.Status
	}{
		{caseA, domain.StatusAccepted},
		{caseB, domain.StatusRejected},
		{caseC, domain.StatusAccepted},
	} {
		a, err := fx.repo.CreateOffer(context.Background(), c.caseID, proID, 1, time.Now().Add(time.Hour))
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fx.repo.Transition(context.Background(), a.ID, c.status, nil); err != nil {
			t.Fatal(err)
		}
	}

	stats, err := fx.svc.Stats(context.Background(), proID)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.Received != 3 || stats.Accepted != 2 || stats.Rejected != 1 {
		t.Errorf("stats = %+v, want 3 received, 2 accepted, 1 rejected", stats)
	}
	want := 2.0 / 3.0 * 100
	if stats.SuccessScore != want {
		t.Errorf("success score = %v, want %v", stats.SuccessScore, want)
	}
}

func TestStatsDefaultScoreWithoutDecisions(t *testing.T) {
	fx := newFixture(t)
	stats, err := fx.svc.Stats(context.Background(), uuid.New())
	if err != nil {
		t.Fatal(err)
	}
	if stats.SuccessScore != 50 {
		t.Errorf("success score = %v, want the neutral default 50", stats.SuccessScore)
	}
}

func TestOfferNextUnknownCase(t *testing.T) {
	fx := newFixture(t)
	err := fx.svc.OfferNext(context.Background(), uuid.New())
	if !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("err = %v, want not found", err)
	}
}

func TestCreateOfferConflictIsSilent(t *testing.T) {
	now := time.Now()
	fx := newFixture(t, pro(1, 50, now.Add(-24*time.Hour)))

	// Simulate a racing pass that already placed an offer.
	if _, err := fx.repo.CreateOffer(context.Background(), fx.caseID, uuid.New(), 1, now.Add(time.Hour)); err != nil {
		t.Fatal(err)
	}
	if err := fx.svc.OfferNext(context.Background(), fx.caseID); err != nil {
		t.Errorf("losing the offer race must not error, got %v", err)
	}
}

func TestFeedListsLiveOffers(t *testing.T) {
	now := time.Now()
	only := pro(1, 50, now.Add(-24*time.Hour))
	fx := newFixture(t, only)

	if err := fx.svc.OfferNext(context.Background(), fx.caseID); err != nil {
		t.Fatal(err)
	}

	feed, err := fx.svc.Feed(context.Background(), only.ID, FeedFilter{})
	if err != nil {
		t.Fatalf("Feed() error = %v", err)
	}
	if feed.Total != 1 || len(feed.Leads) != 1 {
		t.Fatalf("feed total = %d, want 1", feed.Total)
	}
	if feed.Leads[0].CaseID != fx.caseID {
		t.Errorf("feed case = %v, want %v", feed.Leads[0].CaseID, fx.caseID)
	}

	// Other professionals see nothing.
	other, err := fx.svc.Feed(context.Background(), uuid.New(), FeedFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if other.Total != 0 {
		t.Errorf("foreign feed total = %d, want 0", other.Total)
	}
}

func TestFeedFilters(t *testing.T) {
	now := time.Now()
	only := pro(1, 50, now.Add(-24*time.Hour))
	fx := newFixture(t, only)

	if err := fx.svc.OfferNext(context.Background(), fx.caseID); err != nil {
		t.Fatal(err)
	}

	// The fake repo reports every offer as familia / sao paulo.
	match, err := fx.svc.Feed(context.Background(), only.ID, FeedFilter{Area: "FAMILIA"})
	if err != nil {
		t.Fatal(err)
	}
	if match.Total != 1 {
		t.Errorf("matching area filter total = %d, want 1", match.Total)
	}

	miss, err := fx.svc.Feed(context.Background(), only.ID, FeedFilter{Area: "bancario"})
	if err != nil {
		t.Fatal(err)
	}
	if miss.Total != 0 {
		t.Errorf("non-matching area filter total = %d, want 0", miss.Total)
	}
}

var errBoom = errors.New("boom")

type failingScheduler struct{}

func (failingScheduler) ScheduleOfferExpiry(context.Context, uuid.UUID, time.Time) error {
	return errBoom
}

func TestSchedulerFailureDoesNotBlockOffer(t *testing.T) {
	now := time.Now()
	only := pro(1, 50, now.Add(-24*time.Hour))
	fx := newFixture(t, only)
	fx.svc.scheduler = failingScheduler{}

	if err := fx.svc.OfferNext(context.Background(), fx.caseID); err != nil {
		t.Fatalf("OfferNext() error = %v, scheduling failures must degrade to the sweep", err)
	}
	if fx.repo.liveOfferFor(fx.caseID) == nil {
		t.Error("offer must exist despite the scheduling failure")
	}
}
