// Package service implements the marketplace offer loop: pick the next
// professional for an open case, hand out an exclusive time-boxed offer and
// react to the decision. Re-offers after rejection and expiry run through the
// same pass, so every attempt obeys the same eligibility and rotation rules.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	caserepo "leadmarket_backend/internal/cases/repository"
	"leadmarket_backend/internal/events"
	"leadmarket_backend/internal/marketplace/domain"
	"leadmarket_backend/internal/marketplace/repository"
	"leadmarket_backend/internal/marketplace/rotation"
	"leadmarket_backend/internal/marketplace/transport"
	"leadmarket_backend/platform/apperr"
	"leadmarket_backend/platform/config"
	"leadmarket_backend/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const msgLeadUnavailable = "this lead is no longer available"

// Repository is the consumer-driven persistence interface of the marketplace.
type Repository interface {
	CandidateSnapshot(ctx context.Context, area, city string) ([]rotation.Candidate, error)
	History(ctx context.Context, caseID uuid.UUID) (repository.CaseHistory, error)
	CreateOffer(ctx context.Context, caseID, professionalID uuid.UUID, attempt int, expiresAt time.Time) (repository.Assignment, error)
	CreateExhaustedMarker(ctx context.Context, caseID uuid.UUID, attempt int) (repository.Assignment, error)
	GetByID(ctx context.Context, id uuid.UUID) (repository.Assignment, error)
	GetLiveOffer(ctx context.Context, caseID, professionalID uuid.UUID) (repository.Assignment, error)
	Transition(ctx context.Context, id uuid.UUID, to domain.Status, reason *string) (repository.Assignment, error)
	Feed(ctx context.Context, professionalID uuid.UUID) ([]repository.FeedItem, error)
	Stats(ctx context.Context, professionalID uuid.UUID) (repository.DecisionStats, error)
	DueOffers(ctx context.Context, now time.Time, limit int) ([]repository.Assignment, error)
}

// CaseStore is the slice of the cases module the marketplace needs.
type CaseStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (caserepo.Case, error)
	SetStatus(ctx context.Context, id uuid.UUID, status string) error
}

// Registry is the slice of the professional registry the marketplace needs.
type Registry interface {
	RecalculateScore(ctx context.Context, id uuid.UUID) error
}

// ExpiryScheduler enqueues the per-offer expiry task. The periodic sweep
// catches anything the scheduler misses, so scheduling failures degrade to
// slightly later expiry instead of an error.
type ExpiryScheduler interface {
	ScheduleOfferExpiry(ctx context.Context, assignmentID uuid.UUID, at time.Time) error
}

// Service runs the marketplace.
type Service struct {
	repo      Repository
	cases     CaseStore
	registry  Registry
	scheduler ExpiryScheduler
	bus       events.Bus
	cfg       config.AssignmentConfig
	log       *logger.Logger
	now       func() time.Time
}

// New creates a marketplace service. scheduler may be nil when no task queue
// is configured; the sweep then handles all expiries.
func New(repo Repository, cases CaseStore, registry Registry, scheduler ExpiryScheduler, bus events.Bus, cfg config.AssignmentConfig, log *logger.Logger) *Service {
	return &Service{
		repo:      repo,
		cases:     cases,
		registry:  registry,
		scheduler: scheduler,
		bus:       bus,
		cfg:       cfg,
		log:       log,
		now:       time.Now,
	}
}

// OfferNext runs one offer pass for a case: skip if the case is closed or
// already carries a live offer, otherwise pick the next professional and
// create the offer. When no eligible professional remains the case is marked
// exhausted for manual handling.
func (s *Service) OfferNext(ctx context.Context, caseID uuid.UUID) error {
	c, err := s.cases.GetByID(ctx, caseID)
	if err != nil {
		if errors.Is(err, caserepo.ErrNotFound) {
			return apperr.NotFound("case not found")
		}
		return fmt.Errorf("load case: %w", err)
	}
	if c.Status != caserepo.StatusOpen {
		return nil
	}

	history, err := s.repo.History(ctx, caseID)
	if err != nil {
		return fmt.Errorf("load case history: %w", err)
	}
	if history.HasLiveOffer {
		return nil
	}

	attempt := history.Attempts + 1
	if max := s.cfg.GetMaxOfferAttempts(); max > 0 && attempt > max {
		return s.exhaust(ctx, c, history.Attempts)
	}

	snapshot, err := s.repo.CandidateSnapshot(ctx, c.Area, c.City)
	if err != nil {
		return fmt.Errorf("load candidate snapshot: %w", err)
	}

	eligible := rotation.EligibleSet(snapshot, rotation.Filter{
		Area:               c.Area,
		City:               c.City,
		MaxConcurrentLeads: s.cfg.GetMaxConcurrentLeads(),
		Excluded:           history.OfferedProfessionals,
	})

	chosen, ok := rotation.Select(eligible, s.now())
	if !ok {
		return s.exhaust(ctx, c, history.Attempts)
	}

	expiresAt := s.now().Add(s.cfg.GetOfferWindow())
	offer, err := s.repo.CreateOffer(ctx, caseID, chosen.ID, attempt, expiresAt)
	if err != nil {
		if errors.Is(err, repository.ErrOfferExists) {
			// A concurrent pass won the race; its offer stands.
			return nil
		}
		return fmt.Errorf("create offer: %w", err)
	}

	s.log.OfferEvent("offer_created", caseID.String(), chosen.ID.String(), attempt)

	if s.scheduler != nil {
		if err := s.scheduler.ScheduleOfferExpiry(ctx, offer.ID, expiresAt); err != nil {
			s.log.Warn("failed to schedule offer expiry, sweep will handle it",
				"assignment_id", offer.ID.String(), "error", err.Error())
		}
	}

	s.bus.Publish(ctx, events.OfferCreated{
		BaseEvent:        events.NewBaseEvent(),
		AssignmentID:     offer.ID,
		CaseID:           caseID,
		ProfessionalID:   chosen.ID,
		Area:             c.Area,
		City:             c.City,
		ProbabilityTier:  c.ProbabilityTier,
		EstimatedValue:   c.EstimatedValue,
		AttemptNumber:    attempt,
		ExpiresAt:        expiresAt,
		ProfessionalName: chosen.Name,
		Email:            chosen.Email,
		Phone:            chosen.Phone,
	})
	return nil
}

func (s *Service) exhaust(ctx context.Context, c caserepo.Case, attempts int) error {
	if _, err := s.repo.CreateExhaustedMarker(ctx, c.ID, attempts+1); err != nil {
		if errors.Is(err, repository.ErrOfferExists) {
			return nil
		}
		return fmt.Errorf("create exhausted marker: %w", err)
	}
	if err := s.cases.SetStatus(ctx, c.ID, caserepo.StatusExhausted); err != nil {
		return fmt.Errorf("mark case exhausted: %w", err)
	}

	s.log.OfferEvent("case_exhausted", c.ID.String(), "", attempts)
	s.bus.Publish(ctx, events.CaseExhausted{
		BaseEvent: events.NewBaseEvent(),
		CaseID:    c.ID,
		Area:      c.Area,
		City:      c.City,
		Attempts:  attempts,
	})
	return nil
}

// FeedFilter narrows the lead feed. Empty fields match everything.
type FeedFilter struct {
	Area string
	Tier string
}

func (f FeedFilter) matches(item repository.FeedItem) bool {
	if f.Area != "" && !strings.EqualFold(f.Area, item.Area) {
		return false
	}
	if f.Tier != "" && !strings.EqualFold(f.Tier, item.Tier) {
		return false
	}
	return true
}

// Feed returns the live offers of one professional, optionally filtered by
// area and probability tier.
func (s *Service) Feed(ctx context.Context, professionalID uuid.UUID, filter FeedFilter) (transport.FeedResponse, error) {
	items, err := s.repo.Feed(ctx, professionalID)
	if err != nil {
		return transport.FeedResponse{}, apperr.Wrap(apperr.KindInternal, "failed to load lead feed", err)
	}

	leads := make([]transport.LeadOffer, 0, len(items))
	for _, item := range items {
		if !filter.matches(item) {
			continue
		}
		lead := transport.LeadOffer{
			AssignmentID:    item.Assignment.ID,
			CaseID:          item.Assignment.CaseID,
			Area:            item.Area,
			City:            item.City,
			Description:     item.Summary,
			ProbabilityTier: item.Tier,
			EstimatedValue:  item.Value,
			AttemptNumber:   item.Assignment.AttemptNumber,
		}
		if item.Assignment.OfferedAt != nil {
			lead.OfferedAt = *item.Assignment.OfferedAt
		}
		if item.Assignment.ExpiresAt != nil {
			lead.ExpiresAt = *item.Assignment.ExpiresAt
		}
		leads = append(leads, lead)
	}
	return transport.FeedResponse{Leads: leads, Total: len(leads)}, nil
}

// Act applies a professional's decision to their live offer on a case.
// Accepting closes the case; rejecting immediately re-offers it to the next
// professional in the rotation.
func (s *Service) Act(ctx context.Context, professionalID uuid.UUID, req transport.ActionRequest) (transport.ActionResponse, error) {
	target, err := parseAction(req.Action)
	if err != nil {
		return transport.ActionResponse{}, err
	}

	offer, err := s.repo.GetLiveOffer(ctx, req.CaseID, professionalID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.ActionResponse{}, apperr.Gone(msgLeadUnavailable)
		}
		return transport.ActionResponse{}, apperr.Wrap(apperr.KindInternal, "failed to load offer", err)
	}

	var reason *string
	if target == domain.StatusRejected && strings.TrimSpace(req.Reason) != "" {
		r := strings.TrimSpace(req.Reason)
		reason = &r
	}

	decided, err := s.repo.Transition(ctx, offer.ID, target, reason)
	if err != nil {
		if errors.Is(err, repository.ErrStaleTransition) {
			return transport.ActionResponse{}, apperr.Gone(msgLeadUnavailable)
		}
		return transport.ActionResponse{}, apperr.Wrap(apperr.KindInternal, "failed to record decision", err)
	}

	s.log.OfferEvent("offer_"+string(target), decided.CaseID.String(), professionalID.String(), decided.AttemptNumber)
	s.afterDecision(ctx, decided, professionalID, string(target), reason)

	if target == domain.StatusAccepted {
		if err := s.cases.SetStatus(ctx, decided.CaseID, caserepo.StatusAccepted); err != nil {
			return transport.ActionResponse{}, fmt.Errorf("close accepted case: %w", err)
		}
	} else {
		if err := s.OfferNext(ctx, decided.CaseID); err != nil {
			s.log.Error("re-offer after rejection failed",
				"case_id", decided.CaseID.String(), "error", err.Error())
		}
	}

	return transport.ActionResponse{
		AssignmentID: decided.ID,
		CaseID:       decided.CaseID,
		Status:       string(decided.Status),
	}, nil
}

// ExpireOffer moves one offered assignment to expired and re-offers the case.
// A stale transition means somebody decided first; that is not an error.
func (s *Service) ExpireOffer(ctx context.Context, assignmentID uuid.UUID) error {
	decided, err := s.repo.Transition(ctx, assignmentID, domain.StatusExpired, nil)
	if err != nil {
		if errors.Is(err, repository.ErrStaleTransition) {
			return nil
		}
		return fmt.Errorf("expire assignment: %w", err)
	}

	if decided.ProfessionalID != nil {
		s.log.OfferEvent("offer_expired", decided.CaseID.String(), decided.ProfessionalID.String(), decided.AttemptNumber)
		s.afterDecision(ctx, decided, *decided.ProfessionalID, string(domain.StatusExpired), nil)
	}

	if err := s.OfferNext(ctx, decided.CaseID); err != nil {
		return fmt.Errorf("re-offer after expiry: %w", err)
	}
	return nil
}

// ExpireDue expires every offer whose window has closed. This is the safety
// sweep behind the per-offer scheduled tasks; it is idempotent and bounded.
func (s *Service) ExpireDue(ctx context.Context) (int, error) {
	due, err := s.repo.DueOffers(ctx, s.now(), 200)
	if err != nil {
		return 0, fmt.Errorf("list due offers: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, offer := range due {
		g.Go(func() error {
			return s.ExpireOffer(ctx, offer.ID)
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return len(due), nil
}

// Stats returns the decision counters and success score of one professional.
func (s *Service) Stats(ctx context.Context, professionalID uuid.UUID) (transport.StatsResponse, error) {
	stats, err := s.repo.Stats(ctx, professionalID)
	if err != nil {
		return transport.StatsResponse{}, apperr.Wrap(apperr.KindInternal, "failed to load stats", err)
	}

	resp := transport.StatsResponse{
		Received: stats.Offered,
		Accepted: stats.Accepted,
		Rejected: stats.Rejected,
		Expired:  stats.Expired,
		Pending:  stats.Pending,
	}
	if decided := stats.Accepted + stats.Rejected + stats.Expired; decided > 0 {
		resp.SuccessScore = float64(stats.Accepted) / float64(decided) * 100
	} else {
		resp.SuccessScore = 50
	}
	return resp, nil
}

// afterDecision updates the professional's score and announces the outcome.
// Score recalculation is best effort; the decision itself already committed.
func (s *Service) afterDecision(ctx context.Context, a repository.Assignment, professionalID uuid.UUID, outcome string, reason *string) {
	if err := s.registry.RecalculateScore(ctx, professionalID); err != nil {
		s.log.DatabaseError("recalculate_score", err)
	}

	s.bus.Publish(ctx, events.OfferDecided{
		BaseEvent:      events.NewBaseEvent(),
		AssignmentID:   a.ID,
		CaseID:         a.CaseID,
		ProfessionalID: professionalID,
		Outcome:        outcome,
		Reason:         reason,
	})
}

// parseAction maps the wire verb to a decision status. Portuguese verbs are
// canonical; English aliases are accepted for API clients.
func parseAction(action string) (domain.Status, error) {
	switch strings.ToLower(strings.TrimSpace(action)) {
	case "aceitar", "accept":
		return domain.StatusAccepted, nil
	case "rejeitar", "reject":
		return domain.StatusRejected, nil
	default:
		return "", apperr.Validation("acao must be aceitar or rejeitar")
	}
}
