package notification

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"leadmarket_backend/internal/events"
	"leadmarket_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeEmail struct {
	enabled bool
	sent    []string
	err     error
}

func (f *fakeEmail) Enabled() bool { return f.enabled }
func (f *fakeEmail) Send(_ context.Context, to, subject, _ string) error {
	f.sent = append(f.sent, to+": "+subject)
	return f.err
}

type fakeText struct {
	enabled bool
	sent    []string
}

func (f *fakeText) Enabled() bool { return f.enabled }
func (f *fakeText) SendText(_ context.Context, phone, message string) error {
	f.sent = append(f.sent, phone+": "+message)
	return nil
}

func offerEvent() events.OfferCreated {
	email := "adv@example.com"
	phone := "+5511999990000"
	return events.OfferCreated{
		BaseEvent:        events.NewBaseEvent(),
		AssignmentID:     uuid.New(),
		CaseID:           uuid.New(),
		ProfessionalID:   uuid.New(),
		Area:             "familia",
		City:             "sao paulo",
		EstimatedValue:   3000,
		AttemptNumber:    1,
		ExpiresAt:        time.Now().Add(24 * time.Hour),
		ProfessionalName: "Dra. Silva",
		Email:            &email,
		Phone:            &phone,
	}
}

func TestOfferCreatedFansOut(t *testing.T) {
	email := &fakeEmail{enabled: true}
	text := &fakeText{enabled: true}
	n := New(events.NewInMemoryBus(logger.New("development")), email, text, logger.New("development"))

	if err := n.onOfferCreated(context.Background(), offerEvent()); err != nil {
		t.Fatalf("onOfferCreated() error = %v", err)
	}

	if len(email.sent) != 1 {
		t.Fatalf("emails sent = %d, want 1", len(email.sent))
	}
	if !strings.Contains(email.sent[0], "familia") {
		t.Errorf("email subject missing area: %q", email.sent[0])
	}
	if len(text.sent) != 1 {
		t.Fatalf("texts sent = %d, want 1", len(text.sent))
	}
	if !strings.Contains(text.sent[0], "+5511999990000") {
		t.Errorf("text sent to wrong phone: %q", text.sent[0])
	}
}

func TestOfferCreatedSkipsDisabledChannels(t *testing.T) {
	email := &fakeEmail{enabled: false}
	text := &fakeText{enabled: false}
	n := New(events.NewInMemoryBus(logger.New("development")), email, text, logger.New("development"))

	if err := n.onOfferCreated(context.Background(), offerEvent()); err != nil {
		t.Fatal(err)
	}
	if len(email.sent) != 0 || len(text.sent) != 0 {
		t.Error("disabled channels must not send")
	}
}

func TestOfferCreatedDeliveryFailureIsSwallowed(t *testing.T) {
	email := &fakeEmail{enabled: true, err: errors.New("smtp down")}
	text := &fakeText{enabled: true}
	n := New(events.NewInMemoryBus(logger.New("development")), email, text, logger.New("development"))

	if err := n.onOfferCreated(context.Background(), offerEvent()); err != nil {
		t.Errorf("delivery failure must not propagate, got %v", err)
	}
	// The second channel still gets its message.
	if len(text.sent) != 1 {
		t.Errorf("texts sent = %d, want 1 despite email failure", len(text.sent))
	}
}
