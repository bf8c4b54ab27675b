// Package notification turns marketplace events into professional-facing
// messages. Delivery is best effort: a failed notification never blocks or
// rolls back the assignment it announces, the offer stays visible in the
// lead feed either way.
package notification

import (
	"context"
	"fmt"

	"leadmarket_backend/internal/events"
	"leadmarket_backend/platform/logger"
)

// EmailSender delivers plain text mail.
type EmailSender interface {
	Enabled() bool
	Send(ctx context.Context, to, subject, body string) error
}

// TextSender delivers short text messages.
type TextSender interface {
	Enabled() bool
	SendText(ctx context.Context, phone, message string) error
}

// Notifier subscribes to marketplace events and fans out messages.
type Notifier struct {
	email EmailSender
	text  TextSender
	log   *logger.Logger
}

// New creates a notifier and subscribes it to the bus.
func New(bus events.Bus, email EmailSender, text TextSender, log *logger.Logger) *Notifier {
	n := &Notifier{email: email, text: text, log: log}
	bus.Subscribe("offer.created", events.HandlerFunc(n.onOfferCreated))
	bus.Subscribe("offer.decided", events.HandlerFunc(n.onOfferDecided))
	bus.Subscribe("case.exhausted", events.HandlerFunc(n.onCaseExhausted))
	return n
}

func (n *Notifier) onOfferCreated(ctx context.Context, e events.Event) error {
	offer, ok := e.(events.OfferCreated)
	if !ok {
		return nil
	}

	subject := fmt.Sprintf("Novo lead disponivel: %s em %s", offer.Area, offer.City)
	body := fmt.Sprintf(
		"Ola %s,\n\n"+
			"Um novo lead foi reservado para voce.\n\n"+
			"Area: %s\nCidade: %s\nValor estimado: R$ %.2f\n\n"+
			"Voce tem ate %s para aceitar ou rejeitar no painel. "+
			"Apos esse prazo o lead segue para o proximo profissional do rodizio.\n",
		offer.ProfessionalName, offer.Area, offer.City, offer.EstimatedValue,
		offer.ExpiresAt.Format("02/01/2006 15:04"),
	)

	if offer.Email != nil && n.email.Enabled() {
		if err := n.email.Send(ctx, *offer.Email, subject, body); err != nil {
			n.log.Error("offer email failed",
				"assignment_id", offer.AssignmentID.String(), "error", err.Error())
		}
	}
	if offer.Phone != nil && n.text.Enabled() {
		msg := fmt.Sprintf("Novo lead: %s em %s (R$ %.2f). Responda no painel ate %s.",
			offer.Area, offer.City, offer.EstimatedValue, offer.ExpiresAt.Format("02/01 15:04"))
		if err := n.text.SendText(ctx, *offer.Phone, msg); err != nil {
			n.log.Error("offer whatsapp failed",
				"assignment_id", offer.AssignmentID.String(), "error", err.Error())
		}
	}
	return nil
}

func (n *Notifier) onOfferDecided(_ context.Context, e events.Event) error {
	decided, ok := e.(events.OfferDecided)
	if !ok {
		return nil
	}
	n.log.Info("offer decided",
		"assignment_id", decided.AssignmentID.String(),
		"case_id", decided.CaseID.String(),
		"outcome", decided.Outcome,
	)
	return nil
}

func (n *Notifier) onCaseExhausted(_ context.Context, e events.Event) error {
	exhausted, ok := e.(events.CaseExhausted)
	if !ok {
		return nil
	}
	// No professional to notify here; operators watch this log line.
	n.log.Warn("case exhausted, manual handling required",
		"case_id", exhausted.CaseID.String(),
		"area", exhausted.Area,
		"city", exhausted.City,
		"attempts", exhausted.Attempts,
	)
	return nil
}
