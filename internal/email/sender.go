// Package email sends transactional mail over SMTP.
package email

import (
	"context"
	"fmt"

	"leadmarket_backend/platform/config"

	"github.com/wneessen/go-mail"
)

// Sender delivers plain text mail through the configured SMTP relay.
type Sender struct {
	cfg config.EmailConfig
}

// NewSender creates an SMTP sender.
func NewSender(cfg config.EmailConfig) *Sender {
	return &Sender{cfg: cfg}
}

// Enabled reports whether mail delivery is configured.
func (s *Sender) Enabled() bool {
	return s.cfg.GetEmailEnabled()
}

// Send delivers one message. A fresh connection per message keeps the sender
// stateless; volume here is one mail per offer event.
func (s *Sender) Send(ctx context.Context, to, subject, body string) error {
	if !s.Enabled() {
		return nil
	}

	msg := mail.NewMsg()
	if err := msg.FromFormat(s.cfg.GetEmailFromName(), s.cfg.GetEmailFromAddress()); err != nil {
		return fmt.Errorf("set from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("set recipient: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	opts := []mail.Option{
		mail.WithPort(s.cfg.GetSMTPPort()),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if s.cfg.GetSMTPUsername() != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.GetSMTPUsername()),
			mail.WithPassword(s.cfg.GetSMTPPassword()),
		)
	}

	client, err := mail.NewClient(s.cfg.GetSMTPHost(), opts...)
	if err != nil {
		return fmt.Errorf("create smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}
