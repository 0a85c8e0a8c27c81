// Package mailer delivers transactional email through Resend, or through SMTP
// when no Resend API key is configured.
package mailer

import (
	"context"
	"log/slog"

	"github.com/early-access-api/internal/config"
)

// Message is one outbound email. HTML is optional; Text is always sent.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Mailer sends emails.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// New picks the provider from configuration.
func New(cfg *config.Config) Mailer {
	if cfg.ResendAPIKey != "" {
		return NewResend(cfg.ResendAPIKey, cfg.MailFrom)
	}
	slog.Warn("RESEND_API_KEY not set, sending mail over SMTP", "host", cfg.SMTPHost, "port", cfg.SMTPPort)
	return NewSMTP(cfg)
}
