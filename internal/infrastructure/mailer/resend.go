package mailer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"
)

// emailSender is the slice of the Resend client used here.
type emailSender interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

type resendMailer struct {
	emails emailSender
	from   string
}

// NewResend returns a Mailer backed by the Resend HTTP API (bearer API key auth).
func NewResend(apiKey, from string) Mailer {
	return &resendMailer{emails: resend.NewClient(apiKey).Emails, from: from}
}

func (m *resendMailer) Send(ctx context.Context, msg Message) error {
	resp, err := m.emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
	})
	if err != nil {
		return fmt.Errorf("resend send: %w", err)
	}
	slog.Info("email sent", "provider", "resend", "id", resp.Id)
	return nil
}
