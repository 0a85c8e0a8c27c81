package otp

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"

	"github.com/early-access-api/internal/domain"
	"github.com/early-access-api/internal/infrastructure/mailer"
	"github.com/early-access-api/internal/pkg/id"
	"github.com/early-access-api/internal/pkg/token"
)

const subject = "Your Corposale Verification Code"

type Service interface {
	// Issue stores a fresh code for email and mails it. Earlier codes stay valid.
	Issue(ctx context.Context, email, name string) (*domain.EmailOTP, error)
	// Verify consumes the newest active code matching email and code.
	Verify(ctx context.Context, email, code string) (*domain.EmailOTP, error)
	Get(ctx context.Context, email, otpID string) (*domain.EmailOTP, error)
}

type otpStore interface {
	Put(ctx context.Context, o *domain.EmailOTP) error
	Get(ctx context.Context, email, otpID string) (*domain.EmailOTP, error)
	FindActive(ctx context.Context, email, code string, now time.Time) (*domain.EmailOTP, error)
	MarkVerified(ctx context.Context, email, otpID string) error
}

type service struct {
	repo     otpStore
	mailer   mailer.Mailer
	ttl      time.Duration
	now      func() time.Time
	generate func() (string, error)
}

func NewService(repo otpStore, m mailer.Mailer, ttl time.Duration) Service {
	return &service{
		repo:     repo,
		mailer:   m,
		ttl:      ttl,
		now:      time.Now,
		generate: token.NumericOTP,
	}
}

func (s *service) Issue(ctx context.Context, email, name string) (*domain.EmailOTP, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)
	if email == "" || name == "" {
		return nil, domain.BadRequest("Email and name are required")
	}
	code, err := s.generate()
	if err != nil {
		return nil, err
	}
	issued := s.now().UTC()
	now := issued.Truncate(time.Second)
	o := &domain.EmailOTP{
		Email:     email,
		OTPID:     id.At(issued),
		Code:      code,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.repo.Put(ctx, o); err != nil {
		return nil, domain.Failed("Failed to store OTP", err)
	}
	// The row is already persisted if this fails; a retry issues another one.
	if err := s.mailer.Send(ctx, message(email, name, code, s.ttl)); err != nil {
		return nil, domain.Failed("Failed to send email", err)
	}
	slog.Info("otp issued", "email", email, "otp_id", o.OTPID, "expires_at", o.ExpiresAt)
	return o, nil
}

func (s *service) Verify(ctx context.Context, email, code string) (*domain.EmailOTP, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	o, err := s.repo.FindActive(ctx, email, code, s.now().UTC())
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrInvalidOTP
	}
	if err != nil {
		return nil, fmt.Errorf("find otp: %w", err)
	}
	if err := s.repo.MarkVerified(ctx, email, o.OTPID); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, domain.ErrInvalidOTP
		}
		return nil, fmt.Errorf("mark otp verified: %w", err)
	}
	o.Verified = true
	return o, nil
}

func (s *service) Get(ctx context.Context, email, otpID string) (*domain.EmailOTP, error) {
	return s.repo.Get(ctx, strings.ToLower(strings.TrimSpace(email)), otpID)
}

func message(to, name, code string, ttl time.Duration) mailer.Message {
	minutes := int(ttl.Minutes())
	text := fmt.Sprintf("Hello %s!\n\nYour Corposale verification code is %s.\n"+
		"This code will expire in %d minutes. If you didn't request this code, please ignore this email.\n",
		name, code, minutes)
	body := fmt.Sprintf("<h1>Hello %s!</h1><p>Use the verification code below to complete your registration:</p>"+
		"<h2 style=\"letter-spacing:5px\">%s</h2><p>This code will expire in %d minutes.</p>",
		html.EscapeString(name), code, minutes)
	return mailer.Message{To: to, Subject: subject, Text: text, HTML: body}
}
