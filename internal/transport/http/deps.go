package http

import (
	"context"
	"io"
	"time"

	"github.com/early-access-api/internal/domain"
	jwtinfra "github.com/early-access-api/internal/infrastructure/jwt"
	"github.com/early-access-api/internal/infrastructure/mailer"
)

// DomainRepository is the minimal interface the router requires from the allowlist store.
type DomainRepository interface {
	Get(ctx context.Context, name string) (*domain.CompanyDomain, error)
	Put(ctx context.Context, d *domain.CompanyDomain) error
	Delete(ctx context.Context, name string) error
	Scan(ctx context.Context) ([]domain.CompanyDomain, error)
}

// OTPRepository is the minimal interface the router requires from the passcode store.
type OTPRepository interface {
	Put(ctx context.Context, o *domain.EmailOTP) error
	Get(ctx context.Context, email, otpID string) (*domain.EmailOTP, error)
	FindActive(ctx context.Context, email, code string, now time.Time) (*domain.EmailOTP, error)
	MarkVerified(ctx context.Context, email, otpID string) error
}

// InviteRepository must reject a create when either the email or the code already exists.
type InviteRepository interface {
	GetByEmail(ctx context.Context, email string) (*domain.InviteCode, error)
	Create(ctx context.Context, ic *domain.InviteCode) error
}

// LeadRepository must refuse to overwrite an existing lead_id with domain.ErrConflict.
type LeadRepository interface {
	Put(ctx context.Context, l *domain.LeadSubmission) error
	ListByEmail(ctx context.Context, email string) ([]domain.LeadSubmission, error)
	ScanAll(ctx context.Context) ([]domain.LeadSubmission, error)
}

type SignupRepository interface {
	Put(ctx context.Context, s *domain.SignupSession) error
	Get(ctx context.Context, email string) (*domain.SignupSession, error)
	Update(ctx context.Context, email string, updates map[string]interface{}) error
	// Claim must fail with domain.ErrConflict unless the session is verified for
	// otpID and not held by an unexpired claim.
	Claim(ctx context.Context, email, otpID string, now time.Time, lease time.Duration) error
}

// ObjectStore receives lead exports.
type ObjectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload interface{}) error
}

// TokenProvider signs and verifies admin bearer tokens.
type TokenProvider interface {
	Sign(subject, role string) (string, error)
	Verify(tokenStr string) (*jwtinfra.Claims, error)
}

// Deps holds all infrastructure dependencies for the router.
// ObjectStore and Tokens may be nil; the features that need them are then disabled.
type Deps struct {
	DomainRepo  DomainRepository
	OTPRepo     OTPRepository
	InviteRepo  InviteRepository
	LeadRepo    LeadRepository
	SignupRepo  SignupRepository
	ObjectStore ObjectStore
	Mailer      mailer.Mailer
	Events      EventPublisher
	Tokens      TokenProvider
}
