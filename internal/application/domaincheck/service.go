package domaincheck

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/early-access-api/internal/domain"
)

type Service interface {
	// Check resolves the allowlist status for an email. It never errors:
	// malformed input is indeterminate and any lookup failure is invalid.
	Check(ctx context.Context, email string) domain.DomainStatus
	List(ctx context.Context) ([]domain.CompanyDomain, error)
	Put(ctx context.Context, name string, approved bool) (*domain.CompanyDomain, error)
	Delete(ctx context.Context, name string) error
}

type domainStore interface {
	Get(ctx context.Context, name string) (*domain.CompanyDomain, error)
	Put(ctx context.Context, d *domain.CompanyDomain) error
	Delete(ctx context.Context, name string) error
	Scan(ctx context.Context) ([]domain.CompanyDomain, error)
}

type service struct {
	repo domainStore
}

func NewService(repo domainStore) Service {
	return &service{repo: repo}
}

// ExtractDomain returns the trimmed, lower-cased part after the last "@".
// ok is false for empty input or input without an "@".
func ExtractDomain(email string) (string, bool) {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return "", false
	}
	host := strings.ToLower(strings.TrimSpace(email[at+1:]))
	if host == "" {
		return "", false
	}
	return host, true
}

func (s *service) Check(ctx context.Context, email string) domain.DomainStatus {
	host, ok := ExtractDomain(email)
	if !ok {
		return domain.DomainIndeterminate
	}
	d, err := s.repo.Get(ctx, host)
	if err != nil {
		slog.Debug("domain lookup failed", "domain", host, "err", err)
		return domain.DomainInvalid
	}
	if !d.IsApproved {
		return domain.DomainInvalid
	}
	return domain.DomainValid
}

func (s *service) List(ctx context.Context) ([]domain.CompanyDomain, error) {
	return s.repo.Scan(ctx)
}

func (s *service) Put(ctx context.Context, name string, approved bool) (*domain.CompanyDomain, error) {
	host := strings.ToLower(strings.TrimSpace(name))
	if host == "" || strings.ContainsAny(host, "@ ") {
		return nil, fmt.Errorf("invalid domain %q: %w", name, domain.ErrBadRequest)
	}
	d := &domain.CompanyDomain{Domain: host, IsApproved: approved, UpdatedAt: time.Now().UTC()}
	if err := s.repo.Put(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *service) Delete(ctx context.Context, name string) error {
	return s.repo.Delete(ctx, strings.ToLower(strings.TrimSpace(name)))
}
