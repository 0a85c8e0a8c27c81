package invite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/early-access-api/internal/domain"
	"github.com/early-access-api/internal/pkg/token"
)

const (
	codeLength  = 8
	maxAttempts = 8
)

type Service interface {
	// Allocate returns the email's invite code, creating it on first use.
	// Repeated calls for the same email return the same code. If a freshly
	// generated code cannot be stored, it is returned together with the error.
	Allocate(ctx context.Context, email string) (string, error)
	// AllocatePreferred behaves like Allocate but tries preferred first when
	// the email has no stored code yet.
	AllocatePreferred(ctx context.Context, email, preferred string) (string, error)
}

type inviteStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.InviteCode, error)
	Create(ctx context.Context, ic *domain.InviteCode) error
}

type service struct {
	repo     inviteStore
	generate func() (string, error)
}

func NewService(repo inviteStore) Service {
	return &service{repo: repo, generate: newCode}
}

func newCode() (string, error) {
	return token.FromAlphabet(codeLength, token.InviteAlphabet)
}

func (s *service) Allocate(ctx context.Context, email string) (string, error) {
	return s.AllocatePreferred(ctx, email, "")
}

func (s *service) AllocatePreferred(ctx context.Context, email, preferred string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", fmt.Errorf("email required: %w", domain.ErrBadRequest)
	}
	existing, err := s.repo.GetByEmail(ctx, email)
	if err == nil {
		return existing.InviteCode, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return "", fmt.Errorf("lookup invite code: %w", err)
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		code := preferred
		if attempt > 1 || !validCode(code) {
			if code, err = s.generate(); err != nil {
				return "", err
			}
		}
		err = s.repo.Create(ctx, &domain.InviteCode{Email: email, InviteCode: code})
		switch {
		case err == nil:
			slog.Info("invite code allocated", "email", email, "attempt", attempt)
			return code, nil
		case errors.Is(err, domain.ErrInviteEmailTaken):
			// A concurrent verification for the same email won; use its code.
			winner, err := s.repo.GetByEmail(ctx, email)
			if err != nil {
				return "", fmt.Errorf("read concurrent invite code: %w", err)
			}
			return winner.InviteCode, nil
		case errors.Is(err, domain.ErrInviteCodeTaken):
			slog.Warn("invite code collision, retrying", "attempt", attempt)
		default:
			return code, fmt.Errorf("store invite code: %w", err)
		}
	}
	return "", fmt.Errorf("no free invite code after %d attempts", maxAttempts)
}

func validCode(code string) bool {
	if len(code) != codeLength {
		return false
	}
	for _, r := range code {
		if !strings.ContainsRune(token.InviteAlphabet, r) {
			return false
		}
	}
	return true
}
