package admin

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/early-access-api/internal/domain"
)

// Role is the only back-office role.
const Role = "admin"

type LoginRequest struct {
	Password string `json:"password" validate:"required"`
}

type LoginResult struct {
	Bearer string `json:"Bearer"`
}

type Service interface {
	Login(ctx context.Context, password string) (*LoginResult, error)
}

type tokenSigner interface {
	Sign(subject, role string) (string, error)
}

type service struct {
	signer       tokenSigner
	passwordHash []byte
}

func NewService(signer tokenSigner, passwordHash string) Service {
	return &service{signer: signer, passwordHash: []byte(passwordHash)}
}

func (s *service) Login(_ context.Context, password string) (*LoginResult, error) {
	if len(s.passwordHash) == 0 {
		slog.Warn("admin login attempted but ADMIN_PASSWORD_HASH is not set")
		return nil, fmt.Errorf("admin login disabled: %w", domain.ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}
	bearer, err := s.signer.Sign(Role, Role)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &LoginResult{Bearer: bearer}, nil
}
