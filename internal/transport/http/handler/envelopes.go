package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/early-access-api/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// SendOTPEnvelope is the /send-otp success body.
type SendOTPEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// VerifyOTPEnvelope is the /verify-otp success body.
type VerifyOTPEnvelope struct {
	Success       bool   `json:"success"`
	InviteCode    string `json:"inviteCode"`
	CommunityLink string `json:"communityLink"`
	Message       string `json:"message"`
}

// DomainStatusEnvelope wraps an allowlist check.
type DomainStatusEnvelope struct {
	Status domain.DomainStatus `json:"status"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

// httpError maps a service error to a status and a client-safe message.
// Server-side causes are logged and never echoed.
func httpError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	var ce *domain.ClientError
	switch {
	case errors.As(err, &ce):
		if status >= http.StatusInternalServerError {
			slog.Error("request failed", "err", err)
		}
		writeError(w, status, ce.Msg)
	case errors.Is(err, domain.ErrInvalidOTP):
		writeError(w, status, "Invalid or expired OTP")
	case status >= http.StatusInternalServerError:
		slog.Error("request failed", "err", err)
		writeError(w, status, "internal server error")
	default:
		writeError(w, status, err.Error())
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrBadRequest), errors.Is(err, domain.ErrInvalidOTP):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
