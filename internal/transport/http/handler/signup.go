package handler

import (
	"encoding/json"
	"net/http"

	"github.com/early-access-api/internal/application/signup"
	"github.com/early-access-api/internal/domain"
)

// SignupHandler serves the two public waitlist endpoints.
type SignupHandler struct {
	svc signup.Service
}

func NewSignupHandler(svc signup.Service) *SignupHandler {
	return &SignupHandler{svc: svc}
}

func (h *SignupHandler) SendOTP(w http.ResponseWriter, r *http.Request) {
	var req domain.SendOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.svc.RequestOTP(r.Context(), req); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SendOTPEnvelope{Success: true, Message: "OTP sent successfully"})
}

func (h *SignupHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req domain.VerifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	reg, err := h.svc.VerifyAndRegister(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, VerifyOTPEnvelope{
		Success:       true,
		InviteCode:    reg.InviteCode,
		CommunityLink: reg.CommunityLink,
		Message:       "OTP verified successfully",
	})
}
