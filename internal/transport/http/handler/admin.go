package handler

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/early-access-api/internal/application/admin"
	"github.com/early-access-api/internal/application/lead"
	"github.com/early-access-api/internal/application/signup"
	"github.com/early-access-api/internal/domain"
	"github.com/early-access-api/internal/pkg/validate"
)

// AdminHandler serves back-office login, lead lookup and export, and session inspection.
type AdminHandler struct {
	auth    admin.Service
	leads   lead.Service
	signups signup.Service
}

func NewAdminHandler(auth admin.Service, leads lead.Service, signups signup.Service) *AdminHandler {
	return &AdminHandler{auth: auth, leads: leads, signups: signups}
}

func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req admin.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	res, err := h.auth.Login(r.Context(), req.Password)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *AdminHandler) ExportLeads(w http.ResponseWriter, r *http.Request) {
	out, err := h.leads.Export(r.Context())
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// ListLeads returns every submission for the email query parameter, oldest first.
func (h *AdminHandler) ListLeads(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if email == "" {
		writeError(w, http.StatusBadRequest, "email query parameter is required")
		return
	}
	leads, err := h.leads.ListByEmail(r.Context(), email)
	if err != nil {
		httpError(w, err)
		return
	}
	if leads == nil {
		leads = []domain.LeadSubmission{}
	}
	writeJSON(w, http.StatusOK, leads)
}

func (h *AdminHandler) GetSignup(w http.ResponseWriter, r *http.Request) {
	email, err := url.PathUnescape(chi.URLParam(r, "email"))
	if err != nil || email == "" {
		writeError(w, http.StatusBadRequest, "invalid email")
		return
	}
	sess, err := h.signups.Session(r.Context(), email)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}
