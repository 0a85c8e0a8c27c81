package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/early-access-api/internal/application/domaincheck"
	"github.com/early-access-api/internal/domain"
	"github.com/early-access-api/internal/pkg/validate"
)

// DomainHandler serves the allowlist check and its admin maintenance routes.
type DomainHandler struct {
	svc domaincheck.Service
}

func NewDomainHandler(svc domaincheck.Service) *DomainHandler {
	return &DomainHandler{svc: svc}
}

func (h *DomainHandler) Check(w http.ResponseWriter, r *http.Request) {
	status := h.svc.Check(r.Context(), r.URL.Query().Get("email"))
	writeJSON(w, http.StatusOK, DomainStatusEnvelope{Status: status})
}

func (h *DomainHandler) List(w http.ResponseWriter, r *http.Request) {
	domains, err := h.svc.List(r.Context())
	if err != nil {
		httpError(w, err)
		return
	}
	if domains == nil {
		domains = []domain.CompanyDomain{}
	}
	writeJSON(w, http.StatusOK, domains)
}

func (h *DomainHandler) Put(w http.ResponseWriter, r *http.Request) {
	var req domain.PutDomainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	d, err := h.svc.Put(r.Context(), chi.URLParam(r, "domain"), *req.IsApproved)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *DomainHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "domain")); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "deleted"})
}
