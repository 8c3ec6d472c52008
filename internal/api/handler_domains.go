package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"permtier/internal/domain"
)

type domainRequest struct {
	ProjectID string `json:"project_id,omitempty"`
	Namespace string `json:"namespace"`
}

func (h *Handler) CreateDomain(w http.ResponseWriter, r *http.Request) {
	var req domainRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	d, err := h.domains.Create(r.Context(), domain.CreateDomainRequest{
		ProjectID: req.ProjectID,
		Namespace: req.Namespace,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

func (h *Handler) GetDomain(w http.ResponseWriter, r *http.Request) {
	d, err := h.domains.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *Handler) UpdateDomain(w http.ResponseWriter, r *http.Request) {
	var req domainRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	d, err := h.domains.Update(r.Context(), domain.UpdateDomainRequest{
		ID:        chi.URLParam(r, "id"),
		Namespace: req.Namespace,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *Handler) DeleteDomain(w http.ResponseWriter, r *http.Request) {
	if err := h.domains.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListDomains(w http.ResponseWriter, r *http.Request) {
	ds, err := h.domains.ListByProject(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ds)
}
