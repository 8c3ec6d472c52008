package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"permtier/internal/domain"
)

type accessLevelRequest struct {
	DomainID string `json:"domain_id,omitempty"`
	Name     string `json:"name"`
	Value    int64  `json:"value"`
}

func (h *Handler) CreateAccessLevel(w http.ResponseWriter, r *http.Request) {
	var req accessLevelRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	l, err := h.levels.Create(r.Context(), domain.CreateAccessLevelRequest{
		DomainID: req.DomainID,
		Name:     req.Name,
		Value:    req.Value,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, l)
}

func (h *Handler) GetAccessLevel(w http.ResponseWriter, r *http.Request) {
	l, err := h.levels.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (h *Handler) UpdateAccessLevel(w http.ResponseWriter, r *http.Request) {
	var req accessLevelRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	l, err := h.levels.Update(r.Context(), domain.UpdateAccessLevelRequest{
		ID:    chi.URLParam(r, "id"),
		Name:  req.Name,
		Value: req.Value,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (h *Handler) DeleteAccessLevel(w http.ResponseWriter, r *http.Request) {
	if err := h.levels.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) DetachAccessLevel(w http.ResponseWriter, r *http.Request) {
	if err := h.levels.Detach(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListAccessLevels(w http.ResponseWriter, r *http.Request) {
	ls, err := h.levels.ListByDomain(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ls)
}
