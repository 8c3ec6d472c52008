package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"permtier/internal/domain"
)

type groupRequest struct {
	Label          string   `json:"label"`
	AccessLevelIDs []string `json:"access_level_ids"`
}

func (h *Handler) ListGroups(w http.ResponseWriter, r *http.Request) {
	gs, err := h.groups.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, gs)
}

func (h *Handler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var req groupRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	g, err := h.groups.Create(r.Context(), domain.CreateGroupRequest{
		Label:          req.Label,
		AccessLevelIDs: req.AccessLevelIDs,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

func (h *Handler) GetGroup(w http.ResponseWriter, r *http.Request) {
	g, err := h.groups.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (h *Handler) UpdateGroup(w http.ResponseWriter, r *http.Request) {
	var req groupRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	g, err := h.groups.Update(r.Context(), domain.UpdateGroupRequest{
		ID:             chi.URLParam(r, "id"),
		Label:          req.Label,
		AccessLevelIDs: req.AccessLevelIDs,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (h *Handler) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	if err := h.groups.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
