package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"permtier/internal/domain"
)

type routeRequest struct {
	ProjectID      string   `json:"project_id,omitempty"`
	Path           string   `json:"path"`
	AccessLevelIDs []string `json:"access_level_ids"`
}

type registerRoutesRequest struct {
	ProjectID string   `json:"project_id"`
	Paths     []string `json:"paths"`
}

func (h *Handler) CreateRoute(w http.ResponseWriter, r *http.Request) {
	var req routeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	rt, err := h.routes.Create(r.Context(), domain.CreateRouteRequest{
		ProjectID:      req.ProjectID,
		Path:           req.Path,
		AccessLevelIDs: req.AccessLevelIDs,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rt)
}

// RegisterRoutes bulk-registers API paths for a project. Already known paths
// are left untouched, so services can re-announce their surface on boot.
func (h *Handler) RegisterRoutes(w http.ResponseWriter, r *http.Request) {
	var req registerRoutesRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.routes.Register(r.Context(), req.ProjectID, req.Paths); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetRoute(w http.ResponseWriter, r *http.Request) {
	rt, err := h.routes.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rt)
}

func (h *Handler) UpdateRoute(w http.ResponseWriter, r *http.Request) {
	var req routeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	rt, err := h.routes.Update(r.Context(), domain.UpdateRouteRequest{
		ID:             chi.URLParam(r, "id"),
		Path:           req.Path,
		AccessLevelIDs: req.AccessLevelIDs,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rt)
}

func (h *Handler) DeleteRoute(w http.ResponseWriter, r *http.Request) {
	if err := h.routes.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListRoutes(w http.ResponseWriter, r *http.Request) {
	rts, err := h.routes.ListByProject(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rts)
}
