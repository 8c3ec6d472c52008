package api

import (
	"net/http"

	"permtier/internal/domain"
)

type assertRequest struct {
	ProjectID string `json:"project_id"`
	Path      string `json:"path"`
}

type assertResponse struct {
	Allowed bool `json:"allowed"`
}

type routesDetailsRequest struct {
	ProjectID string   `json:"project_id"`
	Paths     []string `json:"paths"`
}

type syncCollectionsRequest struct {
	ProjectID   string   `json:"project_id"`
	Collections []string `json:"collections"`
}

type syncCollectionsResponse struct {
	Collections []string `json:"collections"`
}

// Assert checks whether the authenticated caller may invoke the given path.
// A denial is reported as 403 rather than an allowed=false body so that
// reverse proxies can forward the status directly.
func (h *Handler) Assert(w http.ResponseWriter, r *http.Request) {
	principal, ok := domain.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, domain.ErrAccessDenied("no authenticated principal"))
		return
	}
	var req assertRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.engine.AssertPermissions(r.Context(), principal.Permissions, req.ProjectID, req.Path); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, assertResponse{Allowed: true})
}

// RoutesDetails resolves a batch of paths to their routes and the access
// levels each requires.
func (h *Handler) RoutesDetails(w http.ResponseWriter, r *http.Request) {
	var req routesDetailsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	details, err := h.engine.RoutesDetails(r.Context(), req.ProjectID, req.Paths)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

// FilterSyncableCollections narrows a client's requested sync collections to
// the ones its permissions actually cover.
func (h *Handler) FilterSyncableCollections(w http.ResponseWriter, r *http.Request) {
	principal, ok := domain.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, domain.ErrAccessDenied("no authenticated principal"))
		return
	}
	var req syncCollectionsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	allowed, err := h.engine.FilterSyncableCollections(r.Context(), principal.Permissions, req.ProjectID, req.Collections)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, syncCollectionsResponse{Collections: allowed})
}
