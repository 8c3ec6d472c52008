package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"permtier/internal/domain"
)

type assignPermissionsRequest struct {
	AccountIDs []string `json:"account_ids"`
	GroupIDs   []string `json:"group_ids"`
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	us, err := h.users.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, us)
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.GetByAccountID(r.Context(), chi.URLParam(r, "accountID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// AssignPermissions grants the given groups to the target accounts on behalf
// of the authenticated caller. The service enforces the delegation ceiling.
func (h *Handler) AssignPermissions(w http.ResponseWriter, r *http.Request) {
	principal, ok := domain.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, domain.ErrAccessDenied("no authenticated principal"))
		return
	}
	var req assignPermissionsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.users.AssignPermissions(r.Context(), principal.AccountID, req.AccountIDs, req.GroupIDs); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
