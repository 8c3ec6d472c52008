package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"permtier/internal/domain"
	"permtier/internal/session"
)

// SnapshotLoader resolves the authorization snapshot for an account.
// Implemented by the session registry.
type SnapshotLoader interface {
	Snapshot(ctx context.Context, accountID string) (session.Snapshot, error)
}

// Auth returns an HTTP middleware that authenticates requests via a JWT
// bearer token (HS256, "sub" = account id), verifies the token is still
// recorded in the session store, and attaches the account's permission
// snapshot to the request context as the Principal.
//
// A write-side cascade that deletes the session row therefore ends the
// session outright; a snapshot eviction alone forces the next request to
// re-derive permissions from live group state.
func Auth(jwtSecret []byte, sessions domain.SessionRepository, snapshots SnapshotLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				writeUnauthorized(w, "missing bearer token")
				return
			}
			tokenStr := strings.TrimPrefix(auth, "Bearer ")

			token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
				return jwtSecret, nil
			}, jwt.WithValidMethods([]string{"HS256"}))
			if err != nil || !token.Valid {
				writeUnauthorized(w, "invalid token")
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				writeUnauthorized(w, "invalid token claims")
				return
			}
			accountID, _ := claims["sub"].(string)
			if accountID == "" {
				writeUnauthorized(w, "token has no subject")
				return
			}

			if _, err := sessions.GetByToken(r.Context(), tokenStr); err != nil {
				writeUnauthorized(w, "session expired or invalidated")
				return
			}

			snap, err := snapshots.Snapshot(r.Context(), accountID)
			if err != nil {
				http.Error(w, "failed to load permissions", http.StatusInternalServerError)
				return
			}

			ctx := domain.WithPrincipal(r.Context(), domain.Principal{
				AccountID:   accountID,
				Permissions: snap.Permissions,
				GroupIDs:    snap.GroupIDs,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"code":    401,
		"message": "unauthorized: " + msg,
	})
}
