package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"permtier/internal/domain"
	"permtier/internal/session"
)

var testSecret = []byte("test-secret")

type fakeSessionRepo struct {
	domain.SessionRepository
	tokens map[string]*domain.Session
}

func (f *fakeSessionRepo) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	s, ok := f.tokens[token]
	if !ok {
		return nil, domain.ErrNotFound("session not found")
	}
	return s, nil
}

type fakeSnapshots struct{}

func (fakeSnapshots) Snapshot(ctx context.Context, accountID string) (session.Snapshot, error) {
	return session.Snapshot{
		AccountID:   accountID,
		Permissions: domain.PermissionMap{"dom-1": 400},
		GroupIDs:    []string{"grp-1"},
	}, nil
}

func signToken(t *testing.T, sub string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": sub,
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(testSecret)
	require.NoError(t, err)
	return token
}

func authStack(sessions *fakeSessionRepo, capture *domain.Principal) http.Handler {
	return Auth(testSecret, sessions, fakeSnapshots{})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if p, ok := domain.PrincipalFromContext(r.Context()); ok {
				*capture = p
			}
			w.WriteHeader(http.StatusOK)
		}))
}

func TestAuth_ValidTokenAttachesPrincipal(t *testing.T) {
	token := signToken(t, "acct-1")
	sessions := &fakeSessionRepo{tokens: map[string]*domain.Session{
		token: {Token: token, AccountID: "acct-1"},
	}}
	var principal domain.Principal
	handler := authStack(sessions, &principal)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "acct-1", principal.AccountID)
	assert.Equal(t, int64(400), principal.Permissions["dom-1"])
	assert.Equal(t, []string{"grp-1"}, principal.GroupIDs)
}

func TestAuth_MissingHeader(t *testing.T) {
	var principal domain.Principal
	handler := authStack(&fakeSessionRepo{tokens: map[string]*domain.Session{}}, &principal)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_BadSignature(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "acct-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("other-secret"))
	require.NoError(t, err)

	var principal domain.Principal
	handler := authStack(&fakeSessionRepo{tokens: map[string]*domain.Session{}}, &principal)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_InvalidatedSessionRejected(t *testing.T) {
	// Valid signature, but no session row: the token was invalidated by a
	// permission-changing write.
	token := signToken(t, "acct-1")
	var principal domain.Principal
	handler := authStack(&fakeSessionRepo{tokens: map[string]*domain.Session{}}, &principal)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalidated")
}

func TestAuth_ExpiredTokenRejected(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "acct-1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	}).SignedString(testSecret)
	require.NoError(t, err)

	sessions := &fakeSessionRepo{tokens: map[string]*domain.Session{
		token: {Token: token, AccountID: "acct-1"},
	}}
	var principal domain.Principal
	handler := authStack(sessions, &principal)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
