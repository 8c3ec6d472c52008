package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"permtier/internal/domain"
)

type userProvisioner interface {
	GetOrCreate(ctx context.Context, accountID string) (*domain.User, error)
}

// LoginHandler exchanges an account id for a signed session token. The user
// record is provisioned on first login with the configured default groups.
type LoginHandler struct {
	users      userProvisioner
	sessions   domain.SessionRepository
	jwtSecret  []byte
	sessionTTL time.Duration
	logger     *slog.Logger
}

// NewLoginHandler creates the login endpoint handler.
func NewLoginHandler(users userProvisioner, sessions domain.SessionRepository, jwtSecret []byte, sessionTTL time.Duration, logger *slog.Logger) *LoginHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoginHandler{
		users:      users,
		sessions:   sessions,
		jwtSecret:  jwtSecret,
		sessionTTL: sessionTTL,
		logger:     logger,
	}
}

type loginRequest struct {
	AccountID string `json:"account_id"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Login provisions the user if needed, issues an HS256 JWT and records the
// session so later permission changes can invalidate it.
func (h *LoginHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.AccountID == "" {
		writeError(w, domain.ErrValidation("account_id is required"))
		return
	}

	user, err := h.users.GetOrCreate(r.Context(), req.AccountID)
	if err != nil {
		writeError(w, err)
		return
	}

	now := time.Now().UTC()
	expiresAt := now.Add(h.sessionTTL)
	claims := jwt.MapClaims{
		"sub": user.AccountID,
		"iat": now.Unix(),
		"exp": expiresAt.Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.jwtSecret)
	if err != nil {
		h.logger.Error("failed to sign session token", "error", err)
		writeError(w, err)
		return
	}

	if err := h.sessions.Insert(r.Context(), &domain.Session{
		Token:     token,
		AccountID: user.AccountID,
		IssuedAt:  now,
		ExpiresAt: expiresAt,
	}); err != nil {
		writeError(w, err)
		return
	}

	h.logger.Info("session issued", "account_id", user.AccountID, "expires_at", expiresAt)
	writeJSON(w, http.StatusOK, loginResponse{Token: token, ExpiresAt: expiresAt})
}
