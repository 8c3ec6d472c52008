package repository

import (
	"context"
	"time"

	"permtier/internal/domain"
)

type SessionRepo struct {
	q DBTX
}

func NewSessionRepo(q DBTX) *SessionRepo {
	return &SessionRepo{q: q}
}

func (r *SessionRepo) Insert(ctx context.Context, s *domain.Session) error {
	if s.IssuedAt.IsZero() {
		s.IssuedAt = time.Now().UTC()
	}
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO sessions (token, account_id, issued_at, expires_at)
		VALUES (?, ?, ?, ?)`,
		s.Token, s.AccountID, s.IssuedAt, s.ExpiresAt)
	return mapDBError(err)
}

func (r *SessionRepo) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	var s domain.Session
	err := r.q.QueryRowContext(ctx, `
		SELECT token, account_id, issued_at, expires_at FROM sessions WHERE token = ?`,
		token).Scan(&s.Token, &s.AccountID, &s.IssuedAt, &s.ExpiresAt)
	if err != nil {
		return nil, mapDBError(err)
	}
	return &s, nil
}

func (r *SessionRepo) DeleteForAccounts(ctx context.Context, accountIDs []string) error {
	if len(accountIDs) == 0 {
		return nil
	}
	_, err := r.q.ExecContext(ctx,
		"DELETE FROM sessions WHERE account_id IN ("+inPlaceholders(len(accountIDs))+")",
		toAnySlice(accountIDs)...)
	return err
}

func (r *SessionRepo) DeleteExpired(ctx context.Context) error {
	_, err := r.q.ExecContext(ctx,
		"DELETE FROM sessions WHERE expires_at < ?", time.Now().UTC())
	return err
}
