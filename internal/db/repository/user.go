package repository

import (
	"context"
	"time"

	"permtier/internal/domain"
)

type UserRepo struct {
	q DBTX
}

func NewUserRepo(q DBTX) *UserRepo {
	return &UserRepo{q: q}
}

const userColumns = "id, account_id, group_refs, group_ids, updated_by, created_at, updated_at"

func scanUser(s interface{ Scan(...any) error }) (*domain.User, error) {
	var (
		u       domain.User
		rawRefs string
		rawIDs  string
	)
	err := s.Scan(&u.ID, &u.AccountID, &rawRefs, &rawIDs, &u.UpdatedBy, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, mapDBError(err)
	}
	if u.Groups, err = decodeMemberships(rawRefs); err != nil {
		return nil, err
	}
	if u.GroupIDs, err = decodeStrings(rawIDs); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) Create(ctx context.Context, u *domain.User) (*domain.User, error) {
	now := time.Now().UTC()
	if u.ID == "" {
		u.ID = domain.NewID()
	}
	u.CreatedAt = now
	u.UpdatedAt = now

	_, err := r.q.ExecContext(ctx, `
		INSERT INTO users (id, account_id, group_refs, group_ids, updated_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.AccountID, encodeMemberships(u.Groups), encodeStrings(u.GroupIDs),
		u.UpdatedBy, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return nil, mapDBError(err)
	}
	return u, nil
}

func (r *UserRepo) Update(ctx context.Context, u *domain.User) (*domain.User, error) {
	u.UpdatedAt = time.Now().UTC()

	res, err := r.q.ExecContext(ctx, `
		UPDATE users SET group_refs = ?, group_ids = ?, updated_by = ?, updated_at = ?
		WHERE id = ?`,
		encodeMemberships(u.Groups), encodeStrings(u.GroupIDs),
		u.UpdatedBy, u.UpdatedAt, u.ID)
	if err != nil {
		return nil, mapDBError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, domain.ErrNotFound("user %s not found", u.ID)
	}
	return u, nil
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return scanUser(r.q.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = ?", id))
}

func (r *UserRepo) GetByAccountID(ctx context.Context, accountID string) (*domain.User, error) {
	return scanUser(r.q.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE account_id = ?", accountID))
}

func (r *UserRepo) GetByAccountIDs(ctx context.Context, accountIDs []string) ([]domain.User, error) {
	if len(accountIDs) == 0 {
		return nil, nil
	}

	rows, err := r.q.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE account_id IN ("+inPlaceholders(len(accountIDs))+")",
		toAnySlice(accountIDs)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	return collectUsers(rows)
}

// GetOrCreate inserts the user unless a row for the account already exists,
// then returns the stored row. ON CONFLICT DO NOTHING keeps the operation
// atomic under concurrent first logins.
func (r *UserRepo) GetOrCreate(ctx context.Context, u *domain.User) (*domain.User, error) {
	now := time.Now().UTC()
	if u.ID == "" {
		u.ID = domain.NewID()
	}

	_, err := r.q.ExecContext(ctx, `
		INSERT INTO users (id, account_id, group_refs, group_ids, updated_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (account_id) DO NOTHING`,
		u.ID, u.AccountID, encodeMemberships(u.Groups), encodeStrings(u.GroupIDs),
		u.UpdatedBy, now, now)
	if err != nil {
		return nil, mapDBError(err)
	}

	return r.GetByAccountID(ctx, u.AccountID)
}

func (r *UserRepo) ListReferencingGroup(ctx context.Context, groupID string) ([]domain.User, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE EXISTS (
			SELECT 1 FROM json_each(users.group_ids) WHERE json_each.value = ?
		)`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	return collectUsers(rows)
}

func (r *UserRepo) List(ctx context.Context) ([]domain.User, error) {
	rows, err := r.q.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY created_at")
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	return collectUsers(rows)
}

func (r *UserRepo) Delete(ctx context.Context, id string) error {
	_, err := r.q.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	return mapDBError(err)
}

func collectUsers(rows interface {
	Next() bool
	Scan(...any) error
	Err() error
}) ([]domain.User, error) {
	var out []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}
