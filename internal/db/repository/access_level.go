package repository

import (
	"context"
	"time"

	"permtier/internal/domain"
)

type AccessLevelRepo struct {
	q DBTX
}

func NewAccessLevelRepo(q DBTX) *AccessLevelRepo {
	return &AccessLevelRepo{q: q}
}

const levelColumns = "id, domain_id, name, value, updated_by, created_at, updated_at"

func scanLevel(s interface{ Scan(...any) error }) (*domain.AccessLevel, error) {
	var l domain.AccessLevel
	err := s.Scan(&l.ID, &l.DomainID, &l.Name, &l.Value, &l.UpdatedBy, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, mapDBError(err)
	}
	return &l, nil
}

func (r *AccessLevelRepo) Create(ctx context.Context, l *domain.AccessLevel) (*domain.AccessLevel, error) {
	now := time.Now().UTC()
	if l.ID == "" {
		l.ID = domain.NewID()
	}
	l.CreatedAt = now
	l.UpdatedAt = now

	_, err := r.q.ExecContext(ctx, `
		INSERT INTO access_levels (id, domain_id, name, value, updated_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.DomainID, l.Name, l.Value, l.UpdatedBy, l.CreatedAt, l.UpdatedAt)
	if err != nil {
		return nil, mapDBError(err)
	}
	return l, nil
}

func (r *AccessLevelRepo) Update(ctx context.Context, l *domain.AccessLevel) (*domain.AccessLevel, error) {
	l.UpdatedAt = time.Now().UTC()

	res, err := r.q.ExecContext(ctx, `
		UPDATE access_levels SET name = ?, value = ?, updated_by = ?, updated_at = ?
		WHERE id = ?`,
		l.Name, l.Value, l.UpdatedBy, l.UpdatedAt, l.ID)
	if err != nil {
		return nil, mapDBError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, domain.ErrNotFound("access level %s not found", l.ID)
	}
	return l, nil
}

func (r *AccessLevelRepo) GetByID(ctx context.Context, id string) (*domain.AccessLevel, error) {
	return scanLevel(r.q.QueryRowContext(ctx,
		"SELECT "+levelColumns+" FROM access_levels WHERE id = ?", id))
}

func (r *AccessLevelRepo) GetByIDs(ctx context.Context, ids []string) ([]domain.AccessLevel, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := r.q.QueryContext(ctx,
		"SELECT "+levelColumns+" FROM access_levels WHERE id IN ("+inPlaceholders(len(ids))+")",
		toAnySlice(ids)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var out []domain.AccessLevel
	for rows.Next() {
		l, err := scanLevel(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}

func (r *AccessLevelRepo) GetByName(ctx context.Context, domainID, name string) (*domain.AccessLevel, error) {
	return scanLevel(r.q.QueryRowContext(ctx,
		"SELECT "+levelColumns+" FROM access_levels WHERE domain_id = ? AND name = ?",
		domainID, name))
}

func (r *AccessLevelRepo) GetByValue(ctx context.Context, domainID string, value int64) (*domain.AccessLevel, error) {
	return scanLevel(r.q.QueryRowContext(ctx,
		"SELECT "+levelColumns+" FROM access_levels WHERE domain_id = ? AND value = ?",
		domainID, value))
}

func (r *AccessLevelRepo) ListByDomain(ctx context.Context, domainID string) ([]domain.AccessLevel, error) {
	rows, err := r.q.QueryContext(ctx,
		"SELECT "+levelColumns+" FROM access_levels WHERE domain_id = ? ORDER BY value",
		domainID)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var out []domain.AccessLevel
	for rows.Next() {
		l, err := scanLevel(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}

func (r *AccessLevelRepo) CountByDomain(ctx context.Context, domainID string) (int64, error) {
	var n int64
	err := r.q.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM access_levels WHERE domain_id = ?", domainID).Scan(&n)
	return n, err
}

func (r *AccessLevelRepo) Delete(ctx context.Context, id string) error {
	_, err := r.q.ExecContext(ctx, "DELETE FROM access_levels WHERE id = ?", id)
	return mapDBError(err)
}
