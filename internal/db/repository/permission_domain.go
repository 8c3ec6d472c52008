package repository

import (
	"context"
	"time"

	"permtier/internal/domain"
)

type DomainRepo struct {
	q DBTX
}

func NewDomainRepo(q DBTX) *DomainRepo {
	return &DomainRepo{q: q}
}

const domainColumns = "id, project_id, namespace, updated_by, created_at, updated_at"

func scanDomain(s interface{ Scan(...any) error }) (*domain.Domain, error) {
	var d domain.Domain
	err := s.Scan(&d.ID, &d.ProjectID, &d.Namespace, &d.UpdatedBy, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, mapDBError(err)
	}
	return &d, nil
}

func (r *DomainRepo) Create(ctx context.Context, d *domain.Domain) (*domain.Domain, error) {
	now := time.Now().UTC()
	if d.ID == "" {
		d.ID = domain.NewID()
	}
	d.CreatedAt = now
	d.UpdatedAt = now

	_, err := r.q.ExecContext(ctx, `
		INSERT INTO domains (id, project_id, namespace, updated_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		d.ID, d.ProjectID, d.Namespace, d.UpdatedBy, d.CreatedAt, d.UpdatedAt)
	if err != nil {
		return nil, mapDBError(err)
	}
	return d, nil
}

func (r *DomainRepo) Update(ctx context.Context, d *domain.Domain) (*domain.Domain, error) {
	d.UpdatedAt = time.Now().UTC()

	res, err := r.q.ExecContext(ctx, `
		UPDATE domains SET namespace = ?, updated_by = ?, updated_at = ?
		WHERE id = ?`,
		d.Namespace, d.UpdatedBy, d.UpdatedAt, d.ID)
	if err != nil {
		return nil, mapDBError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, domain.ErrNotFound("domain %s not found", d.ID)
	}
	return d, nil
}

func (r *DomainRepo) GetByID(ctx context.Context, id string) (*domain.Domain, error) {
	return scanDomain(r.q.QueryRowContext(ctx,
		"SELECT "+domainColumns+" FROM domains WHERE id = ?", id))
}

func (r *DomainRepo) GetByNamespace(ctx context.Context, projectID, namespace string) (*domain.Domain, error) {
	return scanDomain(r.q.QueryRowContext(ctx,
		"SELECT "+domainColumns+" FROM domains WHERE project_id = ? AND namespace = ?",
		projectID, namespace))
}

func (r *DomainRepo) ListByProject(ctx context.Context, projectID string) ([]domain.Domain, error) {
	rows, err := r.q.QueryContext(ctx,
		"SELECT "+domainColumns+" FROM domains WHERE project_id = ? ORDER BY namespace",
		projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var out []domain.Domain
	for rows.Next() {
		d, err := scanDomain(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

func (r *DomainRepo) Delete(ctx context.Context, id string) error {
	_, err := r.q.ExecContext(ctx, "DELETE FROM domains WHERE id = ?", id)
	return mapDBError(err)
}
