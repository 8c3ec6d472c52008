package repository

import (
	"context"
	"time"

	"permtier/internal/domain"
)

type ProjectRepo struct {
	q DBTX
}

func NewProjectRepo(q DBTX) *ProjectRepo {
	return &ProjectRepo{q: q}
}

const projectColumns = "id, name, updated_by, created_at, updated_at"

func (r *ProjectRepo) Create(ctx context.Context, p *domain.Project) (*domain.Project, error) {
	now := time.Now().UTC()
	if p.ID == "" {
		p.ID = domain.NewID()
	}
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := r.q.ExecContext(ctx, `
		INSERT INTO projects (id, name, updated_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.UpdatedBy, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return nil, mapDBError(err)
	}
	return p, nil
}

func (r *ProjectRepo) Update(ctx context.Context, p *domain.Project) (*domain.Project, error) {
	p.UpdatedAt = time.Now().UTC()

	res, err := r.q.ExecContext(ctx, `
		UPDATE projects SET name = ?, updated_by = ?, updated_at = ?
		WHERE id = ?`,
		p.Name, p.UpdatedBy, p.UpdatedAt, p.ID)
	if err != nil {
		return nil, mapDBError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, domain.ErrNotFound("project %s not found", p.ID)
	}
	return p, nil
}

func (r *ProjectRepo) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	row := r.q.QueryRowContext(ctx,
		"SELECT "+projectColumns+" FROM projects WHERE id = ?", id)

	var p domain.Project
	err := row.Scan(&p.ID, &p.Name, &p.UpdatedBy, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, mapDBError(err)
	}
	return &p, nil
}

func (r *ProjectRepo) List(ctx context.Context) ([]domain.Project, error) {
	rows, err := r.q.QueryContext(ctx,
		"SELECT "+projectColumns+" FROM projects ORDER BY created_at")
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var out []domain.Project
	for rows.Next() {
		var p domain.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.UpdatedBy, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *ProjectRepo) Delete(ctx context.Context, id string) error {
	_, err := r.q.ExecContext(ctx, "DELETE FROM projects WHERE id = ?", id)
	return mapDBError(err)
}
