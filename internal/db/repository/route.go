package repository

import (
	"context"
	"time"

	"permtier/internal/domain"
)

type RouteRepo struct {
	q DBTX
}

func NewRouteRepo(q DBTX) *RouteRepo {
	return &RouteRepo{q: q}
}

const routeColumns = "id, project_id, path, access_level_ids, access_levels, updated_by, created_at, updated_at"

func scanRoute(s interface{ Scan(...any) error }) (*domain.Route, error) {
	var (
		rt        domain.Route
		rawIDs    string
		rawLevels string
	)
	err := s.Scan(&rt.ID, &rt.ProjectID, &rt.Path, &rawIDs, &rawLevels,
		&rt.UpdatedBy, &rt.CreatedAt, &rt.UpdatedAt)
	if err != nil {
		return nil, mapDBError(err)
	}
	if rt.AccessLevelIDs, err = decodeStrings(rawIDs); err != nil {
		return nil, err
	}
	if rt.AccessLevels, err = decodeLevels(rawLevels); err != nil {
		return nil, err
	}
	return &rt, nil
}

func (r *RouteRepo) Create(ctx context.Context, rt *domain.Route) (*domain.Route, error) {
	now := time.Now().UTC()
	if rt.ID == "" {
		rt.ID = domain.NewID()
	}
	rt.CreatedAt = now
	rt.UpdatedAt = now

	_, err := r.q.ExecContext(ctx, `
		INSERT INTO routes (id, project_id, path, access_level_ids, access_levels, updated_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rt.ID, rt.ProjectID, rt.Path, encodeStrings(rt.AccessLevelIDs),
		encodeLevels(rt.AccessLevels), rt.UpdatedBy, rt.CreatedAt, rt.UpdatedAt)
	if err != nil {
		return nil, mapDBError(err)
	}
	return rt, nil
}

func (r *RouteRepo) Update(ctx context.Context, rt *domain.Route) (*domain.Route, error) {
	rt.UpdatedAt = time.Now().UTC()

	res, err := r.q.ExecContext(ctx, `
		UPDATE routes SET path = ?, access_level_ids = ?, access_levels = ?, updated_by = ?, updated_at = ?
		WHERE id = ?`,
		rt.Path, encodeStrings(rt.AccessLevelIDs), encodeLevels(rt.AccessLevels),
		rt.UpdatedBy, rt.UpdatedAt, rt.ID)
	if err != nil {
		return nil, mapDBError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, domain.ErrNotFound("route %s not found", rt.ID)
	}
	return rt, nil
}

func (r *RouteRepo) GetByID(ctx context.Context, id string) (*domain.Route, error) {
	return scanRoute(r.q.QueryRowContext(ctx,
		"SELECT "+routeColumns+" FROM routes WHERE id = ?", id))
}

func (r *RouteRepo) GetByPath(ctx context.Context, projectID, path string) (*domain.Route, error) {
	return scanRoute(r.q.QueryRowContext(ctx,
		"SELECT "+routeColumns+" FROM routes WHERE project_id = ? AND path = ?",
		projectID, path))
}

func (r *RouteRepo) GetByPaths(ctx context.Context, projectID string, paths []string) ([]domain.Route, error) {
	if len(paths) == 0 {
		return nil, nil
	}

	args := append([]any{projectID}, toAnySlice(paths)...)
	rows, err := r.q.QueryContext(ctx,
		"SELECT "+routeColumns+" FROM routes WHERE project_id = ? AND path IN ("+inPlaceholders(len(paths))+")",
		args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	return collectRoutes(rows)
}

func (r *RouteRepo) ListByProject(ctx context.Context, projectID string) ([]domain.Route, error) {
	rows, err := r.q.QueryContext(ctx,
		"SELECT "+routeColumns+" FROM routes WHERE project_id = ? ORDER BY path", projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	return collectRoutes(rows)
}

func (r *RouteRepo) ListReferencingLevel(ctx context.Context, levelID string) ([]domain.Route, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT `+routeColumns+` FROM routes
		WHERE EXISTS (
			SELECT 1 FROM json_each(routes.access_level_ids) WHERE json_each.value = ?
		)`, levelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	return collectRoutes(rows)
}

func (r *RouteRepo) CountByProject(ctx context.Context, projectID string) (int64, error) {
	var n int64
	err := r.q.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM routes WHERE project_id = ?", projectID).Scan(&n)
	return n, err
}

func (r *RouteRepo) Delete(ctx context.Context, id string) error {
	_, err := r.q.ExecContext(ctx, "DELETE FROM routes WHERE id = ?", id)
	return mapDBError(err)
}

func collectRoutes(rows interface {
	Next() bool
	Scan(...any) error
	Err() error
}) ([]domain.Route, error) {
	var out []domain.Route
	for rows.Next() {
		rt, err := scanRoute(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rt)
	}
	return out, rows.Err()
}
