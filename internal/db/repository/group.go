package repository

import (
	"context"
	"time"

	"permtier/internal/domain"
)

type GroupRepo struct {
	q DBTX
}

func NewGroupRepo(q DBTX) *GroupRepo {
	return &GroupRepo{q: q}
}

const groupColumns = "id, label, access_level_ids, levels, updated_by, created_at, updated_at"

func scanGroup(s interface{ Scan(...any) error }) (*domain.Group, error) {
	var (
		g         domain.Group
		rawIDs    string
		rawLevels string
	)
	err := s.Scan(&g.ID, &g.Label, &rawIDs, &rawLevels, &g.UpdatedBy, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, mapDBError(err)
	}
	if g.AccessLevelIDs, err = decodeStrings(rawIDs); err != nil {
		return nil, err
	}
	if g.Levels, err = decodeLevels(rawLevels); err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *GroupRepo) Create(ctx context.Context, g *domain.Group) (*domain.Group, error) {
	now := time.Now().UTC()
	if g.ID == "" {
		g.ID = domain.NewID()
	}
	g.CreatedAt = now
	g.UpdatedAt = now

	_, err := r.q.ExecContext(ctx, `
		INSERT INTO groups (id, label, access_level_ids, levels, updated_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.Label, encodeStrings(g.AccessLevelIDs), encodeLevels(g.Levels),
		g.UpdatedBy, g.CreatedAt, g.UpdatedAt)
	if err != nil {
		return nil, mapDBError(err)
	}
	return g, nil
}

func (r *GroupRepo) Update(ctx context.Context, g *domain.Group) (*domain.Group, error) {
	g.UpdatedAt = time.Now().UTC()

	res, err := r.q.ExecContext(ctx, `
		UPDATE groups SET label = ?, access_level_ids = ?, levels = ?, updated_by = ?, updated_at = ?
		WHERE id = ?`,
		g.Label, encodeStrings(g.AccessLevelIDs), encodeLevels(g.Levels),
		g.UpdatedBy, g.UpdatedAt, g.ID)
	if err != nil {
		return nil, mapDBError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, domain.ErrNotFound("group %s not found", g.ID)
	}
	return g, nil
}

func (r *GroupRepo) GetByID(ctx context.Context, id string) (*domain.Group, error) {
	return scanGroup(r.q.QueryRowContext(ctx,
		"SELECT "+groupColumns+" FROM groups WHERE id = ?", id))
}

func (r *GroupRepo) GetByIDs(ctx context.Context, ids []string) ([]domain.Group, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := r.q.QueryContext(ctx,
		"SELECT "+groupColumns+" FROM groups WHERE id IN ("+inPlaceholders(len(ids))+")",
		toAnySlice(ids)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	return collectGroups(rows)
}

func (r *GroupRepo) List(ctx context.Context) ([]domain.Group, error) {
	rows, err := r.q.QueryContext(ctx,
		"SELECT "+groupColumns+" FROM groups ORDER BY created_at")
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	return collectGroups(rows)
}

func (r *GroupRepo) ListReferencingLevel(ctx context.Context, levelID string) ([]domain.Group, error) {
	// json_each expands the JSON id array so referencing rows can be found
	// with a plain equality match.
	rows, err := r.q.QueryContext(ctx, `
		SELECT `+groupColumns+` FROM groups
		WHERE EXISTS (
			SELECT 1 FROM json_each(groups.access_level_ids) WHERE json_each.value = ?
		)`, levelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	return collectGroups(rows)
}

func (r *GroupRepo) Delete(ctx context.Context, id string) error {
	_, err := r.q.ExecContext(ctx, "DELETE FROM groups WHERE id = ?", id)
	return mapDBError(err)
}

func collectGroups(rows interface {
	Next() bool
	Scan(...any) error
	Err() error
}) ([]domain.Group, error) {
	var out []domain.Group
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *g)
	}
	return out, rows.Err()
}
