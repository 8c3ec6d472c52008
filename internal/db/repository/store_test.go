package repository

import (
	"context"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internaldb "permtier/internal/db"
	"permtier/internal/domain"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	writeDB, _ := internaldb.OpenTestSQLite(t)
	return NewStore(writeDB)
}

func TestProjectRepo_CRUD(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	p, err := s.Projects.Create(ctx, &domain.Project{Name: "shop"})
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.False(t, p.CreatedAt.IsZero())

	found, err := s.Projects.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "shop", found.Name)

	p.Name = "storefront"
	updated, err := s.Projects.Update(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, "storefront", updated.Name)

	require.NoError(t, s.Projects.Delete(ctx, p.ID))
	_, err = s.Projects.GetByID(ctx, p.ID)
	var notFound *domain.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestDomainRepo_UniqueNamespacePerProject(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	p, err := s.Projects.Create(ctx, &domain.Project{Name: "shop"})
	require.NoError(t, err)

	_, err = s.Domains.Create(ctx, &domain.Domain{ProjectID: p.ID, Namespace: "orders"})
	require.NoError(t, err)

	_, err = s.Domains.Create(ctx, &domain.Domain{ProjectID: p.ID, Namespace: "orders"})
	var conflict *domain.ConflictError
	assert.ErrorAs(t, err, &conflict)

	// Same namespace under another project is fine.
	p2, err := s.Projects.Create(ctx, &domain.Project{Name: "other"})
	require.NoError(t, err)
	_, err = s.Domains.Create(ctx, &domain.Domain{ProjectID: p2.ID, Namespace: "orders"})
	assert.NoError(t, err)
}

func TestRouteRepo_UniquePathPerProject(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	p, err := s.Projects.Create(ctx, &domain.Project{Name: "shop"})
	require.NoError(t, err)

	_, err = s.Routes.Create(ctx, &domain.Route{ProjectID: p.ID, Path: "orders/list"})
	require.NoError(t, err)

	_, err = s.Routes.Create(ctx, &domain.Route{ProjectID: p.ID, Path: "orders/list"})
	var conflict *domain.ConflictError
	assert.ErrorAs(t, err, &conflict)
}

func TestGroupRepo_LevelsRoundTrip(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	g, err := s.Groups.Create(ctx, &domain.Group{
		Label:          "support",
		AccessLevelIDs: []string{"lvl-a", "lvl-b"},
		Levels:         domain.PermissionMap{"dom-1": 100, "dom-2": 400},
	})
	require.NoError(t, err)

	found, err := s.Groups.GetByID(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"lvl-a", "lvl-b"}, found.AccessLevelIDs)
	assert.Equal(t, domain.PermissionMap{"dom-1": 100, "dom-2": 400}, found.Levels)
}

func TestGroupRepo_ListReferencingLevel(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	a, err := s.Groups.Create(ctx, &domain.Group{Label: "a", AccessLevelIDs: []string{"lvl-x", "lvl-y"}})
	require.NoError(t, err)
	_, err = s.Groups.Create(ctx, &domain.Group{Label: "b", AccessLevelIDs: []string{"lvl-y"}})
	require.NoError(t, err)
	_, err = s.Groups.Create(ctx, &domain.Group{Label: "c"})
	require.NoError(t, err)

	refs, err := s.Groups.ListReferencingLevel(ctx, "lvl-x")
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, a.ID, refs[0].ID)

	refs, err = s.Groups.ListReferencingLevel(ctx, "lvl-y")
	require.NoError(t, err)
	assert.Len(t, refs, 2)
}

func TestUserRepo_GetOrCreate_Concurrent(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	first, err := s.Users.GetOrCreate(ctx, &domain.User{AccountID: "acct-1"})
	require.NoError(t, err)
	second, err := s.Users.GetOrCreate(ctx, &domain.User{AccountID: "acct-1"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestUserRepo_ListReferencingGroup(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	u := &domain.User{
		AccountID: "acct-1",
		Groups:    []domain.GroupMembership{{GroupID: "grp-1"}, {GroupID: "grp-2"}},
	}
	u.GroupIDs = u.DedupedGroupIDs()
	_, err := s.Users.GetOrCreate(ctx, u)
	require.NoError(t, err)

	refs, err := s.Users.ListReferencingGroup(ctx, "grp-1")
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "acct-1", refs[0].AccountID)

	refs, err = s.Users.ListReferencingGroup(ctx, "grp-3")
	require.NoError(t, err)
	assert.Empty(t, refs)
}

func TestRouteRepo_GetByPaths(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	p, err := s.Projects.Create(ctx, &domain.Project{Name: "shop"})
	require.NoError(t, err)
	other, err := s.Projects.Create(ctx, &domain.Project{Name: "other"})
	require.NoError(t, err)

	for _, path := range []string{"orders/list", "orders/get"} {
		_, err := s.Routes.Create(ctx, &domain.Route{ProjectID: p.ID, Path: path})
		require.NoError(t, err)
	}
	// Same path under another project must not leak into the result.
	_, err = s.Routes.Create(ctx, &domain.Route{ProjectID: other.ID, Path: "orders/list"})
	require.NoError(t, err)

	routes, err := s.Routes.GetByPaths(ctx, p.ID, []string{"orders/list", "orders/missing"})
	require.NoError(t, err)
	require.Len(t, routes, 1)
	assert.Equal(t, p.ID, routes[0].ProjectID)
	assert.Equal(t, "orders/list", routes[0].Path)
}

func TestStore_InTx_RollsBackOnError(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := s.InTx(ctx, func(tx *Store) error {
		if _, err := tx.Projects.Create(ctx, &domain.Project{Name: "doomed"}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	projects, err := s.Projects.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, projects)
}

func TestStore_InTx_NestedReusesTransaction(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	err := s.InTx(ctx, func(tx *Store) error {
		return tx.InTx(ctx, func(inner *Store) error {
			_, err := inner.Projects.Create(ctx, &domain.Project{Name: "nested"})
			return err
		})
	})
	require.NoError(t, err)

	projects, err := s.Projects.List(ctx)
	require.NoError(t, err)
	assert.Len(t, projects, 1)
}

func TestSessionRepo_DeleteForAccounts(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	require.NoError(t, s.Sessions.Insert(ctx, &domain.Session{Token: "t1", AccountID: "acct-1"}))
	require.NoError(t, s.Sessions.Insert(ctx, &domain.Session{Token: "t2", AccountID: "acct-1"}))
	require.NoError(t, s.Sessions.Insert(ctx, &domain.Session{Token: "t3", AccountID: "acct-2"}))

	require.NoError(t, s.Sessions.DeleteForAccounts(ctx, []string{"acct-1"}))

	var notFound *domain.NotFoundError
	_, err := s.Sessions.GetByToken(ctx, "t1")
	assert.ErrorAs(t, err, &notFound)
	_, err = s.Sessions.GetByToken(ctx, "t2")
	assert.ErrorAs(t, err, &notFound)
	_, err = s.Sessions.GetByToken(ctx, "t3")
	assert.NoError(t, err)
}
