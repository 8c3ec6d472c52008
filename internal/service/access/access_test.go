package access

import (
	"context"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internaldb "permtier/internal/db"
	"permtier/internal/db/repository"
	"permtier/internal/domain"
)

// captureInvalidator records which accounts had snapshots evicted.
type captureInvalidator struct {
	evicted []string
}

func (c *captureInvalidator) Evict(accountIDs ...string) {
	c.evicted = append(c.evicted, accountIDs...)
}

type fixture struct {
	store *repository.Store
	inval *captureInvalidator

	projects *ProjectService
	domains  *DomainService
	levels   *AccessLevelService
	groups   *GroupService
	routes   *RouteService
	users    *UserService

	project *domain.Project
	dom     *domain.Domain
}

func setupFixture(t *testing.T) *fixture {
	t.Helper()
	writeDB, _ := internaldb.OpenTestSQLite(t)
	store := repository.NewStore(writeDB)
	inval := &captureInvalidator{}

	f := &fixture{
		store:    store,
		inval:    inval,
		projects: NewProjectService(store),
		domains:  NewDomainService(store),
		levels:   NewAccessLevelService(store, inval, nil),
		groups:   NewGroupService(store, inval, nil),
		routes:   NewRouteService(store, nil),
		users:    NewUserService(store, inval, nil, nil),
	}

	ctx := context.Background()
	p, err := f.projects.Create(ctx, domain.CreateProjectRequest{Name: "shop"})
	require.NoError(t, err)
	f.project = p

	d, err := f.domains.Create(ctx, domain.CreateDomainRequest{ProjectID: p.ID, Namespace: "orders"})
	require.NoError(t, err)
	f.dom = d

	return f
}

func (f *fixture) createLevel(t *testing.T, domainID, name string, value int64) *domain.AccessLevel {
	t.Helper()
	l, err := f.levels.Create(context.Background(), domain.CreateAccessLevelRequest{
		DomainID: domainID, Name: name, Value: value,
	})
	require.NoError(t, err)
	return l
}

func (f *fixture) createGroup(t *testing.T, label string, levelIDs ...string) *domain.Group {
	t.Helper()
	g, err := f.groups.Create(context.Background(), domain.CreateGroupRequest{
		Label: label, AccessLevelIDs: levelIDs,
	})
	require.NoError(t, err)
	return g
}

func (f *fixture) createUser(t *testing.T, accountID string, groupIDs ...string) *domain.User {
	t.Helper()
	ctx := context.Background()
	u, err := f.users.GetOrCreate(ctx, accountID)
	require.NoError(t, err)
	if len(groupIDs) == 0 {
		return u
	}
	u.Groups = nil
	for _, gid := range groupIDs {
		u.Groups = append(u.Groups, domain.GroupMembership{GroupID: gid})
	}
	u, err = f.users.Update(ctx, u)
	require.NoError(t, err)
	return u
}

func TestGroupCreate_DerivesLevelsMap(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	d2, err := f.domains.Create(ctx, domain.CreateDomainRequest{ProjectID: f.project.ID, Namespace: "billing"})
	require.NoError(t, err)

	viewer := f.createLevel(t, f.dom.ID, "viewer", 100)
	billing := f.createLevel(t, d2.ID, "manager", 400)

	g := f.createGroup(t, "support", viewer.ID, billing.ID)
	assert.Equal(t, domain.PermissionMap{f.dom.ID: 100, d2.ID: 400}, g.Levels)

	// Derived map survives a round trip through the store.
	found, err := f.groups.GetByID(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, g.Levels, found.Levels)
}

func TestGroupCreate_RejectsTwoLevelsInOneDomain(t *testing.T) {
	f := setupFixture(t)

	viewer := f.createLevel(t, f.dom.ID, "viewer", 100)
	admin := f.createLevel(t, f.dom.ID, "admin", 1000)

	_, err := f.groups.Create(context.Background(), domain.CreateGroupRequest{
		Label: "broken", AccessLevelIDs: []string{viewer.ID, admin.ID},
	})
	require.Error(t, err)
	var conflict *domain.ConflictError
	assert.ErrorAs(t, err, &conflict)
	assert.Contains(t, err.Error(), f.dom.ID)
}

func TestGroupUpdate_RechecksInvariantAndInvalidates(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	viewer := f.createLevel(t, f.dom.ID, "viewer", 100)
	admin := f.createLevel(t, f.dom.ID, "admin", 1000)
	g := f.createGroup(t, "support", viewer.ID)
	f.createUser(t, "acct-1", g.ID)
	f.inval.evicted = nil

	// Duplicate domain reintroduced on update is rejected.
	_, err := f.groups.Update(ctx, domain.UpdateGroupRequest{
		ID: g.ID, Label: "support", AccessLevelIDs: []string{viewer.ID, admin.ID},
	})
	var conflict *domain.ConflictError
	assert.ErrorAs(t, err, &conflict)

	// A valid update evicts the member's snapshot.
	updated, err := f.groups.Update(ctx, domain.UpdateGroupRequest{
		ID: g.ID, Label: "support", AccessLevelIDs: []string{admin.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.PermissionMap{f.dom.ID: 1000}, updated.Levels)
	assert.Contains(t, f.inval.evicted, "acct-1")
}

func TestGroupCreate_UnknownLevelNotFound(t *testing.T) {
	f := setupFixture(t)

	_, err := f.groups.Create(context.Background(), domain.CreateGroupRequest{
		Label: "ghost", AccessLevelIDs: []string{"no-such-level"},
	})
	require.Error(t, err)
	var notFound *domain.NotFoundError
	assert.ErrorAs(t, err, &notFound)
	assert.Contains(t, err.Error(), "no-such-level")
}

func TestAccessLevel_UniqueNameAndValuePerDomain(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	f.createLevel(t, f.dom.ID, "viewer", 100)

	var conflict *domain.ConflictError
	_, err := f.levels.Create(ctx, domain.CreateAccessLevelRequest{
		DomainID: f.dom.ID, Name: "viewer", Value: 200,
	})
	assert.ErrorAs(t, err, &conflict)

	_, err = f.levels.Create(ctx, domain.CreateAccessLevelRequest{
		DomainID: f.dom.ID, Name: "other", Value: 100,
	})
	assert.ErrorAs(t, err, &conflict)

	// Same name and value are fine in a sibling domain.
	d2, err := f.domains.Create(ctx, domain.CreateDomainRequest{ProjectID: f.project.ID, Namespace: "billing"})
	require.NoError(t, err)
	_, err = f.levels.Create(ctx, domain.CreateAccessLevelRequest{
		DomainID: d2.ID, Name: "viewer", Value: 100,
	})
	assert.NoError(t, err)
}

func TestAccessLevelUpdate_ValueCascades(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	editor := f.createLevel(t, f.dom.ID, "editor", 200)
	g := f.createGroup(t, "editors", editor.ID)
	f.createUser(t, "acct-editor", g.ID)

	rt, err := f.routes.Create(ctx, domain.CreateRouteRequest{
		ProjectID: f.project.ID, Path: "orders/update", AccessLevelIDs: []string{editor.ID},
	})
	require.NoError(t, err)

	// Simulate a live session for the member.
	require.NoError(t, f.store.Sessions.Insert(ctx, &domain.Session{
		Token: "tok-editor", AccountID: "acct-editor",
		ExpiresAt: time.Now().Add(time.Hour),
	}))
	f.inval.evicted = nil

	_, err = f.levels.Update(ctx, domain.UpdateAccessLevelRequest{
		ID: editor.ID, Name: "editor", Value: 350,
	})
	require.NoError(t, err)

	// Group and route derived maps both carry the new value.
	gotGroup, err := f.groups.GetByID(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(350), gotGroup.Levels[f.dom.ID])

	gotRoute, err := f.routes.GetByID(ctx, rt.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(350), gotRoute.AccessLevels[f.dom.ID])

	// Member's session row is gone and the snapshot was evicted.
	_, err = f.store.Sessions.GetByToken(ctx, "tok-editor")
	var notFound *domain.NotFoundError
	assert.ErrorAs(t, err, &notFound)
	assert.Contains(t, f.inval.evicted, "acct-editor")
}

func TestAccessLevelUpdate_RenameDoesNotCascade(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	editor := f.createLevel(t, f.dom.ID, "editor", 200)
	g := f.createGroup(t, "editors", editor.ID)
	f.createUser(t, "acct-editor", g.ID)

	require.NoError(t, f.store.Sessions.Insert(ctx, &domain.Session{
		Token: "tok-rename", AccountID: "acct-editor",
		ExpiresAt: time.Now().Add(time.Hour),
	}))
	f.inval.evicted = nil

	_, err := f.levels.Update(ctx, domain.UpdateAccessLevelRequest{
		ID: editor.ID, Name: "reviewer", Value: 200,
	})
	require.NoError(t, err)

	// Same value: session survives, nothing evicted.
	_, err = f.store.Sessions.GetByToken(ctx, "tok-rename")
	assert.NoError(t, err)
	assert.Empty(t, f.inval.evicted)
}

func TestAccessLevelDelete_GuardedWhileReferenced(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	editor := f.createLevel(t, f.dom.ID, "editor", 200)
	g := f.createGroup(t, "editors", editor.ID)

	err := f.levels.Delete(ctx, editor.ID)
	require.Error(t, err)
	var denied *domain.AccessDeniedError
	assert.ErrorAs(t, err, &denied)
	assert.Contains(t, err.Error(), g.ID)

	// Detach strips the reference and recomputes the group map.
	require.NoError(t, f.levels.Detach(ctx, editor.ID))
	gotGroup, err := f.groups.GetByID(ctx, g.ID)
	require.NoError(t, err)
	assert.Empty(t, gotGroup.AccessLevelIDs)
	assert.NotContains(t, gotGroup.Levels, f.dom.ID)

	assert.NoError(t, f.levels.Delete(ctx, editor.ID))
}

func TestAccessLevelDetach_RouteKeepsOtherSameDomainLevel(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	low := f.createLevel(t, f.dom.ID, "low", 100)
	high := f.createLevel(t, f.dom.ID, "high", 400)

	rt, err := f.routes.Create(ctx, domain.CreateRouteRequest{
		ProjectID: f.project.ID, Path: "orders/export",
		AccessLevelIDs: []string{low.ID, high.ID},
	})
	require.NoError(t, err)
	require.Equal(t, domain.PermissionMap{f.dom.ID: 400}, rt.AccessLevels)

	// Detaching the lower level must not erase the requirement the remaining
	// level still imposes for the domain.
	require.NoError(t, f.levels.Detach(ctx, low.ID))
	got, err := f.routes.GetByID(ctx, rt.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{high.ID}, got.AccessLevelIDs)
	assert.Equal(t, domain.PermissionMap{f.dom.ID: 400}, got.AccessLevels)

	// Detaching the last one leaves the route unrestricted.
	require.NoError(t, f.levels.Detach(ctx, high.ID))
	got, err = f.routes.GetByID(ctx, rt.ID)
	require.NoError(t, err)
	assert.Empty(t, got.AccessLevelIDs)
	assert.Empty(t, got.AccessLevels)
}

func TestProjectAndDomainDelete_Guards(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	var denied *domain.AccessDeniedError

	// Project blocked by its domain.
	err := f.projects.Delete(ctx, f.project.ID)
	assert.ErrorAs(t, err, &denied)

	// Domain blocked by its level.
	lvl := f.createLevel(t, f.dom.ID, "viewer", 100)
	err = f.domains.Delete(ctx, f.dom.ID)
	assert.ErrorAs(t, err, &denied)

	require.NoError(t, f.levels.Delete(ctx, lvl.ID))
	require.NoError(t, f.domains.Delete(ctx, f.dom.ID))
	require.NoError(t, f.projects.Delete(ctx, f.project.ID))
}

func TestGroupDelete_GuardedWhileUsersReference(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	g := f.createGroup(t, "support")
	u := f.createUser(t, "acct-member", g.ID)

	err := f.groups.Delete(ctx, g.ID)
	var denied *domain.AccessDeniedError
	require.ErrorAs(t, err, &denied)
	assert.Contains(t, err.Error(), u.ID)

	u.Groups = nil
	_, err = f.users.Update(ctx, u)
	require.NoError(t, err)
	assert.NoError(t, f.groups.Delete(ctx, g.ID))
}

func TestUserGetOrCreate_Idempotent(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	first, err := f.users.GetOrCreate(ctx, "acct-new")
	require.NoError(t, err)
	second, err := f.users.GetOrCreate(ctx, "acct-new")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	all, err := f.users.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestUserGetOrCreate_DefaultGroups(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	g := f.createGroup(t, "everyone")
	users := NewUserService(f.store, f.inval, []string{g.ID}, nil)

	u, err := users.GetOrCreate(ctx, "acct-default")
	require.NoError(t, err)
	assert.Equal(t, []string{g.ID}, u.GroupIDs)

	// Unknown default groups surface as a conflict, not a silent drop.
	broken := NewUserService(f.store, f.inval, []string{"no-such-group"}, nil)
	_, err = broken.GetOrCreate(ctx, "acct-broken")
	var conflict *domain.ConflictError
	assert.ErrorAs(t, err, &conflict)
}

func TestAssignPermissions_DelegationCeiling(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	viewer := f.createLevel(t, f.dom.ID, "viewer", 100)
	manager := f.createLevel(t, f.dom.ID, "manager", 400)

	gViewer := f.createGroup(t, "viewers", viewer.ID)
	gManager := f.createGroup(t, "managers", manager.ID)

	f.createUser(t, "acct-requester", gViewer.ID)
	target := f.createUser(t, "acct-target")

	// Requester holds 100 in the domain; granting a 400 group is denied.
	err := f.users.AssignPermissions(ctx, "acct-requester", []string{"acct-target"}, []string{gManager.ID})
	require.Error(t, err)
	var denied *domain.AccessDeniedError
	assert.ErrorAs(t, err, &denied)
	assert.Contains(t, err.Error(), f.dom.ID)

	// Denial left the target untouched.
	got, err := f.users.GetByAccountID(ctx, target.AccountID)
	require.NoError(t, err)
	assert.Empty(t, got.GroupIDs)

	// Granting at or below the ceiling succeeds.
	err = f.users.AssignPermissions(ctx, "acct-requester", []string{"acct-target"}, []string{gViewer.ID})
	require.NoError(t, err)
	got, err = f.users.GetByAccountID(ctx, target.AccountID)
	require.NoError(t, err)
	assert.Equal(t, []string{gViewer.ID}, got.GroupIDs)
}

func TestAssignPermissions_ZeroValueLevelStillNeedsAccess(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	none := f.createLevel(t, f.dom.ID, "none", 0)
	gNone := f.createGroup(t, "zeroes", none.ID)

	f.createUser(t, "acct-requester")
	target := f.createUser(t, "acct-target")

	// The requester holds nothing in the domain, so even a value-0 grant is
	// above its ceiling.
	err := f.users.AssignPermissions(ctx, "acct-requester", []string{"acct-target"}, []string{gNone.ID})
	var denied *domain.AccessDeniedError
	require.ErrorAs(t, err, &denied)
	assert.Contains(t, err.Error(), f.dom.ID)

	got, err := f.users.GetByAccountID(ctx, target.AccountID)
	require.NoError(t, err)
	assert.Empty(t, got.GroupIDs)

	// Holding the zero level is enough to delegate it.
	f.createUser(t, "acct-holder", gNone.ID)
	require.NoError(t, f.users.AssignPermissions(ctx, "acct-holder",
		[]string{"acct-target"}, []string{gNone.ID}))
}

func TestAssignPermissions_NoPartialApplication(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	viewer := f.createLevel(t, f.dom.ID, "viewer", 100)
	manager := f.createLevel(t, f.dom.ID, "manager", 400)
	gViewer := f.createGroup(t, "viewers", viewer.ID)
	gManager := f.createGroup(t, "managers", manager.ID)

	f.createUser(t, "acct-requester", gViewer.ID)
	f.createUser(t, "acct-a")
	f.createUser(t, "acct-b")

	// One group above the ceiling poisons the whole batch.
	err := f.users.AssignPermissions(ctx, "acct-requester",
		[]string{"acct-a", "acct-b"}, []string{gViewer.ID, gManager.ID})
	var denied *domain.AccessDeniedError
	require.ErrorAs(t, err, &denied)

	for _, acct := range []string{"acct-a", "acct-b"} {
		u, err := f.users.GetByAccountID(ctx, acct)
		require.NoError(t, err)
		assert.Empty(t, u.GroupIDs)
	}
}

func TestAssignPermissions_Validation(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	var validation *domain.ValidationError
	err := f.users.AssignPermissions(ctx, "acct-requester", nil, nil)
	assert.ErrorAs(t, err, &validation)

	f.createUser(t, "acct-requester")
	err = f.users.AssignPermissions(ctx, "acct-requester", []string{"acct-ghost"}, nil)
	var notFound *domain.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Contains(t, err.Error(), "acct-ghost")
}

func TestAssignPermissions_InvalidatesTargetSessions(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	viewer := f.createLevel(t, f.dom.ID, "viewer", 100)
	gViewer := f.createGroup(t, "viewers", viewer.ID)
	f.createUser(t, "acct-requester", gViewer.ID)
	f.createUser(t, "acct-target")

	require.NoError(t, f.store.Sessions.Insert(ctx, &domain.Session{
		Token: "tok-target", AccountID: "acct-target",
		ExpiresAt: time.Now().Add(time.Hour),
	}))
	f.inval.evicted = nil

	require.NoError(t, f.users.AssignPermissions(ctx, "acct-requester",
		[]string{"acct-target"}, []string{gViewer.ID}))

	_, err := f.store.Sessions.GetByToken(ctx, "tok-target")
	var notFound *domain.NotFoundError
	assert.ErrorAs(t, err, &notFound)
	assert.Contains(t, f.inval.evicted, "acct-target")
}

func TestEffectivePermissions_LastMembershipWins(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	viewer := f.createLevel(t, f.dom.ID, "viewer", 100)
	admin := f.createLevel(t, f.dom.ID, "admin", 1000)
	gViewer := f.createGroup(t, "viewers", viewer.ID)
	gAdmin := f.createGroup(t, "admins", admin.ID)

	f.createUser(t, "acct-both", gViewer.ID, gAdmin.ID)

	eng := NewEngine(f.store, false, nil, nil)
	perms, err := eng.EffectivePermissions(ctx, "acct-both")
	require.NoError(t, err)
	assert.Equal(t, domain.PermissionMap{f.dom.ID: 1000}, perms)

	// Reversed order: the viewer membership is listed last and wins.
	f.createUser(t, "acct-reversed", gAdmin.ID, gViewer.ID)
	perms, err = eng.EffectivePermissions(ctx, "acct-reversed")
	require.NoError(t, err)
	assert.Equal(t, domain.PermissionMap{f.dom.ID: 100}, perms)
}

func TestEffectivePermissions_UnknownAccountIsEmpty(t *testing.T) {
	f := setupFixture(t)

	eng := NewEngine(f.store, false, nil, nil)
	perms, err := eng.EffectivePermissions(context.Background(), "acct-nobody")
	require.NoError(t, err)
	assert.Empty(t, perms)
}

func TestAssertPermissions_Conjunction(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	d2, err := f.domains.Create(ctx, domain.CreateDomainRequest{ProjectID: f.project.ID, Namespace: "billing"})
	require.NoError(t, err)

	orders := f.createLevel(t, f.dom.ID, "manager", 400)
	billing := f.createLevel(t, d2.ID, "viewer", 100)

	_, err = f.routes.Create(ctx, domain.CreateRouteRequest{
		ProjectID: f.project.ID, Path: "orders/close",
		AccessLevelIDs: []string{orders.ID, billing.ID},
	})
	require.NoError(t, err)

	eng := NewEngine(f.store, false, nil, nil)
	var denied *domain.AccessDeniedError

	// Below the required value in one domain.
	err = eng.AssertPermissions(ctx, domain.PermissionMap{f.dom.ID: 100, d2.ID: 100}, f.project.ID, "orders/close")
	assert.ErrorAs(t, err, &denied)

	// Missing a required domain entirely.
	err = eng.AssertPermissions(ctx, domain.PermissionMap{f.dom.ID: 1000}, f.project.ID, "orders/close")
	assert.ErrorAs(t, err, &denied)

	// Every domain at or above its requirement.
	err = eng.AssertPermissions(ctx, domain.PermissionMap{f.dom.ID: 1000, d2.ID: 100}, f.project.ID, "orders/close")
	assert.NoError(t, err)
}

func TestAssertPermissions_NormalizesPath(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	manager := f.createLevel(t, f.dom.ID, "manager", 400)
	_, err := f.routes.Create(ctx, domain.CreateRouteRequest{
		ProjectID: f.project.ID, Path: "orders/list", AccessLevelIDs: []string{manager.ID},
	})
	require.NoError(t, err)

	eng := NewEngine(f.store, false, nil, nil)
	var denied *domain.AccessDeniedError
	err = eng.AssertPermissions(ctx, domain.PermissionMap{}, f.project.ID, "/orders/list?page=2")
	assert.ErrorAs(t, err, &denied)
}

func TestAssertPermissions_StrictMode(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	perms := domain.PermissionMap{}

	open := NewEngine(f.store, false, nil, nil)
	assert.NoError(t, open.AssertPermissions(ctx, perms, f.project.ID, "never/registered"))

	strict := NewEngine(f.store, true, nil, nil)
	err := strict.AssertPermissions(ctx, perms, f.project.ID, "never/registered")
	var denied *domain.AccessDeniedError
	require.ErrorAs(t, err, &denied)
	assert.Contains(t, err.Error(), "never/registered")
}

func TestAssertPermissions_BareRouteAllowsAll(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	require.NoError(t, f.routes.Register(ctx, f.project.ID, []string{"public/ping"}))

	strict := NewEngine(f.store, true, nil, nil)
	assert.NoError(t, strict.AssertPermissions(ctx, domain.PermissionMap{}, f.project.ID, "public/ping"))
}

func TestRoutesDetails_ResolvesLevels(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	manager := f.createLevel(t, f.dom.ID, "manager", 400)
	_, err := f.routes.Create(ctx, domain.CreateRouteRequest{
		ProjectID: f.project.ID, Path: "orders/list", AccessLevelIDs: []string{manager.ID},
	})
	require.NoError(t, err)

	eng := NewEngine(f.store, false, nil, nil)
	details, err := eng.RoutesDetails(ctx, f.project.ID, []string{"/orders/list", "unknown/path"})
	require.NoError(t, err)
	require.Len(t, details, 1)

	d, ok := details["orders/list"]
	require.True(t, ok)
	require.Len(t, d.Levels, 1)
	assert.Equal(t, manager.ID, d.Levels[0].ID)
	assert.Equal(t, int64(400), d.Route.AccessLevels[f.dom.ID])

	single, err := eng.RouteDetailsByPath(ctx, f.project.ID, "/orders/list")
	require.NoError(t, err)
	assert.Equal(t, d.Route.ID, single.Route.ID)

	_, err = eng.RouteDetailsByPath(ctx, f.project.ID, "unknown/path")
	var notFound *domain.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestFilterSyncableCollections(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	manager := f.createLevel(t, f.dom.ID, "manager", 400)
	_, err := f.routes.Create(ctx, domain.CreateRouteRequest{
		ProjectID: f.project.ID, Path: "query/orders", AccessLevelIDs: []string{manager.ID},
	})
	require.NoError(t, err)

	open := NewEngine(f.store, false, nil, nil)
	strict := NewEngine(f.store, true, nil, nil)

	// Below the requirement: "orders" filtered out. "notes" has no route, so
	// open mode passes it through and strict mode hides it.
	got, err := open.FilterSyncableCollections(ctx, domain.PermissionMap{f.dom.ID: 100}, f.project.ID,
		[]string{"orders", "notes"})
	require.NoError(t, err)
	assert.Equal(t, []string{"notes"}, got)

	got, err = strict.FilterSyncableCollections(ctx, domain.PermissionMap{f.dom.ID: 100}, f.project.ID,
		[]string{"orders", "notes"})
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = strict.FilterSyncableCollections(ctx, domain.PermissionMap{f.dom.ID: 400}, f.project.ID,
		[]string{"orders", "notes"})
	require.NoError(t, err)
	assert.Equal(t, []string{"orders"}, got)
}

func TestRouteRegister_Idempotent(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	manager := f.createLevel(t, f.dom.ID, "manager", 400)

	require.NoError(t, f.routes.Register(ctx, f.project.ID, []string{"orders/list", "orders/get"}))

	// Configure a requirement on one of the discovered routes.
	rts, err := f.routes.ListByProject(ctx, f.project.ID)
	require.NoError(t, err)
	require.Len(t, rts, 2)
	var listRoute *domain.Route
	for i := range rts {
		if rts[i].Path == "orders/list" {
			listRoute = &rts[i]
		}
	}
	require.NotNil(t, listRoute)
	_, err = f.routes.Update(ctx, domain.UpdateRouteRequest{
		ID: listRoute.ID, Path: listRoute.Path, AccessLevelIDs: []string{manager.ID},
	})
	require.NoError(t, err)

	// Re-registering must not clobber the configured requirement or duplicate.
	require.NoError(t, f.routes.Register(ctx, f.project.ID, []string{"/orders/list?x=1", "orders/get", "orders/new"}))

	rts, err = f.routes.ListByProject(ctx, f.project.ID)
	require.NoError(t, err)
	assert.Len(t, rts, 3)

	got, err := f.routes.GetByID(ctx, listRoute.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(400), got.AccessLevels[f.dom.ID])
}

func TestRouteCreate_DuplicatePathConflict(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	_, err := f.routes.Create(ctx, domain.CreateRouteRequest{ProjectID: f.project.ID, Path: "orders/list"})
	require.NoError(t, err)

	_, err = f.routes.Create(ctx, domain.CreateRouteRequest{ProjectID: f.project.ID, Path: "/orders/list"})
	var conflict *domain.ConflictError
	assert.ErrorAs(t, err, &conflict)
}

func TestRouteCreate_DuplicateLevelIDsRejected(t *testing.T) {
	f := setupFixture(t)

	manager := f.createLevel(t, f.dom.ID, "manager", 400)
	_, err := f.routes.Create(context.Background(), domain.CreateRouteRequest{
		ProjectID: f.project.ID, Path: "orders/list",
		AccessLevelIDs: []string{manager.ID, manager.ID},
	})
	var conflict *domain.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Contains(t, err.Error(), manager.ID)
}

func TestDomainUpdate_NamespaceConflict(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	d2, err := f.domains.Create(ctx, domain.CreateDomainRequest{ProjectID: f.project.ID, Namespace: "billing"})
	require.NoError(t, err)

	_, err = f.domains.Update(ctx, domain.UpdateDomainRequest{ID: d2.ID, Namespace: "orders"})
	var conflict *domain.ConflictError
	assert.ErrorAs(t, err, &conflict)

	// Renaming to its own namespace is not a conflict.
	_, err = f.domains.Update(ctx, domain.UpdateDomainRequest{ID: d2.ID, Namespace: "billing"})
	assert.NoError(t, err)
}
