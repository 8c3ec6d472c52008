package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"permtier/internal/domain"
)

type fakeSource struct {
	perms domain.PermissionMap
	calls int
}

func (f *fakeSource) EffectivePermissions(ctx context.Context, accountID string) (domain.PermissionMap, error) {
	f.calls++
	return f.perms.Clone(), nil
}

type fakeUserRepo struct {
	domain.UserRepository
	users map[string]*domain.User
}

func (f *fakeUserRepo) GetByAccountID(ctx context.Context, accountID string) (*domain.User, error) {
	u, ok := f.users[accountID]
	if !ok {
		return nil, domain.ErrNotFound("user %s not found", accountID)
	}
	return u, nil
}

func newTestRegistry(source *fakeSource) *Registry {
	users := &fakeUserRepo{users: map[string]*domain.User{
		"acct-1": {AccountID: "acct-1", GroupIDs: []string{"grp-1"}},
	}}
	return NewRegistry(source, users, 16, time.Minute, nil, nil)
}

func TestRegistry_SnapshotCachedUntilEvicted(t *testing.T) {
	source := &fakeSource{perms: domain.PermissionMap{"dom-1": 100}}
	r := newTestRegistry(source)
	ctx := context.Background()

	snap, err := r.Snapshot(ctx, "acct-1")
	require.NoError(t, err)
	assert.Equal(t, int64(100), snap.Permissions["dom-1"])
	assert.Equal(t, []string{"grp-1"}, snap.GroupIDs)
	assert.Equal(t, 1, source.calls)

	// Second read is served from cache even though the source changed.
	source.perms = domain.PermissionMap{"dom-1": 400}
	snap, err = r.Snapshot(ctx, "acct-1")
	require.NoError(t, err)
	assert.Equal(t, int64(100), snap.Permissions["dom-1"])
	assert.Equal(t, 1, source.calls)

	// Eviction forces a recompute from live state.
	r.Evict("acct-1")
	snap, err = r.Snapshot(ctx, "acct-1")
	require.NoError(t, err)
	assert.Equal(t, int64(400), snap.Permissions["dom-1"])
	assert.Equal(t, 2, source.calls)
}

func TestRegistry_EvictUnknownAccountIsNoop(t *testing.T) {
	source := &fakeSource{perms: domain.PermissionMap{}}
	r := newTestRegistry(source)

	r.Evict("acct-never-seen")
	assert.Equal(t, 0, source.calls)
}

func TestRegistry_SnapshotForAccountWithoutUser(t *testing.T) {
	source := &fakeSource{perms: domain.PermissionMap{}}
	r := newTestRegistry(source)

	snap, err := r.Snapshot(context.Background(), "acct-unknown")
	require.NoError(t, err)
	assert.Empty(t, snap.Permissions)
	assert.Empty(t, snap.GroupIDs)
}

func TestRegistry_EvictAll(t *testing.T) {
	source := &fakeSource{perms: domain.PermissionMap{"dom-1": 100}}
	r := newTestRegistry(source)
	ctx := context.Background()

	_, err := r.Snapshot(ctx, "acct-1")
	require.NoError(t, err)
	r.EvictAll()

	_, err = r.Snapshot(ctx, "acct-1")
	require.NoError(t, err)
	assert.Equal(t, 2, source.calls)
}
