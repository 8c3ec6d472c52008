// Package session caches per-account permission snapshots for the lifetime
// of a session. Snapshots are computed once from live group state and
// dropped whenever a write-side cascade signals that the account's
// permissions may have changed.
package session

import (
	"context"
	"log/slog"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"permtier/internal/domain"
	"permtier/internal/metrics"
)

// Snapshot is the authorization data collected for an account at session
// establishment.
type Snapshot struct {
	AccountID   string
	Permissions domain.PermissionMap
	GroupIDs    []string
	IssuedAt    time.Time
}

// PermissionSource computes live authorization data for an account.
type PermissionSource interface {
	EffectivePermissions(ctx context.Context, accountID string) (domain.PermissionMap, error)
}

// Registry is the in-memory snapshot cache. The TTL is a backstop only; the
// correctness-critical freshness guarantee comes from Evict being called by
// every permission-changing write.
type Registry struct {
	cache   *lru.LRU[string, Snapshot]
	source  PermissionSource
	users   domain.UserRepository
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewRegistry creates a Registry holding up to size snapshots for at most
// ttl. m may be nil.
func NewRegistry(source PermissionSource, users domain.UserRepository, size int, ttl time.Duration, m *metrics.Metrics, logger *slog.Logger) *Registry {
	if size <= 0 {
		size = 1024
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		cache:   lru.NewLRU[string, Snapshot](size, nil, ttl),
		source:  source,
		users:   users,
		metrics: m,
		logger:  logger,
	}
}

// Snapshot returns the cached authorization data for the account, computing
// and caching it on miss.
func (r *Registry) Snapshot(ctx context.Context, accountID string) (Snapshot, error) {
	if snap, ok := r.cache.Get(accountID); ok {
		return snap, nil
	}

	perms, err := r.source.EffectivePermissions(ctx, accountID)
	if err != nil {
		return Snapshot{}, err
	}

	snap := Snapshot{
		AccountID:   accountID,
		Permissions: perms,
		IssuedAt:    time.Now().UTC(),
	}
	if u, err := r.users.GetByAccountID(ctx, accountID); err == nil {
		snap.GroupIDs = u.GroupIDs
	}

	r.cache.Add(accountID, snap)
	return snap, nil
}

// Evict drops the cached snapshots for the given accounts. Called after a
// permission-changing transaction commits.
func (r *Registry) Evict(accountIDs ...string) {
	for _, id := range accountIDs {
		if r.cache.Remove(id) {
			if r.metrics != nil {
				r.metrics.SnapshotEvictionsTotal.Inc()
			}
			r.logger.Debug("evicted permission snapshot", "account_id", id)
		}
	}
}

// EvictAll drops every cached snapshot.
func (r *Registry) EvictAll() {
	r.cache.Purge()
}
