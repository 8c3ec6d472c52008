package access

import (
	"context"
	"log/slog"

	"permtier/internal/db/repository"
	"permtier/internal/domain"
	"permtier/internal/metrics"
)

// Engine is the stateless assertion layer. Each call is a pure decision over
// the caller-supplied permission snapshot and the stored route requirements;
// denials always surface as AccessDeniedError and are never recovered here.
type Engine struct {
	store *repository.Store

	// strict denies requests for routes with no registration instead of
	// allowing them, and hides collections with no discoverable route.
	strict bool

	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewEngine creates an Engine over the given store. m may be nil.
func NewEngine(store *repository.Store, strict bool, logger *slog.Logger, m *metrics.Metrics) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: store, strict: strict, logger: logger, metrics: m}
}

// RouteDetails pairs a route registration with the concrete access-level
// records backing its requirement map.
type RouteDetails struct {
	Route  domain.Route
	Levels []domain.AccessLevel
}

// EffectivePermissions computes the account's permission map as the union,
// per domain, of the level maps of every group the user references. Where
// several groups define a level for the same domain, the membership listed
// last wins, matching the last-assigned snapshot semantics.
func (e *Engine) EffectivePermissions(ctx context.Context, accountID string) (domain.PermissionMap, error) {
	return effectivePermissions(ctx, e.store, accountID)
}

// AssertPermissions decides whether the principal's permission map satisfies
// the route registered for (projectID, path). All registered domains must
// pass; the check is a conjunction, not a best-of.
func (e *Engine) AssertPermissions(ctx context.Context, perms domain.PermissionMap, projectID, path string) error {
	err := e.assert(ctx, perms, projectID, path)
	if e.metrics != nil {
		e.metrics.RecordDecision(projectID, err == nil)
	}
	return err
}

func (e *Engine) assert(ctx context.Context, perms domain.PermissionMap, projectID, path string) error {
	normalized := domain.NormalizePath(path)

	rt, err := e.store.Routes.GetByPath(ctx, projectID, normalized)
	if err != nil {
		if !isNotFound(err) {
			return err
		}
		// No requirement registered. Open mode treats the route as
		// unrestricted; strict mode refuses to serve unregistered routes.
		if e.strict {
			e.logger.Warn("denied unregistered route", "project_id", projectID, "path", normalized)
			return domain.ErrAccessDenied("no permissions configuration specified for api %q", normalized)
		}
		return nil
	}

	if len(rt.AccessLevels) == 0 {
		return nil
	}

	for domainID, required := range rt.AccessLevels {
		have, ok := perms[domainID]
		if !ok {
			return domain.ErrAccessDenied("missing access for domain %s", domainID)
		}
		if have < required {
			return domain.ErrAccessDenied("action forbidden: domain %s requires level %d", domainID, required)
		}
	}
	return nil
}

// RouteDetailsByPath resolves a single route registration and its concrete
// access-level records.
func (e *Engine) RouteDetailsByPath(ctx context.Context, projectID, path string) (*RouteDetails, error) {
	details, err := e.RoutesDetails(ctx, projectID, []string{path})
	if err != nil {
		return nil, err
	}
	d, ok := details[domain.NormalizePath(path)]
	if !ok {
		return nil, domain.ErrNotFound("no route registered for %q", path)
	}
	return &d, nil
}

// RoutesDetails batch-resolves registrations for the given paths, keyed by
// normalized path. Paths with no registration are absent from the result.
func (e *Engine) RoutesDetails(ctx context.Context, projectID string, paths []string) (map[string]RouteDetails, error) {
	normalized := make([]string, 0, len(paths))
	for _, p := range paths {
		normalized = append(normalized, domain.NormalizePath(p))
	}

	routes, err := e.store.Routes.GetByPaths(ctx, projectID, dedupeStrings(normalized))
	if err != nil {
		return nil, err
	}

	out := make(map[string]RouteDetails, len(routes))
	for _, rt := range routes {
		levels, err := resolveByIDs(ctx, rt.AccessLevelIDs, e.store.Levels.GetByIDs,
			func(l domain.AccessLevel) string { return l.ID }, batchParallelism(e.store))
		if err != nil {
			return nil, err
		}
		d := RouteDetails{Route: rt}
		for _, id := range rt.AccessLevelIDs {
			if l, ok := levels[id]; ok {
				d.Levels = append(d.Levels, l)
			}
		}
		out[rt.Path] = d
	}
	return out, nil
}

// FilterSyncableCollections returns the subset of candidate collections the
// principal may synchronize. Each collection maps to its registered query
// route ("query/<collection>"); the same per-domain comparison as
// AssertPermissions applies. A collection with no discoverable route is
// hidden in strict mode and passed through otherwise.
func (e *Engine) FilterSyncableCollections(ctx context.Context, perms domain.PermissionMap, projectID string, collections []string) ([]string, error) {
	paths := make([]string, 0, len(collections))
	for _, c := range collections {
		paths = append(paths, queryRoutePath(c))
	}

	details, err := e.RoutesDetails(ctx, projectID, paths)
	if err != nil {
		return nil, err
	}

	allowed := make([]string, 0, len(collections))
	for _, c := range collections {
		d, ok := details[queryRoutePath(c)]
		if !ok {
			if !e.strict {
				allowed = append(allowed, c)
			}
			continue
		}
		if perms.Dominates(d.Route.AccessLevels) {
			allowed = append(allowed, c)
		}
	}
	return allowed, nil
}

func queryRoutePath(collection string) string {
	return "query/" + domain.NormalizePath(collection)
}

// effectivePermissions derives the live permission map for an account from
// its group memberships. An account with no user record has no permissions.
func effectivePermissions(ctx context.Context, s *repository.Store, accountID string) (domain.PermissionMap, error) {
	u, err := s.Users.GetByAccountID(ctx, accountID)
	if err != nil {
		if isNotFound(err) {
			return domain.PermissionMap{}, nil
		}
		return nil, err
	}

	groups, err := resolveByIDs(ctx, u.GroupIDs, s.Groups.GetByIDs,
		func(g domain.Group) string { return g.ID }, batchParallelism(s))
	if err != nil {
		return nil, err
	}

	perms := make(domain.PermissionMap)
	for _, m := range u.Groups {
		g, ok := groups[m.GroupID]
		if !ok {
			continue
		}
		for domainID, value := range g.Levels {
			perms[domainID] = value
		}
	}
	return perms, nil
}
