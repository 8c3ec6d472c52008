package access

import (
	"context"
	"log/slog"
	"strings"

	"permtier/internal/db/repository"
	"permtier/internal/domain"
)

// RouteService provides route-registration management. A route's derived
// requirement map may span multiple domains, unlike a group's.
type RouteService struct {
	store  *repository.Store
	logger *slog.Logger
}

// NewRouteService creates a new RouteService.
func NewRouteService(store *repository.Store, logger *slog.Logger) *RouteService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RouteService{store: store, logger: logger}
}

// Create validates and persists a new route registration.
func (s *RouteService) Create(ctx context.Context, req domain.CreateRouteRequest) (*domain.Route, error) {
	path := domain.NormalizePath(req.Path)
	if path == "" {
		return nil, domain.ErrValidation("route path is required")
	}

	var created *domain.Route
	err := s.store.InTx(ctx, func(tx *repository.Store) error {
		if _, err := tx.Projects.GetByID(ctx, req.ProjectID); err != nil {
			if isNotFound(err) {
				return domain.ErrNotFound("project %s not found", req.ProjectID)
			}
			return err
		}

		levels, err := s.validateLevelSet(ctx, tx, req.AccessLevelIDs)
		if err != nil {
			return err
		}

		created, err = tx.Routes.Create(ctx, &domain.Route{
			ProjectID:      req.ProjectID,
			Path:           path,
			AccessLevelIDs: req.AccessLevelIDs,
			AccessLevels:   levels,
			UpdatedBy:      callerAccount(ctx),
		})
		return err
	})
	return created, err
}

// Update modifies a route registration and recomputes its requirement map.
func (s *RouteService) Update(ctx context.Context, req domain.UpdateRouteRequest) (*domain.Route, error) {
	path := domain.NormalizePath(req.Path)
	if path == "" {
		return nil, domain.ErrValidation("route path is required")
	}

	var updated *domain.Route
	err := s.store.InTx(ctx, func(tx *repository.Store) error {
		rt, err := tx.Routes.GetByID(ctx, req.ID)
		if err != nil {
			return err
		}

		levels, err := s.validateLevelSet(ctx, tx, req.AccessLevelIDs)
		if err != nil {
			return err
		}

		rt.Path = path
		rt.AccessLevelIDs = req.AccessLevelIDs
		rt.AccessLevels = levels
		rt.UpdatedBy = callerAccount(ctx)
		updated, err = tx.Routes.Update(ctx, rt)
		return err
	})
	return updated, err
}

// GetByID returns a route by id.
func (s *RouteService) GetByID(ctx context.Context, id string) (*domain.Route, error) {
	return s.store.Routes.GetByID(ctx, id)
}

// ListByProject returns the routes registered under a project.
func (s *RouteService) ListByProject(ctx context.Context, projectID string) ([]domain.Route, error) {
	return s.store.Routes.ListByProject(ctx, projectID)
}

// Delete removes a route registration.
func (s *RouteService) Delete(ctx context.Context, id string) error {
	return s.store.InTx(ctx, func(tx *repository.Store) error {
		if _, err := tx.Routes.GetByID(ctx, id); err != nil {
			return err
		}
		return tx.Routes.Delete(ctx, id)
	})
}

// Register bulk-inserts bare registrations for every path not already known
// under the project. Existing paths are left untouched, so route discovery
// can run on every deploy without clobbering configured requirements.
func (s *RouteService) Register(ctx context.Context, projectID string, paths []string) error {
	normalized := make([]string, 0, len(paths))
	for _, p := range paths {
		if n := domain.NormalizePath(p); n != "" {
			normalized = append(normalized, n)
		}
	}
	normalized = dedupeStrings(normalized)
	if len(normalized) == 0 {
		return nil
	}

	return s.store.InTx(ctx, func(tx *repository.Store) error {
		if _, err := tx.Projects.GetByID(ctx, projectID); err != nil {
			if isNotFound(err) {
				return domain.ErrNotFound("project %s not found", projectID)
			}
			return err
		}

		existing, err := tx.Routes.GetByPaths(ctx, projectID, normalized)
		if err != nil {
			return err
		}
		known := make(map[string]bool, len(existing))
		for _, rt := range existing {
			known[rt.Path] = true
		}

		inserted := 0
		for _, path := range normalized {
			if known[path] {
				continue
			}
			if _, err := tx.Routes.Create(ctx, &domain.Route{
				ProjectID: projectID,
				Path:      path,
				UpdatedBy: callerAccount(ctx),
			}); err != nil {
				return err
			}
			inserted++
		}
		if inserted > 0 {
			s.logger.Info("registered routes", "project_id", projectID, "new", inserted)
		}
		return nil
	})
}

// validateLevelSet rejects duplicate ids in the request itself, resolves the
// ids, and builds the derived requirement map. No single-level-per-domain
// check: a route may require levels from several domains.
func (s *RouteService) validateLevelSet(ctx context.Context, tx *repository.Store, levelIDs []string) (domain.PermissionMap, error) {
	if len(levelIDs) == 0 {
		return domain.PermissionMap{}, nil
	}

	seen := make(map[string]bool, len(levelIDs))
	var dups []string
	for _, id := range levelIDs {
		if seen[id] {
			dups = append(dups, id)
		}
		seen[id] = true
	}
	if len(dups) > 0 {
		return nil, domain.ErrConflict("duplicate access level ids: %s", strings.Join(dedupeStrings(dups), ", "))
	}

	resolved, err := resolveLevels(ctx, tx, levelIDs)
	if err != nil {
		return nil, err
	}
	return derivedLevels(resolved), nil
}
