package access

import (
	"context"
	"log/slog"

	"permtier/internal/db/repository"
	"permtier/internal/domain"
)

// AccessLevelService provides access-level management, including the
// value-change cascade that keeps every dependent group's and route's
// denormalized level map consistent.
type AccessLevelService struct {
	store     *repository.Store
	snapshots SnapshotInvalidator
	logger    *slog.Logger
}

// NewAccessLevelService creates a new AccessLevelService.
func NewAccessLevelService(store *repository.Store, snapshots SnapshotInvalidator, logger *slog.Logger) *AccessLevelService {
	if snapshots == nil {
		snapshots = noopInvalidator{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AccessLevelService{store: store, snapshots: snapshots, logger: logger}
}

// Create validates and persists a new access level. The parent domain must
// exist and both the name and the value must be unused within it.
func (s *AccessLevelService) Create(ctx context.Context, req domain.CreateAccessLevelRequest) (*domain.AccessLevel, error) {
	if req.Name == "" {
		return nil, domain.ErrValidation("access level name is required")
	}

	var created *domain.AccessLevel
	err := s.store.InTx(ctx, func(tx *repository.Store) error {
		if _, err := tx.Domains.GetByID(ctx, req.DomainID); err != nil {
			if isNotFound(err) {
				return domain.ErrNotFound("domain %s not found", req.DomainID)
			}
			return err
		}

		if err := s.checkUnique(ctx, tx, req.DomainID, "", req.Name, req.Value); err != nil {
			return err
		}

		var err error
		created, err = tx.Levels.Create(ctx, &domain.AccessLevel{
			DomainID:  req.DomainID,
			Name:      req.Name,
			Value:     req.Value,
			UpdatedBy: callerAccount(ctx),
		})
		return err
	})
	return created, err
}

// Update modifies an access level. When the value changes, every group and
// route referencing the level gets its derived map entry for the owning
// domain rewritten to the new value inside the same transaction, and the
// sessions of every affected user are invalidated. A partial cascade would
// leave authorization decisions incorrect, so the write is all-or-nothing.
func (s *AccessLevelService) Update(ctx context.Context, req domain.UpdateAccessLevelRequest) (*domain.AccessLevel, error) {
	if req.Name == "" {
		return nil, domain.ErrValidation("access level name is required")
	}

	var (
		updated  *domain.AccessLevel
		affected []string
	)
	err := s.store.InTx(ctx, func(tx *repository.Store) error {
		l, err := tx.Levels.GetByID(ctx, req.ID)
		if err != nil {
			return err
		}

		if err := s.checkUnique(ctx, tx, l.DomainID, l.ID, req.Name, req.Value); err != nil {
			return err
		}

		valueChanged := l.Value != req.Value
		l.Name = req.Name
		l.Value = req.Value
		l.UpdatedBy = callerAccount(ctx)
		if updated, err = tx.Levels.Update(ctx, l); err != nil {
			return err
		}

		if !valueChanged {
			return nil
		}
		affected, err = s.cascadeValue(ctx, tx, l)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.snapshots.Evict(affected...)
	return updated, nil
}

// GetByID returns an access level by id.
func (s *AccessLevelService) GetByID(ctx context.Context, id string) (*domain.AccessLevel, error) {
	return s.store.Levels.GetByID(ctx, id)
}

// ListByDomain returns the levels of a domain ordered by value.
func (s *AccessLevelService) ListByDomain(ctx context.Context, domainID string) ([]domain.AccessLevel, error) {
	return s.store.Levels.ListByDomain(ctx, domainID)
}

// Delete removes an access level. Fails while any group or route still
// references its id; use Detach to strip the references first.
func (s *AccessLevelService) Delete(ctx context.Context, id string) error {
	return s.store.InTx(ctx, func(tx *repository.Store) error {
		if _, err := tx.Levels.GetByID(ctx, id); err != nil {
			return err
		}
		if err := checkDeletable(ctx, tx, KindAccessLevel, id); err != nil {
			return err
		}
		return tx.Levels.Delete(ctx, id)
	})
}

// Detach removes the level's id from every group and route that references
// it, recomputing their derived maps, so the level can subsequently be
// deleted. Affected users' sessions are invalidated.
func (s *AccessLevelService) Detach(ctx context.Context, id string) error {
	var affected []string
	err := s.store.InTx(ctx, func(tx *repository.Store) error {
		l, err := tx.Levels.GetByID(ctx, id)
		if err != nil {
			return err
		}

		groups, err := tx.Groups.ListReferencingLevel(ctx, l.ID)
		if err != nil {
			return err
		}
		for i := range groups {
			g := &groups[i]
			g.AccessLevelIDs = removeID(g.AccessLevelIDs, l.ID)
			remaining, err := resolveLevels(ctx, tx, g.AccessLevelIDs)
			if err != nil {
				return err
			}
			g.Levels = derivedLevels(remaining)
			g.UpdatedBy = callerAccount(ctx)
			if _, err := tx.Groups.Update(ctx, g); err != nil {
				return err
			}
			users, err := tx.Users.ListReferencingGroup(ctx, g.ID)
			if err != nil {
				return err
			}
			for _, u := range users {
				affected = append(affected, u.AccountID)
			}
		}

		routes, err := tx.Routes.ListReferencingLevel(ctx, l.ID)
		if err != nil {
			return err
		}
		// Routes may carry several levels from one domain, so the derived map
		// is recomputed from the levels that remain rather than keyed out.
		for i := range routes {
			rt := &routes[i]
			rt.AccessLevelIDs = removeID(rt.AccessLevelIDs, l.ID)
			remaining, err := resolveLevels(ctx, tx, rt.AccessLevelIDs)
			if err != nil {
				return err
			}
			rt.AccessLevels = derivedLevels(remaining)
			rt.UpdatedBy = callerAccount(ctx)
			if _, err := tx.Routes.Update(ctx, rt); err != nil {
				return err
			}
		}

		affected = dedupeStrings(affected)
		return tx.Sessions.DeleteForAccounts(ctx, affected)
	})
	if err != nil {
		return err
	}
	s.snapshots.Evict(affected...)
	return nil
}

// cascadeValue rewrites the derived maps of every dependent of the updated
// level and collects the account ids whose sessions must be invalidated.
func (s *AccessLevelService) cascadeValue(ctx context.Context, tx *repository.Store, l *domain.AccessLevel) ([]string, error) {
	var affected []string

	groups, err := tx.Groups.ListReferencingLevel(ctx, l.ID)
	if err != nil {
		return nil, err
	}
	for i := range groups {
		g := &groups[i]
		g.Levels[l.DomainID] = l.Value
		if _, err := tx.Groups.Update(ctx, g); err != nil {
			return nil, err
		}
		users, err := tx.Users.ListReferencingGroup(ctx, g.ID)
		if err != nil {
			return nil, err
		}
		for _, u := range users {
			affected = append(affected, u.AccountID)
		}
	}

	routes, err := tx.Routes.ListReferencingLevel(ctx, l.ID)
	if err != nil {
		return nil, err
	}
	for i := range routes {
		rt := &routes[i]
		rt.AccessLevels[l.DomainID] = l.Value
		if _, err := tx.Routes.Update(ctx, rt); err != nil {
			return nil, err
		}
	}

	s.logger.Info("access level value cascade",
		"level_id", l.ID, "domain_id", l.DomainID, "value", l.Value,
		"groups", len(groups), "routes", len(routes), "users", len(affected))

	affected = dedupeStrings(affected)
	return affected, tx.Sessions.DeleteForAccounts(ctx, affected)
}

// checkUnique verifies (domainID, name) and (domainID, value) are not used
// by a record other than selfID.
func (s *AccessLevelService) checkUnique(ctx context.Context, tx *repository.Store, domainID, selfID, name string, value int64) error {
	if other, err := tx.Levels.GetByName(ctx, domainID, name); err == nil && other.ID != selfID {
		return domain.ErrConflict("access level name %q already used in domain %s", name, domainID)
	} else if err != nil && !isNotFound(err) {
		return err
	}

	if other, err := tx.Levels.GetByValue(ctx, domainID, value); err == nil && other.ID != selfID {
		return domain.ErrConflict("access level value %d already used in domain %s", value, domainID)
	} else if err != nil && !isNotFound(err) {
		return err
	}
	return nil
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
