package access

import (
	"context"
	"log/slog"
	"strings"

	"permtier/internal/db/repository"
	"permtier/internal/domain"
)

// GroupService provides group management. Groups bundle access levels with
// at most one level per domain; the derived Levels map is recomputed from
// the resolved levels on every write and never trusted from caller input.
type GroupService struct {
	store     *repository.Store
	snapshots SnapshotInvalidator
	logger    *slog.Logger
}

// NewGroupService creates a new GroupService.
func NewGroupService(store *repository.Store, snapshots SnapshotInvalidator, logger *slog.Logger) *GroupService {
	if snapshots == nil {
		snapshots = noopInvalidator{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GroupService{store: store, snapshots: snapshots, logger: logger}
}

// Create validates and persists a new group.
func (s *GroupService) Create(ctx context.Context, req domain.CreateGroupRequest) (*domain.Group, error) {
	if req.Label == "" {
		return nil, domain.ErrValidation("group label is required")
	}

	var created *domain.Group
	err := s.store.InTx(ctx, func(tx *repository.Store) error {
		levels, err := s.validateLevelSet(ctx, tx, req.AccessLevelIDs)
		if err != nil {
			return err
		}

		created, err = tx.Groups.Create(ctx, &domain.Group{
			Label:          req.Label,
			AccessLevelIDs: dedupeStrings(req.AccessLevelIDs),
			Levels:         levels,
			UpdatedBy:      callerAccount(ctx),
		})
		return err
	})
	return created, err
}

// Update modifies a group. The single-level-per-domain invariant is
// re-checked on every write, not only creation, since later edits could
// reintroduce a duplicate. Sessions of users holding the group are
// invalidated after commit.
func (s *GroupService) Update(ctx context.Context, req domain.UpdateGroupRequest) (*domain.Group, error) {
	if req.Label == "" {
		return nil, domain.ErrValidation("group label is required")
	}

	var (
		updated  *domain.Group
		affected []string
	)
	err := s.store.InTx(ctx, func(tx *repository.Store) error {
		g, err := tx.Groups.GetByID(ctx, req.ID)
		if err != nil {
			return err
		}

		levels, err := s.validateLevelSet(ctx, tx, req.AccessLevelIDs)
		if err != nil {
			return err
		}

		g.Label = req.Label
		g.AccessLevelIDs = dedupeStrings(req.AccessLevelIDs)
		g.Levels = levels
		g.UpdatedBy = callerAccount(ctx)
		if updated, err = tx.Groups.Update(ctx, g); err != nil {
			return err
		}

		affected, err = memberAccounts(ctx, tx, g.ID)
		if err != nil {
			return err
		}
		return tx.Sessions.DeleteForAccounts(ctx, affected)
	})
	if err != nil {
		return nil, err
	}
	s.snapshots.Evict(affected...)
	return updated, nil
}

// GetByID returns a group by id.
func (s *GroupService) GetByID(ctx context.Context, id string) (*domain.Group, error) {
	return s.store.Groups.GetByID(ctx, id)
}

// List returns all groups.
func (s *GroupService) List(ctx context.Context) ([]domain.Group, error) {
	return s.store.Groups.List(ctx)
}

// Delete removes a group. Fails while any user still lists the group among
// its memberships.
func (s *GroupService) Delete(ctx context.Context, id string) error {
	return s.store.InTx(ctx, func(tx *repository.Store) error {
		if _, err := tx.Groups.GetByID(ctx, id); err != nil {
			return err
		}
		if err := checkDeletable(ctx, tx, KindGroup, id); err != nil {
			return err
		}
		return tx.Groups.Delete(ctx, id)
	})
}

// validateLevelSet resolves the level ids and enforces the
// single-level-per-domain invariant, returning the derived domain→value map.
func (s *GroupService) validateLevelSet(ctx context.Context, tx *repository.Store, levelIDs []string) (domain.PermissionMap, error) {
	resolved, err := resolveLevels(ctx, tx, levelIDs)
	if err != nil {
		return nil, err
	}

	byDomain := make(map[string][]string)
	for _, l := range resolved {
		byDomain[l.DomainID] = append(byDomain[l.DomainID], l.ID)
	}
	var duplicated []string
	for domainID, ids := range byDomain {
		if len(ids) > 1 {
			duplicated = append(duplicated, domainID)
		}
	}
	if len(duplicated) > 0 {
		return nil, domain.ErrConflict("more than one access level per domain: %s",
			strings.Join(duplicated, ", "))
	}

	return derivedLevels(resolved), nil
}

// memberAccounts returns the deduplicated account ids of users referencing
// the group.
func memberAccounts(ctx context.Context, tx *repository.Store, groupID string) ([]string, error) {
	users, err := tx.Users.ListReferencingGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	accounts := make([]string, 0, len(users))
	for _, u := range users {
		accounts = append(accounts, u.AccountID)
	}
	return dedupeStrings(accounts), nil
}
