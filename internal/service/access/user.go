package access

import (
	"context"
	"log/slog"
	"strings"

	"permtier/internal/db/repository"
	"permtier/internal/domain"
)

// UserService provides user and permission-assignment management.
type UserService struct {
	store     *repository.Store
	snapshots SnapshotInvalidator
	logger    *slog.Logger

	// defaultGroupIDs are granted to users created on first login.
	defaultGroupIDs []string
}

// NewUserService creates a new UserService. defaultGroupIDs may be nil.
func NewUserService(store *repository.Store, snapshots SnapshotInvalidator, defaultGroupIDs []string, logger *slog.Logger) *UserService {
	if snapshots == nil {
		snapshots = noopInvalidator{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &UserService{
		store:           store,
		snapshots:       snapshots,
		logger:          logger,
		defaultGroupIDs: defaultGroupIDs,
	}
}

// GetOrCreate returns the user for the account, creating it with the
// configured default groups when absent. The underlying insert is atomic so
// concurrent first logins by the same principal produce a single user.
func (s *UserService) GetOrCreate(ctx context.Context, accountID string) (*domain.User, error) {
	if accountID == "" {
		return nil, domain.ErrValidation("account id is required")
	}

	u := &domain.User{AccountID: accountID, UpdatedBy: accountID}
	for _, gid := range s.defaultGroupIDs {
		u.Groups = append(u.Groups, domain.GroupMembership{GroupID: gid})
	}

	var out *domain.User
	err := s.store.InTx(ctx, func(tx *repository.Store) error {
		if err := s.preWrite(ctx, tx, u); err != nil {
			return err
		}
		var err error
		out, err = tx.Users.GetOrCreate(ctx, u)
		return err
	})
	return out, err
}

// GetByAccountID returns a user by external account id.
func (s *UserService) GetByAccountID(ctx context.Context, accountID string) (*domain.User, error) {
	return s.store.Users.GetByAccountID(ctx, accountID)
}

// List returns all users.
func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	return s.store.Users.List(ctx)
}

// Update rewrites a user's memberships and invalidates the account's
// sessions so the next authorization check re-derives permissions.
func (s *UserService) Update(ctx context.Context, u *domain.User) (*domain.User, error) {
	var updated *domain.User
	err := s.store.InTx(ctx, func(tx *repository.Store) error {
		if err := s.preWrite(ctx, tx, u); err != nil {
			return err
		}
		var err error
		if updated, err = tx.Users.Update(ctx, u); err != nil {
			return err
		}
		return tx.Sessions.DeleteForAccounts(ctx, []string{u.AccountID})
	})
	if err != nil {
		return nil, err
	}
	s.snapshots.Evict(u.AccountID)
	return updated, nil
}

// AssignPermissions overwrites the group set of every target user with
// exactly groupIDs, enforcing the delegation ceiling: a principal may never
// grant another principal more access, in any domain, than it currently
// holds itself. The ceiling is evaluated per domain against the requester's
// live effective permissions, never a cached snapshot.
func (s *UserService) AssignPermissions(ctx context.Context, requesterAccountID string, targetAccountIDs, groupIDs []string) error {
	if len(targetAccountIDs) == 0 {
		return domain.ErrValidation("target account ids are required")
	}
	targetAccountIDs = dedupeStrings(targetAccountIDs)

	var affected []string
	err := s.store.InTx(ctx, func(tx *repository.Store) error {
		targets, err := resolveByIDs(ctx, targetAccountIDs, tx.Users.GetByAccountIDs,
			func(u domain.User) string { return u.AccountID }, batchParallelism(tx))
		if err != nil {
			return err
		}
		if missing := missingIDs(targetAccountIDs, func(id string) bool { _, ok := targets[id]; return ok }); len(missing) > 0 {
			return domain.ErrNotFound("users not found for accounts: %s", strings.Join(missing, ", "))
		}

		groups, err := resolveGroups(ctx, tx, groupIDs)
		if err != nil {
			return err
		}

		// Highest level demanded per domain across every granted group.
		// Presence is tracked explicitly: a domain whose granted levels are
		// all zero or negative still requires the requester to hold access
		// there.
		required := make(domain.PermissionMap)
		for _, g := range groups {
			for domainID, value := range g.Levels {
				if cur, ok := required[domainID]; !ok || value > cur {
					required[domainID] = value
				}
			}
		}

		requesterPerms, err := effectivePermissions(ctx, tx, requesterAccountID)
		if err != nil {
			return err
		}

		exceeded := make(map[string]bool)
		for domainID, want := range required {
			if have, ok := requesterPerms[domainID]; !ok || have < want {
				exceeded[domainID] = true
			}
		}
		if len(exceeded) > 0 {
			return domain.ErrAccessDenied("cannot grant more access than requester holds in domains: %s",
				strings.Join(sortedKeys(exceeded), ", "))
		}

		memberships := make([]domain.GroupMembership, 0, len(groupIDs))
		for _, gid := range dedupeStrings(groupIDs) {
			memberships = append(memberships, domain.GroupMembership{GroupID: gid})
		}

		for _, accountID := range targetAccountIDs {
			u := targets[accountID]
			u.Groups = memberships
			u.GroupIDs = u.DedupedGroupIDs()
			u.UpdatedBy = requesterAccountID
			if _, err := tx.Users.Update(ctx, &u); err != nil {
				return err
			}
			affected = append(affected, accountID)
		}

		return tx.Sessions.DeleteForAccounts(ctx, affected)
	})
	if err != nil {
		return err
	}

	s.logger.Info("permissions assigned",
		"requester", requesterAccountID, "targets", len(affected), "groups", len(groupIDs))
	s.snapshots.Evict(affected...)
	return nil
}

// preWrite recomputes the deduplicated group-id projection and verifies
// every referenced group exists.
func (s *UserService) preWrite(ctx context.Context, tx *repository.Store, u *domain.User) error {
	u.GroupIDs = u.DedupedGroupIDs()
	if len(u.GroupIDs) == 0 {
		return nil
	}

	found, err := resolveByIDs(ctx, u.GroupIDs, tx.Groups.GetByIDs,
		func(g domain.Group) string { return g.ID }, batchParallelism(tx))
	if err != nil {
		return err
	}
	if missing := missingIDs(u.GroupIDs, func(id string) bool { _, ok := found[id]; return ok }); len(missing) > 0 {
		return domain.ErrConflict("unknown groups referenced: %s", strings.Join(missing, ", "))
	}
	return nil
}
