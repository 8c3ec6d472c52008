// Package access implements the permission data model and its assertion
// engine: entity CRUD with write-time validation, cascading consistency for
// the denormalized level maps, and the read-time authorization algorithms.
package access

import (
	"context"
	"errors"
	"sort"

	"permtier/internal/domain"
)

// SnapshotInvalidator drops cached permission snapshots for the given
// accounts. Implemented by the session registry; services call it after a
// permission-changing transaction commits.
type SnapshotInvalidator interface {
	Evict(accountIDs ...string)
}

// noopInvalidator is used when no session registry is wired (tests).
type noopInvalidator struct{}

func (noopInvalidator) Evict(...string) {}

func isNotFound(err error) bool {
	var nf *domain.NotFoundError
	return errors.As(err, &nf)
}

// callerAccount returns the account id of the authenticated principal, or
// empty when the call is unauthenticated (internal callers, tests).
func callerAccount(ctx context.Context) string {
	p, _ := domain.PrincipalFromContext(ctx)
	return p.AccountID
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func dedupeStrings(ss []string) []string {
	seen := make(map[string]bool, len(ss))
	out := make([]string, 0, len(ss))
	for _, s := range ss {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
