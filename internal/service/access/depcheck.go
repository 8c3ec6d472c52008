package access

import (
	"context"
	"fmt"
	"strings"

	"permtier/internal/db/repository"
	"permtier/internal/domain"
)

// Kind names an entity kind for dependency checking.
type Kind string

const (
	KindProject     Kind = "project"
	KindDomain      Kind = "domain"
	KindAccessLevel Kind = "access level"
	KindGroup       Kind = "group"
)

// dependencyCheck returns human-readable descriptions of live dependents
// that block deletion of the entity with the given id.
type dependencyCheck func(ctx context.Context, s *repository.Store, id string) ([]string, error)

// dependencyChecks maps each deletable kind to its check. Adding a new
// dependent kind is a single registration here.
var dependencyChecks = map[Kind]dependencyCheck{
	KindProject:     projectDependents,
	KindDomain:      domainDependents,
	KindAccessLevel: accessLevelDependents,
	KindGroup:       groupDependents,
}

// checkDeletable fails AccessDenied listing the blocking dependents when the
// entity is still referenced; callers must detach the references first.
func checkDeletable(ctx context.Context, s *repository.Store, kind Kind, id string) error {
	check, ok := dependencyChecks[kind]
	if !ok {
		return nil
	}
	blockers, err := check(ctx, s, id)
	if err != nil {
		return err
	}
	if len(blockers) > 0 {
		return domain.ErrAccessDenied("cannot delete %s %s: still referenced by %s",
			kind, id, strings.Join(blockers, ", "))
	}
	return nil
}

func projectDependents(ctx context.Context, s *repository.Store, id string) ([]string, error) {
	var blockers []string

	domains, err := s.Domains.ListByProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(domains) > 0 {
		blockers = append(blockers, fmt.Sprintf("%d domain(s)", len(domains)))
	}

	routes, err := s.Routes.CountByProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if routes > 0 {
		blockers = append(blockers, fmt.Sprintf("%d route(s)", routes))
	}
	return blockers, nil
}

func domainDependents(ctx context.Context, s *repository.Store, id string) ([]string, error) {
	n, err := s.Levels.CountByDomain(ctx, id)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		return []string{fmt.Sprintf("%d access level(s)", n)}, nil
	}
	return nil, nil
}

func accessLevelDependents(ctx context.Context, s *repository.Store, id string) ([]string, error) {
	var blockers []string

	groups, err := s.Groups.ListReferencingLevel(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, g := range groups {
		blockers = append(blockers, "group "+g.ID)
	}

	routes, err := s.Routes.ListReferencingLevel(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, rt := range routes {
		blockers = append(blockers, "route "+rt.ID)
	}
	return blockers, nil
}

func groupDependents(ctx context.Context, s *repository.Store, id string) ([]string, error) {
	users, err := s.Users.ListReferencingGroup(ctx, id)
	if err != nil {
		return nil, err
	}
	var blockers []string
	for _, u := range users {
		blockers = append(blockers, "user "+u.ID)
	}
	return blockers, nil
}
