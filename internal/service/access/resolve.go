package access

import (
	"context"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"permtier/internal/db/repository"
	"permtier/internal/domain"
)

// resolveBatchSize bounds how many ids a single store round-trip resolves.
// Rounds are issued concurrently so large reference sets still resolve
// quickly without unbounded fan-out against the backing store.
const resolveBatchSize = 10

// batchParallelism caps concurrent batch fetches for the given store. A
// transaction-bound store runs its batches one at a time: database/sql does
// not document *sql.Tx as safe for concurrent use.
func batchParallelism(s *repository.Store) int {
	if s.TxBound() {
		return 1
	}
	return 4
}

// resolveByIDs fetches the records for the given ids in batches, at most
// parallel at a time, and returns them keyed by id. Ids are deduplicated
// first; absent ids are simply missing from the result map.
func resolveByIDs[T any](
	ctx context.Context,
	ids []string,
	fetch func(ctx context.Context, ids []string) ([]T, error),
	keyOf func(T) string,
	parallel int,
) (map[string]T, error) {
	ids = dedupeStrings(ids)
	if len(ids) == 0 {
		return map[string]T{}, nil
	}
	if parallel < 1 {
		parallel = 1
	}

	var (
		mu    sync.Mutex
		found = make(map[string]T, len(ids))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)
	for start := 0; start < len(ids); start += resolveBatchSize {
		end := min(start+resolveBatchSize, len(ids))
		batch := ids[start:end]
		g.Go(func() error {
			records, err := fetch(gctx, batch)
			if err != nil {
				return err
			}
			mu.Lock()
			for _, rec := range records {
				found[keyOf(rec)] = rec
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return found, nil
}

// resolveLevels resolves access-level ids, failing NotFound with the sorted
// list of unresolved ids when any are missing.
func resolveLevels(ctx context.Context, s *repository.Store, ids []string) (map[string]domain.AccessLevel, error) {
	found, err := resolveByIDs(ctx, ids, s.Levels.GetByIDs,
		func(l domain.AccessLevel) string { return l.ID }, batchParallelism(s))
	if err != nil {
		return nil, err
	}
	if missing := missingIDs(ids, func(id string) bool { _, ok := found[id]; return ok }); len(missing) > 0 {
		return nil, domain.ErrNotFound("access levels not found: %s", strings.Join(missing, ", "))
	}
	return found, nil
}

// resolveGroups resolves group ids, failing NotFound with the sorted list of
// unresolved ids when any are missing.
func resolveGroups(ctx context.Context, s *repository.Store, ids []string) (map[string]domain.Group, error) {
	found, err := resolveByIDs(ctx, ids, s.Groups.GetByIDs,
		func(g domain.Group) string { return g.ID }, batchParallelism(s))
	if err != nil {
		return nil, err
	}
	if missing := missingIDs(ids, func(id string) bool { _, ok := found[id]; return ok }); len(missing) > 0 {
		return nil, domain.ErrNotFound("groups not found: %s", strings.Join(missing, ", "))
	}
	return found, nil
}

// derivedLevels builds the domain→value requirement map for a set of
// resolved levels. When several levels share a domain the highest value
// wins, so the requirement never weakens as levels are added or removed.
func derivedLevels(levels map[string]domain.AccessLevel) domain.PermissionMap {
	m := make(domain.PermissionMap, len(levels))
	for _, l := range levels {
		if cur, ok := m[l.DomainID]; !ok || l.Value > cur {
			m[l.DomainID] = l.Value
		}
	}
	return m
}

func missingIDs(requested []string, resolved func(string) bool) []string {
	var missing []string
	for _, id := range dedupeStrings(requested) {
		if !resolved(id) {
			missing = append(missing, id)
		}
	}
	sort.Strings(missing)
	return missing
}
