package repository

import (
	"context"
	"database/sql"
	"fmt"

	"permtier/internal/domain"
)

// Store bundles all repositories over a shared database handle and provides
// transactional execution. Multi-entity writes (cascades, bulk assignment)
// run through InTx so they commit or roll back as a unit.
type Store struct {
	db *sql.DB // nil when the store is bound to an open transaction

	Projects domain.ProjectRepository
	Domains  domain.DomainRepository
	Levels   domain.AccessLevelRepository
	Groups   domain.GroupRepository
	Routes   domain.RouteRepository
	Users    domain.UserRepository
	Sessions domain.SessionRepository
}

// NewStore creates a Store over the given pool. Use the write pool for
// stores that perform mutations.
func NewStore(db *sql.DB) *Store {
	s := storeOver(db)
	s.db = db
	return s
}

func storeOver(q DBTX) *Store {
	return &Store{
		Projects: &ProjectRepo{q: q},
		Domains:  &DomainRepo{q: q},
		Levels:   &AccessLevelRepo{q: q},
		Groups:   &GroupRepo{q: q},
		Routes:   &RouteRepo{q: q},
		Users:    &UserRepo{q: q},
		Sessions: &SessionRepo{q: q},
	}
}

// TxBound reports whether the store is bound to an open transaction rather
// than a pool. Callers issuing concurrent queries must check this: a
// *sql.Tx serializes on a single connection and is not safe for concurrent
// use.
func (s *Store) TxBound() bool {
	return s.db == nil
}

// InTx runs fn against a transaction-bound Store. The transaction commits
// only if fn returns nil; any error rolls back every write made inside fn.
// Nested calls reuse the enclosing transaction.
func (s *Store) InTx(ctx context.Context, fn func(*Store) error) error {
	if s.db == nil {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	txStore := storeOver(tx)
	if err := fn(txStore); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
