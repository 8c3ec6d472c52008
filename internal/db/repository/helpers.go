// Package repository implements domain repository interfaces using SQLite.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"permtier/internal/domain"
)

// DBTX is the common surface of *sql.DB and *sql.Tx. Repositories are built
// over it so the same code serves both pooled and transactional access.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func mapDBError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return &domain.NotFoundError{Message: "resource not found"}
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return &domain.ConflictError{Message: "resource already exists"}
	}
	return err
}

// inPlaceholders returns "?,?,..." with n placeholders for IN clauses.
func inPlaceholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?,", n-1) + "?"
}

func toAnySlice(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// JSON column codecs. Encoding these types cannot fail; decoding surfaces
// corruption as an error rather than silently dropping data.

func encodeStrings(ss []string) string {
	if ss == nil {
		ss = []string{}
	}
	b, _ := json.Marshal(ss)
	return string(b)
}

func decodeStrings(raw string) ([]string, error) {
	var ss []string
	if err := json.Unmarshal([]byte(raw), &ss); err != nil {
		return nil, err
	}
	return ss, nil
}

func encodeLevels(m domain.PermissionMap) string {
	if m == nil {
		m = domain.PermissionMap{}
	}
	b, _ := json.Marshal(m)
	return string(b)
}

func decodeLevels(raw string) (domain.PermissionMap, error) {
	var m domain.PermissionMap
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, err
	}
	return m, nil
}

func encodeMemberships(ms []domain.GroupMembership) string {
	if ms == nil {
		ms = []domain.GroupMembership{}
	}
	b, _ := json.Marshal(ms)
	return string(b)
}

func decodeMemberships(raw string) ([]domain.GroupMembership, error) {
	var ms []domain.GroupMembership
	if err := json.Unmarshal([]byte(raw), &ms); err != nil {
		return nil, err
	}
	return ms, nil
}
