package domain

import "time"

// Session is a persisted record of an issued session token. Rows for an
// account are deleted inside the same transaction as any write that could
// change the account's effective permissions, forcing the next request to
// re-derive them.
type Session struct {
	Token     string
	AccountID string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
