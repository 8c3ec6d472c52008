package domain

import "time"

// AccessLevel is a named numeric rank within a domain. Both the name and the
// value are unique within the owning domain; a higher value grants strictly
// more access.
type AccessLevel struct {
	ID        string
	DomainID  string
	Name      string
	Value     int64
	UpdatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateAccessLevelRequest holds the caller input for creating an access level.
type CreateAccessLevelRequest struct {
	DomainID string
	Name     string
	Value    int64
}

// UpdateAccessLevelRequest holds the caller input for updating an access
// level. A value change cascades into every group and route that references
// the level.
type UpdateAccessLevelRequest struct {
	ID    string
	Name  string
	Value int64
}
