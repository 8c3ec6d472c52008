package domain

import "time"

// Group bundles access levels, at most one per domain. Levels is the
// denormalized domainID→value projection of AccessLevelIDs; it is recomputed
// on every write of the group and whenever a referenced level's value
// changes, and is never accepted from caller input.
type Group struct {
	ID             string
	Label          string
	AccessLevelIDs []string
	Levels         PermissionMap
	UpdatedBy      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CreateGroupRequest holds the caller input for creating a group.
type CreateGroupRequest struct {
	Label          string
	AccessLevelIDs []string
}

// UpdateGroupRequest holds the caller input for updating a group.
type UpdateGroupRequest struct {
	ID             string
	Label          string
	AccessLevelIDs []string
}
