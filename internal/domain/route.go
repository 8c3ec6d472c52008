package domain

import (
	"strings"
	"time"
)

// Route registers an API path under a project together with the minimum
// access level required per domain. AccessLevels is the denormalized
// domainID→value requirement map derived from AccessLevelIDs. Unlike a
// group, a route may require levels from multiple domains.
type Route struct {
	ID             string
	ProjectID      string
	Path           string
	AccessLevelIDs []string
	AccessLevels   PermissionMap
	UpdatedBy      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CreateRouteRequest holds the caller input for registering a route.
type CreateRouteRequest struct {
	ProjectID      string
	Path           string
	AccessLevelIDs []string
}

// UpdateRouteRequest holds the caller input for updating a route.
type UpdateRouteRequest struct {
	ID             string
	Path           string
	AccessLevelIDs []string
}

// NormalizePath canonicalizes a request path for route lookup: the query
// string and any leading slash are stripped.
func NormalizePath(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	return strings.TrimPrefix(path, "/")
}
