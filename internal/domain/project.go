package domain

import "time"

// Project is the tenant root. Domains and routes belong to exactly one
// project.
type Project struct {
	ID        string
	Name      string
	UpdatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateProjectRequest holds the caller input for creating a project.
type CreateProjectRequest struct {
	Name string
}

// UpdateProjectRequest holds the caller input for renaming a project.
type UpdateProjectRequest struct {
	ID   string
	Name string
}
