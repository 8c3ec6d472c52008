package domain

import "time"

// Domain is a permission namespace within a project. Access levels are
// ordered within a domain; authorization decisions compare values per domain
// independently.
type Domain struct {
	ID        string
	ProjectID string
	Namespace string
	UpdatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateDomainRequest holds the caller input for creating a domain.
type CreateDomainRequest struct {
	ProjectID string
	Namespace string
}

// UpdateDomainRequest holds the caller input for updating a domain.
type UpdateDomainRequest struct {
	ID        string
	Namespace string
}
