package domain

import "context"

// ProjectRepository provides CRUD operations for projects.
type ProjectRepository interface {
	Create(ctx context.Context, p *Project) (*Project, error)
	Update(ctx context.Context, p *Project) (*Project, error)
	GetByID(ctx context.Context, id string) (*Project, error)
	List(ctx context.Context) ([]Project, error)
	Delete(ctx context.Context, id string) error
}

// DomainRepository provides CRUD operations for permission domains.
type DomainRepository interface {
	Create(ctx context.Context, d *Domain) (*Domain, error)
	Update(ctx context.Context, d *Domain) (*Domain, error)
	GetByID(ctx context.Context, id string) (*Domain, error)
	GetByNamespace(ctx context.Context, projectID, namespace string) (*Domain, error)
	ListByProject(ctx context.Context, projectID string) ([]Domain, error)
	Delete(ctx context.Context, id string) error
}

// AccessLevelRepository provides CRUD operations for access levels.
type AccessLevelRepository interface {
	Create(ctx context.Context, l *AccessLevel) (*AccessLevel, error)
	Update(ctx context.Context, l *AccessLevel) (*AccessLevel, error)
	GetByID(ctx context.Context, id string) (*AccessLevel, error)
	GetByIDs(ctx context.Context, ids []string) ([]AccessLevel, error)
	GetByName(ctx context.Context, domainID, name string) (*AccessLevel, error)
	GetByValue(ctx context.Context, domainID string, value int64) (*AccessLevel, error)
	ListByDomain(ctx context.Context, domainID string) ([]AccessLevel, error)
	CountByDomain(ctx context.Context, domainID string) (int64, error)
	Delete(ctx context.Context, id string) error
}

// GroupRepository provides CRUD operations for groups.
type GroupRepository interface {
	Create(ctx context.Context, g *Group) (*Group, error)
	Update(ctx context.Context, g *Group) (*Group, error)
	GetByID(ctx context.Context, id string) (*Group, error)
	GetByIDs(ctx context.Context, ids []string) ([]Group, error)
	List(ctx context.Context) ([]Group, error)
	// ListReferencingLevel returns every group whose AccessLevelIDs include
	// the given access-level id.
	ListReferencingLevel(ctx context.Context, levelID string) ([]Group, error)
	Delete(ctx context.Context, id string) error
}

// RouteRepository provides CRUD operations for route registrations.
type RouteRepository interface {
	Create(ctx context.Context, r *Route) (*Route, error)
	Update(ctx context.Context, r *Route) (*Route, error)
	GetByID(ctx context.Context, id string) (*Route, error)
	GetByPath(ctx context.Context, projectID, path string) (*Route, error)
	GetByPaths(ctx context.Context, projectID string, paths []string) ([]Route, error)
	ListByProject(ctx context.Context, projectID string) ([]Route, error)
	// ListReferencingLevel returns every route whose AccessLevelIDs include
	// the given access-level id.
	ListReferencingLevel(ctx context.Context, levelID string) ([]Route, error)
	CountByProject(ctx context.Context, projectID string) (int64, error)
	Delete(ctx context.Context, id string) error
}

// UserRepository provides CRUD operations for users.
type UserRepository interface {
	Create(ctx context.Context, u *User) (*User, error)
	Update(ctx context.Context, u *User) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	GetByAccountID(ctx context.Context, accountID string) (*User, error)
	GetByAccountIDs(ctx context.Context, accountIDs []string) ([]User, error)
	// GetOrCreate returns the user for accountID, creating it with the given
	// memberships when absent. The insert is atomic so concurrent first
	// logins by the same principal produce a single row.
	GetOrCreate(ctx context.Context, u *User) (*User, error)
	// ListReferencingGroup returns every user whose GroupIDs include the
	// given group id.
	ListReferencingGroup(ctx context.Context, groupID string) ([]User, error)
	List(ctx context.Context) ([]User, error)
	Delete(ctx context.Context, id string) error
}

// SessionRepository tracks issued session tokens so permission-changing
// writes can invalidate them.
type SessionRepository interface {
	Insert(ctx context.Context, s *Session) error
	GetByToken(ctx context.Context, token string) (*Session, error)
	DeleteForAccounts(ctx context.Context, accountIDs []string) error
	DeleteExpired(ctx context.Context) error
}
