// Package api exposes the permission engine over HTTP.
package api

import (
	"context"
	"log/slog"

	"github.com/go-chi/chi/v5"

	"permtier/internal/domain"
	"permtier/internal/service/access"
)

// Narrow service interfaces keep handlers testable against fakes.

type projectService interface {
	Create(ctx context.Context, req domain.CreateProjectRequest) (*domain.Project, error)
	Update(ctx context.Context, req domain.UpdateProjectRequest) (*domain.Project, error)
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	List(ctx context.Context) ([]domain.Project, error)
	Delete(ctx context.Context, id string) error
}

type domainService interface {
	Create(ctx context.Context, req domain.CreateDomainRequest) (*domain.Domain, error)
	Update(ctx context.Context, req domain.UpdateDomainRequest) (*domain.Domain, error)
	GetByID(ctx context.Context, id string) (*domain.Domain, error)
	ListByProject(ctx context.Context, projectID string) ([]domain.Domain, error)
	Delete(ctx context.Context, id string) error
}

type accessLevelService interface {
	Create(ctx context.Context, req domain.CreateAccessLevelRequest) (*domain.AccessLevel, error)
	Update(ctx context.Context, req domain.UpdateAccessLevelRequest) (*domain.AccessLevel, error)
	GetByID(ctx context.Context, id string) (*domain.AccessLevel, error)
	ListByDomain(ctx context.Context, domainID string) ([]domain.AccessLevel, error)
	Delete(ctx context.Context, id string) error
	Detach(ctx context.Context, id string) error
}

type groupService interface {
	Create(ctx context.Context, req domain.CreateGroupRequest) (*domain.Group, error)
	Update(ctx context.Context, req domain.UpdateGroupRequest) (*domain.Group, error)
	GetByID(ctx context.Context, id string) (*domain.Group, error)
	List(ctx context.Context) ([]domain.Group, error)
	Delete(ctx context.Context, id string) error
}

type routeService interface {
	Create(ctx context.Context, req domain.CreateRouteRequest) (*domain.Route, error)
	Update(ctx context.Context, req domain.UpdateRouteRequest) (*domain.Route, error)
	GetByID(ctx context.Context, id string) (*domain.Route, error)
	ListByProject(ctx context.Context, projectID string) ([]domain.Route, error)
	Delete(ctx context.Context, id string) error
	Register(ctx context.Context, projectID string, paths []string) error
}

type userService interface {
	GetOrCreate(ctx context.Context, accountID string) (*domain.User, error)
	GetByAccountID(ctx context.Context, accountID string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	AssignPermissions(ctx context.Context, requesterAccountID string, targetAccountIDs, groupIDs []string) error
}

type assertionEngine interface {
	AssertPermissions(ctx context.Context, perms domain.PermissionMap, projectID, path string) error
	RoutesDetails(ctx context.Context, projectID string, paths []string) (map[string]access.RouteDetails, error)
	FilterSyncableCollections(ctx context.Context, perms domain.PermissionMap, projectID string, collections []string) ([]string, error)
}

// Handler bundles the HTTP endpoints of the engine.
type Handler struct {
	projects projectService
	domains  domainService
	levels   accessLevelService
	groups   groupService
	routes   routeService
	users    userService
	engine   assertionEngine
	login    *LoginHandler
	logger   *slog.Logger
}

// NewHandler creates the API handler.
func NewHandler(
	projects projectService,
	domains domainService,
	levels accessLevelService,
	groups groupService,
	routes routeService,
	users userService,
	engine assertionEngine,
	login *LoginHandler,
	logger *slog.Logger,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		projects: projects,
		domains:  domains,
		levels:   levels,
		groups:   groups,
		routes:   routes,
		users:    users,
		engine:   engine,
		login:    login,
		logger:   logger,
	}
}

// PublicRoutes mounts the endpoints that do not require authentication.
func (h *Handler) PublicRoutes(r chi.Router) {
	r.Post("/login", h.login.Login)
}

// Routes mounts all authenticated endpoints on the given router.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/projects", func(r chi.Router) {
		r.Get("/", h.ListProjects)
		r.Post("/", h.CreateProject)
		r.Get("/{id}", h.GetProject)
		r.Put("/{id}", h.UpdateProject)
		r.Delete("/{id}", h.DeleteProject)
		r.Get("/{id}/domains", h.ListDomains)
		r.Get("/{id}/routes", h.ListRoutes)
	})

	r.Route("/domains", func(r chi.Router) {
		r.Post("/", h.CreateDomain)
		r.Get("/{id}", h.GetDomain)
		r.Put("/{id}", h.UpdateDomain)
		r.Delete("/{id}", h.DeleteDomain)
		r.Get("/{id}/access-levels", h.ListAccessLevels)
	})

	r.Route("/access-levels", func(r chi.Router) {
		r.Post("/", h.CreateAccessLevel)
		r.Get("/{id}", h.GetAccessLevel)
		r.Put("/{id}", h.UpdateAccessLevel)
		r.Delete("/{id}", h.DeleteAccessLevel)
		r.Post("/{id}/detach", h.DetachAccessLevel)
	})

	r.Route("/groups", func(r chi.Router) {
		r.Get("/", h.ListGroups)
		r.Post("/", h.CreateGroup)
		r.Get("/{id}", h.GetGroup)
		r.Put("/{id}", h.UpdateGroup)
		r.Delete("/{id}", h.DeleteGroup)
	})

	r.Route("/routes", func(r chi.Router) {
		r.Post("/", h.CreateRoute)
		r.Post("/register", h.RegisterRoutes)
		r.Get("/{id}", h.GetRoute)
		r.Put("/{id}", h.UpdateRoute)
		r.Delete("/{id}", h.DeleteRoute)
	})

	r.Route("/users", func(r chi.Router) {
		r.Get("/", h.ListUsers)
		r.Get("/{accountID}", h.GetUser)
	})

	r.Post("/assignments", h.AssignPermissions)
	r.Post("/assert", h.Assert)
	r.Post("/routes/details", h.RoutesDetails)
	r.Post("/sync/collections", h.FilterSyncableCollections)
}
