// Package app provides application-level wiring and dependency injection
// for the permission engine.
package app

import (
	"database/sql"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"permtier/internal/api"
	"permtier/internal/config"
	"permtier/internal/db/repository"
	"permtier/internal/domain"
	"permtier/internal/metrics"
	"permtier/internal/service/access"
	"permtier/internal/session"
)

// Deps holds the external dependencies that main() must provide: database
// handles, config, and the root logger.
type Deps struct {
	Cfg     *config.Config
	WriteDB *sql.DB
	ReadDB  *sql.DB
	Logger  *slog.Logger
}

// Services groups the service pointers the API handler needs.
type Services struct {
	Project *access.ProjectService
	Domain  *access.DomainService
	Level   *access.AccessLevelService
	Group   *access.GroupService
	Route   *access.RouteService
	User    *access.UserService
}

// App holds the fully-wired application.
type App struct {
	Services  Services
	Engine    *access.Engine
	Snapshots *session.Registry
	Metrics   *metrics.Metrics
	Handler   *api.Handler

	// Sessions is bound to the write pool; the expired-session sweep and any
	// other mutation go through it. AuthSessions is the read-pool handle the
	// auth middleware uses for token lookups.
	Sessions     domain.SessionRepository
	AuthSessions domain.SessionRepository
}

// New wires repositories, services, the assertion engine, and the API
// handler from the provided deps.
func New(deps Deps) (*App, error) {
	cfg := deps.Cfg
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	m := metrics.New(prometheus.NewRegistry())

	// Write-pool store: all mutating services and their transactions.
	// Read-pool store: auth-path lookups that never write.
	writeStore := repository.NewStore(deps.WriteDB)
	readStore := repository.NewStore(deps.ReadDB)

	eng := access.NewEngine(readStore, cfg.Strict, logger.With("component", "engine"), m)

	snapshots := session.NewRegistry(
		eng, readStore.Users,
		cfg.SnapshotCacheSize, cfg.SessionTTL,
		m, logger.With("component", "snapshots"),
	)

	projectSvc := access.NewProjectService(writeStore)
	domainSvc := access.NewDomainService(writeStore)
	levelSvc := access.NewAccessLevelService(writeStore, snapshots, logger.With("component", "access-levels"))
	groupSvc := access.NewGroupService(writeStore, snapshots, logger.With("component", "groups"))
	routeSvc := access.NewRouteService(writeStore, logger.With("component", "routes"))
	userSvc := access.NewUserService(writeStore, snapshots, cfg.DefaultGroupIDs, logger.With("component", "users"))

	login := api.NewLoginHandler(
		userSvc, writeStore.Sessions,
		[]byte(cfg.JWTSecret), cfg.SessionTTL,
		logger.With("component", "login"),
	)

	handler := api.NewHandler(
		projectSvc, domainSvc, levelSvc, groupSvc, routeSvc, userSvc,
		eng, login, logger.With("component", "api"),
	)

	return &App{
		Services: Services{
			Project: projectSvc,
			Domain:  domainSvc,
			Level:   levelSvc,
			Group:   groupSvc,
			Route:   routeSvc,
			User:    userSvc,
		},
		Engine:       eng,
		Snapshots:    snapshots,
		Metrics:      m,
		Handler:      handler,
		Sessions:     writeStore.Sessions,
		AuthSessions: readStore.Sessions,
	}, nil
}
