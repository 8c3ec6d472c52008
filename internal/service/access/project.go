package access

import (
	"context"

	"permtier/internal/db/repository"
	"permtier/internal/domain"
)

// ProjectService provides tenant (project) management.
type ProjectService struct {
	store *repository.Store
}

// NewProjectService creates a new ProjectService.
func NewProjectService(store *repository.Store) *ProjectService {
	return &ProjectService{store: store}
}

// Create validates and persists a new project.
func (s *ProjectService) Create(ctx context.Context, req domain.CreateProjectRequest) (*domain.Project, error) {
	if req.Name == "" {
		return nil, domain.ErrValidation("project name is required")
	}
	return s.store.Projects.Create(ctx, &domain.Project{
		Name:      req.Name,
		UpdatedBy: callerAccount(ctx),
	})
}

// Update renames a project.
func (s *ProjectService) Update(ctx context.Context, req domain.UpdateProjectRequest) (*domain.Project, error) {
	if req.Name == "" {
		return nil, domain.ErrValidation("project name is required")
	}
	p, err := s.store.Projects.GetByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	p.Name = req.Name
	p.UpdatedBy = callerAccount(ctx)
	return s.store.Projects.Update(ctx, p)
}

// GetByID returns a project by id.
func (s *ProjectService) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	return s.store.Projects.GetByID(ctx, id)
}

// List returns all projects.
func (s *ProjectService) List(ctx context.Context) ([]domain.Project, error) {
	return s.store.Projects.List(ctx)
}

// Delete removes a project. Fails while domains or routes still belong to it.
func (s *ProjectService) Delete(ctx context.Context, id string) error {
	return s.store.InTx(ctx, func(tx *repository.Store) error {
		if _, err := tx.Projects.GetByID(ctx, id); err != nil {
			return err
		}
		if err := checkDeletable(ctx, tx, KindProject, id); err != nil {
			return err
		}
		return tx.Projects.Delete(ctx, id)
	})
}
