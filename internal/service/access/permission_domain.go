package access

import (
	"context"

	"permtier/internal/db/repository"
	"permtier/internal/domain"
)

// DomainService provides permission-domain management.
type DomainService struct {
	store *repository.Store
}

// NewDomainService creates a new DomainService.
func NewDomainService(store *repository.Store) *DomainService {
	return &DomainService{store: store}
}

// Create validates and persists a new domain. The parent project must exist
// and (projectID, namespace) must be unused.
func (s *DomainService) Create(ctx context.Context, req domain.CreateDomainRequest) (*domain.Domain, error) {
	if req.Namespace == "" {
		return nil, domain.ErrValidation("domain namespace is required")
	}

	var created *domain.Domain
	err := s.store.InTx(ctx, func(tx *repository.Store) error {
		if _, err := tx.Projects.GetByID(ctx, req.ProjectID); err != nil {
			if isNotFound(err) {
				return domain.ErrNotFound("project %s not found", req.ProjectID)
			}
			return err
		}

		var err error
		created, err = tx.Domains.Create(ctx, &domain.Domain{
			ProjectID: req.ProjectID,
			Namespace: req.Namespace,
			UpdatedBy: callerAccount(ctx),
		})
		return err
	})
	return created, err
}

// Update renames a domain's namespace.
func (s *DomainService) Update(ctx context.Context, req domain.UpdateDomainRequest) (*domain.Domain, error) {
	if req.Namespace == "" {
		return nil, domain.ErrValidation("domain namespace is required")
	}

	var updated *domain.Domain
	err := s.store.InTx(ctx, func(tx *repository.Store) error {
		d, err := tx.Domains.GetByID(ctx, req.ID)
		if err != nil {
			return err
		}

		if other, err := tx.Domains.GetByNamespace(ctx, d.ProjectID, req.Namespace); err == nil && other.ID != d.ID {
			return domain.ErrConflict("namespace %q already used in project %s", req.Namespace, d.ProjectID)
		} else if err != nil && !isNotFound(err) {
			return err
		}

		d.Namespace = req.Namespace
		d.UpdatedBy = callerAccount(ctx)
		updated, err = tx.Domains.Update(ctx, d)
		return err
	})
	return updated, err
}

// GetByID returns a domain by id.
func (s *DomainService) GetByID(ctx context.Context, id string) (*domain.Domain, error) {
	return s.store.Domains.GetByID(ctx, id)
}

// ListByProject returns the domains of a project.
func (s *DomainService) ListByProject(ctx context.Context, projectID string) ([]domain.Domain, error) {
	return s.store.Domains.ListByProject(ctx, projectID)
}

// Delete removes a domain. Fails while any access level still belongs to it.
func (s *DomainService) Delete(ctx context.Context, id string) error {
	return s.store.InTx(ctx, func(tx *repository.Store) error {
		if _, err := tx.Domains.GetByID(ctx, id); err != nil {
			return err
		}
		if err := checkDeletable(ctx, tx, KindDomain, id); err != nil {
			return err
		}
		return tx.Domains.Delete(ctx, id)
	})
}
