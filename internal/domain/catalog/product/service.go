package product

import (
	"context"
	"fmt"

	"dsrsales/internal/core/apperror"
	"dsrsales/internal/core/id"
	"dsrsales/internal/core/tx"
	"dsrsales/internal/domain"
	"dsrsales/internal/domain/audit"
	"dsrsales/pkg/logger"
)

const entityName = "product"

// Service provides business logic for the product catalog.
type Service struct {
	repo      Repository
	txManager tx.Manager
	audit     audit.Logger
}

// NewService creates a new product service.
func NewService(repo Repository, txManager tx.Manager, auditLog audit.Logger) *Service {
	if auditLog == nil {
		auditLog = audit.Nop{}
	}
	return &Service{
		repo:      repo,
		txManager: txManager,
		audit:     auditLog,
	}
}

// Create validates and stores a new product.
func (s *Service) Create(ctx context.Context, p *Product) error {
	if id.IsNil(p.ID) {
		p.ID = id.New()
	}
	if p.Status == "" {
		p.Status = StatusActive
	}
	if p.Version == 0 {
		p.Version = 1
	}
	if err := p.Validate(ctx); err != nil {
		return err
	}
	p.CreatedBy = audit.CreatedBy(ctx)

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, p); err != nil {
			return err
		}
		return s.audit.LogChange(ctx, entityName, p.ID, audit.ActionCreate, audit.Diff(nil, p.auditState()))
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "product created", "product_id", p.ID, "item_code", p.ItemCode)
	return nil
}

// Update stores changed fields. p.Version must equal the stored version.
func (s *Service) Update(ctx context.Context, p *Product) error {
	if err := p.Validate(ctx); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		current, err := s.repo.GetByID(ctx, p.ID)
		if err != nil {
			return err
		}
		if current.Version != p.Version {
			return apperror.NewConcurrentModification(entityName, p.ID)
		}

		// Identity and provenance are immutable.
		p.CreatedOn = current.CreatedOn
		p.CreatedBy = current.CreatedBy

		if err := s.repo.Update(ctx, p); err != nil {
			return err
		}
		p.Version++

		changes := audit.Diff(current.auditState(), p.auditState())
		if len(changes) == 0 {
			return nil
		}
		return s.audit.LogChange(ctx, entityName, p.ID, audit.ActionUpdate, changes)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "product updated", "product_id", p.ID, "version", p.Version)
	return nil
}

// SetStatus retires or reactivates a product.
func (s *Service) SetStatus(ctx context.Context, productID id.ID, status Status) (*Product, error) {
	if !IsValidStatus(status) {
		return nil, apperror.NewValidation("invalid status").
			WithDetail("field", "status").
			WithDetail("value", string(status))
	}

	var result *Product
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		p, err := s.repo.GetByID(ctx, productID)
		if err != nil {
			return err
		}
		if p.Status == status {
			result = p
			return nil
		}

		old := p.Status
		p.Status = status
		if err := s.repo.Update(ctx, p); err != nil {
			return err
		}
		p.Version++
		result = p

		return s.audit.LogChange(ctx, entityName, p.ID, audit.ActionStatus, map[string]any{
			"status": map[string]any{"old": old, "new": status},
		})
	})
	if err != nil {
		return nil, fmt.Errorf("set product status: %w", err)
	}

	logger.Info(ctx, "product status changed", "product_id", productID, "status", status)
	return result, nil
}

// Get returns a product by ID.
func (s *Service) Get(ctx context.Context, productID id.ID) (*Product, error) {
	return s.repo.GetByID(ctx, productID)
}

// List returns a page of products.
func (s *Service) List(ctx context.Context, filter Filter) (domain.ListResult[*Product], error) {
	filter.ListFilter = filter.ListFilter.Normalize()
	return s.repo.List(ctx, filter)
}
