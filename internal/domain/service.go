package domain

import (
	"context"
	"fmt"
	"time"

	"smartsewing/internal/core/apperror"
	"smartsewing/internal/core/id"
	"smartsewing/internal/core/numerator"
	"smartsewing/internal/core/tx"
	"smartsewing/pkg/logger"
)

// CatalogService provides business logic for catalog entities.
type CatalogService[T CatalogItem] struct {
	repo      CatalogRepository[T]
	txManager tx.Manager
	numerator numerator.Generator
	hooks     *HookRegistry[T]

	// entityName for error messages
	entityName string
	// codePrefix is used to auto-generate codes ("LOC-0001") when none is given
	codePrefix string
}

// CatalogServiceConfig configures the catalog service.
type CatalogServiceConfig[T CatalogItem] struct {
	Repo       CatalogRepository[T]
	TxManager  tx.Manager
	Numerator  numerator.Generator // Optional; without it a code is required
	EntityName string
	CodePrefix string
}

// NewCatalogService creates a new catalog service.
func NewCatalogService[T CatalogItem](cfg CatalogServiceConfig[T]) *CatalogService[T] {
	return &CatalogService[T]{
		repo:       cfg.Repo,
		txManager:  cfg.TxManager,
		numerator:  cfg.Numerator,
		hooks:      NewHookRegistry[T](),
		entityName: cfg.EntityName,
		codePrefix: cfg.CodePrefix,
	}
}

// Hooks returns the hook registry for external registration.
func (s *CatalogService[T]) Hooks() *HookRegistry[T] {
	return s.hooks
}

// TxManager exposes the transaction manager to embedding services.
func (s *CatalogService[T]) TxManager() tx.Manager {
	return s.txManager
}

// Repo exposes the repository to embedding services.
func (s *CatalogService[T]) Repo() CatalogRepository[T] {
	return s.repo
}

func (s *CatalogService[T]) normalizeValidationErr(err error) error {
	if err == nil {
		return nil
	}
	if apperror.IsAppError(err) {
		return err
	}
	return apperror.NewValidation(err.Error())
}

func (s *CatalogService[T]) normalizeGetErr(err error, idOrCode any) error {
	if err == nil {
		return nil
	}
	if apperror.IsNotFound(err) {
		return apperror.NewNotFound(s.entityName, idOrCode)
	}
	if apperror.IsAppError(err) {
		return err
	}
	return apperror.NewInternal(err).WithDetail("entity", s.entityName).WithDetail("id", idOrCode)
}

// PrepareCreate validates the entity, assigns a code and runs before-create hooks.
// Services that persist extra rows together with the entity call it before
// opening their own transaction.
func (s *CatalogService[T]) PrepareCreate(ctx context.Context, entity T) error {
	if err := entity.Validate(ctx); err != nil {
		return s.normalizeValidationErr(err)
	}

	if entity.GetCode() == "" {
		if s.numerator == nil || s.codePrefix == "" {
			return apperror.NewValidation("code is required").WithDetail("field", "code")
		}
		cfg := numerator.Config{Prefix: s.codePrefix, PadWidth: 4, ResetPeriod: "never"}
		code, err := s.numerator.GetNextNumber(ctx, cfg, nil, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("generate %s code: %w", s.entityName, err)
		}
		entity.SetCode(code)
	}

	exists, err := s.repo.ExistsByCode(ctx, entity.GetCode())
	if err != nil {
		return fmt.Errorf("check %s code: %w", s.entityName, err)
	}
	if exists {
		return apperror.NewDuplicate(s.entityName, "code", entity.GetCode())
	}

	return s.hooks.RunBeforeCreate(ctx, entity)
}

// Create creates a new catalog entity.
func (s *CatalogService[T]) Create(ctx context.Context, entity T) error {
	if err := s.PrepareCreate(ctx, entity); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, entity); err != nil {
			return fmt.Errorf("create %s: %w", s.entityName, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.AfterCreate(ctx, entity)
	return nil
}

// AfterCreate runs after-create hooks outside the transaction; failures are logged only.
func (s *CatalogService[T]) AfterCreate(ctx context.Context, entity T) {
	if err := s.hooks.RunAfterCreate(ctx, entity); err != nil {
		logger.Warn(ctx, "after-create hook failed", "entity", s.entityName, "error", err)
	}
	logger.Info(ctx, s.entityName+" created", "id", entity.GetID(), "code", entity.GetCode())
}

// GetByID retrieves entity by ID.
func (s *CatalogService[T]) GetByID(ctx context.Context, entityID id.ID) (T, error) {
	entity, err := s.repo.GetByID(ctx, entityID)
	if err != nil {
		return entity, s.normalizeGetErr(err, entityID.String())
	}
	return entity, nil
}

// GetByCode retrieves entity by code.
func (s *CatalogService[T]) GetByCode(ctx context.Context, code string) (T, error) {
	entity, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return entity, s.normalizeGetErr(err, code)
	}
	return entity, nil
}

// GetActive retrieves an entity and fails if it is deactivated.
func (s *CatalogService[T]) GetActive(ctx context.Context, entityID id.ID) (T, error) {
	entity, err := s.GetByID(ctx, entityID)
	if err != nil {
		return entity, err
	}
	if !entity.IsActiveItem() {
		return entity, apperror.NewInactive(s.entityName, entityID.String())
	}
	return entity, nil
}

// Update updates an existing entity.
func (s *CatalogService[T]) Update(ctx context.Context, entity T) error {
	if err := entity.Validate(ctx); err != nil {
		return s.normalizeValidationErr(err)
	}

	if err := s.hooks.RunBeforeUpdate(ctx, entity); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, entity); err != nil {
			return fmt.Errorf("update %s: %w", s.entityName, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.hooks.RunAfterUpdate(ctx, entity); err != nil {
		logger.Warn(ctx, "after-update hook failed", "entity", s.entityName, "error", err)
	}
	return nil
}

// SetActive activates or deactivates an entity.
func (s *CatalogService[T]) SetActive(ctx context.Context, entityID id.ID, active bool) error {
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetByID(ctx, entityID); err != nil {
			return s.normalizeGetErr(err, entityID.String())
		}
		return s.repo.SetActive(ctx, entityID, active)
	})
	if err != nil {
		return err
	}
	logger.Info(ctx, s.entityName+" active flag changed", "id", entityID, "active", active)
	return nil
}

// List retrieves entities with filtering.
func (s *CatalogService[T]) List(ctx context.Context, filter ListFilter) (ListResult[T], error) {
	filter.Limit, filter.Offset = NormalizePage(filter.Limit, filter.Offset)
	return s.repo.List(ctx, filter)
}

// Exists checks if entity exists.
func (s *CatalogService[T]) Exists(ctx context.Context, entityID id.ID) (bool, error) {
	return s.repo.Exists(ctx, entityID)
}
