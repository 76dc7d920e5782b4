package location

import (
	"context"
	"fmt"

	"smartsewing/internal/core/apperror"
	"smartsewing/internal/core/id"
	"smartsewing/internal/core/numerator"
	"smartsewing/internal/core/tx"
	"smartsewing/internal/domain"
	"smartsewing/pkg/logger"
)

// StockMirror credits a location with stock no location row accounts for.
type StockMirror interface {
	BackfillLocation(ctx context.Context, locationID id.ID) (int, error)
}

// Service provides business logic for locations.
type Service struct {
	*domain.CatalogService[*Location]
	repo   Repository
	mirror StockMirror
}

// NewService creates a new Location service. mirror may be nil.
func NewService(repo Repository, txManager tx.Manager, num numerator.Generator, mirror StockMirror) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Location]{
		Repo:       repo,
		TxManager:  txManager,
		Numerator:  num,
		EntityName: "location",
		CodePrefix: "LOC",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
		mirror:         mirror,
	}

	base.Hooks().OnBeforeCreate(svc.defaultFirstLocation)
	base.Hooks().OnAfterCreate(svc.keepSingleDefault)
	base.Hooks().OnAfterUpdate(svc.keepSingleDefault)

	return svc
}

// defaultFirstLocation flags the very first location as default.
func (s *Service) defaultFirstLocation(ctx context.Context, loc *Location) error {
	if loc.IsDefault {
		return nil
	}
	if _, err := s.repo.GetDefault(ctx); err != nil {
		if apperror.IsNotFound(err) {
			loc.IsDefault = true
			return nil
		}
		return fmt.Errorf("get default location: %w", err)
	}
	return nil
}

func (s *Service) keepSingleDefault(ctx context.Context, loc *Location) error {
	if !loc.IsDefault {
		return nil
	}
	return s.TxManager().RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.ClearDefault(ctx, loc.ID); err != nil {
			return err
		}
		return s.backfill(ctx, loc.ID)
	})
}

// backfill hands the new default any stock counted before it existed.
func (s *Service) backfill(ctx context.Context, locationID id.ID) error {
	if s.mirror == nil {
		return nil
	}
	if _, err := s.mirror.BackfillLocation(ctx, locationID); err != nil {
		return fmt.Errorf("backfill location stock: %w", err)
	}
	return nil
}

// SetDefault makes the location the default for non-transfer stock changes.
func (s *Service) SetDefault(ctx context.Context, locationID id.ID) (*Location, error) {
	var loc *Location
	err := s.TxManager().RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		loc, err = s.GetActive(ctx, locationID)
		if err != nil {
			return err
		}
		if loc.IsDefault {
			return nil
		}
		if err := s.repo.ClearDefault(ctx, loc.ID); err != nil {
			return err
		}
		loc.IsDefault = true
		if err := s.repo.Update(ctx, loc); err != nil {
			return fmt.Errorf("update location: %w", err)
		}
		return s.backfill(ctx, loc.ID)
	})
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "default location changed", "id", loc.ID, "code", loc.Code)
	return s.GetByID(ctx, locationID)
}

// GetDefault returns the default location.
func (s *Service) GetDefault(ctx context.Context) (*Location, error) {
	loc, err := s.repo.GetDefault(ctx)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("default location", "")
		}
		return nil, err
	}
	return loc, nil
}

// Deactivate hides a location. The default location cannot be deactivated.
func (s *Service) Deactivate(ctx context.Context, locationID id.ID) error {
	loc, err := s.GetByID(ctx, locationID)
	if err != nil {
		return err
	}
	if loc.IsDefault {
		return apperror.NewBusinessRule(apperror.CodeBusinessRule, "default location cannot be deactivated").
			WithDetail("id", locationID.String())
	}
	return s.SetActive(ctx, locationID, false)
}
