package product

import (
	"context"
	"fmt"
	"strings"

	"smartsewing/internal/core/apperror"
	"smartsewing/internal/core/id"
	"smartsewing/internal/core/numerator"
	"smartsewing/internal/core/tx"
	"smartsewing/internal/core/types"
	"smartsewing/internal/domain"
	"smartsewing/internal/domain/registers/stock"
)

// OpeningBalanceNote marks the movement that books a product's initial stock.
const OpeningBalanceNote = "opening balance"

// StockEngine is the part of the stock engine the catalog needs.
type StockEngine interface {
	ApplyDelta(ctx context.Context, ch stock.Change) (*stock.Result, error)
}

// Service provides business logic for the Product catalog.
type Service struct {
	*domain.CatalogService[*Product]
	repo  Repository
	stock StockEngine
}

// NewService creates a new Product service.
func NewService(repo Repository, txManager tx.Manager, num numerator.Generator, stockEngine StockEngine) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Product]{
		Repo:       repo,
		TxManager:  txManager,
		Numerator:  num,
		EntityName: "product",
		CodePrefix: "PRD",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
		stock:          stockEngine,
	}

	base.Hooks().OnBeforeCreate(svc.checkBarcode)
	base.Hooks().OnBeforeUpdate(svc.checkBarcode)

	return svc
}

// CreateInput carries the fields of a new product.
type CreateInput struct {
	Code            string
	Title           string
	Kind            Kind
	UnitPrice       types.MinorUnits
	OpeningQuantity int64
	// LocationID receives the opening quantity; default location when nil
	LocationID  *id.ID
	Barcode     *string
	Description *string
}

// Create registers a product. A positive opening quantity is booked through the
// stock engine in the same transaction as an ADJUST movement.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Product, error) {
	if in.OpeningQuantity < 0 {
		return nil, apperror.NewValidation("opening quantity cannot be negative").
			WithDetail("field", "openingQuantity")
	}

	p := NewProduct(in.Code, in.Title, in.Kind, in.UnitPrice)
	p.Barcode = normalizeOptional(in.Barcode)
	p.Description = normalizeOptional(in.Description)

	if err := s.PrepareCreate(ctx, p); err != nil {
		return nil, err
	}

	err := s.TxManager().RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, p); err != nil {
			return fmt.Errorf("create product: %w", err)
		}
		if in.OpeningQuantity == 0 {
			return nil
		}
		_, err := s.stock.ApplyDelta(ctx, stock.Change{
			ProductID:  p.ID,
			Delta:      in.OpeningQuantity,
			Kind:       stock.KindAdjust,
			Note:       OpeningBalanceNote,
			LocationID: in.LocationID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	p.Quantity = in.OpeningQuantity

	s.AfterCreate(ctx, p)
	return p, nil
}

// UpdateInput carries optional field changes; nil leaves a field as is.
type UpdateInput struct {
	Title       *string
	Kind        *Kind
	UnitPrice   *types.MinorUnits
	Barcode     *string
	Description *string
	// Version must match the stored version when non-zero
	Version int
}

// Update changes descriptive fields. Quantity is never touched here.
func (s *Service) Update(ctx context.Context, productID id.ID, in UpdateInput) (*Product, error) {
	p, err := s.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if in.Version != 0 && in.Version != p.Version {
		return nil, apperror.NewConcurrentModification("product", productID.String())
	}

	if in.Title != nil {
		p.Name = strings.TrimSpace(*in.Title)
	}
	if in.Kind != nil {
		p.Kind = *in.Kind
	}
	if in.UnitPrice != nil {
		p.UnitPrice = *in.UnitPrice
	}
	if in.Barcode != nil {
		p.Barcode = normalizeOptional(in.Barcode)
	}
	if in.Description != nil {
		p.Description = normalizeOptional(in.Description)
	}

	if err := s.CatalogService.Update(ctx, p); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, productID)
}

// Deactivate hides a product from new documents.
func (s *Service) Deactivate(ctx context.Context, productID id.ID) error {
	return s.SetActive(ctx, productID, false)
}

// Activate re-enables a product.
func (s *Service) Activate(ctx context.Context, productID id.ID) error {
	return s.SetActive(ctx, productID, true)
}

// ListProducts lists products with product-specific filters.
func (s *Service) ListProducts(ctx context.Context, filter Filter) (domain.ListResult[*Product], error) {
	filter.Limit, filter.Offset = domain.NormalizePage(filter.Limit, filter.Offset)
	return s.repo.ListProducts(ctx, filter)
}

// GetActive returns an active product or an error naming why it cannot be used.
func (s *Service) GetActive(ctx context.Context, productID id.ID) (*Product, error) {
	return s.CatalogService.GetActive(ctx, productID)
}

func (s *Service) checkBarcode(ctx context.Context, p *Product) error {
	if p.Barcode == nil {
		return nil
	}
	existing, err := s.repo.FindByBarcode(ctx, *p.Barcode)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("check barcode: %w", err)
	}
	if existing.ID != p.ID {
		return apperror.NewDuplicate("product", "barcode", *p.Barcode)
	}
	return nil
}

func normalizeOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

var _ domain.CatalogItem = (*Product)(nil)
