package stock_adjustment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"smartsewing/internal/core/apperror"
	"smartsewing/internal/core/entity"
	"smartsewing/internal/core/id"
	"smartsewing/internal/domain"
	"smartsewing/internal/domain/documents"
	"smartsewing/internal/domain/events"
	"smartsewing/internal/domain/registers/stock"
	"smartsewing/pkg/logger"
)

// Service provides business operations for stock adjustments.
type Service struct {
	repo  Repository
	deps  documents.Deps
	hooks *domain.HookRegistry[*Adjustment]
}

// NewService creates a new stock adjustment service.
func NewService(repo Repository, deps documents.Deps) *Service {
	return &Service{
		repo:  repo,
		deps:  deps,
		hooks: domain.NewHookRegistry[*Adjustment](),
	}
}

// Hooks returns the lifecycle hook registry.
func (s *Service) Hooks() *domain.HookRegistry[*Adjustment] {
	return s.hooks
}

// ItemInput is one requested correction.
type ItemInput struct {
	ProductID id.ID
	Mode      Mode
	// Quantity is the delta for DELTA and the target for SET
	Quantity int64
	Note     string
}

// CreateInput carries the fields of a new adjustment.
type CreateInput struct {
	Date       time.Time
	Reason     string
	Comment    string
	LocationID *id.ID
	Items      []ItemInput
}

// Create books an adjustment. Every item is resolved against current stock
// before anything is written: an item that would change nothing fails with
// NO_CHANGE and one that would go below zero with NEGATIVE_STOCK, and in both
// cases no document exists afterwards.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Adjustment, error) {
	if err := validateItems(in.Items); err != nil {
		return nil, err
	}

	doc := &Adjustment{
		Document:   entity.NewDocument(),
		Reason:     strings.TrimSpace(in.Reason),
		LocationID: in.LocationID,
	}
	doc.Date = documents.ValidateDocumentDate(in.Date)
	doc.Comment = in.Comment

	err := s.deps.TxManager.RunInTransaction(ctx, func(ctx context.Context) error {
		items, err := s.plan(ctx, in.Items)
		if err != nil {
			return err
		}
		doc.Items = items

		if err := s.hooks.RunBeforeCreate(ctx, doc); err != nil {
			return err
		}
		if err := doc.Validate(ctx); err != nil {
			return err
		}
		if err := documents.AssignNumber(ctx, s.deps.Numerator, &doc.Document, NumberPrefix, NumeratorStrategy); err != nil {
			return err
		}
		if err := s.repo.Create(ctx, doc); err != nil {
			return fmt.Errorf("create document: %w", err)
		}

		ref := doc.Reference()
		for i := range doc.Items {
			item := &doc.Items[i]
			res, err := s.deps.Stock.ApplyDelta(ctx, stock.Change{
				ProductID:  item.ProductID,
				Delta:      item.Delta,
				Kind:       stock.KindAdjust,
				Reference:  ref,
				Note:       noteFor(doc, item),
				LocationID: doc.LocationID,
			})
			if err != nil {
				return fmt.Errorf("adjust item %d: %w", item.LineNo, err)
			}
			item.Before, item.After = res.Before, res.After
		}

		if err := s.repo.SaveLines(ctx, doc.ID, doc.Items); err != nil {
			return fmt.Errorf("save items: %w", err)
		}
		return documents.Publish(ctx, s.deps.Events, docKind, doc.ID, events.DocumentCreated, summary(doc))
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "stock adjustment created", "id", doc.ID, "number", doc.Number, "items", len(doc.Items))
	return doc, nil
}

func validateItems(items []ItemInput) error {
	if len(items) == 0 {
		return apperror.NewValidation("adjustment must have at least one item").
			WithDetail("field", "items")
	}
	seen := make(map[id.ID]int, len(items))
	for i, it := range items {
		lineNo := i + 1
		if id.IsNil(it.ProductID) {
			return apperror.NewValidation("product is required").WithDetail("line", lineNo)
		}
		if !it.Mode.Valid() {
			return apperror.NewValidation("mode must be DELTA or SET").
				WithDetail("line", lineNo).
				WithDetail("value", string(it.Mode))
		}
		if it.Mode == ModeSet && it.Quantity < 0 {
			return apperror.NewValidation("target quantity cannot be negative").
				WithDetail("line", lineNo).
				WithDetail("value", it.Quantity)
		}
		if it.Mode == ModeDelta && it.Quantity == 0 {
			return apperror.NewNoChange("adjustment of zero is not recorded").
				WithDetail("line", lineNo).
				WithDetail("product_id", it.ProductID.String())
		}
		if err := documents.CheckDuplicate(seen, lineNo, it.ProductID); err != nil {
			return err
		}
	}
	return nil
}

// plan locks each product and computes its delta, failing before any write.
func (s *Service) plan(ctx context.Context, inputs []ItemInput) ([]Item, error) {
	items := make([]Item, 0, len(inputs))
	for i, in := range inputs {
		ps, err := s.deps.Stock.GetProductStock(ctx, in.ProductID)
		if err != nil {
			return nil, err
		}

		delta := in.Quantity
		if in.Mode == ModeSet {
			delta = in.Quantity - ps.Quantity
		}
		if delta == 0 {
			return nil, apperror.NewNoChange(fmt.Sprintf("stock of %q is already %d", ps.Name, ps.Quantity)).
				WithDetail("line", i+1).
				WithDetail("product_id", ps.ID.String())
		}
		if ps.Quantity+delta < 0 {
			return nil, apperror.NewNegativeStock(ps.ID.String(), ps.Name, ps.Quantity, delta)
		}

		items = append(items, Item{
			LineID:    id.New(),
			LineNo:    i + 1,
			ProductID: ps.ID,
			Title:     ps.Name,
			Mode:      in.Mode,
			Requested: in.Quantity,
			Delta:     delta,
			Before:    ps.Quantity,
			After:     ps.Quantity + delta,
			Note:      strings.TrimSpace(in.Note),
		})
	}
	return items, nil
}

func noteFor(doc *Adjustment, item *Item) string {
	switch {
	case item.Note != "":
		return item.Note
	case doc.Reason != "":
		return doc.Reason
	}
	return "adjusted on " + doc.Number
}

// GetByID retrieves an adjustment with items.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*Adjustment, error) {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.GetLines(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}
	doc.Items = items
	return doc, nil
}

// List retrieves adjustment headers.
func (s *Service) List(ctx context.Context, filter domain.DocumentListFilter) (domain.ListResult[*Adjustment], error) {
	filter.Limit, filter.Offset = domain.NormalizePage(filter.Limit, filter.Offset)
	return s.repo.List(ctx, filter)
}
