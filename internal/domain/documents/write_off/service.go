package write_off

import (
	"context"
	"fmt"
	"strings"
	"time"

	"smartsewing/internal/core/apperror"
	"smartsewing/internal/core/entity"
	"smartsewing/internal/core/id"
	"smartsewing/internal/core/types"
	"smartsewing/internal/domain"
	"smartsewing/internal/domain/documents"
	"smartsewing/internal/domain/events"
	"smartsewing/internal/domain/registers/stock"
	"smartsewing/pkg/logger"
)

// Service provides business operations for write-offs.
type Service struct {
	repo  Repository
	deps  documents.Deps
	hooks *domain.HookRegistry[*WriteOff]
}

// NewService creates a new write-off service.
func NewService(repo Repository, deps documents.Deps) *Service {
	return &Service{
		repo:  repo,
		deps:  deps,
		hooks: domain.NewHookRegistry[*WriteOff](),
	}
}

// Hooks returns the lifecycle hook registry.
func (s *Service) Hooks() *domain.HookRegistry[*WriteOff] {
	return s.hooks
}

// LineInput is one product to write off. A nil UnitValue uses the product's price.
type LineInput struct {
	ProductID id.ID
	Quantity  int64
	UnitValue *types.MinorUnits
}

// CreateInput carries the fields of a new write-off.
type CreateInput struct {
	Date       time.Time
	Reason     string
	Comment    string
	LocationID *id.ID
	Lines      []LineInput
}

// Create records a write-off and removes its lines from stock with OUT movements.
func (s *Service) Create(ctx context.Context, in CreateInput) (*WriteOff, error) {
	doc := &WriteOff{
		Document:   entity.NewDocument(),
		Reason:     strings.TrimSpace(in.Reason),
		Status:     StatusRecorded,
		LocationID: in.LocationID,
	}
	doc.Date = documents.ValidateDocumentDate(in.Date)
	doc.Comment = in.Comment

	lines, err := s.buildLines(ctx, in.Lines)
	if err != nil {
		return nil, err
	}
	doc.Lines = lines
	if err := doc.Recalculate(); err != nil {
		return nil, err
	}

	if err := s.hooks.RunBeforeCreate(ctx, doc); err != nil {
		return nil, err
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, err
	}

	err = s.deps.TxManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.deps.Stock.ValidateSufficiencyAll(ctx, doc.Requirements()); err != nil {
			return err
		}
		if err := documents.AssignNumber(ctx, s.deps.Numerator, &doc.Document, NumberPrefix, NumeratorStrategy); err != nil {
			return err
		}
		if err := s.repo.Create(ctx, doc); err != nil {
			return fmt.Errorf("create document: %w", err)
		}

		ref := doc.Reference()
		for _, l := range doc.Lines {
			_, err := s.deps.Stock.ApplyDelta(ctx, stock.Change{
				ProductID:  l.ProductID,
				Delta:      -l.Quantity,
				Kind:       stock.KindOut,
				Reference:  ref,
				Note:       doc.Reason,
				LocationID: doc.LocationID,
			})
			if err != nil {
				return fmt.Errorf("write off line %d: %w", l.LineNo, err)
			}
		}

		if err := s.repo.SaveLines(ctx, doc.ID, doc.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		return documents.Publish(ctx, s.deps.Events, docKind, doc.ID, events.DocumentCreated, summary(doc))
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "write-off recorded", "id", doc.ID, "number", doc.Number, "value", int64(doc.TotalValue))
	return doc, nil
}

func (s *Service) buildLines(ctx context.Context, inputs []LineInput) ([]Line, error) {
	lines := make([]Line, 0, len(inputs))
	seen := make(map[id.ID]int, len(inputs))
	for i, in := range inputs {
		lineNo := i + 1
		if err := documents.CheckQuantity(lineNo, in.Quantity); err != nil {
			return nil, err
		}
		if id.IsNil(in.ProductID) {
			return nil, apperror.NewValidation("product is required").WithDetail("line", lineNo)
		}
		// Deactivated products can still be written off.
		p, err := s.deps.Products.GetByID(ctx, in.ProductID)
		if err != nil {
			return nil, err
		}
		if err := documents.CheckDuplicate(seen, lineNo, p.ID); err != nil {
			return nil, err
		}
		value := p.UnitPrice
		if in.UnitValue != nil {
			value = *in.UnitValue
		}
		lines = append(lines, Line{
			LineID:    id.New(),
			LineNo:    lineNo,
			ProductID: p.ID,
			Title:     p.Title(),
			Quantity:  in.Quantity,
			UnitValue: value,
		})
	}
	return lines, nil
}

// GetByID retrieves a write-off with lines.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*WriteOff, error) {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}
	lines, err := s.repo.GetLines(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	doc.Lines = lines
	return doc, nil
}

// List retrieves write-off headers.
func (s *Service) List(ctx context.Context, filter domain.DocumentListFilter) (domain.ListResult[*WriteOff], error) {
	filter.Limit, filter.Offset = domain.NormalizePage(filter.Limit, filter.Offset)
	return s.repo.List(ctx, filter)
}
