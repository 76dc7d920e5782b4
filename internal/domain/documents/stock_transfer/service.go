package stock_transfer

import (
	"context"
	"fmt"
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

// Service provides business operations for stock transfers.
type Service struct {
	repo  Repository
	deps  documents.Deps
	hooks *domain.HookRegistry[*Transfer]
}

// NewService creates a new stock transfer service.
func NewService(repo Repository, deps documents.Deps) *Service {
	return &Service{
		repo:  repo,
		deps:  deps,
		hooks: domain.NewHookRegistry[*Transfer](),
	}
}

// Hooks returns the lifecycle hook registry.
func (s *Service) Hooks() *domain.HookRegistry[*Transfer] {
	return s.hooks
}

// LineInput is one requested move.
type LineInput struct {
	ProductID id.ID
	Quantity  int64
}

// CreateInput carries the fields of a new transfer.
type CreateInput struct {
	Date           time.Time
	FromLocationID id.ID
	ToLocationID   id.ID
	Comment        string
	Lines          []LineInput
}

// Create books a transfer. The source location must hold every line before
// the first unit moves.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Transfer, error) {
	doc := &Transfer{
		Document:       entity.NewDocument(),
		FromLocationID: in.FromLocationID,
		ToLocationID:   in.ToLocationID,
	}
	doc.Date = documents.ValidateDocumentDate(in.Date)
	doc.Comment = in.Comment

	seen := make(map[id.ID]int, len(in.Lines))
	for i, l := range in.Lines {
		if id.IsNil(l.ProductID) {
			return nil, apperror.NewValidation("product is required").WithDetail("line", i+1)
		}
		if err := documents.CheckDuplicate(seen, i+1, l.ProductID); err != nil {
			return nil, err
		}
		doc.Lines = append(doc.Lines, Line{
			LineID:    id.New(),
			LineNo:    i + 1,
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
		})
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, err
	}

	err := s.deps.TxManager.RunInTransaction(ctx, func(ctx context.Context) error {
		for i := range doc.Lines {
			ps, err := s.deps.Stock.GetProductStock(ctx, doc.Lines[i].ProductID)
			if err != nil {
				return err
			}
			doc.Lines[i].Title = ps.Name
		}
		if err := s.deps.Stock.ValidateLocationSufficiency(ctx, doc.FromLocationID, doc.Requirements()); err != nil {
			return err
		}

		if err := s.hooks.RunBeforeCreate(ctx, doc); err != nil {
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
			err := s.deps.Stock.Transfer(ctx, stock.TransferRequest{
				FromLocationID: doc.FromLocationID,
				ToLocationID:   doc.ToLocationID,
				ProductID:      l.ProductID,
				Quantity:       l.Quantity,
				Reference:      ref,
			})
			if err != nil {
				return fmt.Errorf("transfer line %d: %w", l.LineNo, err)
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

	logger.Info(ctx, "stock transfer created",
		"id", doc.ID,
		"number", doc.Number,
		"from", doc.FromLocationID,
		"to", doc.ToLocationID,
	)
	return doc, nil
}

// GetByID retrieves a transfer with lines.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*Transfer, error) {
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

// List retrieves transfer headers.
func (s *Service) List(ctx context.Context, filter domain.DocumentListFilter) (domain.ListResult[*Transfer], error) {
	filter.Limit, filter.Offset = domain.NormalizePage(filter.Limit, filter.Offset)
	return s.repo.List(ctx, filter)
}
