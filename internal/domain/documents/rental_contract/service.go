package rental_contract

import (
	"context"
	"fmt"
	"time"

	"smartsewing/internal/core/apperror"
	"smartsewing/internal/core/id"
	"smartsewing/internal/core/types"
	"smartsewing/internal/domain"
	"smartsewing/internal/domain/documents"
	"smartsewing/internal/domain/events"
	"smartsewing/internal/domain/registers/stock"
	"smartsewing/pkg/logger"
)

// Service provides business operations for rental contracts.
type Service struct {
	repo  Repository
	deps  documents.Deps
	hooks *domain.HookRegistry[*Contract]
	now   func() time.Time
}

// NewService creates a new rental contract service.
func NewService(repo Repository, deps documents.Deps) *Service {
	return &Service{
		repo:  repo,
		deps:  deps,
		hooks: domain.NewHookRegistry[*Contract](),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Hooks returns the lifecycle hook registry.
func (s *Service) Hooks() *domain.HookRegistry[*Contract] {
	return s.hooks
}

// LineInput is a requested rental line.
type LineInput struct {
	ProductID id.ID
	Quantity  int64
}

// CreateInput carries the fields of a new contract.
type CreateInput struct {
	Date           time.Time
	CustomerName   string
	CustomerPhone  *string
	StartDate      time.Time
	PlannedEndDate *time.Time
	RentAmount     types.MinorUnits
	Deposit        types.MinorUnits
	Comment        string
	Lines          []LineInput
}

// UpdateInput edits a draft. Nil fields are left unchanged.
type UpdateInput struct {
	Version        int
	CustomerName   *string
	CustomerPhone  *string
	StartDate      *time.Time
	PlannedEndDate *time.Time
	RentAmount     *types.MinorUnits
	Deposit        *types.MinorUnits
	Comment        *string
	Lines          []LineInput
}

// Create creates a draft contract.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Contract, error) {
	start := in.StartDate
	if start.IsZero() {
		start = s.now()
	}
	doc := NewContract(in.CustomerName, start.UTC())
	doc.Date = documents.ValidateDocumentDate(in.Date)
	doc.CustomerPhone = documents.OptionalText(in.CustomerPhone)
	doc.PlannedEndDate = in.PlannedEndDate
	doc.RentAmount = in.RentAmount
	doc.Deposit = in.Deposit
	doc.Comment = in.Comment

	lines, err := s.buildLines(ctx, in.Lines)
	if err != nil {
		return nil, err
	}
	doc.Lines = lines

	if err := s.hooks.RunBeforeCreate(ctx, doc); err != nil {
		return nil, err
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, err
	}
	if err := documents.AssignNumber(ctx, s.deps.Numerator, &doc.Document, NumberPrefix, NumeratorStrategy); err != nil {
		return nil, err
	}

	err = s.deps.TxManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, doc); err != nil {
			return fmt.Errorf("create document: %w", err)
		}
		if err := s.repo.SaveLines(ctx, doc.ID, doc.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		return documents.Publish(ctx, s.deps.Events, docKind, doc.ID, events.DocumentCreated, summary(doc))
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "rental contract created", "id", doc.ID, "number", doc.Number)
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
		p, err := documents.ActiveProduct(ctx, s.deps.Products, lineNo, in.ProductID)
		if err != nil {
			return nil, err
		}
		if !p.IsRentable() {
			return nil, apperror.NewValidation("only rental assets can be rented").
				WithDetail("line", lineNo).
				WithDetail("product", p.Title()).
				WithDetail("kind", string(p.Kind))
		}
		if err := documents.CheckDuplicate(seen, lineNo, p.ID); err != nil {
			return nil, err
		}
		lines = append(lines, Line{
			LineID:    id.New(),
			LineNo:    lineNo,
			ProductID: p.ID,
			Title:     p.Title(),
			Quantity:  in.Quantity,
		})
	}
	return lines, nil
}

// Update edits a draft contract.
func (s *Service) Update(ctx context.Context, docID id.ID, in UpdateInput) (*Contract, error) {
	var doc *Contract
	err := s.deps.TxManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.lockWithLines(ctx, docID)
		if err != nil {
			return err
		}
		if err := documents.CheckVersion("rental contract", doc.ID, in.Version, doc.Version); err != nil {
			return err
		}
		if err := documents.RequireDraft("rental contract", string(doc.Status), string(StatusDraft)); err != nil {
			return err
		}

		if in.CustomerName != nil {
			doc.CustomerName = *in.CustomerName
		}
		if in.CustomerPhone != nil {
			doc.CustomerPhone = documents.OptionalText(in.CustomerPhone)
		}
		if in.StartDate != nil {
			doc.StartDate = in.StartDate.UTC()
		}
		if in.PlannedEndDate != nil {
			doc.PlannedEndDate = in.PlannedEndDate
		}
		if in.RentAmount != nil {
			doc.RentAmount = *in.RentAmount
		}
		if in.Deposit != nil {
			doc.Deposit = *in.Deposit
		}
		if in.Comment != nil {
			doc.Comment = *in.Comment
		}
		if in.Lines != nil {
			if doc.Lines, err = s.buildLines(ctx, in.Lines); err != nil {
				return err
			}
		}
		if err := s.hooks.RunBeforeUpdate(ctx, doc); err != nil {
			return err
		}
		if err := doc.Validate(ctx); err != nil {
			return err
		}

		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update document: %w", err)
		}
		if in.Lines != nil {
			if err := s.repo.SaveLines(ctx, doc.ID, doc.Lines); err != nil {
				return fmt.Errorf("save lines: %w", err)
			}
		}
		return documents.Publish(ctx, s.deps.Events, docKind, doc.ID, events.DocumentUpdated, summary(doc))
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "rental contract updated", "id", doc.ID, "number", doc.Number)
	return doc, nil
}

// Activate hands the assets out. Availability of every line is checked
// before the first decrement.
func (s *Service) Activate(ctx context.Context, docID id.ID) (*Contract, error) {
	var doc *Contract
	err := s.deps.TxManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.lockWithLines(ctx, docID)
		if err != nil {
			return err
		}
		if err := transitions.Check(doc.Status, StatusActive); err != nil {
			return err
		}
		if err := s.deps.Stock.ValidateSufficiencyAll(ctx, doc.Requirements()); err != nil {
			return err
		}

		ref := doc.Reference()
		for _, l := range doc.Lines {
			_, err := s.deps.Stock.ApplyDelta(ctx, stock.Change{
				ProductID: l.ProductID,
				Delta:     -l.Quantity,
				Kind:      stock.KindOut,
				Reference: ref,
				Note:      "rented on " + doc.Number,
			})
			if err != nil {
				return fmt.Errorf("reserve line %d: %w", l.LineNo, err)
			}
		}

		now := s.now()
		doc.ActivatedAt = &now
		return s.moveTo(ctx, doc, StatusActive)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "rental contract activated", "id", doc.ID, "number", doc.Number)
	return doc, nil
}

// Close takes the assets back and stamps the end date.
func (s *Service) Close(ctx context.Context, docID id.ID) (*Contract, error) {
	var doc *Contract
	err := s.deps.TxManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.lockWithLines(ctx, docID)
		if err != nil {
			return err
		}
		if err := transitions.Check(doc.Status, StatusClosed); err != nil {
			return err
		}

		ref := doc.ReturnReference()
		for _, l := range doc.Lines {
			_, err := s.deps.Stock.ApplyDelta(ctx, stock.Change{
				ProductID: l.ProductID,
				Delta:     l.Quantity,
				Kind:      stock.KindIn,
				Reference: ref,
				Note:      "returned on " + doc.Number,
			})
			if err != nil {
				return fmt.Errorf("return line %d: %w", l.LineNo, err)
			}
		}

		now := s.now()
		doc.EndDate = &now
		return s.moveTo(ctx, doc, StatusClosed)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "rental contract closed", "id", doc.ID, "number", doc.Number)
	return doc, nil
}

// Transition drives the contract to target through the matching operation.
func (s *Service) Transition(ctx context.Context, docID id.ID, target Status) (*Contract, error) {
	switch target {
	case StatusActive:
		return s.Activate(ctx, docID)
	case StatusClosed:
		return s.Close(ctx, docID)
	}
	if !transitions.Known(target) {
		return nil, apperror.NewValidation("unknown contract status").WithDetail("value", string(target))
	}
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}
	if err := transitions.Check(doc.Status, target); err != nil {
		return nil, err
	}
	return nil, apperror.NewInvalidTransition("rental contract", string(doc.Status), string(target))
}

// GetByID retrieves a contract with lines.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*Contract, error) {
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

// GetForBilling locks a contract header so a bill can be raised against it.
func (s *Service) GetForBilling(ctx context.Context, docID id.ID) (*Contract, error) {
	return s.repo.GetForUpdate(ctx, docID)
}

// List retrieves contract headers.
func (s *Service) List(ctx context.Context, filter domain.DocumentListFilter) (domain.ListResult[*Contract], error) {
	filter.Limit, filter.Offset = domain.NormalizePage(filter.Limit, filter.Offset)
	return s.repo.List(ctx, filter)
}

func (s *Service) lockWithLines(ctx context.Context, docID id.ID) (*Contract, error) {
	doc, err := s.repo.GetForUpdate(ctx, docID)
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

func (s *Service) moveTo(ctx context.Context, doc *Contract, to Status) error {
	from := doc.Status
	doc.Status = to
	if err := s.hooks.RunBeforeUpdate(ctx, doc); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, doc); err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	return documents.Publish(ctx, s.deps.Events, docKind, doc.ID, events.DocumentTransitioned, events.Transition{
		Number: doc.Number,
		From:   string(from),
		To:     string(to),
	})
}
