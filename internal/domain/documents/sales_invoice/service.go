package sales_invoice

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
	"smartsewing/internal/domain/finance"
	"smartsewing/internal/domain/registers/stock"
	"smartsewing/pkg/logger"
)

// Service provides business operations for sales invoices.
type Service struct {
	repo  Repository
	deps  documents.Deps
	hooks *domain.HookRegistry[*Invoice]
	now   func() time.Time
}

// NewService creates a new sales invoice service.
func NewService(repo Repository, deps documents.Deps) *Service {
	return &Service{
		repo:  repo,
		deps:  deps,
		hooks: domain.NewHookRegistry[*Invoice](),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Hooks returns the lifecycle hook registry.
func (s *Service) Hooks() *domain.HookRegistry[*Invoice] {
	return s.hooks
}

// LineInput is a requested invoice line. A nil UnitPrice snapshots the
// product's current price.
type LineInput struct {
	ProductID id.ID
	Quantity  int64
	UnitPrice *types.MinorUnits
}

// CreateInput carries the fields of a new invoice.
type CreateInput struct {
	Date          time.Time
	CustomerName  string
	CustomerPhone *string
	Discount      types.MinorUnits
	Comment       string
	Lines         []LineInput
}

// UpdateInput edits a draft. Nil fields are left unchanged; a nil Lines keeps
// the current lines.
type UpdateInput struct {
	Version       int
	CustomerName  *string
	CustomerPhone *string
	Discount      *types.MinorUnits
	Comment       *string
	Date          *time.Time
	Lines         []LineInput
}

// Create creates a draft invoice. Stock is untouched until it is issued.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Invoice, error) {
	doc := NewInvoice(in.CustomerName)
	doc.Date = documents.ValidateDocumentDate(in.Date)
	doc.CustomerPhone = documents.OptionalText(in.CustomerPhone)
	doc.Discount = in.Discount
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

	logger.Info(ctx, "sales invoice created", "id", doc.ID, "number", doc.Number, "total", int64(doc.Total))
	return doc, nil
}

// buildLines resolves products and snapshots their title and price.
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
		if !p.IsSellable() {
			return nil, apperror.NewValidation("product cannot be sold").
				WithDetail("line", lineNo).
				WithDetail("product", p.Title()).
				WithDetail("kind", string(p.Kind))
		}
		if err := documents.CheckDuplicate(seen, lineNo, p.ID); err != nil {
			return nil, err
		}

		price := p.UnitPrice
		if in.UnitPrice != nil {
			if *in.UnitPrice < 0 {
				return nil, apperror.NewInvalidAmount("unitPrice", int64(*in.UnitPrice)).WithDetail("line", lineNo)
			}
			price = *in.UnitPrice
		}
		lines = append(lines, Line{
			LineID:    id.New(),
			LineNo:    lineNo,
			ProductID: p.ID,
			Title:     p.Title(),
			Quantity:  in.Quantity,
			UnitPrice: price,
		})
	}
	return lines, nil
}

// Update edits a draft invoice.
func (s *Service) Update(ctx context.Context, docID id.ID, in UpdateInput) (*Invoice, error) {
	var doc *Invoice
	err := s.deps.TxManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.lockWithLines(ctx, docID)
		if err != nil {
			return err
		}
		if err := documents.CheckVersion("sales invoice", doc.ID, in.Version, doc.Version); err != nil {
			return err
		}
		if err := documents.RequireDraft("sales invoice", string(doc.Status), string(StatusDraft)); err != nil {
			return err
		}

		if in.CustomerName != nil {
			doc.CustomerName = *in.CustomerName
		}
		if in.CustomerPhone != nil {
			doc.CustomerPhone = documents.OptionalText(in.CustomerPhone)
		}
		if in.Discount != nil {
			doc.Discount = *in.Discount
		}
		if in.Comment != nil {
			doc.Comment = *in.Comment
		}
		if in.Date != nil {
			doc.Date = documents.ValidateDocumentDate(*in.Date)
		}
		if in.Lines != nil {
			lines, err := s.buildLines(ctx, in.Lines)
			if err != nil {
				return err
			}
			doc.Lines = lines
		}
		if err := doc.Recalculate(); err != nil {
			return err
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

	logger.Info(ctx, "sales invoice updated", "id", doc.ID, "number", doc.Number)
	return doc, nil
}

// Issue moves a draft to ISSUED. Every line is checked for sufficient stock
// before the first decrement, so a short line leaves all stock untouched.
func (s *Service) Issue(ctx context.Context, docID id.ID) (*Invoice, error) {
	var doc *Invoice
	err := s.deps.TxManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.lockWithLines(ctx, docID)
		if err != nil {
			return err
		}
		if err := transitions.Check(doc.Status, StatusIssued); err != nil {
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
				Note:      "issued on " + doc.Number,
			})
			if err != nil {
				return fmt.Errorf("issue line %d: %w", l.LineNo, err)
			}
		}

		now := s.now()
		doc.IssuedAt = &now
		doc.PaymentStatus = finance.OpeningPaymentStatus(doc.Total)
		return s.moveTo(ctx, doc, StatusIssued)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "sales invoice issued", "id", doc.ID, "number", doc.Number, "lines", len(doc.Lines))
	return doc, nil
}

// Cancel terminates an invoice. Cancelling an issued invoice restocks every
// line with an IN movement; cancelling a draft has no stock effect. Invoices
// that already carry payments must be refunded instead.
func (s *Service) Cancel(ctx context.Context, docID id.ID) (*Invoice, error) {
	var doc *Invoice
	err := s.deps.TxManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.lockWithLines(ctx, docID)
		if err != nil {
			return err
		}
		if err := transitions.Check(doc.Status, StatusCancelled); err != nil {
			return err
		}
		if doc.PaidAmount > 0 {
			return apperror.NewIllegalTransition("sales invoice", "invoice has recorded payments, use refund flow").
				WithDetail("paid", int64(doc.PaidAmount))
		}

		if doc.Status == StatusIssued {
			ref := doc.Reference()
			for _, l := range doc.Lines {
				_, err := s.deps.Stock.ApplyDelta(ctx, stock.Change{
					ProductID: l.ProductID,
					Delta:     l.Quantity,
					Kind:      stock.KindIn,
					Reference: ref,
					Note:      "cancelled " + doc.Number,
				})
				if err != nil {
					return fmt.Errorf("restock line %d: %w", l.LineNo, err)
				}
			}
		}

		now := s.now()
		doc.CancelledAt = &now
		return s.moveTo(ctx, doc, StatusCancelled)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "sales invoice cancelled", "id", doc.ID, "number", doc.Number)
	return doc, nil
}

// Transition drives the invoice to target through the matching operation.
func (s *Service) Transition(ctx context.Context, docID id.ID, target Status) (*Invoice, error) {
	switch target {
	case StatusIssued:
		return s.Issue(ctx, docID)
	case StatusCancelled:
		return s.Cancel(ctx, docID)
	}
	if !transitions.Known(target) {
		return nil, apperror.NewValidation("unknown invoice status").WithDetail("value", string(target))
	}
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}
	if err := transitions.Check(doc.Status, target); err != nil {
		return nil, err
	}
	return nil, apperror.NewInvalidTransition("sales invoice", string(doc.Status), string(target))
}

// RecordPayment applies a customer payment to an issued invoice. The amount is
// clamped to what remains unpaid and the resulting status is written back.
func (s *Service) RecordPayment(ctx context.Context, docID id.ID, in documents.PaymentInput) (*Invoice, *finance.PaymentResult, error) {
	var (
		doc *Invoice
		res *finance.PaymentResult
	)
	err := s.deps.TxManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.repo.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}
		if doc.Status != StatusIssued {
			return apperror.NewNotPayable("sales invoice", string(doc.Status))
		}

		res, err = s.deps.Ledger.RecordPayment(ctx, finance.PaymentRequest{
			Reference:  doc.Reference(),
			Total:      doc.Total,
			Direction:  finance.DirectionIn,
			AccountID:  in.AccountID,
			CategoryID: in.CategoryID,
			Amount:     in.Amount,
			Note:       in.Note,
		})
		if err != nil {
			return err
		}

		doc.PaidAmount = res.TotalPaid
		doc.PaymentStatus = res.Status
		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update payment status: %w", err)
		}
		return documents.Publish(ctx, s.deps.Events, docKind, doc.ID, events.PaymentRecorded, events.Payment{
			EntryID:       res.Entry.ID,
			AmountApplied: int64(res.AmountApplied),
			TotalPaid:     int64(res.TotalPaid),
			Remaining:     int64(res.Remaining),
			PaymentStatus: string(res.Status),
		})
	})
	if err != nil {
		return nil, nil, err
	}

	lines, err := s.repo.GetLines(ctx, doc.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("get lines: %w", err)
	}
	doc.Lines = lines

	logger.Info(ctx, "sales invoice payment recorded",
		"id", doc.ID,
		"number", doc.Number,
		"applied", int64(res.AmountApplied),
		"payment_status", res.Status,
	)
	return doc, res, nil
}

// GetByID retrieves an invoice with lines.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*Invoice, error) {
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

// GetByNumber retrieves an invoice by its number.
func (s *Service) GetByNumber(ctx context.Context, number string) (*Invoice, error) {
	doc, err := s.repo.GetByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, doc.ID)
}

// List retrieves invoice headers.
func (s *Service) List(ctx context.Context, filter domain.DocumentListFilter) (domain.ListResult[*Invoice], error) {
	filter.Limit, filter.Offset = domain.NormalizePage(filter.Limit, filter.Offset)
	return s.repo.List(ctx, filter)
}

func (s *Service) lockWithLines(ctx context.Context, docID id.ID) (*Invoice, error) {
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

// moveTo stores the new status and records the transition event.
func (s *Service) moveTo(ctx context.Context, doc *Invoice, to Status) error {
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
