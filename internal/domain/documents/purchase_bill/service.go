package purchase_bill

import (
	"context"
	"fmt"
	"time"

	"smartsewing/internal/core/apperror"
	"smartsewing/internal/core/entity"
	"smartsewing/internal/core/id"
	"smartsewing/internal/core/types"
	"smartsewing/internal/domain"
	"smartsewing/internal/domain/documents"
	"smartsewing/internal/domain/events"
	"smartsewing/internal/domain/finance"
	"smartsewing/internal/domain/registers/stock"
	"smartsewing/pkg/logger"
)

// Service provides business operations for purchase bills.
type Service struct {
	repo  Repository
	deps  documents.Deps
	hooks *domain.HookRegistry[*PurchaseBill]
}

// NewService creates a new purchase bill service.
func NewService(repo Repository, deps documents.Deps) *Service {
	return &Service{
		repo:  repo,
		deps:  deps,
		hooks: domain.NewHookRegistry[*PurchaseBill](),
	}
}

// Hooks returns the lifecycle hook registry.
func (s *Service) Hooks() *domain.HookRegistry[*PurchaseBill] {
	return s.hooks
}

// LineInput is one received product.
type LineInput struct {
	ProductID id.ID
	Quantity  int64
	UnitCost  types.MinorUnits
}

// CreateInput carries the fields of a new purchase bill.
type CreateInput struct {
	Date         time.Time
	SupplierName string
	SupplierRef  *string
	LocationID   *id.ID
	Comment      string
	Lines        []LineInput
}

// Create records a purchase bill and receives its lines into stock with IN movements.
func (s *Service) Create(ctx context.Context, in CreateInput) (*PurchaseBill, error) {
	doc := &PurchaseBill{
		Document:      entity.NewDocument(),
		SupplierName:  in.SupplierName,
		SupplierRef:   documents.OptionalText(in.SupplierRef),
		LocationID:    in.LocationID,
		Status:        StatusReceived,
		PaymentStatus: finance.PaymentUnpaid,
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
	doc.PaymentStatus = finance.OpeningPaymentStatus(doc.Total)

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

		ref := doc.Reference()
		for _, l := range doc.Lines {
			_, err := s.deps.Stock.ApplyDelta(ctx, stock.Change{
				ProductID:  l.ProductID,
				Delta:      l.Quantity,
				Kind:       stock.KindIn,
				Reference:  ref,
				Note:       "received on " + doc.Number,
				LocationID: doc.LocationID,
			})
			if err != nil {
				return fmt.Errorf("receive line %d: %w", l.LineNo, err)
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

	logger.Info(ctx, "purchase bill received", "id", doc.ID, "number", doc.Number, "total", int64(doc.Total))
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
		if in.UnitCost < 0 {
			return nil, apperror.NewInvalidAmount("unitCost", int64(in.UnitCost)).WithDetail("line", lineNo)
		}
		p, err := documents.ActiveProduct(ctx, s.deps.Products, lineNo, in.ProductID)
		if err != nil {
			return nil, err
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
			UnitCost:  in.UnitCost,
		})
	}
	return lines, nil
}

// RecordPayment pays the supplier. Payments are OUT entries clamped to what
// remains of the bill total.
func (s *Service) RecordPayment(ctx context.Context, docID id.ID, in documents.PaymentInput) (*PurchaseBill, *finance.PaymentResult, error) {
	var (
		doc *PurchaseBill
		res *finance.PaymentResult
	)
	err := s.deps.TxManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.repo.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}
		if doc.Status != StatusReceived {
			return apperror.NewNotPayable("purchase bill", string(doc.Status))
		}

		res, err = s.deps.Ledger.RecordPayment(ctx, finance.PaymentRequest{
			Reference:  doc.Reference(),
			Total:      doc.Total,
			Direction:  finance.DirectionOut,
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

	logger.Info(ctx, "supplier payment recorded",
		"id", doc.ID,
		"number", doc.Number,
		"applied", int64(res.AmountApplied),
		"payment_status", res.Status,
	)
	return doc, res, nil
}

// GetByID retrieves a purchase bill with lines.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*PurchaseBill, error) {
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

// List retrieves purchase bill headers.
func (s *Service) List(ctx context.Context, filter domain.DocumentListFilter) (domain.ListResult[*PurchaseBill], error) {
	filter.Limit, filter.Offset = domain.NormalizePage(filter.Limit, filter.Offset)
	return s.repo.List(ctx, filter)
}
