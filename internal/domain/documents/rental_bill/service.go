package rental_bill

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
	"smartsewing/internal/domain/documents/rental_contract"
	"smartsewing/internal/domain/events"
	"smartsewing/internal/domain/finance"
	"smartsewing/pkg/logger"
)

// Contracts resolves the contract a bill is raised against.
type Contracts interface {
	GetForBilling(ctx context.Context, docID id.ID) (*rental_contract.Contract, error)
}

// Service provides business operations for rental bills.
type Service struct {
	repo      Repository
	contracts Contracts
	deps      documents.Deps
	hooks     *domain.HookRegistry[*Bill]
	now       func() time.Time
}

// NewService creates a new rental bill service.
func NewService(repo Repository, contracts Contracts, deps documents.Deps) *Service {
	return &Service{
		repo:      repo,
		contracts: contracts,
		deps:      deps,
		hooks:     domain.NewHookRegistry[*Bill](),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Hooks returns the lifecycle hook registry.
func (s *Service) Hooks() *domain.HookRegistry[*Bill] {
	return s.hooks
}

// CreateInput carries the fields of a new bill. A zero Amount bills the
// contract's rent amount.
type CreateInput struct {
	Date        time.Time
	ContractID  id.ID
	PeriodStart time.Time
	PeriodEnd   time.Time
	Amount      types.MinorUnits
	Comment     string
}

// MarkPaidInput names the account that received the rent.
type MarkPaidInput struct {
	AccountID  id.ID
	CategoryID *id.ID
	Note       string
}

// Create raises a draft bill against an active or closed contract.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Bill, error) {
	doc := &Bill{
		Document:      entity.NewDocument(),
		ContractID:    in.ContractID,
		PeriodStart:   in.PeriodStart.UTC(),
		PeriodEnd:     in.PeriodEnd.UTC(),
		Amount:        in.Amount,
		Status:        StatusDraft,
		PaymentStatus: finance.PaymentUnpaid,
	}
	doc.Date = documents.ValidateDocumentDate(in.Date)
	doc.Comment = in.Comment

	if id.IsNil(in.ContractID) {
		return nil, apperror.NewValidation("contract is required").WithDetail("field", "contractId")
	}

	err := s.deps.TxManager.RunInTransaction(ctx, func(ctx context.Context) error {
		contract, err := s.contracts.GetForBilling(ctx, in.ContractID)
		if err != nil {
			return err
		}
		if !contract.IsBillable() {
			return apperror.NewNotPayable("rental contract", string(contract.Status)).
				WithDetail("reason", "bills can only be raised against active or closed contracts")
		}
		doc.ContractNumber = contract.Number
		doc.CustomerName = contract.CustomerName
		if doc.Amount == 0 {
			doc.Amount = contract.RentAmount
		}

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
		return documents.Publish(ctx, s.deps.Events, docKind, doc.ID, events.DocumentCreated, summary(doc))
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "rental bill created", "id", doc.ID, "number", doc.Number, "contract", doc.ContractNumber)
	return doc, nil
}

// Issue moves a draft bill to ISSUED.
func (s *Service) Issue(ctx context.Context, docID id.ID) (*Bill, error) {
	var doc *Bill
	err := s.deps.TxManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.repo.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}
		if err := transitions.Check(doc.Status, StatusIssued); err != nil {
			return err
		}
		now := s.now()
		doc.IssuedAt = &now
		return s.moveTo(ctx, doc, StatusIssued)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "rental bill issued", "id", doc.ID, "number", doc.Number)
	return doc, nil
}

// Cancel cancels an issued bill. Cancelling a cancelled bill succeeds without
// changes; a paid bill cannot be cancelled.
func (s *Service) Cancel(ctx context.Context, docID id.ID) (*Bill, error) {
	var (
		doc  *Bill
		noop bool
	)
	err := s.deps.TxManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.repo.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}
		if doc.Status == StatusCancelled {
			noop = true
			return nil
		}
		if doc.IsPaid() {
			return apperror.NewIllegalTransition("rental bill", "bill is paid, use refund flow").
				WithDetail("number", doc.Number)
		}
		if err := transitions.Check(doc.Status, StatusCancelled); err != nil {
			return err
		}
		now := s.now()
		doc.CancelledAt = &now
		return s.moveTo(ctx, doc, StatusCancelled)
	})
	if err != nil {
		return nil, err
	}

	if !noop {
		logger.Info(ctx, "rental bill cancelled", "id", doc.ID, "number", doc.Number)
	}
	return doc, nil
}

// Transition drives the bill to target through the matching operation.
func (s *Service) Transition(ctx context.Context, docID id.ID, target Status) (*Bill, error) {
	switch target {
	case StatusIssued:
		return s.Issue(ctx, docID)
	case StatusCancelled:
		return s.Cancel(ctx, docID)
	}
	if !transitions.Known(target) {
		return nil, apperror.NewValidation("unknown bill status").WithDetail("value", string(target))
	}
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}
	if err := transitions.Check(doc.Status, target); err != nil {
		return nil, err
	}
	return nil, apperror.NewInvalidTransition("rental bill", string(doc.Status), string(target))
}

// MarkPaid settles the bill in full. It is write-once: repeated calls leave
// exactly one ledger entry referencing the bill.
func (s *Service) MarkPaid(ctx context.Context, docID id.ID, in MarkPaidInput) (*Bill, error) {
	var (
		doc   *Bill
		entry *finance.Entry
		fresh bool
	)
	err := s.deps.TxManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.repo.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}
		if !doc.IsPaid() && doc.Status != StatusIssued {
			return apperror.NewNotPayable("rental bill", string(doc.Status))
		}

		entry, fresh, err = s.deps.Ledger.MarkFullyPaid(ctx, finance.MarkPaidRequest{
			Reference:  doc.Reference(),
			Amount:     doc.Amount,
			Direction:  finance.DirectionIn,
			AccountID:  in.AccountID,
			CategoryID: in.CategoryID,
			Note:       in.Note,
		})
		if err != nil {
			return err
		}
		if doc.IsPaid() {
			return nil
		}

		now := s.now()
		doc.PaymentStatus = finance.PaymentPaid
		doc.PaidAt = &now
		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update payment status: %w", err)
		}

		applied := types.MinorUnits(0)
		if fresh {
			applied = entry.Amount
		}
		return documents.Publish(ctx, s.deps.Events, docKind, doc.ID, events.PaymentRecorded, events.Payment{
			EntryID:       entry.ID,
			AmountApplied: int64(applied),
			TotalPaid:     int64(entry.Amount),
			PaymentStatus: string(doc.PaymentStatus),
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "rental bill marked paid",
		"id", doc.ID,
		"number", doc.Number,
		"entry_id", entry.ID,
		"new_entry", fresh,
	)
	return doc, nil
}

// GetByID retrieves a bill.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*Bill, error) {
	return s.repo.GetByID(ctx, docID)
}

// List retrieves bills, optionally of one contract.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Bill], error) {
	filter.Limit, filter.Offset = domain.NormalizePage(filter.Limit, filter.Offset)
	return s.repo.List(ctx, filter)
}

func (s *Service) moveTo(ctx context.Context, doc *Bill, to Status) error {
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
