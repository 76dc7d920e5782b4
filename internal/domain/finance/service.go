package finance

import (
	"context"
	"fmt"
	"time"

	"smartsewing/internal/core/apperror"
	appctx "smartsewing/internal/core/context"
	"smartsewing/internal/core/entity"
	"smartsewing/internal/core/id"
	"smartsewing/internal/core/numerator"
	"smartsewing/internal/core/tx"
	"smartsewing/internal/core/types"
	"smartsewing/internal/domain"
	"smartsewing/pkg/logger"
)

// Service is the financial ledger. It owns the entry log; documents own their
// payment-status field and write back what RecordPayment returns.
type Service struct {
	Accounts   *domain.CatalogService[*Account]
	Categories *domain.CatalogService[*Category]

	entries   EntryRepository
	txManager tx.Manager
	now       func() time.Time
}

// NewService creates a new ledger service.
func NewService(
	accounts AccountRepository,
	categories CategoryRepository,
	entries EntryRepository,
	txManager tx.Manager,
	num numerator.Generator,
) *Service {
	return &Service{
		Accounts: domain.NewCatalogService(domain.CatalogServiceConfig[*Account]{
			Repo:       accounts,
			TxManager:  txManager,
			Numerator:  num,
			EntityName: "account",
			CodePrefix: "ACC",
		}),
		Categories: domain.NewCatalogService(domain.CatalogServiceConfig[*Category]{
			Repo:       categories,
			TxManager:  txManager,
			Numerator:  num,
			EntityName: "category",
			CodePrefix: "CAT",
		}),
		entries:   entries,
		txManager: txManager,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateEntry appends a validated ledger entry.
func (s *Service) CreateEntry(ctx context.Context, in EntryInput) (*Entry, error) {
	if !in.Direction.Valid() {
		return nil, apperror.NewValidation("direction must be IN or OUT").
			WithDetail("field", "direction").
			WithDetail("value", string(in.Direction))
	}
	if in.Amount <= 0 {
		return nil, apperror.NewInvalidAmount("amount", int64(in.Amount))
	}
	if err := in.Reference.Validate(); err != nil {
		return nil, err
	}
	occurredAt := in.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = s.now()
	}
	if occurredAt.After(s.now().Add(24 * time.Hour)) {
		return nil, apperror.NewValidation("occurred-at cannot be in the future").
			WithDetail("field", "occurredAt")
	}

	var e *Entry
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.Accounts.GetActive(ctx, in.AccountID); err != nil {
			return err
		}
		if in.CategoryID != nil {
			cat, err := s.Categories.GetActive(ctx, *in.CategoryID)
			if err != nil {
				return err
			}
			if cat.Direction != in.Direction {
				return apperror.NewValidation("category direction does not match entry direction").
					WithDetail("field", "categoryId").
					WithDetail("categoryDirection", string(cat.Direction))
			}
		}

		e = &Entry{
			ID:         id.New(),
			AccountID:  in.AccountID,
			CategoryID: in.CategoryID,
			Direction:  in.Direction,
			Amount:     in.Amount,
			Reference:  in.Reference,
			OccurredAt: occurredAt.UTC(),
			Note:       in.Note,
			CreatedBy:  appctx.GetUserID(ctx),
			CreatedAt:  s.now(),
		}
		if err := s.entries.AppendEntry(ctx, e); err != nil {
			return fmt.Errorf("append ledger entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "ledger entry recorded",
		"id", e.ID,
		"account_id", e.AccountID,
		"direction", e.Direction,
		"amount", int64(e.Amount),
		"reference", e.Reference.String(),
	)
	return e, nil
}

// RecordPayment applies up to req.Amount against a document, never more than
// what remains of req.Total. The caller has already checked that the document
// is payable and writes Status back onto it in the same transaction.
func (s *Service) RecordPayment(ctx context.Context, req PaymentRequest) (*PaymentResult, error) {
	if req.Amount <= 0 {
		return nil, apperror.NewInvalidAmount("amount", int64(req.Amount))
	}
	if req.Reference.IsZero() {
		return nil, apperror.NewValidation("payment must reference a document")
	}
	dir := req.Direction
	if dir == "" {
		dir = DirectionIn
	}

	var res *PaymentResult
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.Accounts.GetActive(ctx, req.AccountID); err != nil {
			return err
		}

		alreadyPaid, err := s.entries.SumByReference(ctx, req.Reference, dir)
		if err != nil {
			return fmt.Errorf("sum payments: %w", err)
		}
		remaining := max(req.Total-alreadyPaid, 0)
		if remaining <= 0 {
			return apperror.NewAlreadyPaid(string(req.Reference.Kind), req.Reference.ID.String()).
				WithDetail("total", int64(req.Total)).
				WithDetail("paid", int64(alreadyPaid))
		}

		applied := types.MinMinor(req.Amount, remaining)
		entry, err := s.CreateEntry(ctx, EntryInput{
			AccountID:  req.AccountID,
			CategoryID: req.CategoryID,
			Direction:  dir,
			Amount:     applied,
			Reference:  req.Reference,
			Note:       req.Note,
		})
		if err != nil {
			return err
		}

		newPaid := alreadyPaid + applied
		res = &PaymentResult{
			Entry:         entry,
			AmountApplied: applied,
			TotalPaid:     newPaid,
			Remaining:     req.Total - newPaid,
			Status:        ComputePaymentStatus(newPaid, req.Total),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// MarkFullyPaid settles a document with a single entry. If any entry already
// references the document, that entry is returned and nothing is written, so
// repeated calls never duplicate the ledger.
func (s *Service) MarkFullyPaid(ctx context.Context, req MarkPaidRequest) (*Entry, bool, error) {
	if req.Amount <= 0 {
		return nil, false, apperror.NewInvalidAmount("amount", int64(req.Amount))
	}
	if req.Reference.IsZero() {
		return nil, false, apperror.NewValidation("payment must reference a document")
	}
	dir := req.Direction
	if dir == "" {
		dir = DirectionIn
	}

	var (
		entry   *Entry
		created bool
	)
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.entries.FindByReference(ctx, req.Reference)
		if err != nil {
			return fmt.Errorf("find payments: %w", err)
		}
		for _, e := range existing {
			if e.Direction == dir {
				entry = e
				return nil
			}
		}

		entry, err = s.CreateEntry(ctx, EntryInput{
			AccountID:  req.AccountID,
			CategoryID: req.CategoryID,
			Direction:  dir,
			Amount:     req.Amount,
			Reference:  req.Reference,
			Note:       req.Note,
		})
		created = err == nil
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return entry, created, nil
}

// PaidToDate returns Σ entries of a direction referencing a document.
func (s *Service) PaidToDate(ctx context.Context, ref entity.Reference, dir Direction) (types.MinorUnits, error) {
	return s.entries.SumByReference(ctx, ref, dir)
}

// AccountBalance returns Σ IN − Σ OUT of an account.
func (s *Service) AccountBalance(ctx context.Context, accountID id.ID) (*Balance, error) {
	if _, err := s.Accounts.GetByID(ctx, accountID); err != nil {
		return nil, err
	}
	in, out, err := s.entries.Totals(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("account totals: %w", err)
	}
	return &Balance{AccountID: accountID, TotalIn: in, TotalOut: out, Balance: in - out}, nil
}

// ListEntries returns ledger entries newest first.
func (s *Service) ListEntries(ctx context.Context, filter EntryFilter) (domain.ListResult[*Entry], error) {
	filter.Limit, filter.Offset = domain.NormalizePage(filter.Limit, filter.Offset)
	return s.entries.ListEntries(ctx, filter)
}

// EntriesFor returns every entry referencing a document.
func (s *Service) EntriesFor(ctx context.Context, ref entity.Reference) ([]*Entry, error) {
	return s.entries.FindByReference(ctx, ref)
}
