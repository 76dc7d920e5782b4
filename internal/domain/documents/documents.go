// Package documents holds what every document state machine shares: the
// transition table, the collaborators a document drives, numbering and the
// outbox event helper.
package documents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"smartsewing/internal/core/apperror"
	"smartsewing/internal/core/entity"
	"smartsewing/internal/core/id"
	"smartsewing/internal/core/numerator"
	"smartsewing/internal/core/tx"
	"smartsewing/internal/core/types"
	"smartsewing/internal/domain/catalogs/product"
	"smartsewing/internal/domain/events"
	"smartsewing/internal/domain/finance"
	"smartsewing/internal/domain/registers/stock"
)

// Products resolves product snapshots for document lines.
type Products interface {
	GetByID(ctx context.Context, id id.ID) (*product.Product, error)
}

// StockEngine is the part of the stock engine documents drive.
type StockEngine interface {
	ApplyDelta(ctx context.Context, ch stock.Change) (*stock.Result, error)
	ValidateSufficiencyAll(ctx context.Context, reqs []stock.Requirement) error
	GetProductStock(ctx context.Context, productID id.ID) (*stock.ProductStock, error)
	ValidateLocationSufficiency(ctx context.Context, locationID id.ID, reqs []stock.Requirement) error
	Transfer(ctx context.Context, req stock.TransferRequest) error
}

// Ledger is the part of the financial ledger documents drive.
type Ledger interface {
	RecordPayment(ctx context.Context, req finance.PaymentRequest) (*finance.PaymentResult, error)
	MarkFullyPaid(ctx context.Context, req finance.MarkPaidRequest) (*finance.Entry, bool, error)
}

// Deps bundles the collaborators every document service is built with.
type Deps struct {
	TxManager tx.Manager
	Numerator numerator.Generator
	Products  Products
	Stock     StockEngine
	Ledger    Ledger
	Events    events.Publisher
}

// PaymentInput is money applied against a payable document.
type PaymentInput struct {
	AccountID  id.ID
	CategoryID *id.ID
	Amount     types.MinorUnits
	Note       string
}

// AssignNumber fills doc's number from the numerator when it is empty.
func AssignNumber(ctx context.Context, gen numerator.Generator, doc *entity.Document, prefix string, strategy numerator.Strategy) error {
	if doc.Number != "" {
		return nil
	}
	number, err := gen.GetNextNumber(ctx, numerator.DefaultConfig(prefix), &numerator.Options{Strategy: strategy}, doc.Date)
	if err != nil {
		return fmt.Errorf("generate number: %w", err)
	}
	doc.Number = number
	return nil
}

// Publish writes a document event to the outbox of the ambient transaction.
func Publish(ctx context.Context, pub events.Publisher, kind entity.DocumentKind, docID id.ID, eventType string, payload any) error {
	if pub == nil {
		return nil
	}
	err := pub.Publish(ctx, events.Event{
		AggregateType: string(kind),
		AggregateID:   docID,
		EventType:     eventType,
		Payload:       payload,
		OccurredAt:    time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", eventType, err)
	}
	return nil
}

// RequireText trims s and fails validation when nothing is left.
func RequireText(field, s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", apperror.NewValidation(field+" is required").WithDetail("field", field)
	}
	return s, nil
}

// OptionalText trims s and maps blank to nil.
func OptionalText(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// CheckQuantity rejects non-positive line quantities.
func CheckQuantity(lineNo int, qty int64) error {
	if qty <= 0 {
		return apperror.NewValidation("quantity must be positive").
			WithDetail("line", lineNo).
			WithDetail("quantity", qty)
	}
	return nil
}

// CheckDuplicate rejects a product appearing on two lines of one document.
func CheckDuplicate(seen map[id.ID]int, lineNo int, productID id.ID) error {
	if prev, ok := seen[productID]; ok {
		return apperror.NewValidation("product appears on more than one line").
			WithDetail("product_id", productID.String()).
			WithDetail("line", lineNo).
			WithDetail("first_line", prev)
	}
	seen[productID] = lineNo
	return nil
}

// CheckVersion fails when the caller edited a stale copy. Zero skips the check.
func CheckVersion(entityName string, docID id.ID, expected, actual int) error {
	if expected != 0 && expected != actual {
		return apperror.NewConcurrentModification(entityName, docID.String()).
			WithDetail("expected_version", expected).
			WithDetail("actual_version", actual)
	}
	return nil
}

// RequireDraft rejects edits of documents that left their initial state.
func RequireDraft(entityName, status, draft string) error {
	if status != draft {
		return apperror.NewBusinessRule(apperror.CodeBusinessRule, entityName+" can only be edited in "+draft).
			WithDetail("status", status)
	}
	return nil
}

// ActiveProduct loads a product for a new line and refuses deactivated ones.
func ActiveProduct(ctx context.Context, products Products, lineNo int, productID id.ID) (*product.Product, error) {
	if id.IsNil(productID) {
		return nil, apperror.NewValidation("product is required").WithDetail("line", lineNo)
	}
	p, err := products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, apperror.NewInactive("product", productID.String()).WithDetail("line", lineNo)
	}
	return p, nil
}

// ValidateDocumentDate defaults a zero date to now.
func ValidateDocumentDate(d time.Time) time.Time {
	if d.IsZero() {
		return time.Now().UTC()
	}
	return d.UTC()
}
