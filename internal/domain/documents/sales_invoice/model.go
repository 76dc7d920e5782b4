// Package sales_invoice provides the Sales Invoice document: goods sold to a
// walk-in or named customer, issued out of stock and paid in one or more parts.
package sales_invoice

import (
	"context"
	"time"

	"smartsewing/internal/core/apperror"
	"smartsewing/internal/core/entity"
	"smartsewing/internal/core/id"
	"smartsewing/internal/core/types"
	"smartsewing/internal/domain/documents"
	"smartsewing/internal/domain/events"
	"smartsewing/internal/domain/finance"
	"smartsewing/internal/domain/registers/stock"
)

// Status is the invoice lifecycle state.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusIssued    Status = "ISSUED"
	StatusCancelled Status = "CANCELLED"
)

const docKind = entity.KindSalesInvoice

var transitions = documents.NewTransitions("sales invoice", map[Status][]Status{
	StatusDraft:  {StatusIssued, StatusCancelled},
	StatusIssued: {StatusCancelled},
})

// Invoice represents a sales invoice.
type Invoice struct {
	entity.Document

	CustomerName  string  `db:"customer_name" json:"customerName"`
	CustomerPhone *string `db:"customer_phone" json:"customerPhone,omitempty"`

	Status        Status                `db:"status" json:"status"`
	PaymentStatus finance.PaymentStatus `db:"payment_status" json:"paymentStatus"`

	// Totals (calculated from lines)
	Subtotal types.MinorUnits `db:"subtotal" json:"subtotal"`
	Discount types.MinorUnits `db:"discount" json:"discount"`
	Total    types.MinorUnits `db:"total" json:"total"`

	// PaidAmount caches the ledger sum as of the last payment
	PaidAmount types.MinorUnits `db:"paid_amount" json:"paidAmount"`

	IssuedAt    *time.Time `db:"issued_at" json:"issuedAt,omitempty"`
	CancelledAt *time.Time `db:"cancelled_at" json:"cancelledAt,omitempty"`

	Lines []Line `db:"-" json:"lines"`
}

// Line is one sold product. Title and UnitPrice are snapshots taken when the
// line was added; later catalog edits never reach an existing invoice.
type Line struct {
	LineID    id.ID            `db:"line_id" json:"lineId"`
	LineNo    int              `db:"line_no" json:"lineNo"`
	ProductID id.ID            `db:"product_id" json:"productId"`
	Title     string           `db:"title" json:"title"`
	Quantity  int64            `db:"quantity" json:"quantity"`
	UnitPrice types.MinorUnits `db:"unit_price" json:"unitPrice"`
	Amount    types.MinorUnits `db:"amount" json:"amount"`
}

// NewInvoice creates an empty draft invoice.
func NewInvoice(customerName string) *Invoice {
	return &Invoice{
		Document:      entity.NewDocument(),
		CustomerName:  customerName,
		Status:        StatusDraft,
		PaymentStatus: finance.PaymentUnpaid,
		Lines:         make([]Line, 0),
	}
}

func summary(inv *Invoice) events.Summary {
	return events.Summary{
		Number: inv.Number,
		Status: string(inv.Status),
		Total:  int64(inv.Total),
		Lines:  len(inv.Lines),
	}
}

// Reference points movements and ledger entries at this invoice.
func (inv *Invoice) Reference() entity.Reference {
	return entity.NewReference(docKind, inv.ID)
}

// Recalculate derives line amounts and totals. Discount may not exceed the subtotal.
func (inv *Invoice) Recalculate() error {
	var subtotal types.MinorUnits
	for i := range inv.Lines {
		l := &inv.Lines[i]
		l.LineNo = i + 1
		amount, total, ok := types.LineAmount(subtotal, l.UnitPrice, l.Quantity)
		if !ok {
			return apperror.NewInvalidAmount("unitPrice", int64(l.UnitPrice)).
				WithDetail("line", l.LineNo).
				WithDetail("reason", "amount out of range")
		}
		l.Amount = amount
		subtotal = total
	}
	if inv.Discount < 0 {
		return apperror.NewInvalidAmount("discount", int64(inv.Discount))
	}
	if inv.Discount > subtotal {
		return apperror.NewValidation("discount cannot exceed subtotal").
			WithDetail("field", "discount").
			WithDetail("subtotal", int64(subtotal)).
			WithDetail("discount", int64(inv.Discount))
	}
	inv.Subtotal = subtotal
	inv.Total = subtotal - inv.Discount
	return nil
}

// Validate implements entity.Validatable interface.
func (inv *Invoice) Validate(ctx context.Context) error {
	if err := inv.Document.Validate(ctx); err != nil {
		return err
	}
	if _, err := documents.RequireText("customerName", inv.CustomerName); err != nil {
		return err
	}
	if len(inv.Lines) == 0 {
		return apperror.NewValidation("invoice must have at least one line").
			WithDetail("field", "lines")
	}
	for _, l := range inv.Lines {
		if err := documents.CheckQuantity(l.LineNo, l.Quantity); err != nil {
			return err
		}
		if l.UnitPrice < 0 {
			return apperror.NewInvalidAmount("unitPrice", int64(l.UnitPrice)).WithDetail("line", l.LineNo)
		}
	}
	return nil
}

// Requirements lists the stock needed to issue the invoice.
func (inv *Invoice) Requirements() []stock.Requirement {
	reqs := make([]stock.Requirement, 0, len(inv.Lines))
	for _, l := range inv.Lines {
		reqs = append(reqs, stock.Requirement{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	return reqs
}

// ParseStatus validates a status received from a caller.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !transitions.Known(st) {
		return "", apperror.NewValidation("unknown invoice status").
			WithDetail("field", "status").
			WithDetail("value", s)
	}
	return st, nil
}
