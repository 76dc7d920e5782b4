// Package rental_bill provides the Rental Bill document: rent charged for one
// period of a rental contract, settled in a single payment.
package rental_bill

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
)

// Status is the bill lifecycle state.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusIssued    Status = "ISSUED"
	StatusCancelled Status = "CANCELLED"
)

const docKind = entity.KindRentalBill

var transitions = documents.NewTransitions("rental bill", map[Status][]Status{
	StatusDraft:  {StatusIssued},
	StatusIssued: {StatusCancelled},
})

// Bill represents a rental bill. PaymentStatus is only ever UNPAID or PAID.
type Bill struct {
	entity.Document

	ContractID     id.ID  `db:"contract_id" json:"contractId"`
	ContractNumber string `db:"contract_number" json:"contractNumber"`
	CustomerName   string `db:"customer_name" json:"customerName"`

	PeriodStart time.Time        `db:"period_start" json:"periodStart"`
	PeriodEnd   time.Time        `db:"period_end" json:"periodEnd"`
	Amount      types.MinorUnits `db:"amount" json:"amount"`

	Status        Status                `db:"status" json:"status"`
	PaymentStatus finance.PaymentStatus `db:"payment_status" json:"paymentStatus"`

	IssuedAt    *time.Time `db:"issued_at" json:"issuedAt,omitempty"`
	PaidAt      *time.Time `db:"paid_at" json:"paidAt,omitempty"`
	CancelledAt *time.Time `db:"cancelled_at" json:"cancelledAt,omitempty"`
}

// Reference points ledger entries at this bill.
func (b *Bill) Reference() entity.Reference {
	return entity.NewReference(docKind, b.ID)
}

// IsPaid reports whether the bill has been settled.
func (b *Bill) IsPaid() bool {
	return b.PaymentStatus == finance.PaymentPaid
}

// Validate implements entity.Validatable interface.
func (b *Bill) Validate(ctx context.Context) error {
	if err := b.Document.Validate(ctx); err != nil {
		return err
	}
	if id.IsNil(b.ContractID) {
		return apperror.NewValidation("contract is required").WithDetail("field", "contractId")
	}
	if b.Amount <= 0 {
		return apperror.NewInvalidAmount("amount", int64(b.Amount))
	}
	if b.PeriodStart.IsZero() || b.PeriodEnd.IsZero() {
		return apperror.NewValidation("billing period is required").WithDetail("field", "periodStart")
	}
	if b.PeriodEnd.Before(b.PeriodStart) {
		return apperror.NewValidation("period end is before period start").WithDetail("field", "periodEnd")
	}
	return nil
}

// ParseStatus validates a status received from a caller.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !transitions.Known(st) {
		return "", apperror.NewValidation("unknown bill status").
			WithDetail("field", "status").
			WithDetail("value", s)
	}
	return st, nil
}

func summary(b *Bill) events.Summary {
	return events.Summary{
		Number: b.Number,
		Status: string(b.Status),
		Total:  int64(b.Amount),
	}
}
