// Package finance provides the financial ledger: accounts, categories and the
// append-only log of money received and paid.
package finance

import (
	"context"
	"time"

	"smartsewing/internal/core/apperror"
	"smartsewing/internal/core/entity"
	"smartsewing/internal/core/id"
	"smartsewing/internal/core/types"
)

// AccountKind classifies where money is held.
type AccountKind string

const (
	AccountCash   AccountKind = "CASH"
	AccountBank   AccountKind = "BANK"
	AccountMobile AccountKind = "MOBILE" // bKash, Nagad and similar wallets
)

// Direction is the flow of money relative to the shop.
type Direction string

const (
	DirectionIn  Direction = "IN"
	DirectionOut Direction = "OUT"
)

// Valid reports whether d is IN or OUT.
func (d Direction) Valid() bool {
	return d == DirectionIn || d == DirectionOut
}

// PaymentStatus is derived from cumulative payments against a document total.
type PaymentStatus string

const (
	PaymentUnpaid  PaymentStatus = "UNPAID"
	PaymentPartial PaymentStatus = "PARTIAL"
	PaymentPaid    PaymentStatus = "PAID"
)

// OpeningPaymentStatus is the status of a payable document before any payment.
// A document that owes nothing is settled from the start.
func OpeningPaymentStatus(total types.MinorUnits) PaymentStatus {
	if total <= 0 {
		return PaymentPaid
	}
	return PaymentUnpaid
}

// ComputePaymentStatus classifies paid against total.
func ComputePaymentStatus(paid, total types.MinorUnits) PaymentStatus {
	switch {
	case paid <= 0:
		return PaymentUnpaid
	case paid < total:
		return PaymentPartial
	default:
		return PaymentPaid
	}
}

// Account is a named money bucket.
type Account struct {
	entity.Catalog

	Kind        AccountKind `db:"kind" json:"kind"`
	Description *string     `db:"description" json:"description,omitempty"`
}

// NewAccount creates a new active Account.
func NewAccount(code, name string, kind AccountKind) *Account {
	return &Account{
		Catalog: entity.NewCatalog(code, name),
		Kind:    kind,
	}
}

// Validate implements entity.Validatable interface.
func (a *Account) Validate(ctx context.Context) error {
	if err := a.Catalog.Validate(ctx); err != nil {
		return err
	}
	switch a.Kind {
	case AccountCash, AccountBank, AccountMobile:
		return nil
	}
	return apperror.NewValidation("invalid account kind").
		WithDetail("field", "kind").
		WithDetail("value", string(a.Kind))
}

// Category groups ledger entries for reporting (sales, rent, purchases, utilities).
type Category struct {
	entity.Catalog

	Direction Direction `db:"direction" json:"direction"`
}

// NewCategory creates a new active Category.
func NewCategory(code, name string, dir Direction) *Category {
	return &Category{
		Catalog:   entity.NewCatalog(code, name),
		Direction: dir,
	}
}

// Validate implements entity.Validatable interface.
func (c *Category) Validate(ctx context.Context) error {
	if err := c.Catalog.Validate(ctx); err != nil {
		return err
	}
	if !c.Direction.Valid() {
		return apperror.NewValidation("invalid category direction").
			WithDetail("field", "direction").
			WithDetail("value", string(c.Direction))
	}
	return nil
}

// Entry is one immutable ledger record. Amount is always positive; Direction
// carries the sign.
type Entry struct {
	ID         id.ID            `db:"id" json:"id"`
	AccountID  id.ID            `db:"account_id" json:"accountId"`
	CategoryID *id.ID           `db:"category_id" json:"categoryId,omitempty"`
	Direction  Direction        `db:"direction" json:"direction"`
	Amount     types.MinorUnits `db:"amount" json:"amount"`
	Reference  entity.Reference `db:"-" json:"reference"`
	OccurredAt time.Time        `db:"occurred_at" json:"occurredAt"`
	Note       string           `db:"note" json:"note,omitempty"`
	CreatedBy  string           `db:"created_by" json:"createdBy,omitempty"`
	CreatedAt  time.Time        `db:"created_at" json:"createdAt"`
}

// Signed returns the amount with IN positive and OUT negative.
func (e *Entry) Signed() types.MinorUnits {
	if e.Direction == DirectionOut {
		return -e.Amount
	}
	return e.Amount
}

// EntryInput carries the fields of a manually created entry.
type EntryInput struct {
	AccountID  id.ID
	CategoryID *id.ID
	Direction  Direction
	Amount     types.MinorUnits
	Reference  entity.Reference
	// OccurredAt defaults to now when zero
	OccurredAt time.Time
	Note       string
}

// EntryFilter selects ledger entries.
type EntryFilter struct {
	AccountID  *id.ID
	CategoryID *id.ID
	Direction  Direction
	Reference  entity.Reference
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}

// PaymentRequest asks to apply money against a document.
type PaymentRequest struct {
	Reference entity.Reference
	// Total is the document total the payments are measured against
	Total types.MinorUnits
	// Direction is IN for receivables and OUT for payables
	Direction  Direction
	AccountID  id.ID
	CategoryID *id.ID
	Amount     types.MinorUnits
	Note       string
}

// PaymentResult describes an applied payment.
type PaymentResult struct {
	Entry         *Entry           `json:"entry"`
	AmountApplied types.MinorUnits `json:"amountApplied"`
	TotalPaid     types.MinorUnits `json:"totalPaid"`
	Remaining     types.MinorUnits `json:"remaining"`
	Status        PaymentStatus    `json:"paymentStatus"`
}

// MarkPaidRequest asks to settle a document in full with a single entry.
type MarkPaidRequest struct {
	Reference  entity.Reference
	Amount     types.MinorUnits
	Direction  Direction
	AccountID  id.ID
	CategoryID *id.ID
	Note       string
}

// Balance is an account's running total.
type Balance struct {
	AccountID id.ID            `json:"accountId"`
	TotalIn   types.MinorUnits `json:"totalIn"`
	TotalOut  types.MinorUnits `json:"totalOut"`
	Balance   types.MinorUnits `json:"balance"`
}
