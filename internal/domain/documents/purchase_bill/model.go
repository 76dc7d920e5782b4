// Package purchase_bill provides the Purchase Bill document: goods received
// from a supplier, booked into stock on creation and paid off over time.
package purchase_bill

import (
	"context"

	"smartsewing/internal/core/apperror"
	"smartsewing/internal/core/entity"
	"smartsewing/internal/core/id"
	"smartsewing/internal/core/types"
	"smartsewing/internal/domain/documents"
	"smartsewing/internal/domain/events"
	"smartsewing/internal/domain/finance"
)

// Status of a purchase bill. Bills are received once and stay payable.
type Status string

const StatusReceived Status = "RECEIVED"

const docKind = entity.KindPurchaseBill

// PurchaseBill represents a supplier bill.
type PurchaseBill struct {
	entity.Document

	SupplierName string  `db:"supplier_name" json:"supplierName"`
	SupplierRef  *string `db:"supplier_ref" json:"supplierRef,omitempty"`

	// LocationID receives the goods; default location when nil
	LocationID *id.ID `db:"location_id" json:"locationId,omitempty"`

	Status        Status                `db:"status" json:"status"`
	PaymentStatus finance.PaymentStatus `db:"payment_status" json:"paymentStatus"`

	Total      types.MinorUnits `db:"total" json:"total"`
	PaidAmount types.MinorUnits `db:"paid_amount" json:"paidAmount"`

	Lines []Line `db:"-" json:"lines"`
}

// Line is one received product.
type Line struct {
	LineID    id.ID            `db:"line_id" json:"lineId"`
	LineNo    int              `db:"line_no" json:"lineNo"`
	ProductID id.ID            `db:"product_id" json:"productId"`
	Title     string           `db:"title" json:"title"`
	Quantity  int64            `db:"quantity" json:"quantity"`
	UnitCost  types.MinorUnits `db:"unit_cost" json:"unitCost"`
	Amount    types.MinorUnits `db:"amount" json:"amount"`
}

// Reference points movements and supplier payments at this bill.
func (b *PurchaseBill) Reference() entity.Reference {
	return entity.NewReference(docKind, b.ID)
}

// Recalculate derives line amounts and the bill total.
func (b *PurchaseBill) Recalculate() error {
	var total types.MinorUnits
	for i := range b.Lines {
		l := &b.Lines[i]
		l.LineNo = i + 1
		amount, next, ok := types.LineAmount(total, l.UnitCost, l.Quantity)
		if !ok {
			return apperror.NewInvalidAmount("unitCost", int64(l.UnitCost)).
				WithDetail("line", l.LineNo).
				WithDetail("reason", "amount out of range")
		}
		l.Amount = amount
		total = next
	}
	b.Total = total
	return nil
}

// Validate implements entity.Validatable interface.
func (b *PurchaseBill) Validate(ctx context.Context) error {
	if err := b.Document.Validate(ctx); err != nil {
		return err
	}
	if _, err := documents.RequireText("supplierName", b.SupplierName); err != nil {
		return err
	}
	if len(b.Lines) == 0 {
		return apperror.NewValidation("purchase bill must have at least one line").
			WithDetail("field", "lines")
	}
	for _, l := range b.Lines {
		if err := documents.CheckQuantity(l.LineNo, l.Quantity); err != nil {
			return err
		}
		if l.UnitCost < 0 {
			return apperror.NewInvalidAmount("unitCost", int64(l.UnitCost)).WithDetail("line", l.LineNo)
		}
	}
	return nil
}

func summary(b *PurchaseBill) events.Summary {
	return events.Summary{
		Number: b.Number,
		Status: string(b.Status),
		Total:  int64(b.Total),
		Lines:  len(b.Lines),
	}
}
