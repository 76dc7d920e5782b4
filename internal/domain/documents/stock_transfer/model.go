// Package stock_transfer provides the Stock Transfer document: quantity moved
// between two locations, leaving every product's total on hand unchanged.
package stock_transfer

import (
	"context"

	"smartsewing/internal/core/apperror"
	"smartsewing/internal/core/entity"
	"smartsewing/internal/core/id"
	"smartsewing/internal/domain/documents"
	"smartsewing/internal/domain/events"
	"smartsewing/internal/domain/registers/stock"
)

const docKind = entity.KindTransfer

// Transfer represents a stock transfer.
type Transfer struct {
	entity.Document

	FromLocationID id.ID `db:"from_location_id" json:"fromLocationId"`
	ToLocationID   id.ID `db:"to_location_id" json:"toLocationId"`

	Lines []Line `db:"-" json:"lines"`
}

// Line is one moved product.
type Line struct {
	LineID    id.ID  `db:"line_id" json:"lineId"`
	LineNo    int    `db:"line_no" json:"lineNo"`
	ProductID id.ID  `db:"product_id" json:"productId"`
	Title     string `db:"title" json:"title"`
	Quantity  int64  `db:"quantity" json:"quantity"`
}

// Reference identifies this transfer.
func (t *Transfer) Reference() entity.Reference {
	return entity.NewReference(docKind, t.ID)
}

// Validate implements entity.Validatable interface.
func (t *Transfer) Validate(ctx context.Context) error {
	if err := t.Document.Validate(ctx); err != nil {
		return err
	}
	if id.IsNil(t.FromLocationID) || id.IsNil(t.ToLocationID) {
		return apperror.NewValidation("source and destination locations are required").
			WithDetail("field", "fromLocationId")
	}
	if t.FromLocationID == t.ToLocationID {
		return apperror.NewValidation("source and destination locations must differ").
			WithDetail("field", "toLocationId")
	}
	if len(t.Lines) == 0 {
		return apperror.NewValidation("transfer must have at least one line").
			WithDetail("field", "lines")
	}
	for _, l := range t.Lines {
		if err := documents.CheckQuantity(l.LineNo, l.Quantity); err != nil {
			return err
		}
	}
	return nil
}

// Requirements lists what the source location must hold.
func (t *Transfer) Requirements() []stock.Requirement {
	reqs := make([]stock.Requirement, 0, len(t.Lines))
	for _, l := range t.Lines {
		reqs = append(reqs, stock.Requirement{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	return reqs
}

func summary(t *Transfer) events.Summary {
	return events.Summary{Number: t.Number, Lines: len(t.Lines)}
}
