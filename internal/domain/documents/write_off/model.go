// Package write_off provides the Write-off document: stock permanently lost,
// damaged or destroyed, valued for the books.
package write_off

import (
	"context"

	"smartsewing/internal/core/apperror"
	"smartsewing/internal/core/entity"
	"smartsewing/internal/core/id"
	"smartsewing/internal/core/types"
	"smartsewing/internal/domain/documents"
	"smartsewing/internal/domain/events"
	"smartsewing/internal/domain/registers/stock"
)

// Status of a write-off. It is recorded once and never reversed.
type Status string

const StatusRecorded Status = "RECORDED"

const docKind = entity.KindWriteOff

// WriteOff represents a write-off.
type WriteOff struct {
	entity.Document

	Reason     string           `db:"reason" json:"reason"`
	Status     Status           `db:"status" json:"status"`
	TotalValue types.MinorUnits `db:"total_value" json:"totalValue"`

	// LocationID is drained first; the stock engine's order otherwise
	LocationID *id.ID `db:"location_id" json:"locationId,omitempty"`

	Lines []Line `db:"-" json:"lines"`
}

// Line is one written-off product. Title is a snapshot.
type Line struct {
	LineID    id.ID            `db:"line_id" json:"lineId"`
	LineNo    int              `db:"line_no" json:"lineNo"`
	ProductID id.ID            `db:"product_id" json:"productId"`
	Title     string           `db:"title" json:"title"`
	Quantity  int64            `db:"quantity" json:"quantity"`
	UnitValue types.MinorUnits `db:"unit_value" json:"unitValue"`
	Amount    types.MinorUnits `db:"amount" json:"amount"`
}

// Reference points the movements at this write-off.
func (w *WriteOff) Reference() entity.Reference {
	return entity.NewReference(docKind, w.ID)
}

// Recalculate derives line amounts and the total value.
func (w *WriteOff) Recalculate() error {
	var total types.MinorUnits
	for i := range w.Lines {
		l := &w.Lines[i]
		l.LineNo = i + 1
		amount, next, ok := types.LineAmount(total, l.UnitValue, l.Quantity)
		if !ok {
			return apperror.NewInvalidAmount("unitValue", int64(l.UnitValue)).
				WithDetail("line", l.LineNo).
				WithDetail("reason", "amount out of range")
		}
		l.Amount = amount
		total = next
	}
	w.TotalValue = total
	return nil
}

// Validate implements entity.Validatable interface.
func (w *WriteOff) Validate(ctx context.Context) error {
	if err := w.Document.Validate(ctx); err != nil {
		return err
	}
	if _, err := documents.RequireText("reason", w.Reason); err != nil {
		return err
	}
	if len(w.Lines) == 0 {
		return apperror.NewValidation("write-off must have at least one line").
			WithDetail("field", "lines")
	}
	for _, l := range w.Lines {
		if err := documents.CheckQuantity(l.LineNo, l.Quantity); err != nil {
			return err
		}
		if l.UnitValue < 0 {
			return apperror.NewInvalidAmount("unitValue", int64(l.UnitValue)).WithDetail("line", l.LineNo)
		}
	}
	return nil
}

// Requirements lists the stock removed by the write-off.
func (w *WriteOff) Requirements() []stock.Requirement {
	reqs := make([]stock.Requirement, 0, len(w.Lines))
	for _, l := range w.Lines {
		reqs = append(reqs, stock.Requirement{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	return reqs
}

func summary(w *WriteOff) events.Summary {
	return events.Summary{
		Number: w.Number,
		Status: string(w.Status),
		Total:  int64(w.TotalValue),
		Lines:  len(w.Lines),
	}
}
