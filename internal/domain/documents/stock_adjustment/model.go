// Package stock_adjustment provides the Stock Adjustment document: a stock
// count correction booked in one shot, one ADJUST movement per item.
package stock_adjustment

import (
	"context"

	"smartsewing/internal/core/apperror"
	"smartsewing/internal/core/entity"
	"smartsewing/internal/core/id"
	"smartsewing/internal/domain/events"
)

// Mode says how an item's quantity is read.
type Mode string

const (
	// ModeDelta moves stock by Quantity (either sign).
	ModeDelta Mode = "DELTA"
	// ModeSet sets stock to Quantity.
	ModeSet Mode = "SET"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeDelta || m == ModeSet
}

const docKind = entity.KindAdjustment

// Adjustment represents a stock adjustment.
type Adjustment struct {
	entity.Document

	Reason string `db:"reason" json:"reason"`

	// LocationID is where increments land; default location when nil
	LocationID *id.ID `db:"location_id" json:"locationId,omitempty"`

	Items []Item `db:"-" json:"items"`
}

// Item is one product's correction, with the quantities it produced.
type Item struct {
	LineID    id.ID  `db:"line_id" json:"lineId"`
	LineNo    int    `db:"line_no" json:"lineNo"`
	ProductID id.ID  `db:"product_id" json:"productId"`
	Title     string `db:"title" json:"title"`
	Mode      Mode   `db:"mode" json:"mode"`
	// Requested is the delta (DELTA) or the target quantity (SET) as entered
	Requested int64  `db:"requested" json:"requested"`
	Delta     int64  `db:"delta" json:"delta"`
	Before    int64  `db:"quantity_before" json:"before"`
	After     int64  `db:"quantity_after" json:"after"`
	Note      string `db:"note" json:"note,omitempty"`
}

// Reference points the movements at this adjustment.
func (a *Adjustment) Reference() entity.Reference {
	return entity.NewReference(docKind, a.ID)
}

// Validate implements entity.Validatable interface.
func (a *Adjustment) Validate(ctx context.Context) error {
	if err := a.Document.Validate(ctx); err != nil {
		return err
	}
	if len(a.Items) == 0 {
		return apperror.NewValidation("adjustment must have at least one item").
			WithDetail("field", "items")
	}
	return nil
}

func summary(a *Adjustment) events.Summary {
	return events.Summary{Number: a.Number, Lines: len(a.Items)}
}
