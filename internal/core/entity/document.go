package entity

import (
	"context"
	"time"

	"smartsewing/internal/core/apperror"
)

// Document is the base type for commercial documents.
// Each concrete document adds its own status field and lines.
type Document struct {
	BaseDocument

	// Number is the sequential human-readable number (INV-2026-00001)
	Number string `db:"number" json:"number"`

	// Date is the business date of the document
	Date time.Time `db:"date" json:"date"`

	// Comment is an optional user comment
	Comment string `db:"comment" json:"comment,omitempty"`
}

// NewDocument creates a new Document dated now.
func NewDocument() Document {
	return Document{
		BaseDocument: NewBaseDocument(),
		Date:         time.Now().UTC(),
	}
}

// Validate implements Validatable interface.
func (d *Document) Validate(ctx context.Context) error {
	if d.Date.IsZero() {
		return apperror.NewValidation("date is required").
			WithDetail("field", "date")
	}
	return nil
}

// GetNumber returns the document number.
func (d *Document) GetNumber() string { return d.Number }

// SetNumber assigns the number issued by the numerator.
func (d *Document) SetNumber(n string) { d.Number = n }

// GetDate returns the business date used for numbering periods.
func (d *Document) GetDate() time.Time { return d.Date }
