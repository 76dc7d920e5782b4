// Package rental_contract provides the Rental Contract document: rental assets
// handed to a customer on activation and taken back on close.
package rental_contract

import (
	"context"
	"time"

	"smartsewing/internal/core/apperror"
	"smartsewing/internal/core/entity"
	"smartsewing/internal/core/id"
	"smartsewing/internal/core/types"
	"smartsewing/internal/domain/documents"
	"smartsewing/internal/domain/events"
	"smartsewing/internal/domain/registers/stock"
)

// Status is the contract lifecycle state.
type Status string

const (
	StatusDraft  Status = "DRAFT"
	StatusActive Status = "ACTIVE"
	StatusClosed Status = "CLOSED"
)

const docKind = entity.KindRentalContract

var transitions = documents.NewTransitions("rental contract", map[Status][]Status{
	StatusDraft:  {StatusActive},
	StatusActive: {StatusClosed},
})

// Contract represents a rental contract.
type Contract struct {
	entity.Document

	CustomerName  string  `db:"customer_name" json:"customerName"`
	CustomerPhone *string `db:"customer_phone" json:"customerPhone,omitempty"`

	Status Status `db:"status" json:"status"`

	StartDate time.Time `db:"start_date" json:"startDate"`
	// PlannedEndDate is what was agreed; EndDate is stamped on close.
	PlannedEndDate *time.Time `db:"planned_end_date" json:"plannedEndDate,omitempty"`
	EndDate        *time.Time `db:"end_date" json:"endDate,omitempty"`

	// RentAmount is the agreed rent per billing period
	RentAmount types.MinorUnits `db:"rent_amount" json:"rentAmount"`
	Deposit    types.MinorUnits `db:"deposit" json:"deposit"`

	ActivatedAt *time.Time `db:"activated_at" json:"activatedAt,omitempty"`

	Lines []Line `db:"-" json:"lines"`
}

// Line is one rented asset.
type Line struct {
	LineID    id.ID  `db:"line_id" json:"lineId"`
	LineNo    int    `db:"line_no" json:"lineNo"`
	ProductID id.ID  `db:"product_id" json:"productId"`
	Title     string `db:"title" json:"title"`
	Quantity  int64  `db:"quantity" json:"quantity"`
}

// NewContract creates an empty draft contract.
func NewContract(customerName string, start time.Time) *Contract {
	return &Contract{
		Document:     entity.NewDocument(),
		CustomerName: customerName,
		Status:       StatusDraft,
		StartDate:    start,
		Lines:        make([]Line, 0),
	}
}

// Reference points activation movements and bills at this contract.
func (c *Contract) Reference() entity.Reference {
	return entity.NewReference(docKind, c.ID)
}

// ReturnReference points the close movements at this contract's return.
func (c *Contract) ReturnReference() entity.Reference {
	return entity.NewReference(entity.KindRentalContractReturn, c.ID)
}

// Validate implements entity.Validatable interface.
func (c *Contract) Validate(ctx context.Context) error {
	if err := c.Document.Validate(ctx); err != nil {
		return err
	}
	if _, err := documents.RequireText("customerName", c.CustomerName); err != nil {
		return err
	}
	if c.StartDate.IsZero() {
		return apperror.NewValidation("start date is required").WithDetail("field", "startDate")
	}
	if c.PlannedEndDate != nil && c.PlannedEndDate.Before(c.StartDate) {
		return apperror.NewValidation("planned end date is before start date").
			WithDetail("field", "plannedEndDate")
	}
	if c.RentAmount < 0 {
		return apperror.NewInvalidAmount("rentAmount", int64(c.RentAmount))
	}
	if c.Deposit < 0 {
		return apperror.NewInvalidAmount("deposit", int64(c.Deposit))
	}
	if len(c.Lines) == 0 {
		return apperror.NewValidation("contract must have at least one line").
			WithDetail("field", "lines")
	}
	for _, l := range c.Lines {
		if err := documents.CheckQuantity(l.LineNo, l.Quantity); err != nil {
			return err
		}
	}
	return nil
}

// Requirements lists the stock reserved by activation.
func (c *Contract) Requirements() []stock.Requirement {
	reqs := make([]stock.Requirement, 0, len(c.Lines))
	for _, l := range c.Lines {
		reqs = append(reqs, stock.Requirement{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	return reqs
}

// IsBillable reports whether bills may be raised against the contract.
func (c *Contract) IsBillable() bool {
	return c.Status == StatusActive || c.Status == StatusClosed
}

// ParseStatus validates a status received from a caller.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !transitions.Known(st) {
		return "", apperror.NewValidation("unknown contract status").
			WithDetail("field", "status").
			WithDetail("value", s)
	}
	return st, nil
}

func summary(c *Contract) events.Summary {
	return events.Summary{
		Number: c.Number,
		Status: string(c.Status),
		Total:  int64(c.RentAmount),
		Lines:  len(c.Lines),
	}
}
