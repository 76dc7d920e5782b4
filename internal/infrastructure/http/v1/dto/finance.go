package dto

import (
	"time"

	"smartsewing/internal/core/entity"
	"smartsewing/internal/core/id"
	"smartsewing/internal/domain/finance"
)

// CreateEntryRequest for POST /finance/entries: a manual income or expense.
type CreateEntryRequest struct {
	AccountID  id.ID      `json:"accountId" binding:"required"`
	CategoryID *id.ID     `json:"categoryId"`
	Direction  string     `json:"direction" binding:"required"`
	Amount     Money      `json:"amount"`
	OccurredAt *time.Time `json:"occurredAt"`
	Note       string     `json:"note"`
}

// ToInput maps the request onto the service input.
func (r CreateEntryRequest) ToInput() finance.EntryInput {
	in := finance.EntryInput{
		AccountID:  r.AccountID,
		CategoryID: r.CategoryID,
		Direction:  finance.Direction(r.Direction),
		Amount:     r.Amount.Minor(),
		Note:       r.Note,
	}
	if r.OccurredAt != nil {
		in.OccurredAt = *r.OccurredAt
	}
	return in
}

// ReferenceQuery is the referenceType/referenceId pair of list endpoints.
type ReferenceQuery struct {
	Type string `form:"referenceType"`
	ID   string `form:"referenceId"`
}

// Parse validates the pair; both empty yields the zero reference.
func (q ReferenceQuery) Parse() (entity.Reference, error) {
	return entity.ParseReference(q.Type, q.ID)
}
