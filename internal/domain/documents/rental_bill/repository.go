package rental_bill

import (
	"context"

	"smartsewing/internal/core/id"
	"smartsewing/internal/domain"
)

// Repository defines operations for rental bills.
type Repository interface {
	Create(ctx context.Context, doc *Bill) error
	GetByID(ctx context.Context, docID id.ID) (*Bill, error)
	GetByNumber(ctx context.Context, number string) (*Bill, error)
	// Update writes the header if doc.Version still matches and bumps it.
	Update(ctx context.Context, doc *Bill) error

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Bill], error)
	GetForUpdate(ctx context.Context, docID id.ID) (*Bill, error)
}

// ListFilter narrows bill lists to one contract.
type ListFilter struct {
	domain.DocumentListFilter

	ContractID *id.ID
}
