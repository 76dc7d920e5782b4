package rental_contract

import (
	"context"

	"smartsewing/internal/core/id"
	"smartsewing/internal/domain"
)

// Repository defines operations for rental contracts.
type Repository interface {
	Create(ctx context.Context, doc *Contract) error
	GetByID(ctx context.Context, docID id.ID) (*Contract, error)
	GetByNumber(ctx context.Context, number string) (*Contract, error)
	// Update writes the header if doc.Version still matches and bumps it.
	Update(ctx context.Context, doc *Contract) error

	GetLines(ctx context.Context, docID id.ID) ([]Line, error)
	SaveLines(ctx context.Context, docID id.ID, lines []Line) error

	List(ctx context.Context, filter domain.DocumentListFilter) (domain.ListResult[*Contract], error)
	GetForUpdate(ctx context.Context, docID id.ID) (*Contract, error)
}
