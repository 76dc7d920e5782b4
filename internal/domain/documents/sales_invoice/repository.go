package sales_invoice

import (
	"context"

	"smartsewing/internal/core/id"
	"smartsewing/internal/domain"
)

// Repository defines operations for sales invoices.
type Repository interface {
	Create(ctx context.Context, doc *Invoice) error
	GetByID(ctx context.Context, docID id.ID) (*Invoice, error)
	GetByNumber(ctx context.Context, number string) (*Invoice, error)
	// Update writes the header if doc.Version still matches and bumps it.
	Update(ctx context.Context, doc *Invoice) error

	GetLines(ctx context.Context, docID id.ID) ([]Line, error)
	SaveLines(ctx context.Context, docID id.ID, lines []Line) error

	List(ctx context.Context, filter domain.DocumentListFilter) (domain.ListResult[*Invoice], error)
	GetForUpdate(ctx context.Context, docID id.ID) (*Invoice, error)
}
