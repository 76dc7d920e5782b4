package purchase_bill

import (
	"context"

	"smartsewing/internal/core/id"
	"smartsewing/internal/domain"
)

// Repository defines operations for purchase bills.
type Repository interface {
	Create(ctx context.Context, doc *PurchaseBill) error
	GetByID(ctx context.Context, docID id.ID) (*PurchaseBill, error)
	GetByNumber(ctx context.Context, number string) (*PurchaseBill, error)
	// Update writes the header if doc.Version still matches and bumps it.
	Update(ctx context.Context, doc *PurchaseBill) error

	GetLines(ctx context.Context, docID id.ID) ([]Line, error)
	SaveLines(ctx context.Context, docID id.ID, lines []Line) error

	List(ctx context.Context, filter domain.DocumentListFilter) (domain.ListResult[*PurchaseBill], error)
	GetForUpdate(ctx context.Context, docID id.ID) (*PurchaseBill, error)
}
