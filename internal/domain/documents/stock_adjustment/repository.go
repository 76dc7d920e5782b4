package stock_adjustment

import (
	"context"

	"smartsewing/internal/core/id"
	"smartsewing/internal/domain"
)

// Repository defines operations for stock adjustments. Adjustments are never
// edited after creation.
type Repository interface {
	Create(ctx context.Context, doc *Adjustment) error
	GetByID(ctx context.Context, docID id.ID) (*Adjustment, error)
	GetByNumber(ctx context.Context, number string) (*Adjustment, error)

	GetLines(ctx context.Context, docID id.ID) ([]Item, error)
	SaveLines(ctx context.Context, docID id.ID, items []Item) error

	List(ctx context.Context, filter domain.DocumentListFilter) (domain.ListResult[*Adjustment], error)
}
