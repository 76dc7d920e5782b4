package stock

import (
	"context"

	"smartsewing/internal/core/id"
	"smartsewing/internal/domain"
)

// Repository persists product quantities, movements and the location mirror.
// Every method must run inside the caller's transaction.
type Repository interface {
	// GetProductForUpdate reads a product's quantity and locks the row until commit.
	GetProductForUpdate(ctx context.Context, productID id.ID) (*ProductStock, error)

	// SetProductQuantity overwrites the on-hand quantity.
	SetProductQuantity(ctx context.Context, productID id.ID, quantity int64) error

	// AppendMovement inserts a movement ledger entry. Entries are never updated.
	AppendMovement(ctx context.Context, m *Movement) error

	// ListMovements returns movements newest first.
	ListMovements(ctx context.Context, filter MovementFilter) (domain.ListResult[*Movement], error)

	// DefaultLocationID returns the default location; NotFound when none is configured.
	DefaultLocationID(ctx context.Context) (id.ID, error)

	// LocationExists reports whether the location exists.
	LocationExists(ctx context.Context, locationID id.ID) (bool, error)

	// GetLocationStockForUpdate returns the product's location rows ordered by
	// location code and locks them until commit.
	GetLocationStockForUpdate(ctx context.Context, productID id.ID) ([]*LocationStock, error)

	// UpsertLocationStock sets the quantity of one location row.
	UpsertLocationStock(ctx context.Context, locationID, productID id.ID, quantity int64) error

	// ListUnmirroredProducts returns products whose quantity differs from the
	// sum of their location rows, ordered by id.
	ListUnmirroredProducts(ctx context.Context) ([]id.ID, error)

	// ListLocationStock returns location rows ordered by location code, then product name.
	ListLocationStock(ctx context.Context, filter LocationStockFilter) ([]*LocationStock, error)
}
