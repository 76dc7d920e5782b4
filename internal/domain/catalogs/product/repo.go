package product

import (
	"context"

	"smartsewing/internal/domain"
)

// Filter narrows product lists.
type Filter struct {
	domain.ListFilter

	Kind Kind
	// MaxQuantity returns only products at or below this stock level
	MaxQuantity *int64
}

// Repository defines the interface for Product persistence.
// Update never writes the quantity column.
type Repository interface {
	domain.CatalogRepository[*Product]

	// FindByBarcode retrieves a product by barcode.
	FindByBarcode(ctx context.Context, barcode string) (*Product, error)

	// ListProducts lists products with product-specific filters.
	ListProducts(ctx context.Context, filter Filter) (domain.ListResult[*Product], error)
}
