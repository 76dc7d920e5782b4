package catalog_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"smartsewing/internal/domain"
	"smartsewing/internal/domain/catalogs/product"
	"smartsewing/internal/infrastructure/storage/postgres"
)

// ProductRepo implements product.Repository. The quantity column belongs to
// the stock engine and is never written here after insert.
type ProductRepo struct {
	*BaseCatalogRepo[*product.Product]
}

var _ product.Repository = (*ProductRepo)(nil)

// NewProductRepo creates a new product repository.
func NewProductRepo(txManager *postgres.TxManager) *ProductRepo {
	base := NewBaseCatalogRepo(
		txManager,
		"cat_products",
		"product",
		postgres.ExtractDBColumns[product.Product](),
		func() *product.Product { return &product.Product{} },
	)
	base.readOnlyCols = []string{"quantity"}
	return &ProductRepo{BaseCatalogRepo: base}
}

// FindByBarcode retrieves a product by barcode.
func (r *ProductRepo) FindByBarcode(ctx context.Context, barcode string) (*product.Product, error) {
	return r.FindOne(ctx, r.baseSelect().Where(squirrel.Eq{"barcode": barcode}).Limit(1), barcode)
}

// ListProducts lists products with product-specific filters.
func (r *ProductRepo) ListProducts(ctx context.Context, filter product.Filter) (domain.ListResult[*product.Product], error) {
	var extra []squirrel.Sqlizer
	if filter.Kind != "" {
		extra = append(extra, squirrel.Eq{"kind": filter.Kind})
	}
	if filter.MaxQuantity != nil {
		extra = append(extra, squirrel.LtOrEq{"quantity": *filter.MaxQuantity})
	}
	return r.ListWhere(ctx, filter.ListFilter, extra)
}
