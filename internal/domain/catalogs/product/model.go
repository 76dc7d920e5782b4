// Package product provides the Product catalog: goods for sale, rental assets and parts.
package product

import (
	"context"

	"smartsewing/internal/core/apperror"
	"smartsewing/internal/core/entity"
	"smartsewing/internal/core/types"
)

// Kind defines what a product is used for.
type Kind string

const (
	KindGoods       Kind = "GOODS"        // sold through sales invoices
	KindRentalAsset Kind = "RENTAL_ASSET" // rented out through rental contracts
	KindPart        Kind = "PART"         // spare parts, sold or consumed by service
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindGoods, KindRentalAsset, KindPart:
		return true
	}
	return false
}

// Product is a stock-keeping item. Name holds the product title.
// Quantity is owned by the stock engine and is never written by this package.
type Product struct {
	entity.Catalog

	Kind Kind `db:"kind" json:"kind"`

	// UnitPrice is the current selling price; documents snapshot it per line.
	UnitPrice types.MinorUnits `db:"unit_price" json:"unitPrice"`

	// Quantity is the on-hand quantity (read-only here)
	Quantity int64 `db:"quantity" json:"quantity"`

	Barcode     *string `db:"barcode" json:"barcode,omitempty"`
	Description *string `db:"description" json:"description,omitempty"`
}

// NewProduct creates a new active Product with zero stock.
func NewProduct(code, title string, kind Kind, unitPrice types.MinorUnits) *Product {
	return &Product{
		Catalog:   entity.NewCatalog(code, title),
		Kind:      kind,
		UnitPrice: unitPrice,
	}
}

// Title returns the display title.
func (p *Product) Title() string {
	return p.Name
}

// Validate implements entity.Validatable interface.
func (p *Product) Validate(ctx context.Context) error {
	if err := p.Catalog.Validate(ctx); err != nil {
		return err
	}
	if !p.Kind.Valid() {
		return apperror.NewValidation("invalid product kind").
			WithDetail("field", "kind").
			WithDetail("value", string(p.Kind))
	}
	if p.UnitPrice < 0 {
		return apperror.NewValidation("unit price cannot be negative").
			WithDetail("field", "unitPrice")
	}
	if p.Quantity < 0 {
		return apperror.NewValidation("quantity cannot be negative").
			WithDetail("field", "quantity")
	}
	return nil
}

// IsSellable reports whether the product may appear on a sales invoice.
func (p *Product) IsSellable() bool {
	return p.Kind == KindGoods || p.Kind == KindPart
}

// IsRentable reports whether the product may appear on a rental contract.
func (p *Product) IsRentable() bool {
	return p.Kind == KindRentalAsset
}
