package dto

import (
	"smartsewing/internal/core/id"
	"smartsewing/internal/domain/catalogs/location"
	"smartsewing/internal/domain/catalogs/product"
	"smartsewing/internal/domain/finance"
)

// --- Products ---

// CreateProductRequest for POST /catalog/products.
type CreateProductRequest struct {
	Code            string  `json:"code"`
	Title           string  `json:"title" binding:"required"`
	Kind            string  `json:"kind" binding:"required"`
	UnitPrice       Money   `json:"unitPrice"`
	OpeningQuantity int64   `json:"openingQuantity" binding:"min=0"`
	LocationID      *id.ID  `json:"locationId"`
	Barcode         *string `json:"barcode"`
	Description     *string `json:"description"`
}

// ToInput maps the request onto the service input.
func (r CreateProductRequest) ToInput() product.CreateInput {
	return product.CreateInput{
		Code:            r.Code,
		Title:           r.Title,
		Kind:            product.Kind(r.Kind),
		UnitPrice:       r.UnitPrice.Minor(),
		OpeningQuantity: r.OpeningQuantity,
		LocationID:      r.LocationID,
		Barcode:         r.Barcode,
		Description:     r.Description,
	}
}

// UpdateProductRequest for PUT /catalog/products/:id. Quantity is not accepted.
type UpdateProductRequest struct {
	Title       *string `json:"title"`
	Kind        *string `json:"kind"`
	UnitPrice   *Money  `json:"unitPrice"`
	Barcode     *string `json:"barcode"`
	Description *string `json:"description"`
	Version     int     `json:"version"`
}

// ToInput maps the request onto the service input.
func (r UpdateProductRequest) ToInput() product.UpdateInput {
	in := product.UpdateInput{
		Title:       r.Title,
		UnitPrice:   MinorPtr(r.UnitPrice),
		Barcode:     r.Barcode,
		Description: r.Description,
		Version:     r.Version,
	}
	if r.Kind != nil {
		k := product.Kind(*r.Kind)
		in.Kind = &k
	}
	return in
}

// --- Locations ---

// CreateLocationRequest for POST /catalog/locations.
type CreateLocationRequest struct {
	Code      string  `json:"code"`
	Name      string  `json:"name" binding:"required"`
	Kind      string  `json:"kind" binding:"required"`
	IsDefault bool    `json:"isDefault"`
	Address   *string `json:"address"`
}

// ToEntity builds the location.
func (r CreateLocationRequest) ToEntity() *location.Location {
	loc := location.NewLocation(r.Code, r.Name, location.Kind(r.Kind))
	loc.IsDefault = r.IsDefault
	loc.Address = r.Address
	return loc
}

// UpdateLocationRequest for PUT /catalog/locations/:id.
type UpdateLocationRequest struct {
	Name    *string `json:"name"`
	Kind    *string `json:"kind"`
	Address *string `json:"address"`
	Version int     `json:"version" binding:"required,min=1"`
}

// Apply copies the set fields onto loc.
func (r UpdateLocationRequest) Apply(loc *location.Location) {
	if r.Name != nil {
		loc.Name = *r.Name
	}
	if r.Kind != nil {
		loc.Kind = location.Kind(*r.Kind)
	}
	if r.Address != nil {
		loc.Address = r.Address
	}
	loc.Version = r.Version
}

// --- Accounts & categories ---

// CreateAccountRequest for POST /finance/accounts.
type CreateAccountRequest struct {
	Code        string  `json:"code"`
	Name        string  `json:"name" binding:"required"`
	Kind        string  `json:"kind" binding:"required"`
	Description *string `json:"description"`
}

// ToEntity builds the account.
func (r CreateAccountRequest) ToEntity() *finance.Account {
	acc := finance.NewAccount(r.Code, r.Name, finance.AccountKind(r.Kind))
	acc.Description = r.Description
	return acc
}

// CreateCategoryRequest for POST /finance/categories.
type CreateCategoryRequest struct {
	Code      string `json:"code"`
	Name      string `json:"name" binding:"required"`
	Direction string `json:"direction" binding:"required"`
}

// ToEntity builds the category.
func (r CreateCategoryRequest) ToEntity() *finance.Category {
	return finance.NewCategory(r.Code, r.Name, finance.Direction(r.Direction))
}
