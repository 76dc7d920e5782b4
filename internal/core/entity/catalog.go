package entity

import (
	"context"
	"strings"

	"smartsewing/internal/core/apperror"
)

// Catalog is the base type for reference data: products, locations, accounts.
// Catalog items are never deleted, only deactivated.
type Catalog struct {
	BaseEntity

	// Code is a short human-readable identifier, unique per catalog
	Code string `db:"code" json:"code"`

	// Name is the display name
	Name string `db:"name" json:"name"`

	IsActive bool `db:"is_active" json:"isActive"`
}

// NewCatalog creates a new active Catalog with generated ID.
func NewCatalog(code, name string) Catalog {
	return Catalog{
		BaseEntity: NewBaseEntity(),
		Code:       strings.TrimSpace(code),
		Name:       strings.TrimSpace(name),
		IsActive:   true,
	}
}

// Validate implements Validatable interface.
func (c *Catalog) Validate(ctx context.Context) error {
	if strings.TrimSpace(c.Name) == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}
	return nil
}

// Deactivate hides the item from new documents; existing references stay valid.
func (c *Catalog) Deactivate() { c.IsActive = false }

// Activate re-enables a deactivated item.
func (c *Catalog) Activate() { c.IsActive = true }

// GetCode returns the catalog code.
func (c *Catalog) GetCode() string { return c.Code }

// SetCode sets the catalog code (used by auto-code hooks).
func (c *Catalog) SetCode(code string) { c.Code = code }

// GetName returns the display name.
func (c *Catalog) GetName() string { return c.Name }

// IsActiveItem reports whether the item may be referenced by new documents.
func (c *Catalog) IsActiveItem() bool { return c.IsActive }
