// Package location provides stock locations (shop floor, warehouse, service bench).
package location

import (
	"context"

	"smartsewing/internal/core/apperror"
	"smartsewing/internal/core/entity"
)

// Kind defines the purpose of a location.
type Kind string

const (
	KindShop      Kind = "SHOP"
	KindWarehouse Kind = "WAREHOUSE"
	KindService   Kind = "SERVICE"
)

// Location is a named place holding stock. Exactly one location is the default:
// it receives every non-transfer stock increment.
type Location struct {
	entity.Catalog

	Kind      Kind    `db:"kind" json:"kind"`
	IsDefault bool    `db:"is_default" json:"isDefault"`
	Address   *string `db:"address" json:"address,omitempty"`
}

// NewLocation creates a new active Location.
func NewLocation(code, name string, kind Kind) *Location {
	return &Location{
		Catalog: entity.NewCatalog(code, name),
		Kind:    kind,
	}
}

// Validate implements entity.Validatable interface.
func (l *Location) Validate(ctx context.Context) error {
	if err := l.Catalog.Validate(ctx); err != nil {
		return err
	}
	switch l.Kind {
	case KindShop, KindWarehouse, KindService:
	default:
		return apperror.NewValidation("invalid location kind").
			WithDetail("field", "kind").
			WithDetail("value", string(l.Kind))
	}
	if l.IsDefault && !l.IsActive {
		return apperror.NewValidation("default location must be active").
			WithDetail("field", "isDefault")
	}
	return nil
}
