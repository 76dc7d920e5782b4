package location

import (
	"context"

	"smartsewing/internal/core/id"
	"smartsewing/internal/domain"
)

// Repository defines the interface for Location persistence.
type Repository interface {
	domain.CatalogRepository[*Location]

	// GetDefault returns the default location; NotFound when none is flagged.
	GetDefault(ctx context.Context) (*Location, error)

	// ClearDefault removes the default flag from every location except exceptID.
	ClearDefault(ctx context.Context, exceptID id.ID) error
}
