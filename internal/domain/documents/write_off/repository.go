package write_off

import (
	"context"

	"smartsewing/internal/core/id"
	"smartsewing/internal/domain"
)

// Repository defines operations for write-offs. Write-offs are never
// edited after creation.
type Repository interface {
	Create(ctx context.Context, doc *WriteOff) error
	GetByID(ctx context.Context, docID id.ID) (*WriteOff, error)
	GetByNumber(ctx context.Context, number string) (*WriteOff, error)

	GetLines(ctx context.Context, docID id.ID) ([]Line, error)
	SaveLines(ctx context.Context, docID id.ID, lines []Line) error

	List(ctx context.Context, filter domain.DocumentListFilter) (domain.ListResult[*WriteOff], error)
}
