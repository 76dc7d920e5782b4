package finance

import (
	"context"

	"smartsewing/internal/core/entity"
	"smartsewing/internal/core/id"
	"smartsewing/internal/core/types"
	"smartsewing/internal/domain"
)

// AccountRepository persists accounts.
type AccountRepository interface {
	domain.CatalogRepository[*Account]
}

// CategoryRepository persists categories.
type CategoryRepository interface {
	domain.CatalogRepository[*Category]
}

// EntryRepository persists ledger entries. Entries are never updated or deleted.
type EntryRepository interface {
	// AppendEntry inserts an entry.
	AppendEntry(ctx context.Context, e *Entry) error

	// SumByReference totals the entries of one direction referencing a document.
	SumByReference(ctx context.Context, ref entity.Reference, dir Direction) (types.MinorUnits, error)

	// FindByReference returns entries referencing a document, oldest first.
	FindByReference(ctx context.Context, ref entity.Reference) ([]*Entry, error)

	// ListEntries returns entries newest first.
	ListEntries(ctx context.Context, filter EntryFilter) (domain.ListResult[*Entry], error)

	// Totals returns Σ IN and Σ OUT of an account.
	Totals(ctx context.Context, accountID id.ID) (in, out types.MinorUnits, err error)
}
