package memory

import (
	"context"

	"smartsewing/internal/core/entity"
	"smartsewing/internal/core/id"
	"smartsewing/internal/core/types"
	"smartsewing/internal/domain"
	"smartsewing/internal/domain/finance"
)

// EntryRepo implements finance.EntryRepository.
type EntryRepo struct {
	store   *Store
	entries []*finance.Entry
}

func newEntryRepo(s *Store) *EntryRepo {
	return &EntryRepo{store: s}
}

// AppendEntry inserts an entry.
func (r *EntryRepo) AppendEntry(ctx context.Context, e *finance.Entry) error {
	return r.store.write(ctx, func(st *txState) error {
		appendRow(st, &r.entries, clone(e))
		return nil
	})
}

// SumByReference totals the entries of one direction referencing a document.
func (r *EntryRepo) SumByReference(ctx context.Context, ref entity.Reference, dir finance.Direction) (types.MinorUnits, error) {
	var sum types.MinorUnits
	err := r.store.read(ctx, func() error {
		for _, e := range r.entries {
			if e.Reference == ref && e.Direction == dir {
				sum += e.Amount
			}
		}
		return nil
	})
	return sum, err
}

// FindByReference returns entries referencing a document, oldest first.
func (r *EntryRepo) FindByReference(ctx context.Context, ref entity.Reference) ([]*finance.Entry, error) {
	var out []*finance.Entry
	err := r.store.read(ctx, func() error {
		for _, e := range r.entries {
			if e.Reference == ref {
				out = append(out, clone(e))
			}
		}
		return nil
	})
	return out, err
}

// ListEntries returns entries newest first.
func (r *EntryRepo) ListEntries(ctx context.Context, filter finance.EntryFilter) (domain.ListResult[*finance.Entry], error) {
	result := domain.ListResult[*finance.Entry]{Limit: filter.Limit, Offset: filter.Offset}
	err := r.store.read(ctx, func() error {
		items := make([]*finance.Entry, 0)
		for i := len(r.entries) - 1; i >= 0; i-- {
			e := r.entries[i]
			switch {
			case filter.AccountID != nil && e.AccountID != *filter.AccountID,
				filter.CategoryID != nil && (e.CategoryID == nil || *e.CategoryID != *filter.CategoryID),
				filter.Direction != "" && e.Direction != filter.Direction,
				!filter.Reference.IsZero() && e.Reference != filter.Reference,
				filter.From != nil && e.OccurredAt.Before(*filter.From),
				filter.To != nil && e.OccurredAt.After(*filter.To):
				continue
			}
			items = append(items, clone(e))
		}
		result.TotalCount = int64(len(items))
		result.Items = page(items, filter.Limit, filter.Offset)
		return nil
	})
	return result, err
}

// Totals returns Σ IN and Σ OUT of an account.
func (r *EntryRepo) Totals(ctx context.Context, accountID id.ID) (in, out types.MinorUnits, err error) {
	err = r.store.read(ctx, func() error {
		for _, e := range r.entries {
			if e.AccountID != accountID {
				continue
			}
			if e.Direction == finance.DirectionIn {
				in += e.Amount
			} else {
				out += e.Amount
			}
		}
		return nil
	})
	return in, out, err
}

var _ finance.EntryRepository = (*EntryRepo)(nil)
