package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"smartsewing/internal/core/apperror"
	"smartsewing/internal/core/id"
	"smartsewing/internal/domain"
	"smartsewing/internal/domain/registers/stock"
)

type locationKey struct {
	location id.ID
	product  id.ID
}

// StockRepo implements stock.Repository over the product and location tables.
type StockRepo struct {
	store     *Store
	movements []*stock.Movement
	locations map[locationKey]*stock.LocationStock
}

func newStockRepo(s *Store) *StockRepo {
	return &StockRepo{store: s, locations: make(map[locationKey]*stock.LocationStock)}
}

// GetProductForUpdate reads a product's quantity. The store lock serialises writers.
func (r *StockRepo) GetProductForUpdate(ctx context.Context, productID id.ID) (*stock.ProductStock, error) {
	var out *stock.ProductStock
	err := r.store.read(ctx, func() error {
		p, ok := r.store.Products.rows[productID]
		if !ok {
			return apperror.NewNotFound("product", productID.String())
		}
		out = &stock.ProductStock{ID: p.ID, Name: p.Name, Quantity: p.Quantity, IsActive: p.IsActive}
		return nil
	})
	return out, err
}

// SetProductQuantity overwrites the on-hand quantity.
func (r *StockRepo) SetProductQuantity(ctx context.Context, productID id.ID, quantity int64) error {
	return r.store.write(ctx, func(st *txState) error {
		rows := r.store.Products.rows
		p, ok := rows[productID]
		if !ok {
			return apperror.NewNotFound("product", productID.String())
		}
		next := clone(p)
		next.Quantity = quantity
		setRow(st, rows, productID, next)
		return nil
	})
}

// AppendMovement inserts a movement ledger entry.
func (r *StockRepo) AppendMovement(ctx context.Context, m *stock.Movement) error {
	return r.store.write(ctx, func(st *txState) error {
		appendRow(st, &r.movements, clone(m))
		return nil
	})
}

// ListMovements returns movements newest first.
func (r *StockRepo) ListMovements(ctx context.Context, filter stock.MovementFilter) (domain.ListResult[*stock.Movement], error) {
	result := domain.ListResult[*stock.Movement]{Limit: filter.Limit, Offset: filter.Offset}
	err := r.store.read(ctx, func() error {
		items := make([]*stock.Movement, 0)
		for i := len(r.movements) - 1; i >= 0; i-- {
			m := r.movements[i]
			if filter.ProductID != nil && m.ProductID != *filter.ProductID {
				continue
			}
			if filter.Kind != "" && m.Kind != filter.Kind {
				continue
			}
			if !filter.Reference.IsZero() && m.Reference != filter.Reference {
				continue
			}
			if filter.From != nil && m.CreatedAt.Before(*filter.From) {
				continue
			}
			if filter.To != nil && m.CreatedAt.After(*filter.To) {
				continue
			}
			items = append(items, clone(m))
		}
		result.TotalCount = int64(len(items))
		result.Items = page(items, filter.Limit, filter.Offset)
		return nil
	})
	return result, err
}

// DefaultLocationID returns the default location.
func (r *StockRepo) DefaultLocationID(ctx context.Context) (id.ID, error) {
	loc, err := r.store.Locations.GetDefault(ctx)
	if err != nil {
		return id.Nil(), err
	}
	return loc.ID, nil
}

// LocationExists reports whether the location exists.
func (r *StockRepo) LocationExists(ctx context.Context, locationID id.ID) (bool, error) {
	return r.store.Locations.Exists(ctx, locationID)
}

// GetLocationStockForUpdate returns the product's location rows ordered by location code.
func (r *StockRepo) GetLocationStockForUpdate(ctx context.Context, productID id.ID) ([]*stock.LocationStock, error) {
	return r.ListLocationStock(ctx, stock.LocationStockFilter{ProductID: &productID})
}

// UpsertLocationStock sets the quantity of one location row.
func (r *StockRepo) UpsertLocationStock(ctx context.Context, locationID, productID id.ID, quantity int64) error {
	return r.store.write(ctx, func(st *txState) error {
		setRow(st, r.locations, locationKey{location: locationID, product: productID}, &stock.LocationStock{
			LocationID: locationID,
			ProductID:  productID,
			Quantity:   quantity,
			UpdatedAt:  r.store.now(),
		})
		return nil
	})
}

// ListLocationStock returns location rows ordered by location code, then product name.
func (r *StockRepo) ListLocationStock(ctx context.Context, filter stock.LocationStockFilter) ([]*stock.LocationStock, error) {
	var out []*stock.LocationStock
	err := r.store.read(ctx, func() error {
		for key, row := range r.locations {
			if filter.ProductID != nil && key.product != *filter.ProductID {
				continue
			}
			if filter.LocationID != nil && key.location != *filter.LocationID {
				continue
			}
			if filter.ExcludeZero && row.Quantity == 0 {
				continue
			}
			item := clone(row)
			if loc, ok := r.store.Locations.rows[key.location]; ok {
				item.LocationCode = loc.Code
				item.LocationName = loc.Name
			}
			if p, ok := r.store.Products.rows[key.product]; ok {
				item.ProductName = p.Name
			}
			out = append(out, item)
		}
		slices.SortFunc(out, func(a, b *stock.LocationStock) int {
			return cmp.Or(
				strings.Compare(a.LocationCode, b.LocationCode),
				strings.Compare(a.ProductName, b.ProductName),
				strings.Compare(a.ProductID.String(), b.ProductID.String()),
			)
		})
		return nil
	})
	return out, err
}

// ListUnmirroredProducts returns products whose quantity differs from the sum of their location rows.
func (r *StockRepo) ListUnmirroredProducts(ctx context.Context) ([]id.ID, error) {
	var out []id.ID
	err := r.store.read(ctx, func() error {
		mirrored := make(map[id.ID]int64)
		for key, row := range r.locations {
			mirrored[key.product] += row.Quantity
		}
		for pid, p := range r.store.Products.rows {
			if p.Quantity != mirrored[pid] {
				out = append(out, pid)
			}
		}
		slices.SortFunc(out, func(a, b id.ID) int { return strings.Compare(a.String(), b.String()) })
		return nil
	})
	return out, err
}

// Movements returns a snapshot of the whole movement ledger, oldest first.
func (r *StockRepo) Movements() []*stock.Movement {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return slices.Clone(r.movements)
}

var _ stock.Repository = (*StockRepo)(nil)
