package memory

import (
	"context"
	"slices"
	"strings"

	"smartsewing/internal/core/apperror"
	"smartsewing/internal/core/id"
	"smartsewing/internal/domain"
	"smartsewing/internal/domain/catalogs/location"
	"smartsewing/internal/domain/catalogs/product"
	"smartsewing/internal/domain/finance"
)

// catalogRow is what every catalog pointer type provides through entity.Catalog.
type catalogRow[T any] interface {
	*T
	domain.CatalogItem
	GetVersion() int
	SetVersion(v int)
	Activate()
	Deactivate()
}

// CatalogRepo is a generic catalog table.
type CatalogRepo[T any, P catalogRow[T]] struct {
	store *Store
	name  string
	rows  map[id.ID]P

	// beforeUpdate lets a table keep columns its repository never writes.
	beforeUpdate func(stored, incoming P)
}

func newCatalogRepo[T any, P catalogRow[T]](s *Store, name string) *CatalogRepo[T, P] {
	return &CatalogRepo[T, P]{store: s, name: name, rows: make(map[id.ID]P)}
}

// Create inserts a new entity.
func (r *CatalogRepo[T, P]) Create(ctx context.Context, e P) error {
	return r.store.write(ctx, func(st *txState) error {
		if _, ok := r.rows[e.GetID()]; ok {
			return apperror.NewDuplicate(r.name, "id", e.GetID().String())
		}
		for _, row := range r.rows {
			if e.GetCode() != "" && strings.EqualFold(row.GetCode(), e.GetCode()) {
				return apperror.NewDuplicate(r.name, "code", e.GetCode())
			}
		}
		setRow(st, r.rows, e.GetID(), P(clone[T](e)))
		return nil
	})
}

// GetByID retrieves an entity by ID.
func (r *CatalogRepo[T, P]) GetByID(ctx context.Context, entityID id.ID) (P, error) {
	var out P
	err := r.store.read(ctx, func() error {
		row, ok := r.rows[entityID]
		if !ok {
			return apperror.NewNotFound(r.name, entityID.String())
		}
		out = P(clone[T](row))
		return nil
	})
	return out, err
}

// GetByCode retrieves an entity by code.
func (r *CatalogRepo[T, P]) GetByCode(ctx context.Context, code string) (P, error) {
	var out P
	err := r.store.read(ctx, func() error {
		for _, row := range r.rows {
			if strings.EqualFold(row.GetCode(), code) {
				out = P(clone[T](row))
				return nil
			}
		}
		return apperror.NewNotFound(r.name, code)
	})
	return out, err
}

// Update replaces an entity if its version still matches, then bumps the version.
func (r *CatalogRepo[T, P]) Update(ctx context.Context, e P) error {
	return r.store.write(ctx, func(st *txState) error {
		stored, ok := r.rows[e.GetID()]
		if !ok {
			return apperror.NewNotFound(r.name, e.GetID().String())
		}
		if stored.GetVersion() != e.GetVersion() {
			return apperror.NewConcurrentModification(r.name, e.GetID().String())
		}
		if r.beforeUpdate != nil {
			r.beforeUpdate(stored, e)
		}
		e.SetVersion(e.GetVersion() + 1)
		setRow(st, r.rows, e.GetID(), P(clone[T](e)))
		return nil
	})
}

// SetActive activates or deactivates an entity.
func (r *CatalogRepo[T, P]) SetActive(ctx context.Context, entityID id.ID, active bool) error {
	return r.store.write(ctx, func(st *txState) error {
		stored, ok := r.rows[entityID]
		if !ok {
			return apperror.NewNotFound(r.name, entityID.String())
		}
		next := P(clone[T](stored))
		if active {
			next.Activate()
		} else {
			next.Deactivate()
		}
		next.SetVersion(stored.GetVersion() + 1)
		setRow(st, r.rows, entityID, next)
		return nil
	})
}

// List retrieves entities with filtering and pagination.
func (r *CatalogRepo[T, P]) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[P], error) {
	return r.list(ctx, filter, nil)
}

func (r *CatalogRepo[T, P]) list(ctx context.Context, filter domain.ListFilter, keep func(P) bool) (domain.ListResult[P], error) {
	result := domain.ListResult[P]{Limit: filter.Limit, Offset: filter.Offset}
	err := r.store.read(ctx, func() error {
		search := strings.ToLower(strings.TrimSpace(filter.Search))
		items := make([]P, 0, len(r.rows))
		for _, row := range r.rows {
			if filter.Active != nil && row.IsActiveItem() != *filter.Active {
				continue
			}
			if len(filter.IDs) > 0 && !slices.Contains(filter.IDs, row.GetID()) {
				continue
			}
			if search != "" &&
				!strings.Contains(strings.ToLower(row.GetName()), search) &&
				!strings.Contains(strings.ToLower(row.GetCode()), search) {
				continue
			}
			if keep != nil && !keep(row) {
				continue
			}
			items = append(items, P(clone[T](row)))
		}
		sortCatalog(items, filter.OrderBy)
		result.TotalCount = int64(len(items))
		result.Items = page(items, filter.Limit, filter.Offset)
		return nil
	})
	return result, err
}

func sortCatalog[P domain.CatalogItem](items []P, orderBy string) {
	desc := strings.HasPrefix(orderBy, "-")
	field := strings.TrimLeft(orderBy, "+-")
	key := func(p P) string { return strings.ToLower(p.GetName()) }
	if field == "code" {
		key = func(p P) string { return strings.ToLower(p.GetCode()) }
	}
	slices.SortStableFunc(items, func(a, b P) int {
		c := strings.Compare(key(a), key(b))
		if c == 0 {
			c = strings.Compare(a.GetID().String(), b.GetID().String())
		}
		if desc {
			return -c
		}
		return c
	})
}

// Exists checks if an entity exists.
func (r *CatalogRepo[T, P]) Exists(ctx context.Context, entityID id.ID) (bool, error) {
	var ok bool
	err := r.store.read(ctx, func() error {
		_, ok = r.rows[entityID]
		return nil
	})
	return ok, err
}

// ExistsByCode checks if an entity with the code exists.
func (r *CatalogRepo[T, P]) ExistsByCode(ctx context.Context, code string) (bool, error) {
	_, err := r.GetByCode(ctx, code)
	if apperror.IsNotFound(err) {
		return false, nil
	}
	return err == nil, err
}

// ProductRepo implements product.Repository.
type ProductRepo struct {
	*CatalogRepo[product.Product, *product.Product]
}

func newProductRepo(s *Store) *ProductRepo {
	base := newCatalogRepo[product.Product, *product.Product](s, "product")
	// Quantity belongs to the stock engine.
	base.beforeUpdate = func(stored, incoming *product.Product) {
		incoming.Quantity = stored.Quantity
	}
	return &ProductRepo{CatalogRepo: base}
}

// FindByBarcode retrieves a product by barcode.
func (r *ProductRepo) FindByBarcode(ctx context.Context, barcode string) (*product.Product, error) {
	var out *product.Product
	err := r.store.read(ctx, func() error {
		for _, p := range r.rows {
			if p.Barcode != nil && *p.Barcode == barcode {
				out = clone(p)
				return nil
			}
		}
		return apperror.NewNotFound("product", barcode)
	})
	return out, err
}

// ListProducts lists products with product-specific filters.
func (r *ProductRepo) ListProducts(ctx context.Context, filter product.Filter) (domain.ListResult[*product.Product], error) {
	return r.list(ctx, filter.ListFilter, func(p *product.Product) bool {
		if filter.Kind != "" && p.Kind != filter.Kind {
			return false
		}
		if filter.MaxQuantity != nil && p.Quantity > *filter.MaxQuantity {
			return false
		}
		return true
	})
}

// LocationRepo implements location.Repository.
type LocationRepo struct {
	*CatalogRepo[location.Location, *location.Location]
}

func newLocationRepo(s *Store) *LocationRepo {
	return &LocationRepo{CatalogRepo: newCatalogRepo[location.Location, *location.Location](s, "location")}
}

// GetDefault returns the default location.
func (r *LocationRepo) GetDefault(ctx context.Context) (*location.Location, error) {
	var out *location.Location
	err := r.store.read(ctx, func() error {
		for _, l := range r.rows {
			if l.IsDefault {
				out = clone(l)
				return nil
			}
		}
		return apperror.NewNotFound("location", "default")
	})
	return out, err
}

// ClearDefault removes the default flag from every location except exceptID.
func (r *LocationRepo) ClearDefault(ctx context.Context, exceptID id.ID) error {
	return r.store.write(ctx, func(st *txState) error {
		for locID, l := range r.rows {
			if locID == exceptID || !l.IsDefault {
				continue
			}
			next := clone(l)
			next.IsDefault = false
			next.SetVersion(l.GetVersion() + 1)
			setRow(st, r.rows, locID, next)
		}
		return nil
	})
}

// AccountRepo implements finance.AccountRepository.
type AccountRepo struct {
	*CatalogRepo[finance.Account, *finance.Account]
}

func newAccountRepo(s *Store) *AccountRepo {
	return &AccountRepo{CatalogRepo: newCatalogRepo[finance.Account, *finance.Account](s, "account")}
}

// CategoryRepo implements finance.CategoryRepository.
type CategoryRepo struct {
	*CatalogRepo[finance.Category, *finance.Category]
}

func newCategoryRepo(s *Store) *CategoryRepo {
	return &CategoryRepo{CatalogRepo: newCatalogRepo[finance.Category, *finance.Category](s, "category")}
}

var (
	_ product.Repository         = (*ProductRepo)(nil)
	_ location.Repository        = (*LocationRepo)(nil)
	_ finance.AccountRepository  = (*AccountRepo)(nil)
	_ finance.CategoryRepository = (*CategoryRepo)(nil)
)
