// Package apptest builds a fully wired container over the memory backend for tests.
package apptest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"smartsewing/internal/app"
	appctx "smartsewing/internal/core/context"
	"smartsewing/internal/core/id"
	"smartsewing/internal/core/types"
	"smartsewing/internal/domain/catalogs/location"
	"smartsewing/internal/domain/catalogs/product"
	"smartsewing/internal/domain/finance"
	"smartsewing/internal/domain/registers/stock"
	"smartsewing/internal/infrastructure/storage/memory"
	"smartsewing/pkg/logger"
)

// UserID is the user every Env context acts as.
const UserID = "test-user"

// Env is a container plus its backing store.
type Env struct {
	*app.Container
	Store *memory.Store
	Ctx   context.Context
}

// New returns an empty environment with a default location.
func New(t *testing.T) *Env {
	t.Helper()
	logger.SetDefault(logger.Nop())

	store := memory.New()
	env := &Env{
		Container: app.New(app.MemoryBackend(store)),
		Store:     store,
		Ctx:       appctx.WithUser(context.Background(), &appctx.UserContext{UserID: UserID}),
	}
	env.Location(t, "SHOP", "Shop floor")
	return env
}

// Location creates a location. The first one becomes the default.
func (e *Env) Location(t *testing.T, code, name string) *location.Location {
	t.Helper()
	loc := location.NewLocation(code, name, location.KindShop)
	require.NoError(t, e.Locations.Create(e.Ctx, loc))
	return loc
}

// Product creates a product with an opening quantity.
func (e *Env) Product(t *testing.T, title string, kind product.Kind, price types.MinorUnits, qty int64) *product.Product {
	t.Helper()
	p, err := e.Products.Create(e.Ctx, product.CreateInput{
		Title:           title,
		Kind:            kind,
		UnitPrice:       price,
		OpeningQuantity: qty,
	})
	require.NoError(t, err)
	return p
}

// Goods creates a sellable product priced at 100.00.
func (e *Env) Goods(t *testing.T, title string, qty int64) *product.Product {
	return e.Product(t, title, product.KindGoods, 10000, qty)
}

// Account creates a cash account.
func (e *Env) Account(t *testing.T) *finance.Account {
	t.Helper()
	acc := finance.NewAccount("", "Cash drawer", finance.AccountCash)
	require.NoError(t, e.Ledger.Accounts.Create(e.Ctx, acc))
	return acc
}

// Quantity returns a product's on-hand quantity.
func (e *Env) Quantity(t *testing.T, productID id.ID) int64 {
	t.Helper()
	ps, err := e.Stock.GetProductStock(e.Ctx, productID)
	require.NoError(t, err)
	return ps.Quantity
}

// Movements returns every movement of a product, oldest first.
func (e *Env) Movements(productID id.ID) []*stock.Movement {
	var out []*stock.Movement
	for _, m := range e.Store.Stock.Movements() {
		if m.ProductID == productID {
			out = append(out, m)
		}
	}
	return out
}

// LocationSum returns Σ location quantities of a product.
func (e *Env) LocationSum(t *testing.T, productID id.ID) int64 {
	t.Helper()
	rows, err := e.Stock.ListLocationStock(e.Ctx, stock.LocationStockFilter{ProductID: &productID})
	require.NoError(t, err)
	var sum int64
	for _, r := range rows {
		sum += r.Quantity
	}
	return sum
}
