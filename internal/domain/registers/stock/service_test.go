package stock_test

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartsewing/internal/app"
	"smartsewing/internal/app/apptest"
	"smartsewing/internal/core/apperror"
	"smartsewing/internal/core/id"
	"smartsewing/internal/domain/catalogs/location"
	"smartsewing/internal/domain/catalogs/product"
	"smartsewing/internal/domain/registers/stock"
	"smartsewing/internal/infrastructure/storage/memory"
)

func locationQty(t *testing.T, env *apptest.Env, locationID, productID id.ID) int64 {
	t.Helper()
	rows, err := env.Stock.ListLocationStock(env.Ctx, stock.LocationStockFilter{ProductID: &productID, LocationID: &locationID})
	require.NoError(t, err)
	if len(rows) == 0 {
		return 0
	}
	return rows[0].Quantity
}

func TestApplyDelta_SignConvention(t *testing.T) {
	env := apptest.New(t)
	p := env.Goods(t, "Cotton thread", 0)

	tests := []struct {
		kind   stock.MovementKind
		delta  int64
		stored int64
		after  int64
	}{
		{stock.KindIn, 10, 10, 10},
		{stock.KindOut, -4, 4, 6},
		{stock.KindAdjust, -2, -2, 4},
		{stock.KindAdjust, 3, 3, 7},
	}
	for _, tt := range tests {
		res, err := env.Stock.ApplyDelta(env.Ctx, stock.Change{ProductID: p.ID, Delta: tt.delta, Kind: tt.kind})
		require.NoError(t, err)
		assert.Equal(t, tt.stored, res.Movement.Quantity)
		assert.Equal(t, tt.delta, res.Movement.Delta())
		assert.Equal(t, tt.after, res.After)
		assert.Equal(t, apptest.UserID, res.Movement.CreatedBy)
	}

	// Replaying the ledger reproduces the on-hand quantity.
	var sum int64
	for _, m := range env.Movements(p.ID) {
		sum += m.Delta()
	}
	assert.Equal(t, env.Quantity(t, p.ID), sum)
	assert.Equal(t, int64(7), env.LocationSum(t, p.ID))
}

func TestApplyDelta_Rejections(t *testing.T) {
	env := apptest.New(t)
	p := env.Goods(t, "Cotton thread", 3)

	tests := []struct {
		name string
		ch   stock.Change
		code string
	}{
		{"zero", stock.Change{ProductID: p.ID, Kind: stock.KindAdjust}, apperror.CodeNoChange},
		{"negative in", stock.Change{ProductID: p.ID, Delta: -1, Kind: stock.KindIn}, apperror.CodeValidation},
		{"positive out", stock.Change{ProductID: p.ID, Delta: 1, Kind: stock.KindOut}, apperror.CodeValidation},
		{"unknown kind", stock.Change{ProductID: p.ID, Delta: 1, Kind: "MOVE"}, apperror.CodeValidation},
		{"below zero", stock.Change{ProductID: p.ID, Delta: -4, Kind: stock.KindOut}, apperror.CodeNegativeStock},
		{"quantity overflow", stock.Change{ProductID: p.ID, Delta: math.MaxInt64, Kind: stock.KindIn}, apperror.CodeValidation},
		{"unknown product", stock.Change{ProductID: id.New(), Delta: 1, Kind: stock.KindIn}, apperror.CodeNotFound},
		{"unknown location", stock.Change{ProductID: p.ID, Delta: 1, Kind: stock.KindIn, LocationID: new(id.ID)}, apperror.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.Stock.ApplyDelta(env.Ctx, tt.ch)
			assert.True(t, apperror.HasCode(err, tt.code), "got %v", err)
		})
	}

	assert.Equal(t, int64(3), env.Quantity(t, p.ID))
	assert.Len(t, env.Movements(p.ID), 1)
	assert.Equal(t, int64(3), env.LocationSum(t, p.ID))
}

func TestSetAbsolute(t *testing.T) {
	env := apptest.New(t)
	p := env.Goods(t, "Cotton thread", 8)

	res, err := env.Stock.SetAbsolute(env.Ctx, stock.SetRequest{ProductID: p.ID, Target: 5, Note: "recount"})
	require.NoError(t, err)
	assert.Equal(t, stock.KindAdjust, res.Movement.Kind)
	assert.Equal(t, int64(-3), res.Movement.Quantity)
	assert.Equal(t, int64(5), env.Quantity(t, p.ID))

	_, err = env.Stock.SetAbsolute(env.Ctx, stock.SetRequest{ProductID: p.ID, Target: 5})
	assert.True(t, apperror.HasCode(err, apperror.CodeNoChange))

	_, err = env.Stock.SetAbsolute(env.Ctx, stock.SetRequest{ProductID: p.ID, Target: -1})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestValidateSufficiencyAll_SumsPerProduct(t *testing.T) {
	env := apptest.New(t)
	p := env.Goods(t, "Cotton thread", 5)
	q := env.Goods(t, "Needles", 1)

	require.NoError(t, env.Stock.ValidateSufficiencyAll(env.Ctx, []stock.Requirement{
		{ProductID: p.ID, Quantity: 2},
		{ProductID: p.ID, Quantity: 3},
		{ProductID: q.ID, Quantity: 1},
	}))

	err := env.Stock.ValidateSufficiencyAll(env.Ctx, []stock.Requirement{
		{ProductID: p.ID, Quantity: 3},
		{ProductID: p.ID, Quantity: 3},
	})
	require.True(t, apperror.HasCode(err, apperror.CodeInsufficientStock))
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "Cotton thread", appErr.Details["product"])

	err = env.Stock.ValidateSufficiencyAll(env.Ctx, []stock.Requirement{{ProductID: p.ID}})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestLocationMirror_DrainOrder(t *testing.T) {
	env := apptest.New(t)
	shop, err := env.Locations.GetDefault(env.Ctx)
	require.NoError(t, err)
	annex := env.Location(t, "ANNEX", "Annex")
	back := env.Location(t, "BACK", "Back store")
	p := env.Goods(t, "Cotton thread", 4)

	for _, loc := range []id.ID{annex.ID, back.ID} {
		_, err := env.Stock.ApplyDelta(env.Ctx, stock.Change{ProductID: p.ID, Delta: 3, Kind: stock.KindIn, LocationID: &loc})
		require.NoError(t, err)
	}
	require.Equal(t, int64(4), locationQty(t, env, shop.ID, p.ID))

	// Target first, then the rest by location code: ANNEX before SHOP.
	res, err := env.Stock.ApplyDelta(env.Ctx, stock.Change{ProductID: p.ID, Delta: -5, Kind: stock.KindOut, LocationID: &back.ID})
	require.NoError(t, err)
	require.NotNil(t, res.Movement.LocationID)
	assert.Equal(t, back.ID, *res.Movement.LocationID)

	assert.Equal(t, int64(0), locationQty(t, env, back.ID, p.ID))
	assert.Equal(t, int64(1), locationQty(t, env, annex.ID, p.ID))
	assert.Equal(t, int64(4), locationQty(t, env, shop.ID, p.ID))
	assert.Equal(t, env.Quantity(t, p.ID), env.LocationSum(t, p.ID))
}

func TestLocationMirror_BackfilledByFirstLocation(t *testing.T) {
	c := app.New(app.MemoryBackend(memory.New()))
	ctx := context.Background()

	p, err := c.Products.Create(ctx, product.CreateInput{Title: "Cotton thread", Kind: product.KindGoods, OpeningQuantity: 5})
	require.NoError(t, err)

	res, err := c.Stock.ApplyDelta(ctx, stock.Change{ProductID: p.ID, Delta: -2, Kind: stock.KindOut})
	require.NoError(t, err)
	assert.Nil(t, res.Movement.LocationID)

	ps, err := c.Stock.GetProductStock(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), ps.Quantity)

	rows, err := c.Stock.ListLocationStock(ctx, stock.LocationStockFilter{ProductID: &p.ID})
	require.NoError(t, err)
	assert.Empty(t, rows)

	shop := location.NewLocation("SHOP", "Shop floor", location.KindShop)
	require.NoError(t, c.Locations.Create(ctx, shop))
	require.True(t, shop.IsDefault)

	rows, err = c.Stock.ListLocationStock(ctx, stock.LocationStockFilter{ProductID: &p.ID})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, shop.ID, rows[0].LocationID)
	assert.Equal(t, int64(3), rows[0].Quantity)

	res, err = c.Stock.ApplyDelta(ctx, stock.Change{ProductID: p.ID, Delta: -3, Kind: stock.KindOut})
	require.NoError(t, err)
	require.NotNil(t, res.Movement.LocationID)
	assert.Equal(t, shop.ID, *res.Movement.LocationID)
}

func TestBackfillLocation_OnlyFillsTheGap(t *testing.T) {
	env := apptest.New(t)
	shop, err := env.Locations.GetDefault(env.Ctx)
	require.NoError(t, err)
	p := env.Goods(t, "Cotton thread", 4)
	require.NoError(t, env.Store.Stock.UpsertLocationStock(env.Ctx, shop.ID, p.ID, 1))

	n, err := env.Stock.BackfillLocation(env.Ctx, shop.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, int64(4), env.LocationSum(t, p.ID))

	n, err = env.Stock.BackfillLocation(env.Ctx, shop.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, int64(4), env.LocationSum(t, p.ID))
}

func TestLocationMirror_ShortDecrementFails(t *testing.T) {
	env := apptest.New(t)
	shop, err := env.Locations.GetDefault(env.Ctx)
	require.NoError(t, err)
	p := env.Goods(t, "Cotton thread", 5)
	require.NoError(t, env.Store.Stock.UpsertLocationStock(env.Ctx, shop.ID, p.ID, 1))
	movements := len(env.Movements(p.ID))

	_, err = env.Stock.ApplyDelta(env.Ctx, stock.Change{ProductID: p.ID, Delta: -3, Kind: stock.KindOut})
	assert.True(t, apperror.HasCode(err, apperror.CodeInternal))
	assert.Equal(t, int64(5), env.Quantity(t, p.ID))
	assert.Equal(t, int64(1), locationQty(t, env, shop.ID, p.ID))
	assert.Len(t, env.Movements(p.ID), movements)
}

func TestTransfer_KeepsAggregate(t *testing.T) {
	env := apptest.New(t)
	shop, err := env.Locations.GetDefault(env.Ctx)
	require.NoError(t, err)
	back := env.Location(t, "BACK", "Back store")
	p := env.Goods(t, "Cotton thread", 6)

	require.NoError(t, env.Stock.Transfer(env.Ctx, stock.TransferRequest{
		FromLocationID: shop.ID,
		ToLocationID:   back.ID,
		ProductID:      p.ID,
		Quantity:       6,
	}))
	assert.Equal(t, int64(0), locationQty(t, env, shop.ID, p.ID))
	assert.Equal(t, int64(6), locationQty(t, env, back.ID, p.ID))
	assert.Equal(t, int64(6), env.Quantity(t, p.ID))
	assert.Len(t, env.Movements(p.ID), 1)

	err = env.Stock.Transfer(env.Ctx, stock.TransferRequest{
		FromLocationID: shop.ID,
		ToLocationID:   back.ID,
		ProductID:      p.ID,
		Quantity:       1,
	})
	assert.True(t, apperror.HasCode(err, apperror.CodeInsufficientStock))

	err = env.Stock.Transfer(env.Ctx, stock.TransferRequest{
		FromLocationID: back.ID,
		ToLocationID:   back.ID,
		ProductID:      p.ID,
		Quantity:       1,
	})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestListMovements_Filters(t *testing.T) {
	env := apptest.New(t)
	p := env.Goods(t, "Cotton thread", 5)
	env.Goods(t, "Needles", 5)
	_, err := env.Stock.ApplyDelta(env.Ctx, stock.Change{ProductID: p.ID, Delta: -1, Kind: stock.KindOut})
	require.NoError(t, err)

	res, err := env.Stock.ListMovements(env.Ctx, stock.MovementFilter{ProductID: &p.ID})
	require.NoError(t, err)
	require.Len(t, res.Items, 2)
	assert.Equal(t, stock.KindOut, res.Items[0].Kind)

	res, err = env.Stock.ListMovements(env.Ctx, stock.MovementFilter{Kind: stock.KindAdjust})
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.TotalCount)
}
