package product_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartsewing/internal/app/apptest"
	"smartsewing/internal/core/apperror"
	"smartsewing/internal/core/types"
	"smartsewing/internal/domain"
	"smartsewing/internal/domain/catalogs/product"
	"smartsewing/internal/domain/registers/stock"
)

func TestCreate_BooksOpeningBalance(t *testing.T) {
	env := apptest.New(t)
	back := env.Location(t, "BACK", "Back store")
	barcode := " 8901234567890 "

	p, err := env.Products.Create(env.Ctx, product.CreateInput{
		Title:           "Singer 15CX",
		Kind:            product.KindGoods,
		UnitPrice:       2250000,
		OpeningQuantity: 3,
		LocationID:      &back.ID,
		Barcode:         &barcode,
	})
	require.NoError(t, err)
	assert.Regexp(t, `^PRD-\d{4}$`, p.Code)
	assert.Equal(t, int64(3), p.Quantity)
	require.NotNil(t, p.Barcode)
	assert.Equal(t, "8901234567890", *p.Barcode)

	moves := env.Movements(p.ID)
	require.Len(t, moves, 1)
	assert.Equal(t, stock.KindAdjust, moves[0].Kind)
	assert.Equal(t, product.OpeningBalanceNote, moves[0].Note)
	require.NotNil(t, moves[0].LocationID)
	assert.Equal(t, back.ID, *moves[0].LocationID)

	empty := env.Goods(t, "Bobbins", 0)
	assert.Empty(t, env.Movements(empty.ID))
}

func TestCreate_Rejections(t *testing.T) {
	env := apptest.New(t)
	barcode := "123"
	_, err := env.Products.Create(env.Ctx, product.CreateInput{Title: "A", Kind: product.KindGoods, Barcode: &barcode})
	require.NoError(t, err)

	tests := []struct {
		name string
		in   product.CreateInput
		code string
	}{
		{"negative opening", product.CreateInput{Title: "B", Kind: product.KindGoods, OpeningQuantity: -1}, apperror.CodeValidation},
		{"missing title", product.CreateInput{Kind: product.KindGoods}, apperror.CodeValidation},
		{"unknown kind", product.CreateInput{Title: "B", Kind: "SERVICE"}, apperror.CodeValidation},
		{"duplicate barcode", product.CreateInput{Title: "B", Kind: product.KindGoods, Barcode: &barcode}, apperror.CodeDuplicate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.Products.Create(env.Ctx, tt.in)
			assert.True(t, apperror.HasCode(err, tt.code), "got %v", err)
		})
	}
}

func TestUpdate_NeverTouchesQuantity(t *testing.T) {
	env := apptest.New(t)
	p := env.Goods(t, "Cotton thread", 12)
	title := "Cotton thread, white"
	price := types.MinorUnits(1500)

	updated, err := env.Products.Update(env.Ctx, p.ID, product.UpdateInput{Title: &title, UnitPrice: &price, Version: p.Version})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title())
	assert.Equal(t, price, updated.UnitPrice)
	assert.Equal(t, int64(12), updated.Quantity)
	assert.Equal(t, p.Version+1, updated.Version)

	_, err = env.Products.Update(env.Ctx, p.ID, product.UpdateInput{Title: &title, Version: p.Version})
	assert.True(t, apperror.HasCode(err, apperror.CodeConcurrentModification))
}

func TestListProducts_Filters(t *testing.T) {
	env := apptest.New(t)
	env.Goods(t, "Cotton thread", 12)
	low := env.Goods(t, "Needles", 1)
	env.Product(t, "Juki DDL-8700", product.KindRentalAsset, 0, 2)
	require.NoError(t, env.Products.Deactivate(env.Ctx, low.ID))

	maxQty := int64(2)
	res, err := env.Products.ListProducts(env.Ctx, product.Filter{MaxQuantity: &maxQty})
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.TotalCount)

	res, err = env.Products.ListProducts(env.Ctx, product.Filter{Kind: product.KindRentalAsset})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.True(t, res.Items[0].IsRentable())

	active := true
	res, err = env.Products.ListProducts(env.Ctx, product.Filter{ListFilter: domain.ListFilter{Active: &active, Search: "needles"}})
	require.NoError(t, err)
	assert.Empty(t, res.Items)

	_, err = env.Products.GetActive(env.Ctx, low.ID)
	assert.True(t, apperror.HasCode(err, apperror.CodeInactive))
	require.NoError(t, env.Products.Activate(env.Ctx, low.ID))
	_, err = env.Products.GetActive(env.Ctx, low.ID)
	assert.NoError(t, err)
}
