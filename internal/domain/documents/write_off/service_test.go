package write_off_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartsewing/internal/app/apptest"
	"smartsewing/internal/core/apperror"
	"smartsewing/internal/core/types"
	"smartsewing/internal/domain/documents/write_off"
	"smartsewing/internal/domain/registers/stock"
)

func TestCreate_RemovesStockAndValuesLines(t *testing.T) {
	env := apptest.New(t)
	fabric := env.Goods(t, "Silk fabric", 8)
	needles := env.Goods(t, "Needles", 20)
	custom := types.MinorUnits(250)

	doc, err := env.WriteOffs.Create(env.Ctx, write_off.CreateInput{
		Reason: "water damage",
		Lines: []write_off.LineInput{
			{ProductID: fabric.ID, Quantity: 3},
			{ProductID: needles.ID, Quantity: 4, UnitValue: &custom},
		},
	})
	require.NoError(t, err)
	assert.Regexp(t, `^WO-\d{4}-00001$`, doc.Number)
	assert.Equal(t, write_off.StatusRecorded, doc.Status)
	assert.Equal(t, types.MinorUnits(30000), doc.Lines[0].Amount)
	assert.Equal(t, types.MinorUnits(1000), doc.Lines[1].Amount)
	assert.Equal(t, types.MinorUnits(31000), doc.TotalValue)

	assert.Equal(t, int64(5), env.Quantity(t, fabric.ID))
	assert.Equal(t, int64(16), env.Quantity(t, needles.ID))
	assert.Equal(t, int64(5), env.LocationSum(t, fabric.ID))

	moves := env.Movements(fabric.ID)
	require.Len(t, moves, 2)
	assert.Equal(t, stock.KindOut, moves[1].Kind)
	assert.Equal(t, int64(3), moves[1].Quantity)
	assert.Equal(t, "water damage", moves[1].Note)
}

func TestCreate_DeactivatedProduct(t *testing.T) {
	env := apptest.New(t)
	fabric := env.Goods(t, "Silk fabric", 2)
	require.NoError(t, env.Products.Deactivate(env.Ctx, fabric.ID))

	_, err := env.WriteOffs.Create(env.Ctx, write_off.CreateInput{
		Reason: "discontinued",
		Lines:  []write_off.LineInput{{ProductID: fabric.ID, Quantity: 2}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), env.Quantity(t, fabric.ID))
}

func TestCreate_Rejections(t *testing.T) {
	env := apptest.New(t)
	fabric := env.Goods(t, "Silk fabric", 2)
	needles := env.Goods(t, "Needles", 20)
	huge := types.MinorUnits(math.MaxInt64/2 + 2)

	tests := []struct {
		name string
		in   write_off.CreateInput
		code string
	}{
		{
			name: "missing reason",
			in:   write_off.CreateInput{Lines: []write_off.LineInput{{ProductID: fabric.ID, Quantity: 1}}},
			code: apperror.CodeValidation,
		},
		{
			name: "more than on hand",
			in: write_off.CreateInput{
				Reason: "theft",
				Lines: []write_off.LineInput{
					{ProductID: needles.ID, Quantity: 1},
					{ProductID: fabric.ID, Quantity: 3},
				},
			},
			code: apperror.CodeInsufficientStock,
		},
		{
			name: "value out of range",
			in: write_off.CreateInput{
				Reason: "flood",
				Lines:  []write_off.LineInput{{ProductID: needles.ID, Quantity: 4, UnitValue: &huge}},
			},
			code: apperror.CodeInvalidAmount,
		},
		{
			name: "zero quantity",
			in: write_off.CreateInput{
				Reason: "theft",
				Lines:  []write_off.LineInput{{ProductID: fabric.ID}},
			},
			code: apperror.CodeValidation,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.WriteOffs.Create(env.Ctx, tt.in)
			assert.True(t, apperror.HasCode(err, tt.code), "got %v", err)
		})
	}

	assert.Equal(t, int64(2), env.Quantity(t, fabric.ID))
	assert.Equal(t, int64(20), env.Quantity(t, needles.ID))
}
