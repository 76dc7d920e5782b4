package location_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartsewing/internal/app/apptest"
	"smartsewing/internal/core/apperror"
	"smartsewing/internal/domain"
	"smartsewing/internal/domain/catalogs/location"
)

func TestDefaultLocation(t *testing.T) {
	env := apptest.New(t)

	shop, err := env.Locations.GetDefault(env.Ctx)
	require.NoError(t, err)
	assert.Equal(t, "SHOP", shop.Code)

	back := env.Location(t, "BACK", "Back store")
	assert.False(t, back.IsDefault)

	moved, err := env.Locations.SetDefault(env.Ctx, back.ID)
	require.NoError(t, err)
	assert.True(t, moved.IsDefault)

	old, err := env.Locations.GetByID(env.Ctx, shop.ID)
	require.NoError(t, err)
	assert.False(t, old.IsDefault)

	err = env.Locations.Deactivate(env.Ctx, back.ID)
	assert.True(t, apperror.HasCode(err, apperror.CodeBusinessRule))
	require.NoError(t, env.Locations.Deactivate(env.Ctx, shop.ID))

	_, err = env.Locations.SetDefault(env.Ctx, shop.ID)
	assert.True(t, apperror.HasCode(err, apperror.CodeInactive))
}

func TestCreate_ExplicitDefaultTakesOver(t *testing.T) {
	env := apptest.New(t)

	annex := location.NewLocation("", "Annex", location.KindWarehouse)
	annex.IsDefault = true
	require.NoError(t, env.Locations.Create(env.Ctx, annex))
	assert.Regexp(t, `^LOC-\d{4}$`, annex.Code)

	def, err := env.Locations.GetDefault(env.Ctx)
	require.NoError(t, err)
	assert.Equal(t, annex.ID, def.ID)

	res, err := env.Locations.List(env.Ctx, domain.ListFilter{})
	require.NoError(t, err)
	defaults := 0
	for _, l := range res.Items {
		if l.IsDefault {
			defaults++
		}
	}
	assert.Equal(t, 1, defaults)
}
