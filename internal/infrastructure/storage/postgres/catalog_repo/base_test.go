package catalog_repo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartsewing/internal/core/apperror"
	"smartsewing/internal/domain"
	"smartsewing/internal/domain/catalogs/product"
)

func TestApplyFilter(t *testing.T) {
	repo := NewProductRepo(nil)
	active := true

	tests := []struct {
		name     string
		filter   domain.ListFilter
		wantSQL  string
		wantArgs []any
	}{
		{
			name:    "no filter",
			filter:  domain.ListFilter{},
			wantSQL: "FROM cat_products",
		},
		{
			name:     "active",
			filter:   domain.ListFilter{Active: &active},
			wantSQL:  "FROM cat_products WHERE is_active = $1",
			wantArgs: []any{true},
		},
		{
			name:     "search",
			filter:   domain.ListFilter{Search: " spool "},
			wantSQL:  "FROM cat_products WHERE (name ILIKE $1 OR code ILIKE $2)",
			wantArgs: []any{"%spool%", "%spool%"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := repo.applyFilter(repo.baseSelect(), tt.filter).ToSql()
			require.NoError(t, err)
			assert.Contains(t, sql, tt.wantSQL)
			if tt.wantArgs == nil {
				assert.Empty(t, args)
			} else {
				assert.Equal(t, tt.wantArgs, args)
			}
		})
	}
}

func TestParseOrderBy(t *testing.T) {
	repo := NewProductRepo(nil)

	got, err := repo.parseOrderBy("")
	require.NoError(t, err)
	assert.Equal(t, "name ASC", got)

	got, err = repo.parseOrderBy("-quantity")
	require.NoError(t, err)
	assert.Equal(t, "quantity DESC", got)

	got, err = repo.parseOrderBy("+code")
	require.NoError(t, err)
	assert.Equal(t, "code ASC", got)

	_, err = repo.parseOrderBy("name; DROP TABLE cat_products")
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestProductColumns(t *testing.T) {
	repo := NewProductRepo(nil)

	assert.Contains(t, repo.selectCols, "quantity")
	assert.Contains(t, repo.selectCols, "unit_price")
	assert.Equal(t, []string{"quantity"}, repo.readOnlyCols)

	var _ product.Repository = repo
}
