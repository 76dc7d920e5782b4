package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"smartsewing/internal/domain/catalogs/product"
	"smartsewing/internal/domain/documents/sales_invoice"
)

func TestExtractDBColumns_Embedded(t *testing.T) {
	cols := ExtractDBColumns[product.Product]()

	for _, expected := range []string{"id", "version", "code", "name", "is_active", "kind", "unit_price", "quantity"} {
		assert.Contains(t, cols, expected)
	}

	docCols := ExtractDBColumns[sales_invoice.Invoice]()
	for _, expected := range []string{"id", "version", "created_at", "created_by", "number", "date", "status", "total"} {
		assert.Contains(t, docCols, expected)
	}
	assert.NotContains(t, docCols, "lines")
}

func TestStructToMap(t *testing.T) {
	p := product.NewProduct("PRD-0001", "Cotton thread", product.KindGoods, 1250)
	p.Quantity = 7

	m := StructToMap(p)

	assert.Equal(t, p.ID, m["id"])
	assert.Equal(t, 1, m["version"])
	assert.Equal(t, "PRD-0001", m["code"])
	assert.Equal(t, "Cotton thread", m["name"])
	assert.Equal(t, true, m["is_active"])
	assert.Equal(t, product.KindGoods, m["kind"])
	assert.Equal(t, int64(7), m["quantity"])
}

func TestRowValues(t *testing.T) {
	p := product.NewProduct("PRD-0001", "Cotton thread", product.KindGoods, 1250)

	row := RowValues(p, []string{"code", "missing", "name"})

	assert.Equal(t, []any{"PRD-0001", nil, "Cotton thread"}, row)
}
