package types

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToMinorUnits(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want MinorUnits
		ok   bool
	}{
		{"whole", 12, 1200, true},
		{"two decimals", 12.34, 1234, true},
		{"half rounds away from zero", 0.125, 13, true},
		{"negative half", -0.125, -13, true},
		{"binary artefact", 1.005, 101, true},
		{"zero", 0, 0, true},
		{"nan", math.NaN(), 0, false},
		{"inf", math.Inf(1), 0, false},
		{"overflow", 1e30, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ToMinorUnits(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseToMinorUnits(t *testing.T) {
	min100 := MinorUnits(100)

	tests := []struct {
		name string
		raw  any
		opts ParseOptions
		want MinorUnits
		ok   bool
	}{
		{"string", "70.00", ParseOptions{}, 7000, true},
		{"string with separators", "1,250.5", ParseOptions{}, 125050, true},
		{"string with symbol", "৳ 99", ParseOptions{}, 9900, true},
		{"float", 30.0, ParseOptions{}, 3000, true},
		{"int", 5, ParseOptions{}, 500, true},
		{"json number", json.Number("0.01"), ParseOptions{}, 1, true},
		{"empty string", "", ParseOptions{}, 0, false},
		{"blank string", "   ", ParseOptions{}, 0, false},
		{"garbage", "12abc", ParseOptions{}, 0, false},
		{"infinity string", "Infinity", ParseOptions{}, 0, false},
		{"nan float", math.NaN(), ParseOptions{}, 0, false},
		{"nil", nil, ParseOptions{}, 0, false},
		{"unsupported type", true, ParseOptions{}, 0, false},
		{"zero rejected", "0", ParseOptions{}, 0, false},
		{"zero allowed", "0", ParseOptions{AllowZero: true}, 0, true},
		{"negative rejected by default minimum", "-5", ParseOptions{}, 0, false},
		{"below explicit minimum", "0.99", ParseOptions{MinMinorUnits: &min100}, 0, false},
		{"at explicit minimum", "1", ParseOptions{MinMinorUnits: &min100}, 100, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseToMinorUnits(tt.raw, tt.opts)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFromMinorUnits(t *testing.T) {
	assert.True(t, decimal.RequireFromString("123.45").Equal(FromMinorUnits(12345)))
	assert.True(t, decimal.RequireFromString("-0.05").Equal(FromMinorUnits(-5)))

	back, ok := DecimalToMinorUnits(FromMinorUnits(987654321))
	require.True(t, ok)
	assert.Equal(t, MinorUnits(987654321), back)
}

func TestFormatMinorUnits(t *testing.T) {
	assert.Equal(t, "৳0.00", FormatMinorUnits(0, ""))
	assert.Equal(t, "৳1,234.50", FormatMinorUnits(123450, ""))
	assert.Equal(t, "$1,000,000.00", FormatMinorUnits(100000000, "$"))
	assert.Equal(t, "-৳0.05", FormatMinorUnits(-5, ""))
	assert.Equal(t, "৳999.99", FormatMinorUnits(99999, "৳"))
}

func TestMulChecked(t *testing.T) {
	tests := []struct {
		name string
		m    MinorUnits
		qty  int64
		want MinorUnits
		ok   bool
	}{
		{"simple", 2500, 4, 10000, true},
		{"zero qty", math.MaxInt64, 0, 0, true},
		{"negative", -150, 3, -450, true},
		{"at limit", math.MaxInt64, 1, math.MaxInt64, true},
		{"wraps", math.MaxInt64/2 + 2, 4, 0, false},
		{"just over", math.MaxInt64/2 + 1, 2, 0, false},
		{"min times minus one", math.MinInt64, -1, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.m.MulChecked(tt.qty)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAddChecked(t *testing.T) {
	sum, ok := MinorUnits(100).AddChecked(250)
	require.True(t, ok)
	assert.Equal(t, MinorUnits(350), sum)

	_, ok = MinorUnits(math.MaxInt64).AddChecked(1)
	assert.False(t, ok)

	_, ok = MinorUnits(math.MinInt64).AddChecked(-1)
	assert.False(t, ok)
}

func TestLineAmount(t *testing.T) {
	amount, total, ok := LineAmount(500, 1250, 2)
	require.True(t, ok)
	assert.Equal(t, MinorUnits(2500), amount)
	assert.Equal(t, MinorUnits(3000), total)

	_, total, ok = LineAmount(math.MaxInt64-10, 6, 2)
	assert.False(t, ok)
	assert.Equal(t, MinorUnits(math.MaxInt64-10), total)
}
