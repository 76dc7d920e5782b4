// Package types provides the money codec shared by every component that stores
// or compares amounts.
package types

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// MinorUnitDigits is the number of fractional digits of the shop currency.
const MinorUnitDigits = 2

// DefaultCurrencySymbol is used by FormatMinorUnits when no symbol is configured.
const DefaultCurrencySymbol = "৳"

// MinorUnits represents a monetary value in minor currency units (paisa, cents).
// Storage: int64. All arithmetic on money happens in this type.
type MinorUnits int64

var (
	maxMinor = decimal.NewFromInt(math.MaxInt64)
	minMinor = decimal.NewFromInt(math.MinInt64)
)

func (m MinorUnits) IsZero() bool     { return m == 0 }
func (m MinorUnits) IsPositive() bool { return m > 0 }
func (m MinorUnits) IsNegative() bool { return m < 0 }
func (m MinorUnits) Int64() int64     { return int64(m) }
func (m MinorUnits) Neg() MinorUnits  { return -m }
func (m MinorUnits) Abs() MinorUnits {
	if m < 0 {
		return -m
	}
	return m
}

// Mul multiplies a unit amount by an integer quantity. It wraps on overflow;
// totals built from user input go through MulChecked.
func (m MinorUnits) Mul(qty int64) MinorUnits {
	return MinorUnits(int64(m) * qty)
}

// MulChecked is Mul that reports false instead of wrapping past the int64 range.
func (m MinorUnits) MulChecked(qty int64) (MinorUnits, bool) {
	a := int64(m)
	if a == 0 || qty == 0 {
		return 0, true
	}
	if (a == -1 && qty == math.MinInt64) || (qty == -1 && a == math.MinInt64) {
		return 0, false
	}
	p := a * qty
	if p/qty != a {
		return 0, false
	}
	return MinorUnits(p), true
}

// AddChecked returns m + n, or false when the sum leaves the int64 range.
func (m MinorUnits) AddChecked(n MinorUnits) (MinorUnits, bool) {
	sum := m + n
	if (n > 0 && sum < m) || (n < 0 && sum > m) {
		return 0, false
	}
	return sum, true
}

// LineAmount is unit × qty added to running. Either step overflowing yields false.
func LineAmount(running, unit MinorUnits, qty int64) (amount, total MinorUnits, ok bool) {
	amount, ok = unit.MulChecked(qty)
	if !ok {
		return 0, running, false
	}
	total, ok = running.AddChecked(amount)
	if !ok {
		return amount, running, false
	}
	return amount, total, true
}

// MinMinor returns the smaller of two amounts.
func MinMinor(a, b MinorUnits) MinorUnits {
	if a < b {
		return a
	}
	return b
}

// ToMinorUnits converts a major-unit amount to minor units, rounding half away
// from zero. The second result is false for NaN, ±Inf and out-of-range input.
func ToMinorUnits(amount float64) (MinorUnits, bool) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, false
	}
	return fromDecimal(decimal.NewFromFloat(amount))
}

// DecimalToMinorUnits converts an exact decimal major-unit amount to minor units.
func DecimalToMinorUnits(amount decimal.Decimal) (MinorUnits, bool) {
	return fromDecimal(amount)
}

func fromDecimal(d decimal.Decimal) (MinorUnits, bool) {
	scaled := d.Shift(MinorUnitDigits).Round(0)
	if scaled.GreaterThan(maxMinor) || scaled.LessThan(minMinor) {
		return 0, false
	}
	return MinorUnits(scaled.IntPart()), true
}

// ParseOptions controls which parsed amounts are accepted.
type ParseOptions struct {
	// AllowZero accepts a zero amount.
	AllowZero bool
	// MinMinorUnits is the lowest accepted amount. Nil means zero.
	MinMinorUnits *MinorUnits
}

// ParseToMinorUnits parses free-form user input (string or number) into minor units.
// It never panics: malformed, empty or non-finite input and amounts below the
// configured minimum yield ok == false.
func ParseToMinorUnits(raw any, opts ParseOptions) (MinorUnits, bool) {
	var (
		m  MinorUnits
		ok bool
	)

	switch v := raw.(type) {
	case nil:
		return 0, false
	case MinorUnits:
		return applyParseOptions(v, opts)
	case string:
		m, ok = parseMoneyString(v)
	case json.Number:
		m, ok = parseMoneyString(v.String())
	case float64:
		m, ok = ToMinorUnits(v)
	case float32:
		m, ok = ToMinorUnits(float64(v))
	case int:
		m, ok = fromDecimal(decimal.NewFromInt(int64(v)))
	case int64:
		m, ok = fromDecimal(decimal.NewFromInt(v))
	case int32:
		m, ok = fromDecimal(decimal.NewFromInt(int64(v)))
	default:
		return 0, false
	}
	if !ok {
		return 0, false
	}
	return applyParseOptions(m, opts)
}

func applyParseOptions(m MinorUnits, opts ParseOptions) (MinorUnits, bool) {
	if m == 0 && !opts.AllowZero {
		return 0, false
	}
	minimum := MinorUnits(0)
	if opts.MinMinorUnits != nil {
		minimum = *opts.MinMinorUnits
	}
	if m < minimum {
		return 0, false
	}
	return m, true
}

// parseMoneyString accepts "1,250.50", " 99 ", "৳ 12.5" style input.
func parseMoneyString(s string) (MinorUnits, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, DefaultCurrencySymbol)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	lower := strings.ToLower(s)
	if strings.Contains(lower, "inf") || strings.Contains(lower, "nan") {
		return 0, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, false
	}
	return fromDecimal(d)
}

// FromMinorUnits converts minor units back to an exact major-unit decimal.
func FromMinorUnits(m MinorUnits) decimal.Decimal {
	return decimal.NewFromInt(int64(m)).Shift(-MinorUnitDigits)
}

// FormatMinorUnits renders an amount for display: symbol, thousands separators and
// two decimal places ("৳1,234.50", "-৳0.05").
func FormatMinorUnits(m MinorUnits, symbol string) string {
	if symbol == "" {
		symbol = DefaultCurrencySymbol
	}
	sign := ""
	if m < 0 {
		sign = "-"
	}
	fixed := FromMinorUnits(m).Abs().StringFixed(MinorUnitDigits)

	intPart, frac, _ := strings.Cut(fixed, ".")
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + symbol + b.String() + "." + frac
}
