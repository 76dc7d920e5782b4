package rental_bill

import "smartsewing/internal/core/numerator"

const (
	// NumberPrefix starts every bill number (RB-2026-00001).
	NumberPrefix = "RB"

	// NumeratorStrategy defines the numbering strategy for this document type.
	NumeratorStrategy = numerator.StrategyStrict
)
