package rental_contract

import "smartsewing/internal/core/numerator"

const (
	// NumberPrefix starts every contract number (RC-2026-00001).
	NumberPrefix = "RC"

	// NumeratorStrategy defines the numbering strategy for this document type.
	NumeratorStrategy = numerator.StrategyStrict
)
