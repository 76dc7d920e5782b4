package purchase_bill

import "smartsewing/internal/core/numerator"

const (
	// NumberPrefix starts every purchase bill number (PB-2026-00001).
	NumberPrefix = "PB"

	// NumeratorStrategy defines the numbering strategy for this document type.
	NumeratorStrategy = numerator.StrategyStrict
)
