package write_off

import "smartsewing/internal/core/numerator"

const (
	// NumberPrefix starts every write-off number (WO-2026-00001).
	NumberPrefix = "WO"

	// NumeratorStrategy defines the numbering strategy for this document type.
	NumeratorStrategy = numerator.StrategyStrict
)
