package stock_transfer

import "smartsewing/internal/core/numerator"

const (
	// NumberPrefix starts every transfer number (TRF-2026-00001).
	NumberPrefix = "TRF"

	// NumeratorStrategy defines the numbering strategy for this document type.
	NumeratorStrategy = numerator.StrategyCached
)
