package stock_adjustment

import "smartsewing/internal/core/numerator"

const (
	// NumberPrefix starts every adjustment number (ADJ-2026-00001).
	NumberPrefix = "ADJ"

	// NumeratorStrategy defines the numbering strategy for this document type.
	// Adjustments are internal, so gaps after a restart are acceptable.
	NumeratorStrategy = numerator.StrategyCached
)
