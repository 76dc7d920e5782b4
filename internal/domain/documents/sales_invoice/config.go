package sales_invoice

import "smartsewing/internal/core/numerator"

const (
	// NumberPrefix starts every invoice number (INV-2026-00001).
	NumberPrefix = "INV"

	// NumeratorStrategy defines the numbering strategy for this document type.
	// Invoices are handed to customers, so numbering must not skip.
	NumeratorStrategy = numerator.StrategyStrict
)
