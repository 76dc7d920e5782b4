package numerator

import (
	"context"
	"time"
)

// Generator assigns unique, monotonically increasing human-readable numbers
// to documents at creation. Implementations live in the storage layer.
type Generator interface {
	// GetNextNumber generates the next document number.
	// Pattern: PREFIX-YEAR-XXXXX (e.g., INV-2026-00001)
	GetNextNumber(ctx context.Context, cfg Config, opts *Options, period time.Time) (string, error)

	// SetNextNumber sets the next number value (used when importing legacy data).
	SetNextNumber(ctx context.Context, cfg Config, period time.Time, value int64) error
}
