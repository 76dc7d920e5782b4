// Package tx defines the atomic unit every stock, document and ledger mutation runs in.
// Domain services depend on Manager; storage backends provide the implementation.
package tx

import (
	"context"
)

// Manager runs a unit of work atomically.
//
// Implementations guarantee that:
//   - all reads and writes made through ctx inside fn observe one consistent snapshot;
//   - any error returned by fn (or a panic) discards every write made inside fn;
//   - nested calls reuse the ambient unit instead of opening a new one.
type Manager interface {
	// RunInTransaction executes fn within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn succeeds, the transaction is committed.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ReadOnlyManager extends Manager with read-only transaction support.
type ReadOnlyManager interface {
	Manager

	// ReadOnly executes fn in a read-only transaction.
	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}
