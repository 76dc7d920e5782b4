// Package memory is an in-process storage backend. One writer runs at a time;
// a failed unit of work is undone from its undo log, so callers observe the
// same all-or-nothing behaviour as with PostgreSQL.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"smartsewing/internal/core/tx"
	"smartsewing/pkg/logger"
)

type txKey struct{}

// txState is the undo log of one unit of work.
type txState struct {
	store *Store
	undo  []func()
}

func (st *txState) onRollback(fn func()) {
	st.undo = append(st.undo, fn)
}

func (st *txState) rollback() {
	for i := len(st.undo) - 1; i >= 0; i-- {
		st.undo[i]()
	}
	st.undo = nil
}

// Store holds every table of the memory backend.
type Store struct {
	mu  sync.Mutex
	now func() time.Time

	Products   *ProductRepo
	Locations  *LocationRepo
	Accounts   *AccountRepo
	Categories *CategoryRepo

	Stock       *StockRepo
	Entries     *EntryRepo
	Sequences   *SequenceStore
	Outbox      *Outbox
	Idempotency *IdempotencyStore

	SalesInvoices    *SalesInvoiceRepo
	RentalContracts  *RentalContractRepo
	RentalBills      *RentalBillRepo
	StockAdjustments *StockAdjustmentRepo
	StockTransfers   *StockTransferRepo
	WriteOffs        *WriteOffRepo
	PurchaseBills    *PurchaseBillRepo
}

// New creates an empty store.
func New() *Store {
	s := &Store{now: func() time.Time { return time.Now().UTC() }}

	s.Products = newProductRepo(s)
	s.Locations = newLocationRepo(s)
	s.Accounts = newAccountRepo(s)
	s.Categories = newCategoryRepo(s)
	s.Stock = newStockRepo(s)
	s.Entries = newEntryRepo(s)
	s.Sequences = &SequenceStore{store: s, values: make(map[string]int64)}
	s.Outbox = &Outbox{store: s}
	s.Idempotency = newIdempotencyStore(s, 24*time.Hour)

	s.SalesInvoices = newSalesInvoiceRepo(s)
	s.RentalContracts = newRentalContractRepo(s)
	s.RentalBills = newRentalBillRepo(s)
	s.StockAdjustments = newStockAdjustmentRepo(s)
	s.StockTransfers = newStockTransferRepo(s)
	s.WriteOffs = newWriteOffRepo(s)
	s.PurchaseBills = newPurchaseBillRepo(s)
	return s
}

// RunInTransaction implements tx.Manager. Nested calls join the ambient unit.
func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if st := s.current(ctx); st != nil {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st := &txState{store: s}
	ctx = context.WithValue(ctx, txKey{}, st)

	defer func() {
		if p := recover(); p != nil {
			st.rollback()
			logger.Error(ctx, "transaction rolled back after panic", "panic", fmt.Sprint(p))
			panic(p)
		}
		if err != nil {
			st.rollback()
		}
	}()

	return fn(ctx)
}

// ReadOnly implements tx.ReadOnlyManager.
func (s *Store) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.RunInTransaction(ctx, fn)
}

func (s *Store) current(ctx context.Context) *txState {
	st, _ := ctx.Value(txKey{}).(*txState)
	if st == nil || st.store != s {
		return nil
	}
	return st
}

// write runs fn inside the ambient unit or a fresh one.
func (s *Store) write(ctx context.Context, fn func(st *txState) error) error {
	return s.RunInTransaction(ctx, func(ctx context.Context) error {
		return fn(s.current(ctx))
	})
}

// read runs fn under the store lock unless the caller already holds it.
func (s *Store) read(ctx context.Context, fn func() error) error {
	if s.current(ctx) != nil {
		return fn()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}

// setRow writes m[k] and registers the inverse.
func setRow[K comparable, V any](st *txState, m map[K]V, k K, v V) {
	old, had := m[k]
	m[k] = v
	st.onRollback(func() {
		if had {
			m[k] = old
		} else {
			delete(m, k)
		}
	})
}

// appendRow appends to *rows and registers the inverse.
func appendRow[V any](st *txState, rows *[]V, v V) {
	n := len(*rows)
	*rows = append(*rows, v)
	st.onRollback(func() {
		*rows = (*rows)[:n]
	})
}

func clone[T any](p *T) *T {
	c := *p
	return &c
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

var (
	_ tx.Manager         = (*Store)(nil)
	_ tx.ReadOnlyManager = (*Store)(nil)
)
