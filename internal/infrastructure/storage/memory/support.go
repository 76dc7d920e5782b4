package memory

import (
	"context"
	"slices"
	"time"

	"smartsewing/internal/core/apperror"
	"smartsewing/internal/domain/events"
	"smartsewing/internal/infrastructure/idempotency"
	"smartsewing/internal/infrastructure/numerator"
)

// SequenceStore implements numerator.SequenceStore.
// Like a database sequence, counters survive a rolled-back unit of work.
type SequenceStore struct {
	store  *Store
	values map[string]int64
}

// Increment adds by to the counter for key and returns the new value.
func (q *SequenceStore) Increment(ctx context.Context, key string, by int64) (int64, error) {
	var val int64
	err := q.store.read(ctx, func() error {
		q.values[key] += by
		val = q.values[key]
		return nil
	})
	return val, err
}

// Set overwrites the counter for key.
func (q *SequenceStore) Set(ctx context.Context, key string, value int64) error {
	return q.store.read(ctx, func() error {
		q.values[key] = value
		return nil
	})
}

// Outbox implements events.Publisher. Events vanish when the unit of work fails.
type Outbox struct {
	store  *Store
	events []events.Event
}

// Publish records the event in the ambient unit of work.
func (o *Outbox) Publish(ctx context.Context, event events.Event) error {
	return o.store.write(ctx, func(st *txState) error {
		if event.OccurredAt.IsZero() {
			event.OccurredAt = o.store.now()
		}
		appendRow(st, &o.events, event)
		return nil
	})
}

// Events returns every published event, oldest first.
func (o *Outbox) Events() []events.Event {
	o.store.mu.Lock()
	defer o.store.mu.Unlock()
	return slices.Clone(o.events)
}

// IdempotencyStore implements idempotency.Store.
type IdempotencyStore struct {
	store   *Store
	ttl     time.Duration
	records map[string]*idempotency.Record
}

func newIdempotencyStore(s *Store, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{store: s, ttl: ttl, records: make(map[string]*idempotency.Record)}
}

// AcquireKey attempts to acquire an idempotency key.
func (i *IdempotencyStore) AcquireKey(ctx context.Context, key, userID, operation, requestHash string) (*idempotency.Replay, error) {
	var replay *idempotency.Replay
	err := i.store.write(ctx, func(st *txState) error {
		now := i.store.now()
		rec, ok := i.records[key]
		if !ok || now.After(rec.ExpiresAt) {
			setRow(st, i.records, key, &idempotency.Record{
				Key:         key,
				UserID:      userID,
				Operation:   operation,
				Status:      idempotency.StatusPending,
				RequestHash: requestHash,
				CreatedAt:   now,
				UpdatedAt:   now,
				ExpiresAt:   now.Add(i.ttl),
			})
			return nil
		}

		if rec.UserID != userID || rec.Operation != operation || rec.RequestHash != requestHash {
			return apperror.NewIdempotencyMismatch(key).
				WithDetail("stored_operation", rec.Operation).
				WithDetail("request_operation", operation)
		}

		switch rec.Status {
		case idempotency.StatusSuccess, idempotency.StatusFailed:
			replay = idempotency.ReplayOf(rec)
			return nil
		}
		if now.Sub(rec.UpdatedAt) > idempotency.StaleAfter {
			next := clone(rec)
			next.UpdatedAt = now
			setRow(st, i.records, key, next)
			return nil
		}
		return apperror.NewIdempotencyConflict(key)
	})
	if err != nil {
		return nil, err
	}
	return replay, nil
}

// CompleteKey stores a successful response.
func (i *IdempotencyStore) CompleteKey(ctx context.Context, key string, statusCode int, contentType string, body []byte) error {
	return i.finish(ctx, key, idempotency.StatusSuccess, statusCode, contentType, body)
}

// FailKey stores a failed response.
func (i *IdempotencyStore) FailKey(ctx context.Context, key string, statusCode int, contentType string, body []byte) error {
	return i.finish(ctx, key, idempotency.StatusFailed, statusCode, contentType, body)
}

// ReleaseKey drops a pending key.
func (i *IdempotencyStore) ReleaseKey(ctx context.Context, key string) error {
	return i.store.write(ctx, func(st *txState) error {
		rec, ok := i.records[key]
		if !ok || rec.Status != idempotency.StatusPending {
			return nil
		}
		delete(i.records, key)
		st.onRollback(func() { i.records[key] = rec })
		return nil
	})
}

func (i *IdempotencyStore) finish(ctx context.Context, key string, status idempotency.Status, code int, ct string, body []byte) error {
	return i.store.write(ctx, func(st *txState) error {
		rec, ok := i.records[key]
		if !ok {
			return apperror.NewNotFound("idempotency key", key)
		}
		next := clone(rec)
		next.Status = status
		next.StatusCode = code
		next.ContentType = ct
		next.Response = slices.Clone(body)
		next.UpdatedAt = i.store.now()
		setRow(st, i.records, key, next)
		return nil
	})
}

// CleanupExpired removes expired keys.
func (i *IdempotencyStore) CleanupExpired(ctx context.Context) (int64, error) {
	var n int64
	err := i.store.write(ctx, func(st *txState) error {
		now := i.store.now()
		for key, rec := range i.records {
			if rec.ExpiresAt.Before(now) {
				old := rec
				delete(i.records, key)
				st.onRollback(func() { i.records[key] = old })
				n++
			}
		}
		return nil
	})
	return n, err
}

var (
	_ numerator.SequenceStore = (*SequenceStore)(nil)
	_ events.Publisher        = (*Outbox)(nil)
	_ idempotency.Store       = (*IdempotencyStore)(nil)
)
