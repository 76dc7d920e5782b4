package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"smartsewing/internal/core/apperror"
	"smartsewing/internal/core/id"
	"smartsewing/internal/domain/events"
	"smartsewing/pkg/logger"
)

// OutboxStatus represents the status of an outbox message.
type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "pending"
	OutboxStatusPublished OutboxStatus = "published"
	OutboxStatusFailed    OutboxStatus = "failed"
)

// DefaultMaxRetries is how often a message is retried before it moves to the DLQ.
const DefaultMaxRetries = 5

// OutboxMessage is a row of sys_outbox.
type OutboxMessage struct {
	ID            id.ID           `db:"id"`
	AggregateType string          `db:"aggregate_type"`
	AggregateID   id.ID           `db:"aggregate_id"`
	EventType     string          `db:"event_type"`
	Payload       json.RawMessage `db:"payload"`
	Status        OutboxStatus    `db:"status"`
	RetryCount    int             `db:"retry_count"`
	LastError     *string         `db:"last_error"`
	OccurredAt    time.Time       `db:"occurred_at"`
	CreatedAt     time.Time       `db:"created_at"`
	PublishedAt   *time.Time      `db:"published_at"`
}

// OutboxPublisher implements events.Publisher on top of sys_outbox.
// Events only become visible when the surrounding transaction commits.
type OutboxPublisher struct {
	txManager *TxManager
}

var _ events.Publisher = (*OutboxPublisher)(nil)

// NewOutboxPublisher creates a new outbox publisher.
func NewOutboxPublisher(txManager *TxManager) *OutboxPublisher {
	return &OutboxPublisher{txManager: txManager}
}

// Publish writes the event into the ambient transaction.
func (p *OutboxPublisher) Publish(ctx context.Context, event events.Event) error {
	tx := p.txManager.GetTx(ctx)
	if tx == nil {
		return apperror.NewInternal(fmt.Errorf("outbox publish %s requires an active transaction", event.EventType))
	}

	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}
	occurredAt := event.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO sys_outbox (id, aggregate_type, aggregate_id, event_type, payload, status, occurred_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
	`, id.New(), event.AggregateType, event.AggregateID, event.EventType, payload, OutboxStatusPending, occurredAt)
	if err != nil {
		return fmt.Errorf("insert outbox message: %w", err)
	}
	return nil
}

// OutboxHandler delivers a single message. It runs inside a savepoint of the
// relay transaction, so writes made through the TxManager commit together
// with the status update.
type OutboxHandler func(ctx context.Context, msg *OutboxMessage) error

// OutboxRelay moves pending messages to a handler.
type OutboxRelay struct {
	txManager  *TxManager
	handler    OutboxHandler
	batchSize  int
	maxRetries int
}

// NewOutboxRelay creates a relay processing up to batchSize messages per round.
func NewOutboxRelay(txManager *TxManager, handler OutboxHandler, batchSize int) *OutboxRelay {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &OutboxRelay{
		txManager:  txManager,
		handler:    handler,
		batchSize:  batchSize,
		maxRetries: DefaultMaxRetries,
	}
}

// ProcessBatch handles one batch and returns how many messages were delivered.
// Rows are locked with SKIP LOCKED so several workers can run side by side.
func (r *OutboxRelay) ProcessBatch(ctx context.Context) (int, error) {
	opts := r.txManager.defaults
	opts.IsolationLevel = pgx.ReadCommitted

	delivered := 0
	err := r.txManager.RunInTransactionWithOptions(ctx, opts, func(ctx context.Context) error {
		var messages []*OutboxMessage
		err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &messages, `
			SELECT id, aggregate_type, aggregate_id, event_type, payload, status,
			       retry_count, last_error, occurred_at, created_at, published_at
			FROM sys_outbox
			WHERE status = $1 AND retry_count < $2
			ORDER BY created_at
			LIMIT $3
			FOR UPDATE SKIP LOCKED
		`, OutboxStatusPending, r.maxRetries, r.batchSize)
		if err != nil {
			return fmt.Errorf("fetch outbox messages: %w", err)
		}

		for _, msg := range messages {
			if r.processMessage(ctx, msg) {
				delivered++
			}
		}
		return nil
	})
	return delivered, err
}

func (r *OutboxRelay) processMessage(ctx context.Context, msg *OutboxMessage) bool {
	q := r.txManager.GetQuerier(ctx)

	err := r.txManager.RunInTransactionWithOptions(ctx, TxOptions{UseSavepoint: true}, func(ctx context.Context) error {
		return r.handler(ctx, msg)
	})
	if err != nil {
		logger.Warn(ctx, "outbox delivery failed",
			"message_id", msg.ID,
			"event_type", msg.EventType,
			"retry_count", msg.RetryCount+1,
			"error", err,
		)
		status := OutboxStatusPending
		if msg.RetryCount+1 >= r.maxRetries {
			status = OutboxStatusFailed
		}
		if _, uerr := q.Exec(ctx, `
			UPDATE sys_outbox SET retry_count = retry_count + 1, last_error = $2, status = $3
			WHERE id = $1
		`, msg.ID, err.Error(), status); uerr != nil {
			logger.Error(ctx, "outbox retry update failed", "message_id", msg.ID, "error", uerr)
		}
		return false
	}

	if _, err := q.Exec(ctx, `
		UPDATE sys_outbox SET status = $2, published_at = NOW() WHERE id = $1
	`, msg.ID, OutboxStatusPublished); err != nil {
		logger.Error(ctx, "outbox mark published failed", "message_id", msg.ID, "error", err)
		return false
	}
	return true
}

// MoveToDLQ moves failed messages to the dead letter table.
func (r *OutboxRelay) MoveToDLQ(ctx context.Context) (int64, error) {
	var moved int64
	err := r.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, `
			WITH failed AS (
				DELETE FROM sys_outbox WHERE status = $1
				RETURNING id, aggregate_type, aggregate_id, event_type, payload, retry_count, last_error, occurred_at, created_at
			)
			INSERT INTO sys_outbox_dlq (id, aggregate_type, aggregate_id, event_type, payload, retry_count, last_error, occurred_at, created_at, moved_at)
			SELECT id, aggregate_type, aggregate_id, event_type, payload, retry_count, last_error, occurred_at, created_at, NOW()
			FROM failed
		`, OutboxStatusFailed)
		if err != nil {
			return fmt.Errorf("move to dlq: %w", err)
		}
		moved = tag.RowsAffected()
		return nil
	})
	return moved, err
}

// PurgePublished deletes published messages older than retention.
func (r *OutboxRelay) PurgePublished(ctx context.Context, retention time.Duration) (int64, error) {
	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, `
		DELETE FROM sys_outbox WHERE status = $1 AND published_at < $2
	`, OutboxStatusPublished, time.Now().UTC().Add(-retention))
	if err != nil {
		return 0, fmt.Errorf("purge outbox: %w", err)
	}
	return tag.RowsAffected(), nil
}
