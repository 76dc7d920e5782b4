package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"

	"smartsewing/internal/core/id"
)

// CompressionAlgo specifies how an audit payload is stored.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

const defaultCompressThreshold = 4 * 1024

// AuditEntry is a row of sys_audit.
type AuditEntry struct {
	ID                id.ID           `db:"id"`
	EventID           id.ID           `db:"event_id"`
	AggregateType     string          `db:"aggregate_type"`
	AggregateID       id.ID           `db:"aggregate_id"`
	EventType         string          `db:"event_type"`
	Payload           json.RawMessage `db:"payload"`
	PayloadCompressed []byte          `db:"payload_compressed"`
	CompressionAlgo   CompressionAlgo `db:"compression_algo"`
	OccurredAt        time.Time       `db:"occurred_at"`
	CreatedAt         time.Time       `db:"created_at"`
}

// AuditLog keeps the durable history of delivered outbox events.
type AuditLog struct {
	txManager         *TxManager
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int
}

// NewAuditLog creates a new audit log.
func NewAuditLog(txManager *TxManager) (*AuditLog, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &AuditLog{
		txManager:         txManager,
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: defaultCompressThreshold,
	}, nil
}

// HandleOutbox is an OutboxHandler. Redelivery of the same message is a no-op.
func (a *AuditLog) HandleOutbox(ctx context.Context, msg *OutboxMessage) error {
	entry := AuditEntry{
		ID:              id.New(),
		EventID:         msg.ID,
		AggregateType:   msg.AggregateType,
		AggregateID:     msg.AggregateID,
		EventType:       msg.EventType,
		Payload:         msg.Payload,
		CompressionAlgo: CompressionNone,
		OccurredAt:      msg.OccurredAt,
		CreatedAt:       time.Now().UTC(),
	}
	if len(entry.Payload) > a.compressThreshold {
		entry.PayloadCompressed = a.encoder.EncodeAll(entry.Payload, nil)
		entry.Payload = nil
		entry.CompressionAlgo = CompressionZstd
	}

	_, err := a.txManager.GetQuerier(ctx).Exec(ctx, `
		INSERT INTO sys_audit (
			id, event_id, aggregate_type, aggregate_id, event_type,
			payload, payload_compressed, compression_algo, occurred_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (event_id) DO NOTHING
	`,
		entry.ID, entry.EventID, entry.AggregateType, entry.AggregateID, entry.EventType,
		entry.Payload, entry.PayloadCompressed, entry.CompressionAlgo, entry.OccurredAt, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// History returns the audit trail of an aggregate, newest first.
func (a *AuditLog) History(ctx context.Context, aggregateType string, aggregateID id.ID, limit int) ([]AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := a.txManager.GetQuerier(ctx).Query(ctx, `
		SELECT id, event_id, aggregate_type, aggregate_id, event_type,
		       payload, payload_compressed, compression_algo, occurred_at, created_at
		FROM sys_audit
		WHERE aggregate_type = $1 AND aggregate_id = $2
		ORDER BY occurred_at DESC
		LIMIT $3
	`, aggregateType, aggregateID, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit history: %w", err)
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		var e AuditEntry
		if err := rows.Scan(
			&e.ID, &e.EventID, &e.AggregateType, &e.AggregateID, &e.EventType,
			&e.Payload, &e.PayloadCompressed, &e.CompressionAlgo, &e.OccurredAt, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		if e.CompressionAlgo == CompressionZstd && len(e.PayloadCompressed) > 0 {
			raw, err := a.decoder.DecodeAll(e.PayloadCompressed, nil)
			if err != nil {
				return nil, fmt.Errorf("decompress audit payload: %w", err)
			}
			e.Payload = raw
			e.PayloadCompressed = nil
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
