// Package events defines domain events written to the transactional outbox.
package events

import (
	"context"
	"time"

	"smartsewing/internal/core/id"
)

// Event types published by documents and the ledgers.
const (
	DocumentCreated      = "DocumentCreated"
	DocumentUpdated      = "DocumentUpdated"
	DocumentTransitioned = "DocumentTransitioned"
	PaymentRecorded      = "PaymentRecorded"
)

// Event is a fact about an aggregate. It must be published inside the same
// transaction as the change it describes.
type Event struct {
	AggregateType string    `json:"aggregateType"` // e.g. "SALES_INVOICE", "PRODUCT"
	AggregateID   id.ID     `json:"aggregateId"`
	EventType     string    `json:"eventType"`
	Payload       any       `json:"payload"`
	OccurredAt    time.Time `json:"occurredAt"`
}

// Publisher stores events for asynchronous delivery.
type Publisher interface {
	// Publish records the event in the ambient transaction.
	Publish(ctx context.Context, event Event) error
}

// NopPublisher drops events. Useful when no outbox is configured.
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(context.Context, Event) error { return nil }

// Transition is the payload of DocumentTransitioned events.
type Transition struct {
	Number string `json:"number"`
	From   string `json:"from"`
	To     string `json:"to"`
}

// Payment is the payload of PaymentRecorded events.
type Payment struct {
	EntryID       id.ID  `json:"entryId"`
	AmountApplied int64  `json:"amountApplied"`
	TotalPaid     int64  `json:"totalPaid"`
	Remaining     int64  `json:"remaining"`
	PaymentStatus string `json:"paymentStatus"`
}

// Summary is the payload of DocumentCreated and DocumentUpdated events.
type Summary struct {
	Number string `json:"number"`
	Status string `json:"status,omitempty"`
	Total  int64  `json:"total,omitempty"`
	Lines  int    `json:"lines,omitempty"`
}
