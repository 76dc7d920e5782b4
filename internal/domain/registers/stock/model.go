// Package stock provides the Stock Engine: the sole writer of on-hand quantity
// and of the append-only movement ledger.
package stock

import (
	"time"

	"smartsewing/internal/core/entity"
	"smartsewing/internal/core/id"
)

// MovementKind classifies a movement ledger entry.
type MovementKind string

const (
	KindIn     MovementKind = "IN"
	KindOut    MovementKind = "OUT"
	KindAdjust MovementKind = "ADJUST"
)

// Valid reports whether k is a known kind.
func (k MovementKind) Valid() bool {
	return k == KindIn || k == KindOut || k == KindAdjust
}

// Movement is one immutable movement ledger entry.
//
// Sign convention: IN and OUT store the magnitude of the change in Quantity
// (always > 0); ADJUST stores the signed delta. Delta() recovers the signed
// value for every kind, and After == Before + Delta() always holds.
type Movement struct {
	ID         id.ID            `db:"id" json:"id"`
	ProductID  id.ID            `db:"product_id" json:"productId"`
	LocationID *id.ID           `db:"location_id" json:"locationId,omitempty"`
	Kind       MovementKind     `db:"kind" json:"kind"`
	Quantity   int64            `db:"quantity" json:"quantity"`
	Before     int64            `db:"quantity_before" json:"before"`
	After      int64            `db:"quantity_after" json:"after"`
	Reference  entity.Reference `db:"-" json:"reference"`
	Note       string           `db:"note" json:"note,omitempty"`
	CreatedBy  string           `db:"created_by" json:"createdBy,omitempty"`
	CreatedAt  time.Time        `db:"created_at" json:"createdAt"`
}

// Delta returns the signed quantity change recorded by the movement.
func (m *Movement) Delta() int64 {
	if m.Kind == KindOut {
		return -m.Quantity
	}
	return m.Quantity
}

// storedQuantity converts a signed delta into the stored Quantity for kind.
func storedQuantity(kind MovementKind, delta int64) int64 {
	if kind == KindAdjust {
		return delta
	}
	if delta < 0 {
		return -delta
	}
	return delta
}

// ProductStock is the Stock Engine's view of a product: identity and on-hand quantity.
type ProductStock struct {
	ID       id.ID  `db:"id"`
	Name     string `db:"name"`
	Quantity int64  `db:"quantity"`
	IsActive bool   `db:"is_active"`
}

// LocationStock is the per-location mirror of a product's quantity.
// Sum over locations equals Product.quantity (see Service.ApplyDelta).
type LocationStock struct {
	LocationID   id.ID     `db:"location_id" json:"locationId"`
	LocationCode string    `db:"location_code" json:"locationCode"`
	LocationName string    `db:"location_name" json:"locationName"`
	ProductID    id.ID     `db:"product_id" json:"productId"`
	ProductName  string    `db:"product_name" json:"productName"`
	Quantity     int64     `db:"quantity" json:"quantity"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// Change is a request to move a product's on-hand quantity by Delta.
type Change struct {
	ProductID id.ID
	Delta     int64
	Kind      MovementKind
	Reference entity.Reference
	Note      string
	// LocationID overrides the default location for the mirror update.
	LocationID *id.ID
}

// SetRequest is a request to set a product's on-hand quantity to Target.
type SetRequest struct {
	ProductID  id.ID
	Target     int64
	Reference  entity.Reference
	Note       string
	LocationID *id.ID
}

// Result describes an applied change.
type Result struct {
	Movement *Movement `json:"movement"`
	Before   int64     `json:"before"`
	After    int64     `json:"after"`
}

// Requirement is one line of a sufficiency check.
type Requirement struct {
	ProductID id.ID
	Quantity  int64
}

// TransferRequest moves location-level quantity without touching the aggregate.
type TransferRequest struct {
	FromLocationID id.ID
	ToLocationID   id.ID
	ProductID      id.ID
	Quantity       int64
	Reference      entity.Reference
}

// MovementFilter selects movement ledger entries.
type MovementFilter struct {
	ProductID *id.ID
	Kind      MovementKind
	Reference entity.Reference
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

// LocationStockFilter selects location stock rows.
type LocationStockFilter struct {
	ProductID   *id.ID
	LocationID  *id.ID
	ExcludeZero bool
}
