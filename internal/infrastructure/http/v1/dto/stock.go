package dto

import (
	"time"

	"smartsewing/internal/core/id"
	"smartsewing/internal/domain/documents"
	"smartsewing/internal/domain/registers/stock"
)

// ProductStockResponse is the on-hand quantity of one product with its location split.
type ProductStockResponse struct {
	ProductID   string                 `json:"productId"`
	ProductName string                 `json:"productName"`
	Quantity    int64                  `json:"quantity"`
	IsActive    bool                   `json:"isActive"`
	Locations   []*stock.LocationStock `json:"locations"`
}

// FromProductStock builds the response.
func FromProductStock(ps *stock.ProductStock, locations []*stock.LocationStock) ProductStockResponse {
	if locations == nil {
		locations = []*stock.LocationStock{}
	}
	return ProductStockResponse{
		ProductID:   ps.ID.String(),
		ProductName: ps.Name,
		Quantity:    ps.Quantity,
		IsActive:    ps.IsActive,
		Locations:   locations,
	}
}

// StockMovementResponse represents a movement ledger entry in API responses.
type StockMovementResponse struct {
	ID         string                    `json:"id"`
	ProductID  string                    `json:"productId"`
	LocationID *id.ID                    `json:"locationId,omitempty"`
	Kind       string                    `json:"kind"`
	Quantity   int64                     `json:"quantity"`
	Delta      int64                     `json:"delta"`
	Before     int64                     `json:"before"`
	After      int64                     `json:"after"`
	Reference  *documents.ReferenceLabel `json:"reference,omitempty"`
	Note       string                    `json:"note,omitempty"`
	CreatedBy  string                    `json:"createdBy,omitempty"`
	CreatedAt  time.Time                 `json:"createdAt"`
}

// FromStockMovement converts a movement; label may be nil.
func FromStockMovement(m *stock.Movement, label *documents.ReferenceLabel) StockMovementResponse {
	return StockMovementResponse{
		ID:         m.ID.String(),
		ProductID:  m.ProductID.String(),
		LocationID: m.LocationID,
		Kind:       string(m.Kind),
		Quantity:   m.Quantity,
		Delta:      m.Delta(),
		Before:     m.Before,
		After:      m.After,
		Reference:  label,
		Note:       m.Note,
		CreatedBy:  m.CreatedBy,
		CreatedAt:  m.CreatedAt,
	}
}
