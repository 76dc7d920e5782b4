// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"bytes"
	"encoding/json"

	"smartsewing/internal/core/apperror"
	"smartsewing/internal/core/id"
	"smartsewing/internal/core/types"
	"smartsewing/internal/domain"
)

// --- Money ---

// Money is an amount in major units as the client typed it: a JSON number
// (12.5) or a string ("৳1,250.50"). It unmarshals into minor units.
type Money types.MinorUnits

// UnmarshalJSON parses the amount through the money codec. Negative,
// malformed and non-finite amounts are rejected.
func (m *Money) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return apperror.NewInvalidAmount("amount", string(data))
	}
	parsed, ok := types.ParseToMinorUnits(raw, types.ParseOptions{AllowZero: true})
	if !ok {
		return apperror.NewInvalidAmount("amount", string(data))
	}
	*m = Money(parsed)
	return nil
}

// Minor returns the amount in minor units.
func (m Money) Minor() types.MinorUnits {
	return types.MinorUnits(m)
}

// MinorPtr converts an optional amount.
func MinorPtr(m *Money) *types.MinorUnits {
	if m == nil {
		return nil
	}
	v := m.Minor()
	return &v
}

// --- List Response ---

// ListResponse wraps list results with pagination.
type ListResponse struct {
	Items      any   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// FromListResult wraps a domain page.
func FromListResult[T any](r domain.ListResult[T]) ListResponse {
	items := r.Items
	if items == nil {
		items = []T{}
	}
	return ListResponse{
		Items:      items,
		TotalCount: r.TotalCount,
		Limit:      r.Limit,
		Offset:     r.Offset,
	}
}

// --- ID Response ---

// IDResponse for create operations.
type IDResponse struct {
	ID string `json:"id"`
}

// NewIDResponse creates ID response.
func NewIDResponse(i id.ID) IDResponse {
	return IDResponse{ID: i.String()}
}

// --- Success Response ---

// SuccessResponse for operations without data.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// --- Error Response ---

// ErrorResponse for error details.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// --- Activation ---

// SetActiveRequest toggles a catalog item.
type SetActiveRequest struct {
	Active bool `json:"active"`
}
