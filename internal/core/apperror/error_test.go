package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", NewNotFound("product", "p1"), http.StatusNotFound},
		{"validation", NewValidation("bad quantity"), http.StatusBadRequest},
		{"invalid amount", NewInvalidAmount("amount", 0), http.StatusBadRequest},
		{"negative stock", NewNegativeStock("p1", "Thread", 2, -3), http.StatusBadRequest},
		{"insufficient stock", NewInsufficientStock("p1", "Thread", 5, 2), http.StatusBadRequest},
		{"invalid transition", NewInvalidTransition("sales invoice", "DRAFT", "CLOSED"), http.StatusBadRequest},
		{"already in state", NewAlreadyInState("sales invoice", "CANCELLED"), http.StatusBadRequest},
		{"already paid", NewAlreadyPaid("sales invoice", "i1"), http.StatusBadRequest},
		{"no change", NewNoChange("nothing to adjust"), http.StatusBadRequest},
		{"unauthorized", NewUnauthorized("missing token"), http.StatusUnauthorized},
		{"internal", NewInternal(errors.New("boom")), http.StatusInternalServerError},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, GetHTTPStatus(tt.err))
		})
	}
}

func TestHasCode_ThroughWrapping(t *testing.T) {
	err := fmt.Errorf("issue invoice: %w", NewInsufficientStock("p2", "Needle", 3, 2))

	assert.True(t, HasCode(err, CodeInsufficientStock))
	assert.False(t, HasCode(err, CodeNegativeStock))

	appErr, ok := AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "Needle", appErr.Details["product"])
	assert.Equal(t, int64(3), appErr.Details["requested"])
	assert.Equal(t, int64(2), appErr.Details["available"])
}

func TestInvalidTransition_NamesBothStates(t *testing.T) {
	err := NewInvalidTransition("rental contract", "CLOSED", "ACTIVE")

	assert.Equal(t, "CLOSED", err.Details["current"])
	assert.Equal(t, "ACTIVE", err.Details["requested"])
	assert.Contains(t, err.Message, "CLOSED")
	assert.Contains(t, err.Message, "ACTIVE")
}

func TestNormalize(t *testing.T) {
	assert.Nil(t, Normalize(nil))

	appErr := NewValidation("x")
	assert.Same(t, appErr, Normalize(fmt.Errorf("wrap: %w", appErr)))

	internal := Normalize(errors.New("db down"))
	assert.Equal(t, CodeInternal, internal.Code)
	assert.EqualError(t, internal.Err, "db down")
}
