package dto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartsewing/internal/core/apperror"
	"smartsewing/internal/core/types"
	"smartsewing/internal/domain"
)

func TestMoneyUnmarshal(t *testing.T) {
	tests := []struct {
		in   string
		want types.MinorUnits
	}{
		{`12.5`, 1250},
		{`"12.50"`, 1250},
		{`"৳1,250.50"`, 125050},
		{`0`, 0},
		{`100`, 10000},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var m Money
			require.NoError(t, json.Unmarshal([]byte(tt.in), &m))
			assert.Equal(t, tt.want, m.Minor())
		})
	}
}

func TestMoneyUnmarshalRejects(t *testing.T) {
	for _, in := range []string{`-1`, `"abc"`, `true`, `"NaN"`} {
		var req PaymentRequest
		err := json.Unmarshal([]byte(`{"amount":`+in+`}`), &req)
		require.Error(t, err, in)
		assert.True(t, apperror.HasCode(err, apperror.CodeInvalidAmount), in)
	}
}

func TestMinorPtr(t *testing.T) {
	assert.Nil(t, MinorPtr(nil))
	m := Money(250)
	assert.Equal(t, types.MinorUnits(250), *MinorPtr(&m))
}

func TestFromListResultNeverNil(t *testing.T) {
	resp := FromListResult(domain.ListResult[string]{Limit: 10})
	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"items":[],"totalCount":0,"limit":10,"offset":0}`, string(raw))
}
