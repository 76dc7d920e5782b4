package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartsewing/internal/core/apperror"
	"smartsewing/internal/core/id"
)

func TestParseReference(t *testing.T) {
	docID := id.New()

	ref, err := ParseReference("sales_invoice", docID.String())
	require.NoError(t, err)
	assert.Equal(t, KindSalesInvoice, ref.Kind)
	assert.Equal(t, docID, ref.ID)

	empty, err := ParseReference("", "")
	require.NoError(t, err)
	assert.True(t, empty.IsZero())

	_, err = ParseReference("PAYSLIP", docID.String())
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	_, err = ParseReference("RENTAL_BILL", "not-a-uuid")
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestReferenceColumnsRoundTrip(t *testing.T) {
	ref := NewReference(KindRentalContractReturn, id.New())

	kind, docID := ref.Columns()
	require.NotNil(t, kind)
	require.NotNil(t, docID)
	assert.Equal(t, ref, ReferenceFromColumns(kind, docID))

	kind, docID = Reference{}.Columns()
	assert.Nil(t, kind)
	assert.Nil(t, docID)
	assert.True(t, ReferenceFromColumns(nil, nil).IsZero())
}

func TestReferenceJSON(t *testing.T) {
	data, err := json.Marshal(struct {
		Ref Reference `json:"ref"`
	}{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"ref":null}`, string(data))

	ref := NewReference(KindWriteOff, id.New())
	data, err = json.Marshal(ref)
	require.NoError(t, err)

	var back Reference
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, ref, back)
}

func TestReferenceValidate(t *testing.T) {
	assert.NoError(t, Reference{}.Validate())
	assert.Error(t, Reference{Kind: KindTransfer}.Validate())
	assert.Error(t, Reference{Kind: "BOGUS", ID: id.New()}.Validate())
	assert.NoError(t, NewReference(KindTransfer, id.New()).Validate())
}
