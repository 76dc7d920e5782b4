package documents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartsewing/internal/core/apperror"
	"smartsewing/internal/core/entity"
	"smartsewing/internal/core/id"
)

func TestReferenceResolver(t *testing.T) {
	ctx := context.Background()
	known := id.New()
	calls := 0

	r := NewReferenceResolver()
	r.Register(entity.KindSalesInvoice, func(ctx context.Context, docID id.ID) (*ReferenceLabel, error) {
		calls++
		if docID != known {
			return nil, apperror.NewNotFound("sales invoice", docID.String())
		}
		return &ReferenceLabel{Number: "INV-2026-00001", Status: "ISSUED"}, nil
	})

	ref := entity.NewReference(entity.KindSalesInvoice, known)
	label, err := r.Resolve(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, "INV-2026-00001", label.Number)
	assert.Equal(t, entity.KindSalesInvoice, label.Kind)
	assert.Equal(t, known, label.ID)

	none, err := r.Resolve(ctx, entity.Reference{})
	require.NoError(t, err)
	assert.Nil(t, none)

	_, err = r.Resolve(ctx, entity.NewReference(entity.KindWriteOff, id.New()))
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	calls = 0
	missing := entity.NewReference(entity.KindSalesInvoice, id.New())
	labels, err := r.ResolveAll(ctx, []entity.Reference{ref, ref, missing, {}})
	require.NoError(t, err)
	assert.Len(t, labels, 1)
	assert.Equal(t, 2, calls)
}
