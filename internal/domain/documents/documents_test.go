package documents

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartsewing/internal/core/entity"
	"smartsewing/internal/core/numerator"
)

func TestAssignNumber(t *testing.T) {
	ctx := context.Background()
	gen := &numerator.MockGenerator{}

	doc := entity.NewDocument()
	doc.Date = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, AssignNumber(ctx, gen, &doc, "INV", numerator.StrategyStrict))
	assert.Equal(t, "INV-2026-00001", doc.Number)

	// an already numbered document keeps its number
	require.NoError(t, AssignNumber(ctx, gen, &doc, "INV", numerator.StrategyStrict))
	assert.Equal(t, "INV-2026-00001", doc.Number)

	next := entity.NewDocument()
	next.Date = doc.Date
	require.NoError(t, AssignNumber(ctx, gen, &next, "INV", numerator.StrategyStrict))
	assert.Equal(t, "INV-2026-00002", next.Number)
}

func TestAssignNumberError(t *testing.T) {
	gen := &numerator.MockGenerator{
		GetNextNumberFunc: func(context.Context, numerator.Config, *numerator.Options, time.Time) (string, error) {
			return "", errors.New("sequence table locked")
		},
	}
	doc := entity.NewDocument()
	err := AssignNumber(context.Background(), gen, &doc, "WO", numerator.StrategyCached)
	require.Error(t, err)
	assert.Empty(t, doc.Number)
}
