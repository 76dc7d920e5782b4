package finance_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartsewing/internal/app/apptest"
	"smartsewing/internal/core/apperror"
	"smartsewing/internal/core/entity"
	"smartsewing/internal/core/id"
	"smartsewing/internal/core/types"
	"smartsewing/internal/domain/finance"
)

func TestComputePaymentStatus(t *testing.T) {
	assert.Equal(t, finance.PaymentUnpaid, finance.ComputePaymentStatus(0, 100))
	assert.Equal(t, finance.PaymentPartial, finance.ComputePaymentStatus(1, 100))
	assert.Equal(t, finance.PaymentPaid, finance.ComputePaymentStatus(100, 100))
	assert.Equal(t, finance.PaymentPaid, finance.ComputePaymentStatus(0, 0))
}

func TestCreateEntry(t *testing.T) {
	env := apptest.New(t)
	acc := env.Account(t)
	rent := finance.NewCategory("", "Shop rent", finance.DirectionOut)
	require.NoError(t, env.Ledger.Categories.Create(env.Ctx, rent))
	assert.Regexp(t, `^CAT-`, rent.Code)

	e, err := env.Ledger.CreateEntry(env.Ctx, finance.EntryInput{
		AccountID:  acc.ID,
		CategoryID: &rent.ID,
		Direction:  finance.DirectionOut,
		Amount:     1500000,
		Note:       "March rent",
	})
	require.NoError(t, err)
	assert.Equal(t, apptest.UserID, e.CreatedBy)
	assert.False(t, e.OccurredAt.IsZero())
	assert.Equal(t, types.MinorUnits(-1500000), e.Signed())

	tests := []struct {
		name string
		in   finance.EntryInput
		code string
	}{
		{"zero amount", finance.EntryInput{AccountID: acc.ID, Direction: finance.DirectionIn}, apperror.CodeInvalidAmount},
		{"bad direction", finance.EntryInput{AccountID: acc.ID, Direction: "SIDEWAYS", Amount: 1}, apperror.CodeValidation},
		{"category direction", finance.EntryInput{AccountID: acc.ID, CategoryID: &rent.ID, Direction: finance.DirectionIn, Amount: 1}, apperror.CodeValidation},
		{"future", finance.EntryInput{AccountID: acc.ID, Direction: finance.DirectionIn, Amount: 1, OccurredAt: time.Now().Add(72 * time.Hour)}, apperror.CodeValidation},
		{"unknown account", finance.EntryInput{AccountID: id.New(), Direction: finance.DirectionIn, Amount: 1}, apperror.CodeNotFound},
		{"bad reference", finance.EntryInput{AccountID: acc.ID, Direction: finance.DirectionIn, Amount: 1, Reference: entity.Reference{Kind: "LOAN", ID: id.New()}}, apperror.CodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.Ledger.CreateEntry(env.Ctx, tt.in)
			assert.True(t, apperror.HasCode(err, tt.code), "got %v", err)
		})
	}

	require.NoError(t, env.Ledger.Accounts.SetActive(env.Ctx, acc.ID, false))
	_, err = env.Ledger.CreateEntry(env.Ctx, finance.EntryInput{AccountID: acc.ID, Direction: finance.DirectionIn, Amount: 1})
	assert.True(t, apperror.HasCode(err, apperror.CodeInactive))
}

func TestRecordPayment_DirectionAware(t *testing.T) {
	env := apptest.New(t)
	acc := env.Account(t)
	ref := entity.NewReference(entity.KindPurchaseBill, id.New())

	// An inflow against the same document does not count toward payables.
	_, err := env.Ledger.CreateEntry(env.Ctx, finance.EntryInput{
		AccountID: acc.ID,
		Direction: finance.DirectionIn,
		Amount:    700,
		Reference: ref,
	})
	require.NoError(t, err)

	res, err := env.Ledger.RecordPayment(env.Ctx, finance.PaymentRequest{
		Reference: ref,
		Total:     1000,
		Direction: finance.DirectionOut,
		AccountID: acc.ID,
		Amount:    400,
	})
	require.NoError(t, err)
	assert.Equal(t, types.MinorUnits(400), res.AmountApplied)
	assert.Equal(t, types.MinorUnits(600), res.Remaining)
	assert.Equal(t, finance.PaymentPartial, res.Status)

	paid, err := env.Ledger.PaidToDate(env.Ctx, ref, finance.DirectionOut)
	require.NoError(t, err)
	assert.Equal(t, types.MinorUnits(400), paid)

	_, err = env.Ledger.RecordPayment(env.Ctx, finance.PaymentRequest{Reference: ref, Total: 1000, AccountID: acc.ID})
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidAmount))
	_, err = env.Ledger.RecordPayment(env.Ctx, finance.PaymentRequest{Total: 1000, AccountID: acc.ID, Amount: 1})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestMarkFullyPaid_SingleEntryPerDirection(t *testing.T) {
	env := apptest.New(t)
	acc := env.Account(t)
	ref := entity.NewReference(entity.KindRentalBill, id.New())
	req := finance.MarkPaidRequest{Reference: ref, Amount: 5000, AccountID: acc.ID}

	first, created, err := env.Ledger.MarkFullyPaid(env.Ctx, req)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, finance.DirectionIn, first.Direction)

	again, created, err := env.Ledger.MarkFullyPaid(env.Ctx, req)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)

	refund := req
	refund.Direction = finance.DirectionOut
	_, created, err = env.Ledger.MarkFullyPaid(env.Ctx, refund)
	require.NoError(t, err)
	assert.True(t, created)

	entries, err := env.Ledger.EntriesFor(env.Ctx, ref)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestAccountBalanceAndList(t *testing.T) {
	env := apptest.New(t)
	cash := env.Account(t)
	bank := finance.NewAccount("", "City Bank", finance.AccountBank)
	require.NoError(t, env.Ledger.Accounts.Create(env.Ctx, bank))

	for _, in := range []finance.EntryInput{
		{AccountID: cash.ID, Direction: finance.DirectionIn, Amount: 10000},
		{AccountID: cash.ID, Direction: finance.DirectionOut, Amount: 2500},
		{AccountID: bank.ID, Direction: finance.DirectionIn, Amount: 99},
	} {
		_, err := env.Ledger.CreateEntry(env.Ctx, in)
		require.NoError(t, err)
	}

	balance, err := env.Ledger.AccountBalance(env.Ctx, cash.ID)
	require.NoError(t, err)
	assert.Equal(t, types.MinorUnits(10000), balance.TotalIn)
	assert.Equal(t, types.MinorUnits(2500), balance.TotalOut)
	assert.Equal(t, types.MinorUnits(7500), balance.Balance)

	_, err = env.Ledger.AccountBalance(env.Ctx, id.New())
	assert.True(t, apperror.IsNotFound(err))

	res, err := env.Ledger.ListEntries(env.Ctx, finance.EntryFilter{AccountID: &cash.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.TotalCount)

	res, err = env.Ledger.ListEntries(env.Ctx, finance.EntryFilter{Direction: finance.DirectionIn})
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.TotalCount)
}

func TestOpeningPaymentStatus(t *testing.T) {
	assert.Equal(t, finance.PaymentUnpaid, finance.OpeningPaymentStatus(100))
	assert.Equal(t, finance.PaymentPaid, finance.OpeningPaymentStatus(0))
}
