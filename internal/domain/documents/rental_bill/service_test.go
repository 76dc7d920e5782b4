package rental_bill_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartsewing/internal/app/apptest"
	"smartsewing/internal/core/apperror"
	"smartsewing/internal/core/types"
	"smartsewing/internal/domain/catalogs/product"
	"smartsewing/internal/domain/documents/rental_bill"
	"smartsewing/internal/domain/documents/rental_contract"
	"smartsewing/internal/domain/finance"
)

var (
	periodStart = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	periodEnd   = time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
)

func activeContract(t *testing.T, env *apptest.Env) *rental_contract.Contract {
	t.Helper()
	machine := env.Product(t, "Juki DDL-8700", product.KindRentalAsset, 0, 1)
	doc, err := env.RentalContracts.Create(env.Ctx, rental_contract.CreateInput{
		CustomerName: "Tailor Shop Mirpur",
		RentAmount:   150000,
		Lines:        []rental_contract.LineInput{{ProductID: machine.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	doc, err = env.RentalContracts.Activate(env.Ctx, doc.ID)
	require.NoError(t, err)
	return doc
}

func issuedBill(t *testing.T, env *apptest.Env) *rental_bill.Bill {
	t.Helper()
	contract := activeContract(t, env)
	bill, err := env.RentalBills.Create(env.Ctx, rental_bill.CreateInput{
		ContractID:  contract.ID,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
	})
	require.NoError(t, err)
	bill, err = env.RentalBills.Issue(env.Ctx, bill.ID)
	require.NoError(t, err)
	return bill
}

func TestCreate_DefaultsToContractRent(t *testing.T) {
	env := apptest.New(t)
	contract := activeContract(t, env)

	bill, err := env.RentalBills.Create(env.Ctx, rental_bill.CreateInput{
		ContractID:  contract.ID,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
	})
	require.NoError(t, err)
	assert.Equal(t, rental_bill.StatusDraft, bill.Status)
	assert.Equal(t, types.MinorUnits(150000), bill.Amount)
	assert.Equal(t, contract.Number, bill.ContractNumber)
	assert.Regexp(t, `^RB-\d{4}-00001$`, bill.Number)
}

func TestCreate_Rejections(t *testing.T) {
	env := apptest.New(t)
	machine := env.Product(t, "Overlock", product.KindRentalAsset, 0, 1)
	draft, err := env.RentalContracts.Create(env.Ctx, rental_contract.CreateInput{
		CustomerName: "Tailor Shop Mirpur",
		Lines:        []rental_contract.LineInput{{ProductID: machine.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	active := activeContract(t, env)

	_, err = env.RentalBills.Create(env.Ctx, rental_bill.CreateInput{ContractID: draft.ID, Amount: 100, PeriodStart: periodStart, PeriodEnd: periodEnd})
	assert.True(t, apperror.HasCode(err, apperror.CodeNotPayable))

	_, err = env.RentalBills.Create(env.Ctx, rental_bill.CreateInput{ContractID: active.ID, Amount: -5, PeriodStart: periodStart, PeriodEnd: periodEnd})
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidAmount))

	_, err = env.RentalBills.Create(env.Ctx, rental_bill.CreateInput{ContractID: active.ID, PeriodStart: periodEnd, PeriodEnd: periodStart})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	// A rejected bill does not consume a number.
	bill, err := env.RentalBills.Create(env.Ctx, rental_bill.CreateInput{ContractID: active.ID, PeriodStart: periodStart, PeriodEnd: periodEnd})
	require.NoError(t, err)
	assert.Regexp(t, `-00001$`, bill.Number)
}

func TestMarkPaid_Idempotent(t *testing.T) {
	env := apptest.New(t)
	acc := env.Account(t)
	bill := issuedBill(t, env)

	paid, err := env.RentalBills.MarkPaid(env.Ctx, bill.ID, rental_bill.MarkPaidInput{AccountID: acc.ID})
	require.NoError(t, err)
	assert.Equal(t, finance.PaymentPaid, paid.PaymentStatus)
	require.NotNil(t, paid.PaidAt)

	again, err := env.RentalBills.MarkPaid(env.Ctx, bill.ID, rental_bill.MarkPaidInput{AccountID: acc.ID})
	require.NoError(t, err)
	assert.Equal(t, finance.PaymentPaid, again.PaymentStatus)

	entries, err := env.Ledger.EntriesFor(env.Ctx, bill.Reference())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, types.MinorUnits(150000), entries[0].Amount)
	assert.Equal(t, finance.DirectionIn, entries[0].Direction)

	balance, err := env.Ledger.AccountBalance(env.Ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, types.MinorUnits(150000), balance.Balance)
}

func TestMarkPaid_RequiresIssued(t *testing.T) {
	env := apptest.New(t)
	acc := env.Account(t)
	contract := activeContract(t, env)
	bill, err := env.RentalBills.Create(env.Ctx, rental_bill.CreateInput{ContractID: contract.ID, PeriodStart: periodStart, PeriodEnd: periodEnd})
	require.NoError(t, err)

	_, err = env.RentalBills.MarkPaid(env.Ctx, bill.ID, rental_bill.MarkPaidInput{AccountID: acc.ID})
	assert.True(t, apperror.HasCode(err, apperror.CodeNotPayable))

	entries, err := env.Ledger.EntriesFor(env.Ctx, bill.Reference())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCancel(t *testing.T) {
	env := apptest.New(t)
	acc := env.Account(t)

	t.Run("issued bill", func(t *testing.T) {
		bill := issuedBill(t, env)
		cancelled, err := env.RentalBills.Cancel(env.Ctx, bill.ID)
		require.NoError(t, err)
		assert.Equal(t, rental_bill.StatusCancelled, cancelled.Status)

		again, err := env.RentalBills.Cancel(env.Ctx, bill.ID)
		require.NoError(t, err)
		assert.Equal(t, cancelled.Version, again.Version)
	})

	t.Run("paid bill", func(t *testing.T) {
		bill := issuedBill(t, env)
		_, err := env.RentalBills.MarkPaid(env.Ctx, bill.ID, rental_bill.MarkPaidInput{AccountID: acc.ID})
		require.NoError(t, err)

		_, err = env.RentalBills.Cancel(env.Ctx, bill.ID)
		assert.True(t, apperror.HasCode(err, apperror.CodeIllegalTransition))
	})

	t.Run("draft bill", func(t *testing.T) {
		contract := activeContract(t, env)
		bill, err := env.RentalBills.Create(env.Ctx, rental_bill.CreateInput{ContractID: contract.ID, PeriodStart: periodStart, PeriodEnd: periodEnd})
		require.NoError(t, err)

		_, err = env.RentalBills.Cancel(env.Ctx, bill.ID)
		assert.True(t, apperror.HasCode(err, apperror.CodeInvalidTransition))
	})
}

func TestList_ByContract(t *testing.T) {
	env := apptest.New(t)
	first := issuedBill(t, env)
	issuedBill(t, env)

	res, err := env.RentalBills.List(env.Ctx, rental_bill.ListFilter{ContractID: &first.ContractID})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, first.ID, res.Items[0].ID)
}
