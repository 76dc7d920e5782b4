package sales_invoice_test

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartsewing/internal/app/apptest"
	"smartsewing/internal/core/apperror"
	"smartsewing/internal/core/types"
	"smartsewing/internal/domain"
	"smartsewing/internal/domain/catalogs/product"
	"smartsewing/internal/domain/documents"
	"smartsewing/internal/domain/documents/sales_invoice"
	"smartsewing/internal/domain/events"
	"smartsewing/internal/domain/finance"
	"smartsewing/internal/domain/registers/stock"
)

func createInvoice(t *testing.T, env *apptest.Env, lines ...sales_invoice.LineInput) *sales_invoice.Invoice {
	t.Helper()
	inv, err := env.SalesInvoices.Create(env.Ctx, sales_invoice.CreateInput{
		CustomerName: "Rahima Begum",
		Lines:        lines,
	})
	require.NoError(t, err)
	return inv
}

func TestCreate_SnapshotsPricesAndNumbers(t *testing.T) {
	env := apptest.New(t)
	thread := env.Goods(t, "Cotton thread", 10)
	custom := types.MinorUnits(2550)
	needle := env.Goods(t, "Needle pack", 10)

	inv, err := env.SalesInvoices.Create(env.Ctx, sales_invoice.CreateInput{
		CustomerName: "  Rahima Begum ",
		Discount:     550,
		Lines: []sales_invoice.LineInput{
			{ProductID: thread.ID, Quantity: 2},
			{ProductID: needle.ID, Quantity: 1, UnitPrice: &custom},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, sales_invoice.StatusDraft, inv.Status)
	assert.Equal(t, finance.PaymentUnpaid, inv.PaymentStatus)
	assert.Regexp(t, `^INV-\d{4}-00001$`, inv.Number)
	assert.Equal(t, types.MinorUnits(22550), inv.Subtotal)
	assert.Equal(t, types.MinorUnits(22000), inv.Total)
	assert.Equal(t, "Cotton thread", inv.Lines[0].Title)
	assert.Equal(t, types.MinorUnits(20000), inv.Lines[0].Amount)
	assert.Equal(t, apptest.UserID, inv.CreatedBy)

	// Drafts never touch stock.
	assert.Equal(t, int64(10), env.Quantity(t, thread.ID))

	stored, err := env.SalesInvoices.GetByNumber(env.Ctx, inv.Number)
	require.NoError(t, err)
	assert.Len(t, stored.Lines, 2)
}

func TestCreate_Rejections(t *testing.T) {
	env := apptest.New(t)
	thread := env.Goods(t, "Cotton thread", 10)
	machine := env.Product(t, "Industrial machine", product.KindRentalAsset, 500000, 1)
	retired := env.Goods(t, "Old bobbin", 3)
	require.NoError(t, env.Products.Deactivate(env.Ctx, retired.ID))
	spool := env.Goods(t, "Spool", 10)
	huge := types.MinorUnits(math.MaxInt64/2 + 2)
	half := types.MinorUnits(math.MaxInt64/2 + 1)

	tests := []struct {
		name  string
		input sales_invoice.CreateInput
		code  string
	}{
		{
			name:  "no lines",
			input: sales_invoice.CreateInput{CustomerName: "A"},
			code:  apperror.CodeValidation,
		},
		{
			name: "blank customer",
			input: sales_invoice.CreateInput{CustomerName: " ", Lines: []sales_invoice.LineInput{
				{ProductID: thread.ID, Quantity: 1},
			}},
			code: apperror.CodeValidation,
		},
		{
			name: "zero quantity",
			input: sales_invoice.CreateInput{CustomerName: "A", Lines: []sales_invoice.LineInput{
				{ProductID: thread.ID, Quantity: 0},
			}},
			code: apperror.CodeValidation,
		},
		{
			name: "rental asset",
			input: sales_invoice.CreateInput{CustomerName: "A", Lines: []sales_invoice.LineInput{
				{ProductID: machine.ID, Quantity: 1},
			}},
			code: apperror.CodeValidation,
		},
		{
			name: "inactive product",
			input: sales_invoice.CreateInput{CustomerName: "A", Lines: []sales_invoice.LineInput{
				{ProductID: retired.ID, Quantity: 1},
			}},
			code: apperror.CodeInactive,
		},
		{
			name: "same product twice",
			input: sales_invoice.CreateInput{CustomerName: "A", Lines: []sales_invoice.LineInput{
				{ProductID: thread.ID, Quantity: 1},
				{ProductID: thread.ID, Quantity: 2},
			}},
			code: apperror.CodeValidation,
		},
		{
			name: "discount above subtotal",
			input: sales_invoice.CreateInput{CustomerName: "A", Discount: 10001, Lines: []sales_invoice.LineInput{
				{ProductID: thread.ID, Quantity: 1},
			}},
			code: apperror.CodeValidation,
		},
		{
			name: "line amount out of range",
			input: sales_invoice.CreateInput{CustomerName: "A", Lines: []sales_invoice.LineInput{
				{ProductID: thread.ID, Quantity: 4, UnitPrice: &huge},
			}},
			code: apperror.CodeInvalidAmount,
		},
		{
			name: "subtotal out of range",
			input: sales_invoice.CreateInput{CustomerName: "A", Lines: []sales_invoice.LineInput{
				{ProductID: thread.ID, Quantity: 1, UnitPrice: &half},
				{ProductID: spool.ID, Quantity: 1, UnitPrice: &half},
			}},
			code: apperror.CodeInvalidAmount,
		},
		{
			name: "negative discount",
			input: sales_invoice.CreateInput{CustomerName: "A", Discount: -1, Lines: []sales_invoice.LineInput{
				{ProductID: thread.ID, Quantity: 1},
			}},
			code: apperror.CodeInvalidAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.SalesInvoices.Create(env.Ctx, tt.input)
			require.Error(t, err)
			assert.True(t, apperror.HasCode(err, tt.code), "got %v", err)
		})
	}
}

func TestIssue_DecrementsStockOncePerLine(t *testing.T) {
	env := apptest.New(t)
	thread := env.Goods(t, "Cotton thread", 10)
	inv := createInvoice(t, env, sales_invoice.LineInput{ProductID: thread.ID, Quantity: 3})

	issued, err := env.SalesInvoices.Issue(env.Ctx, inv.ID)
	require.NoError(t, err)

	assert.Equal(t, sales_invoice.StatusIssued, issued.Status)
	require.NotNil(t, issued.IssuedAt)
	assert.Equal(t, int64(7), env.Quantity(t, thread.ID))
	assert.Equal(t, int64(7), env.LocationSum(t, thread.ID))

	moves := env.Movements(thread.ID)
	require.Len(t, moves, 2) // opening balance + issue
	out := moves[1]
	assert.Equal(t, stock.KindOut, out.Kind)
	assert.Equal(t, int64(3), out.Quantity)
	assert.Equal(t, int64(10), out.Before)
	assert.Equal(t, int64(7), out.After)
	assert.Equal(t, inv.Reference(), out.Reference)
}

func TestIssue_AllOrNothing(t *testing.T) {
	env := apptest.New(t)
	thread := env.Goods(t, "Cotton thread", 10)
	scissors := env.Goods(t, "Scissors", 1)
	inv := createInvoice(t, env,
		sales_invoice.LineInput{ProductID: thread.ID, Quantity: 5},
		sales_invoice.LineInput{ProductID: scissors.ID, Quantity: 2},
	)

	_, err := env.SalesInvoices.Issue(env.Ctx, inv.ID)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeInsufficientStock))

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "Scissors", appErr.Details["product"])

	assert.Equal(t, int64(10), env.Quantity(t, thread.ID))
	assert.Equal(t, int64(1), env.Quantity(t, scissors.ID))
	assert.Len(t, env.Movements(thread.ID), 1)

	stored, err := env.SalesInvoices.GetByID(env.Ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, sales_invoice.StatusDraft, stored.Status)
}

func TestCancel_IssuedInvoiceRestocks(t *testing.T) {
	env := apptest.New(t)
	thread := env.Goods(t, "Cotton thread", 10)
	inv := createInvoice(t, env, sales_invoice.LineInput{ProductID: thread.ID, Quantity: 4})

	_, err := env.SalesInvoices.Issue(env.Ctx, inv.ID)
	require.NoError(t, err)
	cancelled, err := env.SalesInvoices.Cancel(env.Ctx, inv.ID)
	require.NoError(t, err)

	assert.Equal(t, sales_invoice.StatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledAt)
	assert.Equal(t, int64(10), env.Quantity(t, thread.ID))

	moves := env.Movements(thread.ID)
	require.Len(t, moves, 3)
	assert.Equal(t, stock.KindIn, moves[2].Kind)
	assert.Equal(t, int64(4), moves[2].Quantity)
	assert.Equal(t, inv.Reference(), moves[2].Reference)

	_, err = env.SalesInvoices.Cancel(env.Ctx, inv.ID)
	assert.True(t, apperror.HasCode(err, apperror.CodeAlreadyInState))
	assert.Equal(t, int64(10), env.Quantity(t, thread.ID))
}

func TestCancel_DraftHasNoStockEffect(t *testing.T) {
	env := apptest.New(t)
	thread := env.Goods(t, "Cotton thread", 10)
	inv := createInvoice(t, env, sales_invoice.LineInput{ProductID: thread.ID, Quantity: 4})

	_, err := env.SalesInvoices.Cancel(env.Ctx, inv.ID)
	require.NoError(t, err)

	assert.Equal(t, int64(10), env.Quantity(t, thread.ID))
	assert.Len(t, env.Movements(thread.ID), 1)
}

func TestTransition_Guard(t *testing.T) {
	env := apptest.New(t)
	thread := env.Goods(t, "Cotton thread", 10)
	inv := createInvoice(t, env, sales_invoice.LineInput{ProductID: thread.ID, Quantity: 1})

	_, err := env.SalesInvoices.Transition(env.Ctx, inv.ID, sales_invoice.StatusDraft)
	assert.True(t, apperror.HasCode(err, apperror.CodeAlreadyInState))

	_, err = env.SalesInvoices.Transition(env.Ctx, inv.ID, sales_invoice.Status("CLOSED"))
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	_, err = env.SalesInvoices.Transition(env.Ctx, inv.ID, sales_invoice.StatusCancelled)
	require.NoError(t, err)

	_, err = env.SalesInvoices.Transition(env.Ctx, inv.ID, sales_invoice.StatusIssued)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidTransition))
	assert.Equal(t, int64(10), env.Quantity(t, thread.ID))
}

func TestRecordPayment_ClampsToRemaining(t *testing.T) {
	env := apptest.New(t)
	acc := env.Account(t)
	thread := env.Goods(t, "Cotton thread", 10)
	inv := createInvoice(t, env, sales_invoice.LineInput{ProductID: thread.ID, Quantity: 3})

	_, _, err := env.SalesInvoices.RecordPayment(env.Ctx, inv.ID, documents.PaymentInput{AccountID: acc.ID, Amount: 100})
	assert.True(t, apperror.HasCode(err, apperror.CodeNotPayable))

	_, err = env.SalesInvoices.Issue(env.Ctx, inv.ID)
	require.NoError(t, err)

	doc, res, err := env.SalesInvoices.RecordPayment(env.Ctx, inv.ID, documents.PaymentInput{AccountID: acc.ID, Amount: 10000})
	require.NoError(t, err)
	assert.Equal(t, types.MinorUnits(10000), res.AmountApplied)
	assert.Equal(t, types.MinorUnits(20000), res.Remaining)
	assert.Equal(t, finance.PaymentPartial, doc.PaymentStatus)
	assert.Len(t, doc.Lines, 1)

	doc, res, err = env.SalesInvoices.RecordPayment(env.Ctx, inv.ID, documents.PaymentInput{AccountID: acc.ID, Amount: 50000})
	require.NoError(t, err)
	assert.Equal(t, types.MinorUnits(20000), res.AmountApplied)
	assert.Equal(t, types.MinorUnits(0), res.Remaining)
	assert.Equal(t, finance.PaymentPaid, doc.PaymentStatus)
	assert.Equal(t, types.MinorUnits(30000), doc.PaidAmount)

	_, _, err = env.SalesInvoices.RecordPayment(env.Ctx, inv.ID, documents.PaymentInput{AccountID: acc.ID, Amount: 1})
	assert.True(t, apperror.HasCode(err, apperror.CodeAlreadyPaid))

	paid, err := env.Ledger.PaidToDate(env.Ctx, inv.Reference(), finance.DirectionIn)
	require.NoError(t, err)
	assert.Equal(t, types.MinorUnits(30000), paid)

	_, err = env.SalesInvoices.Cancel(env.Ctx, inv.ID)
	assert.True(t, apperror.HasCode(err, apperror.CodeIllegalTransition))
	assert.Equal(t, int64(7), env.Quantity(t, thread.ID))
}

func TestUpdate_OnlyDrafts(t *testing.T) {
	env := apptest.New(t)
	thread := env.Goods(t, "Cotton thread", 10)
	inv := createInvoice(t, env, sales_invoice.LineInput{ProductID: thread.ID, Quantity: 1})

	name := "Karim"
	updated, err := env.SalesInvoices.Update(env.Ctx, inv.ID, sales_invoice.UpdateInput{
		Version:      inv.Version,
		CustomerName: &name,
		Lines:        []sales_invoice.LineInput{{ProductID: thread.ID, Quantity: 4}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Karim", updated.CustomerName)
	assert.Equal(t, types.MinorUnits(40000), updated.Total)

	_, err = env.SalesInvoices.Update(env.Ctx, inv.ID, sales_invoice.UpdateInput{Version: inv.Version, CustomerName: &name})
	assert.True(t, apperror.HasCode(err, apperror.CodeConcurrentModification))

	_, err = env.SalesInvoices.Issue(env.Ctx, inv.ID)
	require.NoError(t, err)
	_, err = env.SalesInvoices.Update(env.Ctx, inv.ID, sales_invoice.UpdateInput{CustomerName: &name})
	assert.True(t, apperror.HasCode(err, apperror.CodeBusinessRule))
}

func TestEvents_WrittenWithChanges(t *testing.T) {
	env := apptest.New(t)
	thread := env.Goods(t, "Cotton thread", 1)
	inv := createInvoice(t, env, sales_invoice.LineInput{ProductID: thread.ID, Quantity: 1})
	_, err := env.SalesInvoices.Issue(env.Ctx, inv.ID)
	require.NoError(t, err)

	second := createInvoice(t, env, sales_invoice.LineInput{ProductID: thread.ID, Quantity: 1})
	_, err = env.SalesInvoices.Issue(env.Ctx, second.ID)
	require.Error(t, err)

	var kinds []string
	for _, e := range env.Store.Outbox.Events() {
		if e.AggregateID == inv.ID || e.AggregateID == second.ID {
			kinds = append(kinds, e.EventType)
		}
	}
	// The failed issue leaves no transition event behind.
	assert.Equal(t, []string{events.DocumentCreated, events.DocumentTransitioned, events.DocumentCreated}, kinds)
}

func TestList_FiltersByStatus(t *testing.T) {
	env := apptest.New(t)
	thread := env.Goods(t, "Cotton thread", 10)
	first := createInvoice(t, env, sales_invoice.LineInput{ProductID: thread.ID, Quantity: 1})
	createInvoice(t, env, sales_invoice.LineInput{ProductID: thread.ID, Quantity: 1})
	_, err := env.SalesInvoices.Issue(env.Ctx, first.ID)
	require.NoError(t, err)

	res, err := env.SalesInvoices.List(env.Ctx, domain.DocumentListFilter{Status: string(sales_invoice.StatusIssued)})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, first.ID, res.Items[0].ID)
	assert.Equal(t, int64(1), res.TotalCount)
}

func TestIssue_ConcurrentIssuesNeverOversell(t *testing.T) {
	env := apptest.New(t)
	thread := env.Goods(t, "Cotton thread", 10)
	invoices := []*sales_invoice.Invoice{
		createInvoice(t, env, sales_invoice.LineInput{ProductID: thread.ID, Quantity: 6}),
		createInvoice(t, env, sales_invoice.LineInput{ProductID: thread.ID, Quantity: 6}),
	}

	errs := make([]error, len(invoices))
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i, inv := range invoices {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, errs[i] = env.SalesInvoices.Issue(env.Ctx, inv.ID)
		}()
	}
	close(start)
	wg.Wait()

	var issued, rejected int
	for _, err := range errs {
		switch {
		case err == nil:
			issued++
		case apperror.HasCode(err, apperror.CodeInsufficientStock):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, issued)
	assert.Equal(t, 1, rejected)
	assert.Equal(t, int64(4), env.Quantity(t, thread.ID))
	assert.Equal(t, int64(4), env.LocationSum(t, thread.ID))

	moves := env.Movements(thread.ID)
	require.Len(t, moves, 2) // opening balance + the one issue
	assert.Equal(t, stock.KindOut, moves[1].Kind)
	assert.Equal(t, int64(6), moves[1].Quantity)
}

func TestIssue_ZeroTotalIsSettled(t *testing.T) {
	env := apptest.New(t)
	acc := env.Account(t)
	sample := env.Product(t, "Fabric swatch", product.KindGoods, 0, 5)
	thread := env.Goods(t, "Cotton thread", 5)

	free := createInvoice(t, env, sales_invoice.LineInput{ProductID: sample.ID, Quantity: 2})
	assert.Equal(t, finance.PaymentUnpaid, free.PaymentStatus)
	issued, err := env.SalesInvoices.Issue(env.Ctx, free.ID)
	require.NoError(t, err)
	assert.Equal(t, finance.PaymentPaid, issued.PaymentStatus)

	stored, err := env.SalesInvoices.GetByID(env.Ctx, free.ID)
	require.NoError(t, err)
	assert.Equal(t, finance.PaymentPaid, stored.PaymentStatus)

	_, _, err = env.SalesInvoices.RecordPayment(env.Ctx, free.ID, documents.PaymentInput{AccountID: acc.ID, Amount: 100})
	assert.True(t, apperror.HasCode(err, apperror.CodeAlreadyPaid))

	discounted, err := env.SalesInvoices.Create(env.Ctx, sales_invoice.CreateInput{
		CustomerName: "Rahima Begum",
		Discount:     10000,
		Lines:        []sales_invoice.LineInput{{ProductID: thread.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	require.Equal(t, types.MinorUnits(0), discounted.Total)
	issued, err = env.SalesInvoices.Issue(env.Ctx, discounted.ID)
	require.NoError(t, err)
	assert.Equal(t, finance.PaymentPaid, issued.PaymentStatus)
}
