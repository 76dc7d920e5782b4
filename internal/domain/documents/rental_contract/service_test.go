package rental_contract_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartsewing/internal/app/apptest"
	"smartsewing/internal/core/apperror"
	"smartsewing/internal/core/entity"
	"smartsewing/internal/domain/catalogs/product"
	"smartsewing/internal/domain/documents/rental_contract"
	"smartsewing/internal/domain/registers/stock"
)

func TestLifecycle_RentAndReturn(t *testing.T) {
	env := apptest.New(t)
	machine := env.Product(t, "Juki DDL-8700", product.KindRentalAsset, 0, 3)

	doc, err := env.RentalContracts.Create(env.Ctx, rental_contract.CreateInput{
		CustomerName: "Tailor Shop Mirpur",
		RentAmount:   150000,
		Lines:        []rental_contract.LineInput{{ProductID: machine.ID, Quantity: 2}},
	})
	require.NoError(t, err)
	assert.Equal(t, rental_contract.StatusDraft, doc.Status)
	assert.Regexp(t, `^RC-\d{4}-00001$`, doc.Number)
	assert.Equal(t, int64(3), env.Quantity(t, machine.ID))

	active, err := env.RentalContracts.Activate(env.Ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, rental_contract.StatusActive, active.Status)
	assert.NotNil(t, active.ActivatedAt)
	assert.Equal(t, int64(1), env.Quantity(t, machine.ID))

	closed, err := env.RentalContracts.Close(env.Ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, rental_contract.StatusClosed, closed.Status)
	require.NotNil(t, closed.EndDate)
	assert.Equal(t, int64(3), env.Quantity(t, machine.ID))
	assert.Equal(t, int64(3), env.LocationSum(t, machine.ID))

	moves := env.Movements(machine.ID)
	require.Len(t, moves, 3)
	assert.Equal(t, stock.KindOut, moves[1].Kind)
	assert.Equal(t, entity.KindRentalContract, moves[1].Reference.Kind)
	assert.Equal(t, stock.KindIn, moves[2].Kind)
	assert.Equal(t, entity.KindRentalContractReturn, moves[2].Reference.Kind)
	assert.Equal(t, doc.ID, moves[2].Reference.ID)
}

func TestActivate_AllOrNothing(t *testing.T) {
	env := apptest.New(t)
	machine := env.Product(t, "Juki DDL-8700", product.KindRentalAsset, 0, 5)
	overlock := env.Product(t, "Overlock", product.KindRentalAsset, 0, 0)

	doc, err := env.RentalContracts.Create(env.Ctx, rental_contract.CreateInput{
		CustomerName: "Tailor Shop Mirpur",
		Lines: []rental_contract.LineInput{
			{ProductID: machine.ID, Quantity: 1},
			{ProductID: overlock.ID, Quantity: 1},
		},
	})
	require.NoError(t, err)

	_, err = env.RentalContracts.Activate(env.Ctx, doc.ID)
	assert.True(t, apperror.HasCode(err, apperror.CodeInsufficientStock))
	assert.Equal(t, int64(5), env.Quantity(t, machine.ID))

	stored, err := env.RentalContracts.GetByID(env.Ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, rental_contract.StatusDraft, stored.Status)
}

func TestTransition_Guard(t *testing.T) {
	env := apptest.New(t)
	machine := env.Product(t, "Juki DDL-8700", product.KindRentalAsset, 0, 1)
	doc, err := env.RentalContracts.Create(env.Ctx, rental_contract.CreateInput{
		CustomerName: "Tailor Shop Mirpur",
		Lines:        []rental_contract.LineInput{{ProductID: machine.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	_, err = env.RentalContracts.Transition(env.Ctx, doc.ID, rental_contract.StatusClosed)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidTransition))
	assert.Equal(t, int64(1), env.Quantity(t, machine.ID))

	_, err = env.RentalContracts.Transition(env.Ctx, doc.ID, rental_contract.StatusActive)
	require.NoError(t, err)
	_, err = env.RentalContracts.Transition(env.Ctx, doc.ID, rental_contract.StatusActive)
	assert.True(t, apperror.HasCode(err, apperror.CodeAlreadyInState))
	_, err = env.RentalContracts.Transition(env.Ctx, doc.ID, rental_contract.StatusDraft)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidTransition))

	_, err = env.RentalContracts.Transition(env.Ctx, doc.ID, rental_contract.StatusClosed)
	require.NoError(t, err)
	_, err = env.RentalContracts.Transition(env.Ctx, doc.ID, rental_contract.StatusActive)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidTransition))
	assert.Equal(t, int64(1), env.Quantity(t, machine.ID))
}

func TestCreate_RequiresRentalAssets(t *testing.T) {
	env := apptest.New(t)
	thread := env.Goods(t, "Cotton thread", 10)

	_, err := env.RentalContracts.Create(env.Ctx, rental_contract.CreateInput{
		CustomerName: "Tailor Shop Mirpur",
		Lines:        []rental_contract.LineInput{{ProductID: thread.ID, Quantity: 1}},
	})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestActivate_ConcurrentActivationsNeverOverbook(t *testing.T) {
	env := apptest.New(t)
	machine := env.Product(t, "Juki DDL-8700", product.KindRentalAsset, 0, 10)

	var contracts []*rental_contract.Contract
	for _, customer := range []string{"Tailor Shop Mirpur", "Boutique Gulshan"} {
		doc, err := env.RentalContracts.Create(env.Ctx, rental_contract.CreateInput{
			CustomerName: customer,
			Lines:        []rental_contract.LineInput{{ProductID: machine.ID, Quantity: 6}},
		})
		require.NoError(t, err)
		contracts = append(contracts, doc)
	}

	errs := make([]error, len(contracts))
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i, doc := range contracts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, errs[i] = env.RentalContracts.Activate(env.Ctx, doc.ID)
		}()
	}
	close(start)
	wg.Wait()

	var active, rejected int
	for _, err := range errs {
		switch {
		case err == nil:
			active++
		case apperror.HasCode(err, apperror.CodeInsufficientStock):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, active)
	assert.Equal(t, 1, rejected)
	assert.Equal(t, int64(4), env.Quantity(t, machine.ID))
	require.Len(t, env.Movements(machine.ID), 2)
}
