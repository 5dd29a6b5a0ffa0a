package milk

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap/zaptest"

	"github.com/mamadbah2/dairy/internal/domain/models"
	"github.com/mamadbah2/dairy/internal/repository/memory"
)

const day = "2025-03-01"

type fixture struct {
	svc    *Service
	store  *memory.Store
	owner  primitive.ObjectID
	cattle primitive.ObjectID
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := memory.NewStore()
	owner := primitive.NewObjectID()
	c := models.Cattle{TagNo: "T1", Name: "Daisy"}
	require.NoError(t, store.Owner(owner).InsertCattle(context.Background(), &c))
	return fixture{
		svc:    NewService(store, zaptest.NewLogger(t)),
		store:  store,
		owner:  owner,
		cattle: c.ID,
	}
}

func (f fixture) produce(t *testing.T, shift models.Shift, liters float64) *models.ProductionRecord {
	t.Helper()
	rec, err := f.svc.SetProduction(context.Background(), f.owner, ProductionInput{
		CattleID: f.cattle, LocalDate: day, Shift: shift, Liters: liters,
	})
	require.NoError(t, err)
	return rec
}

func (f fixture) sell(liters float64) error {
	_, err := f.svc.AddSale(context.Background(), f.owner, SaleInput{
		CattleID: f.cattle, LocalDate: day, Liters: liters, PricePerLiter: 400,
	})
	return err
}

func TestSetProductionUpsertsPerShift(t *testing.T) {
	f := newFixture(t)

	first := f.produce(t, models.ShiftMorning, 5)
	second := f.produce(t, models.ShiftMorning, 8)

	assert.Equal(t, first.ID, second.ID)
	rows := f.store.ProductionRows()
	require.Len(t, rows, 1)
	assert.Equal(t, 8.0, rows[0].Liters)
}

func TestSetProductionRejectsForeignCattle(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.SetProduction(context.Background(), primitive.NewObjectID(), ProductionInput{
		CattleID: f.cattle, LocalDate: day, Shift: models.ShiftMorning, Liters: 3,
	})
	assert.ErrorIs(t, err, ErrCattleNotFound)
}

func TestSetProductionValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.SetProduction(context.Background(), f.owner, ProductionInput{
		CattleID: f.cattle, LocalDate: "2025-02-30", Shift: "noon", Liters: -1,
	})
	var verrs models.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Len(t, verrs, 3)
}

func TestAddSaleEnforcesCapacity(t *testing.T) {
	f := newFixture(t)
	f.produce(t, models.ShiftMorning, 6)
	f.produce(t, models.ShiftEvening, 4)

	require.NoError(t, f.sell(6))

	err := f.sell(5)
	var capErr *CapacityError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, &CapacityError{ProducedTotal: 10, SoldSoFar: 6, RequestedSale: 5, Remaining: 4}, capErr)

	assert.NoError(t, f.sell(4))
}

func TestAddSaleToleratesRounding(t *testing.T) {
	f := newFixture(t)
	f.produce(t, models.ShiftMorning, 0.3)

	require.NoError(t, f.sell(0.1))
	require.NoError(t, f.sell(0.2))
}

func TestAddSaleWithoutProduction(t *testing.T) {
	f := newFixture(t)

	var capErr *CapacityError
	require.ErrorAs(t, f.sell(1), &capErr)
	assert.Equal(t, 0.0, capErr.Remaining)
}

func TestDeleteProductionGuard(t *testing.T) {
	t.Run("blocked when sales exceed what remains", func(t *testing.T) {
		f := newFixture(t)
		f.produce(t, models.ShiftMorning, 7)
		evening := f.produce(t, models.ShiftEvening, 3)
		require.NoError(t, f.sell(8))

		err := f.svc.DeleteProduction(context.Background(), f.owner, evening.ID)
		var blocked *DeleteBlockedError
		require.ErrorAs(t, err, &blocked)
		assert.Equal(t, 7.0, blocked.ProducedAfterDelete)
		assert.Len(t, f.store.ProductionRows(), 2)
	})

	t.Run("allowed when sales still fit", func(t *testing.T) {
		f := newFixture(t)
		f.produce(t, models.ShiftMorning, 7)
		evening := f.produce(t, models.ShiftEvening, 3)
		require.NoError(t, f.sell(6))

		require.NoError(t, f.svc.DeleteProduction(context.Background(), f.owner, evening.ID))
		assert.Len(t, f.store.ProductionRows(), 1)
	})

	t.Run("foreign owner sees not found", func(t *testing.T) {
		f := newFixture(t)
		rec := f.produce(t, models.ShiftMorning, 7)

		err := f.svc.DeleteProduction(context.Background(), primitive.NewObjectID(), rec.ID)
		assert.ErrorIs(t, err, ErrProductionNotFound)
	})
}

func TestDeleteSale(t *testing.T) {
	f := newFixture(t)
	f.produce(t, models.ShiftMorning, 5)

	sale, err := f.svc.AddSale(context.Background(), f.owner, SaleInput{
		CattleID: f.cattle, LocalDate: day, Liters: 5, PricePerLiter: 400, Buyer: " Co-op ", When: "2025-03-01T09:30:00Z",
	})
	require.NoError(t, err)
	assert.Equal(t, "Co-op", sale.Buyer)
	assert.Equal(t, 9, sale.When.Hour())

	assert.ErrorIs(t, f.svc.DeleteSale(context.Background(), primitive.NewObjectID(), sale.ID), ErrSaleNotFound)
	require.NoError(t, f.svc.DeleteSale(context.Background(), f.owner, sale.ID))
	assert.ErrorIs(t, f.svc.DeleteSale(context.Background(), f.owner, sale.ID), ErrSaleNotFound)
}
