package repository

import (
	"context"
	"testing"
	"time"

	"github.com/kapustota/btlz-wb-test-vasily-b/models"
	apptesting "github.com/kapustota/btlz-wb-test-vasily-b/testing"
	"github.com/kapustota/btlz-wb-test-vasily-b/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActiveForWarehouse(t *testing.T) {
	withRepoDB(t, func(t *testing.T, tdb *apptesting.TestDB) {
		ctx := context.Background()
		repo := NewTariffPeriodRepository(tdb.DB)
		fixtures := apptesting.NewTestFixtures(tdb)

		warehouse, err := fixtures.CreateTestWarehouse()
		require.NoError(t, err)

		// Truncated so boundary instants survive the timestamptz round-trip.
		now := utils.UTCNow().Truncate(time.Microsecond)

		t.Run("no period returns nil", func(t *testing.T) {
			active, err := repo.ActiveForWarehouse(ctx, warehouse.ID, now)
			require.NoError(t, err)
			assert.Nil(t, active)
		})

		start := now.AddDate(0, -1, 0)
		end := now.AddDate(0, 1, 0)
		period, _, err := fixtures.CreateTestPeriodWithRate(warehouse.ID, start, &end, 48)
		require.NoError(t, err)

		t.Run("covering period is found", func(t *testing.T) {
			active, err := repo.ActiveForWarehouse(ctx, warehouse.ID, now)
			require.NoError(t, err)
			require.NotNil(t, active)
			assert.Equal(t, period.ID, active.ID)
		})

		t.Run("end bound is inclusive", func(t *testing.T) {
			active, err := repo.ActiveForWarehouse(ctx, warehouse.ID, end)
			require.NoError(t, err)
			require.NotNil(t, active)
			assert.Equal(t, period.ID, active.ID)
		})

		t.Run("instant past the end finds nothing", func(t *testing.T) {
			active, err := repo.ActiveForWarehouse(ctx, warehouse.ID, end.Add(time.Second))
			require.NoError(t, err)
			assert.Nil(t, active)
		})

		t.Run("other warehouse sees nothing", func(t *testing.T) {
			other, err := fixtures.CreateTestWarehouse()
			require.NoError(t, err)

			active, err := repo.ActiveForWarehouse(ctx, other.ID, now)
			require.NoError(t, err)
			assert.Nil(t, active)
		})
	})
}

func TestActiveForWarehouseOpenPeriod(t *testing.T) {
	withRepoDB(t, func(t *testing.T, tdb *apptesting.TestDB) {
		ctx := context.Background()
		repo := NewTariffPeriodRepository(tdb.DB)
		fixtures := apptesting.NewTestFixtures(tdb)

		warehouse, err := fixtures.CreateTestWarehouse()
		require.NoError(t, err)

		start := utils.UTCNow().AddDate(0, -1, 0)
		period, _, err := fixtures.CreateTestPeriodWithRate(warehouse.ID, start, nil, 48)
		require.NoError(t, err)

		// An open period covers any instant from its start onwards.
		active, err := repo.ActiveForWarehouse(ctx, warehouse.ID, utils.UTCNow().AddDate(1, 0, 0))
		require.NoError(t, err)
		require.NotNil(t, active)
		assert.Equal(t, period.ID, active.ID)
		assert.Nil(t, active.EndDate)
	})
}

func TestActiveForWarehouseOverlapIsAnError(t *testing.T) {
	withRepoDB(t, func(t *testing.T, tdb *apptesting.TestDB) {
		ctx := context.Background()
		repo := NewTariffPeriodRepository(tdb.DB)
		fixtures := apptesting.NewTestFixtures(tdb)

		warehouse, err := fixtures.CreateTestWarehouse()
		require.NoError(t, err)

		now := utils.UTCNow()
		_, _, err = fixtures.CreateTestPeriodWithRate(warehouse.ID, now.AddDate(0, -2, 0), nil, 48)
		require.NoError(t, err)
		_, _, err = fixtures.CreateTestPeriodWithRate(warehouse.ID, now.AddDate(0, -1, 0), nil, 60)
		require.NoError(t, err)

		_, err = repo.ActiveForWarehouse(ctx, warehouse.ID, now)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrOverlappingPeriods)
	})
}

func TestExtendToAndCloseAt(t *testing.T) {
	withRepoDB(t, func(t *testing.T, tdb *apptesting.TestDB) {
		ctx := context.Background()
		repo := NewTariffPeriodRepository(tdb.DB)
		fixtures := apptesting.NewTestFixtures(tdb)

		warehouse, err := fixtures.CreateTestWarehouse()
		require.NoError(t, err)

		now := utils.UTCNow()
		end := now.AddDate(0, 1, 0)
		period, _, err := fixtures.CreateTestPeriodWithRate(warehouse.ID, now.AddDate(0, -1, 0), &end, 48)
		require.NoError(t, err)

		farther := end.AddDate(0, 1, 0)
		require.NoError(t, repo.ExtendTo(ctx, period.ID, farther))

		var got models.TariffPeriod
		require.NoError(t, tdb.DB.First(&got, period.ID).Error)
		require.NotNil(t, got.EndDate)
		assert.WithinDuration(t, farther, *got.EndDate, time.Millisecond)

		require.NoError(t, repo.CloseAt(ctx, period.ID, now))
		require.NoError(t, tdb.DB.First(&got, period.ID).Error)
		require.NotNil(t, got.EndDate)
		assert.WithinDuration(t, now, *got.EndDate, time.Millisecond)
	})
}

func TestSetEndUnknownPeriod(t *testing.T) {
	withRepoDB(t, func(t *testing.T, tdb *apptesting.TestDB) {
		repo := NewTariffPeriodRepository(tdb.DB)

		err := repo.ExtendTo(context.Background(), 424242, utils.UTCNow())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})
}
