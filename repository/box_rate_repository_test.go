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

func TestBoxRateByPeriod(t *testing.T) {
	withRepoDB(t, func(t *testing.T, tdb *apptesting.TestDB) {
		ctx := context.Background()
		repo := NewBoxRateRepository(tdb.DB)
		fixtures := apptesting.NewTestFixtures(tdb)

		warehouse, err := fixtures.CreateTestWarehouse()
		require.NoError(t, err)

		missing, err := repo.ByPeriod(ctx, warehouse.ID, 424242)
		require.NoError(t, err)
		assert.Nil(t, missing)

		period, rate, err := fixtures.CreateTestPeriodWithRate(warehouse.ID, utils.UTCNow(), nil, 48)
		require.NoError(t, err)

		got, err := repo.ByPeriod(ctx, warehouse.ID, period.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, rate.ID, got.ID)
		assert.InDelta(t, 48, got.DeliveryBase, 1e-9)
	})
}

func TestBoxRateUpsert(t *testing.T) {
	withRepoDB(t, func(t *testing.T, tdb *apptesting.TestDB) {
		ctx := context.Background()
		repo := NewBoxRateRepository(tdb.DB)
		fixtures := apptesting.NewTestFixtures(tdb)

		warehouse, err := fixtures.CreateTestWarehouse()
		require.NoError(t, err)
		period, _, err := fixtures.CreateTestPeriodWithRate(warehouse.ID, utils.UTCNow(), nil, 48)
		require.NoError(t, err)

		// Re-writing the same (warehouse, period) pair updates in place.
		err = repo.Upsert(ctx, &models.BoxRate{
			WarehouseID:    warehouse.ID,
			TariffPeriodID: period.ID,
			DeliveryBase:   99,
			StorageCoef:    135,
		})
		require.NoError(t, err)

		var count int64
		require.NoError(t, tdb.DB.Model(&models.BoxRate{}).Count(&count).Error)
		assert.EqualValues(t, 1, count)

		got, err := repo.ByPeriod(ctx, warehouse.ID, period.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.InDelta(t, 99, got.DeliveryBase, 1e-9)
		assert.InDelta(t, 135, got.StorageCoef, 1e-9)
	})
}

func TestListActive(t *testing.T) {
	withRepoDB(t, func(t *testing.T, tdb *apptesting.TestDB) {
		ctx := context.Background()
		repo := NewBoxRateRepository(tdb.DB)
		fixtures := apptesting.NewTestFixtures(tdb)

		now := utils.UTCNow().Truncate(time.Microsecond)

		// Closed in the past: excluded from the projection.
		expired, err := fixtures.CreateTestWarehouse()
		require.NoError(t, err)
		past := now.Add(-time.Hour)
		_, _, err = fixtures.CreateTestPeriodWithRate(expired.ID, now.AddDate(0, -1, 0), &past, 10)
		require.NoError(t, err)

		// Open period: included.
		open, err := fixtures.CreateTestWarehouse()
		require.NoError(t, err)
		_, _, err = fixtures.CreateTestPeriodWithRate(open.ID, now.AddDate(0, -1, 0), nil, 200)
		require.NoError(t, err)

		// Bounded but still active: included.
		bounded, err := fixtures.CreateTestWarehouse()
		require.NoError(t, err)
		future := now.AddDate(0, 1, 0)
		_, _, err = fixtures.CreateTestPeriodWithRate(bounded.ID, now.AddDate(0, -1, 0), &future, 50)
		require.NoError(t, err)

		rows, err := repo.ListActive(ctx, now)
		require.NoError(t, err)
		require.Len(t, rows, 2)

		// Ordered by storage coefficient ascending.
		assert.Equal(t, bounded.WarehouseName, rows[0].WarehouseName)
		assert.InDelta(t, 50, rows[0].StorageCoef, 1e-9)
		assert.Equal(t, open.WarehouseName, rows[1].WarehouseName)
		assert.Nil(t, rows[1].EndDate)
		require.NotNil(t, rows[0].EndDate)
		assert.WithinDuration(t, future, *rows[0].EndDate, time.Millisecond)
	})
}

func TestListActiveEndBoundIsInclusive(t *testing.T) {
	withRepoDB(t, func(t *testing.T, tdb *apptesting.TestDB) {
		ctx := context.Background()
		repo := NewBoxRateRepository(tdb.DB)
		fixtures := apptesting.NewTestFixtures(tdb)

		warehouse, err := fixtures.CreateTestWarehouse()
		require.NoError(t, err)

		now := utils.UTCNow().Truncate(time.Microsecond)
		_, _, err = fixtures.CreateTestPeriodWithRate(warehouse.ID, now.AddDate(0, -1, 0), &now, 48)
		require.NoError(t, err)

		rows, err := repo.ListActive(ctx, now)
		require.NoError(t, err)
		assert.Len(t, rows, 1)

		rows, err = repo.ListActive(ctx, now.Add(time.Second))
		require.NoError(t, err)
		assert.Empty(t, rows)
	})
}
