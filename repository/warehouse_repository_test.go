package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/kapustota/btlz-wb-test-vasily-b/models"
	apptesting "github.com/kapustota/btlz-wb-test-vasily-b/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withRepoDB(t *testing.T, fn func(t *testing.T, tdb *apptesting.TestDB)) {
	t.Helper()

	tdb, err := apptesting.SetupTestDB()
	if err != nil {
		t.Skipf("test database unavailable: %v", err)
	}
	defer func() {
		if err := tdb.TeardownTestDB(); err != nil {
			t.Logf("teardown: %v", err)
		}
	}()

	fn(t, tdb)
}

func TestWarehouseResolveByNames(t *testing.T) {
	withRepoDB(t, func(t *testing.T, tdb *apptesting.TestDB) {
		ctx := context.Background()
		repo := NewWarehouseRepository(tdb.DB)

		first, err := repo.ResolveByNames(ctx, "Центральный", "Коледино")
		require.NoError(t, err)
		require.NotNil(t, first)
		assert.NotZero(t, first.ID)
		assert.NotEqual(t, uuid.Nil, first.UUID)

		// Resolving the same natural key again returns the same row.
		second, err := repo.ResolveByNames(ctx, "Центральный", "Коледино")
		require.NoError(t, err)
		require.NotNil(t, second)
		assert.Equal(t, first.ID, second.ID)

		var count int64
		require.NoError(t, tdb.DB.Model(&models.Warehouse{}).Count(&count).Error)
		assert.EqualValues(t, 1, count)

		// Same warehouse name under a different region is a distinct row.
		other, err := repo.ResolveByNames(ctx, "Сибирь", "Коледино")
		require.NoError(t, err)
		require.NotNil(t, other)
		assert.NotEqual(t, first.ID, other.ID)
	})
}

func TestWarehouseByNamesNotFound(t *testing.T) {
	withRepoDB(t, func(t *testing.T, tdb *apptesting.TestDB) {
		repo := NewWarehouseRepository(tdb.DB)

		w, err := repo.ByNames(context.Background(), "Nowhere", "Depot")
		require.NoError(t, err)
		assert.Nil(t, w)
	})
}
