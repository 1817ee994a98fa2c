// Package testing provides test utilities and database setup for testing the tariff keeper
package testing

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/kapustota/btlz-wb-test-vasily-b/models"
	"github.com/kapustota/btlz-wb-test-vasily-b/utils"
)

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateTestWarehouse creates a warehouse with a randomized natural key
func (tf *TestFixtures) CreateTestWarehouse() (*models.Warehouse, error) {
	suffix := rand.Intn(1000000)
	w := &models.Warehouse{
		GeoName:       fmt.Sprintf("Region %d", suffix),
		WarehouseName: fmt.Sprintf("Warehouse %d", suffix),
	}
	if err := tf.DB.DB.Create(w).Error; err != nil {
		return nil, fmt.Errorf("failed to create test warehouse: %w", err)
	}
	return w, nil
}

// CreateTestPeriodWithRate opens a period [start, end) for the warehouse and
// binds a rate row carrying the given base value across all nine fields.
func (tf *TestFixtures) CreateTestPeriodWithRate(warehouseID uint, start time.Time, end *time.Time, base float64) (*models.TariffPeriod, *models.BoxRate, error) {
	period := &models.TariffPeriod{
		StartDate: start,
		EndDate:   utils.TimeToUTCPtr(end),
	}
	if err := tf.DB.DB.Create(period).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to create test period: %w", err)
	}

	rate := &models.BoxRate{
		WarehouseID:    warehouseID,
		TariffPeriodID: period.ID,

		DeliveryBase:  base,
		DeliveryCoef:  base,
		DeliveryLiter: base,

		MarketplaceDeliveryBase:  base,
		MarketplaceDeliveryCoef:  base,
		MarketplaceDeliveryLiter: base,

		StorageBase:  base,
		StorageCoef:  base,
		StorageLiter: base,
	}
	if err := tf.DB.DB.Create(rate).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to create test rate: %w", err)
	}

	return period, rate, nil
}
