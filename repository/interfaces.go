// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"time"

	"github.com/kapustota/btlz-wb-test-vasily-b/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

// ReconcileLockKey is the advisory lock key serializing tariff batch runs.
const ReconcileLockKey int64 = 0x626f785f72617465 // "box_rate"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// WarehouseRepository defines operations for warehouses
type WarehouseRepository interface {
	Repository[models.Warehouse, models.WarehouseFilter]
	ByNames(ctx context.Context, geoName, warehouseName string) (*models.Warehouse, error)
	// ResolveByNames looks a warehouse up by its natural key, creating the row
	// on first sight. Repeated calls with the same key return the same row.
	ResolveByNames(ctx context.Context, geoName, warehouseName string) (*models.Warehouse, error)
}

// TariffPeriodRepository defines operations for tariff periods
type TariffPeriodRepository interface {
	Repository[models.TariffPeriod, models.TariffPeriodFilter]
	// ActiveForWarehouse returns the period covering at for the warehouse, or
	// nil when none exists. Finding more than one covering period is a
	// data-integrity violation reported as ErrOverlappingPeriods.
	ActiveForWarehouse(ctx context.Context, warehouseID uint, at time.Time) (*models.TariffPeriod, error)
	// ExtendTo moves the period's end to the given horizon.
	ExtendTo(ctx context.Context, periodID uint, horizon time.Time) error
	// CloseAt seals the period's upper bound at the given instant.
	CloseAt(ctx context.Context, periodID uint, at time.Time) error
}

// BoxRateRepository defines operations for box rates
type BoxRateRepository interface {
	Repository[models.BoxRate, models.BoxRateFilter]
	ByPeriod(ctx context.Context, warehouseID, periodID uint) (*models.BoxRate, error)
	// Upsert writes the rate row, updating the nine rate fields if a row for
	// the same (warehouse, period) pair already exists.
	Upsert(ctx context.Context, rate *models.BoxRate) error
	// ListActive returns the current-rates projection: every rate whose
	// period is open or ends at/after the given instant, ordered by storage
	// coefficient ascending then region name ascending.
	ListActive(ctx context.Context, at time.Time) ([]*ActiveRate, error)
}

// ActiveRate is one row of the current-rates projection.
type ActiveRate struct {
	GeoName       string     `json:"geo_name"`
	WarehouseName string     `json:"warehouse_name"`
	StartDate     time.Time  `json:"start_date"`
	EndDate       *time.Time `json:"end_date"`

	DeliveryBase             float64 `json:"delivery_base"`
	DeliveryCoef             float64 `json:"delivery_coef"`
	DeliveryLiter            float64 `json:"delivery_liter"`
	MarketplaceDeliveryBase  float64 `json:"marketplace_delivery_base"`
	MarketplaceDeliveryCoef  float64 `json:"marketplace_delivery_coef"`
	MarketplaceDeliveryLiter float64 `json:"marketplace_delivery_liter"`
	StorageBase              float64 `json:"storage_base"`
	StorageCoef              float64 `json:"storage_coef"`
	StorageLiter             float64 `json:"storage_liter"`
}
