package models

import (
	"time"
)

// BoxRate is the nine-field rate vector bound to exactly one
// (warehouse, tariff period) pair. Rows are written once per period and are
// logically immutable afterwards; a material rate change always mints a new
// period with a fresh BoxRate rather than touching an existing row.
type BoxRate struct {
	ID             uint `gorm:"primaryKey;autoIncrement" json:"id"`
	WarehouseID    uint `gorm:"not null;uniqueIndex:idx_box_rates_warehouse_period,priority:1" json:"warehouse_id"`
	TariffPeriodID uint `gorm:"not null;uniqueIndex:idx_box_rates_warehouse_period,priority:2" json:"tariff_period_id"`

	DeliveryBase  float64 `gorm:"type:decimal(12,2);not null" json:"delivery_base"`
	DeliveryCoef  float64 `gorm:"type:decimal(12,2);not null" json:"delivery_coef"`
	DeliveryLiter float64 `gorm:"type:decimal(12,2);not null" json:"delivery_liter"`

	MarketplaceDeliveryBase  float64 `gorm:"type:decimal(12,2);not null" json:"marketplace_delivery_base"`
	MarketplaceDeliveryCoef  float64 `gorm:"type:decimal(12,2);not null" json:"marketplace_delivery_coef"`
	MarketplaceDeliveryLiter float64 `gorm:"type:decimal(12,2);not null" json:"marketplace_delivery_liter"`

	StorageBase  float64 `gorm:"type:decimal(12,2);not null" json:"storage_base"`
	StorageCoef  float64 `gorm:"type:decimal(12,2);not null" json:"storage_coef"`
	StorageLiter float64 `gorm:"type:decimal(12,2);not null" json:"storage_liter"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`

	// Relationships
	Warehouse    Warehouse    `gorm:"foreignKey:WarehouseID" json:"warehouse,omitempty"`
	TariffPeriod TariffPeriod `gorm:"foreignKey:TariffPeriodID" json:"tariff_period,omitempty"`
}

// BoxRateFilter represents filter criteria for box rate queries
type BoxRateFilter struct {
	ID             *uint `json:"id,omitempty"`
	WarehouseID    *uint `json:"warehouse_id,omitempty"`
	TariffPeriodID *uint `json:"tariff_period_id,omitempty"`
}

// Vector returns the nine numeric fields in a fixed order for comparison.
func (r *BoxRate) Vector() [9]float64 {
	return [9]float64{
		r.DeliveryBase, r.DeliveryCoef, r.DeliveryLiter,
		r.MarketplaceDeliveryBase, r.MarketplaceDeliveryCoef, r.MarketplaceDeliveryLiter,
		r.StorageBase, r.StorageCoef, r.StorageLiter,
	}
}
