// Package models defines the persisted entities of the tariff keeper.
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Warehouse is a storage location as named by the upstream feed.
// The natural key is (geo_name, warehouse_name); rows are created on first
// observation and never renamed or deleted afterwards.
type Warehouse struct {
	ID            uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UUID          uuid.UUID `gorm:"type:uuid;uniqueIndex;not null;default:gen_random_uuid()" json:"uuid"`
	GeoName       string    `gorm:"not null;uniqueIndex:idx_warehouses_natural_key,priority:1" json:"geo_name"`
	WarehouseName string    `gorm:"not null;uniqueIndex:idx_warehouses_natural_key,priority:2" json:"warehouse_name"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`

	// Relationships
	BoxRates []BoxRate `gorm:"foreignKey:WarehouseID" json:"box_rates,omitempty"`
}

// WarehouseFilter represents filter criteria for warehouse queries
type WarehouseFilter struct {
	ID            *uint      `json:"id,omitempty"`
	UUID          *uuid.UUID `json:"uuid,omitempty"`
	GeoName       *string    `json:"geo_name,omitempty"`
	WarehouseName *string    `json:"warehouse_name,omitempty"`
	CreatedAfter  *time.Time `json:"created_after,omitempty"`
	CreatedBefore *time.Time `json:"created_before,omitempty"`
}

// BeforeCreate ensures UUID is set
func (w *Warehouse) BeforeCreate(tx *gorm.DB) error {
	if w.UUID == uuid.Nil {
		w.UUID = uuid.New()
	}
	return nil
}
